package core

import "time"

// DispatchRequest describes one inbound user message to be fanned out
// to agents. TargetIDs, when non-empty, bypasses mention extraction and
// automatic selection.
type DispatchRequest struct {
	Message        string   `json:"message"`
	TargetIDs      []string `json:"agent_ids,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
	ClientID       string   `json:"-"`
}

// OutcomeStatus tags a DispatchOutcome as success or error.
type OutcomeStatus string

const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// DispatchOutcome is the per-agent result of a dispatch. A slice of
// outcomes is always ordered like the resolved target list, regardless
// of completion order. Failures are data here, never propagated errors,
// so one agent's failure cannot suppress its siblings' results.
type DispatchOutcome struct {
	AgentID      string        `json:"agent_id"`
	AgentName    string        `json:"agent_name"`
	Status       OutcomeStatus `json:"status"`
	Response     string        `json:"response,omitempty"`
	Model        string        `json:"model,omitempty"`
	ElapsedMs    int64         `json:"elapsed_ms"`
	ErrorCode    ErrorCode     `json:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// NewSuccessOutcome builds a success outcome for the given agent.
func NewSuccessOutcome(agent Agent, response, model string, elapsed time.Duration) DispatchOutcome {
	return DispatchOutcome{
		AgentID:   agent.ID,
		AgentName: agent.Name,
		Status:    OutcomeSuccess,
		Response:  response,
		Model:     model,
		ElapsedMs: elapsed.Milliseconds(),
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorOutcome builds an error outcome for the given agent.
func NewErrorOutcome(agent Agent, code ErrorCode, err error, elapsed time.Duration) DispatchOutcome {
	msg := ""
	if err != nil {
		msg = err.Error()
	}

	return DispatchOutcome{
		AgentID:      agent.ID,
		AgentName:    agent.Name,
		Status:       OutcomeError,
		ElapsedMs:    elapsed.Milliseconds(),
		ErrorCode:    code,
		ErrorMessage: msg,
		Timestamp:    time.Now().UTC(),
	}
}

// IsError reports whether the outcome represents a failed invocation.
func (o DispatchOutcome) IsError() bool {
	return o.Status == OutcomeError
}
