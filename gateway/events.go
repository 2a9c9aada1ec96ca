package gateway

import (
	"encoding/json"

	"github.com/hupe1980/swarmgate/core"
)

// Inbound event types.
const (
	EventSwarmMessage = "swarm_message"
	EventAgentMessage = "agent_message"
	EventStopStream   = "stop_stream"
	EventJoinRoom     = "join_room"
	EventLeaveRoom    = "leave_room"
)

// Outbound event types.
const (
	EventConnectionStatus = "connection_status"
	EventSwarmResponses   = "swarm_responses"
	EventStreamStart      = "stream_start"
	EventStreamChunk      = "stream_chunk"
	EventStreamEnd        = "stream_end"
	EventStreamStopped    = "stream_stopped"
	EventRoomJoined       = "room_joined"
	EventRoomLeft         = "room_left"
	EventAgentStatus      = "agent_status"
	EventError            = "error"
)

// Envelope is the wire frame of every inbound event: a type tag and a
// type-specific payload.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is an outbound frame. Payload is marshalled as-is.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// ConnectionStatusPayload greets a freshly connected client with its id.
type ConnectionStatusPayload struct {
	ClientID string `json:"client_id"`
	Status   string `json:"status"`
}

// SwarmMessagePayload asks for a message to be dispatched to the swarm.
// AgentIDs, when present, skips mention extraction and selection.
type SwarmMessagePayload struct {
	Text           string   `json:"text"`
	AgentIDs       []string `json:"agent_ids,omitempty"`
	ConversationID string   `json:"conversation_id,omitempty"`
}

// SwarmResponsesPayload carries the ordered per-agent outcomes of a
// dispatched swarm message.
type SwarmResponsesPayload struct {
	ConversationID string                 `json:"conversation_id,omitempty"`
	Responses      []core.DispatchOutcome `json:"responses"`
}

// AgentMessagePayload asks for a streamed response from one agent.
type AgentMessagePayload struct {
	AgentID string `json:"agent_id"`
	Text    string `json:"text"`
	Model   string `json:"model,omitempty"`
}

// StreamStartPayload announces a new streaming session.
type StreamStartPayload struct {
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
}

// StreamChunkPayload carries one chunk of a streaming session.
type StreamChunkPayload struct {
	SessionID string `json:"session_id"`
	Chunk     string `json:"chunk"`
}

// StreamEndPayload terminates a naturally completed streaming session.
type StreamEndPayload struct {
	SessionID string `json:"session_id"`
	FullText  string `json:"full_text"`
}

// StreamStoppedPayload terminates an explicitly stopped session.
type StreamStoppedPayload struct {
	SessionID string `json:"session_id"`
}

// StopStreamPayload requests cancellation of a streaming session.
type StopStreamPayload struct {
	SessionID string `json:"session_id"`
}

// RoomPayload names a room for join/leave requests and their acks.
type RoomPayload struct {
	Room string `json:"room"`
}

// AgentStatusPayload broadcasts an agent's status transition.
type AgentStatusPayload struct {
	AgentID string           `json:"agent_id"`
	Status  core.AgentStatus `json:"status"`
}

// ErrorPayload is sent only to the client whose event failed.
type ErrorPayload struct {
	Code      core.ErrorCode `json:"code,omitempty"`
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
}
