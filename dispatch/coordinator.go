package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/swarmgate/conversation"
	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/mention"
	"github.com/hupe1980/swarmgate/metrics"
	"github.com/hupe1980/swarmgate/model"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/selector"
)

// Options configures a Coordinator.
type Options struct {
	// Selector picks an agent when neither explicit targets nor
	// mentions resolve. Defaults to selector.New().
	Selector *selector.Selector

	// Conversations, when set, records transcripts and feeds recent
	// history into the system prompt.
	Conversations *conversation.Store

	// InvokeTimeout bounds each backend invocation. An expired deadline
	// becomes a BACKEND_TIMEOUT outcome for that agent only.
	InvokeTimeout time.Duration

	// HistoryLimit caps the transcript entries included per invocation.
	HistoryLimit int

	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Coordinator fans one dispatch request out to its resolved agents.
type Coordinator struct {
	registry      *registry.Registry
	backend       model.Backend
	selector      *selector.Selector
	conversations *conversation.Store
	invokeTimeout time.Duration
	historyLimit  int
	logger        logging.Logger
	metrics       *metrics.Metrics
}

// New creates a Coordinator over the given registry and backend.
func New(reg *registry.Registry, backend model.Backend, optFns ...func(o *Options)) *Coordinator {
	opts := Options{
		Selector:      selector.New(),
		InvokeTimeout: 60 * time.Second,
		HistoryLimit:  10,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	return &Coordinator{
		registry:      reg,
		backend:       backend,
		selector:      opts.Selector,
		conversations: opts.Conversations,
		invokeTimeout: opts.InvokeTimeout,
		historyLimit:  opts.HistoryLimit,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
	}
}

// ProcessMessage resolves the request's targets and invokes each one
// concurrently, blocking until every invocation finished. The returned
// slice is ordered like the resolved target list and is empty (never
// nil error) when no agent could be resolved; surfacing that condition
// to the user is the caller's concern.
func (c *Coordinator) ProcessMessage(ctx context.Context, req core.DispatchRequest) []core.DispatchOutcome {
	targets := c.resolveTargets(ctx, req)
	if len(targets) == 0 {
		c.logger.Warn("No agents resolved for message", "explicit_targets", len(req.TargetIDs))
		return []core.DispatchOutcome{}
	}

	if c.conversations != nil {
		c.conversations.Append(req.ConversationID, conversation.Entry{Author: "user", Text: req.Message})
	}

	outcomes := make([]core.DispatchOutcome, len(targets))

	var wg sync.WaitGroup

	for i, agent := range targets {
		wg.Add(1)

		go func(i int, agent core.Agent) {
			defer wg.Done()
			outcomes[i] = c.invokeAgent(ctx, agent, req)
		}(i, agent)
	}

	wg.Wait()

	if c.conversations != nil {
		for _, o := range outcomes {
			if !o.IsError() {
				c.conversations.Append(req.ConversationID, conversation.Entry{Author: o.AgentID, Text: o.Response})
			}
		}
	}

	return outcomes
}

// resolveTargets applies the resolution chain. Explicit ids win even
// when only some of them exist; mentions are consulted only without
// explicit ids; the selector only without mentions.
func (c *Coordinator) resolveTargets(ctx context.Context, req core.DispatchRequest) []core.Agent {
	if len(req.TargetIDs) > 0 {
		var targets []core.Agent

		for _, id := range req.TargetIDs {
			agent, err := c.registry.Get(id)
			if err != nil {
				c.logger.Debug("Dropping unknown target", "agent_id", id)
				continue
			}

			targets = append(targets, agent)
		}

		return targets
	}

	agents := c.registry.List()

	if ids := mention.Extract(req.Message, agents); len(ids) > 0 {
		targets := make([]core.Agent, 0, len(ids))

		for _, id := range ids {
			if agent, err := c.registry.Get(id); err == nil {
				targets = append(targets, agent)
			}
		}

		return targets
	}

	if best := c.selector.Select(ctx, req.Message, agents); best != nil {
		return []core.Agent{*best}
	}

	return nil
}

// invokeAgent performs one backend call with full registry bookkeeping.
// Every failure mode becomes an error outcome; nothing escapes as a
// returned error.
func (c *Coordinator) invokeAgent(ctx context.Context, agent core.Agent, req core.DispatchRequest) core.DispatchOutcome {
	if err := c.registry.Acquire(agent.ID); err != nil {
		return core.NewErrorOutcome(agent, core.CodeForError(err), err, 0)
	}

	invCtx, cancel := context.WithTimeout(ctx, c.invokeTimeout)
	defer cancel()

	inv := model.Invocation{
		AgentID:      agent.ID,
		SystemPrompt: c.systemPrompt(agent, req.ConversationID),
		Message:      req.Message,
		Model:        agent.Model,
	}

	start := time.Now()
	res, err := c.backend.Invoke(invCtx, inv)
	elapsed := time.Since(start)

	success := err == nil

	c.registry.Complete(agent.ID, success, elapsed)

	logging.LogModelCall(c.logger, inv.Model, elapsed, success, err)
	logging.LogDispatch(c.logger, agent.ID, elapsed, success, err)

	if err != nil {
		code := core.CodeBackendError
		if errors.Is(err, context.DeadlineExceeded) {
			code = core.CodeBackendTimeout
		}

		c.metrics.ObserveDispatch(agent.ID, string(core.OutcomeError), elapsed)

		return core.NewErrorOutcome(agent, code, err, elapsed)
	}

	c.metrics.ObserveDispatch(agent.ID, string(core.OutcomeSuccess), elapsed)

	return core.NewSuccessOutcome(agent, res.Text, res.Model, elapsed)
}

// systemPrompt builds the persona prompt from the agent definition,
// appending recent transcript lines when a conversation is tracked.
func (c *Coordinator) systemPrompt(agent core.Agent, conversationID string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are %s, a %s.\n", agent.Name, agent.Role)

	if agent.Personality != "" {
		fmt.Fprintf(&sb, "\nPersonality: %s\n", agent.Personality)
	}

	if len(agent.Capabilities) > 0 {
		names := make([]string, len(agent.Capabilities))
		for i, capability := range agent.Capabilities {
			names[i] = capability.Name
		}
		fmt.Fprintf(&sb, "\nCapabilities: %s\n", strings.Join(names, ", "))
	}

	sb.WriteString("\nRespond in character, being helpful and leveraging your specific expertise.\nKeep responses concise but informative.")

	if c.conversations != nil && conversationID != "" {
		if history := c.conversations.History(conversationID, c.historyLimit); len(history) > 0 {
			sb.WriteString("\n\nRecent conversation:\n")
			for _, e := range history {
				fmt.Fprintf(&sb, "%s: %s\n", e.Author, e.Text)
			}
		}
	}

	return sb.String()
}
