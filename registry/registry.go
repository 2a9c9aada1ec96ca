package registry

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/logging"
)

// StatusListener is invoked after an agent's status changes. It runs
// outside the registry locks, so implementations may call back into the
// registry.
type StatusListener func(agentID string, status core.AgentStatus)

// entry guards one agent's mutable state. The per-entry mutex keeps
// concurrent updates to different agents independent of each other.
type entry struct {
	mu    sync.Mutex
	agent core.Agent
	busy  int
}

// Options configures a Registry.
type Options struct {
	// Logger receives registry lifecycle logs. Defaults to NoOpLogger.
	Logger logging.Logger

	// OnStatusChange, when set, is notified of every busy/idle/offline
	// transition.
	OnStatusChange StatusListener
}

// Registry holds the agent fleet for a single process.
type Registry struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	order    []string
	listener StatusListener
	logger   logging.Logger
}

// New creates an empty registry.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		entries:  make(map[string]*entry),
		listener: opts.OnStatusChange,
		logger:   opts.Logger,
	}
}

// SetStatusListener installs the status-change listener. Intended for
// wiring the gateway after construction; not safe to call while
// dispatches are in flight.
func (r *Registry) SetStatusListener(l StatusListener) {
	r.listener = l
}

// Register adds an agent to the registry. Returns ErrDuplicateAgent if
// the id is already taken. Agents without an explicit status start idle.
func (r *Registry) Register(agent core.Agent) error {
	if agent.ID == "" {
		return fmt.Errorf("register: agent id must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[agent.ID]; ok {
		return fmt.Errorf("register %q: %w", agent.ID, core.ErrDuplicateAgent)
	}

	a := agent.Clone()
	if a.Status == "" {
		a.Status = core.StatusIdle
	}

	r.entries[a.ID] = &entry{agent: a}
	r.order = append(r.order, a.ID)

	r.logger.Debug("Agent registered", "agent_id", a.ID, "capabilities", len(a.Capabilities))

	return nil
}

// Get returns a snapshot of the agent, or ErrUnknownAgent.
func (r *Registry) Get(id string) (core.Agent, error) {
	e, err := r.lookup(id)
	if err != nil {
		return core.Agent{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.agent.Clone(), nil
}

// List returns snapshots of all agents in registration order.
func (r *Registry) List() []core.Agent {
	r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock()

	out := make([]core.Agent, 0, len(ids))

	for _, id := range ids {
		if a, err := r.Get(id); err == nil {
			out = append(out, a)
		}
	}

	return out
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}

// Acquire marks the start of a dispatch or stream against the agent,
// incrementing its busy count. The first acquisition flips the agent
// from idle to busy.
func (r *Registry) Acquire(id string) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.busy++
	changed := e.busy == 1 && e.agent.Status != core.StatusBusy
	if changed {
		e.agent.Status = core.StatusBusy
	}
	e.mu.Unlock()

	if changed {
		r.notify(id, core.StatusBusy)
	}

	return nil
}

// Release marks the end of one dispatch or stream. The agent returns to
// idle only when the last concurrent holder releases it.
func (r *Registry) Release(id string) {
	e, err := r.lookup(id)
	if err != nil {
		return
	}

	e.mu.Lock()
	changed := r.release(e)
	e.mu.Unlock()

	if changed {
		r.notify(id, core.StatusIdle)
	}
}

// Complete atomically releases one busy reference and records the
// dispatch outcome in the agent's performance stats. Status restore and
// stat update happen under a single entry lock so a concurrent reader
// never observes one without the other.
func (r *Registry) Complete(id string, success bool, elapsed time.Duration) {
	e, err := r.lookup(id)
	if err != nil {
		return
	}

	e.mu.Lock()
	changed := r.release(e)
	e.agent.Stats.TotalTasks++
	if success {
		e.agent.Stats.SuccessfulTasks++
	}
	e.agent.Stats.TotalResponseTimeMs += elapsed.Milliseconds()
	e.mu.Unlock()

	if changed {
		r.notify(id, core.StatusIdle)
	}
}

// release decrements the busy count and reports whether the agent
// transitioned back to idle. Caller holds e.mu.
func (r *Registry) release(e *entry) bool {
	if e.busy > 0 {
		e.busy--
	}

	if e.busy == 0 && e.agent.Status == core.StatusBusy {
		e.agent.Status = core.StatusIdle
		return true
	}

	return false
}

// RecordOutcome records a completed task without touching the busy
// count. Used by the stream manager, which tracks busy separately.
func (r *Registry) RecordOutcome(id string, success bool, elapsed time.Duration) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.agent.Stats.TotalTasks++
	if success {
		e.agent.Stats.SuccessfulTasks++
	}
	e.agent.Stats.TotalResponseTimeMs += elapsed.Milliseconds()

	return nil
}

// SetStatus forces an agent's status, typically to take it offline or
// bring it back. Clears the busy count when forcing a non-busy status.
func (r *Registry) SetStatus(id string, status core.AgentStatus) error {
	e, err := r.lookup(id)
	if err != nil {
		return err
	}

	e.mu.Lock()
	changed := e.agent.Status != status
	e.agent.Status = status
	if status != core.StatusBusy {
		e.busy = 0
	}
	e.mu.Unlock()

	if changed {
		r.notify(id, status)
	}

	return nil
}

// Aggregate summarizes the whole fleet: totals and the overall success
// rate across every completed task.
type Aggregate struct {
	TotalAgents        int     `json:"total_agents"`
	ActiveAgents       int     `json:"active_agents"`
	TotalTasks         int64   `json:"total_tasks"`
	SuccessfulTasks    int64   `json:"successful_tasks"`
	OverallSuccessRate float64 `json:"overall_success_rate"`
}

// Stats computes the fleet-wide aggregate.
func (r *Registry) Stats() Aggregate {
	agents := r.List()

	agg := Aggregate{TotalAgents: len(agents)}

	for _, a := range agents {
		if a.Status != core.StatusOffline {
			agg.ActiveAgents++
		}
		agg.TotalTasks += a.Stats.TotalTasks
		agg.SuccessfulTasks += a.Stats.SuccessfulTasks
	}

	if agg.TotalTasks > 0 {
		agg.OverallSuccessRate = float64(agg.SuccessfulTasks) / float64(agg.TotalTasks) * 100.0
	}

	return agg
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, fmt.Errorf("agent %q: %w", id, core.ErrUnknownAgent)
	}

	return e, nil
}

func (r *Registry) notify(id string, status core.AgentStatus) {
	if r.listener != nil {
		r.listener(id, status)
	}

	r.logger.Debug("Agent status changed", "agent_id", id, "status", string(status))
}
