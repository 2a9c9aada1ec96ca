package stream

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/metrics"
	"github.com/hupe1980/swarmgate/model"
	"github.com/hupe1980/swarmgate/registry"
)

// EventSink receives the lifecycle events of streaming sessions. The
// gateway implements it to relay events to the owning client. All
// methods are called from the session's relay goroutine (StreamStarted
// from the caller of Start), never concurrently for one session.
type EventSink interface {
	StreamStarted(clientID, sessionID, agentID string)
	StreamChunk(clientID, sessionID, chunk string)
	StreamEnded(clientID, sessionID, fullText string)
	StreamStopped(clientID, sessionID string)
	StreamError(clientID, sessionID string, code core.ErrorCode, message string)
}

// session is one live stream. active is the cooperative cancellation
// flag polled between chunk pulls.
type session struct {
	id       string
	clientID string
	agentID  string
	active   atomic.Bool
	started  time.Time
}

// Options configures a Manager.
type Options struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Manager owns the table of live streaming sessions.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	registry *registry.Registry
	backend  model.Backend
	sink     EventSink
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// New creates a Manager relaying events to sink.
func New(reg *registry.Registry, backend model.Backend, sink EventSink, optFns ...func(o *Options)) *Manager {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	return &Manager{
		sessions: make(map[string]*session),
		registry: reg,
		backend:  backend,
		sink:     sink,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
	}
}

// Start begins a streaming session for clientID against agentID and
// returns the session id. The agent is held busy for the session's
// lifetime. ctx should outlive the websocket message that triggered the
// call; it bounds the backend call, not the session.
func (m *Manager) Start(ctx context.Context, clientID, agentID, message, modelID string) (string, error) {
	agent, err := m.registry.Get(agentID)
	if err != nil {
		return "", err
	}

	if modelID == "" {
		modelID = agent.Model
	}

	if err := m.registry.Acquire(agentID); err != nil {
		return "", err
	}

	s := &session{
		id:       core.NewID(),
		clientID: clientID,
		agentID:  agentID,
		started:  time.Now(),
	}
	s.active.Store(true)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.metrics.ActiveStreams.Inc()

	m.logger.Info("Stream session started", "session_id", s.id, "agent_id", agentID, "client_id", clientID)

	m.sink.StreamStarted(clientID, s.id, agentID)

	go m.run(ctx, s, agent, message, modelID)

	return s.id, nil
}

// Stop requests cooperative cancellation of a session. Returns true
// when the session existed and was still active; duplicate stops and
// unknown ids return false without side effects.
func (m *Manager) Stop(sessionID string) bool {
	m.mu.Lock()
	s, ok := m.sessions[sessionID]
	m.mu.Unlock()

	if !ok {
		return false
	}

	return s.active.CompareAndSwap(true, false)
}

// StopClient stops every session owned by clientID. Called by the
// gateway when a client disconnects.
func (m *Manager) StopClient(clientID string) {
	m.mu.Lock()
	var owned []*session
	for _, s := range m.sessions {
		if s.clientID == clientID {
			owned = append(owned, s)
		}
	}
	m.mu.Unlock()

	for _, s := range owned {
		if s.active.CompareAndSwap(true, false) {
			m.logger.Debug("Stream stopped on disconnect", "session_id", s.id, "client_id", clientID)
		}
	}
}

// ActiveCount returns the number of live sessions.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

// run relays chunks until completion, stop or error. All terminal
// events are emitted here, so they are ordered after every chunk event
// of the session.
func (m *Manager) run(ctx context.Context, s *session, agent core.Agent, message, modelID string) {
	var (
		chunks int
		reason = "completed"
	)

	defer func() {
		m.finish(s)
		logging.LogStreamSession(m.logger, s.id, s.agentID, chunks, time.Since(s.started), reason)
	}()

	inv := model.Invocation{
		AgentID:      s.agentID,
		SystemPrompt: systemPrompt(agent),
		Message:      message,
		Model:        modelID,
	}

	stream, err := m.backend.InvokeStreaming(ctx, inv)
	if err != nil {
		reason = "error"
		s.active.Store(false)
		m.registry.RecordOutcome(s.agentID, false, time.Since(s.started))
		m.sink.StreamError(s.clientID, s.id, core.CodeBackendError, err.Error())

		return
	}

	defer func() {
		if err := stream.Close(); err != nil {
			m.logger.Warn("Closing chunk stream failed", "session_id", s.id, "error", err)
		}
	}()

	var full strings.Builder

	for s.active.Load() && stream.Next() {
		chunk := stream.Current()
		chunks++
		full.WriteString(chunk)
		m.metrics.StreamChunks.Inc()
		m.sink.StreamChunk(s.clientID, s.id, chunk)
	}

	// Stopped sessions are neither success nor failure; they leave the
	// agent's stats untouched.
	if !s.active.Load() {
		reason = "stopped"
		m.sink.StreamStopped(s.clientID, s.id)

		return
	}

	s.active.Store(false)

	if err := stream.Err(); err != nil {
		reason = "error"
		m.registry.RecordOutcome(s.agentID, false, time.Since(s.started))
		m.sink.StreamError(s.clientID, s.id, core.CodeBackendError, err.Error())

		return
	}

	m.registry.RecordOutcome(s.agentID, true, time.Since(s.started))
	m.sink.StreamEnded(s.clientID, s.id, full.String())
}

// finish releases the agent and drops the session from the table.
func (m *Manager) finish(s *session) {
	m.mu.Lock()
	delete(m.sessions, s.id)
	m.mu.Unlock()

	m.registry.Release(s.agentID)
	m.metrics.ActiveStreams.Dec()
}

func systemPrompt(agent core.Agent) string {
	var sb strings.Builder

	sb.WriteString("You are " + agent.Name)
	if agent.Role != "" {
		sb.WriteString(", a " + agent.Role)
	}
	sb.WriteString(".")

	if agent.Personality != "" {
		sb.WriteString("\n\nPersonality: " + agent.Personality)
	}

	sb.WriteString("\n\nRespond in character, being helpful and leveraging your specific expertise.")

	return sb.String()
}
