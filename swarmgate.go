// Package swarmgate provides a high-level façade over the registry,
// dispatch coordinator and streaming manager, enabling rapid
// construction of multi-agent chat backends. Most applications interact
// with this package by:
//  1. Creating a Swarm via New() (optionally overriding the backend,
//     selector weights or logger)
//  2. Registering one or more agents
//  3. Dispatching messages (ProcessMessage) or starting chunked streams
//     (StartStream / StopStream) with a custom event sink
//
// The façade delegates fan-out to dispatch.Coordinator and stream
// relays to stream.Manager while keeping setup and usage ergonomics
// concise. All defaults are safe for local development and testing;
// production deployments typically supply a real model backend and a
// structured logger.
package swarmgate

import (
	"context"
	"time"

	"github.com/hupe1980/swarmgate/conversation"
	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/dispatch"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/metrics"
	"github.com/hupe1980/swarmgate/model"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/selector"
	"github.com/hupe1980/swarmgate/stream"
)

// Options configures the Swarm instance.
type Options struct {
	// Backend is the model collaborator. Defaults to a MockBackend,
	// which keeps local development and tests offline.
	Backend model.Backend

	// Weights tunes the selector's scoring blend.
	Weights selector.Weights

	// Infer derives required capability names from a message. Defaults
	// to the keyword table.
	Infer selector.InferenceFunc

	// DispatchTimeout bounds each per-agent backend invocation.
	DispatchTimeout time.Duration

	// Sink receives streaming events. Required before StartStream is
	// used; dispatch-only consumers may leave it nil.
	Sink stream.EventSink

	// Metrics defaults to a private, unexported registry.
	Metrics *metrics.Metrics

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Swarm is the high-level façade aggregating registry, coordinator and
// stream manager.
type Swarm struct {
	opts        Options
	registry    *registry.Registry
	coordinator *dispatch.Coordinator
	streams     *stream.Manager
}

// New creates a new Swarm with optional overrides.
func New(optFns ...func(o *Options)) *Swarm {
	opts := Options{
		Backend:         model.NewMockBackend(),
		Weights:         selector.DefaultWeights,
		Infer:           selector.KeywordInference,
		DispatchTimeout: 60 * time.Second,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	reg := registry.New(func(o *registry.Options) {
		o.Logger = opts.Logger
	})

	sel := selector.New(func(o *selector.Options) {
		o.Weights = opts.Weights
		o.Infer = opts.Infer
		o.Logger = opts.Logger
	})

	coordinator := dispatch.New(reg, opts.Backend, func(o *dispatch.Options) {
		o.Selector = sel
		o.Conversations = conversation.NewStore()
		o.InvokeTimeout = opts.DispatchTimeout
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics
	})

	s := &Swarm{
		opts:        opts,
		registry:    reg,
		coordinator: coordinator,
	}

	if opts.Sink != nil {
		s.streams = stream.New(reg, opts.Backend, opts.Sink, func(o *stream.Options) {
			o.Logger = opts.Logger
			o.Metrics = opts.Metrics
		})
	}

	return s
}

// RegisterAgent adds an agent to the underlying registry.
func (s *Swarm) RegisterAgent(a core.Agent) error {
	return s.registry.Register(a)
}

// Registry exposes the underlying registry for advanced wiring (status
// listeners, manual status control).
func (s *Swarm) Registry() *registry.Registry {
	return s.registry
}

// Agents returns snapshots of the registered agents in registration
// order.
func (s *Swarm) Agents() []core.Agent {
	return s.registry.List()
}

// Agent returns a snapshot of one agent.
func (s *Swarm) Agent(id string) (core.Agent, error) {
	return s.registry.Get(id)
}

// ProcessMessage dispatches a message to the swarm and blocks until
// every resolved agent finished. Outcomes are ordered like the resolved
// target list; an empty slice means no agent could be resolved.
func (s *Swarm) ProcessMessage(ctx context.Context, req core.DispatchRequest) []core.DispatchOutcome {
	return s.coordinator.ProcessMessage(ctx, req)
}

// StartStream begins a chunked streaming session against one agent,
// relaying events to the configured sink. Panics without a Sink option.
func (s *Swarm) StartStream(ctx context.Context, clientID, agentID, message, modelID string) (string, error) {
	if s.streams == nil {
		panic("swarmgate: StartStream requires a Sink option")
	}

	return s.streams.Start(ctx, clientID, agentID, message, modelID)
}

// StopStream requests cooperative cancellation of a streaming session.
func (s *Swarm) StopStream(sessionID string) bool {
	if s.streams == nil {
		return false
	}

	return s.streams.Stop(sessionID)
}

// Status summarizes the fleet.
func (s *Swarm) Status() registry.Aggregate {
	return s.registry.Stats()
}
