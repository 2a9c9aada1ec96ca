package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockBackend is a lightweight in-memory Backend useful for tests &
// examples. Responses are canned per message; failures and latency can
// be scripted per agent to exercise error and timeout paths.
type MockBackend struct {
	mu         sync.Mutex
	responses  map[string]string
	failures   map[string]error
	latency    time.Duration
	chunkDelay time.Duration
}

// NewMockBackend constructs an empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		responses: make(map[string]string),
		failures:  make(map[string]error),
	}
}

// AddResponse registers a deterministic canned completion for a message.
func (m *MockBackend) AddResponse(message, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.responses[message] = response
}

// FailFor makes every invocation for the given agent return err.
func (m *MockBackend) FailFor(agentID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[agentID] = err
}

// SetLatency delays every Invoke by d, honoring ctx cancellation.
func (m *MockBackend) SetLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.latency = d
}

// SetChunkDelay delays each streamed chunk by d.
func (m *MockBackend) SetChunkDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.chunkDelay = d
}

// Invoke implements Backend.
func (m *MockBackend) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	start := time.Now()

	m.mu.Lock()
	latency := m.latency
	failure := m.failures[inv.AgentID]
	full := m.responses[inv.Message]
	m.mu.Unlock()

	if latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(latency):
		}
	}

	if failure != nil {
		return nil, failure
	}

	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inv.Message)
	}

	modelID := inv.Model
	if modelID == "" {
		modelID = "mock"
	}

	return &Result{Text: full, Model: modelID, Elapsed: time.Since(start)}, nil
}

// InvokeStreaming implements Backend; the canned response is replayed
// in word-sized chunks whose concatenation equals the full text.
func (m *MockBackend) InvokeStreaming(ctx context.Context, inv Invocation) (ChunkStream, error) {
	m.mu.Lock()
	failure := m.failures[inv.AgentID]
	full := m.responses[inv.Message]
	chunkDelay := m.chunkDelay
	m.mu.Unlock()

	if failure != nil {
		return nil, failure
	}

	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", inv.Message)
	}

	return &mockStream{ctx: ctx, chunks: strings.SplitAfter(full, " "), delay: chunkDelay}, nil
}

// Info implements Backend.
func (m *MockBackend) Info() Info {
	return Info{Name: "mock", Provider: "mock"}
}

type mockStream struct {
	ctx     context.Context
	chunks  []string
	current string
	delay   time.Duration
	err     error
}

func (s *mockStream) Next() bool {
	if s.err != nil || len(s.chunks) == 0 {
		return false
	}

	if s.delay > 0 {
		select {
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return false
		case <-time.After(s.delay):
		}
	}

	s.current = s.chunks[0]
	s.chunks = s.chunks[1:]

	return true
}

func (s *mockStream) Current() string { return s.current }

func (s *mockStream) Err() error { return s.err }

func (s *mockStream) Close() error { return nil }
