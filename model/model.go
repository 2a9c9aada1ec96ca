package model

import (
	"context"
	"errors"
	"time"
)

// ErrStreamingUnsupported is returned by backends that only implement
// the non-streaming path.
var ErrStreamingUnsupported = errors.New("streaming not supported by this backend")

// Invocation captures the normalized per-agent input of one backend
// call: the persona-derived system prompt, the user message and the
// model to use.
type Invocation struct {
	AgentID      string `json:"agent_id"`
	SystemPrompt string `json:"system_prompt"`
	Message      string `json:"message"`
	Model        string `json:"model"`
}

// Result is the final output of a non-streaming invocation.
type Result struct {
	Text    string        `json:"text"`
	Model   string        `json:"model"`
	Elapsed time.Duration `json:"elapsed"`
}

// ChunkStream iterates over streamed text chunks. Call Next until it
// returns false, reading each chunk via Current; then check Err to
// distinguish completion from failure. Mirrors the SDK stream shape so
// callers can interleave their own checks between pulls.
type ChunkStream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Info contains metadata about a backend implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "mock", etc.
}

// Backend is the model collaborator behind dispatch and streaming. Both
// methods honor ctx cancellation and deadlines; InvokeStreaming may
// return ErrStreamingUnsupported.
type Backend interface {
	Invoke(ctx context.Context, inv Invocation) (*Result, error)
	InvokeStreaming(ctx context.Context, inv Invocation) (ChunkStream, error)

	// Info returns information about the backend implementation.
	Info() Info
}
