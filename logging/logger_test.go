package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufAdapter(buf *bytes.Buffer) Logger {
	return NewSlogAdapter(slog.New(slog.NewJSONHandler(buf, nil)))
}

func newBufSwarmLogger(buf *bytes.Buffer) *SwarmLogger {
	return NewLogger(&LoggerConfig{
		Level:       LogLevelDebug,
		Format:      "json",
		Output:      buf,
		CustomAttrs: map[string]interface{}{},
	})
}

func TestLogDispatch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		LogDispatch(newBufAdapter(&buf), "coder", 250*time.Millisecond, true, nil)

		out := buf.String()
		assert.Contains(t, out, "Dispatch completed")
		assert.Contains(t, out, `"agent_id":"coder"`)
		assert.Contains(t, out, `"success":true`)
	})

	t.Run("failure", func(t *testing.T) {
		var buf bytes.Buffer
		LogDispatch(newBufAdapter(&buf), "coder", time.Second, false, errors.New("boom"))

		out := buf.String()
		assert.Contains(t, out, "Dispatch failed")
		assert.Contains(t, out, `"error":"boom"`)
	})
}

func TestLogModelCall(t *testing.T) {
	var buf bytes.Buffer
	LogModelCall(newBufAdapter(&buf), "openai/gpt-4o", 80*time.Millisecond, true, nil)

	out := buf.String()
	assert.Contains(t, out, "Model call completed")
	assert.Contains(t, out, `"model":"openai/gpt-4o"`)
}

func TestLogStreamSession(t *testing.T) {
	var buf bytes.Buffer
	LogStreamSession(newBufAdapter(&buf), "sess1", "creative", 12, time.Second, "completed")

	out := buf.String()
	assert.Contains(t, out, "Stream session finished")
	assert.Contains(t, out, `"chunk_count":12`)
	assert.Contains(t, out, `"reason":"completed"`)
}

func TestSwarmLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	l := newBufSwarmLogger(&buf).
		WithComponent("gateway").
		WithClient("client1", "sess1").
		WithContext("room", "lobby")

	l.Info("hello", "extra", 1)

	out := buf.String()
	assert.Contains(t, out, `"component":"gateway"`)
	assert.Contains(t, out, `"client_id":"client1"`)
	assert.Contains(t, out, `"session_id":"sess1"`)
	assert.Contains(t, out, `"room":"lobby"`)
	assert.Contains(t, out, `"extra":1`)
	assert.Contains(t, out, `"msg":"hello"`)
}

func TestSwarmLoggerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	l.Debug("dropped")
	l.Info("dropped too")
	require.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	l := newBufSwarmLogger(&buf)

	l.ErrorWithStack(errors.New("boom"), "dispatch blew up", "agent_id", "coder")

	out := buf.String()
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, "stack_trace")
	assert.Contains(t, out, `"agent_id":"coder"`)
}

func TestStartTimer(t *testing.T) {
	var buf bytes.Buffer
	l := newBufSwarmLogger(&buf)

	done := l.StartTimer("register_fleet")
	done()

	out := buf.String()
	assert.Contains(t, out, "Operation completed")
	assert.Contains(t, out, `"operation":"register_fleet"`)
}

func TestNewDefaultSlogLogger(t *testing.T) {
	require.NotNil(t, NewDefaultSlogLogger())
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLogLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLogLevel("WARN"))
	assert.Equal(t, LogLevelError, ParseLogLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLogLevel("anything"))
}
