package model

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockBackendInvoke(t *testing.T) {
	t.Run("canned response", func(t *testing.T) {
		mock := NewMockBackend()
		mock.AddResponse("ping", "pong")

		res, err := mock.Invoke(context.Background(), Invocation{AgentID: "coder", Message: "ping", Model: "test-model"})
		require.NoError(t, err)
		assert.Equal(t, "pong", res.Text)
		assert.Equal(t, "test-model", res.Model)
	})

	t.Run("default response", func(t *testing.T) {
		mock := NewMockBackend()

		res, err := mock.Invoke(context.Background(), Invocation{Message: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "Mock response to: hi", res.Text)
		assert.Equal(t, "mock", res.Model)
	})

	t.Run("scripted failure", func(t *testing.T) {
		boom := errors.New("boom")

		mock := NewMockBackend()
		mock.FailFor("coder", boom)

		_, err := mock.Invoke(context.Background(), Invocation{AgentID: "coder", Message: "hi"})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("latency honors context deadline", func(t *testing.T) {
		mock := NewMockBackend()
		mock.SetLatency(time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
		defer cancel()

		_, err := mock.Invoke(ctx, Invocation{Message: "hi"})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestMockBackendStreaming(t *testing.T) {
	mock := NewMockBackend()
	mock.AddResponse("tell me a story", "once upon a time")

	stream, err := mock.InvokeStreaming(context.Background(), Invocation{Message: "tell me a story"})
	require.NoError(t, err)

	defer func() { assert.NoError(t, stream.Close()) }()

	var sb strings.Builder
	for stream.Next() {
		sb.WriteString(stream.Current())
	}

	require.NoError(t, stream.Err())
	assert.Equal(t, "once upon a time", sb.String())
}
