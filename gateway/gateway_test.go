package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/dispatch"
	"github.com/hupe1980/swarmgate/model"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/stream"
)

type testGateway struct {
	gw   *Gateway
	hub  *Hub
	reg  *registry.Registry
	mock *model.MockBackend
	conn *Connection
}

func newTestGateway(t *testing.T, agents ...string) *testGateway {
	t.Helper()

	reg := registry.New()
	for _, id := range agents {
		require.NoError(t, reg.Register(core.Agent{ID: id, Name: id, Role: "test agent"}))
	}

	mock := model.NewMockBackend()

	hub := NewHub()
	gw := New(hub, dispatch.New(reg, mock), reg)
	gw.BindStreams(stream.New(reg, mock, gw))

	conn := newConnection(nil)
	hub.Register(conn)

	return &testGateway{gw: gw, hub: hub, reg: reg, mock: mock, conn: conn}
}

func (tg *testGateway) send(t *testing.T, eventType string, payload any) {
	t.Helper()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	data, err := json.Marshal(Envelope{Type: eventType, Payload: raw})
	require.NoError(t, err)

	tg.gw.HandleEvent(context.Background(), tg.conn, data)
}

func TestSwarmMessageRoundTrip(t *testing.T) {
	tg := newTestGateway(t, "cathy", "coder")
	tg.mock.AddResponse("hello swarm", "greetings")

	tg.send(t, EventSwarmMessage, SwarmMessagePayload{
		Text:     "hello swarm",
		AgentIDs: []string{"coder", "cathy"},
	})

	env := recvEvent(t, tg.conn)
	require.Equal(t, EventSwarmResponses, env.Type)

	var p SwarmResponsesPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	require.Len(t, p.Responses, 2)
	assert.Equal(t, "coder", p.Responses[0].AgentID)
	assert.Equal(t, "cathy", p.Responses[1].AgentID)
	assert.Equal(t, "greetings", p.Responses[0].Response)
}

func TestSwarmMessageNoAgentAvailable(t *testing.T) {
	tg := newTestGateway(t) // empty fleet

	tg.send(t, EventSwarmMessage, SwarmMessagePayload{Text: "anyone?"})

	env := recvEvent(t, tg.conn)
	require.Equal(t, EventError, env.Type)

	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, core.CodeNoSuitableAgent, p.Code)
}

func TestMalformedEvents(t *testing.T) {
	tg := newTestGateway(t, "cathy")

	t.Run("invalid json", func(t *testing.T) {
		tg.gw.HandleEvent(context.Background(), tg.conn, []byte("{not json"))

		env := recvEvent(t, tg.conn)
		assert.Equal(t, EventError, env.Type)
	})

	t.Run("unknown type", func(t *testing.T) {
		tg.gw.HandleEvent(context.Background(), tg.conn, []byte(`{"type":"teleport"}`))

		env := recvEvent(t, tg.conn)
		assert.Equal(t, EventError, env.Type)
	})

	t.Run("swarm_message without text", func(t *testing.T) {
		tg.send(t, EventSwarmMessage, SwarmMessagePayload{})

		env := recvEvent(t, tg.conn)
		require.Equal(t, EventError, env.Type)

		var p ErrorPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, core.CodeInvalidMessage, p.Code)
	})
}

func TestAgentMessageStreamsToClient(t *testing.T) {
	tg := newTestGateway(t, "coder")
	tg.mock.AddResponse("stream this", "alpha beta gamma")

	tg.send(t, EventAgentMessage, AgentMessagePayload{AgentID: "coder", Text: "stream this"})

	env := recvEvent(t, tg.conn)
	require.Equal(t, EventStreamStart, env.Type)

	var start StreamStartPayload
	require.NoError(t, json.Unmarshal(env.Payload, &start))
	assert.Equal(t, "coder", start.AgentID)
	require.NotEmpty(t, start.SessionID)

	var sb strings.Builder

	for {
		env = recvEvent(t, tg.conn)

		if env.Type == EventStreamChunk {
			var chunk StreamChunkPayload
			require.NoError(t, json.Unmarshal(env.Payload, &chunk))
			assert.Equal(t, start.SessionID, chunk.SessionID)
			sb.WriteString(chunk.Chunk)
			continue
		}

		break
	}

	require.Equal(t, EventStreamEnd, env.Type)

	var end StreamEndPayload
	require.NoError(t, json.Unmarshal(env.Payload, &end))
	assert.Equal(t, "alpha beta gamma", end.FullText)
	assert.Equal(t, end.FullText, sb.String())
}

func TestAgentMessageUnknownAgent(t *testing.T) {
	tg := newTestGateway(t, "coder")

	tg.send(t, EventAgentMessage, AgentMessagePayload{AgentID: "ghost", Text: "hi"})

	env := recvEvent(t, tg.conn)
	require.Equal(t, EventError, env.Type)

	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, core.CodeUnknownAgent, p.Code)
}

func TestStopStreamEmitsStopped(t *testing.T) {
	tg := newTestGateway(t, "coder")
	tg.mock.AddResponse("long", strings.Repeat("word ", 100))
	tg.mock.SetChunkDelay(10 * time.Millisecond)

	tg.send(t, EventAgentMessage, AgentMessagePayload{AgentID: "coder", Text: "long"})

	env := recvEvent(t, tg.conn)
	require.Equal(t, EventStreamStart, env.Type)

	var start StreamStartPayload
	require.NoError(t, json.Unmarshal(env.Payload, &start))

	// Let at least one chunk through, then stop.
	env = recvEvent(t, tg.conn)
	require.Equal(t, EventStreamChunk, env.Type)

	tg.send(t, EventStopStream, StopStreamPayload{SessionID: start.SessionID})

	for {
		env = recvEvent(t, tg.conn)
		if env.Type != EventStreamChunk {
			break
		}
	}

	assert.Equal(t, EventStreamStopped, env.Type)
	expectSilence(t, tg.conn)
}

func TestStopStreamUnknownSessionIsSilent(t *testing.T) {
	tg := newTestGateway(t, "coder")

	tg.send(t, EventStopStream, StopStreamPayload{SessionID: "no-such-session"})
	expectSilence(t, tg.conn)
}

func TestRoomJoinLeave(t *testing.T) {
	tg := newTestGateway(t, "coder")

	tg.send(t, EventJoinRoom, RoomPayload{Room: "warroom"})

	env := recvEvent(t, tg.conn)
	assert.Equal(t, EventRoomJoined, env.Type)
	assert.Contains(t, tg.hub.RoomMembers("warroom"), tg.conn.ID)

	tg.send(t, EventLeaveRoom, RoomPayload{Room: "warroom"})

	env = recvEvent(t, tg.conn)
	assert.Equal(t, EventRoomLeft, env.Type)
	assert.Empty(t, tg.hub.RoomMembers("warroom"))
}

func TestAgentStatusBroadcast(t *testing.T) {
	tg := newTestGateway(t, "coder")
	tg.reg.SetStatusListener(tg.gw.AgentStatusChanged)

	other := newConnection(nil)
	tg.hub.Register(other)

	require.NoError(t, tg.reg.Acquire("coder"))

	for _, conn := range []*Connection{tg.conn, other} {
		env := recvEvent(t, conn)
		require.Equal(t, EventAgentStatus, env.Type)

		var p AgentStatusPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		assert.Equal(t, "coder", p.AgentID)
		assert.Equal(t, core.StatusBusy, p.Status)
	}
}

func TestDisconnectStopsOwnedStreams(t *testing.T) {
	tg := newTestGateway(t, "coder")
	tg.mock.AddResponse("long", strings.Repeat("word ", 100))
	tg.mock.SetChunkDelay(10 * time.Millisecond)

	tg.send(t, EventAgentMessage, AgentMessagePayload{AgentID: "coder", Text: "long"})

	env := recvEvent(t, tg.conn)
	require.Equal(t, EventStreamStart, env.Type)

	tg.hub.Unregister(tg.conn)

	assert.Eventually(t, func() bool {
		agent, err := tg.reg.Get("coder")
		return err == nil && agent.Status == core.StatusIdle
	}, 2*time.Second, 10*time.Millisecond)
}
