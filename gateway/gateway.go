package gateway

import (
	"context"
	"encoding/json"

	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/dispatch"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/registry"
	"github.com/hupe1980/swarmgate/stream"
)

// Options configures a Gateway.
type Options struct {
	Logger logging.Logger
}

// Gateway routes inbound client events to the coordinator and stream
// manager and relays their results back as scoped outbound events. It
// implements stream.EventSink.
type Gateway struct {
	hub         *Hub
	coordinator *dispatch.Coordinator
	streams     *stream.Manager
	registry    *registry.Registry
	logger      logging.Logger
}

// New creates a Gateway over the hub. The stream manager is attached
// afterwards via BindStreams because it needs the gateway as its sink.
func New(hub *Hub, coordinator *dispatch.Coordinator, reg *registry.Registry, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	g := &Gateway{
		hub:         hub,
		coordinator: coordinator,
		registry:    reg,
		logger:      opts.Logger,
	}

	hub.SetDisconnectListener(g.handleDisconnect)

	return g
}

// BindStreams attaches the stream manager. Must be called before the
// gateway accepts connections.
func (g *Gateway) BindStreams(m *stream.Manager) {
	g.streams = m
}

// Hub exposes the underlying hub, mainly for status reporting.
func (g *Gateway) Hub() *Hub {
	return g.hub
}

// AgentStatusChanged broadcasts an agent status transition to every
// client. Wire it as the registry's status listener.
func (g *Gateway) AgentStatusChanged(agentID string, status core.AgentStatus) {
	g.hub.BroadcastAll(Event{
		Type:    EventAgentStatus,
		Payload: AgentStatusPayload{AgentID: agentID, Status: status},
	})
}

// HandleEvent dispatches one inbound frame from conn. Malformed frames
// and unknown types produce an error event scoped to the sender; they
// never take the connection down.
func (g *Gateway) HandleEvent(ctx context.Context, conn *Connection, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		g.sendError(conn.ID, core.CodeInvalidMessage, "malformed event", "")
		return
	}

	switch env.Type {
	case EventSwarmMessage:
		g.handleSwarmMessage(ctx, conn, env.Payload)
	case EventAgentMessage:
		g.handleAgentMessage(ctx, conn, env.Payload)
	case EventStopStream:
		g.handleStopStream(conn, env.Payload)
	case EventJoinRoom:
		g.handleJoinRoom(conn, env.Payload)
	case EventLeaveRoom:
		g.handleLeaveRoom(conn, env.Payload)
	default:
		g.sendError(conn.ID, core.CodeInvalidMessage, "unknown event type: "+env.Type, "")
	}
}

// handleSwarmMessage fans the message out through the coordinator and
// returns the ordered outcomes to the sender. Processing runs off the
// read loop so a slow backend never blocks the connection.
func (g *Gateway) handleSwarmMessage(ctx context.Context, conn *Connection, raw json.RawMessage) {
	var p SwarmMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Text == "" {
		g.sendError(conn.ID, core.CodeInvalidMessage, "swarm_message requires text", "")
		return
	}

	go func() {
		outcomes := g.coordinator.ProcessMessage(ctx, core.DispatchRequest{
			Message:        p.Text,
			TargetIDs:      p.AgentIDs,
			ConversationID: p.ConversationID,
			ClientID:       conn.ID,
		})

		if len(outcomes) == 0 {
			g.sendError(conn.ID, core.CodeNoSuitableAgent, "no agent available for this message", "")
			return
		}

		g.hub.SendToClient(conn.ID, Event{
			Type: EventSwarmResponses,
			Payload: SwarmResponsesPayload{
				ConversationID: p.ConversationID,
				Responses:      outcomes,
			},
		})
	}()
}

// handleAgentMessage starts a streaming session against one agent.
func (g *Gateway) handleAgentMessage(ctx context.Context, conn *Connection, raw json.RawMessage) {
	var p AgentMessagePayload
	if err := json.Unmarshal(raw, &p); err != nil || p.AgentID == "" || p.Text == "" {
		g.sendError(conn.ID, core.CodeInvalidMessage, "agent_message requires agent_id and text", "")
		return
	}

	if _, err := g.streams.Start(ctx, conn.ID, p.AgentID, p.Text, p.Model); err != nil {
		g.sendError(conn.ID, core.CodeForError(err), err.Error(), "")
	}
}

// handleStopStream requests cooperative cancellation. Stops of unknown
// or already finished sessions are silent no-ops.
func (g *Gateway) handleStopStream(conn *Connection, raw json.RawMessage) {
	var p StopStreamPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.SessionID == "" {
		g.sendError(conn.ID, core.CodeInvalidMessage, "stop_stream requires session_id", "")
		return
	}

	if !g.streams.Stop(p.SessionID) {
		g.logger.Debug("Stop for unknown or finished session", "session_id", p.SessionID, "client_id", conn.ID)
	}
}

func (g *Gateway) handleJoinRoom(conn *Connection, raw json.RawMessage) {
	var p RoomPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Room == "" {
		g.sendError(conn.ID, core.CodeInvalidMessage, "join_room requires room", "")
		return
	}

	if err := g.hub.JoinRoom(conn.ID, p.Room); err != nil {
		g.sendError(conn.ID, core.CodeInvalidMessage, err.Error(), "")
		return
	}

	g.hub.SendToClient(conn.ID, Event{Type: EventRoomJoined, Payload: RoomPayload{Room: p.Room}})
}

func (g *Gateway) handleLeaveRoom(conn *Connection, raw json.RawMessage) {
	var p RoomPayload
	if err := json.Unmarshal(raw, &p); err != nil || p.Room == "" {
		g.sendError(conn.ID, core.CodeInvalidMessage, "leave_room requires room", "")
		return
	}

	g.hub.LeaveRoom(conn.ID, p.Room)
	g.hub.SendToClient(conn.ID, Event{Type: EventRoomLeft, Payload: RoomPayload{Room: p.Room}})
}

// handleDisconnect stops every stream the departing client owns.
func (g *Gateway) handleDisconnect(clientID string) {
	if g.streams != nil {
		g.streams.StopClient(clientID)
	}
}

func (g *Gateway) sendError(clientID string, code core.ErrorCode, message, sessionID string) {
	g.hub.SendToClient(clientID, Event{
		Type:    EventError,
		Payload: ErrorPayload{Code: code, Message: message, SessionID: sessionID},
	})
}

// StreamStarted implements stream.EventSink.
func (g *Gateway) StreamStarted(clientID, sessionID, agentID string) {
	g.hub.SendToClient(clientID, Event{
		Type:    EventStreamStart,
		Payload: StreamStartPayload{SessionID: sessionID, AgentID: agentID},
	})
}

// StreamChunk implements stream.EventSink.
func (g *Gateway) StreamChunk(clientID, sessionID, chunk string) {
	g.hub.SendToClient(clientID, Event{
		Type:    EventStreamChunk,
		Payload: StreamChunkPayload{SessionID: sessionID, Chunk: chunk},
	})
}

// StreamEnded implements stream.EventSink.
func (g *Gateway) StreamEnded(clientID, sessionID, fullText string) {
	g.hub.SendToClient(clientID, Event{
		Type:    EventStreamEnd,
		Payload: StreamEndPayload{SessionID: sessionID, FullText: fullText},
	})
}

// StreamStopped implements stream.EventSink.
func (g *Gateway) StreamStopped(clientID, sessionID string) {
	g.hub.SendToClient(clientID, Event{
		Type:    EventStreamStopped,
		Payload: StreamStoppedPayload{SessionID: sessionID},
	})
}

// StreamError implements stream.EventSink.
func (g *Gateway) StreamError(clientID, sessionID string, code core.ErrorCode, message string) {
	g.sendError(clientID, code, message, sessionID)
}
