package gateway

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hupe1980/swarmgate/core"
	"github.com/hupe1980/swarmgate/logging"
	"github.com/hupe1980/swarmgate/metrics"
)

// sendBufferSize bounds the per-connection outbound queue. A slow
// consumer whose queue overflows loses events rather than blocking the
// hub.
const sendBufferSize = 256

// Connection is one websocket client tracked by the hub. The hub and
// routing layer only touch Send; the underlying socket is driven by the
// read/write pumps.
type Connection struct {
	ID   string
	Send chan []byte

	ws *websocket.Conn
}

func newConnection(ws *websocket.Conn) *Connection {
	return &Connection{
		ID:   core.NewID(),
		Send: make(chan []byte, sendBufferSize),
		ws:   ws,
	}
}

// HubOptions configures a Hub.
type HubOptions struct {
	Logger  logging.Logger
	Metrics *metrics.Metrics
}

// Hub tracks live connections and their room memberships. Rooms are
// many-to-many: a connection may sit in several rooms and a room holds
// several connections.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	rooms       map[string]map[string]bool // room -> connection ids
	memberships map[string]map[string]bool // connection id -> rooms

	onDisconnect func(clientID string)
	logger       logging.Logger
	metrics      *metrics.Metrics
}

// NewHub creates an empty hub.
func NewHub(optFns ...func(o *HubOptions)) *Hub {
	opts := HubOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}

	return &Hub{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[string]bool),
		memberships: make(map[string]map[string]bool),
		logger:      opts.Logger,
		metrics:     opts.Metrics,
	}
}

// SetDisconnectListener installs the callback invoked after a
// connection is unregistered. Wired by the gateway; not safe to swap
// while connections are live.
func (h *Hub) SetDisconnectListener(fn func(clientID string)) {
	h.onDisconnect = fn
}

// Register adds a connection to the hub.
func (h *Hub) Register(conn *Connection) {
	h.mu.Lock()
	h.connections[conn.ID] = conn
	h.mu.Unlock()

	h.metrics.ConnectedClients.Inc()
	h.logger.Info("Client connected", "client_id", conn.ID)
}

// Unregister removes the connection, leaves all its rooms, closes its
// send queue and fires the disconnect listener.
func (h *Hub) Unregister(conn *Connection) {
	h.mu.Lock()

	if _, ok := h.connections[conn.ID]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.connections, conn.ID)

	for room := range h.memberships[conn.ID] {
		delete(h.rooms[room], conn.ID)
		if len(h.rooms[room]) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(h.memberships, conn.ID)

	// Closed under the write lock; deliver re-checks membership under
	// the read lock, so a send can never race the close.
	close(conn.Send)

	h.mu.Unlock()

	h.metrics.ConnectedClients.Dec()
	h.logger.Info("Client disconnected", "client_id", conn.ID)

	if h.onDisconnect != nil {
		h.onDisconnect(conn.ID)
	}
}

// JoinRoom adds the client to a room, creating the room on first join.
func (h *Hub) JoinRoom(clientID, room string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.connections[clientID]; !ok {
		return fmt.Errorf("join room %q: unknown client %q", room, clientID)
	}

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]bool)
	}
	h.rooms[room][clientID] = true

	if h.memberships[clientID] == nil {
		h.memberships[clientID] = make(map[string]bool)
	}
	h.memberships[clientID][room] = true

	return nil
}

// LeaveRoom removes the client from a room, dropping empty rooms.
func (h *Hub) LeaveRoom(clientID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.rooms[room], clientID)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
	delete(h.memberships[clientID], room)
}

// SendToClient queues an event for one client. Unknown clients and full
// queues drop the event; scoped delivery must never block the caller.
func (h *Hub) SendToClient(clientID string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Marshalling event failed", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	conn, ok := h.connections[clientID]
	h.mu.RUnlock()

	if !ok {
		h.logger.Debug("Dropping event for unknown client", "client_id", clientID, "type", event.Type)
		return
	}

	h.deliver(conn, data, event.Type)
}

// BroadcastRoom queues an event for every member of a room.
func (h *Hub) BroadcastRoom(room string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Marshalling event failed", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	members := make([]*Connection, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		if conn, ok := h.connections[id]; ok {
			members = append(members, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range members {
		h.deliver(conn, data, event.Type)
	}
}

// BroadcastAll queues an event for every connected client.
func (h *Hub) BroadcastAll(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("Marshalling event failed", "type", event.Type, "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.connections))
	for _, conn := range h.connections {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	for _, conn := range conns {
		h.deliver(conn, data, event.Type)
	}
}

// ClientCount returns the number of live connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.connections)
}

// RoomMembers returns the connection ids currently in a room.
func (h *Hub) RoomMembers(room string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(h.rooms[room]))
	for id := range h.rooms[room] {
		out = append(out, id)
	}

	return out
}

func (h *Hub) deliver(conn *Connection, data []byte, eventType string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.connections[conn.ID]; !ok {
		return
	}

	select {
	case conn.Send <- data:
	default:
		h.logger.Warn("Send queue full, dropping event", "client_id", conn.ID, "type", eventType)
	}
}
