package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	// writeWait bounds a single websocket write.
	writeWait = 10 * time.Second

	// pongWait is how long to wait for a pong before declaring the
	// connection dead; pings go out slightly more often.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checking is left to the deployment's proxy layer.
	CheckOrigin: func(*http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the connection's pumps. It
// blocks until the client disconnects.
func (g *Gateway) HandleWS(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		g.logger.Error("Websocket upgrade failed", "error", err)
		return err
	}

	conn := newConnection(ws)
	g.hub.Register(conn)

	g.hub.SendToClient(conn.ID, Event{
		Type:    EventConnectionStatus,
		Payload: ConnectionStatusPayload{ClientID: conn.ID, Status: "connected"},
	})

	go g.writePump(conn)
	g.readPump(conn)

	return nil
}

// readPump relays inbound frames into HandleEvent until the socket
// dies. The per-connection context cancels backend work tied to events
// still in flight when the client goes away.
func (g *Gateway) readPump(conn *Connection) {
	ctx, cancel := context.WithCancel(context.Background())

	defer func() {
		cancel()
		g.hub.Unregister(conn)

		if err := conn.ws.Close(); err != nil {
			g.logger.Debug("Closing websocket failed", "client_id", conn.ID, "error", err)
		}
	}()

	conn.ws.SetReadLimit(maxMessageSize)

	if err := conn.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}

	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				g.logger.Warn("Websocket read error", "client_id", conn.ID, "error", err)
			}
			return
		}

		g.HandleEvent(ctx, conn, data)
	}
}

// writePump drains the connection's send queue onto the socket and
// keeps the connection alive with pings.
func (g *Gateway) writePump(conn *Connection) {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := conn.ws.Close(); err != nil {
			g.logger.Debug("Closing websocket failed", "client_id", conn.ID, "error", err)
		}
	}()

	for {
		select {
		case data, ok := <-conn.Send:
			if err := conn.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				_ = conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := conn.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
