package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	apperrors "github.com/staffboard/staffboard/internal/errors"
)

// maxInboundMessageSize caps what clients may send. The feed is
// server-to-client; inbound frames are only pings and close.
const maxInboundMessageSize = 512

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin enforcement happens at the reverse proxy; tokens
		// are required regardless of origin.
		return true
	},
}

// handleWebSocket upgrades the connection and registers it with the hub.
// The hub owns the write side; this handler blocks on the read pump until
// the client disconnects.
func (s *Server) handleWebSocket(c echo.Context) error {
	recipientID, err := employeeID(c)
	if err != nil {
		return err
	}

	ip := c.RealIP()
	allowed, reason := s.limits.Acquire(ip)
	if !allowed {
		slog.Warn("WebSocket connection rejected", "ip", ip, "reason", string(reason))
		return apperrors.RateLimitedError("too many connections")
	}
	defer s.limits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error("Failed to upgrade WebSocket", "error", err)
		return nil
	}

	conn.SetReadLimit(maxInboundMessageSize)

	if err := s.hub.Register(recipientID, conn); err != nil {
		slog.Warn("Failed to register with hub", "recipient_id", recipientID.String(), "error", err)
		// Connection already closed by hub
		return nil
	}

	// Read pump: discard inbound frames, exit on disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(recipientID, conn)
	return nil
}
