package server

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/engmostafaayman001-hub/markode-ai/internal/metrics"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the editor is served from multiple preview origins
	},
}

// handleWebSocket upgrades the connection and pumps frames into the hub
// until the client disconnects.
func (s *Server) handleWebSocket(c echo.Context) error {
	ip := c.RealIP()

	allowed, reason := s.connLimits.Acquire(ip)
	if !allowed {
		metrics.WebSocketConnectionsRejected.WithLabelValues(string(reason)).Inc()
		metrics.WebSocketConnectionsTotal.WithLabelValues("rejected").Inc()
		slog.Warn("rejecting websocket connection", "ip", ip, "reason", reason)
		return c.String(http.StatusTooManyRequests, "Too many connections")
	}
	defer s.connLimits.Release(ip)

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		metrics.WebSocketConnectionsTotal.WithLabelValues("error").Inc()
		slog.Warn("websocket upgrade failed", "error", err)
		return nil
	}

	if err := s.deps.Hub.Register(conn); err != nil {
		// Connection already closed by the hub.
		slog.Warn("hub rejected connection", "error", err)
		return nil
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			break
		}
		s.deps.Hub.HandleMessage(conn, raw)
	}

	s.deps.Hub.Unregister(conn)
	return nil
}
