package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/couchcryptid/tankwatch/internal/domain"
)

// Send/receive timing configuration and message size limits.
const (
	writeWait           = 10 * time.Second
	pongWait            = 60 * time.Second
	pingPeriod          = (pongWait * 9) / 10
	maxMsgSize          = 1 << 12 // 4 KB
	defaultPushInterval = 7 * time.Second
	minPushInterval     = 500 * time.Millisecond
	maxPushInterval     = time.Minute
)

type wsEnvelope struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

type dashboardPayload struct {
	Tanks   []domain.DeviceState `json:"tanks"`
	Alerts  []domain.Alert       `json:"alerts"`
	Summary domain.Summary       `json:"summary"`
}

// The dashboard is read-only and unauthenticated, so any origin may subscribe.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

func (s *Server) handleWS(c *gin.Context) {
	interval := s.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	if m := s.deps.Metrics; m != nil {
		m.WSClients.Inc()
		defer m.WSClients.Dec()
	}

	conn.SetReadLimit(maxMsgSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The reader drains control frames and notices when the client leaves.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(interval)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		ping.Stop()
	}()

	if err := s.pushDashboard(conn); err != nil {
		s.logger.Debug("websocket initial write failed", "error", err)
		return
	}

	for {
		select {
		case <-done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ticker.C:
			if err := s.pushDashboard(conn); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// parseInterval reads ?interval=2s, falling back to the configured push
// interval when absent or out of bounds.
func (s *Server) parseInterval(c *gin.Context) time.Duration {
	if raw := c.Query("interval"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= minPushInterval && d <= maxPushInterval {
			return d
		}
	}
	return s.deps.PushInterval
}

func (s *Server) pushDashboard(conn *websocket.Conn) error {
	state := s.deps.Dashboard.State()
	payload := dashboardPayload{
		Tanks:   domain.SortedDevices(state.Devices, nil),
		Alerts:  s.deps.Dashboard.Alerts(),
		Summary: s.deps.Dashboard.Summary(),
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(wsEnvelope{Type: "dashboard", Data: payload})
}
