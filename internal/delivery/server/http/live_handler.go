package http

import (
	"net/http"
	"time"

	"restoree/internal/app/certification"
	"restoree/internal/shared/async"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	liveWriteWait  = 10 * time.Second
	livePongWait   = 60 * time.Second
	livePingPeriod = livePongWait * 9 / 10
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// liveMessage is one frame of the live stream.
type liveMessage struct {
	Type      string                  `json:"type"`
	Data      *certification.Snapshot `json:"data,omitempty"`
	Timestamp time.Time               `json:"timestamp"`
}

// Live upgrades to a websocket and pushes a snapshot after every change to
// the session. Client frames are read only to notice disconnects.
func (h *DraftHandler) Live(c *gin.Context) {
	key := c.Param("id")
	updates, cancel, err := h.service.Subscribe(c.Request.Context(), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	defer cancel()

	conn, err := liveUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Live upgrade for %s failed: %v", key, err)
		return
	}
	defer conn.Close()

	closed := make(chan struct{})
	async.Go(h.logger, "live.read", func() {
		defer close(closed)
		conn.SetReadLimit(4096)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"))
				return
			}
			if err := conn.WriteJSON(liveMessage{Type: "snapshot", Data: &snap, Timestamp: time.Now().UTC()}); err != nil {
				h.logger.Debug("Live write for %s failed: %v", key, err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
