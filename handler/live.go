package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/AnTengye/jurieasy/pkg/logger"
	"github.com/AnTengye/jurieasy/service"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type liveClient struct {
	sessionID string
	send      chan []byte
}

// LiveHub fans session events out to the websocket clients watching that
// session. Publish never blocks; a full client queue drops the event.
type LiveHub struct {
	mu      sync.RWMutex
	clients map[string]map[*liveClient]struct{}
}

func NewLiveHub() *LiveHub {
	return &LiveHub{clients: make(map[string]map[*liveClient]struct{})}
}

func (h *LiveHub) register(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c.sessionID] == nil {
		h.clients[c.sessionID] = make(map[*liveClient]struct{})
	}
	h.clients[c.sessionID][c] = struct{}{}
}

// unregister removes c and closes its queue. The channel is only closed
// here, under the write lock, so Publish never sends on a closed channel.
func (h *LiveHub) unregister(c *liveClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.sessionID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// Publish is the session manager notifier.
func (h *LiveHub) Publish(ev service.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		slog.Error("failed to encode live event", "error", err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[ev.SessionID] {
		if !deliver(c, msg) {
			slog.Warn("live client queue full, event dropped", "session_id", ev.SessionID, "type", ev.Kind)
		}
	}
}

// deliver must be called with the read lock held.
func deliver(c *liveClient, msg []byte) bool {
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (h *LiveHub) sendTo(c *liveClient, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c.sessionID][c]; ok {
		deliver(c, msg)
	}
}

// Count returns the number of connected clients for a session.
func (h *LiveHub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[sessionID])
}

// Close disconnects every client.
func (h *LiveHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

// Serve upgrades the request and streams events of the session loaded by
// WizardHandler.LoadSession until either side closes.
func (h *LiveHub) Serve(c *gin.Context) {
	sess := currentSession(c)
	ctx := c.Request.Context()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "websocket upgrade failed", "error", err)
		return
	}

	client := &liveClient{sessionID: sess.ID(), send: make(chan []byte, sendBuffer)}
	h.register(client)
	logger.Debug(ctx, "live client connected")

	hello, _ := json.Marshal(gin.H{"type": "state", "state": sess.State()})
	h.sendTo(client, hello)

	go h.writePump(ctx, conn, client)
	h.readPump(conn, client)
	logger.Debug(ctx, "live client disconnected")
}

// readPump discards client messages and keeps the read deadline moving on
// pongs. It returns when the connection fails.
func (h *LiveHub) readPump(conn *websocket.Conn, client *liveClient) {
	defer h.unregister(client)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read failed", "error", err)
			}
			return
		}
	}
}

func (h *LiveHub) writePump(ctx context.Context, conn *websocket.Conn, client *liveClient) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-client.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logger.Debug(ctx, "websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
