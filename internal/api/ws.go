package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/playback"
)

const (
	wsSendBuffer   = 64
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongWait     = 2 * wsPingInterval
)

const (
	MessageState = "state"
	MessageFrame = "frame"
)

// Message is one push to websocket subscribers.
type Message struct {
	Type   string            `json:"type"`
	Change editor.ChangeKind `json:"change,omitempty"`
	State  *editor.State     `json:"state,omitempty"`
	Frame  playback.Frame    `json:"frame"`
	Mode   playback.Mode     `json:"mode,omitempty"`
}

// FrameSource resolves preview frames. *playback.Transport implements it.
type FrameSource interface {
	FrameFor(st editor.State) playback.Frame
	Frame() playback.Frame
	Mode() playback.Mode
}

// Hub fans session changes out to websocket clients. Slow clients drop
// messages rather than stall the editor.
type Hub struct {
	frames   FrameSource
	session  *editor.Session
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

type wsClient struct {
	send chan []byte
}

func NewHub(session *editor.Session, frames FrameSource, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	h := &Hub{
		frames:  frames,
		session: session,
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 32 * 1024,
		CheckOrigin:     checkWSOrigin,
	}
	return h
}

// checkWSOrigin allows same-origin and loopback UI origins.
func checkWSOrigin(r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		return true
	}
	if strings.Contains(origin, "://"+strings.TrimSpace(r.Host)) {
		return true
	}
	return isAllowedOrigin(origin)
}

// OnChange is the session subscriber. It runs on the mutating goroutine,
// possibly while the playback loop holds its lock, so it only encodes and
// queues.
func (h *Hub) OnChange(c editor.Change) {
	st := c.State
	h.broadcast(Message{
		Type:   MessageState,
		Change: c.Kind,
		State:  &st,
		Frame:  h.frames.FrameFor(st),
	})
}

// Run pushes frames while a library clip loops, since that mode does not
// change session state.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if h.ClientCount() == 0 || h.frames.Mode() != playback.ModeSourceLoop {
				continue
			}
			h.broadcast(Message{Type: MessageFrame, Frame: h.frames.Frame(), Mode: playback.ModeSourceLoop})
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) broadcast(msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to encode ws message", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("ws client lagging, message dropped")
		}
	}
}

func (h *Hub) register() *wsClient {
	c := &wsClient{send: make(chan []byte, wsSendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	client := h.register()
	defer h.unregister(client)

	st := h.session.State()
	first, _ := json.Marshal(Message{Type: MessageState, State: &st, Frame: h.frames.FrameFor(st), Mode: h.frames.Mode()})
	client.send <- first

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.writePump(ctx, conn, client)
		// Unblocks readPump when the write side fails first.
		conn.Close()
	}()

	h.readPump(conn)
	cancel()
	wg.Wait()
}

// readPump discards client messages and returns when the peer goes away.
func (h *Hub) readPump(conn *websocket.Conn) {
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("ws read error", "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(ctx context.Context, conn *websocket.Conn, c *wsClient) {
	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case data := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
