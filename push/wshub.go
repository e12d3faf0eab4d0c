package push

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openlot-io/openlot/engineapi"
)

const (
	wsWriteTimeout  = 5 * time.Second
	wsSendBuffer    = 256
	wsPingInterval  = 30 * time.Second
	wsPongWait      = 60 * time.Second
	wsMaxClientRead = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Bidder clients connect from browser origins; auth happens upstream.
	CheckOrigin: func(*http.Request) bool { return true },
}

// WSHub fans engine events out to connected websocket clients. A slow client
// is evicted rather than allowed to stall the hub.
type WSHub struct {
	mu     sync.Mutex
	subs   map[int]chan engineapi.Event
	nextID int
	closed bool
	log    *zap.Logger
}

var _ Publisher = (*WSHub)(nil)

func NewWSHub(log *zap.Logger) *WSHub {
	return &WSHub{
		subs: make(map[int]chan engineapi.Event),
		log:  log,
	}
}

func (h *WSHub) Publish(_ context.Context, ev engineapi.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Evict the slow subscriber to keep the hub healthy.
			close(ch)
			delete(h.subs, id)
			h.log.Warn("evicted slow websocket subscriber", zap.Int("subscriber", id))
		}
	}
	return nil
}

func (h *WSHub) subscribe() (int, <-chan engineapi.Event, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return 0, nil, false
	}
	id := h.nextID
	h.nextID++
	ch := make(chan engineapi.Event, wsSendBuffer)
	h.subs[id] = ch
	return id, ch, true
}

func (h *WSHub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// ServeWS upgrades the request and streams events until the client goes away.
func (h *WSHub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	id, events, ok := h.subscribe()
	if !ok {
		_ = conn.Close()
		return nil
	}

	// Reader goroutine: we expect no client messages, but reading drives
	// pong handling and disconnect detection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		conn.SetReadLimit(wsMaxClientRead)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingInterval)
	defer func() {
		ticker.Stop()
		h.unsubscribe(id)
		_ = conn.Close()
	}()

	for {
		select {
		case ev, open := <-events:
			if !open {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case <-done:
			return nil
		}
	}
}

func (h *WSHub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	return nil
}
