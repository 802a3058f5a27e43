package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MJE43/tokentrek-go/internal/world"
)

// wsUpdate is the message pushed to subscribers after each position change.
type wsUpdate struct {
	Type   string            `json:"type"`
	Caches []world.CacheView `json:"caches"`
}

// Hub fans active-set updates out to websocket subscribers. Slow
// subscribers are dropped rather than allowed to stall the game loop.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
	log  *log.Logger

	upgrader websocket.Upgrader
}

type subscriber struct {
	out chan []byte
}

// NewHub creates an empty hub.
func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		subs: make(map[*subscriber]struct{}),
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 4 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // local collaborator only
		},
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Broadcast serializes the active set once and queues it to every
// subscriber. Full queues are skipped; the next update supersedes this one
// anyway.
func (h *Hub) Broadcast(caches []world.CacheView) {
	msg, err := json.Marshal(wsUpdate{Type: "active_set", Caches: caches})
	if err != nil {
		h.log.Printf("ws broadcast marshal failed: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.out <- msg:
		default:
		}
	}
}

func (h *Hub) add(sub *subscriber) {
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// handleWebSocket upgrades the connection and streams active-set updates
// until the client disconnects. Incoming messages are ignored; the socket
// is a one-way push channel.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.hub.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	sub := &subscriber{out: make(chan []byte, 16)}
	s.hub.add(sub)
	defer s.hub.remove(sub)

	// Send the current active set immediately so the client can render
	// without waiting for the next move.
	if msg, err := json.Marshal(wsUpdate{Type: "active_set", Caches: s.session.ActiveCaches()}); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	done := make(chan struct{})

	// Reader loop: we only care about close frames.
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case msg := <-sub.out:
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}
