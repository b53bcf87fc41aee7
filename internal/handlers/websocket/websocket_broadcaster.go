package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"fundStatApp/internal/domain/model"
	"fundStatApp/internal/domain/useCases"
)

// WebSocketBroadcaster implements the Broadcaster interface, pushing
// window-stats and trending updates to connected clients.
type WebSocketBroadcaster struct {
	clients  map[*websocket.Conn]struct{}
	mu       sync.Mutex
	upgrader websocket.Upgrader
}

func NewWebSocketBroadcaster() *WebSocketBroadcaster {
	return &WebSocketBroadcaster{
		clients:  make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
}

var _ useCases.Broadcaster = (*WebSocketBroadcaster)(nil)

type wsMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// BroadcastWindowStats pushes updated rolling statistics for one project.
func (b *WebSocketBroadcaster) BroadcastWindowStats(stats *model.ProjectWindowStats) {
	b.send(wsMessage{Type: "windowStats", Payload: stats})
}

// BroadcastTrending pushes a freshly ranked trending list.
func (b *WebSocketBroadcaster) BroadcastTrending(records []model.TrendingProject) {
	b.send(wsMessage{Type: "trending", Payload: records})
}

func (b *WebSocketBroadcaster) send(msg wsMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to marshal ws message: %v", err)
		return
	}
	for c := range b.clients {
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("websocket write error: %v", err)
			c.Close()
			delete(b.clients, c)
		}
	}
}

// Handler returns an http.HandlerFunc that accepts websocket connections.
func (b *WebSocketBroadcaster) Handler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := b.upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		b.mu.Lock()
		b.clients[conn] = struct{}{}
		b.mu.Unlock()

		// Read loop keeps the connection alive and detects closes.
		go func() {
			defer func() {
				b.mu.Lock()
				delete(b.clients, conn)
				b.mu.Unlock()
				conn.Close()
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					break
				}
			}
		}()
	}
}
