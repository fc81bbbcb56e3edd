package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"beacon/internal/constants"
	"beacon/internal/security"
	"beacon/internal/store"
)

// Feed pushes freshly recorded visits to connected dashboard clients.
type Feed struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

type feedMessage struct {
	Type string      `json:"type"`
	Data store.Visit `json:"data"`
}

func NewFeed() *Feed {
	return &Feed{clients: make(map[*websocket.Conn]bool)}
}

func (f *Feed) register(conn *websocket.Conn) {
	f.mu.Lock()
	f.clients[conn] = true
	f.mu.Unlock()
}

func (f *Feed) unregister(conn *websocket.Conn) {
	f.mu.Lock()
	delete(f.clients, conn)
	f.mu.Unlock()
	conn.Close()
}

// Broadcast sends the visit to every connected client. Clients that fail the
// write are dropped.
func (f *Feed) Broadcast(visit store.Visit) {
	payload, err := json.Marshal(feedMessage{Type: "visit", Data: visit})
	if err != nil {
		log.Printf("Feed: failed to marshal visit: %v", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			delete(f.clients, conn)
			conn.Close()
		}
	}
}

func (f *Feed) CloseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for conn := range f.clients {
		conn.Close()
		delete(f.clients, conn)
	}
}

func (s *Server) HandleLiveFeed(w http.ResponseWriter, r *http.Request) {
	if !s.authenticated(r) {
		http.Error(w, constants.MsgUnauthorized, http.StatusUnauthorized)
		return
	}

	clientIP := security.GetClientIP(r)
	if !s.ConnLimiter.TryConnect(clientIP) {
		if s.AuditLogger != nil {
			s.AuditLogger.LogConnectionLimit(clientIP)
		}
		http.Error(w, "Connection limit exceeded", http.StatusTooManyRequests)
		return
	}
	defer s.ConnLimiter.Disconnect(clientIP)

	upgrader := websocket.Upgrader{
		ReadBufferSize:  constants.FeedWSBufferSize,
		WriteBufferSize: constants.FeedWSBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return security.ValidateOrigin(r, nil)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Feed: upgrade error: %v", err)
		return
	}

	s.Feed.register(conn)
	defer s.Feed.unregister(conn)

	// Clients never send application data; the read loop only notices closes.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
