package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/session"
)

const writeTimeout = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// detectionMessage is the JSON sent for every classified frame.
type detectionMessage struct {
	Label     string  `json:"label"`
	Distance  float64 `json:"distance"`
	Index     int     `json:"index"`
	Timestamp int64   `json:"timestamp"`
}

// DetectionsHandler broadcasts detection results via WebSocket.
type DetectionsHandler struct {
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	logger  *log.Logger
}

// NewDetectionsHandler creates a handler with no clients.
func NewDetectionsHandler(logger *log.Logger) *DetectionsHandler {
	if logger == nil {
		logger = log.Default()
	}
	return &DetectionsHandler{
		clients: make(map[*websocket.Conn]bool),
		logger:  logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *DetectionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()

	defer h.remove(conn)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *DetectionsHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

// Clients returns the number of connected clients.
func (h *DetectionsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast sends r to every client. Clients that fail to accept the
// message within the write timeout are dropped.
func (h *DetectionsHandler) Broadcast(r session.Result) {
	msg, err := json.Marshal(detectionMessage{
		Label:     r.Match.Label,
		Distance:  r.Match.Distance,
		Index:     r.Match.Index,
		Timestamp: r.Timestamp.UnixMilli(),
	})
	if err != nil {
		h.logger.Printf("encode detection: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			conn.Close()
			delete(h.clients, conn)
		}
	}
}

// CloseAll disconnects every client.
func (h *DetectionsHandler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeTimeout))
		conn.Close()
		delete(h.clients, conn)
	}
}
