package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/yourorg/paper-trade/internal/execution"
)

// Hub fans executed trades out to connected websocket clients. A slow client
// is dropped rather than allowed to stall the rest.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*wsClient]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
		case client := <-h.register:
			h.clients[client] = true
			h.logger.Debug("websocket client connected", "clients", len(h.clients))
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case msg := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- msg:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast publishes a trade event. It never blocks the order path: when the
// buffer is full the event is dropped.
func (h *Hub) Broadcast(result *execution.OrderResult) {
	payload, err := json.Marshal(map[string]any{
		"type": "trade",
		"data": orderResponse(result),
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("trade event dropped, broadcast buffer full")
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the SPA origin; auth happens via JWT on
	// the API, the socket only carries outbound events.
	CheckOrigin: func(*http.Request) bool { return true },
}

// ServeWS upgrades the connection and attaches it to the hub.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}
	client := &wsClient{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}
