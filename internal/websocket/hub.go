// Package websocket pushes risk score updates to connected dashboard
// clients. A single Hub fans broadcast messages out to every registered
// client; slow clients are disconnected rather than allowed to stall the
// broadcast loop.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"cmxcli/internal/infrastructure"
	"cmxcli/internal/snapshot"
)

// Message type constants
const (
	TypeConnection = "connection"
	TypeRiskUpdate = "risk_update"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	logger  *slog.Logger
	metrics *infrastructure.Metrics

	quit    chan struct{}
	done    chan struct{}
	running bool
}

// NewHub creates a new Hub. Metrics may be nil.
func NewHub(logger *slog.Logger, metrics *infrastructure.Metrics) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    metrics,
		quit:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

// Start launches the hub's broadcast loop
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	go h.run()
}

// run owns every send on a client channel; closing those channels here,
// and only here, keeps shutdown free of send-on-closed races.
func (h *Hub) run() {
	defer close(h.done)

	for {
		select {
		case <-h.quit:
			h.closeAllClients()
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.broadcast:
			h.fanOut(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	if h.metrics != nil && h.metrics.WebSocketClients != nil {
		h.metrics.WebSocketClients.Add(ctx, 1)
	}

	// Greet the new client so the dashboard knows the channel is live
	greeting, err := json.Marshal(map[string]interface{}{
		"type": TypeConnection,
		"data": map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err == nil {
		select {
		case client.send <- greeting:
		default:
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx := context.Background()
	if client.traceID != "" {
		ctx = infrastructure.WithTraceID(ctx, client.traceID)
	}

	h.logger.InfoContext(ctx, "client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.Duration("connection_duration", time.Since(client.connectedAt)))

	if h.metrics != nil && h.metrics.WebSocketClients != nil {
		h.metrics.WebSocketClients.Add(ctx, -1)
	}
}

func (h *Hub) fanOut(message []byte) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	failed := 0
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			// Send buffer full, drop the client
			failed++
			h.removeClient(client)
			h.logger.Warn("client send buffer full, disconnecting",
				slog.String("client_id", client.id))
		}
	}

	if failed > 0 {
		h.logger.Warn("broadcast incomplete",
			slog.Int("client_count", len(clients)),
			slog.Int("fail_count", failed))
	}
}

// BroadcastRiskUpdate pushes refreshed risk scores to every client
func (h *Hub) BroadcastRiskUpdate(rows []snapshot.RiskScoreRow) {
	message, err := json.Marshal(map[string]interface{}{
		"type":      TypeRiskUpdate,
		"data":      rows,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err != nil {
		h.logger.Error("failed to marshal risk update", slog.String("error", err.Error()))
		return
	}

	select {
	case h.broadcast <- message:
	case <-h.quit:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
	}
}

// Stop shuts the hub down and disconnects every client. It blocks until
// the broadcast loop has drained and released all clients.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)
	<-h.done
}
