package websocket

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"cmxcli/internal/config"
	"cmxcli/internal/infrastructure"
)

// Handler upgrades HTTP requests to websocket connections and wires the
// resulting clients into the hub.
type Handler struct {
	hub      *Hub
	cfg      config.WebSocketConfig
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a websocket handler. An empty allowedOrigins list
// permits same-host connections only.
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Handler{
		hub:    hub,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "websocket.handler")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeHTTP handles GET /ws
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}

	client := NewClient(h.hub, conn, h.cfg, infrastructure.GetTraceID(r.Context()), h.logger)
	select {
	case h.hub.register <- client:
	case <-h.hub.quit:
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) == 0 {
			// Same-host only
			return strings.Contains(origin, r.Host)
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}
