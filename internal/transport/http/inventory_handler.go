package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "cmxcli/internal/errors"
	"cmxcli/internal/snapshot"
)

// InventoryHandler serves warehouse inventory snapshots
type InventoryHandler struct {
	service      RiskServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(service RiskServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *InventoryHandler {
	return &InventoryHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "inventory_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the inventory routes
func (h *InventoryHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Get("/{metal}", h.GetLatest)
	r.Get("/{metal}/history", h.GetHistory)

	return r
}

// GetLatest handles GET /api/inventory/{metal}
func (h *InventoryHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "metal")
	metal := snapshot.Metal(strings.ToLower(raw))
	if !metal.IsValid() {
		h.errorHandler.HandleError(w, r, apierrors.UnknownMetalError(raw))
		return
	}

	snap, err := h.service.LatestInventory(r.Context(), metal)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get inventory snapshot",
			slog.String("error", err.Error()),
			slog.String("metal", metal.String()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   snap,
		"total":  snap.Total(),
	})
}

// GetHistory handles GET /api/inventory/{metal}/history
func (h *InventoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "metal")
	metal := snapshot.Metal(strings.ToLower(raw))
	if !metal.IsValid() {
		h.errorHandler.HandleError(w, r, apierrors.UnknownMetalError(raw))
		return
	}

	history, err := h.service.InventoryHistory(r.Context(), metal)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get inventory history",
			slog.String("error", err.Error()),
			slog.String("metal", metal.String()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   history,
		"count":  len(history),
	})
}
