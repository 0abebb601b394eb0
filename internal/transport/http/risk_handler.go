package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "cmxcli/internal/errors"
	mw "cmxcli/internal/middleware"
	"cmxcli/internal/risk"
	"cmxcli/internal/snapshot"
)

// RiskHandler handles risk score HTTP requests with RFC 7807 compliance
type RiskHandler struct {
	service      RiskServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validation   *mw.ValidationMiddleware
}

// NewRiskHandler creates a new risk handler with RFC 7807 error handling
func NewRiskHandler(service RiskServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, validation *mw.ValidationMiddleware) *RiskHandler {
	return &RiskHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "risk_handler")),
		errorHandler: errorHandler,
		validation:   validation,
	}
}

// Routes returns the risk routes with proper Chi patterns
func (h *RiskHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetLatest)
	r.With(h.validation.ValidateRequest).Post("/preview", h.Preview)

	r.Route("/{metal}", func(r chi.Router) {
		r.Use(h.MetalCtx)
		r.Get("/", h.GetMetal)
		r.Get("/history", h.GetHistory)
	})

	return r
}

// MetalCtx middleware validates the metal URL parameter
func (h *RiskHandler) MetalCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metal := snapshot.Metal(strings.ToLower(chi.URLParam(r, "metal")))
		if !metal.IsValid() {
			h.errorHandler.HandleError(w, r, apierrors.UnknownMetalError(chi.URLParam(r, "metal")))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetLatest handles GET /api/risk
func (h *RiskHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	rows, err := h.service.Latest(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get latest risk scores",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if len(rows) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoRiskScores)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// GetMetal handles GET /api/risk/{metal}
func (h *RiskHandler) GetMetal(w http.ResponseWriter, r *http.Request) {
	metal := snapshot.Metal(strings.ToLower(chi.URLParam(r, "metal")))

	rows, err := h.service.History(r.Context(), metal)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get risk score",
			slog.String("error", err.Error()),
			slog.String("metal", metal.String()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if len(rows) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrNoRiskScores)
		return
	}

	// History is oldest first, the newest row is the current score
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows[len(rows)-1],
	})
}

// GetHistory handles GET /api/risk/{metal}/history
func (h *RiskHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	metal := snapshot.Metal(strings.ToLower(chi.URLParam(r, "metal")))

	rows, err := h.service.History(r.Context(), metal)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to get risk history",
			slog.String("error", err.Error()),
			slog.String("metal", metal.String()),
		)
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"metal":  metal,
		"data":   rows,
		"count":  len(rows),
	})
}

// Preview handles POST /api/risk/preview. It scores the supplied factors
// without touching the store, so callers can run what-if scenarios.
func (h *RiskHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var factors risk.RiskFactors
	if err := render.DecodeJSON(r.Body, &factors); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	if err := h.validation.ValidateStruct(&factors); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	score := h.service.Preview(r.Context(), factors)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   score,
	})
}
