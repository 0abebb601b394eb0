package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "cmxcli/internal/errors"
	"cmxcli/internal/importer"
)

// ImporterInterface defines the report import operation the transport needs
type ImporterInterface interface {
	ImportDir(ctx context.Context, dir string) (importer.Result, error)
}

// OperationsHandler triggers imports and score refreshes over HTTP
type OperationsHandler struct {
	service      RiskServiceInterface
	importer     ImporterInterface
	importDir    string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewOperationsHandler creates a new operations handler
func NewOperationsHandler(service RiskServiceInterface, imp ImporterInterface, importDir string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	return &OperationsHandler{
		service:      service,
		importer:     imp,
		importDir:    importDir,
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the operations routes
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))
	r.Post("/refresh", h.Refresh)
	r.Post("/import", h.Import)

	return r
}

// Refresh handles POST /api/operations/refresh. It recomputes every metal's
// score from the stored snapshots and broadcasts the results.
func (h *OperationsHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "manual risk refresh requested",
		slog.String("request_id", reqID),
	)

	rows, err := h.service.RefreshAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "risk refresh failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.RefreshError(err))
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   rows,
		"count":  len(rows),
	})
}

// Import handles POST /api/operations/import. It ingests every report file
// in the import directory, then refreshes scores against the new snapshots.
func (h *OperationsHandler) Import(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	h.logger.InfoContext(r.Context(), "report import requested",
		slog.String("request_id", reqID),
		slog.String("dir", h.importDir),
	)

	result, err := h.importer.ImportDir(r.Context(), h.importDir)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "report import failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
		h.errorHandler.HandleError(w, r, apierrors.ImportError(err))
		return
	}

	// A refresh failure after a successful import is reported but the
	// imported snapshots are already persisted.
	rows, err := h.service.RefreshAll(r.Context())
	if err != nil {
		h.logger.WarnContext(r.Context(), "refresh after import failed",
			slog.String("error", err.Error()),
			slog.String("request_id", reqID),
		)
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"import": result,
		"scores": rows,
	})
}
