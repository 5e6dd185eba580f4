package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "optscan/internal/errors"
)

// OperationsHandler starts merge runs and reports their status. Runs execute
// asynchronously; progress streams over the websocket hub.
type OperationsHandler struct {
	service      MergeService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	mergeTimeout time.Duration
}

// NewOperationsHandler creates an operations handler.
func NewOperationsHandler(service MergeService, mergeTimeout time.Duration, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *OperationsHandler {
	return &OperationsHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "operations_handler")),
		errorHandler: errorHandler,
		mergeTimeout: mergeTimeout,
	}
}

// Routes returns the operations routes.
func (h *OperationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/merge", h.StartMerge)
	r.Get("/merge/status", h.MergeStatus)

	return r
}

// StartMerge handles POST /api/operations/merge. The merge slot is reserved
// before replying, so concurrent starts cannot both be accepted; the run
// itself is launched in the background.
func (h *OperationsHandler) StartMerge(w http.ResponseWriter, r *http.Request) {
	if !h.service.TryBeginMerge() {
		h.errorHandler.HandleError(w, r, apierrors.ErrMergeRunning)
		return
	}

	h.logger.InfoContext(r.Context(), "merge run requested",
		slog.String("remote_addr", r.RemoteAddr))

	// The run outlives the request; it gets its own bounded context.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), h.mergeTimeout)
		defer cancel()

		if _, err := h.service.RunReservedMerge(ctx); err != nil {
			h.logger.Error("merge run failed",
				slog.String("error", err.Error()))
		}
	}()

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]interface{}{
		"status":  "started",
		"message": "Merge run started, progress streams over the websocket",
	})
}

// MergeStatus handles GET /api/operations/merge/status.
func (h *OperationsHandler) MergeStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"merging": h.service.Merging(),
		"stale":   h.service.Stale(),
	}

	if info, ok := h.service.MergedInfo(); ok {
		status["merged_table"] = map[string]interface{}{
			"path":     info.Path,
			"size":     info.Size,
			"modified": info.ModTime.Format(time.RFC3339),
		}
	}

	render.JSON(w, r, status)
}
