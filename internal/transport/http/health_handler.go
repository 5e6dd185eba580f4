package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler reports process and merged-table health.
type HealthHandler struct {
	service   MergeService
	version   string
	startedAt time.Time
	logger    *slog.Logger
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(service MergeService, version string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		service:   service,
		version:   version,
		startedAt: time.Now(),
		logger:    logger.With(slog.String("component", "health_handler")),
	}
}

// Routes returns the health routes.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.HealthCheck)
	r.Get("/ready", h.ReadinessCheck)
	r.Get("/live", h.LivenessCheck)

	return r
}

// HealthCheck handles GET /api/health.
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	table := map[string]interface{}{
		"present": false,
	}
	if info, ok := h.service.MergedInfo(); ok {
		table = map[string]interface{}{
			"present":  true,
			"path":     info.Path,
			"size":     info.Size,
			"modified": info.ModTime.Format(time.RFC3339),
			"stale":    h.service.Stale(),
		}
	}

	render.JSON(w, r, map[string]interface{}{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
		"merging":        h.service.Merging(),
		"merged_table":   table,
	})
}

// ReadinessCheck handles GET /api/health/ready. The process is ready as soon
// as it can serve; a missing merged table is reported but not failing, since
// the first query rebuilds it.
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	_, present := h.service.MergedInfo()
	render.JSON(w, r, map[string]interface{}{
		"ready":                "true",
		"merged_table_present": present,
	})
}

// LivenessCheck handles GET /api/health/live.
func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"alive": true,
		"time":  time.Now().Format(time.RFC3339),
	})
}

// Version handles GET /api/version.
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"version": h.version,
	})
}
