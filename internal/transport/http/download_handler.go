package http

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	apierrors "optscan/internal/errors"
	custommw "optscan/internal/middleware"
	"optscan/internal/services"
)

// DownloadHandler serves the merged table and generated gain reports as file
// downloads. Gain reports are regenerated per request so a download always
// reflects the current table and filters.
type DownloadHandler struct {
	service      GainService
	gainsCSV     string
	gainsXLSX    string
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	queryParams  *custommw.QueryParamValidator
	validation   *custommw.ValidationMiddleware
}

// NewDownloadHandler creates a download handler. gainsCSV and gainsXLSX are
// the report destinations under the reports directory.
func NewDownloadHandler(service GainService, gainsCSV, gainsXLSX string, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DownloadHandler {
	return &DownloadHandler{
		service:      service,
		gainsCSV:     gainsCSV,
		gainsXLSX:    gainsXLSX,
		logger:       logger.With(slog.String("component", "download_handler")),
		errorHandler: errorHandler,
		queryParams:  custommw.NewQueryParamValidator(logger, errorHandler),
		validation:   custommw.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the download routes.
func (h *DownloadHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/merged", h.DownloadMerged)
	r.Get("/gains", h.DownloadGains)

	return r
}

// DownloadMerged handles GET /api/download/merged.
func (h *DownloadHandler) DownloadMerged(w http.ResponseWriter, r *http.Request) {
	info, ok := h.service.MergedInfo()
	if !ok {
		h.errorHandler.HandleError(w, r, apierrors.ErrMergedNotFound)
		return
	}

	h.logger.InfoContext(r.Context(), "serving merged table download",
		slog.String("path", info.Path),
		slog.Int64("size", info.Size))

	serveAttachment(w, r, info.Path, "text/csv; charset=utf-8")
}

// DownloadGains handles GET /api/download/gains. The format parameter selects
// csv or xlsx; the gain filter parameters apply as on the gains endpoint.
func (h *DownloadHandler) DownloadGains(w http.ResponseWriter, r *http.Request) {
	format, ok := h.queryParams.ValidateEnum(w, r, "format",
		[]string{services.FormatCSV, services.FormatXLSX}, services.FormatCSV)
	if !ok {
		return
	}
	query, ok := parseGainsQuery(h.queryParams, h.validation, h.errorHandler, w, r)
	if !ok {
		return
	}

	path := h.gainsCSV
	contentType := "text/csv; charset=utf-8"
	if format == services.FormatXLSX {
		path = h.gainsXLSX
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}

	if err := h.service.ExportGains(r.Context(), query, format, path); err != nil {
		h.logger.ErrorContext(r.Context(), "gain report generation failed",
			slog.String("error", err.Error()),
			slog.String("format", format))

		if errors.Is(err, services.ErrNoMergedTable) {
			h.errorHandler.HandleError(w, r, apierrors.ErrMergedNotFound)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.FileSystemError("write gain report", err))
		return
	}

	h.logger.InfoContext(r.Context(), "serving gain report download",
		slog.String("path", path),
		slog.String("format", format))

	serveAttachment(w, r, path, contentType)
}

func serveAttachment(w http.ResponseWriter, r *http.Request, path, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}
