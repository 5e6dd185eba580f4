package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "optscan/internal/errors"
	custommw "optscan/internal/middleware"
	"optscan/internal/services"
)

// maxDaysWindow caps the reference-low window a client may request.
const maxDaysWindow = 365

// DataHandler serves gain queries and instrument listings.
type DataHandler struct {
	service      GainService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	queryParams  *custommw.QueryParamValidator
	validation   *custommw.ValidationMiddleware
}

// NewDataHandler creates a data handler with RFC 7807 error handling.
func NewDataHandler(service GainService, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DataHandler {
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
		queryParams:  custommw.NewQueryParamValidator(logger, errorHandler),
		validation:   custommw.NewValidationMiddleware(logger, errorHandler),
	}
}

// Routes returns the data routes.
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/gains", h.GetGains)
	r.Get("/instruments", h.GetInstruments)
	r.Get("/underlying", h.GetUnderlying)

	return r
}

// parseGainsQuery parses and validates the gain filter parameters shared by
// the gains and download endpoints. A false return means a validation problem
// was already written.
func parseGainsQuery(qv *custommw.QueryParamValidator, validation *custommw.ValidationMiddleware, errorHandler *apierrors.ErrorHandler, w http.ResponseWriter, r *http.Request) (services.GainsQuery, bool) {
	var query services.GainsQuery

	days, ok := qv.ValidateInt(w, r, "days", 0, maxDaysWindow, 0)
	if !ok {
		return query, false
	}
	minGain, ok := qv.ValidateFloat(w, r, "min_gain", 0)
	if !ok {
		return query, false
	}
	strike, ok := qv.ValidateFloat(w, r, "strike", 0)
	if !ok {
		return query, false
	}
	optionType, ok := qv.ValidateEnum(w, r, "type", []string{"CE", "PE"}, "")
	if !ok {
		return query, false
	}
	kind, ok := qv.ValidateEnum(w, r, "kind", []string{"OPTSTK", "OPTIDX"}, "")
	if !ok {
		return query, false
	}

	query.Ticker = strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))
	query.Expiry = strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("expiry")))
	query.Type = optionType
	query.Kind = kind
	query.Strike = strike
	query.Days = days
	query.MinGain = minGain

	if err := validation.ValidateStruct(query); err != nil {
		errorHandler.HandleError(w, r, err)
		return query, false
	}
	return query, true
}

// GetGains handles GET /api/gains.
func (h *DataHandler) GetGains(w http.ResponseWriter, r *http.Request) {
	query, ok := parseGainsQuery(h.queryParams, h.validation, h.errorHandler, w, r)
	if !ok {
		return
	}

	h.logger.InfoContext(r.Context(), "gain query",
		slog.String("ticker", query.Ticker),
		slog.Int("days", query.Days),
		slog.Float64("min_gain", query.MinGain),
	)

	gains, err := h.service.Gains(r.Context(), query)
	if err != nil {
		h.handleServiceError(w, r, err, "gain query failed")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   gains,
		"count":  len(gains),
		"days":   query.Days,
	})
}

// GetInstruments handles GET /api/instruments.
func (h *DataHandler) GetInstruments(w http.ResponseWriter, r *http.Request) {
	instruments, err := h.service.Instruments(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, "instrument listing failed")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   instruments,
		"count":  len(instruments),
	})
}

// GetUnderlying handles GET /api/underlying, optionally narrowed by the
// ticker query parameter.
func (h *DataHandler) GetUnderlying(w http.ResponseWriter, r *http.Request) {
	ticker := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("ticker")))

	quotes, err := h.service.Underlying(r.Context(), ticker)
	if err != nil {
		h.handleServiceError(w, r, err, "underlying resolution failed")
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   quotes,
		"count":  len(quotes),
	})
}

func (h *DataHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	h.logger.ErrorContext(r.Context(), msg,
		slog.String("error", err.Error()))

	if errors.Is(err, services.ErrNoMergedTable) {
		h.errorHandler.HandleError(w, r, apierrors.ErrMergedNotFound)
		return
	}
	h.errorHandler.HandleError(w, r, err)
}
