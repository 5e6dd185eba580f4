package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func problemFrom(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleError_APIError(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/gains", nil)

	h.HandleError(rec, req, ErrMergedNotFound)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := problemFrom(t, rec)
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, "MERGED_TABLE_NOT_FOUND", body["error_code"])
	assert.Equal(t, "/api/gains", body["instance"])
}

func TestHandleError_ContextCancelled(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/operations/merge", nil)

	h.HandleError(rec, req, fmt.Errorf("merge cancelled: %w", context.Canceled))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, TypeTimeout, problemFrom(t, rec)["type"])
}

func TestHandleError_PlainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "not found text",
			err:        fmt.Errorf("instrument not found"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
		},
		{
			name:       "merge already running",
			err:        fmt.Errorf("merge already running"),
			wantStatus: http.StatusConflict,
			wantType:   TypeMergeRunning,
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("disk exploded"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/x", nil)

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, problemFrom(t, rec)["type"])
		})
	}
}

func TestHandlePanic(t *testing.T) {
	h := newTestHandler()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	h.HandlePanic(rec, req, "boom")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := problemFrom(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	// No stack leakage outside development mode.
	assert.NotContains(t, body, "stack")
	assert.NotContains(t, body, "panic")
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler()

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/gains", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
