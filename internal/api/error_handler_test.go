package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/pkg/logger"
)

func TestHTTPErrorHandler(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{"echo error passes through", echo.NewHTTPError(http.StatusBadRequest, "invalid payload"), http.StatusBadRequest, "invalid payload"},
		{"not found", domain.ErrOrderNotFound, http.StatusNotFound, "order not found"},
		{"wrapped not found", fmt.Errorf("load: %w", domain.ErrRequestNotFound), http.StatusNotFound, "service request not found"},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden, "access forbidden"},
		{"premium required", domain.ErrPremiumRequired, http.StatusForbidden, "premium membership required"},
		{"conflict", domain.ErrConflict, http.StatusConflict, "resource was modified concurrently"},
		{"duplicate proposal", domain.ErrDuplicateProposal, http.StatusConflict, "proposal already submitted for this request"},
		{"invalid input keeps detail", fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput), http.StatusUnprocessableEntity, "invalid input: price must be positive"},
		{"invalid transition", fmt.Errorf("%w: completed -> open", domain.ErrInvalidTransition), http.StatusUnprocessableEntity, "invalid status transition: completed -> open"},
		{"credentials", domain.ErrInvalidCredentials, http.StatusUnauthorized, "invalid credentials"},
		{"media type", fmt.Errorf("%w: text/plain", domain.ErrUnsupportedMedia), http.StatusUnsupportedMediaType, "unsupported media type"},
		{"file too large", domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "file too large"},
		{"unknown error is hidden", errors.New("mongo: connection reset"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			e := echo.New()
			e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.New(&logs))
			req := httptest.NewRequest(http.MethodGet, "/v1/orders/1", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)

			e.HTTPErrorHandler(tt.err, c)

			assert.Equal(t, tt.wantCode, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantMsg, body.Error)
			if tt.wantCode == http.StatusInternalServerError {
				assert.Contains(t, logs.String(), "connection reset")
			} else {
				assert.Empty(t, logs.String())
			}
		})
	}
}

func TestHTTPErrorHandler_SkipsCommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	require.NoError(t, c.String(http.StatusOK, "done"))

	NewHTTPErrorHandler(zerolog.Nop())(domain.ErrForbidden, c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "done", rec.Body.String())
}

func TestHTTPErrorHandler_UsesRequestScopedLogger(t *testing.T) {
	var global, scoped bytes.Buffer
	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(zerolog.New(&global))
	req := httptest.NewRequest(http.MethodGet, "/v1/orders/1", nil)
	reqLog := zerolog.New(&scoped).With().Str("request_id", "req-42").Logger()
	req = req.WithContext(logger.WithContext(req.Context(), reqLog))
	rec := httptest.NewRecorder()

	e.HTTPErrorHandler(errors.New("disk full"), e.NewContext(req, rec))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, scoped.String(), `"request_id":"req-42"`)
	assert.Contains(t, scoped.String(), "disk full")
	assert.Empty(t, global.String())
}
