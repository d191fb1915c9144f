package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/pkg/logger"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// errorStatus maps sentinel domain errors to HTTP codes. Order matters only
// in that the first match wins.
var errorStatus = []struct {
	err  error
	code int
}{
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrRequestNotFound, http.StatusNotFound},
	{domain.ErrProposalNotFound, http.StatusNotFound},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrNotificationNotFound, http.StatusNotFound},
	{domain.ErrPlanNotFound, http.StatusNotFound},
	{domain.ErrSubscriptionNotFound, http.StatusNotFound},
	{domain.ErrTransactionNotFound, http.StatusNotFound},
	{domain.ErrSettingsNotFound, http.StatusNotFound},
	{domain.ErrFeaturedRequestNotFound, http.StatusNotFound},
	{domain.ErrNotFeatured, http.StatusNotFound},
	{domain.ErrFileNotFound, http.StatusNotFound},

	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrAccountInactive, http.StatusForbidden},
	{domain.ErrPremiumRequired, http.StatusForbidden},

	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrUserExists, http.StatusConflict},
	{domain.ErrDuplicateProposal, http.StatusConflict},
	{domain.ErrActiveSubscription, http.StatusConflict},
	{domain.ErrFeaturedRequestPending, http.StatusConflict},
	{domain.ErrAlreadyFeatured, http.StatusConflict},

	{domain.ErrInvalidCredentials, http.StatusUnauthorized},
	{domain.ErrUnsupportedMedia, http.StatusUnsupportedMediaType},
	{domain.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Validation failures carry the offending detail in the wrapped message.
	if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrInvalidTransition) {
		return http.StatusUnprocessableEntity, err.Error()
	}

	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.code, m.err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message. The
	// request-scoped logger already carries the request id.
	fallback := log.With().Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).Logger()
	logger.Ctx(c.Request().Context(), fallback).Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
