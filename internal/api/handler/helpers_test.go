package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/api/middleware"
)

// newContext builds an echo context with the production validator. A non-empty
// body is sent as JSON.
func newContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// asUser injects the claims the Auth middleware would set.
func asUser(c echo.Context, userID, role, adminRole string) echo.Context {
	c.Set(middleware.KeyUserID, userID)
	c.Set(middleware.KeyRole, role)
	if adminRole != "" {
		c.Set(middleware.KeyAdminRole, adminRole)
	}
	return c
}

func withParam(c echo.Context, name, value string) echo.Context {
	c.SetParamNames(name)
	c.SetParamValues(value)
	return c
}

// statusOf returns the HTTP code carried by an *echo.HTTPError, or 0.
func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}
