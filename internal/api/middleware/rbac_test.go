package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

func newClaimsContext(role, adminRole string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(KeyRole, role)
	if adminRole != "" {
		c.Set(KeyAdminRole, adminRole)
	}
	return c, rec
}

func TestRBAC_Allows(t *testing.T) {
	c, rec := newClaimsContext("crafter", "")

	called := false
	handler := RBAC(domain.UserTypeClient, domain.UserTypeCrafter)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRBAC_Forbids(t *testing.T) {
	c, rec := newClaimsContext("client", "")

	handler := RBAC(domain.UserTypeCrafter)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		name      string
		role      string
		adminRole string
		perms     []domain.Permission
		want      int
	}{
		{name: "super admin settings", role: "admin", adminRole: "super_admin", perms: []domain.Permission{domain.PermManageSystemSettings}, want: http.StatusOK},
		{name: "moderator users", role: "admin", adminRole: "moderator", perms: []domain.Permission{domain.PermManageUsers}, want: http.StatusOK},
		{name: "support payments", role: "admin", adminRole: "support", perms: []domain.Permission{domain.PermManagePayments}, want: http.StatusForbidden},
		{name: "support any of", role: "admin", adminRole: "support", perms: []domain.Permission{domain.PermManagePayments, domain.PermViewAnalytics}, want: http.StatusOK},
		{name: "crafter claiming admin role", role: "crafter", adminRole: "super_admin", perms: []domain.Permission{domain.PermManageUsers}, want: http.StatusForbidden},
		{name: "admin without role", role: "admin", perms: []domain.Permission{domain.PermViewAnalytics}, want: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newClaimsContext(tt.role, tt.adminRole)

			handler := RequirePermission(tt.perms...)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})

			if err := handler(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
