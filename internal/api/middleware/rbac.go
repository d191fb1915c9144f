package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
)

// RBAC enforces role-based access control on the user type claim.
func RBAC(allowedRoles ...domain.UserType) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[string(r)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			if _, ok := allowed[role]; !ok {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// RequirePermission admits admins whose role grants at least one of perms.
func RequirePermission(perms ...domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(KeyRole).(string)
			adminRole, _ := c.Get(KeyAdminRole).(string)
			if role != string(domain.UserTypeAdmin) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			for _, p := range perms {
				if domain.AdminRole(adminRole).Has(p) {
					return next(c)
				}
			}
			return c.JSON(http.StatusForbidden, map[string]string{"error": "missing permission"})
		}
	}
}
