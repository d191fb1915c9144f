package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/api/middleware"
	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

const (
	headerIdempotencyKey = "Idempotency-Key"
	headerReplayed       = "Idempotent-Replayed"
)

// actorFrom extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - user id and user type must be present (presence proves the middleware ran).
//   - admin tokens must carry a known admin role.
func actorFrom(c echo.Context) (domain.Actor, error) {
	userID, _ := c.Get(middleware.KeyUserID).(string)
	role, _ := c.Get(middleware.KeyRole).(string)
	if userID == "" || role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	actor := domain.Actor{UserID: userID, Type: domain.UserType(role)}
	if actor.IsAdmin() {
		adminRole, _ := c.Get(middleware.KeyAdminRole).(string)
		actor.AdminRole = domain.AdminRole(adminRole)
		if !actor.AdminRole.Valid() {
			return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "token missing admin role")
		}
	}
	return actor, nil
}

// pagination reads ?page= and ?limit=. Normalisation happens in the services.
func pagination(c echo.Context) (ports.Pagination, error) {
	var p ports.Pagination
	err := echo.QueryParamsBinder(c).
		Int("page", &p.Page).
		Int("limit", &p.Limit).
		BindError()
	if err != nil {
		return p, echo.NewHTTPError(http.StatusBadRequest, "page and limit must be integers")
	}
	return p, nil
}

// bindAndValidate decodes the body into req and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return nil
}

// created writes 201 for a new resource, or 200 with the replay header when
// the idempotency key matched an earlier call.
func created(c echo.Context, replayed bool, body any) error {
	if replayed {
		c.Response().Header().Set(headerReplayed, "true")
		return c.JSON(http.StatusOK, body)
	}
	return c.JSON(http.StatusCreated, body)
}
