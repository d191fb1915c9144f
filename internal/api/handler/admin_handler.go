package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// AdminHandler serves the back-office dashboard and user management.
type AdminHandler struct {
	service ports.AdminService
}

func NewAdminHandler(service ports.AdminService) *AdminHandler {
	return &AdminHandler{service: service}
}

// Stats handles GET /v1/admin/stats.
//
// @Summary      Dashboard summary
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.Stats
// @Router       /v1/admin/stats [get]
func (h *AdminHandler) Stats(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	st, err := h.service.Stats(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

// ListUsers handles GET /v1/admin/users.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        type    query     string  false  "client, crafter or admin"
// @Param        status  query     string  false  "active, blocked or suspended"
// @Param        q       query     string  false  "Name or email search"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  pageResponse[domain.User]
// @Router       /v1/admin/users [get]
func (h *AdminHandler) ListUsers(c echo.Context) error {
	return h.listUsers(c, domain.UserType(c.QueryParam("type")))
}

// ListAdmins handles GET /v1/admin/admins.
//
// @Summary      List admin accounts
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "active, blocked or suspended"
// @Param        q       query     string  false  "Name or email search"
// @Param        page    query     int     false  "Page (1-based)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  pageResponse[domain.User]
// @Router       /v1/admin/admins [get]
func (h *AdminHandler) ListAdmins(c echo.Context) error {
	return h.listUsers(c, domain.UserTypeAdmin)
}

func (h *AdminHandler) listUsers(c echo.Context, userType domain.UserType) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListUsers(c.Request().Context(), actor, ports.UserFilter{
		Type:   userType,
		Status: domain.UserStatus(c.QueryParam("status")),
		Search: c.QueryParam("q"),
	}, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// UpdateUser handles PATCH /v1/admin/users/:id.
//
// @Summary      Change a user's status or verification
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User ID"
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  domain.User
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/admin/users/{id} [patch]
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req updateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	patch := ports.UserPatch{Verified: req.Verified}
	if req.Status != nil {
		status := domain.UserStatus(*req.Status)
		patch.Status = &status
	}
	u, err := h.service.UpdateUser(c.Request().Context(), actor, c.Param("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /v1/admin/users/:id.
//
// @Summary      Delete a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "User ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	if err := h.service.DeleteUser(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Broadcast handles POST /v1/admin/notifications.
//
// @Summary      Message one user or a whole audience
// @Description  Without user_id the message goes to every active user of audience, or to everyone when audience is empty.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      broadcastRequest  true  "Message"
// @Success      200   {object}  broadcastResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/notifications [post]
func (h *AdminHandler) Broadcast(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req broadcastRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	n, err := h.service.Broadcast(c.Request().Context(), actor, ports.BroadcastInput{
		UserID:   req.UserID,
		Audience: domain.UserType(req.Audience),
		Title:    req.Title,
		Message:  req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, broadcastResponse{Sent: n})
}
