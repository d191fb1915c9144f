package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// RequestHandler handles HTTP requests for service requests.
type RequestHandler struct {
	service ports.RequestService
	media   ports.MediaService
}

func NewRequestHandler(service ports.RequestService, media ports.MediaService) *RequestHandler {
	return &RequestHandler{service: service, media: media}
}

// Create handles POST /v1/requests.
//
// @Summary      Post a service request
// @Tags         requests
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string                false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createRequestRequest  true   "Request details"
// @Success      201              {object}  domain.ServiceRequest
// @Success      200              {object}  domain.ServiceRequest  "Replayed by idempotency key"
// @Failure      403              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/requests [post]
func (h *RequestHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req createRequestRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sr, replayed, err := h.service.Create(c.Request().Context(), actor, ports.CreateRequestInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Location:       req.Location,
		Images:         req.Images,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return created(c, replayed, sr)
}

// List handles GET /v1/requests.
//
// @Summary      List service requests
// @Description  Clients see their own requests, crafters and admins see all.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "open, closed, in_progress, completed, cancelled"
// @Param        category  query     string  false  "Category"
// @Param        q         query     string  false  "Title search"
// @Param        page      query     int     false  "Page (1-based)"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Success      200       {object}  pageResponse[domain.ServiceRequest]
// @Router       /v1/requests [get]
func (h *RequestHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), actor, ports.ListRequestsInput{
		Status:     c.QueryParam("status"),
		Category:   c.QueryParam("category"),
		Search:     c.QueryParam("q"),
		Pagination: p,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// Get handles GET /v1/requests/:id.
//
// @Summary      Get a service request
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  domain.ServiceRequest
// @Failure      404  {object}  errorResponse
// @Router       /v1/requests/{id} [get]
func (h *RequestHandler) Get(c echo.Context) error {
	return h.apply(c, h.service.Get)
}

// Cancel handles POST /v1/requests/:id/cancel.
//
// @Summary      Cancel a service request
// @Description  Owner only. Deletes every proposal on the request.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  domain.ServiceRequest
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/requests/{id}/cancel [post]
func (h *RequestHandler) Cancel(c echo.Context) error {
	return h.apply(c, h.service.Cancel)
}

// Start handles POST /v1/requests/:id/start.
//
// @Summary      Start work on a request
// @Description  Accepted crafter only.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  domain.ServiceRequest
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/requests/{id}/start [post]
func (h *RequestHandler) Start(c echo.Context) error {
	return h.apply(c, h.service.Start)
}

// Complete handles POST /v1/requests/:id/complete.
//
// @Summary      Complete a request
// @Description  Accepted crafter only.
// @Tags         requests
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {object}  domain.ServiceRequest
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/requests/{id}/complete [post]
func (h *RequestHandler) Complete(c echo.Context) error {
	return h.apply(c, h.service.Complete)
}

// AddImage handles POST /v1/requests/:id/images.
//
// @Summary      Attach an image to a request
// @Tags         requests
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "Request ID"
// @Param        file  formData  file    true  "Image file"
// @Success      200   {object}  domain.ServiceRequest
// @Failure      413   {object}  errorResponse
// @Failure      415   {object}  errorResponse
// @Router       /v1/requests/{id}/images [post]
func (h *RequestHandler) AddImage(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	// Ownership is checked before the upload so strangers cannot fill storage.
	sr, err := h.service.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	if sr.ClientID != actor.UserID {
		return domain.ErrForbidden
	}

	stored, err := uploadFormFile(c, h.media)
	if err != nil {
		return err
	}

	sr, err = h.service.AddImage(c.Request().Context(), actor, c.Param("id"), fileURL(stored.ID))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sr)
}

// SetStatus handles PATCH /v1/admin/requests/:id/status.
//
// @Summary      Override a request status
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Request ID"
// @Param        body  body      setStatusRequest  true  "New status"
// @Success      200   {object}  domain.ServiceRequest
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/requests/{id}/status [patch]
func (h *RequestHandler) SetStatus(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req setStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	sr, err := h.service.SetStatus(c.Request().Context(), actor, c.Param("id"), domain.RequestStatus(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sr)
}

func (h *RequestHandler) apply(c echo.Context, op func(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	sr, err := op(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sr)
}
