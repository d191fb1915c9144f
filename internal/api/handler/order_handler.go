package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// OrderHandler handles HTTP requests for direct orders.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

// Create handles POST /v1/orders.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Idempotency-Key  header    string              false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      createOrderRequest  true   "Order details"
// @Success      201              {object}  domain.Order
// @Failure      403              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req createOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, replayed, err := h.service.Create(c.Request().Context(), actor, ports.CreateOrderInput{
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Price:          req.Price,
		ImageURL:       req.ImageURL,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return created(c, replayed, o)
}

// List handles GET /v1/orders.
//
// @Summary      List orders
// @Description  Clients see their own orders, crafters see open orders plus their own, admins see all.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Order status"
// @Param        category  query     string  false  "Category"
// @Param        page      query     int     false  "Page (1-based)"
// @Param        limit     query     int     false  "Page size (max 100)"
// @Success      200       {object}  pageResponse[domain.Order]
// @Router       /v1/orders [get]
func (h *OrderHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.service.List(c.Request().Context(), actor, ports.ListOrdersInput{
		Status:     c.QueryParam("status"),
		Category:   c.QueryParam("category"),
		Pagination: p,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// Get handles GET /v1/orders/:id.
//
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  errorResponse
// @Router       /v1/orders/{id} [get]
func (h *OrderHandler) Get(c echo.Context) error {
	return h.apply(c, h.service.Get)
}

// Accept handles POST /v1/orders/:id/accept.
//
// @Summary      Claim a pending order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      409  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/orders/{id}/accept [post]
func (h *OrderHandler) Accept(c echo.Context) error {
	return h.apply(c, h.service.Accept)
}

// Start handles POST /v1/orders/:id/start.
//
// @Summary      Start an accepted order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/orders/{id}/start [post]
func (h *OrderHandler) Start(c echo.Context) error {
	return h.apply(c, h.service.Start)
}

// Complete handles POST /v1/orders/:id/complete.
//
// @Summary      Complete an order
// @Description  Books the platform commission.
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/orders/{id}/complete [post]
func (h *OrderHandler) Complete(c echo.Context) error {
	return h.apply(c, h.service.Complete)
}

// Cancel handles POST /v1/orders/:id/cancel.
//
// @Summary      Cancel an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true   "Order ID"
// @Param        body  body      cancelOrderRequest  false  "Optional reason"
// @Success      200   {object}  domain.Order
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/orders/{id}/cancel [post]
func (h *OrderHandler) Cancel(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req cancelOrderRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	o, err := h.service.Cancel(c.Request().Context(), actor, c.Param("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

// Rate handles POST /v1/orders/:id/rate.
//
// @Summary      Rate a completed order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Order ID"
// @Param        body  body      rateOrderRequest  true  "Rating 1..5 and review"
// @Success      200   {object}  domain.Order
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/orders/{id}/rate [post]
func (h *OrderHandler) Rate(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req rateOrderRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	o, err := h.service.Rate(c.Request().Context(), actor, c.Param("id"), req.Rating, req.Review)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) apply(c echo.Context, op func(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	o, err := op(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, o)
}
