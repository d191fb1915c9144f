package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/ports"
	"github.com/herfa/marketplace-api/internal/infrastructure/realtime"
)

// Subscriptions is the part of the realtime hub the stream endpoint needs.
type Subscriptions interface {
	Subscribe(userID, subscriberID string) *realtime.Subscriber
	Unsubscribe(userID, subscriberID string)
}

// NotificationHandler serves the caller's notifications and live stream.
type NotificationHandler struct {
	service ports.NotificationService
	hub     Subscriptions
}

func NewNotificationHandler(service ports.NotificationService, hub Subscriptions) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

// List handles GET /v1/notifications.
//
// @Summary      List my notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread  query     bool  false  "Only unread"
// @Param        limit   query     int   false  "Max items (default 50, max 100)"
// @Success      200     {array}   domain.Notification
// @Router       /v1/notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var unread bool
	var limit int
	if err := echo.QueryParamsBinder(c).Bool("unread", &unread).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	items, err := h.service.List(c.Request().Context(), actor.UserID, unread, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// UnreadCount handles GET /v1/notifications/unread-count.
//
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /v1/notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	n, err := h.service.UnreadCount(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// MarkRead handles POST /v1/notifications/:id/read.
//
// @Summary      Mark a notification read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path  string  true  "Notification ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	if err := h.service.MarkRead(c.Request().Context(), actor.UserID, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllRead handles POST /v1/notifications/read-all.
//
// @Summary      Mark every notification read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  countResponse
// @Router       /v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	n, err := h.service.MarkAllRead(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, countResponse{Count: n})
}

// Stream handles GET /v1/notifications/stream.
// This endpoint streams SSE events for the authenticated user until the
// client disconnects.
//
// @Summary      Live notification stream
// @Tags         notifications
// @Produce      text/event-stream
// @Security     BearerAuth
// @Success      200
// @Router       /v1/notifications/stream [get]
func (h *NotificationHandler) Stream(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	subscriberID := uuid.New().String()
	sub := h.hub.Subscribe(actor.UserID, subscriberID)
	defer h.hub.Unsubscribe(actor.UserID, subscriberID)

	fmt.Fprintf(w, "event: connected\ndata: {\"subscriber_id\":%s}\n\n", strconv.Quote(subscriberID))
	w.Flush()

	ctx := c.Request().Context()
	for {
		select {
		case event, ok := <-sub.Events:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprint(w, event.Format()); err != nil {
				return nil
			}
			w.Flush()

		case <-sub.Done:
			return nil

		case <-ctx.Done():
			// Client disconnected
			return nil
		}
	}
}
