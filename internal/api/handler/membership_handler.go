package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

// MembershipHandler serves plans, subscriptions and featured-crafter requests.
type MembershipHandler struct {
	membership ports.MembershipService
	featured   ports.FeaturedService
}

func NewMembershipHandler(membership ports.MembershipService, featured ports.FeaturedService) *MembershipHandler {
	return &MembershipHandler{membership: membership, featured: featured}
}

// Plans handles GET /v1/membership/plans.
//
// @Summary      Active membership plans
// @Tags         membership
// @Produce      json
// @Success      200  {array}  domain.Plan
// @Router       /v1/membership/plans [get]
func (h *MembershipHandler) Plans(c echo.Context) error {
	plans, err := h.membership.Plans(c.Request().Context(), true)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

// Current handles GET /v1/membership.
//
// @Summary      My membership
// @Tags         membership
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  membershipResponse
// @Router       /v1/membership [get]
func (h *MembershipHandler) Current(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	status, err := h.membership.Current(c.Request().Context(), actor.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toMembershipResponse(status))
}

// Subscribe handles POST /v1/membership/subscribe.
//
// @Summary      Buy a premium membership
// @Description  Uses the cheapest active plan when plan_id is omitted. Payment is recorded as direct.
// @Tags         membership
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      subscribeRequest  false  "Plan to buy"
// @Success      201   {object}  subscribeResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/membership/subscribe [post]
func (h *MembershipHandler) Subscribe(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req subscribeRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	sub, tx, err := h.membership.Subscribe(c.Request().Context(), actor, req.PlanID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, subscribeResponse{Subscription: sub, Transaction: tx})
}

// Cancel handles POST /v1/membership/cancel.
//
// @Summary      Cancel my subscription
// @Tags         membership
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Subscription
// @Failure      404  {object}  errorResponse
// @Router       /v1/membership/cancel [post]
func (h *MembershipHandler) Cancel(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	sub, err := h.membership.CancelActive(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// RequestFeatured handles POST /v1/featured-requests.
//
// @Summary      Ask to be featured
// @Description  Premium crafters only, one pending request at a time.
// @Tags         featured
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      featuredRequestRequest  false  "Pitch for the reviewers"
// @Success      201   {object}  domain.FeaturedRequest
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/featured-requests [post]
func (h *MembershipHandler) RequestFeatured(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req featuredRequestRequest
	if c.Request().ContentLength != 0 {
		if err := bindAndValidate(c, &req); err != nil {
			return err
		}
	}

	r, err := h.featured.Request(c.Request().Context(), actor, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, r)
}

// MyFeaturedRequest handles GET /v1/featured-requests/mine.
//
// @Summary      My latest featured request
// @Tags         featured
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.FeaturedRequest
// @Failure      404  {object}  errorResponse
// @Router       /v1/featured-requests/mine [get]
func (h *MembershipHandler) MyFeaturedRequest(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	r, err := h.featured.Mine(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// --- Back office ---

// AllPlans handles GET /v1/admin/plans.
//
// @Summary      All membership plans
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Plan
// @Router       /v1/admin/plans [get]
func (h *MembershipHandler) AllPlans(c echo.Context) error {
	plans, err := h.membership.Plans(c.Request().Context(), false)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plans)
}

// Plan handles GET /v1/admin/plans/:id.
//
// @Summary      Get a plan
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Plan ID"
// @Success      200  {object}  domain.Plan
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/plans/{id} [get]
func (h *MembershipHandler) Plan(c echo.Context) error {
	plan, err := h.membership.Plan(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// CreatePlan handles POST /v1/admin/plans.
//
// @Summary      Create a plan
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      planRequest  true  "Plan"
// @Success      201   {object}  domain.Plan
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/plans [post]
func (h *MembershipHandler) CreatePlan(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req planRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	plan, err := h.membership.CreatePlan(c.Request().Context(), actor, toPlanInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, plan)
}

// UpdatePlan handles PUT /v1/admin/plans/:id.
//
// @Summary      Replace a plan
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Plan ID"
// @Param        body  body      planRequest  true  "Plan"
// @Success      200   {object}  domain.Plan
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/plans/{id} [put]
func (h *MembershipHandler) UpdatePlan(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req planRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	plan, err := h.membership.UpdatePlan(c.Request().Context(), actor, c.Param("id"), toPlanInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan)
}

// ActiveSubscriptions handles GET /v1/admin/subscriptions.
//
// @Summary      Active subscriptions
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {object}  pageResponse[domain.Subscription]
// @Router       /v1/admin/subscriptions [get]
func (h *MembershipHandler) ActiveSubscriptions(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.membership.ListActive(c.Request().Context(), actor, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// CancelSubscription handles POST /v1/admin/subscriptions/:id/cancel.
//
// @Summary      Cancel a subscription
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Subscription ID"
// @Success      200  {object}  domain.Subscription
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/subscriptions/{id}/cancel [post]
func (h *MembershipHandler) CancelSubscription(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	sub, err := h.membership.Cancel(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, sub)
}

// FeaturedRequests handles GET /v1/admin/featured-requests.
//
// @Summary      Featured requests
// @Description  Pending first, then newest.
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status  query    string  false  "pending, approved or rejected"
// @Success      200     {array}  domain.FeaturedRequest
// @Router       /v1/admin/featured-requests [get]
func (h *MembershipHandler) FeaturedRequests(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	items, err := h.featured.ListRequests(c.Request().Context(), actor, domain.FeaturedRequestStatus(c.QueryParam("status")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// ReviewFeatured handles POST /v1/admin/featured-requests/:id/review.
//
// @Summary      Approve or reject a featured request
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Featured request ID"
// @Param        body  body      reviewFeaturedRequest  true  "Decision"
// @Success      200   {object}  domain.FeaturedRequest
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/featured-requests/{id}/review [post]
func (h *MembershipHandler) ReviewFeatured(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req reviewFeaturedRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	r, err := h.featured.Review(c.Request().Context(), actor, c.Param("id"), *req.Approve, req.AdminNotes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, r)
}

// AddFeatured handles POST /v1/admin/featured-crafters.
//
// @Summary      Feature a crafter
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addFeaturedRequest  true  "Crafter"
// @Success      201   {object}  domain.FeaturedCrafter
// @Failure      409   {object}  errorResponse
// @Router       /v1/admin/featured-crafters [post]
func (h *MembershipHandler) AddFeatured(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req addFeaturedRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	fc, err := h.featured.Add(c.Request().Context(), actor, req.CrafterID, req.Notes)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, fc)
}

// RemoveFeatured handles DELETE /v1/admin/featured-crafters/:id.
//
// @Summary      Unfeature a crafter
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Crafter ID"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/featured-crafters/{id} [delete]
func (h *MembershipHandler) RemoveFeatured(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	if err := h.featured.Remove(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
