package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/ports"
)

// ProposalHandler handles HTTP requests for crafter proposals.
type ProposalHandler struct {
	service ports.ProposalService
}

func NewProposalHandler(service ports.ProposalService) *ProposalHandler {
	return &ProposalHandler{service: service}
}

// Create handles POST /v1/requests/:id/proposals.
//
// @Summary      Submit a proposal
// @Description  Crafters only, one proposal per request. The request must be open.
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id               path      string                true   "Request ID"
// @Param        Idempotency-Key  header    string                false  "Idempotency key to prevent duplicate submissions"
// @Param        body             body      proposalTermsRequest  true   "Price, duration and notes"
// @Success      201              {object}  domain.Proposal
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Router       /v1/requests/{id}/proposals [post]
func (h *ProposalHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req proposalTermsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, replayed, err := h.service.Create(c.Request().Context(), actor, ports.CreateProposalInput{
		RequestID:      c.Param("id"),
		Price:          req.Price,
		Duration:       req.Duration,
		Notes:          req.Notes,
		IdempotencyKey: c.Request().Header.Get(headerIdempotencyKey),
	})
	if err != nil {
		return err
	}
	return created(c, replayed, p)
}

// ListForRequest handles GET /v1/requests/:id/proposals.
//
// @Summary      List proposals on a request
// @Description  Request owner or admin.
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Request ID"
// @Success      200  {array}   domain.Proposal
// @Failure      403  {object}  errorResponse
// @Router       /v1/requests/{id}/proposals [get]
func (h *ProposalHandler) ListForRequest(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	items, err := h.service.ListForRequest(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// ListMine handles GET /v1/proposals.
//
// @Summary      List my proposals
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (1-based)"
// @Param        limit  query     int  false  "Page size (max 100)"
// @Success      200    {object}  pageResponse[domain.Proposal]
// @Router       /v1/proposals [get]
func (h *ProposalHandler) ListMine(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p, err := pagination(c)
	if err != nil {
		return err
	}

	page, err := h.service.ListMine(c.Request().Context(), actor, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// Update handles PATCH /v1/proposals/:id.
//
// @Summary      Edit a pending proposal
// @Tags         proposals
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Proposal ID"
// @Param        body  body      proposalTermsRequest  true  "New terms"
// @Success      200   {object}  domain.Proposal
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/proposals/{id} [patch]
func (h *ProposalHandler) Update(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req proposalTermsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	p, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), ports.UpdateProposalInput{
		Price:    req.Price,
		Duration: req.Duration,
		Notes:    req.Notes,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Accept handles POST /v1/proposals/:id/accept.
//
// @Summary      Accept a proposal
// @Description  Closes the request and freezes every other pending proposal.
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  acceptProposalResponse
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/proposals/{id}/accept [post]
func (h *ProposalHandler) Accept(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	res, err := h.service.Accept(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, acceptProposalResponse{
		Proposal: res.Proposal,
		Request:  res.Request,
		Frozen:   res.Frozen,
	})
}

// Reject handles POST /v1/proposals/:id/reject.
//
// @Summary      Reject a proposal
// @Tags         proposals
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Proposal ID"
// @Success      200  {object}  domain.Proposal
// @Failure      403  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/proposals/{id}/reject [post]
func (h *ProposalHandler) Reject(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	p, err := h.service.Reject(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
