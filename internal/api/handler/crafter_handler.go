package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/ports"
)

// CrafterHandler serves the public crafter directory.
type CrafterHandler struct {
	crafters ports.CrafterService
	featured ports.FeaturedService
}

func NewCrafterHandler(crafters ports.CrafterService, featured ports.FeaturedService) *CrafterHandler {
	return &CrafterHandler{crafters: crafters, featured: featured}
}

// Search handles GET /v1/crafters.
//
// @Summary      Search crafters
// @Tags         crafters
// @Produce      json
// @Param        specialty  query     string  false  "Exact specialty"
// @Param        location   query     string  false  "City or service area (substring)"
// @Param        limit      query     int     false  "Max results"
// @Success      200        {array}   domain.User
// @Router       /v1/crafters [get]
func (h *CrafterHandler) Search(c echo.Context) error {
	f := ports.CrafterFilter{
		Specialty: c.QueryParam("specialty"),
		Location:  c.QueryParam("location"),
	}
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		f.Limit = n
	}

	items, err := h.crafters.Search(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Profile handles GET /v1/crafters/:id.
//
// @Summary      Crafter profile
// @Tags         crafters
// @Produce      json
// @Param        id   path      string  true  "Crafter ID"
// @Success      200  {object}  domain.User
// @Failure      404  {object}  errorResponse
// @Router       /v1/crafters/{id} [get]
func (h *CrafterHandler) Profile(c echo.Context) error {
	u, err := h.crafters.Profile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u)
}

// Featured handles GET /v1/crafters/featured.
//
// @Summary      Best crafters
// @Tags         crafters
// @Produce      json
// @Success      200  {array}  featuredCrafterResponse
// @Router       /v1/crafters/featured [get]
func (h *CrafterHandler) Featured(c echo.Context) error {
	views, err := h.featured.BestCrafters(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toFeaturedCrafterResponses(views))
}
