package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carparts/internal/errors"
	"carparts/internal/service"
)

// SeedHandler handles catalog seed endpoints.
type SeedHandler struct {
	catalogService service.CatalogService
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(catalogService service.CatalogService) *SeedHandler {
	return &SeedHandler{catalogService: catalogService}
}

// SeedPartsResponse represents the seed response.
type SeedPartsResponse struct {
	Message string `json:"message"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
}

// SeedParts godoc
// @Summary Upsert catalog parts from a JSON list (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body []service.PartSeed true "Parts"
// @Success 200 {object} SeedPartsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/seed/parts [post]
func (h *SeedHandler) SeedParts(c echo.Context) error {
	var seeds []service.PartSeed
	if err := c.Bind(&seeds); err != nil {
		return badRequest("invalid JSON data")
	}

	parts, err := service.PartsFromSeeds(seeds)
	if err != nil {
		return badRequest(err.Error())
	}

	created, updated, err := h.catalogService.SeedParts(c.Request().Context(), parts)
	if err != nil {
		return fail(errors.Internal("seed parts", err))
	}
	return c.JSON(http.StatusOK, SeedPartsResponse{
		Message: "Parts seeded successfully",
		Created: created,
		Updated: updated,
	})
}
