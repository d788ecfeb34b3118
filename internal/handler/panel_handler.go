package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carparts/internal/middleware"
	"carparts/internal/service"
)

// PanelHandler handles the session cart.
type PanelHandler struct {
	panelService service.PanelService
}

// NewPanelHandler creates a new panel handler.
func NewPanelHandler(panelService service.PanelService) *PanelHandler {
	return &PanelHandler{panelService: panelService}
}

// PanelRequest names a part in the cart.
type PanelRequest struct {
	PartID uint `json:"partId" validate:"required"`
}

// AddToPanel godoc
// @Summary Add a part to the cart
// @Tags panel
// @Accept json
// @Produce json
// @Param request body PanelRequest true "Part"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /panel [post]
func (h *PanelHandler) AddToPanel(c echo.Context) error {
	var req PanelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("part ID is required")
	}

	if err := h.panelService.Add(c.Request().Context(), middleware.CurrentSession(c), req.PartID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Part added to panel"})
}

// GetPanel godoc
// @Summary List the parts in the cart
// @Tags panel
// @Produce json
// @Success 200 {array} PartResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /panel [get]
func (h *PanelHandler) GetPanel(c echo.Context) error {
	parts, err := h.panelService.Get(c.Request().Context(), middleware.CurrentSession(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, toPartResponses(parts))
}

// RemoveFromPanel godoc
// @Summary Remove a part from the cart
// @Tags panel
// @Accept json
// @Produce json
// @Param request body PanelRequest true "Part"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /panel [delete]
func (h *PanelHandler) RemoveFromPanel(c echo.Context) error {
	var req PanelRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("part ID is required")
	}

	if err := h.panelService.Remove(c.Request().Context(), middleware.CurrentSession(c), req.PartID); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Part removed from panel"})
}
