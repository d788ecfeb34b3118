package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carparts/internal/errors"
	"carparts/internal/middleware"
	"carparts/internal/service"
)

// OrderHandler handles order endpoints for customers and admins.
type OrderHandler struct {
	orderService service.OrderService
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orderService service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// AddressRequest is a delivery address.
type AddressRequest struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// CreateOrderRequest places the cart as an order.
type CreateOrderRequest struct {
	Address *AddressRequest `json:"address"`
}

// CreateOrderResponse is returned after placing an order.
type CreateOrderResponse struct {
	Message string `json:"message"`
	OrderID uint   `json:"order_id"`
}

// UpdateStatusRequest sets an order's status.
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// CreateOrder godoc
// @Summary Place the cart as an order
// @Tags orders
// @Accept json
// @Produce json
// @Param request body CreateOrderRequest true "Delivery address"
// @Success 201 {object} CreateOrderResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /orders [post]
func (h *OrderHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}

	var address *service.AddressInput
	if req.Address != nil {
		address = &service.AddressInput{
			Street:     req.Address.Street,
			City:       req.Address.City,
			PostalCode: req.Address.PostalCode,
			Country:    req.Address.Country,
		}
	}

	order, err := h.orderService.CreateOrder(c.Request().Context(), middleware.CurrentSession(c), address)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, CreateOrderResponse{
		Message: "Order created successfully",
		OrderID: order.ID,
	})
}

// ListOrders godoc
// @Summary List the caller's orders
// @Tags orders
// @Produce json
// @Success 200 {array} OrderResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /orders [get]
func (h *OrderHandler) ListOrders(c echo.Context) error {
	orders, err := h.orderService.ListOrders(c.Request().Context(), middleware.CurrentPrincipal(c))
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, toOrderResponses(orders, false))
}

// DeleteOrder godoc
// @Summary Cancel a pending order
// @Tags orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /orders/{id} [delete]
func (h *OrderHandler) DeleteOrder(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrOrderNotFound)
	if err != nil {
		return err
	}
	if err := h.orderService.DeleteOrder(c.Request().Context(), middleware.CurrentPrincipal(c), id); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Order deleted successfully"})
}

// ListAllOrders godoc
// @Summary List every order (admin)
// @Tags admin
// @Produce json
// @Success 200 {array} OrderResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /admin/orders [get]
func (h *OrderHandler) ListAllOrders(c echo.Context) error {
	orders, err := h.orderService.ListAllOrders(c.Request().Context())
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, toOrderResponses(orders, true))
}

// UpdateOrderStatus godoc
// @Summary Change an order's status (admin)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Order ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus(c echo.Context) error {
	id, err := pathID(c, "id", errors.ErrOrderNotFound)
	if err != nil {
		return err
	}
	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("status is required")
	}

	if err := h.orderService.UpdateOrderStatus(c.Request().Context(), id, req.Status); err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Order status updated successfully"})
}
