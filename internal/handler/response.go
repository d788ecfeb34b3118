package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"carparts/internal/errors"
	"carparts/internal/model"
)

// MessageResponse is the body of a successful mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  bool   `json:"is_admin"`
}

// PartResponse is the public view of a catalog part.
type PartResponse struct {
	ID          uint    `json:"id"`
	Name        string  `json:"name"`
	CarModel    string  `json:"car_model"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	Image       string  `json:"image"`
}

// OrderUser identifies the owner of an order in admin listings.
type OrderUser struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID                uint           `json:"id"`
	User              *OrderUser     `json:"user,omitempty"`
	Address           model.Address  `json:"address"`
	Status            string         `json:"status"`
	CreatedAt         string         `json:"created_at"`
	DeliveryDelayDays int            `json:"delivery_delay_days"`
	Parts             []PartResponse `json:"parts"`
}

func toUserResponse(u *model.User) *UserResponse {
	if u == nil {
		return nil
	}
	return &UserResponse{Username: u.Username, Email: u.Email, IsAdmin: u.IsAdmin}
}

func toPartResponse(p model.Part) PartResponse {
	return PartResponse{
		ID:          p.ID,
		Name:        p.Name,
		CarModel:    p.CarModel,
		Price:       p.Price.InexactFloat64(),
		Description: p.Description,
		Image:       p.Image,
	}
}

func toPartResponses(parts []model.Part) []PartResponse {
	out := make([]PartResponse, 0, len(parts))
	for _, p := range parts {
		out = append(out, toPartResponse(p))
	}
	return out
}

func toOrderResponses(orders []model.Order, withUser bool) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		resp := OrderResponse{
			ID:                o.ID,
			Address:           o.Address,
			Status:            string(o.Status),
			CreatedAt:         o.CreatedAt.UTC().Format(time.RFC3339),
			DeliveryDelayDays: o.DeliveryDelayDays,
			Parts:             toPartResponses(o.Parts),
		}
		if withUser {
			resp.User = &OrderUser{Username: o.User.Username, Email: o.User.Email}
		}
		out = append(out, resp)
	}
	return out
}

// fail converts a service error into an HTTP error carrying the standard body.
func fail(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
}

func badRequest(message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  string(errors.KindValidation),
	})
}

// pathID parses a numeric path parameter. Anything else reads as a missing resource.
func pathID(c echo.Context, name string, notFound error) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		return 0, fail(notFound)
	}
	return uint(id), nil
}
