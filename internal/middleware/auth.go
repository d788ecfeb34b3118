package middleware

import (
	"github.com/labstack/echo/v4"

	"carparts/internal/errors"
)

// RequireAuth rejects anonymous callers with 401.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentPrincipal(c).IsAuthenticated() {
			return unauthorized()
		}
		return next(c)
	}
}

// RequireAdmin rejects every caller that is not an administrator with 401.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentPrincipal(c).IsAdmin() {
			return unauthorized()
		}
		return next(c)
	}
}

func unauthorized() error {
	httpErr := errors.MapErrorToHTTP(errors.ErrUnauthorized)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}
