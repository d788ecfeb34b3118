package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"carparts/internal/middleware"
	"carparts/internal/service"
	"carparts/internal/session"
)

// AccountHandler handles registration, login and account endpoints.
type AccountHandler struct {
	accountService service.AccountService
	sessions       *session.Manager
}

// NewAccountHandler creates a new account handler.
func NewAccountHandler(accountService service.AccountService, sessions *session.Manager) *AccountHandler {
	return &AccountHandler{accountService: accountService, sessions: sessions}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is returned on successful login.
type LoginResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

// CheckAuthResponse reports the caller's identity.
type CheckAuthResponse struct {
	IsLoggedIn bool          `json:"isLoggedIn"`
	User       *UserResponse `json:"user"`
}

// UpdateProfileRequest changes the caller's account. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Username        *string `json:"username"`
	Email           *string `json:"email"`
	CurrentPassword string  `json:"currentPassword" validate:"required"`
	NewPassword     *string `json:"newPassword"`
}

// UpdateProfileResponse is returned after a profile change.
type UpdateProfileResponse struct {
	Message string        `json:"message"`
	User    *UserResponse `json:"user"`
}

// DeleteAccountRequest confirms account deletion.
type DeleteAccountRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
}

// Register godoc
// @Summary Register a new customer
// @Tags account
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /register [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("all fields are required")
	}

	_, err := h.accountService.Register(c.Request().Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Registration successful"})
}

// Login godoc
// @Summary Log in and receive a session cookie
// @Tags account
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /login [post]
func (h *AccountHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("username and password are required")
	}

	// a new login replaces whatever session the browser had
	h.accountService.Logout(c.Request().Context(), middleware.CurrentSession(c))

	res, err := h.accountService.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return fail(err)
	}

	c.SetCookie(h.sessions.Cookie(res.Token))
	return c.JSON(http.StatusOK, LoginResponse{
		Message: "Login successful",
		User:    toUserResponse(res.User),
	})
}

// Logout godoc
// @Summary Log out
// @Tags account
// @Produce json
// @Success 200 {object} MessageResponse
// @Router /logout [post]
func (h *AccountHandler) Logout(c echo.Context) error {
	h.accountService.Logout(c.Request().Context(), middleware.CurrentSession(c))
	c.SetCookie(h.sessions.ExpiredCookie())
	return c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// CheckAuth godoc
// @Summary Report the current identity
// @Tags account
// @Produce json
// @Success 200 {object} CheckAuthResponse
// @Router /check-auth [get]
func (h *AccountHandler) CheckAuth(c echo.Context) error {
	user := h.accountService.CheckAuth(c.Request().Context(), middleware.CurrentPrincipal(c))
	return c.JSON(http.StatusOK, CheckAuthResponse{
		IsLoggedIn: user != nil,
		User:       toUserResponse(user),
	})
}

// UpdateProfile godoc
// @Summary Update the caller's username, email or password
// @Tags account
// @Accept json
// @Produce json
// @Param request body UpdateProfileRequest true "Profile changes"
// @Success 200 {object} UpdateProfileResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /update-profile [put]
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("current password is required")
	}

	user, err := h.accountService.UpdateProfile(c.Request().Context(), middleware.CurrentPrincipal(c), service.UpdateProfileInput{
		Username:        req.Username,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, UpdateProfileResponse{
		Message: "Profile updated successfully",
		User:    toUserResponse(user),
	})
}

// DeleteAccount godoc
// @Summary Delete the caller's account
// @Tags account
// @Accept json
// @Produce json
// @Param request body DeleteAccountRequest true "Password confirmation"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /delete-account [delete]
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	var req DeleteAccountRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid JSON data")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest("current password is required")
	}

	if err := h.accountService.DeleteAccount(c.Request().Context(), middleware.CurrentPrincipal(c), req.CurrentPassword); err != nil {
		return fail(err)
	}
	c.SetCookie(h.sessions.ExpiredCookie())
	return c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}
