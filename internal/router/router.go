package router

import (
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"carparts/internal/config"
	"carparts/internal/errors"
	"carparts/internal/handler"
	"carparts/internal/middleware"
	"carparts/internal/session"
)

// bodyLimit bounds request bodies, image uploads included.
const bodyLimit = "16M"

// Handlers groups the HTTP handlers mounted by Register.
type Handlers struct {
	Account  *handler.AccountHandler
	Part     *handler.PartHandler
	Panel    *handler.PanelHandler
	Order    *handler.OrderHandler
	Feedback *handler.FeedbackHandler
	Seed     *handler.SeedHandler
}

// Register wires routes and middleware.
func Register(e *echo.Echo, cfg *config.Config, logger *zap.Logger, sessions *session.Manager, h Handlers) {
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HTTPErrorHandler = HTTPErrorHandler(logger)

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.CORS(cfg.CORSOrigins))
	e.Use(middleware.SecurityHeaders(cfg.CORSOrigins))
	e.Use(echomw.BodyLimit(bodyLimit))
	e.Use(middleware.Session(sessions, logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/images/:filename", h.Part.ServeImage)

	api := e.Group("/api")

	// Public routes
	api.POST("/register", h.Account.Register)
	api.POST("/login", h.Account.Login)
	api.POST("/logout", h.Account.Logout)
	api.GET("/check-auth", h.Account.CheckAuth)
	api.GET("/parts", h.Part.ListParts)
	api.GET("/parts/:id", h.Part.GetPart)
	api.POST("/comments", h.Feedback.AddComment)
	api.GET("/comments", h.Feedback.ListComments)

	// Routes for any logged-in user
	secured := api.Group("", middleware.RequireAuth)
	secured.PUT("/update-profile", h.Account.UpdateProfile)
	secured.DELETE("/delete-account", h.Account.DeleteAccount)
	secured.POST("/panel", h.Panel.AddToPanel)
	secured.GET("/panel", h.Panel.GetPanel)
	secured.DELETE("/panel", h.Panel.RemoveFromPanel)
	secured.POST("/orders", h.Order.CreateOrder)
	secured.GET("/orders", h.Order.ListOrders)
	secured.DELETE("/orders/:id", h.Order.DeleteOrder)
	secured.POST("/contact", h.Feedback.SubmitContact)

	// Admin routes
	admin := api.Group("/admin", middleware.RequireAdmin)
	admin.POST("/parts", h.Part.AddPart)
	admin.PUT("/parts/:id", h.Part.UpdatePart)
	admin.DELETE("/parts/:id", h.Part.DeletePart)
	admin.GET("/orders", h.Order.ListAllOrders)
	admin.PUT("/orders/:id/status", h.Order.UpdateOrderStatus)
	admin.POST("/seed/parts", h.Seed.SeedParts)
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// HTTPErrorHandler renders every error as an errors.ErrorResponse. Internal
// causes of 5xx responses are logged, never sent.
func HTTPErrorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	logger = logger.Named("http")

	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !stderrors.As(err, &he) {
			httpErr := errors.MapErrorToHTTP(err)
			he = echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
		}

		var body errors.ErrorResponse
		switch msg := he.Message.(type) {
		case errors.ErrorResponse:
			body = msg
		case string:
			body = errors.ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
		default:
			body = errors.ErrorResponse{Error: http.StatusText(he.Code), Code: codeForStatus(he.Code)}
		}

		if he.Code >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.Error(err),
			)
		}

		var werr error
		if c.Request().Method == http.MethodHead {
			werr = c.NoContent(he.Code)
		} else {
			werr = c.JSON(he.Code, body)
		}
		if werr != nil {
			logger.Warn("write error response failed", zap.Error(werr))
		}
	}
}

func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return string(errors.KindAuth)
	case status == http.StatusForbidden:
		return string(errors.KindForbidden)
	case status == http.StatusNotFound:
		return string(errors.KindNotFound)
	case status >= http.StatusInternalServerError:
		return string(errors.KindInternal)
	default:
		return string(errors.KindValidation)
	}
}
