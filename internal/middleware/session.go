// Package middleware resolves the caller of each request and guards routes by role.
package middleware

import (
	"errors"

	"github.com/labstack/echo/v4"
	echojwt "github.com/labstack/echo-jwt/v4"
	"go.uber.org/zap"

	"carparts/internal/session"
)

const sessionContextKey = "session"

// Session loads the server-side session named by the session cookie.
// Requests without a usable cookie continue as anonymous; a stale or forged
// cookie is cleared. Every successful load renews the idle timeout.
func Session(mgr *session.Manager, logger *zap.Logger) echo.MiddlewareFunc {
	logger = logger.Named("session")

	return echojwt.WithConfig(echojwt.Config{
		TokenLookup: "cookie:" + mgr.CookieName(),
		ContextKey:  sessionContextKey,
		ParseTokenFunc: func(c echo.Context, auth string) (interface{}, error) {
			return mgr.Load(c.Request().Context(), auth)
		},
		SuccessHandler: func(c echo.Context) {
			sess := CurrentSession(c)
			if sess == nil {
				return
			}
			if err := mgr.Touch(c.Request().Context(), sess); err != nil {
				if errors.Is(err, session.ErrNotFound) {
					// destroyed between load and renewal
					c.Set(sessionContextKey, nil)
					c.SetCookie(mgr.ExpiredCookie())
					return
				}
				logger.Warn("renew session failed", zap.Uint("user_id", sess.UserID), zap.Error(err))
				return
			}
			if cookie, err := c.Cookie(mgr.CookieName()); err == nil {
				c.SetCookie(mgr.Cookie(cookie.Value))
			}
		},
		ErrorHandler: func(c echo.Context, err error) error {
			if _, cerr := c.Cookie(mgr.CookieName()); cerr == nil {
				logger.Debug("discarding session cookie", zap.Error(err))
				c.SetCookie(mgr.ExpiredCookie())
			}
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// CurrentSession returns the session loaded for this request, or nil.
func CurrentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionContextKey).(*session.Session)
	return sess
}

// CurrentPrincipal returns the typed identity of the caller.
func CurrentPrincipal(c echo.Context) session.Principal {
	return session.PrincipalFor(CurrentSession(c))
}
