package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ContentSecurityPolicy builds the CSP header value. origins are the
// frontends allowed to load scripts and call the API.
func ContentSecurityPolicy(origins []string) string {
	extra := strings.Join(origins, " ")
	directives := [][2]string{
		{"default-src", "'self'"},
		{"script-src", strings.TrimSpace("'self' " + extra)},
		{"style-src", "'self' 'unsafe-inline'"},
		{"img-src", "'self' data:"},
		{"connect-src", strings.TrimSpace("'self' " + extra)},
		{"font-src", "'self'"},
		{"object-src", "'none'"},
		{"frame-src", "'none'"},
		{"base-uri", "'self'"},
		{"form-action", "'self'"},
	}

	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d[0]+" "+d[1])
	}
	return strings.Join(parts, "; ")
}

// SecurityHeaders sets CSP and the usual hardening headers. The swagger UI
// relies on inline scripts and is skipped.
func SecurityHeaders(origins []string) echo.MiddlewareFunc {
	return echomw.SecureWithConfig(echomw.SecureConfig{
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Path(), "/swagger")
		},
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: ContentSecurityPolicy(origins),
	})
}

// CORS allows credentialed requests from the configured frontends.
func CORS(origins []string) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           12 * 60 * 60,
	})
}
