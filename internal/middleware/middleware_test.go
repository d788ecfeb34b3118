package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"carparts/internal/session"
)

func newManager() *session.Manager {
	return session.NewManager(session.NewMemoryStore(), session.NewTokenSigner("secret"), 30*time.Minute, session.CookieConfig{Name: "sid"})
}

func newServer(mgr *session.Manager) *echo.Echo {
	e := echo.New()
	e.Use(Session(mgr, zap.NewNop()))
	e.GET("/whoami", func(c echo.Context) error {
		return c.String(http.StatusOK, CurrentPrincipal(c).Role.String())
	})
	e.GET("/private", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireAuth)
	e.GET("/admin", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, RequireAdmin)
	return e
}

func do(e *echo.Echo, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSession_AnonymousWithoutCookie(t *testing.T) {
	e := newServer(newManager())

	rec := do(e, "/whoami", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())

	assert.Equal(t, http.StatusUnauthorized, do(e, "/private", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/admin", nil).Code)
}

func TestSession_ResolvesRoles(t *testing.T) {
	mgr := newManager()
	e := newServer(mgr)
	ctx := context.Background()

	_, userToken, err := mgr.Create(ctx, 1, "alice", false)
	require.NoError(t, err)
	_, adminToken, err := mgr.Create(ctx, 2, "admin", true)
	require.NoError(t, err)

	userCookie := &http.Cookie{Name: "sid", Value: userToken}
	adminCookie := &http.Cookie{Name: "sid", Value: adminToken}

	rec := do(e, "/whoami", userCookie)
	assert.Equal(t, "user", rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1, "session cookie is renewed")
	assert.Equal(t, userToken, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	assert.Equal(t, http.StatusOK, do(e, "/private", userCookie).Code)
	assert.Equal(t, http.StatusUnauthorized, do(e, "/admin", userCookie).Code)

	assert.Equal(t, "admin", do(e, "/whoami", adminCookie).Body.String())
	assert.Equal(t, http.StatusOK, do(e, "/admin", adminCookie).Code)
}

func TestSession_InvalidCookieIsCleared(t *testing.T) {
	e := newServer(newManager())

	rec := do(e, "/whoami", &http.Cookie{Name: "sid", Value: "forged"})
	assert.Equal(t, "anonymous", rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestSession_DestroyedSessionIsAnonymous(t *testing.T) {
	mgr := newManager()
	e := newServer(mgr)
	ctx := context.Background()

	sess, token, err := mgr.Create(ctx, 1, "alice", false)
	require.NoError(t, err)
	require.NoError(t, mgr.Destroy(ctx, sess))

	assert.Equal(t, "anonymous", do(e, "/whoami", &http.Cookie{Name: "sid", Value: token}).Body.String())
}

// vanishingStore loses every session right after it is read, as if a logout
// landed between loading and renewing it.
type vanishingStore struct {
	*session.MemoryStore
}

func (s vanishingStore) Get(ctx context.Context, id string) (*session.Session, error) {
	sess, err := s.MemoryStore.Get(ctx, id)
	if err == nil {
		_ = s.MemoryStore.Delete(ctx, id)
	}
	return sess, err
}

func TestSession_DestroyedDuringRequestIsNotRenewed(t *testing.T) {
	store := vanishingStore{MemoryStore: session.NewMemoryStore()}
	mgr := session.NewManager(store, session.NewTokenSigner("secret"), 30*time.Minute, session.CookieConfig{Name: "sid"})
	e := newServer(mgr)
	ctx := context.Background()

	_, token, err := mgr.Create(ctx, 1, "alice", false)
	require.NoError(t, err)
	cookie := &http.Cookie{Name: "sid", Value: token}

	rec := do(e, "/whoami", cookie)
	assert.Equal(t, "anonymous", rec.Body.String())
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)

	_, err = store.MemoryStore.Get(ctx, mustSessionID(t, token))
	assert.ErrorIs(t, err, session.ErrNotFound, "renewal must not recreate the session")
}

func mustSessionID(t *testing.T, token string) string {
	t.Helper()
	id, err := session.NewTokenSigner("secret").Parse(token)
	require.NoError(t, err)
	return id
}

func TestContentSecurityPolicy(t *testing.T) {
	csp := ContentSecurityPolicy([]string{"http://localhost:3000"})
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "script-src 'self' http://localhost:3000")
	assert.Contains(t, csp, "object-src 'none'")
	assert.Contains(t, csp, "frame-src 'none'")

	assert.Contains(t, ContentSecurityPolicy(nil), "script-src 'self';")
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	e.Use(SecurityHeaders([]string{"http://localhost:3000"}))
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := do(e, "/", nil)
	assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/missing", func(c echo.Context) error { return echo.ErrNotFound })

	do(e, "/ok", nil)
	do(e, "/missing", nil)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}
