package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// CookieConfig describes the session cookie.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Manager creates, loads, renews and destroys sessions.
type Manager struct {
	store  Store
	signer *TokenSigner
	ttl    time.Duration
	cookie CookieConfig
	now    func() time.Time
}

// NewManager creates a Manager. ttl is the idle timeout; every Touch renews it.
func NewManager(store Store, signer *TokenSigner, ttl time.Duration, cookie CookieConfig) *Manager {
	if cookie.Name == "" {
		cookie.Name = "carparts_session"
	}
	return &Manager{
		store:  store,
		signer: signer,
		ttl:    ttl,
		cookie: cookie,
		now:    time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookie.Name
}

// TTL returns the idle timeout.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create starts a new session for the given identity and returns it with its signed token.
func (m *Manager) Create(ctx context.Context, userID uint, username string, isAdmin bool) (*Session, string, error) {
	now := m.now()
	sess := &Session{
		ID:        newSessionID(),
		UserID:    userID,
		Username:  username,
		IsAdmin:   isAdmin,
		CreatedAt: now,
		LastSeen:  now,
	}

	token, err := m.signer.Sign(sess.ID)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}
	if err := m.store.Create(ctx, sess, m.ttl); err != nil {
		return nil, "", err
	}
	return sess, token, nil
}

// Load verifies token and returns the session it names.
func (m *Manager) Load(ctx context.Context, token string) (*Session, error) {
	id, err := m.signer.Parse(token)
	if err != nil {
		return nil, err
	}
	return m.store.Get(ctx, id)
}

// Save persists changes to sess (e.g. cart updates) and renews its expiry.
// It returns ErrNotFound if the session was destroyed meanwhile.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	sess.LastSeen = m.now()
	return m.store.Save(ctx, sess, m.ttl)
}

// Touch renews the idle timeout of sess without writing its contents, so a
// stale copy never overwrites changes made by a concurrent request.
func (m *Manager) Touch(ctx context.Context, sess *Session) error {
	return m.store.Touch(ctx, sess, m.ttl)
}

// Destroy removes the session. A nil or already-removed session is not an error.
func (m *Manager) Destroy(ctx context.Context, sess *Session) error {
	if sess == nil {
		return nil
	}
	if err := m.store.Delete(ctx, sess.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// DestroyUser removes every session of userID, on any device.
func (m *Manager) DestroyUser(ctx context.Context, userID uint) error {
	return m.store.DeleteByUser(ctx, userID)
}

// Cookie returns the cookie carrying token.
func (m *Manager) Cookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(m.ttl / time.Second),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredCookie returns a cookie that makes the browser drop the session cookie.
func (m *Manager) ExpiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     m.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}
