package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail signature or shape checks.
var ErrInvalidToken = errors.New("invalid session token")

// TokenSigner issues and verifies the signed cookie value that names a session.
// The token carries nothing but the session id (jti); expiry is enforced by the Store.
type TokenSigner struct {
	secret []byte
}

// NewTokenSigner creates a signer with the given HMAC secret.
func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret)}
}

// Sign returns a signed token for sessionID.
func (s *TokenSigner) Sign(sessionID string) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:       sessionID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Parse verifies token and returns the session id it names.
func (s *TokenSigner) Parse(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}

// newSessionID generates an opaque session id.
func newSessionID() string {
	return uuid.New().String()
}
