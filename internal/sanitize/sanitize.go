// Package sanitize is the single gate free-text input passes through before
// it is stored, used in a query, or echoed back.
package sanitize

import (
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

// MaxLength is the longest string Clean returns, in characters.
const MaxLength = 255

var (
	sqlPattern    = regexp.MustCompile(`['";-]`)
	scriptPattern = regexp.MustCompile(`(?i)(javascript:|on\w+=|<\s*script|alert\()`)
)

// Sanitizer strips markup and rejects input that looks like an injection attempt.
// It is safe for concurrent use.
type Sanitizer struct {
	policy *bluemonday.Policy
	logger *zap.Logger
}

// New creates a Sanitizer that reports rejected input to logger.
func New(logger *zap.Logger) *Sanitizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sanitizer{
		policy: bluemonday.StrictPolicy(),
		logger: logger.Named("sanitize"),
	}
}

// Clean returns raw with all tags removed, truncated to MaxLength characters.
//
// An empty result means the input was rejected (or was empty to begin with);
// callers must treat it as a failed field, never as a legitimate blank.
// Any apostrophe, double quote, semicolon or hyphen causes rejection, so
// names such as "O'Brien" or "Jean-Luc" are rejected as well.
func (s *Sanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := s.policy.Sanitize(raw)

	if sqlPattern.MatchString(cleaned) {
		s.logger.Warn("suspicious input detected", zap.String("input", cleaned))
		return ""
	}
	if scriptPattern.MatchString(cleaned) {
		s.logger.Warn("suspicious javascript input detected", zap.String("input", cleaned))
		return ""
	}

	return truncate(cleaned, MaxLength)
}

// Optional cleans raw only when it was supplied. ok is false when a supplied
// value was rejected.
func (s *Sanitizer) Optional(raw *string) (value *string, ok bool) {
	if raw == nil {
		return nil, true
	}
	cleaned := s.Clean(strings.TrimSpace(*raw))
	if cleaned == "" {
		return nil, false
	}
	return &cleaned, true
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
