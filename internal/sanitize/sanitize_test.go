package sanitize

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestClean(t *testing.T) {
	s := New(zap.NewNop())

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain text passes", "Brake pad Golf", "Brake pad Golf"},
		{"email passes", "alice@x.com", "alice@x.com"},
		{"tags are stripped", "<b>Clio</b> mirror", "Clio mirror"},
		{"attributes are stripped", `<a href="http://x">link</a>`, "link"},
		{"apostrophe rejected", "O'Brien", ""},
		{"double quote rejected", `say "hi"`, ""},
		{"semicolon rejected", "a; DROP TABLE part", ""},
		{"hyphen rejected", "Jean-Luc", ""},
		{"sql comment rejected", "admin--", ""},
		{"javascript scheme rejected", "javascript:void(0)", ""},
		{"javascript scheme any case", "JaVaScRiPt:go()", ""},
		{"event handler rejected", "x onload=go()", ""},
		{"alert call rejected", "ALERT(1)", ""},
		{"script element removed", "<script>alert(1)</script>", ""},
		{"ampersand escapes to entity and is rejected", "Fish & Chips", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Clean(tt.input))
		})
	}
}

func TestClean_RejectsEveryInjectionCharacter(t *testing.T) {
	s := New(zap.NewNop())
	bases := []string{"", "part", "Renault Clio 2004", "<i>wheel</i>"}

	for _, ch := range []string{"'", `"`, ";", "-"} {
		for _, base := range bases {
			assert.Empty(t, s.Clean(base+ch), "suffix %q on %q", ch, base)
			assert.Empty(t, s.Clean(ch+base), "prefix %q on %q", ch, base)
		}
	}
}

func TestClean_TruncatesTo255Characters(t *testing.T) {
	s := New(zap.NewNop())

	long := strings.Repeat("a", 1000)
	got := s.Clean(long)
	assert.Len(t, got, MaxLength)

	multibyte := strings.Repeat("é", 300)
	got = s.Clean(multibyte)
	assert.Equal(t, MaxLength, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))

	for _, in := range []string{"short", strings.Repeat("<p>xy</p>", 100), strings.Repeat("z", 255)} {
		assert.LessOrEqual(t, utf8.RuneCountInString(s.Clean(in)), MaxLength)
	}
}

func TestClean_LogsRejections(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	s := New(zap.New(core))

	s.Clean("1; DROP TABLE user")
	s.Clean("javascript:steal()")
	s.Clean("clean input")

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "suspicious input detected", logs.All()[0].Message)
	assert.Equal(t, "suspicious javascript input detected", logs.All()[1].Message)
}

func TestOptional(t *testing.T) {
	s := New(nil)

	v, ok := s.Optional(nil)
	assert.True(t, ok)
	assert.Nil(t, v)

	raw := "  Megane  "
	v, ok = s.Optional(&raw)
	require.True(t, ok)
	assert.Equal(t, "Megane", *v)

	bad := "x-y"
	v, ok = s.Optional(&bad)
	assert.False(t, ok)
	assert.Nil(t, v)
}
