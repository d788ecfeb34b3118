package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowedFile(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"wheel.png", true},
		{"WHEEL.JPG", true},
		{"photo.jpeg", true},
		{"anim.gif", true},
		{"img.webp", true},
		{"img.avif", true},
		{"notes.txt", false},
		{"shell.php.png", true},
		{"noext", false},
		{"trailing.", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AllowedFile(tt.name))
		})
	}
}

func TestSecureFilename(t *testing.T) {
	assert.Equal(t, "passwd", SecureFilename("../../etc/passwd"))
	assert.Equal(t, "my_wheel.png", SecureFilename("my wheel.png"))
	assert.Equal(t, "x.png", SecureFilename(`C:\Users\me\x.png`))
	assert.Equal(t, "bad.png", SecureFilename("b<a>d.png"))
	assert.Equal(t, "", SecureFilename(".."))
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", ContentType("1_a.png"))
	assert.Equal(t, "image/jpeg", ContentType("1_a.JPG"))
	assert.Equal(t, "application/octet-stream", ContentType("1_a"))
}

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "images")
	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, "1_wheel.png", strings.NewReader("pngbytes"), "image/png"))

	rc, err := store.Open(ctx, "1_wheel.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, "pngbytes", string(data))

	require.NoError(t, store.Save(ctx, "1_wheel.png", strings.NewReader("v2"), "image/png"))
	raw, err := os.ReadFile(filepath.Join(dir, "1_wheel.png"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(raw))

	require.NoError(t, store.Delete(ctx, "1_wheel.png"))
	_, err = store.Open(ctx, "1_wheel.png")
	assert.ErrorIs(t, err, ErrNotFound)

	// deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "1_wheel.png"))
}

func TestLocalStore_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "../x.png", "a/b.png", `a\b.png`} {
		assert.ErrorIs(t, store.Save(ctx, key, strings.NewReader("x"), ""), ErrInvalidKey, key)
		_, err := store.Open(ctx, key)
		assert.ErrorIs(t, err, ErrInvalidKey, key)
		assert.ErrorIs(t, store.Delete(ctx, key), ErrInvalidKey, key)
	}
}

func TestNewS3Store_RequiresSettings(t *testing.T) {
	_, err := NewS3Store(configWith("", "ak", "sk"))
	assert.Error(t, err)
	_, err = NewS3Store(configWith("bucket", "", "sk"))
	assert.Error(t, err)
	_, err = NewS3Store(configWith("bucket", "ak", ""))
	assert.Error(t, err)

	store, err := NewS3Store(configWith("bucket", "ak", "sk"))
	require.NoError(t, err)
	assert.Equal(t, "bucket", store.Bucket())
}
