// Package storage keeps uploaded part images.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"carparts/internal/config"
)

// ErrNotFound is returned by Open for a missing image.
var ErrNotFound = errors.New("image not found")

// ErrInvalidKey is returned for keys that could escape the image namespace.
var ErrInvalidKey = errors.New("invalid image key")

// ImageStore stores image bytes by key. Keys are flat file names.
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the image; a missing image is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the ImageStore selected by cfg.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (ImageStore, error) {
	switch cfg.Backend {
	case "local":
		return NewLocalStore(cfg.Dir)
	case "s3":
		store, err := NewS3Store(cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported image backend %q", cfg.Backend)
	}
}

// AllowedExtensions lists the accepted image file extensions.
var AllowedExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
	"webp": true,
	"avif": true,
}

// AllowedFile reports whether filename has an accepted image extension.
func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return AllowedExtensions[strings.ToLower(filename[i+1:])]
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SecureFilename reduces an uploaded file name to a safe flat name.
func SecureFilename(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	return name
}

// ContentType returns the MIME type for an image key.
func ContentType(key string) string {
	i := strings.LastIndex(key, ".")
	if i < 0 {
		return "application/octet-stream"
	}
	switch strings.ToLower(key[i+1:]) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	case "avif":
		return "image/avif"
	default:
		return "application/octet-stream"
	}
}

func validateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return ErrInvalidKey
	}
	return nil
}
