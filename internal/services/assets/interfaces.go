package assets

import (
	"context"
	"errors"
	"io"
)

var (
	ErrAssetNotFound = errors.New("asset not found")
	ErrInvalidKey    = errors.New("invalid asset key")
)

// Store is keyed binary storage for images, audio and video. Keys are
// relative slash-separated locators such as "tracks/4/images/scene_-1_ab12cd34.png".
type Store interface {
	// Save writes data under key, replacing any previous object atomically
	Save(ctx context.Context, key string, data io.Reader, size int64) error

	// Open returns a reader for key or ErrAssetNotFound
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Exists reports whether key is present
	Exists(ctx context.Context, key string) (bool, error)

	// Delete removes key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key under prefix
	DeletePrefix(ctx context.Context, prefix string) error

	// LocalPath returns a filesystem path holding the object's bytes. The
	// caller must invoke release when done with it.
	LocalPath(ctx context.Context, key string) (path string, release func(), err error)

	// URL resolves key against the configured public base
	URL(key string) string
}
