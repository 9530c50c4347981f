package assets

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore implements Store using the local filesystem
type LocalStore struct {
	root    string // Base directory for all assets
	baseURL string
}

// NewLocalStore creates a new local filesystem store rooted at root
func NewLocalStore(root, publicBaseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create asset root: %w", err)
	}

	absPath, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &LocalStore{
		root:    absPath,
		baseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Root returns the absolute directory served under the public base URL
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) pathFor(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if !strings.HasPrefix(full, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %q escapes root", ErrInvalidKey, key)
	}
	return full, nil
}

// Save writes to a temp file in the target directory and renames it into
// place so readers never observe a partial object.
func (s *LocalStore) Save(ctx context.Context, key string, data io.Reader, size int64) error {
	full, err := s.pathFor(key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(full)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create asset directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, contextReader{ctx: ctx, r: data}); err != nil {
		tmp.Close()
		os.Remove(tmpPath) // Clean up on failure
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, full); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to move file into place: %w", err)
	}
	return nil
}

// Open retrieves an asset from the filesystem
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Exists checks whether the asset file is present
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	full, err := s.pathFor(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Delete removes an asset file from the filesystem
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	full, err := s.pathFor(key)
	if err != nil {
		return err
	}

	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil // Already deleted, not an error
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}

	// Try to remove the directory if empty
	_ = os.Remove(filepath.Dir(full))
	return nil
}

// DeletePrefix removes the directory tree a prefix maps to
func (s *LocalStore) DeletePrefix(ctx context.Context, prefix string) error {
	full, err := s.pathFor(strings.TrimSuffix(prefix, "/"))
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return fmt.Errorf("failed to delete %s: %w", prefix, err)
	}
	return nil
}

// LocalPath returns the on-disk path directly; release is a no-op
func (s *LocalStore) LocalPath(ctx context.Context, key string) (string, func(), error) {
	full, err := s.pathFor(key)
	if err != nil {
		return "", nil, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return "", nil, fmt.Errorf("%w: %s", ErrAssetNotFound, key)
		}
		return "", nil, err
	}
	return full, func() {}, nil
}

// URL joins the key onto the public base
func (s *LocalStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.baseURL + "/" + strings.TrimPrefix(key, "/")
}

// contextReader stops a copy once ctx is done
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
