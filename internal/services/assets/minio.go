package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/killallgit/parable-studio/pkg/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore implements Store on an S3-compatible bucket
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
	expiry    time.Duration
	tempDir   string

	bucketOnce sync.Once
	bucketErr  error
}

// NewMinioStore connects to the configured endpoint. Region is pinned so
// presigning does not need a bucket location lookup.
func NewMinioStore(cfg config.MinIOConfig, tempDir string) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	expiry := cfg.PresignExpiry
	if expiry <= 0 {
		expiry = 24 * time.Hour
	}

	return &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		expiry:    expiry,
		tempDir:   tempDir,
	}, nil
}

// EnsureBucket creates the bucket on first use
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	s.bucketOnce.Do(func() {
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.bucketErr = fmt.Errorf("failed to check bucket: %w", err)
			return
		}
		if !exists {
			if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
				s.bucketErr = fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
			}
		}
	})
	return s.bucketErr
}

func (s *MinioStore) Save(ctx context.Context, key string, data io.Reader, size int64) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.EnsureBucket(ctx); err != nil {
		return err
	}
	if size <= 0 {
		size = -1
	}
	_, err = s.client.PutObject(ctx, s.bucket, cleaned, data, size, minio.PutObjectOptions{
		ContentType: ContentTypeFor(cleaned),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", cleaned, err)
	}
	return nil
}

func (s *MinioStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	if _, err := s.client.StatObject(ctx, s.bucket, cleaned, minio.StatObjectOptions{}); err != nil {
		return nil, s.translate(cleaned, err)
	}
	obj, err := s.client.GetObject(ctx, s.bucket, cleaned, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.translate(cleaned, err)
	}
	return obj, nil
}

func (s *MinioStore) Exists(ctx context.Context, key string) (bool, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	_, err = s.client.StatObject(ctx, s.bucket, cleaned, minio.StatObjectOptions{})
	if err != nil {
		if errors.Is(s.translate(cleaned, err), ErrAssetNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	cleaned, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.client.RemoveObject(ctx, s.bucket, cleaned, minio.RemoveObjectOptions{}); err != nil {
		if errors.Is(s.translate(cleaned, err), ErrAssetNotFound) {
			return nil
		}
		return fmt.Errorf("failed to delete %s: %w", cleaned, err)
	}
	return nil
}

func (s *MinioStore) DeletePrefix(ctx context.Context, prefix string) error {
	cleaned, err := cleanKey(prefix)
	if err != nil {
		return err
	}
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    cleaned + "/",
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return fmt.Errorf("failed to list %s: %w", cleaned, obj.Err)
		}
		if err := s.client.RemoveObject(ctx, s.bucket, obj.Key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("failed to delete %s: %w", obj.Key, err)
		}
	}
	return nil
}

// LocalPath downloads the object to a temp file that release removes
func (s *MinioStore) LocalPath(ctx context.Context, key string) (string, func(), error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", nil, err
	}

	tmp, err := os.CreateTemp(s.tempDir, "asset-*"+extOf(cleaned))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()

	if err := s.client.FGetObject(ctx, s.bucket, cleaned, path, minio.GetObjectOptions{}); err != nil {
		os.Remove(path)
		return "", nil, s.translate(cleaned, err)
	}
	return path, func() { os.Remove(path) }, nil
}

// URL returns a public URL when one is configured, otherwise a presigned GET
func (s *MinioStore) URL(key string) string {
	if key == "" {
		return ""
	}
	if s.publicURL != "" {
		return s.publicURL + "/" + strings.TrimPrefix(key, "/")
	}
	u, err := s.client.PresignedGetObject(context.Background(), s.bucket, key, s.expiry, url.Values{})
	if err != nil {
		return ""
	}
	return u.String()
}

func (s *MinioStore) translate(key string, err error) error {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == 404 {
		return fmt.Errorf("%w: %s", ErrAssetNotFound, key)
	}
	return fmt.Errorf("object storage error for %s: %w", key, err)
}

func extOf(key string) string {
	if i := strings.LastIndex(key, "."); i > strings.LastIndex(key, "/") {
		return key[i:]
	}
	return ""
}
