package audiostore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	domain "github.com/mitchellalderson/render-note-taker-agent/internal/domain/notes"
)

// multipartThreshold keeps typical voice-note uploads as single-part puts.
const multipartThreshold = 5 << 20

// S3Options configures an S3-compatible backend (AWS S3, R2, MinIO).
type S3Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// S3Storage stores audio in an S3-compatible object store.
type S3Storage struct {
	client *minio.Client
	bucket string
	region string
	logger *slog.Logger
	ready  atomic.Bool
}

// NewS3Storage constructs the storage adapter.
func NewS3Storage(opts S3Options, logger *slog.Logger) (*S3Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	secure := opts.UseSSL || strings.HasPrefix(strings.ToLower(opts.Endpoint), "https://")
	client, err := minio.New(sanitizeEndpoint(opts.Endpoint), &minio.Options{
		Creds:        credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure:       secure,
		Region:       opts.Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}
	return &S3Storage{
		client: client,
		bucket: opts.Bucket,
		region: opts.Region,
		logger: logger.With("component", "audiostore.s3"),
	}, nil
}

// ensureBucket creates the bucket on first use; the check is skipped once
// it has succeeded.
func (s *S3Storage) ensureBucket(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err == nil && exists {
		s.ready.Store(true)
		return nil
	}
	err = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	if err != nil && minio.ToErrorResponse(err).Code != "BucketAlreadyOwnedByYou" {
		return fmt.Errorf("ensure bucket %q: %w", s.bucket, err)
	}
	s.ready.Store(true)
	return nil
}

// Put uploads the audio blob under its detected content type.
func (s *S3Storage) Put(ctx context.Context, key string, data []byte, mimeType string) (domain.StoredObject, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return domain.StoredObject{}, err
	}
	info, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:      mimeType,
		SendContentMd5:   true,
		DisableMultipart: len(data) < multipartThreshold,
	})
	if err != nil {
		return domain.StoredObject{}, fmt.Errorf("put audio object %q: %w", key, err)
	}
	s.logger.Debug("audio stored", "key", key, "bytes", info.Size)
	return domain.StoredObject{
		Key:      key,
		Size:     info.Size,
		MimeType: mimeType,
		ETag:     info.ETag,
	}, nil
}

// Get opens the object for reading, verifying it exists first.
func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get audio object %q: %w", key, err)
	}
	if _, err := obj.Stat(); err != nil {
		return nil, fmt.Errorf("stat audio object %q: %w", key, err)
	}
	return obj, nil
}

// Delete removes the object. Missing objects are not an error.
func (s *S3Storage) Delete(ctx context.Context, key string) error {
	return s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}

var _ domain.ObjectStorage = (*S3Storage)(nil)

// sanitizeEndpoint strips scheme and path; minio.New wants a bare host.
func sanitizeEndpoint(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	host, _, _ := strings.Cut(raw, "/")
	return host
}
