package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/storage"
	"github.com/avast/retry-go/v4"
	"google.golang.org/api/iterator"
)

// GCSStore implements Store on a single Cloud Storage bucket.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
}

func NewGCSStore(client *storage.Client, bucketName string) *GCSStore {
	return &GCSStore{bucket: client.Bucket(bucketName), name: bucketName}
}

func (s *GCSStore) Download(ctx context.Context, object string) ([]byte, error) {
	reader, err := s.bucket.Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open gs://%s/%s: %w", s.name, object, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read gs://%s/%s: %w", s.name, object, err)
	}
	return data, nil
}

// Upload writes the object, retrying transient failures with backoff. Each
// attempt gets its own write deadline so a stalled stream fails the attempt
// rather than the whole call.
func (s *GCSStore) Upload(ctx context.Context, object string, data []byte) error {
	err := retry.Do(
		func() error {
			writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
			defer cancel()

			w := s.bucket.Object(object).NewWriter(writeCtx)
			if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
				_ = w.Close()
				return fmt.Errorf("io.Copy to GCS failed: %w", err)
			}
			if err := w.Close(); err != nil {
				return fmt.Errorf("failed to finalize GCS write: %w", err)
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(4),
		retry.Delay(1*time.Second),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Upload failed, will retry.", "gcsObject", object, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("upload for gs://%s/%s failed after all retries: %w", s.name, object, err)
	}
	return nil
}

func (s *GCSStore) SignedURL(object string, ttl time.Duration) (string, error) {
	url, err := s.bucket.SignedURL(object, &storage.SignedURLOptions{
		Method:  http.MethodGet,
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		return "", fmt.Errorf("failed to sign URL for gs://%s/%s: %w", s.name, object, err)
	}
	return url, nil
}

func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	deleted := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return deleted, fmt.Errorf("failed to list gs://%s/%s: %w", s.name, prefix, err)
		}
		if err := s.bucket.Object(attrs.Name).Delete(ctx); err != nil {
			return deleted, fmt.Errorf("failed to delete gs://%s/%s: %w", s.name, attrs.Name, err)
		}
		deleted++
	}
	return deleted, nil
}
