package blob

import (
	"context"
	"time"
)

// Store is the blob-store port: byte-level get/put under a single bucket.
type Store interface {
	Download(ctx context.Context, object string) ([]byte, error)
	Upload(ctx context.Context, object string, data []byte) error
	// SignedURL returns a time-bounded access URL for the object.
	SignedURL(object string, ttl time.Duration) (string, error)
	// DeletePrefix removes every object under the prefix and returns the count.
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}
