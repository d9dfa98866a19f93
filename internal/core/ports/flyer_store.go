package ports

import (
	"context"
	"io"
	"time"
)

// FlyerStore keeps uploaded booth flyer images.
type FlyerStore interface {
	// Put stores body under a fresh key derived from filename and returns the key.
	Put(ctx context.Context, filename, contentType string, size int64, body io.Reader) (string, error)
	// URL returns a time-limited link for reading key.
	URL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
