package storage

import (
	"context"
	"time"
)

// Service resolves catalog assets such as movie posters to client-facing URLs.
type Service interface {
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
