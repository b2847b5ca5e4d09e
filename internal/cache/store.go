package cache

import (
	"context"
	"time"
)

// Store is the shared counter cache behind request rate limiting. Counters
// live in the database so limits hold across instances.
type Store interface {
	IncrementWithTTL(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}
