package formcache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a key is absent or expired.
var ErrNotFound = errors.New("formcache: entry not found")

// Store is the keyed, expiring backend the cache writes to. Values are opaque
// bytes. Implementations must be safe for concurrent use; a Get racing an
// expiry returns ErrNotFound, never a partial value.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
