package formcache

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-jsonform/internal/jsonx"
)

const (
	// DefaultTTL is how long a snapshot stays valid when no TTL is configured.
	DefaultTTL = time.Hour
	// DefaultPrefix namespaces snapshot keys inside a shared store.
	DefaultPrefix = "FRMCACHE:"
)

var errStoreMissing = errors.New("formcache: store is required")

// Observer receives cache outcomes, typically a metrics collector.
type Observer interface {
	ObserveCachePut(err error)
	ObserveCacheGet(hit bool, err error)
}

// Option customises a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) { c.prefix = prefix }
}

// WithObserver registers an outcome observer.
func WithObserver(observer Observer) Option {
	return func(c *Cache) {
		if observer != nil {
			c.observer = observer
		}
	}
}

// WithKeyGenerator replaces NewKey, mainly for deterministic tests.
func WithKeyGenerator(fn func() string) Option {
	return func(c *Cache) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

// Cache writes and reads Snapshots through a Store.
type Cache struct {
	store    Store
	ttl      time.Duration
	prefix   string
	newKey   func() string
	observer Observer
}

// New constructs a Cache over store.
func New(store Store, options ...Option) (*Cache, error) {
	if store == nil {
		return nil, errStoreMissing
	}
	c := &Cache{
		store:    store,
		ttl:      DefaultTTL,
		prefix:   DefaultPrefix,
		newKey:   NewKey,
		observer: nopObserver{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// NewKey returns a fresh 128-bit identifier drawn from crypto/rand, hex
// encoded without separators.
func NewKey() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}

// TTL reports the configured time-to-live.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Put stores snap under key, generating a key when key is empty, and returns
// the key used. An explicit key overwrites any existing entry.
func (c *Cache) Put(ctx context.Context, key string, snap Snapshot) (string, error) {
	if key == "" {
		key = c.newKey()
	}
	payload, err := jsonx.Marshal(snap)
	if err != nil {
		c.observer.ObserveCachePut(err)
		return "", fmt.Errorf("formcache: encode snapshot: %w", err)
	}
	if err := c.store.Set(ctx, c.prefix+key, payload, c.ttl); err != nil {
		c.observer.ObserveCachePut(err)
		return "", fmt.Errorf("formcache: put %s: %w", key, err)
	}
	c.observer.ObserveCachePut(nil)
	return key, nil
}

// Get returns the snapshot stored under key or an error wrapping ErrNotFound.
func (c *Cache) Get(ctx context.Context, key string) (Snapshot, error) {
	if key == "" {
		c.observer.ObserveCacheGet(false, nil)
		return Snapshot{}, fmt.Errorf("formcache: empty key: %w", ErrNotFound)
	}
	payload, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.observer.ObserveCacheGet(false, nil)
			return Snapshot{}, fmt.Errorf("formcache: get %s: %w", key, err)
		}
		c.observer.ObserveCacheGet(false, err)
		return Snapshot{}, fmt.Errorf("formcache: get %s: %w", key, err)
	}
	var snap Snapshot
	if err := jsonx.Unmarshal(payload, &snap); err != nil {
		c.observer.ObserveCacheGet(false, err)
		return Snapshot{}, fmt.Errorf("formcache: decode snapshot %s: %w", key, err)
	}
	c.observer.ObserveCacheGet(true, nil)
	return snap, nil
}

// Delete removes the entry stored under key. Deleting a missing key is not an
// error.
func (c *Cache) Delete(ctx context.Context, key string) error {
	if err := c.store.Delete(ctx, c.prefix+key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("formcache: delete %s: %w", key, err)
	}
	return nil
}

type nopObserver struct{}

func (nopObserver) ObserveCachePut(error)       {}
func (nopObserver) ObserveCacheGet(bool, error) {}
