package formcache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jsonform/pkg/formcache"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingObserver struct {
	puts, hits, misses, errs int
}

func (o *recordingObserver) ObserveCachePut(err error) {
	if err != nil {
		o.errs++
		return
	}
	o.puts++
}

func (o *recordingObserver) ObserveCacheGet(hit bool, err error) {
	switch {
	case err != nil:
		o.errs++
	case hit:
		o.hits++
	default:
		o.misses++
	}
}

type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) ([]byte, error) { return nil, s.err }
func (s failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return s.err
}
func (s failingStore) Delete(context.Context, string) error { return s.err }

func newCache(t *testing.T, clock *fakeClock, options ...formcache.Option) (*formcache.Cache, *formcache.MemoryStore) {
	t.Helper()
	store := formcache.NewMemoryStore(formcache.WithClock(clock.Now))
	cache, err := formcache.New(store, options...)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return cache, store
}

func TestNew_RequiresStore(t *testing.T) {
	if _, err := formcache.New(nil); err == nil {
		t.Fatalf("expected error for nil store")
	}
}

func TestNewKey_Format(t *testing.T) {
	key := formcache.NewKey()
	if len(key) != 32 {
		t.Fatalf("expected 32 hex characters, got %d (%q)", len(key), key)
	}
	for _, r := range key {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			t.Fatalf("unexpected character %q in key", r)
		}
	}
}

func TestPut_GeneratesDistinctKeys(t *testing.T) {
	cache, _ := newCache(t, &fakeClock{now: time.Unix(0, 0)})
	ctx := context.Background()

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		key, err := cache.Put(ctx, "", formcache.Snapshot{DataFields: []string{"a"}})
		if err != nil {
			t.Fatalf("put %d: %v", i, err)
		}
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate key %q after %d puts", key, i)
		}
		seen[key] = struct{}{}
	}
}

func TestGet_RespectsTTL(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	cache, _ := newCache(t, clock, formcache.WithTTL(time.Minute))
	ctx := context.Background()

	snap := formcache.Snapshot{
		DataFields:    []string{"name", "code", "save"},
		NonDataFields: []string{"save"},
	}
	key, err := cache.Put(ctx, "", snap)
	if err != nil {
		t.Fatalf("put: %v", err)
	}

	clock.Advance(59 * time.Second)
	got, err := cache.Get(ctx, key)
	if err != nil {
		t.Fatalf("get before ttl: %v", err)
	}
	if diff := cmp.Diff(snap, got); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	clock.Advance(time.Second)
	if _, err := cache.Get(ctx, key); !errors.Is(err, formcache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after ttl, got %v", err)
	}
}

func TestPut_ExplicitKeyOverwrites(t *testing.T) {
	cache, _ := newCache(t, &fakeClock{now: time.Unix(0, 0)})
	ctx := context.Background()

	if _, err := cache.Put(ctx, "fixed", formcache.Snapshot{DataFields: []string{"a"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	key, err := cache.Put(ctx, "fixed", formcache.Snapshot{DataFields: []string{"b"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "fixed" {
		t.Fatalf("expected explicit key to be returned, got %q", key)
	}
	got, err := cache.Get(ctx, "fixed")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff([]string{"b"}, got.DataFields); diff != "" {
		t.Fatalf("data fields mismatch (-want +got):\n%s", diff)
	}
}

func TestDelete_RemovesEntry(t *testing.T) {
	cache, store := newCache(t, &fakeClock{now: time.Unix(0, 0)})
	ctx := context.Background()

	key, _ := cache.Put(ctx, "", formcache.Snapshot{})
	if err := cache.Delete(ctx, key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Get(ctx, key); !errors.Is(err, formcache.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d entries", store.Len())
	}
	if err := cache.Delete(ctx, "missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestCache_PrefixAndKeyGenerator(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	store := formcache.NewMemoryStore(formcache.WithClock(clock.Now))
	cache, err := formcache.New(store,
		formcache.WithPrefix("test:"),
		formcache.WithKeyGenerator(func() string { return "k1" }),
	)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}

	key, err := cache.Put(context.Background(), "", formcache.Snapshot{DataFields: []string{"x"}})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if key != "k1" {
		t.Fatalf("expected generated key k1, got %q", key)
	}
	if _, err := store.Get(context.Background(), "test:k1"); err != nil {
		t.Fatalf("expected prefixed key in store: %v", err)
	}
}

func TestCache_ObserverAndStoreFailures(t *testing.T) {
	observer := &recordingObserver{}
	boom := errors.New("boom")
	cache, err := formcache.New(failingStore{err: boom}, formcache.WithObserver(observer))
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	ctx := context.Background()

	if _, err := cache.Put(ctx, "", formcache.Snapshot{}); !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
	if _, err := cache.Get(ctx, "k"); !errors.Is(err, boom) || errors.Is(err, formcache.ErrNotFound) {
		t.Fatalf("expected store error, got %v", err)
	}
	if observer.errs != 2 {
		t.Fatalf("expected 2 observed errors, got %d", observer.errs)
	}

	okObserver := &recordingObserver{}
	okCache, _ := newCache(t, &fakeClock{now: time.Unix(0, 0)}, formcache.WithObserver(okObserver))
	key, _ := okCache.Put(ctx, "", formcache.Snapshot{})
	_, _ = okCache.Get(ctx, key)
	_, _ = okCache.Get(ctx, "missing")
	if okObserver.puts != 1 || okObserver.hits != 1 || okObserver.misses != 1 {
		t.Fatalf("unexpected observations %+v", okObserver)
	}
}

func TestSnapshot_Allows(t *testing.T) {
	snap := formcache.Snapshot{DataFields: []string{"a", "b"}}
	if !snap.Allows("a") || snap.Allows("c") {
		t.Fatalf("unexpected Allows result for %v", snap.DataFields)
	}
}
