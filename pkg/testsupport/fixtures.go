package testsupport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jsonform/internal/jsonx"
	"github.com/goliatone/go-jsonform/pkg/formcache"
)

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// Clock is a manually advanced time source for expiry tests.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// SequentialKeys returns a key generator yielding prefix-1, prefix-2, ...
// so rendered documents can be compared against goldens.
func SequentialKeys(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// NewMemoryCache builds a Cache over a MemoryStore driven by clock. A nil
// clock uses wall time.
func NewMemoryCache(t *testing.T, clock *Clock, options ...formcache.Option) (*formcache.Cache, *formcache.MemoryStore) {
	t.Helper()

	var storeOpts []formcache.MemoryOption
	if clock != nil {
		storeOpts = append(storeOpts, formcache.WithClock(clock.Now))
	}
	store := formcache.NewMemoryStore(storeOpts...)
	cache, err := formcache.New(store, options...)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return cache, store
}

// JSONRoundTrip marshals value and decodes it back into generic maps and
// slices, the way a browser client would see it.
func JSONRoundTrip(t *testing.T, value any) map[string]any {
	t.Helper()

	payload, err := jsonx.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := jsonx.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// CompareJSONGolden decodes the golden at path and value into generic JSON
// values and returns their diff, so formatting and key order do not matter.
// With UPDATE_GOLDENS set the golden is rewritten first.
func CompareJSONGolden(t *testing.T, path string, value any) string {
	t.Helper()

	if os.Getenv("UPDATE_GOLDENS") != "" {
		payload, err := jsonx.MarshalIndent(value, "", "  ")
		if err != nil {
			t.Fatalf("marshal golden: %v", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir golden dir: %v", err)
		}
		if err := os.WriteFile(path, append(payload, '\n'), 0o644); err != nil {
			t.Fatalf("write golden: %v", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	var want any
	if err := jsonx.Unmarshal(data, &want); err != nil {
		t.Fatalf("decode golden: %v", err)
	}
	payload, err := jsonx.Marshal(value)
	if err != nil {
		t.Fatalf("marshal value: %v", err)
	}
	var got any
	if err := jsonx.Unmarshal(payload, &got); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	return cmp.Diff(want, got)
}
