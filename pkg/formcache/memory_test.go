package formcache

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStore_ConcurrentReadsRacingExpiry(t *testing.T) {
	var nowNanos atomic.Int64
	start := time.Unix(1_000, 0)
	nowNanos.Store(start.UnixNano())
	store := NewMemoryStore(WithClock(func() time.Time {
		return time.Unix(0, nowNanos.Load())
	}))

	ctx := context.Background()
	value := []byte(`{"model":["a","b"],"non_data_fields":[]}`)
	if err := store.Set(ctx, "k", value, time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				got, err := store.Get(ctx, "k")
				if err != nil {
					if !errors.Is(err, ErrNotFound) {
						t.Errorf("unexpected error: %v", err)
					}
					continue
				}
				if !bytes.Equal(got, value) {
					t.Errorf("partial value returned: %q", got)
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		nowNanos.Store(start.Add(2 * time.Second).UnixNano())
		store.Sweep()
	}()
	wg.Wait()

	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired entry, got %v", err)
	}
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, "k", []byte("abc"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, _ := store.Get(ctx, "k")
	got[0] = 'z'
	again, _ := store.Get(ctx, "k")
	if string(again) != "abc" {
		t.Fatalf("stored value mutated through returned slice: %q", again)
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Unix(0, 0)
	store := NewMemoryStore(WithClock(func() time.Time { return now }))
	ctx := context.Background()
	_ = store.Set(ctx, "short", []byte("1"), time.Second)
	_ = store.Set(ctx, "long", []byte("2"), time.Hour)

	now = now.Add(time.Minute)
	if removed := store.Sweep(); removed != 1 {
		t.Fatalf("expected 1 removed entry, got %d", removed)
	}
	if store.Len() != 1 {
		t.Fatalf("expected 1 remaining entry, got %d", store.Len())
	}
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("canceled write must not create an entry")
	}
}
