package cache

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/test-cache")
	if Dir() != "/tmp/test-cache/sola" {
		t.Errorf("expected /tmp/test-cache/sola, got %q", Dir())
	}

	t.Setenv("XDG_CACHE_HOME", "")
	home, _ := os.UserHomeDir()
	expected := filepath.Join(home, ".cache", "sola")
	if Dir() != expected {
		t.Errorf("expected %q, got %q", expected, Dir())
	}
}

func TestKeyString(t *testing.T) {
	key := Key{Operation: "getSolaEntities", Locale: "de", Params: "kind__id__in=5"}
	if key.String() != "getSolaEntities|de|kind__id__in=5" {
		t.Errorf("unexpected key %q", key.String())
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"simple", "simple"},
		{"getSolaEntities|de", "getSolaEntities_de"},
		{"a/b:c@d", "a_b_c_d"},
	}

	for _, tt := range tests {
		result := sanitize(tt.input)
		if result != tt.expected {
			t.Errorf("sanitize(%q): expected %q, got %q", tt.input, tt.expected, result)
		}
	}
}

func TestOpen_UnknownBackend(t *testing.T) {
	if _, err := Open(Options{Backend: "memcached"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestOpen_RedisNeedsURL(t *testing.T) {
	if _, err := Open(Options{Backend: "redis"}); err == nil {
		t.Error("expected error for missing redis url")
	}
}

// storeContract exercises behaviour every Store must share.
func storeContract(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	if err := store.Set(ctx, "op|de|a=1", []byte(`{"x":1}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "op|en|a=1", []byte(`{"x":2}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "other|de|", []byte(`{}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "op|de|a=1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(value) != `{"x":1}` {
		t.Errorf("unexpected value %s", value)
	}

	if n, _ := store.Len(ctx); n != 3 {
		t.Errorf("expected 3 entries, got %d", n)
	}

	removed, err := store.DeletePrefix(ctx, "op|")
	if err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	if err := store.Delete(ctx, "other|de|"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := store.Delete(ctx, "other|de|"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
	if n, _ := store.Len(ctx); n != 0 {
		t.Errorf("expected empty store, got %d", n)
	}
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, NewMemoryStore(0))
}

func TestMemoryStore_Retention(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	store.Set(ctx, "k", []byte("v"))

	now = now.Add(30 * time.Second)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Error("entry should still be retained")
	}

	now = now.Add(time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}
	if n, _ := store.Len(ctx); n != 0 {
		t.Errorf("expired entry should be collected, got %d entries", n)
	}
}

func TestMemoryStore_ZeroRetentionNeverExpires(t *testing.T) {
	store := NewMemoryStore(0)
	now := time.Now()
	store.now = func() time.Time { return now }

	ctx := context.Background()
	store.Set(ctx, "k", []byte("v"))
	now = now.Add(24 * 365 * time.Hour)
	if _, ok, _ := store.Get(ctx, "k"); !ok {
		t.Error("entry should never expire with zero retention")
	}
}

func TestFileStore(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	storeContract(t, store)
}

func TestFileStore_Bundle(t *testing.T) {
	store, _ := NewFileStore(t.TempDir(), 0)

	var buf bytes.Buffer
	if err := store.Bundle(&buf); err == nil {
		t.Error("expected error for empty cache")
	}

	store.Set(context.Background(), "op|de|", []byte("{}"))
	if err := store.Bundle(&buf); err != nil {
		t.Fatalf("Bundle failed: %v", err)
	}
	if buf.Len() == 0 {
		t.Error("bundle should not be empty")
	}
}

func TestRedisStore(t *testing.T) {
	server := miniredis.RunT(t)
	store, err := NewRedisStore(RedisOptions{URL: "redis://" + server.Addr()})
	if err != nil {
		t.Fatalf("NewRedisStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	storeContract(t, store)
}

func TestRedisStore_Retention(t *testing.T) {
	server := miniredis.RunT(t)
	store, _ := NewRedisStore(RedisOptions{URL: "redis://" + server.Addr(), Retention: time.Minute})
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	store.Set(ctx, "k", []byte("v"))
	if !server.Exists(DefaultRedisPrefix + "k") {
		t.Fatal("expected prefixed key in redis")
	}

	server.FastForward(2 * time.Minute)
	if _, ok, _ := store.Get(ctx, "k"); ok {
		t.Error("entry should have expired")
	}
}

func TestFetch_CachesSuccess(t *testing.T) {
	c := New(NewMemoryStore(0), nil)
	key := Key{Operation: "op", Locale: "de"}
	calls := 0

	fetch := func(context.Context) (map[int]string, error) {
		calls++
		return map[int]string{1: "a"}, nil
	}

	for range 3 {
		got, err := Fetch(context.Background(), c, key, fetch)
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if got[1] != "a" {
			t.Errorf("unexpected value %v", got)
		}
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}

	stats, _ := c.Stats(context.Background())
	if stats.Hits != 2 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestFetch_ErrorsAreNotCached(t *testing.T) {
	c := New(NewMemoryStore(0), nil)
	key := Key{Operation: "op"}
	calls := 0

	fetch := func(context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, errors.New("boom")
		}
		return 42, nil
	}

	if _, err := Fetch(context.Background(), c, key, fetch); err == nil {
		t.Fatal("expected error")
	}
	got, err := Fetch(context.Background(), c, key, fetch)
	if err != nil || got != 42 {
		t.Errorf("expected 42, got %d (%v)", got, err)
	}
}

func TestFetch_Invalidate(t *testing.T) {
	c := New(NewMemoryStore(0), nil)
	ctx := context.Background()
	key := Key{Operation: "op", Locale: "en"}
	calls := 0
	fetch := func(context.Context) (int, error) { calls++; return calls, nil }

	Fetch(ctx, c, key, fetch)
	if err := c.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate failed: %v", err)
	}
	got, _ := Fetch(ctx, c, key, fetch)
	if got != 2 {
		t.Errorf("expected refetch after invalidate, got %d", got)
	}

	Fetch(ctx, c, Key{Operation: "op", Locale: "de"}, fetch)
	removed, _ := c.InvalidateOperation(ctx, "op")
	if removed != 2 {
		t.Errorf("expected 2 entries removed, got %d", removed)
	}
}

func TestFetch_CoalescesConcurrentMisses(t *testing.T) {
	c := New(NewMemoryStore(0), nil)
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 7, nil
	}

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Fetch(context.Background(), c, Key{Operation: "slow"}, fetch)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls.Load() != 1 {
		t.Errorf("expected concurrent misses to share one call, got %d", calls.Load())
	}
}

func TestFetch_NilCache(t *testing.T) {
	got, err := Fetch(context.Background(), nil, Key{}, func(context.Context) (string, error) {
		return "direct", nil
	})
	if err != nil || got != "direct" {
		t.Errorf("nil cache should call through, got %q (%v)", got, err)
	}
}

func TestClear(t *testing.T) {
	c := New(NewMemoryStore(0), nil)
	ctx := context.Background()
	fetch := func(context.Context) (int, error) { return 1, nil }
	Fetch(ctx, c, Key{Operation: "a", Locale: "de"}, fetch)
	Fetch(ctx, c, Key{Operation: "b", Locale: "en"}, fetch)

	removed, err := c.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 entries removed, got %d", removed)
	}
	stats, _ := c.Stats(ctx)
	if stats.Entries != 0 {
		t.Errorf("expected empty cache, got %d entries", stats.Entries)
	}
}

func TestFetch_CancelledCallerDoesNotFailOthers(t *testing.T) {
	c := New(NewMemoryStore(0), nil)
	key := Key{Operation: "slow"}
	started := make(chan struct{})
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(ctx context.Context) (string, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		<-release
		return "value", ctx.Err()
	}

	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := Fetch(first, c, key, fetch)
		firstErr <- err
	}()
	<-started

	second := make(chan string, 1)
	go func() {
		v, err := Fetch(context.Background(), c, key, fetch)
		if err != nil {
			v = "error: " + err.Error()
		}
		second <- v
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled caller to return context.Canceled, got %v", err)
	}
	close(release)
	if got := <-second; got != "value" {
		t.Errorf("expected coalesced caller to get the value, got %q", got)
	}
	if calls.Load() != 1 {
		t.Errorf("expected one shared call, got %d", calls.Load())
	}
}
