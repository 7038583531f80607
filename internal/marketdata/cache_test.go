package marketdata

import (
	"testing"
	"time"
)

func TestTTLCacheFreshEntry(t *testing.T) {
	now := time.Now()
	cache := NewTTLCache[string](300*time.Second, func() time.Time { return now })

	cache.Put("AAPL", "snapshot")

	got, ok := cache.Get("AAPL")
	if !ok || got != "snapshot" {
		t.Fatalf("Get = (%q, %v), want fresh hit", got, ok)
	}
}

func TestTTLCacheExpiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	cache := NewTTLCache[string](300*time.Second, clock)

	cache.Put("AAPL", "stale-soon")

	// One second short of the TTL is still fresh
	now = now.Add(299 * time.Second)
	if _, ok := cache.Get("AAPL"); !ok {
		t.Error("entry expired before its TTL")
	}

	// At exactly the TTL the entry is stale
	now = now.Add(1 * time.Second)
	if _, ok := cache.Get("AAPL"); ok {
		t.Error("entry survived past its TTL")
	}
}

func TestTTLCacheOverwriteResetsAge(t *testing.T) {
	now := time.Now()
	cache := NewTTLCache[int](10*time.Second, func() time.Time { return now })

	cache.Put("k", 1)
	now = now.Add(9 * time.Second)
	cache.Put("k", 2)
	now = now.Add(9 * time.Second)

	got, ok := cache.Get("k")
	if !ok || got != 2 {
		t.Fatalf("Get = (%d, %v), want recomputed value still fresh", got, ok)
	}
	if cache.Len() != 1 {
		t.Errorf("Len = %d, want 1 (overwrite in place)", cache.Len())
	}
}

func TestTTLCacheMiss(t *testing.T) {
	cache := NewTTLCache[string](time.Minute, nil)
	if _, ok := cache.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}
}
