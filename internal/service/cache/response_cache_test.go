package cache

import (
	"fmt"
	"testing"
	"time"
)

func TestSetGet(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("k", "v", 0)
	got, ok := c.Get("k")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.(string) != "v" {
		t.Fatalf("unexpected value %v", got)
	}
}

func TestGetExpired(t *testing.T) {
	c := New(10, time.Minute)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Set("k", "v", 30*time.Second)

	c.now = func() time.Time { return base.Add(31 * time.Second) }
	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry to miss")
	}
	if c.Stats().Size != 0 {
		t.Fatalf("expected lazy removal on expired get")
	}
}

func TestFIFOEviction(t *testing.T) {
	c := New(3, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// sets older than the evicted entry must not refresh its position
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a before eviction")
	}

	c.Set("d", 4, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected oldest entry evicted")
	}
	for _, k := range []string{"b", "c", "d"} {
		if _, ok := c.Get(k); !ok {
			t.Fatalf("expected %s to survive", k)
		}
	}
}

func TestOverwriteKeepsPosition(t *testing.T) {
	c := New(2, time.Minute)
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("a", 10, 0) // overwrite, still oldest
	c.Set("c", 3, 0)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a evicted as oldest insertion")
	}
	if _, ok := c.Get("b"); !ok {
		t.Fatalf("expected b to survive")
	}
}

func TestCleanupExpired(t *testing.T) {
	c := New(10, time.Minute)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.Set("short", 1, 10*time.Second)
	c.Set("long", 2, 10*time.Minute)

	c.now = func() time.Time { return base.Add(time.Minute) }
	if removed := c.CleanupExpired(); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok := c.Get("long"); !ok {
		t.Fatalf("expected live entry to survive cleanup")
	}
}

func TestClear(t *testing.T) {
	c := New(10, time.Minute)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i, 0)
	}
	c.Clear()
	if c.Stats().Size != 0 {
		t.Fatalf("expected empty cache")
	}
	c.Set("k", "v", 0)
	if _, ok := c.Get("k"); !ok {
		t.Fatalf("expected cache usable after clear")
	}
}

func TestStatsHitRate(t *testing.T) {
	c := New(10, time.Minute)
	c.Set("k", "v", 0)
	c.Get("k")
	c.Get("k")
	c.Get("missing")

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 {
		t.Fatalf("unexpected counters %+v", s)
	}
	if s.HitRate < 0.66 || s.HitRate > 0.67 {
		t.Fatalf("unexpected hit rate %v", s.HitRate)
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("/api/tweets", map[string]string{"symbol": "BTC", "timeframe": "24h"})
	b := Key("/api/tweets", map[string]string{"timeframe": "24h", "symbol": "BTC"})
	if a != b {
		t.Fatalf("expected identical keys, got %q vs %q", a, b)
	}
	if a == Key("/api/tweets", map[string]string{"symbol": "ETH", "timeframe": "24h"}) {
		t.Fatalf("expected distinct keys for distinct params")
	}
	if Key("/api/health", nil) != "/api/health" {
		t.Fatalf("expected bare endpoint for empty params")
	}
}
