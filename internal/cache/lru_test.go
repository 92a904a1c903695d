package cache

import (
	"context"
	"testing"
	"time"
)

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[int64, string](2, 0)
	c.Set(1, "a")
	c.Set(2, "b")

	if _, ok := c.Get(1); !ok {
		t.Fatalf("expected key 1 present")
	}
	c.Set(3, "c")

	if _, ok := c.Get(2); ok {
		t.Fatalf("key 2 should have been evicted")
	}
	if v, ok := c.Get(1); !ok || v != "a" {
		t.Fatalf("key 1 = %q, %v", v, ok)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
}

func TestLRU_Expiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int64, int](10, time.Minute)
	c.now = func() time.Time { return now }

	c.Set(1, 10)
	c.Set(2, 20)

	now = now.Add(30 * time.Second)
	if _, ok := c.Get(1); !ok {
		t.Fatalf("entry expired too early")
	}

	now = now.Add(time.Minute)
	if _, ok := c.Get(1); ok {
		t.Fatalf("entry should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if c.Len() != 0 {
		t.Fatalf("len = %d, want 0", c.Len())
	}
}

func TestLRU_OverwriteAndDelete(t *testing.T) {
	c := NewLRU[string, int](2, 0)
	c.Set("x", 1)
	c.Set("x", 2)
	if v, _ := c.Get("x"); v != 2 {
		t.Fatalf("x = %d, want 2", v)
	}
	c.Delete("x")
	if _, ok := c.Get("x"); ok {
		t.Fatalf("x should be gone")
	}
	c.Delete("missing")
}

func TestJanitor_SweepAndRun(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	c := NewLRU[int64, int](10, time.Second)
	c.now = func() time.Time { return now }
	c.Set(1, 1)
	now = now.Add(2 * time.Second)

	j := NewJanitor(time.Hour, c)
	if n := j.Sweep(); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := j.Run(ctx); err != nil {
		t.Fatalf("run: %v", err)
	}
}
