// PosMap - Point-of-Sale Registry and Sales Geography
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/posmap

package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *time.Time) {
	t.Helper()
	c := New("test", ttl)
	t.Cleanup(c.Close)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestCacheBasicOperations(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	value, exists := c.Get("key1")
	if !exists || value != "value1" {
		t.Errorf("Get(key1) = %v, %v", value, exists)
	}

	if _, exists := c.Get("key2"); exists {
		t.Error("Expected key2 to not exist")
	}
}

func TestCacheExpiration(t *testing.T) {
	c, now := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	*now = now.Add(59 * time.Second)
	if _, exists := c.Get("key1"); !exists {
		t.Fatal("entry expired early")
	}

	*now = now.Add(2 * time.Second)
	if _, exists := c.Get("key1"); exists {
		t.Fatal("entry should be expired")
	}
	if stats := c.GetStats(); stats.Evictions != 1 || stats.TotalKeys != 0 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestCacheClear(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")

	c.Clear()
	for _, key := range []string{"key1", "key2", "key3"} {
		if _, ok := c.Get(key); ok {
			t.Errorf("%s should be cleared", key)
		}
	}
	if stats := c.GetStats(); stats.Evictions != 3 || stats.TotalKeys != 0 {
		t.Errorf("stats after Clear = %+v", stats)
	}
}

func TestCacheHitRate(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	if c.HitRate() != 0 {
		t.Error("HitRate before lookups should be 0")
	}

	c.Set("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("a")
	c.Get("b")

	if got := c.HitRate(); got != 75 {
		t.Errorf("HitRate() = %v, want 75", got)
	}
}

func TestCacheManualCleanup(t *testing.T) {
	c, now := newTestCache(t, time.Minute)

	c.Set("old", 1)
	*now = now.Add(30 * time.Second)
	c.Set("new", 2)
	*now = now.Add(45 * time.Second)

	c.cleanup()

	stats := c.GetStats()
	if stats.TotalKeys != 1 || stats.Evictions != 1 {
		t.Errorf("stats = %+v, want 1 key and 1 eviction", stats)
	}
	if !stats.LastCleanup.Equal(*now) {
		t.Errorf("LastCleanup = %v", stats.LastCleanup)
	}
}

func TestGetOrCompute(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	calls := 0
	compute := func() ([]int, error) {
		calls++
		return []int{1, 2, 3}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := GetOrCompute(c, "k", compute)
		if err != nil || len(got) != 3 {
			t.Fatalf("GetOrCompute() = %v, %v", got, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	boom := errors.New("boom")
	if _, err := GetOrCompute(c, "fails", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if _, ok := c.Get("fails"); ok {
		t.Error("errors must not be cached")
	}

	c.Clear()
	if _, err := GetOrCompute(c, "k", compute); err != nil || calls != 2 {
		t.Errorf("after Clear compute calls = %d, err = %v", calls, err)
	}
}

func TestGetOrCompute_ClearDuringComputeIsNotCached(t *testing.T) {
	c, _ := newTestCache(t, time.Minute)

	got, err := GetOrCompute(c, "k", func() (string, error) {
		v := "stale-before-mutation"
		c.Clear()
		return v, nil
	})
	if err != nil || got != "stale-before-mutation" {
		t.Fatalf("GetOrCompute() = %q, %v", got, err)
	}
	if v, ok := c.Get("k"); ok {
		t.Fatalf("cache kept %v computed before Clear", v)
	}

	got, err = GetOrCompute(c, "k", func() (string, error) { return "fresh", nil })
	if err != nil || got != "fresh" {
		t.Fatalf("GetOrCompute() = %q, %v", got, err)
	}
	if v, ok := c.Get("k"); !ok || v != "fresh" {
		t.Errorf("Get(k) = %v, %v, want fresh", v, ok)
	}
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("series", map[string]int{"days": 7})
	b := GenerateKey("series", map[string]int{"days": 7})
	c := GenerateKey("series", map[string]int{"days": 30})
	if a != b {
		t.Error("same params should give the same key")
	}
	if a == c {
		t.Error("different params should give different keys")
	}

	// Channels cannot be marshaled; the fallback still yields a key.
	if key := GenerateKey("m", make(chan int)); key == "" {
		t.Error("fallback key should not be empty")
	}
}

func TestCacheConcurrency(t *testing.T) {
	c := New("concurrent", time.Minute)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, i)
				c.Get(key)
				if j%25 == 0 {
					c.Clear()
				}
			}
		}(i)
	}
	wg.Wait()

	stats := c.GetStats()
	if stats.Hits+stats.Misses != 2000 {
		t.Errorf("lookups = %d, want 2000", stats.Hits+stats.Misses)
	}
}

func TestCacheCloseIdempotent(t *testing.T) {
	c := New("close", time.Minute)
	c.Close()
	c.Close()
}
