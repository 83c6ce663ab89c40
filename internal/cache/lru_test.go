package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)}
}

func TestLRUCache_GetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Fatal("expected miss")
	}
	c.Set("a", "1")
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected hit for a, got %q %v", v, ok)
	}
	c.Set("a", "2")
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("expected overwrite, got %q", v)
	}
	if c.Size() != 1 {
		t.Fatalf("expected size 1, got %d", c.Size())
	}

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if r := stats.HitRatio(); r < 0.66 || r > 0.67 {
		t.Fatalf("unexpected hit ratio %f", r)
	}
}

func TestLRUCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatal("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a was recently used and should remain")
	}
	if c.Stats().Evictions != 1 {
		t.Fatalf("expected one eviction, got %+v", c.Stats())
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Minute).WithClock(clock.Now)

	c.Set("a", 1)
	c.Set("b", 2)
	clock.Advance(30 * time.Second)
	c.Set("c", 3)
	clock.Advance(31 * time.Second)

	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if removed := c.CleanExpired(); removed != 1 {
		t.Fatalf("expected b to be cleaned, removed %d", removed)
	}
	if _, ok := c.Get("c"); !ok {
		t.Fatal("c should still be live")
	}
}

func TestLRUCache_PurgeAndDelete(t *testing.T) {
	c := NewLRUCache[int](0, time.Minute)
	for i := 0; i < 50; i++ {
		c.Set(strconv.Itoa(i), i)
	}
	if c.Size() != 50 {
		t.Fatalf("unbounded cache should keep everything, got %d", c.Size())
	}
	c.Delete("7")
	if _, ok := c.Get("7"); ok {
		t.Fatal("7 should be deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache after purge, got %d", c.Size())
	}
	c.Set("x", 1)
	if v, ok := c.Get("x"); !ok || v != 1 {
		t.Fatal("cache should be usable after purge")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](100, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa((g * 200) + i)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Size() > 100 {
		t.Fatalf("size exceeded bound: %d", c.Size())
	}
}

func TestManager_CleanNowAndStop(t *testing.T) {
	clock := newClock()
	c := NewLRUCache[int](10, time.Second).WithClock(clock.Now)
	c.Set("a", 1)
	clock.Advance(2 * time.Second)

	m := NewManager(nil)
	m.Register(c)
	if cleaned := m.CleanNow(); cleaned != 1 {
		t.Fatalf("expected 1 cleaned entry, got %d", cleaned)
	}

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}
