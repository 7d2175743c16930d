package cache

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestCache[T any](size int, ttl time.Duration) (*LRUCache[T], *clock) {
	clk := &clock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	c := NewLRUCache[T](size, ttl)
	c.now = clk.now
	return c, clk
}

func TestLRUCache_TTLExpiration(t *testing.T) {
	c, clk := newTestCache[string](3, time.Minute)

	c.Set("u1:summary", "cached")
	if _, ok := c.Get("u1:summary"); !ok {
		t.Fatal("expected fresh entry")
	}

	clk.t = clk.t.Add(61 * time.Second)
	if _, ok := c.Get("u1:summary"); ok {
		t.Error("expected entry to expire")
	}
	if c.Size() != 0 {
		t.Errorf("expired entry should be dropped on access, size %d", c.Size())
	}
}

func TestLRUCache_SizeEviction(t *testing.T) {
	c, _ := newTestCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 becomes least recently used
	c.Set("key4", "value4")

	if _, ok := c.Get("key2"); ok {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
}

func TestLRUCache_DeletePrefix(t *testing.T) {
	c, _ := newTestCache[int](10, time.Hour)
	c.Set("u1:summary", 1)
	c.Set("u1:trends:6", 2)
	c.Set("u10:summary", 3)
	c.Set("u2:summary", 4)

	if n := c.DeletePrefix("u1:"); n != 2 {
		t.Errorf("DeletePrefix removed %d, want 2", n)
	}
	if _, ok := c.Get("u10:summary"); !ok {
		t.Error("u10 must not match the u1: prefix")
	}
	if c.Size() != 2 {
		t.Errorf("size = %d, want 2", c.Size())
	}
}

func TestLRUCache_CleanExpired(t *testing.T) {
	c, clk := newTestCache[int](10, time.Minute)
	c.Set("a", 1)
	clk.t = clk.t.Add(30 * time.Second)
	c.Set("b", 2)
	clk.t = clk.t.Add(45 * time.Second)

	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired = %d, want 1", n)
	}
	if _, ok := c.Get("b"); !ok {
		t.Error("b should survive")
	}
}

func TestLRUCache_Concurrent(t *testing.T) {
	c := NewLRUCache[int](50, time.Hour)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%80)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Size() > 50 {
		t.Errorf("size %d exceeds capacity", c.Size())
	}
}

func TestInstrumented_CountsHitsAndMisses(t *testing.T) {
	m := metrics.New()
	c := NewInstrumented[int]("dashboard", NewLRUCache[int](4, time.Hour), m)

	c.Set("x", 1)
	c.Get("x")
	c.Get("x")
	c.Get("y")

	expected := `
# HELP fintrack_cache_hits_total Cache hits, by cache name.
# TYPE fintrack_cache_hits_total counter
fintrack_cache_hits_total{cache="dashboard"} 2
# HELP fintrack_cache_misses_total Cache misses, by cache name.
# TYPE fintrack_cache_misses_total counter
fintrack_cache_misses_total{cache="dashboard"} 1
`
	if err := testutil.GatherAndCompare(m.Registry, strings.NewReader(expected),
		"fintrack_cache_hits_total", "fintrack_cache_misses_total"); err != nil {
		t.Error(err)
	}
}

func TestManager_StopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Register(NewLRUCache[int](1, time.Minute))
	m.Stop()

	m.StartCleanup(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	m.Stop()
}
