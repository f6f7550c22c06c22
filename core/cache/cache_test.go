package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestLRU_BasicOperations(t *testing.T) {
	c := New[string, int](3)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("c", 3)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := c.Get("z"); ok {
		t.Error("Get(z) found a missing key")
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
}

func TestLRU_Eviction(t *testing.T) {
	c := New[string, int](2)

	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // b is now least recently used
	c.Put("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, k := range []string{"a", "c"} {
		if _, ok := c.Get(k); !ok {
			t.Errorf("%s should still be cached", k)
		}
	}
	if s := c.Stats(); s.Evictions != 1 || s.Size != 2 || s.MaxSize != 2 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRU_UpdateAndRemove(t *testing.T) {
	c := New[string, int](2)
	c.Put("a", 1)
	c.Put("a", 10)
	if v, _ := c.Get("a"); v != 10 {
		t.Errorf("Get(a) = %d, want 10", v)
	}
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1", c.Len())
	}

	c.Remove("a")
	c.Remove("missing")
	if _, ok := c.Get("a"); ok {
		t.Error("a should have been removed")
	}
}

func TestLRU_UnlimitedSize(t *testing.T) {
	c := New[int, int](-1)
	for i := 0; i < 1000; i++ {
		c.Put(i, i)
	}
	if c.Len() != 1000 {
		t.Errorf("Len() = %d, want 1000", c.Len())
	}
	if s := c.Stats(); s.Evictions != 0 || s.MaxSize != 0 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestLRU_GetOrCompute(t *testing.T) {
	c := New[string, int](4)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.GetOrCompute("k", compute)
		if err != nil || v != 42 {
			t.Fatalf("GetOrCompute() = %d, %v", v, err)
		}
	}
	if calls != 1 {
		t.Errorf("compute called %d times, want 1", calls)
	}

	errBad := errors.New("bad")
	if _, err := c.GetOrCompute("e", func() (int, error) { return 0, errBad }); !errors.Is(err, errBad) {
		t.Errorf("GetOrCompute() error = %v", err)
	}
	if _, ok := c.Get("e"); ok {
		t.Error("failed computation was cached")
	}

	s := c.Stats()
	if s.Hits != 2 {
		t.Errorf("Hits = %d, want 2", s.Hits)
	}
}

func TestLRU_Concurrency(t *testing.T) {
	c := New[string, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%75)
				c.Put(key, i)
				c.Get(key)
				if _, err := c.GetOrCompute(key, func() (int, error) { return i, nil }); err != nil {
					t.Error(err)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 50 {
		t.Errorf("Len() = %d, exceeds max size", c.Len())
	}
}
