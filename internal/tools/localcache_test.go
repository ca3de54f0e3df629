package tools

import (
	"fmt"
	"sync"
	"testing"
)

func TestLocalCacheSetGet(t *testing.T) {
	c := newLocalCache(4)
	c.Set("a", "1")

	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("Get(a) = %q, %v; want %q, true", v, ok, "1")
	}
	if _, ok := c.Get("missing"); ok {
		t.Fatalf("Get(missing) found a value, want miss")
	}
}

func TestLocalCacheUpdateDoesNotGrow(t *testing.T) {
	c := newLocalCache(2)
	c.Set("a", "1")
	c.Set("a", "2")

	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	if v, _ := c.Get("a"); v != "2" {
		t.Fatalf("Get(a) = %q, want updated value", v)
	}
}

func TestLocalCacheEvictsOldestWhenFull(t *testing.T) {
	c := newLocalCache(3)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), "v")
	}

	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want bound of 3", c.Len())
	}
	if _, ok := c.Get("k0"); ok {
		t.Fatalf("k0 survived eviction, want oldest entries dropped")
	}
	if _, ok := c.Get("k4"); !ok {
		t.Fatalf("k4 missing, want newest entry kept")
	}
}

func TestLocalCacheConcurrentAccess(t *testing.T) {
	c := newLocalCache(64)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				key := fmt.Sprintf("k%d", j%16)
				c.Set(key, "v")
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	if c.Len() == 0 || c.Len() > 16 {
		t.Fatalf("Len() = %d, want between 1 and 16", c.Len())
	}
}
