package storage

import "testing"

func TestRowCachePutGet(t *testing.T) {
	cache := NewRowCache(4)

	if _, ok := cache.Get("data", 0); ok {
		t.Error("Expected miss on empty cache")
	}

	cache.Put("data", 0, []float64{1, 2, 3})
	values, ok := cache.Get("data", 0)
	if !ok {
		t.Fatal("Expected hit after put")
	}
	if len(values) != 3 || values[1] != 2 {
		t.Errorf("Unexpected cached values: %v", values)
	}

	hits, misses := cache.Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("Expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}
}

func TestRowCacheEviction(t *testing.T) {
	cache := NewRowCache(2)

	cache.Put("data", 0, []float64{0})
	cache.Put("data", 1, []float64{1})

	// Touch row 0 so row 1 is the eviction candidate.
	cache.Get("data", 0)
	cache.Put("data", 2, []float64{2})

	if cache.Len() != 2 {
		t.Fatalf("Expected 2 entries, got %d", cache.Len())
	}
	if _, ok := cache.Get("data", 1); ok {
		t.Error("Expected row 1 to be evicted")
	}
	if _, ok := cache.Get("data", 0); !ok {
		t.Error("Expected row 0 to survive")
	}
}

func TestRowCacheDisabled(t *testing.T) {
	cache := NewRowCache(0)
	cache.Put("data", 0, []float64{1})
	if _, ok := cache.Get("data", 0); ok {
		t.Error("Expected disabled cache to never hit")
	}
}
