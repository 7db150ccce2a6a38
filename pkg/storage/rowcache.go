package storage

import (
	"container/list"
	"fmt"
	"sync"
)

// RowCache is an LRU cache of decoded axis-0 rows. Rows are append-only and
// immutable once written, so entries never need invalidation.
type RowCache struct {
	capacity int
	mu       sync.Mutex
	entries  map[string]*list.Element
	lru      *list.List
	hits     uint64
	misses   uint64
}

type rowEntry struct {
	key    string
	values []float64
}

// NewRowCache creates a cache holding up to capacity rows. A capacity of 0
// disables caching.
func NewRowCache(capacity int) *RowCache {
	return &RowCache{
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get retrieves a cached row.
func (rc *RowCache) Get(name string, idx int) ([]float64, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	elem, ok := rc.entries[rowCacheKey(name, idx)]
	if !ok {
		rc.misses++
		return nil, false
	}
	rc.hits++
	rc.lru.MoveToFront(elem)
	return elem.Value.(*rowEntry).values, true
}

// Put stores a decoded row, evicting the least recently used entry when full.
func (rc *RowCache) Put(name string, idx int, values []float64) {
	if rc.capacity <= 0 {
		return
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()

	key := rowCacheKey(name, idx)
	if elem, ok := rc.entries[key]; ok {
		rc.lru.MoveToFront(elem)
		return
	}

	elem := rc.lru.PushFront(&rowEntry{key: key, values: values})
	rc.entries[key] = elem

	if rc.lru.Len() > rc.capacity {
		oldest := rc.lru.Back()
		if oldest != nil {
			entry := oldest.Value.(*rowEntry)
			rc.lru.Remove(oldest)
			delete(rc.entries, entry.key)
		}
	}
}

// Len returns the number of cached rows.
func (rc *RowCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.lru.Len()
}

// Stats returns hit and miss counts.
func (rc *RowCache) Stats() (hits, misses uint64) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.hits, rc.misses
}

func rowCacheKey(name string, idx int) string {
	return fmt.Sprintf("%s/%d", name, idx)
}
