package storage

import "sort"

// Catalog is the in-memory index of array metadata. It mirrors the persisted
// metadata records and is updated by the store on every successful append,
// so shape reads never hit disk.
type Catalog struct {
	arrays map[string]*arrayMeta
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{arrays: make(map[string]*arrayMeta)}
}

// Get retrieves metadata for a named array.
func (c *Catalog) Get(name string) (*arrayMeta, bool) {
	meta, ok := c.arrays[name]
	return meta, ok
}

// Put inserts or replaces metadata for a named array.
func (c *Catalog) Put(name string, meta *arrayMeta) {
	c.arrays[name] = meta
}

// Names returns the catalogued array names in sorted order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.arrays))
	for name := range c.arrays {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the number of catalogued arrays.
func (c *Catalog) Count() int {
	return len(c.arrays)
}

// Clear empties the catalog.
func (c *Catalog) Clear() {
	c.arrays = make(map[string]*arrayMeta)
}
