package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/neuroviz/tsview/pkg/ndarray"
)

// Metadata keys reported by GetMetadata.
const (
	MetadataArrayMin = "Minimum"
	MetadataArrayMax = "Maximum"
)

// ArrayStore is the backing-store contract the time-series core consumes:
// shape reporting, hyper-slice reads, append-only growth along a dimension,
// and scalar min/max metadata per named array.
type ArrayStore interface {
	// GetDataShape reports the full per-axis extents of a named array.
	GetDataShape(name string) ([]int, error)

	// GetData reads the hyper-slice selected by one range per axis.
	GetData(name string, ranges []ndarray.Range) (*ndarray.Array, error)

	// StoreDataChunk appends a chunk along growDimension. When sync is true
	// the write is flushed to stable storage before returning.
	StoreDataChunk(name string, chunk *ndarray.Array, growDimension int, sync bool) error

	// GetMetadata returns the array-wide scalar metadata (min/max).
	GetMetadata(name string) (map[string]float64, error)

	// Close releases the store.
	Close() error
}

// Config holds storage configuration.
type Config struct {
	Path             string
	CompressionLevel int
	RowCacheSize     int
}

// DefaultConfig returns default storage configuration.
func DefaultConfig() *Config {
	return &Config{
		Path:             "./data",
		CompressionLevel: 3,
		RowCacheSize:     256,
	}
}

// badgerStore implements ArrayStore on BadgerDB. Each array is stored as one
// metadata record plus one compressed record per index of axis 0 (a "row":
// the full hyper-plane at that time step). Rows are immutable once written;
// growth only appends new rows.
type badgerStore struct {
	cfg     *Config
	db      *badger.DB
	catalog *Catalog
	codec   *Codec
	rows    *RowCache
	logger  log.Logger
	mu      sync.RWMutex
}

// arrayMeta is the persisted per-array metadata record.
type arrayMeta struct {
	Shape  []int   `json:"shape"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	HasExt bool    `json:"has_extrema"`
}

func (m *arrayMeta) clone() *arrayMeta {
	c := *m
	c.Shape = append([]int(nil), m.Shape...)
	return &c
}

func (m *arrayMeta) rowLen() int {
	n := 1
	for _, d := range m.Shape[1:] {
		n *= d
	}
	return n
}

// NewStore opens a BadgerDB-backed array store at cfg.Path.
func NewStore(cfg *Config, logger log.Logger) (ArrayStore, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	opts := badger.DefaultOptions(filepath.Join(cfg.Path, "badger"))
	opts.Logger = nil // badger's own logging is too chatty for a library

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	codec, err := NewCodec(cfg.CompressionLevel)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create codec: %w", err)
	}

	s := &badgerStore{
		cfg:     cfg,
		db:      db,
		catalog: NewCatalog(),
		codec:   codec,
		rows:    NewRowCache(cfg.RowCacheSize),
		logger:  logger,
	}

	if err := s.loadCatalog(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load array catalog: %w", err)
	}
	level.Debug(logger).Log("msg", "array store opened", "path", cfg.Path, "arrays", s.catalog.Count())

	return s, nil
}

// loadCatalog scans persisted metadata records into the in-memory catalog.
func (s *badgerStore) loadCatalog() error {
	return s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte("meta/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			name := string(item.Key()[len(prefix):])
			err := item.Value(func(val []byte) error {
				meta := &arrayMeta{}
				if err := json.Unmarshal(val, meta); err != nil {
					return fmt.Errorf("corrupt metadata for array %q: %w", name, err)
				}
				s.catalog.Put(name, meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDataShape implements ArrayStore.GetDataShape.
func (s *badgerStore) GetDataShape(name string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("array %q not found", name)
	}
	return append([]int(nil), meta.Shape...), nil
}

// GetData implements ArrayStore.GetData. Only rows covered by the time-axis
// range are read and decoded; the remaining axes are sliced in memory.
func (s *badgerStore) GetData(name string, ranges []ndarray.Range) (*ndarray.Array, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("array %q not found", name)
	}
	if len(ranges) != len(meta.Shape) {
		return nil, fmt.Errorf("array %q: got %d ranges for %d dimensions", name, len(ranges), len(meta.Shape))
	}
	for i, r := range ranges {
		if r.Step < 1 {
			return nil, fmt.Errorf("array %q: axis %d step %d must be >= 1", name, i, r.Step)
		}
		if r.Start < 0 || r.Stop > meta.Shape[i] || r.Start > r.Stop {
			return nil, fmt.Errorf("array %q: axis %d range [%d:%d) out of bounds for extent %d",
				name, i, r.Start, r.Stop, meta.Shape[i])
		}
	}

	outShape := make([]int, len(ranges))
	for i, r := range ranges {
		outShape[i] = r.Count()
	}
	out, err := ndarray.New(outShape...)
	if err != nil {
		return nil, err
	}

	rowShape := meta.Shape[1:]
	rowRanges := ranges[1:]
	outRowLen := 1
	for _, n := range outShape[1:] {
		outRowLen *= n
	}

	pos := 0
	for t := ranges[0].Start; t < ranges[0].Stop; t += ranges[0].Step {
		values, err := s.readRow(name, meta, t)
		if err != nil {
			return nil, err
		}
		if len(rowShape) == 0 {
			out.Data()[pos] = values[0]
			pos++
			continue
		}
		row, err := ndarray.FromSlice(values, rowShape...)
		if err != nil {
			return nil, err
		}
		sub, err := row.Slice(rowRanges)
		if err != nil {
			return nil, err
		}
		copy(out.Data()[pos:pos+outRowLen], sub.Data())
		pos += outRowLen
	}

	return out, nil
}

// readRow fetches and decodes one axis-0 row, consulting the row cache first.
// Rows never change after being written, so cached entries cannot go stale.
func (s *badgerStore) readRow(name string, meta *arrayMeta, idx int) ([]float64, error) {
	if values, ok := s.rows.Get(name, idx); ok {
		return values, nil
	}

	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(rowKey(name, idx))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			payload = append([]byte{}, val...)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("array %q: failed to read row %d: %w", name, idx, err)
	}

	values, err := s.codec.DecodeRow(payload, meta.rowLen())
	if err != nil {
		return nil, fmt.Errorf("array %q: failed to decode row %d: %w", name, idx, err)
	}
	s.rows.Put(name, idx, values)
	return values, nil
}

// StoreDataChunk implements ArrayStore.StoreDataChunk. Only growth along
// axis 0 (the time axis) is supported.
func (s *badgerStore) StoreDataChunk(name string, chunk *ndarray.Array, growDimension int, sync bool) error {
	if growDimension != 0 {
		return fmt.Errorf("array %q: grow dimension %d not supported, only the time axis (0) is growable",
			name, growDimension)
	}
	if chunk.NDim() == 0 {
		return fmt.Errorf("array %q: cannot append a 0-dimensional chunk", name)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meta, ok := s.catalog.Get(name)
	if ok {
		meta = meta.clone()
	} else {
		meta = &arrayMeta{Shape: chunk.Shape()}
		meta.Shape[0] = 0
	}

	chunkShape := chunk.Shape()
	if len(chunkShape) != len(meta.Shape) {
		return fmt.Errorf("array %q: chunk has %d dimensions, array has %d",
			name, len(chunkShape), len(meta.Shape))
	}
	for i := 1; i < len(meta.Shape); i++ {
		if chunkShape[i] != meta.Shape[i] {
			return fmt.Errorf("array %q: chunk extent %d on axis %d does not match array extent %d",
				name, chunkShape[i], i, meta.Shape[i])
		}
	}

	rowLen := meta.rowLen()
	data := chunk.Data()
	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	for r := 0; r < chunkShape[0]; r++ {
		row := data[r*rowLen : (r+1)*rowLen]
		payload, err := s.codec.EncodeRow(row)
		if err != nil {
			return fmt.Errorf("array %q: failed to encode row: %w", name, err)
		}
		if err := wb.Set(rowKey(name, meta.Shape[0]+r), payload); err != nil {
			return fmt.Errorf("array %q: failed to stage row: %w", name, err)
		}
	}

	// Fold the chunk into the running extrema.
	for _, v := range data {
		if !meta.HasExt {
			meta.Min, meta.Max = v, v
			meta.HasExt = true
			continue
		}
		if v < meta.Min {
			meta.Min = v
		}
		if v > meta.Max {
			meta.Max = v
		}
	}
	meta.Shape[0] += chunkShape[0]

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("array %q: failed to marshal metadata: %w", name, err)
	}
	if err := wb.Set(metaKey(name), metaBytes); err != nil {
		return fmt.Errorf("array %q: failed to stage metadata: %w", name, err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("array %q: failed to commit chunk: %w", name, err)
	}
	s.catalog.Put(name, meta)
	if sync {
		if err := s.db.Sync(); err != nil {
			return fmt.Errorf("array %q: failed to sync: %w", name, err)
		}
	}
	return nil
}

// GetMetadata implements ArrayStore.GetMetadata.
func (s *badgerStore) GetMetadata(name string) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.catalog.Get(name)
	if !ok {
		return nil, fmt.Errorf("array %q not found", name)
	}
	if !meta.HasExt {
		return nil, fmt.Errorf("array %q has no data written yet", name)
	}
	return map[string]float64{
		MetadataArrayMin: meta.Min,
		MetadataArrayMax: meta.Max,
	}, nil
}

// Close implements ArrayStore.Close.
func (s *badgerStore) Close() error {
	s.codec.Close()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func metaKey(name string) []byte {
	return []byte("meta/" + name)
}

func rowKey(name string, idx int) []byte {
	key := make([]byte, 0, len("row/")+len(name)+1+8)
	key = append(key, "row/"...)
	key = append(key, name...)
	key = append(key, '/')
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(idx))
	return append(key, buf[:]...)
}
