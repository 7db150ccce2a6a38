package timeseries

import (
	"fmt"
	"math"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/neuroviz/tsview/pkg/ndarray"
	"github.com/neuroviz/tsview/pkg/storage"
	"github.com/neuroviz/tsview/pkg/types"
)

// Backing array names within the store.
const (
	dataArray = "data"
	timeArray = "time"
)

// MaxDimensions is the largest supported series rank.
const MaxDimensions = 4

// Kind selects the space-labeling variant of a series.
type Kind int

const (
	// KindGeneric labels the spatial axis by abstract signal index.
	KindGeneric Kind = iota
	// KindSensor labels it from a physical sensor device.
	KindSensor
	// KindRegion labels it from a connectivity graph's region list.
	KindRegion
	// KindSurface labels mesh vertices, capped for UI consumption.
	KindSurface
)

// TimeSeries exposes windowed, shape-aware access to one append-only
// time-indexed array held in an ArrayStore. Axis 0 is always time; for 3-D
// series axis 2 is the primary spatial axis and axis 1 an auxiliary state
// axis; 4-D series are time x X x Y x Z volumes.
type TimeSeries struct {
	store  storage.ArrayStore
	logger log.Logger

	Title        string
	SamplePeriod float64
	StartTime    float64

	// Derived by Configure from the backing shape. Treated as immutable
	// between Configure calls; re-resolve rather than trust them across
	// storage growth.
	SampleRate   float64
	NrDimensions int
	Lengths      [MaxDimensions]int

	kind         Kind
	sensors      *Sensors
	connectivity *Connectivity
}

// Options configures a new TimeSeries.
type Options struct {
	Title        string
	SamplePeriod float64
	StartTime    float64

	// Kind forces a labeling variant. When left at KindGeneric it is
	// inferred from whichever descriptor reference is present.
	Kind         Kind
	Sensors      *Sensors
	Connectivity *Connectivity
}

// New creates a TimeSeries over the given store. Call Configure once the
// backing array has been written before using the read operations.
func New(store storage.ArrayStore, logger log.Logger, opts Options) (*TimeSeries, error) {
	if store == nil {
		return nil, fmt.Errorf("time series requires a backing store")
	}
	if opts.SamplePeriod <= 0 {
		return nil, fmt.Errorf("sample period must be positive, got %g", opts.SamplePeriod)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	kind := opts.Kind
	if kind == KindGeneric {
		switch {
		case opts.Sensors != nil:
			kind = KindSensor
		case opts.Connectivity != nil:
			kind = KindRegion
		}
	}

	return &TimeSeries{
		store:        store,
		logger:       logger,
		Title:        opts.Title,
		SamplePeriod: opts.SamplePeriod,
		StartTime:    opts.StartTime,
		kind:         kind,
		sensors:      opts.Sensors,
		connectivity: opts.Connectivity,
	}, nil
}

// Configure resolves the backing shape and derives the per-axis lengths,
// dimensionality and sample rate. It fails when the backing array is absent
// or empty rather than leave the derived fields degenerate.
func (ts *TimeSeries) Configure() error {
	shape, err := ts.ReadDataShape()
	if err != nil {
		return err
	}

	size := 1
	for _, n := range shape {
		size *= n
	}
	if size == 0 {
		return fmt.Errorf("%w: backing array has shape %v", types.ErrInvalidTimeSeries, shape)
	}

	ts.NrDimensions = len(shape)
	ts.SampleRate = 1.0 / ts.SamplePeriod
	ts.Lengths = [MaxDimensions]int{}
	for i := 0; i < len(shape) && i < MaxDimensions; i++ {
		ts.Lengths[i] = shape[i]
	}
	return nil
}

// ReadDataShape reports the backing array's full shape. A storage read
// failure is surfaced as an invalid-series error.
func (ts *TimeSeries) ReadDataShape() ([]int, error) {
	shape, err := ts.store.GetDataShape(dataArray)
	if err != nil {
		level.Error(ts.logger).Log("msg", "could not read data shape", "title", ts.Title, "err", err)
		return nil, fmt.Errorf("%w: %s", types.ErrInvalidTimeSeries, err)
	}
	return shape, nil
}

// ReadDataSlice exposes raw hyper-slice access to the backing data array.
func (ts *TimeSeries) ReadDataSlice(ranges []ndarray.Range) (*ndarray.Array, error) {
	return ts.store.GetData(dataArray, ranges)
}

// ReadTimePage computes the real-valued timestamps of one time page: the
// evenly spaced sequence starting at StartTime + currentPage*pageSize*period,
// strictly below the page end. maxSize optionally caps the page span. The
// result is a pure function of the inputs; no clamping against the actual
// data length happens here.
func (ts *TimeSeries) ReadTimePage(currentPage, pageSize int, maxSize *int) []float64 {
	ms := pageSize
	if maxSize != nil {
		ms = *maxSize
	}

	pageRealSize := float64(pageSize) * ts.SamplePeriod
	start := ts.StartTime + float64(currentPage)*pageRealSize
	span := math.Min(pageRealSize, float64(ms)*ts.SamplePeriod)

	if span <= 0 {
		return nil
	}
	count := int(math.Ceil(span / ts.SamplePeriod))
	out := make([]float64, count)
	for i := range out {
		out[i] = start + float64(i)*ts.SamplePeriod
	}
	return out
}

// ReadDataPage retrieves one page of data, paged on the time axis.
//
// The time range is clamped to the true extent, never an error. Axis 2, the
// primary spatial axis, is always read in full. Every other axis defaults to
// its first element unless specificSlices names an index for it. The result
// is post-processed so that pages over rank >= 2 arrays always come out
// rank 2 (time x space), including single-timepoint pages.
func (ts *TimeSeries) ReadDataPage(fromIdx, toIdx, step int, specificSlices []int) (*ndarray.Array, error) {
	if step < 1 {
		step = 1
	}

	shape, err := ts.ReadDataShape()
	if err != nil {
		return nil, err
	}

	ranges := make([]ndarray.Range, len(shape))
	for i := range shape {
		switch {
		case i == 0:
			stop := toIdx
			if stop > shape[0] {
				stop = shape[0]
			}
			if stop < fromIdx {
				stop = fromIdx
			}
			ranges[i] = ndarray.Range{Start: fromIdx, Stop: stop, Step: step}
		case i == 2:
			// The primary spatial axis is always read in full.
			ranges[i] = ndarray.Full(shape[i])
		default:
			if specificSlices == nil {
				ranges[i] = ndarray.Range{Start: 0, Stop: 1, Step: 1}
			} else {
				if i >= len(specificSlices) {
					return nil, types.Validationf(
						"specific slices %v do not cover axis %d", specificSlices, i)
				}
				start := specificSlices[i]
				stop := start + 1
				if stop > shape[i] {
					stop = shape[i]
				}
				ranges[i] = ndarray.Range{Start: start, Stop: stop, Step: 1}
			}
		}
	}

	data, err := ts.ReadDataSlice(ranges)
	if err != nil {
		return nil, err
	}
	return normalizePage(data)
}

// normalizePage applies the asymmetric squeeze policy: drop all length-1
// axes, but never let the page collapse below rank 2 when the source had
// rank >= 2. Single-timepoint pages come back as (1, N), pages whose spatial
// extent collapsed come back as (T, 1).
func normalizePage(data *ndarray.Array) (*ndarray.Array, error) {
	srcRank := data.NDim()
	timeLen := data.Shape()[0]

	out := data.Squeeze()
	if srcRank < 2 || out.NDim() != 1 {
		return out, nil
	}
	if timeLen == 1 {
		return out.Reshape(1, out.Len())
	}
	return out.Reshape(out.Len(), 1)
}

// ReadChannelsPage reads a data page and keeps only the requested channels
// of the last axis. A rank-1 page (a single aggregate signal with no channel
// axis) is reshaped to a column vector and returned unfiltered.
func (ts *TimeSeries) ReadChannelsPage(fromIdx, toIdx, step int, specificSlices, channels []int) (*ndarray.Array, error) {
	page, err := ts.ReadDataPage(fromIdx, toIdx, step, specificSlices)
	if err != nil {
		return nil, err
	}

	if page.NDim() == 1 {
		return page.Reshape(page.Len(), 1)
	}
	if len(channels) == 0 {
		return page, nil
	}
	return page.SelectLastAxis(channels)
}

// WriteTimeSlice appends timestamps to the "time" array.
func (ts *TimeSeries) WriteTimeSlice(values []float64) error {
	chunk, err := ndarray.FromSlice(values, len(values))
	if err != nil {
		return err
	}
	return ts.store.StoreDataChunk(timeArray, chunk, 0, false)
}

// WriteDataSlice appends a chunk of series data along the growable axis.
func (ts *TimeSeries) WriteDataSlice(chunk *ndarray.Array, growDimension int) error {
	return ts.store.StoreDataChunk(dataArray, chunk, growDimension, false)
}

// GetMinMaxValues retrieves the array-wide minimum and maximum from the
// storage metadata.
func (ts *TimeSeries) GetMinMaxValues() (min, max float64, err error) {
	meta, err := ts.store.GetMetadata(dataArray)
	if err != nil {
		return 0, 0, fmt.Errorf("could not read min/max metadata: %w", err)
	}
	return meta[storage.MetadataArrayMin], meta[storage.MetadataArrayMax], nil
}
