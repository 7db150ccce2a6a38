package timeseries

import (
	"math"
	"sort"

	"github.com/neuroviz/tsview/pkg/ndarray"
	"github.com/neuroviz/tsview/pkg/types"
)

// depthAxis is the last spatial axis of a 4-D volume. Its element order is
// reversed before display, a fixed orientation convention.
const depthAxis = 3

// volumeShape resolves the backing shape and checks the series is 4-D.
func (ts *TimeSeries) volumeShape() ([]int, error) {
	shape, err := ts.ReadDataShape()
	if err != nil {
		return nil, err
	}
	if len(shape) != 4 {
		return nil, types.Validationf(
			"volume operations require a 4-dimensional series, this one has %d dimensions", len(shape))
	}
	return shape, nil
}

func checkTimeBounds(fromIdx, toIdx, timeLength int) error {
	if fromIdx < 0 || fromIdx > toIdx || toIdx > timeLength {
		return types.Validationf("time indexes out of boundaries: from %d to %d", fromIdx, toIdx)
	}
	return nil
}

// checkPlaneBounds rejects plane coordinates above their axis extent.
// Negative coordinates are rejected too: Go array indexing has no
// wrap-around semantics to hand them to.
func checkPlaneBounds(x, y, z int, shape []int) error {
	if x < 0 || y < 0 || z < 0 || x > shape[1] || y > shape[2] || z > shape[3] {
		return types.Validationf("coordinates out of boundaries: [x,y,z] = [%d, %d, %d]", x, y, z)
	}
	return nil
}

// readVolumeWindow reads the [fromIdx:toIdx] sub-volume with the depth axis
// reversed for display orientation.
func (ts *TimeSeries) readVolumeWindow(fromIdx, toIdx int, shape []int) (*ndarray.Array, error) {
	ranges := []ndarray.Range{
		{Start: fromIdx, Stop: toIdx, Step: 1},
		ndarray.Full(shape[1]),
		ndarray.Full(shape[2]),
		ndarray.Full(shape[3]),
	}
	data, err := ts.ReadDataSlice(ranges)
	if err != nil {
		return nil, err
	}
	return data.ReverseAxis(depthAxis)
}

// GetRotatedVolumeSlice returns the time-bounded 4-D sub-volume with the
// depth axis reversed. Time bounds outside the array fail with a
// ValidationError, never a silent clamp.
func (ts *TimeSeries) GetRotatedVolumeSlice(fromIdx, toIdx int) (*ndarray.Array, error) {
	shape, err := ts.volumeShape()
	if err != nil {
		return nil, err
	}
	if err := checkTimeBounds(fromIdx, toIdx, shape[0]); err != nil {
		return nil, err
	}
	return ts.readVolumeWindow(fromIdx, toIdx, shape)
}

// GetVolumeView extracts the three display cross-sections of the
// time-bounded sub-volume: the XY plane at depth zPlane, the YZ plane at
// xPlane and the XZ plane at yPlane, each depth-reversed and time-major.
func (ts *TimeSeries) GetVolumeView(fromIdx, toIdx, xPlane, yPlane, zPlane int) (*types.VolumeView, error) {
	shape, err := ts.volumeShape()
	if err != nil {
		return nil, err
	}
	if err := checkTimeBounds(fromIdx, toIdx, shape[0]); err != nil {
		return nil, err
	}
	if err := checkPlaneBounds(xPlane, yPlane, zPlane, shape); err != nil {
		return nil, err
	}

	volume, err := ts.readVolumeWindow(fromIdx, toIdx, shape)
	if err != nil {
		return nil, err
	}

	xy, err := volume.IndexAxis(3, zPlane)
	if err != nil {
		return nil, err
	}
	yz, err := volume.IndexAxis(1, xPlane)
	if err != nil {
		return nil, err
	}
	xz, err := volume.IndexAxis(2, yPlane)
	if err != nil {
		return nil, err
	}

	view := &types.VolumeView{}
	if view.XY, err = xy.Nested3(); err != nil {
		return nil, err
	}
	if view.YZ, err = yz.Nested3(); err != nil {
		return nil, err
	}
	if view.XZ, err = xz.Nested3(); err != nil {
		return nil, err
	}
	return view, nil
}

// GetVoxelTimeSeries returns the full time course of one voxel, flattened,
// with summary statistics over it. An empty course (unwritten backing array)
// is a ValidationError rather than a NaN-producing statistic.
func (ts *TimeSeries) GetVoxelTimeSeries(x, y, z int) (*types.VoxelTimeSeries, error) {
	shape, err := ts.volumeShape()
	if err != nil {
		return nil, err
	}
	if err := checkPlaneBounds(x, y, z, shape); err != nil {
		return nil, err
	}

	ranges := []ndarray.Range{
		ndarray.Full(shape[0]),
		ndarray.Single(x),
		ndarray.Single(y),
		ndarray.Full(shape[3]),
	}
	column, err := ts.ReadDataSlice(ranges)
	if err != nil {
		return nil, err
	}
	reversed, err := column.ReverseAxis(depthAxis)
	if err != nil {
		return nil, err
	}
	course, err := reversed.IndexAxis(depthAxis, z)
	if err != nil {
		return nil, err
	}

	values := course.Data()
	if len(values) == 0 {
		return nil, types.Validationf("voxel [%d, %d, %d] has an empty time course", x, y, z)
	}

	result := &types.VoxelTimeSeries{Data: append([]float64(nil), values...)}
	result.Min, result.Max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		if v < result.Min {
			result.Min = v
		}
		if v > result.Max {
			result.Max = v
		}
		sum += v
	}
	result.Mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - result.Mean
		sq += d * d
	}
	result.Variance = sq / float64(len(values))
	result.Deviation = math.Sqrt(result.Variance)
	result.Median = median(values)

	return result, nil
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
