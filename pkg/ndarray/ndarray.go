package ndarray

import (
	"fmt"
)

// Range selects elements [Start, Stop) with the given step along one axis.
type Range struct {
	Start int
	Stop  int
	Step  int
}

// Count returns the number of elements the range selects.
func (r Range) Count() int {
	if r.Stop <= r.Start {
		return 0
	}
	step := r.Step
	if step < 1 {
		step = 1
	}
	return (r.Stop - r.Start + step - 1) / step
}

// Full returns a range covering all n elements of an axis.
func Full(n int) Range {
	return Range{Start: 0, Stop: n, Step: 1}
}

// Single returns a range selecting exactly one index.
func Single(i int) Range {
	return Range{Start: i, Stop: i + 1, Step: 1}
}

// Array is a dense row-major n-dimensional array of float64 values.
type Array struct {
	shape []int
	data  []float64
}

// New creates a zero-filled array with the given shape.
// Axis extents must be non-negative; a zero extent yields an empty array.
func New(shape ...int) (*Array, error) {
	size := 1
	for _, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("negative axis extent %d in shape %v", n, shape)
		}
		size *= n
	}
	return &Array{
		shape: append([]int(nil), shape...),
		data:  make([]float64, size),
	}, nil
}

// FromSlice wraps an existing flat value slice into an array of the given shape.
// The slice is used directly, not copied.
func FromSlice(data []float64, shape ...int) (*Array, error) {
	size := 1
	for _, n := range shape {
		if n < 0 {
			return nil, fmt.Errorf("negative axis extent %d in shape %v", n, shape)
		}
		size *= n
	}
	if size != len(data) {
		return nil, fmt.Errorf("shape %v requires %d values, got %d", shape, size, len(data))
	}
	return &Array{shape: append([]int(nil), shape...), data: data}, nil
}

// Shape returns a copy of the per-axis extents.
func (a *Array) Shape() []int {
	return append([]int(nil), a.shape...)
}

// NDim returns the number of axes.
func (a *Array) NDim() int { return len(a.shape) }

// Len returns the total number of elements.
func (a *Array) Len() int { return len(a.data) }

// Data returns the backing flat slice in row-major order.
func (a *Array) Data() []float64 { return a.data }

// strides returns the row-major stride of each axis.
func (a *Array) strides() []int {
	strides := make([]int, len(a.shape))
	acc := 1
	for i := len(a.shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= a.shape[i]
	}
	return strides
}

func (a *Array) offset(ix []int) (int, error) {
	if len(ix) != len(a.shape) {
		return 0, fmt.Errorf("index %v has %d axes, array has %d", ix, len(ix), len(a.shape))
	}
	off := 0
	strides := a.strides()
	for i, v := range ix {
		if v < 0 || v >= a.shape[i] {
			return 0, fmt.Errorf("index %d out of range for axis %d with extent %d", v, i, a.shape[i])
		}
		off += v * strides[i]
	}
	return off, nil
}

// At returns the element at the given coordinates.
// It panics on out-of-range coordinates, matching slice indexing semantics.
func (a *Array) At(ix ...int) float64 {
	off, err := a.offset(ix)
	if err != nil {
		panic(err)
	}
	return a.data[off]
}

// Set stores a value at the given coordinates.
func (a *Array) Set(v float64, ix ...int) {
	off, err := a.offset(ix)
	if err != nil {
		panic(err)
	}
	a.data[off] = v
}

// Slice copies the sub-array selected by one range per axis.
func (a *Array) Slice(ranges []Range) (*Array, error) {
	if len(ranges) != len(a.shape) {
		return nil, fmt.Errorf("got %d ranges for a %d-dimensional array", len(ranges), len(a.shape))
	}
	outShape := make([]int, len(ranges))
	for i, r := range ranges {
		if r.Step < 1 {
			return nil, fmt.Errorf("axis %d: step %d must be >= 1", i, r.Step)
		}
		if r.Start < 0 || r.Stop > a.shape[i] || r.Start > r.Stop {
			return nil, fmt.Errorf("axis %d: range [%d:%d) out of bounds for extent %d",
				i, r.Start, r.Stop, a.shape[i])
		}
		outShape[i] = r.Count()
	}

	out, err := New(outShape...)
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return out, nil
	}

	srcStrides := a.strides()
	ix := make([]int, len(ranges))
	for pos := range out.data {
		off := 0
		for i, r := range ranges {
			off += (r.Start + ix[i]*r.Step) * srcStrides[i]
		}
		out.data[pos] = a.data[off]

		for i := len(ix) - 1; i >= 0; i-- {
			ix[i]++
			if ix[i] < outShape[i] {
				break
			}
			ix[i] = 0
		}
	}
	return out, nil
}

// Squeeze returns a view with all size-1 axes removed.
// An array with every axis of size 1 collapses to shape [1].
func (a *Array) Squeeze() *Array {
	var shape []int
	for _, n := range a.shape {
		if n != 1 {
			shape = append(shape, n)
		}
	}
	if len(shape) == 0 {
		shape = []int{1}
	}
	return &Array{shape: shape, data: a.data}
}

// Reshape returns a view of the same data with a new shape.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	size := 1
	for _, n := range shape {
		size *= n
	}
	if size != len(a.data) {
		return nil, fmt.Errorf("cannot reshape %d elements into shape %v", len(a.data), shape)
	}
	return &Array{shape: append([]int(nil), shape...), data: a.data}, nil
}

// ReverseAxis copies the array with element order flipped along one axis.
func (a *Array) ReverseAxis(axis int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("axis %d out of range for %d-dimensional array", axis, len(a.shape))
	}
	out, err := New(a.shape...)
	if err != nil {
		return nil, err
	}
	if out.Len() == 0 {
		return out, nil
	}
	strides := a.strides()
	n := a.shape[axis]
	ix := make([]int, len(a.shape))
	for pos := range out.data {
		off := 0
		for i, v := range ix {
			if i == axis {
				v = n - 1 - v
			}
			off += v * strides[i]
		}
		out.data[pos] = a.data[off]

		for i := len(ix) - 1; i >= 0; i-- {
			ix[i]++
			if ix[i] < a.shape[i] {
				break
			}
			ix[i] = 0
		}
	}
	return out, nil
}

// IndexAxis selects a single coordinate along one axis, removing that axis.
func (a *Array) IndexAxis(axis, idx int) (*Array, error) {
	if axis < 0 || axis >= len(a.shape) {
		return nil, fmt.Errorf("axis %d out of range for %d-dimensional array", axis, len(a.shape))
	}
	if idx < 0 || idx >= a.shape[axis] {
		return nil, fmt.Errorf("index %d out of range for axis %d with extent %d", idx, axis, a.shape[axis])
	}
	ranges := make([]Range, len(a.shape))
	for i, n := range a.shape {
		if i == axis {
			ranges[i] = Single(idx)
		} else {
			ranges[i] = Full(n)
		}
	}
	sub, err := a.Slice(ranges)
	if err != nil {
		return nil, err
	}
	shape := make([]int, 0, len(a.shape)-1)
	for i, n := range a.shape {
		if i != axis {
			shape = append(shape, n)
		}
	}
	return sub.Reshape(shape...)
}

// SelectLastAxis copies the array keeping only the given indices of the last
// axis, in the order given.
func (a *Array) SelectLastAxis(indices []int) (*Array, error) {
	if len(a.shape) == 0 {
		return nil, fmt.Errorf("cannot select from a 0-dimensional array")
	}
	last := len(a.shape) - 1
	for _, idx := range indices {
		if idx < 0 || idx >= a.shape[last] {
			return nil, fmt.Errorf("index %d out of range for last axis with extent %d", idx, a.shape[last])
		}
	}
	outShape := append([]int(nil), a.shape...)
	outShape[last] = len(indices)
	out, err := New(outShape...)
	if err != nil {
		return nil, err
	}
	rows := 1
	for _, n := range a.shape[:last] {
		rows *= n
	}
	width := a.shape[last]
	for row := 0; row < rows; row++ {
		src := a.data[row*width : (row+1)*width]
		dst := out.data[row*len(indices) : (row+1)*len(indices)]
		for i, idx := range indices {
			dst[i] = src[idx]
		}
	}
	return out, nil
}

// Nested2 converts a rank-2 array into row-major nested slices.
func (a *Array) Nested2() ([][]float64, error) {
	if len(a.shape) != 2 {
		return nil, fmt.Errorf("expected a 2-dimensional array, got %d dimensions", len(a.shape))
	}
	rows, cols := a.shape[0], a.shape[1]
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = append([]float64(nil), a.data[i*cols:(i+1)*cols]...)
	}
	return out, nil
}

// Nested3 converts a rank-3 array into row-major nested slices.
func (a *Array) Nested3() ([][][]float64, error) {
	if len(a.shape) != 3 {
		return nil, fmt.Errorf("expected a 3-dimensional array, got %d dimensions", len(a.shape))
	}
	d0, d1, d2 := a.shape[0], a.shape[1], a.shape[2]
	out := make([][][]float64, d0)
	for i := 0; i < d0; i++ {
		out[i] = make([][]float64, d1)
		for j := 0; j < d1; j++ {
			base := (i*d1 + j) * d2
			out[i][j] = append([]float64(nil), a.data[base:base+d2]...)
		}
	}
	return out, nil
}
