package types

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidTimeSeries signals that the backing array is absent or empty at
// shape-resolution time. Not recoverable for the current series instance.
var ErrInvalidTimeSeries = errors.New("invalid empty time series")

// ValidationError reports caller-supplied indices or coordinates outside the
// valid bounds of the backing array. The offending values are carried in the
// message; the request is never silently clamped.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validationf builds a ValidationError with the offending values formatted in.
func Validationf(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PageRequest describes one time-axis window sized for UI consumption.
// Transient per call, never persisted.
type PageRequest struct {
	CurrentPage int
	PageSize    int
	// MaxSize optionally caps the real-time span of the page.
	MaxSize *int
}

// VolumeQuery bounds a volume read on the time axis, with optional plane
// coordinates for cross-section extraction.
type VolumeQuery struct {
	FromIdx int
	ToIdx   int
	XPlane  int
	YPlane  int
	ZPlane  int
}

// VoxelTimeSeries is the time course of a single voxel plus summary
// statistics over it.
type VoxelTimeSeries struct {
	Data      []float64 `json:"data"`
	Max       float64   `json:"max"`
	Min       float64   `json:"min"`
	Mean      float64   `json:"mean"`
	Median    float64   `json:"median"`
	Variance  float64   `json:"variance"`
	Deviation float64   `json:"deviation"`
}

// VolumeView holds the three display cross-sections of a 4-D sub-volume,
// time-major and depth-reversed, in fixed XY/YZ/XZ order.
type VolumeView struct {
	XY [][][]float64 `json:"xy"`
	YZ [][][]float64 `json:"yz"`
	XZ [][][]float64 `json:"xz"`
}

// LabelGroup is one named group of (index, label) pairs for selection UIs.
type LabelGroup struct {
	Name   string         `json:"name"`
	Labels []IndexedLabel `json:"labels"`
}

// IndexedLabel pairs a space label with its position in the label sequence.
type IndexedLabel struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// DecodeIndexList parses the serialized textual form of an index list,
// e.g. "[3,7,9]". An empty string decodes to a nil list.
func DecodeIndexList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var out []int
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, fmt.Errorf("malformed index list %q: %w", s, err)
	}
	return out, nil
}
