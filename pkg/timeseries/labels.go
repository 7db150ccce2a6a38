package timeseries

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/neuroviz/tsview/pkg/types"
)

// SurfaceSelectionLimit caps how many per-vertex labels a surface series
// generates. Meshes carry tens of thousands of vertices; selection UIs do not.
const SurfaceSelectionLimit = 100

// SensorDefaultSelection is how many channels a sensor series shows by default.
const SensorDefaultSelection = 8

// SpaceLabeler is the labeling contract every series variant fulfils for its
// spatial dimension: the label list, a grouping of it, the indices shown by
// default, and an opaque identifier of the measure-point set.
type SpaceLabeler interface {
	GetSpaceLabels() []string
	GetGroupedSpaceLabels() []types.LabelGroup
	GetDefaultSelection() []int
	GetMeasurePointsSelectionGID() string
}

// Sensors describes a physical sensor device: its channel labels and identity.
type Sensors struct {
	GID    uuid.UUID
	Labels []string
}

// Connectivity describes a brain-region graph. It carries its own labeling,
// grouping and default selection, which region series delegate to.
type Connectivity struct {
	GID          uuid.UUID
	RegionLabels []string
	// Hemispheres flags each region as right-hemisphere; when present it
	// drives the left/right label grouping.
	Hemispheres []bool
	// DefaultSelection lists the regions shown by default, e.g. the nodes of
	// a parent connectivity this one was edited from.
	DefaultSelection []int
}

// GetGroupedSpaceLabels groups region labels by hemisphere when hemisphere
// flags are available, otherwise it returns all regions in one unnamed group.
func (c *Connectivity) GetGroupedSpaceLabels() []types.LabelGroup {
	if len(c.Hemispheres) != len(c.RegionLabels) {
		return groupAll(c.RegionLabels)
	}
	left := types.LabelGroup{Name: "left"}
	right := types.LabelGroup{Name: "right"}
	for i, label := range c.RegionLabels {
		entry := types.IndexedLabel{Index: i, Label: label}
		if c.Hemispheres[i] {
			right.Labels = append(right.Labels, entry)
		} else {
			left.Labels = append(left.Labels, entry)
		}
	}
	return []types.LabelGroup{left, right}
}

// GetDefaultSelection returns the connectivity's own default selection, or
// every region when none is recorded.
func (c *Connectivity) GetDefaultSelection() []int {
	if c.DefaultSelection != nil {
		return append([]int(nil), c.DefaultSelection...)
	}
	return selectAll(c.RegionLabels)
}

// GetMeasurePointsSelectionGID identifies the connectivity's measure points.
func (c *Connectivity) GetMeasurePointsSelectionGID() string {
	return c.GID.String()
}

// labeler returns the variant matching the series kind.
func (ts *TimeSeries) labeler() SpaceLabeler {
	switch ts.kind {
	case KindSensor:
		return &sensorLabels{ts: ts}
	case KindRegion:
		return &regionLabels{ts: ts}
	case KindSurface:
		return &surfaceLabels{ts: ts}
	default:
		return &genericLabels{ts: ts}
	}
}

// GetSpaceLabels returns the ordered labels of the spatial dimension.
func (ts *TimeSeries) GetSpaceLabels() []string {
	return ts.labeler().GetSpaceLabels()
}

// GetGroupedSpaceLabels returns the labels organized into selection groups.
func (ts *TimeSeries) GetGroupedSpaceLabels() []types.LabelGroup {
	return ts.labeler().GetGroupedSpaceLabels()
}

// GetDefaultSelection returns the label indices shown by default.
func (ts *TimeSeries) GetDefaultSelection() []int {
	return ts.labeler().GetDefaultSelection()
}

// GetMeasurePointsSelectionGID identifies the measure-point set of the
// series, or is empty when there is none.
func (ts *TimeSeries) GetMeasurePointsSelectionGID() string {
	return ts.labeler().GetMeasurePointsSelectionGID()
}

// genericLabels names each point of the spatial axis by its index.
type genericLabels struct {
	ts *TimeSeries
}

func (g *genericLabels) GetSpaceLabels() []string {
	if g.ts.NrDimensions <= 2 {
		return nil
	}
	return signalLabels(g.ts.Lengths[2])
}

func (g *genericLabels) GetGroupedSpaceLabels() []types.LabelGroup {
	return groupAll(g.GetSpaceLabels())
}

func (g *genericLabels) GetDefaultSelection() []int {
	return selectAll(g.GetSpaceLabels())
}

func (g *genericLabels) GetMeasurePointsSelectionGID() string { return "" }

// sensorLabels takes labels and identity from the sensor device.
type sensorLabels struct {
	ts *TimeSeries
}

func (s *sensorLabels) GetSpaceLabels() []string {
	if s.ts.sensors == nil {
		return nil
	}
	return append([]string(nil), s.ts.sensors.Labels...)
}

func (s *sensorLabels) GetGroupedSpaceLabels() []types.LabelGroup {
	return groupAll(s.GetSpaceLabels())
}

// GetDefaultSelection shows only the first few channels; EEG/MEG devices
// carry too many to plot at once.
func (s *sensorLabels) GetDefaultSelection() []int {
	if s.ts.sensors == nil {
		return nil
	}
	n := len(s.ts.sensors.Labels)
	if n > SensorDefaultSelection {
		n = SensorDefaultSelection
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func (s *sensorLabels) GetMeasurePointsSelectionGID() string {
	if s.ts.sensors == nil {
		return ""
	}
	return s.ts.sensors.GID.String()
}

// regionLabels delegates to the connectivity graph, falling back to the
// generic behavior when no connectivity is referenced.
type regionLabels struct {
	ts *TimeSeries
}

func (r *regionLabels) GetSpaceLabels() []string {
	if r.ts.connectivity == nil {
		return nil
	}
	return append([]string(nil), r.ts.connectivity.RegionLabels...)
}

func (r *regionLabels) GetGroupedSpaceLabels() []types.LabelGroup {
	if r.ts.connectivity != nil {
		return r.ts.connectivity.GetGroupedSpaceLabels()
	}
	return groupAll(r.GetSpaceLabels())
}

func (r *regionLabels) GetDefaultSelection() []int {
	if r.ts.connectivity != nil {
		return r.ts.connectivity.GetDefaultSelection()
	}
	return selectAll(r.GetSpaceLabels())
}

func (r *regionLabels) GetMeasurePointsSelectionGID() string {
	if r.ts.connectivity != nil {
		return r.ts.connectivity.GetMeasurePointsSelectionGID()
	}
	return ""
}

// surfaceLabels names vertices by index, hard-capped at SurfaceSelectionLimit.
type surfaceLabels struct {
	ts *TimeSeries
}

func (s *surfaceLabels) GetSpaceLabels() []string {
	n := s.ts.Lengths[2]
	if n > SurfaceSelectionLimit {
		n = SurfaceSelectionLimit
	}
	return signalLabels(n)
}

func (s *surfaceLabels) GetGroupedSpaceLabels() []types.LabelGroup {
	return groupAll(s.GetSpaceLabels())
}

func (s *surfaceLabels) GetDefaultSelection() []int {
	return selectAll(s.GetSpaceLabels())
}

func (s *surfaceLabels) GetMeasurePointsSelectionGID() string { return "" }

func signalLabels(n int) []string {
	labels := make([]string, 0, n)
	for i := 0; i < n; i++ {
		labels = append(labels, fmt.Sprintf("signal-%d", i))
	}
	return labels
}

// groupAll places every label in a single unnamed group.
func groupAll(labels []string) []types.LabelGroup {
	group := types.LabelGroup{Name: "", Labels: make([]types.IndexedLabel, 0, len(labels))}
	for i, label := range labels {
		group.Labels = append(group.Labels, types.IndexedLabel{Index: i, Label: label})
	}
	return []types.LabelGroup{group}
}

// selectAll selects every label index.
func selectAll(labels []string) []int {
	out := make([]int, len(labels))
	for i := range out {
		out[i] = i
	}
	return out
}
