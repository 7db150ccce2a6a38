package timeseries

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
)

func TestGenericLabels(t *testing.T) {
	ts := newTestSeries(t, Options{}, nil, 5, 2, 4)

	labels := ts.GetSpaceLabels()
	if len(labels) != 4 {
		t.Fatalf("Expected 4 labels, got %d", len(labels))
	}
	for i, label := range labels {
		if want := fmt.Sprintf("signal-%d", i); label != want {
			t.Errorf("Label %d: expected %q, got %q", i, want, label)
		}
	}

	groups := ts.GetGroupedSpaceLabels()
	if len(groups) != 1 || groups[0].Name != "" {
		t.Fatalf("Expected one unnamed group, got %+v", groups)
	}
	if len(groups[0].Labels) != 4 {
		t.Errorf("Expected 4 grouped labels, got %d", len(groups[0].Labels))
	}
	if groups[0].Labels[2].Index != 2 || groups[0].Labels[2].Label != "signal-2" {
		t.Errorf("Unexpected grouped label: %+v", groups[0].Labels[2])
	}

	selection := ts.GetDefaultSelection()
	if len(selection) != 4 {
		t.Fatalf("Expected 4 selected indices, got %d", len(selection))
	}
	for i, idx := range selection {
		if idx != i {
			t.Errorf("Selection %d: expected %d, got %d", i, i, idx)
		}
	}
	if gid := ts.GetMeasurePointsSelectionGID(); gid != "" {
		t.Errorf("Expected empty GID, got %q", gid)
	}
}

func TestGenericLabelsTwoDimensional(t *testing.T) {
	ts := newTestSeries(t, Options{}, nil, 5, 3)

	if labels := ts.GetSpaceLabels(); labels != nil {
		t.Errorf("Expected no labels for a 2-D series, got %v", labels)
	}
	if selection := ts.GetDefaultSelection(); len(selection) != 0 {
		t.Errorf("Expected empty default selection, got %v", selection)
	}
}

func TestSensorLabels(t *testing.T) {
	device := &Sensors{GID: uuid.New()}
	for i := 0; i < 10; i++ {
		device.Labels = append(device.Labels, fmt.Sprintf("EEG-%d", i))
	}
	ts := newTestSeries(t, Options{Sensors: device}, nil, 5, 2, 10)

	labels := ts.GetSpaceLabels()
	if len(labels) != 10 {
		t.Fatalf("Expected 10 labels, got %d", len(labels))
	}
	if labels[3] != "EEG-3" {
		t.Errorf("Expected EEG-3, got %q", labels[3])
	}

	selection := ts.GetDefaultSelection()
	if len(selection) != SensorDefaultSelection {
		t.Fatalf("Expected default selection of %d, got %d", SensorDefaultSelection, len(selection))
	}
	for i, idx := range selection {
		if idx != i {
			t.Errorf("Selection %d: expected %d, got %d", i, i, idx)
		}
	}

	if gid := ts.GetMeasurePointsSelectionGID(); gid != device.GID.String() {
		t.Errorf("Expected device GID %q, got %q", device.GID, gid)
	}
}

func TestSensorLabelsSmallDevice(t *testing.T) {
	device := &Sensors{GID: uuid.New(), Labels: []string{"a", "b", "c"}}
	ts := newTestSeries(t, Options{Sensors: device}, nil, 5, 2, 3)

	if selection := ts.GetDefaultSelection(); len(selection) != 3 {
		t.Errorf("Expected all 3 channels selected, got %v", selection)
	}
}

func TestRegionLabels(t *testing.T) {
	conn := &Connectivity{
		GID:          uuid.New(),
		RegionLabels: []string{"lh-a", "rh-a", "lh-b", "rh-b"},
		Hemispheres:  []bool{false, true, false, true},
	}
	ts := newTestSeries(t, Options{Connectivity: conn}, nil, 5, 2, 4)

	labels := ts.GetSpaceLabels()
	if len(labels) != 4 || labels[2] != "lh-b" {
		t.Fatalf("Unexpected region labels: %v", labels)
	}

	groups := ts.GetGroupedSpaceLabels()
	if len(groups) != 2 {
		t.Fatalf("Expected left/right groups, got %d", len(groups))
	}
	if groups[0].Name != "left" || groups[1].Name != "right" {
		t.Fatalf("Unexpected group names: %q, %q", groups[0].Name, groups[1].Name)
	}
	if len(groups[0].Labels) != 2 || groups[0].Labels[1].Index != 2 {
		t.Errorf("Unexpected left group: %+v", groups[0].Labels)
	}
	if len(groups[1].Labels) != 2 || groups[1].Labels[0].Label != "rh-a" {
		t.Errorf("Unexpected right group: %+v", groups[1].Labels)
	}

	if gid := ts.GetMeasurePointsSelectionGID(); gid != conn.GID.String() {
		t.Errorf("Expected connectivity GID %q, got %q", conn.GID, gid)
	}
}

func TestRegionDefaultSelection(t *testing.T) {
	conn := &Connectivity{
		GID:              uuid.New(),
		RegionLabels:     []string{"a", "b", "c"},
		DefaultSelection: []int{2, 0},
	}
	ts := newTestSeries(t, Options{Connectivity: conn}, nil, 5, 2, 3)

	selection := ts.GetDefaultSelection()
	if len(selection) != 2 || selection[0] != 2 || selection[1] != 0 {
		t.Errorf("Expected connectivity's own selection [2 0], got %v", selection)
	}

	// Without a recorded selection every region is selected.
	conn.DefaultSelection = nil
	if selection := ts.GetDefaultSelection(); len(selection) != 3 {
		t.Errorf("Expected all 3 regions selected, got %v", selection)
	}
}

func TestRegionLabelsWithoutConnectivity(t *testing.T) {
	ts := newTestSeries(t, Options{Kind: KindRegion}, nil, 5, 2, 4)

	if labels := ts.GetSpaceLabels(); labels != nil {
		t.Errorf("Expected no labels without a connectivity, got %v", labels)
	}
	if gid := ts.GetMeasurePointsSelectionGID(); gid != "" {
		t.Errorf("Expected empty GID, got %q", gid)
	}
	groups := ts.GetGroupedSpaceLabels()
	if len(groups) != 1 || len(groups[0].Labels) != 0 {
		t.Errorf("Expected one empty group, got %+v", groups)
	}
}

func TestSurfaceLabelsCapped(t *testing.T) {
	// A surface has far more vertices than any selection UI can show.
	ts := newTestSeries(t, Options{Kind: KindSurface}, nil, 2, 1, 500)

	labels := ts.GetSpaceLabels()
	if len(labels) != SurfaceSelectionLimit {
		t.Fatalf("Expected %d labels, got %d", SurfaceSelectionLimit, len(labels))
	}
	if labels[0] != "signal-0" || labels[99] != "signal-99" {
		t.Errorf("Unexpected label range: %q .. %q", labels[0], labels[99])
	}
	if selection := ts.GetDefaultSelection(); len(selection) != SurfaceSelectionLimit {
		t.Errorf("Expected %d selected, got %d", SurfaceSelectionLimit, len(selection))
	}
}

func TestSurfaceLabelsSmallMesh(t *testing.T) {
	ts := newTestSeries(t, Options{Kind: KindSurface}, nil, 2, 1, 7)

	if labels := ts.GetSpaceLabels(); len(labels) != 7 {
		t.Errorf("Expected 7 labels, got %d", len(labels))
	}
}
