package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neuroviz/tsview/pkg/ndarray"
	"github.com/neuroviz/tsview/pkg/storage"
	"github.com/neuroviz/tsview/pkg/timeseries"
)

// newTestServer serves one registered series named "sim" backed by a
// (10, 2, 4) array filled with flat element indices.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := storage.NewStore(&storage.Config{
		Path:             t.TempDir(),
		CompressionLevel: 2,
		RowCacheSize:     8,
	}, nil)
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	chunk, err := ndarray.New(10, 2, 4)
	if err != nil {
		t.Fatalf("Failed to create chunk: %v", err)
	}
	for i := range chunk.Data() {
		chunk.Data()[i] = float64(i)
	}
	if err := store.StoreDataChunk("data", chunk, 0, false); err != nil {
		t.Fatalf("Failed to write backing array: %v", err)
	}

	ts, err := timeseries.New(store, nil, timeseries.Options{
		Title:        "sim",
		SamplePeriod: 0.5,
	})
	if err != nil {
		t.Fatalf("Failed to create series: %v", err)
	}
	if err := ts.Configure(); err != nil {
		t.Fatalf("Failed to configure series: %v", err)
	}

	srv := NewServer(":0", nil)
	srv.RegisterSeries("sim", ts)

	hs := httptest.NewServer(srv.Router())
	t.Cleanup(hs.Close)
	return hs
}

func get(t *testing.T, srv *httptest.Server, path string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatalf("Request %s failed: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Failed to decode %s response: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestTimePageEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var stamps []float64
	if code := get(t, srv, "/api/v1/series/sim/timepage?page=0&size=4", &stamps); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	want := []float64{0, 0.5, 1.0, 1.5}
	if len(stamps) != len(want) {
		t.Fatalf("Expected %d timestamps, got %d", len(want), len(stamps))
	}
	for i := range want {
		if stamps[i] != want[i] {
			t.Errorf("Timestamp %d: expected %g, got %g", i, want[i], stamps[i])
		}
	}
}

func TestDataPageEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var page struct {
		Shape []int     `json:"shape"`
		Data  []float64 `json:"data"`
	}
	if code := get(t, srv, "/api/v1/series/sim/datapage?from=0&to=10", &page); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(page.Shape) != 2 || page.Shape[0] != 10 || page.Shape[1] != 4 {
		t.Fatalf("Expected shape [10 4], got %v", page.Shape)
	}
	// Element (3, 2) of the default state: 3*8 + 2.
	if got := page.Data[3*4+2]; got != 26 {
		t.Errorf("Expected 26, got %g", got)
	}
}

func TestChannelsPageEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var page struct {
		Shape []int     `json:"shape"`
		Data  []float64 `json:"data"`
	}
	code := get(t, srv, "/api/v1/series/sim/channelspage?from=0&to=3&channels=%5B3%2C1%5D", &page)
	if code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(page.Shape) != 2 || page.Shape[0] != 3 || page.Shape[1] != 2 {
		t.Fatalf("Expected shape [3 2], got %v", page.Shape)
	}
	if page.Data[0] != 3 || page.Data[1] != 1 {
		t.Errorf("Expected first row [3 1], got [%g %g]", page.Data[0], page.Data[1])
	}
}

func TestEndpointValidation(t *testing.T) {
	srv := newTestServer(t)

	// Missing required parameter.
	if code := get(t, srv, "/api/v1/series/sim/datapage?from=0", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing 'to', got %d", code)
	}
	// Non-integer parameter.
	if code := get(t, srv, "/api/v1/series/sim/datapage?from=x&to=10", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for non-integer 'from', got %d", code)
	}
	// Malformed channel list.
	if code := get(t, srv, "/api/v1/series/sim/channelspage?from=0&to=3&channels=nope", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed channels, got %d", code)
	}
	// Volume operations on a 3-D series are a caller error.
	if code := get(t, srv, "/api/v1/series/sim/volume/slice?from=0&to=2", nil); code != http.StatusBadRequest {
		t.Errorf("Expected 400 for volume slice of a 3-D series, got %d", code)
	}
}

func TestUnknownSeries(t *testing.T) {
	srv := newTestServer(t)

	if code := get(t, srv, "/api/v1/series/nope/timepage?page=0&size=4", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", code)
	}
	if code := get(t, srv, "/api/v1/series/nope/labels", nil); code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", code)
	}
}

func TestLabelsAndSelectionEndpoints(t *testing.T) {
	srv := newTestServer(t)

	var labels struct {
		Labels []string `json:"labels"`
		GID    string   `json:"gid"`
	}
	if code := get(t, srv, "/api/v1/series/sim/labels", &labels); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(labels.Labels) != 4 || labels.Labels[0] != "signal-0" {
		t.Errorf("Unexpected labels: %v", labels.Labels)
	}
	if labels.GID != "" {
		t.Errorf("Expected empty GID for a generic series, got %q", labels.GID)
	}

	var selection []int
	if code := get(t, srv, "/api/v1/series/sim/selection", &selection); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if len(selection) != 4 {
		t.Errorf("Expected 4 selected indices, got %v", selection)
	}
}

func TestMinMaxEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var extrema map[string]float64
	if code := get(t, srv, "/api/v1/series/sim/minmax", &extrema); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if extrema["min"] != 0 || extrema["max"] != 79 {
		t.Errorf("Expected extrema [0, 79], got %v", extrema)
	}
}

func TestFiltersEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var filters map[string]struct {
		Type       string   `json:"type"`
		Operations []string `json:"operations"`
	}
	if code := get(t, srv, "/api/v1/series/sim/filters", &filters); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if _, ok := filters["sample_period"]; !ok {
		t.Errorf("Expected a sample_period filter, got %v", filters)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var health map[string]string
	if code := get(t, srv, "/health", &health); code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", code)
	}
	if health["status"] != "healthy" {
		t.Errorf("Unexpected health payload: %v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	get(t, srv, "/api/v1/series/sim/timepage?page=0&size=1", nil)
	if code := get(t, srv, "/metrics", nil); code != http.StatusOK {
		t.Errorf("Expected 200 from /metrics, got %d", code)
	}
}
