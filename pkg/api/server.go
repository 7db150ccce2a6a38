package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neuroviz/tsview/pkg/timeseries"
	"github.com/neuroviz/tsview/pkg/types"
)

// Server exposes the windowed read operations of registered time series
// over HTTP, for the visualization layer to consume.
type Server struct {
	addr   string
	logger log.Logger
	server *http.Server

	mu     sync.RWMutex
	series map[string]*timeseries.TimeSeries

	registry *prometheus.Registry
	requests *prometheus.CounterVec
}

// NewServer creates an API server. Series are added with RegisterSeries.
func NewServer(addr string, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tsview_requests_total",
		Help: "API requests by handler and status code.",
	}, []string{"handler", "code"})
	registry.MustRegister(requests)

	return &Server{
		addr:     addr,
		logger:   logger,
		series:   make(map[string]*timeseries.TimeSeries),
		registry: registry,
		requests: requests,
	}
}

// RegisterSeries makes a configured series queryable under the given id.
func (s *Server) RegisterSeries(id string, ts *timeseries.TimeSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[id] = ts
}

// Router builds the HTTP route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/series/{id}/timepage", s.instrument("timepage", s.handleTimePage)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/datapage", s.instrument("datapage", s.handleDataPage)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/channelspage", s.instrument("channelspage", s.handleChannelsPage)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/volume/slice", s.instrument("volumeslice", s.handleVolumeSlice)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/volume/view", s.instrument("volumeview", s.handleVolumeView)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/voxel", s.instrument("voxel", s.handleVoxel)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/labels", s.instrument("labels", s.handleLabels)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/labels/grouped", s.instrument("groupedlabels", s.handleGroupedLabels)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/selection", s.instrument("selection", s.handleDefaultSelection)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/minmax", s.instrument("minmax", s.handleMinMax)).Methods(http.MethodGet)
	v1.HandleFunc("/series/{id}/filters", s.instrument("filters", s.handleFilters)).Methods(http.MethodGet)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s.server.ListenAndServe()
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// instrument counts requests per handler and status.
func (s *Server) instrument(name string, h func(http.ResponseWriter, *http.Request) int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := h(w, r)
		s.requests.WithLabelValues(name, strconv.Itoa(code)).Inc()
	}
}

func (s *Server) lookup(r *http.Request) (*timeseries.TimeSeries, string, bool) {
	id := mux.Vars(r)["id"]
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.series[id]
	return ts, id, ok
}

// writeError maps the error taxonomy onto HTTP statuses: validation errors
// and malformed parameters are the caller's fault, everything else is ours.
func (s *Server) writeError(w http.ResponseWriter, err error) int {
	code := http.StatusInternalServerError
	if types.IsValidation(err) || errors.Is(err, types.ErrInvalidTimeSeries) {
		code = http.StatusBadRequest
	}
	level.Debug(s.logger).Log("msg", "request failed", "err", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
	return code
}

func (s *Server) writeJSON(w http.ResponseWriter, v interface{}) int {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		level.Error(s.logger).Log("msg", "failed to encode response", "err", err)
	}
	return http.StatusOK
}

func (s *Server) notFound(w http.ResponseWriter, id string) int {
	http.Error(w, fmt.Sprintf("unknown series %q", id), http.StatusNotFound)
	return http.StatusNotFound
}

// intParam parses a required integer query parameter.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, types.Validationf("missing parameter %q", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, types.Validationf("parameter %q must be an integer, got %q", name, raw)
	}
	return v, nil
}

// intParamDefault parses an optional integer query parameter.
func intParamDefault(r *http.Request, name string, def int) (int, error) {
	if r.URL.Query().Get(name) == "" {
		return def, nil
	}
	return intParam(r, name)
}

// pageResponse carries a rank-2 page as shape plus flat row-major values.
type pageResponse struct {
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

func (s *Server) handleTimePage(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	page, err := intParam(r, "page")
	if err != nil {
		return s.writeError(w, err)
	}
	size, err := intParam(r, "size")
	if err != nil {
		return s.writeError(w, err)
	}
	var maxSize *int
	if r.URL.Query().Get("max") != "" {
		ms, err := intParam(r, "max")
		if err != nil {
			return s.writeError(w, err)
		}
		maxSize = &ms
	}
	return s.writeJSON(w, ts.ReadTimePage(page, size, maxSize))
}

func (s *Server) handleDataPage(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	from, err := intParam(r, "from")
	if err != nil {
		return s.writeError(w, err)
	}
	to, err := intParam(r, "to")
	if err != nil {
		return s.writeError(w, err)
	}
	step, err := intParamDefault(r, "step", 1)
	if err != nil {
		return s.writeError(w, err)
	}
	slices, err := types.DecodeIndexList(r.URL.Query().Get("slices"))
	if err != nil {
		return s.writeError(w, types.Validationf("%s", err))
	}

	page, err := ts.ReadDataPage(from, to, step, slices)
	if err != nil {
		return s.writeError(w, err)
	}
	return s.writeJSON(w, pageResponse{Shape: page.Shape(), Data: page.Data()})
}

func (s *Server) handleChannelsPage(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	from, err := intParam(r, "from")
	if err != nil {
		return s.writeError(w, err)
	}
	to, err := intParam(r, "to")
	if err != nil {
		return s.writeError(w, err)
	}
	step, err := intParamDefault(r, "step", 1)
	if err != nil {
		return s.writeError(w, err)
	}
	slices, err := types.DecodeIndexList(r.URL.Query().Get("slices"))
	if err != nil {
		return s.writeError(w, types.Validationf("%s", err))
	}
	channels, err := types.DecodeIndexList(r.URL.Query().Get("channels"))
	if err != nil {
		return s.writeError(w, types.Validationf("%s", err))
	}

	page, err := ts.ReadChannelsPage(from, to, step, slices, channels)
	if err != nil {
		return s.writeError(w, err)
	}
	return s.writeJSON(w, pageResponse{Shape: page.Shape(), Data: page.Data()})
}

func (s *Server) handleVolumeSlice(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	from, err := intParam(r, "from")
	if err != nil {
		return s.writeError(w, err)
	}
	to, err := intParam(r, "to")
	if err != nil {
		return s.writeError(w, err)
	}

	volume, err := ts.GetRotatedVolumeSlice(from, to)
	if err != nil {
		return s.writeError(w, err)
	}
	return s.writeJSON(w, pageResponse{Shape: volume.Shape(), Data: volume.Data()})
}

func (s *Server) handleVolumeView(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	from, err := intParam(r, "from")
	if err != nil {
		return s.writeError(w, err)
	}
	to, err := intParam(r, "to")
	if err != nil {
		return s.writeError(w, err)
	}
	x, err := intParam(r, "x")
	if err != nil {
		return s.writeError(w, err)
	}
	y, err := intParam(r, "y")
	if err != nil {
		return s.writeError(w, err)
	}
	z, err := intParam(r, "z")
	if err != nil {
		return s.writeError(w, err)
	}

	view, err := ts.GetVolumeView(from, to, x, y, z)
	if err != nil {
		return s.writeError(w, err)
	}
	return s.writeJSON(w, view)
}

func (s *Server) handleVoxel(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	x, err := intParam(r, "x")
	if err != nil {
		return s.writeError(w, err)
	}
	y, err := intParam(r, "y")
	if err != nil {
		return s.writeError(w, err)
	}
	z, err := intParam(r, "z")
	if err != nil {
		return s.writeError(w, err)
	}

	course, err := ts.GetVoxelTimeSeries(x, y, z)
	if err != nil {
		return s.writeError(w, err)
	}
	return s.writeJSON(w, course)
}

func (s *Server) handleLabels(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	return s.writeJSON(w, map[string]interface{}{
		"labels": ts.GetSpaceLabels(),
		"gid":    ts.GetMeasurePointsSelectionGID(),
	})
}

func (s *Server) handleGroupedLabels(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	return s.writeJSON(w, ts.GetGroupedSpaceLabels())
}

func (s *Server) handleDefaultSelection(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	return s.writeJSON(w, ts.GetDefaultSelection())
}

func (s *Server) handleMinMax(w http.ResponseWriter, r *http.Request) int {
	ts, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	min, max, err := ts.GetMinMaxValues()
	if err != nil {
		return s.writeError(w, err)
	}
	return s.writeJSON(w, map[string]float64{"min": min, "max": max})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) int {
	_, id, ok := s.lookup(r)
	if !ok {
		return s.notFound(w, id)
	}
	return s.writeJSON(w, timeseries.AcceptedFilters())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}
