package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/citylab/corridorsim/corridor"
	"github.com/citylab/corridorsim/dataset"
)

// CorridorServer is the JSON surface over the simulation engine. The
// engine assumes a single writer, so every mutating endpoint runs under
// one mutex; read-only queries go straight to the engine's read-safe
// structures.
type CorridorServer struct {
	network       *corridor.Network
	simulator     *corridor.Simulator
	emissions     *corridor.EmissionsEngine
	interventions *corridor.InterventionEngine
	demand        []corridor.ODEntry

	// serializes simulation runs and interventions
	mu sync.Mutex
	// last scenario run, for the segment/zone detail endpoints
	lastScenario string

	// 接口开启true或关闭false
	ok bool
	// 条件变量
	cond *sync.Cond

	metrics *Collector
}

func NewCorridorServer(tables *dataset.Tables, zoneAreaSqKm float64, metrics *Collector) (*CorridorServer, error) {
	network, err := corridor.NewNetwork(tables.Segments, tables.Intersections)
	if err != nil {
		return nil, errors.Wrap(err, "build network")
	}
	s := &CorridorServer{
		network:       network,
		simulator:     corridor.NewSimulator(network),
		emissions:     corridor.NewEmissionsEngine(network, corridor.EmissionsConfig{ZoneAreaSqKm: zoneAreaSqKm}),
		interventions: corridor.NewInterventionEngine(network),
		demand:        tables.Demand,
		ok:            true,
		cond:          sync.NewCond(&sync.Mutex{}),
		metrics:       metrics,
	}
	if metrics != nil {
		topo := network.Topology()
		metrics.Segments.Set(float64(topo.Segments))
		metrics.Intersections.Set(float64(topo.Intersections))
	}
	return s, nil
}

// Handler builds the route table.
func (s *CorridorServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/baseline", s.wrap("baseline", s.handleBaseline))
	mux.HandleFunc("/run", s.wrap("run", s.handleRun))
	mux.HandleFunc("/topology", s.wrap("topology", s.handleTopology))
	mux.HandleFunc("/validate", s.wrap("validate", s.handleValidate))
	mux.HandleFunc("/segment/", s.wrap("segment", s.handleSegment))
	mux.HandleFunc("/zone/", s.wrap("zone", s.handleZone))
	mux.HandleFunc("/interventions", s.wrap("interventions", s.handleInterventions))
	mux.HandleFunc("/interventions/rollback", s.wrap("rollback", s.handleRollback))
	mux.HandleFunc("/interventions/reset", s.wrap("reset", s.handleReset))
	mux.HandleFunc("/stats", s.wrap("stats", s.handleStats))
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// wrap blocks while the server is suspended and records request metrics.
func (s *CorridorServer) wrap(name string, h func(http.ResponseWriter, *http.Request) (int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// 暂停-恢复机制
		s.cond.L.Lock()
		for !s.ok {
			// 暂停中
			s.cond.Wait()
		}
		s.cond.L.Unlock()

		start := time.Now()
		code, err := h(w, r)
		if err != nil {
			http.Error(w, err.Error(), code)
		}
		if s.metrics != nil {
			s.metrics.ObserveRequest(name, code, time.Since(start))
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) (int, error) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return http.StatusInternalServerError, err
	}
	return http.StatusOK, nil
}

// statusFor maps engine error kinds to HTTP statuses; the core never
// formats user-facing errors itself.
func statusFor(err error) int {
	switch {
	case errors.Is(err, corridor.ErrSegmentNotFound),
		errors.Is(err, corridor.ErrIntersectionNotFound),
		errors.Is(err, corridor.ErrInterventionNotFound):
		return http.StatusNotFound
	case errors.Is(err, corridor.ErrRollbackOrder):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (s *CorridorServer) runScenario(scenario string, demand []corridor.ODEntry) *corridor.ScenarioResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.simulator.RunSimulation(scenario, demand)
	s.lastScenario = scenario
	if s.metrics != nil {
		s.metrics.SimulationRuns.Inc()
	}
	return result
}

type scenarioResponse struct {
	Result *corridor.ScenarioResult `json:"result"`
	Zones  []corridor.ZoneAQI       `json:"zone_aqi"`
}

func (s *CorridorServer) handleBaseline(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodGet {
		return http.StatusMethodNotAllowed, errors.New("GET only")
	}
	start := time.Now()
	result := s.runScenario("baseline", s.demand)
	if s.metrics != nil {
		s.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	}
	return writeJSON(w, scenarioResponse{
		Result: result,
		Zones:  s.emissions.AllZonesAQI(result),
	})
}

type runRequest struct {
	Scenario      string                         `json:"scenario"`
	Interventions []corridor.InterventionRequest `json:"interventions,omitempty"`
	// drop truck demand before assignment; OD filtering is this layer's
	// job, the engine only records ban metadata
	ExcludeTrucks bool `json:"exclude_trucks,omitempty"`
}

type runResponse struct {
	scenarioResponse
	Outcomes   []corridor.InterventionOutcome `json:"intervention_outcomes,omitempty"`
	Comparison []corridor.ZoneAQIComparison   `json:"comparison,omitempty"`
}

func (s *CorridorServer) handleRun(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, errors.New("POST only")
	}
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return http.StatusBadRequest, errors.Wrap(err, "decode request")
	}
	if req.Scenario == "" || req.Scenario == "baseline" {
		return http.StatusBadRequest, errors.New(`scenario name required and must not be "baseline"`)
	}

	s.mu.Lock()
	outcomes := s.interventions.ApplyMultiple(req.Interventions)
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ActiveInterventions.Set(float64(len(s.interventions.Active())))
	}

	demand := s.demand
	if req.ExcludeTrucks {
		demand = make([]corridor.ODEntry, 0, len(s.demand))
		for _, od := range s.demand {
			if od.VehicleType != corridor.VehicleTruck {
				demand = append(demand, od)
			}
		}
	}

	start := time.Now()
	result := s.runScenario(req.Scenario, demand)
	if s.metrics != nil {
		s.metrics.SimulationDuration.Observe(time.Since(start).Seconds())
	}

	resp := runResponse{
		scenarioResponse: scenarioResponse{
			Result: result,
			Zones:  s.emissions.AllZonesAQI(result),
		},
		Outcomes: outcomes,
	}
	if baseline, ok := s.simulator.Result("baseline"); ok {
		resp.Comparison = s.emissions.CompareScenarios(baseline, result)
	}
	return writeJSON(w, resp)
}

func (s *CorridorServer) handleTopology(w http.ResponseWriter, r *http.Request) (int, error) {
	return writeJSON(w, s.network.Topology())
}

func (s *CorridorServer) handleValidate(w http.ResponseWriter, r *http.Request) (int, error) {
	return writeJSON(w, s.network.Validate())
}

func (s *CorridorServer) handleSegment(w http.ResponseWriter, r *http.Request) (int, error) {
	id := strings.TrimPrefix(r.URL.Path, "/segment/")
	seg, err := s.network.Segment(id)
	if err != nil {
		return statusFor(err), err
	}
	resp := struct {
		Segment corridor.Segment        `json:"segment"`
		Result  *corridor.SegmentResult `json:"result,omitempty"`
	}{Segment: seg}
	if scenario, ok := s.simulator.Result(s.lastScenario); ok {
		if sr, ok := scenario.Segments[id]; ok {
			resp.Result = &sr
		}
	}
	return writeJSON(w, resp)
}

func (s *CorridorServer) handleZone(w http.ResponseWriter, r *http.Request) (int, error) {
	id := strings.TrimPrefix(r.URL.Path, "/zone/")
	segments := s.network.SegmentsInZone(id)
	if len(segments) == 0 {
		return http.StatusNotFound, errors.Errorf("zone %s has no segments", id)
	}
	resp := struct {
		ZoneID   string                 `json:"zone_id"`
		Segments []string               `json:"segments"`
		Result   *corridor.ZoneResult   `json:"result,omitempty"`
		AQI      *corridor.ZoneAQI      `json:"aqi,omitempty"`
		Health   *corridor.HealthImpact `json:"health,omitempty"`
	}{ZoneID: id, Segments: segments}
	if scenario, ok := s.simulator.Result(s.lastScenario); ok {
		if zr, ok := scenario.Zones[id]; ok {
			resp.Result = &zr
		}
		aqi := s.emissions.ZoneAQI(scenario, id)
		resp.AQI = &aqi
		health := s.emissions.HealthImpact(scenario, id, 100_000)
		resp.Health = &health
	}
	return writeJSON(w, resp)
}

func (s *CorridorServer) handleInterventions(w http.ResponseWriter, r *http.Request) (int, error) {
	switch r.Method {
	case http.MethodGet:
		return writeJSON(w, s.interventions.Active())
	case http.MethodPost:
		var reqs []corridor.InterventionRequest
		if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
			return http.StatusBadRequest, errors.Wrap(err, "decode request")
		}
		s.mu.Lock()
		outcomes := s.interventions.ApplyMultiple(reqs)
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.ActiveInterventions.Set(float64(len(s.interventions.Active())))
		}
		return writeJSON(w, outcomes)
	default:
		return http.StatusMethodNotAllowed, errors.New("GET or POST only")
	}
}

func (s *CorridorServer) handleRollback(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, errors.New("POST only")
	}
	var req struct {
		InterventionID string `json:"intervention_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return http.StatusBadRequest, errors.Wrap(err, "decode request")
	}
	s.mu.Lock()
	err := s.interventions.RollbackIntervention(req.InterventionID)
	s.mu.Unlock()
	if err != nil {
		return statusFor(err), err
	}
	if s.metrics != nil {
		s.metrics.ActiveInterventions.Set(float64(len(s.interventions.Active())))
	}
	return writeJSON(w, map[string]string{
		"intervention_id": req.InterventionID,
		"status":          "rolled_back",
	})
}

func (s *CorridorServer) handleReset(w http.ResponseWriter, r *http.Request) (int, error) {
	if r.Method != http.MethodPost {
		return http.StatusMethodNotAllowed, errors.New("POST only")
	}
	s.mu.Lock()
	count := s.interventions.ResetAll()
	s.mu.Unlock()
	if s.metrics != nil {
		s.metrics.ActiveInterventions.Set(0)
	}
	return writeJSON(w, map[string]any{
		"interventions_reset": count,
		"status":              "baseline_restored",
	})
}

func (s *CorridorServer) handleStats(w http.ResponseWriter, r *http.Request) (int, error) {
	return writeJSON(w, map[string]any{
		"topology":       s.network.Topology(),
		"scenarios":      s.simulator.Scenarios(),
		"route_cache":    s.network.Routes().Size(),
		"generation":     s.network.Generation(),
		"interventions":  len(s.interventions.Active()),
		"demand_entries": len(s.demand),
	})
}

// 暂停模拟服务
func (s *CorridorServer) Suspend() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = false
}

// 恢复模拟服务
func (s *CorridorServer) Resume() {
	s.cond.L.Lock()
	defer s.cond.L.Unlock()
	s.ok = true
	s.cond.Broadcast()
}

// 关闭模拟服务
func (s *CorridorServer) Close() {
	s.network.Routes().Flush()
}
