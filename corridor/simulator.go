package corridor

import (
	"math"

	"github.com/samber/lo"
)

const (
	// per-lane capacity for urban arterials (vehicles/hour)
	LaneCapacityVph = 1200.0

	// BPR speed-flow curve parameters
	bprAlpha = 0.15
	bprBeta  = 4.0
	// over capacity the speed collapses to a fixed share of free flow,
	// modeling queue spillback
	overCapacitySpeedFactor = 0.3
	// absolute speed floor (km/h)
	minSpeedKmh = 5.0

	// saturation flow of a signalized approach (vehicles/hour of green)
	saturationFlowVph = 1800.0
	// degree-of-saturation clip keeping Webster's formula finite
	maxSaturation = 0.95
)

// Simulator performs one-shot static all-or-nothing flow assignment: every
// OD entry's whole flow is loaded onto the single cached shortest path, with
// no iterative equilibrium and no split across alternatives. Runs are
// deterministic: identical network state and demand produce bit-identical
// results.
type Simulator struct {
	network *Network

	segmentFlows       map[string]float64
	segmentSpeeds      map[string]float64
	segmentTravelTimes map[string]float64 // minutes

	results map[string]*ScenarioResult
}

func NewSimulator(network *Network) *Simulator {
	s := &Simulator{
		network:            network,
		segmentFlows:       make(map[string]float64),
		segmentSpeeds:      make(map[string]float64),
		segmentTravelTimes: make(map[string]float64),
		results:            make(map[string]*ScenarioResult),
	}
	s.resetSegmentState()
	return s
}

func (s *Simulator) resetSegmentState() {
	for _, id := range s.network.SegmentIDs() {
		seg := s.network.segments[id]
		s.segmentFlows[id] = 0
		s.segmentSpeeds[id] = seg.SpeedLimitKmh
		s.segmentTravelTimes[id] = seg.LengthKm / seg.SpeedLimitKmh * 60
	}
}

// bprSpeed applies the BPR congestion curve: free-flow speed degraded by
// the fourth power of the flow/capacity ratio, a fixed 30% of free flow
// once over capacity, floored at minSpeedKmh.
func bprSpeed(flow, capacity, freeSpeed float64) float64 {
	if flow <= 0 {
		return math.Max(freeSpeed, minSpeedKmh)
	}
	ratio := flow / math.Max(capacity, 1.0)
	var speed float64
	if ratio > 1.0 {
		speed = freeSpeed * overCapacitySpeedFactor
	} else {
		speed = freeSpeed / (1.0 + bprAlpha*math.Pow(ratio, bprBeta))
	}
	return math.Max(speed, minSpeedKmh)
}

// websterDelayMin is Webster's average control delay at a fixed-cycle
// signal, in minutes, with the degree of saturation clipped at
// maxSaturation to keep the formula finite.
func websterDelayMin(cycleSec, greenSec int, flowVph float64) (delayMin, saturation float64) {
	if flowVph <= 0 || cycleSec <= 0 {
		return 0, 0
	}
	gOverC := float64(greenSec) / float64(cycleSec)
	capacity := saturationFlowVph * gOverC
	x := math.Min(maxSaturation, flowVph/capacity)

	c := float64(cycleSec)
	term1 := c * (1 - gOverC) * (1 - gOverC) / (2 * (1 - x*gOverC))
	term2 := x * x / (2 * (flowVph / 3600) * (1 - x))
	return (term1 + term2) / 60.0, x
}

func (s *Simulator) segmentCapacity(seg *Segment) float64 {
	return float64(seg.Lanes) * LaneCapacityVph
}

// RunSimulation assigns the demand table to the network and stores the
// result under the scenario name, replacing any previous run of that name.
//
// OD entries whose endpoints are unknown or unreachable contribute zero
// flow silently: that demand is deliberately "lost", not an error.
func (s *Simulator) RunSimulation(scenario string, demand []ODEntry) *ScenarioResult {
	s.resetSegmentState()

	routes := s.network.Routes()
	type odPath struct {
		entry ODEntry
		path  RoutePath
	}
	// unique OD pairs in first-appearance order, for OD travel time output
	odSeen := make(map[odKey]bool)
	odOrder := make([]odPath, 0, len(demand))

	totalVehicles := .0
	for _, entry := range demand {
		totalVehicles += entry.VehiclesPerHour
		path, err := routes.Route(entry.Origin, entry.Destination)
		if err != nil {
			log.Debugf("demand %s -> %s references unknown intersection, flow dropped",
				entry.Origin, entry.Destination)
			continue
		}
		key := odKey{origin: entry.Origin, destination: entry.Destination}
		if !odSeen[key] {
			odSeen[key] = true
			odOrder = append(odOrder, odPath{entry: entry, path: path})
		}
		if math.IsInf(path.DistanceKm, 1) {
			log.Debugf("no path from %s to %s, %v vph lost",
				entry.Origin, entry.Destination, entry.VehiclesPerHour)
			continue
		}
		for _, segID := range path.Segments {
			s.segmentFlows[segID] += entry.VehiclesPerHour
		}
	}

	result := &ScenarioResult{
		Scenario:      scenario,
		TotalVehicles: totalVehicles,
		Segments:      make(map[string]SegmentResult),
		Zones:         make(map[string]ZoneResult),
	}

	for _, id := range s.network.SegmentIDs() {
		seg := s.network.segments[id]
		flow := s.segmentFlows[id]
		capacity := s.segmentCapacity(seg)
		speed := bprSpeed(flow, capacity, seg.SpeedLimitKmh)
		s.segmentSpeeds[id] = speed
		travelTimeMin := seg.LengthKm / speed * 60
		s.segmentTravelTimes[id] = travelTimeMin

		result.Segments[id] = SegmentResult{
			SegmentID:       id,
			FlowVph:         flow,
			SpeedKmh:        speed,
			TravelTimeMin:   travelTimeMin,
			CongestionRatio: flow / math.Max(capacity, 1.0),
			RoadName:        seg.RoadName,
			ZoneID:          seg.ZoneID,
		}
	}

	result.Zones = s.compileZones(result.Segments)
	result.ODTravelTimes = lo.Map(odOrder, func(op odPath, _ int) ODResult {
		return ODResult{
			Origin:      op.entry.Origin,
			Destination: op.entry.Destination,
			TravelTimeMin: lo.SumBy(op.path.Segments, func(segID string) float64 {
				return s.segmentTravelTimes[segID]
			}),
			DistanceKm:  op.path.DistanceKm,
			NumSegments: len(op.path.Segments),
		}
	})
	result.SignalDelays = s.compileSignalDelays()

	s.results[scenario] = result
	log.Infof("scenario %q simulated: %d segments, %.0f vehicles", scenario, len(result.Segments), totalVehicles)
	return result
}

func (s *Simulator) compileZones(segments map[string]SegmentResult) map[string]ZoneResult {
	zones := make(map[string]ZoneResult)
	for _, id := range s.network.SegmentIDs() {
		sr := segments[id]
		z := zones[sr.ZoneID]
		z.ZoneID = sr.ZoneID
		z.TotalFlow += sr.FlowVph
		z.AvgSpeed += sr.SpeedKmh
		z.AvgTravelTime += sr.TravelTimeMin
		z.NumSegments++
		z.TotalDistanceKm += s.network.segments[id].LengthKm
		zones[sr.ZoneID] = z
	}
	for zoneID, z := range zones {
		if z.NumSegments > 0 {
			z.AvgSpeed /= float64(z.NumSegments)
			z.AvgTravelTime /= float64(z.NumSegments)
		}
		zones[zoneID] = z
	}
	return zones
}

// compileSignalDelays reports Webster's delay per signalized intersection,
// with approach flow taken as the sum of inbound segment flows. Diagnostic
// output only: the delay is not folded into segment travel times.
func (s *Simulator) compileSignalDelays() []SignalDelayResult {
	delays := make([]SignalDelayResult, 0)
	for _, id := range s.network.IntersectionIDs() {
		in := s.network.intersections[id]
		if !in.HasSignal {
			continue
		}
		approach := lo.SumBy(s.network.InboundSegments(id), func(segID string) float64 {
			return s.segmentFlows[segID]
		})
		delayMin, x := websterDelayMin(in.CycleTimeSec, in.GreenTimeSec, approach)
		delays = append(delays, SignalDelayResult{
			IntersectionID: id,
			ApproachFlow:   approach,
			Saturation:     x,
			DelayMin:       delayMin,
		})
	}
	return delays
}

// Result returns a stored scenario by name.
func (s *Simulator) Result(scenario string) (*ScenarioResult, bool) {
	r, ok := s.results[scenario]
	return r, ok
}

// Scenarios lists stored scenario names (unsorted).
func (s *Simulator) Scenarios() []string { return lo.Keys(s.results) }

// Reset clears segment state and all stored scenario results.
func (s *Simulator) Reset() {
	s.resetSegmentState()
	s.results = make(map[string]*ScenarioResult)
}
