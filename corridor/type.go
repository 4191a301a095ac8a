package corridor

// VehicleType classifies OD demand entries.
type VehicleType string

const (
	VehicleCar   VehicleType = "Car"
	VehicleTruck VehicleType = "Truck"
)

// Intersection is a network node. Signal timing fields are mutated only by
// signal interventions; everything else is static after construction.
type Intersection struct {
	ID           string  `json:"intersection_id" db:"intersection_id" bson:"intersection_id"`
	Latitude     float64 `json:"latitude" db:"latitude" bson:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude" bson:"longitude"`
	HasSignal    bool    `json:"has_signal" db:"has_signal" bson:"has_signal"`
	CycleTimeSec int     `json:"cycle_time_sec" db:"cycle_time_sec" bson:"cycle_time_sec"`
	GreenTimeSec int     `json:"green_time_sec" db:"green_time_sec" bson:"green_time_sec"`
	RoadName     string  `json:"road_name" db:"road_name" bson:"road_name"`
	ZoneID       string  `json:"zone_id" db:"zone_id" bson:"zone_id"`
}

// Segment is a directed road edge between two intersections. Lanes and the
// closed flag are mutated by lane/closure interventions; the directed edge
// exists in the search graph iff the segment is open with at least one lane.
type Segment struct {
	ID            string  `json:"segment_id" db:"segment_id" bson:"segment_id"`
	From          string  `json:"from_intersection" db:"from_intersection" bson:"from_intersection"`
	To            string  `json:"to_intersection" db:"to_intersection" bson:"to_intersection"`
	LengthKm      float64 `json:"length_km" db:"length_km" bson:"length_km"`
	Lanes         int     `json:"lanes" db:"lanes" bson:"lanes"`
	SpeedLimitKmh float64 `json:"speed_limit_kmh" db:"speed_limit_kmh" bson:"speed_limit_kmh"`
	IsOneWay      bool    `json:"is_one_way" db:"is_one_way" bson:"is_one_way"`
	ZoneID        string  `json:"zone_id" db:"zone_id" bson:"zone_id"`
	RoadType      string  `json:"road_type" db:"road_type" bson:"road_type"`
	RoadName      string  `json:"road_name" db:"road_name" bson:"road_name"`
	Closed        bool    `json:"closed" db:"closed" bson:"closed"`
}

// ODEntry is one row of the origin-destination demand table. The table is
// supplied by the caller per simulation run and never mutated by the core.
type ODEntry struct {
	Origin          string      `json:"origin_intersection" db:"origin_intersection" bson:"origin_intersection"`
	Destination     string      `json:"destination_intersection" db:"destination_intersection" bson:"destination_intersection"`
	VehiclesPerHour float64     `json:"vehicles_per_hour" db:"vehicles_per_hour" bson:"vehicles_per_hour"`
	VehicleType     VehicleType `json:"vehicle_type" db:"vehicle_type" bson:"vehicle_type"`
}

// RoutePath is a shortest path between one OD pair: the ordered segment ids
// and the summed length. An unreachable pair has no segments and +Inf
// distance.
type RoutePath struct {
	Segments   []string `json:"segments"`
	DistanceKm float64  `json:"distance_km"`
}

// Reachable reports whether the path connects its OD pair.
func (p RoutePath) Reachable() bool { return len(p.Segments) > 0 || p.DistanceKm == 0 }

// TopologyReport summarizes the network structure.
type TopologyReport struct {
	Segments                int            `json:"segments"`
	Intersections           int            `json:"intersections"`
	Zones                   int            `json:"zones"`
	TotalLengthKm           float64        `json:"total_length_km"`
	TotalLanes              int            `json:"total_lanes"`
	SignalizedIntersections int            `json:"signalized_intersections"`
	SegmentsByZone          map[string]int `json:"segments_by_zone"`
}

// ValidationReport is the result of Network.Validate. It reports issues
// without mutating anything; an empty issue list means the network is valid.
type ValidationReport struct {
	Valid    bool           `json:"valid"`
	Issues   []string       `json:"issues"`
	Topology TopologyReport `json:"topology"`
}

// SegmentResult holds per-segment outcomes of one simulation run.
type SegmentResult struct {
	SegmentID       string  `json:"segment_id"`
	FlowVph         float64 `json:"flow_vph"`
	SpeedKmh        float64 `json:"speed_kmh"`
	TravelTimeMin   float64 `json:"travel_time_min"`
	CongestionRatio float64 `json:"congestion_ratio"`
	RoadName        string  `json:"road_name"`
	ZoneID          string  `json:"zone_id"`
}

// ZoneResult aggregates member segments of one zone: sums for flow and
// distance, arithmetic means for speed and travel time.
type ZoneResult struct {
	ZoneID          string  `json:"zone_id"`
	TotalFlow       float64 `json:"total_flow"`
	AvgSpeed        float64 `json:"avg_speed"`
	AvgTravelTime   float64 `json:"avg_travel_time"`
	NumSegments     int     `json:"num_segments"`
	TotalDistanceKm float64 `json:"total_distance"`
}

// ODResult is the realized travel time along one OD pair's assigned path.
type ODResult struct {
	Origin        string  `json:"origin"`
	Destination   string  `json:"destination"`
	TravelTimeMin float64 `json:"travel_time_min"`
	DistanceKm    float64 `json:"distance_km"`
	NumSegments   int     `json:"num_segments"`
}

// SignalDelayResult is Webster's approximate control delay at one
// signalized intersection. Diagnostic only: it is not folded back into
// segment travel times.
type SignalDelayResult struct {
	IntersectionID string  `json:"intersection_id"`
	ApproachFlow   float64 `json:"approach_flow_vph"`
	Saturation     float64 `json:"degree_of_saturation"`
	DelayMin       float64 `json:"delay_min"`
}

// ScenarioResult is the immutable outcome of one simulation run, keyed by
// scenario name in the simulator. Re-running a name replaces it.
type ScenarioResult struct {
	Scenario      string                   `json:"scenario"`
	TotalVehicles float64                  `json:"total_vehicles"`
	Segments      map[string]SegmentResult `json:"segments"`
	Zones         map[string]ZoneResult    `json:"zones"`
	ODTravelTimes []ODResult               `json:"od_travel_times"`
	SignalDelays  []SignalDelayResult      `json:"signal_delays"`
}

// ZoneAQI is the air-quality outcome for one zone.
type ZoneAQI struct {
	ZoneID                 string  `json:"zone_id"`
	BackgroundAQI          float64 `json:"background_aqi"`
	TrafficAQIContribution float64 `json:"traffic_aqi_contribution"`
	TotalAQI               float64 `json:"total_aqi"`
	PM25Grams              float64 `json:"pm25_grams"`
	NOxGrams               float64 `json:"nox_grams"`
	COGrams                float64 `json:"co_grams"`
	CO2Grams               float64 `json:"co2_grams"`
	TotalDailyVehicles     float64 `json:"total_daily_vehicles"`
}

// SegmentEmissions is the daily pollutant mass emitted on one segment.
type SegmentEmissions struct {
	SegmentID     string  `json:"segment_id"`
	LengthKm      float64 `json:"length_km"`
	DailyVehicles float64 `json:"daily_vehicles"`
	PM25Grams     float64 `json:"pm25_grams"`
	NOxGrams      float64 `json:"nox_grams"`
	COGrams       float64 `json:"co_grams"`
	CO2Grams      float64 `json:"co2_grams"`
}

// HealthImpact is a coarse population-level estimate derived from zone AQI.
type HealthImpact struct {
	ZoneID                 string  `json:"zone_id"`
	AQI                    float64 `json:"aqi"`
	Category               string  `json:"category"`
	HealthRisk             string  `json:"health_risk"`
	Population             int     `json:"population"`
	AffectedPopulation     int     `json:"affected_population"`
	RespiratorySymptomsPct float64 `json:"respiratory_symptoms_pct"`
}
