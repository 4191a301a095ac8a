package corridor

import (
	"math"
)

// EmissionFactors are exhaust + re-suspension emissions in grams per
// vehicle-km for urban Indian vehicles.
type EmissionFactors struct {
	PM25 float64
	NOx  float64
	CO   float64
	CO2  float64
}

var emissionFactors = map[VehicleType]EmissionFactors{
	VehicleCar:   {PM25: 0.5, NOx: 0.8, CO: 2.5, CO2: 180},
	VehicleTruck: {PM25: 2.5, NOx: 5.0, CO: 8.0, CO2: 950},
}

// defaultBackgroundAQI is the static per-zone baseline before any traffic
// contribution.
var defaultBackgroundAQI = map[string]float64{
	"Z01": 250, "Z02": 280, "Z03": 265, "Z04": 245,
	"Z05": 275, "Z06": 290, "Z07": 260, "Z08": 270,
}

const (
	// fixed fleet mix applied to segment flows
	carShare   = 0.7
	truckShare = 0.3

	// share of emitted mass assumed to stay over the zone under wind
	dispersionEfficiency = 0.6

	// tuning constant scaling the traffic AQI contribution so totals do
	// not saturate at the cap; preserved verbatim, re-tune explicitly or
	// not at all
	trafficAQIDamping = 0.15

	defaultZoneAreaSqKm   = 5.0
	fallbackBackgroundAQI = 250.0
	maxAQI                = 500.0
)

// EmissionsConfig tunes the dispersion and background tables. Zero values
// select the defaults.
type EmissionsConfig struct {
	ZoneAreaSqKm  float64
	BackgroundAQI map[string]float64
}

// EmissionsEngine derives pollutant mass and estimated AQI per zone from a
// simulation result.
type EmissionsEngine struct {
	network       *Network
	zoneAreaSqKm  float64
	backgroundAQI map[string]float64
}

func NewEmissionsEngine(network *Network, cfg EmissionsConfig) *EmissionsEngine {
	e := &EmissionsEngine{
		network:       network,
		zoneAreaSqKm:  cfg.ZoneAreaSqKm,
		backgroundAQI: cfg.BackgroundAQI,
	}
	if e.zoneAreaSqKm <= 0 {
		e.zoneAreaSqKm = defaultZoneAreaSqKm
	}
	if e.backgroundAQI == nil {
		e.backgroundAQI = defaultBackgroundAQI
	}
	return e
}

// SegmentEmissions computes grams/day per pollutant on one segment from
// its assigned flow: daily vehicle-km (flow x 24 h x length) split into a
// fixed 70% car / 30% truck mix, times the per-type factors.
func (e *EmissionsEngine) SegmentEmissions(result *ScenarioResult, segmentID string) (SegmentEmissions, error) {
	sr, ok := result.Segments[segmentID]
	if !ok {
		return SegmentEmissions{}, ErrSegmentNotFound
	}
	seg := e.network.segments[segmentID]

	out := SegmentEmissions{
		SegmentID:     segmentID,
		LengthKm:      seg.LengthKm,
		DailyVehicles: sr.FlowVph * 24,
	}
	carKm := sr.FlowVph * carShare * 24 * seg.LengthKm
	truckKm := sr.FlowVph * truckShare * 24 * seg.LengthKm
	car, truck := emissionFactors[VehicleCar], emissionFactors[VehicleTruck]
	out.PM25Grams = carKm*car.PM25 + truckKm*truck.PM25
	out.NOxGrams = carKm*car.NOx + truckKm*truck.NOx
	out.COGrams = carKm*car.CO + truckKm*truck.CO
	out.CO2Grams = carKm*car.CO2 + truckKm*truck.CO2
	return out, nil
}

// zoneEmissions sums segment emissions over a zone.
func (e *EmissionsEngine) zoneEmissions(result *ScenarioResult, zoneID string) SegmentEmissions {
	var total SegmentEmissions
	for _, segID := range e.network.SegmentsInZone(zoneID) {
		se, err := e.SegmentEmissions(result, segID)
		if err != nil {
			continue
		}
		total.PM25Grams += se.PM25Grams
		total.NOxGrams += se.NOxGrams
		total.COGrams += se.COGrams
		total.CO2Grams += se.CO2Grams
		total.DailyVehicles += se.DailyVehicles
	}
	return total
}

// EstimateAQIFromPM25 maps daily PM2.5 mass to an AQI contribution:
// grams converted to mg, uniform dispersion of the effective mass over
// the zone area in ug/m3, then the Indian PM2.5 breakpoint table, capped
// at maxAQI.
func (e *EmissionsEngine) EstimateAQIFromPM25(pm25GramsPerDay float64) float64 {
	emissionsMg := pm25GramsPerDay * 1000
	zoneAreaM2 := e.zoneAreaSqKm * 1e6
	concentration := emissionsMg / zoneAreaM2 * 1e6 * dispersionEfficiency

	var aqi float64
	switch {
	case concentration <= 30:
		aqi = concentration / 30 * 50
	case concentration <= 60:
		aqi = 50 + (concentration-30)/30*50
	case concentration <= 90:
		aqi = 100 + (concentration-60)/30*100
	case concentration <= 120:
		aqi = 200 + (concentration-90)/30*100
	default:
		aqi = 300 + math.Min((concentration-120)/120*200, 200)
	}
	return math.Min(aqi, maxAQI)
}

// ZoneAQI computes the zone's air-quality outcome: static background plus
// the damped traffic contribution, capped at maxAQI.
func (e *EmissionsEngine) ZoneAQI(result *ScenarioResult, zoneID string) ZoneAQI {
	emissions := e.zoneEmissions(result, zoneID)
	// daily mass normalized down by 1000 before the conversion so the
	// damped contribution does not pin every zone at the cap
	trafficAQI := e.EstimateAQIFromPM25(emissions.PM25Grams / 1000)

	background, ok := e.backgroundAQI[zoneID]
	if !ok {
		background = fallbackBackgroundAQI
	}
	contribution := trafficAQI * trafficAQIDamping
	return ZoneAQI{
		ZoneID:                 zoneID,
		BackgroundAQI:          background,
		TrafficAQIContribution: contribution,
		TotalAQI:               math.Min(background+contribution, maxAQI),
		PM25Grams:              emissions.PM25Grams,
		NOxGrams:               emissions.NOxGrams,
		COGrams:                emissions.COGrams,
		CO2Grams:               emissions.CO2Grams,
		TotalDailyVehicles:     emissions.DailyVehicles,
	}
}

// AllZonesAQI computes AQI for every zone in sorted zone order.
func (e *EmissionsEngine) AllZonesAQI(result *ScenarioResult) []ZoneAQI {
	zones := e.network.Zones()
	out := make([]ZoneAQI, 0, len(zones))
	for _, zoneID := range zones {
		out = append(out, e.ZoneAQI(result, zoneID))
	}
	return out
}

// HealthImpact is a coarse per-zone population estimate from total AQI.
func (e *EmissionsEngine) HealthImpact(result *ScenarioResult, zoneID string, population int) HealthImpact {
	aqi := e.ZoneAQI(result, zoneID).TotalAQI

	var category, risk string
	switch {
	case aqi <= 50:
		category, risk = "Good", "None"
	case aqi <= 100:
		category, risk = "Satisfactory", "Low"
	case aqi <= 200:
		category, risk = "Moderately Polluted", "Moderate"
	case aqi <= 300:
		category, risk = "Poor", "High"
	case aqi <= 400:
		category, risk = "Very Poor", "Very High"
	default:
		category, risk = "Severe", "Critical"
	}

	affectedPct := .0
	if aqi > 200 {
		affectedPct = (aqi - 200) / 300 * 100
	}
	return HealthImpact{
		ZoneID:                 zoneID,
		AQI:                    aqi,
		Category:               category,
		HealthRisk:             risk,
		Population:             population,
		AffectedPopulation:     int(float64(population) * affectedPct / 100),
		RespiratorySymptomsPct: aqi / maxAQI * 100,
	}
}

// ZoneAQIComparison is the per-zone delta between two scenarios.
type ZoneAQIComparison struct {
	ZoneID          string  `json:"zone_id"`
	BaselineAQI     float64 `json:"baseline_aqi"`
	InterventionAQI float64 `json:"intervention_aqi"`
	AQIChange       float64 `json:"aqi_change"`
	AQIChangePct    float64 `json:"aqi_change_pct"`
}

// CompareScenarios reports per-zone AQI deltas between two stored runs.
func (e *EmissionsEngine) CompareScenarios(baseline, intervention *ScenarioResult) []ZoneAQIComparison {
	baseZones := e.AllZonesAQI(baseline)
	interZones := e.AllZonesAQI(intervention)

	out := make([]ZoneAQIComparison, 0, len(baseZones))
	for i, bz := range baseZones {
		iz := interZones[i]
		change := iz.TotalAQI - bz.TotalAQI
		pct := .0
		if bz.TotalAQI > 0 {
			pct = change / bz.TotalAQI * 100
		}
		out = append(out, ZoneAQIComparison{
			ZoneID:          bz.ZoneID,
			BaselineAQI:     bz.TotalAQI,
			InterventionAQI: iz.TotalAQI,
			AQIChange:       change,
			AQIChangePct:    pct,
		})
	}
	return out
}
