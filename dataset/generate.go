package dataset

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/citylab/corridorsim/corridor"
)

// GenerateConfig shapes the synthetic demo network. Zero values select the
// defaults of the bundled demo scenario.
type GenerateConfig struct {
	Corridors           int   // radial corridors from the hub
	SegmentsPerCorridor int   // links per corridor, hub outward
	ODPairs             int   // demand table rows
	Seed                int64 // rand seed; same seed, same tables
}

const (
	defaultCorridors           = 4
	defaultSegmentsPerCorridor = 6
	defaultODPairs             = 48

	// demo study area center (Delhi)
	hubLatitude  = 28.6139
	hubLongitude = 77.2090
)

// Generate builds a synthetic radial corridor network: a central hub with
// two-way corridors radiating outward, alternating signalized
// intersections, and a random OD table between all intersections. Output
// is fully determined by the seed.
func Generate(cfg GenerateConfig) *Tables {
	if cfg.Corridors <= 0 {
		cfg.Corridors = defaultCorridors
	}
	if cfg.SegmentsPerCorridor <= 0 {
		cfg.SegmentsPerCorridor = defaultSegmentsPerCorridor
	}
	if cfg.ODPairs <= 0 {
		cfg.ODPairs = defaultODPairs
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	tables := &Tables{}
	zone := func(c int) string { return fmt.Sprintf("Z%02d", c%8+1) }

	hub := corridor.Intersection{
		ID:           "I000",
		Latitude:     hubLatitude,
		Longitude:    hubLongitude,
		HasSignal:    true,
		CycleTimeSec: 120,
		GreenTimeSec: 50,
		RoadName:     "Central Hub",
		ZoneID:       zone(0),
	}
	tables.Intersections = append(tables.Intersections, hub)

	for c := 0; c < cfg.Corridors; c++ {
		roadName := fmt.Sprintf("Corridor %d", c+1)
		prev := hub.ID
		for k := 1; k <= cfg.SegmentsPerCorridor; k++ {
			id := fmt.Sprintf("I%d%02d", c+1, k)
			tables.Intersections = append(tables.Intersections, corridor.Intersection{
				ID: id,
				// rough radial spread, ~0.02 deg per hop
				Latitude:     hubLatitude + float64(k)*0.02*radialLat(c, cfg.Corridors),
				Longitude:    hubLongitude + float64(k)*0.02*radialLon(c, cfg.Corridors),
				HasSignal:    k%2 == 1,
				CycleTimeSec: 90 + rng.Intn(4)*15,
				GreenTimeSec: 30 + rng.Intn(4)*10,
				RoadName:     roadName,
				ZoneID:       zone(c),
			})

			lanes := 2 + rng.Intn(3)
			speed := float64(40 + rng.Intn(3)*10)
			length := 1.5 + rng.Float64()*1.5
			roadType := "arterial"
			if k > cfg.SegmentsPerCorridor/2 {
				roadType = "sub_arterial"
			}
			out := corridor.Segment{
				ID:            fmt.Sprintf("S%d%02dA", c+1, k),
				From:          prev,
				To:            id,
				LengthKm:      length,
				Lanes:         lanes,
				SpeedLimitKmh: speed,
				ZoneID:        zone(c),
				RoadType:      roadType,
				RoadName:      roadName,
			}
			back := out
			back.ID = fmt.Sprintf("S%d%02dB", c+1, k)
			back.From, back.To = out.To, out.From
			tables.Segments = append(tables.Segments, out, back)
			prev = id
		}
	}

	ids := make([]string, 0, len(tables.Intersections))
	for _, in := range tables.Intersections {
		ids = append(ids, in.ID)
	}
	for i := 0; i < cfg.ODPairs; i++ {
		origin := ids[rng.Intn(len(ids))]
		destination := ids[rng.Intn(len(ids))]
		for destination == origin {
			destination = ids[rng.Intn(len(ids))]
		}
		vtype := corridor.VehicleCar
		if rng.Float64() < 0.3 {
			vtype = corridor.VehicleTruck
		}
		tables.Demand = append(tables.Demand, corridor.ODEntry{
			Origin:          origin,
			Destination:     destination,
			VehiclesPerHour: float64(200 + rng.Intn(1800)),
			VehicleType:     vtype,
		})
	}

	log.Infof("generated demo network: %d corridors, %d segments, %d OD entries",
		cfg.Corridors, len(tables.Segments), len(tables.Demand))
	return tables
}

// unit direction of corridor c among n evenly spread headings
func radialLat(c, n int) float64 {
	return math.Cos(2 * math.Pi * float64(c) / float64(n))
}

func radialLon(c, n int) float64 {
	return math.Sin(2 * math.Pi * float64(c) / float64(n))
}
