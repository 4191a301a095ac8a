package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"

	"github.com/citylab/corridorsim/corridor"
)

// csvTable reads a CSV file into header-keyed rows.
type csvTable struct {
	header map[string]int
	rows   [][]string
}

func readCSVTable(path string) (*csvTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return nil, errors.Wrapf(err, "read header of %s", path)
	}
	t := &csvTable{header: make(map[string]int, len(header))}
	for i, name := range header {
		t.header[name] = i
	}
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", path)
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

// rowScanner extracts typed columns out of one row, remembering the first
// error so callers can chain reads and check once.
type rowScanner struct {
	table *csvTable
	row   []string
	err   error
}

func (s *rowScanner) str(col string) string {
	if s.err != nil {
		return ""
	}
	i, ok := s.table.header[col]
	if !ok {
		s.err = errors.Errorf("missing column %s", col)
		return ""
	}
	return s.row[i]
}

func (s *rowScanner) float(col string) float64 {
	raw := s.str(col)
	if s.err != nil {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.err = errors.Wrapf(err, "column %s", col)
	}
	return v
}

func (s *rowScanner) int(col string) int {
	return int(s.float(col))
}

func (s *rowScanner) boolean(col string) bool {
	raw := s.str(col)
	if s.err != nil {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		s.err = errors.Wrapf(err, "column %s", col)
	}
	return v
}

// LoadCSV parses the three input tables from CSV files. Any malformed row
// is fatal: the loader feeds network construction, where bad input aborts
// the whole build.
func LoadCSV(segmentsPath, intersectionsPath, odPath string) (*Tables, error) {
	tables := &Tables{}

	t, err := readCSVTable(segmentsPath)
	if err != nil {
		return nil, err
	}
	for i, row := range t.rows {
		s := rowScanner{table: t, row: row}
		seg := corridor.Segment{
			ID:            s.str("segment_id"),
			From:          s.str("from_intersection"),
			To:            s.str("to_intersection"),
			LengthKm:      s.float("length_km"),
			Lanes:         s.int("lanes"),
			SpeedLimitKmh: s.float("speed_limit_kmh"),
			IsOneWay:      s.boolean("is_one_way"),
			ZoneID:        s.str("zone_id"),
			RoadType:      s.str("road_type"),
			RoadName:      s.str("road_name"),
		}
		if s.err != nil {
			return nil, errors.Wrapf(s.err, "%s row %d", segmentsPath, i+2)
		}
		tables.Segments = append(tables.Segments, seg)
	}

	t, err = readCSVTable(intersectionsPath)
	if err != nil {
		return nil, err
	}
	for i, row := range t.rows {
		s := rowScanner{table: t, row: row}
		in := corridor.Intersection{
			ID:           s.str("intersection_id"),
			Latitude:     s.float("latitude"),
			Longitude:    s.float("longitude"),
			HasSignal:    s.boolean("has_signal"),
			CycleTimeSec: s.int("cycle_time_sec"),
			GreenTimeSec: s.int("green_time_sec"),
			RoadName:     s.str("road_name"),
			ZoneID:       s.str("zone_id"),
		}
		if s.err != nil {
			return nil, errors.Wrapf(s.err, "%s row %d", intersectionsPath, i+2)
		}
		tables.Intersections = append(tables.Intersections, in)
	}

	t, err = readCSVTable(odPath)
	if err != nil {
		return nil, err
	}
	for i, row := range t.rows {
		s := rowScanner{table: t, row: row}
		od := corridor.ODEntry{
			Origin:          s.str("origin_intersection"),
			Destination:     s.str("destination_intersection"),
			VehiclesPerHour: s.float("vehicles_per_hour"),
			VehicleType:     corridor.VehicleType(s.str("vehicle_type")),
		}
		if s.err != nil {
			return nil, errors.Wrapf(s.err, "%s row %d", odPath, i+2)
		}
		tables.Demand = append(tables.Demand, od)
	}

	log.Infof("loaded CSV tables: %d segments, %d intersections, %d OD entries",
		len(tables.Segments), len(tables.Intersections), len(tables.Demand))
	return tables, nil
}
