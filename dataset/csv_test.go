package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citylab/corridorsim/corridor"
	"github.com/citylab/corridorsim/dataset"
)

func writeFile(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const (
	segmentsCSV = `segment_id,from_intersection,to_intersection,length_km,lanes,speed_limit_kmh,is_one_way,zone_id,road_type,road_name
AB,A,B,2.0,2,50,false,Z01,arterial,Main Road
BA,B,A,2.0,2,50,false,Z01,arterial,Main Road
`
	intersectionsCSV = `intersection_id,latitude,longitude,has_signal,cycle_time_sec,green_time_sec,road_name,zone_id
A,28.61,77.20,false,0,0,Main Road,Z01
B,28.63,77.21,true,120,60,Main Road,Z01
`
	odCSV = `origin_intersection,destination_intersection,vehicles_per_hour,vehicle_type
A,B,1200,Car
B,A,400,Truck
`
)

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	segPath := writeFile(t, dir, "segments.csv", segmentsCSV)
	interPath := writeFile(t, dir, "intersections.csv", intersectionsCSV)
	odPath := writeFile(t, dir, "od.csv", odCSV)

	tables, err := dataset.LoadCSV(segPath, interPath, odPath)
	assert.NoError(t, err)
	assert.Len(t, tables.Segments, 2)
	assert.Len(t, tables.Intersections, 2)
	assert.Len(t, tables.Demand, 2)

	seg := tables.Segments[0]
	assert.Equal(t, "AB", seg.ID)
	assert.Equal(t, 2.0, seg.LengthKm)
	assert.Equal(t, 2, seg.Lanes)
	assert.False(t, seg.IsOneWay)

	in := tables.Intersections[1]
	assert.True(t, in.HasSignal)
	assert.Equal(t, 120, in.CycleTimeSec)

	od := tables.Demand[1]
	assert.Equal(t, corridor.VehicleTruck, od.VehicleType)
	assert.Equal(t, 400.0, od.VehiclesPerHour)

	// the loaded tables feed straight into network construction
	n, err := corridor.NewNetwork(tables.Segments, tables.Intersections)
	assert.NoError(t, err)
	assert.True(t, n.Validate().Valid)
}

func TestLoadCSVMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := dataset.LoadCSV(
		filepath.Join(dir, "missing.csv"),
		filepath.Join(dir, "missing.csv"),
		filepath.Join(dir, "missing.csv"),
	)
	assert.Error(t, err)
}

func TestLoadCSVMissingColumn(t *testing.T) {
	dir := t.TempDir()
	segPath := writeFile(t, dir, "segments.csv", "segment_id,from_intersection\nAB,A\n")
	interPath := writeFile(t, dir, "intersections.csv", intersectionsCSV)
	odPath := writeFile(t, dir, "od.csv", odCSV)

	_, err := dataset.LoadCSV(segPath, interPath, odPath)
	assert.ErrorContains(t, err, "missing column")
	assert.ErrorContains(t, err, "row 2")
}

func TestLoadCSVBadValue(t *testing.T) {
	dir := t.TempDir()
	segPath := writeFile(t, dir, "segments.csv", segmentsCSV)
	interPath := writeFile(t, dir, "intersections.csv", intersectionsCSV)
	odPath := writeFile(t, dir, "od.csv",
		"origin_intersection,destination_intersection,vehicles_per_hour,vehicle_type\nA,B,lots,Car\n")

	_, err := dataset.LoadCSV(segPath, interPath, odPath)
	assert.ErrorContains(t, err, "vehicles_per_hour")
}
