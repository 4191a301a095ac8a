package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citylab/corridorsim/corridor"
	"github.com/citylab/corridorsim/dataset"
)

func TestGenerateDefaults(t *testing.T) {
	tables := dataset.Generate(dataset.GenerateConfig{Seed: 7})

	// 4 corridors x 6 hops, two-way, plus the hub
	assert.Len(t, tables.Intersections, 25)
	assert.Len(t, tables.Segments, 48)
	assert.Len(t, tables.Demand, 48)

	n, err := corridor.NewNetwork(tables.Segments, tables.Intersections)
	assert.NoError(t, err)
	assert.True(t, n.Validate().Valid)

	// every OD endpoint resolves to a real intersection
	for _, od := range tables.Demand {
		_, err := n.Intersection(od.Origin)
		assert.NoError(t, err)
		_, err = n.Intersection(od.Destination)
		assert.NoError(t, err)
		assert.NotEqual(t, od.Origin, od.Destination)
		assert.GreaterOrEqual(t, od.VehiclesPerHour, 200.0)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := dataset.Generate(dataset.GenerateConfig{Seed: 11})
	b := dataset.Generate(dataset.GenerateConfig{Seed: 11})
	assert.Equal(t, a, b)

	c := dataset.Generate(dataset.GenerateConfig{Seed: 12})
	assert.NotEqual(t, a.Demand, c.Demand)
}

func TestGenerateCustomShape(t *testing.T) {
	tables := dataset.Generate(dataset.GenerateConfig{
		Corridors:           2,
		SegmentsPerCorridor: 3,
		ODPairs:             10,
		Seed:                1,
	})
	assert.Len(t, tables.Intersections, 7)
	assert.Len(t, tables.Segments, 12)
	assert.Len(t, tables.Demand, 10)

	n, err := corridor.NewNetwork(tables.Segments, tables.Intersections)
	assert.NoError(t, err)

	// two-way corridors keep everything mutually reachable
	routes := n.Routes()
	path, err := routes.Route("I103", "I203")
	assert.NoError(t, err)
	assert.Equal(t, 6, len(path.Segments))
}
