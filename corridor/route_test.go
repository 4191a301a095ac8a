package corridor_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citylab/corridorsim/corridor"
)

func TestRouteBasics(t *testing.T) {
	n := lineNetwork(t)
	routes := n.Routes()

	path, err := routes.Route("A", "C")
	assert.NoError(t, err)
	assert.Equal(t, []string{"AB", "BC"}, path.Segments)
	assert.Equal(t, 4.0, path.DistanceKm)

	// same intersection: empty path, zero distance
	path, err = routes.Route("B", "B")
	assert.NoError(t, err)
	assert.Empty(t, path.Segments)
	assert.Equal(t, 0.0, path.DistanceKm)

	_, err = routes.Route("A", "nope")
	assert.ErrorIs(t, err, corridor.ErrIntersectionNotFound)
	_, err = routes.Route("nope", "A")
	assert.ErrorIs(t, err, corridor.ErrIntersectionNotFound)
}

func TestRouteUnreachable(t *testing.T) {
	n := lineNetwork(t)
	routes := n.Routes()

	assert.NoError(t, n.CloseSegment("AB"))
	path, err := routes.Route("A", "C")
	assert.NoError(t, err)
	assert.Empty(t, path.Segments)
	assert.True(t, math.IsInf(path.DistanceKm, 1))
}

func TestRouteCacheInvalidation(t *testing.T) {
	n := lineNetwork(t)
	routes := n.Routes()

	path, err := routes.Route("A", "C")
	assert.NoError(t, err)
	assert.Equal(t, []string{"AB", "BC"}, path.Segments)
	assert.Equal(t, 1, routes.Size())

	// a cached entry from before the closure must not be served after it
	assert.NoError(t, n.CloseSegment("BC"))
	path, err = routes.Route("A", "C")
	assert.NoError(t, err)
	assert.Empty(t, path.Segments)

	assert.NoError(t, n.ReopenSegment("BC"))
	path, err = routes.Route("A", "C")
	assert.NoError(t, err)
	assert.Equal(t, []string{"AB", "BC"}, path.Segments)
	assert.Equal(t, 4.0, path.DistanceKm)
}

func TestRouteCacheFlush(t *testing.T) {
	n := lineNetwork(t)
	routes := n.Routes()

	routes.Route("A", "B")
	routes.Route("B", "C")
	assert.Equal(t, 2, routes.Size())
	routes.Flush()
	assert.Equal(t, 0, routes.Size())

	// results survive a flush
	path, err := routes.Route("A", "B")
	assert.NoError(t, err)
	assert.Equal(t, []string{"AB"}, path.Segments)
}

func TestRouteZeroLanesBehavesLikeClosure(t *testing.T) {
	n := lineNetwork(t)
	routes := n.Routes()

	assert.NoError(t, n.UpdateLanes("AB", 0))
	path, err := routes.Route("A", "C")
	assert.NoError(t, err)
	assert.True(t, math.IsInf(path.DistanceKm, 1))

	assert.NoError(t, n.UpdateLanes("AB", 2))
	path, err = routes.Route("A", "C")
	assert.NoError(t, err)
	assert.Equal(t, []string{"AB", "BC"}, path.Segments)
}
