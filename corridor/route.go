package corridor

import (
	"math"

	"github.com/puzpuzpuz/xsync/v3"
)

type odKey struct {
	origin      string
	destination string
}

type cachedRoute struct {
	path RoutePath
	gen  uint64
}

// RouteCache memoizes shortest paths over the network, keyed by the
// (origin, destination) pair. Entries are tagged with the network
// generation they were computed under and recomputed lazily when stale, so
// no caller ever observes a route predating a mutation it already issued.
//
// Between equal-length alternatives the returned path is whichever the
// search heap pops first; this is stable for a fixed network build but not
// guaranteed across implementations.
type RouteCache struct {
	network *Network
	memo    *xsync.MapOf[odKey, *cachedRoute]
}

func newRouteCache(n *Network) *RouteCache {
	return &RouteCache{
		network: n,
		memo:    xsync.NewMapOf[odKey, *cachedRoute](),
	}
}

// Route returns the shortest open path between two intersections, with
// edge weight = segment length (km). An unreachable pair yields an empty
// path with +Inf distance and no error; unknown endpoints are an error.
func (c *RouteCache) Route(origin, destination string) (RoutePath, error) {
	startNode, ok := c.network.nodeIDs[origin]
	if !ok {
		return RoutePath{}, ErrIntersectionNotFound
	}
	endNode, ok := c.network.nodeIDs[destination]
	if !ok {
		return RoutePath{}, ErrIntersectionNotFound
	}
	key := odKey{origin: origin, destination: destination}
	// the generation is read before the search, so an interleaved mutation
	// can only make the stored entry look stale, never falsely fresh
	gen := c.network.Generation()
	if entry, hit := c.memo.Load(key); hit && entry.gen == gen {
		return entry.path, nil
	}
	path := c.compute(startNode, endNode)
	c.memo.Store(key, &cachedRoute{path: path, gen: gen})
	return path, nil
}

func (c *RouteCache) compute(startNode, endNode int) RoutePath {
	items, cost := c.network.graph.ShortestPath(startNode, endNode)
	if math.IsInf(cost, 1) {
		return RoutePath{Segments: []string{}, DistanceKm: math.Inf(1)}
	}
	segments := make([]string, 0, len(items))
	for _, item := range items[:max(len(items)-1, 0)] {
		segments = append(segments, item.EdgeAttr)
	}
	return RoutePath{Segments: segments, DistanceKm: cost}
}

// Size is the number of memoized entries, fresh or stale.
func (c *RouteCache) Size() int { return c.memo.Size() }

// Flush drops every memoized entry. Generation tagging already prevents
// stale reuse; this only releases memory.
func (c *RouteCache) Flush() { c.memo.Clear() }
