package corridor

import (
	"sort"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/citylab/corridorsim/corridor/algo"
)

const (
	// green time clamp bounds for signal retiming (seconds)
	MinGreenTimeSec = 15
	MaxGreenTimeSec = 90
)

// Network owns the directed segment graph and all infrastructure state.
// It is the only holder of Intersection/Segment records; mutations go
// through its methods so that the route cache generation is bumped before
// the mutating call returns.
//
// The network assumes a single writer. Concurrent readers (route queries,
// topology reports) are safe against each other but must not race with a
// mutation; serializing mutations is the embedding caller's job.
type Network struct {
	segments      map[string]*Segment
	intersections map[string]*Intersection

	// sorted id lists for deterministic iteration
	segmentIDs      []string
	intersectionIDs []string

	// inbound open/closed segment ids per intersection, for signal delay
	inbound map[string][]string

	graph   *algo.SearchGraph[string, string] // node attr: intersection id, edge attr: segment id
	nodeIDs map[string]int                    // intersection id -> graph node id
	edgeIDs map[string]int                    // segment id -> graph edge id

	generation atomic.Uint64

	routes *RouteCache
}

// NewNetwork builds the directed adjacency graph from the two entity
// tables. Malformed input (duplicate ids, dangling endpoints, negative
// attributes) is fatal and aborts the build.
func NewNetwork(segments []Segment, intersections []Intersection) (*Network, error) {
	n := &Network{
		segments:      make(map[string]*Segment, len(segments)),
		intersections: make(map[string]*Intersection, len(intersections)),
		inbound:       make(map[string][]string),
		graph:         algo.NewSearchGraph[string, string](),
		nodeIDs:       make(map[string]int, len(intersections)),
		edgeIDs:       make(map[string]int, len(segments)),
	}
	for i := range intersections {
		in := intersections[i]
		if in.ID == "" {
			return nil, errors.Errorf("intersection row %d: empty id", i)
		}
		if _, ok := n.intersections[in.ID]; ok {
			return nil, errors.Errorf("duplicate intersection id %s", in.ID)
		}
		if in.HasSignal && in.CycleTimeSec <= 0 {
			return nil, errors.Errorf("intersection %s: signalized with cycle time %d", in.ID, in.CycleTimeSec)
		}
		n.intersections[in.ID] = &in
		n.intersectionIDs = append(n.intersectionIDs, in.ID)
	}
	sort.Strings(n.intersectionIDs)
	for i := range segments {
		seg := segments[i]
		if seg.ID == "" {
			return nil, errors.Errorf("segment row %d: empty id", i)
		}
		if _, ok := n.segments[seg.ID]; ok {
			return nil, errors.Errorf("duplicate segment id %s", seg.ID)
		}
		if _, ok := n.intersections[seg.From]; !ok {
			return nil, errors.Errorf("segment %s: from_intersection %s not found", seg.ID, seg.From)
		}
		if _, ok := n.intersections[seg.To]; !ok {
			return nil, errors.Errorf("segment %s: to_intersection %s not found", seg.ID, seg.To)
		}
		if seg.LengthKm <= 0 {
			return nil, errors.Errorf("segment %s: non-positive length %v", seg.ID, seg.LengthKm)
		}
		if seg.Lanes < 0 {
			return nil, errors.Errorf("segment %s: negative lane count %d", seg.ID, seg.Lanes)
		}
		if seg.SpeedLimitKmh <= 0 {
			return nil, errors.Errorf("segment %s: non-positive speed limit %v", seg.ID, seg.SpeedLimitKmh)
		}
		n.segments[seg.ID] = &seg
		n.segmentIDs = append(n.segmentIDs, seg.ID)
	}
	sort.Strings(n.segmentIDs)

	// nodes in sorted order so graph ids are reproducible across builds
	for _, id := range n.intersectionIDs {
		n.nodeIDs[id] = n.graph.InitNode(id)
	}
	for _, id := range n.segmentIDs {
		seg := n.segments[id]
		eid := n.graph.InitEdge(n.nodeIDs[seg.From], n.nodeIDs[seg.To], seg.LengthKm, id)
		n.edgeIDs[id] = eid
		if seg.Closed || seg.Lanes == 0 {
			n.graph.DisableEdge(eid)
		}
		n.inbound[seg.To] = append(n.inbound[seg.To], id)
	}

	n.routes = newRouteCache(n)
	log.Infof("network built: %d intersections, %d segments", len(n.intersections), len(n.segments))
	return n, nil
}

// Generation is the mutation counter used to invalidate cached routes.
// It increases monotonically; every mutation bumps it before returning.
func (n *Network) Generation() uint64 { return n.generation.Load() }

func (n *Network) bump() { n.generation.Add(1) }

// Routes is the shortest-path cache bound to this network's lifetime.
func (n *Network) Routes() *RouteCache { return n.routes }

// Segment returns a copy of the segment record.
func (n *Network) Segment(id string) (Segment, error) {
	seg, ok := n.segments[id]
	if !ok {
		return Segment{}, ErrSegmentNotFound
	}
	return *seg, nil
}

// Intersection returns a copy of the intersection record.
func (n *Network) Intersection(id string) (Intersection, error) {
	in, ok := n.intersections[id]
	if !ok {
		return Intersection{}, ErrIntersectionNotFound
	}
	return *in, nil
}

// SegmentIDs returns all segment ids in sorted order.
func (n *Network) SegmentIDs() []string { return n.segmentIDs }

// IntersectionIDs returns all intersection ids in sorted order.
func (n *Network) IntersectionIDs() []string { return n.intersectionIDs }

// SegmentsInZone returns the ids of all segments in a zone, sorted.
func (n *Network) SegmentsInZone(zoneID string) []string {
	return lo.Filter(n.segmentIDs, func(id string, _ int) bool {
		return n.segments[id].ZoneID == zoneID
	})
}

// IntersectionsInZone returns the ids of all intersections in a zone, sorted.
func (n *Network) IntersectionsInZone(zoneID string) []string {
	return lo.Filter(n.intersectionIDs, func(id string, _ int) bool {
		return n.intersections[id].ZoneID == zoneID
	})
}

// Zones returns all zone ids present on segments, sorted.
func (n *Network) Zones() []string {
	zones := lo.Uniq(lo.Map(n.segmentIDs, func(id string, _ int) string {
		return n.segments[id].ZoneID
	}))
	sort.Strings(zones)
	return zones
}

// InboundSegments returns the ids of segments entering an intersection.
func (n *Network) InboundSegments(intersectionID string) []string {
	return n.inbound[intersectionID]
}

// UpdateLanes sets the lane count of a segment. Zero lanes disables the
// segment's edge; restoring lanes on an open segment re-enables it.
func (n *Network) UpdateLanes(segmentID string, lanes int) error {
	if lanes < 0 {
		return ErrNegativeLanes
	}
	seg, ok := n.segments[segmentID]
	if !ok {
		return ErrSegmentNotFound
	}
	old := seg.Lanes
	seg.Lanes = lanes
	eid := n.edgeIDs[segmentID]
	if lanes == 0 {
		n.graph.DisableEdge(eid)
	} else if !seg.Closed {
		n.graph.EnableEdge(eid)
	}
	n.bump()
	log.Infof("segment %s lanes: %d -> %d", segmentID, old, lanes)
	return nil
}

// CloseSegment removes the segment's directed edge from routing and marks
// it closed.
func (n *Network) CloseSegment(segmentID string) error {
	seg, ok := n.segments[segmentID]
	if !ok {
		return ErrSegmentNotFound
	}
	if seg.Closed {
		return ErrAlreadyClosed
	}
	seg.Closed = true
	n.graph.DisableEdge(n.edgeIDs[segmentID])
	n.bump()
	log.Infof("segment %s closed: %s -> %s", segmentID, seg.From, seg.To)
	return nil
}

// ReopenSegment re-adds the edge of a previously closed segment.
func (n *Network) ReopenSegment(segmentID string) error {
	seg, ok := n.segments[segmentID]
	if !ok {
		return ErrSegmentNotFound
	}
	if !seg.Closed {
		return ErrNotClosed
	}
	seg.Closed = false
	if seg.Lanes > 0 {
		n.graph.EnableEdge(n.edgeIDs[segmentID])
	}
	n.bump()
	log.Infof("segment %s reopened", segmentID)
	return nil
}

// UpdateSignalTiming shifts the green time at an intersection by delta
// seconds, clamped to [MinGreenTimeSec, MaxGreenTimeSec].
func (n *Network) UpdateSignalTiming(intersectionID string, greenDeltaSec int) error {
	in, ok := n.intersections[intersectionID]
	if !ok {
		return ErrIntersectionNotFound
	}
	old := in.GreenTimeSec
	in.GreenTimeSec = lo.Clamp(old+greenDeltaSec, MinGreenTimeSec, MaxGreenTimeSec)
	n.bump()
	log.Infof("intersection %s green time: %ds -> %ds", intersectionID, old, in.GreenTimeSec)
	return nil
}

// SetSignalTiming sets absolute cycle/green times; nil leaves a field
// unchanged. Used by the intervention engine, which snapshots prior values.
func (n *Network) SetSignalTiming(intersectionID string, cycleSec, greenSec *int) error {
	in, ok := n.intersections[intersectionID]
	if !ok {
		return ErrIntersectionNotFound
	}
	if cycleSec != nil {
		in.CycleTimeSec = *cycleSec
	}
	if greenSec != nil {
		in.GreenTimeSec = *greenSec
	}
	n.bump()
	return nil
}

// Topology reports network-wide structure statistics.
func (n *Network) Topology() TopologyReport {
	report := TopologyReport{
		Segments:       len(n.segments),
		Intersections:  len(n.intersections),
		SegmentsByZone: make(map[string]int),
	}
	for _, seg := range n.segments {
		report.TotalLengthKm += seg.LengthKm
		report.TotalLanes += seg.Lanes
		report.SegmentsByZone[seg.ZoneID]++
	}
	report.Zones = len(report.SegmentsByZone)
	for _, in := range n.intersections {
		if in.HasSignal {
			report.SignalizedIntersections++
		}
	}
	return report
}

// Validate checks structural integrity: dangling segment endpoints,
// isolated intersections (no open segment in either direction) and
// intersections unreachable from the first node by BFS over open edges.
// It reports and never mutates.
func (n *Network) Validate() ValidationReport {
	issues := make([]string, 0)

	outbound := make(map[string][]string)
	degree := make(map[string]int)
	for _, id := range n.segmentIDs {
		seg := n.segments[id]
		if _, ok := n.intersections[seg.From]; !ok {
			issues = append(issues, id+": from_intersection "+seg.From+" not found")
		}
		if _, ok := n.intersections[seg.To]; !ok {
			issues = append(issues, id+": to_intersection "+seg.To+" not found")
		}
		if seg.Closed || seg.Lanes == 0 {
			continue
		}
		outbound[seg.From] = append(outbound[seg.From], seg.To)
		degree[seg.From]++
		degree[seg.To]++
	}

	for _, id := range n.intersectionIDs {
		if degree[id] == 0 {
			issues = append(issues, "isolated intersection: "+id)
		}
	}

	// BFS reachability from an arbitrary (first sorted) intersection
	if len(n.intersectionIDs) > 0 {
		start := n.intersectionIDs[0]
		visited := map[string]bool{start: true}
		queue := []string{start}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, next := range outbound[cur] {
				if !visited[next] {
					visited[next] = true
					queue = append(queue, next)
				}
			}
		}
		for _, id := range n.intersectionIDs {
			if !visited[id] {
				issues = append(issues, "unreachable intersection: "+id)
			}
		}
	}

	return ValidationReport{
		Valid:    len(issues) == 0,
		Issues:   issues,
		Topology: n.Topology(),
	}
}
