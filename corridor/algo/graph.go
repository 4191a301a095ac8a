package algo

import (
	"container/heap"
	"log"
	"math"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
)

type node[NT any] struct {
	attr NT
	out  []int // ids of outgoing edges
}

type edge[ET any] struct {
	from     int
	to       int
	length   float64
	attr     ET
	disabled bool
}

// SearchGraph is a directed graph with attribute payloads on nodes and
// edges. Edges are addressed by id so that parallel edges between the same
// node pair stay distinct and can be disabled individually.
//
// The topology (node and edge ids) is fixed after construction; edge
// lengths and disabled flags may change at runtime. Concurrent reads are
// safe against each other; writers must be serialized by the caller.
type SearchGraph[NT any, ET any] struct {
	nodes []node[NT]
	edges []edge[ET]

	mu *xsync.RBMutex
}

func NewSearchGraph[NT any, ET any]() *SearchGraph[NT, ET] {
	return &SearchGraph[NT, ET]{
		nodes: make([]node[NT], 0),
		edges: make([]edge[ET], 0),
		mu:    xsync.NewRBMutex(),
	}
}

// InitNode adds a node and returns its id.
func (g *SearchGraph[NT, ET]) InitNode(attr NT) int {
	g.nodes = append(g.nodes, node[NT]{attr: attr})
	return len(g.nodes) - 1
}

// InitEdge adds a directed edge and returns its id.
func (g *SearchGraph[NT, ET]) InitEdge(from, to int, length float64, attr ET) int {
	if from < 0 || from >= len(g.nodes) {
		log.Panicf("edge from node %d out of range [0,%d)", from, len(g.nodes))
	}
	if to < 0 || to >= len(g.nodes) {
		log.Panicf("edge to node %d out of range [0,%d)", to, len(g.nodes))
	}
	id := len(g.edges)
	g.edges = append(g.edges, edge[ET]{from: from, to: to, length: length, attr: attr})
	g.nodes[from].out = append(g.nodes[from].out, id)
	return id
}

func (g *SearchGraph[NT, ET]) EdgeLength(id int) (float64, error) {
	if id < 0 || id >= len(g.edges) {
		return 0, ErrNoEdge
	}
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	return g.edges[id].length, nil
}

func (g *SearchGraph[NT, ET]) SetEdgeLength(id int, length float64) error {
	if id < 0 || id >= len(g.edges) {
		return ErrNoEdge
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[id].length = length
	return nil
}

// DisableEdge removes the edge from search without forgetting it.
func (g *SearchGraph[NT, ET]) DisableEdge(id int) error {
	if id < 0 || id >= len(g.edges) {
		return ErrNoEdge
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[id].disabled = true
	return nil
}

func (g *SearchGraph[NT, ET]) EnableEdge(id int) error {
	if id < 0 || id >= len(g.edges) {
		return ErrNoEdge
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[id].disabled = false
	return nil
}

// PathItem is one step of a shortest path. Every item carries the node
// attribute; EdgeAttr is the edge leaving that node, so it is zero on the
// final item.
type PathItem[NT any, ET any] struct {
	NodeAttr NT
	EdgeAttr ET
}

func (g *SearchGraph[NT, ET]) reconstructPath(cameFrom map[int]int, end int) ([]PathItem[NT, ET], float64) {
	pathBeforeReversed := []PathItem[NT, ET]{{NodeAttr: g.nodes[end].attr}}
	cost := .0
	cur := end
	for {
		eid, ok := cameFrom[cur]
		if !ok {
			break
		}
		e := g.edges[eid]
		cost += e.length
		cur = e.from
		pathBeforeReversed = append(pathBeforeReversed, PathItem[NT, ET]{
			NodeAttr: g.nodes[cur].attr,
			EdgeAttr: e.attr,
		})
	}
	return lo.Reverse(pathBeforeReversed), cost
}

// ShortestPath runs Dijkstra from start to end over enabled edges and
// returns the path with its total length, or (nil, +Inf) if end is
// unreachable. The search stops as soon as end is popped. Between
// equal-length paths the result is whichever the heap pops first.
func (g *SearchGraph[NT, ET]) ShortestPath(start, end int) ([]PathItem[NT, ET], float64) {
	token := g.mu.RLock()
	defer g.mu.RUnlock(token)
	if start == end {
		return []PathItem[NT, ET]{{NodeAttr: g.nodes[start].attr}}, 0
	}
	openSet := make(PriorityQueue, 1)
	openSetMap := make(map[int]*Item, 1) // node id -> heap item
	cameFrom := make(map[int]int)        // node id -> incoming edge id
	dist := map[int]float64{start: 0}
	openSet[0] = &Item{Value: start, Priority: 0, Index: 0}
	openSetMap[start] = openSet[0]
	heap.Init(&openSet)
	for openSet.Len() > 0 {
		cur := heap.Pop(&openSet).(*Item).Value
		if cur == end {
			return g.reconstructPath(cameFrom, cur)
		}
		for _, eid := range g.nodes[cur].out {
			e := g.edges[eid]
			if e.disabled {
				continue
			}
			neighbor := e.to
			tentative := dist[cur] + e.length
			old, seen := dist[neighbor]
			if !seen {
				old = math.Inf(1)
			}
			if tentative < old {
				cameFrom[neighbor] = eid
				dist[neighbor] = tentative
				if item, inHeap := openSetMap[neighbor]; inHeap && item.Index >= 0 {
					// already in the frontier, lower its priority
					item.Priority = tentative
					heap.Fix(&openSet, item.Index)
				} else {
					item := &Item{Value: neighbor, Priority: tentative}
					heap.Push(&openSet, item)
					openSetMap[neighbor] = item
				}
			}
		}
	}
	return nil, math.Inf(1)
}
