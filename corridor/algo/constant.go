package algo

import "errors"

var (
	// edge id outside the graph
	ErrNoEdge = errors.New("no such edge in graph")
)
