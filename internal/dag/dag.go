// SPDX-License-Identifier: MPL-2.0

// Package dag provides directed acyclic graph operations for topological sorting
// and cycle detection. It orders environments so that every environment runs
// after the environments named in its depends list.
package dag

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("dependency cycle")

type (
	// CycleError indicates that the graph contains a cycle, preventing topological ordering.
	CycleError[N ~string] struct {
		// Cycle contains the nodes that could not be ordered, in insertion order.
		Cycle []N
	}

	// Graph is a directed graph for topological sorting.
	// Edges represent "must run before" relationships:
	// an edge from A to B means A must complete before B starts.
	Graph[N ~string] struct {
		// adjacency maps each node to its outgoing neighbors (nodes that depend on it).
		adjacency map[N][]N
		// index records the insertion position of each node.
		index map[N]int
		// nodes tracks all nodes in insertion order for deterministic output.
		nodes []N
	}
)

func (e *CycleError[N]) Error() string {
	parts := make([]string, len(e.Cycle))
	for i, n := range e.Cycle {
		parts[i] = string(n)
	}
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(parts, " -> "))
}

// Unwrap returns ErrCycle so callers can use errors.Is for programmatic detection.
func (e *CycleError[N]) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New[N ~string]() *Graph[N] {
	return &Graph[N]{
		adjacency: make(map[N][]N),
		index:     make(map[N]int),
	}
}

// AddNode adds a node to the graph. If the node already exists, this is a no-op.
func (g *Graph[N]) AddNode(name N) {
	if _, ok := g.index[name]; ok {
		return
	}
	g.index[name] = len(g.nodes)
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, meaning "from" must run before "to".
// Both nodes are implicitly added if they don't exist.
func (g *Graph[N]) AddEdge(from, to N) {
	g.AddNode(from)
	g.AddNode(to)
	g.adjacency[from] = append(g.adjacency[from], to)
}

// Len returns the number of nodes.
func (g *Graph[N]) Len() int { return len(g.nodes) }

// TopologicalSort returns a valid execution order using Kahn's algorithm.
// Returns *CycleError if the graph contains a cycle.
// The sort is stable: whenever several nodes are ready, the one added first
// is emitted first, so a graph without edges keeps its insertion order.
func (g *Graph[N]) TopologicalSort() ([]N, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[N]int, len(g.nodes))
	for _, neighbors := range g.adjacency {
		for _, neighbor := range neighbors {
			inDegree[neighbor]++
		}
	}

	// ready holds insertion indexes of nodes without pending predecessors.
	ready := make([]bool, len(g.nodes))
	for i, node := range g.nodes {
		ready[i] = inDegree[node] == 0
	}

	result := make([]N, 0, len(g.nodes))
	for {
		next := -1
		for i, ok := range ready {
			if ok {
				next = i
				break
			}
		}
		if next < 0 {
			break
		}
		ready[next] = false

		node := g.nodes[next]
		result = append(result, node)
		for _, neighbor := range g.adjacency[node] {
			inDegree[neighbor]--
			if inDegree[neighbor] == 0 {
				ready[g.index[neighbor]] = true
			}
		}
	}

	if len(result) != len(g.nodes) {
		var cycleNodes []N
		for _, node := range g.nodes {
			if inDegree[node] > 0 {
				cycleNodes = append(cycleNodes, node)
			}
		}
		return nil, &CycleError[N]{Cycle: cycleNodes}
	}

	return result, nil
}
