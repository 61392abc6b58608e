package sim

import (
	"fmt"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// GraphRouter is the Router implementation the repo ships for its own
// examples and tests: a static topology backed by gonum's weighted
// undirected graph, answering Query with Dijkstra's shortest path plus,
// when more than one candidate is requested, Yen's k-shortest-paths
// extension. Routing algorithms themselves are out of scope for the
// simulator core — GraphRouter exists on the example side of the Router
// interface, not inside it.
type GraphRouter struct {
	g        *simple.WeightedUndirectedGraph
	idByName map[string]int64
	nameByID map[int64]string
	k        int
}

// NewGraphRouter builds an empty router that will answer k candidate routes
// per query (k=1 means plain shortest-path).
func NewGraphRouter(k int) *GraphRouter {
	if k < 1 {
		k = 1
	}
	return &GraphRouter{
		g:        simple.NewWeightedUndirectedGraph(0, 0),
		idByName: make(map[string]int64),
		nameByID: make(map[int64]string),
		k:        k,
	}
}

func (r *GraphRouter) nodeFor(name string) simple.Node {
	id, ok := r.idByName[name]
	if !ok {
		id = int64(len(r.idByName))
		r.idByName[name] = id
		r.nameByID[id] = name
		r.g.AddNode(simple.Node(id))
	}
	return simple.Node(id)
}

// AddEdge adds an undirected edge between two node names with the given
// weight (typically a quantum channel's length in kilometers, or 1 for a
// plain hop-count metric).
func (r *GraphRouter) AddEdge(a, b string, weight float64) {
	na, nb := r.nodeFor(a), r.nodeFor(b)
	r.g.SetWeightedEdge(simple.WeightedEdge{F: na, T: nb, W: weight})
}

// Query implements Router using Dijkstra for the single best path when
// k <= 1 and Yen's algorithm for all k candidates, the best included, when
// k > 1.
func (r *GraphRouter) Query(src, dst string) ([]RouteCandidate, error) {
	srcID, ok := r.idByName[src]
	if !ok {
		return nil, fmt.Errorf("sim: router has no node %q", src)
	}
	dstID, ok := r.idByName[dst]
	if !ok {
		return nil, fmt.Errorf("sim: router has no node %q", dst)
	}

	if r.k <= 1 {
		shortest := path.DijkstraFrom(simple.Node(srcID), r.g)
		nodes, weight := shortest.To(dstID)
		if len(nodes) == 0 {
			return nil, nil
		}
		return []RouteCandidate{{Metric: weight, Route: r.names(nodes)}}, nil
	}

	paths := path.YenKShortestPaths(r.g, false, r.k, simple.Node(srcID), simple.Node(dstID))
	out := make([]RouteCandidate, 0, len(paths))
	for _, p := range paths {
		out = append(out, RouteCandidate{Metric: pathWeight(r.g, p), Route: r.names(p)})
	}
	return out, nil
}

func (r *GraphRouter) names(nodes []graph.Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = r.nameByID[n.ID()]
	}
	return out
}

func pathWeight(g *simple.WeightedUndirectedGraph, nodes []graph.Node) float64 {
	total := 0.0
	for i := 0; i+1 < len(nodes); i++ {
		if e := g.WeightedEdge(nodes[i].ID(), nodes[i+1].ID()); e != nil {
			total += e.Weight()
		}
	}
	return total
}
