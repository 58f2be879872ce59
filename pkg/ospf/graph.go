// Package ospf resolves per-area shortest paths over a weighted graph of
// internal routers, feeding IGP cost and next-hop sets to the BGP
// decision process. External routers are never part of the graph.
package ospf

import (
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
)

// AreaID identifies an OSPF area. Area zero is the backbone.
type AreaID uint32

// Backbone is the area every ABR must touch to reach another area.
const Backbone AreaID = 0

type edge struct {
	to   ids.RouterID
	area AreaID
	cost metric.Cost
}

// Graph is a weighted directed graph of OSPF-speaking routers. The same
// undirected link may carry independently configured costs in each
// direction, mirroring real link asymmetry.
type Graph struct {
	adj map[ids.RouterID][]edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{adj: map[ids.RouterID][]edge{}}
}

// AddRouter ensures r participates in the graph even with no links yet,
// so it can appear as an isolated source or destination.
func (g *Graph) AddRouter(r ids.RouterID) {
	if _, ok := g.adj[r]; !ok {
		g.adj[r] = nil
	}
}

// SetLink installs or updates the directed edge from -> to with the given
// cost and area. A cost at or above metric.MaxWeight is treated as a
// down link: the edge is removed from the graph entirely.
func (g *Graph) SetLink(from, to ids.RouterID, area AreaID, cost metric.Cost) {
	g.AddRouter(from)
	g.AddRouter(to)
	edges := g.adj[from]
	for i, e := range edges {
		if e.to == to {
			if cost >= metric.MaxWeight {
				g.adj[from] = append(edges[:i], edges[i+1:]...)
				return
			}
			edges[i] = edge{to: to, area: area, cost: cost}
			return
		}
	}
	if cost >= metric.MaxWeight {
		return
	}
	g.adj[from] = append(edges, edge{to: to, area: area, cost: cost})
}

// RemoveLink deletes the directed edge from -> to, if present.
func (g *Graph) RemoveLink(from, to ids.RouterID) {
	edges := g.adj[from]
	for i, e := range edges {
		if e.to == to {
			g.adj[from] = append(edges[:i], edges[i+1:]...)
			return
		}
	}
}

// Routers returns every router id known to the graph, in no particular
// order.
func (g *Graph) Routers() []ids.RouterID {
	out := make([]ids.RouterID, 0, len(g.adj))
	for r := range g.adj {
		out = append(out, r)
	}
	return out
}

func (g *Graph) neighbors(r ids.RouterID) []edge {
	return g.adj[r]
}
