package ospf

import (
	"container/heap"
	"sort"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
)

// layerKey identifies one (router, area) node of the layered graph used
// to resolve inter-area paths: a router touching multiple areas gets one
// node per area, joined by zero-cost transit edges at routers that act
// as area border routers.
type layerKey struct {
	router ids.RouterID
	area   AreaID
}

// Result is the resolved (next-hop set, cost) pair for one (src, dst)
// query. NextHops is empty and Cost is metric.Inf when dst is
// unreachable from src.
type Result struct {
	NextHops []ids.RouterID
	Cost     metric.Cost
}

// Table is a precomputed all-pairs resolution, rebuilt whenever the
// underlying graph changes. Computing it once per change and querying it
// repeatedly is the "global" OSPF realization the spec permits as an
// alternative to simulating LSA flooding directly; the observable
// (next-hop set, cost) function is what callers depend on.
type Table struct {
	byRouter map[ids.RouterID]map[ids.RouterID]Result
}

// Resolve builds a Table for every router in g against every other router,
// honoring per-link areas and area-border transit.
func Resolve(g *Graph) *Table {
	t := &Table{byRouter: map[ids.RouterID]map[ids.RouterID]Result{}}
	layered, routerAreas := buildLayers(g)
	for _, src := range g.Routers() {
		t.byRouter[src] = resolveFrom(src, layered, routerAreas)
	}
	return t
}

// Query returns the resolved next-hop set and cost from src to dst.
func (t *Table) Query(src, dst ids.RouterID) Result {
	if src == dst {
		return Result{Cost: metric.Zero}
	}
	byDst, ok := t.byRouter[src]
	if !ok {
		return Result{Cost: metric.Inf}
	}
	res, ok := byDst[dst]
	if !ok {
		return Result{Cost: metric.Inf}
	}
	return res
}

func buildLayers(g *Graph) (map[layerKey][]layerEdge, map[ids.RouterID]map[AreaID]bool) {
	routerAreas := map[ids.RouterID]map[AreaID]bool{}
	mark := func(r ids.RouterID, a AreaID) {
		if routerAreas[r] == nil {
			routerAreas[r] = map[AreaID]bool{}
		}
		routerAreas[r][a] = true
	}
	edges := map[layerKey][]layerEdge{}
	for _, r := range g.Routers() {
		for _, e := range g.neighbors(r) {
			mark(r, e.area)
			mark(e.to, e.area)
			from := layerKey{router: r, area: e.area}
			to := layerKey{router: e.to, area: e.area}
			edges[from] = append(edges[from], layerEdge{to: to, cost: e.cost})
		}
	}
	// routers with no links still participate, defaulted to the backbone.
	for _, r := range g.Routers() {
		if routerAreas[r] == nil {
			mark(r, Backbone)
		}
	}
	// zero-cost transit edges at every area border router: any router
	// touching both the backbone and another area can ferry traffic
	// between them.
	for r, areas := range routerAreas {
		if !areas[Backbone] {
			continue
		}
		for a := range areas {
			if a == Backbone {
				continue
			}
			bb := layerKey{router: r, area: Backbone}
			other := layerKey{router: r, area: a}
			edges[bb] = append(edges[bb], layerEdge{to: other, cost: metric.Zero})
			edges[other] = append(edges[other], layerEdge{to: bb, cost: metric.Zero})
		}
	}
	return edges, routerAreas
}

type layerEdge struct {
	to   layerKey
	cost metric.Cost
}

type heapItem struct {
	node layerKey
	dist metric.Cost
}

type nodeHeap []heapItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// resolveFrom runs Dijkstra over the layered graph seeded from every
// (src, area) node, then sweeps the resulting shortest-path DAG in the
// order Dijkstra settled its nodes (distance order, with a node reached
// over a zero-cost transit edge after the node it was reached from) to
// accumulate ECMP first-hop sets.
func resolveFrom(src ids.RouterID, layered map[layerKey][]layerEdge, routerAreas map[ids.RouterID]map[AreaID]bool) map[ids.RouterID]Result {
	dist := map[layerKey]metric.Cost{}
	for r, areas := range routerAreas {
		for a := range areas {
			dist[layerKey{router: r, area: a}] = metric.Inf
		}
	}

	h := &nodeHeap{}
	heap.Init(h)
	for a := range routerAreas[src] {
		node := layerKey{router: src, area: a}
		dist[node] = metric.Zero
		heap.Push(h, heapItem{node: node, dist: metric.Zero})
	}

	visited := map[layerKey]bool{}
	var order []layerKey
	for h.Len() > 0 {
		item := heap.Pop(h).(heapItem)
		if visited[item.node] {
			continue
		}
		visited[item.node] = true
		order = append(order, item.node)
		for _, e := range layered[item.node] {
			nd := dist[item.node].Add(e.cost)
			if nd < dist[e.to] {
				dist[e.to] = nd
				heap.Push(h, heapItem{node: e.to, dist: nd})
			}
		}
	}

	firstHop := map[layerKey]map[ids.RouterID]bool{}
	for _, u := range order {
		for _, e := range layered[u] {
			if !dist[e.to].Finite() {
				continue
			}
			if !dist[u].Add(e.cost).EqualWithin(dist[e.to]) {
				continue
			}
			if firstHop[e.to] == nil {
				firstHop[e.to] = map[ids.RouterID]bool{}
			}
			if u.router == src {
				if e.to.router != src {
					firstHop[e.to][e.to.router] = true
				}
				continue
			}
			for hop := range firstHop[u] {
				firstHop[e.to][hop] = true
			}
		}
	}

	out := map[ids.RouterID]Result{}
	for node, d := range dist {
		if node.router == src || !d.Finite() {
			continue
		}
		existing, ok := out[node.router]
		if !ok || d < existing.Cost {
			hops := setToSlice(firstHop[node])
			out[node.router] = Result{Cost: d, NextHops: hops}
		} else if d.EqualWithin(existing.Cost) {
			merged := map[ids.RouterID]bool{}
			for _, r := range existing.NextHops {
				merged[r] = true
			}
			for r := range firstHop[node] {
				merged[r] = true
			}
			out[node.router] = Result{Cost: existing.Cost, NextHops: setToSlice(merged)}
		}
	}
	return out
}

func setToSlice(s map[ids.RouterID]bool) []ids.RouterID {
	out := make([]ids.RouterID, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
