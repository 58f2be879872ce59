package algebra

import (
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simerr"
)

// distanceVectorRib holds one destination's learned attributes and the
// current best among them.
type distanceVectorRib[T any] struct {
	ribIn    map[ids.RouterID]T
	best     T
	nextHops map[ids.RouterID]bool
}

// DistanceVector is a distance-vector protocol over an arbitrary routing
// algebra: ECMP across every neighbor tied for best, no path tracked and
// so no loop detection of its own. Does not perform split-horizon
// filtering.
type DistanceVector[T any] struct {
	router    ids.RouterID
	alg       Algebra[T]
	neighbors map[ids.RouterID]bool
	edgeAttr  map[ids.RouterID]T
	rib       map[ids.RouterID]*distanceVectorRib[T]
}

// NewDistanceVector returns a DistanceVector instance for router, seeded
// with its own origin entry at alg's identity attribute.
func NewDistanceVector[T any](router ids.RouterID, alg Algebra[T]) *DistanceVector[T] {
	dv := &DistanceVector[T]{
		router:    router,
		alg:       alg,
		neighbors: make(map[ids.RouterID]bool),
		edgeAttr:  make(map[ids.RouterID]T),
		rib:       make(map[ids.RouterID]*distanceVectorRib[T]),
	}
	dv.rib[router] = &distanceVectorRib[T]{
		ribIn:    make(map[ids.RouterID]T),
		best:     alg.Identity(),
		nextHops: map[ids.RouterID]bool{router: true},
	}
	return dv
}

func (dv *DistanceVector[T]) ID() ids.RouterID { return dv.router }

func (dv *DistanceVector[T]) Name() string { return "distance-vector" }

// SetEdgeAttribute assigns the per-edge attribute combined into whatever
// neighbor advertises over that edge, e.g. a link's IGP cost.
func (dv *DistanceVector[T]) SetEdgeAttribute(neighbor ids.RouterID, attr T) {
	dv.edgeAttr[neighbor] = attr
}

func (dv *DistanceVector[T]) ribFor(dst ids.RouterID) *distanceVectorRib[T] {
	r, ok := dv.rib[dst]
	if !ok {
		r = &distanceVectorRib[T]{
			ribIn:    make(map[ids.RouterID]T),
			best:     dv.alg.Bullet(),
			nextHops: make(map[ids.RouterID]bool),
		}
		dv.rib[dst] = r
	}
	return r
}

// update recomputes dst's best attribute and winning next-hop set from
// scratch across rib_in, and returns advertisements to every neighbor
// when the best attribute changed. The router's own origin entry is
// never recomputed here: it stays at the algebra's identity forever.
func (dv *DistanceVector[T]) update(dst ids.RouterID) []eventqueue.Event {
	if dst == dv.router {
		return nil
	}
	r := dv.ribFor(dst)
	oldBest := r.best

	best := dv.alg.Bullet()
	nextHops := make(map[ids.RouterID]bool)
	have := false
	for _, from := range sortedKeys(r.ribIn) {
		attr := dv.alg.Combine(dv.edgeFor(from), r.ribIn[from])
		switch {
		case !have || dv.alg.Less(attr, best):
			best = attr
			nextHops = map[ids.RouterID]bool{from: true}
			have = true
		case equalAttr(dv.alg, attr, best):
			nextHops[from] = true
		}
	}
	r.best = best
	r.nextHops = nextHops

	if equalAttr(dv.alg, oldBest, best) {
		return nil
	}
	out := make([]eventqueue.Event, 0, len(dv.neighbors))
	for _, n := range sortedKeys(dv.neighbors) {
		out = append(out, eventqueue.Custom(dv.router, n, dv.Name(), Event[T]{Dest: dst, Attr: best}))
	}
	return out
}

func (dv *DistanceVector[T]) edgeFor(neighbor ids.RouterID) T {
	if attr, ok := dv.edgeAttr[neighbor]; ok {
		return attr
	}
	return dv.alg.Bullet()
}

func (dv *DistanceVector[T]) updateAll() []eventqueue.Event {
	var out []eventqueue.Event
	for _, dst := range sortedKeys(dv.rib) {
		out = append(out, dv.update(dst)...)
	}
	return out
}

// NeighborUp records neighbor as reachable over edge, an attribute of
// type T, and replays every destination's current best directly to it —
// nothing in this router's own ribs changes from a session merely
// coming up, so nothing would otherwise trigger an advertisement.
// edge is ignored when it isn't a T; callers should pass an attribute
// of T.
func (dv *DistanceVector[T]) NeighborUp(neighbor ids.RouterID, edge any) []eventqueue.Event {
	dv.neighbors[neighbor] = true
	if attr, ok := edge.(T); ok {
		dv.edgeAttr[neighbor] = attr
	}
	out := make([]eventqueue.Event, 0, len(dv.rib))
	for _, dst := range sortedKeys(dv.rib) {
		out = append(out, eventqueue.Custom(dv.router, neighbor, dv.Name(), Event[T]{Dest: dst, Attr: dv.rib[dst].best}))
	}
	return out
}

// NeighborDown withdraws neighbor from every destination's rib_in and
// recomputes affected bests.
func (dv *DistanceVector[T]) NeighborDown(neighbor ids.RouterID) []eventqueue.Event {
	delete(dv.neighbors, neighbor)
	delete(dv.edgeAttr, neighbor)
	for _, r := range dv.rib {
		delete(r.ribIn, neighbor)
	}
	return dv.updateAll()
}

// HandleEvent ingests an update from a neighbor: a withdrawal (attribute
// equal to bullet) removes the rib_in entry, anything else installs it.
func (dv *DistanceVector[T]) HandleEvent(e eventqueue.Event) ([]eventqueue.Event, error) {
	payload, ok := e.Custom.Payload.(Event[T])
	if !ok {
		return nil, simerr.ErrAlgebraPayloadMismatch
	}
	r := dv.ribFor(payload.Dest)
	if dv.alg.IsBullet(payload.Attr) {
		delete(r.ribIn, e.Src)
	} else {
		r.ribIn[e.Src] = payload.Attr
	}
	return dv.update(payload.Dest), nil
}

// ForwardDecision is the per-packet outcome a plug-in reaches for a
// given destination: drop, deliver locally, or forward to a next hop.
type ForwardDecision struct {
	Drop    bool
	Deliver bool
	NextHop ids.RouterID
}

// Forward picks a next hop for dst using flowID to hash across ECMP
// candidates deterministically.
func (dv *DistanceVector[T]) Forward(dst ids.RouterID, flowID int) ForwardDecision {
	r, ok := dv.rib[dst]
	if !ok || len(r.nextHops) == 0 {
		return ForwardDecision{Drop: true}
	}
	if r.nextHops[dv.router] {
		return ForwardDecision{Deliver: true}
	}
	hops := sortedKeys(r.nextHops)
	idx := flowID % len(hops)
	if idx < 0 {
		idx += len(hops)
	}
	return ForwardDecision{NextHop: hops[idx]}
}
