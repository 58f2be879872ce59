package algebra

import (
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simerr"
)

type pathVectorEntry[T any] struct {
	attr T
	path []ids.RouterID
}

type pathVectorRib[T any] struct {
	ribIn    map[ids.RouterID]pathVectorEntry[T]
	best     T
	bestPath []ids.RouterID
	nextHop  *ids.RouterID
}

// PathVector is a path-vector protocol over an arbitrary routing
// algebra: a single best (attribute, path) per destination, paths
// containing self are rejected to prevent loops, and ties are broken
// by the lowest advertising neighbor id. Forwarding is still hop by
// hop: each router only knows its own next hop, not the full path.
type PathVector[T any] struct {
	router    ids.RouterID
	alg       Algebra[T]
	neighbors map[ids.RouterID]bool
	edgeAttr  map[ids.RouterID]T
	rib       map[ids.RouterID]*pathVectorRib[T]
}

// NewPathVector returns a PathVector instance for router, seeded with
// its own origin entry: identity attribute, path [router].
func NewPathVector[T any](router ids.RouterID, alg Algebra[T]) *PathVector[T] {
	self := router
	pv := &PathVector[T]{
		router:    router,
		alg:       alg,
		neighbors: make(map[ids.RouterID]bool),
		edgeAttr:  make(map[ids.RouterID]T),
		rib:       make(map[ids.RouterID]*pathVectorRib[T]),
	}
	pv.rib[router] = &pathVectorRib[T]{
		ribIn:    make(map[ids.RouterID]pathVectorEntry[T]),
		best:     alg.Identity(),
		bestPath: []ids.RouterID{router},
		nextHop:  &self,
	}
	return pv
}

func (pv *PathVector[T]) ID() ids.RouterID { return pv.router }

func (pv *PathVector[T]) Name() string { return "path-vector" }

// SetEdgeAttribute assigns the per-edge attribute combined into whatever
// neighbor advertises over that edge.
func (pv *PathVector[T]) SetEdgeAttribute(neighbor ids.RouterID, attr T) {
	pv.edgeAttr[neighbor] = attr
}

func (pv *PathVector[T]) ribFor(dst ids.RouterID) *pathVectorRib[T] {
	r, ok := pv.rib[dst]
	if !ok {
		r = &pathVectorRib[T]{ribIn: make(map[ids.RouterID]pathVectorEntry[T]), best: pv.alg.Bullet()}
		pv.rib[dst] = r
	}
	return r
}

func (pv *PathVector[T]) edgeFor(neighbor ids.RouterID) T {
	if attr, ok := pv.edgeAttr[neighbor]; ok {
		return attr
	}
	return pv.alg.Bullet()
}

func samePath(a, b []ids.RouterID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// update recomputes dst's best (attribute, path, next hop) from scratch
// across rib_in, iterating neighbors in ascending router-id order so
// ties are broken toward the lowest neighbor id. Advertises the new
// best to every neighbor, prepended with this router, when it changed.
// The router's own origin entry is never recomputed here: it stays at
// the algebra's identity and path [router] forever.
func (pv *PathVector[T]) update(dst ids.RouterID) []eventqueue.Event {
	if dst == pv.router {
		return nil
	}
	r := pv.ribFor(dst)
	oldBest, oldPath := r.best, r.bestPath

	best := pv.alg.Bullet()
	var bestPath []ids.RouterID
	var nextHop *ids.RouterID
	have := false
	for _, from := range sortedKeys(r.ribIn) {
		entry := r.ribIn[from]
		attr := pv.alg.Combine(pv.edgeFor(from), entry.attr)
		if !have || pv.alg.Less(attr, best) {
			best = attr
			bestPath = entry.path
			f := from
			nextHop = &f
			have = true
		}
	}
	r.best = best
	r.bestPath = bestPath
	r.nextHop = nextHop

	if equalAttr(pv.alg, oldBest, best) && samePath(oldPath, bestPath) {
		return nil
	}
	out := make([]eventqueue.Event, 0, len(pv.neighbors))
	for _, n := range sortedKeys(pv.neighbors) {
		outPath := append([]ids.RouterID{pv.router}, bestPath...)
		out = append(out, eventqueue.Custom(pv.router, n, pv.Name(), Event[T]{Dest: dst, Attr: best, Path: outPath}))
	}
	return out
}

func (pv *PathVector[T]) updateAll() []eventqueue.Event {
	var out []eventqueue.Event
	for _, dst := range sortedKeys(pv.rib) {
		out = append(out, pv.update(dst)...)
	}
	return out
}

// NeighborUp records neighbor as reachable and replays every currently
// known destination's best route directly to it, since nothing changes
// in this router's own ribs by a session merely coming up.
func (pv *PathVector[T]) NeighborUp(neighbor ids.RouterID, edge any) []eventqueue.Event {
	pv.neighbors[neighbor] = true
	if attr, ok := edge.(T); ok {
		pv.edgeAttr[neighbor] = attr
	}
	out := make([]eventqueue.Event, 0, len(pv.rib))
	for _, dst := range sortedKeys(pv.rib) {
		r := pv.rib[dst]
		path := r.bestPath
		if dst != pv.router {
			path = append([]ids.RouterID{pv.router}, r.bestPath...)
		}
		out = append(out, eventqueue.Custom(pv.router, neighbor, pv.Name(), Event[T]{Dest: dst, Attr: r.best, Path: path}))
	}
	return out
}

// NeighborDown withdraws neighbor from every destination's rib_in and
// recomputes affected bests.
func (pv *PathVector[T]) NeighborDown(neighbor ids.RouterID) []eventqueue.Event {
	delete(pv.neighbors, neighbor)
	delete(pv.edgeAttr, neighbor)
	for _, r := range pv.rib {
		delete(r.ribIn, neighbor)
	}
	return pv.updateAll()
}

// HandleEvent ingests an update from a neighbor. A withdrawal (bullet
// attribute) removes the rib_in entry; a path containing this router
// is rejected outright to prevent loops, same as a withdrawal.
func (pv *PathVector[T]) HandleEvent(e eventqueue.Event) ([]eventqueue.Event, error) {
	payload, ok := e.Custom.Payload.(Event[T])
	if !ok {
		return nil, simerr.ErrAlgebraPayloadMismatch
	}
	r := pv.ribFor(payload.Dest)
	if pv.alg.IsBullet(payload.Attr) || containsRouter(payload.Path, pv.router) {
		delete(r.ribIn, e.Src)
	} else {
		r.ribIn[e.Src] = pathVectorEntry[T]{attr: payload.Attr, path: payload.Path}
	}
	return pv.update(payload.Dest), nil
}

// Forward picks dst's single next hop, with no ECMP.
func (pv *PathVector[T]) Forward(dst ids.RouterID) ForwardDecision {
	r, ok := pv.rib[dst]
	if !ok || r.nextHop == nil {
		return ForwardDecision{Drop: true}
	}
	if *r.nextHop == pv.router {
		return ForwardDecision{Deliver: true}
	}
	return ForwardDecision{NextHop: *r.nextHop}
}
