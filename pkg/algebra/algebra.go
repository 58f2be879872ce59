// Package algebra implements custom routing protocols as plug-ins over a
// routing algebra: a total order with an identity element, an absorbing
// "bullet" standing in for infinity, and a combining operator that folds
// an edge's own attribute into a received one. Distance vector and path
// vector are both expressed purely in terms of this interface, and both
// exchange their updates as eventqueue.Event values tagged KindCustom so
// they share the kernel's dispatch queue without it knowing their
// attribute types.
package algebra

import (
	"sort"

	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simerr"
)

// Algebra is the contract a custom protocol's attribute type must satisfy.
// Identity is the zero-cost attribute an origin assigns itself. Bullet is
// the absorbing element representing unreachability: Combine with it
// always yields Bullet, and it compares greater than every other value.
// Combine folds an edge's own attribute into one received from a
// neighbor. Less is a strict total order used to pick the best among
// competing attributes.
type Algebra[T any] interface {
	Identity() T
	Bullet() T
	IsBullet(v T) bool
	Combine(edge, received T) T
	Less(a, b T) bool
}

// equalAttr reports whether neither value is strictly less than the
// other under alg's order.
func equalAttr[T any](alg Algebra[T], a, b T) bool {
	return !alg.Less(a, b) && !alg.Less(b, a)
}

// Event is the envelope a custom protocol exchanges with its neighbors:
// a destination, the attribute computed for it, and, for path-vector
// variants, the path travelled so far.
type Event[T any] struct {
	Dest ids.RouterID
	Attr T
	Path []ids.RouterID
}

// Protocol is the type-erased interface a Registry dispatches through.
// Every custom protocol instance, regardless of its attribute type,
// implements the same event interface the kernel uses for BGP: handling
// one inbound event yields zero or more outbound ones.
type Protocol interface {
	ID() ids.RouterID
	Name() string
	NeighborUp(neighbor ids.RouterID, edge any) []eventqueue.Event
	NeighborDown(neighbor ids.RouterID) []eventqueue.Event
	HandleEvent(e eventqueue.Event) ([]eventqueue.Event, error)
}

// Registry dispatches KindCustom events to the protocol instance that
// owns the destination router, letting several routers run a custom
// protocol side by side as an alternative control plane.
type Registry struct {
	byRouter map[ids.RouterID]Protocol
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byRouter: make(map[ids.RouterID]Protocol)}
}

// Register installs p under its own router id, replacing any instance
// previously registered for that id.
func (r *Registry) Register(p Protocol) {
	r.byRouter[p.ID()] = p
}

// Protocol returns the instance registered for router, if any.
func (r *Registry) Protocol(router ids.RouterID) (Protocol, bool) {
	p, ok := r.byRouter[router]
	return p, ok
}

// Dispatch routes e to the protocol instance owning e.Dst.
func (r *Registry) Dispatch(e eventqueue.Event) ([]eventqueue.Event, error) {
	p, ok := r.byRouter[e.Dst]
	if !ok {
		return nil, &simerr.RouterNotFoundError{Router: uint64(e.Dst)}
	}
	return p.HandleEvent(e)
}

// sortedKeys returns m's router-id keys in ascending order, giving every
// protocol a deterministic iteration order independent of Go's randomized
// map ordering.
func sortedKeys[T any](m map[ids.RouterID]T) []ids.RouterID {
	out := make([]ids.RouterID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func containsRouter(path []ids.RouterID, id ids.RouterID) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}
