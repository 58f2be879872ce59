package device

import (
	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simerr"
)

// ExternalRouter is a minimal eBGP speaker: it holds a set of active
// prefix advertisements and a neighbor set, and has no decision process
// of its own since it never receives competing routes back.
type ExternalRouter struct {
	ID        ids.RouterID
	AS        ids.ASID
	neighbors map[ids.RouterID]bool
	adverts   *ids.PrefixMap[*bgp.Route]
}

// NewExternalRouter creates an ExternalRouter with no neighbors or
// advertisements.
func NewExternalRouter(id ids.RouterID, as ids.ASID) *ExternalRouter {
	return &ExternalRouter{
		ID:        id,
		AS:        as,
		neighbors: map[ids.RouterID]bool{},
		adverts:   ids.NewPrefixMap[*bgp.Route](),
	}
}

// Neighbors returns every established neighbor id.
func (e *ExternalRouter) Neighbors() []ids.RouterID {
	out := make([]ids.RouterID, 0, len(e.neighbors))
	for n := range e.neighbors {
		out = append(out, n)
	}
	return out
}

// Originates reports whether p is one of this router's active
// advertisements.
func (e *ExternalRouter) Originates(p ids.Prefix) bool {
	_, ok := e.adverts.Get(p)
	return ok
}

// AdvertisePrefix installs or overwrites the advertisement for p and
// emits an UPDATE to every established neighbor.
func (e *ExternalRouter) AdvertisePrefix(p ids.Prefix, asPath []ids.ASID, med *uint32, community []ids.Community) []eventqueue.Event {
	route := &bgp.Route{
		Prefix:    p,
		ASPath:    append([]ids.ASID(nil), asPath...),
		NextHop:   e.ID,
		MED:       med,
		Community: append([]ids.Community(nil), community...),
	}
	e.adverts.Insert(p, route)
	events := make([]eventqueue.Event, 0, len(e.neighbors))
	for n := range e.neighbors {
		events = append(events, eventqueue.BgpMessage(e.ID, n, bgp.UpdateEvent(route.Clone())))
	}
	return events
}

// WithdrawPrefix removes the advertisement for p, if any, and emits a
// WITHDRAW to every established neighbor.
func (e *ExternalRouter) WithdrawPrefix(p ids.Prefix) []eventqueue.Event {
	if !e.adverts.Remove(p) {
		return nil
	}
	events := make([]eventqueue.Event, 0, len(e.neighbors))
	for n := range e.neighbors {
		events = append(events, eventqueue.BgpMessage(e.ID, n, bgp.WithdrawEvent(p)))
	}
	return events
}

// EstablishSession adds neighbor and replays every active advertisement
// to it. Rejects an already-established neighbor.
func (e *ExternalRouter) EstablishSession(neighbor ids.RouterID) ([]eventqueue.Event, error) {
	if e.neighbors[neighbor] {
		return nil, &simerr.SessionAlreadyExistsError{A: uint64(e.ID), B: uint64(neighbor)}
	}
	e.neighbors[neighbor] = true
	entries := e.adverts.All()
	events := make([]eventqueue.Event, 0, len(entries))
	for _, entry := range entries {
		events = append(events, eventqueue.BgpMessage(e.ID, neighbor, bgp.UpdateEvent(entry.Value.Clone())))
	}
	return events, nil
}

// CloseSession removes neighbor. Rejects an unknown neighbor.
func (e *ExternalRouter) CloseSession(neighbor ids.RouterID) error {
	if !e.neighbors[neighbor] {
		return &simerr.NoBgpSessionError{A: uint64(e.ID), B: uint64(neighbor)}
	}
	delete(e.neighbors, neighbor)
	return nil
}
