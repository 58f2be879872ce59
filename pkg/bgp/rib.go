package bgp

import "github.com/bgpsim/bgpsim/pkg/ids"

// perPrefix holds the adjacency-RIB-in, selected best, and adjacency-
// RIB-out for one prefix.
type perPrefix struct {
	in   map[ids.RouterID]*RibEntry
	best *RibEntry
	out  map[ids.RouterID]*RibEntry
}

func newPerPrefix() *perPrefix {
	return &perPrefix{in: map[ids.RouterID]*RibEntry{}, out: map[ids.RouterID]*RibEntry{}}
}

// RIB owns the per-prefix adjacency-RIB-in/out and selected-best state
// for a single router.
type RIB struct {
	table *ids.PrefixMap[*perPrefix]
}

// NewRIB creates an empty RIB.
func NewRIB() *RIB {
	return &RIB{table: ids.NewPrefixMap[*perPrefix]()}
}

func (r *RIB) entry(prefix ids.Prefix) *perPrefix {
	pp, ok := r.table.Get(prefix)
	if !ok {
		pp = newPerPrefix()
		r.table.Insert(prefix, pp)
	}
	return pp
}

func (r *RIB) peek(prefix ids.Prefix) (*perPrefix, bool) {
	return r.table.Get(prefix)
}

// SetIn installs entry as the adjacency-RIB-in entry learned from
// entry.FromID for prefix.
func (r *RIB) SetIn(prefix ids.Prefix, entry *RibEntry) {
	r.entry(prefix).in[entry.FromID] = entry
}

// RemoveIn removes the adjacency-RIB-in entry learned from neighbor for
// prefix, reporting whether one was present.
func (r *RIB) RemoveIn(prefix ids.Prefix, neighbor ids.RouterID) bool {
	pp, ok := r.peek(prefix)
	if !ok {
		return false
	}
	if _, present := pp.in[neighbor]; !present {
		return false
	}
	delete(pp.in, neighbor)
	return true
}

// In returns the adjacency-RIB-in entry learned from neighbor for prefix.
func (r *RIB) In(prefix ids.Prefix, neighbor ids.RouterID) (*RibEntry, bool) {
	pp, ok := r.peek(prefix)
	if !ok {
		return nil, false
	}
	e, ok := pp.in[neighbor]
	return e, ok
}

// Candidates returns every adjacency-RIB-in entry stored for prefix, in
// no particular order — the decision process sorts them itself.
func (r *RIB) Candidates(prefix ids.Prefix) []*RibEntry {
	pp, ok := r.peek(prefix)
	if !ok {
		return nil
	}
	out := make([]*RibEntry, 0, len(pp.in))
	for _, e := range pp.in {
		out = append(out, e)
	}
	return out
}

// Best returns the currently selected RIB entry for prefix.
func (r *RIB) Best(prefix ids.Prefix) (*RibEntry, bool) {
	pp, ok := r.peek(prefix)
	if !ok || pp.best == nil {
		return nil, false
	}
	return pp.best, true
}

// SetBest installs entry (which may be nil) as the selected route for
// prefix, returning whether it differs from the previous selection.
func (r *RIB) SetBest(prefix ids.Prefix, entry *RibEntry) bool {
	pp := r.entry(prefix)
	changed := !pp.best.Equal(entry)
	pp.best = entry
	return changed
}

// Out returns the adjacency-RIB-out entry currently exported to neighbor
// for prefix.
func (r *RIB) Out(prefix ids.Prefix, neighbor ids.RouterID) (*RibEntry, bool) {
	pp, ok := r.peek(prefix)
	if !ok {
		return nil, false
	}
	e, ok := pp.out[neighbor]
	return e, ok
}

// SetOut installs entry as exported to neighbor for prefix, returning
// whether it differs from what was previously exported.
func (r *RIB) SetOut(prefix ids.Prefix, neighbor ids.RouterID, entry *RibEntry) bool {
	pp := r.entry(prefix)
	changed := !pp.out[neighbor].Equal(entry)
	pp.out[neighbor] = entry
	return changed
}

// RemoveOut clears the adjacency-RIB-out entry for neighbor/prefix.
func (r *RIB) RemoveOut(prefix ids.Prefix, neighbor ids.RouterID) bool {
	pp, ok := r.peek(prefix)
	if !ok {
		return false
	}
	if _, present := pp.out[neighbor]; !present {
		return false
	}
	delete(pp.out, neighbor)
	return true
}

// Prefixes returns every prefix the RIB has stored an entry for. A prefix
// stays listed after all of its entries have been removed.
func (r *RIB) Prefixes() []ids.Prefix {
	entries := r.table.All()
	out := make([]ids.Prefix, len(entries))
	for i, e := range entries {
		out[i] = e.Key
	}
	return out
}

// InNeighbors returns every neighbor with a current adjacency-RIB-in
// entry for prefix.
func (r *RIB) InNeighbors(prefix ids.Prefix) []ids.RouterID {
	pp, ok := r.peek(prefix)
	if !ok {
		return nil
	}
	out := make([]ids.RouterID, 0, len(pp.in))
	for n := range pp.in {
		out = append(out, n)
	}
	return out
}

// OutNeighbors returns every neighbor with a current adjacency-RIB-out
// entry for prefix.
func (r *RIB) OutNeighbors(prefix ids.Prefix) []ids.RouterID {
	pp, ok := r.peek(prefix)
	if !ok {
		return nil
	}
	out := make([]ids.RouterID, 0, len(pp.out))
	for n := range pp.out {
		out = append(out, n)
	}
	return out
}
