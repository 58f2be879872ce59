// Package routemap implements the ordered match/modify pipeline applied
// to BGP routes on ingress and egress: an ordered list of entries, each
// an AND-joined set of conditions guarding an ordered list of set
// actions, with Allow/Deny and Continue/Exit flow control.
package routemap

import (
	"regexp"
	"sort"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/ids"
)

// State is the terminal disposition of an entry that matches.
type State uint8

const (
	Allow State = iota
	Deny
)

// Flow controls whether evaluation continues past a matching Allow entry.
type Flow uint8

const (
	Exit Flow = iota
	Continue
)

// Condition is one AND-joined predicate evaluated against a route and
// the neighbor/direction context it is being processed under.
type Condition interface {
	Match(ctx Context) bool
}

// Context carries the information conditions and actions need beyond the
// route itself.
type Context struct {
	Neighbor ids.RouterID
	Route    *bgp.Route
	IGPCost  *float64
}

// Action mutates a route in place as part of applying a matched entry.
// Actions that affect RIB-entry-only attributes (weight, IGP cost
// override) record the value on acc instead, since Route has no field
// for them.
type Action interface {
	apply(r *bgp.Route, acc *actionAccumulator)
}

// Entry is one route-map rule.
type Entry struct {
	Order      int
	State      State
	Conditions []Condition
	Actions    []Action
	Flow       Flow
}

func (e *Entry) matches(ctx Context) bool {
	for _, c := range e.Conditions {
		if !c.Match(ctx) {
			return false
		}
	}
	return true
}

// RouteMap is an ordered list of entries, sorted by Order on every
// mutation so evaluation always walks ascending order.
type RouteMap struct {
	entries []*Entry
}

// New creates an empty route-map.
func New() *RouteMap {
	return &RouteMap{}
}

// Set installs or replaces the entry at e.Order.
func (m *RouteMap) Set(e *Entry) {
	for i, existing := range m.entries {
		if existing.Order == e.Order {
			m.entries[i] = e
			m.sort()
			return
		}
	}
	m.entries = append(m.entries, e)
	m.sort()
}

// Remove deletes the entry at order, reporting whether one was present.
func (m *RouteMap) Remove(order int) bool {
	for i, e := range m.entries {
		if e.Order == order {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (m *RouteMap) sort() {
	sort.Slice(m.entries, func(i, j int) bool { return m.entries[i].Order < m.entries[j].Order })
}

// Entries returns the entries in ascending order, for inspection/serialization.
func (m *RouteMap) Entries() []*Entry {
	return append([]*Entry(nil), m.entries...)
}

// Result is the outcome of applying a route-map to a route. WeightOverride
// and IGPCostOverride are non-nil only if some applied entry carried a
// SetWeight or SetIGPCostOverride action — the router applies them to the
// RIB entry it installs, since Route itself carries neither field.
type Result struct {
	Route           *bgp.Route
	Denied          bool
	WeightOverride  *uint32
	IGPCostOverride *float64
}

// Apply runs route (a copy of which is mutated) through the map's entries
// in ascending order. The first matching Deny entry drops the route. A
// matching Allow entry applies its actions, then either exits (stopping
// evaluation) or continues to later entries. If no entry matches, the
// route passes through unchanged.
func (m *RouteMap) Apply(route *bgp.Route, neighbor ids.RouterID, igpCost *float64) Result {
	working := route.Clone()
	acc := &actionAccumulator{}
	ctx := Context{Neighbor: neighbor, Route: working, IGPCost: igpCost}
	for _, e := range m.entries {
		if !e.matches(ctx) {
			continue
		}
		if e.State == Deny {
			return Result{Denied: true}
		}
		for _, a := range e.Actions {
			a.apply(working, acc)
		}
		ctx.Route = working
		if e.Flow == Exit {
			break
		}
	}
	return Result{Route: working, WeightOverride: acc.weight, IGPCostOverride: acc.igpCost}
}

// actionAccumulator collects the side-channel overrides SetWeight and
// SetIGPCostOverride produce, since those attributes live on the RIB
// entry rather than on Route.
type actionAccumulator struct {
	weight  *uint32
	igpCost *float64
}

// -- Conditions --

// NeighborIs matches when the adjacency's neighbor id equals ID.
type NeighborIs struct{ ID ids.RouterID }

func (c NeighborIs) Match(ctx Context) bool { return ctx.Neighbor == c.ID }

// PrefixEquals matches when the route's prefix equals Prefix exactly.
type PrefixEquals struct{ Prefix ids.Prefix }

func (c PrefixEquals) Match(ctx Context) bool { return ids.Equal(ctx.Route.Prefix, c.Prefix) }

// PrefixCovers matches when Prefix longest-prefix-covers the route's
// prefix — membership test against a single covering key, not a map.
type PrefixCovers struct{ Prefix ids.Prefix }

func (c PrefixCovers) Match(ctx Context) bool {
	set := ids.NewPrefixSet()
	set.Insert(c.Prefix)
	return set.LPM(ctx.Route.Prefix)
}

// ASPathRegexp matches when the stringified AS_PATH (space-separated
// ASID strings such as "AS65001 AS65002", origin last) matches Pattern.
type ASPathRegexp struct{ Pattern *regexp.Regexp }

func (c ASPathRegexp) Match(ctx Context) bool {
	return c.Pattern.MatchString(asPathString(ctx.Route.ASPath))
}

func asPathString(path []ids.ASID) string {
	buf := make([]byte, 0, len(path)*4)
	for i, as := range path {
		if i > 0 {
			buf = append(buf, ' ')
		}
		buf = append(buf, []byte(as.String())...)
	}
	return string(buf)
}

// ASPathContains matches when AS appears anywhere in AS_PATH.
type ASPathContains struct{ AS ids.ASID }

func (c ASPathContains) Match(ctx Context) bool { return ctx.Route.ContainsAS(c.AS) }

// NextHopEquals matches when NEXT_HOP equals Router.
type NextHopEquals struct{ Router ids.RouterID }

func (c NextHopEquals) Match(ctx Context) bool { return ctx.Route.NextHop == c.Router }

// CommunityPresent matches when the route carries Community.
type CommunityPresent struct{ Community ids.Community }

func (c CommunityPresent) Match(ctx Context) bool { return ctx.Route.HasCommunity(c.Community) }

// CommunityAbsent matches when the route does not carry Community.
type CommunityAbsent struct{ Community ids.Community }

func (c CommunityAbsent) Match(ctx Context) bool { return !ctx.Route.HasCommunity(c.Community) }

// CommunityEmpty matches when the route's community set is empty.
type CommunityEmpty struct{}

func (c CommunityEmpty) Match(ctx Context) bool { return len(ctx.Route.Community) == 0 }

// CommunityNonEmpty matches when the route's community set is non-empty.
type CommunityNonEmpty struct{}

func (c CommunityNonEmpty) Match(ctx Context) bool { return len(ctx.Route.Community) > 0 }

// -- Actions --

// SetNextHop overwrites NEXT_HOP.
type SetNextHop struct{ Router ids.RouterID }

func (a SetNextHop) apply(r *bgp.Route, _ *actionAccumulator) { r.NextHop = a.Router }

// SetLocalPref sets LOCAL_PREF.
type SetLocalPref struct{ Value uint32 }

func (a SetLocalPref) apply(r *bgp.Route, _ *actionAccumulator) { v := a.Value; r.LocalPref = &v }

// ClearLocalPref resets LOCAL_PREF to the default.
type ClearLocalPref struct{}

func (a ClearLocalPref) apply(r *bgp.Route, _ *actionAccumulator) { r.LocalPref = nil }

// SetMED sets MED.
type SetMED struct{ Value uint32 }

func (a SetMED) apply(r *bgp.Route, _ *actionAccumulator) { v := a.Value; r.MED = &v }

// ClearMED resets MED to the default.
type ClearMED struct{}

func (a ClearMED) apply(r *bgp.Route, _ *actionAccumulator) { r.MED = nil }

// SetWeight overrides the local weight the RIB entry will be given once
// this route is installed, reported back via Result.WeightOverride since
// weight lives on the RIB entry, not the route itself.
type SetWeight struct{ Value uint32 }

func (a SetWeight) apply(_ *bgp.Route, acc *actionAccumulator) { v := a.Value; acc.weight = &v }

// AddCommunity appends Community if not already present.
type AddCommunity struct{ Community ids.Community }

func (a AddCommunity) apply(r *bgp.Route, _ *actionAccumulator) {
	if !r.HasCommunity(a.Community) {
		r.Community = append(r.Community, a.Community)
	}
}

// RemoveCommunity removes Community if present.
type RemoveCommunity struct{ Community ids.Community }

func (a RemoveCommunity) apply(r *bgp.Route, _ *actionAccumulator) {
	out := r.Community[:0]
	for _, c := range r.Community {
		if c != a.Community {
			out = append(out, c)
		}
	}
	r.Community = out
}

// ClearCommunity empties the community set.
type ClearCommunity struct{}

func (a ClearCommunity) apply(r *bgp.Route, _ *actionAccumulator) { r.Community = nil }

// SetIGPCostOverride overrides the IGP cost the router will attach to
// the RIB entry, reported back via Result.IGPCostOverride since Route
// carries no IGP-cost field of its own.
type SetIGPCostOverride struct{ Value float64 }

func (a SetIGPCostOverride) apply(_ *bgp.Route, acc *actionAccumulator) {
	v := a.Value
	acc.igpCost = &v
}
