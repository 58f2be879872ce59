// Package device hosts the two router kinds the kernel composes: Router,
// an internal speaker running the full BGP decision/export pipeline over
// an OSPF client view and static routes, and ExternalRouter, a minimal
// eBGP-only edge speaker. Generalized from the teacher's pkg/network
// Device struct, which composes interfaces/VRFs/services the same way a
// Router here composes sessions, route-maps, statics, and an OSPF view.
package device

import (
	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
	"github.com/bgpsim/bgpsim/pkg/ospf"
	"github.com/bgpsim/bgpsim/pkg/routemap"
	"github.com/bgpsim/bgpsim/pkg/simlog"
)

// Session tracks one BGP adjacency's configured type and up/down state.
type Session struct {
	Type bgp.SessionType
	Up   bool
}

// Router is an internal BGP/OSPF speaker.
type Router struct {
	ID          ids.RouterID
	AS          ids.ASID
	rib         *bgp.RIB
	sessions    map[ids.RouterID]*Session
	mapsIn      map[ids.RouterID]*routemap.RouteMap
	mapsOut     map[ids.RouterID]*routemap.RouteMap
	statics     *ids.PrefixMap[config.StaticRouteValue]
	ospfTable   *ospf.Table
	loadBalance bool
}

// NewRouter creates a Router with no sessions, route-maps, or static
// routes configured.
func NewRouter(id ids.RouterID, as ids.ASID) *Router {
	return &Router{
		ID:       id,
		AS:       as,
		rib:      bgp.NewRIB(),
		sessions: map[ids.RouterID]*Session{},
		mapsIn:   map[ids.RouterID]*routemap.RouteMap{},
		mapsOut:  map[ids.RouterID]*routemap.RouteMap{},
		statics:  ids.NewPrefixMap[config.StaticRouteValue](),
	}
}

// SetOSPFTable installs the resolver view the kernel recomputed. Called
// whenever a link-weight change triggers an OSPF write-back.
func (r *Router) SetOSPFTable(t *ospf.Table) {
	r.ospfTable = t
}

// SetLoadBalance toggles ECMP FIB installation.
func (r *Router) SetLoadBalance(v bool) {
	r.loadBalance = v
}

func (r *Router) igpCost(nextHop ids.RouterID) metric.Cost {
	if nextHop == r.ID {
		return metric.Zero
	}
	if r.ospfTable == nil {
		return metric.Inf
	}
	return r.ospfTable.Query(r.ID, nextHop).Cost
}

// Sessions returns every configured neighbor id, in no particular order.
func (r *Router) Sessions() []ids.RouterID {
	out := make([]ids.RouterID, 0, len(r.sessions))
	for n := range r.sessions {
		out = append(out, n)
	}
	return out
}

// SessionType returns the configured session type toward neighbor, if any.
func (r *Router) SessionType(neighbor ids.RouterID) (bgp.SessionType, bool) {
	s, ok := r.sessions[neighbor]
	if !ok {
		return 0, false
	}
	return s.Type, true
}

// EstablishSession brings up a session of the given type toward neighbor
// and replays the full selected RIB as UPDATEs through the export
// pipeline, per the session-up contract.
func (r *Router) EstablishSession(neighbor ids.RouterID, sessType bgp.SessionType) []eventqueue.Event {
	r.sessions[neighbor] = &Session{Type: sessType, Up: true}
	var events []eventqueue.Event
	for _, prefix := range r.rib.Prefixes() {
		events = append(events, r.exportTo(prefix, neighbor)...)
	}
	return events
}

// CloseSession tears down the session toward neighbor, removing any
// adjacency-RIB-in entries learned from it and re-running decision for
// every affected prefix.
func (r *Router) CloseSession(neighbor ids.RouterID) []eventqueue.Event {
	if _, ok := r.sessions[neighbor]; !ok {
		return nil
	}
	delete(r.sessions, neighbor)
	var events []eventqueue.Event
	for _, prefix := range r.rib.Prefixes() {
		if _, had := r.rib.In(prefix, neighbor); had {
			r.rib.RemoveIn(prefix, neighbor)
			events = append(events, r.runDecisionAndExport(prefix)...)
		}
		r.rib.RemoveOut(prefix, neighbor)
	}
	return events
}

// SetSessionType changes neighbor's session polarity (peer<->client) or
// eBGP/iBGP classification without tearing the session down, and
// recomputes reflector exports for every prefix.
func (r *Router) SetSessionType(neighbor ids.RouterID, sessType bgp.SessionType) []eventqueue.Event {
	sess, ok := r.sessions[neighbor]
	if !ok {
		return nil
	}
	sess.Type = sessType
	return r.exportAllPrefixesTo(neighbor)
}

func (r *Router) exportAllPrefixesTo(neighbor ids.RouterID) []eventqueue.Event {
	var events []eventqueue.Event
	for _, prefix := range r.rib.Prefixes() {
		events = append(events, r.exportTo(prefix, neighbor)...)
	}
	return events
}

// RouteMapEdit is one route-map change for neighbor/direction: setting
// Entry, or removing the entry at Order.
type RouteMapEdit struct {
	Neighbor  ids.RouterID
	Direction config.Direction
	Entry     *routemap.Entry // non-nil for a set, nil together with Order for a remove
	Remove    bool
	Order     int
}

func (r *Router) mapFor(neighbor ids.RouterID, dir config.Direction) *routemap.RouteMap {
	table := r.mapsIn
	if dir == config.Out {
		table = r.mapsOut
	}
	m, ok := table[neighbor]
	if !ok {
		m = routemap.New()
		table[neighbor] = m
	}
	return m
}

// ApplyRouteMapEdits applies every edit, then re-runs export once per
// prefix — the atomic-batch contract. Incoming-map edits take effect for
// future UPDATEs only, mirroring real BGP soft-reconfiguration semantics:
// a route-map change alone does not retroactively refilter already
// stored adjacency-RIB-in entries.
func (r *Router) ApplyRouteMapEdits(edits []RouteMapEdit) []eventqueue.Event {
	for _, e := range edits {
		m := r.mapFor(e.Neighbor, e.Direction)
		if e.Remove {
			m.Remove(e.Order)
		} else {
			m.Set(e.Entry)
		}
	}
	var events []eventqueue.Event
	for _, prefix := range r.rib.Prefixes() {
		events = append(events, r.exportAllPrefixesForOnePrefix(prefix)...)
	}
	return events
}

func (r *Router) exportAllPrefixesForOnePrefix(prefix ids.Prefix) []eventqueue.Event {
	var events []eventqueue.Event
	for neighbor := range r.sessions {
		events = append(events, r.exportTo(prefix, neighbor)...)
	}
	return events
}

// SetStaticRoute installs or clears the static route for prefix.
func (r *Router) SetStaticRoute(prefix ids.Prefix, route *config.StaticRouteValue) {
	if route == nil {
		r.statics.Remove(prefix)
		return
	}
	r.statics.Insert(prefix, *route)
}

// OnUpdate processes an ingress UPDATE for prefix from neighbor carrying
// route, applying loop guards, the incoming route-map, and IGP cost
// attachment before storing it and re-running decision.
func (r *Router) OnUpdate(neighbor ids.RouterID, route *bgp.Route) []eventqueue.Event {
	sess, ok := r.sessions[neighbor]
	if !ok || !sess.Up {
		return nil
	}
	if r.loops(sess, route) {
		return r.onIngressWithdraw(neighbor, route.Prefix)
	}
	working := route.Clone()
	weight := uint32(0)
	cost := r.igpCost(working.NextHop)
	if rm, ok := r.mapsIn[neighbor]; ok {
		res := rm.Apply(working, neighbor, nil)
		if res.Denied {
			return r.onIngressWithdraw(neighbor, route.Prefix)
		}
		working = res.Route
		if res.WeightOverride != nil {
			weight = *res.WeightOverride
		}
		if res.IGPCostOverride != nil {
			cost = metric.New(*res.IGPCostOverride)
		}
	}
	entry := &bgp.RibEntry{
		Route:    working,
		FromType: sess.Type,
		FromID:   neighbor,
		IGPCost:  cost,
		Weight:   weight,
	}
	r.rib.SetIn(working.Prefix, entry)
	simlog.WithRouter(uint64(r.ID)).WithField("prefix", working.Prefix.String()).Debug("ingress update accepted")
	return r.runDecisionAndExport(working.Prefix)
}

// OnWithdraw processes an ingress WITHDRAW for prefix from neighbor.
func (r *Router) OnWithdraw(neighbor ids.RouterID, prefix ids.Prefix) []eventqueue.Event {
	return r.onIngressWithdraw(neighbor, prefix)
}

func (r *Router) onIngressWithdraw(neighbor ids.RouterID, prefix ids.Prefix) []eventqueue.Event {
	r.rib.RemoveIn(prefix, neighbor)
	return r.runDecisionAndExport(prefix)
}

// loops reports whether route must be rejected as a routing loop: its
// own AS appears in AS_PATH for an eBGP session, or, for an iBGP
// session, ORIGINATOR_ID names self or CLUSTER_LIST contains self.
func (r *Router) loops(sess *Session, route *bgp.Route) bool {
	if sess.Type.IsEBgp() {
		return route.ContainsAS(r.AS)
	}
	if route.OriginatorID != nil && *route.OriginatorID == r.ID {
		return true
	}
	return route.ContainsRouter(r.ID)
}

// runDecisionAndExport recomputes the selected route for prefix from
// every up adjacency-RIB-in entry and, if it changed, re-exports to
// every neighbor.
func (r *Router) runDecisionAndExport(prefix ids.Prefix) []eventqueue.Event {
	var up []*bgp.RibEntry
	for _, c := range r.rib.Candidates(prefix) {
		if sess, ok := r.sessions[c.FromID]; ok && sess.Up {
			up = append(up, c)
		}
	}
	newBest := bgp.Best(up)
	if !r.rib.SetBest(prefix, newBest) {
		return nil
	}
	return r.exportAllPrefixesForOnePrefix(prefix)
}

// ReevaluateIGPCosts re-attaches IGP cost to every adjacency-RIB-in entry
// from the current OSPF view and re-runs decision for any prefix whose
// IGP cost changed, per the OSPF write-back contract.
func (r *Router) ReevaluateIGPCosts() []eventqueue.Event {
	var events []eventqueue.Event
	for _, prefix := range r.rib.Prefixes() {
		changed := false
		for _, neighbor := range r.rib.InNeighbors(prefix) {
			entry, ok := r.rib.In(prefix, neighbor)
			if !ok {
				continue
			}
			newCost := r.igpCost(entry.Route.NextHop)
			if !newCost.EqualWithin(entry.IGPCost) {
				entry.IGPCost = newCost
				changed = true
			}
		}
		if changed {
			events = append(events, r.runDecisionAndExport(prefix)...)
		}
	}
	return events
}

// exportTo applies the full export pipeline for prefix toward neighbor:
// split horizon, the iBGP propagation rules, reflector ORIGINATOR_ID /
// CLUSTER_LIST bookkeeping, NEXT_HOP rewrite, AS_PATH prepend on eBGP,
// the outgoing route-map, and suppression of a no-op re-send.
func (r *Router) exportTo(prefix ids.Prefix, neighbor ids.RouterID) []eventqueue.Event {
	sess, ok := r.sessions[neighbor]
	if !ok || !sess.Up {
		return nil
	}
	best, ok := r.rib.Best(prefix)
	if !ok || best.FromID == neighbor || !r.exportAllowed(best, sess) {
		return r.withdrawOutIfPresent(prefix, neighbor)
	}

	working := best.Route.Clone()
	if sess.Type.IsIBgp() {
		if working.OriginatorID == nil {
			orig := best.FromID
			working.OriginatorID = &orig
		}
		if *working.OriginatorID == neighbor || working.ContainsRouter(neighbor) {
			return r.withdrawOutIfPresent(prefix, neighbor)
		}
		if sess.Type == bgp.IBgpPeer {
			working.ClusterList = append([]ids.RouterID{r.ID}, working.ClusterList...)
		}
	}

	if sess.Type.IsEBgp() {
		working.NextHop = r.ID
		working.ASPath = append([]ids.ASID{r.AS}, working.ASPath...)
		working.MED = nil
		working.OriginatorID = nil
		working.ClusterList = nil
	}

	if rm, ok := r.mapsOut[neighbor]; ok {
		res := rm.Apply(working, neighbor, nil)
		if res.Denied {
			return r.withdrawOutIfPresent(prefix, neighbor)
		}
		working = res.Route
	}

	if prevOut, had := r.rib.Out(prefix, neighbor); had && bgp.RouteEqual(prevOut.Route, working) {
		return nil
	}
	r.rib.SetOut(prefix, neighbor, &bgp.RibEntry{Route: working, FromID: r.ID, FromType: sess.Type, ToID: &neighbor})
	return []eventqueue.Event{eventqueue.BgpMessage(r.ID, neighbor, bgp.UpdateEvent(working))}
}

func (r *Router) withdrawOutIfPresent(prefix ids.Prefix, neighbor ids.RouterID) []eventqueue.Event {
	if !r.rib.RemoveOut(prefix, neighbor) {
		return nil
	}
	return []eventqueue.Event{eventqueue.BgpMessage(r.ID, neighbor, bgp.WithdrawEvent(prefix))}
}

// exportAllowed implements the iBGP propagation restriction: an eBGP- or
// client-sourced route may go to any neighbor; a plain-iBGP-peer-sourced
// route may only be reflected down to clients.
func (r *Router) exportAllowed(best *bgp.RibEntry, toward *Session) bool {
	if best.FromType.IsEBgp() || toward.Type.IsEBgp() {
		return true
	}
	if best.FromType == bgp.IBgpClient {
		return true
	}
	return toward.Type == bgp.IBgpClient
}

// FIBResult is the resolved forwarding outcome for one (router, prefix)
// pair: either a non-empty next-hop set, a terminal (locally delivered),
// or neither (black hole).
type FIBResult struct {
	NextHops []ids.RouterID
	Terminal bool
}

// BlackHole reports whether the result is neither a terminal nor has any
// next hop.
func (f FIBResult) BlackHole() bool { return !f.Terminal && len(f.NextHops) == 0 }

// FIB resolves prefix per the router's precedence order: static route,
// then the selected BGP route's NEXT_HOP via OSPF, else black hole.
func (r *Router) FIB(prefix ids.Prefix) FIBResult {
	if sr, ok := r.statics.LPM(prefix); ok {
		switch sr.Kind {
		case config.Direct:
			return FIBResult{NextHops: []ids.RouterID{sr.Target}}
		case config.Indirect:
			if sr.Target == r.ID {
				return FIBResult{}
			}
			if r.ospfTable == nil {
				return FIBResult{}
			}
			return FIBResult{NextHops: r.ospfTable.Query(r.ID, sr.Target).NextHops}
		}
	}

	best, ok := r.rib.Best(prefix)
	if !ok {
		return FIBResult{}
	}
	if best.Route.NextHop == r.ID {
		return FIBResult{Terminal: true}
	}
	if r.ospfTable == nil {
		return FIBResult{}
	}
	if r.loadBalance {
		group := bgp.EqualCostGroup(r.rib.Candidates(prefix))
		hopSet := map[ids.RouterID]bool{}
		for _, g := range group {
			for _, h := range r.ospfTable.Query(r.ID, g.Route.NextHop).NextHops {
				hopSet[h] = true
			}
		}
		return FIBResult{NextHops: sortedHops(hopSet)}
	}
	return FIBResult{NextHops: r.ospfTable.Query(r.ID, best.Route.NextHop).NextHops}
}

func sortedHops(s map[ids.RouterID]bool) []ids.RouterID {
	out := make([]ids.RouterID, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// RIB exposes the underlying adjacency RIBs, for forwarding-state and
// test inspection.
func (r *Router) RIB() *bgp.RIB { return r.rib }
