// Package bgp implements the per-prefix adjacency RIBs and the BGP
// decision process: the strict nine-criterion tie-break, reflector
// ORIGINATOR_ID/CLUSTER_LIST bookkeeping, and the RIB-in/RIB-out tables
// a router composes to decide what to install and what to export.
package bgp

import (
	"fmt"
	"strings"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
)

// DefaultLocalPref and DefaultMED are applied whenever a route omits the
// corresponding optional attribute.
const (
	DefaultLocalPref uint32 = 100
	DefaultMED       uint32 = 0
)

// Route is a BGP route: ORIGIN is always IGP, ATOMIC_AGGREGATE and
// AGGREGATOR are not modeled.
type Route struct {
	Prefix       ids.Prefix
	ASPath       []ids.ASID
	NextHop      ids.RouterID
	LocalPref    *uint32
	MED          *uint32
	Community    []ids.Community
	OriginatorID *ids.RouterID
	ClusterList  []ids.RouterID
}

// LocalPrefOrDefault returns the effective LOCAL_PREF.
func (r *Route) LocalPrefOrDefault() uint32 {
	if r.LocalPref != nil {
		return *r.LocalPref
	}
	return DefaultLocalPref
}

// MEDOrDefault returns the effective MED.
func (r *Route) MEDOrDefault() uint32 {
	if r.MED != nil {
		return *r.MED
	}
	return DefaultMED
}

// EffectiveOriginator returns ORIGINATOR_ID if set, else fromID — the
// router that originally injected the route into iBGP — per decision
// tie-break #7.
func (r *Route) EffectiveOriginator(fromID ids.RouterID) ids.RouterID {
	if r.OriginatorID != nil {
		return *r.OriginatorID
	}
	return fromID
}

// Clone returns a deep copy, safe to mutate independently of r.
func (r *Route) Clone() *Route {
	cp := *r
	if r.LocalPref != nil {
		v := *r.LocalPref
		cp.LocalPref = &v
	}
	if r.MED != nil {
		v := *r.MED
		cp.MED = &v
	}
	if r.OriginatorID != nil {
		v := *r.OriginatorID
		cp.OriginatorID = &v
	}
	cp.ASPath = append([]ids.ASID(nil), r.ASPath...)
	cp.Community = append([]ids.Community(nil), r.Community...)
	cp.ClusterList = append([]ids.RouterID(nil), r.ClusterList...)
	return &cp
}

// HasCommunity reports whether c is present in the route's community set.
func (r *Route) HasCommunity(c ids.Community) bool {
	for _, x := range r.Community {
		if x == c {
			return true
		}
	}
	return false
}

// ContainsAS reports whether as appears anywhere in AS_PATH.
func (r *Route) ContainsAS(as ids.ASID) bool {
	for _, x := range r.ASPath {
		if x == as {
			return true
		}
	}
	return false
}

// ContainsRouter reports whether id appears in CLUSTER_LIST.
func (r *Route) ContainsRouter(id ids.RouterID) bool {
	for _, x := range r.ClusterList {
		if x == id {
			return true
		}
	}
	return false
}

func (r *Route) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "{prefix: %s, as_path: %v, next_hop: %s, local_pref: %d, med: %d",
		r.Prefix, r.ASPath, r.NextHop, r.LocalPrefOrDefault(), r.MEDOrDefault())
	if len(r.Community) > 0 {
		fmt.Fprintf(&b, ", community: %v", r.Community)
	}
	if r.OriginatorID != nil {
		fmt.Fprintf(&b, ", originator: %s", *r.OriginatorID)
	}
	if len(r.ClusterList) > 0 {
		fmt.Fprintf(&b, ", cluster_list: %v", r.ClusterList)
	}
	b.WriteString("}")
	return b.String()
}

// SessionType classifies the BGP adjacency a route was learned over or is
// to be exported across. "Client" is directional: the reflector sees a
// peer as a client; the peer sees the reflector as a plain iBGP peer.
type SessionType uint8

const (
	EBgp SessionType = iota
	IBgpPeer
	IBgpClient
)

func (t SessionType) IsEBgp() bool { return t == EBgp }
func (t SessionType) IsIBgp() bool { return t != EBgp }

func (t SessionType) String() string {
	switch t {
	case EBgp:
		return "eBGP"
	case IBgpClient:
		return "iBGP RR"
	default:
		return "iBGP"
	}
}

// Event is a BGP message sent between two routers: an UPDATE carrying a
// new or changed route, or a WITHDRAW removing a previously sent one.
type Event struct {
	Withdraw *ids.Prefix
	Update   *Route
}

// Prefix returns the prefix this event concerns.
func (e Event) Prefix() ids.Prefix {
	if e.Withdraw != nil {
		return *e.Withdraw
	}
	return e.Update.Prefix
}

func WithdrawEvent(p ids.Prefix) Event { return Event{Withdraw: &p} }
func UpdateEvent(r *Route) Event       { return Event{Update: r} }

func (e Event) String() string {
	if e.Withdraw != nil {
		return fmt.Sprintf("Withdraw(%s)", *e.Withdraw)
	}
	return fmt.Sprintf("Update(%s)", e.Update)
}

// RibEntry is one adjacency-RIB entry: the route plus the session
// metadata the decision process and exporter consult.
type RibEntry struct {
	Route    *Route
	FromType SessionType
	FromID   ids.RouterID
	ToID     *ids.RouterID
	IGPCost  metric.Cost
	Weight   uint32
}

// Equal reports RIB-entry equality per spec: route and learned-from match.
func (e *RibEntry) Equal(o *RibEntry) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.FromID == o.FromID && routeEqual(e.Route, o.Route)
}

// RouteEqual reports whether a and b carry the same attributes, ignoring
// which session either was learned over.
func RouteEqual(a, b *Route) bool { return routeEqual(a, b) }

func routeEqual(a, b *Route) bool {
	if len(a.ASPath) != len(b.ASPath) {
		return false
	}
	for i := range a.ASPath {
		if a.ASPath[i] != b.ASPath[i] {
			return false
		}
	}
	if !ids.Equal(a.Prefix, b.Prefix) || a.NextHop != b.NextHop {
		return false
	}
	if a.LocalPrefOrDefault() != b.LocalPrefOrDefault() || a.MEDOrDefault() != b.MEDOrDefault() {
		return false
	}
	if len(a.Community) != len(b.Community) {
		return false
	}
	for i := range a.Community {
		if a.Community[i] != b.Community[i] {
			return false
		}
	}
	if (a.OriginatorID == nil) != (b.OriginatorID == nil) {
		return false
	}
	if a.OriginatorID != nil && *a.OriginatorID != *b.OriginatorID {
		return false
	}
	if len(a.ClusterList) != len(b.ClusterList) {
		return false
	}
	for i := range a.ClusterList {
		if a.ClusterList[i] != b.ClusterList[i] {
			return false
		}
	}
	return true
}
