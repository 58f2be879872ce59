package spec

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/bgpsim/bgpsim/pkg/algebra"
	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/kernel"
	"github.com/bgpsim/bgpsim/pkg/metric"
	"github.com/bgpsim/bgpsim/pkg/ospf"
	"github.com/bgpsim/bgpsim/pkg/routemap"
)

// Names maps a scenario's router names to the kernel.RouterID values the
// resolved Kernel assigned them, in both directions.
type Names struct {
	byName map[string]ids.RouterID
	byID   map[ids.RouterID]string
}

// ID looks up the router id a name resolved to.
func (n *Names) ID(name string) (ids.RouterID, bool) {
	id, ok := n.byName[name]
	return id, ok
}

// Name looks up the name a router id was declared under.
func (n *Names) Name(id ids.RouterID) (string, bool) {
	name, ok := n.byID[id]
	return name, ok
}

// Resolve builds a Kernel from a parsed ScenarioSpec, applying every
// section in a fixed order: routers and externals first (so every later
// section can refer to them by name), then links, sessions, static
// routes, load balancing, route maps, and finally advertisements.
func Resolve(s *ScenarioSpec) (*kernel.Kernel, *Names, error) {
	k := kernel.New()
	names := &Names{byName: make(map[string]ids.RouterID), byID: make(map[ids.RouterID]string)}

	for _, r := range s.Routers {
		id := k.AddRouter(ids.ASID(r.AS))
		names.byName[r.Name] = id
		names.byID[id] = r.Name
	}
	for _, r := range s.Externals {
		id := k.AddExternal(ids.ASID(r.AS))
		names.byName[r.Name] = id
		names.byID[id] = r.Name
	}

	for i, l := range s.Links {
		a, z := names.byName[l.A], names.byName[l.Z]
		if err := k.AddLink(a, z); err != nil {
			return nil, nil, fmt.Errorf("links[%d]: %w", i, err)
		}
		if l.Weight != nil {
			if err := k.SetLinkWeight(a, z, metric.New(*l.Weight)); err != nil {
				return nil, nil, fmt.Errorf("links[%d]: %w", i, err)
			}
		}
		if l.Area != nil {
			if err := k.SetLinkArea(a, z, ospf.AreaID(*l.Area)); err != nil {
				return nil, nil, fmt.Errorf("links[%d]: %w", i, err)
			}
		}
	}

	for i, sess := range s.Sessions {
		a, z := names.byName[sess.A], names.byName[sess.Z]
		value := &config.SessionValue{Kind: config.SessionEBgp}
		if sess.Kind == "ibgp" {
			value.Kind = config.SessionIBgp
			if sess.Client != "" {
				value.Client = names.byName[sess.Client]
			}
		}
		if err := k.SetBGPSession(a, z, value); err != nil {
			return nil, nil, fmt.Errorf("sessions[%d]: %w", i, err)
		}
	}

	for i, sr := range s.StaticRoutes {
		prefix, err := ParsePrefix(sr.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("static_routes[%d]: %w", i, err)
		}
		value := &config.StaticRouteValue{Target: names.byName[sr.Target]}
		if sr.Kind == "indirect" {
			value.Kind = config.Indirect
		}
		if err := k.SetStaticRoute(names.byName[sr.Router], prefix, value); err != nil {
			return nil, nil, fmt.Errorf("static_routes[%d]: %w", i, err)
		}
	}

	for i, lb := range s.LoadBalancing {
		if err := k.SetLoadBalancing(names.byName[lb.Router], lb.Enabled); err != nil {
			return nil, nil, fmt.Errorf("load_balancing[%d]: %w", i, err)
		}
	}

	// Route maps must be applied in ascending order per (router, neighbor,
	// direction) so the route-map's own ordering isn't accidentally
	// reshuffled by Set's insertion order — SetBGPRouteMap keys each entry
	// by its own Order regardless, but sorting here keeps the resulting
	// config deterministic across equivalent YAML orderings.
	sortedRouteMaps := append([]RouteMapEntrySpec(nil), s.RouteMaps...)
	sort.SliceStable(sortedRouteMaps, func(i, j int) bool { return sortedRouteMaps[i].Order < sortedRouteMaps[j].Order })
	for i, rm := range sortedRouteMaps {
		entry, err := resolveRouteMapEntry(rm, names)
		if err != nil {
			return nil, nil, fmt.Errorf("route_maps[%d]: %w", i, err)
		}
		dir := config.In
		if rm.Direction == "out" {
			dir = config.Out
		}
		if err := k.SetBGPRouteMap(names.byName[rm.Router], names.byName[rm.Neighbor], dir, entry); err != nil {
			return nil, nil, fmt.Errorf("route_maps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Advertisements {
		prefix, err := ParsePrefix(a.Prefix)
		if err != nil {
			return nil, nil, fmt.Errorf("advertisements[%d]: %w", i, err)
		}
		asPath := make([]ids.ASID, len(a.ASPath))
		for j, as := range a.ASPath {
			asPath[j] = ids.ASID(as)
		}
		community := make([]ids.Community, len(a.Community))
		for j, c := range a.Community {
			com, err := ParseCommunity(c)
			if err != nil {
				return nil, nil, fmt.Errorf("advertisements[%d]: %w", i, err)
			}
			community[j] = com
		}
		if err := k.AdvertiseExternalRoute(names.byName[a.Router], prefix, asPath, a.MED, community); err != nil {
			return nil, nil, fmt.Errorf("advertisements[%d]: %w", i, err)
		}
	}

	if s.StopAfter > 0 {
		k.SetStopAfter(s.StopAfter)
	}

	return k, names, nil
}

func resolveRouteMapEntry(rm RouteMapEntrySpec, names *Names) (*routemap.Entry, error) {
	entry := &routemap.Entry{Order: rm.Order}
	if rm.State == "deny" {
		entry.State = routemap.Deny
	}
	if rm.Flow == "continue" {
		entry.Flow = routemap.Continue
	}

	m := rm.Match
	if m.Neighbor != "" {
		entry.Conditions = append(entry.Conditions, routemap.NeighborIs{ID: names.byName[m.Neighbor]})
	}
	if m.PrefixEquals != "" {
		p, err := ParsePrefix(m.PrefixEquals)
		if err != nil {
			return nil, err
		}
		entry.Conditions = append(entry.Conditions, routemap.PrefixEquals{Prefix: p})
	}
	if m.PrefixCovers != "" {
		p, err := ParsePrefix(m.PrefixCovers)
		if err != nil {
			return nil, err
		}
		entry.Conditions = append(entry.Conditions, routemap.PrefixCovers{Prefix: p})
	}
	if m.ASPathRegexp != "" {
		re, err := regexp.Compile(m.ASPathRegexp)
		if err != nil {
			return nil, fmt.Errorf("as_path_regexp: %w", err)
		}
		entry.Conditions = append(entry.Conditions, routemap.ASPathRegexp{Pattern: re})
	}
	if m.ASPathContains != nil {
		entry.Conditions = append(entry.Conditions, routemap.ASPathContains{AS: ids.ASID(*m.ASPathContains)})
	}
	if m.NextHop != "" {
		entry.Conditions = append(entry.Conditions, routemap.NextHopEquals{Router: names.byName[m.NextHop]})
	}
	if m.CommunityPresent != "" {
		c, err := ParseCommunity(m.CommunityPresent)
		if err != nil {
			return nil, err
		}
		entry.Conditions = append(entry.Conditions, routemap.CommunityPresent{Community: c})
	}
	if m.CommunityAbsent != "" {
		c, err := ParseCommunity(m.CommunityAbsent)
		if err != nil {
			return nil, err
		}
		entry.Conditions = append(entry.Conditions, routemap.CommunityAbsent{Community: c})
	}
	if m.CommunityEmpty {
		entry.Conditions = append(entry.Conditions, routemap.CommunityEmpty{})
	}
	if m.CommunityNonEmpty {
		entry.Conditions = append(entry.Conditions, routemap.CommunityNonEmpty{})
	}

	set := rm.Set
	if set.NextHop != "" {
		entry.Actions = append(entry.Actions, routemap.SetNextHop{Router: names.byName[set.NextHop]})
	}
	if set.LocalPref != nil {
		entry.Actions = append(entry.Actions, routemap.SetLocalPref{Value: *set.LocalPref})
	}
	if set.ClearLocalPref {
		entry.Actions = append(entry.Actions, routemap.ClearLocalPref{})
	}
	if set.MED != nil {
		entry.Actions = append(entry.Actions, routemap.SetMED{Value: *set.MED})
	}
	if set.ClearMED {
		entry.Actions = append(entry.Actions, routemap.ClearMED{})
	}
	if set.Weight != nil {
		entry.Actions = append(entry.Actions, routemap.SetWeight{Value: *set.Weight})
	}
	if set.AddCommunity != "" {
		c, err := ParseCommunity(set.AddCommunity)
		if err != nil {
			return nil, err
		}
		entry.Actions = append(entry.Actions, routemap.AddCommunity{Community: c})
	}
	if set.RemoveCommunity != "" {
		c, err := ParseCommunity(set.RemoveCommunity)
		if err != nil {
			return nil, err
		}
		entry.Actions = append(entry.Actions, routemap.RemoveCommunity{Community: c})
	}
	if set.ClearCommunity {
		entry.Actions = append(entry.Actions, routemap.ClearCommunity{})
	}
	if set.IGPCostOverride != nil {
		entry.Actions = append(entry.Actions, routemap.SetIGPCostOverride{Value: *set.IGPCostOverride})
	}

	return entry, nil
}

// ParsePrefix parses a scenario prefix string into an ids.Prefix: "*"
// selects the SinglePrefix flavor, "P<n>" selects SimplePrefix, and
// anything else is parsed as an IPv4 CIDR literal.
func ParsePrefix(s string) (ids.Prefix, error) {
	switch {
	case s == "*":
		return ids.SinglePrefix{}, nil
	case strings.HasPrefix(s, "P"):
		n, err := strconv.ParseUint(s[1:], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid simple prefix %q: %w", s, err)
		}
		return ids.SimplePrefix(n), nil
	default:
		return parseIPv4CIDR(s)
	}
}

func parseIPv4CIDR(s string) (ids.Prefix, error) {
	addr, lenStr, ok := strings.Cut(s, "/")
	if !ok {
		return nil, fmt.Errorf("invalid prefix %q: expected a.b.c.d/length", s)
	}
	octets := strings.Split(addr, ".")
	if len(octets) != 4 {
		return nil, fmt.Errorf("invalid prefix %q: expected four octets", s)
	}
	var b [4]byte
	for i, o := range octets {
		v, err := strconv.ParseUint(o, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid prefix %q: %w", s, err)
		}
		b[i] = byte(v)
	}
	length, err := strconv.ParseUint(lenStr, 10, 8)
	if err != nil || length > 32 {
		return nil, fmt.Errorf("invalid prefix %q: bad length", s)
	}
	return ids.NewIPv4Prefix(b[0], b[1], b[2], b[3], uint8(length)), nil
}

// ParseCommunity parses a scenario community string in "asn:value" form.
func ParseCommunity(s string) (ids.Community, error) {
	asnStr, valStr, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid community %q: expected asn:value", s)
	}
	asn, err := strconv.ParseUint(asnStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid community %q: %w", s, err)
	}
	val, err := strconv.ParseUint(valStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid community %q: %w", s, err)
	}
	return ids.Community(asn<<16 | val), nil
}

// ResolveCustomProtocol builds a standalone algebra.Registry from a
// scenario's custom_protocol section, keyed by the same router names as
// the rest of the scenario. It returns the NeighborUp events produced by
// bringing up every declared adjacency, ready to be drained by the
// caller's own event loop — the registry is never wired into a Kernel.
func ResolveCustomProtocol(cp *CustomProtocolSpec, names *Names) (*algebra.Registry, []eventqueue.Event, error) {
	reg := algebra.NewRegistry()
	alg := algebra.CostAlgebra{}
	protocols := make(map[ids.RouterID]algebra.Protocol)

	protocolFor := func(id ids.RouterID) algebra.Protocol {
		if p, ok := protocols[id]; ok {
			return p
		}
		var p algebra.Protocol
		if cp.Kind == "path-vector" {
			p = algebra.NewPathVector[metric.Cost](id, alg)
		} else {
			p = algebra.NewDistanceVector[metric.Cost](id, alg)
		}
		protocols[id] = p
		reg.Register(p)
		return p
	}

	var out []eventqueue.Event
	for i, n := range cp.Neighbors {
		a, ok := names.ID(n.A)
		if !ok {
			return nil, nil, fmt.Errorf("custom_protocol.neighbors[%d]: unknown router %q", i, n.A)
		}
		z, ok := names.ID(n.Z)
		if !ok {
			return nil, nil, fmt.Errorf("custom_protocol.neighbors[%d]: unknown router %q", i, n.Z)
		}
		weight := 1.0
		if n.Weight != nil {
			weight = *n.Weight
		}
		cost := metric.New(weight)

		pa := protocolFor(a)
		pz := protocolFor(z)
		out = append(out, pa.NeighborUp(z, cost)...)
		out = append(out, pz.NeighborUp(a, cost)...)
	}
	return reg, out, nil
}
