// Package spec handles loading and validating YAML scenario files: the
// declarative description of a topology, its BGP/static configuration,
// and the external advertisements to inject, resolved into a running
// kernel.Kernel.
package spec

// ScenarioSpec is the root of a scenario file.
type ScenarioSpec struct {
	APIVersion     string               `yaml:"api_version,omitempty"`
	Routers        []RouterSpec        `yaml:"routers"`
	Externals      []RouterSpec        `yaml:"externals,omitempty"`
	Links          []LinkSpec          `yaml:"links,omitempty"`
	Sessions       []SessionSpec       `yaml:"sessions,omitempty"`
	StaticRoutes   []StaticRouteSpec   `yaml:"static_routes,omitempty"`
	LoadBalancing  []LoadBalancingSpec `yaml:"load_balancing,omitempty"`
	RouteMaps      []RouteMapEntrySpec `yaml:"route_maps,omitempty"`
	Advertisements []AdvertisementSpec `yaml:"advertisements,omitempty"`
	CustomProtocol *CustomProtocolSpec `yaml:"custom_protocol,omitempty"`
	StopAfter      uint64              `yaml:"stop_after,omitempty"`
}

// RouterSpec names one internal router or external peer and its AS.
type RouterSpec struct {
	Name string `yaml:"name"`
	AS   uint32 `yaml:"as"`
}

// LinkSpec connects two named routers with an optional IGP weight
// (default 1 on each direction when omitted) and an optional OSPF area
// (default the backbone, area 0, when omitted).
type LinkSpec struct {
	A      string   `yaml:"a"`
	Z      string   `yaml:"z"`
	Weight *float64 `yaml:"weight,omitempty"`
	Area   *uint32  `yaml:"area,omitempty"`
}

// SessionSpec configures a BGP session between two named endpoints.
// Kind is "ebgp" or "ibgp"; Client, for an ibgp session, names the
// endpoint (A or Z) the other side treats as its reflector client.
type SessionSpec struct {
	A      string `yaml:"a"`
	Z      string `yaml:"z"`
	Kind   string `yaml:"kind"`
	Client string `yaml:"client,omitempty"`
}

// StaticRouteSpec installs a static route on Router. Kind is "direct"
// (Target must be a direct neighbor) or "indirect" (Target is resolved
// recursively via OSPF; Target == Router declares a black hole).
type StaticRouteSpec struct {
	Router string `yaml:"router"`
	Prefix string `yaml:"prefix"`
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
}

// LoadBalancingSpec toggles ECMP installation on Router.
type LoadBalancingSpec struct {
	Router  string `yaml:"router"`
	Enabled bool   `yaml:"enabled"`
}

// RouteMapEntrySpec is one route-map rule applied to Router's adjacency
// with Neighbor in Direction ("in" or "out").
type RouteMapEntrySpec struct {
	Router    string        `yaml:"router"`
	Neighbor  string        `yaml:"neighbor"`
	Direction string        `yaml:"direction"`
	Order     int           `yaml:"order"`
	State     string        `yaml:"state"` // allow, deny
	Flow      string        `yaml:"flow"`  // exit, continue
	Match     MatchSpec     `yaml:"match,omitempty"`
	Set       SetSpec       `yaml:"set,omitempty"`
}

// MatchSpec lists the AND-joined conditions of a route-map entry. Zero
// value fields are omitted from the compiled condition list.
type MatchSpec struct {
	Neighbor         string `yaml:"neighbor,omitempty"`
	PrefixEquals     string `yaml:"prefix_equals,omitempty"`
	PrefixCovers     string `yaml:"prefix_covers,omitempty"`
	ASPathRegexp     string `yaml:"as_path_regexp,omitempty"`
	ASPathContains   *uint32 `yaml:"as_path_contains,omitempty"`
	NextHop          string `yaml:"next_hop,omitempty"`
	CommunityPresent string `yaml:"community_present,omitempty"`
	CommunityAbsent  string `yaml:"community_absent,omitempty"`
	CommunityEmpty   bool   `yaml:"community_empty,omitempty"`
	CommunityNonEmpty bool  `yaml:"community_nonempty,omitempty"`
}

// SetSpec lists the set actions of a route-map entry, applied in the
// order the fields are listed here.
type SetSpec struct {
	NextHop          string   `yaml:"next_hop,omitempty"`
	LocalPref        *uint32  `yaml:"local_pref,omitempty"`
	ClearLocalPref   bool     `yaml:"clear_local_pref,omitempty"`
	MED              *uint32  `yaml:"med,omitempty"`
	ClearMED         bool     `yaml:"clear_med,omitempty"`
	Weight           *uint32  `yaml:"weight,omitempty"`
	AddCommunity     string   `yaml:"add_community,omitempty"`
	RemoveCommunity  string   `yaml:"remove_community,omitempty"`
	ClearCommunity   bool     `yaml:"clear_community,omitempty"`
	IGPCostOverride  *float64 `yaml:"igp_cost_override,omitempty"`
}

// AdvertisementSpec injects an external route at Router (which must name
// an external peer).
type AdvertisementSpec struct {
	Router    string   `yaml:"router"`
	Prefix    string   `yaml:"prefix"`
	ASPath    []uint32 `yaml:"as_path,omitempty"`
	MED       *uint32  `yaml:"med,omitempty"`
	Community []string `yaml:"community,omitempty"`
}

// CustomProtocolSpec describes a standalone algebra.Registry to build
// alongside the kernel, wiring distance-vector or path-vector plug-ins
// over the same router names as the scenario's topology.
type CustomProtocolSpec struct {
	Kind      string              `yaml:"kind"` // distance-vector, path-vector
	Neighbors []CustomNeighborSpec `yaml:"neighbors"`
}

// CustomNeighborSpec brings up one adjacency in the custom-protocol
// registry, mirroring a LinkSpec but addressed to the protocol instead
// of the kernel's own BGP/OSPF stack.
type CustomNeighborSpec struct {
	A      string   `yaml:"a"`
	Z      string   `yaml:"z"`
	Weight *float64 `yaml:"weight,omitempty"`
}
