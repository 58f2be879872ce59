package simfmt

import (
	"fmt"
	"strings"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/ids"
)

func asPath(path []ids.ASID) string {
	nums := make([]string, len(path))
	for i, as := range path {
		nums[i] = fmt.Sprintf("%d", uint32(as))
	}
	return "[" + strings.Join(nums, " ") + "]"
}

func communities(cs []ids.Community) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Route formats a bare BGP route, resolving its next hop through res.
func Route(res Resolver, r *bgp.Route) string {
	var b strings.Builder
	fmt.Fprintf(&b, "prefix: %s, AsPath: %s, next hop: %s", r.Prefix, asPath(r.ASPath), res.Name(r.NextHop))
	if r.LocalPref != nil {
		fmt.Fprintf(&b, ", local pref: %d", *r.LocalPref)
	}
	if r.MED != nil {
		fmt.Fprintf(&b, ", MED: %d", *r.MED)
	}
	if len(r.Community) > 0 {
		fmt.Fprintf(&b, ", community: %s", communities(r.Community))
	}
	return b.String()
}

// RibEntry formats one adjacency-RIB entry, resolving next hop and
// learned-from router through res.
func RibEntry(res Resolver, e *bgp.RibEntry) string {
	return fmt.Sprintf(
		"prefix: %s, as_path: %s, local_pref: %d, MED: %d, IGP Cost: %s, next_hop: %s, from: %s",
		e.Route.Prefix, asPath(e.Route.ASPath), e.Route.LocalPrefOrDefault(), e.Route.MEDOrDefault(),
		formatCost(e.IGPCost), res.Name(e.Route.NextHop), res.Name(e.FromID),
	)
}
