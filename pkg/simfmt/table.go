package simfmt

import (
	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/cli"
	"github.com/bgpsim/bgpsim/pkg/ids"
)

// BGPTable builds a rendered table of every known route a router holds
// for prefix, the selected best route marked with a leading "*".
func BGPTable(res Resolver, rib *bgp.RIB, prefix ids.Prefix) *cli.Table {
	t := cli.NewTable("", "PREFIX", "AS PATH", "LOCAL PREF", "MED", "IGP COST", "NEXT HOP", "FROM")

	best, hasBest := rib.Best(prefix)
	for _, entry := range rib.Candidates(prefix) {
		marker := " "
		if hasBest && entry.Equal(best) {
			marker = "*"
		}
		t.Row(
			marker,
			entry.Route.Prefix.String(),
			asPath(entry.Route.ASPath),
			formatUint32(entry.Route.LocalPrefOrDefault()),
			formatUint32(entry.Route.MEDOrDefault()),
			formatCost(entry.IGPCost),
			res.Name(entry.Route.NextHop),
			res.Name(entry.FromID),
		)
	}
	return t
}
