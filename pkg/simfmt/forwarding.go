package simfmt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bgpsim/bgpsim/pkg/forwarding"
	"github.com/bgpsim/bgpsim/pkg/ids"
)

// ForwardingState formats the resolved next hop of every router in
// routers, for every prefix in prefixes, one prefix block per line group.
func ForwardingState(res Resolver, state *forwarding.State, routers []ids.RouterID, prefixes []ids.Prefix) string {
	sortedRouters := append([]ids.RouterID(nil), routers...)
	sort.Slice(sortedRouters, func(i, j int) bool { return sortedRouters[i] < sortedRouters[j] })

	var b strings.Builder
	for _, prefix := range prefixes {
		fmt.Fprintf(&b, "Prefix %s\n", prefix)
		for _, router := range sortedRouters {
			var next string
			switch {
			case state.IsTerminal(router, prefix):
				next = "terminal"
			case state.IsBlackHole(router, prefix):
				next = "XX"
			default:
				next = names(res, state.NextHops(router, prefix))
			}
			prev := names(res, state.PrevHops(router, prefix))
			fmt.Fprintf(&b, "  %s -> %s; reversed: [%s]\n", res.Name(router), next, prev)
		}
	}
	return b.String()
}

func names(res Resolver, hops []ids.RouterID) string {
	parts := make([]string, len(hops))
	for i, id := range hops {
		parts[i] = res.Name(id)
	}
	return strings.Join(parts, ", ")
}

// StepUpdate formats a single forwarding-state delta: the router and
// prefix whose resolved next-hop set changed, old set versus new set.
func StepUpdate(res Resolver, d forwarding.Delta) string {
	return fmt.Sprintf("%s:%s %s => %s", res.Name(d.Router), d.Prefix, outcome(res, d.Old), outcome(res, d.New))
}

func outcome(res Resolver, o forwarding.Outcome) string {
	if o.Terminal {
		return "terminal"
	}
	if len(o.NextHops) == 0 {
		return "XX"
	}
	return names(res, o.NextHops)
}
