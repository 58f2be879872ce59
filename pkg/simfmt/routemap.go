package simfmt

import (
	"fmt"
	"strings"

	"github.com/bgpsim/bgpsim/pkg/routemap"
)

// RouteMapEntry formats one route-map rule: its state, order, AND-joined
// match conditions, and comma-joined set actions.
func RouteMapEntry(res Resolver, e *routemap.Entry) string {
	state := "allow"
	if e.State == routemap.Deny {
		state = "deny "
	}

	conds := "*"
	if len(e.Conditions) > 0 {
		parts := make([]string, len(e.Conditions))
		for i, c := range e.Conditions {
			parts[i] = routeMapMatch(res, c)
		}
		conds = strings.Join(parts, " AND ")
	}

	actions := make([]string, len(e.Actions))
	for i, a := range e.Actions {
		actions[i] = routeMapSet(res, a)
	}

	return fmt.Sprintf("%s %d %s set [%s]", state, e.Order, conds, strings.Join(actions, ", "))
}

func routeMapMatch(res Resolver, c routemap.Condition) string {
	switch cond := c.(type) {
	case routemap.NeighborIs:
		return fmt.Sprintf("Neighbor %s", res.Name(cond.ID))
	case routemap.PrefixEquals:
		return fmt.Sprintf("Prefix == %s", cond.Prefix)
	case routemap.PrefixCovers:
		return fmt.Sprintf("Prefix covers %s", cond.Prefix)
	case routemap.ASPathRegexp:
		return fmt.Sprintf("AsPath =~ /%s/", cond.Pattern)
	case routemap.ASPathContains:
		return fmt.Sprintf("AsPath contains %s", cond.AS)
	case routemap.NextHopEquals:
		return fmt.Sprintf("NextHop == %s", res.Name(cond.Router))
	case routemap.CommunityPresent:
		return fmt.Sprintf("Community %s present", cond.Community)
	case routemap.CommunityAbsent:
		return fmt.Sprintf("Community %s absent", cond.Community)
	case routemap.CommunityEmpty:
		return "Community empty"
	case routemap.CommunityNonEmpty:
		return "Community nonempty"
	default:
		return fmt.Sprintf("%v", c)
	}
}

func routeMapSet(res Resolver, a routemap.Action) string {
	switch act := a.(type) {
	case routemap.SetNextHop:
		return fmt.Sprintf("NextHop = %s", res.Name(act.Router))
	case routemap.SetLocalPref:
		return fmt.Sprintf("LocalPref = %d", act.Value)
	case routemap.ClearLocalPref:
		return "clear LocalPref"
	case routemap.SetMED:
		return fmt.Sprintf("MED = %d", act.Value)
	case routemap.ClearMED:
		return "clear MED"
	case routemap.SetWeight:
		return fmt.Sprintf("Weight = %d", act.Value)
	case routemap.AddCommunity:
		return fmt.Sprintf("Community += %s", act.Community)
	case routemap.RemoveCommunity:
		return fmt.Sprintf("Community -= %s", act.Community)
	case routemap.ClearCommunity:
		return "clear Community"
	case routemap.SetIGPCostOverride:
		return fmt.Sprintf("IgpCost = %.2f", act.Value)
	default:
		return fmt.Sprintf("%v", a)
	}
}
