package bgp

// Better reports whether a is strictly preferred over b under the
// nine-step decision order. Ties (all nine criteria equal) return false
// for both Better(a, b) and Better(b, a) — callers that need a single
// winner among equivalent entries fall back to comparing FromID, which
// step 9 already does, so a true tie cannot occur between two distinct
// adjacency-RIB entries (distinct FromID is part of RibEntry identity).
func Better(a, b *RibEntry) bool {
	// 1. Larger local weight.
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	// 2. Larger LOCAL_PREF.
	if ap, bp := a.Route.LocalPrefOrDefault(), b.Route.LocalPrefOrDefault(); ap != bp {
		return ap > bp
	}
	// 3. Shorter AS_PATH.
	if al, bl := len(a.Route.ASPath), len(b.Route.ASPath); al != bl {
		return al < bl
	}
	// 4. Lower MED (always-compare variant; see DESIGN.md Open Question).
	if am, bm := a.Route.MEDOrDefault(), b.Route.MEDOrDefault(); am != bm {
		return am < bm
	}
	// 5. eBGP preferred over iBGP.
	if a.FromType.IsEBgp() != b.FromType.IsEBgp() {
		return a.FromType.IsEBgp()
	}
	// 6. Lower IGP cost to NEXT_HOP.
	if !a.IGPCost.EqualWithin(b.IGPCost) {
		return a.IGPCost.Less(b.IGPCost)
	}
	// 7. Lower effective originator id.
	ao, bo := a.Route.EffectiveOriginator(a.FromID), b.Route.EffectiveOriginator(b.FromID)
	if ao != bo {
		return ao < bo
	}
	// 8. Shorter CLUSTER_LIST.
	if al, bl := len(a.Route.ClusterList), len(b.Route.ClusterList); al != bl {
		return al < bl
	}
	// 9. Lower learned-from router id.
	return a.FromID < b.FromID
}

// Best returns the most preferred entry among candidates, or nil if
// candidates is empty. Ties beyond step 9 cannot occur (see Better), so
// the result is deterministic regardless of input order.
func Best(candidates []*RibEntry) *RibEntry {
	var best *RibEntry
	for _, c := range candidates {
		if best == nil || Better(c, best) {
			best = c
		}
	}
	return best
}

// EqualCostGroup returns every entry in candidates tied with the winner on
// every criterion up to (but not including) the final from-id tiebreak —
// used by Router when load balancing is enabled to keep every route that
// is operationally equivalent, not just the lexicographically first one.
func EqualCostGroup(candidates []*RibEntry) []*RibEntry {
	best := Best(candidates)
	if best == nil {
		return nil
	}
	var group []*RibEntry
	for _, c := range candidates {
		if tiedExceptFromID(c, best) {
			group = append(group, c)
		}
	}
	return group
}

func tiedExceptFromID(a, b *RibEntry) bool {
	if a.Weight != b.Weight {
		return false
	}
	if a.Route.LocalPrefOrDefault() != b.Route.LocalPrefOrDefault() {
		return false
	}
	if len(a.Route.ASPath) != len(b.Route.ASPath) {
		return false
	}
	if a.Route.MEDOrDefault() != b.Route.MEDOrDefault() {
		return false
	}
	if a.FromType.IsEBgp() != b.FromType.IsEBgp() {
		return false
	}
	if !a.IGPCost.EqualWithin(b.IGPCost) {
		return false
	}
	ao, bo := a.Route.EffectiveOriginator(a.FromID), b.Route.EffectiveOriginator(b.FromID)
	if ao != bo {
		return false
	}
	if len(a.Route.ClusterList) != len(b.Route.ClusterList) {
		return false
	}
	return true
}
