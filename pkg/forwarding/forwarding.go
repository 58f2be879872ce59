// Package forwarding derives the global forwarding-state view from a set
// of routers' resolved FIBs: next hops, full path enumeration with loop
// and black-hole detection, and terminal-reachability queries.
package forwarding

import (
	"sort"

	"github.com/bgpsim/bgpsim/pkg/device"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simerr"
)

// destSentinel is a reserved router id (zero is never assigned to a real
// router) used as the reversed-index key under which terminal delivery
// is recorded, so get_terminals reduces to the same reverse lookup as
// get_prev_hops.
const destSentinel ids.RouterID = 0

// Outcome is the resolved FIB outcome for one (router, prefix) pair,
// mirroring device.FIBResult but stored for every router up front so the
// state can be queried and diffed without re-resolving each router's FIB.
type Outcome struct {
	NextHops []ids.RouterID
	Terminal bool
}

func (o Outcome) equal(other Outcome) bool {
	if o.Terminal != other.Terminal || len(o.NextHops) != len(other.NextHops) {
		return false
	}
	for i, h := range o.NextHops {
		if other.NextHops[i] != h {
			return false
		}
	}
	return true
}

type cacheKind uint8

const (
	cacheHole cacheKind = iota
	cachePath
	cacheLoop
)

// cacheEntry is the memoized result of enumerating paths from one router
// towards one prefix: either the full set of paths, the walk up to a
// black hole, or the walk up to (and the rotation of) a forwarding loop.
type cacheEntry struct {
	kind   cacheKind
	paths  [][]ids.RouterID
	hole   []ids.RouterID
	toLoop []ids.RouterID
	cycle  []ids.RouterID
}

func (e cacheEntry) result() ([][]ids.RouterID, error) {
	switch e.kind {
	case cachePath:
		return e.paths, nil
	case cacheHole:
		return nil, &simerr.ForwardingBlackHoleError{Path: toUint64(e.hole)}
	default:
		return nil, &simerr.ForwardingLoopError{ToLoop: toUint64(e.toLoop), Cycle: toUint64(e.cycle)}
	}
}

func toUint64(rs []ids.RouterID) []uint64 {
	out := make([]uint64, len(rs))
	for i, r := range rs {
		out[i] = uint64(r)
	}
	return out
}

// State is a snapshot of the forwarding decisions made by a set of
// routers: for each router and prefix, the next hops its FIB resolved
// to. It supports next-hop/path/terminal queries and can be compared
// against another snapshot to find what changed.
type State struct {
	state    map[ids.RouterID]*ids.PrefixMap[Outcome]
	reversed map[ids.RouterID]*ids.PrefixMap[map[ids.RouterID]bool]
	cache    map[ids.RouterID]*ids.PrefixMap[cacheEntry]
}

// FromRouters builds a forwarding state by resolving every router's FIB
// for every given prefix. Only internal routers get entries: a route
// whose selected next hop is the router itself (it originates the
// prefix, or terminates a static indirect route at itself) is recorded
// as a terminal rather than as a next hop, and so is a route whose next
// hop is an external peer — external routers aren't modeled in the
// forwarding graph, so handing a packet off to one is the edge of what
// this view can see, equivalent to delivering it. A next-hop set mixing
// internal and external routers (multiple egress peers reached via
// load balancing) keeps only the internal hops; the external branches
// are dropped rather than half-modeled.
func FromRouters(routers []*device.Router, externals []ids.RouterID, prefixes []ids.Prefix) *State {
	externalSet := make(map[ids.RouterID]bool, len(externals))
	for _, e := range externals {
		externalSet[e] = true
	}

	s := newState()
	for _, r := range routers {
		for _, p := range prefixes {
			res := r.FIB(p)
			if res.Terminal {
				s.set(r.ID, p, Outcome{Terminal: true})
				continue
			}
			internal := make([]ids.RouterID, 0, len(res.NextHops))
			for _, h := range res.NextHops {
				if !externalSet[h] {
					internal = append(internal, h)
				}
			}
			if len(res.NextHops) > 0 && len(internal) == 0 {
				s.set(r.ID, p, Outcome{Terminal: true})
				continue
			}
			s.set(r.ID, p, Outcome{NextHops: internal})
		}
	}
	return s
}

func newState() *State {
	return &State{
		state:    map[ids.RouterID]*ids.PrefixMap[Outcome]{},
		reversed: map[ids.RouterID]*ids.PrefixMap[map[ids.RouterID]bool]{},
		cache:    map[ids.RouterID]*ids.PrefixMap[cacheEntry]{},
	}
}

func (s *State) stateMap(router ids.RouterID) *ids.PrefixMap[Outcome] {
	m, ok := s.state[router]
	if !ok {
		m = ids.NewPrefixMap[Outcome]()
		s.state[router] = m
	}
	return m
}

func (s *State) reversedMap(nextHop ids.RouterID) *ids.PrefixMap[map[ids.RouterID]bool] {
	m, ok := s.reversed[nextHop]
	if !ok {
		m = ids.NewPrefixMap[map[ids.RouterID]bool]()
		s.reversed[nextHop] = m
	}
	return m
}

func (s *State) addReversed(nextHop ids.RouterID, prefix ids.Prefix, from ids.RouterID) {
	m := s.reversedMap(nextHop)
	set, ok := m.Get(prefix)
	if !ok {
		set = map[ids.RouterID]bool{}
		m.Insert(prefix, set)
	}
	set[from] = true
}

func (s *State) removeReversed(nextHop ids.RouterID, prefix ids.Prefix, from ids.RouterID) {
	m, ok := s.reversed[nextHop]
	if !ok {
		return
	}
	if set, ok := m.Get(prefix); ok {
		delete(set, from)
	}
}

// set installs router's outcome for prefix, updating the reverse index
// and invalidating the cache entries this edge could have contributed to.
func (s *State) set(router ids.RouterID, prefix ids.Prefix, next Outcome) {
	m := s.stateMap(router)
	old, hadOld := m.Get(prefix)
	if hadOld && old.equal(next) {
		return
	}
	m.Insert(prefix, next)

	if hadOld {
		if old.Terminal {
			s.removeReversed(destSentinel, prefix, router)
		}
		for _, h := range old.NextHops {
			s.removeReversed(h, prefix, router)
		}
	}
	if next.Terminal {
		s.addReversed(destSentinel, prefix, router)
	}
	for _, h := range next.NextHops {
		s.addReversed(h, prefix, router)
	}

	s.invalidate(router, prefix)
}

// Update changes a single router's outcome for a prefix in place,
// invalidating whatever cached paths depended on it. Intended for
// incremental updates to an existing snapshot rather than rebuilding it
// with FromRouters.
func (s *State) Update(router ids.RouterID, prefix ids.Prefix, next Outcome) {
	s.set(router, prefix, next)
}

func (s *State) invalidate(router ids.RouterID, prefix ids.Prefix) {
	cache, ok := s.cache[router]
	if !ok {
		return
	}
	toInvalidate := []ids.Prefix{prefix}
	for _, e := range cache.ChildEntries(prefix) {
		toInvalidate = append(toInvalidate, e.Key)
	}
	for _, p := range toInvalidate {
		s.recursiveInvalidate(router, p)
	}
}

func (s *State) recursiveInvalidate(router ids.RouterID, prefix ids.Prefix) {
	cache, ok := s.cache[router]
	if !ok {
		return
	}
	if !cache.Remove(prefix) {
		return
	}
	rev, ok := s.reversed[router]
	if !ok {
		return
	}
	set, ok := rev.Get(prefix)
	if !ok {
		return
	}
	for prev := range set {
		s.recursiveInvalidate(prev, prefix)
	}
}

// NextHops returns the next hops router uses for prefix via longest
// prefix match. A terminal router, or one with no route at all, returns
// nil — use IsTerminal/IsBlackHole to tell those two apart.
func (s *State) NextHops(router ids.RouterID, prefix ids.Prefix) []ids.RouterID {
	m, ok := s.state[router]
	if !ok {
		return nil
	}
	o, ok := m.LPM(prefix)
	if !ok || o.Terminal {
		return nil
	}
	return o.NextHops
}

// IsTerminal reports whether router delivers prefix locally rather than
// forwarding it further.
func (s *State) IsTerminal(router ids.RouterID, prefix ids.Prefix) bool {
	m, ok := s.state[router]
	if !ok {
		return false
	}
	o, ok := m.LPM(prefix)
	return ok && o.Terminal
}

// IsBlackHole reports whether router drops packets for prefix: it has
// neither a next hop nor a terminal route.
func (s *State) IsBlackHole(router ids.RouterID, prefix ids.Prefix) bool {
	m, ok := s.state[router]
	if !ok {
		return true
	}
	o, ok := m.LPM(prefix)
	if !ok {
		return true
	}
	return !o.Terminal && len(o.NextHops) == 0
}

// Terminals returns every router that delivers prefix locally.
func (s *State) Terminals(prefix ids.Prefix) []ids.RouterID {
	m, ok := s.reversed[destSentinel]
	if !ok {
		return nil
	}
	set, ok := m.LPM(prefix)
	if !ok {
		return nil
	}
	return setToSlice(set)
}

// PrevHops returns every router whose FIB for prefix points at router.
func (s *State) PrevHops(router ids.RouterID, prefix ids.Prefix) []ids.RouterID {
	m, ok := s.reversed[router]
	if !ok {
		return nil
	}
	set, ok := m.LPM(prefix)
	if !ok {
		return nil
	}
	return setToSlice(set)
}

// NodesAlongPaths returns every router reachable from router by
// following next hops towards prefix, including router itself. Loops
// and black holes still return the set of nodes visited before either
// was found.
func (s *State) NodesAlongPaths(router ids.RouterID, prefix ids.Prefix) map[ids.RouterID]bool {
	result := map[ids.RouterID]bool{}
	stack := []ids.RouterID{router}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if result[cur] {
			continue
		}
		result[cur] = true
		for _, nh := range s.NextHops(cur, prefix) {
			if !result[nh] {
				stack = append(stack, nh)
			}
		}
	}
	return result
}

// Paths enumerates every forwarding path from source towards prefix,
// branching at each equal-cost next-hop set. It fails with a
// *simerr.ForwardingBlackHoleError or *simerr.ForwardingLoopError if any
// branch drops the packet or loops before delivering it.
func (s *State) Paths(source ids.RouterID, prefix ids.Prefix) ([][]ids.RouterID, error) {
	visited := map[ids.RouterID]bool{source: true}
	path := []ids.RouterID{source}
	entry := s.pathsMemo(prefix, source, visited, path)
	return entry.result()
}

func (s *State) pathsMemo(prefix ids.Prefix, cur ids.RouterID, visited map[ids.RouterID]bool, path []ids.RouterID) cacheEntry {
	cache, ok := s.cache[cur]
	if ok {
		if e, ok := cache.Get(prefix); ok {
			return e
		}
	} else {
		cache = ids.NewPrefixMap[cacheEntry]()
		s.cache[cur] = cache
	}
	e := s.pathsInner(prefix, cur, visited, path)
	cache.Insert(prefix, e)
	return e
}

func (s *State) pathsInner(prefix ids.Prefix, cur ids.RouterID, visited map[ids.RouterID]bool, path []ids.RouterID) cacheEntry {
	m, ok := s.state[cur]
	var o Outcome
	found := false
	if ok {
		o, found = m.LPM(prefix)
	}
	if !found {
		return cacheEntry{kind: cacheHole, hole: []ids.RouterID{cur}}
	}
	if o.Terminal {
		return cacheEntry{kind: cachePath, paths: [][]ids.RouterID{{cur}}}
	}
	if len(o.NextHops) == 0 {
		return cacheEntry{kind: cacheHole, hole: []ids.RouterID{cur}}
	}

	var fwPaths [][]ids.RouterID
	for _, nh := range o.NextHops {
		if visited[nh] {
			idx := indexOf(path, nh)
			cycle := rotateRight1(append([]ids.RouterID(nil), path[idx:]...))
			return cacheEntry{kind: cacheLoop, cycle: cycle}
		}

		visited[nh] = true
		path = append(path, nh)
		sub := s.pathsMemo(prefix, nh, visited, path)
		visited[nh] = false
		path = path[:len(path)-1]

		switch sub.kind {
		case cacheHole:
			hole := append([]ids.RouterID{cur}, sub.hole...)
			return cacheEntry{kind: cacheHole, hole: hole}
		case cacheLoop:
			firstLoop := append([]ids.RouterID(nil), sub.cycle...)
			toLoop := append([]ids.RouterID(nil), sub.toLoop...)
			if contains(firstLoop, cur) {
				firstLoop = rotateRight1(firstLoop)
			} else {
				toLoop = append([]ids.RouterID{cur}, toLoop...)
			}
			return cacheEntry{kind: cacheLoop, toLoop: toLoop, cycle: firstLoop}
		default:
			for _, p := range sub.paths {
				fwPaths = append(fwPaths, append([]ids.RouterID{cur}, p...))
			}
		}
	}
	return cacheEntry{kind: cachePath, paths: fwPaths}
}

func indexOf(s []ids.RouterID, v ids.RouterID) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func contains(s []ids.RouterID, v ids.RouterID) bool { return indexOf(s, v) >= 0 }

func rotateRight1(s []ids.RouterID) []ids.RouterID {
	if len(s) == 0 {
		return s
	}
	out := make([]ids.RouterID, len(s))
	out[0] = s[len(s)-1]
	copy(out[1:], s[:len(s)-1])
	return out
}

func setToSlice(s map[ids.RouterID]bool) []ids.RouterID {
	out := make([]ids.RouterID, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Delta is one (router, prefix) pair whose resolved outcome differs
// between two forwarding-state snapshots.
type Delta struct {
	Router ids.RouterID
	Prefix ids.Prefix
	Old    Outcome
	New    Outcome
}

// Diff compares two forwarding-state snapshots and returns every
// (router, prefix) pair whose stored outcome differs, in no particular
// order. Comparison is against the exact entries each snapshot stored,
// not an LPM resolution — an untouched more-specific prefix does not
// show up as changed merely because a covering prefix's outcome moved.
func Diff(a, b *State) []Delta {
	routers := map[ids.RouterID]bool{}
	for r := range a.state {
		routers[r] = true
	}
	for r := range b.state {
		routers[r] = true
	}

	var out []Delta
	for router := range routers {
		am := a.state[router]
		bm := b.state[router]
		prefixes := map[ids.Prefix]bool{}
		if am != nil {
			for _, e := range am.All() {
				prefixes[e.Key] = true
			}
		}
		if bm != nil {
			for _, e := range bm.All() {
				prefixes[e.Key] = true
			}
		}
		for prefix := range prefixes {
			var aOut, bOut Outcome
			if am != nil {
				aOut, _ = am.Get(prefix)
			}
			if bm != nil {
				bOut, _ = bm.Get(prefix)
			}
			if !aOut.equal(bOut) {
				out = append(out, Delta{Router: router, Prefix: prefix, Old: aOut, New: bOut})
			}
		}
	}
	return out
}
