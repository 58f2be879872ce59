// Package kernel provides the top-level Kernel object that owns the whole
// simulated network: the physical/OSPF graph, the device table of Routers
// and ExternalRouters, the configuration surface, and the event queue they
// exchange BGP messages through. Kernel is the only entry point the public
// API reaches devices and the queue through, generalized from the teacher's
// top-level Network object that owns all specs and creates Device instances
// within its context.
package kernel

import (
	"fmt"
	"sync"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/device"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/forwarding"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
	"github.com/bgpsim/bgpsim/pkg/ospf"
	"github.com/bgpsim/bgpsim/pkg/routemap"
	"github.com/bgpsim/bgpsim/pkg/simerr"
	"github.com/bgpsim/bgpsim/pkg/simlog"
)

// Kernel owns every mutable piece of one simulated network. It is not safe
// for concurrent use from multiple goroutines at once; the mutex below
// serializes the public API the way a single-threaded event loop would,
// rather than allowing genuine parallel mutation.
type Kernel struct {
	mu sync.Mutex

	arena     ids.Arena
	routers   map[ids.RouterID]*device.Router
	externals map[ids.RouterID]*device.ExternalRouter
	asOf      map[ids.RouterID]ids.ASID

	graph     *ospf.Graph
	ospfTable *ospf.Table

	cfg *config.Config

	queue         *eventqueue.Queue
	skipQueue     bool
	pending       []eventqueue.Event
	stopAfter     *uint64
	knownPrefixes *ids.PrefixSet
}

// New creates an empty Kernel with a default FIFO event queue.
func New() *Kernel {
	return &Kernel{
		routers:       map[ids.RouterID]*device.Router{},
		externals:     map[ids.RouterID]*device.ExternalRouter{},
		asOf:          map[ids.RouterID]ids.ASID{},
		graph:         ospf.NewGraph(),
		cfg:           config.New(),
		queue:         eventqueue.New(),
		knownPrefixes: ids.NewPrefixSet(),
	}
}

// NewWithDiscipline creates an empty Kernel whose event queue orders events
// per the given discipline instead of FIFO.
func NewWithDiscipline(d eventqueue.Discipline) *Kernel {
	k := New()
	k.queue = eventqueue.NewWithDiscipline(d)
	return k
}

// Link names an undirected pair by index into the router slice NewFromTopology
// returns, the narrow (routers, links) shape a topology generator could fill
// in without the kernel knowing anything about how it was produced.
type Link struct {
	A, B int
}

// NewFromTopology builds a Kernel with routerCount internal routers, all in
// the given AS, connected per links. It implements no sampling itself —
// generating links is left entirely to the caller.
func NewFromTopology(routerCount int, as ids.ASID, links []Link) (*Kernel, []ids.RouterID, error) {
	k := New()
	rids := make([]ids.RouterID, routerCount)
	for i := range rids {
		rids[i] = k.AddRouter(as)
	}
	for _, l := range links {
		if l.A < 0 || l.A >= routerCount || l.B < 0 || l.B >= routerCount {
			return nil, nil, fmt.Errorf("kernel: link index out of range: %+v", l)
		}
		if err := k.AddLink(rids[l.A], rids[l.B]); err != nil {
			return nil, nil, err
		}
	}
	return k, rids, nil
}

// AddRouter allocates a new internal (BGP/OSPF-speaking) router in as.
func (k *Kernel) AddRouter(as ids.ASID) ids.RouterID {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.arena.Next()
	k.routers[id] = device.NewRouter(id, as)
	k.asOf[id] = as
	k.graph.AddRouter(id)
	return id
}

// AddExternal allocates a new external (eBGP-only, no OSPF) router in as.
func (k *Kernel) AddExternal(as ids.ASID) ids.RouterID {
	k.mu.Lock()
	defer k.mu.Unlock()
	id := k.arena.Next()
	k.externals[id] = device.NewExternalRouter(id, as)
	k.asOf[id] = as
	return id
}

func (k *Kernel) isExternal(id ids.RouterID) bool {
	_, ok := k.externals[id]
	return ok
}

func (k *Kernel) requireRouter(id ids.RouterID) error {
	if _, ok := k.routers[id]; ok {
		return nil
	}
	if _, ok := k.externals[id]; ok {
		return nil
	}
	return &simerr.RouterNotFoundError{Router: uint64(id)}
}

func (k *Kernel) requireInternal(id ids.RouterID) error {
	if _, ok := k.routers[id]; ok {
		return nil
	}
	if _, ok := k.externals[id]; ok {
		return simerr.ErrDeviceIsExternal
	}
	return &simerr.RouterNotFoundError{Router: uint64(id)}
}

func (k *Kernel) requireExternal(id ids.RouterID) error {
	if _, ok := k.externals[id]; ok {
		return nil
	}
	if _, ok := k.routers[id]; ok {
		return simerr.ErrDeviceIsInternal
	}
	return &simerr.RouterNotFoundError{Router: uint64(id)}
}

// enqueue routes freshly produced events either straight onto the queue or,
// while a patch is being applied, into the pending buffer drained once the
// whole patch lands — the skip_queue batching the spec describes.
func (k *Kernel) enqueue(events []eventqueue.Event) {
	if k.skipQueue {
		k.pending = append(k.pending, events...)
		return
	}
	k.queue.PushAll(events)
}

// ---------------------------------------------------------------------
// Links and IGP weights
// ---------------------------------------------------------------------

// AddLink installs a bidirectional link between a and b at default weight
// 1 in each direction and triggers an OSPF write-back. Two external routers
// may not be linked directly.
func (k *Kernel) AddLink(a, b ids.RouterID) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireRouter(a); err != nil {
		return err
	}
	if err := k.requireRouter(b); err != nil {
		return err
	}
	if k.isExternal(a) && k.isExternal(b) {
		return simerr.ErrCannotConnectExternals
	}
	patch := &config.Patch{}
	one := metric.New(1)
	patch.Append(config.Insert(config.Expr{Key: config.LinkWeightKey(a, b), Value: config.Value{Weight: one}}))
	patch.Append(config.Insert(config.Expr{Key: config.LinkWeightKey(b, a), Value: config.Value{Weight: one}}))
	return k.applyPatchLocked(patch)
}

// RemoveLink tears down both directions of the link between a and b and
// triggers an OSPF write-back.
func (k *Kernel) RemoveLink(a, b ids.RouterID) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	patch := &config.Patch{}
	for _, key := range []config.Key{config.LinkWeightKey(a, b), config.LinkWeightKey(b, a)} {
		if v, ok := k.cfg.Get(key); ok {
			patch.Append(config.Remove(config.Expr{Key: key, Value: v}))
		}
	}
	if len(patch.Modifiers) == 0 {
		return simerr.ErrLinkNotFound
	}
	return k.applyPatchLocked(patch)
}

// SetLinkWeight sets the directional weight of the a->b link and triggers
// an OSPF write-back. Neither endpoint may be external.
func (k *Kernel) SetLinkWeight(a, b ids.RouterID, weight metric.Cost) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.isExternal(a) || k.isExternal(b) {
		return simerr.ErrCannotConfigureExternalLink
	}
	key := config.LinkWeightKey(a, b)
	existing, had := k.cfg.Get(key)
	var m config.Modifier
	if had {
		updated := existing
		updated.Weight = weight
		m = config.Update(config.Expr{Key: key, Value: existing}, config.Expr{Key: key, Value: updated})
	} else {
		m = config.Insert(config.Expr{Key: key, Value: config.Value{Weight: weight}})
	}
	return k.applyModifierLocked(m)
}

// SetLinkArea assigns the OSPF area both directions of the a<->b link
// belong to and triggers an OSPF write-back. Neither endpoint may be
// external, and the link must already exist in both directions.
func (k *Kernel) SetLinkArea(a, b ids.RouterID, area ospf.AreaID) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.isExternal(a) || k.isExternal(b) {
		return simerr.ErrCannotConfigureExternalLink
	}
	patch := &config.Patch{}
	for _, key := range []config.Key{config.LinkWeightKey(a, b), config.LinkWeightKey(b, a)} {
		existing, ok := k.cfg.Get(key)
		if !ok {
			return simerr.ErrLinkNotFound
		}
		updated := existing
		updated.Area = area
		patch.Append(config.Update(config.Expr{Key: key, Value: existing}, config.Expr{Key: key, Value: updated}))
	}
	return k.applyPatchLocked(patch)
}

func (k *Kernel) ospfWriteBack() []eventqueue.Event {
	k.ospfTable = ospf.Resolve(k.graph)
	var events []eventqueue.Event
	for _, r := range k.routers {
		r.SetOSPFTable(k.ospfTable)
		events = append(events, r.ReevaluateIGPCosts()...)
	}
	return events
}

// ---------------------------------------------------------------------
// BGP sessions
// ---------------------------------------------------------------------

func sessionTypes(v config.SessionValue, a, b ids.RouterID) (bgp.SessionType, bgp.SessionType) {
	if v.Kind == config.SessionEBgp {
		return bgp.EBgp, bgp.EBgp
	}
	switch v.Client {
	case a:
		return bgp.IBgpPeer, bgp.IBgpClient
	case b:
		return bgp.IBgpClient, bgp.IBgpPeer
	default:
		return bgp.IBgpPeer, bgp.IBgpPeer
	}
}

func (k *Kernel) establishOneSide(self, other ids.RouterID, t bgp.SessionType) []eventqueue.Event {
	if r, ok := k.routers[self]; ok {
		return r.EstablishSession(other, t)
	}
	if e, ok := k.externals[self]; ok {
		events, err := e.EstablishSession(other)
		if err != nil {
			simlog.WithRouter(uint64(self)).WithField("neighbor", uint64(other)).Warn("re-establishing an already-up external session")
		}
		return events
	}
	return nil
}

func (k *Kernel) closeOneSide(self, other ids.RouterID) []eventqueue.Event {
	if r, ok := k.routers[self]; ok {
		return r.CloseSession(other)
	}
	if e, ok := k.externals[self]; ok {
		_ = e.CloseSession(other)
	}
	return nil
}

// SetBGPSession installs, changes, or (value == nil) tears down the session
// between a and b. An eBGP session requires exactly one external endpoint;
// an iBGP session forbids any.
func (k *Kernel) SetBGPSession(a, b ids.RouterID, value *config.SessionValue) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireRouter(a); err != nil {
		return err
	}
	if err := k.requireRouter(b); err != nil {
		return err
	}
	key := config.SessionKey(a, b)
	existing, had := k.cfg.Get(key)

	if value == nil {
		if !had {
			return &simerr.NoBgpSessionError{A: uint64(a), B: uint64(b)}
		}
		return k.applyModifierLocked(config.Remove(config.Expr{Key: key, Value: existing}))
	}

	extCount := 0
	if k.isExternal(a) {
		extCount++
	}
	if k.isExternal(b) {
		extCount++
	}
	if value.Kind == config.SessionEBgp && extCount != 1 {
		return &simerr.InvalidBgpSessionTypeError{A: uint64(a), B: uint64(b), Reason: "ebgp session requires exactly one external endpoint"}
	}
	if value.Kind == config.SessionIBgp && extCount != 0 {
		return &simerr.InvalidBgpSessionTypeError{A: uint64(a), B: uint64(b), Reason: "ibgp session forbids any external endpoint"}
	}

	newExpr := config.Expr{Key: key, Value: config.Value{Session: *value}}
	if had {
		return k.applyModifierLocked(config.Update(config.Expr{Key: key, Value: existing}, newExpr))
	}
	return k.applyModifierLocked(config.Insert(newExpr))
}

// ---------------------------------------------------------------------
// Route maps, static routes, load balancing
// ---------------------------------------------------------------------

// SetBGPRouteMap installs or replaces the route-map entry at entry.Order for
// router's session with neighbor in direction dir.
func (k *Kernel) SetBGPRouteMap(router, neighbor ids.RouterID, dir config.Direction, entry *routemap.Entry) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireInternal(router); err != nil {
		return err
	}
	key := config.RouteMapKey(router, neighbor, dir, entry.Order)
	existing, had := k.cfg.Get(key)
	newExpr := config.Expr{Key: key, Value: config.Value{RouteMapEntry: entry}}
	if had {
		return k.applyModifierLocked(config.Update(config.Expr{Key: key, Value: existing}, newExpr))
	}
	return k.applyModifierLocked(config.Insert(newExpr))
}

// RemoveBGPRouteMap deletes the route-map entry at order for router's
// session with neighbor in direction dir.
func (k *Kernel) RemoveBGPRouteMap(router, neighbor ids.RouterID, dir config.Direction, order int) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireInternal(router); err != nil {
		return err
	}
	key := config.RouteMapKey(router, neighbor, dir, order)
	existing, had := k.cfg.Get(key)
	if !had {
		return fmt.Errorf("kernel: no route-map entry at order %d for router %s neighbor %s", order, router, neighbor)
	}
	return k.applyModifierLocked(config.Remove(config.Expr{Key: key, Value: existing}))
}

// SetStaticRoute installs or (route == nil) clears router's static route
// for prefix.
func (k *Kernel) SetStaticRoute(router ids.RouterID, prefix ids.Prefix, route *config.StaticRouteValue) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireInternal(router); err != nil {
		return err
	}
	key := config.StaticRouteKey(router, prefix)
	existing, had := k.cfg.Get(key)
	if route == nil {
		if !had {
			return nil
		}
		return k.applyModifierLocked(config.Remove(config.Expr{Key: key, Value: existing}))
	}
	newExpr := config.Expr{Key: key, Value: config.Value{StaticRoute: *route}}
	if had {
		return k.applyModifierLocked(config.Update(config.Expr{Key: key, Value: existing}, newExpr))
	}
	return k.applyModifierLocked(config.Insert(newExpr))
}

// SetLoadBalancing toggles ECMP FIB installation on router.
func (k *Kernel) SetLoadBalancing(router ids.RouterID, enabled bool) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireInternal(router); err != nil {
		return err
	}
	key := config.LoadBalancingKey(router)
	existing, had := k.cfg.Get(key)
	newExpr := config.Expr{Key: key, Value: config.Value{LoadBalancing: enabled}}
	if had {
		return k.applyModifierLocked(config.Update(config.Expr{Key: key, Value: existing}, newExpr))
	}
	return k.applyModifierLocked(config.Insert(newExpr))
}

// ---------------------------------------------------------------------
// External advertisements
// ---------------------------------------------------------------------

// AdvertiseExternalRoute installs or overwrites router's advertisement for
// prefix and enqueues the resulting UPDATEs toward its established
// neighbors.
func (k *Kernel) AdvertiseExternalRoute(router ids.RouterID, prefix ids.Prefix, asPath []ids.ASID, med *uint32, community []ids.Community) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireExternal(router); err != nil {
		return err
	}
	k.knownPrefixes.Insert(prefix)
	events := k.externals[router].AdvertisePrefix(prefix, asPath, med, community)
	k.enqueue(events)
	return nil
}

// WithdrawExternalRoute withdraws router's advertisement for prefix, if any,
// and enqueues the resulting WITHDRAWs.
func (k *Kernel) WithdrawExternalRoute(router ids.RouterID, prefix ids.Prefix) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.requireExternal(router); err != nil {
		return err
	}
	events := k.externals[router].WithdrawPrefix(prefix)
	k.enqueue(events)
	return nil
}

// ---------------------------------------------------------------------
// Modifier / patch / config transactionality
// ---------------------------------------------------------------------

// realize translates an already-cfg-applied Modifier into the device-level
// mutation it describes, returning the events that mutation produced.
func (k *Kernel) realize(m config.Modifier) ([]eventqueue.Event, error) {
	key := m.To.Key
	value := m.To.Value
	if m.Kind == config.ModRemove {
		key = m.From.Key
		value = m.From.Value
	}

	switch key.Kind {
	case config.LinkWeight:
		if m.Kind == config.ModRemove {
			k.graph.RemoveLink(key.Src, key.Dst)
		} else {
			k.graph.SetLink(key.Src, key.Dst, value.Area, value.Weight)
		}
		return k.ospfWriteBack(), nil

	case config.Session:
		a, b := key.Src, key.Dst
		if m.Kind == config.ModRemove {
			var events []eventqueue.Event
			events = append(events, k.closeOneSide(a, b)...)
			events = append(events, k.closeOneSide(b, a)...)
			return events, nil
		}
		aType, bType := sessionTypes(value.Session, a, b)
		var events []eventqueue.Event
		events = append(events, k.establishOneSide(a, b, aType)...)
		events = append(events, k.establishOneSide(b, a, bType)...)
		return events, nil

	case config.RouteMapEntry:
		r, ok := k.routers[key.Router]
		if !ok {
			return nil, &simerr.RouterNotFoundError{Router: uint64(key.Router)}
		}
		edit := device.RouteMapEdit{Neighbor: key.Neighbor, Direction: key.Direction, Order: key.Order}
		if m.Kind == config.ModRemove {
			edit.Remove = true
		} else {
			edit.Entry = value.RouteMapEntry
		}
		return r.ApplyRouteMapEdits([]device.RouteMapEdit{edit}), nil

	case config.StaticRoute:
		r, ok := k.routers[key.Router]
		if !ok {
			return nil, &simerr.RouterNotFoundError{Router: uint64(key.Router)}
		}
		if m.Kind == config.ModRemove {
			r.SetStaticRoute(key.Prefix, nil)
		} else {
			sr := value.StaticRoute
			r.SetStaticRoute(key.Prefix, &sr)
		}
		return nil, nil

	case config.LoadBalancing:
		r, ok := k.routers[key.Router]
		if !ok {
			return nil, &simerr.RouterNotFoundError{Router: uint64(key.Router)}
		}
		r.SetLoadBalance(value.LoadBalancing)
		return nil, nil

	default:
		return nil, fmt.Errorf("kernel: unknown expression kind %v", key.Kind)
	}
}

// ApplyModifier applies m to the configuration and realizes it against the
// device table atomically: on failure the configuration is rolled back to
// its state before m, and no events are enqueued.
func (k *Kernel) ApplyModifier(m config.Modifier) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.applyModifierLocked(m)
}

func (k *Kernel) applyModifierLocked(m config.Modifier) error {
	if err := m.Validate(); err != nil {
		return err
	}
	before := k.cfg.Clone()
	if err := k.cfg.ApplyModifier(m); err != nil {
		return err
	}
	events, err := k.realize(m)
	if err != nil {
		k.cfg = before
		return simerr.NewModifierError(m.Kind.String(), err)
	}
	k.enqueue(events)
	return nil
}

// ApplyPatch applies every modifier of p in order, buffering the events each
// realize() call produces until the whole patch lands (skip_queue), then
// draining them onto the queue at once. A modifier failing mid-patch leaves
// the kernel in the state the spec calls undefined: earlier modifiers in
// the patch are not rolled back.
func (k *Kernel) ApplyPatch(p *config.Patch) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.applyPatchLocked(p)
}

func (k *Kernel) applyPatchLocked(p *config.Patch) error {
	prevSkip := k.skipQueue
	k.skipQueue = true
	savedPending := k.pending
	k.pending = nil
	for i, m := range p.Modifiers {
		if err := k.applyModifierLocked(m); err != nil {
			k.skipQueue = prevSkip
			k.pending = savedPending
			return fmt.Errorf("kernel: patch modifier %d: %w", i, err)
		}
	}
	drained := k.pending
	k.pending = savedPending
	k.skipQueue = prevSkip
	k.enqueue(drained)
	return nil
}

// SetConfig diffs the kernel's current configuration against c and applies
// the resulting patch as one transaction.
func (k *Kernel) SetConfig(c *config.Config) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	patch := k.cfg.Diff(c)
	return k.applyPatchLocked(patch)
}

// Config returns a snapshot of the kernel's current configuration.
func (k *Kernel) Config() *config.Config {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cfg.Clone()
}

// ---------------------------------------------------------------------
// Budget and simulation
// ---------------------------------------------------------------------

// SetStopAfter installs a hard event-count budget: Simulate returns
// simerr.ErrNoConvergence once n events have been processed without the
// queue draining.
func (k *Kernel) SetStopAfter(n uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopAfter = &n
}

// ClearStopAfter removes any event-count budget.
func (k *Kernel) ClearStopAfter() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopAfter = nil
}

func (k *Kernel) dispatch(e eventqueue.Event) []eventqueue.Event {
	if e.Kind != eventqueue.KindBgp {
		return nil
	}
	r, ok := k.routers[e.Dst]
	if !ok {
		return nil
	}
	if e.BgpEvent.Withdraw != nil {
		return r.OnWithdraw(e.Src, *e.BgpEvent.Withdraw)
	}
	return r.OnUpdate(e.Src, e.BgpEvent.Update)
}

// Simulate drains the event queue until empty, or until stop_after events
// have been processed without reaching quiescence, in which case it
// returns simerr.ErrNoConvergence and leaves any remaining events queued.
func (k *Kernel) Simulate() error {
	return k.SimulateTrace(nil)
}

// SimulateTrace drains the event queue exactly as Simulate does, but calls
// onDispatch with every event popped off the queue before it is processed,
// letting a caller record or render the run as it happens instead of only
// inspecting the kernel's state once it settles. onDispatch may be nil, in
// which case SimulateTrace behaves exactly like Simulate.
func (k *Kernel) SimulateTrace(onDispatch func(eventqueue.Event)) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	var processed uint64
	for !k.queue.Empty() {
		if k.stopAfter != nil && processed >= *k.stopAfter {
			return simerr.ErrNoConvergence
		}
		e, ok := k.queue.Pop()
		if !ok {
			break
		}
		if onDispatch != nil {
			onDispatch(e)
		}
		processed++
		k.enqueue(k.dispatch(e))
	}
	return nil
}

// QueueLen reports how many events remain queued.
func (k *Kernel) QueueLen() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.queue.Len()
}

// Router returns the internal router with id, if any.
func (k *Kernel) Router(id ids.RouterID) (*device.Router, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	r, ok := k.routers[id]
	return r, ok
}

// External returns the external router with id, if any.
func (k *Kernel) External(id ids.RouterID) (*device.ExternalRouter, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.externals[id]
	return e, ok
}

// Routers returns every internal router id, in no particular order.
func (k *Kernel) Routers() []ids.RouterID {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]ids.RouterID, 0, len(k.routers))
	for id := range k.routers {
		out = append(out, id)
	}
	return out
}

// Externals returns every external router id, in no particular order.
func (k *Kernel) Externals() []ids.RouterID {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]ids.RouterID, 0, len(k.externals))
	for id := range k.externals {
		out = append(out, id)
	}
	return out
}

// KnownPrefixes returns every prefix ever advertised by an external router.
func (k *Kernel) KnownPrefixes() []ids.Prefix {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.knownPrefixes.Keys()
}

// ForwardingState resolves every internal router's FIB for every known
// prefix into a forwarding.State snapshot, suitable for path enumeration,
// terminal/black-hole queries, and diffing against an earlier snapshot.
// Callers should take one after Simulate reaches quiescence; a snapshot
// taken mid-convergence reflects whatever partial state the RIBs hold at
// that instant.
func (k *Kernel) ForwardingState() *forwarding.State {
	k.mu.Lock()
	defer k.mu.Unlock()
	routers := make([]*device.Router, 0, len(k.routers))
	for _, r := range k.routers {
		routers = append(routers, r)
	}
	externals := make([]ids.RouterID, 0, len(k.externals))
	for id := range k.externals {
		externals = append(externals, id)
	}
	return forwarding.FromRouters(routers, externals, k.knownPrefixes.Keys())
}
