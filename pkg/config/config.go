// Package config models the simulator's external configuration surface:
// a Config is a set of ConfigExpr values keyed by a natural key so at
// most one expression exists per key, diffable into a ConfigPatch of
// ConfigModifiers that the kernel applies transactionally.
package config

import (
	"fmt"
	"reflect"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
	"github.com/bgpsim/bgpsim/pkg/ospf"
	"github.com/bgpsim/bgpsim/pkg/routemap"
)

// ExprKind tags which configuration family a ConfigExpr belongs to.
type ExprKind uint8

const (
	LinkWeight ExprKind = iota
	Session
	RouteMapEntry
	StaticRoute
	LoadBalancing
)

func (k ExprKind) String() string {
	switch k {
	case LinkWeight:
		return "link_weight"
	case Session:
		return "session"
	case RouteMapEntry:
		return "route_map_entry"
	case StaticRoute:
		return "static_route"
	case LoadBalancing:
		return "load_balancing"
	default:
		return "unknown"
	}
}

// Direction distinguishes a router's incoming and outgoing route-map
// pipelines.
type Direction uint8

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == In {
		return "in"
	}
	return "out"
}

// Key is the natural key of a ConfigExpr. Which fields are meaningful
// depends on Kind; unused fields stay zero, the way the teacher's
// Change struct always carries both OldValue and NewValue maps whether
// or not a given change type uses them.
type Key struct {
	Kind      ExprKind
	Src, Dst  ids.RouterID // LinkWeight: directional src -> dst. Session: canonical pair, Src < Dst.
	Neighbor  ids.RouterID // RouteMapEntry
	Direction Direction    // RouteMapEntry
	Order     int          // RouteMapEntry
	Router    ids.RouterID // StaticRoute, LoadBalancing
	Prefix    ids.Prefix   // StaticRoute
}

// LinkWeightKey builds the natural key for a directional IGP link weight.
func LinkWeightKey(src, dst ids.RouterID) Key {
	return Key{Kind: LinkWeight, Src: src, Dst: dst}
}

// SessionKey builds the natural key for a BGP session, canonicalizing
// the pair so {a,b} and {b,a} collide on the same expression.
func SessionKey(a, b ids.RouterID) Key {
	if a > b {
		a, b = b, a
	}
	return Key{Kind: Session, Src: a, Dst: b}
}

// RouteMapKey builds the natural key for one route-map entry.
func RouteMapKey(router, neighbor ids.RouterID, dir Direction, order int) Key {
	return Key{Kind: RouteMapEntry, Router: router, Neighbor: neighbor, Direction: dir, Order: order}
}

// StaticRouteKey builds the natural key for a static route.
func StaticRouteKey(router ids.RouterID, prefix ids.Prefix) Key {
	return Key{Kind: StaticRoute, Router: router, Prefix: prefix}
}

// LoadBalancingKey builds the natural key for a router's load-balancing flag.
func LoadBalancingKey(router ids.RouterID) Key {
	return Key{Kind: LoadBalancing, Router: router}
}

// SessionKindT distinguishes eBGP from iBGP at the configuration layer;
// reflector polarity is carried separately via Client.
type SessionKindT uint8

const (
	SessionEBgp SessionKindT = iota
	SessionIBgp
)

// SessionValue configures one BGP session. Client, if non-zero, names
// the endpoint the other side treats as its reflector client; zero means
// a plain iBGP peer relationship. Meaningless when Kind is SessionEBgp.
type SessionValue struct {
	Kind   SessionKindT
	Client ids.RouterID
}

// StaticRouteKind distinguishes the two static route flavors.
type StaticRouteKind uint8

const (
	Direct StaticRouteKind = iota
	Indirect
)

// StaticRouteValue is Direct(next_hop) (must be a direct neighbor) or
// Indirect(target) (resolved recursively via OSPF; target == router
// declares a black hole for that prefix).
type StaticRouteValue struct {
	Kind   StaticRouteKind
	Target ids.RouterID
}

// Value holds the payload of a ConfigExpr. Which fields are meaningful
// is selected by the owning Key's Kind: Weight and Area both apply to
// LinkWeight, every other Kind uses exactly one field.
type Value struct {
	Weight        metric.Cost
	Area          ospf.AreaID // LinkWeight
	Session       SessionValue
	RouteMapEntry *routemap.Entry
	StaticRoute   StaticRouteValue
	LoadBalancing bool
}

// Expr is one configuration expression: a key and its value.
type Expr struct {
	Key   Key
	Value Value
}

// Config is a set of expressions, at most one per Key.
type Config struct {
	exprs map[Key]Value
}

// New creates an empty Config.
func New() *Config {
	return &Config{exprs: map[Key]Value{}}
}

// Get returns the expression stored at key, if any.
func (c *Config) Get(key Key) (Value, bool) {
	v, ok := c.exprs[key]
	return v, ok
}

// Set installs or overwrites the expression at key.
func (c *Config) Set(key Key, value Value) {
	c.exprs[key] = value
}

// Unset removes the expression at key, reporting whether one was present.
func (c *Config) Unset(key Key) bool {
	if _, ok := c.exprs[key]; !ok {
		return false
	}
	delete(c.exprs, key)
	return true
}

// Exprs returns every stored expression, in no particular order.
func (c *Config) Exprs() []Expr {
	out := make([]Expr, 0, len(c.exprs))
	for k, v := range c.exprs {
		out = append(out, Expr{Key: k, Value: v})
	}
	return out
}

// Clone returns a shallow copy whose expression set can be mutated
// independently of c.
func (c *Config) Clone() *Config {
	cp := New()
	for k, v := range c.exprs {
		cp.exprs[k] = v
	}
	return cp
}

// ApplyModifier mutates c according to m, erroring (and leaving c
// unchanged) on a duplicate Insert, a missing Remove, or a missing
// Update target — the idempotence contract the kernel relies on to
// detect and roll back a bad single modifier.
func (c *Config) ApplyModifier(m Modifier) error {
	if err := m.Validate(); err != nil {
		return err
	}
	switch m.Kind {
	case ModInsert:
		if _, ok := c.exprs[m.To.Key]; ok {
			return fmt.Errorf("config: expr already exists for key %v", m.To.Key)
		}
		c.exprs[m.To.Key] = m.To.Value
	case ModRemove:
		if _, ok := c.exprs[m.From.Key]; !ok {
			return fmt.Errorf("config: no expr for key %v", m.From.Key)
		}
		delete(c.exprs, m.From.Key)
	case ModUpdate:
		if _, ok := c.exprs[m.From.Key]; !ok {
			return fmt.Errorf("config: no expr for key %v", m.From.Key)
		}
		c.exprs[m.To.Key] = m.To.Value
	}
	return nil
}

// ApplyPatch applies every modifier in order, stopping and returning an
// error at the first failure. The caller (the kernel) is responsible for
// rollback semantics; Config itself does not buffer or undo partial work.
func (c *Config) ApplyPatch(p *Patch) error {
	for i, m := range p.Modifiers {
		if err := c.ApplyModifier(m); err != nil {
			return fmt.Errorf("config: modifier %d: %w", i, err)
		}
	}
	return nil
}

// Diff returns the ordered patch that transforms c into other: removals
// for keys present in c but absent from other, inserts for keys present
// in other but absent from c, and updates for keys present in both whose
// values differ. Applying Diff(c, other) to c reproduces other as a set
// of expressions.
func (c *Config) Diff(other *Config) *Patch {
	patch := &Patch{}
	for k, v := range c.exprs {
		if ov, ok := other.exprs[k]; !ok {
			patch.Modifiers = append(patch.Modifiers, Remove(Expr{Key: k, Value: v}))
		} else if !valueEqual(k.Kind, v, ov) {
			patch.Modifiers = append(patch.Modifiers, Update(Expr{Key: k, Value: v}, Expr{Key: k, Value: ov}))
		}
	}
	for k, v := range other.exprs {
		if _, ok := c.exprs[k]; !ok {
			patch.Modifiers = append(patch.Modifiers, Insert(Expr{Key: k, Value: v}))
		}
	}
	return patch
}

func valueEqual(kind ExprKind, a, b Value) bool {
	switch kind {
	case LinkWeight:
		return a.Weight.EqualWithin(b.Weight) && a.Area == b.Area
	case Session:
		return a.Session == b.Session
	case RouteMapEntry:
		return entryEqual(a.RouteMapEntry, b.RouteMapEntry)
	case StaticRoute:
		return a.StaticRoute == b.StaticRoute
	case LoadBalancing:
		return a.LoadBalancing == b.LoadBalancing
	default:
		return false
	}
}

func entryEqual(a, b *routemap.Entry) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Order == b.Order && a.State == b.State && a.Flow == b.Flow &&
		reflect.DeepEqual(a.Conditions, b.Conditions) && reflect.DeepEqual(a.Actions, b.Actions)
}
