package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
	"github.com/bgpsim/bgpsim/pkg/routemap"
)

func TestApplyModifierIdempotence(t *testing.T) {
	c := New()
	key := LinkWeightKey(1, 2)
	expr := Expr{Key: key, Value: Value{Weight: metric.New(5)}}

	if err := c.ApplyModifier(Insert(expr)); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if err := c.ApplyModifier(Insert(expr)); err == nil {
		t.Fatalf("expected second insert of the same key to error")
	}
}

func TestApplyModifierRemoveMissing(t *testing.T) {
	c := New()
	expr := Expr{Key: LinkWeightKey(1, 2), Value: Value{Weight: metric.New(5)}}
	if err := c.ApplyModifier(Remove(expr)); err == nil {
		t.Fatalf("expected remove of a missing expr to error")
	}
}

func TestDiffRoundTrip(t *testing.T) {
	rmKey := RouteMapKey(1, 2, In, 0)

	c1 := New()
	c1.Set(LinkWeightKey(1, 2), Value{Weight: metric.New(1)})
	c1.Set(StaticRouteKey(1, ids.SimplePrefix(9)), Value{StaticRoute: StaticRouteValue{Kind: Direct, Target: 2}})
	c1.Set(rmKey, Value{RouteMapEntry: &routemap.Entry{
		Order:      0,
		State:      routemap.Allow,
		Conditions: []routemap.Condition{routemap.NeighborIs{ID: 5}},
		Actions:    []routemap.Action{routemap.SetLocalPref{Value: 100}},
		Flow:       routemap.Exit,
	}})

	c2 := New()
	c2.Set(LinkWeightKey(1, 2), Value{Weight: metric.New(4)})
	c2.Set(LinkWeightKey(2, 3), Value{Weight: metric.New(1)})
	c2.Set(rmKey, Value{RouteMapEntry: &routemap.Entry{
		Order:      0,
		State:      routemap.Allow,
		Conditions: []routemap.Condition{routemap.NeighborIs{ID: 9}},
		Actions:    []routemap.Action{routemap.SetLocalPref{Value: 200}},
		Flow:       routemap.Exit,
	}})

	patch := c1.Diff(c2)
	working := c1.Clone()
	if err := working.ApplyPatch(patch); err != nil {
		t.Fatalf("apply patch: %v", err)
	}

	for _, e := range c2.Exprs() {
		got, ok := working.Get(e.Key)
		if !ok {
			t.Fatalf("expected key %v present after patch", e.Key)
		}
		if diff := cmp.Diff(e.Value, got); diff != "" {
			t.Fatalf("key %v: unexpected diff after patch (-want +got):\n%s", e.Key, diff)
		}
	}
	if len(working.Exprs()) != len(c2.Exprs()) {
		t.Fatalf("expected patched config to have exactly c2's expressions")
	}
}

func TestDiffUpdatesRouteMapEntryOnContentOnlyChange(t *testing.T) {
	rmKey := RouteMapKey(1, 2, In, 0)

	c1 := New()
	c1.Set(rmKey, Value{RouteMapEntry: &routemap.Entry{
		Order:      0,
		State:      routemap.Allow,
		Conditions: []routemap.Condition{routemap.NeighborIs{ID: 5}},
		Flow:       routemap.Exit,
	}})

	c2 := New()
	c2.Set(rmKey, Value{RouteMapEntry: &routemap.Entry{
		Order:      0,
		State:      routemap.Allow,
		Conditions: []routemap.Condition{routemap.NeighborIs{ID: 9}},
		Flow:       routemap.Exit,
	}})

	patch := c1.Diff(c2)
	if len(patch.Modifiers) != 1 || patch.Modifiers[0].Kind != ModUpdate {
		t.Fatalf("expected a single update modifier for a Conditions-only change, got %v", patch.Modifiers)
	}
}

func TestInverse(t *testing.T) {
	expr := Expr{Key: LinkWeightKey(1, 2), Value: Value{Weight: metric.New(1)}}
	ins := Insert(expr)
	inv := ins.Inverse()
	if inv.Kind != ModRemove || inv.From.Key != expr.Key {
		t.Fatalf("expected insert's inverse to be a remove of the same key")
	}
}
