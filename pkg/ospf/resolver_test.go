package ospf

import (
	"reflect"
	"testing"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
)

func TestResolveSingleArea(t *testing.T) {
	g := NewGraph()
	g.SetLink(1, 2, Backbone, metric.New(1))
	g.SetLink(2, 1, Backbone, metric.New(1))
	g.SetLink(2, 3, Backbone, metric.New(1))
	g.SetLink(3, 2, Backbone, metric.New(1))

	table := Resolve(g)
	res := table.Query(1, 3)
	if res.Cost != metric.New(2) {
		t.Fatalf("expected cost 2, got %v", res.Cost)
	}
	if !reflect.DeepEqual(res.NextHops, []ids.RouterID{2}) {
		t.Fatalf("expected next hop {2}, got %v", res.NextHops)
	}
}

func TestResolveECMP(t *testing.T) {
	g := NewGraph()
	// 1 -> 2 -> 4 and 1 -> 3 -> 4, both cost 2, disjoint.
	g.SetLink(1, 2, Backbone, metric.New(1))
	g.SetLink(2, 1, Backbone, metric.New(1))
	g.SetLink(1, 3, Backbone, metric.New(1))
	g.SetLink(3, 1, Backbone, metric.New(1))
	g.SetLink(2, 4, Backbone, metric.New(1))
	g.SetLink(4, 2, Backbone, metric.New(1))
	g.SetLink(3, 4, Backbone, metric.New(1))
	g.SetLink(4, 3, Backbone, metric.New(1))

	table := Resolve(g)
	res := table.Query(1, 4)
	if res.Cost != metric.New(2) {
		t.Fatalf("expected cost 2, got %v", res.Cost)
	}
	if len(res.NextHops) != 2 {
		t.Fatalf("expected two ecmp next hops, got %v", res.NextHops)
	}
}

func TestResolveUnreachable(t *testing.T) {
	g := NewGraph()
	g.AddRouter(1)
	g.AddRouter(2)
	table := Resolve(g)
	res := table.Query(1, 2)
	if res.Cost.Finite() {
		t.Fatalf("expected unreachable routers to report infinite cost")
	}
	if len(res.NextHops) != 0 {
		t.Fatalf("expected empty next hop set for unreachable destination")
	}
}

func TestResolveMultiAreaViaBackbone(t *testing.T) {
	g := NewGraph()
	const areaA AreaID = 1
	const areaB AreaID = 2
	// router 2 is the ABR between area A and the backbone, router 3
	// between the backbone and area B.
	g.SetLink(1, 2, areaA, metric.New(1))
	g.SetLink(2, 1, areaA, metric.New(1))
	g.SetLink(2, 3, Backbone, metric.New(1))
	g.SetLink(3, 2, Backbone, metric.New(1))
	g.SetLink(3, 4, areaB, metric.New(1))
	g.SetLink(4, 3, areaB, metric.New(1))

	table := Resolve(g)
	res := table.Query(1, 4)
	if res.Cost != metric.New(3) {
		t.Fatalf("expected cost 3 transiting the backbone, got %v", res.Cost)
	}
	if !reflect.DeepEqual(res.NextHops, []ids.RouterID{2}) {
		t.Fatalf("expected next hop {2}, got %v", res.NextHops)
	}
}

func TestSetLinkMaxWeightRemovesEdge(t *testing.T) {
	g := NewGraph()
	g.SetLink(1, 2, Backbone, metric.New(1))
	g.SetLink(2, 1, Backbone, metric.New(1))
	g.SetLink(1, 2, Backbone, metric.Cost(metric.MaxWeight))

	table := Resolve(g)
	res := table.Query(1, 2)
	if res.Cost.Finite() {
		t.Fatalf("expected link above max weight to be treated as down")
	}
}
