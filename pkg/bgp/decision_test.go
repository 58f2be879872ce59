package bgp

import (
	"testing"

	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/metric"
)

func mustPrefix(v uint32) ids.Prefix { return ids.SimplePrefix(v) }

func baseEntry(from ids.RouterID) *RibEntry {
	return &RibEntry{
		Route: &Route{
			Prefix:  mustPrefix(1),
			ASPath:  []ids.ASID{1, 2},
			NextHop: from,
		},
		FromType: EBgp,
		FromID:   from,
		IGPCost:  metric.New(10),
		Weight:   0,
	}
}

func TestBetterWeight(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	a.Weight = 100
	if !Better(a, b) {
		t.Fatalf("expected higher weight to win")
	}
	if Better(b, a) {
		t.Fatalf("lower weight should not beat higher weight")
	}
}

func TestBetterLocalPref(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	lp := uint32(200)
	a.Route.LocalPref = &lp
	if !Better(a, b) {
		t.Fatalf("expected higher local pref to win")
	}
}

func TestBetterASPathLength(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	b.Route.ASPath = []ids.ASID{1, 2, 3, 4}
	if !Better(a, b) {
		t.Fatalf("expected shorter as path to win")
	}
}

func TestBetterMED(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	med := uint32(5)
	b.Route.MED = &med
	if !Better(a, b) {
		t.Fatalf("expected lower med to win (default med is 0)")
	}
}

func TestBetterEBGPOverIBGP(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	a.FromType = IBgpPeer
	b.FromType = EBgp
	if Better(a, b) {
		t.Fatalf("ibgp should not beat ebgp")
	}
	if !Better(b, a) {
		t.Fatalf("ebgp should beat ibgp")
	}
}

func TestBetterIGPCost(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	a.FromType, b.FromType = IBgpPeer, IBgpPeer
	a.IGPCost = metric.New(5)
	b.IGPCost = metric.New(20)
	if !Better(a, b) {
		t.Fatalf("expected lower igp cost to win")
	}
}

func TestBetterOriginatorAndFromID(t *testing.T) {
	a := baseEntry(3)
	b := baseEntry(7)
	a.FromType, b.FromType = IBgpPeer, IBgpPeer
	if !Better(a, b) {
		t.Fatalf("expected lower from id to win as final tiebreak")
	}
}

func TestBestAndEqualCostGroup(t *testing.T) {
	a := baseEntry(1)
	b := baseEntry(2)
	c := baseEntry(3)
	// A shared ORIGINATOR_ID ties step 7, so only the from id differs.
	orig := ids.RouterID(9)
	for _, e := range []*RibEntry{a, b, c} {
		e.Route.OriginatorID = &orig
	}
	candidates := []*RibEntry{b, c, a}
	best := Best(candidates)
	if best.FromID != 1 {
		t.Fatalf("expected router 1 to win ties via lowest from id, got %v", best.FromID)
	}
	group := EqualCostGroup(candidates)
	if len(group) != 3 {
		t.Fatalf("expected all three entries tied except from-id, got %d", len(group))
	}
}
