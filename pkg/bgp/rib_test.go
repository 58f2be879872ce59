package bgp

import (
	"testing"

	"github.com/bgpsim/bgpsim/pkg/ids"
)

func TestRIBInOutLifecycle(t *testing.T) {
	r := NewRIB()
	p := ids.SimplePrefix(42)

	if _, ok := r.In(p, 1); ok {
		t.Fatalf("expected no in entry before SetIn")
	}
	e := baseEntry(1)
	r.SetIn(p, e)
	got, ok := r.In(p, 1)
	if !ok || got != e {
		t.Fatalf("expected stored in entry to round trip")
	}

	cands := r.Candidates(p)
	if len(cands) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(cands))
	}

	if changed := r.SetBest(p, e); !changed {
		t.Fatalf("expected first SetBest to report a change")
	}
	if changed := r.SetBest(p, cloneEntry(e)); changed {
		t.Fatalf("expected SetBest with an equal entry to report no change")
	}
	best, ok := r.Best(p)
	if !ok || best.FromID != 1 {
		t.Fatalf("expected best to be entry from router 1")
	}

	if changed := r.SetOut(p, 9, e); !changed {
		t.Fatalf("expected first SetOut to report a change")
	}
	if _, ok := r.Out(p, 9); !ok {
		t.Fatalf("expected out entry for neighbor 9")
	}
	if !r.RemoveOut(p, 9) {
		t.Fatalf("expected RemoveOut to report removal")
	}
	if _, ok := r.Out(p, 9); ok {
		t.Fatalf("expected out entry gone after removal")
	}

	if !r.RemoveIn(p, 1) {
		t.Fatalf("expected RemoveIn to report removal")
	}
	if len(r.Candidates(p)) != 0 {
		t.Fatalf("expected no candidates after RemoveIn")
	}
}

func TestRIBPrefixesEnumeration(t *testing.T) {
	r := NewRIB()
	p1 := ids.SimplePrefix(1)
	p2 := ids.SimplePrefix(2)
	r.SetIn(p1, baseEntry(1))
	r.SetIn(p2, baseEntry(2))
	prefixes := r.Prefixes()
	if len(prefixes) != 2 {
		t.Fatalf("expected 2 prefixes, got %d", len(prefixes))
	}
}

// cloneEntry produces a RibEntry equal to e per RibEntry.Equal but backed
// by distinct pointers, to exercise SetBest's change detection.
func cloneEntry(e *RibEntry) *RibEntry {
	cp := *e
	cp.Route = e.Route.Clone()
	return &cp
}
