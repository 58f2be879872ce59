package device

import (
	"testing"

	"github.com/bgpsim/bgpsim/pkg/bgp"
	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
)

func TestOnUpdateInstallsBestAndExports(t *testing.T) {
	r := NewRouter(1, 100)
	r.sessions[2] = &Session{Type: bgp.EBgp, Up: true}
	r.sessions[3] = &Session{Type: bgp.EBgp, Up: true}

	route := &bgp.Route{Prefix: ids.SimplePrefix(5), ASPath: []ids.ASID{200}, NextHop: 2}
	events := r.OnUpdate(2, route)

	best, ok := r.rib.Best(ids.SimplePrefix(5))
	if !ok {
		t.Fatalf("expected a selected route")
	}
	if best.FromID != 2 {
		t.Fatalf("expected best learned from router 2")
	}

	found := false
	for _, e := range events {
		if e.Kind == eventqueue.KindBgp && e.Dst == 3 {
			found = true
			if e.BgpEvent.Update == nil {
				t.Fatalf("expected an update event toward neighbor 3")
			}
		}
		if e.Dst == 2 {
			t.Fatalf("expected split horizon to suppress export back to the learned-from neighbor")
		}
	}
	if !found {
		t.Fatalf("expected an export toward neighbor 3")
	}
}

func TestOnUpdateLoopGuardEBGP(t *testing.T) {
	r := NewRouter(1, 100)
	r.sessions[2] = &Session{Type: bgp.EBgp, Up: true}
	route := &bgp.Route{Prefix: ids.SimplePrefix(5), ASPath: []ids.ASID{100}, NextHop: 2}
	r.OnUpdate(2, route)
	if _, ok := r.rib.Best(ids.SimplePrefix(5)); ok {
		t.Fatalf("expected route containing own AS to be rejected")
	}
}

func TestIBGPPeerNotReflectedToPeer(t *testing.T) {
	r := NewRouter(1, 100)
	r.sessions[2] = &Session{Type: bgp.IBgpPeer, Up: true}
	r.sessions[3] = &Session{Type: bgp.IBgpPeer, Up: true}

	route := &bgp.Route{Prefix: ids.SimplePrefix(5), ASPath: nil, NextHop: 2}
	events := r.OnUpdate(2, route)
	for _, e := range events {
		if e.Dst == 3 {
			t.Fatalf("expected no export to another plain ibgp peer")
		}
	}
}

func TestIBGPPeerReflectedToClient(t *testing.T) {
	r := NewRouter(1, 100)
	r.sessions[2] = &Session{Type: bgp.IBgpPeer, Up: true}
	r.sessions[3] = &Session{Type: bgp.IBgpClient, Up: true}

	route := &bgp.Route{Prefix: ids.SimplePrefix(5), ASPath: nil, NextHop: 2}
	events := r.OnUpdate(2, route)
	found := false
	for _, e := range events {
		if e.Dst == 3 {
			found = true
			if e.BgpEvent.Update.OriginatorID == nil {
				t.Fatalf("expected originator id to be set when reflecting to a client")
			}
		}
	}
	if !found {
		t.Fatalf("expected the route to be reflected down to the client")
	}
}

func TestSessionDownRemovesRouteAndReexports(t *testing.T) {
	r := NewRouter(1, 100)
	r.sessions[2] = &Session{Type: bgp.EBgp, Up: true}
	r.sessions[3] = &Session{Type: bgp.EBgp, Up: true}
	route := &bgp.Route{Prefix: ids.SimplePrefix(5), ASPath: []ids.ASID{200}, NextHop: 2}
	r.OnUpdate(2, route)

	events := r.CloseSession(2)
	if _, ok := r.rib.Best(ids.SimplePrefix(5)); ok {
		t.Fatalf("expected no selected route once the only source session closes")
	}
	found := false
	for _, e := range events {
		if e.Dst == 3 && e.BgpEvent.Withdraw != nil {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a withdraw toward neighbor 3 once the route is gone")
	}
}

func TestFIBStaticRouteWins(t *testing.T) {
	r := NewRouter(1, 100)
	target := ids.RouterID(9)
	r.SetStaticRoute(ids.SimplePrefix(7), &config.StaticRouteValue{Kind: config.Direct, Target: target})
	res := r.FIB(ids.SimplePrefix(7))
	if len(res.NextHops) != 1 || res.NextHops[0] != target {
		t.Fatalf("expected static route next hop %v, got %v", target, res.NextHops)
	}
}
