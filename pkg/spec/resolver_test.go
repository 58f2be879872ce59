package spec

import (
	"testing"

	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/ospf"
)

func TestResolveBuildsConvergingTopology(t *testing.T) {
	s, err := Parse([]byte(`
routers:
  - name: r1
    as: 65001
  - name: r2
    as: 65001
externals:
  - name: ext1
    as: 65010
links:
  - a: r1
    z: r2
  - a: ext1
    z: r1
sessions:
  - a: r1
    z: r2
    kind: ibgp
  - a: ext1
    z: r1
    kind: ebgp
advertisements:
  - router: ext1
    prefix: "10.0.0.0/8"
    as_path: [65010]
    community: ["65001:100"]
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	k, names, err := Resolve(s)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if err := k.Simulate(); err != nil {
		t.Fatalf("expected simulation to converge: %v", err)
	}

	r2, ok := names.ID("r2")
	if !ok {
		t.Fatalf("expected r2 to resolve to a router id")
	}
	router, ok := k.Router(r2)
	if !ok {
		t.Fatalf("expected router r2 to exist in the kernel")
	}
	prefix, err := ParsePrefix("10.0.0.0/8")
	if err != nil {
		t.Fatalf("unexpected prefix parse error: %v", err)
	}
	entry, ok := router.RIB().Best(prefix)
	if !ok {
		t.Fatalf("expected r2 to have learned the advertised prefix via ibgp")
	}
	if len(entry.Route.Community) != 1 {
		t.Fatalf("expected the advertised community to survive, got %v", entry.Route.Community)
	}
}

func TestResolveThreadsLinkArea(t *testing.T) {
	s, err := Parse([]byte(`
routers:
  - name: r1
    as: 65001
  - name: r2
    as: 65001
links:
  - a: r1
    z: r2
    area: 1
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	k, names, err := Resolve(s)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	r1, ok := names.ID("r1")
	if !ok {
		t.Fatalf("expected r1 to resolve to a router id")
	}
	r2, ok := names.ID("r2")
	if !ok {
		t.Fatalf("expected r2 to resolve to a router id")
	}

	for _, key := range []config.Key{config.LinkWeightKey(r1, r2), config.LinkWeightKey(r2, r1)} {
		v, ok := k.Config().Get(key)
		if !ok {
			t.Fatalf("expected a link_weight expr for key %v", key)
		}
		if v.Area != ospf.AreaID(1) {
			t.Fatalf("expected link area 1, got %v", v.Area)
		}
	}
}

func TestResolveAppliesRouteMapDeny(t *testing.T) {
	s, err := Parse([]byte(`
routers:
  - name: r1
    as: 65001
  - name: r2
    as: 65001
externals:
  - name: ext1
    as: 65010
links:
  - a: r1
    z: r2
  - a: ext1
    z: r1
sessions:
  - a: r1
    z: r2
    kind: ibgp
  - a: ext1
    z: r1
    kind: ebgp
route_maps:
  - router: r1
    neighbor: r2
    direction: out
    order: 10
    state: deny
    match:
      prefix_equals: "10.0.0.0/8"
advertisements:
  - router: ext1
    prefix: "10.0.0.0/8"
    as_path: [65010]
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	k, names, err := Resolve(s)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if err := k.Simulate(); err != nil {
		t.Fatalf("expected simulation to converge: %v", err)
	}

	r2, _ := names.ID("r2")
	router, _ := k.Router(r2)
	prefix, _ := ParsePrefix("10.0.0.0/8")
	if _, ok := router.RIB().Best(prefix); ok {
		t.Fatalf("expected the out route-map to deny the prefix from reaching r2")
	}
}

func TestResolveCustomProtocolConverges(t *testing.T) {
	s, err := Parse([]byte(`
routers:
  - name: r1
    as: 65001
  - name: r2
    as: 65001
custom_protocol:
  kind: distance-vector
  neighbors:
    - a: r1
      z: r2
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, names, err := Resolve(s)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}

	reg, events, err := ResolveCustomProtocol(s.CustomProtocol, names)
	if err != nil {
		t.Fatalf("unexpected error building custom protocol: %v", err)
	}
	queue := events
	for i := 0; len(queue) > 0; i++ {
		if i > 1000 {
			t.Fatalf("custom protocol did not converge")
		}
		e := queue[0]
		queue = queue[1:]
		out, err := reg.Dispatch(e)
		if err != nil {
			t.Fatalf("unexpected dispatch error: %v", err)
		}
		queue = append(queue, out...)
	}

	r2, _ := names.ID("r2")
	if _, ok := reg.Protocol(r2); !ok {
		t.Fatalf("expected a protocol instance registered for r2")
	}
}

func TestParsePrefixFlavors(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"*", false},
		{"P42", false},
		{"10.0.0.0/8", false},
		{"not-a-prefix", true},
		{"10.0.0.0/33", true},
	}
	for _, tt := range tests {
		_, err := ParsePrefix(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePrefix(%q): got err=%v, wantErr=%v", tt.in, err, tt.wantErr)
		}
	}
}

func TestParseCommunity(t *testing.T) {
	c, err := ParseCommunity("65001:100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := c.String(); got != "65001:100" {
		t.Fatalf("expected round-trip to 65001:100, got %s", got)
	}
	if _, err := ParseCommunity("bad"); err == nil {
		t.Fatalf("expected an error for a malformed community")
	}
}

func TestResolveCustomProtocolRejectsUnknownRouter(t *testing.T) {
	s, err := Parse([]byte(`
routers:
  - name: r1
    as: 65001
custom_protocol:
  kind: distance-vector
  neighbors:
    - a: r1
      z: r1
`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	_, names, err := Resolve(s)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	// Mutate names to simulate a stale reference the validator already
	// rejects at Parse time; directly drive ResolveCustomProtocol with a
	// spec referencing a name absent from names to exercise the error path.
	bogus := &CustomProtocolSpec{Kind: "distance-vector", Neighbors: []CustomNeighborSpec{{A: "r1", Z: "ghost"}}}
	if _, _, err := ResolveCustomProtocol(bogus, names); err == nil {
		t.Fatalf("expected an error for an unknown router in custom_protocol")
	}
}
