package snapshot_test

import (
	"testing"

	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/kernel"
	"github.com/bgpsim/bgpsim/pkg/simfmt"
	"github.com/bgpsim/bgpsim/pkg/snapshot"
)

func twoRouterKernel(t *testing.T) (*kernel.Kernel, map[ids.RouterID]string) {
	t.Helper()
	k := kernel.New()
	r1 := k.AddRouter(65001)
	r2 := k.AddRouter(65001)
	ext1 := k.AddExternal(65010)

	if err := k.AddLink(r1, r2); err != nil {
		t.Fatalf("AddLink r1-r2: %v", err)
	}
	if err := k.AddLink(ext1, r1); err != nil {
		t.Fatalf("AddLink ext1-r1: %v", err)
	}
	if err := k.SetBGPSession(r1, r2, &config.SessionValue{Kind: config.SessionIBgp}); err != nil {
		t.Fatalf("SetBGPSession ibgp: %v", err)
	}
	if err := k.SetBGPSession(ext1, r1, &config.SessionValue{Kind: config.SessionEBgp}); err != nil {
		t.Fatalf("SetBGPSession ebgp: %v", err)
	}

	prefix := ids.SimplePrefix(0)
	if err := k.AdvertiseExternalRoute(ext1, prefix, []ids.ASID{65010}, nil, nil); err != nil {
		t.Fatalf("AdvertiseExternalRoute: %v", err)
	}
	if err := k.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	names := map[ids.RouterID]string{r1: "r1", r2: "r2", ext1: "ext1"}
	return k, names
}

func nameFunc(names map[ids.RouterID]string) simfmt.Resolver {
	return func(id ids.RouterID) string { return names[id] }
}

func TestFingerprintDeterministic(t *testing.T) {
	k, names := twoRouterKernel(t)
	res := nameFunc(names)
	routers := k.Routers()
	prefixes := k.KnownPrefixes()
	state := k.ForwardingState()
	conf := k.Config()

	fp1 := snapshot.Fingerprint(res, conf, state, routers, prefixes)
	fp2 := snapshot.Fingerprint(res, conf, state, routers, prefixes)
	if fp1 != fp2 {
		t.Errorf("Fingerprint is not deterministic: %q != %q", fp1, fp2)
	}
	if fp1 == "" {
		t.Error("Fingerprint should not be empty")
	}
}

func TestFingerprintChangesWithState(t *testing.T) {
	k, names := twoRouterKernel(t)
	res := nameFunc(names)
	routers := k.Routers()
	prefixes := k.KnownPrefixes()

	before := snapshot.Fingerprint(res, k.Config(), k.ForwardingState(), routers, prefixes)

	ext2 := k.AddExternal(65020)
	if err := k.AddLink(ext2, routers[0]); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := k.SetBGPSession(ext2, routers[0], &config.SessionValue{Kind: config.SessionEBgp}); err != nil {
		t.Fatalf("SetBGPSession: %v", err)
	}
	if err := k.AdvertiseExternalRoute(ext2, ids.SimplePrefix(1), []ids.ASID{65020}, nil, nil); err != nil {
		t.Fatalf("AdvertiseExternalRoute: %v", err)
	}
	if err := k.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}

	after := snapshot.Fingerprint(res, k.Config(), k.ForwardingState(), k.Routers(), k.KnownPrefixes())
	if before == after {
		t.Error("Fingerprint should change once a new route is learned")
	}
}

func TestNewSnapshotFields(t *testing.T) {
	k, names := twoRouterKernel(t)
	res := nameFunc(names)

	snap := snapshot.New(res, "two-router", k.Config(), k.ForwardingState(), k.Routers(), k.KnownPrefixes())
	if snap.Scenario != "two-router" {
		t.Errorf("Scenario = %q, want %q", snap.Scenario, "two-router")
	}
	if snap.Fingerprint == "" {
		t.Error("Fingerprint should not be empty")
	}
	if snap.Config == "" {
		t.Error("Config should not be empty")
	}
	if snap.Forwarding == "" {
		t.Error("Forwarding should not be empty")
	}
	if snap.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}
