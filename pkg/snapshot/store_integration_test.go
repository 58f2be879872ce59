//go:build integration

package snapshot_test

import (
	"os"
	"testing"
	"time"

	"github.com/bgpsim/bgpsim/pkg/snapshot"
)

// redisAddr returns the address of the Redis instance used for this test,
// read from BGPSIM_TEST_REDIS_ADDR, skipping the test when unset.
func redisAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("BGPSIM_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BGPSIM_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestStore_PutGetDelete(t *testing.T) {
	store := snapshot.NewStore(redisAddr(t), 0)
	defer store.Close()

	if err := store.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	snap := &snapshot.Snapshot{
		Fingerprint: "deadbeef",
		Scenario:    "two-router",
		Config:      "Config {\n}",
		Forwarding:  "Prefix P0\n",
		CreatedAt:   time.Now(),
	}

	if err := store.Put(snap); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	defer store.Delete(snap.Fingerprint)

	got, ok, err := store.Get(snap.Fingerprint)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected snapshot to be found")
	}
	if got.Scenario != snap.Scenario {
		t.Errorf("Scenario = %q, want %q", got.Scenario, snap.Scenario)
	}

	fingerprints, err := store.Fingerprints()
	if err != nil {
		t.Fatalf("Fingerprints failed: %v", err)
	}
	found := false
	for _, fp := range fingerprints {
		if fp == snap.Fingerprint {
			found = true
		}
	}
	if !found {
		t.Error("expected stored fingerprint to appear in Fingerprints()")
	}

	if err := store.Delete(snap.Fingerprint); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	_, ok, err = store.Get(snap.Fingerprint)
	if err != nil {
		t.Fatalf("Get after delete failed: %v", err)
	}
	if ok {
		t.Error("expected snapshot to be gone after Delete")
	}
}

func TestStore_GetMissing(t *testing.T) {
	store := snapshot.NewStore(redisAddr(t), 0)
	defer store.Close()

	_, ok, err := store.Get("does-not-exist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected missing fingerprint to report not found")
	}
}
