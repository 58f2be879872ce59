// Package snapshot caches a kernel's rendered configuration and forwarding
// state in Redis, keyed by a blake2b fingerprint of the rendered text, so
// runs that settle into the same state share one key.
package snapshot

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/blake2b"

	"github.com/bgpsim/bgpsim/pkg/config"
	"github.com/bgpsim/bgpsim/pkg/forwarding"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/simfmt"
)

const keyPrefix = "bgpsim:snapshot:"

// Snapshot is a point-in-time capture of a kernel's rendered configuration
// and forwarding state.
type Snapshot struct {
	Fingerprint string    `json:"fingerprint"`
	Scenario    string    `json:"scenario"`
	Config      string    `json:"config"`
	Forwarding  string    `json:"forwarding"`
	CreatedAt   time.Time `json:"created_at"`
}

// Fingerprint derives a stable blake2b-256 hex digest of a configuration and
// forwarding state, rendered through res exactly as a human would read them.
// Two runs that settle on the same routes and next hops fingerprint equal
// regardless of what order their routers converged in.
func Fingerprint(res simfmt.Resolver, c *config.Config, state *forwarding.State, routers []ids.RouterID, prefixes []ids.Prefix) string {
	h, _ := blake2b.New256(nil)
	fmt.Fprint(h, simfmt.Config(res, c))
	fmt.Fprint(h, simfmt.ForwardingState(res, state, routers, prefixes))
	return hex.EncodeToString(h.Sum(nil))
}

// New builds a Snapshot for scenario, fingerprinting and rendering c and
// state through res.
func New(res simfmt.Resolver, scenario string, c *config.Config, state *forwarding.State, routers []ids.RouterID, prefixes []ids.Prefix) *Snapshot {
	return &Snapshot{
		Fingerprint: Fingerprint(res, c, state, routers, prefixes),
		Scenario:    scenario,
		Config:      simfmt.Config(res, c),
		Forwarding:  simfmt.ForwardingState(res, state, routers, prefixes),
		CreatedAt:   time.Now(),
	}
}

// Store is a Redis-backed cache of Snapshots.
type Store struct {
	client *redis.Client
	ctx    context.Context
}

// NewStore creates a Store connecting to the Redis instance at addr,
// selecting db as the logical database index.
func NewStore(addr string, db int) *Store {
	return &Store{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: db}),
		ctx:    context.Background(),
	}
}

// Connect verifies the Redis connection is reachable.
func (s *Store) Connect() error {
	return s.client.Ping(s.ctx).Err()
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// Put stores snap, keyed by its fingerprint.
func (s *Store) Put(snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return s.client.Set(s.ctx, snapshotKey(snap.Fingerprint), data, 0).Err()
}

// Get fetches the Snapshot stored under fingerprint. The second return
// value is false if no snapshot is cached for that fingerprint.
func (s *Store) Get(fingerprint string) (*Snapshot, bool, error) {
	data, err := s.client.Get(s.ctx, snapshotKey(fingerprint)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &snap, true, nil
}

// Delete removes the snapshot stored under fingerprint, if any.
func (s *Store) Delete(fingerprint string) error {
	return s.client.Del(s.ctx, snapshotKey(fingerprint)).Err()
}

// Fingerprints lists every fingerprint currently cached, scanning keys with
// Redis's cursor-based SCAN rather than the blocking KEYS command.
func (s *Store) Fingerprints() ([]string, error) {
	var cursor uint64
	var fingerprints []string
	for {
		batch, next, err := s.client.Scan(s.ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range batch {
			fingerprints = append(fingerprints, key[len(keyPrefix):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return fingerprints, nil
}

func snapshotKey(fingerprint string) string {
	return keyPrefix + fingerprint
}
