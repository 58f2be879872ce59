package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/blake2b"

	"github.com/bgpsim/bgpsim/pkg/eventqueue"
	"github.com/bgpsim/bgpsim/pkg/ids"
	"github.com/bgpsim/bgpsim/pkg/kernel"
	"github.com/bgpsim/bgpsim/pkg/simfmt"
	"github.com/bgpsim/bgpsim/pkg/simlog"
	"github.com/bgpsim/bgpsim/pkg/snapshot"
	"github.com/bgpsim/bgpsim/pkg/spec"
	"github.com/bgpsim/bgpsim/pkg/trace"
)

var scenarioRedisAddr string

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Load, run, and inspect simulation scenarios",
	Long: `Load, run, and inspect BGP convergence scenarios described in YAML.

Examples:
  bgpsim scenario show two-router.yaml
  bgpsim scenario run two-router.yaml
  bgpsim scenario run two-router.yaml --trace
  bgpsim scenario run two-router.yaml --cache --redis localhost:6379
  bgpsim scenario diff before.yaml after.yaml`,
}

var (
	scenarioTraceRun bool
	scenarioCacheRun bool
)

var scenarioRunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Simulate a scenario to convergence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, names, err := loadScenario(args[0])
		if err != nil {
			return err
		}
		res := resolverFor(names)

		var store *snapshot.Store
		var cacheKey string
		if scenarioCacheRun {
			store, err = openSnapshotStore()
			if err != nil {
				return err
			}
			defer store.Close()

			cacheKey, err = scenarioCacheKey(args[0])
			if err != nil {
				return err
			}
			if cached, ok, err := store.Get(cacheKey); err == nil && ok {
				fmt.Println(green("Cache hit: reusing a previously converged forwarding state."))
				fmt.Print(cached.Forwarding)
				return nil
			}
		}

		if scenarioTraceRun {
			err = simulateAndTrace(k, res)
		} else {
			err = k.Simulate()
		}
		if err != nil {
			return fmt.Errorf("simulating: %w", err)
		}

		routers := k.Routers()
		prefixes := k.KnownPrefixes()
		state := k.ForwardingState()

		if store != nil {
			snap := snapshot.New(res, args[0], k.Config(), state, routers, prefixes)
			snap.Fingerprint = cacheKey
			if err := store.Put(snap); err != nil {
				simlog.Logger.Warnf("could not cache converged snapshot: %v", err)
			}
		}

		if app.jsonOutput || app.jqFilter != "" {
			snap := snapshot.New(res, args[0], k.Config(), state, routers, prefixes)
			return printJSON(snap)
		}

		fmt.Println(bold("Forwarding state:"))
		fmt.Print(simfmt.ForwardingState(res, state, routers, prefixes))
		return nil
	},
}

var scenarioShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a scenario's resolved configuration and BGP tables",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		k, names, err := loadScenario(args[0])
		if err != nil {
			return err
		}
		res := resolverFor(names)

		if app.jsonOutput || app.jqFilter != "" {
			return printJSON(map[string]interface{}{
				"config":   simfmt.Config(res, k.Config()),
				"routers":  routerNames(res, k.Routers()),
				"prefixes": prefixStrings(k.KnownPrefixes()),
			})
		}

		fmt.Println(bold("Configuration:"))
		fmt.Print(simfmt.Config(res, k.Config()))

		for _, id := range k.Routers() {
			r, ok := k.Router(id)
			if !ok {
				continue
			}
			fmt.Printf("\n%s (%s):\n", bold(res.Name(id)), id.String())
			for _, prefix := range k.KnownPrefixes() {
				t := simfmt.BGPTable(res, r.RIB(), prefix)
				t.Flush()
			}
		}
		return nil
	},
}

var scenarioDiffCmd = &cobra.Command{
	Use:   "diff <before.yaml> <after.yaml>",
	Short: "Diff the forwarding state two converged scenarios settle into",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		beforeFP, beforeState, err := fingerprintScenario(args[0])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[0], err)
		}
		afterFP, afterState, err := fingerprintScenario(args[1])
		if err != nil {
			return fmt.Errorf("resolving %s: %w", args[1], err)
		}

		if app.jsonOutput || app.jqFilter != "" {
			return printJSON(map[string]interface{}{
				"before_fingerprint": beforeFP,
				"after_fingerprint":  afterFP,
				"identical":          beforeFP == afterFP,
			})
		}

		if beforeFP == afterFP {
			fmt.Println(green("Scenarios converge to identical forwarding state."))
			return nil
		}

		fmt.Println(yellow("Scenarios diverge."))
		fmt.Printf("\n%s:\n%s\n", bold(args[0]), beforeState)
		fmt.Printf("\n%s:\n%s\n", bold(args[1]), afterState)
		return nil
	},
}

func init() {
	scenarioRunCmd.Flags().BoolVar(&scenarioTraceRun, "trace", false, "Record every dispatched event to the trace log")
	scenarioRunCmd.Flags().BoolVar(&scenarioCacheRun, "cache", false, "Skip recomputation if this scenario was already run to convergence")
	scenarioRunCmd.Flags().StringVar(&scenarioRedisAddr, "redis", "", "Redis address for --cache (overrides the configured snapshot_redis_addr)")

	scenarioCmd.AddCommand(scenarioRunCmd)
	scenarioCmd.AddCommand(scenarioShowCmd)
	scenarioCmd.AddCommand(scenarioDiffCmd)
}

// openSnapshotStore connects to the Redis instance backing --cache, preferring
// --redis over the configured snapshot_redis_addr setting.
func openSnapshotStore() (*snapshot.Store, error) {
	addr := scenarioRedisAddr
	if addr == "" {
		addr = app.settings.SnapshotRedisAddr
	}
	if addr == "" {
		return nil, fmt.Errorf("--cache requires a Redis address: pass --redis or run 'bgpsim settings set snapshot_redis <addr>'")
	}
	store := snapshot.NewStore(addr, 0)
	if err := store.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return store, nil
}

// scenarioCacheKey derives a stable cache key from a scenario file's raw
// contents, so --cache recognizes an unchanged scenario before simulating it
// rather than only after, when a convergence fingerprint becomes available.
func scenarioCacheKey(path string) (string, error) {
	data, err := os.ReadFile(resolveScenarioPath(path))
	if err != nil {
		return "", fmt.Errorf("reading scenario: %w", err)
	}
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// loadScenario reads and resolves the scenario file at path into a Kernel,
// without running it.
func loadScenario(path string) (*kernel.Kernel, *spec.Names, error) {
	s, err := spec.Load(resolveScenarioPath(path))
	if err != nil {
		return nil, nil, fmt.Errorf("loading scenario: %w", err)
	}
	k, names, err := spec.Resolve(s)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving scenario: %w", err)
	}
	return k, names, nil
}

// resolverFor wraps a spec.Names lookup as a simfmt.Resolver.
func resolverFor(names *spec.Names) simfmt.Resolver {
	return func(id ids.RouterID) string {
		if name, ok := names.Name(id); ok {
			return name
		}
		return id.String()
	}
}

// simulateAndTrace runs k to convergence, recording every dispatched event
// through the default trace logger.
func simulateAndTrace(k *kernel.Kernel, res simfmt.Resolver) error {
	return k.SimulateTrace(func(e eventqueue.Event) {
		ev := trace.FromDispatch(res, e)
		if err := trace.Log(ev); err != nil {
			simlog.Logger.Warnf("could not record trace event: %v", err)
		}
	})
}

// fingerprintScenario loads, resolves, and simulates the scenario at path,
// returning its convergence fingerprint and rendered forwarding state.
func fingerprintScenario(path string) (string, string, error) {
	k, names, err := loadScenario(path)
	if err != nil {
		return "", "", err
	}
	if err := k.Simulate(); err != nil {
		return "", "", fmt.Errorf("simulating: %w", err)
	}
	res := resolverFor(names)
	state := k.ForwardingState()
	routers := k.Routers()
	prefixes := k.KnownPrefixes()
	fp := snapshot.Fingerprint(res, k.Config(), state, routers, prefixes)
	return fp, simfmt.ForwardingState(res, state, routers, prefixes), nil
}

func routerNames(res simfmt.Resolver, routerIDs []ids.RouterID) []string {
	out := make([]string, len(routerIDs))
	for i, id := range routerIDs {
		out[i] = res.Name(id)
	}
	return out
}

func prefixStrings(prefixes []ids.Prefix) []string {
	out := make([]string, len(prefixes))
	for i, p := range prefixes {
		out[i] = p.String()
	}
	return out
}
