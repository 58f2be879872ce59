// bgpsim - BGP network simulator CLI
//
// A CLI tool for loading, running, and inspecting BGP simulation
// scenarios:
//   - Discrete-event convergence of BGP/OSPF topologies described in YAML
//   - Rendered configuration and forwarding-state views
//   - Recorded traces of dispatched events, queryable after a run
//   - A Redis-backed cache of converged runs, so a repeated run can skip simulation
//
// Noun-verb CLI Pattern:
//
//	bgpsim scenario <action> <file> [args]
//
// Examples:
//
//	bgpsim scenario show two-router.yaml          # Parsed topology and sessions
//	bgpsim scenario run two-router.yaml            # Simulate to convergence
//	bgpsim scenario run two-router.yaml --trace     # ...and record every dispatched event
//	bgpsim scenario diff before.yaml after.yaml     # Forwarding-state diff between two scenarios
//	bgpsim trace list --router r1                  # Query a recorded trace log
//	bgpsim shell two-router.yaml                    # Interactive exploration REPL
//	bgpsim settings show                            # No scenario needed
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bgpsim/bgpsim/pkg/cli"
	"github.com/bgpsim/bgpsim/pkg/settings"
	"github.com/bgpsim/bgpsim/pkg/simlog"
	"github.com/bgpsim/bgpsim/pkg/trace"
	"github.com/bgpsim/bgpsim/pkg/version"
)

// App holds CLI state shared across all commands.
type App struct {
	// Option flags
	scenarioDir string
	verbose     bool
	jsonOutput  bool
	jqFilter    string

	// Initialized state (set in PersistentPreRunE)
	settings *settings.Settings
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "bgpsim",
	Short:             "BGP network simulator",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `bgpsim is a noun-verb CLI for loading and running BGP convergence scenarios.

  bgpsim scenario <action> <file> [args]

Each scenario names its own routers, links and BGP sessions in YAML; the
simulator runs it to quiescence and reports the resulting routes and
forwarding state.

  bgpsim scenario show two-router.yaml
  bgpsim scenario run two-router.yaml --trace
  bgpsim scenario diff before.yaml after.yaml
  bgpsim trace list --router r1
  bgpsim shell two-router.yaml
  bgpsim settings show                           # no scenario needed`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if isSettingsOrHelp(cmd) {
			return nil
		}

		var err error
		app.settings, err = settings.Load()
		if err != nil {
			simlog.Logger.Warnf("Could not load settings: %v", err)
			app.settings = &settings.Settings{}
		}

		if app.scenarioDir == "" {
			app.scenarioDir = app.settings.GetScenarioDir()
		}

		if app.verbose {
			simlog.SetLevel("debug")
		} else {
			simlog.SetLevel("warn")
		}

		traceLogger, err := trace.NewFileLogger(
			app.settings.GetTraceLogPath(app.scenarioDir),
			trace.RotationConfig{
				MaxSize:    int64(app.settings.GetTraceMaxSizeMB()) * 1024 * 1024,
				MaxBackups: app.settings.GetTraceMaxBackups(),
			},
		)
		if err != nil {
			simlog.Logger.Warnf("Could not initialize trace logging: %v", err)
		} else {
			trace.SetDefaultLogger(traceLogger)
		}

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.scenarioDir, "scenarios", "S", "", "Scenario directory")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&app.jsonOutput, "json", false, "JSON output")
	rootCmd.PersistentFlags().StringVar(&app.jqFilter, "jq", "", "Filter JSON output through a jq expression")

	rootCmd.AddGroup(
		&cobra.Group{ID: "scenario", Title: "Scenario Commands:"},
		&cobra.Group{ID: "meta", Title: "Configuration & Meta:"},
	)

	for _, cmd := range []*cobra.Command{scenarioCmd, traceCmd} {
		cmd.GroupID = "scenario"
		rootCmd.AddCommand(cmd)
	}
	for _, cmd := range []*cobra.Command{settingsCmd, versionCmd} {
		cmd.GroupID = "meta"
		rootCmd.AddCommand(cmd)
	}

	rootCmd.AddCommand(shellCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion("bgpsim")
	},
}

func printVersion(tool string) {
	if version.Version == "dev" {
		fmt.Printf("%s dev build (use 'make build' for version info)\n", tool)
	} else {
		fmt.Printf("%s %s (%s)\n", tool, version.Version, version.GitCommit)
	}
}

// isSettingsOrHelp checks whether cmd (or any ancestor) is a settings, help, or version command.
func isSettingsOrHelp(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		switch c.Name() {
		case "help", "version", "settings":
			return true
		}
	}
	return false
}

// resolveScenarioPath joins name onto the configured scenario directory
// unless it is already an absolute or relative path a user typed directly.
func resolveScenarioPath(name string) string {
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasPrefix(name, ".") {
		return name
	}
	if app.scenarioDir == "" {
		return name
	}
	return app.scenarioDir + string(os.PathSeparator) + name
}

// Color helpers — delegate to pkg/cli
func green(s string) string  { return cli.Green(s) }
func yellow(s string) string { return cli.Yellow(s) }
func red(s string) string    { return cli.Red(s) }
func bold(s string) string   { return cli.Bold(s) }
