package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bgpsim/bgpsim/pkg/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage persistent settings",
	Long: `Manage persistent settings stored in ~/.bgpsim/settings.json.

Settings provide defaults for context flags:
  - default_scenario: Stored scenario file name (scenario commands still take the file as an argument)
  - scenario_dir:      Scenario directory (-S flag default)
  - snapshot_redis:    Redis address snapshots are cached to
  - trace_log:         Trace log path

Examples:
  bgpsim settings show
  bgpsim settings set scenario_dir /etc/bgpsim/scenarios
  bgpsim settings set snapshot_redis localhost:6379
  bgpsim settings clear`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		fmt.Printf("Settings file: %s\n\n", settings.DefaultSettingsPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")

		printSetting := func(name, value string) {
			if value == "" {
				value = "(not set)"
			}
			fmt.Fprintf(w, "%s\t%s\n", name, value)
		}

		printSetting("default_scenario", s.DefaultScenario)
		printSetting("scenario_dir", s.ScenarioDir)
		printSetting("snapshot_redis", s.SnapshotRedisAddr)
		printSetting("trace_log", s.TraceLogPath)

		w.Flush()
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <setting> <value>",
	Short: "Set a setting value",
	Long: `Set a persistent setting value.

Available settings:
  scenario       - Default scenario file
  scenario_dir   - Scenario directory (-S flag default)
  snapshot_redis - Redis address snapshots are cached to
  trace_log      - Trace log path

Examples:
  bgpsim settings set scenario two-router.yaml
  bgpsim settings set scenario_dir /etc/bgpsim/scenarios
  bgpsim settings set snapshot_redis localhost:6379`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]
		value := args[1]

		s, err := settings.Load()
		if err != nil {
			s = &settings.Settings{}
		}

		switch setting {
		case "scenario", "default_scenario":
			s.DefaultScenario = value
			fmt.Printf("Default scenario set to: %s\n", value)
		case "scenario_dir":
			s.ScenarioDir = value
			fmt.Printf("Scenario directory set to: %s\n", value)
		case "snapshot_redis":
			s.SnapshotRedisAddr = value
			fmt.Printf("Snapshot Redis address set to: %s\n", value)
		case "trace_log":
			s.TraceLogPath = value
			fmt.Printf("Trace log path set to: %s\n", value)
		default:
			return fmt.Errorf("unknown setting: %s (valid: scenario, scenario_dir, snapshot_redis, trace_log)", setting)
		}

		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}

		return nil
	},
}

var settingsGetCmd = &cobra.Command{
	Use:   "get <setting>",
	Short: "Get a setting value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		setting := args[0]

		s, err := settings.Load()
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}

		var value string
		switch setting {
		case "scenario", "default_scenario":
			value = s.DefaultScenario
		case "scenario_dir":
			value = s.ScenarioDir
		case "snapshot_redis":
			value = s.SnapshotRedisAddr
		case "trace_log":
			value = s.TraceLogPath
		default:
			return fmt.Errorf("unknown setting: %s", setting)
		}

		if value == "" {
			fmt.Println("(not set)")
		} else {
			fmt.Println(value)
		}
		return nil
	},
}

var settingsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear all settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := &settings.Settings{}
		if err := s.Save(); err != nil {
			return fmt.Errorf("saving settings: %w", err)
		}
		fmt.Println("All settings cleared.")
		return nil
	},
}

var settingsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show settings file path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(settings.DefaultSettingsPath())
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsGetCmd)
	settingsCmd.AddCommand(settingsClearCmd)
	settingsCmd.AddCommand(settingsPathCmd)
}
