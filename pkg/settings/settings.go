// Package settings manages persistent user settings for the bgpsim CLI.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// DefaultScenarioDir is the default scenario directory used when no override is configured.
const DefaultScenarioDir = "/etc/bgpsim/scenarios"

// Settings holds persistent user preferences
type Settings struct {
	// DefaultScenario is a stored scenario file name. The scenario commands do
	// not read it; they always take the scenario file as an argument.
	DefaultScenario string `json:"default_scenario,omitempty"`

	// ScenarioDir overrides the default scenario directory
	ScenarioDir string `json:"scenario_dir,omitempty"`

	// SnapshotRedisAddr overrides the Redis address scenario snapshots are cached to
	SnapshotRedisAddr string `json:"snapshot_redis_addr,omitempty"`

	// TraceLogPath overrides the default trace log path
	TraceLogPath string `json:"trace_log_path,omitempty"`

	// TraceMaxSizeMB is the max trace log size in MB before rotation (default: 10)
	TraceMaxSizeMB int `json:"trace_max_size_mb,omitempty"`

	// TraceMaxBackups is the max number of rotated trace log files (default: 10)
	TraceMaxBackups int `json:"trace_max_backups,omitempty"`
}

const (
	// DefaultTraceMaxSizeMB is the default maximum trace log size in megabytes.
	DefaultTraceMaxSizeMB = 10

	// DefaultTraceMaxBackups is the default maximum number of rotated trace log files.
	DefaultTraceMaxBackups = 10
)

// DefaultSettingsPath returns the default path for the settings file
func DefaultSettingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "bgpsim_settings.json"
	}
	return filepath.Join(home, ".bgpsim", "settings.json")
}

// Load reads settings from the default location
func Load() (*Settings, error) {
	return LoadFrom(DefaultSettingsPath())
}

// LoadFrom reads settings from a specific path
func LoadFrom(path string) (*Settings, error) {
	s := &Settings{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty settings if file doesn't exist
			return s, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}

	return s, nil
}

// Save writes settings to the default location
func (s *Settings) Save() error {
	return s.SaveTo(DefaultSettingsPath())
}

// SaveTo writes settings to a specific path
func (s *Settings) SaveTo(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetScenarioDir returns the scenario directory (with fallback)
func (s *Settings) GetScenarioDir() string {
	if s.ScenarioDir != "" {
		return s.ScenarioDir
	}
	return DefaultScenarioDir
}

// GetTraceLogPath returns the trace log path with a fallback default.
// The default depends on scenarioDir: if non-empty, uses scenarioDir/trace.log;
// otherwise uses /var/log/bgpsim/trace.log.
func (s *Settings) GetTraceLogPath(scenarioDir string) string {
	if s.TraceLogPath != "" {
		return s.TraceLogPath
	}
	if scenarioDir != "" {
		return scenarioDir + "/trace.log"
	}
	return "/var/log/bgpsim/trace.log"
}

// GetTraceMaxSizeMB returns the trace max size in MB with a default of 10.
func (s *Settings) GetTraceMaxSizeMB() int {
	if s.TraceMaxSizeMB > 0 {
		return s.TraceMaxSizeMB
	}
	return DefaultTraceMaxSizeMB
}

// GetTraceMaxBackups returns the trace max backups with a default of 10.
func (s *Settings) GetTraceMaxBackups() int {
	if s.TraceMaxBackups > 0 {
		return s.TraceMaxBackups
	}
	return DefaultTraceMaxBackups
}

// Clear resets all settings to defaults
func (s *Settings) Clear() {
	*s = Settings{}
}
