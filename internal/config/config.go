// Package config defines process configuration and its loading hooks.
//
// Conventions:
// - New() returns a Config filled with defaults; Load layers file and env on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// Output formats accepted by the batch report writer.
const (
	FormatText = "text"
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// SeasonYear selects which season summary to fetch.
	SeasonYear int `koanf:"season_year"`

	// SeasonURL is a printf template taking the year, e.g. ".../%d_team_results.csv".
	SeasonURL string `koanf:"season_url"`

	// SeasonFile is the local season summary CSV.
	SeasonFile string `koanf:"season_file"`

	// TeamDataDir holds one game log file per team.
	TeamDataDir string `koanf:"team_data_dir"`

	// MatchupsFile is the default batch input (CSV or YAML).
	MatchupsFile string `koanf:"matchups_file"`

	// WorkerCount sets the number of metric workers.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize bounds the in-memory metric job queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize sets the capacity of the team claim set.
	DedupeSize int `koanf:"dedupe_size"`

	// FetchRatePerSec limits outgoing season downloads.
	FetchRatePerSec float64 `koanf:"fetch_rate_per_sec"`

	// FetchTimeoutMS bounds one season download.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// DBPath is the SQLite file for batch persistence. Empty disables it.
	DBPath string `koanf:"db_path"`

	// MetricsFile receives a Prometheus text dump at exit. Empty disables it.
	MetricsFile string `koanf:"metrics_file"`

	// OutputFormat is one of text, csv, json.
	OutputFormat string `koanf:"output_format"`

	// OutputFile receives the batch report. Empty means stdout.
	OutputFile string `koanf:"output_file"`

	// ChartFile receives an HTML probability chart. Empty disables it.
	ChartFile string `koanf:"chart_file"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		SeasonYear:      2025,
		SeasonURL:       "http://barttorvik.com/%d_team_results.csv",
		SeasonFile:      "torvik_data.csv",
		TeamDataDir:     "team_data",
		MatchupsFile:    "matchups.csv",
		WorkerCount:     runtime.NumCPU(),
		QueueSize:       1024,
		DedupeSize:      1024,
		FetchRatePerSec: 1,
		FetchTimeoutMS:  30_000,
		OutputFormat:    FormatText,
	}
}

// Validate checks the fields every run depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SeasonFile) == "" {
		return fmt.Errorf("%w: season_file must not be empty", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.TeamDataDir) == "" {
		return fmt.Errorf("%w: team_data_dir must not be empty", ErrInvalidConfig)
	}
	if !slices.Contains([]string{FormatText, FormatCSV, FormatJSON}, strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownFormat, c.OutputFormat)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	return nil
}
