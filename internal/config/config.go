// Package config loads famspend settings from a TOML file under the XDG
// config directory, with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/famledger/famspend/internal/analysis"
	"github.com/famledger/famspend/internal/savings"
)

// Config holds all famspend configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Store      StoreConfig      `toml:"store"`
	Insight    InsightConfig    `toml:"insight"`
	Server     ServerConfig     `toml:"server"`
	Thresholds ThresholdsConfig `toml:"thresholds"`
	Savings    SavingsConfig    `toml:"savings"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DefaultFamily  string `toml:"default_family,omitempty"`
	Timezone       string `toml:"timezone"`
	LookbackMonths int    `toml:"lookback_months"`
	LogLevel       string `toml:"log_level"`
}

// StoreConfig selects the database.
type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn,omitempty"`
}

// InsightConfig holds the narration collaborator settings.
type InsightConfig struct {
	APIKey         string `toml:"api_key,omitempty"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CacheMB        int    `toml:"cache_mb"`
}

// ServerConfig holds `famspend serve` settings.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// RefreshSchedule is a cron spec for the linear forecast refresh.
	RefreshSchedule string `toml:"refresh_schedule"`
	// RefreshIntervalHours skips families refreshed more recently than this.
	RefreshIntervalHours int      `toml:"refresh_interval_hours"`
	Families             []string `toml:"families,omitempty"`
}

// ThresholdsConfig overrides the pattern analyzer heuristics. Zero values
// keep the defaults.
type ThresholdsConfig struct {
	TrendUp          float64 `toml:"trend_up,omitempty"`
	TrendDown        float64 `toml:"trend_down,omitempty"`
	AnomalyElevated  float64 `toml:"anomaly_elevated,omitempty"`
	AnomalyHigh      float64 `toml:"anomaly_high,omitempty"`
	LiveMedium       float64 `toml:"live_medium,omitempty"`
	LiveHigh         float64 `toml:"live_high,omitempty"`
	HighSeasonMonths []int   `toml:"high_season_months,omitempty"`
}

// SavingsConfig overrides the goal tracker policy.
type SavingsConfig struct {
	OnTrackTolerance    float64  `toml:"on_track_tolerance,omitempty"`
	EssentialCategories []string `toml:"essential_categories,omitempty"`
	EssentialReduction  float64  `toml:"essential_reduction,omitempty"`
	DefaultReduction    float64  `toml:"default_reduction,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			Timezone:       "Asia/Ho_Chi_Minh",
			LookbackMonths: 6,
			LogLevel:       "info",
		},
		Store: StoreConfig{
			Driver: "sqlite",
		},
		Insight: InsightConfig{
			Model:          "claude-sonnet-4-5",
			TimeoutSeconds: 30,
			CacheMB:        16,
		},
		Server: ServerConfig{
			Addr:                 "127.0.0.1:8787",
			RefreshSchedule:      "0 6 * * *",
			RefreshIntervalHours: 24,
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "famspend")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "famspend")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory holding the sqlite file.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "famspend")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "famspend")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is the user's own config
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// GetAPIKey returns the insight API key from env var or config, in that order.
func GetAPIKey(cfg Config) string {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	return cfg.Insight.APIKey
}

// StoreDSN returns the database DSN from FAMSPEND_DB, the config, or the
// default sqlite file, in that order.
func StoreDSN(cfg Config) string {
	if dsn := os.Getenv("FAMSPEND_DB"); dsn != "" {
		return dsn
	}
	if cfg.Store.DSN != "" {
		return cfg.Store.DSN
	}
	return filepath.Join(DataDir(), "famspend.db")
}

// Location resolves the configured timezone, falling back to local time.
func (c Config) Location() (*time.Location, error) {
	if c.General.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.General.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("loading timezone %q: %w", c.General.Timezone, err)
	}
	return loc, nil
}

// InsightTimeout returns the collaborator timeout.
func (c Config) InsightTimeout() time.Duration {
	if c.Insight.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Insight.TimeoutSeconds) * time.Second
}

// AnalysisThresholds converts the [thresholds] section.
func (c Config) AnalysisThresholds() (analysis.Thresholds, error) {
	t := analysis.Thresholds{
		TrendUp:         c.Thresholds.TrendUp,
		TrendDown:       c.Thresholds.TrendDown,
		AnomalyElevated: c.Thresholds.AnomalyElevated,
		AnomalyHigh:     c.Thresholds.AnomalyHigh,
		LiveMedium:      c.Thresholds.LiveMedium,
		LiveHigh:        c.Thresholds.LiveHigh,
	}
	for _, m := range c.Thresholds.HighSeasonMonths {
		if m < 1 || m > 12 {
			return t, fmt.Errorf("thresholds: high season month %d out of range", m)
		}
		t.HighSeasonMonths = append(t.HighSeasonMonths, time.Month(m))
	}
	return t.WithDefaults(), nil
}

// SavingsPolicy converts the [savings] section.
func (c Config) SavingsPolicy() savings.Policy {
	return savings.Policy{
		OnTrackTolerance:    c.Savings.OnTrackTolerance,
		EssentialCategories: c.Savings.EssentialCategories,
		EssentialReduction:  c.Savings.EssentialReduction,
		DefaultReduction:    c.Savings.DefaultReduction,
	}.WithDefaults()
}
