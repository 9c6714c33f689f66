package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_MissingReturnsDefaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Store.Driver != "sqlite" || cfg.General.LookbackMonths != 6 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoadFile_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[general]
default_family = "nguyen"
timezone = "UTC"

[thresholds]
live_high = 1.8
high_season_months = [1, 2, 12]

[savings]
on_track_tolerance = 0.8
essential_categories = ["Health", "Rent"]
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.General.DefaultFamily != "nguyen" {
		t.Errorf("DefaultFamily = %q, want nguyen", cfg.General.DefaultFamily)
	}
	// Untouched sections keep their defaults.
	if cfg.Insight.TimeoutSeconds != 30 {
		t.Errorf("TimeoutSeconds = %d, want 30", cfg.Insight.TimeoutSeconds)
	}

	th, err := cfg.AnalysisThresholds()
	if err != nil {
		t.Fatalf("AnalysisThresholds: %v", err)
	}
	if th.LiveHigh != 1.8 || th.LiveMedium != 1.2 {
		t.Errorf("LiveHigh/LiveMedium = %v/%v, want 1.8/1.2", th.LiveHigh, th.LiveMedium)
	}
	if !th.IsHighSeason(time.December) || th.IsHighSeason(time.June) {
		t.Errorf("HighSeasonMonths = %v, want [1 2 12]", th.HighSeasonMonths)
	}

	p := cfg.SavingsPolicy()
	if p.OnTrackTolerance != 0.8 || p.DefaultReduction != 0.15 {
		t.Errorf("policy = %+v", p)
	}
	if !p.IsEssential("rent") || p.IsEssential("education") {
		t.Errorf("EssentialCategories = %v", p.EssentialCategories)
	}

	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("Location = %v, %v, want UTC", loc, err)
	}
}

func TestAnalysisThresholds_BadMonth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Thresholds.HighSeasonMonths = []int{13}
	if _, err := cfg.AnalysisThresholds(); err == nil {
		t.Error("expected error for month 13")
	}
}

func TestSaveFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.toml")
	cfg := DefaultConfig()
	cfg.General.DefaultFamily = "tran"
	cfg.Server.Families = []string{"tran", "le"}

	if err := SaveFile(path, cfg); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if got.General.DefaultFamily != "tran" || len(got.Server.Families) != 2 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Insight.APIKey = "from-file"

	t.Setenv("ANTHROPIC_API_KEY", "")
	if got := GetAPIKey(cfg); got != "from-file" {
		t.Errorf("GetAPIKey = %q, want from-file", got)
	}
	t.Setenv("ANTHROPIC_API_KEY", "from-env")
	if got := GetAPIKey(cfg); got != "from-env" {
		t.Errorf("GetAPIKey = %q, want from-env", got)
	}

	t.Setenv("FAMSPEND_DB", "/tmp/x.db")
	if got := StoreDSN(cfg); got != "/tmp/x.db" {
		t.Errorf("StoreDSN = %q, want /tmp/x.db", got)
	}
}
