package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Warmup.DeadlineMs <= 0 {
		t.Error("default warmup deadline should be positive")
	}
	if cfg.Warmup.FreshnessMinutes != 30 {
		t.Errorf("default freshness = %d, want 30", cfg.Warmup.FreshnessMinutes)
	}
	if cfg.Extract.MaxCandidates != 5 {
		t.Errorf("default max candidates = %d, want 5", cfg.Extract.MaxCandidates)
	}
	if floor := cfg.Store.Floor(); floor <= 0 || floor >= 1 {
		t.Errorf("default similarity floor out of range: %v", floor)
	}
}

func TestSimilarityFloorExplicitZero(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
store:
  similarity_floor: 0
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	// An explicit zero disables the floor; it must not read as unset
	// and snap back to the default.
	if floor := cfg.Store.Floor(); floor != 0 {
		t.Errorf("explicit zero floor = %v, want 0", floor)
	}
}

func TestLoadFromFileMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
version: "1"
settings:
  log_level: debug
warmup:
  deadline_ms: 2500
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := loader.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Settings.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.Settings.LogLevel)
	}
	if cfg.Warmup.DeadlineMs != 2500 {
		t.Errorf("deadline_ms = %d, want 2500", cfg.Warmup.DeadlineMs)
	}
	// Unset values fall back to defaults
	if cfg.Warmup.FreshnessMinutes != 30 {
		t.Errorf("freshness should default to 30, got %d", cfg.Warmup.FreshnessMinutes)
	}
	if cfg.Extract.MaxCandidates != 5 {
		t.Errorf("max candidates should default to 5, got %d", cfg.Extract.MaxCandidates)
	}
}

func TestLoadFromFileMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("settings: [not: a: map"), 0644); err != nil {
		t.Fatal(err)
	}

	loader, err := NewLoader(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loader.LoadFromFile(path); err == nil {
		t.Error("malformed config should error")
	}
}

func TestStatePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Settings.StateDir = "/tmp/mnemo-test-state"

	storePath, err := cfg.StorePath()
	if err != nil {
		t.Fatal(err)
	}
	if storePath != filepath.Join("/tmp/mnemo-test-state", "decisions.db") {
		t.Errorf("unexpected store path %q", storePath)
	}

	tierPath, err := cfg.TierPath()
	if err != nil {
		t.Fatal(err)
	}
	if tierPath != filepath.Join("/tmp/mnemo-test-state", "tier.json") {
		t.Errorf("unexpected tier path %q", tierPath)
	}

	cfg.Store.Path = "/elsewhere/d.db"
	storePath, _ = cfg.StorePath()
	if storePath != "/elsewhere/d.db" {
		t.Errorf("explicit store path should win, got %q", storePath)
	}
}
