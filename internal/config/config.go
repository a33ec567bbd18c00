package config

import (
	"os"
	"path/filepath"
)

// Config represents the complete mnemo configuration. Components
// receive it at construction; nothing reads process environment or
// global state ad hoc.
type Config struct {
	Version  string          `yaml:"version"`
	Settings Settings        `yaml:"settings"`
	Warmup   WarmupSettings  `yaml:"warmup"`
	Store    StoreSettings   `yaml:"store"`
	Embedder EmbedSettings   `yaml:"embedder"`
	Extract  ExtractSettings `yaml:"extract"`
}

// Settings contains global configuration settings
type Settings struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty"`
	// StateDir holds the database, tier record, and defaults for the
	// session record. Empty means ~/.mnemo.
	StateDir string `yaml:"state_dir,omitempty"`
	// SessionFile is the env-record path shared by hook invocations in
	// one session. The MNEMO_SESSION_FILE environment variable set by
	// the host takes precedence at the call site.
	SessionFile string `yaml:"session_file,omitempty"`
}

// WarmupSettings bounds the session-start warmup race
type WarmupSettings struct {
	DeadlineMs       int `yaml:"deadline_ms"`
	FreshnessMinutes int `yaml:"freshness_minutes"`
}

// StoreSettings configures the persistent decision store. The
// similarity floor is a pointer so an explicit zero (no floor at all)
// survives the merge instead of reading as unset.
type StoreSettings struct {
	Path            string   `yaml:"path,omitempty"`
	SimilarityFloor *float64 `yaml:"similarity_floor"`
	MaxResults      int      `yaml:"max_results"`
}

const defaultSimilarityFloor = 0.55

// Floor returns the configured similarity floor, or the default when
// no config file set one.
func (s StoreSettings) Floor() float64 {
	if s.SimilarityFloor == nil {
		return defaultSimilarityFloor
	}
	return *s.SimilarityFloor
}

// EmbedSettings configures the external embedding runtime
type EmbedSettings struct {
	Command   string   `yaml:"command,omitempty"`
	Args      []string `yaml:"args,omitempty"`
	TimeoutMs int      `yaml:"timeout_ms"`
}

// ExtractSettings tunes the decision-extraction pipeline
type ExtractSettings struct {
	MaxCandidates int `yaml:"max_candidates"`
	MinLength     int `yaml:"min_length"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1",
		Settings: Settings{
			LogLevel: "info",
		},
		Warmup: WarmupSettings{
			DeadlineMs:       10000,
			FreshnessMinutes: 30,
		},
		Store: StoreSettings{
			MaxResults: 20,
		},
		Embedder: EmbedSettings{
			TimeoutMs: 8000,
		},
		Extract: ExtractSettings{
			MaxCandidates: 5,
			MinLength:     15,
		},
	}
}

// StateDir resolves the state directory, defaulting to ~/.mnemo
func (c *Config) StateDir() (string, error) {
	if c.Settings.StateDir != "" {
		return c.Settings.StateDir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".mnemo"), nil
}

// StorePath resolves the decision database path
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := c.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "decisions.db"), nil
}

// TierPath resolves the persisted tier record path
func (c *Config) TierPath() (string, error) {
	dir, err := c.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tier.json"), nil
}
