package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	globalConfigDir  = ".mnemo"
	projectConfigDir = ".mnemo"
	configFileName   = "config.yaml"
)

// Loader handles loading and merging configuration files
type Loader struct {
	globalPath  string
	projectPath string
}

// NewLoader creates a new configuration loader
func NewLoader(projectDir string) (*Loader, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	if projectDir == "" {
		projectDir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	return &Loader{
		globalPath:  filepath.Join(homeDir, globalConfigDir, configFileName),
		projectPath: filepath.Join(projectDir, projectConfigDir, configFileName),
	}, nil
}

// Load loads and merges configuration from all sources. Global config
// applies first, project config overrides it.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	globalCfg, err := l.loadFile(l.globalPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load global config: %w", err)
	}
	if globalCfg != nil {
		cfg = mergeConfigs(cfg, globalCfg)
	}

	projectCfg, err := l.loadFile(l.projectPath)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load project config: %w", err)
	}
	if projectCfg != nil {
		cfg = mergeConfigs(cfg, projectCfg)
	}

	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	override, err := l.loadFile(path)
	if err != nil {
		return nil, err
	}
	return mergeConfigs(DefaultConfig(), override), nil
}

func (l *Loader) loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &cfg, nil
}

// mergeConfigs merges two configurations, with override taking precedence
func mergeConfigs(base, override *Config) *Config {
	return &Config{
		Version: coalesce(override.Version, base.Version),
		Settings: Settings{
			LogLevel:    coalesce(override.Settings.LogLevel, base.Settings.LogLevel),
			LogFile:     coalesce(override.Settings.LogFile, base.Settings.LogFile),
			StateDir:    coalesce(override.Settings.StateDir, base.Settings.StateDir),
			SessionFile: coalesce(override.Settings.SessionFile, base.Settings.SessionFile),
		},
		Warmup: WarmupSettings{
			DeadlineMs:       coalesceInt(override.Warmup.DeadlineMs, base.Warmup.DeadlineMs),
			FreshnessMinutes: coalesceInt(override.Warmup.FreshnessMinutes, base.Warmup.FreshnessMinutes),
		},
		Store: StoreSettings{
			Path:            coalesce(override.Store.Path, base.Store.Path),
			SimilarityFloor: coalesceFloatPtr(override.Store.SimilarityFloor, base.Store.SimilarityFloor),
			MaxResults:      coalesceInt(override.Store.MaxResults, base.Store.MaxResults),
		},
		Embedder: EmbedSettings{
			Command:   coalesce(override.Embedder.Command, base.Embedder.Command),
			Args:      coalesceSlice(override.Embedder.Args, base.Embedder.Args),
			TimeoutMs: coalesceInt(override.Embedder.TimeoutMs, base.Embedder.TimeoutMs),
		},
		Extract: ExtractSettings{
			MaxCandidates: coalesceInt(override.Extract.MaxCandidates, base.Extract.MaxCandidates),
			MinLength:     coalesceInt(override.Extract.MinLength, base.Extract.MinLength),
		},
	}
}

func coalesce(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func coalesceInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func coalesceFloatPtr(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}

func coalesceSlice(a, b []string) []string {
	if len(a) > 0 {
		return a
	}
	return b
}
