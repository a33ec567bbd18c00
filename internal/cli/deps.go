package cli

import (
	"fmt"
	"os"

	"github.com/mnemohq/mnemo/internal/config"
	"github.com/mnemohq/mnemo/internal/embed"
	"github.com/mnemohq/mnemo/internal/logger"
	"github.com/mnemohq/mnemo/internal/store"
	"github.com/mnemohq/mnemo/internal/tier"
)

// loadConfig loads merged configuration, falling back to defaults when
// nothing is readable.
func loadConfig() *config.Config {
	loader, err := config.NewLoader(projectDir)
	if err != nil {
		return config.DefaultConfig()
	}

	var cfg *config.Config
	if configFile != "" {
		cfg, err = loader.LoadFromFile(configFile)
	} else {
		cfg, err = loader.Load()
	}
	if err != nil {
		logger.Debug().Err(err).Msg("Config load failed, using defaults")
		return config.DefaultConfig()
	}
	return cfg
}

// initLogging configures the global logger for an operator-facing
// command. Hook invocations call logger.InitQuiet unless verbose.
func initLogging(cfg *config.Config) {
	if verbose {
		_ = logger.Init("debug", cfg.Settings.LogFile)
		return
	}
	_ = logger.Init(cfg.Settings.LogLevel, cfg.Settings.LogFile)
}

// buildEmbedder returns the embedder the detected tier allows. Without
// a tier record, or when the embedding probe failed at install time,
// everything degrades to the null embedder.
func buildEmbedder(cfg *config.Config, tierRes *tier.Result) embed.Embedder {
	if tierRes != nil && !tierRes.EmbeddingAvailable {
		return embed.Null{}
	}
	return embed.NewCommandEmbedder(cfg.Embedder)
}

// openStore opens the decision store per the detected tier
func openStore(cfg *config.Config, tierRes *tier.Result) (store.DecisionStore, error) {
	if tierRes != nil && !tierRes.StoreAvailable {
		return nil, fmt.Errorf("native store unavailable at detected tier")
	}
	path, err := cfg.StorePath()
	if err != nil {
		return nil, err
	}
	return store.NewSQLiteStore(path, buildEmbedder(cfg, tierRes), cfg.Store.Floor(), cfg.Store.MaxResults)
}

// loadTier reads the installed tier record, nil when not installed
func loadTier(cfg *config.Config) *tier.Result {
	path, err := cfg.TierPath()
	if err != nil {
		return nil
	}
	return tier.Load(path)
}

// sessionFilePath resolves the session env-record path: host-provided
// environment variable first, then config, then empty (memory-only).
func sessionFilePath(cfg *config.Config) string {
	if p := os.Getenv("MNEMO_SESSION_FILE"); p != "" {
		return p
	}
	return cfg.Settings.SessionFile
}
