// Package config loads engine configuration from viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/pigeonhole/internal/common"
)

// Config is the resolved engine configuration.
type Config struct {
	OracleAPIKey     string
	OracleModel      string
	CacheDir         string
	FeedbackPath     string
	HistoryDBPath    string
	Categories       []string
	MinAIConfidence  float64
	BatchConcurrency int
	BatchWindowDelay time.Duration
}

// SetDefaults installs the default configuration values on viper.
func SetDefaults() {
	viper.SetDefault("ai.min_confidence", 0.6)
	viper.SetDefault("ai.model", "")
	viper.SetDefault("batch.concurrency", 3)
	viper.SetDefault("batch.window_delay", 100*time.Millisecond)
}

// Load resolves configuration from viper. Relative data paths default to
// ~/.local/share/pigeonhole.
func Load() (Config, error) {
	dataDir := viper.GetString("data_dir")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".local", "share", "pigeonhole")
	}

	cfg := Config{
		OracleAPIKey:     viper.GetString("ai.api_key"),
		OracleModel:      viper.GetString("ai.model"),
		MinAIConfidence:  viper.GetFloat64("ai.min_confidence"),
		CacheDir:         fallbackPath(viper.GetString("cache.dir"), dataDir, "cache"),
		FeedbackPath:     fallbackPath(viper.GetString("learned.feedback_path"), dataDir, "feedback.jsonl"),
		HistoryDBPath:    fallbackPath(viper.GetString("history.db_path"), dataDir, "history.db"),
		Categories:       viper.GetStringSlice("categories"),
		BatchConcurrency: viper.GetInt("batch.concurrency"),
		BatchWindowDelay: viper.GetDuration("batch.window_delay"),
	}

	if cfg.MinAIConfidence <= 0 || cfg.MinAIConfidence > 1 {
		return Config{}, fmt.Errorf("%w: ai.min_confidence must be in (0,1], got %v",
			common.ErrInvalidConfig, cfg.MinAIConfidence)
	}

	return cfg, nil
}

// HasOracle reports whether an oracle credential is configured. Its
// absence disables the AI stage entirely; it is not an error.
func (c Config) HasOracle() bool {
	return c.OracleAPIKey != ""
}

func fallbackPath(configured, dataDir, name string) string {
	if configured != "" {
		return configured
	}
	return filepath.Join(dataDir, name)
}
