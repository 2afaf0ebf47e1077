package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Environment
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Data locations
	DataDir   string `mapstructure:"DATA_DIR"`
	ModelsDir string `mapstructure:"MODELS_DIR"`

	// Train/test split boundary (YYYY-MM-DD). Games on or after this
	// date form the held-out evaluation set.
	SplitDate string `mapstructure:"SPLIT_DATE"`

	// Strategy selection: median ripple sensitivity at or above this
	// keeps the full-model strategy, below it the delta model is used.
	SensitivityThreshold float64 `mapstructure:"SENSITIVITY_THRESHOLD"`

	// Minimum games played before a player qualifies for role detection.
	MinGamesForRole int `mapstructure:"MIN_GAMES_FOR_ROLE"`

	// Dataset build parallelism
	FeatureWorkers int `mapstructure:"FEATURE_WORKERS"`

	// Boosting hyperparameters
	BoostRounds    int     `mapstructure:"BOOST_ROUNDS"`
	BoostMaxDepth  int     `mapstructure:"BOOST_MAX_DEPTH"`
	BoostLearnRate float64 `mapstructure:"BOOST_LEARN_RATE"`
	BoostMinLeaf   int     `mapstructure:"BOOST_MIN_LEAF"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")

	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("MODELS_DIR", "models")
	viper.SetDefault("SPLIT_DATE", "2024-10-01")
	viper.SetDefault("SENSITIVITY_THRESHOLD", 0.3)
	viper.SetDefault("MIN_GAMES_FOR_ROLE", 20)
	viper.SetDefault("FEATURE_WORKERS", 4)
	viper.SetDefault("BOOST_ROUNDS", 500)
	viper.SetDefault("BOOST_MAX_DEPTH", 6)
	viper.SetDefault("BOOST_LEARN_RATE", 0.05)
	viper.SetDefault("BOOST_MIN_LEAF", 20)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Missing .env is fine, env vars and defaults still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if _, err := time.Parse("2006-01-02", cfg.SplitDate); err != nil {
		return nil, fmt.Errorf("invalid SPLIT_DATE %q: %w", cfg.SplitDate, err)
	}

	return &cfg, nil
}

// IsDevelopment reports whether the config targets a development environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
