// Package config loads application configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"
	str2duration "github.com/xhit/go-str2duration/v2"

	"github.com/raykavin/ruleforge/engine"
)

// Storage backends.
const (
	BackendBunt   = "buntdb"
	BackendSQLite = "sqlite"
)

// Config is the full application configuration.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	Storage struct {
		Backend string `mapstructure:"backend"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"storage"`

	Binance struct {
		APIKey    string `mapstructure:"api_key"`
		SecretKey string `mapstructure:"secret_key"`
		Timeframe string `mapstructure:"timeframe"`
	} `mapstructure:"binance"`

	Telegram struct {
		Enabled bool   `mapstructure:"enabled"`
		Token   string `mapstructure:"token"`
		ChatID  int64  `mapstructure:"chat_id"`
	} `mapstructure:"telegram"`

	Engine struct {
		CycleInterval   string `mapstructure:"cycle_interval"`
		TickInterval    string `mapstructure:"tick_interval"`
		SimBatchSize    int    `mapstructure:"sim_batch_size"`
		BatchDelay      string `mapstructure:"batch_delay"`
		MaxCombinations int    `mapstructure:"max_combinations"`
	} `mapstructure:"engine"`

	ConfigSets []engine.ConfigSet `mapstructure:"config_sets"`
}

// Load reads the configuration file and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("RULEFORGE")
	v.AutomaticEnv()

	v.SetDefault("log_level", "info")
	v.SetDefault("storage.backend", BackendBunt)
	v.SetDefault("storage.path", "./ruleforge.db")
	v.SetDefault("binance.timeframe", "1h")
	v.SetDefault("engine.cycle_interval", "4h")
	v.SetDefault("engine.tick_interval", "1s")
	v.SetDefault("engine.sim_batch_size", 10)
	v.SetDefault("engine.batch_delay", "200ms")
	v.SetDefault("engine.max_combinations", 300)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// EngineSettings converts the duration strings into engine settings.
func (c *Config) EngineSettings() (engine.Settings, error) {
	settings := engine.DefaultSettings()

	cycle, err := str2duration.ParseDuration(c.Engine.CycleInterval)
	if err != nil {
		return settings, fmt.Errorf("cycle_interval: %w", err)
	}
	tick, err := str2duration.ParseDuration(c.Engine.TickInterval)
	if err != nil {
		return settings, fmt.Errorf("tick_interval: %w", err)
	}
	delay, err := str2duration.ParseDuration(c.Engine.BatchDelay)
	if err != nil {
		return settings, fmt.Errorf("batch_delay: %w", err)
	}

	settings.CycleInterval = cycle
	settings.TickInterval = tick
	settings.BatchDelay = delay
	if c.Engine.SimBatchSize > 0 {
		settings.SimBatchSize = c.Engine.SimBatchSize
	}
	if c.Engine.MaxCombinations > 0 {
		settings.MaxCombinations = c.Engine.MaxCombinations
	}

	return settings, nil
}
