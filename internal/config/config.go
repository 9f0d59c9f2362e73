// Package config loads iptvscan settings from an optional YAML file plus
// IPTVSCAN_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/iptvscan/iptvscan/internal/mirror"
)

// Config drives every pipeline stage. Values come from defaults, then the
// config file, then environment; commands pass it down explicitly instead of
// reading globals.
type Config struct {
	DataDir string `mapstructure:"data_dir"`

	Log struct {
		Level string `mapstructure:"level"`
		JSON  bool   `mapstructure:"json"`
	} `mapstructure:"log"`

	Fetch struct {
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"fetch"`

	Validate struct {
		Attempts    int           `mapstructure:"attempts"`
		Timeout     time.Duration `mapstructure:"timeout"`
		BackoffBase time.Duration `mapstructure:"backoff_base"`
		Concurrency int           `mapstructure:"concurrency"`
	} `mapstructure:"validate"`

	Match struct {
		Threshold float64 `mapstructure:"threshold"`
	} `mapstructure:"match"`

	Mirror struct {
		Rules []mirror.Rule `mapstructure:"rules"`
	} `mapstructure:"mirror"`

	Dashboard struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"dashboard"`
}

// Load reads configuration. path may be empty to use ./iptvscan.yaml when
// present; a missing default file is fine, a missing explicit path is not.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("data_dir", "./data")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("validate.attempts", 3)
	v.SetDefault("validate.timeout", 10*time.Second)
	v.SetDefault("validate.backoff_base", time.Second)
	v.SetDefault("validate.concurrency", 8)
	v.SetDefault("match.threshold", 0.85)
	v.SetDefault("dashboard.addr", "127.0.0.1:8776")

	v.SetEnvPrefix("IPTVSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("iptvscan")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if len(cfg.Mirror.Rules) == 0 {
		cfg.Mirror.Rules = mirror.DefaultRules
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Validate.Attempts < 1 {
		return fmt.Errorf("config: validate.attempts must be >= 1, got %d", c.Validate.Attempts)
	}
	if c.Validate.Concurrency < 1 {
		return fmt.Errorf("config: validate.concurrency must be >= 1, got %d", c.Validate.Concurrency)
	}
	if c.Match.Threshold <= 0 || c.Match.Threshold > 1 {
		return fmt.Errorf("config: match.threshold must be in (0, 1], got %g", c.Match.Threshold)
	}
	return nil
}

// EnsureDataDir creates the data directory if needed.
func (c *Config) EnsureDataDir() error {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

func (c *Config) EndpointsPath() string { return filepath.Join(c.DataDir, "endpoints.json") }
func (c *Config) ChannelsPath() string  { return filepath.Join(c.DataDir, "channels.json") }
func (c *Config) GuidePath() string     { return filepath.Join(c.DataDir, "guide.json") }
func (c *Config) DeadLinksPath() string { return filepath.Join(c.DataDir, "dead_links.json") }
func (c *Config) HistoryDBPath() string { return filepath.Join(c.DataDir, "history.db") }
func (c *Config) LockPath() string      { return filepath.Join(c.DataDir, "iptvscan.lock") }
