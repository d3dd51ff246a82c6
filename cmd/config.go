// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/slcan"
	"github.com/caarlos0/env/v6"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v2"
)

// envPrefix namespaces every environment override
const envPrefix = "J1939STAT_"

// Config holds the connection and analyzer settings shared by all commands
type Config struct {
	Port           string        `env:"PORT"`
	Baud           int           `env:"BAUD"`
	Bitrate        int           `env:"BITRATE"`
	ListenOnly     bool          `env:"LISTEN_ONLY"`
	URL            string        `env:"URL"`
	Username       string        `env:"USERNAME"`
	NoSSLVerify    bool          `env:"NO_SSL_VERIFY"`
	CANInterface   string        `env:"CAN"`
	Simulate       bool          `env:"SIMULATE"`
	SourceAddress  uint8         `env:"SOURCE_ADDRESS"`
	LogLevel       string        `env:"LOG_LEVEL"`
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT"`
	StatsInterval  time.Duration `env:"STATS_INTERVAL"`
}

func defaultConfig() Config {
	return Config{
		Baud:           115200,
		Bitrate:        slcan.J1939Bitrate,
		SourceAddress:  0xF9, // Off-board service tool
		LogLevel:       "info",
		SessionTimeout: j1939.DefaultSessionTimeout,
		StatsInterval:  10 * time.Second,
	}
}

// fileConfig is the on-disk layout. Durations are strings such as "750ms".
type fileConfig struct {
	Port           string `toml:"port" yaml:"port"`
	Baud           int    `toml:"baud" yaml:"baud"`
	Bitrate        int    `toml:"bitrate" yaml:"bitrate"`
	ListenOnly     bool   `toml:"listen_only" yaml:"listen_only"`
	URL            string `toml:"url" yaml:"url"`
	Username       string `toml:"username" yaml:"username"`
	NoSSLVerify    bool   `toml:"no_ssl_verify" yaml:"no_ssl_verify"`
	CANInterface   string `toml:"can_interface" yaml:"can_interface"`
	Simulate       bool   `toml:"simulate" yaml:"simulate"`
	SourceAddress  int    `toml:"source_address" yaml:"source_address"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	SessionTimeout string `toml:"session_timeout" yaml:"session_timeout"`
	StatsInterval  string `toml:"stats_interval" yaml:"stats_interval"`
}

// loadConfig layers defaults, the config file, the environment and the
// flags the user set, in that order. set holds the values bound to flags.
func loadConfig(path string, flags *pflag.FlagSet, set Config) (Config, error) {
	c := defaultConfig()

	if path != "" {
		if err := c.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := env.Parse(&c, env.Options{Prefix: envPrefix}); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if flags != nil {
		c.applyFlags(flags, set)
	}

	return c, c.validate()
}

// loadFile reads a TOML file, or YAML when the extension says so
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var raw fileConfig
	var defined func(key string) bool

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalStrict(data, &raw); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		keys := map[string]interface{}{}
		if err := yaml.Unmarshal(data, &keys); err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		defined = func(key string) bool {
			_, ok := keys[key]
			return ok
		}
	default:
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return fmt.Errorf("load config %s: unknown key %q", path, undecoded[0].String())
		}
		defined = func(key string) bool {
			return meta.IsDefined(key)
		}
	}

	return c.applyFile(raw, defined)
}

func (c *Config) applyFile(raw fileConfig, defined func(string) bool) error {
	if defined("port") {
		c.Port = strings.TrimSpace(raw.Port)
	}
	if defined("baud") {
		c.Baud = raw.Baud
	}
	if defined("bitrate") {
		c.Bitrate = raw.Bitrate
	}
	if defined("listen_only") {
		c.ListenOnly = raw.ListenOnly
	}
	if defined("url") {
		c.URL = strings.TrimSpace(raw.URL)
	}
	if defined("username") {
		c.Username = raw.Username
	}
	if defined("no_ssl_verify") {
		c.NoSSLVerify = raw.NoSSLVerify
	}
	if defined("can_interface") {
		c.CANInterface = strings.TrimSpace(raw.CANInterface)
	}
	if defined("simulate") {
		c.Simulate = raw.Simulate
	}

	if defined("source_address") {
		if raw.SourceAddress < 0 || raw.SourceAddress > 0xFF {
			return fmt.Errorf("parse source_address: %d out of range", raw.SourceAddress)
		}
		c.SourceAddress = uint8(raw.SourceAddress)
	}

	if defined("log_level") {
		c.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if defined("session_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SessionTimeout))
		if err != nil {
			return fmt.Errorf("parse session_timeout: %w", err)
		}
		c.SessionTimeout = d
	}

	if defined("stats_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.StatsInterval))
		if err != nil {
			return fmt.Errorf("parse stats_interval: %w", err)
		}
		c.StatsInterval = d
	}

	return nil
}

// applyFlags copies flags the user set on the command line
func (c *Config) applyFlags(flags *pflag.FlagSet, set Config) {
	changed := func(name string) bool {
		f := flags.Lookup(name)
		return f != nil && f.Changed
	}

	if changed("port") {
		c.Port = set.Port
	}
	if changed("baud") {
		c.Baud = set.Baud
	}
	if changed("bitrate") {
		c.Bitrate = set.Bitrate
	}
	if changed("listen-only") {
		c.ListenOnly = set.ListenOnly
	}
	if changed("url") {
		c.URL = set.URL
	}
	if changed("username") {
		c.Username = set.Username
	}
	if changed("no-ssl-verify") {
		c.NoSSLVerify = set.NoSSLVerify
	}
	if changed("can") {
		c.CANInterface = set.CANInterface
	}
	if changed("simulate") {
		c.Simulate = set.Simulate
	}
	if changed("source-address") {
		c.SourceAddress = set.SourceAddress
	}
	if changed("log-level") {
		c.LogLevel = set.LogLevel
	}
	if changed("session-timeout") {
		c.SessionTimeout = set.SessionTimeout
	}
	if changed("stats-interval") {
		c.StatsInterval = set.StatsInterval
	}
}

func (c Config) validate() error {
	if c.SourceAddress > j1939.AddressNull {
		return fmt.Errorf("source address 0x%02X is not a node address", c.SourceAddress)
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive, got %v", c.SessionTimeout)
	}
	if c.StatsInterval <= 0 {
		return fmt.Errorf("stats interval must be positive, got %v", c.StatsInterval)
	}
	return nil
}
