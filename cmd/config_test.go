// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/spf13/pflag"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile error: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	c, err := loadConfig("", nil, Config{})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if c != defaultConfig() {
		t.Errorf("loadConfig = %+v, want defaults %+v", c, defaultConfig())
	}
	if c.SessionTimeout != j1939.DefaultSessionTimeout {
		t.Errorf("SessionTimeout = %v", c.SessionTimeout)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	path := writeConfig(t, "j1939stat.toml", `
port = "/dev/ttyUSB1"
bitrate = 500000
listen_only = true
source_address = 0x80
session_timeout = "1500ms"
`)

	c, err := loadConfig(path, nil, Config{})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if c.Port != "/dev/ttyUSB1" || c.Bitrate != 500000 || !c.ListenOnly {
		t.Errorf("connection settings = %+v", c)
	}
	if c.SourceAddress != 0x80 {
		t.Errorf("SourceAddress = 0x%02X, want 0x80", c.SourceAddress)
	}
	if c.SessionTimeout != 1500*time.Millisecond {
		t.Errorf("SessionTimeout = %v, want 1.5s", c.SessionTimeout)
	}
	// Keys the file leaves out keep their defaults
	if c.Baud != 115200 || c.LogLevel != "info" {
		t.Errorf("Baud=%d LogLevel=%q, want defaults", c.Baud, c.LogLevel)
	}
}

func TestLoadConfig_YAML(t *testing.T) {
	path := writeConfig(t, "j1939stat.yaml", `
url: ws://192.168.1.10/ws
username: admin
simulate: true
stats_interval: 5s
`)

	c, err := loadConfig(path, nil, Config{})
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if c.URL != "ws://192.168.1.10/ws" || c.Username != "admin" || !c.Simulate {
		t.Errorf("loadConfig = %+v", c)
	}
	if c.StatsInterval != 5*time.Second {
		t.Errorf("StatsInterval = %v, want 5s", c.StatsInterval)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{name: "unknown toml key", file: "c.toml", content: "prot = \"x\"\n", want: "unknown key"},
		{name: "unknown yaml key", file: "c.yml", content: "prot: x\n", want: "prot"},
		{name: "bad duration", file: "c.toml", content: "session_timeout = \"soon\"\n", want: "session_timeout"},
		{name: "address range", file: "c.toml", content: "source_address = 300\n", want: "out of range"},
		{name: "global source", file: "c.toml", content: "source_address = 255\n", want: "not a node address"},
		{name: "zero timeout", file: "c.yaml", content: "session_timeout: 0s\n", want: "must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tt.file, tt.content), nil, Config{})
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil, Config{}); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "j1939stat.toml", `
port = "/dev/from-file"
baud = 57600
log_level = "warn"
`)
	t.Setenv(envPrefix+"PORT", "/dev/from-env")
	t.Setenv(envPrefix+"LOG_LEVEL", "debug")

	set := defaultConfig()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&set.Port, "port", "", "")
	flags.IntVar(&set.Baud, "baud", set.Baud, "")
	flags.StringVar(&set.LogLevel, "log-level", set.LogLevel, "")
	if err := flags.Parse([]string{"--log-level", "error"}); err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	c, err := loadConfig(path, flags, set)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if c.Baud != 57600 {
		t.Errorf("Baud = %d, want the file value", c.Baud)
	}
	if c.Port != "/dev/from-env" {
		t.Errorf("Port = %q, want the environment value", c.Port)
	}
	if c.LogLevel != "error" {
		t.Errorf("LogLevel = %q, want the flag value", c.LogLevel)
	}
}
