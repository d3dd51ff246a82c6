// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Config file and logging flags
	configPath string

	// Values bound to persistent flags. Only flags the user sets override
	// the config file and environment.
	flagValues = defaultConfig()

	// Effective configuration and logger, set before any command runs
	cfg    Config
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "j1939stat",
	Short: "SAE J1939 Bus Analyzer",
	Long: `j1939stat - A CLI tool for monitoring and analyzing SAE J1939 CAN traffic.

Provides commands for raw frame logging, transport reassembly, error detection,
address claim discovery, frame injection and capture replay to help diagnose
heavy vehicle networks.

Connection modes:
  SLCAN:     --port /dev/ttyUSB0 [--baud 115200] [--bitrate 250000]
  WebSocket: --url ws://host/path [--username user]
  SocketCAN: --can can0 (linux)
  Offline:   --simulate (in-memory bus with a virtual engine at 0x00)

Settings can also come from a TOML or YAML file (--config) and from
J1939STAT_* environment variables. Flags win over the environment, which wins
over the file.

For WebSocket authentication, the password is read from the J1939STAT_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:      "1.0.0",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig(configPath, cmd.Flags(), flagValues)
		if err != nil {
			return err
		}
		cfg = loaded
		logger, err = newLogger(cfg.LogLevel, os.Stderr)
		return err
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (.toml, .yaml or .yml)")
	flags.StringVar(&flagValues.LogLevel, "log-level", flagValues.LogLevel, "Log level (trace, debug, info, warn, error, disabled)")

	// SLCAN serial adapter flags
	flags.StringVarP(&flagValues.Port, "port", "p", "", "SLCAN serial adapter device")
	flags.IntVarP(&flagValues.Baud, "baud", "b", flagValues.Baud, "Serial baud rate (SLCAN only)")
	flags.IntVar(&flagValues.Bitrate, "bitrate", flagValues.Bitrate, "CAN bus bitrate the SLCAN adapter is set to, 0 to keep")
	flags.BoolVar(&flagValues.ListenOnly, "listen-only", false, "Open the SLCAN adapter without acknowledging traffic")

	// WebSocket connection flags
	flags.StringVarP(&flagValues.URL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.StringVar(&flagValues.Username, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&flagValues.NoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// SocketCAN flags
	flags.StringVar(&flagValues.CANInterface, "can", "", "SocketCAN interface (linux)")
	flags.BoolVar(&flagValues.Simulate, "simulate", false, "Use an in-memory bus with a simulated engine ECU")

	// J1939 node flags
	flags.Uint8Var(&flagValues.SourceAddress, "source-address", flagValues.SourceAddress, "Source address used for transmitted frames")
	flags.DurationVar(&flagValues.SessionTimeout, "session-timeout", flagValues.SessionTimeout, "Drop incomplete BAM transfers after this long")
}

// Execute runs the root command. Ctrl+C cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}
