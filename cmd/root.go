// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"time"

	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	// Serial connection flags
	portName string
	baudRate int

	// WebSocket connection flags
	wsURL         string
	wsUsername    string
	wsNoSSLVerify bool

	// Radio module flags
	channel     int
	readTimeout time.Duration
	chunkSize   int
	settle      time.Duration
	resetHold   time.Duration
	gateTimeout time.Duration

	// GPIO flags
	powerPin string
	busyPin  string
	m0Pin    string
	m1Pin    string

	// General flags
	configPath string
	logLevel   string

	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "loranger",
	Short: "Remote host management over a LoRa serial link",
	Long: `LoRanger - Query and manage remote hosts over a low-bandwidth radio link.

A node runs "loranger serve" next to a UART radio module and answers queries,
actions and commands from peers. The same binary acts as the client and as a
scanner for node announcements.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 9600]
  WebSocket: --url ws://host/path [--username user]

Radio module control lines are optional GPIO names resolved through periph,
for example --power-pin GPIO17 --busy-pin GPIO27 --m0-pin GPIO22 --m1-pin GPIO23.
Setting --channel requires both mode pins.

Settings may also come from a TOML file given with --config. Flags given on
the command line take precedence over the file.

For WebSocket authentication, the password is read from the LORANGER_PASSWORD
environment variable, or prompted interactively if not set. The --password
flag is intentionally not provided to avoid leaking credentials in shell history.`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	flags := rootCmd.PersistentFlags()

	// Serial connection flags
	flags.StringVarP(&portName, "port", "p", "", "Serial port device")
	flags.IntVarP(&baudRate, "baud", "b", radio.DefaultBaud, "Baud rate (serial only)")

	// WebSocket connection flags
	flags.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	flags.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	flags.BoolVar(&wsNoSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")

	// Radio module flags
	flags.IntVar(&channel, "channel", 0, "Radio channel to program at startup (requires mode pins)")
	flags.DurationVar(&readTimeout, "read-timeout", radio.DefaultReadTimeout, "Inactivity window for reads")
	flags.IntVar(&chunkSize, "chunk-size", radio.DefaultChunkSize, "Maximum bytes per radio write")
	flags.DurationVar(&settle, "settle", radio.DefaultSettle, "Time the busy pin must report ready before a write")
	flags.DurationVar(&resetHold, "reset-hold", radio.DefaultResetHold, "Power-off time during a module reset")
	flags.DurationVar(&gateTimeout, "gate-timeout", radio.DefaultGateTimeout, "Maximum wait for the busy pin")

	// GPIO flags
	flags.StringVar(&powerPin, "power-pin", "", "GPIO driving the module power enable")
	flags.StringVarP(&busyPin, "busy-pin", "a", "", "GPIO reading the module busy (AUX) line")
	flags.StringVar(&m0Pin, "m0-pin", "", "GPIO driving mode select M0")
	flags.StringVar(&m1Pin, "m1-pin", "", "GPIO driving mode select M1")

	// General flags
	flags.StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, off)")
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func setupLogging(cmd *cobra.Command, args []string) error {
	logger = newLogger(logLevel)
	return nil
}
