// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/loranger/pkg/capabilities"
	"github.com/Thermoquad/loranger/pkg/dispatch"
	"github.com/Thermoquad/loranger/pkg/loranger"
	"github.com/spf13/cobra"
)

var (
	statsInterval time.Duration
	uptimePath    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer requests arriving over the radio link",
	Long: `Run a LoRanger node.

Starts the radio module, announces this host with a hello frame and then
answers every request received over the link:

  q:<parameter>            query (interfaces, hostname, ip4, ip6, routes, macs, uptime)
  a:<action>:<arg1>,<arg2> action (see a:get_actions:)
  c:<command line>         run a command, replying with its standard output

The link is recovered automatically by power cycling the module when junk
bytes or undecodable frames are received, if a power or busy pin is wired.

Examples:
  loranger serve --port /dev/ttyS0 --power-pin GPIO17 --busy-pin GPIO27
  loranger serve --config /etc/loranger.toml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().DurationVar(&statsInterval, "stats-interval", time.Minute, "Link statistics log interval (0 to disable)")
	serveCmd.Flags().StringVar(&uptimePath, "uptime-path", capabilities.DefaultUptimePath, "File read by the uptime query")
}

func runServe(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, true)
	if err != nil {
		return err
	}
	defer s.Close()

	nl, closeNetlink, err := capabilities.OpenNetlink()
	if err != nil {
		logger.Warn().Err(err).Msg("network capabilities unavailable")
	} else {
		defer closeNetlink()
	}

	d := dispatch.New(nil, nil,
		dispatch.WithLogger(logger.With().Str("component", "dispatch").Logger()))
	catalog := capabilities.New(nl, d.Executor(),
		capabilities.WithLogger(logger.With().Str("component", "capabilities").Logger()),
		capabilities.WithUptimePath(uptimePath))
	if err := catalog.Register(d.Queries(), d.Actions()); err != nil {
		return err
	}
	logger.Debug().
		Strs("queries", d.Queries().Names()).
		Strs("actions", d.Actions().Names()).
		Msg("capabilities registered")

	server := loranger.NewServer(s.module, d, logger)
	server.StatsInterval = s.settings.StatsInterval

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.Run(ctx)
	stats := s.module.Stats()
	fmt.Fprint(os.Stderr, "\n"+stats.String())
	return err
}
