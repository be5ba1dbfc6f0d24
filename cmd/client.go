// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/loranger/pkg/loranger"
	"github.com/spf13/cobra"
)

var commandWindow time.Duration

var queryCmd = &cobra.Command{
	Use:   "query <parameter>",
	Short: "Query a parameter from the remote node",
	Long: `Send q:<parameter> and print the reply.

Examples:
  loranger query uptime --port /dev/ttyUSB0
  loranger query ip4 --port /dev/ttyUSB0 --read-timeout 10s`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd, func(ctx context.Context, c *loranger.Client) (string, error) {
			return c.Query(ctx, args[0])
		})
	},
}

var actionCmd = &cobra.Command{
	Use:   "action <name> [args...]",
	Short: "Run an action on the remote node",
	Long: `Send a:<name>:<arg1>,<arg2> and print the reply.

Examples:
  loranger action get_actions --port /dev/ttyUSB0
  loranger action add_address eth0 10.0.0.9/24 --port /dev/ttyUSB0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd, func(ctx context.Context, c *loranger.Client) (string, error) {
			return c.Action(ctx, args[0], args[1:])
		})
	},
}

var commandCmd = &cobra.Command{
	Use:   "command <command line...>",
	Short: "Run a command on the remote node",
	Long: `Send c:<command line> and print the command's standard output.

The remote node caps execution at 30 seconds and returns whatever output was
produced by then.

Examples:
  loranger command uname -a --port /dev/ttyUSB0`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClient(cmd, func(ctx context.Context, c *loranger.Client) (string, error) {
			c.CommandWindow = commandWindow
			return c.Command(ctx, strings.Join(args, " "))
		})
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	rootCmd.AddCommand(actionCmd)
	rootCmd.AddCommand(commandCmd)
	commandCmd.Flags().DurationVar(&commandWindow, "window", loranger.DefaultCommandWindow, "Inactivity window for the command output")
}

// runClient starts the module without announcing, sends one request and
// prints the reply on stdout
func runClient(cmd *cobra.Command, request func(context.Context, *loranger.Client) (string, error)) error {
	s, err := openSession(cmd, false)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.module.Startup(ctx); err != nil {
		return err
	}

	reply, err := request(ctx, loranger.NewClient(s.module, logger))
	if err != nil {
		return err
	}

	fmt.Print(reply)
	if !strings.HasSuffix(reply, "\n") {
		fmt.Println()
	}
	return nil
}
