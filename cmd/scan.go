// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/Thermoquad/loranger/pkg/loranger"
	"github.com/Thermoquad/loranger/pkg/protocol"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	scanTUI    bool
	scanWindow time.Duration
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Listen for node announcements",
	Long: `Listen on the radio link and report every hello frame.

Nodes announce themselves with h:<hostname> when they start and after every
link recovery. Other traffic is ignored.

Use --tui for a live view of discovered nodes and link statistics.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().BoolVar(&scanTUI, "tui", false, "Use terminal UI")
	scanCmd.Flags().DurationVar(&scanWindow, "window", loranger.DefaultScanWindow, "Inactivity window of each read")
}

func runScan(cmd *cobra.Command, args []string) error {
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

	scanner := loranger.NewScanner(s.module, logger)
	scanner.Window = scanWindow

	if scanTUI {
		return runScanTUI(ctx, s, scanner)
	}
	return runScanText(ctx, s, scanner)
}

// runScanText prints one line per announcement
func runScanText(ctx context.Context, s *session, scanner *loranger.Scanner) error {
	fmt.Printf("LoRanger - Node Scanner\n")
	fmt.Printf("Connection: %s\n", s.connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	seen := make(map[string]int)
	err := scanner.Scan(ctx, func(h protocol.Hello) {
		seen[h.Hostname]++
		fmt.Printf("[%s] Received hello from: %s\n", time.Now().Format("15:04:05"), h.Hostname)
	})

	hosts := make([]string, 0, len(seen))
	for host := range seen {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	fmt.Printf("\n--- Scan summary ---\n")
	fmt.Printf("Nodes found: %d\n", len(hosts))
	for _, host := range hosts {
		fmt.Printf("  %s (%d announcements)\n", host, seen[host])
	}
	stats := s.module.Stats()
	fmt.Print(stats.String())

	return err
}

// runScanTUI runs the scanner behind the terminal UI
func runScanTUI(ctx context.Context, s *session, scanner *loranger.Scanner) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := initialScanModel(s.connInfo, s.module.Stats, s.module.ResetStats)
	p := tea.NewProgram(m, tea.WithContext(ctx))

	go func() {
		err := scanner.Scan(ctx, func(h protocol.Hello) {
			p.Send(helloMsg{hostname: h.Hostname, at: time.Now()})
		})
		p.Send(scanDoneMsg{err: err})
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
