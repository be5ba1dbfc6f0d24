// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loranger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Thermoquad/loranger/pkg/protocol"
	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/rs/zerolog"
)

// DefaultScanWindow is the scanner read window
const DefaultScanWindow = time.Second

// Scanner listens for hello announcements
type Scanner struct {
	module *radio.Module
	log    zerolog.Logger

	// Window is the inactivity window of each read
	Window time.Duration
}

// NewScanner creates a scanner on a started module
func NewScanner(m *radio.Module, log zerolog.Logger) *Scanner {
	return &Scanner{
		module: m,
		log:    log,
		Window: DefaultScanWindow,
	}
}

// Scan reports every hello frame until ctx is cancelled. Other frames are
// ignored. Returns nil on cancellation.
func (s *Scanner) Scan(ctx context.Context, report func(protocol.Hello)) error {
	for ctx.Err() == nil {
		data, err := s.module.Read(ctx, s.Window, protocol.LineTerminator)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, radio.ErrTransportClosed) {
				return err
			}
			s.log.Error().Err(err).Msg("read failed")
			pause(ctx, errorBackoff)
			continue
		}

		// Announcements from several nodes may arrive in one read
		for line := range strings.Lines(data) {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			msg, err := protocol.Parse(line)
			if err != nil {
				s.log.Debug().Err(err).Str("data", line).Msg("ignoring frame")
				continue
			}
			hello, ok := msg.(protocol.Hello)
			if !ok {
				s.log.Debug().Str("message", protocol.FormatMessage(msg)).Msg("ignoring non-hello frame")
				continue
			}
			report(hello)
		}
	}
	return nil
}
