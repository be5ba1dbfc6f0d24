// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package loranger ties the radio link to the dispatcher: the node run loop,
// the one-shot request client and the hello scanner.
package loranger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/loranger/pkg/dispatch"
	"github.com/Thermoquad/loranger/pkg/protocol"
	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/rs/zerolog"
)

// errorBackoff is the pause after a failed cycle before reading again
const errorBackoff = 100 * time.Millisecond

// Server answers requests arriving over the radio link
type Server struct {
	module     *radio.Module
	dispatcher *dispatch.Dispatcher
	log        zerolog.Logger

	// StatsInterval is how often link statistics are logged; zero disables
	StatsInterval time.Duration
}

// NewServer creates a server
func NewServer(m *radio.Module, d *dispatch.Dispatcher, log zerolog.Logger) *Server {
	return &Server{
		module:     m,
		dispatcher: d,
		log:        log,
	}
}

// Run starts the module and then reads, dispatches and replies until ctx is
// cancelled. It returns nil on cancellation. Configuration errors and a
// closed transport end the loop; every other fault is logged.
func (s *Server) Run(ctx context.Context) error {
	if err := s.module.Startup(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("startup failed: %w", err)
	}

	s.log.Info().Msg("starting main loop")
	timeout := s.module.Config().ReadTimeout
	lastStats := time.Now()

	for ctx.Err() == nil {
		if s.StatsInterval > 0 && time.Since(lastStats) >= s.StatsInterval {
			s.logStats()
			lastStats = time.Now()
		}

		frame, err := s.module.Read(ctx, timeout, protocol.LineTerminator)
		if err == nil && frame != "" {
			err = s.Handle(ctx, frame)
		}
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			break
		}
		if fatal(err) {
			return err
		}
		s.log.Error().Err(err).Msg("link cycle failed")
		pause(ctx, errorBackoff)
	}

	s.log.Info().Msg("main loop stopped")
	return nil
}

func pause(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func fatal(err error) bool {
	return errors.Is(err, radio.ErrConfiguration) || errors.Is(err, radio.ErrTransportClosed)
}

// Handle parses and answers one frame. Unknown tags are ignored. An unknown
// query or action name is answered with the not found message.
func (s *Server) Handle(ctx context.Context, frame string) error {
	msg, err := protocol.Parse(frame)
	if err != nil {
		s.log.Debug().Err(err).Str("data", frame).Msg("ignoring frame")
		return nil
	}
	s.log.Debug().Str("message", protocol.FormatMessage(msg)).Msg("handling message")

	resp, err := s.dispatcher.Dispatch(ctx, msg)
	var notFound *dispatch.NotFoundError
	switch {
	case errors.As(err, &notFound):
		s.log.Error().Err(err).Msg("request not found")
		resp = dispatch.Text(notFound.Error())
	case err != nil:
		s.log.Error().Err(err).Msg("dispatch failed")
		return nil
	}

	if resp.Empty() {
		return nil
	}
	s.log.Info().Str("response", resp.String()).Msg("prepared response")
	if resp.IsList() {
		return s.module.SendList(ctx, resp.Items)
	}
	return s.module.Send(ctx, resp.String())
}

func (s *Server) logStats() {
	st := s.module.Stats()
	s.log.Info().
		Uint64("frames_received", st.FramesReceived).
		Uint64("frames_sent", st.FramesSent).
		Uint64("chunks_sent", st.ChunksSent).
		Uint64("faults", st.Faults()).
		Uint64("resets", st.Resets).
		Float64("frame_rate", st.FrameRate).
		Msg("link statistics")
}
