// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Thermoquad/loranger/pkg/protocol"
	"periph.io/x/conn/v3/gpio"
)

const readBufferSize = 256

// Read accumulates inbound bytes until the buffer ends with terminator or
// no bytes have arrived for timeout. The window restarts whenever bytes
// arrive, so a slow trickle keeps the read alive.
//
// On line-terminated reads a chunk starting with a junk marker discards the
// buffer and resets the module; reading then continues. Command responses
// may carry arbitrary output and are not checked for junk. Invalid UTF-8
// resets the module and yields nothing. An empty string means nothing was
// received. A valid frame received while in FAULT returns the module to
// READY.
func (m *Module) Read(ctx context.Context, timeout time.Duration, terminator []byte) (string, error) {
	if m.pins.Power != nil && m.pins.Power.Read() == gpio.Low {
		m.log.Warn().Msg("power pin is low, restarting module")
		if err := m.Startup(ctx); err != nil {
			return "", err
		}
	}

	policy := junkRecover
	if bytes.Equal(terminator, protocol.CommandTerminator) {
		policy = junkIgnore
	}

	data, err := m.readFrame(ctx, timeout, terminator, policy)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(data) {
		m.updateStats(func(s *Statistics) { s.DecodeFaults++ })
		m.log.Error().
			Err(ErrDecode).
			Str("bytes", protocol.FormatBytes(data)).
			Msg("discarding undecodable frame")
		m.recoverLink(ctx)
		return "", nil
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		m.updateStats(func(s *Statistics) { s.EmptyReads++ })
		return "", nil
	}

	m.updateStats(func(s *Statistics) { s.FramesReceived++ })
	if m.State() == StateFault {
		m.log.Info().Msg("link recovered")
		m.setState(StateReady)
	}
	m.log.Debug().Str("data", text).Msg("read frame")
	return text, nil
}

// junkPolicy selects how readFrame treats a chunk starting with a junk marker
type junkPolicy int

const (
	junkRecover junkPolicy = iota // reset the module and keep reading
	junkFail                      // abort with ErrTransportFault
	junkIgnore                    // treat as payload
)

// readFrame runs the inactivity-timeout accumulation loop
func (m *Module) readFrame(ctx context.Context, timeout time.Duration, terminator []byte, policy junkPolicy) ([]byte, error) {
	var buf []byte
	chunk := make([]byte, readBufferSize)

	last := time.Now()
	for time.Since(last) < timeout {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, err := m.t.Read(chunk)
		if err != nil {
			return nil, fmt.Errorf("read failed: %w", err)
		}

		if n == 0 {
			if err := sleep(ctx, m.cfg.PollInterval); err != nil {
				return nil, err
			}
			continue
		}

		got := chunk[:n]
		m.updateStats(func(s *Statistics) { s.BytesReceived += uint64(n) })
		m.log.Trace().Str("bytes", protocol.FormatBytes(got)).Msg("read chunk")

		if policy != junkIgnore && protocol.IsJunk(got) {
			m.updateStats(func(s *Statistics) { s.JunkFaults++ })
			if policy == junkFail {
				return nil, fmt.Errorf("%w: junk marker 0x%02X", ErrTransportFault, got[0])
			}
			m.log.Warn().
				Err(ErrTransportFault).
				Str("bytes", protocol.FormatBytes(got)).
				Int("discarded", len(buf)).
				Msg("junk marker received, resetting module")
			buf = buf[:0]
			m.recoverLink(ctx)
			last = time.Now()
			continue
		}

		buf = append(buf, got...)
		last = time.Now()
		if len(terminator) > 0 && bytes.HasSuffix(buf, terminator) {
			break
		}
	}
	return buf, nil
}
