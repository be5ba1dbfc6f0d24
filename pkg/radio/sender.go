// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/loranger/pkg/protocol"
)

// Send frames payload with a trailing newline and writes it in chunks of at
// most ChunkSize bytes, each through the flow control gate.
func (m *Module) Send(ctx context.Context, payload string) error {
	data := protocol.EncodeLine(payload)

	if !m.gate.FlowControlled() && len(data) > 2*m.cfg.ChunkSize {
		m.log.Warn().
			Int("size", len(data)).
			Int("chunk_size", m.cfg.ChunkSize).
			Msg("payload exceeds twice the chunk size without a busy pin, data loss is likely")
	}

	m.log.Debug().Str("data", payload).Msg("sending message")
	if err := m.writeChunks(ctx, data); err != nil {
		return err
	}
	m.updateStats(func(s *Statistics) { s.FramesSent++ })
	return nil
}

// SendList joins items with commas and sends them as one payload
func (m *Module) SendList(ctx context.Context, items []string) error {
	return m.Send(ctx, protocol.JoinPayload(items))
}

func (m *Module) writeChunks(ctx context.Context, data []byte) error {
	for c := range protocol.Chunk(data, m.cfg.ChunkSize) {
		if err := m.writeChunk(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) writeChunk(ctx context.Context, c []byte) error {
	release, err := m.gate.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrGateTimeout) {
			m.updateStats(func(s *Statistics) { s.GateTimeouts++ })
		}
		return err
	}
	defer release()

	n, err := m.t.Write(c)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	if n < len(c) {
		return io.ErrShortWrite
	}

	m.updateStats(func(s *Statistics) {
		s.ChunksSent++
		s.BytesSent += uint64(n)
	})
	return nil
}
