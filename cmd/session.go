// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/spf13/cobra"
)

// session is an open radio module and its connection
type session struct {
	settings settings
	conn     Connection
	connInfo string
	module   *radio.Module
}

func (s *session) Close() error {
	return s.conn.Close()
}

// openSession resolves settings, opens the connection and GPIO lines and
// creates the module. announce selects whether hello frames are sent after
// startup and reset.
func openSession(cmd *cobra.Command, announce bool) (*session, error) {
	st, err := resolveSettings(cmd.Flags().Changed)
	if err != nil {
		return nil, err
	}
	st.Module.Announce = st.Module.Announce && announce

	// Resolving pins does not drive them; validate before opening the port
	p, err := openPins(st.Pins)
	if err != nil {
		return nil, err
	}
	if err := st.Module.Validate(p); err != nil {
		return nil, err
	}

	conn, connInfo, err := OpenConnection(st)
	if err != nil {
		return nil, err
	}

	m, err := radio.NewModule(conn, st.Module, p,
		radio.WithLogger(logger.With().Str("component", "radio").Logger()))
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create module: %w", err)
	}

	logger.Info().Str("connection", connInfo).Msg("connected")
	return &session{
		settings: st,
		conn:     conn,
		connInfo: connInfo,
		module:   m,
	}, nil
}
