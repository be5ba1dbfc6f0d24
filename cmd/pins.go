// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"

	"github.com/Thermoquad/loranger/pkg/pins"
	"github.com/Thermoquad/loranger/pkg/radio"
)

// openPins resolves the configured GPIO names. Unset names stay absent.
func openPins(s pinSettings) (radio.Pins, error) {
	var p radio.Pins
	lines := []struct {
		role string
		name string
		dst  *pins.Pin
	}{
		{"power", s.Power, &p.Power},
		{"busy", s.Busy, &p.Busy},
		{"m0", s.M0, &p.Mode0},
		{"m1", s.M1, &p.Mode1},
	}

	for _, l := range lines {
		if l.name == "" {
			continue
		}
		pin, err := pins.Open(l.name)
		if err != nil {
			return radio.Pins{}, fmt.Errorf("failed to open %s pin %s: %w", l.role, l.name, err)
		}
		logger.Debug().Str("role", l.role).Str("pin", pin.Name()).Msg("opened GPIO")
		*l.dst = pin
	}
	return p, nil
}
