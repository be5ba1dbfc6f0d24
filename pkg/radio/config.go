// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"fmt"
	"time"

	"github.com/Thermoquad/loranger/pkg/pins"
)

// Defaults
const (
	DefaultBaud         = 9600
	DefaultReadTimeout  = 5 * time.Second
	DefaultChunkSize    = 240
	DefaultSettle       = 10 * time.Millisecond
	DefaultResetHold    = 500 * time.Millisecond
	DefaultGateTimeout  = 5 * time.Second
	DefaultPollInterval = time.Millisecond
)

// Config describes one radio module session. It is fixed at construction.
type Config struct {
	// Serial device and baud rate, used by the transport opener
	Port string
	Baud int

	// ReadTimeout is the default inactivity window for reads
	ReadTimeout time.Duration

	// ChunkSize is the link MTU in bytes
	ChunkSize int

	// Channel, when set, is programmed with AT+CHANNEL at startup
	Channel *int

	// Settle is how long the busy pin must hold ready before a write
	Settle time.Duration

	// ResetHold is how long power is held low during a reset
	ResetHold time.Duration

	// GateTimeout bounds a single busy pin wait
	GateTimeout time.Duration

	// PollInterval is the idle sleep of the read and pin polling loops
	PollInterval time.Duration

	// Announce sends a hello frame after startup and reset
	Announce bool
}

// DefaultConfig returns a configuration with all defaults applied
func DefaultConfig() Config {
	return Config{
		Baud:         DefaultBaud,
		ReadTimeout:  DefaultReadTimeout,
		ChunkSize:    DefaultChunkSize,
		Settle:       DefaultSettle,
		ResetHold:    DefaultResetHold,
		GateTimeout:  DefaultGateTimeout,
		PollInterval: DefaultPollInterval,
		Announce:     true,
	}
}

// withDefaults fills zero durations and sizes
func (c Config) withDefaults() Config {
	if c.Baud == 0 {
		c.Baud = DefaultBaud
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = DefaultReadTimeout
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.Settle == 0 {
		c.Settle = DefaultSettle
	}
	if c.ResetHold == 0 {
		c.ResetHold = DefaultResetHold
	}
	if c.GateTimeout == 0 {
		c.GateTimeout = DefaultGateTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
	return c
}

// Pins is the optional set of control lines. A nil pin is absent.
type Pins struct {
	Power pins.Pin
	Busy  pins.Pin
	Mode0 pins.Pin
	Mode1 pins.Pin
}

// HasModePins reports whether both mode select lines are wired
func (p Pins) HasModePins() bool {
	return p.Mode0 != nil && p.Mode1 != nil
}

// CanReset reports whether a fault can be recovered in hardware
func (p Pins) CanReset() bool {
	return p.Power != nil || p.Busy != nil
}

// Validate checks the configuration against the wired pins
func (c Config) Validate(p Pins) error {
	if (p.Mode0 == nil) != (p.Mode1 == nil) {
		return fmt.Errorf("%w: m0 and m1 pins must be configured together", ErrConfiguration)
	}
	if c.Channel != nil {
		if !p.HasModePins() {
			return fmt.Errorf("%w: setting a channel requires m0 and m1 pins", ErrConfiguration)
		}
		if *c.Channel < 0 {
			return fmt.Errorf("%w: invalid channel %d", ErrConfiguration, *c.Channel)
		}
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrConfiguration, c.ChunkSize)
	}
	if c.Baud < 1 {
		return fmt.Errorf("%w: invalid baud rate %d", ErrConfiguration, c.Baud)
	}
	return nil
}
