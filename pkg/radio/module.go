// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/Thermoquad/loranger/pkg/protocol"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
)

// State is the module lifecycle state
type State int

const (
	StateUninitialized State = iota
	StatePoweredOn
	StateModeConfigured
	StateChannelSet
	StateReady
	StateFault
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "UNINITIALIZED"
	case StatePoweredOn:
		return "POWERED_ON"
	case StateModeConfigured:
		return "MODE_CONFIGURED"
	case StateChannelSet:
		return "CHANNEL_SET"
	case StateReady:
		return "READY"
	case StateFault:
		return "FAULT"
	default:
		return "UNKNOWN"
	}
}

// HostnameFunc returns the name announced in hello frames
type HostnameFunc func() (string, error)

// Module owns the transport and control pins of one radio module. It frames
// outbound payloads, deframes inbound ones and recovers the link on faults.
//
// A Module performs one exchange at a time and must not be shared between
// goroutines, except for State and Stats.
type Module struct {
	t    Transport
	cfg  Config
	pins Pins
	gate *Gate

	log      zerolog.Logger
	hostname HostnameFunc

	mu    sync.Mutex
	state State
	stats *Statistics
}

// Option configures a Module
type Option func(*Module)

// WithLogger sets the module logger
func WithLogger(l zerolog.Logger) Option {
	return func(m *Module) { m.log = l }
}

// WithHostname overrides the hostname source used for announcements
func WithHostname(f HostnameFunc) Option {
	return func(m *Module) { m.hostname = f }
}

// NewModule validates cfg against pins and creates a module.
// No hardware is touched until Startup.
func NewModule(t Transport, cfg Config, p Pins, opts ...Option) (*Module, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(p); err != nil {
		return nil, err
	}

	m := &Module{
		t:        t,
		cfg:      cfg,
		pins:     p,
		gate:     NewGate(p.Busy, cfg.Settle, cfg.GateTimeout, cfg.PollInterval),
		log:      zerolog.Nop(),
		hostname: os.Hostname,
		state:    StateUninitialized,
		stats:    NewStatistics(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Config returns the module configuration with defaults applied
func (m *Module) Config() Config {
	return m.cfg
}

// State returns the current lifecycle state
func (m *Module) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Module) setState(s State) {
	m.mu.Lock()
	prev := m.state
	m.state = s
	m.mu.Unlock()
	if prev != s {
		m.log.Debug().Stringer("from", prev).Stringer("to", s).Msg("module state changed")
	}
}

// Stats returns a snapshot of the link statistics
func (m *Module) Stats() Statistics {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := *m.stats
	s.CalculateRates()
	return s
}

// ResetStats clears the link statistics and restarts the rate window
func (m *Module) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats.Reset()
}

func (m *Module) updateStats(f func(s *Statistics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f(m.stats)
	m.stats.touch()
}

// Startup powers the module, programs the channel if configured, selects
// transmit mode and announces this host. The channel is programmed in
// command mode, so with a channel the states run POWERED_ON,
// MODE_CONFIGURED, CHANNEL_SET, READY.
func (m *Module) Startup(ctx context.Context) error {
	if m.cfg.Channel != nil && !m.pins.HasModePins() {
		return fmt.Errorf("%w: setting a channel requires m0 and m1 pins", ErrConfiguration)
	}

	if m.pins.Power != nil {
		m.log.Debug().Str("pin", m.pins.Power.Name()).Msg("powering on module")
		if err := m.pins.Power.Out(gpio.High); err != nil {
			return fmt.Errorf("failed to drive power pin: %w", err)
		}
	}
	m.setState(StatePoweredOn)

	if m.pins.Busy != nil {
		if err := m.configureBusy(); err != nil {
			return err
		}
	}

	m.clearInput()

	if m.cfg.Channel != nil {
		if err := m.SetChannel(ctx); err != nil {
			return err
		}
	}

	if m.pins.HasModePins() {
		m.log.Debug().Msg("selecting transmit mode")
		if err := m.setMode(gpio.High); err != nil {
			return err
		}
		if m.cfg.Channel == nil {
			m.setState(StateModeConfigured)
		}
	}

	m.setState(StateReady)
	m.log.Info().Msg("radio module ready")
	m.announce(ctx)
	return nil
}

// SetChannel switches the module to command mode and programs the channel.
// A missing or negative acknowledgment is a configuration error.
func (m *Module) SetChannel(ctx context.Context) error {
	if m.cfg.Channel == nil {
		return fmt.Errorf("%w: no channel configured", ErrConfiguration)
	}
	if !m.pins.HasModePins() {
		return fmt.Errorf("%w: setting a channel requires m0 and m1 pins", ErrConfiguration)
	}
	channel := *m.cfg.Channel

	if err := m.setMode(gpio.Low); err != nil {
		return err
	}
	m.setState(StateModeConfigured)

	m.log.Info().Int("channel", channel).Msg("setting radio channel")
	if err := m.writeChunks(ctx, []byte(channelCommand(channel))); err != nil {
		return fmt.Errorf("%w: failed to send channel command: %v", ErrConfiguration, err)
	}

	ack, err := m.readFrame(ctx, m.cfg.ReadTimeout, protocol.LineTerminator, junkFail)
	if err != nil {
		return fmt.Errorf("%w: channel %d not acknowledged: %v", ErrConfiguration, channel, err)
	}
	reply := strings.TrimSpace(string(ack))
	if !channelAcknowledged(reply, channel) {
		return fmt.Errorf("%w: channel %d rejected: %q", ErrConfiguration, channel, reply)
	}

	m.log.Debug().Str("reply", reply).Msg("channel acknowledged")
	m.setState(StateChannelSet)
	return nil
}

func channelCommand(channel int) string {
	return "AT+CHANNEL=" + strconv.Itoa(channel) + "\r\n"
}

func channelAcknowledged(reply string, channel int) bool {
	if reply == "" || strings.Contains(reply, "ERROR") {
		return false
	}
	return strings.Contains(reply, "OK") ||
		strings.Contains(reply, "CHANNEL="+strconv.Itoa(channel))
}

// Reset power-cycles the module to recover a desynchronised link, then
// clears stale input and announces again. Without a power pin it waits for
// the busy pin to report ready instead.
func (m *Module) Reset(ctx context.Context) error {
	if !m.pins.CanReset() {
		m.updateStats(func(s *Statistics) { s.ResetFailures++ })
		err := fmt.Errorf("%w: reset requires a power or busy pin", ErrConfiguration)
		m.log.Error().Err(err).Msg("cannot reset radio module")
		return err
	}

	m.setState(StateFault)
	m.updateStats(func(s *Statistics) { s.Resets++ })

	if m.pins.Power != nil {
		m.log.Warn().Dur("hold", m.cfg.ResetHold).Msg("power cycling radio module")
		if err := m.pins.Power.Out(gpio.Low); err != nil {
			return fmt.Errorf("failed to drive power pin: %w", err)
		}
		if err := sleep(ctx, m.cfg.ResetHold); err != nil {
			return err
		}
		if err := m.pins.Power.Out(gpio.High); err != nil {
			return fmt.Errorf("failed to drive power pin: %w", err)
		}
	} else {
		m.log.Warn().Msg("waiting for radio module to recover")
		release, err := m.gate.Acquire(ctx)
		if err != nil {
			m.updateStats(func(s *Statistics) { s.ResetFailures++ })
			return fmt.Errorf("module did not recover: %w", err)
		}
		release()
	}
	m.setState(StatePoweredOn)

	m.clearInput()
	m.setState(StateReady)
	m.announce(ctx)
	return nil
}

// recoverLink resets after a link fault; failures are logged, not returned
func (m *Module) recoverLink(ctx context.Context) {
	if err := m.Reset(ctx); err != nil {
		m.log.Error().Err(err).Msg("link recovery failed")
	}
}

func (m *Module) configureBusy() error {
	busy := m.pins.Busy
	if err := busy.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		// Not every GPIO driver supports edge detection; fall back to polling
		m.log.Debug().Err(err).Str("pin", busy.Name()).Msg("edge detection unavailable")
		if err := busy.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
			return fmt.Errorf("failed to configure busy pin: %w", err)
		}
	}
	return nil
}

func (m *Module) setMode(l gpio.Level) error {
	if err := m.pins.Mode0.Out(l); err != nil {
		return fmt.Errorf("failed to drive m0 pin: %w", err)
	}
	if err := m.pins.Mode1.Out(l); err != nil {
		return fmt.Errorf("failed to drive m1 pin: %w", err)
	}
	return nil
}

func (m *Module) clearInput() {
	if err := m.t.ResetInputBuffer(); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear input buffer")
	}
}

func (m *Module) announce(ctx context.Context) {
	if !m.cfg.Announce {
		return
	}
	host, err := m.hostname()
	if err != nil {
		m.log.Error().Err(err).Msg("failed to look up hostname")
		return
	}
	hello := protocol.Hello{Hostname: host}
	m.log.Info().Str("hostname", host).Msg("announcing")
	if err := m.Send(ctx, hello.String()); err != nil {
		m.log.Error().Err(err).Msg("failed to send announcement")
	}
}
