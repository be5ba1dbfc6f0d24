// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package pins abstracts the GPIO lines wired to the radio module.
//
// A Pin is the subset of periph's gpio.PinIO the link engine needs, so any
// periph pin satisfies it directly and tests can substitute FakePin or
// ScriptedPin.
package pins

import (
	"context"
	"errors"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// ErrWaitTimeout is returned when a pin does not reach the requested level in time
var ErrWaitTimeout = errors.New("timed out waiting for pin level")

// Pin is a single digital line
type Pin interface {
	Name() string
	Read() gpio.Level
	Out(l gpio.Level) error
	In(pull gpio.Pull, edge gpio.Edge) error
	WaitForEdge(timeout time.Duration) bool
}

var (
	hostOnce sync.Once
	hostErr  error
)

// Open resolves a pin by name, GPIO number or alias (e.g. "GPIO17", "17")
// through the periph registry, initialising the host drivers on first use.
func Open(name string) (Pin, error) {
	hostOnce.Do(func() {
		_, hostErr = host.Init()
	})
	if hostErr != nil {
		return nil, hostErr
	}

	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.New("unknown GPIO pin: " + name)
	}
	return p, nil
}

// WaitForLevel blocks until p reads level, the timeout elapses or ctx is done.
// The pin is sampled at least every poll interval; edge notifications, where
// the pin supports them, wake the wait early.
func WaitForLevel(ctx context.Context, p Pin, level gpio.Level, timeout, poll time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if p.Read() == level {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrWaitTimeout
		}

		wait := min(poll, remaining)
		start := time.Now()
		if !p.WaitForEdge(wait) {
			// Pins without edge detection return immediately
			if elapsed := time.Since(start); elapsed < wait {
				if err := sleep(ctx, wait-elapsed); err != nil {
					return err
				}
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
