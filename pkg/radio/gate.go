// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/loranger/pkg/pins"
	"periph.io/x/conn/v3/gpio"
)

// ReadyLevel is the busy pin level meaning the module accepts data.
// The busy (AUX) line is driven high while the module is busy.
const ReadyLevel = gpio.Low

// Gate permits one chunk write at a time, and only once the busy pin has
// held ReadyLevel for the settle duration. With no busy pin the gate is
// always open.
type Gate struct {
	busy    pins.Pin
	settle  time.Duration
	timeout time.Duration
	poll    time.Duration

	held atomic.Bool
}

// NewGate creates a flow control gate. busy may be nil.
func NewGate(busy pins.Pin, settle, timeout, poll time.Duration) *Gate {
	return &Gate{
		busy:    busy,
		settle:  settle,
		timeout: timeout,
		poll:    poll,
	}
}

// FlowControlled reports whether writes are gated on a busy pin
func (g *Gate) FlowControlled() bool {
	return g.busy != nil
}

// Acquire blocks until a single chunk may be written. The returned release
// func must be called once the write is done; it is safe to call twice.
func (g *Gate) Acquire(ctx context.Context) (func(), error) {
	if !g.held.CompareAndSwap(false, true) {
		return nil, errors.New("gate already held")
	}
	if err := g.wait(ctx); err != nil {
		g.held.Store(false)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { g.held.Store(false) })
	}, nil
}

func (g *Gate) wait(ctx context.Context) error {
	if g.busy == nil {
		return nil
	}

	deadline := time.Now().Add(g.timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w after %v", ErrGateTimeout, g.timeout)
		}

		err := pins.WaitForLevel(ctx, g.busy, ReadyLevel, remaining, g.poll)
		if errors.Is(err, pins.ErrWaitTimeout) {
			return fmt.Errorf("%w after %v", ErrGateTimeout, g.timeout)
		}
		if err != nil {
			return err
		}

		settled, err := g.settled(ctx)
		if err != nil {
			return err
		}
		if settled {
			return nil
		}
	}
}

// settled samples the busy pin for the settle duration and reports
// whether it stayed at ReadyLevel throughout
func (g *Gate) settled(ctx context.Context) (bool, error) {
	start := time.Now()
	for {
		if g.busy.Read() != ReadyLevel {
			return false, nil
		}
		elapsed := time.Since(start)
		if elapsed >= g.settle {
			return true, nil
		}
		if err := sleep(ctx, min(g.poll, g.settle-elapsed)); err != nil {
			return false, err
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
