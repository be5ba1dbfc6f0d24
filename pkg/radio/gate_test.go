// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/loranger/pkg/pins"
	"periph.io/x/conn/v3/gpio"
)

func TestGate_NoBusyPinIsOpen(t *testing.T) {
	g := NewGate(nil, 10*time.Millisecond, time.Second, time.Millisecond)
	if g.FlowControlled() {
		t.Error("gate without busy pin is not flow controlled")
	}

	start := time.Now()
	release, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	release()
	if time.Since(start) > 5*time.Millisecond {
		t.Error("open gate should not wait")
	}
}

func TestGate_WaitsForSettledReady(t *testing.T) {
	busy := &pins.ScriptedPin{
		PinName: "busy",
		Levels:  []gpio.Level{gpio.High, gpio.High, gpio.Low, gpio.Low, gpio.Low},
		Step:    5 * time.Millisecond,
	}
	g := NewGate(busy, 10*time.Millisecond, time.Second, time.Millisecond)

	release, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	lowSince := busy.Start().Add(2 * busy.Step)
	if held := time.Since(lowSince); held < 10*time.Millisecond {
		t.Errorf("gate released after ready held for only %v", held)
	}
}

func TestGate_GlitchRestartsSettle(t *testing.T) {
	busy := &pins.ScriptedPin{
		PinName: "busy",
		Levels:  []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low, gpio.Low, gpio.Low},
		Step:    5 * time.Millisecond,
	}
	g := NewGate(busy, 10*time.Millisecond, time.Second, time.Millisecond)

	release, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	defer release()

	// Ready only holds continuously from the fourth step
	lowSince := busy.Start().Add(3 * busy.Step)
	if held := time.Since(lowSince); held < 10*time.Millisecond {
		t.Errorf("gate released after ready held for only %v", held)
	}
}

func TestGate_Timeout(t *testing.T) {
	busy := pins.NewFakePin("busy", gpio.High)
	g := NewGate(busy, 10*time.Millisecond, 40*time.Millisecond, time.Millisecond)

	start := time.Now()
	_, err := g.Acquire(context.Background())
	if !errors.Is(err, ErrGateTimeout) {
		t.Fatalf("expected ErrGateTimeout, got %v", err)
	}
	if time.Since(start) < 40*time.Millisecond {
		t.Error("gate gave up before its timeout")
	}

	// A failed acquisition leaves the gate free
	busy.Set(gpio.Low)
	release, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after timeout failed: %v", err)
	}
	release()
}

func TestGate_SingleHolder(t *testing.T) {
	g := NewGate(nil, 0, time.Second, time.Millisecond)
	release, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire failed: %v", err)
	}
	if _, err := g.Acquire(context.Background()); err == nil {
		t.Error("second acquisition without release should fail")
	}

	release()
	release()
	release2, err := g.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire after release failed: %v", err)
	}
	release2()
}

func TestGate_ContextCancelled(t *testing.T) {
	busy := pins.NewFakePin("busy", gpio.High)
	g := NewGate(busy, 10*time.Millisecond, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := g.Acquire(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}
