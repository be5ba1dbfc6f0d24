// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package pins

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// FakePin is an in-memory Pin for host-side tests.
// Out records every level driven by the engine; Set simulates the module
// driving the line and wakes WaitForEdge.
type FakePin struct {
	name string

	mu      sync.Mutex
	level   gpio.Level
	input   bool
	edge    gpio.Edge
	history []gpio.Level
	changed chan struct{}
}

// NewFakePin creates a fake pin at the given initial level
func NewFakePin(name string, initial gpio.Level) *FakePin {
	return &FakePin{
		name:    name,
		level:   initial,
		changed: make(chan struct{}, 1),
	}
}

func (p *FakePin) Name() string { return p.name }

func (p *FakePin) Read() gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *FakePin) Out(l gpio.Level) error {
	p.mu.Lock()
	p.input = false
	p.history = append(p.history, l)
	p.mu.Unlock()
	p.Set(l)
	return nil
}

func (p *FakePin) In(_ gpio.Pull, edge gpio.Edge) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.input = true
	p.edge = edge
	return nil
}

func (p *FakePin) WaitForEdge(timeout time.Duration) bool {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-p.changed:
		return true
	case <-t.C:
		return false
	}
}

// Set changes the level as if driven externally
func (p *FakePin) Set(l gpio.Level) {
	p.mu.Lock()
	changed := p.level != l
	p.level = l
	p.mu.Unlock()

	if changed {
		select {
		case p.changed <- struct{}{}:
		default:
		}
	}
}

// History returns the levels written with Out, oldest first
func (p *FakePin) History() []gpio.Level {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]gpio.Level(nil), p.history...)
}

// IsInput reports whether the pin was last configured as an input
func (p *FakePin) IsInput() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.input
}

// ScriptedPin replays a fixed sequence of levels, each held for Step.
// The last level is held forever. The clock starts on the first Read.
type ScriptedPin struct {
	PinName string
	Levels  []gpio.Level
	Step    time.Duration

	mu    sync.Mutex
	start time.Time
}

func (p *ScriptedPin) Name() string { return p.PinName }

func (p *ScriptedPin) Read() gpio.Level {
	return p.levelAt(time.Now())
}

func (p *ScriptedPin) Out(gpio.Level) error { return nil }

func (p *ScriptedPin) In(gpio.Pull, gpio.Edge) error { return nil }

// WaitForEdge sleeps until the next scripted transition or the timeout
func (p *ScriptedPin) WaitForEdge(timeout time.Duration) bool {
	now := time.Now()
	cur := p.levelAt(now)
	deadline := now.Add(timeout)
	for t := p.origin().Add(p.Step); !t.After(deadline); t = t.Add(p.Step) {
		if !t.After(now) {
			continue
		}
		if p.levelAt(t) != cur {
			time.Sleep(time.Until(t))
			return true
		}
		if p.index(t) >= len(p.Levels)-1 {
			break
		}
	}
	time.Sleep(time.Until(deadline))
	return false
}

// Start returns the instant the script started playing
func (p *ScriptedPin) Start() time.Time {
	return p.origin()
}

func (p *ScriptedPin) origin() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.start.IsZero() {
		p.start = time.Now()
	}
	return p.start
}

func (p *ScriptedPin) index(t time.Time) int {
	i := int(t.Sub(p.origin()) / p.Step)
	if i >= len(p.Levels) {
		i = len(p.Levels) - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (p *ScriptedPin) levelAt(t time.Time) gpio.Level {
	if len(p.Levels) == 0 {
		return gpio.Low
	}
	return p.Levels[p.index(t)]
}
