// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package radiotest provides an in-memory radio transport for tests.
package radiotest

import (
	"bytes"
	"sync"
)

// Transport is a scripted radio.Transport.
//
// Feed queues inbound chunks, each returned by exactly one Read. Written
// bytes are recorded. With Loopback set, every write is also queued as
// inbound data, like a peer echoing everything back.
type Transport struct {
	// Loopback echoes writes back as inbound chunks
	Loopback bool

	// OnWrite, if set, is called after every write with the written chunk
	OnWrite func(p []byte)

	// OnReset, if set, is called after the input buffer was cleared
	OnReset func()

	// ReadErr, if set, is returned by every Read
	ReadErr error

	mu      sync.Mutex
	inbound [][]byte
	writes  [][]byte
	resets  int
}

// New creates an empty transport
func New() *Transport {
	return &Transport{}
}

// Feed queues inbound chunks
func (t *Transport) Feed(chunks ...[]byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range chunks {
		t.inbound = append(t.inbound, append([]byte(nil), c...))
	}
}

// FeedString queues s as a single inbound chunk
func (t *Transport) FeedString(s string) {
	t.Feed([]byte(s))
}

func (t *Transport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.ReadErr != nil {
		return 0, t.ReadErr
	}
	if len(t.inbound) == 0 {
		return 0, nil
	}

	next := t.inbound[0]
	n := copy(p, next)
	if n < len(next) {
		t.inbound[0] = next[n:]
	} else {
		t.inbound = t.inbound[1:]
	}
	return n, nil
}

func (t *Transport) Write(p []byte) (int, error) {
	c := append([]byte(nil), p...)

	t.mu.Lock()
	t.writes = append(t.writes, c)
	if t.Loopback {
		t.inbound = append(t.inbound, append([]byte(nil), c...))
	}
	hook := t.OnWrite
	t.mu.Unlock()

	if hook != nil {
		hook(c)
	}
	return len(p), nil
}

func (t *Transport) ResetInputBuffer() error {
	t.mu.Lock()
	t.inbound = nil
	t.resets++
	hook := t.OnReset
	t.mu.Unlock()

	if hook != nil {
		hook()
	}
	return nil
}

// Writes returns every chunk written, in order
func (t *Transport) Writes() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.writes))
	copy(out, t.writes)
	return out
}

// Written returns all written bytes concatenated
func (t *Transport) Written() []byte {
	return bytes.Join(t.Writes(), nil)
}

// ClearWrites forgets recorded writes
func (t *Transport) ClearWrites() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.writes = nil
}

// Resets returns how many times the input buffer was cleared
func (t *Transport) Resets() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.resets
}

// Pending returns the number of queued inbound chunks
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inbound)
}
