// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// QueryFunc answers a q:<name> request
type QueryFunc func(ctx context.Context) (Response, error)

// ActionFunc runs an a:<name>:<args> request
type ActionFunc func(ctx context.Context, args []string) (Response, error)

// Registry maps capability names to handlers
type Registry[F any] struct {
	kind string

	mu      sync.RWMutex
	entries map[string]F
}

// NewRegistry creates an empty registry. kind names the capability type in
// not found errors ("Query", "Action").
func NewRegistry[F any](kind string) *Registry[F] {
	return &Registry[F]{
		kind:    kind,
		entries: make(map[string]F),
	}
}

// NewQueries creates an empty query registry
func NewQueries() *Registry[QueryFunc] {
	return NewRegistry[QueryFunc](KindQuery)
}

// NewActions creates an empty action registry
func NewActions() *Registry[ActionFunc] {
	return NewRegistry[ActionFunc](KindAction)
}

// Kind returns the capability type name
func (r *Registry[F]) Kind() string {
	return r.kind
}

// Register adds a handler. Names must be unique and non-empty.
func (r *Registry[F]) Register(name string, f F) error {
	if name == "" {
		return fmt.Errorf("%s name must not be empty", r.kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("%s already registered: %s", r.kind, name)
	}
	r.entries[name] = f
	return nil
}

// Lookup returns the handler registered under name
func (r *Registry[F]) Lookup(name string) (F, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.entries[name]
	return f, ok
}

// Names returns the registered names in sorted order
func (r *Registry[F]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}

// Len returns the number of registered handlers
func (r *Registry[F]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
