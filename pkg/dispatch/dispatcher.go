// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package dispatch routes parsed protocol messages to registered query and
// action handlers, or to command execution.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/loranger/pkg/protocol"
	"github.com/rs/zerolog"
)

// DefaultCommandTimeout caps c:<command> execution
const DefaultCommandTimeout = 30 * time.Second

// Dispatcher answers inbound messages. Queries and actions are resolved by
// name against the registries supplied at construction.
type Dispatcher struct {
	queries *Registry[QueryFunc]
	actions *Registry[ActionFunc]

	exec           Executor
	commandTimeout time.Duration
	log            zerolog.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithExecutor replaces the process executor
func WithExecutor(e Executor) Option {
	return func(d *Dispatcher) { d.exec = e }
}

// WithCommandTimeout overrides the command wall-clock cap
func WithCommandTimeout(t time.Duration) Option {
	return func(d *Dispatcher) { d.commandTimeout = t }
}

// New creates a dispatcher. Nil registries are replaced with empty ones.
func New(queries *Registry[QueryFunc], actions *Registry[ActionFunc], opts ...Option) *Dispatcher {
	if queries == nil {
		queries = NewQueries()
	}
	if actions == nil {
		actions = NewActions()
	}
	d := &Dispatcher{
		queries:        queries,
		actions:        actions,
		exec:           OSExecutor{},
		commandTimeout: DefaultCommandTimeout,
		log:            zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Queries returns the query registry
func (d *Dispatcher) Queries() *Registry[QueryFunc] { return d.queries }

// Actions returns the action registry
func (d *Dispatcher) Actions() *Registry[ActionFunc] { return d.actions }

// Executor returns the process executor
func (d *Dispatcher) Executor() Executor { return d.exec }

// Dispatch answers msg. An unknown query or action name returns a
// *NotFoundError; handler failures become the reply text. Hello frames
// never produce a reply.
func (d *Dispatcher) Dispatch(ctx context.Context, msg protocol.Message) (Response, error) {
	switch m := msg.(type) {
	case protocol.Hello:
		d.log.Info().Str("hostname", m.Hostname).Msg("received hello")
		return Response{}, nil

	case protocol.Query:
		f, ok := d.queries.Lookup(m.Parameter)
		if !ok {
			return Response{}, &NotFoundError{Kind: d.queries.Kind(), Name: m.Parameter}
		}
		d.log.Info().Str("query", m.Parameter).Msg("running query")
		return d.reply(f(ctx))

	case protocol.Action:
		f, ok := d.actions.Lookup(m.Name)
		if !ok {
			return Response{}, &NotFoundError{Kind: d.actions.Kind(), Name: m.Name}
		}
		d.log.Info().Str("action", m.Name).Strs("args", m.Args).Msg("running action")
		return d.reply(f(ctx, m.Args))

	case protocol.Command:
		return d.runCommand(ctx, m.Text), nil

	default:
		return Response{}, fmt.Errorf("%w: %T", protocol.ErrUnknownTag, msg)
	}
}

func (d *Dispatcher) reply(r Response, err error) (Response, error) {
	if err != nil {
		d.log.Error().Err(err).Msg("capability failed")
		return Text(err.Error()), nil
	}
	return r, nil
}

// runCommand splits text on whitespace and runs it. The reply always ends
// with the command sentinel, whatever the outcome.
func (d *Dispatcher) runCommand(ctx context.Context, text string) Response {
	d.log.Info().Str("command", text).Msg("running command")

	var output string
	argv := strings.Fields(text)
	res, err := d.exec.Run(ctx, argv, d.commandTimeout)
	switch {
	case errors.Is(err, ErrExecutableNotFound):
		d.log.Warn().Str("command", text).Msg("command not found")
		output = "Command not found: " + text
	case err != nil:
		d.log.Error().Err(err).Str("command", text).Msg("command failed")
		output = err.Error()
	default:
		if res.TimedOut {
			d.log.Warn().
				Dur("timeout", d.commandTimeout).
				Int("captured", len(res.Stdout)).
				Msg("command timed out")
		}
		output = string(res.Stdout)
	}

	return Text(output + protocol.CommandSentinel)
}
