// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package capabilities provides the host queries and actions a node answers
// over the radio link: network interfaces, addresses and routes through
// netlink, host information, and OpenRC services.
package capabilities

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/Thermoquad/loranger/pkg/dispatch"
	"github.com/rs/zerolog"
)

// Defaults
const (
	DefaultUptimePath     = "/proc/uptime"
	DefaultServiceTimeout = 30 * time.Second
)

var errNoNetlink = errors.New("network management unavailable")

// Catalog holds the collaborators behind the host capabilities
type Catalog struct {
	nl       Netlink
	exec     dispatch.Executor
	hostname func() (string, error)

	uptimePath     string
	serviceTimeout time.Duration
	log            zerolog.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// WithLogger sets the catalog logger
func WithLogger(l zerolog.Logger) Option {
	return func(c *Catalog) { c.log = l }
}

// WithHostname overrides the hostname source
func WithHostname(f func() (string, error)) Option {
	return func(c *Catalog) { c.hostname = f }
}

// WithUptimePath overrides the uptime file location
func WithUptimePath(path string) Option {
	return func(c *Catalog) { c.uptimePath = path }
}

// WithServiceTimeout overrides the rc-service wall-clock cap
func WithServiceTimeout(t time.Duration) Option {
	return func(c *Catalog) { c.serviceTimeout = t }
}

// New creates a catalog. nl may be nil, in which case network capabilities
// reply with an error.
func New(nl Netlink, exec dispatch.Executor, opts ...Option) *Catalog {
	c := &Catalog{
		nl:             nl,
		exec:           exec,
		hostname:       os.Hostname,
		uptimePath:     DefaultUptimePath,
		serviceTimeout: DefaultServiceTimeout,
		log:            zerolog.Nop(),
	}
	if c.exec == nil {
		c.exec = dispatch.OSExecutor{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds every capability to the given registries
func (c *Catalog) Register(queries *dispatch.Registry[dispatch.QueryFunc], actions *dispatch.Registry[dispatch.ActionFunc]) error {
	qs := map[string]dispatch.QueryFunc{
		"interfaces": c.queryInterfaces,
		"hostname":   c.queryHostname,
		"ip4":        c.queryIP4,
		"ip6":        c.queryIP6,
		"routes":     c.queryRoutes,
		"macs":       c.queryMACs,
		"uptime":     c.queryUptime,
	}
	as := map[string]dispatch.ActionFunc{
		"get_queries": func(context.Context, []string) (dispatch.Response, error) {
			return dispatch.List(queries.Names()), nil
		},
		"get_actions": func(context.Context, []string) (dispatch.Response, error) {
			return dispatch.List(actions.Names()), nil
		},
		"disable_interface": c.disableInterface,
		"enable_interface":  c.enableInterface,
		"add_address":       c.addAddress,
		"del_address":       c.delAddress,
		"start_service":     c.startService,
		"stop_service":      c.stopService,
	}

	for name, f := range qs {
		if err := queries.Register(name, f); err != nil {
			return err
		}
	}
	for name, f := range as {
		if err := actions.Register(name, f); err != nil {
			return err
		}
	}
	return nil
}

// argument returns args[i] or a reply-ready error naming the missing argument
func argument(args []string, i int, name string) (string, error) {
	if i >= len(args) || args[i] == "" {
		return "", errors.New("Missing argument: " + name)
	}
	return args[i], nil
}
