// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loranger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Thermoquad/loranger/pkg/protocol"
	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/rs/zerolog"
)

// DefaultCommandWindow is the inactivity window for command replies. It
// outlasts the remote 30 second execution cap.
const DefaultCommandWindow = 35 * time.Second

// ErrNoReply is returned when the peer did not answer within the read window
var ErrNoReply = errors.New("no reply")

// Client sends one request at a time and reads the reply
type Client struct {
	module *radio.Module
	log    zerolog.Logger

	// CommandWindow is the inactivity window for command replies
	CommandWindow time.Duration
}

// NewClient creates a client on a started module
func NewClient(m *radio.Module, log zerolog.Logger) *Client {
	return &Client{
		module:        m,
		log:           log,
		CommandWindow: DefaultCommandWindow,
	}
}

// Query asks the peer for a parameter
func (c *Client) Query(ctx context.Context, parameter string) (string, error) {
	return c.request(ctx, protocol.Query{Parameter: parameter})
}

// Action runs a named action on the peer
func (c *Client) Action(ctx context.Context, name string, args []string) (string, error) {
	if args == nil {
		args = []string{}
	}
	return c.request(ctx, protocol.Action{Name: name, Args: args})
}

// Command runs a command line on the peer and returns its output without
// the trailing sentinel
func (c *Client) Command(ctx context.Context, text string) (string, error) {
	msg := protocol.Command{Text: text}
	c.log.Info().Str("command", text).Msg("sending command")
	if err := c.module.Send(ctx, msg.String()); err != nil {
		return "", err
	}

	reply, err := c.module.Read(ctx, c.CommandWindow, protocol.CommandTerminator)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", ErrNoReply
	}
	return strings.TrimSuffix(reply, protocol.CommandSentinel), nil
}

func (c *Client) request(ctx context.Context, msg protocol.Message) (string, error) {
	c.log.Info().Str("request", protocol.FormatMessage(msg)).Msg("sending request")
	if err := c.module.Send(ctx, msg.String()); err != nil {
		return "", err
	}

	reply, err := c.module.Read(ctx, c.module.Config().ReadTimeout, protocol.LineTerminator)
	if err != nil {
		return "", err
	}
	if reply == "" {
		return "", ErrNoReply
	}
	c.log.Debug().Str("reply", reply).Msg("got reply")
	return reply, nil
}
