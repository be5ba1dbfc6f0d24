// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTag is returned by Parse for frames with an unrecognised tag
	ErrUnknownTag = errors.New("unknown message tag")

	// ErrMalformed is returned by Parse for frames missing required fields
	ErrMalformed = errors.New("malformed message")
)

// Message is one of Hello, Query, Action or Command
type Message interface {
	// Tag returns the wire tag byte
	Tag() byte
	// String returns the wire form without terminator
	String() string
}

// Hello announces a host on the link. It is informational and never answered.
type Hello struct {
	Hostname string
}

// Query asks the peer for a named parameter
type Query struct {
	Parameter string
}

// Action asks the peer to run a named action with arguments
type Action struct {
	Name string
	Args []string
}

// Command asks the peer to execute a command line
type Command struct {
	Text string
}

func (Hello) Tag() byte   { return TagHello }
func (Query) Tag() byte   { return TagQuery }
func (Action) Tag() byte  { return TagAction }
func (Command) Tag() byte { return TagCommand }

func (m Hello) String() string   { return "h:" + m.Hostname }
func (m Query) String() string   { return "q:" + m.Parameter }
func (m Command) String() string { return "c:" + m.Text }

func (m Action) String() string {
	return "a:" + m.Name + FieldSeparator + strings.Join(m.Args, ArgSeparator)
}

// Parse decodes a deframed, trimmed line into a Message.
//
// Grammar:
//
//	h:<hostname>
//	q:<parameter>
//	a:<name>:<arg1>,<arg2>,...
//	c:<command line>
//
// Everything after the first separator belongs to the payload, so commands
// and query parameters may contain colons.
func Parse(line string) (Message, error) {
	tag, rest, found := strings.Cut(line, FieldSeparator)
	if len(tag) != 1 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}

	switch tag[0] {
	case TagHello:
		if !found {
			return nil, fmt.Errorf("%w: hello without hostname", ErrMalformed)
		}
		return Hello{Hostname: rest}, nil

	case TagQuery:
		if !found {
			return nil, fmt.Errorf("%w: query without parameter", ErrMalformed)
		}
		return Query{Parameter: rest}, nil

	case TagAction:
		if !found || rest == "" {
			return nil, fmt.Errorf("%w: action without name", ErrMalformed)
		}
		name, args, _ := strings.Cut(rest, FieldSeparator)
		return Action{Name: name, Args: SplitArgs(args)}, nil

	case TagCommand:
		if !found {
			return nil, fmt.Errorf("%w: command without text", ErrMalformed)
		}
		return Command{Text: rest}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
}

// SplitArgs splits a comma separated argument field.
// An empty field yields an empty, non-nil list.
func SplitArgs(field string) []string {
	if field == "" {
		return []string{}
	}
	return strings.Split(field, ArgSeparator)
}

// JoinPayload joins a list payload into its wire text
func JoinPayload(items []string) string {
	return strings.Join(items, ArgSeparator)
}
