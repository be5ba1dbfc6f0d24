// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import "github.com/Thermoquad/loranger/pkg/protocol"

// Response is the reply to a dispatched message. The zero value means no
// reply is sent.
type Response struct {
	// Text is a single text reply
	Text string

	// Items is a list reply, sent joined with commas
	Items []string

	list bool
}

// Text creates a text response
func Text(s string) Response {
	return Response{Text: s}
}

// List creates a list response
func List(items []string) Response {
	return Response{Items: items, list: true}
}

// IsList reports whether the response carries a list
func (r Response) IsList() bool {
	return r.list
}

// Empty reports whether there is nothing to send
func (r Response) Empty() bool {
	return r.String() == ""
}

// String returns the payload as sent on the wire, without terminator
func (r Response) String() string {
	if r.list {
		return protocol.JoinPayload(r.Items)
	}
	return r.Text
}
