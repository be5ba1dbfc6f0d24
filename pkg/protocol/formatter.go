// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"fmt"
	"strings"
)

// FormatMessageType returns a human-readable name for a message tag
func FormatMessageType(tag byte) string {
	switch tag {
	case TagHello:
		return "HELLO"
	case TagQuery:
		return "QUERY"
	case TagAction:
		return "ACTION"
	case TagCommand:
		return "COMMAND"
	default:
		return "UNKNOWN"
	}
}

// FormatMessage renders a parsed message for logs and the scanner
func FormatMessage(m Message) string {
	switch m := m.(type) {
	case Hello:
		return fmt.Sprintf("%s from %s", FormatMessageType(m.Tag()), m.Hostname)
	case Query:
		return fmt.Sprintf("%s %s", FormatMessageType(m.Tag()), m.Parameter)
	case Action:
		return fmt.Sprintf("%s %s [%s]", FormatMessageType(m.Tag()), m.Name, strings.Join(m.Args, ", "))
	case Command:
		return fmt.Sprintf("%s %q", FormatMessageType(m.Tag()), m.Text)
	default:
		return FormatMessageType(m.Tag())
	}
}

// FormatBytes renders raw frame bytes as a hex dump, 16 bytes per row
func FormatBytes(data []byte) string {
	var sb strings.Builder
	for i, b := range data {
		switch {
		case i == 0:
		case i%16 == 0:
			sb.WriteByte('\n')
		default:
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", b)
	}
	return sb.String()
}
