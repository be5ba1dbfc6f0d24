// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

// Message tags (first colon-separated field)
const (
	TagHello   byte = 'h'
	TagQuery   byte = 'q'
	TagAction  byte = 'a'
	TagCommand byte = 'c'
)

// Field separators
const (
	FieldSeparator = ":"
	ArgSeparator   = ","
)

// CommandSentinel is appended to every command output before the newline
const CommandSentinel = "\x00\x00"

// Frame terminators
var (
	// LineTerminator ends hello, query and action frames
	LineTerminator = []byte("\n")

	// CommandTerminator ends command responses
	CommandTerminator = []byte(CommandSentinel + "\n")
)

// Junk markers. A received chunk starting with one of these bytes means the
// link has desynchronised; neither byte can start valid UTF-8 text.
const (
	JunkMarkerFF byte = 0xFF
	JunkMarkerBF byte = 0xBF
)

// IsJunk reports whether a received chunk is a link fault marker
func IsJunk(chunk []byte) bool {
	if len(chunk) == 0 {
		return false
	}
	return chunk[0] == JunkMarkerFF || chunk[0] == JunkMarkerBF
}
