// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package protocol

import (
	"iter"
	"slices"
	"strings"
)

// Chunk splits data into consecutive pieces of size bytes; only the last
// piece may be shorter. Chunk panics if size is less than 1.
func Chunk(data []byte, size int) iter.Seq[[]byte] {
	if size < 1 {
		panic("protocol: chunk size must be positive")
	}
	return slices.Chunk(data, size)
}

// EncodeLine returns the wire bytes for payload, guaranteeing exactly one
// trailing newline is present when payload does not already end with one.
func EncodeLine(payload string) []byte {
	if !strings.HasSuffix(payload, "\n") {
		payload += "\n"
	}
	return []byte(payload)
}
