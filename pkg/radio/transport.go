// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import "io"

// Transport is the byte stream to the radio module.
//
// Read must not block for longer than a poll interval: it returns 0, nil
// when nothing is pending. ResetInputBuffer discards pending input.
type Transport interface {
	io.Reader
	io.Writer
	ResetInputBuffer() error
}
