// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package radio

import "errors"

var (
	// ErrConfiguration marks invalid pin/channel setups. It is fatal.
	ErrConfiguration = errors.New("configuration error")

	// ErrDecode marks a frame that is not valid UTF-8 text
	ErrDecode = errors.New("frame decode failed")

	// ErrTransportFault marks a junk marker seen on the link
	ErrTransportFault = errors.New("link desynchronized")

	// ErrGateTimeout is returned when the busy pin never reports ready
	ErrGateTimeout = errors.New("timed out waiting for module ready")

	// ErrTransportClosed is returned by transports that can no longer be used
	ErrTransportClosed = errors.New("transport closed")
)
