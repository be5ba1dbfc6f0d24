// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import "errors"

// Capability kinds
const (
	KindQuery  = "Query"
	KindAction = "Action"
)

// ErrExecutableNotFound is returned by an Executor when argv[0] cannot be found
var ErrExecutableNotFound = errors.New("executable not found")

// NotFoundError reports a query or action name with no registered handler.
// Its message is sent to the peer as the reply.
type NotFoundError struct {
	Kind string
	Name string
}

func (e *NotFoundError) Error() string {
	return e.Kind + " not found: " + e.Name
}
