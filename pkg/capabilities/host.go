// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capabilities

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/Thermoquad/loranger/pkg/dispatch"
)

func (c *Catalog) queryHostname(context.Context) (dispatch.Response, error) {
	name, err := c.hostname()
	if err != nil {
		return dispatch.Response{}, fmt.Errorf("failed to get hostname: %w", err)
	}
	return dispatch.Text(name), nil
}

// queryUptime returns the seconds since boot as the kernel reports them
func (c *Catalog) queryUptime(context.Context) (dispatch.Response, error) {
	data, err := os.ReadFile(c.uptimePath)
	if err != nil {
		return dispatch.Response{}, fmt.Errorf("failed to read uptime: %w", err)
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return dispatch.Response{}, fmt.Errorf("failed to read uptime: %s is empty", c.uptimePath)
	}
	return dispatch.Text(fields[0]), nil
}
