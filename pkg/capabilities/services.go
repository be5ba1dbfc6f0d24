// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package capabilities

import (
	"context"

	"github.com/Thermoquad/loranger/pkg/dispatch"
)

func (c *Catalog) startService(ctx context.Context, args []string) (dispatch.Response, error) {
	return c.service(ctx, args, "start", "Started service: ")
}

func (c *Catalog) stopService(ctx context.Context, args []string) (dispatch.Response, error) {
	return c.service(ctx, args, "stop", "Stopped service: ")
}

// service runs rc-service; on failure the reply is its stderr
func (c *Catalog) service(ctx context.Context, args []string, verb, done string) (dispatch.Response, error) {
	name, err := argument(args, 0, "service")
	if err != nil {
		return dispatch.Response{}, err
	}

	c.log.Info().Str("service", name).Str("verb", verb).Msg("running rc-service")
	res, err := c.exec.Run(ctx, []string{"rc-service", name, verb}, c.serviceTimeout)
	if err != nil {
		return dispatch.Response{}, err
	}
	if res.ExitCode == 0 && !res.TimedOut {
		return dispatch.Text(done + name), nil
	}

	c.log.Warn().
		Str("service", name).
		Int("exit_code", res.ExitCode).
		Bool("timed_out", res.TimedOut).
		Msg("rc-service failed")
	return dispatch.Text(string(res.Stderr)), nil
}
