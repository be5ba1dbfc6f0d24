// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"time"
)

// ExecResult is the outcome of running a process
type ExecResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int

	// TimedOut is set when the process was killed at the wall-clock cap.
	// Stdout then holds whatever was captured before the kill.
	TimedOut bool
}

// Executor runs an argument vector with a wall-clock cap. A non-zero exit
// status is not an error.
type Executor interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) (ExecResult, error)
}

// OSExecutor runs processes on the host
type OSExecutor struct {
	// WaitDelay bounds how long output is drained after the process is
	// killed, for children that keep the pipes open
	WaitDelay time.Duration
}

func (e OSExecutor) Run(ctx context.Context, argv []string, timeout time.Duration) (ExecResult, error) {
	if len(argv) == 0 {
		return ExecResult{}, fmt.Errorf("%w: empty command", ErrExecutableNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = e.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = time.Second
	}

	err := cmd.Run()
	res := ExecResult{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if err == nil {
		return res, nil
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) {
		return res, fmt.Errorf("%w: %s", ErrExecutableNotFound, argv[0])
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.TimedOut = true
		return res, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return res, nil
	}
	return res, fmt.Errorf("failed to run %s: %w", argv[0], err)
}
