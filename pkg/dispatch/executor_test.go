// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package dispatch

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestOSExecutor_Output(t *testing.T) {
	requireShell(t)
	res, err := OSExecutor{}.Run(context.Background(), []string{"sh", "-c", "echo hello; echo oops >&2"}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if string(res.Stdout) != "hello\n" {
		t.Errorf("unexpected stdout %q", res.Stdout)
	}
	if string(res.Stderr) != "oops\n" {
		t.Errorf("unexpected stderr %q", res.Stderr)
	}
	if res.ExitCode != 0 || res.TimedOut {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestOSExecutor_ExitStatusIsNotAnError(t *testing.T) {
	requireShell(t)
	res, err := OSExecutor{}.Run(context.Background(), []string{"sh", "-c", "exit 3"}, 5*time.Second)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", res.ExitCode)
	}
}

func TestOSExecutor_NotFound(t *testing.T) {
	tests := [][]string{
		{"loranger-test-no-such-binary"},
		{"./loranger-test-no-such-binary"},
		{},
	}
	for _, argv := range tests {
		_, err := OSExecutor{}.Run(context.Background(), argv, time.Second)
		if !errors.Is(err, ErrExecutableNotFound) {
			t.Errorf("%q: expected ErrExecutableNotFound, got %v", argv, err)
		}
	}
}

func TestOSExecutor_TimeoutKeepsPartialOutput(t *testing.T) {
	requireShell(t)
	exe := OSExecutor{WaitDelay: 100 * time.Millisecond}

	start := time.Now()
	res, err := exe.Run(context.Background(), []string{"sh", "-c", "echo partial; sleep 5"}, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !res.TimedOut {
		t.Error("expected timeout")
	}
	if string(res.Stdout) != "partial\n" {
		t.Errorf("expected partial output, got %q", res.Stdout)
	}
	if time.Since(start) > 3*time.Second {
		t.Error("timeout did not stop the command")
	}
}
