// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package loranger

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Thermoquad/loranger/pkg/dispatch"
	"github.com/Thermoquad/loranger/pkg/pins"
	"github.com/Thermoquad/loranger/pkg/protocol"
	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/Thermoquad/loranger/pkg/radio/radiotest"
	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio"
)

// ============================================================
// Test Helpers
// ============================================================

type stubExecutor struct{}

func (stubExecutor) Run(context.Context, []string, time.Duration) (dispatch.ExecResult, error) {
	return dispatch.ExecResult{}, nil
}

func newTestModule(t *testing.T, tr *radiotest.Transport, announce bool) *radio.Module {
	t.Helper()
	cfg := radio.DefaultConfig()
	cfg.ReadTimeout = 50 * time.Millisecond
	cfg.Announce = announce
	m, err := radio.NewModule(tr, cfg, radio.Pins{}, radio.WithHostname(func() (string, error) {
		return "testhost", nil
	}))
	if err != nil {
		t.Fatalf("NewModule failed: %v", err)
	}
	return m
}

func newTestDispatcher(t *testing.T) *dispatch.Dispatcher {
	t.Helper()
	queries := dispatch.NewQueries()
	_ = queries.Register("uptime", func(context.Context) (dispatch.Response, error) {
		return dispatch.Text("1234.56"), nil
	})
	actions := dispatch.NewActions()
	_ = actions.Register("get_queries", func(context.Context, []string) (dispatch.Response, error) {
		return dispatch.List(queries.Names()), nil
	})
	_ = actions.Register("noop", func(context.Context, []string) (dispatch.Response, error) {
		return dispatch.Response{}, nil
	})
	return dispatch.New(queries, actions, dispatch.WithExecutor(stubExecutor{}))
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// ============================================================
// Server Tests
// ============================================================

func TestServer_NotFoundThenValid(t *testing.T) {
	tr := radiotest.New()
	tr.OnWrite = func(p []byte) {
		if string(p) == "h:testhost\n" {
			tr.Feed([]byte("q:bogus\n"), []byte("q:uptime\n"))
		}
	}
	m := newTestModule(t, tr, true)
	s := NewServer(m, newTestDispatcher(t), zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	ok := waitFor(t, 2*time.Second, func() bool {
		return strings.Contains(string(tr.Written()), "1234.56\n")
	})
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run returned %v after cancel", err)
	}
	if !ok {
		t.Fatalf("no answer to the valid query, wrote %q", tr.Written())
	}

	expected := "h:testhost\nQuery not found: bogus\n1234.56\n"
	if got := string(tr.Written()); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}

func TestServer_StartupConfigurationError(t *testing.T) {
	cfg := radio.DefaultConfig()
	cfg.ReadTimeout = 20 * time.Millisecond
	ch := 3
	cfg.Channel = &ch

	tr := radiotest.New()
	tr.OnWrite = func(p []byte) {
		if strings.HasPrefix(string(p), "AT+CHANNEL") {
			tr.FeedString("ERROR\r\n")
		}
	}
	m, err := radio.NewModule(tr, cfg, radio.Pins{
		Mode0: pins.NewFakePin("m0", gpio.Low),
		Mode1: pins.NewFakePin("m1", gpio.Low),
	})
	if err != nil {
		t.Fatalf("NewModule failed: %v", err)
	}

	err = NewServer(m, newTestDispatcher(t), zerolog.Nop()).Run(context.Background())
	if !errors.Is(err, radio.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestServer_TransportClosed(t *testing.T) {
	tr := radiotest.New()
	tr.ReadErr = radio.ErrTransportClosed
	m := newTestModule(t, tr, false)

	err := NewServer(m, newTestDispatcher(t), zerolog.Nop()).Run(context.Background())
	if !errors.Is(err, radio.ErrTransportClosed) {
		t.Errorf("expected ErrTransportClosed, got %v", err)
	}
}

func TestServer_Handle(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  string
	}{
		{"query", "q:uptime", "1234.56\n"},
		{"list reply", "a:get_queries:", "uptime\n"},
		{"unknown action", "a:reboot:now", "Action not found: reboot\n"},
		{"empty reply", "a:noop:", ""},
		{"hello is never answered", "h:node-2", ""},
		{"unknown tag", "x:whatever", ""},
		{"empty query", "q:", "Query not found: \n"},
		{"malformed", "q", ""},
		{"command", "c:true", "\x00\x00\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := radiotest.New()
			s := NewServer(newTestModule(t, tr, false), newTestDispatcher(t), zerolog.Nop())

			if err := s.Handle(context.Background(), tt.frame); err != nil {
				t.Fatalf("Handle failed: %v", err)
			}
			if got := string(tr.Written()); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

// ============================================================
// Client Tests
// ============================================================

// peer answers requests written by the client
func peer(tr *radiotest.Transport, replies map[string][]string) {
	tr.OnWrite = func(p []byte) {
		if chunks, ok := replies[string(p)]; ok {
			for _, c := range chunks {
				tr.FeedString(c)
			}
		}
	}
}

func TestClient_Query(t *testing.T) {
	tr := radiotest.New()
	peer(tr, map[string][]string{"q:uptime\n": {"1234.56\n"}})
	c := NewClient(newTestModule(t, tr, false), zerolog.Nop())

	got, err := c.Query(context.Background(), "uptime")
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if got != "1234.56" {
		t.Errorf("expected %q, got %q", "1234.56", got)
	}
}

func TestClient_Action(t *testing.T) {
	tr := radiotest.New()
	peer(tr, map[string][]string{
		"a:add_address:eth0,10.0.0.9/24\n": {"[eth0] Added address: 10.0.0.9/24\n"},
		"a:get_actions:\n":                 {"get_actions,get_queries\n"},
	})
	c := NewClient(newTestModule(t, tr, false), zerolog.Nop())

	got, err := c.Action(context.Background(), "add_address", []string{"eth0", "10.0.0.9/24"})
	if err != nil || got != "[eth0] Added address: 10.0.0.9/24" {
		t.Errorf("unexpected reply %q (err %v)", got, err)
	}
	got, err = c.Action(context.Background(), "get_actions", nil)
	if err != nil || got != "get_actions,get_queries" {
		t.Errorf("unexpected reply %q (err %v)", got, err)
	}
}

func TestClient_CommandStripsSentinel(t *testing.T) {
	tr := radiotest.New()
	peer(tr, map[string][]string{
		"c:uname -n\n": {"node-1\n", "\x00\x00\n"},
		"c:true\n":     {"\x00\x00\n"},
	})
	c := NewClient(newTestModule(t, tr, false), zerolog.Nop())
	c.CommandWindow = 200 * time.Millisecond

	got, err := c.Command(context.Background(), "uname -n")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if got != "node-1\n" {
		t.Errorf("expected %q, got %q", "node-1\n", got)
	}

	got, err = c.Command(context.Background(), "true")
	if err != nil {
		t.Fatalf("Command failed: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty output, got %q", got)
	}
}

func TestClient_NoReply(t *testing.T) {
	c := NewClient(newTestModule(t, radiotest.New(), false), zerolog.Nop())
	if _, err := c.Query(context.Background(), "uptime"); !errors.Is(err, ErrNoReply) {
		t.Errorf("expected ErrNoReply, got %v", err)
	}
}

// ============================================================
// Scanner Tests
// ============================================================

func TestScanner_ReportsHellos(t *testing.T) {
	tr := radiotest.New()
	tr.Feed(
		[]byte("h:node-a\n"),
		[]byte("q:uptime\n"),
		[]byte("h:node-b\nh:node-c\n"),
	)
	s := NewScanner(newTestModule(t, tr, false), zerolog.Nop())
	s.Window = 50 * time.Millisecond

	var mu sync.Mutex
	var seen []string
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Scan(ctx, func(h protocol.Hello) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, h.Hostname)
		})
	}()

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) >= 3
	})
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Scan returned %v after cancel", err)
	}

	mu.Lock()
	defer mu.Unlock()
	expected := []string{"node-a", "node-b", "node-c"}
	if !slices.Equal(seen, expected) {
		t.Errorf("expected %v, got %v", expected, seen)
	}
}
