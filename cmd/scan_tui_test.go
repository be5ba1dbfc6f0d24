// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/loranger/pkg/radio"
	tea "github.com/charmbracelet/bubbletea"
)

func updateScan(t *testing.T, m scanModel, msg tea.Msg) scanModel {
	t.Helper()
	next, _ := m.Update(msg)
	sm, ok := next.(scanModel)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return sm
}

func TestScanModel_RecordsHellos(t *testing.T) {
	m := initialScanModel("Serial: /dev/null @ 9600 baud", nil, nil)
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	m = updateScan(t, m, helloMsg{hostname: "node-a", at: at})
	m = updateScan(t, m, helloMsg{hostname: "node-b", at: at})
	m = updateScan(t, m, helloMsg{hostname: "node-a", at: at.Add(time.Minute)})

	if len(m.nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(m.nodes))
	}
	a := m.nodes[0]
	if a.hostname != "node-a" || a.announcements != 2 {
		t.Errorf("node-a = %+v, want 2 announcements", *a)
	}
	if !a.firstSeen.Equal(at) || !a.lastSeen.Equal(at.Add(time.Minute)) {
		t.Errorf("node-a seen %v..%v", a.firstSeen, a.lastSeen)
	}
	if got := len(m.nodeList.Items()); got != 2 {
		t.Errorf("list has %d items, want 2", got)
	}
	if len(m.eventLog) != 3 {
		t.Errorf("event log has %d entries, want 3", len(m.eventLog))
	}
	if m.eventLog[0].message != "New node: node-a" || m.eventLog[2].message != "Hello from node-a" {
		t.Errorf("unexpected event log: %+v", m.eventLog)
	}

	view := m.View()
	for _, want := range []string{"NODE SCANNER", "node-a", "node-b"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestScanModel_EventLogBounded(t *testing.T) {
	m := initialScanModel("test", nil, nil)
	m.maxLogEntries = 3
	for range 5 {
		m = updateScan(t, m, helloMsg{hostname: "node", at: time.Now()})
	}
	if len(m.eventLog) != 3 {
		t.Errorf("event log has %d entries, want 3", len(m.eventLog))
	}
	if m.nodes[0].announcements != 5 {
		t.Errorf("announcements = %d, want 5", m.nodes[0].announcements)
	}
}

func TestScanModel_StatsRefreshOnTick(t *testing.T) {
	var frames uint64
	stats := func() radio.Statistics {
		s := radio.NewStatistics()
		s.FramesReceived = frames
		return *s
	}

	m := initialScanModel("test", stats, nil)
	frames = 42
	m = updateScan(t, m, scanTickMsg(time.Now()))
	if m.stats.FramesReceived != 42 {
		t.Errorf("frames = %d, want 42", m.stats.FramesReceived)
	}
}

func TestScanModel_ResetStatsKey(t *testing.T) {
	var frames uint64 = 7
	resets := 0
	stats := func() radio.Statistics {
		s := radio.NewStatistics()
		s.FramesReceived = frames
		return *s
	}
	reset := func() {
		resets++
		frames = 0
	}

	m := initialScanModel("test", stats, reset)
	if m.stats.FramesReceived != 7 {
		t.Fatalf("frames = %d, want 7", m.stats.FramesReceived)
	}

	m = updateScan(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if resets != 1 {
		t.Errorf("reset called %d times, want 1", resets)
	}
	if m.stats.FramesReceived != 0 {
		t.Errorf("frames = %d after reset, want 0", m.stats.FramesReceived)
	}
	if len(m.eventLog) != 1 || m.eventLog[0].message != "Statistics reset" {
		t.Errorf("unexpected event log: %+v", m.eventLog)
	}
}

func TestScanModel_ScanDone(t *testing.T) {
	m := initialScanModel("test", nil, nil)
	m = updateScan(t, m, scanDoneMsg{err: radio.ErrTransportClosed})
	if !m.stopped || !errors.Is(m.scanErr, radio.ErrTransportClosed) {
		t.Errorf("stopped=%v err=%v", m.stopped, m.scanErr)
	}
	if len(m.eventLog) != 1 || !m.eventLog[0].isError {
		t.Errorf("expected one error entry, got %+v", m.eventLog)
	}
}

func TestScanModel_Quit(t *testing.T) {
	m := initialScanModel("test", nil, nil)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if !next.(scanModel).quitting {
		t.Error("model should be quitting")
	}
}
