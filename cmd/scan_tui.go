// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// logEntry is one line of the event log
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// node is a host that announced itself
type node struct {
	hostname      string
	firstSeen     time.Time
	lastSeen      time.Time
	announcements int
}

// Implement list.Item interface
func (n node) Title() string { return n.hostname }
func (n node) Description() string {
	return fmt.Sprintf("%d hello, last %s", n.announcements, n.lastSeen.Format("15:04:05"))
}
func (n node) FilterValue() string { return n.hostname }

// scanModel is the Bubble Tea model for the scanner TUI
type scanModel struct {
	connInfo string

	nodes    []*node
	nodeList list.Model

	statsFunc  func() radio.Statistics
	resetStats func()
	stats      radio.Statistics

	eventLog      []logEntry
	maxLogEntries int

	width    int
	height   int
	quitting bool
	scanErr  error
	stopped  bool
}

// Messages
type scanTickMsg time.Time

type helloMsg struct {
	hostname string
	at       time.Time
}

type scanDoneMsg struct {
	err error
}

func initialScanModel(connInfo string, statsFunc func() radio.Statistics, resetStats func()) scanModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = true
	delegate.SetHeight(2)
	nodeList := list.New([]list.Item{}, delegate, 40, 10)
	nodeList.Title = "Nodes"
	nodeList.SetShowStatusBar(false)
	nodeList.SetShowHelp(false)
	nodeList.SetFilteringEnabled(false)

	m := scanModel{
		connInfo:      connInfo,
		nodeList:      nodeList,
		statsFunc:     statsFunc,
		resetStats:    resetStats,
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		height:        24,
	}
	if statsFunc != nil {
		m.stats = statsFunc()
	}
	return m
}

func (m scanModel) Init() tea.Cmd {
	return tea.Batch(
		scanTickCmd(),
		tea.EnterAltScreen,
	)
}

func scanTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return scanTickMsg(t)
	})
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			if m.resetStats != nil {
				m.resetStats()
				if m.statsFunc != nil {
					m.stats = m.statsFunc()
				}
				m.addLogEntry("Statistics reset", false)
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateListSize()

	case scanTickMsg:
		if m.statsFunc != nil {
			m.stats = m.statsFunc()
		}
		return m, scanTickCmd()

	case helloMsg:
		m.recordHello(msg)

	case scanDoneMsg:
		m.stopped = true
		m.scanErr = msg.err
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("Scan stopped: %v", msg.err), true)
		} else {
			m.addLogEntry("Scan stopped", false)
		}
	}

	var cmd tea.Cmd
	m.nodeList, cmd = m.nodeList.Update(msg)
	return m, cmd
}

func (m *scanModel) recordHello(msg helloMsg) {
	var found *node
	for _, n := range m.nodes {
		if n.hostname == msg.hostname {
			found = n
			break
		}
	}

	if found == nil {
		found = &node{hostname: msg.hostname, firstSeen: msg.at}
		m.nodes = append(m.nodes, found)
		m.addLogEntry(fmt.Sprintf("New node: %s", msg.hostname), false)
	} else {
		m.addLogEntry(fmt.Sprintf("Hello from %s", msg.hostname), false)
	}
	found.lastSeen = msg.at
	found.announcements++

	m.updateNodeList()
}

func (m *scanModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m *scanModel) updateNodeList() {
	items := make([]list.Item, len(m.nodes))
	for i, n := range m.nodes {
		items[i] = *n
	}
	m.nodeList.SetItems(items)
}

func (m *scanModel) updateListSize() {
	listHeight := max(m.height/3, 5)
	m.nodeList.SetSize(40, listHeight)
}

func (m scanModel) View() string {
	if m.quitting {
		return "Shutting down...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	statsLabelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	statsValueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	// Header
	var s strings.Builder
	s.WriteString(titleStyle.Render("LORANGER - NODE SCANNER"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'r' to reset stats, 'q' to quit", m.connInfo)))
	s.WriteString("\n\n")

	// Statistics
	st := m.stats
	faultValue := statsValueStyle.Render(fmt.Sprintf("%d", st.Faults()))
	if st.Faults() > 0 {
		faultValue = errorStyle.Render(fmt.Sprintf("%d", st.Faults()))
	}

	statsContent := strings.Builder{}
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		statsLabelStyle.Render("Nodes:"), statsValueStyle.Render(fmt.Sprintf("%d", len(m.nodes))),
		statsLabelStyle.Render("Frames:"), statsValueStyle.Render(fmt.Sprintf("%d", st.FramesReceived)),
		statsLabelStyle.Render("Bytes:"), statsValueStyle.Render(fmt.Sprintf("%d", st.BytesReceived)),
	))
	statsContent.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		statsLabelStyle.Render("Faults:"), faultValue,
		statsLabelStyle.Render("Resets:"), statsValueStyle.Render(fmt.Sprintf("%d", st.Resets)),
		statsLabelStyle.Render("Frame Rate:"), statsValueStyle.Render(fmt.Sprintf("%.2f/s", st.FrameRate)),
	))

	s.WriteString(boxStyle.Render(statsContent.String()))
	s.WriteString("\n\n")

	// Nodes
	if len(m.nodes) == 0 {
		s.WriteString(headerStyle.Render("Waiting for announcements..."))
		s.WriteString("\n\n")
	} else {
		s.WriteString(m.nodeList.View())
		s.WriteString("\n\n")
	}

	// Event log
	s.WriteString(statsLabelStyle.Render("Events:"))
	s.WriteString("\n")

	logHeight := max(m.height-16-m.nodeList.Height(), 3)
	start := max(len(m.eventLog)-logHeight, 0)
	for _, entry := range m.eventLog[start:] {
		line := fmt.Sprintf("[%s] %s", entry.timestamp.Format("15:04:05"), entry.message)
		if entry.isError {
			s.WriteString(errorStyle.Render(line))
		} else {
			s.WriteString(line)
		}
		s.WriteString("\n")
	}

	return s.String()
}
