// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/gorilla/websocket"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// EnvPassword holds the WebSocket Basic auth password
const EnvPassword = "LORANGER_PASSWORD"

// Connection is a radio transport that can be closed
type Connection interface {
	radio.Transport
	io.Closer
}

// SerialConnection wraps a serial port. Reads return after at most the
// configured poll interval.
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	n, err := s.port.Read(p)
	if err != nil {
		var portErr *serial.PortError
		if errors.As(err, &portErr) && portErr.Code() == serial.PortClosed {
			return n, fmt.Errorf("%w: %v", radio.ErrTransportClosed, err)
		}
	}
	return n, err
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) ResetInputBuffer() error {
	return s.port.ResetInputBuffer()
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// WebSocketConnection carries the serial byte stream over binary WebSocket
// messages, as exposed by a serial bridge. A reader goroutine queues inbound
// messages so Read never blocks.
type WebSocketConnection struct {
	conn *websocket.Conn

	in  chan []byte
	buf []byte

	// done is closed by Close; exited is closed when readLoop returns
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func newWebSocketConnection(conn *websocket.Conn) *WebSocketConnection {
	w := &WebSocketConnection{
		conn:   conn,
		in:     make(chan []byte, 64),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
	go w.readLoop()
	return w
}

func (w *WebSocketConnection) readLoop() {
	defer close(w.exited)
	defer close(w.in)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.setErr(err)
			return
		}

		// The bridge only carries serial data in binary messages
		if messageType != websocket.BinaryMessage {
			continue
		}
		select {
		case w.in <- data:
		case <-w.done:
			w.setErr(net.ErrClosed)
			return
		}
	}
}

func (w *WebSocketConnection) setErr(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err == nil {
		w.err = err
	}
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		select {
		case data, ok := <-w.in:
			if !ok {
				w.mu.Lock()
				err := w.err
				w.mu.Unlock()
				return 0, fmt.Errorf("%w: %v", radio.ErrTransportClosed, err)
			}
			w.buf = data
		default:
			return 0, nil
		}
	}

	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

// ResetInputBuffer drops buffered and queued inbound data
func (w *WebSocketConnection) ResetInputBuffer() error {
	w.buf = nil
	for {
		select {
		case _, ok := <-w.in:
			if !ok {
				return nil
			}
		default:
			return nil
		}
	}
}

// Close closes the socket and stops the reader, even when the inbound
// queue is full
func (w *WebSocketConnection) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}

// OpenSerialConnection opens a serial port connection (8N1)
func OpenSerialConnection(portName string, baudRate int, poll time.Duration) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	if err := port.SetReadTimeout(poll); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return newWebSocketConnection(conn), nil
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv(EnvPassword); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal; read a line instead
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens either a serial or WebSocket connection
func OpenConnection(s settings) (Connection, string, error) {
	if s.URL != "" {
		password := ""
		if s.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(s.URL, s.Username, password, s.NoSSLVerify)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket: %s", s.URL), nil
	}

	if s.Port != "" {
		conn, err := OpenSerialConnection(s.Port, s.Baud, s.Module.PollInterval)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", s.Port, s.Baud), nil
	}

	return nil, "", fmt.Errorf("%w: either --port or --url must be specified", radio.ErrConfiguration)
}
