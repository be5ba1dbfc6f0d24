// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/loranger/pkg/radio"
	"github.com/gorilla/websocket"
)

// wsServer starts a bridge that hands each accepted connection to handle
func wsServer(t *testing.T, handle func(r *http.Request, c *websocket.Conn)) string {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		handle(r, c)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

// readFor polls a non-blocking connection until want bytes arrive
func readFor(t *testing.T, conn Connection, want int) (string, error) {
	t.Helper()
	var got []byte
	buf := make([]byte, 64)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < want && time.Now().Before(deadline) {
		n, err := conn.Read(buf)
		got = append(got, buf[:n]...)
		if err != nil {
			return string(got), err
		}
		if n == 0 {
			time.Sleep(time.Millisecond)
		}
	}
	return string(got), nil
}

func TestWebSocketConnection_Echo(t *testing.T) {
	url := wsServer(t, func(r *http.Request, c *websocket.Conn) {
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, data); err != nil {
				return
			}
		}
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	// Idle reads return immediately
	n, err := conn.Read(make([]byte, 8))
	if n != 0 || err != nil {
		t.Fatalf("idle read = %d, %v; want 0, nil", n, err)
	}

	if _, err := conn.Write([]byte("q:hostname\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := readFor(t, conn, len("q:hostname\n"))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got != "q:hostname\n" {
		t.Errorf("got %q, want echo", got)
	}
}

func TestWebSocketConnection_SmallReads(t *testing.T) {
	url := wsServer(t, func(r *http.Request, c *websocket.Conn) {
		c.WriteMessage(websocket.TextMessage, []byte("ignored"))
		c.WriteMessage(websocket.BinaryMessage, []byte("abcdef"))
		c.ReadMessage()
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	var got []byte
	buf := make([]byte, 4)
	deadline := time.Now().Add(2 * time.Second)
	for len(got) < 6 && time.Now().Before(deadline) {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		got = append(got, buf[:n]...)
	}
	if string(got) != "abcdef" {
		t.Errorf("got %q, want %q", got, "abcdef")
	}
}

func TestWebSocketConnection_BasicAuth(t *testing.T) {
	authc := make(chan string, 1)
	url := wsServer(t, func(r *http.Request, c *websocket.Conn) {
		authc <- r.Header.Get("Authorization")
	})

	conn, err := OpenWebSocketConnection(url, "admin", "secret", false)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	want := "Basic " + base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	select {
	case got := <-authc:
		if got != want {
			t.Errorf("Authorization = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the connection")
	}
}

func TestWebSocketConnection_ClosedByPeer(t *testing.T) {
	url := wsServer(t, func(r *http.Request, c *websocket.Conn) {
		c.WriteMessage(websocket.BinaryMessage, []byte("bye"))
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	got, err := readFor(t, conn, 1<<10)
	if got != "bye" {
		t.Errorf("got %q before close, want %q", got, "bye")
	}
	if !errors.Is(err, radio.ErrTransportClosed) {
		t.Errorf("error = %v, want ErrTransportClosed", err)
	}
}

func TestWebSocketConnection_ResetInputBuffer(t *testing.T) {
	url := wsServer(t, func(r *http.Request, c *websocket.Conn) {
		c.WriteMessage(websocket.BinaryMessage, []byte("stale"))
		c.ReadMessage()
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer conn.Close()

	// Wait for the stale message to be queued
	buf := make([]byte, 1)
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if n > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if err := conn.ResetInputBuffer(); err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	n, err := conn.Read(make([]byte, 16))
	if n != 0 || err != nil {
		t.Errorf("read after reset = %d, %v; want 0, nil", n, err)
	}
}

func TestWebSocketConnection_CloseWithFullQueue(t *testing.T) {
	url := wsServer(t, func(r *http.Request, c *websocket.Conn) {
		for i := 0; i < 200; i++ {
			if err := c.WriteMessage(websocket.BinaryMessage, []byte("x")); err != nil {
				return
			}
		}
		c.ReadMessage()
	})

	conn, err := OpenWebSocketConnection(url, "", "", false)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	ws := conn.(*WebSocketConnection)

	// Never read, so the reader fills the queue and blocks
	deadline := time.Now().Add(2 * time.Second)
	for len(ws.in) < cap(ws.in) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if len(ws.in) != cap(ws.in) {
		t.Fatalf("queue holds %d messages, want %d", len(ws.in), cap(ws.in))
	}

	if err := conn.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	select {
	case <-ws.exited:
	case <-time.After(2 * time.Second):
		t.Fatal("reader still running after Close")
	}

	// Queued data drains, then the closed error surfaces
	_, err = readFor(t, conn, 1<<10)
	if !errors.Is(err, radio.ErrTransportClosed) {
		t.Errorf("error = %v, want ErrTransportClosed", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestOpenWebSocketConnection_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"http scheme", "http://localhost/ws", "unsupported URL scheme"},
		{"ftp scheme", "ftp://localhost/ws", "unsupported URL scheme"},
		{"bad url", "ws://[::1", "invalid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := OpenWebSocketConnection(tt.url, "", "", false)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

func TestOpenConnection_NeedsPortOrURL(t *testing.T) {
	_, _, err := OpenConnection(settings{Module: radio.DefaultConfig()})
	if !errors.Is(err, radio.ErrConfiguration) {
		t.Errorf("error = %v, want ErrConfiguration", err)
	}
}
