// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

const (
	EnvLogLevel     = "LORANGER_LOG_LEVEL"
	EnvLogTimestamp = "LORANGER_LOG_TIMESTAMP"
	EnvLogNoColor   = "LORANGER_LOG_NOCOLOR"
)

// newLogger creates the console logger on stderr. An explicit level wins
// over the environment.
func newLogger(level string) zerolog.Logger {
	lvl, ok := parseLevel(level)
	if !ok {
		lvl, _ = parseLevel(os.Getenv(EnvLogLevel))
	}

	timestamp := true
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		timestamp = v
	}
	noColor := !term.IsTerminal(int(os.Stderr.Fd()))
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		noColor = v
	}

	out := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		NoColor:    noColor,
		TimeFormat: "15:04:05.000",
	}
	if !timestamp {
		out.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	ctx := zerolog.New(out).Level(lvl).With()
	if timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Logger()
}

func parseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
