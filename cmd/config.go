// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Thermoquad/loranger/pkg/radio"
)

// settings is the resolved connection and module configuration
type settings struct {
	Port        string
	Baud        int
	URL         string
	Username    string
	NoSSLVerify bool

	Module radio.Config
	Pins   pinSettings

	StatsInterval time.Duration
}

// pinSettings holds GPIO names; empty means not wired
type pinSettings struct {
	Power string
	Busy  string
	M0    string
	M1    string
}

type fileConfig struct {
	Port          string   `toml:"port"`
	URL           string   `toml:"url"`
	Username      string   `toml:"username"`
	Baud          int      `toml:"baud"`
	ReadTimeout   string   `toml:"read_timeout"`
	ChunkSize     int      `toml:"chunk_size"`
	Channel       int      `toml:"channel"`
	Settle        string   `toml:"settle"`
	ResetHold     string   `toml:"reset_hold"`
	GateTimeout   string   `toml:"gate_timeout"`
	StatsInterval string   `toml:"stats_interval"`
	Announce      bool     `toml:"announce"`
	Pins          filePins `toml:"pins"`
}

type filePins struct {
	Power string `toml:"power"`
	Busy  string `toml:"busy"`
	M0    string `toml:"m0"`
	M1    string `toml:"m1"`
}

// flagSettings builds settings from the command line flags
func flagSettings(changed func(name string) bool) settings {
	cfg := radio.DefaultConfig()
	cfg.Port = portName
	cfg.Baud = baudRate
	cfg.ReadTimeout = readTimeout
	cfg.ChunkSize = chunkSize
	cfg.Settle = settle
	cfg.ResetHold = resetHold
	cfg.GateTimeout = gateTimeout
	if changed("channel") {
		ch := channel
		cfg.Channel = &ch
	}

	return settings{
		Port:        portName,
		Baud:        baudRate,
		URL:         wsURL,
		Username:    wsUsername,
		NoSSLVerify: wsNoSSLVerify,
		Module:      cfg,
		Pins: pinSettings{
			Power: powerPin,
			Busy:  busyPin,
			M0:    m0Pin,
			M1:    m1Pin,
		},
		StatsInterval: statsInterval,
	}
}

// resolveSettings returns the flag settings overlaid on the config file, if any
func resolveSettings(changed func(name string) bool) (settings, error) {
	s := flagSettings(changed)
	if configPath == "" {
		return s, nil
	}
	if err := loadConfigFile(configPath, &s, changed); err != nil {
		return settings{}, err
	}
	return s, nil
}

// loadConfigFile applies the keys defined in the file to s, skipping any
// whose flag was given explicitly
func loadConfigFile(path string, s *settings, changed func(name string) bool) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logger.Warn().Str("path", path).Interface("keys", undecoded).Msg("ignoring unknown config keys")
	}

	use := func(key, flag string) bool {
		return meta.IsDefined(key) && !changed(flag)
	}

	if use("port", "port") {
		s.Port = strings.TrimSpace(raw.Port)
		s.Module.Port = s.Port
	}
	if use("url", "url") {
		s.URL = strings.TrimSpace(raw.URL)
	}
	if use("username", "username") {
		s.Username = strings.TrimSpace(raw.Username)
	}
	if use("baud", "baud") {
		s.Baud = raw.Baud
		s.Module.Baud = raw.Baud
	}
	if use("chunk_size", "chunk-size") {
		s.Module.ChunkSize = raw.ChunkSize
	}
	if use("channel", "channel") {
		ch := raw.Channel
		s.Module.Channel = &ch
	}
	if meta.IsDefined("announce") {
		s.Module.Announce = raw.Announce
	}

	durations := []struct {
		key  string
		flag string
		raw  string
		dst  *time.Duration
	}{
		{"read_timeout", "read-timeout", raw.ReadTimeout, &s.Module.ReadTimeout},
		{"settle", "settle", raw.Settle, &s.Module.Settle},
		{"reset_hold", "reset-hold", raw.ResetHold, &s.Module.ResetHold},
		{"gate_timeout", "gate-timeout", raw.GateTimeout, &s.Module.GateTimeout},
		{"stats_interval", "stats-interval", raw.StatsInterval, &s.StatsInterval},
	}
	for _, d := range durations {
		if !use(d.key, d.flag) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	pins := []struct {
		key  string
		flag string
		raw  string
		dst  *string
	}{
		{"power", "power-pin", raw.Pins.Power, &s.Pins.Power},
		{"busy", "busy-pin", raw.Pins.Busy, &s.Pins.Busy},
		{"m0", "m0-pin", raw.Pins.M0, &s.Pins.M0},
		{"m1", "m1-pin", raw.Pins.M1, &s.Pins.M1},
	}
	for _, p := range pins {
		if meta.IsDefined("pins", p.key) && !changed(p.flag) {
			*p.dst = strings.TrimSpace(p.raw)
		}
	}

	return nil
}
