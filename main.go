// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// LoRanger - remote host management over a serial radio link
//
// Answers queries, actions and shell commands received over a half-duplex
// UART radio module, and provides the matching client and scanner.

package main

import (
	"os"

	"github.com/Thermoquad/loranger/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
