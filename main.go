// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// j1939stat - SAE J1939 Bus Analyzer
//
// A CLI tool for monitoring, decoding and exercising J1939 networks through
// SLCAN adapters, WebSocket bridges and SocketCAN interfaces.

package main

import (
	"os"

	"github.com/Thermoquad/j1939stat/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
