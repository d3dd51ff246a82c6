// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/spf13/cobra"
)

var (
	frameTestTimeout int
)

var frameTestCmd = &cobra.Command{
	Use:   "frame_test",
	Short: "Test connection by waiting for a valid J1939 frame",
	Long: `Wait for a valid J1939 frame on the connection until timeout.

This command connects to an SLCAN adapter, WebSocket bridge or SocketCAN
interface and waits for any J1939 frame that passes validation. Standard
11-bit frames, remote frames and unparsable adapter lines are skipped.

Exit codes:
  0 - Frame received before timeout
  1 - Timeout reached without receiving a valid frame
  2 - Connection error

Useful for checking that an adapter is wired to a live bus at the right bitrate.`,
	RunE: runFrameTest,
}

func init() {
	rootCmd.AddCommand(frameTestCmd)
	frameTestCmd.Flags().IntVar(&frameTestTimeout, "timeout", 10, "Timeout in seconds to wait for a frame")
}

func runFrameTest(cmd *cobra.Command, args []string) error {
	var skipped atomic.Int64
	link, connInfo, err := OpenLink(cmd.Context(), func(error) { skipped.Add(1) })
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer link.Close()

	fmt.Printf("j1939stat - Frame Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Timeout: %d seconds\n", frameTestTimeout)
	fmt.Printf("Waiting for valid J1939 frame...\n\n")

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(frameTestTimeout)*time.Second)
	defer cancel()

	invalid := 0
	for {
		frame, err := link.Receive(ctx)
		if err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				fmt.Fprintf(os.Stderr, "TIMEOUT: No valid frame received within %d seconds\n", frameTestTimeout)
				os.Exit(1)
			}
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			os.Exit(2)
		}

		if errs := j1939.ValidateFrame(frame); len(errs) > 0 {
			invalid++
			continue
		}

		if n := skipped.Load() + int64(invalid); n > 0 {
			fmt.Printf("(skipped %d invalid frames first)\n", n)
		}
		id := frame.ID()
		fmt.Printf("SUCCESS: Received valid frame\n")
		fmt.Printf("  ID: 0x%08X\n", id.Raw())
		fmt.Printf("  PGN: %s (0x%05X)\n", j1939.FormatPGN(id.PGN()), uint32(id.PGN()))
		fmt.Printf("  Source: 0x%02X\n", id.SourceAddress())
		fmt.Printf("  Length: %d bytes\n", frame.Len())
		os.Exit(0)
	}
}
