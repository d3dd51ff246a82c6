// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/spf13/cobra"
)

var soakCmd = &cobra.Command{
	Use:   "soak",
	Short: "Test link stability without transmitting",
	Long: `Hold the link open and listen, logging every frame and link error.

Nothing is sent on the bus. Useful for debugging adapter dropouts, WebSocket
bridge disconnects and bitrate mismatches that only show up over time.

Exit codes:
  0 - Test completed normally
  1 - Link failed during the test
  2 - Connection error`,
	RunE: runSoak,
}

var (
	soakDuration int
	soakQuiet    bool
)

func init() {
	rootCmd.AddCommand(soakCmd)
	soakCmd.Flags().IntVar(&soakDuration, "duration", 30, "Test duration in seconds")
	soakCmd.Flags().BoolVar(&soakQuiet, "quiet", false, "Only print the heartbeat and summary")
}

func runSoak(cmd *cobra.Command, args []string) error {
	skipped := make(chan error, 100)
	link, connInfo, err := OpenLink(cmd.Context(), func(err error) {
		select {
		case skipped <- err:
		default:
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer link.Close()

	fmt.Printf("Link Stability Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Duration: %d seconds\n\n", soakDuration)

	frames := make(chan j1939.Frame, 100)
	errChan := make(chan error, 1)

	go func() {
		for {
			f, err := link.Receive(cmd.Context())
			if err != nil {
				errChan <- err
				return
			}
			frames <- f
		}
	}()

	start := time.Now()
	endTime := start.Add(time.Duration(soakDuration) * time.Second)
	heartbeat := time.NewTicker(time.Second)
	defer heartbeat.Stop()

	framesReceived := 0
	bytesReceived := 0
	skippedFrames := 0

	fmt.Printf("Listening for frames...\n\n")

	printResults := func(result string) {
		fmt.Printf("\n--- Test Results ---\n")
		fmt.Printf("Duration: %v\n", time.Since(start).Round(time.Millisecond))
		fmt.Printf("Frames received: %d\n", framesReceived)
		fmt.Printf("Payload bytes: %d\n", bytesReceived)
		fmt.Printf("Frames skipped: %d\n", skippedFrames)
		fmt.Printf("Result: %s\n", result)
	}

	for time.Now().Before(endTime) {
		select {
		case f := <-frames:
			framesReceived++
			bytesReceived += f.Len()
			if !soakQuiet {
				fmt.Printf("[%s] %08X [%d] % X\n",
					f.Timestamp().Format("15:04:05.000"), f.ID().Raw(), f.Len(), f.PDU())
			}

		case err := <-skipped:
			skippedFrames++
			if !soakQuiet {
				fmt.Printf("[%s] Skipped: %v\n", time.Now().Format("15:04:05.000"), err)
			}

		case err := <-errChan:
			if cmd.Context().Err() != nil {
				printResults("INTERRUPTED")
				return nil
			}
			fmt.Printf("\n[%s] Link error: %v\n", time.Now().Format("15:04:05.000"), err)
			printResults("FAILED (link error)")
			os.Exit(1)

		case <-heartbeat.C:
			remaining := time.Until(endTime).Seconds()
			fmt.Printf("[%s] Still connected... %d frames (%.0fs remaining)\n",
				time.Now().Format("15:04:05.000"), framesReceived, remaining)
		}
	}

	printResults("PASSED (link stable)")
	return nil
}
