// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	showAll bool
	useTUI  bool
)

var errorDetectionCmd = &cobra.Command{
	Use:   "error_detection",
	Short: "Detect and analyze malformed frames and bus errors",
	Long: `Track frame errors, malformed data and anomalous values with statistics.

This command validates each frame and detects:
  - Malformed frames (wrong lengths, reserved bits, invalid addresses)
  - BAM transport violations and stale sessions
  - Adapter errors and undecodable lines
  - Parameters reporting the error indicator

By default, only errors are displayed. Use --show-all to display valid frames too.

Frames are validated in real-time, with errors highlighted immediately and
periodic statistics summaries displayed at configurable intervals.`,
	RunE: runErrorDetection,
}

func init() {
	rootCmd.AddCommand(errorDetectionCmd)
	errorDetectionCmd.Flags().BoolVar(&showAll, "show-all", false, "Show all frames (not just errors)")
	errorDetectionCmd.Flags().DurationVar(&flagValues.StatsInterval, "stats-interval", flagValues.StatsInterval, "Statistics update interval")
	errorDetectionCmd.Flags().BoolVar(&useTUI, "tui", true, "Use terminal UI (false for text mode)")
}

func runErrorDetection(cmd *cobra.Command, args []string) error {
	link, events, connInfo, err := openWatchedLink(cmd.Context())
	if err != nil {
		return err
	}
	defer link.Close()

	if useTUI {
		return runTUIMode(events, connInfo)
	}
	return runTextMode(cmd, events, connInfo)
}

// printDecodeError prints a decode error in highlighted format
func printDecodeError(err error) {
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Printf("[%s] \033[1;31mDECODE ERROR:\033[0m %v\n", timestamp, err)
	fmt.Printf("  >>> FRAME DROPPED <<<\n\n")
}

// printValidationErrors prints validation errors for a frame
func printValidationErrors(frame *j1939.Frame, errors []j1939.ValidationError) {
	timestamp := frame.Timestamp().Format("15:04:05.000")
	id := frame.ID()

	fmt.Printf("[%s] \033[1;33mVALIDATION ERROR:\033[0m %s (id=%08X sa=%02X)\n",
		timestamp, j1939.FormatPGN(id.PGN()), id.Raw(), id.SourceAddress())
	fmt.Printf("  Data: % X\n", frame.PDU())

	for i, err := range errors {
		color := "1;31"
		if err.Type == j1939.AnomalyInvalidValue || err.Type == j1939.AnomalyErrorIndicator {
			color = "1;33"
		}
		fmt.Printf("  Issue %d: \033[%sm%s\033[0m [%s]\n", i+1, color, err.Message, err.Type)
		if details := formatDetails(err.Details); details != "" {
			fmt.Printf("    %s\n", details)
		}
	}

	fmt.Printf("  >>> FRAME REJECTED <<<\n\n")
}

// formatDetails renders validation details as sorted key=value pairs
func formatDetails(details map[string]interface{}) string {
	keys := make([]string, 0, len(details))
	for k := range details {
		if k != "error" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	out := ""
	for i, k := range keys {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s=%v", k, details[k])
	}
	return out
}

// runTUIMode runs error detection in TUI mode
func runTUIMode(events <-chan frameEvent, connInfo string) error {
	m := initialModel(connInfo, cfg.StatsInterval, showAll)
	p := tea.NewProgram(m)

	go func() {
		synchronized := false
		skipped := 0
		for ev := range events {
			if ev.frame == nil && ev.decodeErr != nil && !synchronized {
				skipped++
				continue
			}
			if ev.frame != nil && !synchronized {
				synchronized = true
				p.Send(syncMsg{skipped: skipped})
			}
			p.Send(frameEventMsg(ev))
		}
		p.Send(linkClosedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %v", err)
	}
	return nil
}

// runTextMode runs error detection in text mode
func runTextMode(cmd *cobra.Command, events <-chan frameEvent, connInfo string) error {
	fmt.Printf("j1939stat - Error Detection Mode\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Statistics interval: %s\n", cfg.StatsInterval)
	if showAll {
		fmt.Printf("Mode: All frames\n")
	} else {
		fmt.Printf("Mode: Errors only\n")
	}
	fmt.Printf("Press Ctrl+C to exit\n\n")

	stats := j1939.NewStatistics()

	// Ignore decode errors until the first frame; the adapter may still be
	// flushing a partial line
	synchronized := false
	skippedBeforeSync := 0

	statsTicker := time.NewTicker(cfg.StatsInterval)
	defer statsTicker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			fmt.Println()
			fmt.Print(stats.String())
			return nil

		case ev, ok := <-events:
			if !ok {
				fmt.Println()
				fmt.Print(stats.String())
				return fmt.Errorf("link closed")
			}

			for _, sa := range ev.expired {
				stats.Update(nil, &j1939.ProtocolError{
					PGN:    j1939.PGNTransportProtocolConnectionManagement,
					Reason: fmt.Sprintf("BAM session from 0x%02X timed out", sa),
				}, nil)
				fmt.Printf("[%s] \033[1;31mTRANSPORT TIMEOUT:\033[0m sa=%02X\n\n",
					time.Now().Format("15:04:05.000"), sa)
			}

			if ev.decodeErr != nil {
				if synchronized {
					stats.Update(nil, ev.decodeErr, nil)
					printDecodeError(ev.decodeErr)
				} else {
					skippedBeforeSync++
				}
				continue
			}
			if ev.frame == nil {
				continue
			}

			if !synchronized {
				synchronized = true
				if skippedBeforeSync > 0 {
					fmt.Printf("[SYNC] Synchronized after skipping %d bad lines\n\n", skippedBeforeSync)
				} else {
					fmt.Printf("[SYNC] Synchronized\n\n")
				}
			}

			stats.Update(ev.frame, nil, ev.validationErrors)
			if len(ev.validationErrors) > 0 {
				printValidationErrors(ev.frame, ev.validationErrors)
			} else if showAll {
				fmt.Print(j1939.FormatFrame(*ev.frame))
			}

			if ev.message != nil {
				stats.RecordMessage()
				if showAll {
					fmt.Print(j1939.FormatMessage(ev.message))
				}
			}

		case <-statsTicker.C:
			fmt.Println()
			fmt.Print(stats.String())
			fmt.Println()
		}
	}
}
