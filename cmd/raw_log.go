// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/spf13/cobra"
)

var (
	rawLogDecode  bool
	rawLogCandump bool
	rawLogPGNs    []string
	rawLogSources []string
)

var rawLogCmd = &cobra.Command{
	Use:   "raw_log",
	Short: "Display raw frame log in human-readable format",
	Long: `Continuously decode and display J1939 frames as they arrive.

Each frame is shown with timestamp, PGN, priority, source and destination
address and payload. BAM transfers are reassembled and the completed message
is printed after its last packet.

With --decode, payloads of known PGNs (EEC1, ET1, VEP1, DM1, ...) are broken
down into SPN values. --candump prints compact ID#DATA lines instead.

Supports SLCAN, WebSocket and SocketCAN connections.`,
	RunE: runRawLog,
}

func init() {
	rootCmd.AddCommand(rawLogCmd)
	rawLogCmd.Flags().BoolVar(&rawLogDecode, "decode", false, "Decode SPN values of known PGNs")
	rawLogCmd.Flags().BoolVar(&rawLogCandump, "candump", false, "Print candump ID#DATA lines")
	rawLogCmd.Flags().StringSliceVar(&rawLogPGNs, "pgn", nil, "Only show these PGNs (hex with 0x or decimal)")
	rawLogCmd.Flags().StringSliceVar(&rawLogSources, "sa", nil, "Only show frames from these source addresses")
}

func runRawLog(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter(rawLogPGNs, rawLogSources)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	link, connInfo, err := OpenLink(ctx, func(err error) {
		fmt.Printf("[ERROR] %v\n", err)
	})
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("j1939stat - Raw Frame Log\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Press Ctrl+C to exit\n\n")

	reassembler := j1939.NewReassembler(cfg.SessionTimeout, logger)

	for {
		frame, err := link.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, canlink.ErrClosed) {
				logger.Info().Msg("connection closed")
				return nil
			}
			return err
		}

		switch {
		case !filter(frame):
		case rawLogCandump:
			fmt.Printf("(%.6f) %s\n", float64(frame.Timestamp().UnixMicro())/1e6, canlink.CandumpString(frame))
		default:
			fmt.Print(j1939.FormatFrame(frame))
			if rawLogDecode {
				fmt.Print(spn.FormatPayload(frame.ID().PGN(), frame.PDU()))
			}
		}

		now := time.Now()
		for _, sa := range reassembler.Expire(now) {
			fmt.Printf("[ERROR] transport from %02X timed out\n", sa)
		}
		msg, err := reassembler.Feed(frame, now)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}
		if msg != nil && !rawLogCandump && messageFilter(filter, msg) {
			fmt.Print(j1939.FormatMessage(msg))
			if rawLogDecode {
				fmt.Print(spn.FormatPayload(msg.PGN, msg.Data))
			}
		}
	}
}
