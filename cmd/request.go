// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/spf13/cobra"
)

var (
	requestTimeout int
	requestCount   int
	requestTarget  string
)

var requestCmd = &cobra.Command{
	Use:   "request <pgn>",
	Short: "Request a parameter group and measure the response time",
	Long: `Send Request (PGN 59904) frames for a parameter group and wait for the answer.

The answer is accepted as any of:
  - a single frame carrying the requested PGN
  - a BAM transfer carrying the requested PGN, reassembled
  - an Acknowledgement (PGN 59392) naming the requested PGN

This is useful for verifying:
  - the adapter can transmit on the bus
  - the target ECU is powered and holds the expected address
  - multi-frame responses reassemble correctly

Examples:
  j1939stat request 0xFEEB --da 0x00 --port /dev/ttyUSB0
  j1939stat request DM1 --da 0xFF --can can0

Exit codes:
  0 - All requests answered
  1 - One or more requests timed out
  2 - Connection error`,
	Args: cobra.ExactArgs(1),
	RunE: runRequest,
}

func init() {
	rootCmd.AddCommand(requestCmd)
	requestCmd.Flags().IntVar(&requestTimeout, "timeout", 2, "Timeout in seconds for each request")
	requestCmd.Flags().IntVar(&requestCount, "count", 3, "Number of requests to send")
	requestCmd.Flags().StringVar(&requestTarget, "da", "0xFF", "Destination address")
}

// response is the first frame or message answering a request
type response struct {
	source     uint8
	pgn        j1939.PGN
	data       []byte
	transport  bool
	ack        bool
	ackControl uint8
}

func (r response) String() string {
	switch {
	case r.ack:
		return fmt.Sprintf("%s from 0x%02X", j1939.FormatAckControl(r.ackControl), r.source)
	case r.transport:
		return fmt.Sprintf("BAM from 0x%02X, %d bytes", r.source, len(r.data))
	default:
		return fmt.Sprintf("frame from 0x%02X, % X", r.source, r.data)
	}
}

func runRequest(cmd *cobra.Command, args []string) error {
	pgn, err := parsePGN(args[0])
	if err != nil {
		return err
	}
	da, err := parseAddress(requestTarget)
	if err != nil {
		return err
	}

	link, connInfo, err := OpenLink(cmd.Context(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer link.Close()

	fmt.Printf("j1939stat - Request Test\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("PGN: %s (0x%05X) to 0x%02X\n", j1939.FormatPGN(pgn), uint32(pgn), da)
	fmt.Printf("Timeout: %d seconds per request\n", requestTimeout)
	fmt.Printf("Count: %d requests\n\n", requestCount)

	successCount := 0
	failCount := 0
	reassembler := j1939.NewReassembler(cfg.SessionTimeout, logger)

	for i := 1; i <= requestCount; i++ {
		fmt.Printf("Request %d/%d: ", i, requestCount)

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(requestTimeout)*time.Second)
		startTime := time.Now()
		if err := link.Send(ctx, j1939.Request(da, cfg.SourceAddress, pgn)); err != nil {
			cancel()
			fmt.Printf("SEND FAILED: %v\n", err)
			failCount++
			continue
		}

		resp, err := awaitResponse(ctx, link.Receive, reassembler, pgn, da)
		cancel()
		switch {
		case err == nil:
			fmt.Printf("%s, rtt=%v\n", resp, time.Since(startTime).Round(time.Millisecond))
			if decoded := spn.FormatPayload(resp.pgn, resp.data); decoded != "" && !resp.ack {
				fmt.Printf("  %s\n", decoded)
			}
			successCount++
		case ctx.Err() == context.DeadlineExceeded:
			fmt.Printf("TIMEOUT (no response in %ds)\n", requestTimeout)
			failCount++
		default:
			fmt.Printf("READ FAILED: %v\n", err)
			os.Exit(2)
		}

		// Small delay between requests
		if i < requestCount {
			time.Sleep(100 * time.Millisecond)
		}
	}

	fmt.Printf("\n--- Request statistics ---\n")
	fmt.Printf("%d requests sent, %d responses received, %.0f%% loss\n",
		requestCount, successCount, float64(failCount)/float64(requestCount)*100)

	if failCount > 0 {
		os.Exit(1)
	}
	return nil
}

// awaitResponse reads frames until one answers the request for pgn sent
// to da, or ctx ends
func awaitResponse(ctx context.Context, receive func(context.Context) (j1939.Frame, error),
	reassembler *j1939.Reassembler, pgn j1939.PGN, da uint8) (response, error) {
	fromTarget := func(sa uint8) bool {
		return da == j1939.AddressGlobal || sa == da
	}

	for {
		frame, err := receive(ctx)
		if err != nil {
			return response{}, err
		}
		id := frame.ID()
		sa := id.SourceAddress()

		msg, _ := reassembler.Feed(frame, time.Now())
		if msg != nil && msg.PGN == pgn && fromTarget(msg.Source) {
			return response{source: msg.Source, pgn: msg.PGN, data: msg.Data, transport: true}, nil
		}

		if !fromTarget(sa) {
			continue
		}
		switch id.PGN() {
		case pgn:
			return response{source: sa, pgn: pgn, data: frame.PDU()}, nil
		case j1939.PGNAcknowledgement:
			control, acked, err := j1939.AcknowledgementFromPDU(frame.PDU())
			if err == nil && acked == pgn {
				return response{source: sa, pgn: pgn, ack: true, ackControl: control}, nil
			}
		}
	}
}
