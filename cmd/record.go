// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/spf13/cobra"
)

var (
	recordOut      string
	recordDuration time.Duration
	recordPGNs     []string
	recordSources  []string

	replaySend     bool
	replayRealtime bool
	replayDecode   bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record bus traffic to a CBOR capture file",
	Long: `Write every received frame with its timestamp to a capture file.

The file is a CBOR header followed by one record per frame, readable with
the replay command. Recording stops after --duration or on Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: runRecord,
}

var replayCmd = &cobra.Command{
	Use:   "replay <file>",
	Short: "Print or retransmit a capture file",
	Long: `Read a capture file written by record.

By default frames are printed. With --send they are transmitted on the
configured link, and --realtime keeps the original spacing between them.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(recordCmd, replayCmd)
	recordCmd.Flags().StringVarP(&recordOut, "out", "o", "capture.cbor", "Capture file to write")
	recordCmd.Flags().DurationVar(&recordDuration, "duration", 0, "Stop after this long (0 records until interrupted)")
	recordCmd.Flags().StringSliceVar(&recordPGNs, "pgn", nil, "Only record these PGNs")
	recordCmd.Flags().StringSliceVar(&recordSources, "sa", nil, "Only record these source addresses")

	replayCmd.Flags().BoolVar(&replaySend, "send", false, "Transmit frames on the link")
	replayCmd.Flags().BoolVar(&replayRealtime, "realtime", false, "Keep the recorded timing")
	replayCmd.Flags().BoolVar(&replayDecode, "decode", false, "Decode known parameter groups")
}

func runRecord(cmd *cobra.Command, args []string) error {
	filter, err := buildFilter(recordPGNs, recordSources)
	if err != nil {
		return err
	}

	f, err := os.Create(recordOut)
	if err != nil {
		return fmt.Errorf("failed to create capture file: %w", err)
	}
	defer f.Close()

	ctx := cmd.Context()
	if recordDuration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, recordDuration)
		defer cancel()
	}

	link, connInfo, err := OpenLink(ctx, nil)
	if err != nil {
		return err
	}
	defer link.Close()

	w, err := j1939.NewCaptureWriter(f, connInfo)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Recording %s to %s\n", connInfo, recordOut)

	count := 0
	started := time.Now()
	for {
		frame, err := link.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				return err
			}
			break
		}
		if !filter(frame) {
			continue
		}
		if err := w.Write(frame); err != nil {
			return fmt.Errorf("failed to write capture: %w", err)
		}
		count++
	}

	fmt.Fprintf(os.Stderr, "Recorded %d frames in %s\n", count, time.Since(started).Round(time.Millisecond))
	logger.Info().Int("frames", count).Str("file", recordOut).Msg("capture closed")
	return nil
}

func runReplay(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := j1939.NewCaptureReader(f)
	if err != nil {
		return err
	}
	header := r.Header()
	fmt.Fprintf(cmd.ErrOrStderr(), "Capture v%d from %q, started %s\n",
		header.Version, header.Source, time.Unix(0, header.Created).Format(time.RFC3339))

	var send func(context.Context, j1939.Frame) error
	if replaySend {
		link, connInfo, err := OpenLink(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer link.Close()
		fmt.Fprintf(cmd.ErrOrStderr(), "Replaying to %s\n", connInfo)
		send = link.Send
	}

	return replayCapture(cmd.Context(), r, cmd.OutOrStdout(), send, replayRealtime, replayDecode)
}

// replayCapture prints every record and, when send is set, transmits it
func replayCapture(ctx context.Context, r *j1939.CaptureReader, w io.Writer,
	send func(context.Context, j1939.Frame) error, realtime, decode bool) error {
	var last time.Time
	count := 0
	for {
		frame, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", count+1, err)
		}

		if realtime && !last.IsZero() {
			if d := frame.Timestamp().Sub(last); d > 0 {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
		last = frame.Timestamp()

		fmt.Fprint(w, j1939.FormatFrame(frame))
		if decode {
			if decoded := spn.FormatPayload(frame.ID().PGN(), frame.PDU()); decoded != "" {
				fmt.Fprintf(w, "  %s\n", decoded)
			}
		}
		if send != nil {
			if err := send(ctx, frame); err != nil {
				return err
			}
		}
		count++
	}

	fmt.Fprintf(w, "%d frames\n", count)
	return nil
}
