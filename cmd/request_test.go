// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/rs/zerolog"
)

func testFrame(t *testing.T, raw uint32, data []byte) j1939.Frame {
	t.Helper()
	f, err := j1939.ParseFrame(j1939.NewID(raw), data)
	if err != nil {
		t.Fatalf("ParseFrame error: %v", err)
	}
	return f
}

// sliceReceiver returns frames in order, then blocks until ctx ends
func sliceReceiver(frames ...j1939.Frame) func(context.Context) (j1939.Frame, error) {
	return func(ctx context.Context) (j1939.Frame, error) {
		if len(frames) > 0 {
			f := frames[0]
			frames = frames[1:]
			return f, nil
		}
		<-ctx.Done()
		return j1939.Frame{}, ctx.Err()
	}
}

func shortTimeout(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	t.Cleanup(cancel)
	return ctx
}

func TestAwaitResponse_SingleFrame(t *testing.T) {
	frames := []j1939.Frame{
		testFrame(t, 0x0CF00421, make([]byte, 8)), // EEC1 from another ECU
		testFrame(t, 0x18FEEE21, make([]byte, 8)), // ET1 from another ECU
		testFrame(t, 0x18FEEE00, []byte{0x7D, 0x28, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}),
	}
	reassembler := j1939.NewReassembler(0, zerolog.Nop())

	resp, err := awaitResponse(shortTimeout(t), sliceReceiver(frames...), reassembler, j1939.PGNEngineTemperature1, 0x00)
	if err != nil {
		t.Fatalf("awaitResponse error: %v", err)
	}
	if resp.source != 0x00 || resp.pgn != j1939.PGNEngineTemperature1 || resp.ack || resp.transport {
		t.Errorf("response = %+v", resp)
	}
	if resp.data[0] != 0x7D {
		t.Errorf("data = % X", resp.data)
	}
}

func TestAwaitResponse_Global(t *testing.T) {
	reassembler := j1939.NewReassembler(0, zerolog.Nop())
	resp, err := awaitResponse(shortTimeout(t), sliceReceiver(testFrame(t, 0x18FEEE21, make([]byte, 8))),
		reassembler, j1939.PGNEngineTemperature1, j1939.AddressGlobal)
	if err != nil {
		t.Fatalf("awaitResponse error: %v", err)
	}
	if resp.source != 0x21 {
		t.Errorf("source = 0x%02X, want 0x21", resp.source)
	}
}

func TestAwaitResponse_Transport(t *testing.T) {
	payload := []byte{0x40, 0xFF, 0x6E, 0x00, 0x10, 0x01, 0x64, 0x00, 0x01, 0x03}
	tx, err := j1939.NewBroadcastSender(0x00, j1939.PGNDiagnosticMessage1, payload)
	if err != nil {
		t.Fatalf("NewBroadcastSender error: %v", err)
	}
	frames, err := tx.Frames()
	if err != nil {
		t.Fatalf("Frames error: %v", err)
	}

	reassembler := j1939.NewReassembler(0, zerolog.Nop())
	resp, err := awaitResponse(shortTimeout(t), sliceReceiver(frames...), reassembler, j1939.PGNDiagnosticMessage1, 0x00)
	if err != nil {
		t.Fatalf("awaitResponse error: %v", err)
	}
	if !resp.transport || !bytes.Equal(resp.data, payload) {
		t.Errorf("response = %+v", resp)
	}
}

func TestAwaitResponse_NegativeAck(t *testing.T) {
	frames := []j1939.Frame{
		j1939.AcknowledgementWithControl(0x00, j1939.PGNEngineTemperature1, j1939.AckNegative),
		j1939.AcknowledgementWithControl(0x00, j1939.PGNDiagnosticMessage1, j1939.AckNegative),
	}
	reassembler := j1939.NewReassembler(0, zerolog.Nop())

	resp, err := awaitResponse(shortTimeout(t), sliceReceiver(frames...), reassembler, j1939.PGNDiagnosticMessage1, 0x00)
	if err != nil {
		t.Fatalf("awaitResponse error: %v", err)
	}
	if !resp.ack || resp.ackControl != j1939.AckNegative || resp.pgn != j1939.PGNDiagnosticMessage1 {
		t.Errorf("response = %+v", resp)
	}
}

func TestAwaitResponse_Timeout(t *testing.T) {
	reassembler := j1939.NewReassembler(0, zerolog.Nop())
	_, err := awaitResponse(shortTimeout(t), sliceReceiver(testFrame(t, 0x18FEEE21, make([]byte, 8))),
		reassembler, j1939.PGNEngineTemperature1, 0x00)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
}
