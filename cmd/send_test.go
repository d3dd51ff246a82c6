// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

func TestTransmit(t *testing.T) {
	bus := canlink.NewLoopback()
	defer bus.Close()
	tx := bus.Open()
	rx := bus.Open()

	sender, err := j1939.NewBroadcastSender(0xF9, j1939.PGNAddressClaimed, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		t.Fatalf("NewBroadcastSender error: %v", err)
	}
	frames, err := sender.Frames()
	if err != nil {
		t.Fatalf("Frames error: %v", err)
	}

	var out bytes.Buffer
	if err := transmit(context.Background(), tx, frames, time.Millisecond, &out); err != nil {
		t.Fatalf("transmit error: %v", err)
	}

	for i, want := range frames {
		got, err := rx.Receive(shortTimeout(t))
		if err != nil {
			t.Fatalf("frame %d: Receive error: %v", i, err)
		}
		if got.ID() != want.ID() || !bytes.Equal(got.PDU(), want.PDU()) {
			t.Errorf("frame %d = %s, want %s", i, got, want)
		}
	}
	if n := strings.Count(out.String(), "id=1CE"); n != len(frames) {
		t.Errorf("Printed %d frames, want %d:\n%s", n, len(frames), out.String())
	}
}

func TestTransmit_Errors(t *testing.T) {
	bus := canlink.NewLoopback()
	tx := bus.Open()
	bus.Close()

	frames := []j1939.Frame{j1939.Request(0x00, 0xF9, j1939.PGNAddressClaimed)}
	err := transmit(context.Background(), tx, frames, 0, &bytes.Buffer{})
	if !errors.Is(err, canlink.ErrClosed) || !strings.Contains(err.Error(), "frame 1 of 1") {
		t.Errorf("error = %v, want wrapped ErrClosed", err)
	}

	live := canlink.NewLoopback()
	defer live.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	frames = append(frames, frames[0])
	if err := transmit(ctx, live.Open(), frames, time.Hour, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled during the gap", err)
	}
}

func TestParseAckControl(t *testing.T) {
	tests := map[string]uint8{
		"positive": j1939.AckPositive,
		"NEGATIVE": j1939.AckNegative,
		"denied":   j1939.AckDenied,
		"busy":     j1939.AckBusy,
	}
	for in, want := range tests {
		if got, err := parseAckControl(in); err != nil || got != want {
			t.Errorf("parseAckControl(%q) = %d, %v, want %d", in, got, err, want)
		}
	}
	if _, err := parseAckControl("maybe"); err == nil {
		t.Error("Unknown control should fail")
	}
}
