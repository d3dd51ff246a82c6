// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"strings"
	"testing"
	"time"
)

// ============================================================
// Validator Tests
// ============================================================

func hasAnomaly(errs []ValidationError, a AnomalyType) bool {
	for _, e := range errs {
		if e.Type == a {
			return true
		}
	}
	return false
}

func TestValidateFrame(t *testing.T) {
	tests := []struct {
		name  string
		raw   uint32
		data  []byte
		want  AnomalyType
		valid bool
	}{
		{name: "valid request", raw: 0x18EA2010, data: []byte{0x00, 0xEE, 0x00}, valid: true},
		{name: "request length", raw: 0x18EA2010, data: []byte{0x00, 0xEE}, want: AnomalyLengthMismatch},
		{name: "global source", raw: 0x18FEF7FF, data: make([]byte, 8), want: AnomalyInvalidAddress},
		{name: "reserved data page", raw: 0x1BFEF7EA, data: make([]byte, 8), want: AnomalyReservedBits},
		{name: "address claimed length", raw: 0x18EEFF10, data: make([]byte, 4), want: AnomalyLengthMismatch},
		{name: "valid BAM", raw: 0x1CECFF01, data: []byte{0x20, 0x09, 0x00, 0x02, 0xFF, 0x00, 0xEE, 0x00}, valid: true},
		{name: "BAM to address", raw: 0x1CEC2001, data: []byte{0x20, 0x09, 0x00, 0x02, 0xFF, 0x00, 0xEE, 0x00}, want: AnomalyInvalidAddress},
		{name: "BAM length", raw: 0x1CECFF01, data: []byte{0x20, 0x05, 0x00, 0x01, 0xFF, 0x00, 0xEE, 0x00}, want: AnomalyInvalidValue},
		{name: "BAM packet count", raw: 0x1CECFF01, data: []byte{0x20, 0x09, 0x00, 0x03, 0xFF, 0x00, 0xEE, 0x00}, want: AnomalyInvalidCount},
		{name: "unknown control", raw: 0x1CECFF01, data: []byte{0x42, 0, 0, 0, 0, 0, 0, 0}, want: AnomalyInvalidValue},
		{name: "sequence zero", raw: 0x1CEBFF01, data: []byte{0x00, 1, 2, 3, 4, 5, 6, 7}, want: AnomalyInvalidCount},
		{name: "short data transfer", raw: 0x1CEBFF01, data: []byte{0x01, 1}, want: AnomalyLengthMismatch},
		{name: "engine speed error", raw: 0x0CF0040C, data: []byte{0xFF, 0xFF, 0xFF, 0x00, 0xFE, 0xFF, 0xFF, 0xFF}, want: AnomalyErrorIndicator},
		{name: "valid engine speed", raw: 0x0CF0040C, data: []byte{0xFF, 0xFF, 0xFF, 0x20, 0x1C, 0xFF, 0xFF, 0xFF}, valid: true},
		{name: "coolant error", raw: 0x18FEEE00, data: []byte{0xFE, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}, want: AnomalyErrorIndicator},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := mustFrame(t, tt.raw, tt.data)
			errs := ValidateFrame(f)
			if tt.valid {
				if len(errs) != 0 {
					t.Errorf("Expected valid frame, got %v", errs)
				}
				return
			}
			if !hasAnomaly(errs, tt.want) {
				t.Errorf("Expected %s, got %v", tt.want, errs)
			}
		})
	}
}

func TestAnomalyType_String(t *testing.T) {
	if AnomalyTransportError.String() != "TRANSPORT_ERROR" {
		t.Errorf("String() = %q", AnomalyTransportError.String())
	}
	if AnomalyType(99).String() != "UNKNOWN" {
		t.Errorf("String() = %q", AnomalyType(99).String())
	}
}

// ============================================================
// Statistics Tests
// ============================================================

func TestStatistics_Update(t *testing.T) {
	s := NewStatistics()
	valid := mustFrame(t, 0x18EA2010, []byte{0x00, 0xEE, 0x00})
	short := mustFrame(t, 0x18EA2010, []byte{0x00})

	s.Update(&valid, nil, nil)
	s.Update(&short, nil, ValidateFrame(short))
	s.Update(nil, &ProtocolError{Reason: "test"}, nil)
	s.Update(nil, ErrMalformed, nil)
	s.RecordMessage()

	if s.TotalFrames != 4 {
		t.Errorf("TotalFrames = %d, want 4", s.TotalFrames)
	}
	if s.ValidFrames != 1 {
		t.Errorf("ValidFrames = %d, want 1", s.ValidFrames)
	}
	if s.LengthMismatches != 1 || s.MalformedFrames != 1 {
		t.Errorf("LengthMismatches=%d MalformedFrames=%d, want 1 and 1", s.LengthMismatches, s.MalformedFrames)
	}
	if s.TransportErrors != 1 {
		t.Errorf("TransportErrors = %d, want 1", s.TransportErrors)
	}
	if s.DecodeErrors != 1 {
		t.Errorf("DecodeErrors = %d, want 1", s.DecodeErrors)
	}
	if s.TotalErrors() != 3 {
		t.Errorf("TotalErrors = %d, want 3", s.TotalErrors())
	}

	out := s.String()
	for _, want := range []string{"Total Frames:", "Transport Errors:", "Length Mismatch:", "BAM Messages:"} {
		if !strings.Contains(out, want) {
			t.Errorf("String() missing %q:\n%s", want, out)
		}
	}
}

func TestStatistics_Reset(t *testing.T) {
	s := NewStatistics()
	s.StartTime = time.Now().Add(-time.Hour)
	s.Update(nil, ErrMalformed, nil)
	s.Reset()
	if s.TotalFrames != 0 || s.DecodeErrors != 0 {
		t.Errorf("Reset left counters: %+v", s)
	}
	if time.Since(s.StartTime) > time.Minute {
		t.Error("Reset should restart the clock")
	}
}

// ============================================================
// Formatter Tests
// ============================================================

func TestFormatFrame(t *testing.T) {
	ts := time.Date(2025, 1, 1, 12, 30, 45, 123000000, time.Local)
	f := mustFrame(t, 0x18EA2010, []byte{0x00, 0xEE, 0x00}).WithTimestamp(ts)
	out := FormatFrame(f)
	for _, want := range []string{"[12:30:45.123]", "RQST", "id=18EA2010", "sa=10", "da=20", "len=3", "requested=AC"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatFrame missing %q: %s", want, out)
		}
	}

	bam := mustFrame(t, 0x1CECFF01, []byte{0x20, 0x09, 0x00, 0x02, 0xFF, 0x00, 0xEE, 0x00})
	if out := FormatFrame(bam); !strings.Contains(out, "control=BAM length=9 packets=2 pgn=AC") {
		t.Errorf("FormatFrame(BAM) = %s", out)
	}

	pdu2 := NewFrame(NewID(0x18FEF7EA), [PDUMaxLength]byte{})
	if out := FormatFrame(pdu2); !strings.Contains(out, "da=--") {
		t.Errorf("FormatFrame(PDU2) = %s", out)
	}
}

func TestFormatMessage(t *testing.T) {
	m := &Message{Source: 0x21, PGN: PGNDiagnosticMessage1, Data: make([]byte, 20), Timestamp: time.Now()}
	out := FormatMessage(m)
	if !strings.Contains(out, "DM1") || !strings.Contains(out, "len=20") {
		t.Errorf("FormatMessage = %s", out)
	}
	if strings.Count(out, "\n") != 3 {
		t.Errorf("FormatMessage should have a header and two dump lines:\n%s", out)
	}
}

func TestFormatControl(t *testing.T) {
	tests := map[uint8]string{
		ControlRequestToSend:     "RTS",
		ControlClearToSend:       "CTS",
		ControlEndOfMessageAck:   "EOMA",
		ControlBroadcastAnnounce: "BAM",
		ControlAbort:             "ABORT",
		0x42:                     "UNKNOWN(0x42)",
	}
	for control, want := range tests {
		if got := FormatControl(control); got != want {
			t.Errorf("FormatControl(0x%02X) = %q, want %q", control, got, want)
		}
	}
	if got := FormatAckControl(AckDenied); got != "ACCESS_DENIED" {
		t.Errorf("FormatAckControl = %q", got)
	}
	if got := FormatPGN(0x12300); got != "UNKNOWN" {
		t.Errorf("FormatPGN = %q", got)
	}
}
