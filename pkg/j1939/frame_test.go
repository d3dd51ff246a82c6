// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

// ============================================================
// Frame Tests
// ============================================================

func TestNewFrame(t *testing.T) {
	id := NewID(0x18FEF7EA)
	f := NewFrame(id, [PDUMaxLength]byte{1, 2, 3, 4, 5, 6, 7, 8})
	if f.ID() != id {
		t.Errorf("ID = %v, want %v", f.ID(), id)
	}
	if f.Len() != PDUMaxLength {
		t.Errorf("Len = %d, want %d", f.Len(), PDUMaxLength)
	}
	if !bytes.Equal(f.PDU(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Errorf("PDU = %v", f.PDU())
	}
	if f.IsEmpty() {
		t.Error("Full frame should not be empty")
	}
}

func TestParseFrame(t *testing.T) {
	id := NewID(0x18EA2010)

	f, err := ParseFrame(id, []byte{0x00, 0xEE, 0x00})
	if err != nil {
		t.Fatalf("ParseFrame error: %v", err)
	}
	if f.Len() != 3 {
		t.Errorf("Len = %d, want 3", f.Len())
	}

	empty, err := ParseFrame(id, nil)
	if err != nil {
		t.Fatalf("ParseFrame(nil) error: %v", err)
	}
	if !empty.IsEmpty() {
		t.Error("Frame without data should be empty")
	}

	if _, err := ParseFrame(id, make([]byte, 9)); !errors.Is(err, ErrMalformed) {
		t.Errorf("ParseFrame(9 bytes) error = %v, want ErrMalformed", err)
	}
}

func TestFrame_String(t *testing.T) {
	f, _ := ParseFrame(NewID(0x18EA2010), []byte{0x00, 0xEE, 0x00})
	want := "[0x18EA2010] Prio: 6 PGN: 59904 DA: 0x20    [00 EE 00]"
	if got := f.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestFrame_WithTimestamp(t *testing.T) {
	f := NewFrame(NewID(0x18FEF7EA), [PDUMaxLength]byte{})
	if !f.Timestamp().IsZero() {
		t.Error("Locally built frame should have no timestamp")
	}
	now := time.Unix(1700000000, 0)
	stamped := f.WithTimestamp(now)
	if !stamped.Timestamp().Equal(now) {
		t.Errorf("Timestamp = %v, want %v", stamped.Timestamp(), now)
	}
	if !f.Timestamp().IsZero() {
		t.Error("WithTimestamp should not modify the original frame")
	}
}

// ============================================================
// Frame Builder Tests
// ============================================================

func TestFrameBuilder(t *testing.T) {
	id := NewID(0x18FEF7EA)

	t.Run("empty", func(t *testing.T) {
		f := NewFrameBuilder(id).Build()
		if !f.IsEmpty() {
			t.Errorf("Len = %d, want 0", f.Len())
		}
	})

	t.Run("copy from slice", func(t *testing.T) {
		f := NewFrameBuilder(id).CopyFromSlice([]byte{1, 2}).Build()
		if !bytes.Equal(f.PDU(), []byte{1, 2}) {
			t.Errorf("PDU = %v, want [1 2]", f.PDU())
		}
	})

	t.Run("copy truncates", func(t *testing.T) {
		f := NewFrameBuilder(id).CopyFromSlice([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}).Build()
		if f.Len() != PDUMaxLength {
			t.Errorf("Len = %d, want %d", f.Len(), PDUMaxLength)
		}
	})

	t.Run("length pads with not available", func(t *testing.T) {
		f := NewFrameBuilder(id).CopyFromSlice([]byte{1}).Length(4).Build()
		if !bytes.Equal(f.PDU(), []byte{1, 0xFF, 0xFF, 0xFF}) {
			t.Errorf("PDU = %v, want [1 255 255 255]", f.PDU())
		}
	})

	t.Run("length clamped", func(t *testing.T) {
		if f := NewFrameBuilder(id).Length(20).Build(); f.Len() != PDUMaxLength {
			t.Errorf("Len = %d, want %d", f.Len(), PDUMaxLength)
		}
		if f := NewFrameBuilder(id).Length(-1).Build(); f.Len() != 0 {
			t.Errorf("Len = %d, want 0", f.Len())
		}
	})

	t.Run("set byte", func(t *testing.T) {
		f := NewFrameBuilder(id).Length(3).SetByte(1, 0x42).SetByte(8, 0x01).Build()
		if !bytes.Equal(f.PDU(), []byte{0xFF, 0x42, 0xFF}) {
			t.Errorf("PDU = %v", f.PDU())
		}
	})

	t.Run("replace id", func(t *testing.T) {
		other := NewID(0x18EA2010)
		if f := NewFrameBuilder(id).ID(other).Build(); f.ID() != other {
			t.Errorf("ID = %v, want %v", f.ID(), other)
		}
	})
}
