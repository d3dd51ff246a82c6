// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"bytes"
	"errors"
	"testing"
)

// ============================================================
// Request Tests
// ============================================================

func TestRequest(t *testing.T) {
	f := Request(0x20, 0x10, PGNAddressClaimed)
	if f.ID().Raw() != 0x18EA2010 {
		t.Errorf("ID = 0x%X, want 0x18EA2010", f.ID().Raw())
	}
	if !bytes.Equal(f.PDU(), []byte{0x00, 0xEE, 0x00}) {
		t.Errorf("PDU = % X, want 00 EE 00", f.PDU())
	}

	pgn, err := RequestFromPDU(f.PDU())
	if err != nil {
		t.Fatalf("RequestFromPDU error: %v", err)
	}
	if pgn != PGNAddressClaimed {
		t.Errorf("requested PGN = %s, want AC", pgn)
	}
}

func TestRequest_Global(t *testing.T) {
	f := Request(AddressGlobal, 0x00, PGNVehicleElectricalPower1)
	if f.ID().Raw() != 0x18EAFF00 {
		t.Errorf("ID = 0x%X, want 0x18EAFF00", f.ID().Raw())
	}
	if !f.ID().IsBroadcast() {
		t.Error("Global request should be broadcast")
	}
}

// ============================================================
// Address Claimed Tests
// ============================================================

func TestAddressClaimed(t *testing.T) {
	f := AddressClaimed(0x10, testName)
	if f.ID().Raw() != 0x18EEFF10 {
		t.Errorf("ID = 0x%X, want 0x18EEFF10", f.ID().Raw())
	}
	want := testName.Bytes()
	if !bytes.Equal(f.PDU(), want[:]) {
		t.Errorf("PDU = % X, want % X", f.PDU(), want)
	}
	got, err := ParseName(f.PDU())
	if err != nil || got != testName {
		t.Errorf("ParseName = (%+v, %v)", got, err)
	}
}

func TestCannotClaimAddress(t *testing.T) {
	f := CannotClaimAddress(testName)
	if f.ID().SourceAddress() != AddressNull {
		t.Errorf("SourceAddress = 0x%02X, want 0xFE", f.ID().SourceAddress())
	}
}

// ============================================================
// Acknowledgement Tests
// ============================================================

func TestAcknowledgement(t *testing.T) {
	f := Acknowledgement(0x10, PGNVehicleElectricalPower1)
	want := []byte{0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0xF7, 0xFE, 0x00}
	if !bytes.Equal(f.PDU(), want) {
		t.Errorf("PDU = % X, want % X", f.PDU(), want)
	}
	if f.ID().PGN() != PGNAcknowledgement {
		t.Errorf("PGN = %s, want ACKM", f.ID().PGN())
	}

	control, pgn, err := AcknowledgementFromPDU(f.PDU())
	if err != nil {
		t.Fatalf("AcknowledgementFromPDU error: %v", err)
	}
	if control != AckNegative || pgn != PGNVehicleElectricalPower1 {
		t.Errorf("AcknowledgementFromPDU = (0x%02X, %s)", control, pgn)
	}
}

func TestAcknowledgementWithControl(t *testing.T) {
	f := AcknowledgementWithControl(0x10, PGNRequest, AckBusy)
	if f.PDU()[0] != AckBusy {
		t.Errorf("control = 0x%02X, want 0x03", f.PDU()[0])
	}
	if _, _, err := AcknowledgementFromPDU(f.PDU()[:5]); !errors.Is(err, ErrMalformed) {
		t.Errorf("short payload error = %v, want ErrMalformed", err)
	}
}

// ============================================================
// Commanded Address Tests
// ============================================================

func TestCommandedAddress(t *testing.T) {
	frames, err := CommandedAddress(0xF9, testName, 0x42)
	if err != nil {
		t.Fatalf("CommandedAddress error: %v", err)
	}
	if frames[0].ID().PGN() != PGNTransportProtocolConnectionManagement {
		t.Errorf("first frame PGN = %s, want TP.CM", frames[0].ID().PGN())
	}

	rx := NewBroadcastTransport(0xF9, 0)
	for _, f := range frames {
		if err := rx.FromFrame(f); err != nil {
			t.Fatalf("FromFrame error: %v", err)
		}
	}
	if rx.PGN() != PGNCommandedAddress || !rx.IsComplete() {
		t.Fatalf("reassembly PGN=%s complete=%t", rx.PGN(), rx.IsComplete())
	}

	name, address, err := CommandedAddressFromData(rx.Data())
	if err != nil {
		t.Fatalf("CommandedAddressFromData error: %v", err)
	}
	if name != testName || address != 0x42 {
		t.Errorf("CommandedAddressFromData = (%+v, 0x%02X)", name, address)
	}
}
