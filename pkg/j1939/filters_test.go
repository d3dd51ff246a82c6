// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import "testing"

func TestBitMaskFilters(t *testing.T) {
	request := NewID(0x18EA2010)
	vep1 := NewID(0x18FEF7EA)

	tests := []struct {
		name   string
		filter BitMaskFilter
		id     ID
		want   bool
	}{
		{"destination match", DestinationAddressFilter(0x20), request, true},
		{"destination miss", DestinationAddressFilter(0x21), request, false},
		{"source match", SourceAddressFilter(0x10), request, true},
		{"source miss", SourceAddressFilter(0x11), request, false},
		{"PDU1 pgn ignores destination", PGNFilter(PGNRequest), NewID(0x18EAFF00), true},
		{"PDU1 pgn miss", PGNFilter(PGNAddressClaimed), request, false},
		{"PDU2 pgn match", PGNFilter(PGNVehicleElectricalPower1), vep1, true},
		{"PDU2 pgn miss", PGNFilter(PGNEngineTemperature1), vep1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.id); got != tt.want {
				t.Errorf("Match(0x%X) = %t, want %t", tt.id.Raw(), got, tt.want)
			}
		})
	}
}

func TestFrameFilters(t *testing.T) {
	request, _ := ParseFrame(NewID(0x18EA2010), []byte{0x00, 0xEE, 0x00})
	global, _ := ParseFrame(NewID(0x18EAFF00), []byte{0x00, 0xEE, 0x00})
	vep1 := NewFrame(NewID(0x18FEF7EA), [PDUMaxLength]byte{})
	dt := NewFrame(NewID(0x1CEBFF01), [PDUMaxLength]byte{})

	tests := []struct {
		name   string
		filter FrameFilter
		frame  Frame
		want   bool
	}{
		{"by pgn", ByPGN(PGNRequest, PGNVehicleElectricalPower1), vep1, true},
		{"by pgn miss", ByPGN(PGNRequest), vep1, false},
		{"by source", BySource(0xEA), vep1, true},
		{"by destination", ByDestination(0x20), request, true},
		{"by destination global", ByDestination(0x30), global, true},
		{"by destination PDU2", ByDestination(0x30), vep1, true},
		{"by destination miss", ByDestination(0x30), request, false},
		{"transport only", TransportOnly(), dt, true},
		{"transport only miss", TransportOnly(), vep1, false},
		{"and", And(BySource(0x10), ByPGN(PGNRequest)), request, true},
		{"and miss", And(BySource(0x11), ByPGN(PGNRequest)), request, false},
		{"or", Or(BySource(0x11), ByPGN(PGNRequest)), request, true},
		{"not", Not(TransportOnly()), vep1, true},
		{"by mask", ByMask(SourceAddressFilter(0x01)), dt, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter(tt.frame); got != tt.want {
				t.Errorf("filter = %t, want %t", got, tt.want)
			}
		})
	}
}
