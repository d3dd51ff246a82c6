// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import "fmt"

// PDUKind discriminates destination specific (PDU1) from broadcast (PDU2) formats
type PDUKind uint8

const (
	PDU1 PDUKind = iota + 1
	PDU2
)

func (k PDUKind) String() string {
	switch k {
	case PDU1:
		return "PDU1"
	case PDU2:
		return "PDU2"
	default:
		return "UNKNOWN"
	}
}

// PDUFormat is the PDU format byte tagged with its kind
type PDUFormat struct {
	kind  PDUKind
	value uint8
}

// NewPDUFormat classifies a PDU format byte
func NewPDUFormat(value uint8) PDUFormat {
	if value < PDU2Threshold {
		return PDUFormat{kind: PDU1, value: value}
	}
	return PDUFormat{kind: PDU2, value: value}
}

// Kind returns PDU1 or PDU2
func (f PDUFormat) Kind() PDUKind {
	return f.kind
}

// Value returns the raw PDU format byte
func (f PDUFormat) Value() uint8 {
	return f.value
}

// IsPDU1 reports whether the format is destination specific
func (f PDUFormat) IsPDU1() bool {
	return f.kind == PDU1
}

func (f PDUFormat) String() string {
	return fmt.Sprintf("%s(0x%02X)", f.kind, f.value)
}

// ID is a 29-bit J1939 CAN identifier
//
//	bits 28-26  priority
//	bit  25     extended data page
//	bit  24     data page
//	bits 23-16  PDU format
//	bits 15-8   PDU specific (destination address or group extension)
//	bits 7-0    source address
type ID struct {
	raw uint32
}

// NewID creates an identifier, masking raw to 29 bits
func NewID(raw uint32) ID {
	return ID{raw: raw & IDMask}
}

// Raw returns the identifier as a 29-bit integer
func (id ID) Raw() uint32 {
	return id.raw
}

// Priority ranges from 0 (highest) to 7 (lowest)
func (id ID) Priority() uint8 {
	return uint8(id.raw>>26) & 0x07
}

// ExtendedDataPage returns bit 25
func (id ID) ExtendedDataPage() uint8 {
	return uint8(id.raw>>25) & 0x01
}

// DataPage returns bit 24
func (id ID) DataPage() uint8 {
	return uint8(id.raw>>24) & 0x01
}

// PDUFormat returns the PDU format byte and its kind
func (id ID) PDUFormat() PDUFormat {
	return NewPDUFormat(uint8(id.raw >> 16))
}

// PDUSpecific returns bits 15-8
func (id ID) PDUSpecific() uint8 {
	return uint8(id.raw >> 8)
}

// PGN returns the parameter group number. For PDU1 frames the destination
// address byte is zeroed.
func (id ID) PGN() PGN {
	if id.PDUFormat().IsPDU1() {
		return PGN(id.raw>>8) & (PGNMask &^ 0xFF)
	}
	return PGN(id.raw>>8) & PGNMask
}

// DestinationAddress returns the destination on PDU1 frames
func (id ID) DestinationAddress() (uint8, bool) {
	if id.PDUFormat().IsPDU1() {
		return id.PDUSpecific(), true
	}
	return 0, false
}

// GroupExtension returns the group extension on PDU2 frames
func (id ID) GroupExtension() (uint8, bool) {
	if id.PDUFormat().IsPDU1() {
		return 0, false
	}
	return id.PDUSpecific(), true
}

// SourceAddress returns bits 7-0
func (id ID) SourceAddress() uint8 {
	return uint8(id.raw)
}

// IsBroadcast reports whether every node is addressed: always for PDU2,
// and for PDU1 when the destination is the global address.
func (id ID) IsBroadcast() bool {
	da, ok := id.DestinationAddress()
	return !ok || da == AddressGlobal
}

func (id ID) String() string {
	if da, ok := id.DestinationAddress(); ok {
		return fmt.Sprintf("[0x%X] Prio: %d PGN: %d DA: 0x%X", id.raw, id.Priority(), uint32(id.PGN()), da)
	}
	return fmt.Sprintf("[0x%X] Prio: %d PGN: %d", id.raw, id.Priority(), uint32(id.PGN()))
}
