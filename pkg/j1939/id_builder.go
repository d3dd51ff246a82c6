// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

// IDBuilder assembles an identifier from a PGN and addressing fields.
// Defaults are priority 6 and addresses 0.
type IDBuilder struct {
	priority uint8
	pgn      PGN
	sa       uint8
	da       uint8
}

// NewIDBuilder starts an identifier for pgn
func NewIDBuilder(pgn PGN) IDBuilder {
	return IDBuilder{
		priority: PriorityDefault,
		pgn:      pgn & PGNMask,
	}
}

// Priority sets the priority, clamping values above 7
func (b IDBuilder) Priority(priority uint8) IDBuilder {
	b.priority = min(priority, MaxPriority)
	return b
}

// SourceAddress sets the sender address
func (b IDBuilder) SourceAddress(address uint8) IDBuilder {
	b.sa = address
	return b
}

// DestinationAddress sets the destination. It is ignored for PDU2 PGNs.
func (b IDBuilder) DestinationAddress(address uint8) IDBuilder {
	b.da = address
	return b
}

// Build packs the identifier
func (b IDBuilder) Build() ID {
	raw := uint32(b.priority)<<26 | uint32(b.pgn)<<8 | uint32(b.sa)

	// PDU2 PDU specific byte is the group extension, not an address
	if NewID(raw).PDUFormat().IsPDU1() {
		raw |= uint32(b.da) << 8
	}

	return NewID(raw)
}
