// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package j1939 provides a Go implementation of the SAE J1939 application layer.
//
// J1939 runs over 29-bit extended CAN identifiers and is used by engines,
// transmissions and body controllers in heavy vehicles. This package provides
// identifier packing, frames, the parameter group number table, the linear
// slot codec used by physical signals, and the broadcast (BAM) transport
// protocol that carries payloads larger than a single frame.
//
// The package performs no I/O. A bus link supplies frames in and consumes
// built frames out.
package j1939

// Reserved payload values
const (
	PDUNotAvailable = 0xFF // All bits set: parameter not available
	PDUError        = 0xFE // Parameter error indicator
)

// Size limits
const (
	PDUMaxLength       = 8    // Bytes in a single CAN frame
	TransportMaxLength = 1785 // 255 packets * 7 bytes
	TransportChunkSize = 7    // Payload bytes carried per DataTransfer packet
	TransportMaxPacket = 255
)

// Special addresses
const (
	AddressGlobal = 0xFF // Broadcast destination
	AddressNull   = 0xFE // Source address of a node without a claimed address
)

// Identifier field limits
const (
	IDMask        = 0x1FFFFFFF
	PGNMask       = 0x3FFFF
	PDU2Threshold = 240 // PDU format values at or above this are PDU2
	MaxPriority   = 7
)

// Default priorities
const (
	PriorityControl = 3 // Control frames, e.g. torque/speed control
	PriorityDefault = 6 // Informational, proprietary, request and acknowledgement frames
	PriorityLowest  = 7
)

// Transport connection management control bytes
const (
	ControlRequestToSend     = 0x10
	ControlClearToSend       = 0x11
	ControlEndOfMessageAck   = 0x13
	ControlBroadcastAnnounce = 0x20
	ControlAbort             = 0xFF
)

// Acknowledgement control bytes
const (
	AckPositive = 0x00
	AckNegative = 0x01
	AckDenied   = 0x02
	AckBusy     = 0x03
)
