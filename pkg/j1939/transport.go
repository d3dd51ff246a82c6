// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Broadcast transport states
const (
	stateConnectionManagement = iota
	stateDataTransfer
)

// BroadcastTransport segments and reassembles payloads of up to 1785 bytes
// using the Broadcast Announce Message (BAM) transport protocol.
//
// A sender is created with NewBroadcastSender and drained with NextFrame.
// A receiver is created with NewBroadcastTransport and fed with FromFrame.
// A transport has a single owner and is not safe for concurrent use.
type BroadcastTransport struct {
	sa         uint8
	pgn        PGN
	data       [TransportMaxLength]byte
	dataLength int // Declared payload length
	tail       int // Bytes visible through Data
	state      int
	packet     int // Index of the next DataTransfer packet
}

// NewBroadcastTransport creates an empty transport for source address sa.
// The PGN is replaced by the one announced in a BAM frame.
func NewBroadcastTransport(sa uint8, pgn PGN) *BroadcastTransport {
	t := &BroadcastTransport{sa: sa, pgn: pgn}
	t.Reset()
	return t
}

// NewBroadcastSender creates a transport that will announce and send data
func NewBroadcastSender(sa uint8, pgn PGN, data []byte) (*BroadcastTransport, error) {
	if len(data) > TransportMaxLength {
		return nil, &TransportSizeError{Length: len(data)}
	}
	t := NewBroadcastTransport(sa, pgn)
	copy(t.data[:], data)
	t.dataLength = len(data)
	t.tail = len(data)
	return t, nil
}

// TransportSizeError reports a payload that exceeds TransportMaxLength
type TransportSizeError struct {
	Length int
}

func (e *TransportSizeError) Error() string {
	return fmt.Sprintf("%v: %d bytes (max %d)", ErrPayloadTooLarge, e.Length, TransportMaxLength)
}

// Unwrap allows errors.Is(err, ErrPayloadTooLarge)
func (e *TransportSizeError) Unwrap() error {
	return ErrPayloadTooLarge
}

// Reset discards all data and returns to the connection management state
func (t *BroadcastTransport) Reset() {
	for i := range t.data {
		t.data[i] = PDUNotAvailable
	}
	t.dataLength = 0
	t.tail = 0
	t.state = stateConnectionManagement
	t.packet = 0
}

// SourceAddress returns the address the transport sends from or listens to
func (t *BroadcastTransport) SourceAddress() uint8 {
	return t.sa
}

// PGN returns the parameter group carried by the transport
func (t *BroadcastTransport) PGN() PGN {
	return t.pgn
}

// Data returns the received or queued payload. The slice aliases the
// transport buffer and must not be modified.
func (t *BroadcastTransport) Data() []byte {
	return t.data[:t.tail]
}

// Len returns the number of bytes visible through Data
func (t *BroadcastTransport) Len() int {
	return t.tail
}

// IsEmpty reports whether no data is visible
func (t *BroadcastTransport) IsEmpty() bool {
	return t.tail == 0
}

// DeclaredLength returns the payload length announced or queued
func (t *BroadcastTransport) DeclaredLength() int {
	return t.dataLength
}

// IsComplete reports whether the visible length reached the declared length
func (t *BroadcastTransport) IsComplete() bool {
	return t.state == stateDataTransfer && t.tail == t.dataLength
}

// InSession reports whether a BAM has been sent or received
func (t *BroadcastTransport) InSession() bool {
	return t.state == stateDataTransfer
}

// PacketCount returns the number of DataTransfer packets for the declared length
func (t *BroadcastTransport) PacketCount() int {
	return (t.dataLength + TransportChunkSize - 1) / TransportChunkSize
}

// NextFrame returns the next frame to transmit. The first call returns the
// BAM frame, each later call one DataTransfer frame. After the last packet
// it returns ErrTransportComplete.
func (t *BroadcastTransport) NextFrame() (Frame, error) {
	switch t.state {
	case stateConnectionManagement:
		length := uint16(t.dataLength)
		pgn := t.pgn.ToLEBytes()

		frame := NewFrameBuilder(t.transportID(PGNTransportProtocolConnectionManagement)).
			CopyFromSlice([]byte{
				ControlBroadcastAnnounce,
				byte(length),
				byte(length >> 8),
				byte(t.PacketCount()),
				PDUNotAvailable,
				pgn[0],
				pgn[1],
				pgn[2],
			}).
			Build()

		t.state = stateDataTransfer
		t.packet = 0
		return frame, nil

	default:
		if t.packet >= t.PacketCount() {
			return Frame{}, ErrTransportComplete
		}

		start := t.packet * TransportChunkSize
		b := NewFrameBuilder(t.transportID(PGNTransportProtocolDataTransfer))
		b.pdu[0] = byte(t.packet + 1)
		copy(b.pdu[1:], t.data[start:start+TransportChunkSize])

		t.packet++
		return b.Length(PDUMaxLength).Build(), nil
	}
}

// Frames drains the transport, returning the BAM frame followed by every
// DataTransfer frame
func (t *BroadcastTransport) Frames() ([]Frame, error) {
	frames := make([]Frame, 0, t.PacketCount()+1)
	for {
		frame, err := t.NextFrame()
		if errors.Is(err, ErrTransportComplete) {
			return frames, nil
		}
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

// FromFrame feeds a received transport frame into the reassembly buffer.
//
// A BAM frame opens a session and resets the buffer. Its packet count must
// match the announced length. A DataTransfer frame
// writes its chunk at (sequence-1)*7. Completion is visible through
// IsComplete or by comparing Len with DeclaredLength.
func (t *BroadcastTransport) FromFrame(frame Frame) error {
	pdu := frame.PDU()

	switch pgn := frame.ID().PGN(); pgn {
	case PGNTransportProtocolConnectionManagement:
		if len(pdu) < PDUMaxLength {
			return malformed("connection management frame is %d bytes (need %d)", len(pdu), PDUMaxLength)
		}
		if pdu[0] != ControlBroadcastAnnounce {
			return &ProtocolError{PGN: pgn, Control: pdu[0], Reason: "unsupported connection management control"}
		}

		length := int(binary.LittleEndian.Uint16(pdu[1:3]))
		if length > TransportMaxLength {
			return malformed("announced length %d exceeds %d", length, TransportMaxLength)
		}
		if packets, want := int(pdu[3]), (length+TransportChunkSize-1)/TransportChunkSize; packets != want {
			return malformed("announced %d packets for %d bytes (need %d)", packets, length, want)
		}

		t.Reset()
		t.pgn = PGNFromLEBytes([3]byte{pdu[5], pdu[6], pdu[7]})
		t.dataLength = length
		t.state = stateDataTransfer
		return nil

	case PGNTransportProtocolDataTransfer:
		if t.state != stateDataTransfer {
			return &ProtocolError{PGN: pgn, Reason: "data transfer without announce"}
		}
		if len(pdu) < 2 {
			return malformed("data transfer frame is %d bytes", len(pdu))
		}
		sequence := int(pdu[0])
		if sequence == 0 {
			return malformed("data transfer sequence 0")
		}

		start := (sequence - 1) * TransportChunkSize
		end := start + copy(t.data[start:], pdu[1:])
		t.tail = min(t.dataLength, end)
		return nil

	default:
		return &ProtocolError{PGN: pgn, Reason: "not a transport protocol frame"}
	}
}

func (t *BroadcastTransport) transportID(pgn PGN) ID {
	return NewIDBuilder(pgn).
		Priority(PriorityLowest).
		SourceAddress(t.sa).
		DestinationAddress(AddressGlobal).
		Build()
}
