// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

// Request builds a PGN request from sa to da
func Request(da, sa uint8, pgn PGN) Frame {
	id := NewIDBuilder(PGNRequest).SourceAddress(sa).DestinationAddress(da).Build()
	b := pgn.ToLEBytes()
	return NewFrameBuilder(id).CopyFromSlice(b[:]).Build()
}

// RequestFromPDU extracts the requested PGN from a request payload
func RequestFromPDU(pdu []byte) (PGN, error) {
	return ReadPGN(pdu)
}

// AddressClaimed builds an Address Claimed frame announcing name at sa
func AddressClaimed(sa uint8, name Name) Frame {
	id := NewIDBuilder(PGNAddressClaimed).SourceAddress(sa).DestinationAddress(AddressGlobal).Build()
	b := name.Bytes()
	return NewFrameBuilder(id).CopyFromSlice(b[:]).Build()
}

// CannotClaimAddress builds the Address Claimed frame sent from the null
// address by a node that failed to claim
func CannotClaimAddress(name Name) Frame {
	return AddressClaimed(AddressNull, name)
}

// Acknowledgement builds an acknowledgement of pgn with control byte 0x01
func Acknowledgement(sa uint8, pgn PGN) Frame {
	return AcknowledgementWithControl(sa, pgn, AckNegative)
}

// AcknowledgementWithControl builds an acknowledgement of pgn with the given control byte
func AcknowledgementWithControl(sa uint8, pgn PGN, control uint8) Frame {
	id := NewIDBuilder(PGNAcknowledgement).SourceAddress(sa).DestinationAddress(AddressGlobal).Build()
	b := pgn.ToLEBytes()
	return NewFrameBuilder(id).
		CopyFromSlice([]byte{
			control,
			PDUNotAvailable,
			PDUNotAvailable,
			PDUNotAvailable,
			PDUNotAvailable,
			b[0],
			b[1],
			b[2],
		}).
		Build()
}

// AcknowledgementFromPDU returns the control byte and acknowledged PGN
func AcknowledgementFromPDU(pdu []byte) (control uint8, pgn PGN, err error) {
	if len(pdu) < PDUMaxLength {
		return 0, 0, malformed("acknowledgement requires %d bytes, got %d", PDUMaxLength, len(pdu))
	}
	pgn, err = ReadPGN(pdu[5:])
	return pdu[0], pgn, err
}

// CommandedAddress builds the BAM sequence that assigns address to the
// node identified by name
func CommandedAddress(sa uint8, name Name, address uint8) ([3]Frame, error) {
	var frames [3]Frame

	b := name.Bytes()
	t, err := NewBroadcastSender(sa, PGNCommandedAddress, append(b[:], address))
	if err != nil {
		return frames, err
	}

	for i := range frames {
		if frames[i], err = t.NextFrame(); err != nil {
			return frames, err
		}
	}
	return frames, nil
}

// CommandedAddressFromData parses a reassembled Commanded Address payload
func CommandedAddressFromData(data []byte) (Name, uint8, error) {
	if len(data) < PDUMaxLength+1 {
		return Name{}, 0, malformed("commanded address requires %d bytes, got %d", PDUMaxLength+1, len(data))
	}
	name, err := ParseName(data)
	return name, data[PDUMaxLength], err
}
