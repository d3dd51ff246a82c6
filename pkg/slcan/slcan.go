// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package slcan implements the Lawicel serial-line CAN (SLCAN) ASCII
// protocol used by USB-CAN adapters.
//
// A transmitted or received extended frame is a single line:
//
//	T<id:8 hex><dlc:1 digit><data:2 hex per byte>[<timestamp:4 hex>]\r
//
// The adapter answers commands with '\r' on success and BEL (0x07) on failure.
package slcan

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// Line framing
const (
	CR  = '\r'
	BEL = 0x07
)

// Frame type characters
const (
	TypeStandard       = 't'
	TypeExtended       = 'T'
	TypeStandardRemote = 'r'
	TypeExtendedRemote = 'R'
)

// Transmit acknowledgements sent by adapters with auto-poll enabled
const (
	AckStandard = 'z'
	AckExtended = 'Z'
)

const (
	extendedIDDigits = 8
	standardIDDigits = 3
	timestampDigits  = 4

	// MaxLineLength is the longest valid line without the terminating CR
	MaxLineLength = 1 + extendedIDDigits + 1 + 2*j1939.PDUMaxLength + timestampDigits
)

// J1939Bitrate is the bus speed used by J1939 networks
const J1939Bitrate = 250000

var (
	// ErrAdapter is returned when the adapter responds with BEL
	ErrAdapter = errors.New("slcan: adapter reported an error")

	// ErrStandardFrame is returned for 11-bit frames, which carry no J1939 identifier
	ErrStandardFrame = errors.New("slcan: standard frame")

	// ErrRemoteFrame is returned for remote transmission requests
	ErrRemoteFrame = errors.New("slcan: remote frame")

	// ErrUnsupportedBitrate is returned by BitrateCommand for speeds without an S code
	ErrUnsupportedBitrate = errors.New("slcan: unsupported bitrate")
)

// bitrates maps bus speeds to the S command digit
var bitrates = map[int]byte{
	10000:   '0',
	20000:   '1',
	50000:   '2',
	100000:  '3',
	125000:  '4',
	250000:  '5',
	500000:  '6',
	800000:  '7',
	1000000: '8',
}

// EncodeFrame converts a J1939 frame into an extended SLCAN transmit line
func EncodeFrame(f j1939.Frame) []byte {
	var builder strings.Builder
	builder.Grow(MaxLineLength + 1)
	builder.WriteByte(TypeExtended)
	fmt.Fprintf(&builder, "%08X", f.ID().Raw()&j1939.IDMask)
	builder.WriteByte('0' + byte(f.Len()))
	for _, b := range f.PDU() {
		fmt.Fprintf(&builder, "%02X", b)
	}
	builder.WriteByte(CR)
	return []byte(builder.String())
}

// OpenCommand opens the channel in normal mode
func OpenCommand() []byte {
	return []byte{'O', CR}
}

// ListenOnlyCommand opens the channel without acknowledging bus traffic
func ListenOnlyCommand() []byte {
	return []byte{'L', CR}
}

// CloseCommand closes the channel
func CloseCommand() []byte {
	return []byte{'C', CR}
}

// TimestampCommand enables or disables the adapter's millisecond timestamps
func TimestampCommand(enabled bool) []byte {
	if enabled {
		return []byte{'Z', '1', CR}
	}
	return []byte{'Z', '0', CR}
}

// BitrateCommand selects one of the standard bus speeds. Must be sent while
// the channel is closed.
func BitrateCommand(bitrate int) ([]byte, error) {
	code, ok := bitrates[bitrate]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitrate, bitrate)
	}
	return []byte{'S', code, CR}, nil
}
