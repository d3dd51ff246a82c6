// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package slcan

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// Decoder states
const (
	stateLine = iota
	stateDiscard
)

// Decoder splits an SLCAN byte stream into lines and parses received frames
type Decoder struct {
	state     int
	buffer    []byte
	timestamp uint16
	stamped   bool
}

// NewDecoder creates a new line decoder
func NewDecoder() *Decoder {
	return &Decoder{
		state:  stateLine,
		buffer: make([]byte, 0, MaxLineLength),
	}
}

// Reset discards any partial line
func (d *Decoder) Reset() {
	d.state = stateLine
	d.buffer = d.buffer[:0]
}

// AdapterTimestamp returns the millisecond timestamp (0-59999) the adapter
// attached to the last decoded frame, if timestamps are enabled.
func (d *Decoder) AdapterTimestamp() (uint16, bool) {
	return d.timestamp, d.stamped
}

// DecodeByte processes a single byte of the stream
// Returns a completed frame, or nil if the line is incomplete or carries no frame
// Returns an error for adapter errors and lines that cannot be parsed
func (d *Decoder) DecodeByte(b byte) (*j1939.Frame, error) {
	switch b {
	case BEL:
		d.Reset()
		return nil, ErrAdapter
	case '\n':
		return nil, nil
	case CR:
		overflow := d.state == stateDiscard
		line := string(d.buffer)
		d.Reset()
		if overflow {
			return nil, malformed("line exceeds %d bytes", MaxLineLength)
		}
		return d.parseLine(line)
	}

	if d.state == stateDiscard {
		return nil, nil
	}
	if len(d.buffer) >= MaxLineLength {
		d.state = stateDiscard
		return nil, nil
	}
	d.buffer = append(d.buffer, b)
	return nil, nil
}

// parseLine handles one CR-terminated line
func (d *Decoder) parseLine(line string) (*j1939.Frame, error) {
	if len(line) == 0 {
		// Bare CR acknowledges a command
		return nil, nil
	}

	switch line[0] {
	case TypeExtended:
		return d.parseExtended(line[1:])
	case TypeStandard:
		return nil, fmt.Errorf("%w: %q", ErrStandardFrame, line)
	case TypeStandardRemote, TypeExtendedRemote:
		return nil, fmt.Errorf("%w: %q", ErrRemoteFrame, line)
	default:
		// Transmit acknowledgements and version or serial number replies
		return nil, nil
	}
}

func (d *Decoder) parseExtended(body string) (*j1939.Frame, error) {
	if len(body) < extendedIDDigits+1 {
		return nil, malformed("extended frame too short: %q", body)
	}

	raw, err := strconv.ParseUint(body[:extendedIDDigits], 16, 32)
	if err != nil {
		return nil, malformed("invalid identifier %q", body[:extendedIDDigits])
	}
	if raw > j1939.IDMask {
		return nil, malformed("identifier 0x%X exceeds 29 bits", raw)
	}

	dlc := body[extendedIDDigits]
	if dlc < '0' || dlc > '0'+j1939.PDUMaxLength {
		return nil, malformed("invalid length code %q", dlc)
	}
	length := int(dlc - '0')

	rest := body[extendedIDDigits+1:]
	if len(rest) < 2*length {
		return nil, malformed("expected %d data bytes, got %d hex digits", length, len(rest))
	}
	data, err := hex.DecodeString(rest[:2*length])
	if err != nil {
		return nil, malformed("invalid data %q", rest[:2*length])
	}

	switch tail := rest[2*length:]; len(tail) {
	case 0:
		d.stamped = false
	case timestampDigits:
		ts, err := strconv.ParseUint(tail, 16, 16)
		if err != nil {
			return nil, malformed("invalid timestamp %q", tail)
		}
		d.timestamp, d.stamped = uint16(ts), true
	default:
		return nil, malformed("unexpected trailing characters %q", tail)
	}

	frame, err := j1939.ParseFrame(j1939.NewID(uint32(raw)), data)
	if err != nil {
		return nil, err
	}
	frame = frame.WithTimestamp(time.Now())
	return &frame, nil
}

// malformed wraps j1939.ErrMalformed with a formatted context message
func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("slcan: %s: %w", fmt.Sprintf(format, args...), j1939.ErrMalformed)
}
