// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned when input is shorter than a decode requires
	// or a length field is outside the protocol limits.
	ErrMalformed = errors.New("malformed input")

	// ErrProtocolViolation is returned when a frame is not valid in the
	// current transport state.
	ErrProtocolViolation = errors.New("protocol violation")

	// ErrTransportComplete is returned by NextFrame once every packet has been emitted.
	ErrTransportComplete = errors.New("transport complete")

	// ErrPayloadTooLarge is returned when a transport payload exceeds TransportMaxLength.
	ErrPayloadTooLarge = errors.New("payload too large")
)

// ProtocolError describes a transport frame that was rejected
type ProtocolError struct {
	PGN     PGN
	Control byte
	Reason  string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%v: %s (pgn=%s control=0x%02X)", ErrProtocolViolation, e.Reason, e.PGN, e.Control)
}

// Unwrap allows errors.Is(err, ErrProtocolViolation)
func (e *ProtocolError) Unwrap() error {
	return ErrProtocolViolation
}

// malformed wraps ErrMalformed with a formatted context message
func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformed)
}
