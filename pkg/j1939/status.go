// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

// Two-bit discrete parameter states
const (
	StatusOff          = 0b00
	StatusOn           = 0b01
	StatusError        = 0b10
	StatusNotAvailable = 0b11
)

// StatusFromValue decodes the low two bits of a discrete parameter.
// ok is false for the error and not-available states.
func StatusFromValue(value uint8) (on bool, ok bool) {
	switch value & 0b11 {
	case StatusOff:
		return false, true
	case StatusOn:
		return true, true
	default:
		return false, false
	}
}

// StatusToValue encodes a discrete parameter. nil encodes not available.
func StatusToValue(value *bool) uint8 {
	switch {
	case value == nil:
		return StatusNotAvailable
	case *value:
		return StatusOn
	default:
		return StatusOff
	}
}

// BoolPtr returns a pointer to v
func BoolPtr(v bool) *bool {
	return &v
}

// Float32Ptr returns a pointer to v
func Float32Ptr(v float32) *float32 {
	return &v
}
