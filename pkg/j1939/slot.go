// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"math"
	"unsafe"
)

// Raw is the set of fixed-width integers a slot can be carried in
type Raw interface {
	~uint8 | ~uint16 | ~uint32 | ~int8 | ~int16 | ~int32
}

// Slot is a linear transfer function between a raw integer of type T and a
// physical value: value = raw*Scale + Offset, clamped to [Lower, Upper].
// The all-bits-set raw pattern means "not available".
type Slot[T Raw] struct {
	Scale  float32
	Offset float32
	Lower  float32
	Upper  float32
}

// NotAvailable returns the all-bits-set sentinel for T
func (s Slot[T]) NotAvailable() T {
	return ^T(0)
}

// Width returns the raw width in bytes
func (s Slot[T]) Width() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// Decode converts a raw value. ok is false when raw is the sentinel.
func (s Slot[T]) Decode(raw T) (value float32, ok bool) {
	if raw == s.NotAvailable() {
		return 0, false
	}
	// Explicit conversion keeps the multiply rounded to float32 before the add
	v := float32(float32(raw)*s.Scale) + s.Offset
	return s.clamp(v), true
}

// Encode converts a physical value to raw. A nil value encodes the sentinel.
// The inverse transform of the clamped value is truncated toward zero and
// saturated to the range of T. A quotient within float32 rounding error of
// an integer is taken as that integer, so every decoded value encodes back
// to its own raw.
func (s Slot[T]) Encode(value *float32) T {
	if value == nil || math.IsNaN(float64(*value)) {
		return s.NotAvailable()
	}
	v := float64(s.clamp(*value))
	offset := float64(s.Offset)
	scale := float64(s.Scale)
	r := (v - offset) / scale

	// Decode rounds twice to float32, each within half an ulp
	tolerance := 2 * (math.Abs(v) + math.Abs(offset)) * float32Epsilon / scale
	if n := math.Round(r); math.Abs(r-n) <= tolerance {
		return s.saturate(n)
	}
	return s.saturate(math.Trunc(r))
}

// float32Epsilon is half the float32 ulp at 1.0
const float32Epsilon = 1.0 / (1 << 24)

// EncodeValue encodes a value that is known to be available
func (s Slot[T]) EncodeValue(value float32) T {
	return s.Encode(&value)
}

// DecodeBytes decodes a little-endian raw value from the start of b
func (s Slot[T]) DecodeBytes(b []byte) (float32, bool, error) {
	raw, err := s.readRaw(b)
	if err != nil {
		return 0, false, err
	}
	v, ok := s.Decode(raw)
	return v, ok, nil
}

// EncodeBytes writes the little-endian raw value to the start of dst
func (s Slot[T]) EncodeBytes(dst []byte, value *float32) error {
	width := s.Width()
	if len(dst) < width {
		return malformed("slot requires %d bytes, got %d", width, len(dst))
	}
	u := uint64(s.Encode(value))
	for i := 0; i < width; i++ {
		dst[i] = byte(u >> (8 * i))
	}
	return nil
}

func (s Slot[T]) readRaw(b []byte) (T, error) {
	width := s.Width()
	if len(b) < width {
		return 0, malformed("slot requires %d bytes, got %d", width, len(b))
	}
	var u uint64
	for i := 0; i < width; i++ {
		u |= uint64(b[i]) << (8 * i)
	}
	return T(u), nil
}

func (s Slot[T]) clamp(v float32) float32 {
	if v < s.Lower {
		return s.Lower
	}
	if v > s.Upper {
		return s.Upper
	}
	return v
}

// saturate converts an integral float64 to T, limiting it to T's range
func (s Slot[T]) saturate(r float64) T {
	bits := 8 * s.Width()
	var lo, hi float64
	if s.NotAvailable() < 0 {
		lo = -math.Ldexp(1, bits-1)
		hi = math.Ldexp(1, bits-1) - 1
	} else {
		hi = math.Ldexp(1, bits) - 1
	}
	if r < lo {
		r = lo
	} else if r > hi {
		r = hi
	}
	return T(int64(r))
}
