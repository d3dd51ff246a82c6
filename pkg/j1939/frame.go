// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"fmt"
	"strings"
	"time"
)

// Frame is an identifier with up to 8 payload bytes
type Frame struct {
	id        ID
	pdu       [PDUMaxLength]byte
	length    int
	timestamp time.Time
}

// NewFrame creates a full-length frame
func NewFrame(id ID, pdu [PDUMaxLength]byte) Frame {
	return Frame{id: id, pdu: pdu, length: PDUMaxLength}
}

// ParseFrame creates a frame from untrusted bus data
func ParseFrame(id ID, data []byte) (Frame, error) {
	if len(data) > PDUMaxLength {
		return Frame{}, malformed("frame payload is %d bytes (max %d)", len(data), PDUMaxLength)
	}
	return NewFrameBuilder(id).CopyFromSlice(data).Build(), nil
}

// ID returns the frame identifier
func (f Frame) ID() ID {
	return f.id
}

// PDU returns the used portion of the payload
func (f Frame) PDU() []byte {
	return f.pdu[:f.length]
}

// Len returns the payload length
func (f Frame) Len() int {
	return f.length
}

// IsEmpty reports whether the payload has no bytes
func (f Frame) IsEmpty() bool {
	return f.length == 0
}

// Timestamp returns the receive time, zero for locally built frames
func (f Frame) Timestamp() time.Time {
	return f.timestamp
}

// WithTimestamp returns a copy of the frame stamped with t
func (f Frame) WithTimestamp(t time.Time) Frame {
	f.timestamp = t
	return f
}

func (f Frame) String() string {
	return fmt.Sprintf("%s    %s", f.id, formatBytes(f.PDU()))
}

// formatBytes renders bytes as [01 02 03]
func formatBytes(b []byte) string {
	var s strings.Builder
	s.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			s.WriteByte(' ')
		}
		fmt.Fprintf(&s, "%02X", v)
	}
	s.WriteByte(']')
	return s.String()
}

// FrameBuilder assembles a frame. Unused payload bytes are 0xFF.
type FrameBuilder struct {
	id     ID
	pdu    [PDUMaxLength]byte
	length int
}

// NewFrameBuilder starts a frame with an empty payload
func NewFrameBuilder(id ID) *FrameBuilder {
	b := &FrameBuilder{id: id}
	for i := range b.pdu {
		b.pdu[i] = PDUNotAvailable
	}
	return b
}

// ID replaces the frame identifier
func (b *FrameBuilder) ID(id ID) *FrameBuilder {
	b.id = id
	return b
}

// CopyFromSlice copies src into the payload and sets the length.
// Bytes beyond the eighth are dropped.
func (b *FrameBuilder) CopyFromSlice(src []byte) *FrameBuilder {
	b.length = copy(b.pdu[:], src)
	return b
}

// SetByte writes a single payload byte without changing the length
func (b *FrameBuilder) SetByte(index int, value byte) *FrameBuilder {
	if index >= 0 && index < PDUMaxLength {
		b.pdu[index] = value
	}
	return b
}

// Length sets the payload length, clamped to 0..8
func (b *FrameBuilder) Length(n int) *FrameBuilder {
	b.length = max(0, min(n, PDUMaxLength))
	return b
}

// Build returns the frame
func (b *FrameBuilder) Build() Frame {
	return Frame{id: b.id, pdu: b.pdu, length: b.length}
}
