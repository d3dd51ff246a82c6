// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package canlink

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"go.einride.tech/can"
)

// SocketCAN struct can_frame layout (little-endian):
//
//	0..3  can_id with EFF/RTR/ERR flags
//	4     can_dlc
//	5..7  padding
//	8..15 data
const (
	SocketCANFrameSize = 16

	canEffFlag = 0x80000000
	canRtrFlag = 0x40000000
	canErrFlag = 0x20000000
)

var (
	// ErrNotExtended is returned for 11-bit frames
	ErrNotExtended = errors.New("canlink: not an extended frame")

	// ErrRemote is returned for remote transmission requests
	ErrRemote = errors.New("canlink: remote frame")

	// ErrErrorFrame is returned for controller error frames
	ErrErrorFrame = errors.New("canlink: error frame")
)

// MarshalFrame encodes a J1939 frame as a SocketCAN can_frame
func MarshalFrame(f j1939.Frame) [SocketCANFrameSize]byte {
	var buf [SocketCANFrameSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], f.ID().Raw()&j1939.IDMask|canEffFlag)
	buf[4] = uint8(f.Len())
	copy(buf[8:], f.PDU())
	return buf
}

// UnmarshalFrame decodes a SocketCAN can_frame. Only extended data frames
// carry J1939 traffic.
func UnmarshalFrame(data []byte) (j1939.Frame, error) {
	if len(data) < SocketCANFrameSize {
		return j1939.Frame{}, fmt.Errorf("canlink: need %d bytes, got %d: %w",
			SocketCANFrameSize, len(data), j1939.ErrMalformed)
	}
	id := binary.LittleEndian.Uint32(data[0:4])
	switch {
	case id&canErrFlag != 0:
		return j1939.Frame{}, ErrErrorFrame
	case id&canEffFlag == 0:
		return j1939.Frame{}, fmt.Errorf("%w: 0x%03X", ErrNotExtended, id&0x7FF)
	case id&canRtrFlag != 0:
		return j1939.Frame{}, fmt.Errorf("%w: 0x%08X", ErrRemote, id&j1939.IDMask)
	}
	dlc := int(data[4])
	if dlc > j1939.PDUMaxLength {
		return j1939.Frame{}, fmt.Errorf("canlink: dlc %d: %w", dlc, j1939.ErrMalformed)
	}
	return j1939.ParseFrame(j1939.NewID(id&j1939.IDMask), data[8:8+dlc])
}

// ToCAN converts a J1939 frame to an einride CAN frame
func ToCAN(f j1939.Frame) can.Frame {
	c := can.Frame{
		ID:         f.ID().Raw() & j1939.IDMask,
		Length:     uint8(f.Len()),
		IsExtended: true,
	}
	copy(c.Data[:], f.PDU())
	return c
}

// FromCAN converts an einride CAN frame to a J1939 frame
func FromCAN(c can.Frame) (j1939.Frame, error) {
	if !c.IsExtended {
		return j1939.Frame{}, fmt.Errorf("%w: 0x%03X", ErrNotExtended, c.ID)
	}
	if c.IsRemote {
		return j1939.Frame{}, fmt.Errorf("%w: 0x%08X", ErrRemote, c.ID)
	}
	if err := c.Validate(); err != nil {
		return j1939.Frame{}, fmt.Errorf("canlink: %v: %w", err, j1939.ErrMalformed)
	}
	return j1939.ParseFrame(j1939.NewID(c.ID), c.Data[:c.Length])
}

// CandumpString renders a frame in candump's compact ID#DATA form
func CandumpString(f j1939.Frame) string {
	return ToCAN(f).String()
}
