// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package spn

import (
	"fmt"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// LampStatus is the two-bit state of a diagnostic lamp
type LampStatus uint8

const (
	LampOff          LampStatus = 0b00
	LampOn           LampStatus = 0b01
	LampError        LampStatus = 0b10
	LampNotAvailable LampStatus = 0b11
)

func (l LampStatus) String() string {
	switch l & 0b11 {
	case LampOff:
		return "Off"
	case LampOn:
		return "On"
	case LampError:
		return "Error"
	default:
		return "Not Available"
	}
}

// FlashStatus is the two-bit flash rate of a diagnostic lamp
type FlashStatus uint8

const (
	FlashSlow         FlashStatus = 0b00
	FlashFast         FlashStatus = 0b01
	FlashReserved     FlashStatus = 0b10
	FlashNotAvailable FlashStatus = 0b11
)

func (f FlashStatus) String() string {
	switch f & 0b11 {
	case FlashSlow:
		return "Slow"
	case FlashFast:
		return "Fast"
	case FlashReserved:
		return "Reserved"
	default:
		return "Not Available"
	}
}

// DTC is a diagnostic trouble code
type DTC struct {
	SPN              uint32 // 19 bits
	FMI              uint8  // 5 bits
	ConversionMethod uint8  // 1 bit
	OccurrenceCount  uint8  // 7 bits
}

// ParseDTC decodes the 4-byte DTC layout
func ParseDTC(b []byte) (DTC, error) {
	if err := requireLength("DTC", b, 4); err != nil {
		return DTC{}, err
	}
	return DTC{
		SPN:              uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2]>>5)<<16,
		FMI:              b[2] & 0x1F,
		ConversionMethod: b[3] >> 7,
		OccurrenceCount:  b[3] & 0x7F,
	}, nil
}

// Bytes encodes the DTC
func (d DTC) Bytes() [4]byte {
	return [4]byte{
		uint8(d.SPN),
		uint8(d.SPN >> 8),
		uint8((d.SPN>>16)&0x07)<<5 | d.FMI&0x1F,
		(d.ConversionMethod&0x01)<<7 | d.OccurrenceCount&0x7F,
	}
}

func (d DTC) String() string {
	return fmt.Sprintf("SPN %d FMI %d OC %d", d.SPN, d.FMI, d.OccurrenceCount)
}

// DM1 is Active Diagnostic Trouble Codes (PGN 65226). More than one DTC
// requires the broadcast transport.
type DM1 struct {
	ProtectLamp                   LampStatus
	AmberWarningLamp              LampStatus
	RedStopLamp                   LampStatus
	MalfunctionIndicatorLamp      LampStatus
	ProtectLampFlash              FlashStatus
	AmberWarningLampFlash         FlashStatus
	RedStopLampFlash              FlashStatus
	MalfunctionIndicatorLampFlash FlashStatus
	DTCs                          []DTC
}

// ParseDM1 decodes a single-frame or reassembled DM1 payload.
// Trailing groups of not-available bytes are padding and are skipped.
func ParseDM1(data []byte) (DM1, error) {
	if err := requireLength("DM1", data, 6); err != nil {
		return DM1{}, err
	}
	m := DM1{
		ProtectLamp:                   LampStatus(data[0] & 0b11),
		AmberWarningLamp:              LampStatus((data[0] >> 2) & 0b11),
		RedStopLamp:                   LampStatus((data[0] >> 4) & 0b11),
		MalfunctionIndicatorLamp:      LampStatus((data[0] >> 6) & 0b11),
		ProtectLampFlash:              FlashStatus(data[1] & 0b11),
		AmberWarningLampFlash:         FlashStatus((data[1] >> 2) & 0b11),
		RedStopLampFlash:              FlashStatus((data[1] >> 4) & 0b11),
		MalfunctionIndicatorLampFlash: FlashStatus((data[1] >> 6) & 0b11),
	}
	for off := 2; off+4 <= len(data); off += 4 {
		group := data[off : off+4]
		if isPadding(group) {
			break
		}
		dtc, err := ParseDTC(group)
		if err != nil {
			return DM1{}, err
		}
		m.DTCs = append(m.DTCs, dtc)
	}
	return m, nil
}

func isPadding(b []byte) bool {
	for _, v := range b {
		if v != j1939.PDUNotAvailable {
			return false
		}
	}
	return true
}

func (m DM1) lampByte() byte {
	return uint8(m.ProtectLamp&3) | uint8(m.AmberWarningLamp&3)<<2 |
		uint8(m.RedStopLamp&3)<<4 | uint8(m.MalfunctionIndicatorLamp&3)<<6
}

func (m DM1) flashByte() byte {
	return uint8(m.ProtectLampFlash&3) | uint8(m.AmberWarningLampFlash&3)<<2 |
		uint8(m.RedStopLampFlash&3)<<4 | uint8(m.MalfunctionIndicatorLampFlash&3)<<6
}

// Bytes encodes the message. With at most one DTC the result is a padded
// 8-byte payload; no DTCs encodes the all-zero code.
func (m DM1) Bytes() []byte {
	dtcs := m.DTCs
	if len(dtcs) == 0 {
		dtcs = []DTC{{}}
	}
	out := make([]byte, 0, max(j1939.PDUMaxLength, 2+4*len(dtcs)))
	out = append(out, m.lampByte(), m.flashByte())
	for _, d := range dtcs {
		b := d.Bytes()
		out = append(out, b[:]...)
	}
	for len(out) < j1939.PDUMaxLength {
		out = append(out, j1939.PDUNotAvailable)
	}
	return out
}

// Frames returns the frames that carry the message from sa: a single
// frame when it fits, otherwise a broadcast transport sequence
func (m DM1) Frames(sa uint8) ([]j1939.Frame, error) {
	data := m.Bytes()
	if len(data) <= j1939.PDUMaxLength {
		id := j1939.NewIDBuilder(j1939.PGNDiagnosticMessage1).SourceAddress(sa).Build()
		f, err := j1939.ParseFrame(id, data)
		if err != nil {
			return nil, err
		}
		return []j1939.Frame{f}, nil
	}
	bam, err := j1939.NewBroadcastSender(sa, j1939.PGNDiagnosticMessage1, data)
	if err != nil {
		return nil, err
	}
	return bam.Frames()
}

func (m DM1) Fields() []Field {
	fields := []Field{
		{Name: "protect_lamp", Value: fmt.Sprintf("%s/%s", m.ProtectLamp, m.ProtectLampFlash)},
		{Name: "amber_warning_lamp", Value: fmt.Sprintf("%s/%s", m.AmberWarningLamp, m.AmberWarningLampFlash)},
		{Name: "red_stop_lamp", Value: fmt.Sprintf("%s/%s", m.RedStopLamp, m.RedStopLampFlash)},
		{Name: "mil", Value: fmt.Sprintf("%s/%s", m.MalfunctionIndicatorLamp, m.MalfunctionIndicatorLampFlash)},
	}
	for i, d := range m.DTCs {
		fields = append(fields, Field{Name: fmt.Sprintf("dtc[%d]", i), Value: d.String()})
	}
	return fields
}
