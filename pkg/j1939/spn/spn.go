// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package spn decodes and encodes individual J1939 parameter groups.
//
// Each message type maps the suspect parameters (SPNs) of one PGN onto the
// slot codec at fixed byte offsets. Optional physical values are *float32;
// nil means the parameter is not available.
package spn

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// Field is one decoded parameter, used for display
type Field struct {
	SPN   uint32
	Name  string
	Value string
	Unit  string
}

func (f Field) String() string {
	if f.Unit == "" {
		return fmt.Sprintf("%s=%s", f.Name, f.Value)
	}
	return fmt.Sprintf("%s=%s %s", f.Name, f.Value, f.Unit)
}

// Decoder turns a payload into display fields
type Decoder func(data []byte) ([]Field, error)

var decoders = map[j1939.PGN]Decoder{
	j1939.PGNTorqueSpeedControl1:         fieldsOf(ParseTSC1),
	j1939.PGNElectronicEngineController1: fieldsOf(ParseEEC1),
	j1939.PGNElectronicEngineController2: fieldsOf(ParseEEC2),
	j1939.PGNEngineTemperature1:          fieldsOf(ParseET1),
	j1939.PGNEngineFluidLevelPressure1:   fieldsOf(ParseEFLP1),
	j1939.PGNEngineHours:                 fieldsOf(ParseEngineHours),
	j1939.PGNVehicleDistance:             fieldsOf(ParseVehicleDistance),
	j1939.PGNFuelConsumption:             fieldsOf(ParseFuelConsumption),
	j1939.PGNVehicleElectricalPower1:     fieldsOf(ParseVEP1),
	j1939.PGNDiagnosticMessage1:          fieldsOf(ParseDM1),
}

type fielder interface {
	Fields() []Field
}

func fieldsOf[M fielder](parse func([]byte) (M, error)) Decoder {
	return func(data []byte) ([]Field, error) {
		m, err := parse(data)
		if err != nil {
			return nil, err
		}
		return m.Fields(), nil
	}
}

// Lookup returns the decoder for pgn
func Lookup(pgn j1939.PGN) (Decoder, bool) {
	d, ok := decoders[pgn]
	return d, ok
}

// Supported returns the PGNs with a decoder in ascending order
func Supported() []j1939.PGN {
	pgns := make([]j1939.PGN, 0, len(decoders))
	for p := range decoders {
		pgns = append(pgns, p)
	}
	sort.Slice(pgns, func(i, j int) bool { return pgns[i] < pgns[j] })
	return pgns
}

// FormatPayload returns one indented line per decoded field, or an empty
// string when the PGN has no decoder
func FormatPayload(pgn j1939.PGN, data []byte) string {
	d, ok := decoders[pgn]
	if !ok {
		return ""
	}
	fields, err := d(data)
	if err != nil {
		return fmt.Sprintf("  [decode error] %v\n", err)
	}
	var s strings.Builder
	for _, f := range fields {
		if f.SPN != 0 {
			fmt.Fprintf(&s, "  SPN %-5d %s\n", f.SPN, f)
		} else {
			fmt.Fprintf(&s, "  %s\n", f)
		}
	}
	return s.String()
}

// requireLength returns an error wrapping j1939.ErrMalformed when data is short
func requireLength(name string, data []byte, n int) error {
	if len(data) < n {
		return fmt.Errorf("%s requires %d bytes, got %d: %w", name, n, len(data), j1939.ErrMalformed)
	}
	return nil
}

// read decodes a slot at the start of b, nil when not available
func read[T j1939.Raw](s j1939.Slot[T], b []byte) *float32 {
	v, ok, err := s.DecodeBytes(b)
	if err != nil || !ok {
		return nil
	}
	return &v
}

// write encodes a slot little-endian at the start of dst. Offsets are fixed
// per message, so a dst shorter than the slot is a programming error and
// panics on the index.
func write[T j1939.Raw](s j1939.Slot[T], dst []byte, v *float32) {
	raw := uint64(s.Encode(v))
	_ = dst[s.Width()-1]
	for i, n := 0, s.Width(); i < n; i++ {
		dst[i] = byte(raw >> (8 * i))
	}
}

// blank returns an 8-byte payload filled with not-available bytes
func blank() [j1939.PDUMaxLength]byte {
	var b [j1939.PDUMaxLength]byte
	for i := range b {
		b[i] = j1939.PDUNotAvailable
	}
	return b
}

func value(v *float32, format string) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf(format, *v)
}
