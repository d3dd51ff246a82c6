// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
)

// parseNumber accepts decimal, 0x hex, 0o octal and 0b binary
func parseNumber(s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return v, nil
}

// parsePGN accepts a number or a known acronym such as "EEC1"
func parsePGN(s string) (j1939.PGN, error) {
	for _, pgn := range j1939.KnownPGNs() {
		if name, _ := pgn.Name(); strings.EqualFold(name, strings.TrimSpace(s)) {
			return pgn, nil
		}
	}

	v, err := parseNumber(s, 32)
	if err != nil {
		return 0, err
	}
	if v > j1939.PGNMask {
		return 0, fmt.Errorf("PGN 0x%X exceeds 18 bits", v)
	}
	return j1939.PGN(v), nil
}

func parseAddress(s string) (uint8, error) {
	v, err := parseNumber(s, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// parseHexBytes reads payloads written as "00EE00", "00 EE 00" or "00:ee:00"
func parseHexBytes(s string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "", "0x", "", "0X", "").Replace(s)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid hex payload %q: %w", s, err)
	}
	return data, nil
}

// parseDTC reads a trouble code written as "spn:fmi" or "spn:fmi:occurrences"
func parseDTC(s string) (spn.DTC, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return spn.DTC{}, fmt.Errorf("invalid DTC %q: want spn:fmi[:occurrences]", s)
	}
	number, err := parseNumber(parts[0], 19)
	if err != nil {
		return spn.DTC{}, err
	}
	fmi, err := parseNumber(parts[1], 5)
	if err != nil {
		return spn.DTC{}, err
	}
	dtc := spn.DTC{SPN: uint32(number), FMI: uint8(fmi), OccurrenceCount: 1}
	if len(parts) == 3 {
		oc, err := parseNumber(parts[2], 7)
		if err != nil {
			return spn.DTC{}, err
		}
		dtc.OccurrenceCount = uint8(oc)
	}
	return dtc, nil
}

// buildFilter combines --pgn and --sa values. Either list may be empty;
// with both empty every frame passes.
func buildFilter(pgnArgs, sourceArgs []string) (j1939.FrameFilter, error) {
	filter := j1939.FrameFilter(func(j1939.Frame) bool { return true })

	if len(pgnArgs) > 0 {
		pgns := make([]j1939.PGN, 0, len(pgnArgs))
		for _, a := range pgnArgs {
			pgn, err := parsePGN(a)
			if err != nil {
				return nil, err
			}
			pgns = append(pgns, pgn)
		}
		filter = j1939.And(filter, j1939.ByPGN(pgns...))
	}

	if len(sourceArgs) > 0 {
		var sources j1939.FrameFilter
		for _, a := range sourceArgs {
			sa, err := parseAddress(a)
			if err != nil {
				return nil, err
			}
			if sources == nil {
				sources = j1939.BySource(sa)
			} else {
				sources = j1939.Or(sources, j1939.BySource(sa))
			}
		}
		filter = j1939.And(filter, sources)
	}

	return filter, nil
}

// messageFilter applies a frame filter to a reassembled message by testing
// a stand-in frame with the message's PGN and source
func messageFilter(filter j1939.FrameFilter, msg *j1939.Message) bool {
	id := j1939.NewIDBuilder(msg.PGN).SourceAddress(msg.Source).DestinationAddress(j1939.AddressGlobal).Build()
	f, _ := j1939.ParseFrame(id, nil)
	return filter(f)
}
