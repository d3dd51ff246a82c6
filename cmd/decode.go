// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/spf13/cobra"
)

var decodeData string

var decodeCmd = &cobra.Command{
	Use:   "decode <id>",
	Short: "Break a 29-bit identifier into its J1939 fields",
	Long: `Print the priority, data page, PGN, PDU format, addresses and broadcast
flag of a 29-bit identifier. No connection is needed.

With --data the payload is decoded as well, using the SPN tables for known
PGNs. Payloads are written as hex, with or without separators.

Examples:
  j1939stat decode 0x18EA2010
  j1939stat decode 0x0CF00400 --data "F0 7D 7D 20 1C 00 F0 7D"`,
	Args: cobra.ExactArgs(1),
	RunE: runDecode,
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringVar(&decodeData, "data", "", "Payload bytes in hex")
}

func runDecode(cmd *cobra.Command, args []string) error {
	raw, err := parseNumber(args[0], 32)
	if err != nil {
		return err
	}
	if raw > j1939.IDMask {
		return fmt.Errorf("identifier 0x%X exceeds 29 bits", raw)
	}

	var data []byte
	if decodeData != "" {
		if data, err = parseHexBytes(decodeData); err != nil {
			return err
		}
	}
	return writeDecoded(cmd.OutOrStdout(), j1939.NewID(uint32(raw)), data)
}

// writeDecoded prints the identifier breakdown and optional payload
func writeDecoded(w io.Writer, id j1939.ID, data []byte) error {
	pgn := id.PGN()
	fmt.Fprintf(w, "ID:        0x%08X (%d)\n", id.Raw(), id.Raw())
	fmt.Fprintf(w, "Binary:    %s\n", groupBits(id.Raw()))
	fmt.Fprintf(w, "Priority:  %d\n", id.Priority())
	fmt.Fprintf(w, "EDP/DP:    %d/%d\n", id.ExtendedDataPage(), id.DataPage())
	fmt.Fprintf(w, "PGN:       0x%05X (%d) %s\n", uint32(pgn), uint32(pgn), j1939.FormatPGN(pgn))
	fmt.Fprintf(w, "PDU:       %s (PF=0x%02X)\n", id.PDUFormat().Kind(), id.PDUFormat().Value())
	if da, ok := id.DestinationAddress(); ok {
		fmt.Fprintf(w, "DA:        0x%02X %s\n", da, spn.SourceAddressName(da))
	} else if ge, ok := id.GroupExtension(); ok {
		fmt.Fprintf(w, "GE:        0x%02X\n", ge)
	}
	fmt.Fprintf(w, "SA:        0x%02X %s\n", id.SourceAddress(), spn.SourceAddressName(id.SourceAddress()))
	fmt.Fprintf(w, "Broadcast: %t\n", id.IsBroadcast())

	if data == nil {
		return nil
	}

	if len(data) <= j1939.PDUMaxLength {
		frame, err := j1939.ParseFrame(id, data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "\n%s", j1939.FormatFrame(frame))
	} else {
		fmt.Fprintf(w, "\nPayload:   %d bytes (multi-packet)\n", len(data))
	}
	fmt.Fprint(w, spn.FormatPayload(pgn, data))
	return nil
}

// groupBits renders the identifier as priority/EDP/DP/PF/PS/SA bit groups
func groupBits(raw uint32) string {
	bits := fmt.Sprintf("%029b", raw&j1939.IDMask)
	groups := []string{bits[0:3], bits[3:4], bits[4:5], bits[5:13], bits[13:21], bits[21:29]}
	return strings.Join(groups, " ")
}
