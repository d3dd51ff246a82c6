// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"fmt"
	"strings"
	"time"
)

// FormatFrame formats a frame into a human-readable line
func FormatFrame(f Frame) string {
	timestamp := f.timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	id := f.ID()
	dest := "--"
	if da, ok := id.DestinationAddress(); ok {
		dest = fmt.Sprintf("%02X", da)
	}

	result := fmt.Sprintf("[%s] %-6s (0x%05X) id=%08X prio=%d sa=%02X da=%s len=%d %s\n",
		timestamp.Format("15:04:05.000"), FormatPGN(id.PGN()), uint32(id.PGN()),
		id.Raw(), id.Priority(), id.SourceAddress(), dest, f.Len(), formatBytes(f.PDU()))

	switch id.PGN() {
	case PGNRequest:
		if pgn, err := RequestFromPDU(f.PDU()); err == nil {
			result += fmt.Sprintf("  requested=%s (0x%05X)\n", FormatPGN(pgn), uint32(pgn))
		}
	case PGNAddressClaimed:
		if name, err := ParseName(f.PDU()); err == nil {
			result += fmt.Sprintf("  name=%s\n", name)
		}
	case PGNAcknowledgement:
		if control, pgn, err := AcknowledgementFromPDU(f.PDU()); err == nil {
			result += fmt.Sprintf("  control=%s pgn=%s\n", FormatAckControl(control), FormatPGN(pgn))
		}
	case PGNTransportProtocolConnectionManagement:
		result += formatConnectionManagement(f.PDU())
	case PGNTransportProtocolDataTransfer:
		if f.Len() > 0 {
			result += fmt.Sprintf("  sequence=%d\n", f.PDU()[0])
		}
	}

	return result
}

func formatConnectionManagement(pdu []byte) string {
	if len(pdu) < PDUMaxLength {
		return ""
	}
	length := int(pdu[1]) | int(pdu[2])<<8
	pgn := PGNFromLEBytes([3]byte{pdu[5], pdu[6], pdu[7]})
	return fmt.Sprintf("  control=%s length=%d packets=%d pgn=%s\n",
		FormatControl(pdu[0]), length, pdu[3], FormatPGN(pgn))
}

// FormatMessage formats a reassembled transport message
func FormatMessage(m *Message) string {
	var s strings.Builder
	fmt.Fprintf(&s, "[%s] %-6s (0x%05X) sa=%02X transport len=%d\n",
		m.Timestamp.Format("15:04:05.000"), FormatPGN(m.PGN), uint32(m.PGN), m.Source, len(m.Data))
	for off := 0; off < len(m.Data); off += 16 {
		end := min(off+16, len(m.Data))
		fmt.Fprintf(&s, "  %04X  %s\n", off, formatBytes(m.Data[off:end]))
	}
	return s.String()
}

// FormatPGN returns the PGN acronym, or UNKNOWN
func FormatPGN(pgn PGN) string {
	if name, ok := pgn.Name(); ok {
		return name
	}
	return "UNKNOWN"
}

// FormatControl returns the name of a transport control byte
func FormatControl(control uint8) string {
	switch control {
	case ControlRequestToSend:
		return "RTS"
	case ControlClearToSend:
		return "CTS"
	case ControlEndOfMessageAck:
		return "EOMA"
	case ControlBroadcastAnnounce:
		return "BAM"
	case ControlAbort:
		return "ABORT"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", control)
	}
}

// FormatAckControl returns the name of an acknowledgement control byte
func FormatAckControl(control uint8) string {
	switch control {
	case AckPositive:
		return "ACK"
	case AckNegative:
		return "NACK"
	case AckDenied:
		return "ACCESS_DENIED"
	case AckBusy:
		return "BUSY"
	default:
		return fmt.Sprintf("UNKNOWN(0x%02X)", control)
	}
}
