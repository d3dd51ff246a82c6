// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import "fmt"

// AnomalyType represents different types of frame anomalies
type AnomalyType int

const (
	AnomalyLengthMismatch AnomalyType = iota
	AnomalyInvalidAddress
	AnomalyInvalidCount
	AnomalyInvalidValue
	AnomalyErrorIndicator
	AnomalyReservedBits
	AnomalyTransportError
	AnomalyDecodeError
)

func (a AnomalyType) String() string {
	switch a {
	case AnomalyLengthMismatch:
		return "LENGTH_MISMATCH"
	case AnomalyInvalidAddress:
		return "INVALID_ADDRESS"
	case AnomalyInvalidCount:
		return "INVALID_COUNT"
	case AnomalyInvalidValue:
		return "INVALID_VALUE"
	case AnomalyErrorIndicator:
		return "ERROR_INDICATOR"
	case AnomalyReservedBits:
		return "RESERVED_BITS"
	case AnomalyTransportError:
		return "TRANSPORT_ERROR"
	case AnomalyDecodeError:
		return "DECODE_ERROR"
	default:
		return "UNKNOWN"
	}
}

// ValidationError represents a frame validation failure
type ValidationError struct {
	Type    AnomalyType
	Message string
	Details map[string]interface{}
}

// Error implements the error interface
func (v *ValidationError) Error() string {
	return v.Message
}

// ValidateFrame checks frame structure and detects anomalies.
// Returns a slice of validation errors (empty if the frame is valid).
func ValidateFrame(f Frame) []ValidationError {
	errors := []ValidationError{}
	id := f.ID()

	if id.SourceAddress() == AddressGlobal {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidAddress,
			Message: "Source address 0xFF is reserved for the global destination",
			Details: map[string]interface{}{"sa": id.SourceAddress()},
		})
	}

	if id.ExtendedDataPage() == 1 && id.DataPage() == 1 {
		errors = append(errors, ValidationError{
			Type:    AnomalyReservedBits,
			Message: "EDP and DP both set (reserved data page)",
			Details: map[string]interface{}{"edp": 1, "dp": 1},
		})
	}

	switch id.PGN() {
	case PGNRequest:
		errors = append(errors, validateLength(f, "REQUEST", 3)...)
	case PGNAddressClaimed:
		errors = append(errors, validateLength(f, "ADDRESS_CLAIMED", PDUMaxLength)...)
	case PGNAcknowledgement:
		errors = append(errors, validateLength(f, "ACKNOWLEDGEMENT", PDUMaxLength)...)
	case PGNTransportProtocolConnectionManagement:
		errors = append(errors, validateConnectionManagement(f)...)
	case PGNTransportProtocolDataTransfer:
		errors = append(errors, validateDataTransfer(f)...)
	case PGNElectronicEngineController1:
		errors = append(errors, validateEngineSpeed(f)...)
	case PGNEngineTemperature1:
		errors = append(errors, validateCoolantTemperature(f)...)
	}

	return errors
}

func validateLength(f Frame, name string, expected int) []ValidationError {
	if f.Len() == expected {
		return nil
	}
	return []ValidationError{{
		Type:    AnomalyLengthMismatch,
		Message: fmt.Sprintf("%s payload length mismatch (expected %d bytes)", name, expected),
		Details: map[string]interface{}{"length": f.Len(), "expected": expected},
	}}
}

// validateConnectionManagement validates TP.CM frames
func validateConnectionManagement(f Frame) []ValidationError {
	if errs := validateLength(f, "TP.CM", PDUMaxLength); len(errs) > 0 {
		return errs
	}

	errors := []ValidationError{}
	pdu := f.PDU()
	control := pdu[0]

	switch control {
	case ControlRequestToSend, ControlClearToSend, ControlEndOfMessageAck, ControlAbort:
		return errors
	case ControlBroadcastAnnounce:
	default:
		return []ValidationError{{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("Invalid TP.CM control byte 0x%02X", control),
			Details: map[string]interface{}{"control": control},
		}}
	}

	if da, _ := f.ID().DestinationAddress(); da != AddressGlobal {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidAddress,
			Message: fmt.Sprintf("BAM sent to 0x%02X (expected global)", da),
			Details: map[string]interface{}{"da": da},
		})
	}

	length := int(pdu[1]) | int(pdu[2])<<8
	packets := int(pdu[3])
	if length > TransportMaxLength || length <= PDUMaxLength {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidValue,
			Message: fmt.Sprintf("BAM length=%d (valid 9-%d)", length, TransportMaxLength),
			Details: map[string]interface{}{"length": length, "max": TransportMaxLength},
		})
	}
	if expected := (length + TransportChunkSize - 1) / TransportChunkSize; packets != expected {
		errors = append(errors, ValidationError{
			Type:    AnomalyInvalidCount,
			Message: fmt.Sprintf("BAM packets=%d does not match length=%d (expected %d)", packets, length, expected),
			Details: map[string]interface{}{"packets": packets, "length": length, "expected": expected},
		})
	}

	return errors
}

// validateDataTransfer validates TP.DT frames
func validateDataTransfer(f Frame) []ValidationError {
	if errs := validateLength(f, "TP.DT", PDUMaxLength); len(errs) > 0 {
		return errs
	}
	if f.PDU()[0] == 0 {
		return []ValidationError{{
			Type:    AnomalyInvalidCount,
			Message: "TP.DT sequence number 0 (valid 1-255)",
			Details: map[string]interface{}{"sequence": 0},
		}}
	}
	return nil
}

// validateEngineSpeed checks SPN 190 in EEC1 for the error indicator range
func validateEngineSpeed(f Frame) []ValidationError {
	if errs := validateLength(f, "EEC1", PDUMaxLength); len(errs) > 0 {
		return errs
	}
	raw := uint16(f.PDU()[3]) | uint16(f.PDU()[4])<<8
	if raw>>8 == PDUError {
		return []ValidationError{{
			Type:    AnomalyErrorIndicator,
			Message: fmt.Sprintf("Engine speed error indicator (raw=0x%04X)", raw),
			Details: map[string]interface{}{"spn": 190, "raw": raw},
		}}
	}
	return nil
}

// validateCoolantTemperature checks SPN 110 in ET1 for the error indicator
func validateCoolantTemperature(f Frame) []ValidationError {
	if f.Len() < 1 {
		return validateLength(f, "ET1", PDUMaxLength)
	}
	if raw := f.PDU()[0]; raw == PDUError {
		return []ValidationError{{
			Type:    AnomalyErrorIndicator,
			Message: "Engine coolant temperature error indicator (raw=0xFE)",
			Details: map[string]interface{}{"spn": 110, "raw": raw},
		}}
	}
	return nil
}

// TransportValidationError converts a reassembly error into a validation error
func TransportValidationError(err error) ValidationError {
	return ValidationError{
		Type:    AnomalyTransportError,
		Message: err.Error(),
		Details: map[string]interface{}{"error": err},
	}
}
