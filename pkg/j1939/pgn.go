// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"fmt"
	"sort"
)

// PGN is an 18-bit Parameter Group Number. Values without a name in the
// table below are still valid PGNs.
type PGN uint32

// Parameter group numbers - network management and transport
const (
	PGNAcknowledgement                       PGN = 0xE800
	PGNRequest                               PGN = 0xEA00
	PGNTransportProtocolDataTransfer         PGN = 0xEB00
	PGNTransportProtocolConnectionManagement PGN = 0xEC00
	PGNAddressClaimed                        PGN = 0xEE00
	PGNProprietaryA                          PGN = 0xEF00
	PGNCommandedAddress                      PGN = 0xFED8
	PGNProprietaryB                          PGN = 0xFF00
)

// Parameter group numbers - application
const (
	PGNTorqueSpeedControl1               PGN = 0x0000
	PGNTransfer                          PGN = 0xCA00
	PGNProprietarilyConfigurableMessage1 PGN = 0xB100
	PGNProprietarilyConfigurableMessage2 PGN = 0xB200
	PGNProprietarilyConfigurableMessage3 PGN = 0xB300
	PGNElectronicEngineController2       PGN = 0xF003
	PGNElectronicEngineController1       PGN = 0xF004
	PGNDiagnosticMessage1                PGN = 0xFECA
	PGNDiagnosticMessage2                PGN = 0xFECB
	PGNDiagnosticMessage3                PGN = 0xFECC
	PGNSoftwareIdentification            PGN = 0xFEDA
	PGNElectronicEngineController3       PGN = 0xFEDF
	PGNVehicleDistance                   PGN = 0xFEE0
	PGNEngineHours                       PGN = 0xFEE5
	PGNTimeDate                          PGN = 0xFEE6
	PGNFuelConsumption                   PGN = 0xFEE9
	PGNComponentIdentification           PGN = 0xFEEB
	PGNVehicleIdentification             PGN = 0xFEEC
	PGNEngineTemperature1                PGN = 0xFEEE
	PGNEngineFluidLevelPressure1         PGN = 0xFEEF
	PGNCruiseControlVehicleSpeed         PGN = 0xFEF1
	PGNFuelEconomy                       PGN = 0xFEF2
	PGNAmbientConditions                 PGN = 0xFEF5
	PGNInletExhaustConditions1           PGN = 0xFEF6
	PGNVehicleElectricalPower1           PGN = 0xFEF7
	PGNDashDisplay                       PGN = 0xFEFC
)

var pgnNames = map[PGN]string{
	PGNAcknowledgement:                       "ACKM",
	PGNRequest:                               "RQST",
	PGNTransportProtocolDataTransfer:         "TP.DT",
	PGNTransportProtocolConnectionManagement: "TP.CM",
	PGNAddressClaimed:                        "AC",
	PGNProprietaryA:                          "PROPA",
	PGNCommandedAddress:                      "CA",
	PGNProprietaryB:                          "PROPB",
	PGNTorqueSpeedControl1:                   "TSC1",
	PGNTransfer:                              "XFER",
	PGNProprietarilyConfigurableMessage1:     "PCM1",
	PGNProprietarilyConfigurableMessage2:     "PCM2",
	PGNProprietarilyConfigurableMessage3:     "PCM3",
	PGNElectronicEngineController2:           "EEC2",
	PGNElectronicEngineController1:           "EEC1",
	PGNDiagnosticMessage1:                    "DM1",
	PGNDiagnosticMessage2:                    "DM2",
	PGNDiagnosticMessage3:                    "DM3",
	PGNSoftwareIdentification:                "SOFT",
	PGNElectronicEngineController3:           "EEC3",
	PGNVehicleDistance:                       "VD",
	PGNEngineHours:                           "HOURS",
	PGNTimeDate:                              "TD",
	PGNFuelConsumption:                       "LFC",
	PGNComponentIdentification:               "CI",
	PGNVehicleIdentification:                 "VI",
	PGNEngineTemperature1:                    "ET1",
	PGNEngineFluidLevelPressure1:             "EFL/P1",
	PGNCruiseControlVehicleSpeed:             "CCVS",
	PGNFuelEconomy:                           "LFE",
	PGNAmbientConditions:                     "AMB",
	PGNInletExhaustConditions1:               "IC1",
	PGNVehicleElectricalPower1:               "VEP1",
	PGNDashDisplay:                           "DD",
}

// Name returns the acronym for a known PGN and ok=false otherwise
func (p PGN) Name() (string, bool) {
	name, ok := pgnNames[p]
	return name, ok
}

// String returns the acronym for a known PGN, or the hex value
func (p PGN) String() string {
	if name, ok := pgnNames[p]; ok {
		return name
	}
	return fmt.Sprintf("0x%05X", uint32(p))
}

// IsPDU1 reports whether the PGN is destination specific
func (p PGN) IsPDU1() bool {
	return (p>>8)&0xFF < PDU2Threshold
}

// ToLEBytes returns the 3-byte little-endian wire form
func (p PGN) ToLEBytes() [3]byte {
	return [3]byte{byte(p), byte(p >> 8), byte(p>>16) & 0x03}
}

// PGNFromLEBytes decodes the 3-byte little-endian wire form, masking to 18 bits
func PGNFromLEBytes(b [3]byte) PGN {
	return PGN(uint32(b[0])|uint32(b[1])<<8|uint32(b[2])<<16) & PGNMask
}

// ReadPGN decodes a PGN from the first three bytes of b
func ReadPGN(b []byte) (PGN, error) {
	if len(b) < 3 {
		return 0, malformed("pgn requires 3 bytes, got %d", len(b))
	}
	return PGNFromLEBytes([3]byte{b[0], b[1], b[2]}), nil
}

// KnownPGNs returns every named PGN in ascending order
func KnownPGNs() []PGN {
	pgns := make([]PGN, 0, len(pgnNames))
	for p := range pgnNames {
		pgns = append(pgns, p)
	}
	sort.Slice(pgns, func(i, j int) bool { return pgns[i] < pgns[j] })
	return pgns
}
