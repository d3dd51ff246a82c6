// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package spn

import "fmt"

// EngineTorqueMode is SPN 899, the state of the engine torque arbitration
type EngineTorqueMode uint8

const (
	TorqueModeNoRequest EngineTorqueMode = iota
	TorqueModeAcceleratorPedal
	TorqueModeCruiseControl
	TorqueModePTOGovernor
	TorqueModeRoadSpeedGovernor
	TorqueModeASRControl
	TorqueModeTransmissionControl
	TorqueModeABSControl
	TorqueModeTorqueLimiting
	TorqueModeHighSpeedGovernor
	TorqueModeBrakingSystem
	TorqueModeRemoteAccelerator
	TorqueModeNotAvailable EngineTorqueMode = 0x0F
)

var torqueModeNames = [...]string{
	"No Request",
	"Accelerator Pedal",
	"Cruise Control",
	"PTO Governor",
	"Road Speed Governor",
	"ASR Control",
	"Transmission Control",
	"ABS Control",
	"Torque Limiting",
	"High Speed Governor",
	"Braking System",
	"Remote Accelerator",
}

// EngineTorqueModeFromValue decodes the low nibble of a raw byte
func EngineTorqueModeFromValue(v uint8) EngineTorqueMode {
	return EngineTorqueMode(v & 0x0F)
}

// IsAvailable reports whether the mode carries a value
func (m EngineTorqueMode) IsAvailable() bool {
	return m != TorqueModeNotAvailable
}

func (m EngineTorqueMode) String() string {
	switch {
	case int(m) < len(torqueModeNames):
		return torqueModeNames[m]
	case m == TorqueModeNotAvailable:
		return "Not Available"
	case m < TorqueModeNotAvailable:
		return "Other"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(m))
	}
}

// EngineStarterMode is SPN 1675, the state of the starter control
type EngineStarterMode uint8

const (
	StarterModeStartNotRequested EngineStarterMode = iota
	StarterModeStarterActiveGearNotEngaged
	StarterModeStarterActiveGearEngaged
	StarterModeStartFinished
	StarterModeStarterInhibitedEngineRunning
	StarterModeStarterInhibitedEngineNotReady
	StarterModeStarterInhibitedTransmissionInhibited
	StarterModeStarterInhibitedActiveImmobilizer
	StarterModeStarterInhibitedOverHeat
	StarterModeStarterInhibitedReasonUnknown EngineStarterMode = 0b1100
	StarterModeErrorLegacy                   EngineStarterMode = 0b1101
	StarterModeError                         EngineStarterMode = 0b1110
	StarterModeNotAvailable                  EngineStarterMode = 0b1111
)

// EngineStarterModeFromValue decodes the low nibble of a raw byte
func EngineStarterModeFromValue(v uint8) EngineStarterMode {
	return EngineStarterMode(v & 0x0F)
}

// IsAvailable reports whether the mode carries a value
func (m EngineStarterMode) IsAvailable() bool {
	return m != StarterModeNotAvailable
}

func (m EngineStarterMode) String() string {
	switch m {
	case StarterModeStartNotRequested:
		return "Start Not Requested"
	case StarterModeStarterActiveGearNotEngaged:
		return "Starter Active, Gear Not Engaged"
	case StarterModeStarterActiveGearEngaged:
		return "Starter Active, Gear Engaged"
	case StarterModeStartFinished:
		return "Start Finished"
	case StarterModeStarterInhibitedEngineRunning:
		return "Starter Inhibited (Engine Running)"
	case StarterModeStarterInhibitedEngineNotReady:
		return "Starter Inhibited (Engine Not Ready)"
	case StarterModeStarterInhibitedTransmissionInhibited:
		return "Starter Inhibited (Transmission)"
	case StarterModeStarterInhibitedActiveImmobilizer:
		return "Starter Inhibited (Immobilizer)"
	case StarterModeStarterInhibitedOverHeat:
		return "Starter Inhibited (Over Heat)"
	case StarterModeStarterInhibitedReasonUnknown:
		return "Starter Inhibited (Reason Unknown)"
	case StarterModeErrorLegacy, StarterModeError:
		return "Error"
	case StarterModeNotAvailable:
		return "Not Available"
	default:
		return fmt.Sprintf("Reserved(%d)", uint8(m))
	}
}

// ControlStatus is a two-bit discrete parameter
type ControlStatus uint8

const (
	ControlOff          ControlStatus = 0b00
	ControlOn           ControlStatus = 0b01
	ControlError        ControlStatus = 0b10
	ControlNotAvailable ControlStatus = 0b11
)

func (c ControlStatus) String() string {
	switch c & 0b11 {
	case ControlOff:
		return "Off"
	case ControlOn:
		return "On"
	case ControlError:
		return "Error"
	default:
		return "Not Available"
	}
}

// bits2 extracts a two-bit field at shift
func bits2(b byte, shift uint) ControlStatus {
	return ControlStatus((b >> shift) & 0b11)
}
