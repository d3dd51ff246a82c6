// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package spn

import (
	"fmt"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

// Engine revolutions are counted in units of 1000
var slotRevolutions = j1939.Slot[uint32]{Scale: 1000, Offset: 0, Lower: 0, Upper: 4211081215000}

// EEC1 is Electronic Engine Controller 1 (PGN 61444)
type EEC1 struct {
	TorqueMode               EngineTorqueMode
	DriverDemandTorque       *float32 // SPN 512, %
	ActualEngineTorque       *float32 // SPN 513, %
	EngineSpeed              *float32 // SPN 190, rpm
	ControllingSourceAddress *uint8   // SPN 1483
	StarterMode              EngineStarterMode
	EngineDemandTorque       *float32 // SPN 2432, %
}

// ParseEEC1 decodes an EEC1 payload
func ParseEEC1(pdu []byte) (EEC1, error) {
	if err := requireLength("EEC1", pdu, j1939.PDUMaxLength); err != nil {
		return EEC1{}, err
	}
	m := EEC1{
		TorqueMode:         EngineTorqueModeFromValue(pdu[0]),
		DriverDemandTorque: read(j1939.SlotPositionLevel2, pdu[1:]),
		ActualEngineTorque: read(j1939.SlotPositionLevel2, pdu[2:]),
		EngineSpeed:        read(j1939.SlotRotationalVelocity, pdu[3:]),
		StarterMode:        EngineStarterModeFromValue(pdu[6]),
		EngineDemandTorque: read(j1939.SlotPositionLevel2, pdu[7:]),
	}
	if pdu[5] != j1939.PDUNotAvailable {
		sa := pdu[5]
		m.ControllingSourceAddress = &sa
	}
	return m, nil
}

// Bytes encodes the message. Unused bits are set.
func (m EEC1) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	b[0] = 0xF0 | uint8(m.TorqueMode&0x0F)
	write(j1939.SlotPositionLevel2, b[1:], m.DriverDemandTorque)
	write(j1939.SlotPositionLevel2, b[2:], m.ActualEngineTorque)
	write(j1939.SlotRotationalVelocity, b[3:], m.EngineSpeed)
	if m.ControllingSourceAddress != nil {
		b[5] = *m.ControllingSourceAddress
	}
	b[6] = 0xF0 | uint8(m.StarterMode&0x0F)
	write(j1939.SlotPositionLevel2, b[7:], m.EngineDemandTorque)
	return b
}

// Frame builds the message from sa with the control priority
func (m EEC1) Frame(sa uint8) j1939.Frame {
	id := j1939.NewIDBuilder(j1939.PGNElectronicEngineController1).
		Priority(j1939.PriorityControl).
		SourceAddress(sa).
		Build()
	return j1939.NewFrame(id, m.Bytes())
}

func (m EEC1) Fields() []Field {
	controller := "n/a"
	if m.ControllingSourceAddress != nil {
		controller = fmt.Sprintf("0x%02X (%s)", *m.ControllingSourceAddress, SourceAddressName(*m.ControllingSourceAddress))
	}
	return []Field{
		{SPN: 899, Name: "torque_mode", Value: m.TorqueMode.String()},
		{SPN: 512, Name: "driver_demand_torque", Value: value(m.DriverDemandTorque, "%.0f"), Unit: "%"},
		{SPN: 513, Name: "actual_engine_torque", Value: value(m.ActualEngineTorque, "%.0f"), Unit: "%"},
		{SPN: 190, Name: "engine_speed", Value: value(m.EngineSpeed, "%.3f"), Unit: "rpm"},
		{SPN: 1483, Name: "controlling_source", Value: controller},
		{SPN: 1675, Name: "starter_mode", Value: m.StarterMode.String()},
		{SPN: 2432, Name: "engine_demand_torque", Value: value(m.EngineDemandTorque, "%.0f"), Unit: "%"},
	}
}

// EEC2 is Electronic Engine Controller 2 (PGN 61443)
type EEC2 struct {
	AcceleratorPedalLowIdle  ControlStatus // SPN 558
	AcceleratorPedalKickdown ControlStatus // SPN 559
	RoadSpeedLimitStatus     ControlStatus // SPN 1437
	AcceleratorPedalPosition *float32      // SPN 91, %
	EngineLoad               *float32      // SPN 92, %
	RemoteAcceleratorPedal   *float32      // SPN 974, %
}

// ParseEEC2 decodes an EEC2 payload
func ParseEEC2(pdu []byte) (EEC2, error) {
	if err := requireLength("EEC2", pdu, 4); err != nil {
		return EEC2{}, err
	}
	return EEC2{
		AcceleratorPedalLowIdle:  bits2(pdu[0], 0),
		AcceleratorPedalKickdown: bits2(pdu[0], 2),
		RoadSpeedLimitStatus:     bits2(pdu[0], 4),
		AcceleratorPedalPosition: read(j1939.SlotPositionLevel, pdu[1:]),
		EngineLoad:               read(j1939.SlotPositionLevel3, pdu[2:]),
		RemoteAcceleratorPedal:   read(j1939.SlotPositionLevel, pdu[3:]),
	}, nil
}

// Bytes encodes the message
func (m EEC2) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	b[0] = 0xC0 | uint8(m.RoadSpeedLimitStatus&3)<<4 | uint8(m.AcceleratorPedalKickdown&3)<<2 | uint8(m.AcceleratorPedalLowIdle&3)
	write(j1939.SlotPositionLevel, b[1:], m.AcceleratorPedalPosition)
	write(j1939.SlotPositionLevel3, b[2:], m.EngineLoad)
	write(j1939.SlotPositionLevel, b[3:], m.RemoteAcceleratorPedal)
	return b
}

func (m EEC2) Fields() []Field {
	return []Field{
		{SPN: 558, Name: "pedal_low_idle", Value: m.AcceleratorPedalLowIdle.String()},
		{SPN: 559, Name: "pedal_kickdown", Value: m.AcceleratorPedalKickdown.String()},
		{SPN: 1437, Name: "road_speed_limit", Value: m.RoadSpeedLimitStatus.String()},
		{SPN: 91, Name: "pedal_position", Value: value(m.AcceleratorPedalPosition, "%.1f"), Unit: "%"},
		{SPN: 92, Name: "engine_load", Value: value(m.EngineLoad, "%.0f"), Unit: "%"},
		{SPN: 974, Name: "remote_pedal_position", Value: value(m.RemoteAcceleratorPedal, "%.1f"), Unit: "%"},
	}
}

// ET1 is Engine Temperature 1 (PGN 65262)
type ET1 struct {
	CoolantTemperature     *float32 // SPN 110, °C
	FuelTemperature        *float32 // SPN 174, °C
	OilTemperature         *float32 // SPN 175, °C
	TurboOilTemperature    *float32 // SPN 176, °C
	IntercoolerTemperature *float32 // SPN 52, °C
	IntercoolerThermostat  *float32 // SPN 1134, %
}

// ParseET1 decodes an ET1 payload
func ParseET1(pdu []byte) (ET1, error) {
	if err := requireLength("ET1", pdu, j1939.PDUMaxLength); err != nil {
		return ET1{}, err
	}
	return ET1{
		CoolantTemperature:     read(j1939.SlotTemperature2, pdu[0:]),
		FuelTemperature:        read(j1939.SlotTemperature2, pdu[1:]),
		OilTemperature:         read(j1939.SlotTemperature, pdu[2:]),
		TurboOilTemperature:    read(j1939.SlotTemperature, pdu[4:]),
		IntercoolerTemperature: read(j1939.SlotTemperature2, pdu[6:]),
		IntercoolerThermostat:  read(j1939.SlotPositionLevel, pdu[7:]),
	}, nil
}

// Bytes encodes the message
func (m ET1) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	write(j1939.SlotTemperature2, b[0:], m.CoolantTemperature)
	write(j1939.SlotTemperature2, b[1:], m.FuelTemperature)
	write(j1939.SlotTemperature, b[2:], m.OilTemperature)
	write(j1939.SlotTemperature, b[4:], m.TurboOilTemperature)
	write(j1939.SlotTemperature2, b[6:], m.IntercoolerTemperature)
	write(j1939.SlotPositionLevel, b[7:], m.IntercoolerThermostat)
	return b
}

func (m ET1) Fields() []Field {
	return []Field{
		{SPN: 110, Name: "coolant_temp", Value: value(m.CoolantTemperature, "%.0f"), Unit: "°C"},
		{SPN: 174, Name: "fuel_temp", Value: value(m.FuelTemperature, "%.0f"), Unit: "°C"},
		{SPN: 175, Name: "oil_temp", Value: value(m.OilTemperature, "%.2f"), Unit: "°C"},
		{SPN: 176, Name: "turbo_oil_temp", Value: value(m.TurboOilTemperature, "%.2f"), Unit: "°C"},
		{SPN: 52, Name: "intercooler_temp", Value: value(m.IntercoolerTemperature, "%.0f"), Unit: "°C"},
		{SPN: 1134, Name: "intercooler_thermostat", Value: value(m.IntercoolerThermostat, "%.1f"), Unit: "%"},
	}
}

// TSC1 is Torque/Speed Control 1 (PGN 0), sent to a specific engine
type TSC1 struct {
	OverrideControlMode   uint8    // SPN 695
	SpeedControlCondition uint8    // SPN 696
	OverridePriority      uint8    // SPN 897
	RequestedSpeed        *float32 // SPN 898, rpm
	RequestedTorque       *float32 // SPN 518, %
}

// ParseTSC1 decodes a TSC1 payload
func ParseTSC1(pdu []byte) (TSC1, error) {
	if err := requireLength("TSC1", pdu, 4); err != nil {
		return TSC1{}, err
	}
	return TSC1{
		OverrideControlMode:   pdu[0] & 0b11,
		SpeedControlCondition: (pdu[0] >> 2) & 0b11,
		OverridePriority:      (pdu[0] >> 4) & 0b11,
		RequestedSpeed:        read(j1939.SlotRotationalVelocity, pdu[1:]),
		RequestedTorque:       read(j1939.SlotPositionLevel2, pdu[3:]),
	}, nil
}

// Bytes encodes the message
func (m TSC1) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	b[0] = 0xC0 | (m.OverridePriority&3)<<4 | (m.SpeedControlCondition&3)<<2 | m.OverrideControlMode&3
	write(j1939.SlotRotationalVelocity, b[1:], m.RequestedSpeed)
	write(j1939.SlotPositionLevel2, b[3:], m.RequestedTorque)
	return b
}

// Frame builds the message addressed to da
func (m TSC1) Frame(da, sa uint8) j1939.Frame {
	id := j1939.NewIDBuilder(j1939.PGNTorqueSpeedControl1).
		Priority(j1939.PriorityControl).
		DestinationAddress(da).
		SourceAddress(sa).
		Build()
	return j1939.NewFrame(id, m.Bytes())
}

func (m TSC1) Fields() []Field {
	return []Field{
		{SPN: 695, Name: "override_mode", Value: fmt.Sprintf("%d", m.OverrideControlMode)},
		{SPN: 696, Name: "speed_condition", Value: fmt.Sprintf("%d", m.SpeedControlCondition)},
		{SPN: 897, Name: "override_priority", Value: fmt.Sprintf("%d", m.OverridePriority)},
		{SPN: 898, Name: "requested_speed", Value: value(m.RequestedSpeed, "%.3f"), Unit: "rpm"},
		{SPN: 518, Name: "requested_torque", Value: value(m.RequestedTorque, "%.0f"), Unit: "%"},
	}
}

// EFLP1 is Engine Fluid Level/Pressure 1 (PGN 65263)
type EFLP1 struct {
	FuelDeliveryPressure *float32 // SPN 94, kPa
	OilLevel             *float32 // SPN 98, %
	OilPressure          *float32 // SPN 100, kPa
	CrankcasePressure    *float32 // SPN 101, kPa
	CoolantPressure      *float32 // SPN 109, kPa
	CoolantLevel         *float32 // SPN 111, %
}

// ParseEFLP1 decodes an EFL/P1 payload
func ParseEFLP1(pdu []byte) (EFLP1, error) {
	if err := requireLength("EFL/P1", pdu, j1939.PDUMaxLength); err != nil {
		return EFLP1{}, err
	}
	return EFLP1{
		FuelDeliveryPressure: read(j1939.SlotPressure, pdu[0:]),
		OilLevel:             read(j1939.SlotPositionLevel, pdu[2:]),
		OilPressure:          read(j1939.SlotPressure, pdu[3:]),
		CrankcasePressure:    read(j1939.SlotPressure4, pdu[4:]),
		CoolantPressure:      read(j1939.SlotPressure3, pdu[6:]),
		CoolantLevel:         read(j1939.SlotPositionLevel, pdu[7:]),
	}, nil
}

// Bytes encodes the message
func (m EFLP1) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	write(j1939.SlotPressure, b[0:], m.FuelDeliveryPressure)
	write(j1939.SlotPositionLevel, b[2:], m.OilLevel)
	write(j1939.SlotPressure, b[3:], m.OilPressure)
	write(j1939.SlotPressure4, b[4:], m.CrankcasePressure)
	write(j1939.SlotPressure3, b[6:], m.CoolantPressure)
	write(j1939.SlotPositionLevel, b[7:], m.CoolantLevel)
	return b
}

func (m EFLP1) Fields() []Field {
	return []Field{
		{SPN: 94, Name: "fuel_delivery_pressure", Value: value(m.FuelDeliveryPressure, "%.0f"), Unit: "kPa"},
		{SPN: 98, Name: "oil_level", Value: value(m.OilLevel, "%.1f"), Unit: "%"},
		{SPN: 100, Name: "oil_pressure", Value: value(m.OilPressure, "%.0f"), Unit: "kPa"},
		{SPN: 101, Name: "crankcase_pressure", Value: value(m.CrankcasePressure, "%.2f"), Unit: "kPa"},
		{SPN: 109, Name: "coolant_pressure", Value: value(m.CoolantPressure, "%.0f"), Unit: "kPa"},
		{SPN: 111, Name: "coolant_level", Value: value(m.CoolantLevel, "%.1f"), Unit: "%"},
	}
}

// EngineHours is Engine Hours, Revolutions (PGN 65253)
type EngineHours struct {
	TotalHours       *float32 // SPN 247, h
	TotalRevolutions *float32 // SPN 249, r
}

// ParseEngineHours decodes an engine hours payload
func ParseEngineHours(pdu []byte) (EngineHours, error) {
	if err := requireLength("HOURS", pdu, j1939.PDUMaxLength); err != nil {
		return EngineHours{}, err
	}
	return EngineHours{
		TotalHours:       read(j1939.SlotTime, pdu[0:]),
		TotalRevolutions: read(slotRevolutions, pdu[4:]),
	}, nil
}

// Bytes encodes the message
func (m EngineHours) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	write(j1939.SlotTime, b[0:], m.TotalHours)
	write(slotRevolutions, b[4:], m.TotalRevolutions)
	return b
}

func (m EngineHours) Fields() []Field {
	return []Field{
		{SPN: 247, Name: "engine_hours", Value: value(m.TotalHours, "%.2f"), Unit: "h"},
		{SPN: 249, Name: "engine_revolutions", Value: value(m.TotalRevolutions, "%.0f"), Unit: "r"},
	}
}
