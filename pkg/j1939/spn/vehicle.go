// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package spn

import "github.com/Thermoquad/j1939stat/pkg/j1939"

// VEP1 is Vehicle Electrical Power 1 (PGN 65271)
type VEP1 struct {
	NetBatteryCurrent       *float32 // SPN 114, A
	AlternatorCurrent       *float32 // SPN 115, A
	ChargingSystemPotential *float32 // SPN 167, V
	BatteryPotential        *float32 // SPN 168, V
	KeyswitchPotential      *float32 // SPN 158, V
}

// ParseVEP1 decodes a VEP1 payload
func ParseVEP1(pdu []byte) (VEP1, error) {
	if err := requireLength("VEP1", pdu, j1939.PDUMaxLength); err != nil {
		return VEP1{}, err
	}
	return VEP1{
		NetBatteryCurrent:       read(j1939.SlotElectricalCurrent, pdu[0:]),
		AlternatorCurrent:       read(j1939.SlotElectricalCurrent2, pdu[1:]),
		ChargingSystemPotential: read(j1939.SlotElectricalVoltage, pdu[2:]),
		BatteryPotential:        read(j1939.SlotElectricalVoltage, pdu[4:]),
		KeyswitchPotential:      read(j1939.SlotElectricalVoltage, pdu[6:]),
	}, nil
}

// Bytes encodes the message
func (m VEP1) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	write(j1939.SlotElectricalCurrent, b[0:], m.NetBatteryCurrent)
	write(j1939.SlotElectricalCurrent2, b[1:], m.AlternatorCurrent)
	write(j1939.SlotElectricalVoltage, b[2:], m.ChargingSystemPotential)
	write(j1939.SlotElectricalVoltage, b[4:], m.BatteryPotential)
	write(j1939.SlotElectricalVoltage, b[6:], m.KeyswitchPotential)
	return b
}

// Frame builds the message from sa with the default priority
func (m VEP1) Frame(sa uint8) j1939.Frame {
	id := j1939.NewIDBuilder(j1939.PGNVehicleElectricalPower1).SourceAddress(sa).Build()
	return j1939.NewFrame(id, m.Bytes())
}

func (m VEP1) Fields() []Field {
	return []Field{
		{SPN: 114, Name: "net_battery_current", Value: value(m.NetBatteryCurrent, "%.0f"), Unit: "A"},
		{SPN: 115, Name: "alternator_current", Value: value(m.AlternatorCurrent, "%.0f"), Unit: "A"},
		{SPN: 167, Name: "charging_potential", Value: value(m.ChargingSystemPotential, "%.2f"), Unit: "V"},
		{SPN: 168, Name: "battery_potential", Value: value(m.BatteryPotential, "%.2f"), Unit: "V"},
		{SPN: 158, Name: "keyswitch_potential", Value: value(m.KeyswitchPotential, "%.2f"), Unit: "V"},
	}
}

// VehicleDistance is Vehicle Distance (PGN 65248)
type VehicleDistance struct {
	TripDistance  *float32 // SPN 244, km
	TotalDistance *float32 // SPN 245, km
}

// ParseVehicleDistance decodes a vehicle distance payload
func ParseVehicleDistance(pdu []byte) (VehicleDistance, error) {
	if err := requireLength("VD", pdu, j1939.PDUMaxLength); err != nil {
		return VehicleDistance{}, err
	}
	return VehicleDistance{
		TripDistance:  read(j1939.SlotDistance, pdu[0:]),
		TotalDistance: read(j1939.SlotDistance, pdu[4:]),
	}, nil
}

// Bytes encodes the message
func (m VehicleDistance) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	write(j1939.SlotDistance, b[0:], m.TripDistance)
	write(j1939.SlotDistance, b[4:], m.TotalDistance)
	return b
}

func (m VehicleDistance) Fields() []Field {
	return []Field{
		{SPN: 244, Name: "trip_distance", Value: value(m.TripDistance, "%.3f"), Unit: "km"},
		{SPN: 245, Name: "total_distance", Value: value(m.TotalDistance, "%.3f"), Unit: "km"},
	}
}

// FuelConsumption is Fuel Consumption (Liquid) (PGN 65257)
type FuelConsumption struct {
	TripFuel  *float32 // SPN 182, L
	TotalFuel *float32 // SPN 250, L
}

// ParseFuelConsumption decodes a fuel consumption payload
func ParseFuelConsumption(pdu []byte) (FuelConsumption, error) {
	if err := requireLength("LFC", pdu, j1939.PDUMaxLength); err != nil {
		return FuelConsumption{}, err
	}
	return FuelConsumption{
		TripFuel:  read(j1939.SlotLiquidFuelUsage, pdu[0:]),
		TotalFuel: read(j1939.SlotLiquidFuelUsage, pdu[4:]),
	}, nil
}

// Bytes encodes the message
func (m FuelConsumption) Bytes() [j1939.PDUMaxLength]byte {
	b := blank()
	write(j1939.SlotLiquidFuelUsage, b[0:], m.TripFuel)
	write(j1939.SlotLiquidFuelUsage, b[4:], m.TotalFuel)
	return b
}

func (m FuelConsumption) Fields() []Field {
	return []Field{
		{SPN: 182, Name: "trip_fuel", Value: value(m.TripFuel, "%.1f"), Unit: "L"},
		{SPN: 250, Name: "total_fuel", Value: value(m.TotalFuel, "%.1f"), Unit: "L"},
	}
}
