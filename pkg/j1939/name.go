// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

import (
	"encoding/binary"
	"fmt"
)

// Name is the 64-bit ECU identity sent in Address Claimed frames.
// Fields wider than their bit allocation are masked when packed.
type Name struct {
	IdentityNumber          uint32 // 21 bits
	ManufacturerCode        uint16 // 11 bits
	ECUInstance             uint8  // 3 bits
	FunctionInstance        uint8  // 5 bits
	Function                uint8
	VehicleSystem           uint8 // 7 bits
	VehicleSystemInstance   uint8 // 4 bits
	IndustryGroup           uint8 // 3 bits
	ArbitraryAddressCapable bool
}

// NAME bit positions
const (
	nameIdentityShift         = 0
	nameManufacturerShift     = 21
	nameECUInstanceShift      = 32
	nameFunctionInstanceShift = 35
	nameFunctionShift         = 40
	nameVehicleSystemShift    = 49
	nameVehicleInstanceShift  = 56
	nameIndustryGroupShift    = 60
	nameArbitraryShift        = 63
)

// Uint64 packs the NAME
func (n Name) Uint64() uint64 {
	v := uint64(n.IdentityNumber&0x1FFFFF) << nameIdentityShift
	v |= uint64(n.ManufacturerCode&0x7FF) << nameManufacturerShift
	v |= uint64(n.ECUInstance&0x07) << nameECUInstanceShift
	v |= uint64(n.FunctionInstance&0x1F) << nameFunctionInstanceShift
	v |= uint64(n.Function) << nameFunctionShift
	v |= uint64(n.VehicleSystem&0x7F) << nameVehicleSystemShift
	v |= uint64(n.VehicleSystemInstance&0x0F) << nameVehicleInstanceShift
	v |= uint64(n.IndustryGroup&0x07) << nameIndustryGroupShift
	if n.ArbitraryAddressCapable {
		v |= 1 << nameArbitraryShift
	}
	return v
}

// Bytes returns the little-endian wire form
func (n Name) Bytes() [PDUMaxLength]byte {
	var b [PDUMaxLength]byte
	binary.LittleEndian.PutUint64(b[:], n.Uint64())
	return b
}

// NameFromUint64 unpacks a NAME. The reserved bit 48 is ignored.
func NameFromUint64(v uint64) Name {
	return Name{
		IdentityNumber:          uint32(v>>nameIdentityShift) & 0x1FFFFF,
		ManufacturerCode:        uint16(v>>nameManufacturerShift) & 0x7FF,
		ECUInstance:             uint8(v>>nameECUInstanceShift) & 0x07,
		FunctionInstance:        uint8(v>>nameFunctionInstanceShift) & 0x1F,
		Function:                uint8(v >> nameFunctionShift),
		VehicleSystem:           uint8(v>>nameVehicleSystemShift) & 0x7F,
		VehicleSystemInstance:   uint8(v>>nameVehicleInstanceShift) & 0x0F,
		IndustryGroup:           uint8(v>>nameIndustryGroupShift) & 0x07,
		ArbitraryAddressCapable: v>>nameArbitraryShift == 1,
	}
}

// NameFromBytes unpacks the little-endian wire form
func NameFromBytes(b [PDUMaxLength]byte) Name {
	return NameFromUint64(binary.LittleEndian.Uint64(b[:]))
}

// ParseName unpacks a NAME from an Address Claimed payload
func ParseName(pdu []byte) (Name, error) {
	if len(pdu) < PDUMaxLength {
		return Name{}, malformed("name requires %d bytes, got %d", PDUMaxLength, len(pdu))
	}
	return NameFromUint64(binary.LittleEndian.Uint64(pdu)), nil
}

func (n Name) String() string {
	return fmt.Sprintf("0x%016X (identity=%d manufacturer=%d function=%d/%d ecu=%d system=%d/%d group=%d aac=%t)",
		n.Uint64(), n.IdentityNumber, n.ManufacturerCode, n.Function, n.FunctionInstance,
		n.ECUInstance, n.VehicleSystem, n.VehicleSystemInstance, n.IndustryGroup, n.ArbitraryAddressCapable)
}
