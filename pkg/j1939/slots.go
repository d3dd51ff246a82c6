// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

// Named slot definitions. Units are in the comment after each slot. Upper
// limits stay below the sentinel so every value in range has a raw form.
var (
	SlotSourceAddress      = Slot[uint8]{Scale: 1, Offset: 0, Lower: 0, Upper: 254}
	SlotCount              = Slot[uint8]{Scale: 1, Offset: 0, Lower: 0, Upper: 250}
	SlotRotationalVelocity = Slot[uint16]{Scale: 0.125, Offset: 0, Lower: 0, Upper: 8031.875} // rpm

	SlotTemperature  = Slot[uint16]{Scale: 0.03125, Offset: -273, Lower: -273, Upper: 1735} // °C
	SlotTemperature2 = Slot[uint8]{Scale: 1, Offset: -40, Lower: -40, Upper: 127.5}         // °C

	SlotElectricalCurrent  = Slot[uint8]{Scale: 1, Offset: -125, Lower: -125, Upper: 125}   // A
	SlotElectricalCurrent2 = Slot[uint8]{Scale: 1, Offset: 0, Lower: 0, Upper: 250}         // A
	SlotElectricalVoltage  = Slot[uint16]{Scale: 0.05, Offset: 0, Lower: 0, Upper: 3212.75} // V

	SlotPositionLevel  = Slot[uint8]{Scale: 0.4, Offset: 0, Lower: 0, Upper: 100.5}     // %
	SlotPositionLevel2 = Slot[uint8]{Scale: 1, Offset: -125, Lower: -125, Upper: 125.5} // %
	SlotPositionLevel3 = Slot[uint8]{Scale: 1, Offset: 0, Lower: 0, Upper: 125}         // %

	SlotPressure  = Slot[uint8]{Scale: 4, Offset: 0, Lower: 0, Upper: 1000.5}                // kPa
	SlotPressure2 = Slot[uint8]{Scale: 0.05, Offset: 0, Lower: 0, Upper: 12.5}               // kPa
	SlotPressure3 = Slot[uint8]{Scale: 2, Offset: 0, Lower: 0, Upper: 500.99}                // kPa
	SlotPressure4 = Slot[uint16]{Scale: 1.0 / 128, Offset: -250, Lower: -250, Upper: 251.99} // kPa

	SlotLiquidFuelUsage = Slot[uint32]{Scale: 0.5, Offset: 0, Lower: 0, Upper: 2105540607.5}  // L
	SlotDistance        = Slot[uint32]{Scale: 0.125, Offset: 0, Lower: 0, Upper: 526385151.9} // km
	SlotTime            = Slot[uint32]{Scale: 0.05, Offset: 0, Lower: 0, Upper: 210554060.75} // h
)
