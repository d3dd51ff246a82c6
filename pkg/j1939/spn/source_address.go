// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package spn

import "fmt"

// Preferred addresses for on-highway equipment, indexed by address
var sourceAddressNames = [...]string{
	"Engine 1",                                  // 0x00
	"Engine 2",                                  // 0x01
	"Turbocharger",                              // 0x02
	"Transmission 1",                            // 0x03
	"Transmission 2",                            // 0x04
	"Shift Console Primary",                     // 0x05
	"Shift Console Secondary",                   // 0x06
	"Power Take Off Main Rear",                  // 0x07
	"Axle Steering",                             // 0x08
	"Axle Drive 1",                              // 0x09
	"Axle Drive 2",                              // 0x0A
	"Brakes System Controller",                  // 0x0B
	"Brakes Steer Axle",                         // 0x0C
	"Brakes Drive Axle 1",                       // 0x0D
	"Brakes Drive Axle 2",                       // 0x0E
	"Retarder Engine",                           // 0x0F
	"Retarder Driveline",                        // 0x10
	"Cruise Control",                            // 0x11
	"Fuel System",                               // 0x12
	"Steering Controller",                       // 0x13
	"Suspension Steer Axle",                     // 0x14
	"Suspension Drive Axle 1",                   // 0x15
	"Suspension Drive Axle 2",                   // 0x16
	"Instrument Cluster 1",                      // 0x17
	"Trip Recorder",                             // 0x18
	"Passenger Operator Climate Control 1",      // 0x19
	"Alternator Electrical Charging System",     // 0x1A
	"Aerodynamic Control",                       // 0x1B
	"Vehicle Navigation",                        // 0x1C
	"Vehicle Security",                          // 0x1D
	"Electrical System",                         // 0x1E
	"Starter System",                            // 0x1F
	"Tractor Trailer Bridge 1",                  // 0x20
	"Body Controller",                           // 0x21
	"Auxiliary Valve Control",                   // 0x22
	"Hitch Control",                             // 0x23
	"Power Take Off Front Secondary",            // 0x24
	"Off Vehicle Gateway",                       // 0x25
	"Virtual Terminal In Cab",                   // 0x26
	"Management Computer 1",                     // 0x27
	"Cab Display 1",                             // 0x28
	"Retarder Exhaust Engine 1",                 // 0x29
	"Headway Controller",                        // 0x2A
	"On Board Diagnostic Unit",                  // 0x2B
	"Retarder Exhaust Engine 2",                 // 0x2C
	"Endurance Braking System",                  // 0x2D
	"Hydraulic Pump Controller",                 // 0x2E
	"Suspension System Controller 1",            // 0x2F
	"Pneumatic System Controller",               // 0x30
	"Cab Controller Primary",                    // 0x31
	"Cab Controller Secondary",                  // 0x32
	"Tire Pressure Controller",                  // 0x33
	"Ignition Control Module 1",                 // 0x34
	"Ignition Control Module 2",                 // 0x35
	"Seat Control 1",                            // 0x36
	"Lighting Operator Controls",                // 0x37
	"Rear Axle Steering Controller 1",           // 0x38
	"Water Pump Controller",                     // 0x39
	"Passenger Operator Climate Control 2",      // 0x3A
	"Transmission Display Primary",              // 0x3B
	"Transmission Display Secondary",            // 0x3C
	"Exhaust Emission Controller",               // 0x3D
	"Vehicle Dynamic Stability Controller",      // 0x3E
	"Oil Sensor",                                // 0x3F
	"Suspension System Controller 2",            // 0x40
	"Information System Controller 1",           // 0x41
	"Ramp Control",                              // 0x42
	"Clutch Converter Unit",                     // 0x43
	"Auxiliary Heater 1",                        // 0x44
	"Auxiliary Heater 2",                        // 0x45
	"Engine Valve Controller",                   // 0x46
	"Chassis Controller 1",                      // 0x47
	"Chassis Controller 2",                      // 0x48
	"Propulsion Battery Charger",                // 0x49
	"Communications Unit Cellular",              // 0x4A
	"Communications Unit Satellite",             // 0x4B
	"Communications Unit Radio",                 // 0x4C
	"Steering Column Unit",                      // 0x4D
	"Fan Drive Controller",                      // 0x4E
	"Seat Control 2",                            // 0x4F
	"Parking Brake Controller",                  // 0x50
	"Aftertreatment 1 System Gas Intake",        // 0x51
	"Aftertreatment 1 System Gas Outlet",        // 0x52
	"Safety Restraint System",                   // 0x53
	"Cab Display 2",                             // 0x54
	"Diesel Particulate Filter Controller",      // 0x55
	"Aftertreatment 2 System Gas Intake",        // 0x56
	"Aftertreatment 2 System Gas Outlet",        // 0x57
	"Safety Restraint System 2",                 // 0x58
	"Atmospheric Sensor",                        // 0x59
	"Powertrain Control Module",                 // 0x5A
	"Power Systems Manager",                     // 0x5B
	"Engine Injection Control Module",           // 0x5C
	"Fire Protection System",                    // 0x5D
	"Driver Impairment Device",                  // 0x5E
	"Supply Equipment Communication Controller", // 0x5F
	"Vehicle Adapter Communication Controller",  // 0x60
	"Fuel Cell System",                          // 0x61
}

// Address ranges outside the preferred table
const (
	AddressReservedFirst = 0x62
	AddressReservedLast  = 0x7F
	AddressDynamicFirst  = 0x80
	AddressDynamicLast   = 0xF7
	AddressFileServer    = 0xF8
	AddressServiceTool1  = 0xF9
	AddressServiceTool2  = 0xFA
	AddressDataLogger    = 0xFB
	AddressExperimental  = 0xFC
	AddressOEMReserved   = 0xFD
	AddressNull          = 0xFE
	AddressGlobal        = 0xFF
)

// SourceAddressName returns the preferred function assigned to sa
func SourceAddressName(sa uint8) string {
	switch {
	case int(sa) < len(sourceAddressNames):
		return sourceAddressNames[sa]
	case sa <= AddressReservedLast:
		return fmt.Sprintf("SAE Reserved (0x%02X)", sa)
	case sa <= AddressDynamicLast:
		return fmt.Sprintf("Dynamic (0x%02X)", sa)
	}

	switch sa {
	case AddressFileServer:
		return "File Server / Printer"
	case AddressServiceTool1:
		return "Off Board Diagnostic Service Tool 1"
	case AddressServiceTool2:
		return "Off Board Diagnostic Service Tool 2"
	case AddressDataLogger:
		return "On Board Data Logger"
	case AddressExperimental:
		return "Experimental"
	case AddressOEMReserved:
		return "OEM Reserved"
	case AddressNull:
		return "Null"
	default:
		return "Global"
	}
}

// IsDynamicAddress reports whether sa is in the self-configurable range
func IsDynamicAddress(sa uint8) bool {
	return sa >= AddressDynamicFirst && sa <= AddressDynamicLast
}
