// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package spn

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

func f32(v float32) *float32 { return &v }

func eqf(a, b *float32) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// ============================================================
// DM1 Tests
// ============================================================

func TestParseDM1(t *testing.T) {
	tests := []struct {
		name    string
		pdu     []byte
		protect LampStatus
		amber   LampStatus
		red     LampStatus
		mil     LampStatus
		dtc     DTC
	}{
		{
			name:    "three lamps on",
			pdu:     []byte{0x57, 0xFF, 0x9F, 0x00, 0x03, 0x01},
			protect: LampNotAvailable,
			amber:   LampOn,
			red:     LampOn,
			mil:     LampOn,
			dtc:     DTC{SPN: 159, FMI: 3, OccurrenceCount: 1},
		},
		{
			name:    "high occurrence",
			pdu:     []byte{0x57, 0xFF, 0xFB, 0x06, 0x0B, 0x32},
			protect: LampNotAvailable,
			amber:   LampOn,
			red:     LampOn,
			mil:     LampOn,
			dtc:     DTC{SPN: 1787, FMI: 11, OccurrenceCount: 50},
		},
		{
			name:    "mil only",
			pdu:     []byte{0x40, 0xFF, 0x7F, 0x02, 0x02, 0x00},
			protect: LampOff,
			amber:   LampOff,
			red:     LampOff,
			mil:     LampOn,
			dtc:     DTC{SPN: 639, FMI: 2},
		},
		{
			name:    "all off",
			pdu:     []byte{0x00, 0xFF, 0x00, 0x00, 0x00, 0x00},
			protect: LampOff,
			amber:   LampOff,
			red:     LampOff,
			mil:     LampOff,
			dtc:     DTC{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseDM1(tt.pdu)
			if err != nil {
				t.Fatalf("ParseDM1 error: %v", err)
			}
			if m.ProtectLamp != tt.protect || m.AmberWarningLamp != tt.amber ||
				m.RedStopLamp != tt.red || m.MalfunctionIndicatorLamp != tt.mil {
				t.Errorf("lamps = %s/%s/%s/%s, want %s/%s/%s/%s",
					m.ProtectLamp, m.AmberWarningLamp, m.RedStopLamp, m.MalfunctionIndicatorLamp,
					tt.protect, tt.amber, tt.red, tt.mil)
			}
			if m.ProtectLampFlash != FlashNotAvailable || m.MalfunctionIndicatorLampFlash != FlashNotAvailable {
				t.Errorf("flash = %s/%s, want Not Available", m.ProtectLampFlash, m.MalfunctionIndicatorLampFlash)
			}
			if len(m.DTCs) != 1 {
				t.Fatalf("len(DTCs) = %d, want 1", len(m.DTCs))
			}
			if m.DTCs[0] != tt.dtc {
				t.Errorf("DTC = %+v, want %+v", m.DTCs[0], tt.dtc)
			}
		})
	}
}

func TestDM1_Bytes(t *testing.T) {
	m := DM1{
		ProtectLamp:                   LampOff,
		AmberWarningLamp:              LampOff,
		RedStopLamp:                   LampOff,
		MalfunctionIndicatorLamp:      LampOn,
		ProtectLampFlash:              FlashNotAvailable,
		AmberWarningLampFlash:         FlashNotAvailable,
		RedStopLampFlash:              FlashNotAvailable,
		MalfunctionIndicatorLampFlash: FlashNotAvailable,
		DTCs:                          []DTC{{SPN: 639, FMI: 2}},
	}
	want := []byte{0x40, 0xFF, 0x7F, 0x02, 0x02, 0x00, 0xFF, 0xFF}
	if got := m.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("Bytes = % X, want % X", got, want)
	}
}

func TestDM1_NoCodes(t *testing.T) {
	got := DM1{}.Bytes()
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0xFF, 0xFF}
	if !bytes.Equal(got, want) {
		t.Errorf("Bytes = % X, want % X", got, want)
	}
}

func TestDM1_MultipleCodes(t *testing.T) {
	m := DM1{
		AmberWarningLamp: LampOn,
		DTCs: []DTC{
			{SPN: 110, FMI: 0, OccurrenceCount: 3},
			{SPN: 0x7FFFE, FMI: 31, ConversionMethod: 1, OccurrenceCount: 127},
			{SPN: 190, FMI: 2},
		},
	}
	data := m.Bytes()
	if len(data) != 14 {
		t.Fatalf("len = %d, want 14", len(data))
	}

	frames, err := m.Frames(0x00)
	if err != nil {
		t.Fatalf("Frames error: %v", err)
	}
	if len(frames) != 3 || frames[0].ID().PGN() != j1939.PGNTransportProtocolConnectionManagement {
		t.Fatalf("expected a BAM sequence of 3 frames, got %d", len(frames))
	}

	rx := j1939.NewBroadcastTransport(0x00, 0)
	for _, f := range frames {
		if err := rx.FromFrame(f); err != nil {
			t.Fatalf("FromFrame error: %v", err)
		}
	}
	got, err := ParseDM1(rx.Data())
	if err != nil {
		t.Fatalf("ParseDM1 error: %v", err)
	}
	if len(got.DTCs) != 3 {
		t.Fatalf("len(DTCs) = %d, want 3", len(got.DTCs))
	}
	for i := range m.DTCs {
		if got.DTCs[i] != m.DTCs[i] {
			t.Errorf("DTC %d = %+v, want %+v", i, got.DTCs[i], m.DTCs[i])
		}
	}
}

func TestDM1_SingleFrame(t *testing.T) {
	m := DM1{DTCs: []DTC{{SPN: 639, FMI: 2}}}
	frames, err := m.Frames(0x00)
	if err != nil {
		t.Fatalf("Frames error: %v", err)
	}
	if len(frames) != 1 || frames[0].ID().Raw() != 0x18FECA00 {
		t.Errorf("frames = %v", frames)
	}
}

func TestParseDM1_Short(t *testing.T) {
	if _, err := ParseDM1([]byte{0x00, 0xFF, 0x00}); !errors.Is(err, j1939.ErrMalformed) {
		t.Errorf("error = %v, want ErrMalformed", err)
	}
}

// ============================================================
// Engine Message Tests
// ============================================================

func TestEEC1_RoundTrip(t *testing.T) {
	sa := uint8(0x03)
	m := EEC1{
		TorqueMode:               TorqueModeCruiseControl,
		DriverDemandTorque:       f32(45),
		ActualEngineTorque:       f32(40),
		EngineSpeed:              f32(1450.5),
		ControllingSourceAddress: &sa,
		StarterMode:              StarterModeStartFinished,
		EngineDemandTorque:       nil,
	}
	b := m.Bytes()
	if b[0] != 0xF2 {
		t.Errorf("byte 0 = 0x%02X, want 0xF2", b[0])
	}
	if b[7] != 0xFF {
		t.Errorf("byte 7 = 0x%02X, want 0xFF", b[7])
	}

	got, err := ParseEEC1(b[:])
	if err != nil {
		t.Fatalf("ParseEEC1 error: %v", err)
	}
	if got.TorqueMode != m.TorqueMode || got.StarterMode != m.StarterMode {
		t.Errorf("modes = %s/%s", got.TorqueMode, got.StarterMode)
	}
	if !eqf(got.EngineSpeed, m.EngineSpeed) || !eqf(got.DriverDemandTorque, m.DriverDemandTorque) ||
		!eqf(got.ActualEngineTorque, m.ActualEngineTorque) || got.EngineDemandTorque != nil {
		t.Errorf("values = %+v", got)
	}
	if got.ControllingSourceAddress == nil || *got.ControllingSourceAddress != 0x03 {
		t.Errorf("ControllingSourceAddress = %v", got.ControllingSourceAddress)
	}

	f := m.Frame(0x00)
	if f.ID().Raw() != 0x0CF00400 {
		t.Errorf("ID = 0x%X, want 0x0CF00400", f.ID().Raw())
	}
}

func TestParseEEC1_EngineSpeed(t *testing.T) {
	m, err := ParseEEC1([]byte{0xF0, 0x7D, 0x7D, 0x20, 0x1C, 0xFF, 0xF0, 0x7D})
	if err != nil {
		t.Fatalf("ParseEEC1 error: %v", err)
	}
	if m.EngineSpeed == nil || *m.EngineSpeed != 900 {
		t.Errorf("EngineSpeed = %v, want 900", m.EngineSpeed)
	}
	if m.DriverDemandTorque == nil || *m.DriverDemandTorque != 0 {
		t.Errorf("DriverDemandTorque = %v, want 0", m.DriverDemandTorque)
	}
	if m.ControllingSourceAddress != nil {
		t.Error("ControllingSourceAddress should be not available")
	}
	if m.TorqueMode != TorqueModeNoRequest || m.StarterMode != StarterModeStartNotRequested {
		t.Errorf("modes = %s/%s", m.TorqueMode, m.StarterMode)
	}
}

func TestEEC2_RoundTrip(t *testing.T) {
	m := EEC2{
		AcceleratorPedalLowIdle:  ControlOn,
		AcceleratorPedalKickdown: ControlOff,
		RoadSpeedLimitStatus:     ControlNotAvailable,
		AcceleratorPedalPosition: f32(50),
		EngineLoad:               f32(75),
	}
	b := m.Bytes()
	got, err := ParseEEC2(b[:])
	if err != nil {
		t.Fatalf("ParseEEC2 error: %v", err)
	}
	if got.AcceleratorPedalLowIdle != ControlOn || got.AcceleratorPedalKickdown != ControlOff ||
		got.RoadSpeedLimitStatus != ControlNotAvailable {
		t.Errorf("switches = %s/%s/%s", got.AcceleratorPedalLowIdle, got.AcceleratorPedalKickdown, got.RoadSpeedLimitStatus)
	}
	if !eqf(got.AcceleratorPedalPosition, m.AcceleratorPedalPosition) || !eqf(got.EngineLoad, m.EngineLoad) ||
		got.RemoteAcceleratorPedal != nil {
		t.Errorf("values = %+v", got)
	}
}

func TestET1_RoundTrip(t *testing.T) {
	m := ET1{
		CoolantTemperature:  f32(90),
		FuelTemperature:     f32(-13),
		OilTemperature:      f32(25),
		TurboOilTemperature: nil,
	}
	b := m.Bytes()
	got, err := ParseET1(b[:])
	if err != nil {
		t.Fatalf("ParseET1 error: %v", err)
	}
	if !eqf(got.CoolantTemperature, m.CoolantTemperature) || !eqf(got.FuelTemperature, m.FuelTemperature) ||
		!eqf(got.OilTemperature, m.OilTemperature) || got.TurboOilTemperature != nil {
		t.Errorf("values = %+v", got)
	}
	if b[0] != 130 {
		t.Errorf("coolant raw = %d, want 130", b[0])
	}
}

func TestET1_HotOil(t *testing.T) {
	m := ET1{OilTemperature: f32(1000), TurboOilTemperature: f32(1735)}
	b := m.Bytes()
	if b[2] != 0x20 || b[3] != 0x9F {
		t.Errorf("oil raw = % X, want 20 9F", b[2:4])
	}
	got, err := ParseET1(b[:])
	if err != nil {
		t.Fatalf("ParseET1 error: %v", err)
	}
	if !eqf(got.OilTemperature, m.OilTemperature) || !eqf(got.TurboOilTemperature, m.TurboOilTemperature) {
		t.Errorf("oil = %v, turbo = %v", got.OilTemperature, got.TurboOilTemperature)
	}
}

func TestWrite_ShortBufferPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("write into a 1 byte buffer should panic for a 2 byte slot")
		}
	}()
	write(j1939.SlotTemperature, make([]byte, 1), f32(25))
}

func TestTSC1_RoundTrip(t *testing.T) {
	m := TSC1{
		OverrideControlMode:   1,
		SpeedControlCondition: 2,
		OverridePriority:      3,
		RequestedSpeed:        f32(900),
		RequestedTorque:       f32(100),
	}
	b := m.Bytes()
	if b[0] != 0xF9 {
		t.Errorf("byte 0 = 0x%02X, want 0xF9", b[0])
	}
	got, err := ParseTSC1(b[:])
	if err != nil {
		t.Fatalf("ParseTSC1 error: %v", err)
	}
	if got.OverrideControlMode != 1 || got.SpeedControlCondition != 2 || got.OverridePriority != 3 {
		t.Errorf("modes = %+v", got)
	}
	if !eqf(got.RequestedSpeed, m.RequestedSpeed) || !eqf(got.RequestedTorque, m.RequestedTorque) {
		t.Errorf("values = %+v", got)
	}

	if f := m.Frame(0x00, 0x27); f.ID().Raw() != 0x0C000027 {
		t.Errorf("ID = 0x%X, want 0x0C000027", f.ID().Raw())
	}
}

func TestEFLP1_RoundTrip(t *testing.T) {
	m := EFLP1{
		OilPressure:       f32(120),
		CrankcasePressure: f32(-178),
		CoolantPressure:   f32(120),
		CoolantLevel:      f32(50),
	}
	b := m.Bytes()
	got, err := ParseEFLP1(b[:])
	if err != nil {
		t.Fatalf("ParseEFLP1 error: %v", err)
	}
	if !eqf(got.OilPressure, m.OilPressure) || !eqf(got.CrankcasePressure, m.CrankcasePressure) ||
		!eqf(got.CoolantPressure, m.CoolantPressure) || !eqf(got.CoolantLevel, m.CoolantLevel) ||
		got.FuelDeliveryPressure != nil || got.OilLevel != nil {
		t.Errorf("values = %+v", got)
	}
}

func TestEngineHours_RoundTrip(t *testing.T) {
	m := EngineHours{TotalHours: f32(123456), TotalRevolutions: f32(5000000)}
	b := m.Bytes()
	got, err := ParseEngineHours(b[:])
	if err != nil {
		t.Fatalf("ParseEngineHours error: %v", err)
	}
	if !eqf(got.TotalHours, m.TotalHours) || !eqf(got.TotalRevolutions, m.TotalRevolutions) {
		t.Errorf("values = %+v", got)
	}
}

// ============================================================
// Vehicle Message Tests
// ============================================================

func TestVEP1_RoundTrip(t *testing.T) {
	m := VEP1{
		NetBatteryCurrent: f32(-20),
		AlternatorCurrent: f32(60),
		BatteryPotential:  f32(12.5),
	}
	b := m.Bytes()
	got, err := ParseVEP1(b[:])
	if err != nil {
		t.Fatalf("ParseVEP1 error: %v", err)
	}
	if !eqf(got.NetBatteryCurrent, m.NetBatteryCurrent) || !eqf(got.AlternatorCurrent, m.AlternatorCurrent) ||
		!eqf(got.BatteryPotential, m.BatteryPotential) || got.ChargingSystemPotential != nil || got.KeyswitchPotential != nil {
		t.Errorf("values = %+v", got)
	}
	if f := m.Frame(234); f.ID().Raw() != 0x18FEF7EA {
		t.Errorf("ID = 0x%X, want 0x18FEF7EA", f.ID().Raw())
	}
}

func TestVehicleDistanceAndFuel_RoundTrip(t *testing.T) {
	vd := VehicleDistance{TripDistance: f32(123456), TotalDistance: nil}
	b := vd.Bytes()
	got, err := ParseVehicleDistance(b[:])
	if err != nil {
		t.Fatalf("ParseVehicleDistance error: %v", err)
	}
	if !eqf(got.TripDistance, vd.TripDistance) || got.TotalDistance != nil {
		t.Errorf("values = %+v", got)
	}

	lfc := FuelConsumption{TripFuel: f32(7863247), TotalFuel: f32(10)}
	b = lfc.Bytes()
	fuel, err := ParseFuelConsumption(b[:])
	if err != nil {
		t.Fatalf("ParseFuelConsumption error: %v", err)
	}
	if !eqf(fuel.TripFuel, lfc.TripFuel) || !eqf(fuel.TotalFuel, lfc.TotalFuel) {
		t.Errorf("values = %+v", fuel)
	}
}

func TestParse_ShortPayload(t *testing.T) {
	short := []byte{0x00, 0x00, 0x00}
	parsers := map[string]func([]byte) error{
		"EEC1":  func(b []byte) error { _, err := ParseEEC1(b); return err },
		"EEC2":  func(b []byte) error { _, err := ParseEEC2(b); return err },
		"ET1":   func(b []byte) error { _, err := ParseET1(b); return err },
		"TSC1":  func(b []byte) error { _, err := ParseTSC1(b); return err },
		"VEP1":  func(b []byte) error { _, err := ParseVEP1(b); return err },
		"HOURS": func(b []byte) error { _, err := ParseEngineHours(b); return err },
	}
	for name, parse := range parsers {
		if err := parse(short); !errors.Is(err, j1939.ErrMalformed) {
			t.Errorf("%s: error = %v, want ErrMalformed", name, err)
		}
	}
}

// ============================================================
// Mode and Address Tests
// ============================================================

func TestEngineModes_String(t *testing.T) {
	tests := []struct {
		got  string
		want string
	}{
		{TorqueModeRemoteAccelerator.String(), "Remote Accelerator"},
		{EngineTorqueMode(13).String(), "Other"},
		{TorqueModeNotAvailable.String(), "Not Available"},
		{StarterModeStarterInhibitedReasonUnknown.String(), "Starter Inhibited (Reason Unknown)"},
		{StarterModeErrorLegacy.String(), "Error"},
		{StarterModeError.String(), "Error"},
		{EngineStarterMode(10).String(), "Reserved(10)"},
		{EngineStarterModeFromValue(0xFF).String(), "Not Available"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
	if TorqueModeNotAvailable.IsAvailable() || !TorqueModeNoRequest.IsAvailable() {
		t.Error("IsAvailable mismatch for torque mode")
	}
}

func TestSourceAddressName(t *testing.T) {
	tests := map[uint8]string{
		0x00: "Engine 1",
		0x03: "Transmission 1",
		0x17: "Instrument Cluster 1",
		0x61: "Fuel Cell System",
		0x62: "SAE Reserved (0x62)",
		0x80: "Dynamic (0x80)",
		0xF7: "Dynamic (0xF7)",
		0xF9: "Off Board Diagnostic Service Tool 1",
		0xFE: "Null",
		0xFF: "Global",
	}
	for sa, want := range tests {
		if got := SourceAddressName(sa); got != want {
			t.Errorf("SourceAddressName(0x%02X) = %q, want %q", sa, got, want)
		}
	}
	if !IsDynamicAddress(0x80) || IsDynamicAddress(0xF8) {
		t.Error("IsDynamicAddress mismatch")
	}
}

// ============================================================
// Registry Tests
// ============================================================

func TestFormatPayload(t *testing.T) {
	out := FormatPayload(j1939.PGNElectronicEngineController1,
		[]byte{0xF0, 0x7D, 0x7D, 0x20, 0x1C, 0xFF, 0xF0, 0xFF})
	for _, want := range []string{"SPN 190", "engine_speed=900.000 rpm", "controlling_source=n/a"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatPayload missing %q:\n%s", want, out)
		}
	}

	if out := FormatPayload(j1939.PGNAddressClaimed, make([]byte, 8)); out != "" {
		t.Errorf("FormatPayload of undecoded PGN = %q, want empty", out)
	}
	if out := FormatPayload(j1939.PGNEngineTemperature1, []byte{0x01}); !strings.Contains(out, "decode error") {
		t.Errorf("FormatPayload of short payload = %q", out)
	}
}

func TestSupported(t *testing.T) {
	pgns := Supported()
	if len(pgns) == 0 {
		t.Fatal("Supported should not be empty")
	}
	for _, pgn := range pgns {
		if _, ok := Lookup(pgn); !ok {
			t.Errorf("Lookup(%s) failed", pgn)
		}
	}
	if _, ok := Lookup(j1939.PGNRequest); ok {
		t.Error("RQST should not have a payload decoder")
	}
}
