// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

func TestCollectClaims(t *testing.T) {
	engine := j1939.Name{IdentityNumber: 1, ManufacturerCode: 0x7FF, IndustryGroup: 1}
	brakes := j1939.Name{IdentityNumber: 2, ManufacturerCode: 0x7FF, Function: 9, IndustryGroup: 1}
	dup := j1939.Name{IdentityNumber: 3, ManufacturerCode: 0x100}

	frames := []j1939.Frame{
		j1939.AddressClaimed(0x0B, brakes),
		testFrame(t, 0x0CF00400, make([]byte, 8)),
		j1939.AddressClaimed(0x00, engine),
		j1939.AddressClaimed(0x00, engine),
		j1939.AddressClaimed(0x0B, dup),
		j1939.CannotClaimAddress(dup),
	}

	ecus, err := collectClaims(shortTimeout(t), sliceReceiver(frames...), j1939.AddressGlobal)
	if err != nil {
		t.Fatalf("collectClaims error: %v", err)
	}
	if len(ecus) != 3 {
		t.Fatalf("Found %d ECUs, want 3: %+v", len(ecus), ecus)
	}
	if ecus[0].address != 0x00 || ecus[1].address != 0x0B || ecus[2].address != j1939.AddressNull {
		t.Errorf("ECUs not sorted by address: %+v", ecus)
	}
	if ecus[0].conflict {
		t.Error("Repeated identical claim should not be a conflict")
	}
	if !ecus[1].conflict || ecus[1].name != brakes {
		t.Errorf("0x0B = %+v, want the first claim marked as a conflict", ecus[1])
	}
}

func TestCollectClaims_Addressed(t *testing.T) {
	frames := []j1939.Frame{
		j1939.AddressClaimed(0x0B, j1939.Name{IdentityNumber: 2}),
		j1939.AddressClaimed(0x00, j1939.Name{IdentityNumber: 1}),
	}

	ecus, err := collectClaims(shortTimeout(t), sliceReceiver(frames...), 0x00)
	if err != nil {
		t.Fatalf("collectClaims error: %v", err)
	}
	if len(ecus) != 1 || ecus[0].address != 0x00 {
		t.Errorf("ECUs = %+v, want only 0x00", ecus)
	}
}

func TestCollectClaims_LinkFailure(t *testing.T) {
	failure := errors.New("adapter unplugged")
	receive := func(context.Context) (j1939.Frame, error) {
		return j1939.Frame{}, failure
	}
	if _, err := collectClaims(shortTimeout(t), receive, j1939.AddressGlobal); !errors.Is(err, failure) {
		t.Errorf("error = %v, want %v", err, failure)
	}
}
