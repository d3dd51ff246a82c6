// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939_test

import (
	"fmt"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
)

func ExampleIDBuilder() {
	id := j1939.NewIDBuilder(j1939.PGNRequest).
		DestinationAddress(0x20).
		SourceAddress(0x10).
		Build()
	fmt.Printf("0x%X\n", id.Raw())
	fmt.Println(id)
	// Output:
	// 0x18EA2010
	// [0x18EA2010] Prio: 6 PGN: 59904 DA: 0x20
}

func ExampleSlot() {
	raw := j1939.SlotRotationalVelocity.EncodeValue(900)
	rpm, ok := j1939.SlotRotationalVelocity.Decode(raw)
	fmt.Println(raw, rpm, ok)
	// Output: 7200 900 true
}

func ExampleBroadcastTransport() {
	tx, err := j1939.NewBroadcastSender(0x01, j1939.PGNAddressClaimed, []byte{1, 2, 3, 4, 5, 6, 7, 8, 9})
	if err != nil {
		panic(err)
	}
	frames, _ := tx.Frames()

	rx := j1939.NewBroadcastTransport(0x01, 0)
	for _, f := range frames {
		fmt.Printf("%08X % X\n", f.ID().Raw(), f.PDU())
		_ = rx.FromFrame(f)
	}
	fmt.Println(rx.PGN(), rx.Len(), rx.IsComplete())
	// Output:
	// 1CECFF01 20 09 00 02 FF 00 EE 00
	// 1CEBFF01 01 01 02 03 04 05 06 07
	// 1CEBFF01 02 08 09 FF FF FF FF FF
	// AC 9 true
}
