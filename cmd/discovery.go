// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/spf13/cobra"
)

var (
	discoveryTimeout int
	discoveryTarget  string
)

var discoveryCmd = &cobra.Command{
	Use:   "discovery",
	Short: "Discover ECUs by requesting Address Claimed",
	Long: `Send a Request for Address Claimed and list every ECU that answers.

Each ECU on the bus responds with its 64-bit NAME from the address it
currently holds. An ECU that failed to claim an address answers from the
null address (0xFE) with Cannot Claim Address.

By default the request goes to the global address. Use --da to query a
single ECU.

Examples:
  # Discover through an SLCAN adapter
  j1939stat discovery --port /dev/ttyUSB0

  # Ask only the engine controller
  j1939stat discovery --can can0 --da 0x00

Exit codes:
  0 - Discovery successful (at least one ECU found)
  1 - Discovery failed (no ECUs or timeout)
  2 - Connection error`,
	RunE: runDiscovery,
}

func init() {
	rootCmd.AddCommand(discoveryCmd)
	discoveryCmd.Flags().IntVar(&discoveryTimeout, "timeout", 2, "Timeout in seconds for discovery")
	discoveryCmd.Flags().StringVar(&discoveryTarget, "da", "0xFF", "Destination address for the request")
}

// discoveredECU is one Address Claimed response
type discoveredECU struct {
	address  uint8
	name     j1939.Name
	seen     time.Time
	conflict bool
}

func runDiscovery(cmd *cobra.Command, args []string) error {
	da, err := parseAddress(discoveryTarget)
	if err != nil {
		return err
	}

	link, connInfo, err := OpenLink(cmd.Context(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer link.Close()

	fmt.Printf("j1939stat - ECU Discovery\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Source address: 0x%02X\n", cfg.SourceAddress)
	fmt.Printf("Timeout: %d seconds\n\n", discoveryTimeout)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(discoveryTimeout)*time.Second)
	defer cancel()

	request := j1939.Request(da, cfg.SourceAddress, j1939.PGNAddressClaimed)
	fmt.Printf("Sending Request for Address Claimed (id=%08X da=%02X)...\n", request.ID().Raw(), da)
	if err := link.Send(ctx, request); err != nil {
		fmt.Printf("SEND FAILED: %v\n", err)
		os.Exit(2)
	}

	ecus, err := collectClaims(ctx, link.Receive, da)
	if err != nil {
		fmt.Printf("READ FAILED: %v\n", err)
		os.Exit(2)
	}

	fmt.Printf("\n--- Discovery summary ---\n")
	fmt.Printf("ECUs found: %d\n", len(ecus))

	if len(ecus) == 0 {
		fmt.Printf("No ECUs responded. Check bitrate, termination and ECU power.\n")
		os.Exit(1)
	}
	return nil
}

// collectClaims gathers Address Claimed responses until ctx ends. Only a
// failure other than the deadline is returned as an error.
func collectClaims(ctx context.Context, receive func(context.Context) (j1939.Frame, error), da uint8) ([]discoveredECU, error) {
	found := make(map[uint8]*discoveredECU)

	for {
		frame, err := receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return nil, err
		}

		id := frame.ID()
		if id.PGN() != j1939.PGNAddressClaimed {
			continue
		}
		if da != j1939.AddressGlobal && id.SourceAddress() != da && id.SourceAddress() != j1939.AddressNull {
			continue
		}
		name, err := j1939.ParseName(frame.PDU())
		if err != nil {
			logger.Debug().Err(err).Uint8("sa", id.SourceAddress()).Msg("bad address claim")
			continue
		}

		sa := id.SourceAddress()
		if prev, ok := found[sa]; ok {
			if prev.name != name {
				prev.conflict = true
				fmt.Printf("\nAddress conflict at 0x%02X: %s\n", sa, name)
			}
			continue
		}
		ecu := &discoveredECU{address: sa, name: name, seen: frame.Timestamp()}
		found[sa] = ecu
		printECU(ecu)
	}

	ecus := make([]discoveredECU, 0, len(found))
	for _, ecu := range found {
		ecus = append(ecus, *ecu)
	}
	sort.Slice(ecus, func(i, j int) bool { return ecus[i].address < ecus[j].address })
	return ecus, nil
}

func printECU(ecu *discoveredECU) {
	n := ecu.name
	if ecu.address == j1939.AddressNull {
		fmt.Printf("\nCannot Claim Address:\n")
	} else {
		fmt.Printf("\nECU found:\n")
		fmt.Printf("  Address: 0x%02X (%s)\n", ecu.address, spn.SourceAddressName(ecu.address))
	}
	fmt.Printf("  NAME: 0x%016X\n", n.Uint64())
	fmt.Printf("  Identity: %d\n", n.IdentityNumber)
	fmt.Printf("  Manufacturer: %d\n", n.ManufacturerCode)
	fmt.Printf("  Function: %d (instance %d, ECU %d)\n", n.Function, n.FunctionInstance, n.ECUInstance)
	fmt.Printf("  Vehicle system: %d (instance %d)\n", n.VehicleSystem, n.VehicleSystemInstance)
	fmt.Printf("  Industry group: %d\n", n.IndustryGroup)
	fmt.Printf("  Arbitrary address capable: %t\n", n.ArbitraryAddressCapable)
}
