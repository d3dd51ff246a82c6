// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/Thermoquad/j1939stat/pkg/canlink"
	"github.com/Thermoquad/j1939stat/pkg/j1939"
	"github.com/Thermoquad/j1939stat/pkg/j1939/spn"
	"github.com/spf13/cobra"
)

var (
	sendGap         time.Duration
	sendTarget      string
	sendAckControl  string
	sendName        string
	sendNameFields  j1939.Name
	sendSpeed       float32
	sendDTCs        []string
	sendRedLamp     bool
	sendAmberLamp   bool
	sendNewAddress  string
	sendTSC1Target  string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Transmit J1939 frames",
	Long: `Build and transmit J1939 frames from the configured source address.

Multi-frame payloads go out as a BAM broadcast: one TP.CM announce followed
by TP.DT packets spaced by --gap.`,
}

var sendRequestCmd = &cobra.Command{
	Use:   "request <pgn>",
	Short: "Send a Request (PGN 59904)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pgn, err := parsePGN(args[0])
		if err != nil {
			return err
		}
		da, err := parseAddress(sendTarget)
		if err != nil {
			return err
		}
		return sendFrames(cmd, j1939.Request(da, cfg.SourceAddress, pgn))
	},
}

var sendClaimCmd = &cobra.Command{
	Use:   "claim",
	Short: "Send Address Claimed (PGN 60928)",
	Long: `Announce a NAME at the configured source address.

The NAME is taken from --name as a 64-bit number, or built from the
individual field flags.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := claimName()
		if err != nil {
			return err
		}
		return sendFrames(cmd, j1939.AddressClaimed(cfg.SourceAddress, name))
	},
}

var sendCannotClaimCmd = &cobra.Command{
	Use:   "cannot-claim",
	Short: "Send Cannot Claim Address from the null address",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := claimName()
		if err != nil {
			return err
		}
		return sendFrames(cmd, j1939.CannotClaimAddress(name))
	},
}

var sendCommandedAddressCmd = &cobra.Command{
	Use:   "commanded-address",
	Short: "Assign a new address to the node with the given NAME",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := claimName()
		if err != nil {
			return err
		}
		addr, err := parseAddress(sendNewAddress)
		if err != nil {
			return err
		}
		frames, err := j1939.CommandedAddress(cfg.SourceAddress, name, addr)
		if err != nil {
			return err
		}
		return sendFrames(cmd, frames[:]...)
	},
}

var sendAckCmd = &cobra.Command{
	Use:   "ack <pgn>",
	Short: "Send an Acknowledgement (PGN 59392)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pgn, err := parsePGN(args[0])
		if err != nil {
			return err
		}
		control, err := parseAckControl(sendAckControl)
		if err != nil {
			return err
		}
		return sendFrames(cmd, j1939.AcknowledgementWithControl(cfg.SourceAddress, pgn, control))
	},
}

var sendBAMCmd = &cobra.Command{
	Use:   "bam <pgn> <hex>",
	Short: "Broadcast a payload of 9 to 1785 bytes with BAM",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pgn, err := parsePGN(args[0])
		if err != nil {
			return err
		}
		data, err := parseHexBytes(args[1])
		if err != nil {
			return err
		}
		tx, err := j1939.NewBroadcastSender(cfg.SourceAddress, pgn, data)
		if err != nil {
			return err
		}
		frames, err := tx.Frames()
		if err != nil {
			return err
		}
		return sendFrames(cmd, frames...)
	},
}

var sendRawCmd = &cobra.Command{
	Use:   "raw <id> [hex]",
	Short: "Send a frame with an explicit 29-bit identifier",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := parseNumber(args[0], 32)
		if err != nil {
			return err
		}
		if raw > j1939.IDMask {
			return fmt.Errorf("identifier 0x%X exceeds 29 bits", raw)
		}
		var data []byte
		if len(args) == 2 {
			if data, err = parseHexBytes(args[1]); err != nil {
				return err
			}
		}
		frame, err := j1939.ParseFrame(j1939.NewID(uint32(raw)), data)
		if err != nil {
			return err
		}
		return sendFrames(cmd, frame)
	},
}

var sendTSC1Cmd = &cobra.Command{
	Use:   "tsc1",
	Short: "Send one Torque/Speed Control 1 speed request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		da, err := parseAddress(sendTSC1Target)
		if err != nil {
			return err
		}
		if da == j1939.AddressGlobal {
			return fmt.Errorf("TSC1 needs a specific destination, use --da")
		}
		o := speedOverride{target: da, rpm: sendSpeed}
		return sendFrames(cmd, o.frame(cfg.SourceAddress))
	},
}

var sendDM1Cmd = &cobra.Command{
	Use:   "dm1",
	Short: "Announce active DTCs",
	Long: `Send DM1 with the given trouble codes. One DTC fits in a single frame;
more are broadcast with BAM.

  j1939stat send dm1 --dtc 110:0 --dtc 190:2:5 --amber`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		msg := spn.DM1{}
		if sendRedLamp {
			msg.RedStopLamp = spn.LampOn
		}
		if sendAmberLamp {
			msg.AmberWarningLamp = spn.LampOn
		}
		for _, s := range sendDTCs {
			dtc, err := parseDTC(s)
			if err != nil {
				return err
			}
			msg.DTCs = append(msg.DTCs, dtc)
		}
		frames, err := msg.Frames(cfg.SourceAddress)
		if err != nil {
			return err
		}
		return sendFrames(cmd, frames...)
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.PersistentFlags().DurationVar(&sendGap, "gap", 50*time.Millisecond, "Delay between frames of a multi-frame send")

	sendRequestCmd.Flags().StringVar(&sendTarget, "da", "0xFF", "Destination address")
	sendTSC1Cmd.Flags().StringVar(&sendTSC1Target, "da", "0x00", "Engine address")
	sendTSC1Cmd.Flags().Float32Var(&sendSpeed, "speed", 1000, "Requested engine speed (rpm)")

	for _, c := range []*cobra.Command{sendClaimCmd, sendCannotClaimCmd, sendCommandedAddressCmd} {
		c.Flags().StringVar(&sendName, "name", "", "64-bit NAME (overrides the field flags)")
		c.Flags().Uint32Var(&sendNameFields.IdentityNumber, "identity", 0, "Identity number (21 bits)")
		c.Flags().Uint16Var(&sendNameFields.ManufacturerCode, "manufacturer", 0, "Manufacturer code (11 bits)")
		c.Flags().Uint8Var(&sendNameFields.Function, "function", 0, "Function")
		c.Flags().Uint8Var(&sendNameFields.FunctionInstance, "function-instance", 0, "Function instance (5 bits)")
		c.Flags().Uint8Var(&sendNameFields.ECUInstance, "ecu-instance", 0, "ECU instance (3 bits)")
		c.Flags().Uint8Var(&sendNameFields.VehicleSystem, "vehicle-system", 0, "Vehicle system (7 bits)")
		c.Flags().Uint8Var(&sendNameFields.IndustryGroup, "industry-group", 0, "Industry group (3 bits)")
		c.Flags().BoolVar(&sendNameFields.ArbitraryAddressCapable, "arbitrary", false, "Arbitrary address capable")
	}
	sendCommandedAddressCmd.Flags().StringVar(&sendNewAddress, "address", "", "Address to assign")
	_ = sendCommandedAddressCmd.MarkFlagRequired("address")

	sendAckCmd.Flags().StringVar(&sendAckControl, "control", "positive", "positive, negative, denied or busy")

	sendDM1Cmd.Flags().StringArrayVar(&sendDTCs, "dtc", nil, "Trouble code as spn:fmi[:occurrences] (repeatable)")
	sendDM1Cmd.Flags().BoolVar(&sendRedLamp, "red", false, "Light the red stop lamp")
	sendDM1Cmd.Flags().BoolVar(&sendAmberLamp, "amber", false, "Light the amber warning lamp")

	sendCmd.AddCommand(sendRequestCmd, sendClaimCmd, sendCannotClaimCmd, sendCommandedAddressCmd,
		sendAckCmd, sendBAMCmd, sendRawCmd, sendTSC1Cmd, sendDM1Cmd)
}

// claimName returns the NAME given by --name or by the field flags
func claimName() (j1939.Name, error) {
	if sendName == "" {
		return sendNameFields, nil
	}
	v, err := parseNumber(sendName, 64)
	if err != nil {
		return j1939.Name{}, err
	}
	return j1939.NameFromUint64(v), nil
}

func parseAckControl(s string) (uint8, error) {
	switch strings.ToLower(s) {
	case "positive", "ack":
		return j1939.AckPositive, nil
	case "negative", "nack":
		return j1939.AckNegative, nil
	case "denied":
		return j1939.AckDenied, nil
	case "busy":
		return j1939.AckBusy, nil
	}
	return 0, fmt.Errorf("unknown acknowledgement control %q", s)
}

func sendFrames(cmd *cobra.Command, frames ...j1939.Frame) error {
	link, connInfo, err := OpenLink(cmd.Context(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Connection error: %v\n", err)
		os.Exit(2)
	}
	defer link.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Connection: %s\n", connInfo)
	return transmit(cmd.Context(), link, frames, sendGap, cmd.OutOrStdout())
}

// transmit sends frames in order, pausing gap between them
func transmit(ctx context.Context, link canlink.Link, frames []j1939.Frame, gap time.Duration, w io.Writer) error {
	for i, f := range frames {
		if i > 0 && gap > 0 {
			select {
			case <-time.After(gap):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := link.Send(ctx, f); err != nil {
			return fmt.Errorf("frame %d of %d: %w", i+1, len(frames), err)
		}
		fmt.Fprint(w, j1939.FormatFrame(f))
	}
	return nil
}
