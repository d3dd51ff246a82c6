// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package j1939

// BitMaskFilter is an acceptance filter in the form used by CAN controllers:
// an identifier matches when id & Mask == Filter & Mask.
type BitMaskFilter struct {
	Filter uint32
	Mask   uint32
}

// Match reports whether id passes the filter
func (m BitMaskFilter) Match(id ID) bool {
	return id.Raw()&m.Mask == m.Filter&m.Mask
}

// DestinationAddressFilter matches frames addressed to address
func DestinationAddressFilter(address uint8) BitMaskFilter {
	return BitMaskFilter{Filter: uint32(address) << 8, Mask: 0xFF00}
}

// SourceAddressFilter matches frames sent from address
func SourceAddressFilter(address uint8) BitMaskFilter {
	return BitMaskFilter{Filter: uint32(address), Mask: 0xFF}
}

// PGNFilter matches frames carrying pgn. For PDU1 PGNs the destination byte is not compared.
func PGNFilter(pgn PGN) BitMaskFilter {
	if pgn.IsPDU1() {
		return BitMaskFilter{Filter: uint32(pgn&PGNMask) << 8, Mask: 0x3FF0000}
	}
	return BitMaskFilter{Filter: uint32(pgn&PGNMask) << 8, Mask: 0x3FFFF00}
}

// FrameFilter selects frames
type FrameFilter func(Frame) bool

// ByMask wraps a bit mask filter
func ByMask(m BitMaskFilter) FrameFilter {
	return func(f Frame) bool { return m.Match(f.ID()) }
}

// ByPGN matches any of the given PGNs
func ByPGN(pgns ...PGN) FrameFilter {
	set := make(map[PGN]struct{}, len(pgns))
	for _, p := range pgns {
		set[p] = struct{}{}
	}
	return func(f Frame) bool {
		_, ok := set[f.ID().PGN()]
		return ok
	}
}

// BySource matches frames from address
func BySource(address uint8) FrameFilter {
	return ByMask(SourceAddressFilter(address))
}

// ByDestination matches frames addressed to address, including broadcasts
func ByDestination(address uint8) FrameFilter {
	return func(f Frame) bool {
		da, ok := f.ID().DestinationAddress()
		return !ok || da == address || da == AddressGlobal
	}
}

// TransportOnly matches transport protocol frames
func TransportOnly() FrameFilter {
	return ByPGN(PGNTransportProtocolConnectionManagement, PGNTransportProtocolDataTransfer)
}

// And matches when both filters match
func And(a, b FrameFilter) FrameFilter {
	return func(f Frame) bool { return a(f) && b(f) }
}

// Or matches when either filter matches
func Or(a, b FrameFilter) FrameFilter {
	return func(f Frame) bool { return a(f) || b(f) }
}

// Not inverts a filter
func Not(a FrameFilter) FrameFilter {
	return func(f Frame) bool { return !a(f) }
}
