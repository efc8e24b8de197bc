// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package assembly implements the distributed assembly pipeline (spec.md
// §4.5, C5): exchange neighbor bases, compute Zᵢᵀ A Zⱼ blocks, and emit
// the master-side CSR slice of E.
package assembly

import "errors"

// ErrProtocolViolation is returned when a master's view of a slave's header
// disagrees with what the slave actually sent (spec.md §7).
var ErrProtocolViolation = errors.New("assembly: header neighbor-count disagreement between slave and master")

// Header is the fixed-layout replacement for the original source's
// positional "unsigned short info[...]" array (spec.md §9 REDESIGN FLAGS):
// the first three fields a slave sends to its master, followed by, per
// included neighbor block, the global column offset it starts at and its
// width (already resolved by the sender during the dimension-exchange
// phase, so the master never needs a second round-trip to learn a logical
// master id for a neighbor it does not itself own).
type Header struct {
	NumNeighbors    uint16
	Nu              uint16
	Coefficients    uint16
	NeighborOffsets []uint16
	NeighborWidths  []uint16
}

// Encode packs the header into the wire layout sent over SendUint16.
func (h Header) Encode() []uint16 {
	n := int(h.NumNeighbors)
	out := make([]uint16, 3+2*n)
	out[0], out[1], out[2] = h.NumNeighbors, h.Nu, h.Coefficients
	copy(out[3:3+n], h.NeighborOffsets)
	copy(out[3+n:3+2*n], h.NeighborWidths)
	return out
}

// DecodeHeader is the inverse of Encode, validating that the buffer's
// length agrees with its own NumNeighbors field.
func DecodeHeader(buf []uint16) (Header, error) {
	if len(buf) < 3 {
		return Header{}, ErrProtocolViolation
	}
	h := Header{NumNeighbors: buf[0], Nu: buf[1], Coefficients: buf[2]}
	n := int(h.NumNeighbors)
	if len(buf) != 3+2*n {
		return Header{}, ErrProtocolViolation
	}
	h.NeighborOffsets = append([]uint16(nil), buf[3:3+n]...)
	h.NeighborWidths = append([]uint16(nil), buf[3+n:3+2*n]...)
	return h, nil
}
