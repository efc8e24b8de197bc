// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assembly

import (
	"sort"
	"sync"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/distmap"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/cpmech/gocoarse/scalar"
	"github.com/cpmech/gocoarse/topology"
)

// Message tags, kept distinct per spec.md §5 ("message tags ... must not
// collide"): 1 is dimension exchange, 2 is neighbor basis transfer, 3 is
// slave -> master coefficient transfer.
const (
	tagDimension = 1
	tagBasis     = 2
	tagCoeffs    = 3
)

// Storage selects whether E is emitted with only its upper triangle
// (Symmetric) or in full (General), per spec.md §3's S parameter.
type Storage byte

const (
	Symmetric Storage = 'S'
	General   Storage = 'G'
)

// Build implements spec.md §4.5's four phases. It runs on every rank in
// world; on worker ranks it returns zero values after handing its block off
// to its master. On master ranks it returns the master's CSR slice of E:
// rowptr has length nrow+1, colidx/values have length rowptr[nrow].
//
// The implementation assumes every neighbor pair shares the same number of
// degrees of freedom (sub.Dof()) - the general restriction-to-overlap
// mapping HPDDM's Subdomain::getMap/applyToNeighbor perform is out of scope
// here (see DESIGN.md).
func Build[K scalar.T](k kernel.Kernel[K], world comm.Communicator, lay *topology.Layout, dm *distmap.Map, sub SubdomainOperator[K], storage Storage) (nrow, ncol int, rowptr, colidx []int, values []K, err error) {
	dims, err := exchangeDims(world, sub, dm)
	if err != nil {
		return 0, 0, nil, nil, nil, err
	}
	bases, err := exchangeBases(world, sub, dims)
	if err != nil {
		return 0, 0, nil, nil, nil, err
	}

	if !lay.IsMaster {
		entries := buildEntries(k, world, sub, dm, dims, bases, storage)
		h, vals := packHeader[K](sub.Nu(), entries)
		masterWorld := lay.ScatterGroup[0]
		if err := sendHeaderAndValues(world, masterWorld, h, vals); err != nil {
			return 0, 0, nil, nil, nil, err
		}
		return 0, 0, nil, nil, nil, nil
	}

	ncol = dm.N
	nrow = dm.Nrow

	sizeSplit := len(lay.ScatterGroup)
	headers := make([]Header, sizeSplit)
	blockValues := make([][]K, sizeSplit)
	rowStart := make([]int, sizeSplit)

	if lay.X != topology.Coordinator {
		entries := buildEntries(k, world, sub, dm, dims, bases, storage)
		headers[0], blockValues[0] = packHeader[K](sub.Nu(), entries)
	}

	for loc := 1; loc < sizeSplit; loc++ {
		h, vals, err := recvHeaderAndValues[K](world, lay.ScatterGroup[loc])
		if err != nil {
			return 0, 0, nil, nil, nil, err
		}
		if int(h.Nu) != dm.InfoSplit[loc] {
			return 0, 0, nil, nil, nil, ErrProtocolViolation
		}
		headers[loc] = h
		blockValues[loc] = vals
	}

	rowCursor := 0
	for loc := 0; loc < sizeSplit; loc++ {
		if loc == 0 && lay.X == topology.Coordinator {
			continue
		}
		rowStart[loc] = rowCursor
		rowCursor += int(headers[loc].Nu)
	}
	if rowCursor != nrow {
		return 0, 0, nil, nil, nil, ErrProtocolViolation
	}

	rowptr = make([]int, nrow+1)
	for loc := 0; loc < sizeSplit; loc++ {
		if loc == 0 && lay.X == topology.Coordinator {
			continue
		}
		h := headers[loc]
		nnzPerRow := 0
		for _, w := range h.NeighborWidths {
			nnzPerRow += int(w)
		}
		for r := 0; r < int(h.Nu); r++ {
			rowptr[rowStart[loc]+r+1] = nnzPerRow
		}
	}
	for i := 0; i < nrow; i++ {
		rowptr[i+1] += rowptr[i]
	}

	colidx = make([]int, rowptr[nrow])
	values = make([]K, rowptr[nrow])

	var wg sync.WaitGroup
	for loc := 0; loc < sizeSplit; loc++ {
		if loc == 0 && lay.X == topology.Coordinator {
			continue
		}
		loc := loc
		wg.Add(1)
		go func() {
			defer wg.Done()
			placeBlock(headers[loc], blockValues[loc], rowStart[loc], rowptr, colidx, values)
		}()
	}
	wg.Wait()

	if storage == Symmetric {
		// Each row opens with its member's self block (buildEntries puts it
		// first under S=='S'); drop the part of that block left of the diagonal.
		w := 0
		for i := 0; i < nrow; i++ {
			start, end := rowptr[i], rowptr[i+1]
			lower := start + dm.Off + i - colidx[start]
			rowptr[i] = w
			for p := lower; p < end; p++ {
				colidx[w], values[w] = colidx[p], values[p]
				w++
			}
		}
		rowptr[nrow] = w
		colidx, values = colidx[:w], values[:w]
	}

	return nrow, ncol, rowptr, colidx, values, nil
}

// placeBlock writes one scatter-group member's contribution into the
// shared CSR arrays. Every goroutine calling this owns a disjoint row
// range (rowStart[loc]..rowStart[loc]+Nu), so there is no data race despite
// the shared backing arrays. vals holds the member's blocks one after
// another, each a row-major Nu x width matrix, as packHeader lays them out.
func placeBlock[K scalar.T](h Header, vals []K, rowStart int, rowptr []int, colidx []int, values []K) {
	nu := int(h.Nu)
	base, col := 0, 0
	for b := 0; b < int(h.NumNeighbors); b++ {
		width := int(h.NeighborWidths[b])
		off := int(h.NeighborOffsets[b])
		for r := 0; r < nu; r++ {
			p := rowptr[rowStart+r] + col
			for c := 0; c < width; c++ {
				colidx[p+c] = off + c
				values[p+c] = vals[base+r*width+c]
			}
		}
		base += nu * width
		col += width
	}
}

func exchangeDims[K scalar.T](world comm.Communicator, sub SubdomainOperator[K], dm *distmap.Map) (map[int][2]int, error) {
	neighbors := sub.Pattern().Ranks
	info := make(map[int][2]int, len(neighbors))
	if len(neighbors) == 0 {
		return info, nil
	}
	own := []float64{float64(sub.Nu()), float64(dm.GlobalOffset)}
	reqs := make([]comm.Request, 0, len(neighbors))
	for _, j := range neighbors {
		reqs = append(reqs, world.ISendFloat64(own, j, tagDimension))
	}
	for _, j := range neighbors {
		buf := make([]float64, 2)
		if err := world.RecvFloat64(buf, j, tagDimension); err != nil {
			return nil, err
		}
		info[j] = [2]int{int(buf[0]), int(buf[1])}
	}
	for _, r := range reqs {
		if err := r.Wait(); err != nil {
			return nil, err
		}
	}
	return info, nil
}

func exchangeBases[K scalar.T](world comm.Communicator, sub SubdomainOperator[K], dims map[int][2]int) (map[int][]K, error) {
	neighbors := sub.Pattern().Ranks
	out := make(map[int][]K, len(neighbors))
	if len(neighbors) == 0 {
		return out, nil
	}
	own := scalar.ToWire(sub.Basis())
	reqs := make([]comm.Request, 0, len(neighbors))
	for _, j := range neighbors {
		reqs = append(reqs, world.ISendFloat64(own, j, tagBasis))
	}
	ww := scalar.WireWidth[K]()
	for _, j := range neighbors {
		nuJ := dims[j][0]
		buf := make([]float64, sub.Dof()*nuJ*ww)
		if err := world.RecvFloat64(buf, j, tagBasis); err != nil {
			return nil, err
		}
		out[j] = scalar.FromWire[K](buf, sub.Dof()*nuJ)
	}
	for _, r := range reqs {
		if err := r.Wait(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// block computes Zi^T A Zj: apply A column-by-column to zj (a Dof()*nuJ
// row-major basis, Zi itself when computing the self block), then
// contract with the conjugate transpose of sub's own basis via Gemm.
func block[K scalar.T](k kernel.Kernel[K], sub SubdomainOperator[K], zj []K, nuJ int) []K {
	dof := sub.Dof()
	nuI := sub.Nu()
	azj := make([]K, dof*nuJ)
	col := make([]K, dof)
	for c := 0; c < nuJ; c++ {
		for r := 0; r < dof; r++ {
			col[r] = zj[r*nuJ+c]
		}
		av := sub.ApplyA(col)
		for r := 0; r < dof; r++ {
			azj[r*nuJ+c] = av[r]
		}
	}
	out := make([]K, nuI*nuJ)
	var zero K
	k.Gemm(kernel.ConjTrans, kernel.NoTrans, nuI, nuJ, dof, K(1), sub.Basis(), nuI, azj, nuJ, zero, out, nuJ)
	return out
}

type blockEntry[K scalar.T] struct {
	width  int
	offset int
	values []K
}

// buildEntries computes this subdomain's contribution blocks in the order
// spec.md §4.5(c) requires: for S=='S' only neighbors with rank > self,
// otherwise every neighbor, with the self block inserted in neighbor-rank
// order.
func buildEntries[K scalar.T](k kernel.Kernel[K], world comm.Communicator, sub SubdomainOperator[K], dm *distmap.Map, dims map[int][2]int, bases map[int][]K, storage Storage) []blockEntry[K] {
	me := world.Rank()
	// The self (diagonal) block is computed and sent in full; under S=='S'
	// the master drops its strictly lower triangle once the rows are placed
	// (see Build), and cross-rank block pairs with j < me are skipped below.
	self := blockEntry[K]{width: sub.Nu(), offset: dm.GlobalOffset, values: block(k, sub, sub.Basis(), sub.Nu())}

	neighbors := append([]int(nil), sub.Pattern().Ranks...)
	sort.Ints(neighbors)

	var entries []blockEntry[K]
	inserted := false
	for _, j := range neighbors {
		if storage == Symmetric && j < me {
			continue
		}
		if !inserted && j > me {
			entries = append(entries, self)
			inserted = true
		}
		nuJ, offJ := dims[j][0], dims[j][1]
		entries = append(entries, blockEntry[K]{width: nuJ, offset: offJ, values: block(k, sub, bases[j], nuJ)})
	}
	if !inserted {
		entries = append(entries, self)
	}
	return entries
}

func packHeader[K scalar.T](nu int, entries []blockEntry[K]) (Header, []K) {
	h := Header{NumNeighbors: uint16(len(entries)), Nu: uint16(nu)}
	var values []K
	for _, e := range entries {
		h.NeighborOffsets = append(h.NeighborOffsets, uint16(e.offset))
		h.NeighborWidths = append(h.NeighborWidths, uint16(e.width))
		values = append(values, e.values...)
	}
	h.Coefficients = uint16(len(values))
	return h, values
}

func sendHeaderAndValues[K scalar.T](world comm.Communicator, dest int, h Header, values []K) error {
	if err := world.SendUint16([]uint16{h.NumNeighbors, h.Nu, h.Coefficients}, dest, tagCoeffs); err != nil {
		return err
	}
	n := int(h.NumNeighbors)
	payload := make([]uint16, 0, 2*n)
	payload = append(payload, h.NeighborOffsets...)
	payload = append(payload, h.NeighborWidths...)
	if err := world.SendUint16(payload, dest, tagCoeffs); err != nil {
		return err
	}
	return world.SendFloat64(scalar.ToWire(values), dest, tagCoeffs)
}

func recvHeaderAndValues[K scalar.T](world comm.Communicator, src int) (Header, []K, error) {
	prefix := make([]uint16, 3)
	if err := world.RecvUint16(prefix, src, tagCoeffs); err != nil {
		return Header{}, nil, err
	}
	h := Header{NumNeighbors: prefix[0], Nu: prefix[1], Coefficients: prefix[2]}
	n := int(h.NumNeighbors)
	payload := make([]uint16, 2*n)
	if err := world.RecvUint16(payload, src, tagCoeffs); err != nil {
		return Header{}, nil, err
	}
	h.NeighborOffsets = append([]uint16(nil), payload[:n]...)
	h.NeighborWidths = append([]uint16(nil), payload[n:]...)
	ww := scalar.WireWidth[K]()
	buf := make([]float64, int(h.Coefficients)*ww)
	if err := world.RecvFloat64(buf, src, tagCoeffs); err != nil {
		return Header{}, nil, err
	}
	return h, scalar.FromWire[K](buf, int(h.Coefficients)), nil
}
