// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package distmap builds the row-count and offset bookkeeping the
// assembly pipeline and direct solver need (spec.md §4.3/C4): how many
// coarse rows each master owns, and at what global offset.
package distmap

import (
	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/topology"
)

// Map is the per-rank result of Build.
type Map struct {
	// N is the global coarse dimension, Σ νᵢ (minus excluded masters'
	// contribution under topology.Coordinator).
	N int
	// Nrow is this master's local row count; 0 on worker ranks.
	Nrow int
	// Off is the global row offset of this rank's master: on a master its
	// slice of E covers rows [Off, Off+Nrow); worker ranks hold their
	// master's Off.
	Off int
	// InfoSplit holds this rank's scatter group's per-member νᵢ, in local
	// scatter-comm rank order (index 0 is always the master).
	InfoSplit []int
	// GatherCounts holds every master's Nrow, in master-index order
	// (length P, same order as topology.Layout.LDistribution).
	GatherCounts []int
	// Displs is the exclusive prefix sum of GatherCounts.
	Displs []int
	// GlobalOffset is this rank's own global row offset within E: Off plus
	// the prefix sum of its master's InfoSplit up to its own scatter rank.
	// Meaningless (left at 0) on a topology.Coordinator master, which owns
	// no rows.
	GlobalOffset int
	// Loc2Glob maps this master's local row i (i.e. logical-assembly-order
	// row Off+i) to its row index under physical (world-rank-ascending)
	// order instead. nil except on a T==Sequential master, where logical
	// and physical order genuinely diverge (topology.Layout.IDistribution);
	// every other mode already assembles rows in physical order, so the
	// distinction is a no-op there. Only populated on master ranks.
	Loc2Glob []int
}

// Build implements spec.md §4.3's per-master row count and offset
// arithmetic. nu is the calling rank's local coarse dimension νᵢ. world is
// the full domain-decomposition communicator; it is only actually gathered
// over when lay.T==topology.Sequential, to derive Loc2Glob.
func Build(world comm.Communicator, lay *topology.Layout, nu int) *Map {
	group := lay.ScatterComm
	groupInfo := allGatherNu(group, nu)

	// infoWorld collects every rank's νᵢ in world-rank-ascending (physical)
	// order - the same information coarse_operator_impl.hpp's T==1 branch of
	// constructionMap gathers before permuting it into physical offsets.
	// Only T==Sequential needs it; every rank takes this branch identically
	// since lay.T is the same plan on every rank, so the collective stays
	// symmetric.
	var infoWorld []int
	if lay.T == topology.Sequential {
		infoWorld = allGatherNu(world, nu)
	}

	m := &Map{}
	localRank := group.Rank()

	if !lay.IsMaster {
		// still useful to a worker: knows its peers' νⱼ without a second
		// round-trip, e.g. for neighbor dimension exchange within the
		// same scatter group.
		m.InfoSplit = groupInfo
		broadcastOffsetAndN(group, lay, m)
		m.GlobalOffset = m.Off + prefixSum(groupInfo, localRank, lay.X)
		return m
	}

	m.InfoSplit = groupInfo
	nrow := 0
	for i, v := range groupInfo {
		if i == 0 && lay.X == topology.Coordinator {
			continue // master contributes no rows
		}
		nrow += v
	}
	m.Nrow = nrow

	masterRows := allGatherNu(lay.MasterComm, nrow)
	m.GatherCounts = masterRows
	m.Displs = make([]int, len(masterRows))
	off := 0
	total := 0
	for i, v := range masterRows {
		m.Displs[i] = off
		off += v
		total += v
	}
	m.N = total
	m.Off = m.Displs[lay.MasterIndex]

	broadcastOffsetAndN(group, lay, m)
	if lay.X != topology.Coordinator {
		m.GlobalOffset = m.Off
	}

	if lay.T == topology.Sequential {
		m.Loc2Glob = loc2glob(lay, infoWorld, groupInfo, nrow)
	}

	return m
}

// loc2glob builds the master's logical-row -> physical-row translation
// table, mirroring coarse_operator_impl.hpp's T==1 iota loop: physOff is
// each world rank's row offset under rank-ascending order; a rank's rows
// then occupy physOff[group[loc]]..physOff[group[loc]]+groupInfo[loc] for
// every member loc of the calling master's scatter group, concatenated in
// the same group order assembly.Build uses to place each member's rows
// into the local CSR block.
func loc2glob(lay *topology.Layout, infoWorld, groupInfo []int, nrow int) []int {
	physOff := make([]int, len(infoWorld))
	off := 0
	for i, v := range infoWorld {
		physOff[i] = off
		off += v
	}

	out := make([]int, 0, nrow)
	for loc, wr := range lay.ScatterGroup {
		if loc == 0 && lay.X == topology.Coordinator {
			continue
		}
		start := physOff[wr]
		for i := 0; i < groupInfo[loc]; i++ {
			out = append(out, start+i)
		}
	}
	return out
}

// prefixSum sums groupInfo[0:localRank], skipping the master's own slot
// (index 0) when it contributes no rows.
func prefixSum(groupInfo []int, localRank int, x topology.Exclusion) int {
	return PrefixRows(groupInfo, localRank, x)
}

// PrefixRows sums groupInfo[0:localRank], skipping the master's own slot
// (index 0) when x is topology.Coordinator. Exported so the assembly
// pipeline can derive each scatter-group member's row range within its
// master's CSR block using the same arithmetic distmap used to hand out
// global offsets.
func PrefixRows(groupInfo []int, localRank int, x topology.Exclusion) int {
	sum := 0
	for i := 0; i < localRank; i++ {
		if i == 0 && x == topology.Coordinator {
			continue
		}
		sum += groupInfo[i]
	}
	return sum
}

// allGatherNu runs an all-gather of a single int value over grp, using the
// uint16 collective (coarse dimensions fit comfortably, matching the
// original source's pervasive use of unsigned short for per-rank info).
func allGatherNu(grp comm.Communicator, v int) []int {
	out := grp.AllGatherUint16([]uint16{uint16(v)})
	res := make([]int, len(out))
	for i, x := range out {
		res[i] = int(x)
	}
	return res
}

// broadcastOffsetAndN fans Off/N out from the master to its workers. Rather
// than add a dedicated broadcast-of-int primitive, it reuses
// AllReduceSumFloat64 the way the orchestrator's fusion path does (spec.md
// §4.6: "broadcast back via allreduce") - only the master contributes a
// nonzero value, so the sum received by every member equals the master's.
func broadcastOffsetAndN(grp comm.Communicator, lay *topology.Layout, m *Map) {
	if !grp.Member() {
		return
	}
	buf := make([]float64, 2)
	if lay.IsMaster {
		buf[0] = float64(m.Off)
		buf[1] = float64(m.N)
	}
	grp.AllReduceSumFloat64(buf)
	if !lay.IsMaster {
		m.Off = int(buf[0])
		m.N = int(buf[1])
	}
}
