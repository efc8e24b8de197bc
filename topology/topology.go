// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package topology plans the master/worker layout of the coarse-grid
// operator (spec.md §4.3, C3): given P total ranks and a target master
// count p, it partitions ranks into masters and workers and derives the
// three communicators the rest of the pipeline needs, grounded in
// coarse_operator_impl.hpp's constructionCommunicator.
package topology

import (
	"math"

	"github.com/cpmech/gocoarse/comm"
)

// Mode selects how masters are laid out among world ranks (spec.md §4.3).
type Mode int

const (
	// Uniform places master k at world rank k*floor(P/p); each master owns
	// the contiguous block of floor(P/p) ranks starting at it, except the
	// last, whose block also takes the P mod p remaining ranks (so it can
	// be up to p-1 ranks larger than the others).
	Uniform Mode = iota
	// Sequential places masters at world ranks 0..p-1, with workers
	// grouped contiguously after them.
	Sequential
	// AreaEqualized places masters by the quadratic recurrence that
	// equalizes triangular load across groups.
	AreaEqualized
)

// Exclusion controls whether masters also act as workers (spec.md §4.3).
type Exclusion int

const (
	// Inclusive: masters participate as workers too.
	Inclusive Exclusion = iota
	// GatherOnly: masters skip the gather communicator (receive only).
	GatherOnly
	// Coordinator: masters contribute no local rows to E at all.
	Coordinator
)

// Misconfiguration records a topology parameter that was clamped or forced
// to a valid value, together with the value actually used (spec.md §7).
type Misconfiguration struct {
	Requested int
	Used      int
	Reason    string
}

func (e *Misconfiguration) Error() string {
	return "topology: " + e.Reason
}

// Layout is the result of Plan: the three communicators plus the
// bookkeeping the index-map builder and assembly pipeline need.
type Layout struct {
	P int
	T Mode
	X Exclusion

	// LDistribution holds the world rank of master k, for k in [0, P).
	LDistribution []int
	// IDistribution maps logical assembled row-group order back to world
	// rank order; only populated for T==Sequential (spec.md §4.3).
	IDistribution []int

	// ScatterGroup lists, in local order (master first), the world ranks
	// in the calling process's scatter group.
	ScatterGroup []int
	// IsMaster reports whether the calling rank is one of the P masters.
	IsMaster bool
	// MasterIndex is this rank's index k into LDistribution, or -1 if the
	// calling rank is not a master.
	MasterIndex int

	// ScatterComm partitions world into p groups (spec.md §3): exactly one
	// master and its workers, master at local rank 0.
	ScatterComm comm.Communicator
	// GatherComm connects world rank 0 to every rank that participates in
	// RHS gather/solution scatter, membership depending on X.
	GatherComm comm.Communicator
	// MasterComm is Solver<K>::communicator: non-nil (Member()==true) only
	// on the p master ranks.
	MasterComm comm.Communicator
}

// Plan implements spec.md §4.3: constructs the master set and the three
// communicators for the calling rank. A clamped p is recovered from, not
// a hard error (spec.md §7): the returned []*Misconfiguration records what
// was requested vs. what was actually used, alongside the rank-0-only
// comm.WarnOnce diagnostic.
func Plan(world comm.Communicator, p int, t Mode, x Exclusion) (*Layout, []*Misconfiguration, error) {
	size := world.Size()
	rank := world.Rank()

	var warnings []*Misconfiguration
	if p < 1 {
		warnings = append(warnings, &Misconfiguration{Requested: p, Used: 1, Reason: "p must be >= 1"})
		world.WarnOnce("the number of master processes was set to %d (< 1), \"p\" has been reset to 1", p)
		p = 1
	}
	if p > size/2 && size > 1 {
		clamped := size / 2
		if clamped < 1 {
			clamped = 1
		}
		world.WarnOnce("the number of master processes was set to a value >= world size / 2, \"p\" has been reset to %d", clamped)
		warnings = append(warnings, &Misconfiguration{Requested: p, Used: clamped, Reason: "p exceeded world size / 2"})
		p = clamped
	}

	lay := &Layout{P: p, T: t, X: x, MasterIndex: -1}

	if p == 1 {
		lay.LDistribution = []int{0}
		lay.ScatterGroup = allRanks(size)
		lay.IsMaster = rank == 0
		if lay.IsMaster {
			lay.MasterIndex = 0
		}
		lay.ScatterComm = world.Dup()
		lay.GatherComm = world.Dup()
		lay.MasterComm = world.Include([]int{0}, "master")
		return lay, warnings, nil
	}

	var group []int
	switch t {
	case Uniform:
		lay.LDistribution, group = planUniform(size, p, rank)
	case Sequential:
		lay.LDistribution, lay.IDistribution, group = planSequential(size, p, rank)
	case AreaEqualized:
		lay.LDistribution, group = planAreaEqualized(size, p, rank)
	default:
		lay.LDistribution, group = planUniform(size, p, rank)
	}
	lay.ScatterGroup = group

	for k, wr := range lay.LDistribution {
		if wr == rank {
			lay.IsMaster = true
			lay.MasterIndex = k
			break
		}
	}

	lay.ScatterComm = world.Include(group, "scatter")
	lay.MasterComm = world.Include(lay.LDistribution, "master")

	if x == Inclusive {
		lay.GatherComm = world.Dup()
	} else {
		excluded := lay.LDistribution[1:]
		gatherRanks := make([]int, 0, size-len(excluded))
		skip := make(map[int]bool, len(excluded))
		for _, r := range excluded {
			skip[r] = true
		}
		for r := 0; r < size; r++ {
			if !skip[r] {
				gatherRanks = append(gatherRanks, r)
			}
		}
		lay.GatherComm = world.Include(gatherRanks, "gather")
	}

	return lay, warnings, nil
}

func allRanks(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

// planUniform implements T==Uniform: ldistribution[i] = i*(P/p), with the
// last group absorbing the remainder.
func planUniform(size, p, rank int) (ldistribution, group []int) {
	block := size / p
	ldistribution = make([]int, p)
	for i := 0; i < p; i++ {
		ldistribution[i] = i * block
	}
	var tmp int
	if rank < (p-1)*block {
		tmp = block
	} else {
		tmp = size - (p-1)*block
	}
	var offset int
	if tmp != block {
		offset = size - tmp
	} else {
		offset = block * (rank / block)
	}
	group = make([]int, tmp)
	for i := range group {
		group[i] = offset + i
	}
	return ldistribution, group
}

// planSequential implements T==Sequential: masters are world ranks 0..p-1;
// the remaining size-p ranks are grouped contiguously per master, and
// idistribution records the logical-to-world permutation (spec.md §4.3,
// open question 1 documents the U!=1 caveat). The assembled matrix's row
// groups are ordered master-by-master (master0's own rows, then its
// workers', then master1's own rows, then its workers', ...), which is not
// world-rank order once a master owns more than one worker: for P=6, p=2,
// idistribution is [0,2,3,1,4,5], not [0,1,2,3,4,5].
func planSequential(size, p, rank int) (ldistribution, idistribution, group []int) {
	ldistribution = make([]int, p)
	for i := range ldistribution {
		ldistribution[i] = i
	}
	workerSpan := (size - p) / p

	idistribution = make([]int, 0, size)
	for k := 0; k < p; k++ {
		idistribution = append(idistribution, sequentialGroup(size, p, k)...)
	}

	var tmp int
	if rank == p-1 || rank > p-1+(p-1)*workerSpan {
		tmp = size - (p-1)*(size/p)
	} else {
		tmp = size / p
	}
	var masterIdx int
	if rank < p {
		masterIdx = rank
	} else if tmp == size/p {
		masterIdx = (rank - p) / workerSpan
	} else {
		masterIdx = p - 1
	}
	group = sequentialGroup(size, p, masterIdx)
	return ldistribution, idistribution, group
}

// sequentialGroup returns master k's scatter group under T==Sequential: its
// own world rank k, followed by its contiguous block of workers.
func sequentialGroup(size, p, k int) []int {
	tmp := size / p
	if k == p-1 {
		tmp = size - (p-1)*(size/p)
	}
	offset := k*(size/p-1) + p - 1
	group := make([]int, tmp)
	group[0] = k
	for i := 1; i < tmp; i++ {
		group[i] = offset + i
	}
	return group
}

// planAreaEqualized implements T==AreaEqualized: the quadratic recurrence
// d[i] = round(P - sqrt(max(P^2 - 2P*d[i-1] - 2*alpha + d[i-1]^2, 1))) with
// alpha = P^2/(2p), directly grounded on coarse_operator_impl.hpp's T==2
// branch.
func planAreaEqualized(size, p, rank int) (ldistribution, group []int) {
	ldistribution = make([]int, p)
	alpha := float64(size) * float64(size) / (2.0 * float64(p))
	ldistribution[0] = 0
	for i := 1; i < p; i++ {
		prev := float64(ldistribution[i-1])
		inner := float64(size)*float64(size) - 2*float64(size)*prev - 2*alpha + prev*prev
		if inner < 1 {
			inner = 1
		}
		ldistribution[i] = int(float64(size) - math.Sqrt(inner) + 0.5)
	}
	i := upperBound(ldistribution, rank)
	var tmp int
	if i == p {
		tmp = size - ldistribution[i-1]
	} else {
		tmp = ldistribution[i] - ldistribution[i-1]
	}
	group = make([]int, tmp)
	for j := range group {
		group[j] = ldistribution[i-1] + j
	}
	return ldistribution, group
}

// upperBound returns the index of the first element of a strictly greater
// than v (std::upper_bound), assuming a is sorted ascending.
func upperBound(a []int, v int) int {
	lo, hi := 0, len(a)
	for lo < hi {
		mid := (lo + hi) / 2
		if a[mid] <= v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
