// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package directsolver defines the pluggable factorization trait the
// assembly pipeline hands E to, and a dense reference implementation
// sufficient for tests (spec.md §6-(iii)).
package directsolver

import (
	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/scalar"
)

// Distribution selects how the RHS and solution are laid out across
// masters during Apply (spec.md §4.6).
type Distribution int

const (
	// NonDistributed: RHS/solution both live entirely on world rank 0.
	NonDistributed Distribution = iota
	// DistributedSol: RHS is centralized on world rank 0; the solution is
	// striped across masters per ldistribution.
	DistributedSol
	// DistributedSolAndRHS: both RHS and solution are local to each
	// master's gather/scatter fan-in/out.
	DistributedSolAndRHS
)

// Numbering selects 0-based ('C') or 1-based ('F') indices in the CSR/COO
// triplet handed to Numfact.
type Numbering byte

const (
	ZeroBased Numbering = 'C'
	OneBased  Numbering = 'F'
)

// Solver is the pluggable direct-solver contract (spec.md §6-(iii)),
// generic over the coarse operator's scalar type K. Implementations own
// the factored state of E and are only ever driven from master ranks.
type Solver[K scalar.T] interface {
	// Communicator is the master subgroup (topology.Layout.MasterComm).
	Communicator() comm.Communicator
	Distribution() Distribution
	Numbering() Numbering

	// Initialize configures the solver from the coarse operator's
	// parameters before the first Numfact call.
	Initialize(params map[string]float64) error

	// Numfact factors the nrow x N slice of E owned by this master, given
	// in CSR form (rowptr length nrow+1, colidx/values length rowptr[nrow]).
	// loc2glob, when non-nil, maps local row i to its global column index
	// (used when the solver needs global numbering rather than a
	// contiguous offset).
	Numfact(nrow, n int, rowptr, colidx []int, values []K, loc2glob []int) error

	// Solve solves E x = rhs for nrhs right-hand sides packed row-major in
	// rhs (length nrow*nrhs, stride nrhs - gonum's BLAS/LAPACK convention),
	// returning the local solution slice in the same layout.
	Solve(rhs []K, nrhs int) ([]K, error)

	N() int
	LDistribution() []int
	IDistribution() []int
	GatherCounts() []int
	Displs() []int
	GatherSplitCounts() []int
	DisplsSplit() []int
	Rank() int
}
