// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package directsolver

import (
	"fmt"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/cpmech/gocoarse/scalar"
)

// DenseSolver is a reference Solver[K] sufficient to exercise the coarse
// operator's testable properties: it densifies the CSR slice it is handed
// and factors it with kernel.Kernel's Cholesky (Potrf/Trtrs), so it only
// supports symmetric positive definite E (S=='S' coarse operators). It is
// not meant to scale - production deployments plug in a sparse factorization
// backend implementing the same Solver[K] contract.
type DenseSolver[K scalar.T] struct {
	grp    comm.Communicator
	dist   Distribution
	number Numbering
	kern   kernel.Kernel[K]

	ldistribution     []int
	idistribution     []int
	gatherCounts      []int
	displs            []int
	gatherSplitCounts []int
	displsSplit       []int

	n        int
	nrow     int
	chol     []K // Cholesky factor of the local dense block, row-major nrow*nrow
	factored bool
	loc2glob []int
}

// NewDenseSolver constructs a DenseSolver bound to the given master
// communicator and kernel (kernel.NewReal() or kernel.NewComplex()).
func NewDenseSolver[K scalar.T](grp comm.Communicator, dist Distribution, kern kernel.Kernel[K]) *DenseSolver[K] {
	return &DenseSolver[K]{grp: grp, dist: dist, number: ZeroBased, kern: kern}
}

func (s *DenseSolver[K]) Communicator() comm.Communicator { return s.grp }
func (s *DenseSolver[K]) Distribution() Distribution       { return s.dist }
func (s *DenseSolver[K]) Numbering() Numbering             { return s.number }

func (s *DenseSolver[K]) Initialize(params map[string]float64) error {
	return nil
}

// SetLayout lets the assembly pipeline hand the solver the bookkeeping
// produced by topology.Layout/distmap.Map, which DenseSolver otherwise has
// no way to derive on its own.
func (s *DenseSolver[K]) SetLayout(n int, ldistribution, idistribution, gatherCounts, displs, gatherSplitCounts, displsSplit []int) {
	s.n = n
	s.ldistribution = ldistribution
	s.idistribution = idistribution
	s.gatherCounts = gatherCounts
	s.displs = displs
	s.gatherSplitCounts = gatherSplitCounts
	s.displsSplit = displsSplit
}

func (s *DenseSolver[K]) Numfact(nrow, n int, rowptr, colidx []int, values []K, loc2glob []int) error {
	if loc2glob != nil && len(loc2glob) != nrow {
		return fmt.Errorf("directsolver: loc2glob has length %d, want nrow=%d", len(loc2glob), nrow)
	}
	s.loc2glob = loc2glob

	off := 0
	if s.displs != nil {
		off = s.displs[s.Rank()]
	}
	dense := make([]K, nrow*nrow)
	for i := 0; i < nrow; i++ {
		for p := rowptr[i]; p < rowptr[i+1]; p++ {
			j := colidx[p] - off
			if j < 0 || j >= nrow {
				return fmt.Errorf("directsolver: Numfact got an out-of-block column %d (row block is [%d,%d))", colidx[p], off, off+nrow)
			}
			dense[i*nrow+j] = values[p]
			dense[j*nrow+i] = values[p] // symmetric fill, matches S='S' storage
		}
	}
	if err := s.kern.Potrf(kernel.Lower, nrow, dense); err != nil {
		return err
	}
	s.chol = dense
	s.nrow = nrow
	s.factored = true
	return nil
}

func (s *DenseSolver[K]) Solve(rhs []K, nrhs int) ([]K, error) {
	if !s.factored {
		return nil, fmt.Errorf("directsolver: Solve called before Numfact")
	}
	x := append([]K(nil), rhs...)
	if err := s.kern.Trtrs(kernel.Lower, kernel.NoTrans, s.nrow, nrhs, s.chol, x); err != nil {
		return nil, err
	}
	if err := s.kern.Trtrs(kernel.Lower, kernel.Transpose, s.nrow, nrhs, s.chol, x); err != nil {
		return nil, err
	}
	return x, nil
}

func (s *DenseSolver[K]) N() int                    { return s.n }
func (s *DenseSolver[K]) LDistribution() []int      { return s.ldistribution }
func (s *DenseSolver[K]) IDistribution() []int      { return s.idistribution }
func (s *DenseSolver[K]) GatherCounts() []int       { return s.gatherCounts }
func (s *DenseSolver[K]) Displs() []int             { return s.displs }
func (s *DenseSolver[K]) GatherSplitCounts() []int  { return s.gatherSplitCounts }
func (s *DenseSolver[K]) DisplsSplit() []int        { return s.displsSplit }
func (s *DenseSolver[K]) Rank() int                 { return s.grp.Rank() }

// Loc2Glob returns the loc2glob table Numfact was last called with, or nil
// if it was nil (true for every topology except T==Sequential).
func (s *DenseSolver[K]) Loc2Glob() []int { return s.loc2glob }
