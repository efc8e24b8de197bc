// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coarseop

import (
	"github.com/cpmech/gocoarse/assembly"
	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/directsolver"
	"github.com/cpmech/gocoarse/distmap"
	"github.com/cpmech/gocoarse/eigen"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/cpmech/gocoarse/scalar"
	"github.com/cpmech/gocoarse/solve"
	"github.com/cpmech/gocoarse/topology"
)

// Problem is what a caller implements to construct a coarse operator: the
// local subdomain's generalized eigenproblem (A, B) that seeds Z, its
// neighbor pattern, and a way to apply the fine subdomain operator A to a
// vector for the Zᵀ A Z products (spec.md §1's "caller supplies A, B and
// the subdomain's interaction pattern").
type Problem[K scalar.T] interface {
	// Dof is the local number of degrees of freedom (order of A and B).
	Dof() int
	// MatrixA and MatrixB are the local generalized eigenproblem operands,
	// row-major Dof()xDof(), symmetric/Hermitian (B positive definite).
	// eigen.Solve overwrites them as scratch; Construct copies them first.
	MatrixA() []K
	MatrixB() []K
	// Pattern lists the subdomain's neighbor world ranks.
	Pattern() assembly.Neighborhood
	// ApplyA computes A*v for a length-Dof() vector v.
	ApplyA(v []K) []K
}

// Operator is the public façade (spec.md §6, C9) wiring C1-C8 behind
// Construct/Apply/IApply, mirroring gofem's Solver type wiring its FEM
// stages behind one construction call.
type Operator[K scalar.T] struct {
	kern   kernel.Kernel[K]
	params Params

	lay *topology.Layout
	dm  *distmap.Map
	ds  *directsolver.DenseSolver[K]
	orc *solve.Orchestrator[K]

	dof     int
	nu      int
	basis   []K
	pattern assembly.Neighborhood
	applyA  func([]K) []K

	warnings []*topology.Misconfiguration
}

// New constructs an uninitialized Operator bound to a dense-kernel adapter
// (kernel.NewReal() for K=float64, kernel.NewComplex() for K=complex128).
func New[K scalar.T](kern kernel.Kernel[K]) *Operator[K] {
	return &Operator[K]{kern: kern}
}

// Construct implements spec.md §4.2-§4.6's full pipeline in order:
// topology planning, local eigenbasis extraction, index-map bookkeeping,
// distributed assembly of E, and master-side factorization, leaving the
// operator ready for Apply/IApply. world is the domain-decomposition
// communicator (one rank per subdomain).
func (op *Operator[K]) Construct(world comm.Communicator, prob Problem[K], sel eigen.Selection, p Params) error {
	lay, warnings, err := topology.Plan(world, p.Uniform, p.Topology, p.Exclude)
	if err != nil {
		return err
	}
	op.lay = lay
	op.warnings = warnings
	op.params = p

	n := prob.Dof()
	a := append([]K(nil), prob.MatrixA()...)
	b := append([]K(nil), prob.MatrixB()...)
	z, nu, err := eigen.LocalBasis(op.kern, world, n, a, b, sel)
	if err != nil {
		return err
	}
	op.dof = n
	op.nu = nu
	op.basis = z
	op.pattern = prob.Pattern()
	op.applyA = prob.ApplyA

	dm := distmap.Build(world, lay, nu)
	op.dm = dm

	storage := assembly.Storage(p.Symmetry)
	nrow, ncol, rowptr, colidx, values, err := assembly.Build[K](op.kern, world, lay, dm, op, storage)
	if err != nil {
		return err
	}

	if p.Debug && lay.IsMaster {
		name := assembly.DumpName(storage, dm.N, p.Topology, p.Exclude, world.Rank())
		if err := assembly.DumpCSR[K](name, dm.Off, rowptr, colidx, values); err != nil {
			return err
		}
	}

	ds := directsolver.NewDenseSolver[K](lay.MasterComm, directsolver.NonDistributed, op.kern)
	if lay.IsMaster {
		ds.SetLayout(ncol, lay.LDistribution, lay.IDistribution, dm.GatherCounts, dm.Displs, dm.InfoSplit, nil)
		if err := ds.Numfact(nrow, ncol, rowptr, colidx, values, dm.Loc2Glob); err != nil {
			return err
		}
	}
	op.ds = ds

	orc := solve.New[K](lay, dm, ds)
	orc.Fuse = p.Fuse
	op.orc = orc
	return nil
}

// The following five methods satisfy assembly.SubdomainOperator[K], so the
// operator itself is handed to assembly.Build as the caller-supplied
// subdomain once its basis has been extracted.
func (op *Operator[K]) Dof() int                       { return op.dof }
func (op *Operator[K]) Nu() int                        { return op.nu }
func (op *Operator[K]) Pattern() assembly.Neighborhood { return op.pattern }
func (op *Operator[K]) Basis() []K                     { return op.basis }
func (op *Operator[K]) ApplyA(v []K) []K               { return op.applyA(v) }

// Apply performs one blocking gather/solve/scatter round (spec.md §4.6).
func (op *Operator[K]) Apply(rhs []K) ([]K, error) {
	return op.orc.Apply(rhs)
}

// IApply is the non-blocking counterpart, matching HPDDM's
// Iapply(rhs, &reqs[2]).
func (op *Operator[K]) IApply(rhs []K, fuseCols [][]K) (gatherReq, scatterReq comm.Request, result *[]K, err error) {
	return op.orc.IApply(rhs, fuseCols)
}

// Warnings reports any topology parameters Construct had to clamp
// (spec.md §7: recovered, not a hard error).
func (op *Operator[K]) Warnings() []*topology.Misconfiguration {
	return op.warnings
}

// Layout exposes the planned topology for callers that need direct access
// to ldistribution/communicators (e.g. a caller-supplied Solver[K]).
func (op *Operator[K]) Layout() *topology.Layout { return op.lay }
