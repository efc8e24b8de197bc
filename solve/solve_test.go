// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package solve_test

import (
	"testing"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/directsolver"
	"github.com/cpmech/gocoarse/distmap"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/cpmech/gocoarse/solve"
	"github.com/cpmech/gocoarse/topology"
	"github.com/stretchr/testify/require"
)

// newOrchestrator wires a single-rank NonDistributed DenseSolver bound to
// E = [[4,2],[2,3]], mirroring directsolver's own dense_test.go setup but
// routed through topology.Plan/distmap.Build so the orchestrator sees the
// same bookkeeping the assembly pipeline would hand it.
func newOrchestrator(t *testing.T) (*solve.Orchestrator[float64], *directsolver.DenseSolver[float64]) {
	t.Helper()
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)

	lay, warnings, err := topology.Plan(grp, 1, topology.Uniform, topology.Inclusive)
	require.NoError(t, err)
	require.Empty(t, warnings)

	dm := distmap.Build(grp, lay, 2)
	require.Equal(t, 2, dm.N)
	require.Equal(t, 2, dm.Nrow)

	k := kernel.NewReal()
	s := directsolver.NewDenseSolver[float64](lay.MasterComm, directsolver.NonDistributed, k)
	s.SetLayout(dm.N, lay.LDistribution, lay.IDistribution, dm.GatherCounts, dm.Displs, nil, nil)

	rowptr := []int{0, 2, 4}
	colidx := []int{0, 1, 0, 1}
	values := []float64{4, 2, 2, 3}
	require.NoError(t, s.Numfact(dm.Nrow, dm.N, rowptr, colidx, values, nil))

	return solve.New[float64](lay, dm, s), s
}

// TestApplyAndIApplyAgree covers spec.md scenario 5: a blocking Apply and an
// IApply followed by Wait on both requests must produce bitwise-identical
// results for the same input, since Apply is defined as iapply plus two
// Waits (solve/orchestrator.go's Apply).
func TestApplyAndIApplyAgree(t *testing.T) {
	orc, _ := newOrchestrator(t)

	rhs := []float64{1, 1}
	viaApply, err := orc.Apply(rhs)
	require.NoError(t, err)

	gatherReq, scatterReq, result, err := orc.IApply(rhs, nil)
	require.NoError(t, err)
	require.NoError(t, gatherReq.Wait())
	require.NoError(t, scatterReq.Wait())

	require.Equal(t, viaApply, *result)
}

// TestApplyIsIdempotent covers the idempotence property: calling Apply
// twice on the same input yields bitwise-identical output, since the
// factored state (DenseSolver.chol) is never mutated by Solve.
func TestApplyIsIdempotent(t *testing.T) {
	orc, _ := newOrchestrator(t)

	rhs := []float64{1, 1}
	first, err := orc.Apply(rhs)
	require.NoError(t, err)
	second, err := orc.Apply(rhs)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

// TestFuseSumsExtraColumnsBeforeSolving covers spec.md scenario 6: fusing k
// extra right-hand sides into the batch is equivalent to summing their
// individual solutions, since E^-1 is linear: E^-1(rhs + extra) ==
// E^-1(rhs) + E^-1(extra).
func TestFuseSumsExtraColumnsBeforeSolving(t *testing.T) {
	orc, _ := newOrchestrator(t)

	rhs := []float64{1, 1}
	extra := []float64{2, 0}

	viaRHS, err := orc.Apply(rhs)
	require.NoError(t, err)
	viaExtra, err := orc.Apply(extra)
	require.NoError(t, err)

	gatherReq, scatterReq, result, err := orc.IApply(rhs, [][]float64{extra})
	require.NoError(t, err)
	require.NoError(t, gatherReq.Wait())
	require.NoError(t, scatterReq.Wait())

	for i := range viaRHS {
		require.InDelta(t, viaRHS[i]+viaExtra[i], (*result)[i], 1e-9)
	}
}
