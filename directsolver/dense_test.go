// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package directsolver_test

import (
	"testing"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/directsolver"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/stretchr/testify/require"
)

func TestDenseSolverRoundTripsSPDSystem(t *testing.T) {
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)
	k := kernel.NewReal()
	s := directsolver.NewDenseSolver[float64](grp, directsolver.NonDistributed, k)
	s.SetLayout(2, []int{0}, nil, []int{2}, []int{0}, nil, nil)

	// E = [[4,2],[2,3]]
	rowptr := []int{0, 2, 4}
	colidx := []int{0, 1, 0, 1}
	values := []float64{4, 2, 2, 3}
	require.NoError(t, s.Numfact(2, 2, rowptr, colidx, values, nil))

	rhs := []float64{1, 1}
	x, err := s.Solve(rhs, 1)
	require.NoError(t, err)

	r0 := 4*x[0] + 2*x[1]
	r1 := 2*x[0] + 3*x[1]
	require.InDelta(t, 1.0, r0, 1e-9)
	require.InDelta(t, 1.0, r1, 1e-9)
}

func TestDenseSolverSolveBeforeNumfactErrors(t *testing.T) {
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)
	s := directsolver.NewDenseSolver[float64](grp, directsolver.NonDistributed, kernel.NewReal())
	_, err := s.Solve([]float64{1, 2}, 1)
	require.Error(t, err)
}

func TestDenseSolverRejectsOutOfBlockColumn(t *testing.T) {
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)
	s := directsolver.NewDenseSolver[float64](grp, directsolver.NonDistributed, kernel.NewReal())
	s.SetLayout(2, []int{0}, nil, []int{2}, []int{5}, nil, nil) // displs[0]=5, out of range

	rowptr := []int{0, 1, 1}
	colidx := []int{0}
	values := []float64{1}
	err := s.Numfact(2, 2, rowptr, colidx, values, nil)
	require.Error(t, err)
}

func TestDenseSolverMultiRHS(t *testing.T) {
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)
	k := kernel.NewReal()
	s := directsolver.NewDenseSolver[float64](grp, directsolver.NonDistributed, k)
	s.SetLayout(2, []int{0}, nil, []int{2}, []int{0}, nil, nil)

	rowptr := []int{0, 2, 4}
	colidx := []int{0, 1, 0, 1}
	values := []float64{4, 2, 2, 3}
	require.NoError(t, s.Numfact(2, 2, rowptr, colidx, values, nil))

	rhs := []float64{1, 1, 0, 1} // row-major with stride nrhs, 2 rhs of length 2
	x, err := s.Solve(rhs, 2)
	require.NoError(t, err)
	require.Len(t, x, 4)
}
