// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eigen_test

import (
	"math"
	"sync"
	"testing"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/eigen"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/stretchr/testify/require"
)

// TestSolveRecoversKnownEigenpairsDiagonalB exercises A x = lambda x with
// B = I: the generalized problem degenerates to the standard one, so the
// eigenvalues are exactly diag(A) when A is itself diagonal.
func TestSolveRecoversKnownEigenpairsDiagonalB(t *testing.T) {
	k := kernel.NewReal()
	n := 4
	a := []float64{
		1, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 5, 0,
		0, 0, 0, 2,
	}
	b := []float64{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
	z, m, err := eigen.Solve[float64](k, n, append([]float64(nil), a...), append([]float64(nil), b...), eigen.ByIndex(2))
	require.NoError(t, err)
	require.Equal(t, 2, m)
	require.Len(t, z, n*m)

	// The two smallest eigenvalues of diag(1,3,5,2) are 1 and 2; verify via
	// the Rayleigh quotient of each returned column against the original A.
	aOrig := []float64{
		1, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 5, 0,
		0, 0, 0, 2,
	}
	for c := 0; c < m; c++ {
		col := make([]float64, n)
		for r := 0; r < n; r++ {
			col[r] = z[r*m+c]
		}
		lambda := rayleigh(aOrig, col, n)
		require.True(t, math.Abs(lambda-1) < 1e-6 || math.Abs(lambda-2) < 1e-6,
			"unexpected eigenvalue %v for column %d", lambda, c)
	}
}

func rayleigh(a, x []float64, n int) float64 {
	ax := make([]float64, n)
	for i := 0; i < n; i++ {
		var s float64
		for j := 0; j < n; j++ {
			s += a[i*n+j] * x[j]
		}
		ax[i] = s
	}
	var num, den float64
	for i := 0; i < n; i++ {
		num += x[i] * ax[i]
		den += x[i] * x[i]
	}
	return num / den
}

func TestByThresholdSelectsOnlyBelowTau(t *testing.T) {
	k := kernel.NewReal()
	n := 3
	a := []float64{1, 0, 0, 0, 10, 0, 0, 0, 100}
	b := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	z, m, err := eigen.Solve[float64](k, n, a, b, eigen.ByThreshold(5, 1e-9))
	require.NoError(t, err)
	require.Equal(t, 1, m)
	require.Len(t, z, n*m)
}

func TestSolveZeroSelectionReturnsEmptyBasis(t *testing.T) {
	k := kernel.NewReal()
	n := 2
	a := []float64{1, 0, 0, 2}
	b := []float64{1, 0, 0, 1}
	z, m, err := eigen.Solve[float64](k, n, a, b, eigen.ByIndex(0))
	require.NoError(t, err)
	require.Equal(t, 0, m)
	require.Empty(t, z)
}

// TestLocalBasisReconcilesThresholdSelectionAcrossRanks builds two
// threshold problems that select different counts on each rank and checks
// that LocalBasis trims every rank down to the common (minimum) count and
// returns a basis of matching length (spec.md §4.2's collective-minimum
// reconciliation).
func TestLocalBasisReconcilesThresholdSelectionAcrossRanks(t *testing.T) {
	world := comm.NewWorld(2)
	n := 3
	problems := [][2][]float64{
		{
			{1, 0, 0, 0, 2, 0, 0, 0, 100}, // A: selects 2 below tau=5
			{1, 0, 0, 0, 1, 0, 0, 0, 1},
		},
		{
			{1, 0, 0, 0, 100, 0, 0, 0, 200}, // A: selects 1 below tau=5
			{1, 0, 0, 0, 1, 0, 0, 0, 1},
		},
	}

	var wg sync.WaitGroup
	results := make([][]float64, 2)
	nus := make([]int, 2)
	for rank := 0; rank < 2; rank++ {
		rank := rank
		wg.Add(1)
		go func() {
			defer wg.Done()
			grp := world.WorldComm(rank)
			k := kernel.NewReal()
			a := append([]float64(nil), problems[rank][0]...)
			b := append([]float64(nil), problems[rank][1]...)
			z, nu, err := eigen.LocalBasis[float64](k, grp, n, a, b, eigen.ByThreshold(5, 1e-9))
			require.NoError(t, err)
			results[rank] = z
			nus[rank] = nu
		}()
	}
	wg.Wait()

	require.Equal(t, 1, nus[0])
	require.Equal(t, 1, nus[1])
	require.Len(t, results[0], n*1)
	require.Len(t, results[1], n*1)
}

func TestComplexSolveSurfacesUnsupportedFailure(t *testing.T) {
	k := kernel.NewComplex()
	n := 2
	a := []complex128{4, 0, 0, 3}
	b := []complex128{1, 0, 0, 1}
	_, _, err := eigen.Solve[complex128](k, n, a, b, eigen.ByIndex(1))
	require.Error(t, err)
	var fail *eigen.Failure
	require.ErrorAs(t, err, &fail)
	require.Equal(t, "potrf", fail.Op)
}
