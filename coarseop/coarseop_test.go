// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coarseop_test

import (
	"testing"

	"github.com/cpmech/gocoarse/assembly"
	"github.com/cpmech/gocoarse/coarseop"
	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/eigen"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/stretchr/testify/require"
)

// diagProblem is a coarseop.Problem[float64] whose A is diagonal and whose
// B is the identity: the generalized eigenproblem degenerates to the
// standard one, so selecting every eigenvalue (nu == dof) makes Z an
// (unknown-order, unknown-sign) permutation of the identity. Z^T A Z is
// then exactly diag(eigenvalues) regardless of that ambiguity, since each
// column of Z is still some ±e_i.
type diagProblem struct {
	diag []float64
}

func (p *diagProblem) Dof() int { return len(p.diag) }
func (p *diagProblem) MatrixA() []float64 {
	n := len(p.diag)
	a := make([]float64, n*n)
	for i, v := range p.diag {
		a[i*n+i] = v
	}
	return a
}
func (p *diagProblem) MatrixB() []float64 {
	n := len(p.diag)
	b := make([]float64, n*n)
	for i := 0; i < n; i++ {
		b[i*n+i] = 1
	}
	return b
}
func (p *diagProblem) Pattern() assembly.Neighborhood { return assembly.Neighborhood{} }
func (p *diagProblem) ApplyA(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = p.diag[i] * x
	}
	return out
}

// TestOperatorConstructAndApplySingleSubdomain exercises the full
// Construct -> Apply pipeline for a single, neighborless subdomain: with
// every eigenvalue selected, the coarse operator's E is exactly
// diag(sorted eigenvalues), so Apply(ones) must return 1/lambda_i for each
// ascending eigenvalue lambda_i, independent of LAPACK's eigenvector sign
// or ordering ambiguity within equal-rank ties.
func TestOperatorConstructAndApplySingleSubdomain(t *testing.T) {
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)

	prob := &diagProblem{diag: []float64{1, 3, 5, 2}}
	op := coarseop.New[float64](kernel.NewReal())

	params := coarseop.Defaults()
	err := op.Construct(grp, prob, eigen.ByIndex(4), params)
	require.NoError(t, err)
	require.Empty(t, op.Warnings())
	require.Equal(t, 4, op.Nu())

	rhs := []float64{1, 1, 1, 1}
	x, err := op.Apply(rhs)
	require.NoError(t, err)
	require.Len(t, x, 4)

	expected := []float64{1, 0.5, 1.0 / 3.0, 0.2} // 1/sorted(eigenvalues)
	got := append([]float64(nil), x...)
	sortFloat64(got)
	sortFloat64(expected)
	for i := range expected {
		require.InDelta(t, expected[i], got[i], 1e-6)
	}
}

// TestOperatorApplyAndIApplyAgree exercises construction with an index
// selection that keeps the whole spectrum of a 2x2 problem, and checks
// IApply agrees with Apply bitwise the same way solve_test.go does at the
// orchestrator level, now through the full façade.
func TestOperatorApplyAndIApplyAgree(t *testing.T) {
	world := comm.NewWorld(1)
	grp := world.WorldComm(0)

	prob := &diagProblem{diag: []float64{2, 4}}
	op := coarseop.New[float64](kernel.NewReal())

	params := coarseop.Defaults()
	require.NoError(t, op.Construct(grp, prob, eigen.ByIndex(2), params))

	rhs := []float64{1, 1}
	viaApply, err := op.Apply(rhs)
	require.NoError(t, err)

	gatherReq, scatterReq, result, err := op.IApply(rhs, nil)
	require.NoError(t, err)
	require.NoError(t, gatherReq.Wait())
	require.NoError(t, scatterReq.Wait())

	require.Equal(t, viaApply, *result)
}

func sortFloat64(v []float64) {
	for i := 1; i < len(v); i++ {
		for j := i; j > 0 && v[j-1] > v[j]; j-- {
			v[j-1], v[j] = v[j], v[j-1]
		}
	}
}
