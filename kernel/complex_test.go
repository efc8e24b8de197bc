// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel_test

import (
	"testing"

	"github.com/cpmech/gocoarse/kernel"
	"github.com/stretchr/testify/require"
)

func TestComplexGemmMatchesHandComputation(t *testing.T) {
	k := kernel.NewComplex()
	a := []complex128{1, 2, 3, 4}
	b := []complex128{5, 6, 7, 8}
	c := make([]complex128, 4)
	k.Gemm(kernel.NoTrans, kernel.NoTrans, 2, 2, 2, 1, a, 2, b, 2, 0, c, 2)
	require.Equal(t, []complex128{19, 22, 43, 50}, c)
}

func TestComplexGemmConjugatesOnConjTrans(t *testing.T) {
	k := kernel.NewComplex()
	a := []complex128{complex(1, 1), complex(2, -1)} // 1x2, conj-transposed -> 2x1
	b := []complex128{complex(1, 0), complex(0, 1)}  // 1x2
	c := make([]complex128, 4)
	k.Gemm(kernel.ConjTrans, kernel.NoTrans, 2, 2, 1, 1, a, 2, b, 2, 0, c, 2)
	// op(A) row 0 is conj(a[0]) = 1-i; op(A) row 1 is conj(a[1]) = 2+i.
	require.Equal(t, complex(1, -1), c[0])
	require.Equal(t, complex(1, 1), c[1])
	require.Equal(t, complex(2, 1), c[2])
	require.Equal(t, complex(-1, 2), c[3])
}

func TestComplexPotrfReportsUnsupported(t *testing.T) {
	k := kernel.NewComplex()
	a := []complex128{4, 0, 0, 3}
	err := k.Potrf(kernel.Lower, 2, a)
	require.Error(t, err)
	var nf *kernel.NumericFailure
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "complex128:potrf", nf.Op)
}

func TestComplexAxpy(t *testing.T) {
	k := kernel.NewComplex()
	x := []complex128{complex(1, 1)}
	y := []complex128{complex(0, 0)}
	k.Axpy(complex(2, 0), x, y)
	require.Equal(t, complex(2, 2), y[0])
}
