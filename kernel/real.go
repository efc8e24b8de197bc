// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"gonum.org/v1/gonum/blas"
	blas64 "gonum.org/v1/gonum/blas/gonum"
	"gonum.org/v1/gonum/lapack"
	lapack64 "gonum.org/v1/gonum/lapack/gonum"
)

// Real backs Kernel[float64] with gonum's native Go LAPACK and BLAS
// implementations, the way the rest of this pack reaches for gonum when a
// float64 dense factorization is needed rather than hand-rolling one.
type Real struct {
	lapack lapack64.Implementation
	blas   blas64.Implementation
}

// NewReal constructs the float64 kernel.
func NewReal() *Real {
	return &Real{}
}

func uploBLAS(u Uplo) blas.Uplo {
	if u == Upper {
		return blas.Upper
	}
	return blas.Lower
}

func transBLAS(t Trans) blas.Transpose {
	switch t {
	case Transpose, ConjTrans:
		return blas.Trans
	default:
		return blas.NoTrans
	}
}

func (k *Real) Potrf(uplo Uplo, n int, a []float64) error {
	ok := k.lapack.Dpotrf(uploBLAS(uplo), n, a, n)
	if !ok {
		return &NumericFailure{Op: "potrf", Info: 1}
	}
	return nil
}

func (k *Real) Trtrs(uplo Uplo, trans Trans, n, nrhs int, a []float64, b []float64) error {
	ok := k.lapack.Dtrtrs(uploBLAS(uplo), transBLAS(trans), blas.NonUnit, n, nrhs, a, n, b, nrhs)
	if !ok {
		return &NumericFailure{Op: "trtrs", Info: 1}
	}
	return nil
}

func (k *Real) Gst(itype int, uplo Uplo, n int, a, b []float64) error {
	k.lapack.Dsygst(itype, uploBLAS(uplo), n, a, n, b, n)
	return nil
}

func (k *Real) Trd(uplo Uplo, n int, a []float64) (d, e []float64, tau []float64, err error) {
	d = make([]float64, n)
	e = make([]float64, n)
	tau = make([]float64, n)
	work := make([]float64, max(1, n))
	k.lapack.Dsytrd(uploBLAS(uplo), n, a, n, d, e, tau, work, len(work))
	return d, e, tau, nil
}

func (k *Real) Stebz(rng Range, vl, vu float64, il, iu int, abstol float64, d, e []float64) (w []float64, iblock, isplit []int, err error) {
	n := len(d)
	w = make([]float64, n)
	iblock = make([]int, n)
	isplit = make([]int, n)
	var m, nsplit int
	work := make([]float64, 4*n)
	iwork := make([]int, 3*n)
	order := lapack.EntireMatrix
	_ = order
	by := lapack.ByIndex
	if rng == RangeValue {
		by = lapack.ByValue
	}
	k.lapack.Dstebz(by, lapack.Block, vl, vu, il, iu, abstol, d, e, &m, &nsplit, w, iblock, isplit, work, iwork)
	return w[:m], iblock[:m], isplit[:nsplit], nil
}

func (k *Real) Stein(d, e, w []float64, iblock, isplit []int) (z []float64, err error) {
	n := len(d)
	m := len(w)
	z = make([]float64, n*m)
	work := make([]float64, 5*n)
	iwork := make([]int, n)
	ifail := make([]int, m)
	ok := k.lapack.Dstein(n, d, e, m, w, iblock, isplit, z, m, work, iwork, ifail)
	if !ok {
		return nil, &NumericFailure{Op: "stein", Info: 1}
	}
	return z, nil
}

func (k *Real) Mtr(side byte, uplo Uplo, trans Trans, m, n int, a []float64, tau []float64, c []float64) error {
	bSide := blas.Left
	nq := m
	if side == 'R' {
		bSide = blas.Right
		nq = n
	}
	work := make([]float64, max(1, m*n))
	k.lapack.Dormtr(bSide, uploBLAS(uplo), transBLAS(trans), m, n, a, nq, tau, c, n, work, len(work))
	return nil
}

func (k *Real) Gemm(transA, transB Trans, m, n, kk int, alpha float64, a []float64, lda int, b []float64, ldb int, beta float64, c []float64, ldc int) {
	k.blas.Dgemm(transBLAS(transA), transBLAS(transB), m, n, kk, alpha, a, lda, b, ldb, beta, c, ldc)
}

func (k *Real) Gemv(trans Trans, m, n int, alpha float64, a []float64, lda int, x []float64, beta float64, y []float64) {
	k.blas.Dgemv(transBLAS(trans), m, n, alpha, a, lda, x, 1, beta, y, 1)
}

func (k *Real) Axpy(alpha float64, x, y []float64) {
	k.blas.Daxpy(len(x), alpha, x, 1, y, 1)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
