// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package kernel is the dense-kernel adapter (spec.md §4.1): a uniform
// façade over the numeric library used by the eigensolver and the
// assembly pipeline, for both real and complex scalars.
package kernel

import (
	"fmt"

	"github.com/cpmech/gocoarse/scalar"
)

// NumericFailure is returned whenever the numeric backend reports a
// non-zero info code (spec.md §7).
type NumericFailure struct {
	Op   string
	Info int
}

func (e *NumericFailure) Error() string {
	return fmt.Sprintf("kernel: %s failed with info=%d", e.Op, e.Info)
}

// Uplo selects which triangle of a symmetric/Hermitian matrix is stored.
type Uplo byte

const (
	Upper Uplo = 'U'
	Lower Uplo = 'L'
)

// Trans selects whether an operation applies the transpose/conjugate
// transpose of an operand.
type Trans byte

const (
	NoTrans   Trans = 'N'
	Transpose Trans = 'T'
	ConjTrans Trans = 'C'
)

// Range selects stebz's eigenvalue-selection mode.
type Range byte

const (
	RangeIndex Range = 'I'
	RangeValue Range = 'V'
)

// Kernel is the uniform façade over potrf/trtrs/gst/trd/stebz/stein/mtr
// plus gemm/gemv/axpy, for a single scalar type K (spec.md §4.1).
// Matrices are passed as flat row-major []K of length lda*n (lda==n in
// this module: the coarse operator never needs padded leading dimensions).
type Kernel[K scalar.T] interface {
	// Potrf computes the Cholesky factorization of a symmetric/Hermitian
	// positive definite n×n matrix A in place.
	Potrf(uplo Uplo, n int, a []K) error

	// Trtrs solves op(A)X = B for a triangular n×n matrix A with nrhs
	// right-hand sides packed row-major in b (length n*nrhs, stride nrhs -
	// gonum's BLAS/LAPACK convention, not reference Fortran's column-major).
	Trtrs(uplo Uplo, trans Trans, n, nrhs int, a []K, b []K) error

	// Gst reduces the generalized eigenproblem A x = λ B x (itype==1) to
	// standard form, given B already Cholesky-factored by Potrf.
	Gst(itype int, uplo Uplo, n int, a, b []K) error

	// Trd reduces symmetric/Hermitian A to tridiagonal form, returning the
	// diagonal d, off-diagonal e (both length n, e[n-1] unused) and the
	// elementary reflectors' scalars tau (length n); A is overwritten with
	// the packed reflectors as LAPACK's {d,z}sytrd/hetrd do.
	Trd(uplo Uplo, n int, a []K) (d, e []float64, tau []K, err error)

	// Stebz selects eigenvalues of the tridiagonal (d, e) by bisection:
	// RangeIndex picks the il..iu smallest (1-based), RangeValue picks
	// those in (vl, vu]. Returns the eigenvalues w and the iblock/isplit
	// bookkeeping stein needs.
	Stebz(rng Range, vl, vu float64, il, iu int, abstol float64, d, e []float64) (w []float64, iblock, isplit []int, err error)

	// Stein recovers eigenvectors by inverse iteration for the eigenvalues
	// w/iblock/isplit produced by Stebz, returning an n×m matrix (m =
	// len(w)) stored row-major, stride m.
	Stein(d, e, w []float64, iblock, isplit []int) (z []K, err error)

	// Mtr multiplies C by the orthogonal/unitary matrix implicitly stored
	// in the reflectors produced by Trd (LAPACK's {d,z}ormtr/unmtr).
	Mtr(side byte, uplo Uplo, trans Trans, m, n int, a []K, tau []K, c []K) error

	// Gemm computes C := alpha*op(A)*op(B) + beta*C.
	Gemm(transA, transB Trans, m, n, k int, alpha K, a []K, lda int, b []K, ldb int, beta K, c []K, ldc int)

	// Gemv computes y := alpha*op(A)*x + beta*y.
	Gemv(trans Trans, m, n int, alpha K, a []K, lda int, x []K, beta K, y []K)

	// Axpy computes y := alpha*x + y.
	Axpy(alpha K, x, y []K)
}
