// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

// Complex backs Kernel[complex128]. gonum's public LAPACK surface does not
// expose Hermitian tridiagonalization/bisection/inverse-iteration (Zhetrd,
// Zstein and friends have no Go-native implementation in
// gonum.org/v1/gonum/lapack/gonum at the version this pack's examples use),
// so the reduction chain Potrf->Gst->Trd->Stebz->Stein->Mtr, and the
// triangular solve Trtrs, are unavailable for complex128 and report
// NumericFailure instead of being faked with a
// hand-rolled substitute. Gemm/Gemv/Axpy have no such dependency - they are
// direct arithmetic, not a LAPACK/BLAS call - so they are implemented
// in full.
type Complex struct{}

// NewComplex constructs the complex128 kernel.
func NewComplex() *Complex {
	return &Complex{}
}

func unsupported(op string) error {
	return &NumericFailure{Op: "complex128:" + op, Info: -1}
}

func (k *Complex) Potrf(uplo Uplo, n int, a []complex128) error {
	return unsupported("potrf")
}

func (k *Complex) Trtrs(uplo Uplo, trans Trans, n, nrhs int, a []complex128, b []complex128) error {
	return unsupported("trtrs")
}

func (k *Complex) Gst(itype int, uplo Uplo, n int, a, b []complex128) error {
	return unsupported("gst")
}

func (k *Complex) Trd(uplo Uplo, n int, a []complex128) (d, e []float64, tau []complex128, err error) {
	return nil, nil, nil, unsupported("trd")
}

func (k *Complex) Stebz(rng Range, vl, vu float64, il, iu int, abstol float64, d, e []float64) (w []float64, iblock, isplit []int, err error) {
	return nil, nil, nil, unsupported("stebz")
}

func (k *Complex) Stein(d, e, w []float64, iblock, isplit []int) (z []complex128, err error) {
	return nil, unsupported("stein")
}

func (k *Complex) Mtr(side byte, uplo Uplo, trans Trans, m, n int, a []complex128, tau []complex128, c []complex128) error {
	return unsupported("mtr")
}

// Gemm computes C := alpha*op(A)*op(B) + beta*C directly. Matrices are flat
// row-major buffers of length lda*rows/ldb*rows/ldc*rows as in the Kernel
// contract; this is small-block arithmetic (coarse-space sizes), not a
// BLAS-scale kernel, so a direct triple loop is appropriate.
func (k *Complex) Gemm(transA, transB Trans, m, n, kk int, alpha complex128, a []complex128, lda int, b []complex128, ldb int, beta complex128, c []complex128, ldc int) {
	aAt := func(i, p int) complex128 {
		if transA == NoTrans {
			return a[i*lda+p]
		}
		v := a[p*lda+i]
		if transA == ConjTrans {
			return complexConj(v)
		}
		return v
	}
	bAt := func(p, j int) complex128 {
		if transB == NoTrans {
			return b[p*ldb+j]
		}
		v := b[j*ldb+p]
		if transB == ConjTrans {
			return complexConj(v)
		}
		return v
	}
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum complex128
			for p := 0; p < kk; p++ {
				sum += aAt(i, p) * bAt(p, j)
			}
			idx := i*ldc + j
			c[idx] = alpha*sum + beta*c[idx]
		}
	}
}

// Gemv computes y := alpha*op(A)*x + beta*y directly, mirroring Gemm.
func (k *Complex) Gemv(trans Trans, m, n int, alpha complex128, a []complex128, lda int, x []complex128, beta complex128, y []complex128) {
	rows, cols := m, n
	if trans != NoTrans {
		rows, cols = n, m
	}
	for i := 0; i < rows; i++ {
		var sum complex128
		for j := 0; j < cols; j++ {
			var v complex128
			if trans == NoTrans {
				v = a[i*lda+j]
			} else {
				v = a[j*lda+i]
				if trans == ConjTrans {
					v = complexConj(v)
				}
			}
			sum += v * x[j]
		}
		y[i] = alpha*sum + beta*y[i]
	}
}

// Axpy computes y := alpha*x + y.
func (k *Complex) Axpy(alpha complex128, x, y []complex128) {
	for i := range x {
		y[i] += alpha * x[i]
	}
}

func complexConj(v complex128) complex128 {
	return complex(real(v), -imag(v))
}
