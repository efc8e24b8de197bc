// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eigen implements the companion eigenproblem routine (spec.md
// §4.2): on each subdomain, reduce and solve the symmetric/Hermitian
// generalized eigenproblem A x = λ B x and select the eigenvectors that
// seed the local coarse basis Z.
package eigen

import (
	"fmt"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/kernel"
	"github.com/cpmech/gocoarse/scalar"
)

// Failure reports a non-zero info code from the reduction chain (spec.md
// §4.2, "local failure (info≠0 for stein) is surfaced as EigenFailure").
type Failure struct {
	Op   string
	Info int
}

func (e *Failure) Error() string {
	return fmt.Sprintf("eigen: %s failed with info=%d", e.Op, e.Info)
}

// Selection picks which eigenvalues of the ascending-sorted spectrum become
// coarse-basis vectors: either the ν smallest (ByIndex) or those in
// (-inf, τ], with ε as the bisection tolerance (ByThreshold), per spec.md
// §4.2's range∈{V,I}.
type Selection struct {
	byIndex bool
	nu      int
	tau     float64
	epsilon float64
}

// ByIndex selects the nu algebraically smallest eigenvalues (stebz
// range='I').
func ByIndex(nu int) Selection {
	return Selection{byIndex: true, nu: nu}
}

// ByThreshold selects eigenvalues below tau (stebz range='V', vu=tau),
// epsilon bounding the bisection tolerance passed as abstol.
func ByThreshold(tau, epsilon float64) Selection {
	return Selection{byIndex: false, tau: tau, epsilon: epsilon}
}

// Solve implements spec.md §4.2's reduce/solve/expand chain for a single
// dense n×n pair (A, B), both symmetric/Hermitian and row-major, B positive
// definite. On return A and B have been overwritten as scratch, matching
// LAPACK's in-place conventions. The returned z is n×m row-major (m =
// number of selected eigenvalues, matching gonum's row-major BLAS/LAPACK
// convention rather than reference Fortran column-major layout), already
// expanded (Lᵀz = stein-output undone via trtrs) so that it is a basis in
// the original (un-reduced) metric.
func Solve[K scalar.T](k kernel.Kernel[K], n int, a, b []K, sel Selection) (z []K, m int, err error) {
	if err := k.Potrf(kernel.Lower, n, b); err != nil {
		return nil, 0, &Failure{Op: "potrf", Info: 1}
	}
	if err := k.Gst(1, kernel.Lower, n, a, b); err != nil {
		return nil, 0, &Failure{Op: "gst", Info: 1}
	}
	d, e, tau, err := k.Trd(kernel.Lower, n, a)
	if err != nil {
		return nil, 0, &Failure{Op: "trd", Info: 1}
	}

	var w []float64
	var iblock, isplit []int
	if sel.byIndex {
		nu := sel.nu
		if nu > n {
			nu = n
		}
		if nu <= 0 {
			return make([]K, n*0), 0, nil
		}
		w, iblock, isplit, err = k.Stebz(kernel.RangeIndex, 0, 0, 1, nu, 0, d, e)
	} else {
		w, iblock, isplit, err = k.Stebz(kernel.RangeValue, negInf, sel.tau, 0, 0, sel.epsilon, d, e)
	}
	if err != nil {
		return nil, 0, &Failure{Op: "stebz", Info: 1}
	}
	m = len(w)
	if m == 0 {
		return make([]K, 0), 0, nil
	}

	zz, err := k.Stein(d, e, w, iblock, isplit)
	if err != nil {
		return nil, 0, &Failure{Op: "stein", Info: 1}
	}

	if err := k.Mtr('L', kernel.Lower, kernel.NoTrans, n, m, a, tau, zz); err != nil {
		return nil, 0, &Failure{Op: "mtr", Info: 1}
	}

	// expand: undo the B = Lᵀ L factor by solving Lᵀ x = z (spec.md §4.2).
	if err := k.Trtrs(kernel.Lower, kernel.Transpose, n, m, b, zz); err != nil {
		return nil, 0, &Failure{Op: "trtrs", Info: 1}
	}
	return zz, m, nil
}

const negInf = -1e300

// LocalBasis runs Solve and, when sel is threshold-based, reconciles the
// selected count νₛ across grp via a collective minimum (spec.md §4.2:
// "the final count must be reconciled across the domain-decomposition
// communicator... via a collective minimum/selection step owned by the
// caller"). Index-based selection needs no reconciliation: every rank asked
// for the same ν.
func LocalBasis[K scalar.T](k kernel.Kernel[K], grp comm.Communicator, n int, a, b []K, sel Selection) (z []K, nu int, err error) {
	z, nu, err = Solve(k, n, a, b, sel)
	if err != nil {
		return nil, 0, err
	}
	if sel.byIndex || !grp.Member() {
		return z, nu, nil
	}
	reconciled := grp.AllReduceMinInt(nu)
	if reconciled < nu {
		// z is row-major n x nu; trimming to the reconciled column count
		// means keeping the first `reconciled` entries of every row, not a
		// flat prefix of the backing array.
		trimmed := make([]K, n*reconciled)
		for r := 0; r < n; r++ {
			copy(trimmed[r*reconciled:(r+1)*reconciled], z[r*nu:r*nu+reconciled])
		}
		z = trimmed
		nu = reconciled
	}
	return z, nu, nil
}
