// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assembly

import (
	"fmt"
	"os"

	"github.com/cpmech/gocoarse/scalar"
	"github.com/cpmech/gocoarse/topology"
	"github.com/james-bowman/sparse"
)

// DumpName builds the debug matrix-dump file name, matching
// E_distributed_[excluded_]<S>_<N>_<T>_<rank>.txt from spec.md §6.
func DumpName(storage Storage, n int, t topology.Mode, x topology.Exclusion, rank int) string {
	excl := ""
	if x != topology.Inclusive {
		excl = "excluded_"
	}
	return fmt.Sprintf("E_distributed_%s%c_%d_%d_%d.txt", excl, byte(storage), n, int(t), rank)
}

// DumpCSR writes the "(i,j)=v (rowStart — rowEnd)" per-row layout.
func DumpCSR[K scalar.T](path string, off int, rowptr, colidx []int, values []K) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	nrow := len(rowptr) - 1
	for i := 0; i < nrow; i++ {
		start, end := rowptr[i], rowptr[i+1]
		for p := start; p < end; p++ {
			if _, err := fmt.Fprintf(f, "(%d,%d)=%v (%d — %d)\n", off+i, colidx[p], values[p], start, end); err != nil {
				return err
			}
		}
	}
	return nil
}

// DumpCOO writes the "(i,j)=v" triple layout.
func DumpCOO[K scalar.T](path string, off int, rowptr, colidx []int, values []K) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	nrow := len(rowptr) - 1
	for i := 0; i < nrow; i++ {
		for p := rowptr[i]; p < rowptr[i+1]; p++ {
			if _, err := fmt.Fprintf(f, "(%d,%d)=%v\n", off+i, colidx[p], values[p]); err != nil {
				return err
			}
		}
	}
	return nil
}

// ToSparseCSR is a float64-only convenience for callers that want the CSR
// slice as a github.com/james-bowman/sparse matrix rather than raw slices.
// Nothing in this module calls it: DumpCSR/DumpCOO and directsolver work on
// the raw slices.
func ToSparseCSR(nrow, ncol int, rowptr, colidx []int, values []float64) *sparse.CSR {
	return sparse.NewCSR(nrow, ncol, rowptr, colidx, values)
}
