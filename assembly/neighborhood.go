// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package assembly

import "github.com/cpmech/gocoarse/scalar"

// Neighborhood is a subdomain's interaction pattern (spec.md §3): the world
// ranks sharing degrees of freedom with it.
type Neighborhood struct {
	// Ranks lists neighbor world ranks, ascending, excluding self.
	Ranks []int
}

// SubdomainOperator is the façade a caller implements so the assembly
// pipeline can exchange and multiply local blocks without reproducing
// HPDDM's Subdomain::applyToNeighbor/getPattern/getMap machinery (spec.md
// §9 REDESIGN FLAGS): the pipeline only needs the pattern, the local coarse
// basis, and a way to apply the subdomain operator A.
type SubdomainOperator[K scalar.T] interface {
	// Dof is the local number of degrees of freedom (rows of A and Z).
	Dof() int
	// Nu is the local coarse dimension νᵢ (columns of Z).
	Nu() int
	// Pattern returns the subdomain's neighbor ranks.
	Pattern() Neighborhood
	// Basis returns the local Z, row-major Dof()*Nu().
	Basis() []K
	// ApplyA computes A*v for a length-Dof() vector v.
	ApplyA(v []K) []K
}
