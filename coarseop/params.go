// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package coarseop is the public façade (spec.md §6, C9): it wires
// kernel/eigen/topology/distmap/assembly/solve/directsolver/comm behind a
// single Construct/Apply/IApply surface, the way gofem's solver.go wires
// its own FEM stages behind one Solver type.
package coarseop

import (
	"github.com/cpmech/gocoarse/directsolver"
	"github.com/cpmech/gocoarse/topology"
)

// Params collects every construction-time parameter spec.md §6 lists on
// HPDDM's integer-keyed map, as a typed struct rather than map[int]int
// (spec.md §9 REDESIGN FLAGS): the Go surface should be able to say
// "Params.Fuse" instead of "params[HPDDM_FUSE]".
type Params struct {
	// P is the world size; NU is this rank's local coarse dimension νᵢ
	// before eigen-selection trims it further.
	P  int
	NU int

	// Topology selects T (spec.md §4.3); Uniform is the requested p
	// (number of masters) before Plan's clamping.
	Topology topology.Mode
	Uniform  int
	Exclude  topology.Exclusion

	// Symmetry selects 'S' (upper-triangular only) or 'G' (full) storage
	// for E, mirroring assembly.Storage.
	Symmetry byte

	// Numbering is passed straight through to directsolver.Solver.
	Numbering directsolver.Numbering

	// Fuse is copied to solve.Orchestrator.Fuse, which the solve path does
	// not read; the extra right-hand sides that are fused into one round
	// (spec.md §4.6's fusion optimization) are the fuseCols passed to IApply.
	Fuse int
	// NonBlocking records the NONBLOCKING key; Construct does not read it,
	// and callers choose between Apply and IApply themselves.
	NonBlocking bool
	// Debug gates the assembly.DumpCSR call in Construct (DumpCOO is not
	// called).
	Debug bool

	// StorageCSR/Loc2Glob/Contiguous stand for the HPDDM_CSR_CO,
	// HPDDM_LOC2GLOB and HPDDM_CONTIGUOUS compile-time flags (spec.md §9)
	// as construction-time values; StorageCSR defaults true. Construct reads
	// none of the three: E is always assembled as CSR and no COO triplet is
	// kept.
	StorageCSR bool
	Loc2Glob   bool
	Contiguous bool
}

// Defaults returns the parameter set spec.md §6 describes as the baseline
// configuration: symmetric storage, zero-based numbering, no fusion, CSR
// storage, inclusive masters, uniform topology.
func Defaults() Params {
	return Params{
		Topology:   topology.Uniform,
		Uniform:    1,
		Exclude:    topology.Inclusive,
		Symmetry:   'S',
		Numbering:  directsolver.ZeroBased,
		StorageCSR: true,
	}
}

// ParamsFromMap builds a Params from the HPDDM-style string-keyed integer
// map spec.md §6 describes (keys "P", "TOPOLOGY", "NU", "UNIFORM",
// "EXCLUDE", "SYMMETRY", "NUMBERING", "FUSE", "NONBLOCKING", "DEBUG",
// "STORAGE_CSR", "LOC2GLOB", "CONTIGUOUS"). Missing keys keep Defaults()'s
// values; unrecognized keys are ignored, matching HPDDM's tolerant
// map-of-ints construction contract.
func ParamsFromMap(m map[string]int) Params {
	p := Defaults()
	if v, ok := m["P"]; ok {
		p.P = v
	}
	if v, ok := m["NU"]; ok {
		p.NU = v
	}
	if v, ok := m["TOPOLOGY"]; ok {
		p.Topology = topology.Mode(v)
	}
	if v, ok := m["UNIFORM"]; ok {
		p.Uniform = v
	}
	if v, ok := m["EXCLUDE"]; ok {
		p.Exclude = topology.Exclusion(v)
	}
	if v, ok := m["SYMMETRY"]; ok {
		p.Symmetry = byte(v)
	}
	if v, ok := m["NUMBERING"]; ok {
		p.Numbering = directsolver.Numbering(v)
	}
	if v, ok := m["FUSE"]; ok {
		p.Fuse = v
	}
	if v, ok := m["NONBLOCKING"]; ok {
		p.NonBlocking = v != 0
	}
	if v, ok := m["DEBUG"]; ok {
		p.Debug = v != 0
	}
	if v, ok := m["STORAGE_CSR"]; ok {
		p.StorageCSR = v != 0
	}
	if v, ok := m["LOC2GLOB"]; ok {
		p.Loc2Glob = v != 0
	}
	if v, ok := m["CONTIGUOUS"]; ok {
		p.Contiguous = v != 0
	}
	return p
}
