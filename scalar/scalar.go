// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scalar defines the numeric-type constraint shared by every
// generic component of the coarse-grid operator (dense kernels, eigensolver,
// assembly pipeline, gather/solve/scatter orchestrator) and the small
// helpers needed to move values of that type across a communicator that
// only understands float64 wire formats.
package scalar

import "github.com/cpmech/gosl/chk"

// T is the scalar field a coarse operator can be built over: real (float64)
// or complex (complex128), matching HPDDM's template parameter K.
type T interface {
	~float64 | ~complex128
}

// Conj returns the complex conjugate of v for complex128, or v unchanged
// for float64.
func Conj[K T](v K) K {
	switch x := any(v).(type) {
	case complex128:
		return any(complexConj(x)).(K)
	default:
		return v
	}
}

func complexConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}

// ToWire expands n values of K into a []float64 wire buffer: unchanged for
// float64, interleaved real/imag pairs (length 2n) for complex128. This is
// how vectors travel across comm.Communicator, which (like most minimal Go
// MPI bindings) only moves float64/int/uint16 buffers natively.
func ToWire[K T](v []K) []float64 {
	switch x := any(v).(type) {
	case []float64:
		out := make([]float64, len(x))
		copy(out, x)
		return out
	case []complex128:
		out := make([]float64, 2*len(x))
		for i, c := range x {
			out[2*i] = real(c)
			out[2*i+1] = imag(c)
		}
		return out
	default:
		chk.Panic("scalar: unsupported type for ToWire")
		return nil
	}
}

// FromWire is the inverse of ToWire, reading n values of K back out of a
// float64 wire buffer.
func FromWire[K T](buf []float64, n int) []K {
	var zero K
	out := make([]K, n)
	switch any(zero).(type) {
	case float64:
		for i := 0; i < n; i++ {
			out[i] = any(buf[i]).(K)
		}
	case complex128:
		for i := 0; i < n; i++ {
			out[i] = any(complex(buf[2*i], buf[2*i+1])).(K)
		}
	default:
		chk.Panic("scalar: unsupported type for FromWire")
	}
	return out
}

// WireWidth returns how many float64 slots one K value occupies on the wire.
func WireWidth[K T]() int {
	var zero K
	switch any(zero).(type) {
	case complex128:
		return 2
	default:
		return 1
	}
}
