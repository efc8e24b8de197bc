// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package comm abstracts the message-passing library consumed by the
// coarse-grid operator (spec.md §6-i). It is deliberately a thin interface
// rather than a direct dependency on github.com/cpmech/gosl/mpi everywhere,
// so that the topology/assembly/solve packages can be driven in ordinary
// `go test` runs by comm.Local (an in-process stand-in for several ranks)
// without requiring an actual MPI runtime, mirroring the way gofem's
// fem.go guards every multi-rank code path behind mpi.IsOn().
package comm

import "fmt"

// Request is a pending non-blocking operation. Wait blocks the caller until
// the operation completes, matching MPI_Wait on an MPI_Request.
type Request interface {
	Wait() error
}

// Communicator is the coarse operator's view of a message-passing group:
// world, gather or scatter communicator (spec.md §3). Every method that can
// suspend the caller corresponds to a suspension point listed in spec.md §5.
type Communicator interface {
	// Rank returns this process's rank within the communicator, or -1 if
	// the calling process is not a member (mirrors MPI_COMM_NULL).
	Rank() int
	// Size returns the communicator's size, or 0 if not a member.
	Size() int
	// Member reports whether the calling process belongs to this
	// communicator (false corresponds to HPDDM's MPI_COMM_NULL checks).
	Member() bool

	// Dup duplicates the communicator (MPI_Comm_dup).
	Dup() Communicator
	// Include builds the sub-communicator made of the given world ranks,
	// ordered as given (rank 0 of the result is ranks[0]). It returns a
	// Communicator that reports Member()==false on processes not listed,
	// matching MPI_Group_incl + MPI_Comm_create. label disambiguates
	// concurrently-constructed sub-communicators drawn from the same parent
	// (e.g. "gather" vs "scatter" vs "master") so an in-process fake can
	// agree, without an extra round-trip, on which calls from different
	// ranks are building the same communicator; a real MPI backend ignores
	// it, since MPI_Comm_create already distinguishes calls by order.
	Include(ranks []int, label string) Communicator

	Barrier()

	SendFloat64(buf []float64, dest, tag int) error
	RecvFloat64(buf []float64, src, tag int) error
	ISendFloat64(buf []float64, dest, tag int) Request
	IRecvFloat64(buf []float64, src, tag int) Request

	SendUint16(buf []uint16, dest, tag int) error
	RecvUint16(buf []uint16, src, tag int) error
	ISendUint16(buf []uint16, dest, tag int) Request
	IRecvUint16(buf []uint16, src, tag int) Request

	// Gather/Scatter move a uniform (Gather/Scatter) or ragged
	// (Gatherv/Scatterv, counts+displs supplied) float64 buffer to/from
	// root. Non-root callers pass send only; root receives the
	// concatenated buffer back. counts/displs may be nil for the uniform
	// variant.
	GatherFloat64(send []float64, counts, displs []int, root int) []float64
	ScatterFloat64(send []float64, counts, displs []int, recvCount, root int) []float64

	// IGather/IScatter are the Go-native equivalent of MPI_Igather[v] /
	// MPI_Iscatter[v]: the collective runs on a background goroutine and
	// Request.Wait() blocks until it is done and (on root, for IGather)
	// out has been filled. This is the mechanism behind Iapply (spec.md
	// §4.6): Go expresses overlap with the outer solver via goroutines
	// rather than a second explicit non-blocking collective primitive.
	IGatherFloat64(send []float64, out *[]float64, counts, displs []int, root int) Request
	IScatterFloat64(send []float64, out *[]float64, counts, displs []int, recvCount, root int) Request

	AllGatherUint16(send []uint16) []uint16
	BcastUint16(buf []uint16, root int)

	AllReduceSumFloat64(buf []float64)
	AllReduceMinInt(v int) int

	// WarnOnce prints a one-line warning on rank 0 only, matching
	// HPDDM's "if(_rankWorld == 0) std::cout << WARNING ..." idiom
	// (spec.md §4.3, §7).
	WarnOnce(format string, args ...interface{})
}

// chanRequest adapts a completion channel into a Request, used by both
// Local and the gosl-backed implementation for IGather/IScatter/ISend.
type chanRequest struct {
	done chan error
}

func newChanRequest() *chanRequest {
	return &chanRequest{done: make(chan error, 1)}
}

func (r *chanRequest) Wait() error {
	return <-r.done
}

// doneRequest is a Request that is already complete.
type doneRequest struct{ err error }

func (r doneRequest) Wait() error { return r.err }

// notMember builds the error returned (not panicked) when a caller asks a
// communicator for something that assumes membership it doesn't have.
func notMember(op string) error {
	return fmt.Errorf("comm: %s called on a rank that is not a communicator member", op)
}
