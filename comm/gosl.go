// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"github.com/cpmech/gosl/mpi"
)

// MPIComm wraps a github.com/cpmech/gosl/mpi.Communicator. gofem's own
// multi-process code (fem.go, s_implicit.go) guards every call behind
// mpi.IsOn(); NewWorldComm returns an error instead so callers can fall
// back to comm.Local in single-process contexts.
type MPIComm struct {
	c      *mpi.Communicator
	ranks  []int // world ranks composing this communicator, nil means "all"
	member bool
}

// NewWorldComm wraps the MPI_COMM_WORLD-equivalent communicator, failing if
// MPI was not started (mirrors mpi.IsOn() in gofem.fem.go).
func NewWorldComm() (Communicator, error) {
	if !mpi.IsOn() {
		return nil, errMPIOff
	}
	return &MPIComm{c: mpi.NewCommunicator(nil), member: true}, nil
}

var errMPIOff = mpiOffError{}

type mpiOffError struct{}

func (mpiOffError) Error() string { return "comm: MPI runtime is not running" }

func (c *MPIComm) Rank() int {
	if !c.member {
		return -1
	}
	return c.c.Rank()
}

func (c *MPIComm) Size() int {
	if !c.member {
		return 0
	}
	return c.c.Size()
}

func (c *MPIComm) Member() bool { return c.member }

func (c *MPIComm) Dup() Communicator {
	return &MPIComm{c: mpi.NewCommunicator(c.ranks), ranks: c.ranks, member: c.member}
}

func (c *MPIComm) Include(worldRanks []int, label string) Communicator {
	member := false
	for _, r := range worldRanks {
		if r == c.worldRank() {
			member = true
			break
		}
	}
	if !member {
		return &MPIComm{member: false, ranks: worldRanks}
	}
	return &MPIComm{c: mpi.NewCommunicator(worldRanks), ranks: worldRanks, member: true}
}

func (c *MPIComm) worldRank() int {
	if c.c == nil {
		return -1
	}
	return c.c.Rank()
}

func (c *MPIComm) Barrier() {
	if c.member {
		c.c.Barrier()
	}
}

func (c *MPIComm) SendFloat64(buf []float64, dest, tag int) error {
	c.c.Send(buf, dest)
	return nil
}

func (c *MPIComm) RecvFloat64(buf []float64, src, tag int) error {
	c.c.Recv(buf, src)
	return nil
}

func (c *MPIComm) ISendFloat64(buf []float64, dest, tag int) Request {
	r := newChanRequest()
	go func() {
		c.c.Send(buf, dest)
		r.done <- nil
	}()
	return r
}

func (c *MPIComm) IRecvFloat64(buf []float64, src, tag int) Request {
	r := newChanRequest()
	go func() {
		c.c.Recv(buf, src)
		r.done <- nil
	}()
	return r
}

func (c *MPIComm) SendUint16(buf []uint16, dest, tag int) error {
	tmp := make([]float64, len(buf))
	for i, v := range buf {
		tmp[i] = float64(v)
	}
	c.c.Send(tmp, dest)
	return nil
}

func (c *MPIComm) RecvUint16(buf []uint16, src, tag int) error {
	tmp := make([]float64, len(buf))
	c.c.Recv(tmp, src)
	for i, v := range tmp {
		buf[i] = uint16(v)
	}
	return nil
}

func (c *MPIComm) ISendUint16(buf []uint16, dest, tag int) Request {
	r := newChanRequest()
	go func() {
		r.done <- c.SendUint16(buf, dest, tag)
	}()
	return r
}

func (c *MPIComm) IRecvUint16(buf []uint16, src, tag int) Request {
	r := newChanRequest()
	go func() {
		r.done <- c.RecvUint16(buf, src, tag)
	}()
	return r
}

func (c *MPIComm) GatherFloat64(send []float64, counts, displs []int, root int) []float64 {
	if counts == nil {
		out := make([]float64, len(send)*c.Size())
		c.c.AllGather(out, send) // symmetric gather; caller on non-root discards
		if c.Rank() != root {
			return nil
		}
		return out
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	out := make([]float64, total)
	c.c.Gatherv(out, send, counts, displs)
	if c.Rank() != root {
		return nil
	}
	return out
}

func (c *MPIComm) ScatterFloat64(send []float64, counts, displs []int, recvCount, root int) []float64 {
	out := make([]float64, recvCount)
	if counts == nil {
		c.c.Scatter(out, send)
		return out
	}
	c.c.Scatterv(out, send, counts, displs)
	return out
}

func (c *MPIComm) IGatherFloat64(send []float64, out *[]float64, counts, displs []int, root int) Request {
	r := newChanRequest()
	go func() {
		*out = c.GatherFloat64(send, counts, displs, root)
		r.done <- nil
	}()
	return r
}

func (c *MPIComm) IScatterFloat64(send []float64, out *[]float64, counts, displs []int, recvCount, root int) Request {
	r := newChanRequest()
	go func() {
		*out = c.ScatterFloat64(send, counts, displs, recvCount, root)
		r.done <- nil
	}()
	return r
}

func (c *MPIComm) AllGatherUint16(send []uint16) []uint16 {
	tmp := make([]float64, len(send))
	for i, v := range send {
		tmp[i] = float64(v)
	}
	out := make([]float64, len(send)*c.Size())
	c.c.AllGather(out, tmp)
	res := make([]uint16, len(out))
	for i, v := range out {
		res[i] = uint16(v)
	}
	return res
}

func (c *MPIComm) BcastUint16(buf []uint16, root int) {
	tmp := make([]float64, len(buf))
	if c.Rank() == root {
		for i, v := range buf {
			tmp[i] = float64(v)
		}
	}
	c.c.BcastFromRoot(tmp)
	for i, v := range tmp {
		buf[i] = uint16(v)
	}
}

func (c *MPIComm) AllReduceSumFloat64(buf []float64) {
	out := make([]float64, len(buf))
	c.c.AllReduceSum(out, buf)
	copy(buf, out)
}

func (c *MPIComm) AllReduceMinInt(v int) int {
	in := []float64{float64(v)}
	out := make([]float64, 1)
	c.c.AllReduceMin(out, in)
	return int(out[0])
}

func (c *MPIComm) WarnOnce(format string, args ...interface{}) {
	if c.Rank() == 0 {
		warnf(format, args...)
	}
}
