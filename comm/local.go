// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm

import (
	"fmt"
	"sync"
)

// World is the shared backing store for a fixed number of simulated ranks,
// each expected to be driven by its own goroutine. It plays the role of the
// MPI runtime for comm.Local: mailboxes keyed by (communicator, src, dst,
// tag) preserve the per-pair ordering guarantee spec.md §5 relies on, and a
// generation-counted barrier backs both Barrier() and the collectives.
type World struct {
	size      int
	nextID    int64
	mu        sync.Mutex
	boxes     map[mailKey]chan message
	barrier   map[int64]*barrierState
	scratches map[int64]*scratch
	groups    map[groupKey]int64
}

// groupKey memoizes the communicator id produced by Include, so that every
// rank calling Include with the same (parent communicator, label, rank list)
// - the collective-call pattern every caller in this module follows - agrees
// on the same id without an extra synchronization round, while disjoint
// groups built under one label (e.g. the p scatter groups) get distinct ids.
type groupKey struct {
	parent int64
	label  string
	ranks  string
}

// NewWorld creates a World simulating `size` ranks.
func NewWorld(size int) *World {
	return &World{
		size:      size,
		boxes:     make(map[mailKey]chan message),
		barrier:   make(map[int64]*barrierState),
		scratches: make(map[int64]*scratch),
		groups:    make(map[groupKey]int64),
	}
}

// WorldComm returns the rank-th view of the world communicator (size ==
// World's size, member everywhere).
func (w *World) WorldComm(rank int) Communicator {
	ranks := make([]int, w.size)
	for i := range ranks {
		ranks[i] = i
	}
	return &Local{world: w, id: 0, ranks: ranks, member: true, localRank: rank, worldRank: rank}
}

type mailKey struct {
	comm    int64
	src     int
	dst     int
	tag     int
}

type message struct {
	floats []float64
	u16    []uint16
}

type barrierState struct {
	mu    sync.Mutex
	n     int
	count int
	gen   chan struct{}
}

// Local is an in-process Communicator: one value per simulated rank,
// sharing a World. worldRank is this process's rank in the root world
// communicator (used to label point-to-point traffic so Send/Recv keyed on
// world ranks keep working after Include narrows the membership).
type Local struct {
	world     *World
	id        int64
	ranks     []int // world ranks composing this communicator, in local order
	member    bool
	localRank int
	worldRank int
}

var _ Communicator = (*Local)(nil)

func (c *Local) Rank() int {
	if !c.member {
		return -1
	}
	return c.localRank
}

func (c *Local) Size() int {
	if !c.member {
		return 0
	}
	return len(c.ranks)
}

func (c *Local) Member() bool { return c.member }

// Dup numbers the Dup calls each rank makes on c; the n-th Dup on every rank
// resolves, through Include, to the same new communicator id.
func (c *Local) Dup() Communicator {
	c.world.mu.Lock()
	seqKey := groupKey{parent: c.id, label: fmt.Sprintf("dup-count/%d", c.worldRank)}
	seq := c.world.groups[seqKey]
	c.world.groups[seqKey] = seq + 1
	c.world.mu.Unlock()
	return c.Include(c.ranks, fmt.Sprintf("dup/%d", seq))
}

func (c *Local) Include(worldRanks []int, label string) Communicator {
	key := groupKey{parent: c.id, label: label, ranks: fmt.Sprint(worldRanks)}
	c.world.mu.Lock()
	id, ok := c.world.groups[key]
	if !ok {
		c.world.nextID++
		id = c.world.nextID
		c.world.groups[key] = id
	}
	c.world.mu.Unlock()
	local := -1
	for i, r := range worldRanks {
		if r == c.worldRank {
			local = i
			break
		}
	}
	return &Local{world: c.world, id: id, ranks: worldRanks, member: local >= 0, localRank: local, worldRank: c.worldRank}
}

func (c *Local) box(dst, tag int) chan message {
	key := mailKey{comm: c.id, src: c.worldRank, dst: dst, tag: tag}
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	ch, ok := c.world.boxes[key]
	if !ok {
		ch = make(chan message, 8)
		c.world.boxes[key] = ch
	}
	return ch
}

// recvBox returns the mailbox that a message from src to this rank's
// worldRank on the given tag within this communicator would be posted to.
func (c *Local) recvBox(src, tag int) chan message {
	key := mailKey{comm: c.id, src: src, dst: c.worldRank, tag: tag}
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	ch, ok := c.world.boxes[key]
	if !ok {
		ch = make(chan message, 8)
		c.world.boxes[key] = ch
	}
	return ch
}

func (c *Local) toWorldRank(i int) int { return c.ranks[i] }

func (c *Local) SendFloat64(buf []float64, dest, tag int) error {
	cp := append([]float64(nil), buf...)
	c.recvBoxFor(dest, tag) <- message{floats: cp}
	return nil
}

// recvBoxFor is the mailbox a send from us to local index `dest` posts
// into: keyed from the receiver's point of view (src=us, dst=dest-world).
func (c *Local) recvBoxFor(dest, tag int) chan message {
	destWorld := c.toWorldRank(dest)
	key := mailKey{comm: c.id, src: c.worldRank, dst: destWorld, tag: tag}
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	ch, ok := c.world.boxes[key]
	if !ok {
		ch = make(chan message, 8)
		c.world.boxes[key] = ch
	}
	return ch
}

func (c *Local) RecvFloat64(buf []float64, src, tag int) error {
	srcWorld := c.toWorldRank(src)
	m := <-c.recvBox(srcWorld, tag)
	copy(buf, m.floats)
	return nil
}

func (c *Local) ISendFloat64(buf []float64, dest, tag int) Request {
	r := newChanRequest()
	cp := append([]float64(nil), buf...)
	go func() {
		c.recvBoxFor(dest, tag) <- message{floats: cp}
		r.done <- nil
	}()
	return r
}

func (c *Local) IRecvFloat64(buf []float64, src, tag int) Request {
	r := newChanRequest()
	srcWorld := c.toWorldRank(src)
	go func() {
		m := <-c.recvBox(srcWorld, tag)
		copy(buf, m.floats)
		r.done <- nil
	}()
	return r
}

func (c *Local) SendUint16(buf []uint16, dest, tag int) error {
	cp := append([]uint16(nil), buf...)
	c.recvBoxFor(dest, tag) <- message{u16: cp}
	return nil
}

func (c *Local) RecvUint16(buf []uint16, src, tag int) error {
	srcWorld := c.toWorldRank(src)
	m := <-c.recvBox(srcWorld, tag)
	copy(buf, m.u16)
	return nil
}

func (c *Local) ISendUint16(buf []uint16, dest, tag int) Request {
	r := newChanRequest()
	cp := append([]uint16(nil), buf...)
	go func() {
		c.recvBoxFor(dest, tag) <- message{u16: cp}
		r.done <- nil
	}()
	return r
}

func (c *Local) IRecvUint16(buf []uint16, src, tag int) Request {
	r := newChanRequest()
	srcWorld := c.toWorldRank(src)
	go func() {
		m := <-c.recvBox(srcWorld, tag)
		copy(buf, m.u16)
		r.done <- nil
	}()
	return r
}

func hashKind(s string) int {
	h := 0
	for _, r := range s {
		h = h*131 + int(r)
	}
	return h
}

// state coordinates one round of a uniform collective across all
// members of a Local communicator using the barrier state map.
func (c *Local) state(kind string) *barrierState {
	key := c.id*1000003 + int64(hashKind(kind))
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	st, ok := c.world.barrier[key]
	if !ok {
		st = &barrierState{n: len(c.ranks), gen: make(chan struct{})}
		c.world.barrier[key] = st
	}
	return st
}

func (c *Local) arrive(st *barrierState) <-chan struct{} {
	st.mu.Lock()
	gen := st.gen
	st.count++
	if st.count == st.n {
		st.count = 0
		st.gen = make(chan struct{})
		close(gen)
	}
	st.mu.Unlock()
	return gen
}

func (c *Local) Barrier() {
	if !c.member {
		return
	}
	st := c.state("barrier")
	<-c.arrive(st)
}

// scratch is the shared storage for one round of a collective: a
// per-communicator, per-kind mutex-protected buffer held in the World and
// guarded by the same barrier rendezvous used for Barrier itself.
type scratch struct {
	mu  sync.Mutex
	out []float64
	u16 []uint16
}

func (c *Local) scratchFor(kind string) *scratch {
	c.world.mu.Lock()
	defer c.world.mu.Unlock()
	sKey := c.id*7919 + int64(hashKind(kind))
	s, ok := c.world.scratches[sKey]
	if !ok {
		s = &scratch{}
		c.world.scratches[sKey] = s
	}
	return s
}

func (c *Local) GatherFloat64(send []float64, counts, displs []int, root int) []float64 {
	return c.gatherv(send, counts, displs, root)
}

func (c *Local) gatherv(send []float64, counts, displs []int, root int) []float64 {
	st := c.state("gather")
	s := c.scratchFor("gather")
	s.mu.Lock()
	if counts == nil {
		if s.out == nil {
			s.out = make([]float64, len(send)*len(c.ranks))
		}
		copy(s.out[c.localRank*len(send):], send)
	} else {
		if s.out == nil {
			total := 0
			for _, n := range counts {
				total += n
			}
			s.out = make([]float64, total)
		}
		copy(s.out[displs[c.localRank]:], send)
	}
	s.mu.Unlock()
	<-c.arrive(st)
	var result []float64
	if c.localRank == root {
		result = append([]float64(nil), s.out...)
	}
	// last arriver resets; use a second barrier so readers finish before reset
	st2 := c.state("gather-reset")
	<-c.arrive(st2)
	if c.localRank == root {
		s.mu.Lock()
		s.out = nil
		s.mu.Unlock()
	}
	return result
}

func (c *Local) ScatterFloat64(send []float64, counts, displs []int, recvCount, root int) []float64 {
	st := c.state("scatter")
	s := c.scratchFor("scatter")
	if c.localRank == root {
		s.mu.Lock()
		s.out = append([]float64(nil), send...)
		s.mu.Unlock()
	}
	<-c.arrive(st)
	var out []float64
	s.mu.Lock()
	if counts == nil {
		out = append([]float64(nil), s.out[c.localRank*recvCount:(c.localRank+1)*recvCount]...)
	} else {
		out = append([]float64(nil), s.out[displs[c.localRank]:displs[c.localRank]+counts[c.localRank]]...)
	}
	s.mu.Unlock()
	st2 := c.state("scatter-reset")
	<-c.arrive(st2)
	return out
}

func (c *Local) IGatherFloat64(send []float64, out *[]float64, counts, displs []int, root int) Request {
	r := newChanRequest()
	go func() {
		res := c.GatherFloat64(send, counts, displs, root)
		if c.localRank == root {
			*out = res
		}
		r.done <- nil
	}()
	return r
}

func (c *Local) IScatterFloat64(send []float64, out *[]float64, counts, displs []int, recvCount, root int) Request {
	r := newChanRequest()
	go func() {
		res := c.ScatterFloat64(send, counts, displs, recvCount, root)
		*out = res
		r.done <- nil
	}()
	return r
}

func (c *Local) AllGatherUint16(send []uint16) []uint16 {
	st := c.state("allgather16")
	s := c.scratchFor("allgather16")
	s.mu.Lock()
	if s.u16 == nil {
		s.u16 = make([]uint16, len(send)*len(c.ranks))
	}
	copy(s.u16[c.localRank*len(send):], send)
	s.mu.Unlock()
	<-c.arrive(st)
	out := make([]uint16, len(s.u16))
	s.mu.Lock()
	copy(out, s.u16)
	s.mu.Unlock()
	st2 := c.state("allgather16-reset")
	<-c.arrive(st2)
	if c.localRank == 0 {
		s.mu.Lock()
		s.u16 = nil
		s.mu.Unlock()
	}
	return out
}

func (c *Local) BcastUint16(buf []uint16, root int) {
	st := c.state("bcast16")
	s := c.scratchFor("bcast16")
	if c.localRank == root {
		s.mu.Lock()
		s.u16 = append([]uint16(nil), buf...)
		s.mu.Unlock()
	}
	<-c.arrive(st)
	s.mu.Lock()
	copy(buf, s.u16)
	s.mu.Unlock()
	st2 := c.state("bcast16-reset")
	<-c.arrive(st2)
}

func (c *Local) AllReduceSumFloat64(buf []float64) {
	st := c.state("allreducesum")
	s := c.scratchFor("allreducesum")
	s.mu.Lock()
	if s.out == nil {
		s.out = make([]float64, len(buf))
	}
	for i, v := range buf {
		s.out[i] += v
	}
	s.mu.Unlock()
	<-c.arrive(st)
	s.mu.Lock()
	copy(buf, s.out)
	s.mu.Unlock()
	st2 := c.state("allreducesum-reset")
	<-c.arrive(st2)
	if c.localRank == 0 {
		s.mu.Lock()
		s.out = nil
		s.mu.Unlock()
	}
}

func (c *Local) AllReduceMinInt(v int) int {
	st := c.state("allreducemin")
	s := c.scratchFor("allreducemin")
	s.mu.Lock()
	if s.out == nil {
		s.out = []float64{float64(v)}
	} else if float64(v) < s.out[0] {
		s.out[0] = float64(v)
	}
	s.mu.Unlock()
	<-c.arrive(st)
	s.mu.Lock()
	out := int(s.out[0])
	s.mu.Unlock()
	st2 := c.state("allreducemin-reset")
	<-c.arrive(st2)
	if c.localRank == 0 {
		s.mu.Lock()
		s.out = nil
		s.mu.Unlock()
	}
	return out
}

func (c *Local) WarnOnce(format string, args ...interface{}) {
	if c.localRank == 0 {
		warnf(format, args...)
	}
}
