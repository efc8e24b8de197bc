// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package comm_test

import (
	"sync"
	"testing"

	"github.com/cpmech/gocoarse/comm"
	"github.com/stretchr/testify/require"
)

func TestSendRecvFloat64RoundTrip(t *testing.T) {
	world := comm.NewWorld(2)
	var wg sync.WaitGroup
	var got []float64
	wg.Add(2)
	go func() {
		defer wg.Done()
		c := world.WorldComm(0)
		require.NoError(t, c.SendFloat64([]float64{1, 2, 3}, 1, 7))
	}()
	go func() {
		defer wg.Done()
		c := world.WorldComm(1)
		buf := make([]float64, 3)
		require.NoError(t, c.RecvFloat64(buf, 0, 7))
		got = buf
	}()
	wg.Wait()
	require.Equal(t, []float64{1, 2, 3}, got)
}

func TestIncludeAgreesOnIdAcrossRanksWithSameLabel(t *testing.T) {
	world := comm.NewWorld(4)
	var wg sync.WaitGroup
	members := make([]bool, 4)
	for r := 0; r < 4; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := world.WorldComm(r)
			sub := c.Include([]int{1, 3}, "odd")
			members[r] = sub.Member()
		}()
	}
	wg.Wait()
	require.Equal(t, []bool{false, true, false, true}, members)
}

func TestIncludedSubcommunicatorCollectivesWork(t *testing.T) {
	world := comm.NewWorld(4)
	var wg sync.WaitGroup
	results := make([]uint16, 4)
	for r := 0; r < 4; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := world.WorldComm(r)
			sub := c.Include([]int{1, 3}, "odd")
			if !sub.Member() {
				return
			}
			out := sub.AllGatherUint16([]uint16{uint16(r)})
			results[r] = out[0] + out[1]
		}()
	}
	wg.Wait()
	require.Equal(t, uint16(4), results[1]) // 1 + 3
	require.Equal(t, uint16(4), results[3])
}

func TestGatherFloat64Uniform(t *testing.T) {
	world := comm.NewWorld(3)
	var wg sync.WaitGroup
	out := make([][]float64, 3)
	for r := 0; r < 3; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := world.WorldComm(r)
			res := c.GatherFloat64([]float64{float64(r)}, nil, nil, 0)
			if r == 0 {
				out[0] = res
			}
		}()
	}
	wg.Wait()
	require.Equal(t, []float64{0, 1, 2}, out[0])
}

func TestAllReduceSumFloat64Broadcast(t *testing.T) {
	world := comm.NewWorld(3)
	var wg sync.WaitGroup
	results := make([]float64, 3)
	for r := 0; r < 3; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := world.WorldComm(r)
			buf := make([]float64, 1)
			if r == 0 {
				buf[0] = 42
			}
			c.AllReduceSumFloat64(buf)
			results[r] = buf[0]
		}()
	}
	wg.Wait()
	for _, v := range results {
		require.Equal(t, 42.0, v)
	}
}

func TestAllReduceMinInt(t *testing.T) {
	world := comm.NewWorld(3)
	var wg sync.WaitGroup
	vals := []int{5, 2, 9}
	results := make([]int, 3)
	for r := 0; r < 3; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := world.WorldComm(r)
			results[r] = c.AllReduceMinInt(vals[r])
		}()
	}
	wg.Wait()
	for _, v := range results {
		require.Equal(t, 2, v)
	}
}

func TestNonMemberRankReportsRankMinusOneAndSizeZero(t *testing.T) {
	world := comm.NewWorld(3)
	c := world.WorldComm(0).Include([]int{1, 2}, "excl")
	require.False(t, c.Member())
	require.Equal(t, -1, c.Rank())
	require.Equal(t, 0, c.Size())
}
