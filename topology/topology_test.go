// Copyright 2012 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package topology_test

import (
	"sync"
	"testing"

	"github.com/cpmech/gocoarse/comm"
	"github.com/cpmech/gocoarse/topology"
	"github.com/stretchr/testify/require"
)

// planAll runs topology.Plan concurrently on every rank of an in-process
// World and returns each rank's Layout in rank order.
func planAll(t *testing.T, size, p int, mode topology.Mode, excl topology.Exclusion) []*topology.Layout {
	t.Helper()
	world := comm.NewWorld(size)
	layouts := make([]*topology.Layout, size)
	var wg sync.WaitGroup
	for r := 0; r < size; r++ {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			lay, _, err := topology.Plan(world.WorldComm(r), p, mode, excl)
			require.NoError(t, err)
			layouts[r] = lay
		}()
	}
	wg.Wait()
	return layouts
}

// TestAreaEqualizedRecurrenceP8p3 verifies the exact quadratic recurrence
// from coarse_operator_impl.hpp's T==2 branch: ldistribution = [0, 1, 3]
// for P=8, p=3 (not the [0,3,6] figure in the distilled spec's illustrative
// example, which does not satisfy the recurrence itself).
func TestAreaEqualizedRecurrenceP8p3(t *testing.T) {
	layouts := planAll(t, 8, 3, topology.AreaEqualized, topology.Inclusive)
	require.Equal(t, []int{0, 1, 3}, layouts[0].LDistribution)
	for _, lay := range layouts {
		require.Equal(t, []int{0, 1, 3}, lay.LDistribution)
	}
}

// TestExactlyPRanksHoldNonemptyMasterComm is the universal invariant from
// spec.md §8: across every rank, exactly p communicators report
// Member()==true on MasterComm.
func TestExactlyPRanksHoldNonemptyMasterComm(t *testing.T) {
	for _, p := range []int{1, 2, 4} {
		for _, mode := range []topology.Mode{topology.Uniform, topology.Sequential, topology.AreaEqualized} {
			layouts := planAll(t, 8, p, mode, topology.Inclusive)
			members := 0
			for _, lay := range layouts {
				if lay.MasterComm.Member() {
					members++
				}
			}
			require.Equal(t, p, members, "mode=%v p=%d", mode, p)
		}
	}
}

// TestEveryRankBelongsToExactlyOneScatterGroup checks the partition
// property: every world rank appears as a member of exactly one
// ScatterComm (its own).
func TestEveryRankBelongsToExactlyOneScatterGroup(t *testing.T) {
	layouts := planAll(t, 8, 3, topology.Uniform, topology.Inclusive)
	for r, lay := range layouts {
		require.True(t, lay.ScatterComm.Member(), "rank %d should be a member of its own scatter group", r)
	}
}

// TestCoordinatorExclusionMastersGetAMasterIndex checks that under
// Exclusion==Coordinator every master still gets a valid MasterIndex; that
// a master's own scatter-group slot never counts toward its rows is not
// checked here.
func TestCoordinatorExclusionMastersGetAMasterIndex(t *testing.T) {
	layouts := planAll(t, 8, 2, topology.Uniform, topology.Coordinator)
	for _, lay := range layouts {
		if lay.IsMaster {
			require.GreaterOrEqual(t, lay.MasterIndex, 0)
		}
	}
}

func TestPlanClampsExcessiveMasterCount(t *testing.T) {
	world := comm.NewWorld(4)
	lay, warnings, err := topology.Plan(world.WorldComm(0), 10, topology.Uniform, topology.Inclusive)
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.LessOrEqual(t, lay.P, 2)
}

// TestSequentialIDistributionReflectsLogicalAssemblyOrder covers spec.md
// §3(iii): for T==Sequential the assembled matrix's logical row-group order
// is master-by-master (each master's own rows followed by its workers'),
// not world-rank order, so IDistribution must be a non-trivial permutation
// once a master owns more than one worker.
func TestSequentialIDistributionReflectsLogicalAssemblyOrder(t *testing.T) {
	layouts := planAll(t, 6, 2, topology.Sequential, topology.Inclusive)
	want := []int{0, 2, 3, 1, 4, 5}
	for r, lay := range layouts {
		require.Equal(t, want, lay.IDistribution, "rank %d", r)
		require.NotEqual(t, []int{0, 1, 2, 3, 4, 5}, lay.IDistribution)
	}
	require.Equal(t, []int{0, 2, 3}, layouts[0].ScatterGroup)
	require.Equal(t, []int{1, 4, 5}, layouts[1].ScatterGroup)
}

func TestSingleMasterDuplicatesScatterAndGatherComm(t *testing.T) {
	layouts := planAll(t, 4, 1, topology.Uniform, topology.Inclusive)
	for _, lay := range layouts {
		require.True(t, lay.ScatterComm.Member())
		require.True(t, lay.GatherComm.Member())
	}
	require.True(t, layouts[0].IsMaster)
	require.False(t, layouts[1].IsMaster)
}
