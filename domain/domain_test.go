// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package domain

import (
	"sync"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/dpedroso/gofd/procgroup"
)

// Test_decomp01 is scenario A: n_dims=3, n_ghst=2, G_ntot=(12,13,14), 4
// processes factored as (2,2,1).
func Test_decomp01(tst *testing.T) {
	chk.PrintTitle("decomp01")
	groups := Simulated4(tst)

	results := make([]*Domain, 4)
	var wg sync.WaitGroup
	wg.Add(4)
	for r := 0; r < 4; r++ {
		go func(r int) {
			defer wg.Done()
			d := New(groups[r])
			d.SetNdim(3)
			d.SetGuard(2)
			d.SetSize(0, 12)
			d.SetSize(1, 13)
			d.SetSize(2, 14)
			d.SetProcSizes(0, 2)
			d.SetProcSizes(1, 2)
			d.SetProcSizes(2, 1)
			d.Commit()
			results[r] = d
		}(r)
	}
	wg.Wait()

	rank0 := rankAt(results, [3]int{0, 0, 0})
	chk.Ints(tst, "rank0 proc_index", results[rank0].ProcIndex()[:3], []int{0, 0, 0})
	chk.Ints(tst, "rank0 L_nint", results[rank0].lNint[:3], []int{6, 7, 14})
	chk.Ints(tst, "rank0 G_strt", results[rank0].gStrt[:3], []int{0, 0, 0})
	chk.Ints(tst, "rank0 L_ntot", results[rank0].lNtot[:3], []int{10, 11, 18})

	rank3 := rankAt(results, [3]int{1, 1, 0})
	chk.Ints(tst, "rank3 L_nint", results[rank3].lNint[:3], []int{6, 6, 14})
	chk.Ints(tst, "rank3 G_strt", results[rank3].gStrt[:3], []int{6, 7, 0})
}

// Test_decompinvariant01 checks the quantified invariant: for every axis,
// the sum of L_nint over the ranks of each process-grid column equals
// G_ntot.
func Test_decompinvariant01(tst *testing.T) {
	chk.PrintTitle("decompinvariant01")
	groups := Simulated4(tst)
	results := make([]*Domain, 4)
	var wg sync.WaitGroup
	wg.Add(4)
	for r := 0; r < 4; r++ {
		go func(r int) {
			defer wg.Done()
			d := New(groups[r])
			d.SetNdim(3)
			d.SetSize(0, 12)
			d.SetSize(1, 13)
			d.SetSize(2, 14)
			d.SetProcSizes(0, 2)
			d.SetProcSizes(1, 2)
			d.SetProcSizes(2, 1)
			d.Commit()
			results[r] = d
		}(r)
	}
	wg.Wait()

	for axis := 0; axis < 3; axis++ {
		sums := map[int]int{}
		for _, d := range results {
			key := d.procIndexKeyExcept(axis)
			sums[key] += d.lNint[axis]
		}
		for _, s := range sums {
			chk.IntAssert(s, d0GNtot(results, axis))
		}
	}
}

func d0GNtot(ds []*Domain, axis int) int { return ds[0].gNtot[axis] }

// procIndexKeyExcept collapses the coordinates on every axis but `axis`
// into a single int key, so L_nint sums can be grouped by "column".
func (d *Domain) procIndexKeyExcept(axis int) int {
	key := 0
	for i := 0; i < 3; i++ {
		if i == axis {
			continue
		}
		key = key*8 + d.procIndex[i]
	}
	return key
}

// Test_tags01 is scenario F: n_dims=2 at proc_index=(0,0), proc_sizes=(3,3).
func Test_tags01(tst *testing.T) {
	chk.PrintTitle("tags01")
	groups := procgroup.Simulated(9)
	results := make([]*Domain, 9)
	var wg sync.WaitGroup
	wg.Add(9)
	for r := 0; r < 9; r++ {
		go func(r int) {
			defer wg.Done()
			d := New(groups[r])
			d.SetNdim(2)
			d.SetSize(0, 9)
			d.SetSize(1, 9)
			d.SetProcSizes(0, 3)
			d.SetProcSizes(1, 3)
			d.Commit()
			results[r] = d
		}(r)
	}
	wg.Wait()

	rank0 := rankAt(results, [3]int{0, 0, 0})
	d := results[rank0]
	for n := 0; n < d.NumNeighbors(); n++ {
		_, send, recv, off := d.Neighbor(n)
		if off[0] == 1 && off[1] == 0 {
			chk.IntAssert(send, 65)
			chk.IntAssert(recv, 45)
		}
	}
}

// Test_tagsymmetry01 is invariant 8: for every neighbor n, send_tags[n]
// equals the peer's recv_tags[n'] where n' is the peer's index of the
// reciprocal offset.
func Test_tagsymmetry01(tst *testing.T) {
	chk.PrintTitle("tagsymmetry01")
	groups := procgroup.Simulated(8)
	results := make([]*Domain, 8)
	var wg sync.WaitGroup
	wg.Add(8)
	for r := 0; r < 8; r++ {
		go func(r int) {
			defer wg.Done()
			d := New(groups[r])
			d.SetNdim(3)
			d.SetSize(0, 8)
			d.SetSize(1, 8)
			d.SetSize(2, 8)
			d.SetProcSizes(0, 2)
			d.SetProcSizes(1, 2)
			d.SetProcSizes(2, 2)
			d.Commit()
			results[r] = d
		}(r)
	}
	wg.Wait()

	for _, d := range results {
		for n := 0; n < d.NumNeighbors(); n++ {
			peerRank, sendTag, _, off := d.Neighbor(n)
			peer := results[peerRank]
			found := false
			for m := 0; m < peer.NumNeighbors(); m++ {
				_, _, peerRecv, peerOff := peer.Neighbor(m)
				if peerOff[0] == -off[0] && peerOff[1] == -off[1] && peerOff[2] == -off[2] {
					chk.IntAssert(sendTag, peerRecv)
					found = true
					break
				}
			}
			if !found {
				tst.Fatalf("no reciprocal neighbor found")
			}
		}
	}
}

// Simulated4 returns 4 virtual process-group ranks for use by tests in
// this package.
func Simulated4(tst *testing.T) []procgroup.Group {
	return procgroup.Simulated(4)
}

func rankAt(ds []*Domain, coords [3]int) int {
	for r, d := range ds {
		pi := d.ProcIndex()
		if pi[0] == coords[0] && pi[1] == coords[1] && pi[2] == coords[2] {
			return r
		}
	}
	panic("rankAt: no matching rank")
}
