// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package procgroup implements the process-group collaborator contract
// that the domain, dfield and spectral packages consume: rank/size query,
// periodic Cartesian-subgroup creation, non-blocking send/recv, collective
// reductions and an all-gather used by the distributed FFT backend.
//
// Two implementations ship: Local, a single-rank stub used whenever no
// transport is configured (the "single-process fallback" of the
// decomposition algorithm), and Simulated, an in-process goroutine/channel
// group of virtual ranks used to exercise the distributed code paths
// without a real network or MPI transport.
package procgroup

import (
	"fmt"
	"sort"
)

// Request is a handle to a posted non-blocking send or receive.
type Request interface {
	// Wait blocks until the operation completes.
	Wait()
}

// Group is the process-group abstraction consumed by domain, dfield and
// spectral. Implementations must be safe for one goroutine per rank.
type Group interface {
	// Rank returns this process's rank in the group.
	Rank() int
	// Size returns the number of processes in the group.
	Size() int
	// IsOn reports whether this group represents more than the trivial
	// single-process fallback.
	IsOn() bool

	// NewCart builds a periodic Cartesian topology of the given shape over
	// this group and returns this rank's view of it.
	NewCart(sizes []int) (*Cart, error)

	// Isend posts a non-blocking send of data to dest tagged tag. The
	// caller must not mutate data until the returned Request is waited on.
	Isend(dest, tag int, data []byte) Request
	// Irecv posts a non-blocking receive from src tagged tag into buf. The
	// caller must not read buf until the returned Request is waited on.
	Irecv(src, tag int, buf []byte) Request
	// WaitAll blocks until every request in reqs has completed.
	WaitAll(reqs []Request)

	// AllReduceSum sums data element-wise across every rank, in place.
	AllReduceSum(data []float64)
	// Allgather returns, for every rank r (0-indexed), the data slice that
	// rank r passed in.
	Allgather(data []byte) [][]byte
}

// DimsCreate balances total processes across ndims axes, leaving any
// already-nonzero entry of pinned untouched, mirroring MPI_Dims_create.
// It returns an error if the pinned entries cannot be completed to a
// factorization whose product equals total.
func DimsCreate(total, ndims int, pinned []int) ([]int, error) {
	sizes := make([]int, ndims)
	copy(sizes, pinned)

	remaining := total
	free := 0
	for i := 0; i < ndims; i++ {
		if sizes[i] > 0 {
			if remaining%sizes[i] != 0 {
				return nil, fmt.Errorf("procgroup: pinned proc size %d at axis %d does not divide %d", sizes[i], i, total)
			}
			remaining /= sizes[i]
		} else {
			free++
		}
	}

	// factor `remaining` into `free` balanced factors, largest first, then
	// assign them to the free axes in increasing index order so that
	// earlier axes get the larger factors (matches MPI_Dims_create's
	// non-increasing convention and keeps the assignment deterministic).
	factors := balancedFactors(remaining, free)
	fi := 0
	for i := 0; i < ndims; i++ {
		if sizes[i] == 0 {
			sizes[i] = factors[fi]
			fi++
		}
	}

	product := 1
	for _, s := range sizes {
		product *= s
	}
	if product != total {
		return nil, fmt.Errorf("procgroup: cannot factor %d processes into %d dimensions with pins %v", total, ndims, pinned)
	}
	return sizes, nil
}

// balancedFactors splits n into k factors whose product is n, as close to
// equal as possible, sorted largest-first: n's prime factors are sorted
// descending and greedily assigned to whichever of the k buckets currently
// holds the smallest product, then the buckets themselves are sorted
// descending.
func balancedFactors(n, k int) []int {
	if k == 0 {
		return nil
	}
	if k == 1 {
		return []int{n}
	}
	buckets := make([]int, k)
	for i := range buckets {
		buckets[i] = 1
	}
	for _, p := range primeFactorsDesc(n) {
		mi := 0
		for i := 1; i < k; i++ {
			if buckets[i] < buckets[mi] {
				mi = i
			}
		}
		buckets[mi] *= p
	}
	sort.Sort(sort.Reverse(sort.IntSlice(buckets)))
	return buckets
}

// primeFactorsDesc returns n's prime factors (with multiplicity), largest
// first.
func primeFactorsDesc(n int) []int {
	var out []int
	for p := 2; p*p <= n; p++ {
		for n%p == 0 {
			out = append(out, p)
			n /= p
		}
	}
	if n > 1 {
		out = append(out, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}

// Cart is this rank's view of a periodic Cartesian topology.
type Cart struct {
	sizes  []int
	coords []int
	rank   func(coords []int) int
}

// Sizes returns the extents of the Cartesian grid.
func (c *Cart) Sizes() []int { return c.sizes }

// Coords returns this rank's coordinates in the Cartesian grid.
func (c *Cart) Coords() []int { return c.coords }

// RankOfOffset returns the rank of the process at this rank's coordinates
// translated by offset, wrapping periodically on every axis.
func (c *Cart) RankOfOffset(offset []int) int {
	coords := make([]int, len(c.coords))
	for i := range coords {
		coords[i] = wrap(c.coords[i]+offset[i], c.sizes[i])
	}
	return c.rank(coords)
}

func wrap(x, n int) int {
	x %= n
	if x < 0 {
		x += n
	}
	return x
}
