// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procgroup

// Local is the single-process process group: Rank()==0, Size()==1,
// IsOn()==false. It is the default when no transport is configured, and
// corresponds to the decomposition algorithm's "single-process fallback".
type Local struct{}

var _ Group = Local{}

// Rank always returns 0.
func (Local) Rank() int { return 0 }

// Size always returns 1.
func (Local) Size() int { return 1 }

// IsOn always returns false.
func (Local) IsOn() bool { return false }

// NewCart returns the trivial one-rank Cartesian view; sizes must be all 1.
func (Local) NewCart(sizes []int) (*Cart, error) {
	coords := make([]int, len(sizes))
	return &Cart{
		sizes:  sizes,
		coords: coords,
		rank:   func([]int) int { return 0 },
	}, nil
}

type localRequest struct{}

func (localRequest) Wait() {}

// Isend is unreachable in single-process mode (there are no neighbors to
// send to); it is provided so Local satisfies Group.
func (Local) Isend(dest, tag int, data []byte) Request { return localRequest{} }

// Irecv is unreachable in single-process mode; see Isend.
func (Local) Irecv(src, tag int, buf []byte) Request { return localRequest{} }

// WaitAll is a no-op: every Request from Local is already complete.
func (Local) WaitAll(reqs []Request) {}

// AllReduceSum is a no-op: there is nothing else to sum with.
func (Local) AllReduceSum(data []float64) {}

// Allgather returns a single-element slice containing this rank's data.
func (Local) Allgather(data []byte) [][]byte {
	return [][]byte{data}
}
