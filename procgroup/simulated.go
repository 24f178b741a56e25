// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procgroup

import "sync"

// Simulated returns n virtual ranks of a process group sharing one OS
// process, connected by goroutines and channels. It implements the same
// Group interface as a real transport would, so the distributed code
// paths of domain, dfield and spectral can be driven and tested without a
// network or MPI library. It is not meant to scale past a handful of
// virtual ranks; it exists for exercising topology, tagging and
// guard-exchange correctness.
func Simulated(n int) []Group {
	if n < 1 {
		panic("procgroup: Simulated requires n >= 1")
	}
	h := &hub{
		size:    n,
		arData:  make([][]float64, n),
		agData:  make([][]byte, n),
	}
	h.cond = sync.NewCond(&h.mu)
	groups := make([]Group, n)
	for r := 0; r < n; r++ {
		groups[r] = &simGroup{hub: h, rank: r}
	}
	return groups
}

// hub is the shared rendezvous point for a set of simulated ranks: point
// to point mailboxes keyed by (dest,src,tag), plus a simple generation-
// counted barrier for the two collectives.
type hub struct {
	size int

	mailboxes sync.Map // [3]int{dest,src,tag} -> chan []byte

	mu  sync.Mutex
	cond *sync.Cond

	arArrived int
	arData    [][]float64
	arResult  []float64
	arGen     int

	agArrived int
	agData    [][]byte
	agResult  [][]byte
	agGen     int
}

func (h *hub) mailbox(dest, src, tag int) chan []byte {
	key := [3]int{dest, src, tag}
	if v, ok := h.mailboxes.Load(key); ok {
		return v.(chan []byte)
	}
	ch := make(chan []byte, 8)
	actual, _ := h.mailboxes.LoadOrStore(key, ch)
	return actual.(chan []byte)
}

func (h *hub) allReduceSum(rank int, data []float64) {
	h.mu.Lock()
	myGen := h.arGen
	h.arData[rank] = data
	h.arArrived++
	if h.arArrived == h.size {
		sum := make([]float64, len(data))
		for _, d := range h.arData {
			for i, v := range d {
				sum[i] += v
			}
		}
		h.arResult = sum
		h.arArrived = 0
		h.arData = make([][]float64, h.size)
		h.arGen++
		h.cond.Broadcast()
	} else {
		for h.arGen == myGen {
			h.cond.Wait()
		}
	}
	result := h.arResult
	h.mu.Unlock()
	copy(data, result)
}

func (h *hub) allgather(rank int, data []byte) [][]byte {
	h.mu.Lock()
	myGen := h.agGen
	h.agData[rank] = data
	h.agArrived++
	if h.agArrived == h.size {
		res := make([][]byte, h.size)
		copy(res, h.agData)
		h.agResult = res
		h.agArrived = 0
		h.agData = make([][]byte, h.size)
		h.agGen++
		h.cond.Broadcast()
	} else {
		for h.agGen == myGen {
			h.cond.Wait()
		}
	}
	result := h.agResult
	h.mu.Unlock()
	return result
}

// simGroup is one virtual rank's view of a Simulated group.
type simGroup struct {
	hub  *hub
	rank int
}

var _ Group = (*simGroup)(nil)

func (g *simGroup) Rank() int  { return g.rank }
func (g *simGroup) Size() int  { return g.hub.size }
func (g *simGroup) IsOn() bool { return true }

func (g *simGroup) NewCart(sizes []int) (*Cart, error) {
	coords := coordsFromRank(g.rank, sizes)
	return &Cart{
		sizes:  sizes,
		coords: coords,
		rank:   func(c []int) int { return rankFromCoords(c, sizes) },
	}, nil
}

type simRequest struct{ done chan struct{} }

func (r *simRequest) Wait() { <-r.done }

func (g *simGroup) Isend(dest, tag int, data []byte) Request {
	buf := append([]byte(nil), data...)
	ch := g.hub.mailbox(dest, g.rank, tag)
	done := make(chan struct{})
	go func() {
		ch <- buf
		close(done)
	}()
	return &simRequest{done: done}
}

func (g *simGroup) Irecv(src, tag int, buf []byte) Request {
	ch := g.hub.mailbox(g.rank, src, tag)
	done := make(chan struct{})
	go func() {
		data := <-ch
		copy(buf, data)
		close(done)
	}()
	return &simRequest{done: done}
}

func (g *simGroup) WaitAll(reqs []Request) {
	for _, r := range reqs {
		r.Wait()
	}
}

func (g *simGroup) AllReduceSum(data []float64) { g.hub.allReduceSum(g.rank, data) }
func (g *simGroup) Allgather(data []byte) [][]byte { return g.hub.allgather(g.rank, data) }

// coordsFromRank decodes a row-major (C-order) Cartesian rank into
// coordinates, matching the convention MPI_Cart_create uses by default.
func coordsFromRank(rank int, sizes []int) []int {
	coords := make([]int, len(sizes))
	r := rank
	for i := len(sizes) - 1; i >= 0; i-- {
		coords[i] = r % sizes[i]
		r /= sizes[i]
	}
	return coords
}

// rankFromCoords is the inverse of coordsFromRank.
func rankFromCoords(coords, sizes []int) int {
	rank := 0
	for i := 0; i < len(sizes); i++ {
		rank = rank*sizes[i] + coords[i]
	}
	return rank
}
