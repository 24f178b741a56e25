// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package procgroup

import (
	"sync"
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_dimscreate01(tst *testing.T) {
	chk.PrintTitle("dimscreate01")
	sizes, err := DimsCreate(4, 3, []int{0, 0, 1})
	if err != nil {
		tst.Fatalf("DimsCreate failed: %v", err)
	}
	chk.Ints(tst, "sizes", sizes, []int{2, 2, 1})
}

func Test_dimscreate02(tst *testing.T) {
	chk.PrintTitle("dimscreate02")
	sizes, err := DimsCreate(8, 3, []int{0, 0, 0})
	if err != nil {
		tst.Fatalf("DimsCreate failed: %v", err)
	}
	product := 1
	for _, s := range sizes {
		product *= s
	}
	chk.IntAssert(product, 8)
}

func Test_cartwrap01(tst *testing.T) {
	chk.PrintTitle("cartwrap01")
	groups := Simulated(4)
	sizes := []int{2, 2, 1}
	cart, err := groups[0].NewCart(sizes)
	if err != nil {
		tst.Fatalf("NewCart failed: %v", err)
	}
	chk.Ints(tst, "coords of rank 0", cart.Coords(), []int{0, 0, 0})

	cart3, _ := groups[3].NewCart(sizes)
	chk.Ints(tst, "coords of rank 3", cart3.Coords(), []int{1, 1, 0})

	// periodic wrap: rank 0 offset by (-1, 0, 0) wraps to proc_index (1,0,0)
	r := cart.RankOfOffset([]int{-1, 0, 0})
	chk.IntAssert(r, rankFromCoords([]int{1, 0, 0}, sizes))
}

func Test_sendrecv01(tst *testing.T) {
	chk.PrintTitle("sendrecv01")
	groups := Simulated(2)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		buf := make([]byte, 4)
		req := groups[0].Irecv(1, 7, buf)
		req.Wait()
		chk.Ints(tst, "rank0 recv", toInts(buf), []int{9, 9, 9, 9})
	}()
	go func() {
		defer wg.Done()
		req := groups[1].Isend(0, 7, []byte{9, 9, 9, 9})
		req.Wait()
	}()
	wg.Wait()
}

func toInts(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

func Test_allreducesum01(tst *testing.T) {
	chk.PrintTitle("allreducesum01")
	groups := Simulated(3)
	var wg sync.WaitGroup
	results := make([][]float64, 3)
	wg.Add(3)
	for r := 0; r < 3; r++ {
		go func(r int) {
			defer wg.Done()
			data := []float64{float64(r + 1)}
			groups[r].AllReduceSum(data)
			results[r] = data
		}(r)
	}
	wg.Wait()
	for r := 0; r < 3; r++ {
		chk.Scalar(tst, "sum", 1e-15, results[r][0], 6)
	}
}

func Test_allgather01(tst *testing.T) {
	chk.PrintTitle("allgather01")
	groups := Simulated(2)
	var wg sync.WaitGroup
	results := make([][][]byte, 2)
	wg.Add(2)
	for r := 0; r < 2; r++ {
		go func(r int) {
			defer wg.Done()
			results[r] = groups[r].Allgather([]byte{byte(r)})
		}(r)
	}
	wg.Wait()
	chk.IntAssert(int(results[0][0][0]), 0)
	chk.IntAssert(int(results[0][1][0]), 1)
	chk.IntAssert(int(results[1][1][0]), 1)
}
