// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package histogram

import (
	"sync"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/dpedroso/gofd/procgroup"
)

func Test_singleprocess01(tst *testing.T) {
	chk.PrintTitle("singleprocess01")
	h := New()
	h.SetLower(0, 0)
	h.SetUpper(0, 8)
	h.SetBinmode(Count)
	h.Commit()
	h.AddSample1(0.5, 1)
	h.AddSample1(0.5, 1)
	h.Seal()
	total := 0.0
	for _, c := range h.Counts() {
		total += c
	}
	chk.Scalar(tst, "total weight", 1e-15, total, 2)
}

func Test_sealreduce01(tst *testing.T) {
	chk.PrintTitle("sealreduce01")
	groups := procgroup.Simulated(3)
	var wg sync.WaitGroup
	totals := make([]float64, 3)
	wg.Add(3)
	for r := 0; r < 3; r++ {
		go func(r int) {
			defer wg.Done()
			h := New()
			h.SetLower(0, 0)
			h.SetUpper(0, 1)
			h.SetDomainComm(groups[r])
			h.Commit()
			h.AddSample1(0.5, 1)
			h.Seal()
			sum := 0.0
			for _, c := range h.Counts() {
				sum += c
			}
			totals[r] = sum
		}(r)
	}
	wg.Wait()
	for r := 0; r < 3; r++ {
		chk.Scalar(tst, "reduced total", 1e-15, totals[r], 3)
	}
}
