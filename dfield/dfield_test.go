// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dfield

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/dpedroso/gofd/domain"
)

func newScenarioB(tst *testing.T) (*domain.Domain, *DField) {
	d := domain.New(nil)
	d.SetNdim(1)
	d.SetGuard(2)
	d.SetSize(0, 8)
	f := New(d, "velocity")
	f.AddMember("x")
	f.AddMember("2x")
	d.Commit()
	for x := 0; x < 8; x++ {
		f.data[f.index(x, 0, 0, 0)] = float64(x)
		f.data[f.index(x, 0, 0, 1)] = float64(2 * x)
	}
	return d, f
}

// Test_extractreplace01 is scenario B: extract/replace round trip.
func Test_extractreplace01(tst *testing.T) {
	chk.PrintTitle("extractreplace01")
	_, f := newScenarioB(tst)

	before := append([]float64(nil), f.data...)

	out := make([]float64, (6-2)*f.nMember)
	f.Extract([3]int{2, 0, 0}, [3]int{6, 1, 1}, out)
	f.Replace([3]int{2, 0, 0}, [3]int{6, 1, 1}, out)

	chk.Vector(tst, "buffer unchanged", 1e-15, f.data, before)
}

// Test_syncguard01 is scenario C: single-process periodic guard sync.
func Test_syncguard01(tst *testing.T) {
	chk.PrintTitle("syncguard01")
	_, f := newScenarioB(tst)
	f.SyncGuard()

	chk.Scalar(tst, "left guard[0]", 1e-15, f.data[f.rawIndex(0, 0, 0)], 6)
	chk.Scalar(tst, "left guard[1]", 1e-15, f.data[f.rawIndex(1, 0, 0)], 7)
	chk.Scalar(tst, "right guard[0]", 1e-15, f.data[f.rawIndex(10, 0, 0)], 0)
	chk.Scalar(tst, "right guard[1]", 1e-15, f.data[f.rawIndex(11, 0, 0)], 1)
}

// Test_extractreplace02 checks Extract/Replace preserve interleaving for a
// non-trivial sub-box.
func Test_extractreplace02(tst *testing.T) {
	chk.PrintTitle("extractreplace02")
	_, f := newScenarioB(tst)

	out := make([]float64, 4*f.nMember)
	f.Extract([3]int{2, 0, 0}, [3]int{6, 1, 1}, out)
	chk.Vector(tst, "extracted", 1e-15, out, []float64{2, 4, 3, 6, 4, 8, 5, 10})
}
