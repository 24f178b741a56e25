// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package errs implements the error-taxonomy policy of the decomposition
// core: silent no-op on configuration-ordering mistakes, logged no-op on
// operation-ordering mistakes, and a collective panic when a process group
// can no longer agree on shared state.
package errs

import (
	"log"

	"github.com/cpmech/gosl/utl"
)

// LogErrCond logs msg (formatted with prm) and returns true when cond is
// true, so callers can write:
//
//	if errs.LogErrCond(f.NMembers() != 1, "pspec: need a 1-component field, got %d", f.NMembers()) {
//		return
//	}
func LogErrCond(cond bool, msg string, prm ...interface{}) bool {
	if cond {
		log.Printf(msg, prm...)
	}
	return cond
}

// Group is the minimal process-group surface PanicOrNot needs in order to
// make every rank agree on whether to panic.
type Group interface {
	Rank() int
	Size() int
	IsOn() bool
	AllReduceSum(data []float64)
}

// PanicOrNot panics with msg (formatted with prm) if dopanic is true on
// this rank, or if any other rank in pg wants to panic. Every rank that
// enters this call leaves it either all panicking or all continuing,
// because the decision is all-reduced first. Use this for
// collective-consistency violations (DecompositionImpossible,
// PeerFailure) where partial collective state is unrecoverable.
func PanicOrNot(pg Group, dopanic bool, msg string, prm ...interface{}) {
	if pg == nil || !pg.IsOn() {
		if dopanic {
			utl.Pf("\n")
			panic(utl.Sf(msg, prm...))
		}
		return
	}
	n := pg.Size()
	want := make([]float64, n)
	if dopanic {
		want[pg.Rank()] = 1
	}
	pg.AllReduceSum(want)
	for _, w := range want {
		if w > 0 {
			panic(utl.Sf(msg, prm...))
		}
	}
}
