// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command gofd is a small demonstration driver: it builds a Domain and a
// DField, fills the field with a synthetic signal, runs a guard-zone sync
// and a scalar power spectrum, and prints the result.
package main

import (
	"flag"
	"math"

	"github.com/cpmech/gosl/utl"

	"github.com/dpedroso/gofd/dfield"
	"github.com/dpedroso/gofd/domain"
	"github.com/dpedroso/gofd/histogram"
	"github.com/dpedroso/gofd/procgroup"
	"github.com/dpedroso/gofd/spectral"
)

func main() {
	defer func() {
		if err := recover(); err != nil {
			utl.PfRed("ERROR: %v\n", err)
		}
	}()

	// message
	utl.PfWhite("\ngofd -- distributed N-dimensional array library\n\n")
	utl.Pf("Use of this source code is governed by a BSD-style\n")
	utl.Pf("license that can be found in the LICENSE file.\n\n")

	nx := flag.Int("nx", 32, "global lattice extent along x")
	ny := flag.Int("ny", 32, "global lattice extent along y")
	nz := flag.Int("nz", 32, "global lattice extent along z")
	guard := flag.Int("guard", 2, "guard (ghost) zone width")
	nprocs := flag.Int("nprocs", 1, "number of simulated process-group ranks (1 = single process)")
	mode := flag.Int("k0", 4, "wavenumber of the synthetic cosine signal")
	flag.Parse()

	if *nprocs <= 1 {
		runDemo(procgroup.Local{}, *nx, *ny, *nz, *guard, *mode)
		return
	}

	groups := procgroup.Simulated(*nprocs)
	done := make(chan bool, *nprocs)
	for r := 0; r < *nprocs; r++ {
		go func(pg procgroup.Group) {
			runDemo(pg, *nx, *ny, *nz, *guard, *mode)
			done <- true
		}(groups[r])
	}
	for r := 0; r < *nprocs; r++ {
		<-done
	}
}

func runDemo(pg procgroup.Group, nx, ny, nz, guard, k0 int) {
	dom := domain.New(pg)
	dom.SetNdim(3)
	dom.SetGuard(guard)
	dom.SetSize(0, nx)
	dom.SetSize(1, ny)
	dom.SetSize(2, nz)

	f := dfield.New(dom, "signal")
	dom.Commit()

	for ix := 0; ix < dom.LNint(0); ix++ {
		gx := dom.GetGlobalStartIndex(0) + ix
		v := math.Cos(2 * math.Pi * float64(k0) * float64(gx) / float64(nx))
		for iy := 0; iy < dom.LNint(1); iy++ {
			for iz := 0; iz < dom.LNint(2); iz++ {
				f.Replace([3]int{ix, iy, iz}, [3]int{ix + 1, iy + 1, iz + 1}, []float64{v})
			}
		}
	}
	f.SyncGuard()

	h := histogram.New()
	spectral.FFTPspecScafield(f, h)
	if pg.Rank() == 0 {
		utl.Pfblue2("bins: %v\n", h.Bins())
		utl.Pfblue2("counts: %v\n", h.Counts())
	}
}
