// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectral

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// lattice is a row-major complex128 cube of shape nx*ny*nz, axis 0
// slowest-varying, axis 2 fastest — the same convention domain.Domain and
// dfield.DField use for their [3]int extents.
type lattice struct {
	nx, ny, nz int
	data       []complex128
}

func newLattice(nx, ny, nz int) *lattice {
	return &lattice{nx: nx, ny: ny, nz: nz, data: make([]complex128, nx*ny*nz)}
}

func (l *lattice) at(ix, iy, iz int) complex128 {
	return l.data[(ix*l.ny+iy)*l.nz+iz]
}

func (l *lattice) set(ix, iy, iz int, v complex128) {
	l.data[(ix*l.ny+iy)*l.nz+iz] = v
}

// fft3Local performs the local, single-process 3-D complex DFT by the
// standard separable decomposition: a 1-D transform along z for every
// (x,y) line, then along y for every (x,z) line, then along x for every
// (y,z) line. forward selects analysis (Coefficients) or synthesis
// (Sequence).
func fft3Local(l *lattice, forward bool) {
	fz := fourier.NewCmplxFFT(l.nz)
	line := make([]complex128, l.nz)
	for ix := 0; ix < l.nx; ix++ {
		for iy := 0; iy < l.ny; iy++ {
			for iz := 0; iz < l.nz; iz++ {
				line[iz] = l.at(ix, iy, iz)
			}
			out := transform1D(fz, line, forward)
			for iz := 0; iz < l.nz; iz++ {
				l.set(ix, iy, iz, out[iz])
			}
		}
	}

	fy := fourier.NewCmplxFFT(l.ny)
	liney := make([]complex128, l.ny)
	for ix := 0; ix < l.nx; ix++ {
		for iz := 0; iz < l.nz; iz++ {
			for iy := 0; iy < l.ny; iy++ {
				liney[iy] = l.at(ix, iy, iz)
			}
			out := transform1D(fy, liney, forward)
			for iy := 0; iy < l.ny; iy++ {
				l.set(ix, iy, iz, out[iy])
			}
		}
	}

	fx := fourier.NewCmplxFFT(l.nx)
	linex := make([]complex128, l.nx)
	for iy := 0; iy < l.ny; iy++ {
		for iz := 0; iz < l.nz; iz++ {
			for ix := 0; ix < l.nx; ix++ {
				linex[ix] = l.at(ix, iy, iz)
			}
			out := transform1D(fx, linex, forward)
			for ix := 0; ix < l.nx; ix++ {
				l.set(ix, iy, iz, out[ix])
			}
		}
	}
}

func transform1D(f *fourier.CmplxFFT, line []complex128, forward bool) []complex128 {
	if forward {
		return f.Coefficients(nil, line)
	}
	return f.Sequence(nil, line)
}
