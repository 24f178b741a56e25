// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spectral

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/dpedroso/gofd/dfield"
	"github.com/dpedroso/gofd/domain"
	"github.com/dpedroso/gofd/histogram"
)

// Test_pspec01 is scenario D: FFT of a pure cosine. G_ntot=(8,1,1),
// f[x]=cos(2*pi*3*x/8). The forward spectrum should carry essentially all
// its energy at |k|=3, each side holding the single-sided amplitude
// squared 0.25 predicted by the 1/N normalization.
func Test_pspec01(tst *testing.T) {
	chk.PrintTitle("pspec01")
	d := domain.New(nil)
	d.SetNdim(1)
	d.SetSize(0, 8)
	f := dfield.New(d, "scalar")
	d.Commit()
	for x := 0; x < 8; x++ {
		f.GetData()[x] = math.Cos(2 * math.Pi * 3 * float64(x) / 8)
	}

	lat, _ := fwd(f, 0)
	for ix := 0; ix < 8; ix++ {
		v := lat.at(ix, 0, 0)
		p := real(v)*real(v) + imag(v)*imag(v)
		if ix == 3 || ix == 5 {
			chk.Scalar(tst, "power at +-3", 1e-9, p, 0.25)
		} else {
			chk.Scalar(tst, "power elsewhere", 1e-9, p, 0)
		}
	}

	h := histogram.New()
	FFTPspecScafield(f, h)
	total := 0.0
	width := h.Bins()[1] - h.Bins()[0]
	for _, c := range h.Counts() {
		total += c * width
	}
	chk.Scalar(tst, "total binned power", 1e-6, total, 0.5)
}

// gradientField fills a 3-component DField's interior with the gradient
// of phi(x,y,z) = cos(2*pi*x/N)*cos(2*pi*y/N), an irrotational field.
func gradientField(f *dfield.DField, n int) {
	data := f.GetData()
	for ix := 0; ix < n; ix++ {
		for iy := 0; iy < n; iy++ {
			for iz := 0; iz < n; iz++ {
				x := 2 * math.Pi * float64(ix) / float64(n)
				y := 2 * math.Pi * float64(iy) / float64(n)
				fx := -(2 * math.Pi / float64(n)) * math.Sin(x) * math.Cos(y)
				fy := -(2 * math.Pi / float64(n)) * math.Cos(x) * math.Sin(y)
				fz := 0.0
				base := (ix*n+iy)*n*3 + iz*3
				data[base+0] = fx
				data[base+1] = fy
				data[base+2] = fz
			}
		}
	}
}

// Test_helmholtz01 is scenario E: Helmholtz of a pure gradient. Because
// the field is exactly irrotational, PROJECT_OUT_DIV must leave (nearly)
// nothing, and PROJECT_OUT_CURL must reproduce the input.
func Test_helmholtz01(tst *testing.T) {
	chk.PrintTitle("helmholtz01")
	const n = 8

	dDiv := domain.New(nil)
	dDiv.SetNdim(3)
	dDiv.SetSize(0, n)
	dDiv.SetSize(1, n)
	dDiv.SetSize(2, n)
	fDiv := dfield.New(dDiv, "grad")
	fDiv.AddMember("x")
	fDiv.AddMember("y")
	fDiv.AddMember("z")
	dDiv.Commit()
	gradientField(fDiv, n)
	before := append([]float64(nil), fDiv.GetData()...)

	FFTHelmholtzDecomp(fDiv, ProjectOutDiv)
	norm := 0.0
	for _, v := range fDiv.GetData() {
		norm += v * v
	}
	chk.Scalar(tst, "divergence-free part near zero", 1e-6, math.Sqrt(norm), 0)

	dCurl := domain.New(nil)
	dCurl.SetNdim(3)
	dCurl.SetSize(0, n)
	dCurl.SetSize(1, n)
	dCurl.SetSize(2, n)
	fCurl := dfield.New(dCurl, "grad")
	fCurl.AddMember("x")
	fCurl.AddMember("y")
	fCurl.AddMember("z")
	dCurl.Commit()
	gradientField(fCurl, n)

	FFTHelmholtzDecomp(fCurl, ProjectOutCurl)
	chk.Vector(tst, "curl-free part equals input", 1e-6, fCurl.GetData(), before)
}

func Test_freqindex01(tst *testing.T) {
	chk.PrintTitle("freqindex01")
	chk.IntAssert(freqIndex(0, 8), 0)
	chk.IntAssert(freqIndex(3, 8), 3)
	chk.IntAssert(freqIndex(4, 8), -4)
	chk.IntAssert(freqIndex(5, 8), -3)
	chk.IntAssert(freqIndex(7, 8), -1)

	chk.IntAssert(freqIndex(0, 7), 0)
	chk.IntAssert(freqIndex(3, 7), 3)
	chk.IntAssert(freqIndex(4, 7), -3)
	chk.IntAssert(freqIndex(6, 7), -1)
}
