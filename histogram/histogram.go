// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package histogram implements a 1-D reducing accumulator: each rank of a
// process group bins weighted samples locally, and Seal all-reduces the
// per-rank bin-weight slices into a single, globally consistent result.
// It exists to support the spectral package's power-spectrum binning, the
// one place the library needs a histogram.
package histogram

import (
	"github.com/dpedroso/gofd/procgroup"
)

// Binmode selects how AddSample1's weight is folded into a bin.
type Binmode int

const (
	// Count sums each sample's weight into its bin as-is.
	Count Binmode = iota
	// Density divides each bin's accumulated weight by the bin width,
	// turning counts into a density estimate.
	Density
)

const numBins = 64

// Histogram is a 1-D reducing accumulator over [lower,upper), numBins
// equal-width bins, configured via the Set* methods and then Commit'd
// once.
type Histogram struct {
	lower   float64
	upper   float64
	binmode Binmode
	pg      procgroup.Group

	bins   []float64 // bin centers
	counts []float64 // accumulated weight per bin

	committed bool
	sealed    bool
}

// New returns an uncommitted Histogram with defaults lower=0, upper=1,
// binmode=Count, and the single-process fallback process group.
func New() *Histogram {
	return &Histogram{lower: 0, upper: 1, binmode: Count, pg: procgroup.Local{}}
}

// SetLower sets the lower edge of the binned range. axis is accepted for
// symmetry with a general N-D histogram but only axis 0 is meaningful
// here. No-op if committed.
func (h *Histogram) SetLower(axis int, v float64) {
	if h.committed || axis != 0 {
		return
	}
	h.lower = v
}

// SetUpper sets the upper edge of the binned range. See SetLower.
func (h *Histogram) SetUpper(axis int, v float64) {
	if h.committed || axis != 0 {
		return
	}
	h.upper = v
}

// SetBinmode selects Count or Density accumulation.
func (h *Histogram) SetBinmode(mode Binmode) {
	if h.committed {
		return
	}
	h.binmode = mode
}

// SetDomainComm sets the process group Seal reduces across. A nil pg
// leaves the single-process fallback in place.
func (h *Histogram) SetDomainComm(pg procgroup.Group) {
	if h.committed || pg == nil {
		return
	}
	h.pg = pg
}

// Commit allocates the bin arrays. Idempotent.
func (h *Histogram) Commit() {
	if h.committed {
		return
	}
	h.bins = make([]float64, numBins)
	h.counts = make([]float64, numBins)
	width := (h.upper - h.lower) / float64(numBins)
	for i := range h.bins {
		h.bins[i] = h.lower + width*(float64(i)+0.5)
	}
	h.committed = true
}

// AddSample1 bins one weighted sample x into this rank's local
// accumulator. Samples outside [lower,upper) are dropped.
func (h *Histogram) AddSample1(x, weight float64) {
	if x < h.lower || x >= h.upper {
		return
	}
	width := (h.upper - h.lower) / float64(numBins)
	i := int((x - h.lower) / width)
	if i < 0 {
		i = 0
	}
	if i >= numBins {
		i = numBins - 1
	}
	if h.binmode == Density {
		h.counts[i] += weight / width
	} else {
		h.counts[i] += weight
	}
}

// Seal all-reduces every rank's per-bin weight via the process group's
// AllReduceSum, leaving every rank with the identical, globally summed
// result. Idempotent.
func (h *Histogram) Seal() {
	if h.sealed {
		return
	}
	h.pg.AllReduceSum(h.counts)
	h.sealed = true
}

// Bins returns the bin-center coordinates.
func (h *Histogram) Bins() []float64 { return h.bins }

// Counts returns the (post-Seal, globally summed) per-bin accumulated
// weight.
func (h *Histogram) Counts() []float64 { return h.counts }
