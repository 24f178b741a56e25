// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package domain implements the decomposition descriptor: dimensionality,
// global extents, guard width, process grid, neighbor ranks, periodic
// Cartesian topology, and per-process interior extents. A Domain is
// configured via its setters, then committed once; after commit it is
// shared immutably by every DField that references it.
package domain

import (
	"github.com/dpedroso/gofd/internal/errs"
	"github.com/dpedroso/gofd/procgroup"
)

// All selects every axis in GetNumLocalZonesInterior / GetNumGlobalZones.
const All = -1

// Field is the subset of dfield.DField behavior a Domain needs in order
// to auto-commit fields attached to it, per the commit-monotonicity
// invariant ("adding a DField to a committed Domain auto-commits the
// field"). dfield.DField satisfies this structurally; domain never
// imports dfield.
type Field interface {
	Commit()
}

// Domain is an opaque Cartesian decomposition descriptor. Callers
// configure it with the Set* methods, then call Commit once.
type Domain struct {
	pg procgroup.Group

	nDims int
	nGhst int

	gNtot [3]int
	gStrt [3]int
	lNint [3]int
	lNtot [3]int
	lStrt [3]int

	procSizes [3]int
	procIndex [3]int

	glbLower [3]float64
	glbUpper [3]float64
	locLower [3]float64
	locUpper [3]float64

	numNeighbors    int
	neighbors       []int
	neighborOffsets [][3]int
	sendTags        []int
	recvTags        []int

	committed bool
	balanced  bool

	// reserved names from the out-of-scope I/O subsystem (spec §6):
	// recorded but never acted on here.
	collectiveMode int
	chunkMode      int
	alignThresh    int
	alignBlock     int

	attached []Field
	iterPos  int
}

// New returns a Domain with defaults: n_dims=1, n_ghst=0, unit global
// extent and [0,1] physical bounds on every axis, uncommitted. pg is the
// process group to commit against; a nil pg commits as the single-process
// fallback (procgroup.Local{}).
func New(pg procgroup.Group) *Domain {
	d := &Domain{pg: pg, nDims: 1}
	for i := 0; i < 3; i++ {
		d.gNtot[i] = 1
		d.glbUpper[i] = 1
		d.lNint[i] = 1
		d.lNtot[i] = 1
	}
	return d
}

// Attach registers f so Commit auto-commits it, in registration order,
// once this Domain is committed (or immediately, if it already is).
func (d *Domain) Attach(f Field) {
	d.attached = append(d.attached, f)
	if d.committed {
		f.Commit()
	}
}

// SetSize sets the global interior extent along dim. No-op if committed
// or dim is out of [0,3).
func (d *Domain) SetSize(dim, size int) {
	if d.committed || dim < 0 || dim >= 3 {
		return
	}
	d.gNtot[dim] = size
}

// SetNdim sets the number of active dimensions. No-op if committed or n
// is outside [1,3].
func (d *Domain) SetNdim(n int) {
	if d.committed || n < 1 || n > 3 {
		return
	}
	d.nDims = n
}

// SetGuard sets the guard (ghost) width, the same in every dimension.
// No-op if committed or g is negative.
func (d *Domain) SetGuard(g int) {
	if d.committed || g < 0 {
		return
	}
	d.nGhst = g
}

// SetProcSizes pins the process-grid extent along dim; a value of 0
// leaves that axis free for the balanced-factoring step at Commit.
// No-op if committed or dim is out of [0,3).
func (d *Domain) SetProcSizes(dim, n int) {
	if d.committed || dim < 0 || dim >= 3 {
		return
	}
	d.procSizes[dim] = n
}

// SetBounds sets the physical lower/upper coordinates of the global
// domain along dim. No-op if committed or dim is out of [0,3).
func (d *Domain) SetBounds(dim int, lower, upper float64) {
	if d.committed || dim < 0 || dim >= 3 {
		return
	}
	d.glbLower[dim] = lower
	d.glbUpper[dim] = upper
}

// GetLocalBounds returns this rank's physical lower/upper coordinates
// along dim.
func (d *Domain) GetLocalBounds(dim int) (lower, upper float64) {
	return d.locLower[dim], d.locUpper[dim]
}

// SetCollective, SetChunk, SetAlign and ReadSize reserve the public
// surface of the out-of-scope parallel file I/O subsystem (spec §6).
// They record their arguments and do nothing else: the container format
// they would drive is an external collaborator, not part of this core.
func (d *Domain) SetCollective(mode int)             { d.collectiveMode = mode }
func (d *Domain) SetChunk(mode int)                  { d.chunkMode = mode }
func (d *Domain) SetAlign(alignThresh, block int)    { d.alignThresh, d.alignBlock = alignThresh, block }
func (d *Domain) ReadSize(fname, dname string) error { return nil }

// NDims returns the number of active dimensions.
func (d *Domain) NDims() int { return d.nDims }

// GetGuard returns the guard width.
func (d *Domain) GetGuard() int { return d.nGhst }

// GetSize returns the global interior extent along dim.
func (d *Domain) GetSize(dim int) int { return d.gNtot[dim] }

// IsCommitted reports whether Commit has run.
func (d *Domain) IsCommitted() bool { return d.committed }

// IsBalanced reports whether every rank has the identical interior
// extent on every axis.
func (d *Domain) IsBalanced() bool { return d.balanced }

// GetNumLocalZones returns prod(L_ntot): the total number of zones in
// this rank's subgrid, guard zones included.
func (d *Domain) GetNumLocalZones() int {
	return d.lNtot[0] * d.lNtot[1] * d.lNtot[2]
}

// GetNumLocalZonesInterior returns L_nint[dim], or prod(L_nint) if
// dim==All.
func (d *Domain) GetNumLocalZonesInterior(dim int) int {
	if dim == All {
		return d.lNint[0] * d.lNint[1] * d.lNint[2]
	}
	return d.lNint[dim]
}

// GetNumGlobalZones returns G_ntot[dim], or prod(G_ntot) if dim==All.
func (d *Domain) GetNumGlobalZones(dim int) int {
	if dim == All {
		return d.gNtot[0] * d.gNtot[1] * d.gNtot[2]
	}
	return d.gNtot[dim]
}

// GetGlobalStartIndex returns G_strt[dim]: this rank's interior offset
// into the global lattice along dim.
func (d *Domain) GetGlobalStartIndex(dim int) int { return d.gStrt[dim] }

// LNint, LNtot, LStrt expose the per-axis local extents dfield needs to
// build its buffer and subarray descriptors.
func (d *Domain) LNint(dim int) int { return d.lNint[dim] }
func (d *Domain) LNtot(dim int) int { return d.lNtot[dim] }
func (d *Domain) LStrt(dim int) int { return d.lStrt[dim] }

// ProcSizes and ProcIndex expose the process-grid shape and this rank's
// coordinates in it.
func (d *Domain) ProcSizes() [3]int { return d.procSizes }
func (d *Domain) ProcIndex() [3]int { return d.procIndex }

// NumNeighbors returns 3^n_dims - 1 when distributed, or 0 in the
// single-process fallback.
func (d *Domain) NumNeighbors() int { return d.numNeighbors }

// Neighbor returns the cartesian rank, send tag, recv tag and [3]int
// offset (unused axes zero) of the n-th neighbor.
func (d *Domain) Neighbor(n int) (rank, sendTag, recvTag int, offset [3]int) {
	return d.neighbors[n], d.sendTags[n], d.recvTags[n], d.neighborOffsets[n]
}

// Group returns the process group this Domain was committed against.
func (d *Domain) Group() procgroup.Group { return d.pg }

// IterateFields restarts the lazy finite sequence over attached fields.
func (d *Domain) IterateFields() { d.iterPos = 0 }

// NextField returns the next attached Field and true, or (nil, false)
// once exhausted. Restart with IterateFields.
func (d *Domain) NextField() (Field, bool) {
	if d.iterPos >= len(d.attached) {
		return nil, false
	}
	f := d.attached[d.iterPos]
	d.iterPos++
	return f, true
}

// Del releases this Domain's topology. Attached fields are not freed by
// Del; callers must Del each field first, matching the reverse-order
// destruction sequence (fields, then domain).
func (d *Domain) Del() {
	d.neighbors = nil
	d.neighborOffsets = nil
	d.sendTags = nil
	d.recvTags = nil
	d.numNeighbors = 0
	d.attached = nil
}

// Commit performs the decomposition algorithm and neighbor discovery. It
// is idempotent.
func (d *Domain) Commit() {
	if d.committed {
		return
	}
	if d.pg == nil {
		d.pg = procgroup.Local{}
	}
	if d.pg.IsOn() {
		d.commitDistributed()
	} else {
		d.commitSingleProcess()
	}
	d.committed = true
	for _, f := range d.attached {
		f.Commit()
	}
}

func (d *Domain) commitSingleProcess() {
	d.procSizes = [3]int{1, 1, 1}
	d.procIndex = [3]int{0, 0, 0}
	d.balanced = true
	for i := 0; i < d.nDims; i++ {
		d.lNint[i] = d.gNtot[i]
		d.gStrt[i] = 0
		d.lNtot[i] = d.gNtot[i] + 2*d.nGhst
		d.lStrt[i] = d.nGhst
		d.locLower[i] = d.glbLower[i]
		d.locUpper[i] = d.glbUpper[i]
	}
	// no process group is configured: no neighbors are built. sync_guard
	// falls back to a direct local periodic copy (see dfield.SyncGuard).
	d.numNeighbors = 0
	d.neighbors = nil
	d.neighborOffsets = nil
	d.sendTags = nil
	d.recvTags = nil
}

func (d *Domain) commitDistributed() {
	size := d.pg.Size()

	pinned := make([]int, d.nDims)
	for i := 0; i < d.nDims; i++ {
		pinned[i] = d.procSizes[i]
	}
	sizes, err := procgroup.DimsCreate(size, d.nDims, pinned)
	errs.PanicOrNot(d.pg, err != nil, "domain: cannot factor %d processes into %d dimensions: %v", size, d.nDims, err)

	cart, err := d.pg.NewCart(sizes)
	errs.PanicOrNot(d.pg, err != nil, "domain: cannot build cartesian topology: %v", err)

	d.procSizes = [3]int{1, 1, 1}
	d.procIndex = [3]int{0, 0, 0}
	copy(d.procSizes[:d.nDims], sizes)
	copy(d.procIndex[:d.nDims], cart.Coords())

	d.balanced = true
	for i := 0; i < d.nDims; i++ {
		R := d.gNtot[i] % d.procSizes[i]
		q := d.gNtot[i] / d.procSizes[i]
		if R != 0 {
			d.balanced = false
		}
		var lint int
		if d.procIndex[i] < R {
			lint = q + 1
		} else {
			lint = q
		}
		strt := 0
		for j := 0; j < d.procIndex[i]; j++ {
			if j < R {
				strt += q + 1
			} else {
				strt += q
			}
		}
		dx := (d.glbUpper[i] - d.glbLower[i]) / float64(d.gNtot[i])
		d.lNint[i] = lint
		d.gStrt[i] = strt
		d.locLower[i] = d.glbLower[i] + dx*float64(strt)
		d.locUpper[i] = d.glbLower[i] + dx*float64(strt+lint)
		d.lNtot[i] = lint + 2*d.nGhst
		d.lStrt[i] = d.nGhst
	}

	d.buildNeighbors(cart)
}

func (d *Domain) buildNeighbors(cart *procgroup.Cart) {
	offsets := enumerateOffsets(d.nDims)
	d.numNeighbors = len(offsets)
	d.neighbors = make([]int, d.numNeighbors)
	d.neighborOffsets = make([][3]int, d.numNeighbors)
	d.sendTags = make([]int, d.numNeighbors)
	d.recvTags = make([]int, d.numNeighbors)
	for n, off := range offsets {
		d.neighbors[n] = cart.RankOfOffset(off)

		var full [3]int
		copy(full[:], off)
		d.neighborOffsets[n] = full

		d.sendTags[n] = tagOf(off, d.nDims)
		neg := make([]int, d.nDims)
		for i, v := range off {
			neg[i] = -v
		}
		d.recvTags[n] = tagOf(neg, d.nDims)
	}
}

// tagOf implements tag_send(Δ) = Σ_i 10^(n_dims-1-i)·(Δ_i+5). The +5 bias
// keeps each component a distinct non-negative digit and makes send/recv
// tags match symmetrically across the link.
func tagOf(delta []int, nDims int) int {
	tag := 0
	p := 1
	for i := nDims - 1; i >= 0; i-- {
		tag += p * (delta[i] + 5)
		p *= 10
	}
	return tag
}

// enumerateOffsets lists every point of {-1,0,1}^nDims except the origin,
// with axis 0 varying slowest, matching neighbor index n to a fixed,
// deterministic ordering for 1/2/3 dimensions.
func enumerateOffsets(nDims int) [][]int {
	var out [][]int
	cur := make([]int, nDims)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == nDims {
			allZero := true
			for _, v := range cur {
				if v != 0 {
					allZero = false
					break
				}
			}
			if !allZero {
				cp := make([]int, nDims)
				copy(cp, cur)
				out = append(out, cp)
			}
			return
		}
		for v := -1; v <= 1; v++ {
			cur[axis] = v
			rec(axis + 1)
		}
	}
	rec(0)
	return out
}
