// Copyright 2015 Dorival Pedroso & Raul Durand. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dfield implements the distributed field: a named,
// multi-component cell-centered array living on a domain.Domain. A DField
// owns a contiguous row-major buffer, stride metadata, and the per-
// neighbor subarray descriptors used by the guard-zone exchange protocol.
package dfield

import (
	"encoding/binary"
	"math"

	"github.com/dpedroso/gofd/domain"
	"github.com/dpedroso/gofd/internal/errs"
	"github.com/dpedroso/gofd/procgroup"
)

// floatsToBytes and bytesToFloats pack/unpack a typed subarray into the
// contiguous byte staging buffers the process-group transport moves,
// since it carries untyped payloads rather than subarray descriptors.
func floatsToBytes(in []float64) []byte {
	out := make([]byte, len(in)*8)
	for i, v := range in {
		binary.LittleEndian.PutUint64(out[i*8:], math.Float64bits(v))
	}
	return out
}

func bytesToFloats(in []byte) []float64 {
	out := make([]float64, len(in)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(in[i*8:]))
	}
	return out
}

// descriptor captures one neighbor's send/recv slab within the local
// L_ntot buffer: a box [start, start+extent) on every axis, plus the
// cartesian rank and tags to use.
type descriptor struct {
	rank        int
	sendTag     int
	recvTag     int
	sendStart   [3]int
	recvStart   [3]int
	extent      [3]int
}

// DField is a named multi-component field on a domain.Domain.
type DField struct {
	dom  *domain.Domain
	name string

	members []string

	data    []float64
	stride  [3]int // linear strides (in float64s) along x,y,z within L_ntot
	nMember int

	descriptors []descriptor

	committed bool
	iterPos   int
}

var _ domain.Field = (*DField)(nil)

// New creates a DField attached to dom, with no members. dom commits the
// field when dom itself is committed, or immediately (inside New) if dom
// is already committed.
func New(dom *domain.Domain, name string) *DField {
	f := &DField{dom: dom, name: name}
	dom.Attach(f)
	return f
}

// AddMember appends a named component. No-op if committed.
func (f *DField) AddMember(name string) {
	if f.committed {
		return
	}
	f.members = append(f.members, name)
}

// SetName renames the field. No-op if committed.
func (f *DField) SetName(name string) {
	if f.committed {
		return
	}
	f.name = name
}

// GetName returns the field's name.
func (f *DField) GetName() string { return f.name }

// IsCommitted reports whether Commit has run.
func (f *DField) IsCommitted() bool { return f.committed }

// Domain returns the Domain this field is attached to.
func (f *DField) Domain() *domain.Domain { return f.dom }

// Commit allocates the buffer and builds the per-neighbor subarray
// descriptors. Idempotent.
func (f *DField) Commit() {
	if f.committed {
		return
	}
	errs.LogErrCond(!f.dom.IsCommitted(), "dfield: Commit called on %q before its domain was committed", f.name)
	f.nMember = len(f.members)
	if f.nMember == 0 {
		f.nMember = 1 // a field always has at least one (anonymous) component
	}
	lntot := [3]int{f.dom.LNtot(0), f.dom.LNtot(1), f.dom.LNtot(2)}
	f.data = make([]float64, lntot[0]*lntot[1]*lntot[2]*f.nMember)

	// row-major (C order): z fastest... here axis 2 is innermost, matching
	// the domain's [3]int axis convention (0=x,1=y,2=z).
	f.stride[2] = f.nMember
	f.stride[1] = f.stride[2] * lntot[2]
	f.stride[0] = f.stride[1] * lntot[1]

	f.buildDescriptors(lntot)
	f.committed = true
}

func (f *DField) buildDescriptors(lntot [3]int) {
	nGhst := f.dom.GetGuard()
	n := f.dom.NumNeighbors()
	f.descriptors = make([]descriptor, n)
	for i := 0; i < n; i++ {
		rank, sendTag, recvTag, off := f.dom.Neighbor(i)
		d := descriptor{rank: rank, sendTag: sendTag, recvTag: recvTag}
		for axis := 0; axis < 3; axis++ {
			lnint := f.dom.LNint(axis)
			lstrt := f.dom.LStrt(axis)
			switch off[axis] {
			case -1:
				d.sendStart[axis] = lstrt
				d.recvStart[axis] = 0
				d.extent[axis] = nGhst
			case 1:
				d.sendStart[axis] = lstrt + lnint - nGhst
				d.recvStart[axis] = lstrt + lnint
				d.extent[axis] = nGhst
			default:
				d.sendStart[axis] = lstrt
				d.recvStart[axis] = lstrt
				d.extent[axis] = lnint
			}
		}
		f.descriptors[i] = d
	}
}

// GetData returns the raw interleaved buffer, size prod(L_ntot)*n_members.
func (f *DField) GetData() []float64 { return f.data }

// GetStride returns the linear stride (in float64s) along dim within the
// local buffer.
func (f *DField) GetStride(dim int) int { return f.stride[dim] }

// NMembers returns the number of components.
func (f *DField) NMembers() int { return f.nMember }

// IterateMembers restarts the lazy finite sequence over member names.
func (f *DField) IterateMembers() { f.iterPos = 0 }

// NextMember returns the next member name and true, or ("", false) once
// exhausted. Restart with IterateMembers.
func (f *DField) NextMember() (string, bool) {
	if f.iterPos >= len(f.members) {
		return "", false
	}
	name := f.members[f.iterPos]
	f.iterPos++
	return name, true
}

// index returns the linear offset of interior-relative zone (ix,iy,iz),
// component c. Inactive axes carry L_strt=0, so only active axes shift by
// the guard width.
func (f *DField) index(ix, iy, iz, c int) int {
	x := ix + f.dom.LStrt(0)
	y := iy + f.dom.LStrt(1)
	z := iz + f.dom.LStrt(2)
	return x*f.stride[0] + y*f.stride[1] + z*f.stride[2] + c
}

// Extract copies the half-open interior-relative sub-box [I0,I1) into out,
// a caller-provided buffer of size prod(I1-I0)*n_members, preserving
// component interleaving.
func (f *DField) Extract(I0, I1 [3]int, out []float64) {
	p := 0
	for ix := I0[0]; ix < I1[0]; ix++ {
		for iy := I0[1]; iy < I1[1]; iy++ {
			for iz := I0[2]; iz < I1[2]; iz++ {
				base := f.index(ix, iy, iz, 0)
				copy(out[p:p+f.nMember], f.data[base:base+f.nMember])
				p += f.nMember
			}
		}
	}
}

// Replace is the inverse of Extract.
func (f *DField) Replace(I0, I1 [3]int, in []float64) {
	p := 0
	for ix := I0[0]; ix < I1[0]; ix++ {
		for iy := I0[1]; iy < I1[1]; iy++ {
			for iz := I0[2]; iz < I1[2]; iz++ {
				base := f.index(ix, iy, iz, 0)
				copy(f.data[base:base+f.nMember], in[p:p+f.nMember])
				p += f.nMember
			}
		}
	}
}

// Strides returns the per-axis linear strides passed to transform kernels.
type Strides = [3]int

// KernelOp is a pointwise kernel invoked once per interior zone: result_ptr
// addresses the first component of the result zone, args addresses the
// first component of each input zone, in the same order as args passed to
// Transform.
type KernelOp func(resultPtr []float64, args [][]float64, strides Strides, dom *domain.Domain)

// Transform applies op over every interior zone in row-major order,
// reading from the argument fields and writing into this field. No
// automatic guard sync is performed.
func (f *DField) Transform(args []*DField, op KernelOp) {
	nx, ny, nz := f.dom.LNint(0), f.dom.LNint(1), f.dom.LNint(2)
	argPtrs := make([][]float64, len(args))
	for ix := 0; ix < nx; ix++ {
		for iy := 0; iy < ny; iy++ {
			for iz := 0; iz < nz; iz++ {
				rbase := f.index(ix, iy, iz, 0)
				for k, a := range args {
					abase := a.index(ix, iy, iz, 0)
					argPtrs[k] = a.data[abase : abase+a.nMember]
				}
				op(f.data[rbase:rbase+f.nMember], argPtrs, f.stride, f.dom)
			}
		}
	}
}

// SyncGuard exchanges guard slabs with every neighbor so that each local
// subgrid sees a consistent view of its neighborhood, honoring periodic
// wrap-around. With no neighbors configured (single-process fallback) it
// instead performs a direct local periodic copy.
func (f *DField) SyncGuard() {
	if f.dom.NumNeighbors() == 0 {
		f.syncGuardLocal()
		return
	}
	pg := f.dom.Group()
	n := len(f.descriptors)

	recvReqs := make([]procgroup.Request, n)
	recvRaw := make([][]byte, n)
	for i, d := range f.descriptors {
		count := d.extent[0] * d.extent[1] * d.extent[2] * f.nMember
		recvRaw[i] = make([]byte, count*8)
		recvReqs[i] = pg.Irecv(d.rank, d.recvTag, recvRaw[i])
	}

	sendReqs := make([]procgroup.Request, n)
	for i, d := range f.descriptors {
		staged := f.packSend(d)
		sendReqs[i] = pg.Isend(d.rank, d.sendTag, floatsToBytes(staged))
	}

	all := append(append([]procgroup.Request{}, recvReqs...), sendReqs...)
	pg.WaitAll(all)

	for i, d := range f.descriptors {
		f.unpackRecv(d, bytesToFloats(recvRaw[i]))
	}
}

// packSend copies the send slab of descriptor d out of the local buffer
// into a contiguous staging buffer.
func (f *DField) packSend(d descriptor) []float64 {
	out := make([]float64, d.extent[0]*d.extent[1]*d.extent[2]*f.nMember)
	p := 0
	for dx := 0; dx < d.extent[0]; dx++ {
		for dy := 0; dy < d.extent[1]; dy++ {
			for dz := 0; dz < d.extent[2]; dz++ {
				x, y, z := d.sendStart[0]+dx, d.sendStart[1]+dy, d.sendStart[2]+dz
				base := f.rawIndex(x, y, z)
				copy(out[p:p+f.nMember], f.data[base:base+f.nMember])
				p += f.nMember
			}
		}
	}
	return out
}

// unpackRecv copies a received staging buffer into the recv slab of
// descriptor d within the local buffer.
func (f *DField) unpackRecv(d descriptor, in []float64) {
	p := 0
	for dx := 0; dx < d.extent[0]; dx++ {
		for dy := 0; dy < d.extent[1]; dy++ {
			for dz := 0; dz < d.extent[2]; dz++ {
				x, y, z := d.recvStart[0]+dx, d.recvStart[1]+dy, d.recvStart[2]+dz
				base := f.rawIndex(x, y, z)
				copy(f.data[base:base+f.nMember], in[p:p+f.nMember])
				p += f.nMember
			}
		}
	}
}

// rawIndex returns the linear offset of the L_ntot-relative zone (x,y,z),
// component 0 — unlike index, x/y/z are not shifted by the guard width.
func (f *DField) rawIndex(x, y, z int) int {
	return x*f.stride[0] + y*f.stride[1] + z*f.stride[2]
}

// syncGuardLocal implements the single-process periodic fallback: each
// guard slab is filled directly from the wrapped interior, without posting
// any message.
func (f *DField) syncGuardLocal() {
	g := f.dom.GetGuard()
	if g == 0 {
		return
	}
	lnint := [3]int{f.dom.LNint(0), f.dom.LNint(1), f.dom.LNint(2)}
	for axis := 0; axis < 3; axis++ {
		if f.dom.NDims() <= axis {
			continue
		}
		n := lnint[axis]
		for s := 0; s < g; s++ {
			// low guard <- wrapped high interior
			f.copyPlane(axis, s, n+s)
			// high guard <- wrapped low interior
			f.copyPlane(axis, n+g+s, g+s)
		}
	}
}

// copyPlane copies every zone on the srcPos-th slab of axis into the
// dstPos-th slab, in raw (L_ntot-relative) coordinates.
func (f *DField) copyPlane(axis, dstPos, srcPos int) {
	lntot := [3]int{f.dom.LNtot(0), f.dom.LNtot(1), f.dom.LNtot(2)}
	coords := [3]int{}
	var rec func(a int)
	rec = func(a int) {
		if a == 3 {
			dst := coords
			src := coords
			dst[axis] = dstPos
			src[axis] = srcPos
			dbase := f.rawIndex(dst[0], dst[1], dst[2])
			sbase := f.rawIndex(src[0], src[1], src[2])
			copy(f.data[dbase:dbase+f.nMember], f.data[sbase:sbase+f.nMember])
			return
		}
		if a == axis {
			coords[a] = 0
			rec(a + 1)
			return
		}
		for v := 0; v < lntot[a]; v++ {
			coords[a] = v
			rec(a + 1)
		}
	}
	rec(0)
}

// Write and Read reserve the public surface of the out-of-scope parallel
// file I/O subsystem (spec §6). They record nothing and do nothing: the container format they would drive is
// an external collaborator, not part of this core.
func (f *DField) Write(fname, dname string) error { return nil }
func (f *DField) Read(fname, dname string) error  { return nil }

// Del frees this field's buffer and subarray descriptors.
func (f *DField) Del() {
	f.data = nil
	f.descriptors = nil
}
