// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package lattice implements the fixed-size per-voxel state that every
// CompLaB3D solver stage reads and writes: flow and species distribution
// functions, biomass densities, the mask, the distance-to-solid field and
// the delta buffers used by the kinetics operator and the CA spreader.
//
// Memory layout follows structure-of-arrays: one flat []float64 per
// distribution/field, indexed through Store.index. This keeps each sweep
// (§5 of SPEC_FULL.md) cache-friendly and trivially data-parallel, since
// every voxel update only ever touches its own slot of each array.
package lattice

import (
	"github.com/cpmech/gosl/chk"
)

// NQ19 and NQ7 are the number of discrete velocities of the flow (D3Q19)
// and species/biomass (D3Q7) stencils.
const (
	NQ19 = 19
	NQ7  = 7
)

// Store is the opaque handle to all per-voxel state (C1). A Store is
// allocated once, at startup, with fixed dimensions; see SPEC_FULL.md's
// "Lifecycles" note — only the owning solver stage mutates a given field,
// and the mask is mutated only by the geometry updater outside initial
// setup.
type Store struct {
	Nx, Ny, Nz int // domain shape
	NSpecies   int // number of dissolved species S
	NMicrobes  int // number of microbe populations M

	f []float64 // [N*NQ19] flow distributions

	g  [][]float64 // [NSpecies][N*NQ7] species distributions
	b  [][]float64 // [NMicrobes][N] biomass densities (macroscopic)
	bg [][]float64 // [NMicrobes][N*NQ7] planktonic biomass distributions; nil entry => sessile microbe, no distribution lattice
	dC [][]float64 // [NSpecies][N] kinetics delta buffer for species
	dB [][]float64 // [NMicrobes][N] kinetics delta buffer for biomass
	sh [][]float64 // [NMicrobes][N] CA push-then-pull shove buffer

	mask []Class   // [N] voxel class
	dist []float64 // [N] distance to nearest SOLID neighbour
	age  []float64 // [N] voxel age (iterations since last mask change)
}

// NewStore allocates a Store for a domain of shape (nx,ny,nz) with nSpecies
// dissolved species and nMicrobes microbe populations. All fields start
// zeroed and every voxel starts classified Pore.
func NewStore(nx, ny, nz, nSpecies, nMicrobes int) *Store {
	if nx <= 0 || ny <= 0 || nz <= 0 {
		chk.Panic("lattice: domain dimensions must be positive: (%d,%d,%d)", nx, ny, nz)
	}
	n := nx * ny * nz
	o := &Store{
		Nx: nx, Ny: ny, Nz: nz,
		NSpecies: nSpecies, NMicrobes: nMicrobes,
		f:    make([]float64, n*NQ19),
		g:    make([][]float64, nSpecies),
		b:    make([][]float64, nMicrobes),
		bg:   make([][]float64, nMicrobes),
		dC:   make([][]float64, nSpecies),
		dB:   make([][]float64, nMicrobes),
		sh:   make([][]float64, nMicrobes),
		mask: make([]Class, n),
		dist: make([]float64, n),
		age:  make([]float64, n),
	}
	for s := 0; s < nSpecies; s++ {
		o.g[s] = make([]float64, n*NQ7)
		o.dC[s] = make([]float64, n)
	}
	for m := 0; m < nMicrobes; m++ {
		o.b[m] = make([]float64, n)
		o.dB[m] = make([]float64, n)
		o.sh[m] = make([]float64, n)
	}
	for i := range o.mask {
		o.mask[i] = Pore
	}
	return o
}

// N returns the total number of voxels.
func (o *Store) N() int { return o.Nx * o.Ny * o.Nz }

// index maps a voxel coordinate to its flat index. Layout is x-outer,
// z-middle, y-inner, matching the geometry file's tag ordering
// ("for i in 0..Nx: for k in 0..Nz: for j in 0..Ny").
func (o *Store) index(i, j, k int) int {
	return (i*o.Nz+k)*o.Ny + j
}

// Index exposes the flat-index mapping for callers that iterate a raw
// field slice directly (e.g. an apply step walking a delta buffer).
func (o *Store) Index(i, j, k int) int { return o.index(i, j, k) }

// InBounds reports whether (i,j,k) is a valid voxel coordinate.
func (o *Store) InBounds(i, j, k int) bool {
	return i >= 0 && i < o.Nx && j >= 0 && j < o.Ny && k >= 0 && k < o.Nz
}

// GetF returns the 19-entry flow distribution at (i,j,k).
func (o *Store) GetF(i, j, k int) []float64 {
	n := o.index(i, j, k) * NQ19
	return o.f[n : n+NQ19]
}

// SetF overwrites the 19-entry flow distribution at (i,j,k).
func (o *Store) SetF(i, j, k int, f []float64) {
	copy(o.GetF(i, j, k), f)
}

// GetG returns the 7-entry distribution of species s at (i,j,k).
func (o *Store) GetG(s, i, j, k int) []float64 {
	n := o.index(i, j, k) * NQ7
	return o.g[s][n : n+NQ7]
}

// SetG overwrites the 7-entry distribution of species s at (i,j,k).
func (o *Store) SetG(s, i, j, k int, g []float64) {
	copy(o.GetG(s, i, j, k), g)
}

// GetB returns the density of microbe m at (i,j,k).
func (o *Store) GetB(m, i, j, k int) float64 { return o.b[m][o.index(i, j, k)] }

// SetB sets the density of microbe m at (i,j,k).
func (o *Store) SetB(m, i, j, k int, v float64) { o.b[m][o.index(i, j, k)] = v }

// BField returns the flat backing array for microbe m's density field
// (read-only use expected outside the owning stage).
func (o *Store) BField(m int) []float64 { return o.b[m] }

// GField returns the flat backing array for species s's distributions.
func (o *Store) GField(s int) []float64 { return o.g[s] }

// FField returns the flat backing array of the flow distribution
// (used by checkpoint encode/decode to dump/restore the whole lattice).
func (o *Store) FField() []float64 { return o.f }

// AllocPlanktonic allocates the D3Q7 distribution lattice backing
// planktonic microbe m's advected biomass (§4.3: "Planktonic biomass uses
// identical machinery [to species transport]"). Sessile microbes never
// call this; GetBG/SetBG on an unallocated microbe panics.
func (o *Store) AllocPlanktonic(m int) {
	if o.bg[m] == nil {
		o.bg[m] = make([]float64, o.N()*NQ7)
	}
}

// GetBG returns the 7-entry distribution of planktonic microbe m at (i,j,k).
func (o *Store) GetBG(m, i, j, k int) []float64 {
	if o.bg[m] == nil {
		chk.Panic("lattice: microbe %d has no planktonic distribution lattice allocated", m)
	}
	n := o.index(i, j, k) * NQ7
	return o.bg[m][n : n+NQ7]
}

// SetBG overwrites the 7-entry distribution of planktonic microbe m at (i,j,k).
func (o *Store) SetBG(m, i, j, k int, g []float64) {
	copy(o.GetBG(m, i, j, k), g)
}

// BGField returns the flat backing array of planktonic microbe m's
// distributions, or nil if m is sessile.
func (o *Store) BGField(m int) []float64 { return o.bg[m] }

// SyncBFromBG recomputes the macroscopic density field of planktonic
// microbe m as the zeroth moment of its D3Q7 distribution, keeping B_m
// consistent after a transport stream step.
func (o *Store) SyncBFromBG(m int) {
	if o.bg[m] == nil {
		return
	}
	n := o.N()
	for idx := 0; idx < n; idx++ {
		var c float64
		base := idx * NQ7
		for q := 0; q < NQ7; q++ {
			c += o.bg[m][base+q]
		}
		o.b[m][idx] = c
	}
}

// GetMask returns the class of (i,j,k).
func (o *Store) GetMask(i, j, k int) Class { return o.mask[o.index(i, j, k)] }

// SetMask installs the class of (i,j,k). Only the geometry/dynamics
// updater (C7) may call this outside initial setup.
func (o *Store) SetMask(i, j, k int, c Class) { o.mask[o.index(i, j, k)] = c }

// MaskField returns the flat backing array of voxel classes.
func (o *Store) MaskField() []Class { return o.mask }

// GetDist returns the distance-to-solid at (i,j,k).
func (o *Store) GetDist(i, j, k int) float64 { return o.dist[o.index(i, j, k)] }

// SetDist sets the distance-to-solid at (i,j,k).
func (o *Store) SetDist(i, j, k int, d float64) { o.dist[o.index(i, j, k)] = d }

// DistField returns the flat backing array of the distance field.
func (o *Store) DistField() []float64 { return o.dist }

// GetAge returns the age (iterations since last mask flip) of (i,j,k).
func (o *Store) GetAge(i, j, k int) float64 { return o.age[o.index(i, j, k)] }

// SetAge sets the age of (i,j,k).
func (o *Store) SetAge(i, j, k int, a float64) { o.age[o.index(i, j, k)] = a }

// GetDC returns the pending kinetics delta for species s at (i,j,k).
func (o *Store) GetDC(s, i, j, k int) float64 { return o.dC[s][o.index(i, j, k)] }

// AddDC accumulates a kinetics delta for species s at (i,j,k).
func (o *Store) AddDC(s, i, j, k int, v float64) { o.dC[s][o.index(i, j, k)] += v }

// DCField returns the flat backing array of species s's delta buffer.
func (o *Store) DCField(s int) []float64 { return o.dC[s] }

// GetDB returns the pending kinetics delta for microbe m at (i,j,k).
func (o *Store) GetDB(m, i, j, k int) float64 { return o.dB[m][o.index(i, j, k)] }

// AddDB accumulates a kinetics delta for microbe m at (i,j,k).
func (o *Store) AddDB(m, i, j, k int, v float64) { o.dB[m][o.index(i, j, k)] += v }

// DBField returns the flat backing array of microbe m's delta buffer.
func (o *Store) DBField(m int) []float64 { return o.dB[m] }

// ShoveField returns the flat backing array of microbe m's CA
// push-then-pull shove buffer (§4.6 and DESIGN NOTES in spec.md).
func (o *Store) ShoveField(m int) []float64 { return o.sh[m] }

// ZeroDeltas zeros every species and biomass delta buffer. Called by the
// kinetics apply step (§4.4) once every delta has been applied.
func (o *Store) ZeroDeltas() {
	for s := 0; s < o.NSpecies; s++ {
		zero(o.dC[s])
	}
	for m := 0; m < o.NMicrobes; m++ {
		zero(o.dB[m])
	}
}

// ZeroShoves zeros every microbe's CA shove buffer, called at the start of
// each redistribution pass (§4.6).
func (o *Store) ZeroShoves() {
	for m := 0; m < o.NMicrobes; m++ {
		zero(o.sh[m])
	}
}

func zero(a []float64) {
	for i := range a {
		a[i] = 0
	}
}

// ConcAt returns the macroscopic concentration of species s at (i,j,k):
// the zeroth moment (sum) of its D3Q7 distribution.
func (o *Store) ConcAt(s, i, j, k int) float64 {
	g := o.GetG(s, i, j, k)
	var c float64
	for q := 0; q < NQ7; q++ {
		c += g[q]
	}
	return c
}

// RhoU computes the macroscopic density and velocity at (i,j,k) from the
// D3Q19 flow distribution, using the velocity-set moments in the flow
// package's D3Q19 table (passed in to avoid an import cycle).
func (o *Store) RhoU(i, j, k int, cx, cy, cz [NQ19]float64) (rho float64, ux, uy, uz float64) {
	f := o.GetF(i, j, k)
	for q := 0; q < NQ19; q++ {
		rho += f[q]
		ux += f[q] * cx[q]
		uy += f[q] * cy[q]
		uz += f[q] * cz[q]
	}
	if rho > 1e-300 {
		ux /= rho
		uy /= rho
		uz /= rho
	}
	return
}

// Neighbour is a face-adjacent voxel coordinate together with a flag
// reporting whether it lies inside the domain (no wrap at domain faces,
// per §4.1).
type Neighbour struct {
	I, J, K int
	Valid   bool
}

// faceOffsets are the six face directions, in the fixed order
// -x,+x,-y,+y,-z,+z.
var faceOffsets = [6][3]int{
	{-1, 0, 0}, {1, 0, 0},
	{0, -1, 0}, {0, 1, 0},
	{0, 0, -1}, {0, 0, 1},
}

// NeighboursFace returns the six face-adjacent coordinates of (i,j,k),
// marking those that fall outside the domain as invalid (no periodic
// wrap at domain faces).
func (o *Store) NeighboursFace(i, j, k int) (nb [6]Neighbour) {
	for d, off := range faceOffsets {
		ii, jj, kk := i+off[0], j+off[1], k+off[2]
		nb[d] = Neighbour{ii, jj, kk, o.InBounds(ii, jj, kk)}
	}
	return
}

// ReduceMax returns the maximum value in a flat per-voxel field such as a
// DistField or a CA-computed total-biomass field (§4.1).
func ReduceMax(field []float64) float64 {
	if len(field) == 0 {
		return 0
	}
	m := field[0]
	for _, v := range field[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// ReduceSum returns the sum of a flat per-voxel field, used by CA mass
// conservation checks and kinetics mass-balance checks.
func ReduceSum(field []float64) float64 {
	var s float64
	for _, v := range field {
		s += v
	}
	return s
}

// TotalBiomass computes B_tot = Σ_m B_m into dst (len N), as used by the
// CA spreader (§4.6) and the geometry updater's promotion test (§3).
func (o *Store) TotalBiomass(dst []float64) {
	zero(dst)
	for m := 0; m < o.NMicrobes; m++ {
		bm := o.b[m]
		for i, v := range bm {
			dst[i] += v
		}
	}
}
