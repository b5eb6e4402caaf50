// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"github.com/cpmech/complab3d/lattice"
)

// BCKind identifies a boundary condition type (§4.3, §6).
type BCKind int

const (
	Dirichlet BCKind = iota
	Neumann
)

// BC holds one boundary condition: a prescribed value (Dirichlet) or a
// prescribed flux (Neumann, zero-gradient when Value==0, per §4.3).
type BC struct {
	Kind  BCKind
	Value float64
}

// Params holds one advected scalar's relaxation and boundary data: a
// dissolved species' concentration, or a planktonic microbe's biomass
// density (§3, §4.3 "Planktonic biomass uses identical machinery").
type Params struct {
	DPore float64 // diffusivity in PORE voxels
	DBio  float64 // diffusivity in BIOFILM_k voxels (typically smaller)
	Left  BC      // boundary at i=0
	Right BC      // boundary at i=Nx-1
}

// tauFromD converts a diffusivity to a D3Q7 relaxation time using the
// LBM diffusion relation D = Cs2*(tau-0.5); omega takes its inverse.
func tauFromD(d float64) float64 { return d/Cs2 + 0.5 }

// Cs2 mirrors flow.Cs2 (1/3): D3Q7 uses the same lattice speed of sound.
const Cs2 = 1.0 / 3.0

// Solver advances one advected scalar's D3Q7 lattice (C3). One Solver
// instance exists per dissolved species and per planktonic microbe.
type Solver struct {
	P       Params
	fnew    []float64
	scratch [lattice.NQ7]float64
}

// NewSolver returns a transport solver for a store of size sto.N().
func NewSolver(p Params, sto *lattice.Store) *Solver {
	return &Solver{P: p, fnew: make([]float64, sto.N()*lattice.NQ7)}
}

func (o *Solver) omega(c lattice.Class) float64 {
	if c >= lattice.BiofilmBase {
		return 1.0 / tauFromD(o.P.DBio)
	}
	return 1.0 / tauFromD(o.P.DPore)
}

// accessors abstract over a species's g-lattice and a planktonic
// microbe's bg-lattice so Collide/Stream share one implementation.
type accessor struct {
	get func(i, j, k int) []float64
	set func(i, j, k int, v []float64)
}

func speciesAccessor(sto *lattice.Store, s int) accessor {
	return accessor{
		get: func(i, j, k int) []float64 { return sto.GetG(s, i, j, k) },
		set: func(i, j, k int, v []float64) { sto.SetG(s, i, j, k, v) },
	}
}

func planktonicAccessor(sto *lattice.Store, m int) accessor {
	return accessor{
		get: func(i, j, k int) []float64 { return sto.GetBG(m, i, j, k) },
		set: func(i, j, k int, v []float64) { sto.SetBG(m, i, j, k, v) },
	}
}

// CollideSpecies relaxes species s's distribution toward equilibrium,
// coupled to the flow velocity at every fluid voxel.
func (o *Solver) CollideSpecies(sto *lattice.Store, s int, vel VelocityField) {
	o.collide(sto, speciesAccessor(sto, s), vel)
}

// CollidePlanktonic relaxes planktonic microbe m's distribution.
func (o *Solver) CollidePlanktonic(sto *lattice.Store, m int, vel VelocityField) {
	o.collide(sto, planktonicAccessor(sto, m), vel)
}

// VelocityField exposes the flow solver's macroscopic velocity as a
// read-only view (§4.2 "Velocity field is exposed to C3 as a read-only
// view"), avoiding an import cycle between flow and transport.
type VelocityField interface {
	Velocity(sto *lattice.Store, i, j, k int) (ux, uy, uz float64)
}

func (o *Solver) collide(sto *lattice.Store, a accessor, vel VelocityField) {
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				c := sto.GetMask(i, j, k)
				if !c.IsFluid() {
					continue
				}
				g := a.get(i, j, k)
				var C float64
				for q := 0; q < lattice.NQ7; q++ {
					C += g[q]
				}
				ux, uy, uz := vel.Velocity(sto, i, j, k)
				Equilibrium(&o.scratch, C, ux, uy, uz)
				om := o.omega(c)
				for q := 0; q < lattice.NQ7; q++ {
					g[q] += om * (o.scratch[q] - g[q])
				}
			}
		}
	}
}

// StreamSpecies propagates species s's distribution and enforces its
// boundary conditions.
func (o *Solver) StreamSpecies(sto *lattice.Store, s int) {
	a := speciesAccessor(sto, s)
	o.stream(sto, a)
	o.applyBC(sto, a)
}

// StreamPlanktonic propagates planktonic microbe m's distribution and
// enforces its boundary conditions, then refreshes the macroscopic
// density field used by kinetics/CA/output.
func (o *Solver) StreamPlanktonic(sto *lattice.Store, m int) {
	a := planktonicAccessor(sto, m)
	o.stream(sto, a)
	o.applyBC(sto, a)
	sto.SyncBFromBG(m)
}

func (o *Solver) stream(sto *lattice.Store, a accessor) {
	for i := range o.fnew {
		o.fnew[i] = 0
	}
	put := func(i, j, k, q int, v float64) {
		n := ((i*sto.Nz+k)*sto.Ny+j)*lattice.NQ7 + q
		o.fnew[n] += v
	}
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				g := a.get(i, j, k)
				for q := 0; q < lattice.NQ7; q++ {
					ii, jj, kk := i+int(Cx[q]), j+int(Cy[q]), k+int(Cz[q])
					if sto.InBounds(ii, jj, kk) && sto.GetMask(ii, jj, kk).IsFluid() {
						put(ii, jj, kk, q, g[q])
					} else {
						// bounce-back at BOUNCE_BACK/SOLID voxels and at every
						// domain face: the y/z faces act as no-flux walls, and
						// the x-face planes are then adjusted by applyBC below.
						put(i, j, k, Opp[q], g[q])
					}
				}
			}
		}
	}
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				n := ((i*sto.Nz + k) * sto.Ny + j) * lattice.NQ7
				a.set(i, j, k, o.fnew[n:n+lattice.NQ7])
			}
		}
	}
}

// applyBC enforces the Dirichlet/Neumann boundary at i=0 and i=Nx-1
// (§4.3): Dirichlet resets the macroscopic concentration to C_bc by
// rescaling the local distribution; Neumann zero-gradient copies the
// adjacent interior plane's distribution onto the boundary plane (the
// discrete analogue of anti-bounce-back zero-flux).
func (o *Solver) applyBC(sto *lattice.Store, a accessor) {
	o.applyOne(sto, a, 0, 1, o.P.Left)
	o.applyOne(sto, a, sto.Nx-1, -1, o.P.Right)
}

func (o *Solver) applyOne(sto *lattice.Store, a accessor, plane, dir int, bc BC) {
	ni := plane + dir
	for k := 0; k < sto.Nz; k++ {
		for j := 0; j < sto.Ny; j++ {
			if !sto.GetMask(plane, j, k).IsFluid() {
				continue
			}
			switch bc.Kind {
			case Dirichlet:
				g := a.get(plane, j, k)
				var C float64
				for q := 0; q < lattice.NQ7; q++ {
					C += g[q]
				}
				if C <= 1e-300 {
					for q := 0; q < lattice.NQ7; q++ {
						g[q] = W[q] * bc.Value
					}
					continue
				}
				scale := bc.Value / C
				for q := 0; q < lattice.NQ7; q++ {
					g[q] *= scale
				}
			case Neumann:
				if !sto.InBounds(ni, 0, 0) || !sto.GetMask(ni, j, k).IsFluid() {
					continue
				}
				gi := a.get(ni, j, k)
				g := a.get(plane, j, k)
				copy(g, gi)
				if bc.Value != 0 {
					// prescribed (non-zero) flux: bias the distribution along
					// the boundary-normal direction so that the recovered
					// zero-th moment gradient matches the prescribed flux.
					flux := bc.Value
					for q := 0; q < lattice.NQ7; q++ {
						if int(Cx[q]) == -dir {
							g[q] += flux
						}
					}
				}
			}
		}
	}
}
