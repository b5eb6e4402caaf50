// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flow

import (
	"math"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/utl"
)

// Params holds the numeric constants of the flow solver (§4.2, §6 LB
// numerics section of SPEC_FULL.md).
type Params struct {
	TauPore  float64   // τ_NS in PORE voxels
	TauBio   []float64 // [NMicrobes] effective τ_NS^bio in BIOFILM_k voxels (larger viscosity)
	RhoRef   float64   // reference density (≈1 in lattice units)
	DeltaP   float64   // Δp across the domain, in lattice pressure units (turned into a density difference via p=cs2·rho)
	WinSize  int        // sliding window length for the energy convergence test
	Tol      float64    // convergence tolerance on the relative change of the domain-averaged kinetic energy
	MaxIter  int        // iteration cap for a convergence run; Run takes its cap as an argument and does not read this field
}

// DefaultParams returns sane defaults matching the magnitudes used in
// SPEC_FULL.md's end-to-end scenarios.
func DefaultParams(nMicrobes int) Params {
	taubio := make([]float64, nMicrobes)
	for i := range taubio {
		taubio[i] = 1.0 // caller sets per-microbe viscosity_ratio via SetViscosityRatio
	}
	return Params{
		TauPore: 1.0,
		TauBio:  taubio,
		RhoRef:  1.0,
		WinSize: 20,
		Tol:     1e-8,
		MaxIter: 20000,
	}
}

// SetViscosityRatio sets τ_NS^bio for microbe m so that the biofilm
// kinematic viscosity cs2·(τ-0.5) is ratio times the pore viscosity
// (spec: "typical 10x", §4.2).
func (p *Params) SetViscosityRatio(m int, ratio float64) {
	p.TauBio[m] = 0.5 + ratio*(p.TauPore-0.5)
}

// Solver advances the D3Q19 flow lattice (C2).
type Solver struct {
	P      Params
	scratch [lattice.NQ19]float64
	fnew    []float64 // [N*NQ19] double buffer for streaming
	window  []float64 // sliding window of average kinetic energy
}

// NewSolver returns a solver for a store of size sto.N().
func NewSolver(p Params, sto *lattice.Store) *Solver {
	return &Solver{
		P:    p,
		fnew: make([]float64, sto.N()*lattice.NQ19),
	}
}

// omega returns the relaxation frequency 1/τ installed for class c.
func (o *Solver) omega(c lattice.Class) float64 {
	if m, ok := c.IsBiofilm(); ok {
		return 1.0 / o.P.TauBio[m]
	}
	return 1.0 / o.P.TauPore
}

// Collide relaxes f_q toward equilibrium in every PORE/BIOFILM voxel
// (§4.2). BOUNCE_BACK and SOLID voxels are left untouched; their role is
// handled entirely in Stream.
func (o *Solver) Collide(sto *lattice.Store) {
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				c := sto.GetMask(i, j, k)
				if !c.IsFluid() {
					continue
				}
				rho, ux, uy, uz := sto.RhoU(i, j, k, Cx, Cy, Cz)
				Equilibrium(&o.scratch, rho, ux, uy, uz)
				om := o.omega(c)
				f := sto.GetF(i, j, k)
				for q := 0; q < lattice.NQ19; q++ {
					f[q] += om * (o.scratch[q] - f[q])
				}
			}
		}
	}
}

// Stream propagates post-collision populations along the 19 lattice
// vectors, reflecting (full bounce-back) at BOUNCE_BACK voxels and at
// domain faces that are not pressure boundaries (§4.2).
func (o *Solver) Stream(sto *lattice.Store) {
	for i := range o.fnew {
		o.fnew[i] = 0
	}
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				c := sto.GetMask(i, j, k)
				if !c.IsFluid() {
					continue
				}
				f := sto.GetF(i, j, k)
				for q := 0; q < lattice.NQ19; q++ {
					ii, jj, kk := i+int(Cx[q]), j+int(Cy[q]), k+int(Cz[q])
					if sto.InBounds(ii, jj, kk) && sto.GetMask(ii, jj, kk) != lattice.Solid && sto.GetMask(ii, jj, kk) != lattice.BounceBack {
						o.putFnew(sto, ii, jj, kk, q, f[q])
					} else {
						// bounce-back: population reflects into the opposite
						// channel of the SAME voxel it came from.
						o.putFnew(sto, i, j, k, Opp[q], f[q])
					}
				}
			}
		}
	}
	o.swap(sto)
}

func (o *Solver) putFnew(sto *lattice.Store, i, j, k, q int, v float64) {
	n := ((i*sto.Nz+k)*sto.Ny + j) * lattice.NQ19
	o.fnew[n+q] += v
}

func (o *Solver) swap(sto *lattice.Store) {
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				n := ((i*sto.Nz+k)*sto.Ny + j) * lattice.NQ19
				sto.SetF(i, j, k, o.fnew[n:n+lattice.NQ19])
			}
		}
	}
}

// ApplyPressureBC enforces Dirichlet pressure at the inlet (i=0, high) and
// outlet (i=Nx-1, low) planes using the non-equilibrium extrapolation
// method (Guo, Zheng & Shi 2002): the wall population equals its local
// equilibrium at the prescribed density plus the non-equilibrium part
// carried over from the adjacent interior plane. Call after Stream.
func (o *Solver) ApplyPressureBC(sto *lattice.Store) {
	rhoIn := o.P.RhoRef + 0.5*o.P.DeltaP/Cs2
	rhoOut := o.P.RhoRef - 0.5*o.P.DeltaP/Cs2
	o.applyPlane(sto, 0, 1, rhoIn)
	o.applyPlane(sto, sto.Nx-1, -1, rhoOut)
}

// applyPlane applies the extrapolation pressure BC on the plane i=plane,
// using the neighbouring interior plane i=plane+dir for the velocity and
// non-equilibrium extrapolation.
func (o *Solver) applyPlane(sto *lattice.Store, plane, dir int, rhoBC float64) {
	ni := plane + dir
	if !sto.InBounds(ni, 0, 0) {
		return
	}
	var eqWall, eqNeigh [lattice.NQ19]float64
	for k := 0; k < sto.Nz; k++ {
		for j := 0; j < sto.Ny; j++ {
			if !sto.GetMask(plane, j, k).IsFluid() || !sto.GetMask(ni, j, k).IsFluid() {
				continue
			}
			rhoN, uxN, uyN, uzN := sto.RhoU(ni, j, k, Cx, Cy, Cz)
			Equilibrium(&eqNeigh, rhoN, uxN, uyN, uzN)
			Equilibrium(&eqWall, rhoBC, uxN, uyN, uzN)
			f := sto.GetF(plane, j, k)
			fn := sto.GetF(ni, j, k)
			for q := 0; q < lattice.NQ19; q++ {
				f[q] = eqWall[q] + (fn[q] - eqNeigh[q])
			}
		}
	}
}

// Energy returns the domain-averaged kinetic energy 0.5*rho*|u|^2 over
// fluid voxels, used by Converged's sliding-window test.
func (o *Solver) Energy(sto *lattice.Store) float64 {
	var sum float64
	var n int
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				rho, ux, uy, uz := sto.RhoU(i, j, k, Cx, Cy, Cz)
				sum += 0.5 * rho * (ux*ux + uy*uy + uz*uz)
				n++
			}
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// pushWindow appends e to the sliding window, discarding the oldest
// sample once the window is full.
func (o *Solver) pushWindow(e float64) {
	o.window = append(o.window, e)
	if len(o.window) > o.P.WinSize {
		o.window = o.window[1:]
	}
}

// Converged reports whether, over a full sliding window, the largest
// step-to-step change of the domain-averaged kinetic energy, relative to
// the latest sample, is below Tol (§4.2 "Convergence test").
func (o *Solver) Converged() bool {
	if len(o.window) < o.P.WinSize {
		return false
	}
	var maxDelta float64
	for i := 1; i < len(o.window); i++ {
		d := math.Abs(o.window[i] - o.window[i-1])
		maxDelta = utl.Max(maxDelta, d)
	}
	ref := utl.Max(math.Abs(o.window[len(o.window)-1]), 1e-300)
	return maxDelta/ref < o.P.Tol
}

// Run advances collide+stream+pressureBC until Converged() or MaxIter is
// reached (§4.2). It returns the number of iterations performed and
// whether convergence was achieved.
func (o *Solver) Run(sto *lattice.Store, maxIter int) (iters int, converged bool) {
	o.window = o.window[:0]
	for iters = 0; iters < maxIter; iters++ {
		o.Collide(sto)
		o.Stream(sto)
		o.ApplyPressureBC(sto)
		o.pushWindow(o.Energy(sto))
		if o.Converged() {
			converged = true
			iters++
			return
		}
	}
	return
}

// CheckStability enforces the fatal/warn gates of §4.2: Mach number below
// 1 (fatal) and above 0.3 (warn); τ_NS in (0.5,2); grid Péclet |u|/D below
// 2 (warn), given a reference diffusivity Dref (the species-0 diffusivity,
// per §3's τ_NS calibration note).
func (o *Solver) CheckStability(sto *lattice.Store, Dref float64) error {
	if o.P.TauPore <= 0.5 || o.P.TauPore >= 2.0 {
		return chk.Err("flow: tau_NS = %g is out of the stable range (0.5,2)", o.P.TauPore)
	}
	for m, tau := range o.P.TauBio {
		if tau <= 0.5 || tau >= 2.0 {
			return chk.Err("flow: tau_NS_bio[%d] = %g is out of the stable range (0.5,2)", m, tau)
		}
	}
	var maxU float64
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				_, ux, uy, uz := sto.RhoU(i, j, k, Cx, Cy, Cz)
				speed := math.Sqrt(ux*ux + uy*uy + uz*uz)
				maxU = utl.Max(maxU, speed)
			}
		}
	}
	cs := math.Sqrt(Cs2)
	mach := maxU / cs
	if mach >= 1.0 {
		return chk.Err("flow: Mach number %.4f >= 1 (unstable)", mach)
	}
	if mach > 0.3 {
		io.Pfyel("flow: WARNING Mach number %.4f exceeds the 0.3 recommended limit\n", mach)
	}
	if Dref > 0 {
		peclet := maxU / Dref
		if peclet > 2.0 {
			io.Pfyel("flow: WARNING grid Peclet number %.4f exceeds the recommended limit of 2\n", peclet)
		}
	}
	return nil
}

// Permeability computes k = u_out * nu * L / deltaP, per §4.2's pressure
// calibration note, where nu is the pore kinematic viscosity implied by
// TauPore and L is the domain length along the flow axis.
func (o *Solver) Permeability(uOut, L float64) float64 {
	nu := Cs2 * (o.P.TauPore - 0.5)
	if o.P.DeltaP == 0 {
		return 0
	}
	return uOut * nu * L / o.P.DeltaP
}

// Calibrate implements the pressure-calibration feedback loop (§4.2):
// after first convergence, compute k, derive target velocity u* = Pe *
// Dref / L, correct DeltaP to u* * nu * L / k, and re-run to convergence.
// It mutates o.P.DeltaP and returns the number of additional iterations
// spent re-converging.
func (o *Solver) Calibrate(sto *lattice.Store, Pe, Dref, L float64, maxIter int) (iters int, converged bool) {
	uOut := o.outletVelocity(sto)
	k := o.Permeability(uOut, L)
	if k <= 0 {
		return 0, false
	}
	nu := Cs2 * (o.P.TauPore - 0.5)
	uStar := Pe * Dref / L
	o.P.DeltaP = uStar * nu * L / k
	return o.Run(sto, maxIter)
}

// outletVelocity returns the plane-averaged x-velocity at i=Nx-1.
func (o *Solver) outletVelocity(sto *lattice.Store) float64 {
	var sum float64
	var n int
	i := sto.Nx - 1
	for k := 0; k < sto.Nz; k++ {
		for j := 0; j < sto.Ny; j++ {
			if !sto.GetMask(i, j, k).IsFluid() {
				continue
			}
			_, ux, _, _ := sto.RhoU(i, j, k, Cx, Cy, Cz)
			sum += ux
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Velocity returns (ux,uy,uz) at (i,j,k), the read-only view C3 consumes
// (§4.2 "Velocity field is exposed to C3 as a read-only view").
func (o *Solver) Velocity(sto *lattice.Store, i, j, k int) (ux, uy, uz float64) {
	_, ux, uy, uz = sto.RhoU(i, j, k, Cx, Cy, Cz)
	return
}
