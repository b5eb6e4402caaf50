// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kinetics

import (
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

// DefaultFMax is the clamp fraction of §4.4: a species may not lose more
// than f_max of its current concentration in one step.
const DefaultFMax = 0.5

// Microbe binds a microbe index to its rate law and clamp fraction.
type Microbe struct {
	Index int
	Rate  RateFunc
	FMax  float64 // 0 => DefaultFMax
}

// Solver sweeps every PORE/BIOFILM_k voxel, accumulating kinetics deltas
// (§4.4). One Solver instance is shared by every microbe in a
// simulation; microbes are supplied per-call so the solver carries no
// per-microbe state of its own.
type Solver struct {
	NSpecies int
}

// NewSolver returns a kinetics solver for a store with NSpecies species.
func NewSolver(nSpecies int) *Solver { return &Solver{NSpecies: nSpecies} }

// Sweep evaluates every microbe's rate law at every fluid voxel, applying
// the clamp (§4.4 step 3) and accumulating into the store's delta
// buffers (§4.4 step 4). It does not mutate C_s/B_m directly; call Apply
// afterward.
func (o *Solver) Sweep(sto *lattice.Store, microbes []Microbe, dt float64) {
	C := make([]float64, o.NSpecies)
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				mask := sto.GetMask(i, j, k)
				if !mask.IsFluid() {
					continue
				}
				for s := 0; s < o.NSpecies; s++ {
					C[s] = sto.ConcAt(s, i, j, k)
				}
				for _, mi := range microbes {
					B := sto.GetB(mi.Index, i, j, k)
					rates := mi.Rate(C, B, mask)
					o.clampAndAccumulate(sto, mi, rates, C, B, i, j, k, dt)
				}
			}
		}
	}
}

// clampAndAccumulate implements §4.4 step 3: if the unconstrained update
// would remove more than f_max of a species' current concentration, the
// uptake rate is scaled back and the biomass growth rate is re-derived
// from the actual (reduced) consumption via the same yield used to
// compute it, preserving Σ rS·Y_s + rB = 0 under the clamp.
func (o *Solver) clampAndAccumulate(sto *lattice.Store, mi Microbe, rates Rates, C []float64, B float64, i, j, k int, dt float64) {
	fMax := mi.FMax
	if fMax <= 0 {
		fMax = DefaultFMax
	}
	rB := rates.RB
	for s, rS := range rates.RC {
		if rS == 0 {
			continue
		}
		limit := fMax * C[s] / dt
		if -rS > limit && limit > 0 {
			scale := limit / -rS
			reduced := rS * scale
			// re-derive the biomass contribution proportionally: the
			// fraction of uptake actually realised determines the
			// fraction of growth actually realised (mass-balance
			// contract, §4.4).
			if rS != 0 {
				rB *= scale
			}
			rS = reduced
		}
		sto.AddDC(s, i, j, k, rS*dt)
	}
	sto.AddDB(mi.Index, i, j, k, rB*dt)
}

// Apply adds every accumulated delta into its macroscopic field by
// injecting it into the D3Q7/biomass distribution proportionally across
// all directions, which preserves the distribution's shape while
// shifting its zeroth moment by exactly dC. Deltas are zeroed afterward.
func (o *Solver) Apply(sto *lattice.Store, nMicrobes int, injectSpecies func(s, i, j, k int, dC float64), injectSessile func(m, i, j, k int, dB float64)) {
	for s := 0; s < o.NSpecies; s++ {
		field := sto.DCField(s)
		for i := 0; i < sto.Nx; i++ {
			for k := 0; k < sto.Nz; k++ {
				for j := 0; j < sto.Ny; j++ {
					n := sto.Index(i, j, k)
					dC := field[n]
					if dC == 0 {
						continue
					}
					injectSpecies(s, i, j, k, dC)
				}
			}
		}
	}
	for m := 0; m < nMicrobes; m++ {
		field := sto.DBField(m)
		for i := 0; i < sto.Nx; i++ {
			for k := 0; k < sto.Nz; k++ {
				for j := 0; j < sto.Ny; j++ {
					n := sto.Index(i, j, k)
					dB := field[n]
					if dB == 0 {
						continue
					}
					injectSessile(m, i, j, k, dB)
				}
			}
		}
	}
	sto.ZeroDeltas()
}

// ApplySessileDirect is the injector for sessile microbes: their biomass
// is a plain density field (no distribution, no advection), so the
// delta is added directly, clamped to non-negative.
func ApplySessileDirect(sto *lattice.Store) func(m, i, j, k int, dB float64) {
	return func(m, i, j, k int, dB float64) {
		v := sto.GetB(m, i, j, k) + dB
		if v < 0 {
			v = 0
		}
		sto.SetB(m, i, j, k, v)
	}
}

// InjectSpeciesDistribution adds dC into species s's D3Q7 distribution
// at (i,j,k) by distributing it across all 7 directions in proportion
// to their equilibrium weights, which changes only the zeroth moment
// (concentration) and leaves the flux moment numerically unperturbed to
// leading order — the standard LBM source-injection scheme.
func InjectSpeciesDistribution(sto *lattice.Store, weights [lattice.NQ7]float64) func(s, i, j, k int, dC float64) {
	return func(s, i, j, k int, dC float64) {
		g := sto.GetG(s, i, j, k)
		for q := 0; q < lattice.NQ7; q++ {
			g[q] += weights[q] * dC
		}
		for _, v := range g {
			if v < 0 {
				chk.Panic("kinetics: negative population after injection at (%d,%d,%d): %v", i, j, k, g)
			}
		}
		sto.SetG(s, i, j, k, g)
	}
}
