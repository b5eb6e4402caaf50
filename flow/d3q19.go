// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package flow implements the D3Q19 lattice-Boltzmann incompressible flow
// solver (C2): collide-and-stream with bounce-back solid boundaries and
// pressure inlet/outlet boundaries, plus the convergence and pressure-
// calibration loops described in SPEC_FULL.md §4.2.
package flow

import "github.com/cpmech/complab3d/lattice"

// Cs2 is the lattice speed of sound squared (1/3 for D3Q19).
const Cs2 = 1.0 / 3.0

// Cx, Cy, Cz are the x,y,z components of the 19 discrete velocities, and W
// their quadrature weights. Direction 0 is the rest particle.
var (
	Cx = [lattice.NQ19]float64{0, 1, -1, 0, 0, 0, 0, 1, -1, 1, -1, 1, -1, 1, -1, 0, 0, 0, 0}
	Cy = [lattice.NQ19]float64{0, 0, 0, 1, -1, 0, 0, 1, -1, -1, 1, 0, 0, 0, 0, 1, -1, 1, -1}
	Cz = [lattice.NQ19]float64{0, 0, 0, 0, 0, 1, -1, 0, 0, 0, 0, 1, -1, -1, 1, 1, -1, -1, 1}
	W  = [lattice.NQ19]float64{
		1.0 / 3.0,
		1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0, 1.0 / 18.0,
		1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
		1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
	}
	// Opp holds the opposite-direction index of each of the 19 velocities,
	// used by bounce-back at BOUNCE_BACK voxels (§4.2).
	Opp = [lattice.NQ19]int{0, 2, 1, 4, 3, 6, 5, 8, 7, 10, 9, 12, 11, 14, 13, 16, 15, 18, 17}
)

// Equilibrium computes f_q^eq(rho,u) for all 19 directions into dst.
func Equilibrium(dst *[lattice.NQ19]float64, rho, ux, uy, uz float64) {
	uu := ux*ux + uy*uy + uz*uz
	for q := 0; q < lattice.NQ19; q++ {
		cu := Cx[q]*ux + Cy[q]*uy + Cz[q]*uz
		dst[q] = W[q] * rho * (1.0 + 3.0*cu + 4.5*cu*cu - 1.5*uu)
	}
}
