// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package transport implements the D3Q7 advection-diffusion lattice for
// dissolved species and planktonic biomass (C3), coupled to the flow
// velocity field exposed by package flow (§4.3).
package transport

import "github.com/cpmech/complab3d/lattice"

// Cx, Cy, Cz, W are the D3Q7 velocity set: one rest particle and six
// face-adjacent directions, matching lattice.Store.NeighboursFace's order
// -x,+x,-y,+y,-z,+z for directions 1..6.
var (
	Cx = [lattice.NQ7]float64{0, -1, 1, 0, 0, 0, 0}
	Cy = [lattice.NQ7]float64{0, 0, 0, -1, 1, 0, 0}
	Cz = [lattice.NQ7]float64{0, 0, 0, 0, 0, -1, 1}
	W  = [lattice.NQ7]float64{1.0 / 4.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0}
	Opp = [lattice.NQ7]int{0, 2, 1, 4, 3, 6, 5}
)

// Equilibrium computes g_q^eq(C,u) for the D3Q7 advection-diffusion
// stencil: the linearised form standard to AD-LBM (no quadratic velocity
// term, since species transport is scalar and Ma is already constrained
// by the flow solver).
func Equilibrium(dst *[lattice.NQ7]float64, C, ux, uy, uz float64) {
	for q := 0; q < lattice.NQ7; q++ {
		cu := Cx[q]*ux + Cy[q]*uy + Cz[q]*uz
		dst[q] = W[q] * C * (1.0 + 3.0*cu)
	}
}
