// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// Params configures the solver (§4.5, §6 Equilibrium section).
type Params struct {
	Tol          float64 // default 1e-10
	MaxIter      int     // default 200
	AndersonDepm int     // Anderson depth m, default 4; 0 => plain PCF
}

// DefaultParams returns §4.5's documented defaults.
func DefaultParams() Params {
	return Params{Tol: 1e-10, MaxIter: 200, AndersonDepm: 4}
}

// Solver runs the PCF+Anderson fixed-point iteration for one chemical
// System, reused across every voxel sharing that System (stoichiometry
// and logK are process-wide; only totals vary per voxel).
type Solver struct {
	Sys *System
	P   Params

	failures int // soft-failure counter (§4.5, §7)
}

// NewSolver returns an equilibrium solver bound to one stoichiometric
// system.
func NewSolver(sys *System, p Params) *Solver {
	if sys.NComp != len(sys.Nu[0]) {
		chk.Panic("equilibrium: System.NComp=%d does not match stoichiometry matrix width=%d", sys.NComp, len(sys.Nu[0]))
	}
	return &Solver{Sys: sys, P: p}
}

// Result holds one voxel's solved state.
type Result struct {
	X         []float64 // component concentrations, linear space
	C         []float64 // secondary species concentrations
	Iters     int
	Converged bool
}

// Solve finds x such that the mass-action species concentrations balance
// the given component totals T, starting from x0 (or T itself, clamped
// positive, if x0 is nil). On non-convergence it returns the best
// estimate reached with Converged=false and bumps the failure counter;
// the caller is expected to leave the voxel's concentrations unchanged in
// that case (§4.5, §7 "soft" failure policy).
func (o *Solver) Solve(T, x0 []float64) Result {
	n := o.Sys.NComp
	x := make([]float64, n)
	if x0 != nil {
		copy(x, x0)
	} else {
		copy(x, T)
	}
	for j := range x {
		if x[j] <= 0 {
			x[j] = 1e-12
		}
	}

	mixer := newAndersonMixer(o.P.AndersonDepm)
	var iters int
	for iters = 0; iters < o.P.MaxIter; iters++ {
		C := o.Sys.Species(x)
		Tcalc := o.Sys.TotalsFromSpecies(x, C)
		if Residual(Tcalc, T) < o.P.Tol {
			return Result{X: x, C: C, Iters: iters, Converged: true}
		}

		g := pcfStep(o.Sys, x, T, C)
		f := make([]float64, n)
		for j := range f {
			f[j] = g[j] - x[j]
		}

		next := mixer.mix(x, f, g)
		if !allFinitePositive(next) {
			next = g
			mixer.reset()
		}
		mixer.push(x, f)
		x = next
	}

	C := o.Sys.Species(x)
	o.failures++
	return Result{X: x, C: C, Iters: iters, Converged: false}
}

// Failures reports the running count of non-converged voxels (§7).
func (o *Solver) Failures() int { return o.failures }

func allFinitePositive(v []float64) bool {
	for _, x := range v {
		if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
