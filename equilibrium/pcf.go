// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package equilibrium implements the per-voxel fast-reaction solver (C5):
// given component totals, find component concentrations whose mass-action
// products reconcile with those totals, by a PCF fixed-point map
// accelerated with Anderson mixing.
package equilibrium

import "math"

// System describes one voxel's equilibrium problem: NSpecies secondary
// species related to NComponents basis components by a stoichiometry
// matrix and a vector of log-equilibrium constants (§4.5).
type System struct {
	Nu    [][]float64 // [NSpecies][NComponents]
	LogK  []float64   // [NSpecies]
	NComp int
}

// Species computes C_i = 10^logK_i * Prod_j x_j^nu_ij for every species,
// given the component concentrations x (linear space, not log).
func (s *System) Species(x []float64) []float64 {
	C := make([]float64, len(s.LogK))
	for i := range C {
		logC := s.LogK[i]
		for j, nu := range s.Nu[i] {
			if nu == 0 {
				continue
			}
			xj := x[j]
			if xj <= 0 {
				xj = 1e-300
			}
			logC += nu * math.Log10(xj)
		}
		C[i] = math.Pow(10, logC)
	}
	return C
}

// TotalsFromSpecies computes T_j = Sum_i nu_ij*C_i + x_j (the component's
// free concentration is itself part of its own total, §4.5).
func (s *System) TotalsFromSpecies(x, C []float64) []float64 {
	T := make([]float64, s.NComp)
	copy(T, x)
	for i, row := range s.Nu {
		for j, nu := range row {
			if nu != 0 {
				T[j] += nu * C[i]
			}
		}
	}
	return T
}

// pcfStep performs one PCF fixed-point map G(omega) (§4.5): for every
// component, split contributing species into consumers (nu_ij>0, which
// tie up the component) and producers (nu_ij<0, which release it), then
// move omega_j toward the ratio of what is available to what is
// currently consumed, scaled by the smallest stoichiometric coefficient
// touching that component.
func pcfStep(s *System, x, T, C []float64) []float64 {
	next := make([]float64, s.NComp)
	for j := 0; j < s.NComp; j++ {
		var consumed, available, muMin float64
		muMin = math.Inf(1)
		consumed = x[j]
		available = T[j]
		any := false
		for i, row := range s.Nu {
			nu := row[j]
			if nu == 0 {
				continue
			}
			any = true
			if math.Abs(nu) < muMin {
				muMin = math.Abs(nu)
			}
			if nu > 0 {
				consumed += nu * C[i]
			} else {
				available += -nu * C[i]
			}
		}
		if !any {
			muMin = 1
		}
		if consumed <= 0 {
			consumed = 1e-300
		}
		if available <= 0 {
			available = 1e-300
		}
		omega := math.Log10(x[j]) + (1.0/muMin)*math.Log10(available/consumed)
		next[j] = math.Pow(10, omega)
	}
	return next
}

// Residual returns the infinity-norm of (T_calc - T_total), the
// convergence criterion of §4.5.
func Residual(Tcalc, Ttarget []float64) float64 {
	var m float64
	for j := range Ttarget {
		d := math.Abs(Tcalc[j] - Ttarget[j])
		if d > m {
			m = d
		}
	}
	return m
}
