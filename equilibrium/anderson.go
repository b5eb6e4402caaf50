// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import "gonum.org/v1/gonum/mat"

// andersonMixer accumulates the last m (iterate, residual) pairs and
// produces the next iterate by solving a small least-squares problem
// over residual differences (§4.5, "Anderson-accelerated update with
// depth m"). Depth 0 disables mixing and callers should use plain PCF.
type andersonMixer struct {
	depth int
	xs    [][]float64 // past omega iterates (log-space), oldest first
	fs    [][]float64 // past residuals G(x)-x, oldest first
}

func newAndersonMixer(depth int) *andersonMixer {
	return &andersonMixer{depth: depth}
}

// push records one (x, f=G(x)-x) pair, evicting the oldest once the
// window exceeds depth.
func (a *andersonMixer) push(x, f []float64) {
	xc, fc := append([]float64(nil), x...), append([]float64(nil), f...)
	a.xs = append(a.xs, xc)
	a.fs = append(a.fs, fc)
	if len(a.xs) > a.depth {
		a.xs = a.xs[1:]
		a.fs = a.fs[1:]
	}
}

// reset clears the history, used when the mixer produces a non-finite
// or otherwise unusable iterate so the caller can fall back to PCF.
func (a *andersonMixer) reset() {
	a.xs = nil
	a.fs = nil
}

// mix returns the Anderson type-I accelerated next iterate given the
// latest (x, f=G(x)-x, g=G(x)); with an empty history (or depth 0) it
// returns g unmixed (equivalent to plain PCF).
func (a *andersonMixer) mix(x, f, g []float64) []float64 {
	mk := len(a.xs)
	if mk < 1 || a.depth == 0 {
		return g
	}
	n := len(x)

	// build the residual-difference matrix Dfj = f_k - f_j for each
	// history entry j, and the corresponding x/G differences.
	dF := mat.NewDense(n, mk, nil)
	dXG := mat.NewDense(n, mk, nil) // (x_j - x_k) + (g_j - G_k) per column, G_k = x_k+f_k... see below
	gk := make([]float64, n)
	for i := range gk {
		gk[i] = x[i] + f[i] // == g[i], kept explicit for clarity
	}
	for col := 0; col < mk; col++ {
		xj, fj := a.xs[col], a.fs[col]
		gj := make([]float64, n)
		for i := range gj {
			gj[i] = xj[i] + fj[i]
		}
		for row := 0; row < n; row++ {
			dF.Set(row, col, fj[row]-f[row])
			dXG.Set(row, col, (xj[row]-x[row])+(gj[row]-gk[row]))
		}
	}

	var gamma mat.VecDense
	rhs := mat.NewVecDense(n, append([]float64(nil), f...))
	if err := gamma.SolveVec(dF, rhs); err != nil {
		return g
	}

	next := make([]float64, n)
	for row := 0; row < n; row++ {
		var corr float64
		for col := 0; col < mk; col++ {
			corr += dXG.At(row, col) * gamma.AtVec(col)
		}
		next[row] = g[row] - corr
	}
	return next
}
