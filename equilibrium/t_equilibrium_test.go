// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package equilibrium

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/num"
)

// simpleSystem builds a 1-component, 1-species association A <-> AX with
// logK such that C = 10^logK * x.
func simpleSystem(logK float64) *System {
	return &System{
		Nu:    [][]float64{{1}},
		LogK:  []float64{logK},
		NComp: 1,
	}
}

func Test_equilibrium01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("equilibrium01: single-species system converges to exact total")

	sys := simpleSystem(0.3)
	solver := NewSolver(sys, DefaultParams())
	T := []float64{1.0}
	res := solver.Solve(T, nil)
	if !res.Converged {
		tst.Fatalf("expected convergence, got %d iterations non-converged", res.Iters)
	}
	Tcalc := sys.TotalsFromSpecies(res.X, res.C)
	chk.Scalar(tst, "T_calc", 1e-8, Tcalc[0], T[0])
	if res.X[0] <= 0 {
		tst.Errorf("expected positive component concentration, got %v", res.X[0])
	}
}

func Test_equilibrium02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("equilibrium02: idempotence - resolving a converged state takes one iteration")

	sys := simpleSystem(-0.5)
	solver := NewSolver(sys, DefaultParams())
	T := []float64{2.5}
	first := solver.Solve(T, nil)
	if !first.Converged {
		tst.Fatalf("expected first solve to converge")
	}

	second := solver.Solve(T, first.X)
	if !second.Converged {
		tst.Errorf("expected idempotent re-solve to converge")
	}
	if second.Iters > 1 {
		tst.Errorf("expected idempotent re-solve within 1 iteration, got %d", second.Iters)
	}
}

func Test_equilibrium03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("equilibrium03: two-component three-species system converges")

	sys := &System{
		Nu:    [][]float64{{1, 0}, {0, 1}, {1, 1}},
		LogK:  []float64{0.0, 0.0, 0.2},
		NComp: 2,
	}
	solver := NewSolver(sys, DefaultParams())
	T := []float64{1.0, 1.5}
	res := solver.Solve(T, nil)
	if !res.Converged {
		tst.Fatalf("expected convergence within %d iterations, used %d", solver.P.MaxIter, res.Iters)
	}
	Tcalc := sys.TotalsFromSpecies(res.X, res.C)
	for j := range T {
		if math.Abs(Tcalc[j]-T[j]) > 1e-6 {
			tst.Errorf("component %d: T_calc=%v want %v", j, Tcalc[j], T[j])
		}
	}
}

// Test_equilibrium04 cross-checks the mass-action law's log-space
// sensitivity against a numerical derivative: log10(C_i) = logK_i +
// sum_j nu_ij*log10(x_j), so d(C_i)/d(log10 x_j) = C_i*ln(10)*nu_ij
// analytically. This exercises the log-space Jacobian-free PCF step's
// underlying mass-action law against gosl/num.DerivCen independently of
// the fixed-point iteration itself.
func Test_equilibrium04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("equilibrium04: mass-action log-space derivative matches finite differences")

	sys := &System{
		Nu:    [][]float64{{1, 0}, {0, 1}, {1, 1}},
		LogK:  []float64{0.0, 0.0, 0.2},
		NComp: 2,
	}
	solver := NewSolver(sys, DefaultParams())
	T := []float64{1.0, 1.5}
	res := solver.Solve(T, nil)
	if !res.Converged {
		tst.Fatalf("expected convergence before checking derivatives")
	}

	x := make([]float64, sys.NComp)
	copy(x, res.X)
	tol := 1e-6
	verb := io.Verbose

	for i, row := range sys.Nu {
		for j, nu := range row {
			ana := res.C[i] * math.Log(10) * nu
			var saved float64
			dnum := num.DerivCen(func(logxj float64, args ...interface{}) (out float64) {
				saved, x[j] = x[j], math.Pow(10, logxj)
				out = sys.Species(x)[i]
				x[j] = saved
				return
			}, math.Log10(x[j]))
			chk.AnaNum(tst, io.Sf("dC%d/dlogx%d", i, j), tol, ana, dnum, verb)
		}
	}
}
