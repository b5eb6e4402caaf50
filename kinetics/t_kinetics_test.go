// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kinetics

import (
	"testing"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

func Test_kinetics01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("kinetics01: monod rate law shape")

	p := Params{MuMax: 1.0, Ks: []float64{0.5}, KDecay: 0.1, Yield: []float64{0.5}}
	rate, ok := Allocate("monod", p)
	if !ok {
		tst.Fatal("expected monod rate law to be registered")
	}
	r := rate([]float64{0.5}, 2.0, lattice.Biofilm(0))
	// mu = 1.0 * 0.5/(0.5+0.5) = 0.5; rB = (0.5-0.1)*2 = 0.8
	chk.Scalar(tst, "rB", 1e-12, r.RB, 0.8)
	// rC = -mu*B/Y = -0.5*2/0.5 = -2.0
	chk.Scalar(tst, "rC[0]", 1e-12, r.RC[0], -2.0)
}

func Test_kinetics02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("kinetics02: clamp preserves mass balance under starvation")

	sto := lattice.NewStore(2, 1, 1, 1, 1)
	sto.SetMask(0, 0, 0, lattice.Biofilm(0))
	sto.SetMask(1, 0, 0, lattice.Biofilm(0))
	var eq [lattice.NQ7]float64
	transportEquilibrium(&eq, 0.1, 0, 0, 0)
	sto.SetG(0, 0, 0, 0, eq[:])
	sto.SetG(0, 1, 0, 0, eq[:])
	sto.SetB(0, 0, 0, 0, 100.0) // huge biomass relative to a tiny substrate pool
	sto.SetB(0, 1, 0, 0, 0)

	p := Params{MuMax: 1.0, Ks: []float64{0.01}, KDecay: 0.0, Yield: []float64{1.0}}
	rate, _ := Allocate("monod", p)
	dt := 1.0

	solver := NewSolver(1)
	microbes := []Microbe{{Index: 0, Rate: rate, FMax: DefaultFMax}}
	solver.Sweep(sto, microbes, dt)

	dC := sto.GetDC(0, 0, 0, 0)
	dB := sto.GetDB(0, 0, 0, 0)
	// clamp: |dC| must not exceed f_max*C
	limit := DefaultFMax * 0.1
	if -dC > limit+1e-9 {
		tst.Errorf("expected clamped |dC|<=%.6f, got %.6f", limit, -dC)
	}
	// mass balance under the clamp: dC*Y == dB (Y=1 here)
	chk.Scalar(tst, "dC*Y vs dB", 1e-9, -dC, dB)
}

func transportEquilibrium(dst *[lattice.NQ7]float64, C, ux, uy, uz float64) {
	w := [lattice.NQ7]float64{1.0 / 4.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0}
	for q := 0; q < lattice.NQ7; q++ {
		dst[q] = w[q] * C
	}
}

func Test_kinetics03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("kinetics03: apply+zero round trip")

	sto := lattice.NewStore(2, 1, 1, 1, 1)
	sto.AddDC(0, 0, 0, 0, 0.05)
	sto.AddDB(0, 0, 0, 0, 0.2)

	solver := NewSolver(1)
	weights := [lattice.NQ7]float64{1.0 / 4.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0}
	before := sto.ConcAt(0, 0, 0, 0)
	solver.Apply(sto, 1, InjectSpeciesDistribution(sto, weights), ApplySessileDirect(sto))

	after := sto.ConcAt(0, 0, 0, 0)
	chk.Scalar(tst, "C after injection", 1e-12, after, before+0.05)
	chk.Scalar(tst, "B after injection", 1e-12, sto.GetB(0, 0, 0, 0), 0.2)
	chk.Scalar(tst, "dC zeroed", 1e-15, sto.GetDC(0, 0, 0, 0), 0)
	chk.Scalar(tst, "dB zeroed", 1e-15, sto.GetDB(0, 0, 0, 0), 0)
}
