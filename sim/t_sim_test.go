// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sim

import (
	"testing"

	"github.com/cpmech/complab3d/ca"
	"github.com/cpmech/complab3d/flow"
	"github.com/cpmech/complab3d/geometry"
	"github.com/cpmech/complab3d/kinetics"
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/complab3d/transport"
	"github.com/cpmech/gosl/chk"
)

func Test_sim01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sim01: abiotic pure-diffusion pipeline runs and preserves non-negativity")

	sto := lattice.NewStore(6, 4, 4, 1, 0)
	fp := flow.DefaultParams(0)
	fp.DeltaP = 0
	flowSolver := flow.NewSolver(fp, sto)
	var feq [lattice.NQ19]float64
	flow.Equilibrium(&feq, 1.0, 0, 0, 0)
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				sto.SetF(i, j, k, feq[:])
			}
		}
	}

	tp := transport.Params{DPore: 1e-3, DBio: 1e-4, Left: transport.BC{Kind: transport.Dirichlet, Value: 1.0}, Right: transport.BC{Kind: transport.Neumann}}
	tSolver := transport.NewSolver(tp, sto)

	coord := &Coordinator{
		Sto:     sto,
		Opt:     Options{Biotic: false, Dt: 1.0, ReconvergeMaxIter: 200},
		Flow:    flowSolver,
		Species: []*transport.Solver{tSolver},
	}

	sum, err := coord.Run(200)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if sum.Iterations != 200 {
		tst.Errorf("expected 200 iterations, got %d", sum.Iterations)
	}

	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if sto.ConcAt(0, i, j, k) < -1e-9 {
					tst.Errorf("expected non-negative concentration at (%d,%d,%d)", i, j, k)
				}
			}
		}
	}
}

func Test_sim02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("sim02: biotic pipeline with kinetics and CA runs without fatal error")

	sto := lattice.NewStore(4, 4, 4, 1, 1)
	fp := flow.DefaultParams(1)
	fp.DeltaP = 0
	flowSolver := flow.NewSolver(fp, sto)
	var feq [lattice.NQ19]float64
	flow.Equilibrium(&feq, 1.0, 0, 0, 0)
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				sto.SetF(i, j, k, feq[:])
			}
		}
	}

	tp := transport.Params{DPore: 1e-3, DBio: 1e-4, Left: transport.BC{Kind: transport.Dirichlet, Value: 1e-2}, Right: transport.BC{Kind: transport.Neumann}}
	tSolver := transport.NewSolver(tp, sto)
	var geq [lattice.NQ7]float64
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				transport.Equilibrium(&geq, 1e-3, 0, 0, 0)
				sto.SetG(0, i, j, k, geq[:])
			}
		}
	}
	sto.SetB(0, 1, 1, 1, 0.1)

	kSolver := kinetics.NewSolver(1)
	rate, _ := kinetics.Allocate("monod", kinetics.Params{MuMax: 1e-4, Ks: []float64{1e-5}, KDecay: 1e-7, Yield: []float64{0.4}})
	microbes := []kinetics.Microbe{{Index: 0, Rate: rate}}

	caSpreader := ca.NewSpreader(ca.Config{BMax: 100, Mode: ca.FractionMode, IterCap: 2000, Seed: 7}, []int{0})
	geomUpdater := geometry.NewUpdater(geometry.Config{PhiB: 0.5, BMax: 100}, []int{0})

	coord := &Coordinator{
		Sto:           sto,
		Opt:           Options{Biotic: true, EnableKinetics: true, Dt: 1.0, ReconvergeMaxIter: 200},
		Flow:          flowSolver,
		Species:       []*transport.Solver{tSolver},
		Kinetics:      kSolver,
		Microbes:      microbes,
		SessileIdx:    []int{0},
		CA:            caSpreader,
		Geometry:      geomUpdater,
		InjectWeights: [lattice.NQ7]float64{1.0 / 4.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0},
	}

	_, err := coord.Run(50)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if sto.GetB(0, 1, 1, 1) < 0 {
		tst.Errorf("expected non-negative biomass after biotic run")
	}
}
