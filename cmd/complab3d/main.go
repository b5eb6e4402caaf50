// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"

	"github.com/cpmech/complab3d/ca"
	"github.com/cpmech/complab3d/equilibrium"
	"github.com/cpmech/complab3d/flow"
	"github.com/cpmech/complab3d/geometry"
	"github.com/cpmech/complab3d/inp"
	"github.com/cpmech/complab3d/kinetics"
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/complab3d/out"
	"github.com/cpmech/complab3d/sim"
	"github.com/cpmech/complab3d/transport"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/mpi"
)

func main() {

	defer func() {
		if err := recover(); err != nil {
			if mpi.Rank() == 0 {
				chk.Verbose = true
				for i := 8; i > 3; i-- {
					chk.CallerInfo(i)
				}
				io.PfRed("ERROR: %v\n", err)
			}
		}
		mpi.Stop(false)
	}()
	mpi.Start(false)

	if mpi.Rank() == 0 {
		io.PfWhite("\nCompLaB3D -- pore-scale reactive-transport engine\n\n")
	}

	flag.Parse()
	if len(flag.Args()) < 1 {
		chk.Panic("Please provide a configuration file. Ex.: run01.cl3")
	}
	niter := 10000
	if len(flag.Args()) > 1 {
		niter = io.Atoi(flag.Arg(1))
	}

	cfg := inp.ReadConfig(flag.Arg(0))
	coord := buildCoordinator(cfg)
	drive(cfg, coord, niter)
}

// drive runs the coordinator for n iterations, writing console reports,
// CSV metrics, volumetric dumps and checkpoints at the configured
// intervals (§6 "Output").
func drive(cfg *inp.Config, coord *sim.Coordinator, n int) {
	speciesNames := make([]string, len(cfg.Chemistry.Species))
	for i, s := range cfg.Chemistry.Species {
		speciesNames[i] = s.Name
	}
	microbeNames := make([]string, len(cfg.Microbio.Microbes))
	initialBiomass := make([]float64, len(cfg.Microbio.Microbes))
	for i, m := range cfg.Microbio.Microbes {
		microbeNames[i] = m.Name
		initialBiomass[i] = lattice.ReduceSum(coord.Sto.BField(i))
	}

	metrics := out.NewMetricsWriter(cfg.Path.OutDir)
	defer metrics.Close()

	pressure := cfg.PressureFunc()

	dump := func(iter int) {
		for s, name := range speciesNames {
			out.WriteVTI(cfg.Path.OutDir, name, iter, coord.Sto, cfg.Domain.Dx, coord.Sto.GField(s))
		}
		for m, name := range microbeNames {
			out.WriteVTI(cfg.Path.OutDir, name, iter, coord.Sto, cfg.Domain.Dx, coord.Sto.BField(m))
		}
		out.WriteMaskVTI(cfg.Path.OutDir, iter, coord.Sto, cfg.Domain.Dx)
		out.WriteFlowVTI(cfg.Path.OutDir, iter, coord.Sto, cfg.Domain.Dx, flow.Cx, flow.Cy, flow.Cz, flow.Cs2)
	}

	target := coord.Iter + n
	for coord.Iter < target {
		coord.Flow.P.DeltaP = pressure.F(float64(coord.Iter), nil)
		if err := coord.Step(); err != nil {
			chk.Panic("simulation failed at iteration %d: %v", coord.Iter, err)
		}

		if cfg.IO.VTIInterval > 0 && coord.Iter%cfg.IO.VTIInterval == 0 {
			r := out.BuildReport(coord.Sto, coord.Iter, speciesNames, microbeNames, initialBiomass, coord.CATriggers, 0)
			r.Print()
			metrics.Write(r)
			dump(coord.Iter)
		}
		if cfg.IO.ChkInterval > 0 && coord.Iter%cfg.IO.ChkInterval == 0 {
			out.WriteCheckpoint(cfg.Path.OutDir, cfg.Path.ChkFile, out.Snapshot(coord.Sto, coord.Iter))
		}
	}

	r := out.BuildReport(coord.Sto, coord.Iter, speciesNames, microbeNames, initialBiomass, coord.CATriggers, 0)
	r.Print()
	metrics.Write(r)
	dump(coord.Iter)
	out.WriteCheckpoint(cfg.Path.OutDir, cfg.Path.ChkFile, out.Snapshot(coord.Sto, coord.Iter))
	io.PfGreen("complab3d: %d iterations complete\n", coord.Iter)
	if coord.Opt.Stat {
		io.Pf("complab3d: wall-clock breakdown -- transport: %v, kinetics: %v, equilibrium: %v, ca: %v, geometry: %v\n",
			coord.Stat.Transport, coord.Stat.Kinetics, coord.Stat.Equilibrium, coord.Stat.CA, coord.Stat.Geometry)
	}
}

// buildCoordinator wires every component from the configuration in a
// single-pass allocation-then-init sequence.
func buildCoordinator(cfg *inp.Config) *sim.Coordinator {
	var sto *lattice.Store
	var startIter int
	if cfg.IO.Restart && cfg.Path.RestartFrom != "" {
		chkpt := out.ReadCheckpoint(cfg.Path.OutDir, cfg.Path.RestartFrom)
		sto = out.Restore(chkpt)
		startIter = chkpt.Iter
		io.PfWhite("complab3d: restarted from %q at iteration %d\n", cfg.Path.RestartFrom, startIter)
	} else {
		sto = cfg.NewStore()
		cfg.LoadGeometry(sto)
	}

	flowSolver := flow.NewSolver(cfg.FlowParams(), sto)

	speciesParams := cfg.TransportParams()
	speciesSolvers := make([]*transport.Solver, len(speciesParams))
	for s, p := range speciesParams {
		speciesSolvers[s] = transport.NewSolver(p, sto)
	}

	var dref float64
	if len(speciesParams) > 0 {
		dref = speciesParams[0].DPore
	}
	calibrateFlow(cfg, flowSolver, sto, dref)

	planktonicParams := cfg.PlanktonicParams()
	planktonic := make(map[int]*transport.Solver)
	for m, p := range planktonicParams {
		planktonic[m] = transport.NewSolver(p, sto)
	}

	var microbes []kinetics.Microbe
	var sessileIdx []int
	var kSolver *kinetics.Solver
	if cfg.Mode.Biotic {
		kSolver = kinetics.NewSolver(cfg.Chemistry.NS)
		for m, mic := range cfg.Microbio.Microbes {
			if mic.Reaction != "kinetics" {
				continue
			}
			rate, ok := kinetics.Allocate("monod", cfg.KineticsParams(m))
			if !ok {
				chk.Panic("cannot allocate kinetics rate law for microbe %q", mic.Name)
			}
			microbes = append(microbes, kinetics.Microbe{Index: m, Rate: rate})
			if mic.Solver != "LBM" {
				sessileIdx = append(sessileIdx, m)
			}
		}
	}

	var caSpreader *ca.Spreader
	var geomUpdater *geometry.Updater
	if cfg.Mode.Biotic && cfg.Microbio.CAMethod != "none" {
		caSpreader = ca.NewSpreader(cfg.CAConfig(), sessileIdx)
		geomUpdater = geometry.NewUpdater(cfg.GeometryConfig(), sessileIdx)
	}

	var eqBinding *sim.EquilibriumBinding
	if cfg.Equilibrium.Enabled {
		sys := cfg.EquilibriumSystem()
		eqBinding = &sim.EquilibriumBinding{
			Sys:                 sys,
			Solver:              equilibrium.NewSolver(sys, cfg.EquilibriumParams()),
			ComponentSpeciesIdx: cfg.ComponentSpeciesIdx(),
			Cache:               make([][]float64, len(sys.LogK)),
		}
		for i := range eqBinding.Cache {
			eqBinding.Cache[i] = make([]float64, sto.N())
		}
	}

	// center-heavy D3Q7 injection weighting, matching the coordinator's
	// own test fixture convention.
	injectWeights := [lattice.NQ7]float64{1.0 / 4.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0, 1.0 / 8.0}

	coord := &sim.Coordinator{
		Sto: sto,
		Opt: sim.Options{
			Biotic:            cfg.Mode.Biotic,
			EnableKinetics:    cfg.Mode.EnableKinetics,
			EnableEquilibrium: cfg.Mode.EnableEquilibrium,
			Dt:                1.0,
			ReconvergeMaxIter: cfg.LB.NSInner2MaxIter,
			ValidationEvery:   1,
			Stat:              cfg.Mode.PerformanceTracking,
		},
		Flow:          flowSolver,
		Species:       speciesSolvers,
		Planktonic:    planktonic,
		Kinetics:      kSolver,
		Microbes:      microbes,
		SessileIdx:    sessileIdx,
		Equil:         eqBinding,
		CA:            caSpreader,
		Geometry:      geomUpdater,
		InjectWeights: injectWeights,
	}
	coord.Iter = startIter
	return coord
}

// calibrateFlow runs the one-time pre-loop feedback loop of §4.2: a
// stability check against the configured tau, full convergence to
// steady state, pressure calibration against the target Peclet number,
// then a final stability check against the converged velocity field.
// Any failure aborts the run before the time loop starts, per §7's
// fatal stability gate.
func calibrateFlow(cfg *inp.Config, flowSolver *flow.Solver, sto *lattice.Store, dref float64) {
	if err := flowSolver.CheckStability(sto, dref); err != nil {
		chk.Panic("flow: pre-loop stability check failed: %v", err)
	}
	if _, converged := flowSolver.Run(sto, cfg.LB.NSInner1MaxIter); !converged {
		chk.Panic("flow: failed to converge to steady state within %d iterations", cfg.LB.NSInner1MaxIter)
	}
	if cfg.LB.Pe > 0 && dref > 0 {
		L := float64(cfg.Domain.Nx - 1)
		if _, converged := flowSolver.Calibrate(sto, cfg.LB.Pe, dref, L, cfg.LB.NSInner1MaxIter); !converged {
			chk.Panic("flow: pressure calibration failed to re-converge")
		}
	}
	if err := flowSolver.CheckStability(sto, dref); err != nil {
		chk.Panic("flow: post-calibration stability check failed: %v", err)
	}
}
