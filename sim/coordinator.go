// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package sim implements the time-step coordinator (C8): orders the
// per-iteration pipeline, drives the feedback/reconvergence loops of the
// other components, and enforces the stability and numerical-safety
// gates of the error-handling design.
package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/cpmech/complab3d/ca"
	"github.com/cpmech/complab3d/equilibrium"
	"github.com/cpmech/complab3d/flow"
	"github.com/cpmech/complab3d/geometry"
	"github.com/cpmech/complab3d/kinetics"
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/complab3d/transport"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Options gates individual pipeline stages (§4.8, "Global options gate
// individual stages"). Abiotic mode skips kinetics, CA and geometry;
// equilibrium-only leaves kinetics off but runs equilibrium;
// kinetics-only leaves equilibrium off.
type Options struct {
	Biotic            bool
	EnableKinetics    bool
	EnableEquilibrium bool
	Dt                float64
	ReconvergeMaxIter int // flow re-convergence cap after a geometry change
	CheckpointEvery   int
	ValidationEvery   int // re-run NaN/Inf sweep at this cadence; 0 => every iteration
	Stat              bool // track and report per-stage wall-clock time (§6 "performance tracking")
}

// StageTimes accumulates wall-clock time spent per pipeline stage, kept
// only when Options.Stat is set.
type StageTimes struct {
	Transport   time.Duration
	Kinetics    time.Duration
	Equilibrium time.Duration
	CA          time.Duration
	Geometry    time.Duration
}

// EquilibriumBinding maps each basis component of an equilibrium System
// onto the transport species that carries that component's *total*
// dissolved concentration (§4.5, §6): C3 advects totals, not individual
// secondary species, so equilibrium is a per-voxel diagnostic speciation
// that does not itself move mass between lattices. ComponentSpeciesIdx
// has one entry per component (len == Sys.NComp).
type EquilibriumBinding struct {
	Sys                 *equilibrium.System
	Solver              *equilibrium.Solver
	ComponentSpeciesIdx []int
	Cache               [][]float64 // [len(Sys.LogK)][sto.N()] last converged speciation, for reporting
}

// Coordinator owns every component and drives the §4.8 pipeline.
type Coordinator struct {
	Sto *lattice.Store
	Opt Options

	Flow           *flow.Solver
	Species        []*transport.Solver // len == NSpecies
	Planktonic     map[int]*transport.Solver
	Kinetics       *kinetics.Solver
	Microbes       []kinetics.Microbe // reactive microbes (sessile and/or planktonic), Index into Store's microbe axis
	SessileIdx     []int              // sessile microbe indices, for CA
	Equil          *EquilibriumBinding
	CA             *ca.Spreader
	Geometry       *geometry.Updater
	InjectWeights  [lattice.NQ7]float64

	Iter       int
	CATriggers int
	StartedAt  time.Time
	Stat       StageTimes
}

// Summary reports the clean-exit state printed by the coordinator (§7,
// "prints a structured summary on clean exit").
type Summary struct {
	Iterations      int
	Elapsed         time.Duration
	CATriggers      int
	EquilFailures   int
	PercolationFrze bool
}

// Step runs exactly one iteration of the §4.8 pipeline.
func (o *Coordinator) Step() error {
	sto := o.Sto

	// 2: collide every advected lattice.
	t0 := time.Now()
	for s, solver := range o.Species {
		solver.CollideSpecies(sto, s, o.Flow)
	}
	for m, solver := range o.Planktonic {
		solver.CollidePlanktonic(sto, m, o.Flow)
	}
	o.addStat(&o.Stat.Transport, t0)

	// 3: kinetics.
	t0 = time.Now()
	if o.Biotic() && o.Opt.EnableKinetics && o.Kinetics != nil {
		o.Kinetics.Sweep(sto, o.Microbes, o.Opt.Dt)
		inject := kinetics.InjectSpeciesDistribution(sto, o.InjectWeights)
		injectSessile := kinetics.ApplySessileDirect(sto)
		injectBiomass := func(m, i, j, k int, dB float64) {
			if sto.BGField(m) == nil {
				injectSessile(m, i, j, k, dB)
				return
			}
			g := sto.GetBG(m, i, j, k)
			for q := range g {
				g[q] += o.InjectWeights[q] * dB
			}
		}
		o.Kinetics.Apply(sto, sto.NMicrobes, inject, injectBiomass)
	}
	o.addStat(&o.Stat.Kinetics, t0)

	// 4: equilibrium.
	t0 = time.Now()
	if o.Opt.EnableEquilibrium && o.Equil != nil {
		o.runEquilibrium()
	}
	o.addStat(&o.Stat.Equilibrium, t0)

	// 5: CA (sessile only).
	t0 = time.Now()
	geometryChanged := false
	if o.Biotic() && o.CA != nil {
		var refresh func(*lattice.Store)
		if o.Geometry != nil {
			refresh = o.Geometry.RebuildDistance
		}
		changed, err := o.CA.Run(sto, refresh)
		if err != nil {
			return err
		}
		if changed {
			o.CATriggers++
			geometryChanged = true
		}
	}
	o.addStat(&o.Stat.CA, t0)

	// 6: geometry reconciliation.
	t0 = time.Now()
	if geometryChanged && o.Geometry != nil {
		o.Geometry.Reconcile(sto, o.Flow, o.Opt.ReconvergeMaxIter)
	}
	o.addStat(&o.Stat.Geometry, t0)

	// 7: stream every advected lattice.
	for s, solver := range o.Species {
		solver.StreamSpecies(sto, s)
	}
	for m, solver := range o.Planktonic {
		solver.StreamPlanktonic(sto, m)
	}

	if o.Opt.ValidationEvery <= 0 || (o.Iter+1)%o.Opt.ValidationEvery == 0 {
		if err := o.checkNumerical(); err != nil {
			return err
		}
	}

	o.Iter++
	return nil
}

// addStat accumulates wall-clock time spent since t0 into dst, only when
// performance tracking is enabled (§6 "wall-clock breakdown when
// performance tracking is on").
func (o *Coordinator) addStat(dst *time.Duration, t0 time.Time) {
	if o.Opt.Stat {
		*dst += time.Since(t0)
	}
}

// Biotic reports whether microbiology stages run this iteration
// (§6, "biotic=false forces enable_kinetics=false and skips all
// microbiology").
func (o *Coordinator) Biotic() bool { return o.Opt.Biotic }

// runEquilibrium solves the per-voxel speciation (§4.5) from each
// component's total concentration, as carried by its bound transport
// species. The result is diagnostic: totals are conserved by
// construction (equilibrium redistributes mass among model species, it
// does not create or destroy it), so nothing is written back into C3's
// lattices here. Non-convergent voxels are simply skipped (§4.5, §7
// "soft" failure policy) — their last valid speciation is unchanged.
func (o *Coordinator) runEquilibrium() {
	sto := o.Sto
	eq := o.Equil
	T := make([]float64, eq.Sys.NComp)
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				for ci, s := range eq.ComponentSpeciesIdx {
					T[ci] = sto.ConcAt(s, i, j, k)
				}
				res := eq.Solver.Solve(T, nil)
				if res.Converged && eq.Cache != nil {
					idx := sto.Index(i, j, k)
					for si, c := range res.C {
						eq.Cache[si][idx] = c
					}
				}
			}
		}
	}
}

// checkNumerical enforces the fatal NaN/Inf gate (§7): any non-finite
// value in a macroscopic field aborts the run with its location.
func (o *Coordinator) checkNumerical() error {
	sto := o.Sto
	if err := checkFinite(sto.FField(), "flow distribution", o.Iter); err != nil {
		return err
	}
	for s := range o.Species {
		if err := checkFinite(sto.GField(s), fmt.Sprintf("species %d distribution", s), o.Iter); err != nil {
			return err
		}
	}
	for m := 0; m < sto.NMicrobes; m++ {
		if err := checkFinite(sto.BField(m), fmt.Sprintf("microbe %d biomass", m), o.Iter); err != nil {
			return err
		}
		if bg := sto.BGField(m); bg != nil {
			if err := checkFinite(bg, fmt.Sprintf("microbe %d planktonic distribution", m), o.Iter); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkFinite scans field for the first NaN/Inf value and reports it
// tagged by name and flat index.
func checkFinite(field []float64, name string, iter int) error {
	for idx, v := range field {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return chk.Err("sim: non-finite value in %s at flat index %d, iteration %d", name, idx, iter)
		}
	}
	return nil
}

// Run drives Step for n iterations (or until a fatal error), printing a
// structured clean-exit summary on success (§7).
func (o *Coordinator) Run(n int) (Summary, error) {
	o.StartedAt = time.Now()
	for t := 0; t < n; t++ {
		if err := o.Step(); err != nil {
			io.PfRed("sim: fatal error at iteration %d: %v\n", o.Iter, err)
			return Summary{Iterations: o.Iter, Elapsed: time.Since(o.StartedAt), CATriggers: o.CATriggers}, err
		}
	}
	sum := Summary{
		Iterations:      o.Iter,
		Elapsed:         time.Since(o.StartedAt),
		CATriggers:      o.CATriggers,
		PercolationFrze: o.Geometry != nil && o.Geometry.Frozen(),
	}
	if o.Equil != nil {
		sum.EquilFailures = o.Equil.Solver.Failures()
	}
	io.PfGreen("sim: %d iterations complete in %v (CA triggers: %d)\n", sum.Iterations, sum.Elapsed, sum.CATriggers)
	if o.Opt.Stat {
		io.Pf("sim: wall-clock breakdown -- transport: %v, kinetics: %v, equilibrium: %v, ca: %v, geometry: %v\n",
			o.Stat.Transport, o.Stat.Kinetics, o.Stat.Equilibrium, o.Stat.CA, o.Stat.Geometry)
	}
	return sum, nil
}
