// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package out implements console reporting, CSV metrics, volumetric
// (VTI-style) dumps and checkpoint encode/decode for a CompLaB3D run
// (§6 "Output"), using a colourised Stringer idiom for console output.
package out

import (
	"math"
	"time"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/io"
)

// SpeciesStats holds one species' per-interval envelope (§6 "Console
// logs report per-interval min/avg/max of each species").
type SpeciesStats struct {
	Name          string
	Min, Avg, Max float64
}

// BiomassStats holds one microbe's per-interval envelope and growth.
type BiomassStats struct {
	Name      string
	Max       float64
	GrowthPct float64 // % change relative to the initial total
}

// Report is one console/CSV snapshot taken at a reporting interval.
type Report struct {
	Iteration  int
	Species    []SpeciesStats
	Biomass    []BiomassStats
	CATriggers int
	Elapsed    time.Duration
}

// speciesStats reduces min/avg/max of species s over fluid voxels.
func speciesStats(sto *lattice.Store, s int, name string) SpeciesStats {
	st := SpeciesStats{Name: name}
	first := true
	var sum float64
	var n int
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if !sto.GetMask(i, j, k).IsFluid() {
					continue
				}
				c := sto.ConcAt(s, i, j, k)
				if first {
					st.Min, st.Max = c, c
					first = false
				} else {
					st.Min = math.Min(st.Min, c)
					st.Max = math.Max(st.Max, c)
				}
				sum += c
				n++
			}
		}
	}
	if n > 0 {
		st.Avg = sum / float64(n)
	}
	return st
}

// biomassStats reduces the max of microbe m's density field and its
// percent growth relative to initial0.
func biomassStats(sto *lattice.Store, m int, name string, initial0 float64) BiomassStats {
	bs := BiomassStats{Name: name, Max: lattice.ReduceMax(sto.BField(m))}
	total := lattice.ReduceSum(sto.BField(m))
	if initial0 > 1e-300 {
		bs.GrowthPct = 100.0 * (total - initial0) / initial0
	}
	return bs
}

// BuildReport computes a Report from the current lattice state.
// speciesNames and microbeNames must align with the species/microbe
// axes of sto; initialBiomassTotals[m] is the total biomass of microbe m
// at t=0, used for the growth percentage.
func BuildReport(sto *lattice.Store, iter int, speciesNames, microbeNames []string, initialBiomassTotals []float64, caTriggers int, elapsed time.Duration) Report {
	r := Report{Iteration: iter, CATriggers: caTriggers, Elapsed: elapsed}
	r.Species = make([]SpeciesStats, len(speciesNames))
	for s, name := range speciesNames {
		r.Species[s] = speciesStats(sto, s, name)
	}
	r.Biomass = make([]BiomassStats, len(microbeNames))
	for m, name := range microbeNames {
		init := 0.0
		if m < len(initialBiomassTotals) {
			init = initialBiomassTotals[m]
		}
		r.Biomass[m] = biomassStats(sto, m, name, init)
	}
	return r
}

// Print writes the report to the console using gosl/io's colourised Pf
// family in a structured-summary style (§6, §7 "prints a structured
// summary").
func (r Report) Print() {
	io.PfWhite("--- iteration %d (wall %v) ---\n", r.Iteration, r.Elapsed)
	for _, s := range r.Species {
		io.Pf("  species %-10s min=%.6g avg=%.6g max=%.6g\n", s.Name, s.Min, s.Avg, s.Max)
	}
	for _, b := range r.Biomass {
		io.Pfcyan("  biomass %-10s max=%.6g growth=%+.2f%%\n", b.Name, b.Max, b.GrowthPct)
	}
	if r.CATriggers > 0 {
		io.Pfyel("  CA triggers so far: %d\n", r.CATriggers)
	}
}
