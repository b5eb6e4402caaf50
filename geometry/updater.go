// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package geometry implements the mask/dynamics reconciliation and
// distance-field rebuild (C7): the sole writer of the voxel mask outside
// initial setup.
package geometry

import (
	"github.com/cpmech/complab3d/flow"
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/io"
)

// Config holds the promotion/demotion threshold (§3, §4.7).
type Config struct {
	PhiB float64 // fraction of BMax at which PORE promotes to BIOFILM_k
	BMax float64
}

// Updater reconciles the mask and distance field whenever the CA
// spreader reports a change, and re-converges the flow solver. It is the
// only writer of the mask outside the initial geometry load (§3, §4.7).
type Updater struct {
	Cfg      Config
	Microbes []int // sessile microbe indices; BIOFILM_k uses k = microbe index

	consecutiveFailures int
	frozen              bool
}

// NewUpdater returns a geometry updater for the given sessile microbes.
func NewUpdater(cfg Config, microbes []int) *Updater {
	return &Updater{Cfg: cfg, Microbes: microbes}
}

// UpdateMask reconciles PORE<->BIOFILM_k transitions (§4.7 step 1): a
// PORE voxel whose total sessile biomass crosses PhiB*BMax is promoted
// to the biofilm class of its dominant microbe; a BIOFILM_k voxel whose
// biomass recedes below that threshold reverts to PORE. Per-voxel LB
// relaxation parameters need no separate reinstall step (§4.7 step 2):
// flow.Solver.Collide and transport.Solver.collide both dispatch tau/omega
// from the live mask, so updating the mask here is itself the reinstall.
func (o *Updater) UpdateMask(sto *lattice.Store) bool {
	changed := false
	threshold := o.Cfg.PhiB * o.Cfg.BMax
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				c := sto.GetMask(i, j, k)
				if c == lattice.Solid || c == lattice.BounceBack {
					continue
				}
				var total float64
				dominant, dominantB := -1, 0.0
				for _, m := range o.Microbes {
					b := sto.GetB(m, i, j, k)
					total += b
					if b > dominantB {
						dominant, dominantB = m, b
					}
				}
				switch {
				case c == lattice.Pore && total >= threshold && dominant >= 0:
					sto.SetMask(i, j, k, lattice.Biofilm(dominant))
					changed = true
				case c != lattice.Pore && total < threshold:
					sto.SetMask(i, j, k, lattice.Pore)
					changed = true
				}
			}
		}
	}
	return changed
}

// RebuildDistance recomputes the distance-to-solid field by a
// multi-source BFS from every SOLID voxel (§4.7 step 3, §3 "Distance
// field"), using Manhattan steps over face-adjacency.
func (o *Updater) RebuildDistance(sto *lattice.Store) {
	dist := sto.DistField()
	const unset = -1.0
	for i := range dist {
		dist[i] = unset
	}
	var queue []int
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				if sto.GetMask(i, j, k) == lattice.Solid {
					idx := sto.Index(i, j, k)
					dist[idx] = 0
					queue = append(queue, idx)
				}
			}
		}
	}
	for qi := 0; qi < len(queue); qi++ {
		idx := queue[qi]
		i, j, k := invertIndex(sto, idx)
		d := dist[idx]
		for _, nb := range sto.NeighboursFace(i, j, k) {
			if !nb.Valid {
				continue
			}
			nidx := sto.Index(nb.I, nb.J, nb.K)
			if dist[nidx] == unset {
				dist[nidx] = d + 1
				queue = append(queue, nidx)
			}
		}
	}
	// voxels the BFS never reaches (only possible when the domain has no
	// SOLID voxel at all) fall back to zero rather than -1.
	for i := range dist {
		if dist[i] == unset {
			dist[i] = 0
		}
	}
}

func invertIndex(sto *lattice.Store, idx int) (i, j, k int) {
	j = idx % sto.Ny
	rest := idx / sto.Ny
	k = rest % sto.Nz
	i = rest / sto.Nz
	return
}

// Reconcile runs the full §4.7 sequence after a CA-reported geometry
// change: update mask, rebuild distance field, re-converge flow with a
// reduced iteration cap. Two consecutive re-convergence failures declare
// a percolation collapse (§4.7 step 4): the flow field is frozen at its
// last valid state, a warning is emitted, and collapsed=true tells the
// coordinator to run transport diffusion-only from then on. Velocity
// re-coupling (§4.7 step 5) needs no action: flow.Solver.Velocity always
// reads the live f field, which this call leaves converged or frozen.
func (o *Updater) Reconcile(sto *lattice.Store, flowSolver *flow.Solver, reconvergeMaxIter int) (collapsed bool, changed bool) {
	changed = o.UpdateMask(sto)
	if !changed {
		return o.frozen, false
	}
	o.RebuildDistance(sto)

	if o.frozen {
		return true, true
	}

	_, converged := flowSolver.Run(sto, reconvergeMaxIter)
	if !converged {
		o.consecutiveFailures++
		if o.consecutiveFailures >= 2 {
			o.frozen = true
			io.PfRed("geometry: percolation collapse detected, flow frozen at last valid state; transport continues diffusion-only\n")
			return true, true
		}
		return false, true
	}
	o.consecutiveFailures = 0
	return false, true
}

// Frozen reports whether a percolation collapse has frozen the flow
// field (§4.7 step 4).
func (o *Updater) Frozen() bool { return o.frozen }
