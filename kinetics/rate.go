// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package kinetics implements the per-voxel source/sink operator (C4):
// reads species and biomass concentrations, evaluates a rate law, and
// writes deltas that are later applied with a mass-balance-preserving
// clamp (§4.4).
package kinetics

import "github.com/cpmech/complab3d/lattice"

// Rates holds one rate-law evaluation at a single voxel: dC/dt for every
// species and dB/dt for the evaluating microbe.
type Rates struct {
	RC []float64 // len == NSpecies
	RB float64
}

// RateFunc is the externally supplied per-voxel kinetics law (§6,
// "Kinetics extension point"): pure, deterministic, no I/O or global
// state. C is a read-only snapshot of every species concentration at
// the voxel; B is the evaluating microbe's own biomass density there.
type RateFunc func(C []float64, B float64, mask lattice.Class) Rates

// allocators is an allocator-registry idiom: rate laws are registered
// by name at package init time and instantiated from config parameters,
// instead of being hard-wired into the kinetics solver.
var allocators = make(map[string]func(p Params) RateFunc)

// SetAllocator registers a named rate-law constructor. Call from an
// init() func.
func SetAllocator(name string, fn func(p Params) RateFunc) {
	allocators[name] = fn
}

// Params carries one microbe's kinetics parameters, aligned index-wise
// with the simulation's species list (§6 Microbiology section).
type Params struct {
	MuMax      float64   // maximum specific growth rate
	Ks         []float64 // half-saturation concentration per species
	KDecay     float64   // first-order decay rate
	Yield      []float64 // yield coefficient per species (dB per dC consumed)
	UptakeFlux []float64 // per-species uptake flux; not read by the registered monod and none rate laws
}

// Allocate instantiates a registered rate law by name (§6 "reaction").
func Allocate(name string, p Params) (RateFunc, bool) {
	fn, ok := allocators[name]
	if !ok {
		return nil, false
	}
	return fn(p), true
}

func init() {
	SetAllocator("monod", newMonod)
	SetAllocator("none", newNone)
}

// newMonod builds the canonical single/multi-substrate Monod law (§4.4):
// mu = mu_max * prod_s( S_s/(Ks_s+S_s) ); dB/dt = (mu-k_d)*B;
// dS_s/dt = -mu*B/Y_s for every species s with a non-zero yield Y_s.
func newMonod(p Params) RateFunc {
	return func(C []float64, B float64, mask lattice.Class) Rates {
		mu := p.MuMax
		for s, ks := range p.Ks {
			if ks <= 0 {
				continue
			}
			S := C[s]
			if S < 0 {
				S = 0
			}
			mu *= S / (ks + S)
		}
		rc := make([]float64, len(C))
		for s, y := range p.Yield {
			if y == 0 {
				continue
			}
			rc[s] = -mu * B / y
		}
		return Rates{RC: rc, RB: (mu - p.KDecay) * B}
	}
}

// newNone returns the identically-zero rate law (§6 "reaction: none").
func newNone(p Params) RateFunc {
	return func(C []float64, B float64, mask lattice.Class) Rates {
		return Rates{RC: make([]float64, len(C))}
	}
}
