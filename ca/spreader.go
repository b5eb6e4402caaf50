// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package ca implements the cellular-automaton biomass spreader (C6):
// detects voxels whose total sessile biomass exceeds the cap and
// redistributes the excess to neighbours using a two-phase
// push-then-pull pattern that is insensitive to voxel visitation order.
package ca

import (
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/rnd"
)

// Mode selects the redistribution rule (§4.6, §6 "CA_method").
type Mode int

const (
	NoneMode Mode = iota
	FractionMode
	HalfMode
)

// Config holds the spreader's tunables.
type Config struct {
	BMax    float64
	Mode    Mode
	IterCap int   // default 2000 (§4.6 step 4)
	Seed    int64 // 0 => time-derived, gosl/rnd convention
}

// DefaultConfig returns §4.6's documented defaults.
func DefaultConfig() Config { return Config{IterCap: 2000} }

// Spreader redistributes overflow biomass among the given sessile
// microbes (planktonic microbes are advected by C3 instead and never
// participate here).
type Spreader struct {
	Cfg      Config
	Microbes []int // sessile microbe indices
}

// NewSpreader returns a spreader seeded per Cfg.Seed.
func NewSpreader(cfg Config, microbes []int) *Spreader {
	rnd.Init(cfg.Seed)
	return &Spreader{Cfg: cfg, Microbes: microbes}
}

// Run executes the redistribution loop (§4.6) until every voxel's total
// sessile biomass is at or below BMax, or IterCap passes are exhausted
// (a fatal condition, per §4.6 step 4 and §7's CA-stuck-loop entry).
// refreshDistance is invoked every 50 passes, mirroring the geometry
// updater's distance-field rebuild becoming necessary as biofilm spreads
// into new voxels. changed reports whether any redistribution occurred,
// which is the coordinator's signal to invoke the geometry updater.
func (o *Spreader) Run(sto *lattice.Store, refreshDistance func(*lattice.Store)) (changed bool, err error) {
	if o.Cfg.Mode == NoneMode || len(o.Microbes) == 0 {
		return false, nil
	}

	n := sto.N()
	btot := make([]float64, n)
	o.sumTotal(sto, btot)
	if lattice.ReduceMax(btot) <= o.Cfg.BMax {
		return false, nil
	}

	for pass := 1; pass <= o.Cfg.IterCap; pass++ {
		donors := o.collectDonors(sto, btot)
		if len(donors) == 0 {
			break
		}

		sto.ZeroShoves()
		deduct := make([][]float64, len(o.Microbes))
		for mi := range deduct {
			deduct[mi] = make([]float64, n)
		}

		switch o.Cfg.Mode {
		case FractionMode:
			o.fractionPass(sto, btot, donors, deduct)
		case HalfMode:
			o.halfPass(sto, btot, donors, deduct)
		}

		o.applyPass(sto, btot, deduct)
		changed = true

		if pass%50 == 0 && refreshDistance != nil {
			refreshDistance(sto)
		}
		if lattice.ReduceMax(btot) <= o.Cfg.BMax {
			return changed, nil
		}
	}

	if lattice.ReduceMax(btot) > o.Cfg.BMax {
		return changed, chk.Err("ca: redistribution did not converge within iter_cap=%d passes", o.Cfg.IterCap)
	}
	return changed, nil
}

func (o *Spreader) sumTotal(sto *lattice.Store, dst []float64) {
	for i := range dst {
		dst[i] = 0
	}
	for _, m := range o.Microbes {
		f := sto.BField(m)
		for i, v := range f {
			dst[i] += v
		}
	}
}

func (o *Spreader) collectDonors(sto *lattice.Store, btot []float64) []int {
	var donors []int
	for idx, v := range btot {
		if v > o.Cfg.BMax {
			donors = append(donors, idx)
		}
	}
	return donors
}

// coords inverts the store's x-outer/z-middle/y-inner flat index.
func coords(sto *lattice.Store, idx int) (i, j, k int) {
	j = idx % sto.Ny
	rest := idx / sto.Ny
	k = rest % sto.Nz
	i = rest / sto.Nz
	return
}

type elig struct {
	idx int
	dist float64
}

func (o *Spreader) eligibleNeighbours(sto *lattice.Store, i, j, k int, btot []float64) []elig {
	var out []elig
	for _, nb := range sto.NeighboursFace(i, j, k) {
		if !nb.Valid {
			continue
		}
		if !sto.GetMask(nb.I, nb.J, nb.K).IsFluid() {
			continue
		}
		nidx := sto.Index(nb.I, nb.J, nb.K)
		out = append(out, elig{idx: nidx, dist: sto.GetDist(nb.I, nb.J, nb.K)})
	}
	return out
}

// fractionPass implements §4.6's fraction mode: each donor sends E/n to
// every eligible neighbour, apportioned across microbes in proportion to
// their share of the donor's total biomass.
func (o *Spreader) fractionPass(sto *lattice.Store, btot []float64, donors []int, deduct [][]float64) {
	for _, idx := range donors {
		i, j, k := coords(sto, idx)
		neighbours := o.eligibleNeighbours(sto, i, j, k, btot)
		if len(neighbours) == 0 {
			continue
		}
		E := btot[idx] - o.Cfg.BMax
		share := E / float64(len(neighbours))
		total := btot[idx]
		for mi, m := range o.Microbes {
			frac := 0.0
			if total > 0 {
				frac = sto.GetB(m, i, j, k) / total
			}
			amtPerNeighbour := share * frac
			for _, nb := range neighbours {
				sto.ShoveField(m)[nb.idx] += amtPerNeighbour
			}
			deduct[mi][idx] += amtPerNeighbour * float64(len(neighbours))
		}
	}
}

// halfPass implements §4.6's half mode: each donor sends E/2, first
// filling neighbours with headroom (random order), then giving whatever
// is left of E/2 to the neighbour closest to solid (ties random). The
// other half of the excess stays with the donor for the next pass.
func (o *Spreader) halfPass(sto *lattice.Store, btot []float64, donors []int, deduct [][]float64) {
	for _, idx := range donors {
		i, j, k := coords(sto, idx)
		neighbours := o.eligibleNeighbours(sto, i, j, k, btot)
		if len(neighbours) == 0 {
			continue
		}
		E := btot[idx] - o.Cfg.BMax
		amt := E / 2.0
		remaining := amt
		sent := 0.0

		order := shuffled(len(neighbours))
		for _, oi := range order {
			if remaining <= 0 {
				break
			}
			nb := neighbours[oi]
			headroom := o.Cfg.BMax - btot[nb.idx]
			if headroom <= 0 {
				continue
			}
			send := remaining
			if headroom < send {
				send = headroom
			}
			o.push(sto, nb.idx, send, idx, btot[idx])
			remaining -= send
			sent += send
		}

		if remaining > 1e-15 {
			best, ok := closestToSolid(neighbours)
			if ok {
				o.push(sto, best.idx, remaining, idx, btot[idx])
				sent += remaining
				remaining = 0
			}
		}

		if sent > 0 {
			total := btot[idx]
			for mi, m := range o.Microbes {
				frac := 0.0
				if total > 0 {
					frac = sto.GetB(m, i, j, k) / total
				}
				deduct[mi][idx] += sent * frac
			}
		}
	}
}

// push apportions amount across microbes at the donor voxel (by their
// share of its total biomass) and shoves each share into the
// destination's per-microbe buffer.
func (o *Spreader) push(sto *lattice.Store, destIdx int, amount float64, donorIdx int, donorTotal float64) {
	di, dj, dk := coords(sto, donorIdx)
	for _, m := range o.Microbes {
		frac := 0.0
		if donorTotal > 0 {
			frac = sto.GetB(m, di, dj, dk) / donorTotal
		}
		sto.ShoveField(m)[destIdx] += amount * frac
	}
}

// closestToSolid returns the neighbour with the smallest distance field,
// breaking ties uniformly at random.
func closestToSolid(neighbours []elig) (elig, bool) {
	if len(neighbours) == 0 {
		return elig{}, false
	}
	best := neighbours[0].dist
	var tied []elig
	for _, nb := range neighbours {
		if nb.dist < best {
			best = nb.dist
			tied = tied[:0]
			tied = append(tied, nb)
		} else if nb.dist == best {
			tied = append(tied, nb)
		}
	}
	if len(tied) == 1 {
		return tied[0], true
	}
	return tied[rnd.Int(0, len(tied)-1)], true
}

// shuffled returns a uniformly random permutation of [0,n).
func shuffled(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := rnd.Int(0, i)
		order[i], order[j] = order[j], order[i]
	}
	return order
}

// applyPass adds every voxel's accumulated shove into its per-microbe
// biomass, subtracts the deducted amount from every donor, refreshes
// btot, and zeros the shove buffers for the next pass (the "pull" half
// of push-then-pull).
func (o *Spreader) applyPass(sto *lattice.Store, btot []float64, deduct [][]float64) {
	for mi, m := range o.Microbes {
		field := sto.BField(m)
		shove := sto.ShoveField(m)
		for idx := range field {
			field[idx] += shove[idx] - deduct[mi][idx]
			if field[idx] < 0 {
				field[idx] = 0
			}
		}
	}
	o.sumTotal(sto, btot)
}
