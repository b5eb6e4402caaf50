// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ca

import (
	"testing"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

func Test_ca01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ca01: fraction mode conserves total biomass")

	sto := lattice.NewStore(5, 5, 1, 0, 1)
	for i := 0; i < sto.Nx; i++ {
		for j := 0; j < sto.Ny; j++ {
			sto.SetMask(i, j, 0, lattice.Biofilm(0))
		}
	}
	sto.SetB(0, 2, 2, 0, 10.0)

	var before float64
	bf := sto.BField(0)
	for _, v := range bf {
		before += v
	}

	cfg := Config{BMax: 1.0, Mode: FractionMode, IterCap: 2000, Seed: 1}
	spreader := NewSpreader(cfg, []int{0})
	changed, err := spreader.Run(sto, nil)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		tst.Errorf("expected redistribution to occur")
	}

	var after float64
	for _, v := range bf {
		after += v
	}
	chk.Scalar(tst, "total biomass", 1e-6, after, before)

	maxB := lattice.ReduceMax(bf)
	if maxB > cfg.BMax+1e-6 {
		tst.Errorf("expected max biomass <= BMax after redistribution, got %v", maxB)
	}
}

func Test_ca02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ca02: half mode conserves total biomass")

	sto := lattice.NewStore(6, 6, 1, 0, 1)
	for i := 0; i < sto.Nx; i++ {
		for j := 0; j < sto.Ny; j++ {
			sto.SetMask(i, j, 0, lattice.Biofilm(0))
			sto.SetDist(i, j, 0, float64(i+j))
		}
	}
	sto.SetB(0, 3, 3, 0, 20.0)

	bf := sto.BField(0)
	var before float64
	for _, v := range bf {
		before += v
	}

	cfg := Config{BMax: 1.0, Mode: HalfMode, IterCap: 2000, Seed: 42}
	spreader := NewSpreader(cfg, []int{0})
	_, err := spreader.Run(sto, nil)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	var after float64
	for _, v := range bf {
		after += v
	}
	chk.Scalar(tst, "total biomass", 1e-6, after, before)
}

func Test_ca03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("ca03: below cap is a no-op")

	sto := lattice.NewStore(3, 3, 1, 0, 1)
	sto.SetMask(0, 0, 0, lattice.Biofilm(0))
	sto.SetB(0, 0, 0, 0, 0.2)

	cfg := Config{BMax: 1.0, Mode: FractionMode, IterCap: 2000}
	spreader := NewSpreader(cfg, []int{0})
	changed, err := spreader.Run(sto, nil)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if changed {
		tst.Errorf("expected no redistribution below cap")
	}
}
