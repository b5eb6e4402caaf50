// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package geometry

import (
	"testing"

	"github.com/cpmech/complab3d/flow"
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

func Test_geometry01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geometry01: mask promotes PORE to BIOFILM_k above threshold")

	sto := lattice.NewStore(3, 1, 1, 0, 1)
	sto.SetB(0, 1, 0, 0, 0.9)

	upd := NewUpdater(Config{PhiB: 0.5, BMax: 1.0}, []int{0})
	changed := upd.UpdateMask(sto)
	if !changed {
		tst.Fatalf("expected mask update to report a change")
	}
	got := sto.GetMask(1, 0, 0)
	want := lattice.Biofilm(0)
	if got != want {
		tst.Errorf("expected mask %v, got %v", want, got)
	}
}

func Test_geometry02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geometry02: mask demotes BIOFILM_k to PORE below threshold")

	sto := lattice.NewStore(3, 1, 1, 0, 1)
	sto.SetMask(1, 0, 0, lattice.Biofilm(0))
	sto.SetB(0, 1, 0, 0, 0.1)

	upd := NewUpdater(Config{PhiB: 0.5, BMax: 1.0}, []int{0})
	changed := upd.UpdateMask(sto)
	if !changed {
		tst.Fatalf("expected mask update to report a change")
	}
	if sto.GetMask(1, 0, 0) != lattice.Pore {
		tst.Errorf("expected voxel to revert to PORE")
	}
}

func Test_geometry03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geometry03: distance field is zero at solid and increases away from it")

	sto := lattice.NewStore(5, 1, 1, 0, 0)
	sto.SetMask(0, 0, 0, lattice.Solid)

	upd := NewUpdater(Config{PhiB: 0.5, BMax: 1.0}, nil)
	upd.RebuildDistance(sto)

	prev := -1.0
	for i := 0; i < sto.Nx; i++ {
		d := sto.GetDist(i, 0, 0)
		if i == 0 {
			chk.Scalar(tst, "dist(solid)", 1e-12, d, 0)
		} else if d < prev {
			tst.Errorf("expected non-decreasing distance away from solid, got dist(%d)=%v < dist(%d)=%v", i, d, i-1, prev)
		}
		prev = d
	}
}

func Test_geometry04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("geometry04: reconcile re-converges flow after a mask change")

	sto := lattice.NewStore(4, 3, 3, 0, 1)
	p := flow.DefaultParams(1)
	p.DeltaP = 0
	solver := flow.NewSolver(p, sto)
	var eq [lattice.NQ19]float64
	flow.Equilibrium(&eq, 1.0, 0, 0, 0)
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				sto.SetF(i, j, k, eq[:])
			}
		}
	}

	sto.SetB(0, 1, 1, 1, 0.9)
	upd := NewUpdater(Config{PhiB: 0.5, BMax: 1.0}, []int{0})
	collapsed, changed := upd.Reconcile(sto, solver, 500)
	if collapsed {
		tst.Errorf("did not expect percolation collapse in a quiescent box")
	}
	if !changed {
		tst.Errorf("expected a mask change to be reported")
	}
}
