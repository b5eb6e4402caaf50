// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"os"
	"testing"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

func Test_out01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("out01: report reduces species min/avg/max and biomass growth")

	sto := lattice.NewStore(2, 1, 1, 1, 1)
	var g [lattice.NQ7]float64
	g[0] = 1.0
	sto.SetG(0, 0, 0, 0, g[:])
	g[0] = 3.0
	sto.SetG(0, 1, 0, 0, g[:])
	sto.SetB(0, 0, 0, 0, 5.0)
	sto.SetB(0, 1, 0, 0, 5.0)

	r := BuildReport(sto, 10, []string{"tracer"}, []string{"microbe1"}, []float64{5.0}, 2, 0)
	chk.Scalar(tst, "min", 1e-12, r.Species[0].Min, 1.0)
	chk.Scalar(tst, "max", 1e-12, r.Species[0].Max, 3.0)
	chk.Scalar(tst, "avg", 1e-12, r.Species[0].Avg, 2.0)
	chk.Scalar(tst, "biomass max", 1e-12, r.Biomass[0].Max, 5.0)
	chk.Scalar(tst, "growth pct", 1e-9, r.Biomass[0].GrowthPct, 100.0)
}

func Test_out02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("out02: checkpoint round-trips every lattice field")

	sto := lattice.NewStore(3, 2, 2, 1, 1)
	sto.AllocPlanktonic(0)
	var g [lattice.NQ7]float64
	g[0] = 0.7
	sto.SetG(0, 1, 1, 1, g[:])
	sto.SetBG(0, 1, 1, 1, g[:])
	sto.SetMask(0, 0, 0, lattice.Solid)
	sto.SetDist(2, 1, 1, 3.0)

	dir, err := os.MkdirTemp("", "complab3d_chk")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	snap := Snapshot(sto, 42)
	WriteCheckpoint(dir, "run", snap)
	loaded := ReadCheckpoint(dir, "run")
	if loaded.Iter != 42 {
		tst.Errorf("expected iteration 42, got %d", loaded.Iter)
	}

	restored := Restore(loaded)
	if restored.GetMask(0, 0, 0) != lattice.Solid {
		tst.Errorf("expected restored mask SOLID at (0,0,0)")
	}
	chk.Scalar(tst, "dist", 1e-12, restored.GetDist(2, 1, 1), 3.0)
	chk.Scalar(tst, "species g[0]", 1e-12, restored.ConcAt(0, 1, 1, 1), 0.7)
	chk.Scalar(tst, "planktonic bg[0]", 1e-12, restored.GetBG(0, 1, 1, 1)[0], 0.7)
}
