// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

import (
	"testing"

	"github.com/cpmech/gosl/chk"
)

func Test_store01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("store01: get/set fields")

	sto := NewStore(4, 3, 2, 2, 1)
	chk.IntAssert(sto.N(), 24)

	// mask defaults to Pore everywhere
	for i := 0; i < 4; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 2; k++ {
				if sto.GetMask(i, j, k) != Pore {
					tst.Errorf("default mask should be Pore")
				}
			}
		}
	}

	// set/get biomass
	sto.SetB(0, 1, 1, 1, 42.0)
	chk.Scalar(tst, "B", 1e-15, sto.GetB(0, 1, 1, 1), 42.0)

	// delta buffers start at zero and accumulate
	sto.AddDC(0, 1, 1, 1, 1.5)
	sto.AddDC(0, 1, 1, 1, 2.5)
	chk.Scalar(tst, "dC", 1e-15, sto.GetDC(0, 1, 1, 1), 4.0)
	sto.ZeroDeltas()
	chk.Scalar(tst, "dC after zero", 1e-15, sto.GetDC(0, 1, 1, 1), 0.0)

	// neighbours at a corner: 3 invalid, 3 valid
	nb := sto.NeighboursFace(0, 0, 0)
	nvalid := 0
	for _, n := range nb {
		if n.Valid {
			nvalid++
		}
	}
	chk.IntAssert(nvalid, 3)

	// total biomass reduction
	sto.SetB(0, 0, 0, 0, 10)
	sto.SetB(0, 2, 1, 0, 5)
	tot := make([]float64, sto.N())
	sto.TotalBiomass(tot)
	chk.Scalar(tst, "sum(Btot)", 1e-12, ReduceSum(tot), 10+5+42)
	chk.Scalar(tst, "max(Btot)", 1e-12, ReduceMax(tot), 42.0)
}

func Test_store02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("store02: class helpers")

	if !Pore.IsFluid() {
		tst.Errorf("Pore must be fluid")
	}
	if Solid.IsFluid() {
		tst.Errorf("Solid must not be fluid")
	}
	c := Biofilm(2)
	m, ok := c.IsBiofilm()
	if !ok || m != 2 {
		tst.Errorf("Biofilm(2) roundtrip failed: m=%d ok=%v", m, ok)
	}
	if c.String() != "BIOFILM_2" {
		tst.Errorf("String() = %q", c.String())
	}
}
