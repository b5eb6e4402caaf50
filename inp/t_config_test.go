// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

const sampleConfig = `{
	"path": {"indir": "", "outdir": "", "chkfile": "run01"},
	"mode": {"biotic": true, "enable_kinetics": true, "enable_equilibrium": false},
	"domain": {
		"nx": 2, "ny": 1, "nz": 1, "dx": 1e-6, "unit": "um",
		"geometry_file": "tags.txt",
		"tags": {"pore": 1, "solid": 2, "bounce_back": 3, "microbe_k": [4]}
	},
	"lb": {"deltaP": 0.001, "tau": 0.8},
	"chemistry": {
		"n_s": 1,
		"species": [{"name": "o2", "c_0": 1.0, "d_pore": 0.2, "d_biofilm": 0.02, "left_bc": "Dirichlet", "left_val": 1.0, "right_bc": "Neumann", "right_val": 0}]
	},
	"microbiology": {
		"n_m": 1, "b_max": 1.0, "phi_b": 0.5, "ca_method": "fraction", "ca_seed": 7,
		"microbes": [{
			"name": "biofilm1", "solver": "CA", "reaction": "kinetics",
			"initial_densities": [0.3],
			"k_decay": 0.01, "half_saturation": [0.1], "uptake_flux": [0.5], "mu_max": 1.5
		}]
	},
	"equilibrium": {"enabled": false},
	"io": {"vti_interval": 10, "chk_interval": 100}
}`

func writeSample(tst *testing.T) (dir string, cfgPath string) {
	dir, err := os.MkdirTemp("", "complab3d_inp")
	if err != nil {
		tst.Fatalf("cannot create temp dir: %v", err)
	}
	cfgPath = filepath.Join(dir, "run01.cl3")
	if err := os.WriteFile(cfgPath, []byte(sampleConfig), 0666); err != nil {
		tst.Fatalf("cannot write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tags.txt"), []byte("1 4"), 0666); err != nil {
		tst.Fatalf("cannot write geometry file: %v", err)
	}
	return dir, cfgPath
}

func Test_inp01(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inp01: ReadConfig parses every section and fills defaults")

	dir, cfgPath := writeSample(tst)
	defer os.RemoveAll(dir)

	cfg := ReadConfig(cfgPath)
	if cfg.Domain.Nx != 2 || cfg.Domain.Ny != 1 || cfg.Domain.Nz != 1 {
		tst.Fatalf("unexpected domain size: %+v", cfg.Domain)
	}
	if len(cfg.Chemistry.Species) != 1 || cfg.Chemistry.Species[0].Name != "o2" {
		tst.Fatalf("unexpected species list: %+v", cfg.Chemistry.Species)
	}
	if cfg.LB.NSInner1MaxIter != 20000 {
		tst.Fatalf("expected SetDefault to fill NSInner1MaxIter, got %d", cfg.LB.NSInner1MaxIter)
	}
	if cfg.Key != "run01" {
		tst.Fatalf("expected key 'run01', got %q", cfg.Key)
	}
}

func Test_inp02(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inp02: PostProcess panics on a species-count mismatch")

	dir, cfgPath := writeSample(tst)
	defer os.RemoveAll(dir)
	_ = cfgPath

	var cfg Config
	cfg.SetDefault()
	cfg.Domain.Nx, cfg.Domain.Ny, cfg.Domain.Nz = 1, 1, 1
	cfg.Chemistry.NS = 2 // does not match the (empty) species list

	defer func() {
		if r := recover(); r == nil {
			tst.Fatalf("expected PostProcess to panic on chemistry.n_s mismatch")
		}
	}()
	cfg.PostProcess()
}

func Test_inp03(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inp03: biotic=false forces enable_kinetics=false")

	var cfg Config
	cfg.SetDefault()
	cfg.Domain.Nx, cfg.Domain.Ny, cfg.Domain.Nz = 1, 1, 1
	cfg.Mode.Biotic = false
	cfg.Mode.EnableKinetics = true
	cfg.PostProcess()
	if cfg.Mode.EnableKinetics {
		tst.Fatalf("expected PostProcess to force EnableKinetics=false when Biotic=false")
	}
}

func Test_inp04(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inp04: LoadGeometry installs mask and initial biomass from a tag file")

	dir, cfgPath := writeSample(tst)
	defer os.RemoveAll(dir)
	cfg := ReadConfig(cfgPath)
	cfg.Path.InDir = dir

	sto := cfg.NewStore()
	cfg.LoadGeometry(sto)

	if sto.GetMask(0, 0, 0) != lattice.Pore {
		tst.Fatalf("expected voxel (0,0,0) to be PORE, got %v", sto.GetMask(0, 0, 0))
	}
	if sto.GetMask(1, 0, 0) != lattice.Biofilm(0) {
		tst.Fatalf("expected voxel (1,0,0) to be BIOFILM_0, got %v", sto.GetMask(1, 0, 0))
	}
	chk.Scalar(tst, "initial biomass", 1e-12, sto.GetB(0, 1, 0, 0), 0.3)
}

func Test_inp05(tst *testing.T) {

	//verbose()
	chk.PrintTitle("inp05: the by-name lookups resolve chemistry and microbiology entries")

	dir, cfgPath := writeSample(tst)
	defer os.RemoveAll(dir)
	cfg := ReadConfig(cfgPath)

	if cfg.SpeciesIndex("o2") != 0 {
		tst.Fatalf("expected o2 at index 0")
	}
	if cfg.SpeciesIndex("missing") != -1 {
		tst.Fatalf("expected -1 for a missing species")
	}
	if cfg.MicrobeIndex("biofilm1") != 0 {
		tst.Fatalf("expected biofilm1 at index 0")
	}
}
