// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package out

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
)

// Checkpoint is an opaque binary dump of every lattice, suitable for
// restart (§6 "Checkpoints are opaque binary dumps of every lattice").
// Uses a gob-based save/read idiom; no third-party serialization
// library in the retrieved pack targets raw numeric slices better than
// encoding/gob for this.
type Checkpoint struct {
	Nx, Ny, Nz, NSpecies, NMicrobes int
	Iter                            int
	F                               []float64
	G                               [][]float64
	B                               [][]float64
	BG                              [][]float64
	Mask                            []lattice.Class
	Dist                            []float64
}

// Snapshot builds a Checkpoint from the current lattice state.
func Snapshot(sto *lattice.Store, iter int) Checkpoint {
	c := Checkpoint{
		Nx: sto.Nx, Ny: sto.Ny, Nz: sto.Nz,
		NSpecies: sto.NSpecies, NMicrobes: sto.NMicrobes,
		Iter: iter,
		F:    append([]float64(nil), sto.FField()...),
		Mask: append([]lattice.Class(nil), sto.MaskField()...),
		Dist: append([]float64(nil), sto.DistField()...),
	}
	c.G = make([][]float64, sto.NSpecies)
	for s := 0; s < sto.NSpecies; s++ {
		c.G[s] = append([]float64(nil), sto.GField(s)...)
	}
	c.B = make([][]float64, sto.NMicrobes)
	c.BG = make([][]float64, sto.NMicrobes)
	for m := 0; m < sto.NMicrobes; m++ {
		c.B[m] = append([]float64(nil), sto.BField(m)...)
		if bg := sto.BGField(m); bg != nil {
			c.BG[m] = append([]float64(nil), bg...)
		}
	}
	return c
}

// WriteCheckpoint serialises a Checkpoint with encoding/gob and writes
// it atomically (write to a temp file, then rename) so a crash mid-write
// never corrupts the restart file.
func WriteCheckpoint(dir, name string, c Checkpoint) {
	if err := os.MkdirAll(dir, 0777); err != nil {
		chk.Panic("out: cannot create checkpoint directory %q: %v", dir, err)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c); err != nil {
		chk.Panic("out: cannot encode checkpoint: %v", err)
	}
	final := filepath.Join(dir, name+".chk")
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0666); err != nil {
		chk.Panic("out: cannot write checkpoint temp file %q: %v", tmp, err)
	}
	if err := os.Rename(tmp, final); err != nil {
		chk.Panic("out: cannot rename checkpoint temp file into place: %v", err)
	}
	io.PfGreen("out: checkpoint written to %s\n", final)
}

// ReadCheckpoint decodes a checkpoint file written by WriteCheckpoint.
func ReadCheckpoint(dir, name string) Checkpoint {
	path := filepath.Join(dir, name+".chk")
	b, err := os.ReadFile(path)
	if err != nil {
		chk.Panic("out: cannot read checkpoint file %q: %v", path, err)
	}
	var c Checkpoint
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&c); err != nil {
		chk.Panic("out: cannot decode checkpoint file %q: %v", path, err)
	}
	return c
}

// Restore writes a Checkpoint's fields back into a freshly allocated
// Store of matching shape.
func Restore(c Checkpoint) *lattice.Store {
	sto := lattice.NewStore(c.Nx, c.Ny, c.Nz, c.NSpecies, c.NMicrobes)
	copy(sto.FField(), c.F)
	for s := 0; s < c.NSpecies; s++ {
		copy(sto.GField(s), c.G[s])
	}
	for m := 0; m < c.NMicrobes; m++ {
		copy(sto.BField(m), c.B[m])
		if c.BG[m] != nil {
			sto.AllocPlanktonic(m)
			copy(sto.BGField(m), c.BG[m])
		}
	}
	copy(sto.MaskField(), c.Mask)
	copy(sto.DistField(), c.Dist)
	return sto
}
