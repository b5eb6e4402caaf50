// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"bufio"
	"image"
	_ "image/png"
	"os"
	"path/filepath"

	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/gosl/chk"
)

// tagToClass converts one geometry-file integer tag to a voxel class
// using the configured material-number mapping (§6 Domain section).
func (o *Config) tagToClass(tag int) lattice.Class {
	t := o.Domain.Tags
	switch tag {
	case t.Pore:
		return lattice.Pore
	case t.Solid:
		return lattice.Solid
	case t.BounceBack:
		return lattice.BounceBack
	}
	for m, mtag := range t.MicrobeTags {
		if tag == mtag {
			return lattice.Biofilm(m)
		}
	}
	chk.Panic("inp: geometry tag %d does not match any entry of the material-number mapping", tag)
	return lattice.Solid
}

// LoadGeometry reads the configured geometry file (or image stack) and
// installs the mask and initial microbe densities into sto (§6
// "Geometry file", "Image-stack ingestion"). The tag ordering is
// x-outer, z-middle, y-inner, matching lattice.Store's own layout, so
// entries are installed in a single linear pass.
func (o *Config) LoadGeometry(sto *lattice.Store) {
	var tags []int
	if o.Domain.ImageStack {
		tags = o.readImageStack()
	} else {
		tags = o.readTagFile()
	}
	want := sto.Nx * sto.Ny * sto.Nz
	if len(tags) != want {
		chk.Panic("inp: geometry file has %d entries, expected Nx*Ny*Nz=%d", len(tags), want)
	}
	idx := 0
	for i := 0; i < sto.Nx; i++ {
		for k := 0; k < sto.Nz; k++ {
			for j := 0; j < sto.Ny; j++ {
				c := o.tagToClass(tags[idx])
				sto.SetMask(i, j, k, c)
				if m, ok := c.IsBiofilm(); ok {
					sto.SetB(m, i, j, k, o.initialDensity(m, tags[idx]))
				}
				idx++
			}
		}
	}
}

// initialDensity returns microbe m's configured initial density for the
// geometry tag it was just promoted from (§6 "initial densities per
// tag"), matched by position against Tags.MicrobeTags.
func (o *Config) initialDensity(m, tag int) float64 {
	mic := o.Microbio.Microbes[m]
	for ti, mtag := range o.Domain.Tags.MicrobeTags {
		if mtag == tag && ti < len(mic.InitialDensities) {
			return mic.InitialDensities[ti]
		}
	}
	if len(mic.InitialDensities) > 0 {
		return mic.InitialDensities[0]
	}
	return 0
}

// readTagFile reads a whitespace-separated list of integer material
// tags, one per voxel, in the ordering documented in §6.
func (o *Config) readTagFile() []int {
	path := filepath.Join(o.Path.InDir, o.Domain.GeometryFile)
	f, err := os.Open(path)
	if err != nil {
		chk.Panic("inp: cannot open geometry file %q: %v", path, err)
	}
	defer f.Close()
	var tags []int
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024*64)
	sc.Split(bufio.ScanWords)
	for sc.Scan() {
		v := 0
		neg := false
		s := sc.Text()
		for i, r := range s {
			if i == 0 && r == '-' {
				neg = true
				continue
			}
			if r < '0' || r > '9' {
				chk.Panic("inp: geometry file %q contains a non-integer token %q", path, s)
			}
			v = v*10 + int(r-'0')
		}
		if neg {
			v = -v
		}
		tags = append(tags, v)
	}
	if err := sc.Err(); err != nil {
		chk.Panic("inp: error reading geometry file %q: %v", path, err)
	}
	return tags
}

// readImageStack decodes a directory of per-slice images along x,
// thresholding each pixel at 128: <128 => PORE tag, >=128 => SOLID tag
// (§6 "Image-stack ingestion (alternate input)"). GeometryFile is
// treated as a glob pattern (e.g. "slice_*.png") relative to InDir.
func (o *Config) readImageStack() []int {
	pattern := filepath.Join(o.Path.InDir, o.Domain.GeometryFile)
	files, err := filepath.Glob(pattern)
	if err != nil || len(files) == 0 {
		chk.Panic("inp: no image-stack slices match %q", pattern)
	}
	if len(files) != o.Domain.Nx {
		chk.Panic("inp: image stack has %d slices, expected Nx=%d", len(files), o.Domain.Nx)
	}
	tags := make([]int, 0, o.Domain.Nx*o.Domain.Ny*o.Domain.Nz)
	pore, solid := o.Domain.Tags.Pore, o.Domain.Tags.Solid
	for _, fn := range files {
		f, err := os.Open(fn)
		if err != nil {
			chk.Panic("inp: cannot open image slice %q: %v", fn, err)
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			chk.Panic("inp: cannot decode image slice %q: %v", fn, err)
		}
		b := img.Bounds()
		if b.Dy() != o.Domain.Nz || b.Dx() != o.Domain.Ny {
			chk.Panic("inp: image slice %q has size %dx%d, expected NyxNz=%dx%d", fn, b.Dx(), b.Dy(), o.Domain.Ny, o.Domain.Nz)
		}
		for k := 0; k < o.Domain.Nz; k++ {
			for j := 0; j < o.Domain.Ny; j++ {
				r, g, bch, _ := img.At(b.Min.X+j, b.Min.Y+k).RGBA()
				gray := (int(r>>8) + int(g>>8) + int(bch>>8)) / 3
				if gray < 128 {
					tags = append(tags, pore)
				} else {
					tags = append(tags, solid)
				}
			}
		}
	}
	return tags
}
