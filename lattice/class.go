// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lattice

// Class identifies the voxel class installed by the geometry/dynamics
// updater (C7). Exactly one class is active per voxel at any instant.
//
//	SOLID      -- impermeable, excluded from every lattice's update
//	BounceBack -- solid-fluid interface, no-slip reflector in the flow LBM
//	Pore       -- fluid, participates in flow and transport
//	Biofilm(m) -- fluid carrying biomass of microbe m; reduced diffusivity
//	              and flow permeability
//
// Biofilm classes are represented as BiofilmBase+m so that a Class value
// is comparable and can be stored as a single byte per voxel.
type Class uint8

const (
	Solid Class = iota
	BounceBack
	Pore
	BiofilmBase // Biofilm(m) == BiofilmBase + Class(m)
)

// Biofilm returns the class of biofilm hosting microbe m.
func Biofilm(m int) Class { return BiofilmBase + Class(m) }

// IsFluid reports whether c participates in the flow and transport LBMs.
func (c Class) IsFluid() bool { return c == Pore || c >= BiofilmBase }

// IsBiofilm reports whether c is a biofilm class and, if so, which microbe.
func (c Class) IsBiofilm() (m int, ok bool) {
	if c >= BiofilmBase {
		return int(c - BiofilmBase), true
	}
	return 0, false
}

// String implements fmt.Stringer for diagnostics and console summaries.
func (c Class) String() string {
	switch c {
	case Solid:
		return "SOLID"
	case BounceBack:
		return "BOUNCE_BACK"
	case Pore:
		return "PORE"
	default:
		if m, ok := c.IsBiofilm(); ok {
			return "BIOFILM_" + itoa(m)
		}
		return "UNKNOWN"
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
