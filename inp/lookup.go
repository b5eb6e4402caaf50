// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import "github.com/cpmech/gosl/chk"

// SpeciesIndex returns the index of the named species, or -1 if not
// found. Mirrors the by-name MatDb.Get(name) lookup idiom, adapted
// to the species list embedded directly in the configuration document
// (§6: "a structured configuration (single document)" has no separate
// materials file).
func (o *Config) SpeciesIndex(name string) int {
	for i, s := range o.Chemistry.Species {
		if s.Name == name {
			return i
		}
	}
	return -1
}

// MicrobeIndex returns the index of the named microbe, or -1 if not
// found.
func (o *Config) MicrobeIndex(name string) int {
	for i, m := range o.Microbio.Microbes {
		if m.Name == name {
			return i
		}
	}
	return -1
}

// MustSpeciesIndex is SpeciesIndex but fatal on a missing name, for call
// sites that reference a species by name in a context where it must
// already be validated (e.g. equilibrium component binding).
func (o *Config) MustSpeciesIndex(name string) int {
	i := o.SpeciesIndex(name)
	if i < 0 {
		chk.Panic("inp: no species named %q in the chemistry section", name)
	}
	return i
}

// ComponentSpeciesIdx resolves the equilibrium section's ordered
// component-name list to transport species indices, by matching each
// component name against the chemistry species list (§4.5, §6): the
// component's transport species carries its total dissolved
// concentration, as described in the equilibrium-kinetics species
// mapping decision in DESIGN.md.
func (o *Config) ComponentSpeciesIdx() []int {
	idx := make([]int, len(o.Equilibrium.Components))
	for i, name := range o.Equilibrium.Components {
		idx[i] = o.MustSpeciesIndex(name)
	}
	return idx
}
