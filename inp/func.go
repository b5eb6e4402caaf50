// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package inp

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/fun/dbf"
	"github.com/cpmech/gosl/io"
)

// FuncData holds one named time-varying function, used for the inlet
// deltaP when lb.pressure_schedule names it (§6 "LB numerics"). Species
// and biomass boundary values are plain constants, not functions.
type FuncData struct {
	Name string     `json:"name"` // name of function. ex: zero, ramp, myfunction1, etc.
	Type string     `json:"type"` // type of function. ex: cte, rmp
	Prms dbf.Params `json:"prms"` // parameters
}

// FuncsData holds a named collection of functions.
type FuncsData []*FuncData

// Get resolves a named entry into a callable time function; "zero" and
// "none" always resolve to the additive identity without needing an
// entry in o.
func (o FuncsData) Get(name string) (fun.TimeSpace, error) {
	if name == "zero" || name == "none" {
		return &fun.Zero, nil
	}
	for _, entry := range o {
		if entry.Name != name {
			continue
		}
		fcn, err := fun.New(entry.Type, entry.Prms)
		if err != nil {
			return nil, chk.Err("inp: function %q: %v", name, err)
		}
		return fcn, nil
	}
	return nil, chk.Err("inp: no function named %q", name)
}

// String renders one entry back to the JSON-ish form used elsewhere in
// this package's pretty-printers.
func (o FuncData) String() string {
	fun.G_extraindent = "        "
	return io.Sf("    {\n      \"name\":%q, \"type\":%q, \"prms\" : [\n%v\n      ]\n    }", o.Name, o.Type, o.Prms)
}

// String renders the whole named-function library.
func (o FuncsData) String() string {
	if len(o) == 0 {
		return "  \"functions\" : []"
	}
	out := "  \"functions\" : [\n"
	for i, entry := range o {
		if i > 0 {
			out += ",\n"
		}
		out += io.Sf("%v", entry)
	}
	out += "\n  ]"
	return out
}
