// Copyright 2026 The CompLaB3D Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// package inp implements the input data read from a (.cl3) JSON
// configuration file: paths, domain geometry, LB numerics, chemistry,
// microbiology and equilibrium parameters (§6), plus the geometry-file
// and image-stack readers.
package inp

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/cpmech/complab3d/ca"
	"github.com/cpmech/complab3d/equilibrium"
	"github.com/cpmech/complab3d/flow"
	"github.com/cpmech/complab3d/geometry"
	"github.com/cpmech/complab3d/kinetics"
	"github.com/cpmech/complab3d/lattice"
	"github.com/cpmech/complab3d/transport"
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/fun"
	"github.com/cpmech/gosl/io"
)

// PathData holds the input/output path section (§6 "Path section").
type PathData struct {
	InDir       string `json:"indir"`       // directory holding the geometry/image-stack file
	OutDir      string `json:"outdir"`      // directory for VTI/CSV/checkpoint output
	ChkFile     string `json:"chkfile"`     // checkpoint filename (no extension)
	RestartFrom string `json:"restartfrom"` // checkpoint filename to restart from; "" => cold start
}

// ModeData holds the simulation-mode flags (§6 "Simulation-mode").
type ModeData struct {
	Biotic                bool `json:"biotic"`
	EnableKinetics        bool `json:"enable_kinetics"`
	EnableEquilibrium     bool `json:"enable_equilibrium"`
	EnableValidationDiags bool `json:"enable_validation_diagnostics"`
	PerformanceTracking   bool `json:"performance_tracking"`
}

// TagMap holds the material-number mapping (§6 Domain section):
// geometry-file/image-stack integer tags to voxel classes.
type TagMap struct {
	Pore        int   `json:"pore"`
	Solid       int   `json:"solid"`
	BounceBack  int   `json:"bounce_back"`
	MicrobeTags []int `json:"microbe_k"` // MicrobeTags[m] is the tag of microbe m's biofilm class
}

// DomainData holds the domain section (§6 "Domain").
type DomainData struct {
	Nx                   int     `json:"nx"`
	Ny                   int     `json:"ny"`
	Nz                   int     `json:"nz"`
	Dx                   float64 `json:"dx"`
	Unit                 string  `json:"unit"` // "m", "mm" or "um"
	CharacteristicLength  float64 `json:"characteristic_length"`
	GeometryFile         string  `json:"geometry_file"`
	ImageStack           bool    `json:"image_stack"` // GeometryFile holds an image stack rather than a raw tag file
	Tags                 TagMap  `json:"tags"`
}

// LBNumericsData holds the LB numerics section (§6 "LB numerics").
type LBNumericsData struct {
	DeltaP           float64 `json:"deltaP"`
	Pe               float64 `json:"pe"`
	Tau              float64 `json:"tau"`
	NSInner1MaxIter  int     `json:"ns_inner1_maxiter"` // flow inner convergence, first pass
	NSInner2MaxIter  int     `json:"ns_inner2_maxiter"` // flow inner convergence after a geometry change
	ADEMaxIter       int     `json:"ade_maxiter"`       // reserved for an implicit ADE solve; explicit D3Q7 needs none
	NSTol            float64 `json:"ns_tol"`
	WinSize          int     `json:"win_size"`
	UpdateIntervalCA int     `json:"update_interval_ca"` // not read by the coordinator, which runs the CA stage every iteration
	PressureSchedule string  `json:"pressure_schedule"`  // name into Config.Funcs; "" => constant DeltaP
}

// SpeciesData holds one dissolved species (§6 "Chemistry").
type SpeciesData struct {
	Name      string  `json:"name"`
	C0        float64 `json:"c_0"`
	DPore     float64 `json:"d_pore"`
	DBiofilm  float64 `json:"d_biofilm"`
	LeftBC    string  `json:"left_bc"`  // "Dirichlet" or "Neumann"
	LeftVal   float64 `json:"left_val"`
	RightBC   string  `json:"right_bc"`
	RightVal  float64 `json:"right_val"`
}

// ChemistryData holds the chemistry section (§6).
type ChemistryData struct {
	NS      int            `json:"n_s"`
	Species []*SpeciesData `json:"species"`
}

// MicrobeData holds one microbe population (§6 "Microbiology").
type MicrobeData struct {
	Name             string    `json:"name"`
	Solver           string    `json:"solver"`   // "CA", "LBM" or "FD"
	Reaction         string    `json:"reaction"` // "kinetics" or "none"
	InitialDensities []float64 `json:"initial_densities"` // per geometry tag, aligned with Tags.MicrobeTags
	KDecay           float64   `json:"k_decay"`
	ViscosityRatio   float64   `json:"viscosity_ratio"`
	HalfSaturation   []float64 `json:"half_saturation"` // aligned with ChemistryData.Species
	UptakeFlux       []float64 `json:"uptake_flux"`     // yields; aligned with ChemistryData.Species
	MuMax            float64   `json:"mu_max"`
	BiomassDPore     float64   `json:"biomass_d_pore"`     // planktonic (LBM) only
	BiomassDBiofilm  float64   `json:"biomass_d_biofilm"`  // planktonic (LBM) only
	BiomassLeftBC    string    `json:"biomass_left_bc"`
	BiomassLeftVal   float64   `json:"biomass_left_val"`
	BiomassRightBC   string    `json:"biomass_right_bc"`
	BiomassRightVal  float64   `json:"biomass_right_val"`
}

// MicrobiologyData holds the microbiology section (§6).
type MicrobiologyData struct {
	NM       int            `json:"n_m"`
	BMax     float64        `json:"b_max"`
	PhiB     float64        `json:"phi_b"`
	CAMethod string         `json:"ca_method"` // "fraction", "half" or "none"
	CASeed   int64          `json:"ca_seed"`
	Microbes []*MicrobeData `json:"microbes"`
}

// EquilibriumData holds the equilibrium section (§6).
type EquilibriumData struct {
	Enabled       bool        `json:"enabled"`
	Components    []string    `json:"components"`     // ordered component names
	Stoichiometry [][]float64 `json:"stoichiometry"`  // [NSpecies][NComponents]
	LogK          []float64   `json:"logk"`            // [NSpecies]
	MaxIter       int         `json:"max_iter"`
	Tol           float64     `json:"tol"`
	AndersonDepth int         `json:"anderson_depth"`
}

// IOData holds the I/O section (§6).
type IOData struct {
	VTIInterval int  `json:"vti_interval"`
	ChkInterval int  `json:"chk_interval"`
	Restart     bool `json:"restart"`
}

// Config holds an entire (.cl3) configuration document.
type Config struct {
	Path        PathData         `json:"path"`
	Mode        ModeData         `json:"mode"`
	Domain      DomainData       `json:"domain"`
	LB          LBNumericsData   `json:"lb"`
	Chemistry   ChemistryData    `json:"chemistry"`
	Microbio    MicrobiologyData `json:"microbiology"`
	Equilibrium EquilibriumData  `json:"equilibrium"`
	IO          IOData           `json:"io"`
	Funcs       FuncsData        `json:"funcs"` // named time functions, e.g. a ramped inlet pressure schedule

	// derived
	Key string // config file name key, e.g. "run01.cl3" => "run01"
}

// SetDefault fills in the defaults that a minimal config document may
// omit, applied before JSON decoding so an explicit field always wins.
func (o *Config) SetDefault() {
	o.LB.NSInner1MaxIter = 20000
	o.LB.NSInner2MaxIter = 2000
	o.LB.NSTol = 1e-8
	o.LB.WinSize = 20
	o.Equilibrium.MaxIter = 200
	o.Equilibrium.Tol = 1e-10
	o.Equilibrium.AndersonDepth = 4
}

// PostProcess validates cross-section dimensions and fixes derived
// values after JSON decoding.
func (o *Config) PostProcess() {
	if o.Domain.Nx <= 0 || o.Domain.Ny <= 0 || o.Domain.Nz <= 0 {
		chk.Panic("inp: domain dimensions must be positive: (%d,%d,%d)", o.Domain.Nx, o.Domain.Ny, o.Domain.Nz)
	}
	if o.Chemistry.NS != len(o.Chemistry.Species) {
		chk.Panic("inp: chemistry.n_s=%d does not match %d species entries", o.Chemistry.NS, len(o.Chemistry.Species))
	}
	if o.Microbio.NM != len(o.Microbio.Microbes) {
		chk.Panic("inp: microbiology.n_m=%d does not match %d microbe entries", o.Microbio.NM, len(o.Microbio.Microbes))
	}
	if !o.Mode.Biotic {
		o.Mode.EnableKinetics = false
	}
	for mi, m := range o.Microbio.Microbes {
		if len(m.HalfSaturation) != o.Chemistry.NS || len(m.UptakeFlux) != o.Chemistry.NS {
			chk.Panic("inp: microbe %q (#%d) half-saturation/uptake vectors must have length n_s=%d", m.Name, mi, o.Chemistry.NS)
		}
	}
	if o.Equilibrium.Enabled {
		nc := len(o.Equilibrium.Components)
		if len(o.Equilibrium.LogK) != len(o.Equilibrium.Stoichiometry) {
			chk.Panic("inp: equilibrium.logk length must match the number of stoichiometry rows")
		}
		for i, row := range o.Equilibrium.Stoichiometry {
			if len(row) != nc {
				chk.Panic("inp: equilibrium.stoichiometry row %d has width %d, expected %d components", i, len(row), nc)
			}
		}
	}
}

// ReadConfig reads and validates a (.cl3) JSON configuration file.
func ReadConfig(path string) *Config {
	var o Config
	o.SetDefault()
	b, err := io.ReadFile(path)
	if err != nil {
		chk.Panic("inp: cannot read configuration file %q", path)
	}
	err = json.Unmarshal(b, &o)
	if err != nil {
		chk.Panic("inp: cannot unmarshal configuration file %q: %v", path, err)
	}
	o.Key = io.FnKey(filepath.Base(path))
	o.PostProcess()
	if o.Path.OutDir == "" {
		o.Path.OutDir = filepath.Join(os.TempDir(), "complab3d", o.Key)
	}
	return &o
}

// lengthUnit converts Domain.Unit to metres per unit, for any downstream
// reporting that wants physical rather than lattice length.
func (o *DomainData) lengthUnit() float64 {
	switch o.Unit {
	case "mm":
		return 1e-3
	case "um", "µm":
		return 1e-6
	default:
		return 1.0
	}
}

// FlowParams builds the flow solver's Params from the config (§4.2, §6).
func (o *Config) FlowParams() flow.Params {
	p := flow.DefaultParams(o.Microbio.NM)
	p.TauPore = o.LB.Tau
	p.DeltaP = o.LB.DeltaP
	p.WinSize = o.LB.WinSize
	p.Tol = o.LB.NSTol
	p.MaxIter = o.LB.NSInner1MaxIter
	for m, mic := range o.Microbio.Microbes {
		p.SetViscosityRatio(m, mic.ViscosityRatio)
	}
	return p
}

// PressureFunc returns the inlet pressure as a function of simulated
// time (§6 "LB numerics"): a named ramp/custom function when
// lb.pressure_schedule is set, otherwise a constant at the configured
// deltaP, generalising the FuncsData/fun.TimeSpace
// time-varying-value idiom (inp/sim.go's Control.DtFunc) from a solver
// time-step to an inlet boundary condition.
func (o *Config) PressureFunc() fun.TimeSpace {
	if o.LB.PressureSchedule == "" {
		return &fun.Cte{C: o.LB.DeltaP}
	}
	fcn, err := o.Funcs.Get(o.LB.PressureSchedule)
	if err != nil {
		chk.Panic("inp: cannot resolve lb.pressure_schedule %q: %v", o.LB.PressureSchedule, err)
	}
	return fcn
}

// bcKind maps a config string to transport.BCKind.
func bcKind(name string) transport.BCKind {
	if name == "Neumann" {
		return transport.Neumann
	}
	return transport.Dirichlet
}

// TransportParams builds one transport.Params per configured species
// (§4.3, §6 Chemistry section).
func (o *Config) TransportParams() []transport.Params {
	out := make([]transport.Params, len(o.Chemistry.Species))
	for i, s := range o.Chemistry.Species {
		out[i] = transport.Params{
			DPore: s.DPore,
			DBio:  s.DBiofilm,
			Left:  transport.BC{Kind: bcKind(s.LeftBC), Value: s.LeftVal},
			Right: transport.BC{Kind: bcKind(s.RightBC), Value: s.RightVal},
		}
	}
	return out
}

// PlanktonicParams builds a transport.Params for every microbe whose
// solver is "LBM" (planktonic, §4.3 "Planktonic biomass uses identical
// machinery"), keyed by microbe index.
func (o *Config) PlanktonicParams() map[int]transport.Params {
	out := make(map[int]transport.Params)
	for m, mic := range o.Microbio.Microbes {
		if mic.Solver != "LBM" {
			continue
		}
		out[m] = transport.Params{
			DPore: mic.BiomassDPore,
			DBio:  mic.BiomassDBiofilm,
			Left:  transport.BC{Kind: bcKind(mic.BiomassLeftBC), Value: mic.BiomassLeftVal},
			Right: transport.BC{Kind: bcKind(mic.BiomassRightBC), Value: mic.BiomassRightVal},
		}
	}
	return out
}

// KineticsParams builds the kinetics.Params for microbe m, aligned with
// the chemistry species list (§4.4, §6 Microbiology section).
func (o *Config) KineticsParams(m int) kinetics.Params {
	mic := o.Microbio.Microbes[m]
	return kinetics.Params{
		MuMax:  mic.MuMax,
		Ks:     mic.HalfSaturation,
		KDecay: mic.KDecay,
		Yield:  mic.UptakeFlux,
	}
}

// CAConfig builds the CA spreader's Config (§4.6, §6 Microbiology
// section).
func (o *Config) CAConfig() ca.Config {
	mode := ca.NoneMode
	switch o.Microbio.CAMethod {
	case "fraction":
		mode = ca.FractionMode
	case "half":
		mode = ca.HalfMode
	}
	cfg := ca.DefaultConfig()
	cfg.BMax = o.Microbio.BMax
	cfg.Mode = mode
	cfg.Seed = o.Microbio.CASeed
	return cfg
}

// GeometryConfig builds the geometry updater's Config (§4.7, §3).
func (o *Config) GeometryConfig() geometry.Config {
	return geometry.Config{PhiB: o.Microbio.PhiB, BMax: o.Microbio.BMax}
}

// EquilibriumSystem builds the equilibrium.System from the configured
// stoichiometry and logK (§4.5, §6 Equilibrium section).
func (o *Config) EquilibriumSystem() *equilibrium.System {
	return &equilibrium.System{
		Nu:    o.Equilibrium.Stoichiometry,
		LogK:  o.Equilibrium.LogK,
		NComp: len(o.Equilibrium.Components),
	}
}

// EquilibriumParams builds the equilibrium.Params from the configured
// solver caps (§6 Equilibrium section).
func (o *Config) EquilibriumParams() equilibrium.Params {
	return equilibrium.Params{
		Tol:          o.Equilibrium.Tol,
		MaxIter:      o.Equilibrium.MaxIter,
		AndersonDepm: o.Equilibrium.AndersonDepth,
	}
}

// NewStore allocates a lattice.Store sized for this configuration,
// allocating a planktonic distribution lattice for every LBM microbe.
func (o *Config) NewStore() *lattice.Store {
	sto := lattice.NewStore(o.Domain.Nx, o.Domain.Ny, o.Domain.Nz, o.Chemistry.NS, o.Microbio.NM)
	for m, mic := range o.Microbio.Microbes {
		if mic.Solver == "LBM" {
			sto.AllocPlanktonic(m)
		}
	}
	return sto
}
