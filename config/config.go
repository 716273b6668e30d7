// Package config carries the run parameters shared by the benchmark and
// correctness drivers. Defaults reproduce the canonical small problem
// (single walker, 5-step sweep, seed 11); a YAML file or command-line flags
// override them field by field.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrBadParams is wrapped by every validation failure.
var ErrBadParams = errors.New("config: invalid parameters")

// DefaultCell is the benchmark lattice constant in bohr.
const DefaultCell = 3.77945227

// Params is the full run configuration.
type Params struct {
	// Geometry: base cell constant and per-axis tiling factors. One ion per
	// tile.
	Cell   float64 `yaml:"cell"`
	Tiling [3]int  `yaml:"tiling"`

	// Electrons is the total electron count; 0 derives 4 per ion.
	Electrons int `yaml:"electrons"`

	Walkers  int   `yaml:"walkers"`
	Steps    int   `yaml:"steps"`
	Substeps int   `yaml:"substeps"`
	Seed     int64 `yaml:"seed"`

	// Tau is the diffusion time step; displacements scale with sqrt(tau).
	Tau float64 `yaml:"tau"`

	// Accept is the fixed acceptance threshold the drivers compare uniform
	// draws against.
	Accept float64 `yaml:"accept"`

	// RecomputeEvery forces a full inverse refactorization every that many
	// outer steps; 1 bounds drift tightest.
	RecomputeEvery int `yaml:"recompute_every"`

	// Lanes caps the concurrent walker lanes; 0 uses one lane per CPU.
	Lanes int `yaml:"lanes"`

	// Timers selects telemetry granularity: "coarse" or "fine".
	Timers string `yaml:"timers"`

	// Jastrow toggles and parameters.
	UseJ3 bool    `yaml:"j3"`
	J1A   float64 `yaml:"j1_a"`
	J1B   float64 `yaml:"j1_b"`
	J2A   float64 `yaml:"j2_a"`
	J2B   float64 `yaml:"j2_b"`
	J3C   float64 `yaml:"j3_c"`
	J3BI  float64 `yaml:"j3_bi"`
	J3BE  float64 `yaml:"j3_be"`
}

// DefaultParams returns the canonical small-problem configuration.
func DefaultParams() Params {
	return Params{
		Cell:           DefaultCell,
		Tiling:         [3]int{1, 1, 1},
		Walkers:        1,
		Steps:          5,
		Substeps:       1,
		Seed:           11,
		Tau:            2.0,
		Accept:         0.5,
		RecomputeEvery: 1,
		Timers:         "fine",
		J1A:            0.5, J1B: 1.0,
		J2A: 0.5, J2B: 0.5,
		J3C: 0.1, J3BI: 1.0, J3BE: 1.0,
	}
}

// NIons returns the ion count implied by the tiling.
func (p Params) NIons() int { return p.Tiling[0] * p.Tiling[1] * p.Tiling[2] }

// Nels returns the electron count, deriving 4 per ion when unset.
func (p Params) Nels() int {
	if p.Electrons > 0 {
		return p.Electrons
	}

	return 4 * p.NIons()
}

// Validate checks every field range. Configuration errors are reported
// before any simulation work begins.
func (p Params) Validate() error {
	var faults []string
	if p.Cell <= 0 {
		faults = append(faults, fmt.Sprintf("cell %g must be > 0", p.Cell))
	}
	for d, f := range p.Tiling {
		if f < 1 {
			faults = append(faults, fmt.Sprintf("tiling[%d]=%d must be >= 1", d, f))
		}
	}
	if p.Electrons < 0 {
		faults = append(faults, fmt.Sprintf("electrons %d must be >= 0", p.Electrons))
	}
	if p.Nels() < 2 {
		faults = append(faults, fmt.Sprintf("electron count %d must be >= 2 for a spin split", p.Nels()))
	}
	if p.Walkers < 1 {
		faults = append(faults, fmt.Sprintf("walkers %d must be >= 1", p.Walkers))
	}
	if p.Steps < 1 {
		faults = append(faults, fmt.Sprintf("steps %d must be >= 1", p.Steps))
	}
	if p.Substeps < 1 {
		faults = append(faults, fmt.Sprintf("substeps %d must be >= 1", p.Substeps))
	}
	if p.Tau <= 0 {
		faults = append(faults, fmt.Sprintf("tau %g must be > 0", p.Tau))
	}
	if p.Accept < 0 || p.Accept > 1 {
		faults = append(faults, fmt.Sprintf("accept %g must be in [0,1]", p.Accept))
	}
	if p.RecomputeEvery < 1 {
		faults = append(faults, fmt.Sprintf("recompute_every %d must be >= 1", p.RecomputeEvery))
	}
	if p.Lanes < 0 {
		faults = append(faults, fmt.Sprintf("lanes %d must be >= 0", p.Lanes))
	}
	if p.Timers != "coarse" && p.Timers != "fine" {
		faults = append(faults, fmt.Sprintf("timers %q must be 'coarse' or 'fine'", p.Timers))
	}
	if len(faults) > 0 {
		return fmt.Errorf("%w: %v", ErrBadParams, faults)
	}

	return nil
}

// Load reads a YAML file over the defaults and validates the result.
func Load(path string) (Params, error) {
	p := DefaultParams()
	raw, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("config.Load: %w", err)
	}
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Params{}, fmt.Errorf("config.Load: %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return Params{}, err
	}

	return p, nil
}
