package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qmckit/qmcwalk/config"
)

// rootFlags gathers everything the subcommands share. Flag values overlay
// the config file, which overlays the built-in defaults.
type rootFlags struct {
	configPath string
	verbose    bool

	tiling    []int
	electrons int
	walkers   int
	steps     int
	substeps  int
	seed      int64
	tau       float64
	accept    float64
	recompute int
	lanes     int
	timers    string
	useJ3     bool
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	cmd := &cobra.Command{
		Use:           "qmcwalk",
		Short:         "particle-by-particle walker move benchmark",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&rf.configPath, "config", "c", "", "YAML parameter file")
	pf.BoolVarP(&rf.verbose, "verbose", "v", false, "debug logging")
	pf.IntSliceVarP(&rf.tiling, "tiling", "g", []int{1, 1, 1}, "3D tiling factors")
	pf.IntVar(&rf.electrons, "electrons", 0, "electron count (0 derives from tiling)")
	pf.IntVarP(&rf.walkers, "walkers", "w", 1, "number of walkers")
	pf.IntVarP(&rf.steps, "steps", "n", 5, "MC steps")
	pf.IntVarP(&rf.substeps, "substeps", "N", 1, "MC substeps per step")
	pf.Int64VarP(&rf.seed, "seed", "s", 11, "base random seed")
	pf.Float64VarP(&rf.tau, "tau", "t", 2.0, "diffusion time step")
	pf.Float64VarP(&rf.accept, "accept", "a", 0.5, "fixed acceptance threshold")
	pf.IntVar(&rf.recompute, "recompute-every", 1, "full inverse refactorization cadence in steps")
	pf.IntVar(&rf.lanes, "lanes", 0, "concurrent walker lanes (0 = one per CPU)")
	pf.StringVar(&rf.timers, "timers", "fine", "timer granularity: coarse or fine")
	pf.BoolVar(&rf.useJ3, "j3", false, "enable the three-body correlation factor")

	cmd.AddCommand(newRunCmd(rf), newCheckCmd(rf))

	return cmd
}

// params assembles the effective configuration: defaults, then the config
// file, then any flag the user actually set.
func (rf *rootFlags) params(cmd *cobra.Command) (config.Params, error) {
	p := config.DefaultParams()
	if rf.configPath != "" {
		loaded, err := config.Load(rf.configPath)
		if err != nil {
			return config.Params{}, err
		}
		p = loaded
	}

	fl := cmd.Flags()
	if fl.Changed("tiling") {
		if len(rf.tiling) != 3 {
			return config.Params{}, fmt.Errorf("%w: [tiling needs exactly 3 factors]", config.ErrBadParams)
		}
		copy(p.Tiling[:], rf.tiling)
	}
	if fl.Changed("electrons") {
		p.Electrons = rf.electrons
	}
	if fl.Changed("walkers") {
		p.Walkers = rf.walkers
	}
	if fl.Changed("steps") {
		p.Steps = rf.steps
	}
	if fl.Changed("substeps") {
		p.Substeps = rf.substeps
	}
	if fl.Changed("seed") {
		p.Seed = rf.seed
	}
	if fl.Changed("tau") {
		p.Tau = rf.tau
	}
	if fl.Changed("accept") {
		p.Accept = rf.accept
	}
	if fl.Changed("recompute-every") {
		p.RecomputeEvery = rf.recompute
	}
	if fl.Changed("lanes") {
		p.Lanes = rf.lanes
	}
	if fl.Changed("timers") {
		p.Timers = rf.timers
	}
	if fl.Changed("j3") {
		p.UseJ3 = rf.useJ3
	}
	if err := p.Validate(); err != nil {
		return config.Params{}, err
	}

	return p, nil
}

// logger builds the process logger; debug level with caller info when
// verbose.
func (rf *rootFlags) logger() (*zap.Logger, error) {
	if rf.verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true

	return cfg.Build()
}
