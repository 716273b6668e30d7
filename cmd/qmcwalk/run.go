package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/qmckit/qmcwalk/driver"
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/telemetry"
	"github.com/qmckit/qmcwalk/walker"
	"github.com/qmckit/qmcwalk/wavefn"
)

func newRunCmd(rf *rootFlags) *cobra.Command {
	var modeName string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the timed move loop over a walker batch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := rf.params(cmd)
			if err != nil {
				return err
			}
			mode, err := driver.ParseMode(modeName)
			if err != nil {
				return err
			}
			level, err := telemetry.ParseLevel(p.Timers)
			if err != nil {
				return err
			}
			log, err := rf.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			reg := telemetry.NewRegistry(level)
			setup := reg.Timer("initialization", telemetry.LevelCoarse)

			setup.Start()
			ions, lat, err := lattice.BuildIons(p.Cell, p.Tiling)
			if err != nil {
				return err
			}
			opt := wavefn.DefaultOptions(p.Nels())
			opt.UseJ3 = p.UseJ3
			opt.J1A, opt.J1B = p.J1A, p.J1B
			opt.J2A, opt.J2B = p.J2A, p.J2B
			opt.J3C, opt.J3BI, opt.J3BE = p.J3C, p.J3BI, p.J3BE
			batch, err := walker.NewBatch(p.Walkers, p.Seed, lat, ions, p.Nels(), opt)
			if err != nil {
				return err
			}
			setup.Stop()

			log.Info("problem size",
				zap.Int("ions", p.NIons()),
				zap.Int("electrons", p.Nels()),
				zap.Int("walkers", p.Walkers),
				zap.Int("steps", p.Steps),
				zap.Int("substeps", p.Substeps),
				zap.Int64("seed", p.Seed),
				zap.String("mode", modeName),
			)

			d := driver.New(p, batch, reg, log, mode)
			if _, err := d.Run(cmd.Context()); err != nil {
				return err
			}
			reg.Report(log)

			return nil
		},
	}
	cmd.Flags().StringVarP(&modeName, "mode", "m", "sync", "scheduling: sync or lanes")

	return cmd
}
