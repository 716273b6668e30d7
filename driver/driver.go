// Package driver runs the particle-by-particle move loop over a batch of
// walkers: evaluate the gradient at the current position, propose a
// displacement, evaluate the ratio at the trial position, resolve
// accept/reject, commit or restore.
//
// Two scheduling modes cover the batch:
//
//   - ModeSync advances every walker through the same pipeline stage before
//     any walker starts the next stage. Batched operations act on the whole
//     collection at once, so partial completion has no defined semantics;
//     the stage barrier is a correctness requirement, not an optimization.
//   - ModeLanes gives each walker an independent goroutine lane; walkers
//     never share mutable state, so no barrier is needed and the first
//     fatal error cancels the remaining lanes.
//
// Acceptance policy: a move is accepted when a uniform draw from the
// walker's own stream falls below the fixed configured threshold. The
// drivers benchmark the update machinery at a controlled acceptance rate;
// they are not Metropolis samplers.
//
// Any arithmetic failure (singular matrix, non-finite ratio) or protocol
// violation aborts the run. The loop bound is fixed at configuration time;
// there is no retry and no partial-failure recovery.
package driver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/qmckit/qmcwalk/config"
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/telemetry"
	"github.com/qmckit/qmcwalk/walker"
	"github.com/qmckit/qmcwalk/wavefn"
)

// ErrBadMode is returned for an unknown scheduling mode name.
var ErrBadMode = errors.New("driver: mode must be 'sync' or 'lanes'")

// Mode selects the batch scheduling strategy.
type Mode int

const (
	// ModeSync processes all walkers stage by stage in lock-step.
	ModeSync Mode = iota
	// ModeLanes runs one independent goroutine lane per walker.
	ModeLanes
)

// ParseMode maps a mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch name {
	case "sync":
		return ModeSync, nil
	case "lanes":
		return ModeLanes, nil
	default:
		return 0, fmt.Errorf("driver.ParseMode: %q: %w", name, ErrBadMode)
	}
}

// Stats accumulates move outcomes over a run.
type Stats struct {
	Proposed int64 // trials drawn, including boundary failures
	Accepted int64
	Rejected int64 // valid trials that failed the acceptance draw
	Boundary int64 // trials that landed outside the box

	// SumLogValue is the batch total of the final composed log values.
	SumLogValue float64
}

// AcceptRatio returns accepted over proposed, zero for an empty run.
func (s *Stats) AcceptRatio() float64 {
	if s.Proposed == 0 {
		return 0
	}

	return float64(s.Accepted) / float64(s.Proposed)
}

func (s *Stats) merge(o *Stats) {
	s.Proposed += o.Proposed
	s.Accepted += o.Accepted
	s.Rejected += o.Rejected
	s.Boundary += o.Boundary
	s.SumLogValue += o.SumLogValue
}

// Driver owns one run over a fixed batch.
type Driver struct {
	p     config.Params
	batch *walker.Batch
	reg   *telemetry.Registry
	log   *zap.Logger
	mode  Mode
}

// New wires a driver; reg and log may not be nil (pass zap.NewNop for a
// silent run).
func New(p config.Params, b *walker.Batch, reg *telemetry.Registry, log *zap.Logger, mode Mode) *Driver {
	return &Driver{p: p, batch: b, reg: reg, log: log, mode: mode}
}

// Run executes the configured steps × substeps × electrons move loop and
// returns the accumulated stats. The context aborts only between outer
// steps; within a step the stage sequence always completes.
func (d *Driver) Run(ctx context.Context) (*Stats, error) {
	total := d.reg.Timer("total", telemetry.LevelCoarse)
	defer total.Scoped()()

	var (
		stats *Stats
		err   error
	)
	switch d.mode {
	case ModeLanes:
		stats, err = d.runLanes(ctx)
	default:
		stats, err = d.runSync(ctx)
	}
	if err != nil {
		return nil, err
	}
	d.log.Info("run complete",
		zap.Int64("proposed", stats.Proposed),
		zap.Int64("accepted", stats.Accepted),
		zap.Int64("rejected", stats.Rejected),
		zap.Int64("boundary", stats.Boundary),
		zap.Float64("accept_ratio", stats.AcceptRatio()),
		zap.Float64("sum_log_value", stats.SumLogValue),
	)

	return stats, nil
}

// runSync is the lock-step pipeline: every stage completes for the whole
// batch before the next begins.
func (d *Driver) runSync(ctx context.Context) (*Stats, error) {
	var (
		movers  = d.batch.Movers()
		sets    = d.batch.Sets()
		wfs     = d.batch.WaveFunctions()
		nw      = d.batch.Size()
		nels    = sets[0].N()
		sqrttau = math.Sqrt(d.p.Tau)

		tDiff    = d.reg.Timer("diffusion", telemetry.LevelCoarse)
		tGradCur = d.reg.Timer("gradient_current", telemetry.LevelFine)
		tGradNew = d.reg.Timer("gradient_new", telemetry.LevelFine)
		tUpdate  = d.reg.Timer("update", telemetry.LevelFine)
		tValue   = d.reg.Timer("value", telemetry.LevelFine)
		tRecomp  = d.reg.Timer("recompute", telemetry.LevelFine)

		valid  = make([]bool, nw)
		accept = make([]bool, nw)
		stats  Stats
	)

	for step := 0; step < d.p.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("driver: step %d: %w", step, err)
		}
		if step%d.p.RecomputeEvery == 0 {
			tRecomp.Start()
			if err := wavefn.FlexRecompute(wfs, sets); err != nil {
				return nil, fmt.Errorf("driver: step %d: %w", step, err)
			}
			tRecomp.Stop()
		}

		tDiff.Start()
		for sub := 0; sub < d.p.Substeps; sub++ {
			for iel := 0; iel < nels; iel++ {
				for iw := 0; iw < nw; iw++ {
					if err := sets[iw].SetActive(iel); err != nil {
						return nil, fmt.Errorf("driver: walker %d: %w", iw, err)
					}
				}

				tGradCur.Start()
				if _, err := wavefn.FlexEvalGrad(wfs, sets, iel); err != nil {
					return nil, fmt.Errorf("driver: step %d: %w", step, err)
				}
				tGradCur.Stop()

				for iw := 0; iw < nw; iw++ {
					dr := drawDelta(movers[iw], sqrttau)
					ok, err := sets[iw].MakeMoveAndCheck(iel, dr)
					if err != nil {
						return nil, fmt.Errorf("driver: walker %d: %w", iw, err)
					}
					valid[iw] = ok
					stats.Proposed++
					if !ok {
						stats.Boundary++
					}
				}

				tGradNew.Start()
				if _, _, err := wavefn.FlexRatioGrad(wfs, sets, iel, valid); err != nil {
					return nil, fmt.Errorf("driver: step %d: %w", step, err)
				}
				tGradNew.Stop()

				// one uniform per walker per move, drawn whether or not the
				// trial survived the boundary check, so lane and sync
				// schedules consume identical stream sequences
				for iw := 0; iw < nw; iw++ {
					u := movers[iw].Stream.Float64()
					accept[iw] = valid[iw] && u < d.p.Accept
					if accept[iw] {
						stats.Accepted++
					} else if valid[iw] {
						stats.Rejected++
					}
				}

				tUpdate.Start()
				if err := wavefn.FlexAcceptRestore(wfs, sets, iel, accept); err != nil {
					return nil, fmt.Errorf("driver: step %d: %w", step, err)
				}
				tUpdate.Stop()
			}
		}
		tDiff.Stop()

		for iw := 0; iw < nw; iw++ {
			sets[iw].DonePbyP()
		}
		tValue.Start()
		if err := wavefn.FlexEvaluateGL(wfs, sets); err != nil {
			return nil, fmt.Errorf("driver: step %d: %w", step, err)
		}
		tValue.Stop()
	}

	for iw := 0; iw < nw; iw++ {
		stats.SumLogValue += wfs[iw].LogValue()
	}

	return &stats, nil
}

// runLanes runs every walker start to finish on its own lane. Stream draw
// order per walker matches runSync exactly, so both modes produce identical
// trajectories for the same seeds.
func (d *Driver) runLanes(ctx context.Context) (*Stats, error) {
	lanes := d.p.Lanes
	if lanes == 0 {
		lanes = runtime.NumCPU()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(lanes)

	perWalker := make([]Stats, d.batch.Size())
	for iw := 0; iw < d.batch.Size(); iw++ {
		m := d.batch.Mover(iw)
		st := &perWalker[iw]
		g.Go(func() error {
			if err := d.runWalker(ctx, m, st); err != nil {
				return fmt.Errorf("driver: walker %d: %w", m.ID, err)
			}

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var stats Stats
	for i := range perWalker {
		stats.merge(&perWalker[i])
	}

	return &stats, nil
}

func (d *Driver) runWalker(ctx context.Context, m *walker.Mover, stats *Stats) error {
	var (
		els     = m.Els
		wf      = m.WF
		nels    = els.N()
		sqrttau = math.Sqrt(d.p.Tau)
	)
	for step := 0; step < d.p.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
		if step%d.p.RecomputeEvery == 0 {
			if err := wf.Recompute(els); err != nil {
				return fmt.Errorf("step %d: %w", step, err)
			}
		}
		for sub := 0; sub < d.p.Substeps; sub++ {
			for iel := 0; iel < nels; iel++ {
				if err := els.SetActive(iel); err != nil {
					return err
				}
				if _, err := wf.EvalGrad(els, iel); err != nil {
					return err
				}
				ok, err := els.MakeMoveAndCheck(iel, drawDelta(m, sqrttau))
				if err != nil {
					return err
				}
				stats.Proposed++
				if ok {
					if _, _, err := wf.RatioGrad(els, iel); err != nil {
						return err
					}
				} else {
					stats.Boundary++
				}
				u := m.Stream.Float64()
				if ok && u < d.p.Accept {
					if err := wf.AcceptMove(els, iel); err != nil {
						return err
					}
					stats.Accepted++
				} else {
					wf.Restore(els, iel)
					if ok {
						stats.Rejected++
					}
				}
			}
		}
		els.DonePbyP()
		if _, err := wf.EvaluateGL(els); err != nil {
			return fmt.Errorf("step %d: %w", step, err)
		}
	}
	stats.SumLogValue = wf.LogValue()

	return nil
}

// drawDelta samples one sqrt(tau)-scaled normal displacement from the
// walker's stream.
func drawDelta(m *walker.Mover, sqrttau float64) lattice.Vec {
	return lattice.Vec{
		sqrttau * m.Stream.NormFloat64(),
		sqrttau * m.Stream.NormFloat64(),
		sqrttau * m.Stream.NormFloat64(),
	}
}
