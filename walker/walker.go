// Package walker owns the simulation replicas: each Mover carries its own
// particle set, wavefunction and random stream, and a Batch groups movers
// for lock-step processing by the drivers.
//
// Exclusive ownership is the whole concurrency story here: no mover ever
// reads another mover's state, and the only shared data (lattice and ion
// geometry) is immutable after setup.
package walker

import (
	"errors"
	"fmt"

	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/particle"
	"github.com/qmckit/qmcwalk/rng"
	"github.com/qmckit/qmcwalk/spo"
	"github.com/qmckit/qmcwalk/wavefn"
)

// ErrNoWalkers is returned when a batch is requested with no movers.
var ErrNoWalkers = errors.New("walker: batch needs at least one mover")

// Mover is one simulation replica. A single stream drives everything the
// replica randomizes: initial electron placement, orbital draws and move
// sampling all interleave on it, which is what makes a replica reproducible
// from (base seed, walker index) alone.
type Mover struct {
	ID     int
	Stream *rng.Stream
	Els    *particle.Set
	WF     *wavefn.WaveFunction
}

// NewMover builds one replica over the shared geometry. Electron positions
// are drawn from the stream first, then the wavefunction construction draws
// its orbital matrices from the same stream.
func NewMover(id int, lat *lattice.Lattice, ions []lattice.Vec, stream *rng.Stream, nels int, opt wavefn.Options) (*Mover, error) {
	positions := particle.BuildElectrons(lat, nels, stream)
	els, err := particle.NewSet(lat, ions, positions)
	if err != nil {
		return nil, fmt.Errorf("walker %d: %w", id, err)
	}
	src := spo.NewPseudoSource(stream)
	wf, err := wavefn.New(els, src, src, opt)
	if err != nil {
		return nil, fmt.Errorf("walker %d: %w", id, err)
	}

	return &Mover{ID: id, Stream: stream, Els: els, WF: wf}, nil
}

// Batch is a fixed pool of movers advanced in lock-step. The cached
// parallel slices feed the batched wavefunction operations directly.
type Batch struct {
	movers []*Mover
	sets   []*particle.Set
	wfs    []*wavefn.WaveFunction
}

// NewBatch builds nw movers with per-walker streams derived from baseSeed.
func NewBatch(nw int, baseSeed int64, lat *lattice.Lattice, ions []lattice.Vec, nels int, opt wavefn.Options) (*Batch, error) {
	if nw < 1 {
		return nil, ErrNoWalkers
	}
	b := &Batch{
		movers: make([]*Mover, nw),
		sets:   make([]*particle.Set, nw),
		wfs:    make([]*wavefn.WaveFunction, nw),
	}
	for iw := 0; iw < nw; iw++ {
		m, err := NewMover(iw, lat, ions, rng.ForWalker(baseSeed, iw), nels, opt)
		if err != nil {
			return nil, err
		}
		b.movers[iw] = m
		b.sets[iw] = m.Els
		b.wfs[iw] = m.WF
	}

	return b, nil
}

// Size returns the number of movers.
func (b *Batch) Size() int { return len(b.movers) }

// Mover returns replica iw.
func (b *Batch) Mover(iw int) *Mover { return b.movers[iw] }

// Movers returns the replica list.
func (b *Batch) Movers() []*Mover { return b.movers }

// Sets returns the walker-parallel particle sets.
func (b *Batch) Sets() []*particle.Set { return b.sets }

// WaveFunctions returns the walker-parallel wavefunctions.
func (b *Batch) WaveFunctions() []*wavefn.WaveFunction { return b.wfs }
