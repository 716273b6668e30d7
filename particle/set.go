package particle

import (
	"fmt"

	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/rng"
)

// Set is one walker's particle state.
//
// Fields:
//   - lat, ions — shared read-only geometry (never written after setup)
//   - r         — electron positions, exclusively owned by this walker
//   - g, l      — gradient/laplacian accumulators filled by EvaluateGL
//   - active    — the particle marked for the current move, -1 when idle
//   - trial     — the displaced position while a valid trial is in flight
type Set struct {
	lat  *lattice.Lattice
	ions []lattice.Vec

	r []lattice.Vec
	g []lattice.Vec
	l []float64

	active   int
	trial    lattice.Vec
	hasTrial bool

	ee *TableAA
	ei *TableBA
}

// NewSet builds a particle set over shared geometry and takes ownership of a
// copy of positions. Every initial position must satisfy lattice containment.
func NewSet(lat *lattice.Lattice, ions, positions []lattice.Vec) (*Set, error) {
	if len(positions) == 0 {
		return nil, fmt.Errorf("particle.NewSet: no particles: %w", ErrBadGeometry)
	}
	for i, p := range positions {
		if !lat.Contains(p) {
			return nil, fmt.Errorf("particle.NewSet: position %d outside box: %w", i, ErrBadGeometry)
		}
	}
	s := &Set{
		lat:    lat,
		ions:   ions,
		r:      append([]lattice.Vec(nil), positions...),
		g:      make([]lattice.Vec, len(positions)),
		l:      make([]float64, len(positions)),
		active: -1,
		ee:     NewTableAA(len(positions)),
		ei:     NewTableBA(len(positions), len(ions)),
	}
	s.Update()

	return s, nil
}

// BuildElectrons draws nels uniform positions inside the box from the
// walker's stream: the benchmark's initial electron placement.
func BuildElectrons(lat *lattice.Lattice, nels int, s *rng.Stream) []lattice.Vec {
	ext := lat.Extent()
	r := make([]lattice.Vec, nels)
	for i := range r {
		for d := 0; d < 3; d++ {
			r[i][d] = s.Float64() * ext[d]
		}
	}

	return r
}

// N returns the number of electrons.
func (s *Set) N() int { return len(s.r) }

// NIons returns the number of ions.
func (s *Set) NIons() int { return len(s.ions) }

// Ion returns the fixed position of ion a.
func (s *Set) Ion(a int) lattice.Vec { return s.ions[a] }

// Pos returns the committed position of particle i.
func (s *Set) Pos(i int) lattice.Vec { return s.r[i] }

// Lattice returns the shared cell geometry.
func (s *Set) Lattice() *lattice.Lattice { return s.lat }

// EE returns the electron–electron distance table.
func (s *Set) EE() *TableAA { return s.ee }

// EI returns the electron–ion distance table.
func (s *Set) EI() *TableBA { return s.ei }

// Update performs a full distance-table rebuild from the committed
// positions. Called at setup and by DonePbyP.
func (s *Set) Update() {
	s.ee.Refresh(s.lat, s.r)
	s.ei.Refresh(s.lat, s.r, s.ions)
}

// SetActive marks particle iel as the one being moved this iteration and
// clears any stale trial.
func (s *Set) SetActive(iel int) error {
	if iel < 0 || iel >= len(s.r) {
		return fmt.Errorf("particle.SetActive: %d of %d: %w", iel, len(s.r), ErrIndexRange)
	}
	s.active = iel
	s.hasTrial = false

	return nil
}

// Active returns the active particle index, -1 when idle.
func (s *Set) Active() int { return s.active }

// MakeMoveAndCheck displaces the active particle by dr and validity-checks
// the result against lattice containment.
//
// Returns (true, nil) with the trial in flight and temporary distance rows
// filled, or (false, nil) when the trial lands outside the box — in which
// case the set is completely untouched and the walker sits out the rest of
// this iteration. Calling it for a non-active particle is a protocol
// violation.
func (s *Set) MakeMoveAndCheck(iel int, dr lattice.Vec) (bool, error) {
	if iel != s.active {
		return false, fmt.Errorf("particle.MakeMoveAndCheck: particle %d, active %d: %w", iel, s.active, ErrNotActive)
	}
	trial := s.r[iel].Add(dr)
	if !s.lat.Contains(trial) {
		s.hasTrial = false

		return false, nil
	}
	s.trial = trial
	s.hasTrial = true
	s.ee.ComputeTemp(s.lat, s.r, trial, iel)
	s.ei.ComputeTemp(s.lat, s.ions, trial)

	return true, nil
}

// TrialPos returns the in-flight trial position for particle iel.
func (s *Set) TrialPos(iel int) (lattice.Vec, error) {
	if iel != s.active || !s.hasTrial {
		return lattice.Vec{}, fmt.Errorf("particle.TrialPos: particle %d: %w", iel, ErrNoTrial)
	}

	return s.trial, nil
}

// AcceptMove commits the in-flight trial: the position array takes the new
// coordinate and both tables promote their temporary rows.
func (s *Set) AcceptMove(iel int) error {
	if iel != s.active || !s.hasTrial {
		return fmt.Errorf("particle.AcceptMove: particle %d: %w", iel, ErrNoTrial)
	}
	s.r[iel] = s.trial
	s.ee.AcceptTemp(iel)
	s.ei.AcceptTemp(iel)
	s.hasTrial = false

	return nil
}

// RejectMove discards the in-flight trial; the committed state is untouched.
// Safe to call when no trial is in flight (boundary-rejected walkers).
func (s *Set) RejectMove(iel int) {
	if iel == s.active {
		s.hasTrial = false
	}
}

// DonePbyP closes a particle-by-particle sweep: full distance-table refresh
// and return to the idle state.
func (s *Set) DonePbyP() {
	s.Update()
	s.active = -1
	s.hasTrial = false
}

// GradAccum returns the live per-particle gradient accumulator (written by
// EvaluateGL).
func (s *Set) GradAccum() []lattice.Vec { return s.g }

// LapAccum returns the live per-particle laplacian accumulator.
func (s *Set) LapAccum() []float64 { return s.l }

// ResetGL zeroes both accumulators before a fresh full evaluation.
func (s *Set) ResetGL() {
	for i := range s.g {
		s.g[i] = lattice.Vec{}
		s.l[i] = 0
	}
}
