// Package particle: sentinel error set.

package particle

import "errors"

var (
	// ErrIndexRange indicates a particle or ion index outside valid bounds.
	ErrIndexRange = errors.New("particle: index out of range")

	// ErrNotActive is returned when a move operation names a particle other
	// than the one marked active. Protocol violation: fatal to the run.
	ErrNotActive = errors.New("particle: particle is not the active one")

	// ErrNoTrial is returned when accept or trial-state access happens with
	// no valid trial in flight. Protocol violation: fatal to the run.
	ErrNoTrial = errors.New("particle: no trial move in flight")

	// ErrBadGeometry indicates construction input that violates the lattice
	// (position outside the box, empty particle list).
	ErrBadGeometry = errors.New("particle: invalid geometry")
)
