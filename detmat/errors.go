// Package detmat: sentinel error set. All engine operations return these
// sentinels (possibly wrapped with context); tests match via errors.Is.

package detmat

import "errors"

var (
	// ErrRowRange indicates a row index outside [0, N).
	ErrRowRange = errors.New("detmat: row index out of range")

	// ErrRowLength indicates a trial row whose length differs from N.
	ErrRowLength = errors.New("detmat: trial row length mismatch")

	// ErrNoPendingProposal is returned when CommitRowUpdate is called without
	// a preceding ProposeRowUpdate. Protocol violation: fatal to the run.
	ErrNoPendingProposal = errors.New("detmat: commit without pending proposal")

	// ErrProposalMismatch is returned when the arguments to CommitRowUpdate
	// differ from the last proposal. Protocol violation: fatal to the run.
	ErrProposalMismatch = errors.New("detmat: commit does not match pending proposal")

	// ErrNonFiniteRatio signals a NaN or ±Inf determinant ratio: an invalid
	// physical configuration or an upstream bug, never retried.
	ErrNonFiniteRatio = errors.New("detmat: non-finite determinant ratio")
)
