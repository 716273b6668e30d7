// Package wavefn: sentinel error set shared by all components.

package wavefn

import "errors"

var (
	// ErrProtocol is returned when a trial-position ratio is requested
	// before the matching current-position gradient for the same particle.
	// Programming error: fatal to the run, never retried.
	ErrProtocol = errors.New("wavefn: ratio requested before gradient for this particle")

	// ErrBadSplit indicates an invalid spin split (NelUp outside (0, N)).
	ErrBadSplit = errors.New("wavefn: invalid spin split")

	// ErrBadParam indicates a non-physical Jastrow parameter at build time.
	ErrBadParam = errors.New("wavefn: invalid correlation parameter")

	// ErrBatchShape indicates mismatched slice lengths in a batched call.
	ErrBatchShape = errors.New("wavefn: batched arguments have mismatched lengths")
)
