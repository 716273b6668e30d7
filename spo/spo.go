// Package spo is the seam to the single-particle-orbital evaluator. The
// determinant components consume orbital rows through the Source interface;
// a spline-based evaluator plugs in here in a full production code.
//
// The benchmark implementation, PseudoSource, draws each orbital value from
// the owning walker's random stream (uniform in [-0.5, 0.5)) and ignores the
// position entirely — exactly the fill the original determinant benchmark
// uses, which keeps the reference engine reproducible against the production
// engine on a cloned stream.
package spo

import (
	"github.com/qmckit/qmcwalk/lattice"
	"github.com/qmckit/qmcwalk/rng"
)

// Source evaluates one row of single-particle-orbital values at a position.
// dst receives one value per orbital; implementations must fill exactly
// len(dst) entries.
type Source interface {
	EvaluateRow(dst []float64, pos lattice.Vec)
}

// shift centers the uniform draw on zero.
const shift = 0.5

// PseudoSource is the deterministic benchmark orbital source. It owns its
// stream (a clone of the walker's construction-time stream) and is not safe
// for concurrent use.
type PseudoSource struct {
	stream *rng.Stream
}

// NewPseudoSource wraps a stream. Callers hand in a Clone when the same
// sequence must also drive an independent reference engine.
func NewPseudoSource(s *rng.Stream) *PseudoSource {
	return &PseudoSource{stream: s}
}

// EvaluateRow fills dst with uniform deviates in [-0.5, 0.5); pos is unused
// by the benchmark source. Complexity: O(len(dst)).
func (p *PseudoSource) EvaluateRow(dst []float64, _ lattice.Vec) {
	for j := range dst {
		dst[j] = p.stream.Float64() - shift
	}
}
