package detmat_test

import (
	"testing"

	"github.com/qmckit/qmcwalk/detmat"
	"github.com/qmckit/qmcwalk/matrix"
	"github.com/qmckit/qmcwalk/rng"
)

// benchEngine builds an engine over a deterministic random n×n matrix.
func benchEngine(b *testing.B, n int) (*detmat.Engine, *rng.Stream) {
	s := rng.New(11)
	m, err := matrix.NewSquare(n)
	if err != nil {
		b.Fatalf("NewSquare failed: %v", err)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if err = m.Set(i, j, s.Float64()-0.5); err != nil {
				b.Fatalf("Set failed: %v", err)
			}
		}
	}
	e, err := detmat.New(m, 0)
	if err != nil {
		b.Fatalf("New failed: %v", err)
	}

	return e, s
}

// benchmarkProposeCommit cycles proposals and commits across rows.
func benchmarkProposeCommit(b *testing.B, n int) {
	e, s := benchEngine(b, n)
	trial := make([]float64, n)

	b.ResetTimer() // ignore setup time
	for i := 0; i < b.N; i++ {
		for j := range trial {
			trial[j] = s.Float64() - 0.5
		}
		row := i % n
		ratio, err := e.ProposeRowUpdate(row, trial)
		if err != nil {
			b.Fatalf("propose failed: %v", err)
		}
		if err = e.CommitRowUpdate(row, trial, ratio); err != nil {
			b.Fatalf("commit failed: %v", err)
		}
		if e.UpdatesSinceRecompute() >= n { // drift cadence, as the driver runs it
			b.StopTimer()
			if err = e.Recompute(); err != nil {
				b.Fatalf("recompute failed: %v", err)
			}
			b.StartTimer()
		}
	}
}

// BenchmarkProposeCommit_16 exercises a small spin group.
func BenchmarkProposeCommit_16(b *testing.B) { benchmarkProposeCommit(b, 16) }

// BenchmarkProposeCommit_64 exercises a typical spin group.
func BenchmarkProposeCommit_64(b *testing.B) { benchmarkProposeCommit(b, 64) }

// BenchmarkProposeCommit_256 exercises a large spin group.
func BenchmarkProposeCommit_256(b *testing.B) { benchmarkProposeCommit(b, 256) }

// BenchmarkRecompute_64 measures the full refactorization the cadence pays.
func BenchmarkRecompute_64(b *testing.B) {
	e, _ := benchEngine(b, 64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := e.Recompute(); err != nil {
			b.Fatalf("recompute failed: %v", err)
		}
	}
}
