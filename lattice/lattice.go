// Package lattice models the shared simulation cell: a tiled orthorhombic
// box with containment checks for trial moves and minimum-image distances.
// A Lattice is immutable after construction and is read concurrently by all
// walkers without locking.
package lattice

import (
	"errors"
	"fmt"
	"math"
)

// ErrBadTiling is returned when a tiling factor is < 1.
var ErrBadTiling = errors.New("lattice: tiling factors must be >= 1")

// ErrBadCell is returned when the base cell constant is not positive.
var ErrBadCell = errors.New("lattice: cell constant must be > 0")

// Vec is a 3-vector of Cartesian coordinates.
type Vec [3]float64

// Add returns v + w.
func (v Vec) Add(w Vec) Vec { return Vec{v[0] + w[0], v[1] + w[1], v[2] + w[2]} }

// Sub returns v - w.
func (v Vec) Sub(w Vec) Vec { return Vec{v[0] - w[0], v[1] - w[1], v[2] - w[2]} }

// Scale returns s·v.
func (v Vec) Scale(s float64) Vec { return Vec{s * v[0], s * v[1], s * v[2]} }

// Dot returns the scalar product v · w.
func (v Vec) Dot(w Vec) float64 { return v[0]*w[0] + v[1]*w[1] + v[2]*w[2] }

// Norm returns the Euclidean length of v.
func (v Vec) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Lattice is the tiled simulation cell [0,Lx)×[0,Ly)×[0,Lz).
//   - extent holds the box lengths per axis (cell constant × tiling factor)
type Lattice struct {
	extent Vec
}

// New builds a lattice from a base cell constant and per-axis tiling factors.
// Stage 1 (Validate): cell > 0, every tiling factor >= 1.
// Stage 2 (Finalize): extent_i = cell · tiling_i.
func New(cell float64, tiling [3]int) (*Lattice, error) {
	if cell <= 0 {
		return nil, fmt.Errorf("lattice.New: cell %g: %w", cell, ErrBadCell)
	}
	for d, f := range tiling {
		if f < 1 {
			return nil, fmt.Errorf("lattice.New: tiling[%d]=%d: %w", d, f, ErrBadTiling)
		}
	}

	return &Lattice{extent: Vec{
		cell * float64(tiling[0]),
		cell * float64(tiling[1]),
		cell * float64(tiling[2]),
	}}, nil
}

// Extent returns the box lengths per axis.
func (l *Lattice) Extent() Vec { return l.extent }

// Contains reports whether p lies inside the box; a trial position outside
// fails the move validity check and short-circuits the rest of the
// iteration for that walker.
func (l *Lattice) Contains(p Vec) bool {
	for d := 0; d < 3; d++ {
		if p[d] < 0 || p[d] >= l.extent[d] {
			return false
		}
	}

	return true
}

// MinImage returns the minimum-image displacement from a to b and its length,
// wrapping each component into (-L/2, L/2].
func (l *Lattice) MinImage(a, b Vec) (dr Vec, r float64) {
	for d := 0; d < 3; d++ {
		x := b[d] - a[d]
		ld := l.extent[d]
		x -= ld * math.Round(x/ld)
		dr[d] = x
	}

	return dr, dr.Norm()
}

// CutoffRadius returns half the shortest box length: the largest sphere
// radius for which minimum-image distances are unambiguous. Jastrow factors
// use it as their interaction range.
func (l *Lattice) CutoffRadius() float64 {
	r := l.extent[0]
	if l.extent[1] < r {
		r = l.extent[1]
	}
	if l.extent[2] < r {
		r = l.extent[2]
	}

	return r / 2
}

// BuildIons places one ion at the center of each tile of the box: the fixed,
// shared geometry every walker reads. Deterministic order (x fastest).
func BuildIons(cell float64, tiling [3]int) ([]Vec, *Lattice, error) {
	lat, err := New(cell, tiling)
	if err != nil {
		return nil, nil, err
	}
	ions := make([]Vec, 0, tiling[0]*tiling[1]*tiling[2])
	for k := 0; k < tiling[2]; k++ {
		for j := 0; j < tiling[1]; j++ {
			for i := 0; i < tiling[0]; i++ {
				ions = append(ions, Vec{
					(float64(i) + 0.5) * cell,
					(float64(j) + 0.5) * cell,
					(float64(k) + 0.5) * cell,
				})
			}
		}
	}

	return ions, lat, nil
}
