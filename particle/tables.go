package particle

import "github.com/qmckit/qmcwalk/lattice"

// TableAA stores like-particle (electron–electron) minimum-image distances,
// plus one temporary row for the active particle's trial position. The
// temporary row becomes the stored row only on accept.
type TableAA struct {
	n    int
	d    [][]float64 // d[i][j] = |r_i - r_j| (min image), symmetric, zero diagonal
	temp []float64   // distance from the trial position to every particle
}

// NewTableAA allocates an n-particle table (contents undefined until
// Refresh).
func NewTableAA(n int) *TableAA {
	d := make([][]float64, n)
	for i := range d {
		d[i] = make([]float64, n)
	}

	return &TableAA{n: n, d: d, temp: make([]float64, n)}
}

// Refresh rebuilds every pair distance from the position array.
// Complexity: O(n²).
func (t *TableAA) Refresh(lat *lattice.Lattice, r []lattice.Vec) {
	for i := 0; i < t.n; i++ {
		t.d[i][i] = 0
		for j := i + 1; j < t.n; j++ {
			_, dist := lat.MinImage(r[i], r[j])
			t.d[i][j] = dist
			t.d[j][i] = dist
		}
	}
}

// ComputeTemp fills the temporary row with distances from the trial position
// of particle iel to every other particle. Complexity: O(n).
func (t *TableAA) ComputeTemp(lat *lattice.Lattice, r []lattice.Vec, trial lattice.Vec, iel int) {
	for j := 0; j < t.n; j++ {
		if j == iel {
			t.temp[j] = 0

			continue
		}
		_, dist := lat.MinImage(trial, r[j])
		t.temp[j] = dist
	}
}

// AcceptTemp promotes the temporary row into row and column iel.
// Complexity: O(n).
func (t *TableAA) AcceptTemp(iel int) {
	for j := 0; j < t.n; j++ {
		t.d[iel][j] = t.temp[j]
		t.d[j][iel] = t.temp[j]
	}
}

// At returns the stored distance between particles i and j.
func (t *TableAA) At(i, j int) float64 { return t.d[i][j] }

// Temp returns the temporary distance from the trial position to particle j.
func (t *TableAA) Temp(j int) float64 { return t.temp[j] }

// TableBA stores unlike-particle (electron–ion) distances with the same
// temporary-row discipline. Ions never move; only electron rows change.
type TableBA struct {
	nE, nI int
	d      [][]float64 // d[iel][ion]
	temp   []float64   // distance from the trial position to every ion
}

// NewTableBA allocates an nE×nI table (contents undefined until Refresh).
func NewTableBA(nE, nI int) *TableBA {
	d := make([][]float64, nE)
	for i := range d {
		d[i] = make([]float64, nI)
	}

	return &TableBA{nE: nE, nI: nI, d: d, temp: make([]float64, nI)}
}

// Refresh rebuilds every electron–ion distance. Complexity: O(nE·nI).
func (t *TableBA) Refresh(lat *lattice.Lattice, r, ions []lattice.Vec) {
	for i := 0; i < t.nE; i++ {
		for a := 0; a < t.nI; a++ {
			_, dist := lat.MinImage(r[i], ions[a])
			t.d[i][a] = dist
		}
	}
}

// ComputeTemp fills the temporary row for a trial position.
// Complexity: O(nI).
func (t *TableBA) ComputeTemp(lat *lattice.Lattice, ions []lattice.Vec, trial lattice.Vec) {
	for a := 0; a < t.nI; a++ {
		_, dist := lat.MinImage(trial, ions[a])
		t.temp[a] = dist
	}
}

// AcceptTemp promotes the temporary row into row iel. Complexity: O(nI).
func (t *TableBA) AcceptTemp(iel int) {
	copy(t.d[iel], t.temp)
}

// At returns the stored distance between electron i and ion a.
func (t *TableBA) At(i, a int) float64 { return t.d[i][a] }

// Temp returns the temporary distance from the trial position to ion a.
func (t *TableBA) Temp(a int) float64 { return t.temp[a] }
