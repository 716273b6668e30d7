package wavefn

import "math"

// padeFunctor is the two-body radial form u(r) = a·r/(1+b·r), shifted so it
// vanishes continuously at the cutoff. Zero at and beyond rcut.
type padeFunctor struct {
	a, b  float64
	rcut  float64
	shift float64
}

func newPade(a, b, rcut float64) padeFunctor {
	return padeFunctor{a: a, b: b, rcut: rcut, shift: a * rcut / (1 + b*rcut)}
}

// value returns u(r).
func (f padeFunctor) value(r float64) float64 {
	if r >= f.rcut {
		return 0
	}

	return f.a*r/(1+f.b*r) - f.shift
}

// derivs returns u(r), u'(r), u''(r).
func (f padeFunctor) derivs(r float64) (u, du, d2u float64) {
	if r >= f.rcut {
		return 0, 0, 0
	}
	q := 1 + f.b*r
	u = f.a*r/q - f.shift
	du = f.a / (q * q)
	d2u = -2 * f.a * f.b / (q * q * q)

	return u, du, d2u
}

// expFunctor is the one-body radial form u(r) = a·exp(-b·r), shifted to
// vanish at the cutoff.
type expFunctor struct {
	a, b  float64
	rcut  float64
	shift float64
}

func newExp(a, b, rcut float64) expFunctor {
	return expFunctor{a: a, b: b, rcut: rcut, shift: a * math.Exp(-b*rcut)}
}

func (f expFunctor) value(r float64) float64 {
	if r >= f.rcut {
		return 0
	}

	return f.a*math.Exp(-f.b*r) - f.shift
}

func (f expFunctor) derivs(r float64) (u, du, d2u float64) {
	if r >= f.rcut {
		return 0, 0, 0
	}
	e := f.a * math.Exp(-f.b*r)
	u = e - f.shift
	du = -f.b * e
	d2u = f.b * f.b * e

	return u, du, d2u
}
