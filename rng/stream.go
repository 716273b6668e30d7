package rng

import "math"

// Stream is a deterministic pseudo-random generator with explicit, copyable
// state (xorshift64* core, splitmix64 seeding, cached Box–Muller spare).
//
// Fields:
//   - state    — the xorshift64* word, never zero
//   - spare    — cached second normal deviate from the last Box–Muller pair
//   - hasSpare — whether spare is valid
//
// A Stream is owned by exactly one walker (or the check harness) and is not
// safe for concurrent use.
type Stream struct {
	state    uint64
	spare    float64
	hasSpare bool
}

// splitmix64 scrambles a seed word; used only during construction so that
// nearby seeds produce unrelated stream states.
func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb

	return x ^ (x >> 31)
}

// New returns a Stream seeded from seed. Any seed is valid; a zero scrambled
// state is nudged to keep the xorshift core alive.
func New(seed int64) *Stream {
	s := splitmix64(uint64(seed))
	if s == 0 {
		s = 0x9e3779b97f4a7c15
	}

	return &Stream{state: s}
}

// ForWalker returns the stream for walker index iw under base seed.
// Each walker's stream is decorrelated by folding a distinct prime into the
// seed word before scrambling, so walker streams never alias even for
// adjacent indices (the prime-set seeding convention of the original code).
func ForWalker(base int64, iw int) *Stream {
	return New(base + int64(nthPrime(iw))*0x5deece66d)
}

// Clone returns an independent copy that replays exactly the same sequence
// from the current state. Complexity: O(1).
func (s *Stream) Clone() *Stream {
	cp := *s

	return &cp
}

// Uint64 advances the stream and returns the next raw word (xorshift64*).
func (s *Stream) Uint64() uint64 {
	x := s.state
	x ^= x >> 12
	x ^= x << 25
	x ^= x >> 27
	s.state = x

	return x * 0x2545f4914f6cdd1d
}

// Float64 returns a uniform deviate in [0, 1) with 53 random bits.
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// NormFloat64 returns a standard normal deviate (Marsaglia polar method,
// spare cached so draws come in deterministic pairs).
func (s *Stream) NormFloat64() float64 {
	if s.hasSpare {
		s.hasSpare = false

		return s.spare
	}
	var u, v, q float64
	for {
		u = 2*s.Float64() - 1
		v = 2*s.Float64() - 1
		q = u*u + v*v
		if q > 0 && q < 1 {
			break
		}
	}
	f := math.Sqrt(-2 * math.Log(q) / q)
	s.spare = v * f
	s.hasSpare = true

	return u * f
}

// FillUniform overwrites dst with uniform deviates in [0, 1).
// Complexity: O(len(dst)).
func (s *Stream) FillUniform(dst []float64) {
	for i := range dst {
		dst[i] = s.Float64()
	}
}

// FillNormal overwrites dst with standard normal deviates.
// Complexity: O(len(dst)).
func (s *Stream) FillNormal(dst []float64) {
	for i := range dst {
		dst[i] = s.NormFloat64()
	}
}

// primeCache grows on demand; index i holds the i-th prime (2, 3, 5, ...).
// Access is construction-time only, before any walker goroutine exists.
var primeCache = []uint64{2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31, 37}

// nthPrime returns the i-th prime via trial division over the cache.
func nthPrime(i int) uint64 {
	if i < 0 {
		i = 0
	}
	for len(primeCache) <= i {
		cand := primeCache[len(primeCache)-1] + 2
		for {
			composite := false
			for _, p := range primeCache {
				if p*p > cand {
					break
				}
				if cand%p == 0 {
					composite = true

					break
				}
			}
			if !composite {
				break
			}
			cand += 2
		}
		primeCache = append(primeCache, cand)
	}

	return primeCache[i]
}
