// Package qmcwalk is a quantum Monte Carlo walker-move miniapp: it drives
// batched electron-move trials through a composite trial wavefunction and
// maintains Slater-determinant inverses incrementally.
//
// 🚀 What is qmcwalk?
//
//	A deterministic, reproducible benchmark of the per-process QMC update
//	engine, bringing together:
//		• matrix/    — dense row-major storage, pivoted LU, log-determinant, inversion
//		• detmat/    — incremental inverse maintenance (propose/commit rank-1 row updates)
//		• wavefn/    — wavefunction components: spin-split determinants + Jastrow factors
//		• particle/  — particle sets, trial moves, distance tables, lattice containment
//		• walker/    — independent simulation replicas with owned random streams
//		• driver/    — the lock-step move pipeline: gradient → propose → ratio → accept
//		• detref/    — an independently coded reference engine for correctness checks
//
// ✨ Why this shape?
//
//   - Deterministic – every walker owns a seeded stream; same seed, same run
//   - Fail-fast – singular matrices and NaN ratios abort, they are never retried
//   - Explicit state – no global generators, no global timer registries
//   - Batched – every hot operation is expressed over a whole walker batch,
//     with a synchronous barrier between pipeline stages
//
// Two entry points live under cmd/qmcwalk:
//
//	qmcwalk run    — the timing driver (synchronous multi-walker moves)
//	qmcwalk check  — the correctness driver (production engine vs. reference)
//
// Dive into DESIGN.md for the component map and the numerical policy.
package qmcwalk
