// Package particle holds per-walker particle state: electron positions, the
// one in-flight trial move, and the distance tables the correlation factors
// read.
//
// 🚀 The move protocol (one particle at a time):
//
//	SetActive(iel) → MakeMoveAndCheck(iel, dr) → AcceptMove | RejectMove
//
// MakeMoveAndCheck validates the displaced position against the lattice
// containment constraint; an invalid trial leaves the set untouched and the
// caller skips the rest of the iteration for this walker. DonePbyP closes a
// sweep with a full distance-table refresh.
//
// ✨ Ownership:
//
//   - Each Set belongs to exactly one walker; nothing here locks
//   - The ion geometry and lattice are shared read-only across all walkers
//
// Rejected trials are bit-exact no-ops: the position array and both distance
// tables are only written on AcceptMove / DonePbyP.
package particle
