// Package rng provides the per-walker pseudo-random streams that drive move
// proposals, acceptance draws, and the pseudo-orbital benchmark source.
//
// 🚀 What lives here?
//
//	• Stream     — an explicitly owned generator with copyable state
//	• ForWalker  — deterministic seeding from (base seed, walker index)
//	• Clone      — a byte-for-byte copy that replays the same sequence
//
// ✨ Why not math/rand?
//
//   - The correctness harness constructs the production and reference engines
//     from identical copies of one stream and then keeps drawing from the
//     original; that requires cloning generator state, which math/rand's
//     Source does not expose
//   - The state here is three words; Clone is a struct copy, no replay
//
// Streams are deliberately NOT safe for concurrent use: each walker owns
// exactly one stream and no other goroutine may touch it (the ownership rule
// for every piece of walker state).
package rng
