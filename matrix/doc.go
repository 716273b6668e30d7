// Package matrix provides the dense linear-algebra substrate for the
// determinant engine: row-major storage, LU factorization with partial
// pivoting, log-determinant extraction, and full inversion.
//
// 🚀 What lives here?
//
//	• Dense      — flat row-major float64 storage with safe accessors
//	• Factorize  — P·A = L·U with partial pivoting and pivot-parity tracking
//	• LogDet     — log|det A| and sign, straight off the U diagonal
//	• Inverse    — column-by-column solve of A·X = I via the factors
//
// ✨ Numeric policy:
//
//   - Fail-fast – a pivot below the configured tolerance returns ErrSingular;
//     nothing is retried and no partial result escapes
//   - Deterministic – fixed loop orders, no map iteration, no randomness
//   - Finite-only – NaN/±Inf are rejected at the Set boundary
//
// Hot callers (the determinant engine) use Row and Data for direct slice
// access; the checked At/Set surface is for construction and tests.
//
// Complexity quicksheet:
//
//	NewDense O(r·c) · At/Set O(1) · Factorize O(n³) · Inverse O(n³)
package matrix
