// Package matrix offers the dense linear-algebra layer behind adjoint solves.
//
// The matrix package provides:
//
//   - Dense, a row-major Matrix with bounds-checked accessors and a
//     finite-only numeric policy.
//   - FactorizeLU / LUFactor.Solve: Doolittle elimination with partial
//     pivoting and optional null-pivot fixation, reusable across many
//     right-hand sides.
//   - Row edits for essential boundary conditions (ReplaceRowsWithIdentity,
//     IdentZeros) and vector helpers (MatVec, Residual, Norm2).
//
// Dense operators are best for small and medium systems where O(n²) memory
// and O(n³) factorization are acceptable.
package matrix
