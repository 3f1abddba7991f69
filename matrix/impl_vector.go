// SPDX-License-Identifier: MIT
// Package matrix - vector helpers over plain []float64.
//
// Adjoint buffers, right-hand sides and residuals are plain slices; these
// helpers keep norm and residual arithmetic in one place and delegate the
// BLAS-1 work to gonum/floats.

package matrix

import "gonum.org/v1/gonum/floats"

// Norm2 returns the Euclidean norm of x. An empty or nil slice has norm 0.
// Complexity: O(n).
func Norm2(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	return floats.Norm(x, 2)
}

// Residual computes r = A·x − b into a fresh slice.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (wrapped with "MatVec").
//
// Complexity: O(r*c).
func Residual(a Matrix, x, b []float64) ([]float64, error) {
	ax, err := MatVec(a, x)
	if err != nil {
		return nil, err
	}
	if err = ValidateVecLen(b, len(ax)); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	floats.Sub(ax, b) // ax ← ax − b

	return ax, nil
}
