// SPDX-License-Identifier: MIT
// Package matrix provides the linear-algebra kernels consumed by solver
// handles and assemblers: matrix-vector product, LU factorization with
// partial pivoting, and forward/back substitution.
//
// Purpose:
//   - Declare canonical kernels used across the module.
//   - Define operation tags and shared constants for determinism and error reporting.
//
// Notes:
//   - All kernels use central validators and wrap sentinels via matrixErrorf.
//   - Fast paths operate on *Dense flat storage; other Matrix implementations
//     are materialized through ToDense or read via At.

package matrix

import (
	"fmt"
	"math"
)

// ZeroSum is the initial sum value for forward/backward substitution and similar.
const ZeroSum = 0.0

// ZeroPivot is the sentinel for detecting a zero pivot in LU routines.
const ZeroPivot = 0.0

// Operation name constants for unified error wrapping and reducing magic strings.
const (
	opMatVec     = "MatVec"
	opLU         = "FactorizeLU"
	opLUSolve    = "LUFactor.Solve"
	opToDense    = "ToDense"
	opIdentZeros = "IdentZeros"
	opIdentRows  = "ReplaceRowsWithIdentity"
)

// matrixErrorf wraps err with an operation tag, preserving the original error via %w.
// Use only when err != nil to avoid creating a non-nil wrapper around a nil cause.
//
// AI-Hints:
//   - Always gate calls with `if err != nil { return nil, matrixErrorf(tag, err) }`.
//   - Keep `tag` to the canonical constants to simplify log/search pipelines.
func matrixErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// MatVec computes y = m·x and returns a freshly allocated y.
//
// Implementation:
//   - Stage 1: ValidateNotNil(m), ValidateVecLen(x, Cols).
//   - Stage 2: Fast path on *Dense with flat row-major dot products;
//     fallback through At with fixed i→j order.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (wrapped with "MatVec").
//
// Complexity:
//   - Time O(r*c), Space O(r).
func MatVec(m Matrix, x []float64) ([]float64, error) {
	// Validate m is not nil.
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	// Validate x is not nil and match with number of columns
	if err := ValidateVecLen(x, m.Cols()); err != nil {
		return nil, matrixErrorf(opMatVec, err)
	}
	rows, cols := m.Rows(), m.Cols()
	y := make([]float64, rows)

	// Fast-path: *Dense allows flat, row-major dot-products.
	if d, ok := m.(*Dense); ok {
		var i, j, base int
		var acc, xv float64
		for i = 0; i < d.r; i++ {
			acc = ZeroSum
			base = i * d.c
			for j = 0; j < d.c; j++ {
				xv = x[j]
				if xv != 0 { // skip zero multiplications
					acc += d.data[base+j] * xv
				}
			}
			y[i] = acc
		}

		return y, nil
	}

	// Fallback: interface-based dot-products via At.
	var i, j int
	var mv float64
	var err error
	for i = 0; i < rows; i++ {
		y[i] = ZeroSum
		for j = 0; j < cols; j++ {
			mv, err = m.At(i, j)
			if err != nil {
				return nil, matrixErrorf(opMatVec, fmt.Errorf("At(%d,%d): %w", i, j, err))
			}
			y[i] += mv * x[j]
		}
	}

	return y, nil
}

// LUFactor holds a packed LU factorization P·A = L·U of a square matrix.
//   - lu stores L strictly below the diagonal (unit diagonal implied) and U on/above it.
//   - perm[i] is the original row placed at position i.
//   - work is a scratch vector reused by Solve; a factor is not safe for concurrent Solve.
type LUFactor struct {
	n          int
	lu         []float64
	perm       []int
	work       []float64
	nullPivots int
}

// Size returns the order n of the factorized matrix.
func (f *LUFactor) Size() int { return f.n }

// NullPivots returns how many pivots were replaced by the fixation value.
func (f *LUFactor) NullPivots() int { return f.nullPivots }

// FactorizeLU computes P·A = L·U by Doolittle elimination with partial
// (row) pivoting. The input is never mutated.
//
// Implementation:
//   - Stage 1: validate non-nil, square, finite (policy); materialize a flat copy.
//   - Stage 2: for k = 0..n-1 pick the largest |a_ik| (i ≥ k), swap rows,
//     apply null-pivot policy, eliminate below the pivot.
//
// Behavior highlights:
//   - Deterministic: ties in pivot search resolve to the smallest row index.
//   - With fixation on, |pivot| <= threshold*max_j|a_ij| of the pivot's
//     original row is replaced by ±fixation and counted; otherwise an exact
//     zero pivot is ErrSingular. Row-relative tolerances keep identity rows
//     from setting the scale of a small-valued operator.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch, ErrNaNInf, ErrSingular (wrapped with "FactorizeLU").
//
// Complexity:
//   - Time O(n^3), Space O(n^2).
func FactorizeLU(m Matrix, opts ...Option) (*LUFactor, error) {
	o := gatherOptions(opts...)

	// Validate input non‐nil and square
	if err := ValidateSquareNonNil(m); err != nil {
		return nil, matrixErrorf(opLU, err)
	}
	a, err := ToDense(m)
	if err != nil {
		return nil, matrixErrorf(opLU, err)
	}
	if o.validateNaNInf {
		if err = ValidateFiniteVec(a.data); err != nil {
			return nil, matrixErrorf(opLU, err)
		}
	}

	n := a.r
	f := &LUFactor{
		n:    n,
		lu:   a.data,
		perm: make([]int, n),
		work: make([]float64, n),
	}
	var i, j, k, p int
	for i = 0; i < n; i++ {
		f.perm[i] = i
	}

	// Null-pivot tolerance per original row: threshold * max_j |a_ij|.
	var v float64
	nullTol := make([]float64, n)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if v = math.Abs(a.data[i*n+j]); v > nullTol[i] {
				nullTol[i] = v
			}
		}
		nullTol[i] *= o.pivotThreshold
	}

	lu := f.lu
	var piv, l, best float64
	var baseK, baseI int
	for k = 0; k < n; k++ {
		// Partial pivoting: largest magnitude in column k at or below row k.
		p = k
		best = math.Abs(lu[k*n+k])
		for i = k + 1; i < n; i++ {
			if v = math.Abs(lu[i*n+k]); v > best {
				best, p = v, i
			}
		}
		if p != k {
			swapRows(lu, n, p, k)
			f.perm[p], f.perm[k] = f.perm[k], f.perm[p]
		}

		baseK = k * n
		piv = lu[baseK+k]
		if o.nullPivotFix {
			if math.Abs(piv) <= nullTol[f.perm[k]] {
				if piv < 0 {
					piv = -o.pivotFixation
				} else {
					piv = o.pivotFixation
				}
				lu[baseK+k] = piv
				f.nullPivots++
			}
		} else if piv == ZeroPivot {
			return nil, matrixErrorf(opLU, fmt.Errorf("pivot %d: %w", k, ErrSingular))
		}

		// Eliminate rows below k.
		for i = k + 1; i < n; i++ {
			baseI = i * n
			l = lu[baseI+k] / piv
			lu[baseI+k] = l
			if l == 0 {
				continue
			}
			for j = k + 1; j < n; j++ {
				lu[baseI+j] -= l * lu[baseK+j]
			}
		}
	}

	return f, nil
}

// swapRows exchanges rows r1 and r2 of a flat n×n buffer in place.
func swapRows(data []float64, n, r1, r2 int) {
	a := data[r1*n : (r1+1)*n]
	b := data[r2*n : (r2+1)*n]
	for j := 0; j < n; j++ {
		a[j], b[j] = b[j], a[j]
	}
}

// Solve computes x = A⁻¹·b using the stored factors. b is not mutated;
// x may alias b.
//
// Implementation:
//   - Stage 1: permute b into work (y = P·b).
//   - Stage 2: forward substitution with unit-lower L.
//   - Stage 3: back substitution with U, then copy into x.
//
// Errors:
//   - ErrNilMatrix for a nil receiver or nil vectors, ErrDimensionMismatch on lengths.
//
// Complexity:
//   - Time O(n^2), Space O(1) beyond the reusable work vector.
func (f *LUFactor) Solve(b, x []float64) error {
	if f == nil {
		return matrixErrorf(opLUSolve, ErrNilMatrix)
	}
	if err := ValidateVecLen(b, f.n); err != nil {
		return matrixErrorf(opLUSolve, err)
	}
	if err := ValidateVecLen(x, f.n); err != nil {
		return matrixErrorf(opLUSolve, err)
	}

	n, lu, y := f.n, f.lu, f.work
	var i, j, base int
	var sum float64
	for i = 0; i < n; i++ {
		y[i] = b[f.perm[i]]
	}
	// L·z = y (unit diagonal).
	for i = 0; i < n; i++ {
		sum = y[i]
		base = i * n
		for j = 0; j < i; j++ {
			sum -= lu[base+j] * y[j]
		}
		y[i] = sum
	}
	// U·x = z.
	for i = n - 1; i >= 0; i-- {
		sum = y[i]
		base = i * n
		for j = i + 1; j < n; j++ {
			sum -= lu[base+j] * y[j]
		}
		y[i] = sum / lu[base+i]
	}
	copy(x, y)

	return nil
}
