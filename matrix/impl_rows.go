// SPDX-License-Identifier: MIT
// Package matrix - row-level edits used when applying essential boundary
// conditions to assembled operators.
//
// Purpose:
//   - ReplaceRowsWithIdentity turns constrained rows into identity rows.
//   - IdentZeros repairs structurally zero rows (no coupling at all) by
//     putting a one on their diagonal, so factorization does not meet a null pivot.
//
// Determinism:
//   - Rows are visited in ascending index order; edits touch only the named rows.

package matrix

import "fmt"

// ReplaceRowsWithIdentity zeroes each listed row of a square *Dense and sets
// its diagonal entry to one. Duplicate indices are harmless.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (non-square), ErrOutOfRange (bad row).
//
// Complexity:
//   - Time O(k*n) for k rows, Space O(1).
func ReplaceRowsWithIdentity(d *Dense, rows []int) error {
	if err := ValidateSquareNonNil(d); err != nil {
		return matrixErrorf(opIdentRows, err)
	}
	var j, base int
	for _, r := range rows {
		if r < 0 || r >= d.r {
			return matrixErrorf(opIdentRows, fmt.Errorf("row %d: %w", r, ErrOutOfRange))
		}
		base = r * d.c
		for j = 0; j < d.c; j++ {
			d.data[base+j] = 0
		}
		d.data[base+r] = 1
	}

	return nil
}

// IdentZeros places a one on the diagonal of every row that is entirely
// zero and returns the affected row indices in ascending order.
//
// Errors:
//   - ErrNilMatrix, ErrDimensionMismatch (non-square).
//
// Complexity:
//   - Time O(n^2), Space O(z) for z repaired rows.
func IdentZeros(d *Dense) ([]int, error) {
	if err := ValidateSquareNonNil(d); err != nil {
		return nil, matrixErrorf(opIdentZeros, err)
	}
	var fixed []int
	var i, j, base int
	var zero bool
	for i = 0; i < d.r; i++ {
		base = i * d.c
		zero = true
		for j = 0; j < d.c; j++ {
			if d.data[base+j] != 0 {
				zero = false
				break
			}
		}
		if zero {
			d.data[base+i] = 1
			fixed = append(fixed, i)
		}
	}

	return fixed, nil
}
