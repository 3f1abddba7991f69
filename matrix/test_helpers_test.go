// SPDX-License-Identifier: MIT
// Package matrix_test contains test helpers
//
// Purpose:
//   • Provide small, deterministic test fixtures and utilities for kernels.
//   • Keep all data finite and well-formed to avoid numeric-policy interference.

package matrix_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/dualsolve/matrix"
	"github.com/stretchr/testify/require"
)

// hide wraps any Matrix to hide its concrete type from type assertions,
// forcing kernels onto their non-*Dense fallback paths.
type hide struct{ matrix.Matrix }

// MustDense allocates an r×c *Dense or fails the test.
func MustDense(t *testing.T, r, c int) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDense(r, c)
	require.NoError(t, err)

	return m
}

// NewFilledDense builds r×c *Dense from a row-major flat slice.
func NewFilledDense(t *testing.T, r, c int, vals []float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, vals)
	require.NoError(t, err)

	return m
}

// RandDiagDominant returns an n×n strictly diagonally dominant matrix, which
// is always nonsingular. Deterministic for a fixed seed.
func RandDiagDominant(t *testing.T, n int, seed int64) *matrix.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	vals := make([]float64, n*n)
	var i, j int
	var rowSum float64
	for i = 0; i < n; i++ {
		rowSum = 0
		for j = 0; j < n; j++ {
			if i == j {
				continue
			}
			vals[i*n+j] = rng.Float64()*2 - 1
			rowSum += math.Abs(vals[i*n+j])
		}
		vals[i*n+i] = rowSum + 1 + rng.Float64()
	}

	return NewFilledDense(t, n, n, vals)
}

// requireSliceClose asserts |a_i - b_i| <= atol + rtol*|b_i| element-wise.
func requireSliceClose(t *testing.T, want, got []float64, rtol, atol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		tol := atol + rtol*math.Abs(want[i])
		require.InDeltaf(t, want[i], got[i], tol, "index %d", i)
	}
}
