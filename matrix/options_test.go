// SPDX-License-Identifier: MIT
// Package matrix_test contains unit tests for option defaults and panics.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/dualsolve/matrix"
	"github.com/stretchr/testify/require"
)

// 1) NewMatrixOptions() equals the documented defaults.
func TestDefaultOptions_Documented(t *testing.T) {
	o := matrix.NewMatrixOptions()
	require.Equal(t, matrix.DefaultNullPivotFixation, o.NullPivotFixation())
	require.Equal(t, matrix.DefaultPivotThreshold, o.PivotThreshold())
	require.Equal(t, matrix.DefaultPivotFixation, o.PivotFixation())
}

// 2) Last writer wins; each option touches only its own fields.
func TestNewMatrixOptions_LastWriterWins(t *testing.T) {
	o := matrix.NewMatrixOptions(matrix.WithNullPivotFixation(1e-8, 1e10), matrix.WithNoNullPivotFixation())
	require.False(t, o.NullPivotFixation())
	require.Equal(t, 1e-8, o.PivotThreshold(), "disabling keeps the last policy values")

	o = matrix.NewMatrixOptions(matrix.WithNoNullPivotFixation(), matrix.WithNullPivotFixation(0, 1))
	require.True(t, o.NullPivotFixation())
	require.Zero(t, o.PivotThreshold())
	require.Equal(t, 1.0, o.PivotFixation())
}

// 3) Nonsensical values are programmer errors.
func TestWithNullPivotFixation_Panics(t *testing.T) {
	bad := [][2]float64{
		{-1, 1},
		{math.NaN(), 1},
		{math.Inf(1), 1},
		{0, 0},
		{0, -1},
		{0, math.Inf(1)},
	}
	for _, p := range bad {
		require.Panics(t, func() { matrix.WithNullPivotFixation(p[0], p[1]) }, "threshold=%v fixation=%v", p[0], p[1])
	}
}

// 4) NaN validation can be switched off for factorization input.
func TestWithNoValidateNaNInf_FactorizeLU(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)
	require.NoError(t, m.Set(0, 0, 1))
	require.NoError(t, m.Set(1, 1, 1))

	_, err = matrix.FactorizeLU(m, matrix.WithValidateNaNInf())
	require.NoError(t, err)
	_, err = matrix.FactorizeLU(m, matrix.WithNoValidateNaNInf())
	require.NoError(t, err)
}
