// Package adjoint_test contains unit tests for the Picard convergence monitor.
package adjoint_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/dualsolve/adjoint"
	"github.com/stretchr/testify/require"
)

// run feeds residuals to a monitor, advancing while it is Running, and
// returns the final state with the number of completed sweeps.
func run(m *adjoint.Monitor, residuals []float64) (adjoint.State, int) {
	st := adjoint.Running
	for _, r := range residuals {
		if st = m.Observe(r); st != adjoint.Running {
			break
		}
		m.Advance()
	}

	return st, m.Sweep()
}

func TestMonitor_Transitions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		rtol, atol float64
		max        int
		residuals  []float64
		want       adjoint.State
		sweeps     int
	}{
		{"zero at start", 1e-10, 1e-12, 50, []float64{0}, adjoint.Converged, 0},
		{"zero later", 1e-10, 1e-12, 50, []float64{3, 2, 0}, adjoint.Converged, 2},
		{"relative", 1e-2, 0, 50, []float64{100, 10, 1}, adjoint.Converged, 2},
		{"absolute", 1e-10, 1e-3, 50, []float64{1, 0.5, 1e-3}, adjoint.Converged, 2},
		{"atol skipped at sweep 0", 1e-10, 1, 50, []float64{0.5, 0.5}, adjoint.Converged, 1},
		{"exhausted", 1e-10, 1e-12, 3, []float64{1, 1, 1, 1, 1}, adjoint.Failed, 3},
		{"zero cap", 1e-10, 1e-12, 0, []float64{1}, adjoint.Failed, 0},
		{"nan never converges", 1e-10, 1e-12, 2, []float64{1, math.NaN(), math.NaN()}, adjoint.Failed, 2},
		{"converged on last allowed sweep", 1e-10, 1e-3, 3, []float64{1, 1, 1, 1e-4}, adjoint.Converged, 3},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := adjoint.NewMonitor(tc.rtol, tc.atol, tc.max)
			st, sweeps := run(m, tc.residuals)
			require.Equal(t, tc.want, st)
			require.Equal(t, tc.sweeps, sweeps)
			require.Equal(t, tc.want, m.State())
		})
	}
}

func TestMonitor_Accessors(t *testing.T) {
	m := adjoint.NewMonitor(1e-10, 1e-12, 5)
	require.Zero(t, m.Relative())

	require.Equal(t, adjoint.Running, m.Observe(4))
	require.Equal(t, 4.0, m.Reference())
	require.Equal(t, 1.0, m.Relative())
	m.Advance()

	require.Equal(t, adjoint.Running, m.Observe(1))
	require.Equal(t, 4.0, m.Reference(), "reference is fixed at sweep 0")
	require.Equal(t, 1.0, m.Residual())
	require.Equal(t, 0.25, m.Relative())
	require.Equal(t, 1, m.Sweep())
}

func TestNewMonitor_Panics(t *testing.T) {
	require.Panics(t, func() { adjoint.NewMonitor(-1, 0, 1) })
	require.Panics(t, func() { adjoint.NewMonitor(0, math.Inf(1), 1) })
	require.Panics(t, func() { adjoint.NewMonitor(0, 0, -1) })
}
