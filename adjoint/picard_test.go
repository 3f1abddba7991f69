// Package adjoint_test contains unit tests for the Picard strategy:
// sweep order, tolerance rules, exhaustion and residual failures.
package adjoint_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/katalvlaran/dualsolve/adjoint"
	"github.com/katalvlaran/dualsolve/forms"
	"github.com/katalvlaran/dualsolve/linsolve"
	"github.com/katalvlaran/dualsolve/matrix"
	"github.com/katalvlaran/dualsolve/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// scriptedSolver builds a one-subsystem Picard solver whose residual follows
// values; every sweep is one handle solve.
func scriptedSolver(t *testing.T, values []float64, opts ...adjoint.Option) (*adjoint.Solver, *recordingBackend, *int) {
	t.Helper()
	r, evals := scripted(values...)
	sys := adjoint.System{scalarSubsystem(t, "u", 2, forms.ConstantVector([]float64{1}), r)}
	be := newRecordingBackend(t, linsolve.DefaultConfig())
	s, err := adjoint.NewSolver(sys, forms.NewAssembler(), be, newProblem(t),
		append([]adjoint.Option{adjoint.WithPicard(true)}, opts...)...)
	require.NoError(t, err)

	return s, be, evals
}

func TestPicard_ZeroInitialResidual(t *testing.T) {
	s, be, evals := scriptedSolver(t, []float64{0})

	_, err := s.Solve()
	require.NoError(t, err)
	require.Empty(t, be.rec.calls, "no sweep runs")
	require.Equal(t, 1, *evals)
	require.Equal(t, adjoint.Fresh, s.Status())
	require.Equal(t, 1, s.Solves())
	require.Equal(t, adjoint.Picard, s.Strategy())
}

func TestPicard_AbsoluteToleranceStopsAtSweepK(t *testing.T) {
	// Relative ratio stays far above rtol; abs drops under atol at k = 3.
	s, be, evals := scriptedSolver(t, []float64{1, 0.5, 0.25, 5e-4, 1e-4},
		adjoint.WithAbsoluteTolerance(1e-3))

	_, err := s.Solve()
	require.NoError(t, err)
	require.Len(t, be.rec.calls, 3)
	require.Equal(t, 4, *evals)
}

func TestPicard_RelativeToleranceStopsAtSweepK(t *testing.T) {
	s, be, evals := scriptedSolver(t, []float64{10, 1, 1e-10, 1e-12},
		adjoint.WithAbsoluteTolerance(0))

	_, err := s.Solve()
	require.NoError(t, err)
	require.Len(t, be.rec.calls, 2)
	require.Equal(t, 3, *evals)
}

func TestPicard_AbsoluteToleranceIgnoredAtSweepZero(t *testing.T) {
	s, be, _ := scriptedSolver(t, []float64{1e-13, 1e-13})

	_, err := s.Solve()
	require.NoError(t, err)
	require.Len(t, be.rec.calls, 1, "one sweep runs before any tolerance applies")
}

func TestPicard_MaxSweepExhaustion(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	require.NoError(t, err)
	s, be, evals := scriptedSolver(t, []float64{1, 0.9}, adjoint.WithMaxSweeps(4), adjoint.WithMetrics(m))

	_, err = s.Solve()
	require.ErrorIs(t, err, adjoint.ErrNotConverged)
	var cf *adjoint.ConvergenceFailure
	require.True(t, errors.As(err, &cf))
	require.Equal(t, 4, cf.SweepsRun)
	require.Equal(t, 0.9, cf.LastResidual)
	require.Equal(t, 1.0, cf.Reference)
	require.Contains(t, cf.Error(), "after 4 sweeps")

	require.Len(t, be.rec.calls, 4)
	require.Equal(t, 5, *evals)
	require.Equal(t, adjoint.Stale, s.Status())
	require.Zero(t, s.Solves())

	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP dualsolve_adjoint_failures_total Failed adjoint solves by reason.
# TYPE dualsolve_adjoint_failures_total counter
dualsolve_adjoint_failures_total{reason="not_converged"} 1
`), "dualsolve_adjoint_failures_total"))

	// A failed solve is not cached: the next call iterates again.
	_, err = s.Solve()
	require.ErrorIs(t, err, adjoint.ErrNotConverged)
	require.Len(t, be.rec.calls, 8)
}

func TestPicard_SweepsRunInReverseOrder(t *testing.T) {
	r0, _ := scripted(1, 1, 1e-20)
	rz, _ := scripted(0)
	one := forms.ConstantVector([]float64{1})
	sys := adjoint.System{
		scalarSubsystem(t, "a", 1, one, r0),
		scalarSubsystem(t, "b", 1, one, rz),
		scalarSubsystem(t, "c", 1, one, rz),
	}
	be := newRecordingBackend(t, linsolve.DefaultConfig())
	s, err := adjoint.NewSolver(sys, forms.NewAssembler(), be, newProblem(t), adjoint.WithPicard(true))
	require.NoError(t, err)

	_, err = s.Solve()
	require.NoError(t, err)
	require.Len(t, be.rec.calls, 6)
	for _, sweep := range be.rec.sweeps(3) {
		require.Equal(t, []int{2, 1, 0}, sweep)
	}
}

// Two mutually coupled 2-DOF equations A·λ0 + c·λ1 = f0, A·λ1 + c·λ0 = f1
// converge to the solution of the monolithic block system.
func TestPicard_CoupledSystemMatchesMonolithicSolve(t *testing.T) {
	const c = 0.5
	A := mustDense(t, 2, 2, 4, 1, 1, 3)
	f := [][]float64{{1, 2}, {3, -1}}

	sys := make(adjoint.System, 2)
	for j := range sys {
		sys[j].Name = []string{"u", "v"}[j]
		sys[j].Bilinear = forms.Constant(A)
		sys[j].Adjoint = make([]float64, 2)
	}
	for j := range sys {
		other := sys[1-j].Adjoint
		fj := f[j]
		sys[j].Linear = func() ([]float64, error) {
			return []float64{fj[0] - c*other[0], fj[1] - c*other[1]}, nil
		}
		sys[j].Residual = forms.LinearResidual(sys[j].Bilinear, sys[j].Linear, sys[j].Adjoint)
	}

	core, logs := observer.New(zapcore.DebugLevel)
	be := newRecordingBackend(t, linsolve.DefaultConfig())
	s, err := adjoint.NewSolver(sys, forms.NewAssembler(), be, newProblem(t),
		adjoint.WithPicard(true), adjoint.WithVerbose(true), adjoint.WithLogger(zap.New(core)))
	require.NoError(t, err)

	got, err := s.Solve()
	require.NoError(t, err)

	block := mustDense(t, 4, 4,
		4, 1, c, 0,
		1, 3, 0, c,
		c, 0, 4, 1,
		0, c, 1, 3,
	)
	lu, err := matrix.FactorizeLU(block)
	require.NoError(t, err)
	want := make([]float64, 4)
	require.NoError(t, lu.Solve([]float64{1, 2, 3, -1}, want))
	require.InDeltaSlice(t, want[:2], got[0], 1e-9)
	require.InDeltaSlice(t, want[2:], got[1], 1e-9)

	sweeps := be.rec.sweeps(2)
	require.NotEmpty(t, sweeps)
	require.Less(t, len(sweeps), adjoint.DefaultMaxSweeps)
	for _, sweep := range sweeps {
		require.Equal(t, []int{1, 0}, sweep)
	}

	progress := logs.FilterMessage("picard sweep").All()
	require.Len(t, progress, len(sweeps)+1)
	for k, e := range progress {
		require.Equal(t, zapcore.InfoLevel, e.Level)
		require.Equal(t, int64(k), e.ContextMap()["sweep"])
		require.Contains(t, e.ContextMap(), "abs")
		require.Contains(t, e.ContextMap(), "rel")
	}
	require.Equal(t, 1, logs.FilterMessage("picard converged").Len())
}

func TestPicard_QuietProgressLogsAtDebug(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s, _, _ := scriptedSolver(t, []float64{1, 1e-20}, adjoint.WithLogger(zap.New(core)))

	_, err := s.Solve()
	require.NoError(t, err)
	progress := logs.FilterMessage("picard sweep").All()
	require.Len(t, progress, 2)
	for _, e := range progress {
		require.Equal(t, zapcore.DebugLevel, e.Level)
	}
}

func TestPicard_ResidualFailurePropagates(t *testing.T) {
	boom := errors.New("form evaluation failed")
	bad := func() ([]float64, error) { return nil, boom }
	sys := adjoint.System{scalarSubsystem(t, "u", 1, forms.ConstantVector([]float64{1}), bad)}
	s, err := adjoint.NewSolver(sys, forms.NewAssembler(), newRecordingBackend(t, linsolve.DefaultConfig()), newProblem(t),
		adjoint.WithPicard(true))
	require.NoError(t, err)

	_, err = s.Solve()
	require.ErrorIs(t, err, adjoint.ErrAssembly)
	require.ErrorIs(t, err, boom)
}
