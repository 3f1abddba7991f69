// Package adjoint_test contains shared fixtures: recording backends, scripted
// residuals and small subsystem builders.
package adjoint_test

import (
	"testing"

	"github.com/katalvlaran/dualsolve/adjoint"
	"github.com/katalvlaran/dualsolve/forms"
	"github.com/katalvlaran/dualsolve/linsolve"
	"github.com/katalvlaran/dualsolve/matrix"
	"github.com/katalvlaran/dualsolve/state"
	"github.com/stretchr/testify/require"
)

// recorder logs the subsystem index of every handle Solve, in call order.
type recorder struct {
	calls []int
}

// sweeps splits calls into consecutive groups of n.
func (r *recorder) sweeps(n int) [][]int {
	var out [][]int
	for i := 0; i+n <= len(r.calls); i += n {
		out = append(out, r.calls[i:i+n])
	}

	return out
}

// recordingBackend wraps a real backend; handles are numbered in creation
// order, which NewSolver guarantees is subsystem order.
type recordingBackend struct {
	inner   *linsolve.Backend
	rec     *recorder
	created int
}

func newRecordingBackend(t *testing.T, cfg linsolve.Config) *recordingBackend {
	t.Helper()
	b, err := linsolve.New(cfg)
	require.NoError(t, err)

	return &recordingBackend{inner: b, rec: &recorder{}}
}

func (b *recordingBackend) NewSolver() (adjoint.LinearSolver, error) {
	h, err := b.inner.NewSolver()
	if err != nil {
		return nil, err
	}
	id := b.created
	b.created++

	return &recordingHandle{inner: h, id: id, rec: b.rec}, nil
}

type recordingHandle struct {
	inner     adjoint.LinearSolver
	id        int
	rec       *recorder
	operators int
}

func (h *recordingHandle) SetOperator(a matrix.Matrix) error {
	h.operators++
	return h.inner.SetOperator(a)
}

func (h *recordingHandle) Solve(rhs, x []float64) error {
	h.rec.calls = append(h.rec.calls, h.id)
	return h.inner.Solve(rhs, x)
}

// scripted returns a residual form yielding one scalar per evaluation.
// Past the end of the script the last value repeats.
func scripted(values ...float64) (forms.Residual, *int) {
	evals := 0
	return func() ([]float64, error) {
		v := values[len(values)-1]
		if evals < len(values) {
			v = values[evals]
		}
		evals++

		return []float64{v}, nil
	}, &evals
}

func mustDense(t *testing.T, r, c int, vals ...float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFrom(r, c, vals)
	require.NoError(t, err)

	return m
}

// scalarSubsystem is a 1×1 subsystem a·λ = l() with a scripted residual.
func scalarSubsystem(t *testing.T, name string, a float64, l forms.Linear, r forms.Residual) adjoint.Subsystem {
	t.Helper()

	return adjoint.Subsystem{
		Name:     name,
		Bilinear: forms.Constant(mustDense(t, 1, 1, a)),
		Linear:   l,
		Residual: r,
		Adjoint:  make([]float64, 1),
	}
}

func newProblem(t *testing.T) *state.Problem {
	t.Helper()
	p, err := state.NewProblem(func() error { return nil })
	require.NoError(t, err)

	return p
}

// backwardChain builds three 2-DOF subsystems where subsystem i's right-hand
// side depends on λ_{i+1}. DOF 0 of every subsystem is a homogeneous
// Dirichlet DOF.
func backwardChain(t *testing.T) adjoint.System {
	t.Helper()
	sys := make(adjoint.System, 3)
	op := mustDense(t, 2, 2,
		4, 1,
		1, 3,
	)
	for i := range sys {
		sys[i] = adjoint.Subsystem{
			Name:     []string{"rho", "u", "p"}[i],
			Bilinear: forms.Constant(op),
			BCs:      []forms.DirichletBC{forms.Homogeneous(0)},
			Adjoint:  make([]float64, 2),
		}
	}
	sys[2].Linear = forms.ConstantVector([]float64{0, 6})
	for i := 0; i < 2; i++ {
		next := sys[i+1].Adjoint
		sys[i].Linear = func() ([]float64, error) {
			return []float64{0, 1 + next[1]}, nil
		}
	}

	return sys
}
