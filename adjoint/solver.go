// SPDX-License-Identifier: MIT

package adjoint

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/floats"

	"github.com/katalvlaran/dualsolve/forms"
	"github.com/katalvlaran/dualsolve/metrics"
)

// Strategy selects how the adjoint system is solved.
type Strategy int

const (
	// Direct solves every subsystem once, from the last index down to 0.
	Direct Strategy = iota
	// Picard repeats reverse sweeps until the combined residual converges.
	Picard
)

// String implements fmt.Stringer.
func (s Strategy) String() string {
	if s == Picard {
		return "picard"
	}

	return "direct"
}

// Lifecycle reports whether the adjoint buffers match the forward state.
type Lifecycle int

const (
	// Stale: no solve has completed for the current forward state.
	Stale Lifecycle = iota
	// Fresh: the buffers hold the solution for the current forward state.
	Fresh
)

// String implements fmt.Stringer.
func (l Lifecycle) String() string {
	if l == Fresh {
		return "fresh"
	}

	return "stale"
}

// Solver computes the adjoint variables of a System.
//
// It owns one solver handle per subsystem, created by NewSolver in index
// order and reused by every later solve and sweep. A Solver is not safe for
// concurrent use.
type Solver struct {
	sys       System
	assembler FormAssembler
	provider  StateProvider
	handles   []LinearSolver
	opts      Options
	logger    *zap.Logger
	metrics   *metrics.Solver

	// cache: fresh means a full solve completed against version.
	fresh   bool
	version uint64
	solves  int
}

// NewSolver validates sys and creates one handle per subsystem.
//
// Errors:
//   - ErrNilCollaborator, ErrEmptySystem, ErrMissingForm, ErrBufferSize.
//   - any error of backend.NewSolver, wrapped with ErrLinearSolve.
//
// Panics if an Option constructor received a nonsensical value.
func NewSolver(sys System, assembler FormAssembler, backend SolverBackend, provider StateProvider, opts ...Option) (*Solver, error) {
	if assembler == nil || backend == nil || provider == nil {
		return nil, ErrNilCollaborator
	}
	o := gatherOptions(opts...)
	if err := sys.validate(o.Picard); err != nil {
		return nil, err
	}

	handles := make([]LinearSolver, len(sys))
	for i := range sys {
		h, err := backend.NewSolver()
		if err != nil {
			return nil, subsystemErrorf(ErrLinearSolve, i, sys[i].Name, err)
		}
		handles[i] = h
	}

	return &Solver{
		sys:       sys,
		assembler: assembler,
		provider:  provider,
		handles:   handles,
		opts:      o,
		logger:    o.logger.Named("adjoint"),
		metrics:   o.metrics,
	}, nil
}

// Solve makes the forward state current and returns the adjoint buffers,
// ordered by subsystem index. The slices are the subsystems' own Adjoint
// buffers, not copies.
//
// If a solve already completed for the provider's current snapshot the
// buffers are returned untouched. Otherwise the configured strategy runs;
// on success the solver becomes Fresh and Solves() increases by one. On
// failure the solver stays Stale and the buffers must not be used.
//
// Errors:
//   - ErrState wrapping the provider's error.
//   - ErrAssembly or ErrLinearSolve tagged with the failing subsystem.
//   - *ConvergenceFailure (errors.Is(err, ErrNotConverged)) under Picard.
func (s *Solver) Solve() ([][]float64, error) {
	snap, err := s.provider.EnsureSolved()
	if err != nil {
		s.metrics.ObserveFailure(metrics.ReasonState)
		return nil, fmt.Errorf("%w: %w", ErrState, err)
	}
	if s.fresh && snap.Version == s.version {
		s.logger.Debug("adjoint cache hit", zap.Uint64("version", snap.Version))
		s.metrics.ObserveCacheHit()
		return s.Adjoints(), nil
	}

	strategy := s.Strategy()
	s.fresh = false
	s.logger.Debug("adjoint solve started",
		zap.Stringer("strategy", strategy),
		zap.Uint64("version", snap.Version),
		zap.Int("subsystems", len(s.sys)),
	)
	start := time.Now()

	if strategy == Picard {
		err = s.solvePicard()
	} else {
		err = s.solveDirect()
	}
	if err != nil {
		s.metrics.ObserveFailure(failureReason(err))
		return nil, err
	}

	s.fresh = true
	s.version = snap.Version
	s.solves++
	s.metrics.ObserveSolve(strategy.String())
	s.logger.Info("adjoint solve completed",
		zap.Stringer("strategy", strategy),
		zap.Uint64("version", snap.Version),
		zap.Int("solves", s.solves),
		zap.Duration("duration", time.Since(start)),
	)

	return s.Adjoints(), nil
}

// solveDirect solves every subsystem once, from N-1 down to 0.
func (s *Solver) solveDirect() error {
	for i := len(s.sys) - 1; i >= 0; i-- {
		if err := s.solveSubsystem(i); err != nil {
			return err
		}
	}

	return nil
}

// solvePicard alternates residual evaluations and reverse sweeps until the
// monitor leaves Running.
func (s *Solver) solvePicard() error {
	mon := NewMonitor(s.opts.RelativeTolerance, s.opts.AbsoluteTolerance, s.opts.MaxSweeps)
	level := zapcore.DebugLevel
	if s.opts.Verbose {
		level = zapcore.InfoLevel
	}

	for {
		r, err := s.residual()
		if err != nil {
			return err
		}
		st := mon.Observe(r)
		s.metrics.ObserveResidual(r)
		s.logger.Log(level, "picard sweep",
			zap.Int("sweep", mon.Sweep()),
			zap.Float64("abs", r),
			zap.Float64("rel", mon.Relative()),
		)

		switch st {
		case Converged:
			s.metrics.ObserveSweeps(mon.Sweep())
			s.logger.Debug("picard converged", zap.Int("sweeps", mon.Sweep()), zap.Float64("abs", r))
			return nil
		case Failed:
			s.metrics.ObserveSweeps(mon.Sweep())
			s.logger.Error("picard failed",
				zap.Int("sweeps", mon.Sweep()),
				zap.Float64("abs", r),
				zap.Float64("rel", mon.Relative()),
			)
			return &ConvergenceFailure{LastResidual: r, Reference: mon.Reference(), SweepsRun: mon.Sweep()}
		}

		for j := len(s.sys) - 1; j >= 0; j-- {
			if err = s.solveSubsystem(j); err != nil {
				return err
			}
		}
		mon.Advance()
	}
}

// residual returns sqrt(Σ_j ||R_j||²) over all subsystems, each residual
// taken with its boundary DOFs zeroed.
func (s *Solver) residual() (float64, error) {
	norms := make([]float64, len(s.sys))
	for j := range s.sys {
		sub := &s.sys[j]
		r, err := s.assembler.AssembleResidual(sub.Residual, sub.BCs)
		if err != nil {
			return 0, subsystemErrorf(ErrAssembly, j, sub.Name, err)
		}
		if len(r) > 0 {
			norms[j] = floats.Norm(r, 2)
		}
	}

	return floats.Norm(norms, 2), nil
}

// solveSubsystem assembles subsystem i, hands the operator to its own
// handle and solves into its adjoint buffer.
func (s *Solver) solveSubsystem(i int) error {
	sub := &s.sys[i]
	A, b, err := s.assembler.AssembleSystem(sub.Bilinear, sub.Linear, sub.BCs, forms.AssembleOptions{IdentZeros: s.opts.IdentZeros})
	if err != nil {
		return subsystemErrorf(ErrAssembly, i, sub.Name, err)
	}
	h := s.handles[i]
	if err = h.SetOperator(A); err != nil {
		return subsystemErrorf(ErrLinearSolve, i, sub.Name, err)
	}
	if err = h.Solve(b, sub.Adjoint); err != nil {
		return subsystemErrorf(ErrLinearSolve, i, sub.Name, err)
	}

	return nil
}

// Adjoints returns the adjoint buffers in subsystem order.
func (s *Solver) Adjoints() [][]float64 {
	out := make([][]float64, len(s.sys))
	for i := range s.sys {
		out[i] = s.sys[i].Adjoint
	}

	return out
}

// Status reports Fresh when the last completed solve matches the forward
// state. Providers exposing Version() are consulted so that a state change
// shows up before the next Solve.
func (s *Solver) Status() Lifecycle {
	if !s.fresh {
		return Stale
	}
	if v, ok := s.provider.(versioned); ok && v.Version() != s.version {
		return Stale
	}

	return Fresh
}

// Solves returns the number of completed (non-cached) solves.
func (s *Solver) Solves() int { return s.solves }

// Strategy returns the configured strategy.
func (s *Solver) Strategy() Strategy {
	if s.opts.Picard {
		return Picard
	}

	return Direct
}

// Options returns the effective configuration.
func (s *Solver) Options() Options { return s.opts }

func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrNotConverged):
		return metrics.ReasonNotConverged
	case errors.Is(err, ErrAssembly):
		return metrics.ReasonAssembly
	default:
		return metrics.ReasonLinearSolve
	}
}
