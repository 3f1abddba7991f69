// SPDX-License-Identifier: MIT

package state

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNilSolve is returned by NewProblem when no forward solve is given.
	ErrNilSolve = errors.New("state: nil forward solve")
)

// Snapshot identifies the forward solution an adjoint solve ran against.
// Two snapshots with equal Version describe the same state.
type Snapshot struct {
	Version uint64
}

// SolveFunc runs the forward (state) solve and fills the caller's state
// buffers. It is called at most once per version.
type SolveFunc func() error

// Option configures a Problem.
type Option func(*Problem)

// WithLogger attaches a logger; forward solves are logged at Info.
// Panics on nil.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("state: WithLogger(nil)")
	}

	return func(p *Problem) { p.logger = l }
}

// WithName labels log lines of this problem.
func WithName(name string) Option {
	return func(p *Problem) { p.name = name }
}

// Problem tracks whether the forward solution matches the current inputs.
//
// The version starts at 0 and increases by one on every MarkChanged. A
// Problem is not safe for concurrent use.
type Problem struct {
	solve   SolveFunc
	logger  *zap.Logger
	name    string
	version uint64
	solved  bool
	solves  int
}

// NewProblem wraps solve in a Problem whose state is initially unsolved.
func NewProblem(solve SolveFunc, opts ...Option) (*Problem, error) {
	if solve == nil {
		return nil, ErrNilSolve
	}
	p := &Problem{solve: solve, logger: zap.NewNop(), name: "state"}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)

	return p, nil
}

// EnsureSolved runs the forward solve if the current version has not been
// solved yet and returns the snapshot. A failed solve leaves the problem
// unsolved; the next call retries.
func (p *Problem) EnsureSolved() (Snapshot, error) {
	if p.solved {
		return Snapshot{Version: p.version}, nil
	}

	start := time.Now()
	if err := p.solve(); err != nil {
		p.logger.Warn("forward solve failed", zap.Uint64("version", p.version), zap.Error(err))
		return Snapshot{}, fmt.Errorf("EnsureSolved: %w", err)
	}
	p.solved = true
	p.solves++
	p.logger.Info("forward solve completed",
		zap.Uint64("version", p.version),
		zap.Duration("duration", time.Since(start)),
	)

	return Snapshot{Version: p.version}, nil
}

// MarkChanged records that the inputs of the forward problem changed
// (design variables, coefficients). The next EnsureSolved re-solves and
// every snapshot taken before is outdated.
func (p *Problem) MarkChanged() {
	p.version++
	p.solved = false
	p.logger.Debug("state marked changed", zap.Uint64("version", p.version))
}

// Version returns the current version.
func (p *Problem) Version() uint64 { return p.version }

// Solved reports whether the current version has a forward solution.
func (p *Problem) Solved() bool { return p.solved }

// Solves returns how many forward solves have completed.
func (p *Problem) Solves() int { return p.solves }
