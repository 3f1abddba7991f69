// SPDX-License-Identifier: MIT

package adjoint

import (
	"math"

	"go.uber.org/zap"

	"github.com/katalvlaran/dualsolve/metrics"
)

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultPicard selects the direct strategy.
	DefaultPicard = false

	// DefaultRelativeTolerance stops Picard once r_k/r_0 falls to it.
	DefaultRelativeTolerance = 1e-10

	// DefaultAbsoluteTolerance stops Picard once r_k falls to it.
	DefaultAbsoluteTolerance = 1e-12

	// DefaultMaxSweeps caps the number of Picard sweeps.
	DefaultMaxSweeps = 50

	// DefaultVerbose logs sweep progress at Debug instead of Info.
	DefaultVerbose = false

	// DefaultIdentZeros turns all-zero operator rows into identity rows
	// before factorization.
	DefaultIdentZeros = true
)

const (
	panicRelTolInvalid    = "adjoint: WithRelativeTolerance: tolerance must be finite, non-negative"
	panicAbsTolInvalid    = "adjoint: WithAbsoluteTolerance: tolerance must be finite, non-negative"
	panicMaxSweepsInvalid = "adjoint: WithMaxSweeps: sweeps must be non-negative"
	panicNilLogger        = "adjoint: WithLogger(nil)"
)

// Option mutates Options. Constructors panic only on nonsensical values.
type Option func(*Options)

// Options is the effective solver configuration.
type Options struct {
	Picard            bool
	RelativeTolerance float64
	AbsoluteTolerance float64
	MaxSweeps         int
	Verbose           bool
	IdentZeros        bool

	logger  *zap.Logger
	metrics *metrics.Solver
}

// WithPicard selects the Picard strategy (true) or the direct one (false).
func WithPicard(on bool) Option {
	return func(o *Options) { o.Picard = on }
}

// WithRelativeTolerance sets the Picard relative tolerance.
func WithRelativeTolerance(tol float64) Option {
	if !validTolerance(tol) {
		panic(panicRelTolInvalid)
	}

	return func(o *Options) { o.RelativeTolerance = tol }
}

// WithAbsoluteTolerance sets the Picard absolute tolerance.
func WithAbsoluteTolerance(tol float64) Option {
	if !validTolerance(tol) {
		panic(panicAbsTolInvalid)
	}

	return func(o *Options) { o.AbsoluteTolerance = tol }
}

// WithMaxSweeps caps Picard sweeps. Zero means the initial residual must
// already be zero.
func WithMaxSweeps(n int) Option {
	if n < 0 {
		panic(panicMaxSweepsInvalid)
	}

	return func(o *Options) { o.MaxSweeps = n }
}

// WithVerbose reports every Picard evaluation at Info level.
func WithVerbose(on bool) Option {
	return func(o *Options) { o.Verbose = on }
}

// WithIdentZeros toggles identity substitution for all-zero operator rows.
//
// The substitution keeps factorization from hitting a null pivot on DOFs
// no form touches. Whether it is right for a given coupled system depends on
// its boundary-condition structure; disable it to see the raw operator.
func WithIdentZeros(on bool) Option {
	return func(o *Options) { o.IdentZeros = on }
}

// WithLogger sets the logger. The solver logs under the "adjoint" name.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic(panicNilLogger)
	}

	return func(o *Options) { o.logger = l }
}

// WithMetrics records solver activity on m. A nil m disables recording.
func WithMetrics(m *metrics.Solver) Option {
	return func(o *Options) { o.metrics = m }
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Picard:            DefaultPicard,
		RelativeTolerance: DefaultRelativeTolerance,
		AbsoluteTolerance: DefaultAbsoluteTolerance,
		MaxSweeps:         DefaultMaxSweeps,
		Verbose:           DefaultVerbose,
		IdentZeros:        DefaultIdentZeros,
		logger:            zap.NewNop(),
	}
}

// gatherOptions applies opts on top of the defaults; last writer wins.
func gatherOptions(opts ...Option) Options {
	o := DefaultOptions()
	for _, set := range opts {
		set(&o)
	}

	return o
}

func validTolerance(tol float64) bool {
	return tol >= 0 && !math.IsNaN(tol) && !math.IsInf(tol, 0)
}
