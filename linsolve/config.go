// SPDX-License-Identifier: MIT

package linsolve

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/dualsolve/matrix"
)

// KSPType names the Krylov driver. Only "preonly" (apply the preconditioner
// once, i.e. a direct solve) is supported.
type KSPType string

// PCType names the preconditioner. Only "lu" is supported.
type PCType string

// Factorization names the LU implementation behind a handle.
type Factorization string

const (
	// TypePreOnly applies the factorization exactly once per solve.
	TypePreOnly KSPType = "preonly"

	// PCLU is a complete LU factorization.
	PCLU PCType = "lu"

	// FactorDoolittle is the pivoted Doolittle kernel from package matrix.
	// Supports null-pivot detection.
	FactorDoolittle Factorization = "doolittle"

	// FactorGonum is gonum's LAPACK-style LU (mat.LU). Exactly singular
	// operators are rejected; null-pivot fixation is not available.
	FactorGonum Factorization = "gonum"
)

// Defaults (single source of truth).
const (
	DefaultType               = TypePreOnly
	DefaultPreconditioner     = PCLU
	DefaultFactorization      = FactorDoolittle
	DefaultNullPivotDetection = true
	DefaultNullPivotThreshold = matrix.DefaultPivotThreshold
	DefaultNullPivotFixation  = matrix.DefaultPivotFixation
)

var (
	// ErrUnknownType is returned for an unsupported KSP type.
	ErrUnknownType = errors.New("linsolve: unsupported solver type")

	// ErrUnknownPreconditioner is returned for an unsupported preconditioner.
	ErrUnknownPreconditioner = errors.New("linsolve: unsupported preconditioner")

	// ErrUnknownFactorization is returned for an unsupported factorization.
	ErrUnknownFactorization = errors.New("linsolve: unsupported factorization")

	// ErrBadPivotPolicy is returned for an invalid null-pivot configuration.
	ErrBadPivotPolicy = errors.New("linsolve: invalid null-pivot policy")

	// ErrNoOperator is returned when Solve runs before a successful SetOperator.
	ErrNoOperator = errors.New("linsolve: no operator set")
)

// Config describes how every handle of a Backend factorizes and solves.
// It is passed explicitly to New and scoped to that backend; there is no
// process-wide solver state.
type Config struct {
	Type               KSPType       `koanf:"type"`
	Preconditioner     PCType        `koanf:"preconditioner"`
	Factorization      Factorization `koanf:"factorization"`
	NullPivotDetection bool          `koanf:"null_pivot_detection"`
	NullPivotThreshold float64       `koanf:"null_pivot_threshold"`
	NullPivotFixation  float64       `koanf:"null_pivot_fixation"`
}

// Option mutates a Config under construction.
type Option func(*Config)

// DefaultConfig returns the documented defaults: direct solve through a
// Doolittle LU with null-pivot detection on.
func DefaultConfig() Config {
	return Config{
		Type:               DefaultType,
		Preconditioner:     DefaultPreconditioner,
		Factorization:      DefaultFactorization,
		NullPivotDetection: DefaultNullPivotDetection,
		NullPivotThreshold: DefaultNullPivotThreshold,
		NullPivotFixation:  DefaultNullPivotFixation,
	}
}

// NewConfig applies opts on top of DefaultConfig (last writer wins).
func NewConfig(opts ...Option) Config {
	c := DefaultConfig()
	for _, set := range opts {
		set(&c)
	}

	return c
}

// WithFactorization selects the LU implementation.
func WithFactorization(f Factorization) Option {
	return func(c *Config) { c.Factorization = f }
}

// WithNullPivotDetection toggles null-pivot detection.
func WithNullPivotDetection(on bool) Option {
	return func(c *Config) { c.NullPivotDetection = on }
}

// WithNullPivotPolicy sets the relative null-pivot threshold and the
// substituted pivot magnitude.
func WithNullPivotPolicy(threshold, fixation float64) Option {
	return func(c *Config) {
		c.NullPivotThreshold = threshold
		c.NullPivotFixation = fixation
	}
}

// Validate checks the configuration for supported values.
func (c Config) Validate() error {
	if c.Type != TypePreOnly {
		return fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	if c.Preconditioner != PCLU {
		return fmt.Errorf("%w: %q", ErrUnknownPreconditioner, c.Preconditioner)
	}
	switch c.Factorization {
	case FactorDoolittle:
	case FactorGonum:
		if c.NullPivotDetection {
			return fmt.Errorf("%w: null-pivot detection requires %q", ErrBadPivotPolicy, FactorDoolittle)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFactorization, c.Factorization)
	}
	if c.NullPivotDetection {
		if c.NullPivotThreshold < 0 || math.IsNaN(c.NullPivotThreshold) || math.IsInf(c.NullPivotThreshold, 0) {
			return fmt.Errorf("%w: threshold %g", ErrBadPivotPolicy, c.NullPivotThreshold)
		}
		if c.NullPivotFixation <= 0 || math.IsNaN(c.NullPivotFixation) || math.IsInf(c.NullPivotFixation, 0) {
			return fmt.Errorf("%w: fixation %g", ErrBadPivotPolicy, c.NullPivotFixation)
		}
	}

	return nil
}

// matrixOptions translates the pivot policy for the Doolittle kernel.
func (c Config) matrixOptions() []matrix.Option {
	if !c.NullPivotDetection {
		return []matrix.Option{matrix.WithNoNullPivotFixation()}
	}

	return []matrix.Option{matrix.WithNullPivotFixation(c.NullPivotThreshold, c.NullPivotFixation)}
}
