// SPDX-License-Identifier: MIT

// Package matrix: functional configuration for numeric policy and LU
// factorization. This file defines:
//   - Option / Options (functional options with internal state),
//   - documented defaults (constants),
//   - WithX constructors with strong validation (panic on nonsensical values),
//   - gatherOptions helper (internal) that enforces invariants.
//
// Design goals:
//   - Deterministic behavior: no global state, no implicit randomness.
//   - No dead switches: each flag impacts behavior and is covered by tests.
//   - Safe by construction: panic only on invalid parameters (programmer error).
//
// Notes:
//   - Null-pivot fixation mirrors the "detect null pivots" mode of sparse
//     direct solvers: a pivot with |p| <= threshold*max|a_ij| is replaced by
//     ±fixation, which drives the matching solution component towards zero
//     instead of failing the factorization.
//   - With fixation disabled a pivot of exactly zero (after partial pivoting,
//     i.e. an all-zero remaining column) yields ErrSingular.
package matrix

import "math"

// ---------- Defaults (single source of truth) ----------

const (
	// DefaultValidateNaNInf toggles strict finite-value validation on ingestion,
	// Set and factorization input.
	DefaultValidateNaNInf = true

	// DefaultNullPivotFixation is off at the kernel level: LU reports
	// ErrSingular unless a caller opts into fixation.
	DefaultNullPivotFixation = false

	// DefaultPivotThreshold is the magnitude, relative to the largest entry of
	// the pivot's row, under which a pivot is treated as null when fixation is
	// on: 1e-5 times machine epsilon, so only pivots lost to roundoff qualify.
	DefaultPivotThreshold = 1e-5 * 0x1p-52

	// DefaultPivotFixation is the magnitude substituted for a null pivot.
	DefaultPivotFixation = 1e20
)

// ---------- Internal panic messages (no magic strings) ----------

const (
	panicPivotThresholdInvalid = "matrix: WithNullPivotFixation: threshold must be finite, non-negative"
	panicPivotFixationInvalid  = "matrix: WithNullPivotFixation: fixation must be finite, positive"
)

// Option mutates internal options. Safe to apply repeatedly (idempotent).
// Constructors MUST panic only on nonsensical values (programmer error).
type Option func(*Options)

// Options stores the effective configuration after applying Option setters.
// Fields are unexported; public entry points accept `...Option`.
type Options struct {
	validateNaNInf bool    // DefaultValidateNaNInf
	nullPivotFix   bool    // DefaultNullPivotFixation
	pivotThreshold float64 // >= 0; DefaultPivotThreshold
	pivotFixation  float64 // > 0; DefaultPivotFixation
}

// WithValidateNaNInf enables finite-only checks on factorization input.
func WithValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = true }
}

// WithNoValidateNaNInf disables finite-only checks on factorization input.
func WithNoValidateNaNInf() Option {
	return func(o *Options) { o.validateNaNInf = false }
}

// WithNullPivotFixation enables null-pivot detection with the given relative
// threshold and fixation magnitude.
//
// Panics when threshold is negative/non-finite or fixation is non-positive/non-finite.
func WithNullPivotFixation(threshold, fixation float64) Option {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		panic(panicPivotThresholdInvalid)
	}
	if fixation <= 0 || math.IsNaN(fixation) || math.IsInf(fixation, 0) {
		panic(panicPivotFixationInvalid)
	}

	return func(o *Options) {
		o.nullPivotFix = true
		o.pivotThreshold = threshold
		o.pivotFixation = fixation
	}
}

// WithNoNullPivotFixation restores strict behavior: a null pivot is ErrSingular.
func WithNoNullPivotFixation() Option {
	return func(o *Options) { o.nullPivotFix = false }
}

// NewMatrixOptions resolves option setters against documented defaults.
// Last-writer-wins semantics.
func NewMatrixOptions(opts ...Option) Options {
	return gatherOptions(opts...)
}

// NullPivotFixation reports whether null-pivot fixation is enabled.
func (o Options) NullPivotFixation() bool { return o.nullPivotFix }

// PivotThreshold returns the relative null-pivot threshold.
func (o Options) PivotThreshold() float64 { return o.pivotThreshold }

// PivotFixation returns the substituted pivot magnitude.
func (o Options) PivotFixation() float64 { return o.pivotFixation }

// gatherOptions applies user-provided Option setters on top of defaults.
// This is the canonical internal entry for kernels.
func gatherOptions(user ...Option) Options {
	o := Options{
		validateNaNInf: DefaultValidateNaNInf,
		nullPivotFix:   DefaultNullPivotFixation,
		pivotThreshold: DefaultPivotThreshold,
		pivotFixation:  DefaultPivotFixation,
	}
	for _, set := range user {
		set(&o) // apply in order; last-writer-wins semantics
	}

	return o
}
