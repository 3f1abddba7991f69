// SPDX-License-Identifier: MIT

// Package config loads solver settings from YAML and the environment.
//
// Precedence, highest first:
//  1. Environment variables prefixed DUALSOLVE_. A double underscore
//     separates the section from the key:
//     DUALSOLVE_STATE_EQUATION__PICARD_ITER -> state_equation.picard_iter
//  2. The YAML document.
//  3. Default().
//
// Example document:
//
//	state_equation:
//	  picard: true
//	  picard_rtol: 1e-10
//	  picard_atol: 1e-12
//	  picard_iter: 50
//	  picard_verbose: false
//	  ident_zeros: true
//	linear_solver:
//	  type: preonly
//	  preconditioner: lu
//	  factorization: doolittle
//	  null_pivot_detection: true
package config

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/katalvlaran/dualsolve/adjoint"
	"github.com/katalvlaran/dualsolve/linsolve"
)

const (
	// EnvPrefix marks the environment variables read by Load.
	EnvPrefix = "DUALSOLVE_"

	maxConfigFileSize = 1024 * 1024 // 1MB
)

var (
	// ErrInvalid is returned for a configuration that fails validation.
	ErrInvalid = errors.New("config: invalid configuration")

	// ErrTooLarge is returned for a configuration file over 1MB.
	ErrTooLarge = errors.New("config: file too large")
)

// StateEquation holds the adjoint strategy settings.
type StateEquation struct {
	Picard        bool    `koanf:"picard"`
	PicardRTol    float64 `koanf:"picard_rtol"`
	PicardATol    float64 `koanf:"picard_atol"`
	PicardIter    int     `koanf:"picard_iter"`
	PicardVerbose bool    `koanf:"picard_verbose"`
	IdentZeros    bool    `koanf:"ident_zeros"`
}

// Config is the full solver configuration.
type Config struct {
	StateEquation StateEquation   `koanf:"state_equation"`
	LinearSolver  linsolve.Config `koanf:"linear_solver"`
}

// Default returns the documented defaults of both sections.
func Default() *Config {
	return &Config{
		StateEquation: StateEquation{
			Picard:        adjoint.DefaultPicard,
			PicardRTol:    adjoint.DefaultRelativeTolerance,
			PicardATol:    adjoint.DefaultAbsoluteTolerance,
			PicardIter:    adjoint.DefaultMaxSweeps,
			PicardVerbose: adjoint.DefaultVerbose,
			IdentZeros:    adjoint.DefaultIdentZeros,
		},
		LinearSolver: linsolve.DefaultConfig(),
	}
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadBytes(nil)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, maxConfigFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if len(content) > maxConfigFileSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, path)
	}

	return LoadBytes(content)
}

// LoadBytes parses a YAML document, applies environment overrides and
// validates the result. Keys absent from both keep their defaults.
func LoadBytes(doc []byte) (*Config, error) {
	k := koanf.New(".")
	if len(doc) > 0 {
		if err := k.Load(rawbytes.Provider(doc), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps DUALSOLVE_LINEAR_SOLVER__NULL_PIVOT_DETECTION to
// linear_solver.null_pivot_detection.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))

	return strings.Replace(s, "__", ".", 1)
}

// Validate checks both sections.
func (c *Config) Validate() error {
	se := c.StateEquation
	if !finiteNonNegative(se.PicardRTol) {
		return fmt.Errorf("%w: picard_rtol %g", ErrInvalid, se.PicardRTol)
	}
	if !finiteNonNegative(se.PicardATol) {
		return fmt.Errorf("%w: picard_atol %g", ErrInvalid, se.PicardATol)
	}
	if se.PicardIter < 0 {
		return fmt.Errorf("%w: picard_iter %d", ErrInvalid, se.PicardIter)
	}
	if err := c.LinearSolver.Validate(); err != nil {
		return fmt.Errorf("%w: linear_solver: %w", ErrInvalid, err)
	}

	return nil
}

// AdjointOptions translates the state_equation section. The result is safe
// to pass to adjoint.NewSolver only after Validate succeeded.
func (c *Config) AdjointOptions() []adjoint.Option {
	se := c.StateEquation

	return []adjoint.Option{
		adjoint.WithPicard(se.Picard),
		adjoint.WithRelativeTolerance(se.PicardRTol),
		adjoint.WithAbsoluteTolerance(se.PicardATol),
		adjoint.WithMaxSweeps(se.PicardIter),
		adjoint.WithVerbose(se.PicardVerbose),
		adjoint.WithIdentZeros(se.IdentZeros),
	}
}

// SolverConfig returns the linear_solver section.
func (c *Config) SolverConfig() linsolve.Config { return c.LinearSolver }

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
