// SPDX-License-Identifier: MIT

package adjoint

import (
	"fmt"

	"github.com/katalvlaran/dualsolve/forms"
	"github.com/katalvlaran/dualsolve/linsolve"
	"github.com/katalvlaran/dualsolve/matrix"
	"github.com/katalvlaran/dualsolve/state"
)

// FormAssembler turns forms into algebraic systems and residual vectors.
// *forms.Assembler is the reference implementation.
type FormAssembler interface {
	AssembleSystem(a forms.Bilinear, l forms.Linear, bcs []forms.DirichletBC, opts forms.AssembleOptions) (*matrix.Dense, []float64, error)
	AssembleResidual(r forms.Residual, bcs []forms.DirichletBC) ([]float64, error)
}

// LinearSolver is one reusable solver handle. SetOperator must discard any
// previous factorization.
type LinearSolver = linsolve.Handle

// SolverBackend creates solver handles; *linsolve.Backend implements it.
type SolverBackend interface {
	NewSolver() (LinearSolver, error)
}

// StateProvider guarantees the forward solution is current.
// *state.Problem implements it.
type StateProvider interface {
	EnsureSolved() (state.Snapshot, error)
}

// versioned is implemented by providers that expose their version without
// solving; Status uses it to detect staleness.
type versioned interface {
	Version() uint64
}

// Subsystem is one adjoint equation a_i(λ_i, v) = L_i(v) with its boundary
// conditions. Forms may close over other subsystems' Adjoint buffers; they
// are re-evaluated on every assembly, so they always see the latest iterate.
type Subsystem struct {
	Name     string
	Bilinear forms.Bilinear
	Linear   forms.Linear
	// Residual is required only by the Picard strategy.
	Residual forms.Residual
	BCs      []forms.DirichletBC
	// Adjoint is the unknown, solved in place.
	Adjoint []float64
}

// System is the ordered list of subsystems. Index order mirrors the forward
// state ordering; solves run from the last index down to 0.
type System []Subsystem

// validate checks the system against the strategy it will be solved with.
func (sys System) validate(picard bool) error {
	if len(sys) == 0 {
		return ErrEmptySystem
	}
	for i := range sys {
		sub := &sys[i]
		if sub.Bilinear == nil || sub.Linear == nil {
			return fmt.Errorf("%w: subsystem %d (%s) needs bilinear and linear forms", ErrMissingForm, i, sub.Name)
		}
		if picard && sub.Residual == nil {
			return fmt.Errorf("%w: subsystem %d (%s) needs a residual form for picard", ErrMissingForm, i, sub.Name)
		}
		if len(sub.Adjoint) == 0 {
			return fmt.Errorf("%w: subsystem %d (%s)", ErrBufferSize, i, sub.Name)
		}
	}

	return nil
}
