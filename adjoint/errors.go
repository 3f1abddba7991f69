// SPDX-License-Identifier: MIT

package adjoint

import (
	"errors"
	"fmt"
)

// Every message is prefixed with "adjoint: ". Failures raised while solving a
// subsystem are wrapped with its index and name; callers match with errors.Is.
var (
	// ErrEmptySystem is returned by NewSolver for a system with no subsystems.
	ErrEmptySystem = errors.New("adjoint: empty system")

	// ErrMissingForm indicates a subsystem lacks a form its strategy needs
	// (bilinear and linear always; residual under Picard).
	ErrMissingForm = errors.New("adjoint: missing form")

	// ErrBufferSize indicates an empty adjoint buffer.
	ErrBufferSize = errors.New("adjoint: empty adjoint buffer")

	// ErrNilCollaborator indicates a nil assembler, backend or state provider.
	ErrNilCollaborator = errors.New("adjoint: nil collaborator")

	// ErrState wraps a failure of the forward solve.
	ErrState = errors.New("adjoint: forward state unavailable")

	// ErrAssembly wraps a failure to assemble a system or a residual.
	ErrAssembly = errors.New("adjoint: assembly failed")

	// ErrLinearSolve wraps a failure of a solver handle (factorization or
	// substitution).
	ErrLinearSolve = errors.New("adjoint: linear solve failed")

	// ErrNotConverged is matched by every *ConvergenceFailure.
	ErrNotConverged = errors.New("adjoint: picard iteration did not converge")
)

// ConvergenceFailure reports a Picard solve that used up its sweeps without
// meeting either tolerance. The adjoint buffers hold the last iterate, which
// must not be used as a result.
type ConvergenceFailure struct {
	// LastResidual is the absolute residual of the final evaluation.
	LastResidual float64
	// Reference is the residual recorded before the first sweep.
	Reference float64
	// SweepsRun is the number of completed sweeps; it equals the sweep cap.
	SweepsRun int
}

// Error implements error.
func (f *ConvergenceFailure) Error() string {
	rel := 0.0
	if f.Reference != 0 {
		rel = f.LastResidual / f.Reference
	}

	return fmt.Sprintf("%s after %d sweeps (abs %.3e, rel %.3e)", ErrNotConverged, f.SweepsRun, f.LastResidual, rel)
}

// Unwrap lets errors.Is(err, ErrNotConverged) match.
func (f *ConvergenceFailure) Unwrap() error { return ErrNotConverged }

// subsystemErrorf tags err with the failing step and subsystem.
func subsystemErrorf(kind error, i int, name string, err error) error {
	if name == "" {
		return fmt.Errorf("%w: subsystem %d: %w", kind, i, err)
	}

	return fmt.Errorf("%w: subsystem %d (%s): %w", kind, i, name, err)
}
