// SPDX-License-Identifier: MIT

// Package forms provides algebraic stand-ins for weak forms and the reference
// assembler that turns them into linear systems and residual vectors.
//
// A form is a closure evaluated at assembly time. Forms capture whatever
// coefficients they depend on (forward state, other subsystems' adjoint
// buffers), so re-assembling a coupled form after a buffer update picks up
// the latest iterate, exactly as a symbolic form referencing live
// finite-element functions would.
//
// Determinism:
//   - Boundary conditions are applied in slice order; DOFs in ascending order
//     of appearance. No map iteration anywhere.
package forms

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/dualsolve/matrix"
)

var (
	// ErrNilForm is returned when a required form closure is nil.
	ErrNilForm = errors.New("forms: nil form")

	// ErrBadDOF is returned when a boundary condition names a DOF outside the system.
	ErrBadDOF = errors.New("forms: boundary condition DOF out of range")

	// ErrShape is returned when an evaluated form has an unusable shape.
	ErrShape = errors.New("forms: inconsistent form shape")
)

// Bilinear evaluates to the system operator of one subsystem.
type Bilinear func() (matrix.Matrix, error)

// Linear evaluates to the right-hand side of one subsystem.
type Linear func() ([]float64, error)

// Residual evaluates to the (backward-coupled) residual vector of one subsystem.
type Residual func() ([]float64, error)

// DirichletBC fixes the listed degrees of freedom to Value.
// Adjoint problems normally use homogeneous conditions (Value == 0).
type DirichletBC struct {
	DOFs  []int
	Value float64
}

// Homogeneous returns a zero-valued Dirichlet condition on dofs.
func Homogeneous(dofs ...int) DirichletBC {
	return DirichletBC{DOFs: dofs}
}

// Constant wraps a fixed operator as a Bilinear form.
func Constant(a matrix.Matrix) Bilinear {
	return func() (matrix.Matrix, error) { return a, nil }
}

// ConstantVector wraps a fixed right-hand side as a Linear form.
// The assembler copies the vector, so v is never mutated.
func ConstantVector(v []float64) Linear {
	return func() ([]float64, error) { return v, nil }
}

// LinearResidual builds the residual form r = A(x)·x − b(x) of the equation
// a == l for the unknown x. Both forms are re-evaluated on every call, so
// couplings to other buffers are picked up at evaluation time.
func LinearResidual(a Bilinear, l Linear, x []float64) Residual {
	return func() ([]float64, error) {
		if a == nil || l == nil {
			return nil, ErrNilForm
		}
		op, err := a()
		if err != nil {
			return nil, fmt.Errorf("bilinear form: %w", err)
		}
		rhs, err := l()
		if err != nil {
			return nil, fmt.Errorf("linear form: %w", err)
		}

		return matrix.Residual(op, x, rhs)
	}
}
