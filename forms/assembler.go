// SPDX-License-Identifier: MIT

package forms

import (
	"fmt"

	"github.com/katalvlaran/dualsolve/matrix"
)

// Operation tags for error wrapping.
const (
	opAssembleSystem   = "AssembleSystem"
	opAssembleResidual = "AssembleResidual"
)

// AssembleOptions tunes system assembly.
type AssembleOptions struct {
	// IdentZeros replaces every all-zero row of the assembled operator by an
	// identity row after boundary conditions are applied. It keeps DOFs that
	// no form couples to (and constrained rows whose diagonal a sparse pattern
	// would have dropped) from producing a null pivot.
	IdentZeros bool
}

// Assembler evaluates forms into dense systems and residual vectors.
// It is stateless; the zero value is ready to use.
type Assembler struct{}

// NewAssembler returns a ready-to-use Assembler.
func NewAssembler() *Assembler { return &Assembler{} }

// AssembleSystem evaluates a and l, applies the boundary conditions and
// returns a fresh (matrix, vector) pair. Constrained rows become identity
// rows with the condition value on the right-hand side.
//
// Errors:
//   - ErrNilForm, ErrShape, ErrBadDOF, and evaluation errors of the forms
//     (wrapped with "AssembleSystem").
func (as *Assembler) AssembleSystem(a Bilinear, l Linear, bcs []DirichletBC, opts AssembleOptions) (*matrix.Dense, []float64, error) {
	if a == nil || l == nil {
		return nil, nil, assembleErrorf(opAssembleSystem, ErrNilForm)
	}
	op, err := a()
	if err != nil {
		return nil, nil, assembleErrorf(opAssembleSystem, fmt.Errorf("bilinear form: %w", err))
	}
	if err = matrix.ValidateSquareNonNil(op); err != nil {
		return nil, nil, assembleErrorf(opAssembleSystem, fmt.Errorf("%w: %w", ErrShape, err))
	}
	A, err := matrix.ToDense(op)
	if err != nil {
		return nil, nil, assembleErrorf(opAssembleSystem, err)
	}
	n := A.Rows()

	rhs, err := l()
	if err != nil {
		return nil, nil, assembleErrorf(opAssembleSystem, fmt.Errorf("linear form: %w", err))
	}
	if len(rhs) != n {
		return nil, nil, assembleErrorf(opAssembleSystem, fmt.Errorf("%w: rhs length %d, operator order %d", ErrShape, len(rhs), n))
	}
	b := make([]float64, n)
	copy(b, rhs)

	for _, bc := range bcs {
		if err = checkDOFs(bc.DOFs, n); err != nil {
			return nil, nil, assembleErrorf(opAssembleSystem, err)
		}
		if err = matrix.ReplaceRowsWithIdentity(A, bc.DOFs); err != nil {
			return nil, nil, assembleErrorf(opAssembleSystem, err)
		}
		for _, d := range bc.DOFs {
			b[d] = bc.Value
		}
	}

	if opts.IdentZeros {
		if _, err = matrix.IdentZeros(A); err != nil {
			return nil, nil, assembleErrorf(opAssembleSystem, err)
		}
	}

	return A, b, nil
}

// AssembleResidual evaluates r and zeroes the entries at every constrained
// DOF, so boundary rows do not contribute to residual norms.
//
// Errors:
//   - ErrNilForm, ErrBadDOF, and evaluation errors (wrapped with "AssembleResidual").
func (as *Assembler) AssembleResidual(r Residual, bcs []DirichletBC) ([]float64, error) {
	if r == nil {
		return nil, assembleErrorf(opAssembleResidual, ErrNilForm)
	}
	raw, err := r()
	if err != nil {
		return nil, assembleErrorf(opAssembleResidual, err)
	}
	out := make([]float64, len(raw))
	copy(out, raw)

	for _, bc := range bcs {
		if err = checkDOFs(bc.DOFs, len(out)); err != nil {
			return nil, assembleErrorf(opAssembleResidual, err)
		}
		for _, d := range bc.DOFs {
			out[d] = 0
		}
	}

	return out, nil
}

func checkDOFs(dofs []int, n int) error {
	for _, d := range dofs {
		if d < 0 || d >= n {
			return fmt.Errorf("dof %d of %d: %w", d, n, ErrBadDOF)
		}
	}

	return nil
}

func assembleErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}
