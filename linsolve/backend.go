// SPDX-License-Identifier: MIT

package linsolve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/dualsolve/matrix"
)

// Handle is one reusable linear solver: SetOperator replaces the operator
// and its factorization wholesale, Solve writes the solution into x.
type Handle interface {
	SetOperator(a matrix.Matrix) error
	Solve(rhs, x []float64) error
}

// Backend creates handles that share one Config.
type Backend struct {
	cfg     Config
	handles int
}

// New validates cfg and returns a Backend.
func New(cfg Config) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Backend{cfg: cfg}, nil
}

// Config returns the backend configuration.
func (b *Backend) Config() Config { return b.cfg }

// Handles returns how many handles this backend has created.
func (b *Backend) Handles() int { return b.handles }

// NewSolver creates a fresh handle with no operator.
func (b *Backend) NewSolver() (Handle, error) {
	b.handles++
	switch b.cfg.Factorization {
	case FactorDoolittle:
		return &DoolittleHandle{opts: b.cfg.matrixOptions()}, nil
	case FactorGonum:
		return &GonumHandle{}, nil
	default:
		b.handles--
		return nil, fmt.Errorf("%w: %q", ErrUnknownFactorization, b.cfg.Factorization)
	}
}

// DoolittleHandle factorizes with matrix.FactorizeLU.
type DoolittleHandle struct {
	opts    []matrix.Option
	factor  *matrix.LUFactor
	factors int
}

// SetOperator factorizes a, discarding any previous factorization. On
// failure the handle is left without an operator.
func (h *DoolittleHandle) SetOperator(a matrix.Matrix) error {
	h.factor = nil
	f, err := matrix.FactorizeLU(a, h.opts...)
	if err != nil {
		return fmt.Errorf("doolittle: %w", err)
	}
	h.factor = f
	h.factors++

	return nil
}

// Solve solves A·x = rhs with the current factorization.
func (h *DoolittleHandle) Solve(rhs, x []float64) error {
	if h.factor == nil {
		return ErrNoOperator
	}
	if err := h.factor.Solve(rhs, x); err != nil {
		return fmt.Errorf("doolittle: %w", err)
	}

	return nil
}

// NullPivots returns the null pivots fixed in the current factorization.
func (h *DoolittleHandle) NullPivots() int {
	if h.factor == nil {
		return 0
	}

	return h.factor.NullPivots()
}

// Factorizations returns how many operators this handle has factorized.
func (h *DoolittleHandle) Factorizations() int { return h.factors }

// GonumHandle factorizes with gonum's mat.LU.
type GonumHandle struct {
	lu      mat.LU
	n       int
	factors int
	rhs     *mat.VecDense
	sol     *mat.VecDense

	illConditioned int
}

// SetOperator factorizes a, discarding any previous factorization. An
// exactly singular operator is rejected with matrix.ErrSingular.
func (h *GonumHandle) SetOperator(a matrix.Matrix) error {
	h.n = 0
	if err := matrix.ValidateSquareNonNil(a); err != nil {
		return fmt.Errorf("gonum: %w", err)
	}
	d, err := matrix.ToDense(a)
	if err != nil {
		return fmt.Errorf("gonum: %w", err)
	}
	n := d.Rows()
	data := make([]float64, 0, n*n)
	var row []float64
	for i := 0; i < n; i++ {
		if row, err = d.RawRowView(i); err != nil {
			return fmt.Errorf("gonum: %w", err)
		}
		data = append(data, row...)
	}

	h.lu.Factorize(mat.NewDense(n, n, data))
	if math.IsInf(h.lu.Cond(), 1) {
		return fmt.Errorf("gonum: %w", matrix.ErrSingular)
	}
	h.n = n
	h.rhs = mat.NewVecDense(n, nil)
	h.sol = mat.NewVecDense(n, nil)
	h.factors++

	return nil
}

// IllConditioned returns how many solves gonum flagged with a condition
// number above mat.ConditionTolerance. Those solves still wrote x.
func (h *GonumHandle) IllConditioned() int { return h.illConditioned }

// Solve solves A·x = rhs with the current factorization.
func (h *GonumHandle) Solve(rhs, x []float64) error {
	if h.n == 0 {
		return ErrNoOperator
	}
	if err := matrix.ValidateVecLen(rhs, h.n); err != nil {
		return fmt.Errorf("gonum: %w", err)
	}
	if err := matrix.ValidateVecLen(x, h.n); err != nil {
		return fmt.Errorf("gonum: %w", err)
	}
	for i, v := range rhs {
		h.rhs.SetVec(i, v)
	}

	// A mat.Condition error still carries a valid solution in h.sol.
	err := h.lu.SolveVecTo(h.sol, false, h.rhs)
	var cond mat.Condition
	if errors.As(err, &cond) {
		h.illConditioned++
	} else if err != nil {
		return fmt.Errorf("gonum: %w", err)
	}
	for i := range x {
		x[i] = h.sol.AtVec(i)
	}

	return nil
}

// Factorizations returns how many operators this handle has factorized.
func (h *GonumHandle) Factorizations() int { return h.factors }
