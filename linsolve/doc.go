// SPDX-License-Identifier: MIT

// Package linsolve provides the solver backend behind adjoint solves: a
// validated Config (solver type, preconditioner, factorization, null-pivot
// policy) and reusable per-subsystem handles.
//
// A handle is created once and kept for the lifetime of its owner. Each
// SetOperator call replaces the operator and its factorization completely,
// so one handle can serve every solve and every Picard sweep of a subsystem.
//
//	b, err := linsolve.New(linsolve.DefaultConfig())
//	h, err := b.NewSolver()
//	err = h.SetOperator(A)
//	err = h.Solve(rhs, x)
//
// Handles are not safe for concurrent use.
package linsolve
