// SPDX-License-Identifier: MIT

// Package adjoint solves the adjoint (dual) equations of a PDE-constrained
// optimization problem once the forward state is known.
//
// A System is an ordered list of subsystems, one per forward state field.
// Adjoint equation i depends on the adjoints with index > i, so every pass
// runs from the last subsystem down to the first:
//
//	Direct: for i = N-1..0 assemble, SetOperator, Solve. One pass.
//	Picard: evaluate the combined residual sqrt(Σ ||R_j||²); stop when it
//	        is zero, when r_k/r_0 ≤ rtol or r_k ≤ atol (k > 0), or fail at
//	        the sweep cap; otherwise sweep j = N-1..0 and re-evaluate.
//
// Caching:
//
// Solve first asks the StateProvider for a Snapshot. Results are cached per
// snapshot version: while the version is unchanged Solve returns the same
// buffers without touching the handles. Status reports Stale or Fresh.
//
// Collaborators:
//   - FormAssembler (forms.Assembler) evaluates forms and applies Dirichlet
//     conditions.
//   - SolverBackend (linsolve.Backend) creates one handle per subsystem;
//     handles are reused and only their operator is replaced.
//   - StateProvider (state.Problem) keeps the forward solution current.
//
// Errors are package sentinels wrapped with the failing subsystem; a Picard
// solve that runs out of sweeps returns *ConvergenceFailure. A Solver is not
// safe for concurrent use.
package adjoint
