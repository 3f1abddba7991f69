// Package dualsolve computes adjoint (dual) variables for PDE-constrained
// optimization: once the forward state is solved, it solves the backward
// equations whose solution turns into a gradient.
//
// 🚀 What is dualsolve?
//
//	A small, synchronous core that brings together:
//		• Direct adjoint solves: one pass over the subsystems, last index first
//		• Picard adjoint solves: reverse sweeps until a residual criterion holds
//		• Caching per forward-state version (Stale / Fresh lifecycle)
//		• Reusable solver handles with pivoted LU and null-pivot fixation
//		• YAML + environment configuration, zap logging, Prometheus metrics
//
// ✨ Why choose dualsolve?
//
//   - Explicit configuration – no process-wide solver registry
//   - Typed failures – a stalled Picard iteration returns *ConvergenceFailure
//   - Tested ordering – every pass solves subsystems from N-1 down to 0
//
// Everything is organized under these packages:
//
//	adjoint/  Solver, Monitor, strategies, options, typed errors
//	forms/    bilinear / linear / residual forms, Dirichlet BCs, Assembler
//	linsolve/ solver Config and Backend (Doolittle or gonum LU handles)
//	matrix/   Dense matrix, validators, LU kernel, row edits, norms
//	state/    forward-state tracking with versioned snapshots
//	config/   koanf loader for state_equation and linear_solver
//	metrics/  Prometheus collectors for solves, sweeps and failures
//
// Quick ASCII picture of one Picard sweep over three subsystems:
//
//	λ2 ◀── λ1 ◀── λ0      (solve order: 2, 1, 0)
//	 └──── residual ────┘  sqrt(Σ ||R_j||²) decides the next step
//
// See examples/adjoint_coupled_heat.go for a complete run.
//
//	go get github.com/katalvlaran/dualsolve
package dualsolve
