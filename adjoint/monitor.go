// SPDX-License-Identifier: MIT

package adjoint

// State is the Picard state machine position.
type State int

const (
	// Running: neither tolerance is met and sweeps remain.
	Running State = iota
	// Converged: the residual is zero or within a tolerance.
	Converged
	// Failed: the sweep cap was reached without converging.
	Failed
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Monitor decides, after every residual evaluation, whether a Picard solve
// continues, has converged or has failed.
//
// Rules, in priority order, for the evaluation at sweep k:
//  1. residual == 0                                    → Converged
//  2. k == 0: the residual becomes the reference
//  3. k > 0 and (residual/reference ≤ rtol or residual ≤ atol) → Converged
//  4. k == maxSweeps                                   → Failed
//  5. otherwise                                        → Running
//
// The absolute tolerance is not consulted at k == 0: at least one sweep runs
// unless the initial residual is exactly zero.
type Monitor struct {
	rtol, atol float64
	maxSweeps  int

	sweep     int
	residual  float64
	reference float64
	state     State
}

// NewMonitor returns a Monitor at sweep 0 in the Running state.
// Panics on negative or non-finite tolerances or a negative sweep cap.
func NewMonitor(rtol, atol float64, maxSweeps int) *Monitor {
	if !validTolerance(rtol) {
		panic(panicRelTolInvalid)
	}
	if !validTolerance(atol) {
		panic(panicAbsTolInvalid)
	}
	if maxSweeps < 0 {
		panic(panicMaxSweepsInvalid)
	}

	return &Monitor{rtol: rtol, atol: atol, maxSweeps: maxSweeps}
}

// Observe records the residual of the current sweep and returns the new
// state. A NaN residual never satisfies a tolerance.
func (m *Monitor) Observe(residual float64) State {
	m.residual = residual
	if residual == 0 {
		m.state = Converged
		return m.state
	}
	if m.sweep == 0 {
		m.reference = residual
	}
	if m.sweep > 0 && (residual/m.reference <= m.rtol || residual <= m.atol) {
		m.state = Converged
		return m.state
	}
	if m.sweep >= m.maxSweeps {
		m.state = Failed
		return m.state
	}
	m.state = Running

	return m.state
}

// Advance records one completed sweep.
func (m *Monitor) Advance() { m.sweep++ }

// Sweep returns the number of completed sweeps.
func (m *Monitor) Sweep() int { return m.sweep }

// Residual returns the last observed residual.
func (m *Monitor) Residual() float64 { return m.residual }

// Reference returns the residual observed at sweep 0.
func (m *Monitor) Reference() float64 { return m.reference }

// Relative returns Residual()/Reference(), or 0 before a non-zero reference
// exists.
func (m *Monitor) Relative() float64 {
	if m.reference == 0 {
		return 0
	}

	return m.residual / m.reference
}

// State returns the state set by the last Observe.
func (m *Monitor) State() State { return m.state }

