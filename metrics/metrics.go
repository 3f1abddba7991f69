// SPDX-License-Identifier: MIT

// Package metrics exports adjoint solver activity as Prometheus metrics.
//
// Collectors are registered on the Registerer passed to New, never on the
// global default registry unless the caller passes it explicitly. A nil
// *Solver is valid and records nothing.
package metrics

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "dualsolve"

// ErrNilRegisterer is returned by New when no registerer is given.
var ErrNilRegisterer = errors.New("metrics: nil registerer")

// SweepBuckets bound the Picard sweep histogram. The default sweep cap is 50.
var SweepBuckets = []float64{0, 1, 2, 3, 5, 8, 13, 21, 34, 50, 100}

// Solver holds the collectors of one adjoint solver (or a group of solvers
// sharing a registry).
type Solver struct {
	solves    *prometheus.CounterVec
	cacheHits prometheus.Counter
	sweeps    prometheus.Histogram
	residual  prometheus.Gauge
	failures  *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Solver, error) {
	if reg == nil {
		return nil, ErrNilRegisterer
	}
	s := &Solver{
		solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "adjoint",
			Name:      "solves_total",
			Help:      "Completed adjoint solves by strategy.",
		}, []string{"strategy"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "adjoint",
			Name:      "cache_hits_total",
			Help:      "Solve calls answered from cached adjoint buffers.",
		}),
		sweeps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "picard",
			Name:      "sweeps",
			Help:      "Picard sweeps run per adjoint solve.",
			Buckets:   SweepBuckets,
		}),
		residual: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "picard",
			Name:      "residual",
			Help:      "Most recent absolute Picard residual.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "adjoint",
			Name:      "failures_total",
			Help:      "Failed adjoint solves by reason.",
		}, []string{"reason"}),
	}
	for _, c := range []prometheus.Collector{s.solves, s.cacheHits, s.sweeps, s.residual, s.failures} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("metrics: register: %w", err)
		}
	}

	return s, nil
}

// Failure reasons used as the "reason" label.
const (
	ReasonNotConverged = "not_converged"
	ReasonAssembly     = "assembly"
	ReasonLinearSolve  = "linear_solve"
	ReasonState        = "state"
)

// ObserveSolve counts a completed solve.
func (s *Solver) ObserveSolve(strategy string) {
	if s == nil {
		return
	}
	s.solves.WithLabelValues(strategy).Inc()
}

// ObserveCacheHit counts a Solve call served from cache.
func (s *Solver) ObserveCacheHit() {
	if s == nil {
		return
	}
	s.cacheHits.Inc()
}

// ObserveSweeps records how many sweeps a Picard solve ran.
func (s *Solver) ObserveSweeps(n int) {
	if s == nil {
		return
	}
	s.sweeps.Observe(float64(n))
}

// ObserveResidual sets the residual gauge.
func (s *Solver) ObserveResidual(r float64) {
	if s == nil {
		return
	}
	s.residual.Set(r)
}

// ObserveFailure counts a failed solve.
func (s *Solver) ObserveFailure(reason string) {
	if s == nil {
		return
	}
	s.failures.WithLabelValues(reason).Inc()
}
