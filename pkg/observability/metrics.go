// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the knapsack
// services.
//
// Metrics are exposed on the router's /metrics endpoint. All metric
// operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "knapsack"

// Metrics holds the Prometheus instruments shared by the deployments.
// Initialize once at startup via NewMetrics().
type Metrics struct {
	// JobsDispatched counts solve requests published to the queue.
	JobsDispatched prometheus.Counter

	// JobsConsumed counts queue messages handled by solver instances.
	// Labels: outcome (solved, dropped_duplicate, parse_error, error)
	JobsConsumed *prometheus.CounterVec

	// ReportsPublished counts solution reports by cause.
	ReportsPublished *prometheus.CounterVec

	// ClaimContention counts lost claim attempts by domain
	// (item, running_knapsack, suggestion). Contention is a normal
	// branch, not an error; the counter exists to watch hot items.
	ClaimContention *prometheus.CounterVec

	// SolveDuration measures one strategy run. Labels: algorithm.
	SolveDuration *prometheus.HistogramVec

	// MaintainerExpirations counts expired records by kind
	// (suggestion, accepted_solution).
	MaintainerExpirations *prometheus.CounterVec
}

// NewMetrics registers all instruments on reg. Pass
// prometheus.DefaultRegisterer in production and a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_dispatched_total",
			Help:      "Solve requests published to the dispatch queue.",
		}),
		JobsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "jobs_consumed_total",
			Help:      "Queue messages handled by solver instances.",
		}, []string{"outcome"}),
		ReportsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reports_published_total",
			Help:      "Solution reports published, by cause.",
		}, []string{"cause"}),
		ClaimContention: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "claim_contention_total",
			Help:      "Claim attempts lost to a concurrent holder.",
		}, []string{"domain"}),
		SolveDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "solve_duration_seconds",
			Help:      "Duration of a single strategy run.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
		MaintainerExpirations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "maintainer_expirations_total",
			Help:      "Records expired by the lifecycle maintainer.",
		}, []string{"kind"}),
	}
}
