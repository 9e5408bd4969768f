// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package solver hosts the queue consumer and its execution pipeline.
package solver

import (
	"fmt"
	"time"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
	"github.com/talaloni2/knapsack-solver/services/solver/solvers"
)

// StrategyLoader resolves an algorithm name to its implementation.
// *solvers.Registry is the production implementation.
type StrategyLoader interface {
	Load(algorithm datatypes.Algorithm) (solvers.Solver, bool)
}

// Runner executes the strategies selected for a job.
type Runner struct {
	registry StrategyLoader
	metrics  *observability.Metrics
	log      *logging.Logger
}

// NewRunner creates a Runner over the strategy registry.
func NewRunner(registry StrategyLoader, metrics *observability.Metrics, log *logging.Logger) *Runner {
	return &Runner{registry: registry, metrics: metrics, log: log}
}

// RunAlgorithms runs every strategy against the full item set and
// capacity, producing one tagged result per strategy. Panics inside a
// strategy surface as errors so the pipeline can report them instead of
// crashing the consumer loop.
func (r *Runner) RunAlgorithms(items []datatypes.KnapsackItem, volume int, algorithms []datatypes.Algorithm) ([]datatypes.AlgorithmSolution, error) {
	results := make([]datatypes.AlgorithmSolution, 0, len(algorithms))
	for _, algorithm := range algorithms {
		picked, err := r.runOne(items, volume, algorithm)
		if err != nil {
			return nil, err
		}
		results = append(results, datatypes.AlgorithmSolution{Algorithm: algorithm, Items: picked})
	}
	return results, nil
}

func (r *Runner) runOne(items []datatypes.KnapsackItem, volume int, algorithm datatypes.Algorithm) (picked []datatypes.KnapsackItem, err error) {
	impl, known := r.registry.Load(algorithm)
	if !known {
		r.log.Warn("unknown algorithm requested, falling back to first-fit", "algorithm", algorithm)
	}

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("solver %s panicked: %v", algorithm, p)
		}
	}()

	start := time.Now()
	r.log.Info("running algorithm", "algorithm", algorithm, "items", len(items))
	picked, err = impl.Solve(items, volume)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("solver %s: %w", algorithm, err)
	}
	r.metrics.SolveDuration.WithLabelValues(string(algorithm)).Observe(elapsed.Seconds())
	r.log.Info("finished algorithm",
		"algorithm", algorithm, "picked", len(picked), "took_ms", elapsed.Milliseconds())
	return picked, nil
}
