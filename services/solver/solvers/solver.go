// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package solvers implements the pluggable knapsack strategies.
//
// Every strategy honors the same contract: given candidate items and a
// capacity, return a subset whose total volume fits the capacity. The
// strategies differ only in cost and solution quality; the selection of
// which ones to run per job happens on the router.
package solvers

import (
	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// Solver is one knapsack strategy.
type Solver interface {
	// Solve picks a subset of items fitting volume. Implementations do
	// not mutate items.
	Solve(items []datatypes.KnapsackItem, volume int) ([]datatypes.KnapsackItem, error)
}

// Registry maps algorithm identifiers to constructed solvers.
type Registry struct {
	solvers  map[datatypes.Algorithm]Solver
	fallback Solver
}

// NewRegistry builds every strategy. The two genetic presets take their
// tuning from config.
func NewRegistry(cfg *config.Config) *Registry {
	firstFit := &FirstFitSolver{}
	return &Registry{
		solvers: map[datatypes.Algorithm]Solver{
			datatypes.AlgorithmFirstFit:           firstFit,
			datatypes.AlgorithmGreedy:             &GreedySolver{},
			datatypes.AlgorithmDynamicProgramming: &DynamicProgrammingSolver{},
			datatypes.AlgorithmBranchAndBound:     &BranchAndBoundSolver{},
			datatypes.AlgorithmGeneticLight:       NewGeneticSolver(cfg.GeneticLight),
			datatypes.AlgorithmGeneticHeavy:       NewGeneticSolver(cfg.GeneticHeavy),
		},
		fallback: firstFit,
	}
}

// Load returns the solver for algorithm. Unknown identifiers fall back
// to the cheapest strategy; the second return value reports whether the
// identifier was known.
func (r *Registry) Load(algorithm datatypes.Algorithm) (Solver, bool) {
	if solver, ok := r.solvers[algorithm]; ok {
		return solver, true
	}
	return r.fallback, false
}
