// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package solvers

import (
	"math/rand"
	"time"

	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// GeneticSolver approximates the optimum with a genetic search over
// inclusion bitmasks. A chromosome that overflows the capacity has zero
// fitness and gets mutated or replaced. Two presets exist (light and
// heavy), differing only in generations, mutation probability and
// population size.
type GeneticSolver struct {
	params config.GeneticParams
	seed   func() int64
}

// NewGeneticSolver creates a solver with the given tuning. The
// population never goes below one chromosome; the search indexes into
// it unconditionally.
func NewGeneticSolver(params config.GeneticParams) *GeneticSolver {
	if params.Population < 1 {
		params.Population = 1
	}
	return &GeneticSolver{
		params: params,
		seed:   func() int64 { return time.Now().UnixNano() },
	}
}

func (s *GeneticSolver) Solve(items []datatypes.KnapsackItem, volume int) ([]datatypes.KnapsackItem, error) {
	if len(items) == 0 || volume <= 0 {
		return nil, nil
	}
	// A local source per call keeps Solve safe for concurrent use.
	rng := rand.New(rand.NewSource(s.seed()))

	population := s.initialPopulation(rng, len(items))
	for g := 0; g < s.params.Generations; g++ {
		parents := s.fittestPair(population, items, volume)
		children := s.crossover(rng, parents)
		for i := range children {
			if rng.Float64() < s.params.MutationProbability {
				children[i] = mutate(rng, children[i])
			}
		}
		population = s.nextGeneration(rng, population, children, items, volume)
	}

	best, bestFitness := population[0], 0
	for _, chromosome := range population {
		if f := fitness(chromosome, items, volume); f > bestFitness {
			best, bestFitness = chromosome, f
		}
	}
	if bestFitness == 0 {
		return nil, nil
	}
	var picked []datatypes.KnapsackItem
	for i, include := range best {
		if include {
			picked = append(picked, items[i])
		}
	}
	return picked, nil
}

func (s *GeneticSolver) initialPopulation(rng *rand.Rand, itemCount int) [][]bool {
	population := make([][]bool, s.params.Population)
	for i := range population {
		chromosome := make([]bool, itemCount)
		// Sparse initial inclusion keeps most first-generation
		// chromosomes within capacity.
		chromosome[rng.Intn(itemCount)] = true
		population[i] = chromosome
	}
	return population
}

// fittestPair returns the two highest-fitness chromosomes.
func (s *GeneticSolver) fittestPair(population [][]bool, items []datatypes.KnapsackItem, volume int) [2][]bool {
	first, second := population[0], population[0]
	firstFitness, secondFitness := -1, -1
	for _, chromosome := range population {
		f := fitness(chromosome, items, volume)
		switch {
		case f > firstFitness:
			second, secondFitness = first, firstFitness
			first, firstFitness = chromosome, f
		case f > secondFitness:
			second, secondFitness = chromosome, f
		}
	}
	return [2][]bool{first, second}
}

// crossover produces two children by single-point recombination.
func (s *GeneticSolver) crossover(rng *rand.Rand, parents [2][]bool) [][]bool {
	n := len(parents[0])
	point := 1
	if n > 1 {
		point = 1 + rng.Intn(n-1)
	}
	left := append(append([]bool{}, parents[0][:point]...), parents[1][point:]...)
	right := append(append([]bool{}, parents[1][:point]...), parents[0][point:]...)
	return [][]bool{left, right}
}

// nextGeneration mutates overflowing chromosomes and replaces them with
// children; leftover children displace random survivors.
func (s *GeneticSolver) nextGeneration(rng *rand.Rand, population, children [][]bool, items []datatypes.KnapsackItem, volume int) [][]bool {
	childIdx := 0
	for i, chromosome := range population {
		if fitness(chromosome, items, volume) > 0 {
			continue
		}
		if childIdx < len(children) {
			population[i] = children[childIdx]
			childIdx++
		} else {
			population[i] = mutate(rng, chromosome)
		}
	}
	for ; childIdx < len(children); childIdx++ {
		population[rng.Intn(len(population))] = children[childIdx]
	}
	return population
}

// fitness is the total value when the chromosome fits the capacity,
// zero otherwise.
func fitness(chromosome []bool, items []datatypes.KnapsackItem, volume int) int {
	totalValue, totalVolume := 0, 0
	for i, include := range chromosome {
		if !include {
			continue
		}
		totalValue += items[i].Value
		totalVolume += items[i].Volume
	}
	if totalVolume > volume {
		return 0
	}
	return totalValue
}

// mutate flips one random gene.
func mutate(rng *rand.Rand, chromosome []bool) []bool {
	mutated := append([]bool{}, chromosome...)
	i := rng.Intn(len(mutated))
	mutated[i] = !mutated[i]
	return mutated
}
