// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// Algorithm identifies a solver strategy. The string values are part of
// the dispatch-queue wire contract.
type Algorithm string

const (
	AlgorithmFirstFit           Algorithm = "firstFit"
	AlgorithmGreedy             Algorithm = "greedy"
	AlgorithmGeneticLight       Algorithm = "geneticLight"
	AlgorithmGeneticHeavy       Algorithm = "geneticHeavy"
	AlgorithmDynamicProgramming Algorithm = "dynamicProgramming"
	AlgorithmBranchAndBound     Algorithm = "branchAndBound"
)

// Valid reports whether a is a known algorithm identifier.
func (a Algorithm) Valid() bool {
	switch a {
	case AlgorithmFirstFit, AlgorithmGreedy, AlgorithmGeneticLight,
		AlgorithmGeneticHeavy, AlgorithmDynamicProgramming, AlgorithmBranchAndBound:
		return true
	default:
		return false
	}
}
