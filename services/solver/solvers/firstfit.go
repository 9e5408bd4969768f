// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package solvers

import "github.com/talaloni2/knapsack-solver/pkg/datatypes"

// FirstFitSolver returns the first item that fits. The cheapest
// strategy; used as the universal fallback.
type FirstFitSolver struct{}

func (s *FirstFitSolver) Solve(items []datatypes.KnapsackItem, volume int) ([]datatypes.KnapsackItem, error) {
	for _, item := range items {
		if item.Volume <= volume {
			return []datatypes.KnapsackItem{item}, nil
		}
	}
	return nil, nil
}
