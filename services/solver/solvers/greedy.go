// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package solvers

import (
	"sort"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// GreedySolver fills the sack with items in descending value density
// (value per unit of volume) order.
type GreedySolver struct{}

func (s *GreedySolver) Solve(items []datatypes.KnapsackItem, volume int) ([]datatypes.KnapsackItem, error) {
	sorted := make([]datatypes.KnapsackItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		// Cross-multiplied density comparison avoids float rounding and
		// division by zero-volume items.
		return sorted[i].Value*sorted[j].Volume > sorted[j].Value*sorted[i].Volume
	})

	var picked []datatypes.KnapsackItem
	remaining := volume
	for _, item := range sorted {
		if remaining == 0 {
			break
		}
		if item.Volume <= remaining {
			picked = append(picked, item)
			remaining -= item.Volume
		}
	}
	return picked, nil
}
