// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package solvers

import "github.com/talaloni2/knapsack-solver/pkg/datatypes"

// DynamicProgrammingSolver finds an exact optimum with the classic
// O(n*capacity) value table. The router downgrades to the genetic
// strategy when capacity*items exceeds the configured iteration budget,
// so the table stays bounded.
type DynamicProgrammingSolver struct{}

func (s *DynamicProgrammingSolver) Solve(items []datatypes.KnapsackItem, volume int) ([]datatypes.KnapsackItem, error) {
	if volume <= 0 || len(items) == 0 {
		return nil, nil
	}
	n := len(items)
	table := make([][]int, n+1)
	for i := range table {
		table[i] = make([]int, volume+1)
	}
	for i := 1; i <= n; i++ {
		w, v := items[i-1].Volume, items[i-1].Value
		for j := 0; j <= volume; j++ {
			table[i][j] = table[i-1][j]
			if w <= j && table[i-1][j-w]+v > table[i][j] {
				table[i][j] = table[i-1][j-w] + v
			}
		}
	}

	// Backtrack the chosen items.
	var picked []datatypes.KnapsackItem
	j := volume
	for i := n; i > 0; i-- {
		if table[i][j] != table[i-1][j] {
			picked = append(picked, items[i-1])
			j -= items[i-1].Volume
		}
	}
	return picked, nil
}
