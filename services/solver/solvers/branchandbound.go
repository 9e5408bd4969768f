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

// BranchAndBoundSolver finds an exact optimum by depth-first search with
// a fractional-relaxation upper bound for pruning. The router caps the
// item count it is asked to handle, so the search space stays tractable.
//
// Items with negative value make the relaxation bound invalid; matching
// the historical behavior, such inputs yield an empty solution.
type BranchAndBoundSolver struct{}

type bbItem struct {
	index  int
	value  int
	volume int
}

type bbState struct {
	items    []bbItem
	capacity int

	bestValue int
	bestPick  []bool
	pick      []bool
}

func (s *BranchAndBoundSolver) Solve(items []datatypes.KnapsackItem, volume int) ([]datatypes.KnapsackItem, error) {
	for _, item := range items {
		if item.Value < 0 {
			return nil, nil
		}
	}
	if len(items) == 0 || volume <= 0 {
		return nil, nil
	}

	// Density-descending order makes the fractional bound tight early.
	ordered := make([]bbItem, len(items))
	for i, item := range items {
		ordered[i] = bbItem{index: i, value: item.Value, volume: item.Volume}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].value*ordered[j].volume > ordered[j].value*ordered[i].volume
	})

	state := &bbState{
		items:    ordered,
		capacity: volume,
		bestPick: make([]bool, len(items)),
		pick:     make([]bool, len(items)),
	}
	state.branch(0, 0, 0)

	var picked []datatypes.KnapsackItem
	for i, item := range items {
		if state.bestPick[i] {
			picked = append(picked, item)
		}
	}
	return picked, nil
}

func (st *bbState) branch(depth, value, used int) {
	if value > st.bestValue {
		st.bestValue = value
		copy(st.bestPick, st.pick)
	}
	if depth == len(st.items) {
		return
	}
	if st.upperBound(depth, value, used) <= st.bestValue {
		return
	}

	item := st.items[depth]
	if used+item.volume <= st.capacity {
		st.pick[item.index] = true
		st.branch(depth+1, value+item.value, used+item.volume)
		st.pick[item.index] = false
	}
	st.branch(depth+1, value, used)
}

// upperBound relaxes the remaining items fractionally: take whole items
// in density order while they fit, then a fraction of the next one.
func (st *bbState) upperBound(depth, value, used int) int {
	bound := value
	remaining := st.capacity - used
	for i := depth; i < len(st.items); i++ {
		item := st.items[i]
		if item.volume <= remaining {
			bound += item.value
			remaining -= item.volume
			continue
		}
		if item.volume > 0 {
			bound += item.value * remaining / item.volume
		}
		break
	}
	return bound
}
