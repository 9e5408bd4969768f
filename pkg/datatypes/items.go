// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes holds the wire and storage models shared by the
// router, solver and maintainer deployments.
package datatypes

// KnapsackItem is a single candidate item. Immutable once submitted;
// identity is the ID. Items may be shared across concurrently submitted
// knapsacks, which is why claiming exists at all.
type KnapsackItem struct {
	ID     string `json:"id"`
	Value  int    `json:"value"`
	Volume int    `json:"volume"`
}

// ItemIDSet returns the set of IDs in items.
func ItemIDSet(items []KnapsackItem) map[string]struct{} {
	ids := make(map[string]struct{}, len(items))
	for _, item := range items {
		ids[item.ID] = struct{}{}
	}
	return ids
}

// SameItemSet reports whether a and b contain exactly the same item IDs,
// ignoring order and multiplicity.
func SameItemSet(a, b []KnapsackItem) bool {
	as, bs := ItemIDSet(a), ItemIDSet(b)
	if len(as) != len(bs) {
		return false
	}
	for id := range as {
		if _, ok := bs[id]; !ok {
			return false
		}
	}
	return true
}
