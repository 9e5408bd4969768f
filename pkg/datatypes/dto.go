// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

// RouterSolveRequest is the inbound /solve payload.
type RouterSolveRequest struct {
	Items      []KnapsackItem `json:"items" binding:"required,min=1,dive"`
	Volume     int            `json:"volume" binding:"required,gt=0"`
	KnapsackID string         `json:"knapsackId" binding:"required"`
}

// AcceptSolutionRequest is the inbound /accept-solution payload.
type AcceptSolutionRequest struct {
	KnapsackID string `json:"knapsackId" binding:"required"`
	SolutionID string `json:"solutionId" binding:"required"`
}

// RejectSolutionsRequest is the inbound /reject-solutions payload.
type RejectSolutionsRequest struct {
	KnapsackID string `json:"knapsackId" binding:"required"`
}

// SolverInstanceRequest is the dispatch-queue message consumed by solver
// instances. JSON field names are the wire contract.
type SolverInstanceRequest struct {
	Items      []KnapsackItem `json:"items"`
	Volume     int            `json:"volume"`
	KnapsackID string         `json:"knapsackId"`
	Algorithms []Algorithm    `json:"algorithms"`
}
