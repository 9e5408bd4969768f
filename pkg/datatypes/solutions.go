// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// ReportCause is the outcome published back to the waiting caller on the
// per-knapsack report channel.
type ReportCause string

const (
	ReportNoItemClaimed           ReportCause = "no_item_claimed"
	ReportSolutionFound           ReportCause = "solution_found"
	ReportSuggestionAlreadyExists ReportCause = "suggestion_already_exists"
	ReportTimeout                 ReportCause = "timeout"
	ReportGotException            ReportCause = "exception"
)

// SolutionReport is the pub/sub message that unblocks the report waiter.
type SolutionReport struct {
	Cause ReportCause `json:"cause"`
}

// AlgorithmSolution is the output of one strategy for one knapsack.
type AlgorithmSolution struct {
	Algorithm Algorithm      `json:"algorithm"`
	Items     []KnapsackItem `json:"items"`
}

// SuggestedSolution is the persisted batch of solution alternatives for a
// knapsack, awaiting caller accept/reject. At most one live record per
// knapsack id. Mutated only by full replacement or deletion.
type SuggestedSolution struct {
	CreatedAt time.Time                    `json:"createdAt"`
	Solutions map[string]AlgorithmSolution `json:"solutions"`
}

// AcceptedSolution is appended to the accepted-solutions list when the
// caller accepts one alternative. Insertion order is acceptance order;
// the maintainer expires entries from the head.
type AcceptedSolution struct {
	AcceptedAt time.Time      `json:"acceptedAt"`
	Items      []KnapsackItem `json:"items"`
	KnapsackID string         `json:"knapsackId"`
}

// AcceptResult is the outcome of an accept transaction.
type AcceptResult string

const (
	AcceptSuccess     AcceptResult = "accept_success"
	AcceptClaimFailed AcceptResult = "claim_failed"
	AcceptNotExists   AcceptResult = "solution_not_exists"
)

// RejectResult is the outcome of a reject transaction.
type RejectResult string

const (
	RejectSuccess     RejectResult = "reject_success"
	RejectClaimFailed RejectResult = "claim_failed"
	RejectNotExists   RejectResult = "suggestion_not_exists"
)
