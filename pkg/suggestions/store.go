// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package suggestions persists suggested and accepted solutions.
//
// Suggested solutions live in one Redis hash keyed by knapsack id, one
// record per knapsack at most. Accepted solutions are appended to a
// Redis list in acceptance order; the maintainer expires them from the
// head. Accept and reject are serialized per knapsack by the suggestion
// claim; business outcomes are returned as enum values, never errors.
package suggestions

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// StoreClient is the subset of the Redis API the store needs.
// *redis.Client satisfies it; tests substitute a fake.
type StoreClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HScan(ctx context.Context, key string, cursor uint64, match string, count int64) *redis.ScanCmd
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LPop(ctx context.Context, key string) *redis.StringCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// Service is the result store.
type Service struct {
	rdb            StoreClient
	claims         *claims.Service
	suggestionHash string
	acceptedList   string
	now            func() time.Time
}

// NewService creates the store over the configured hash and list names.
func NewService(rdb StoreClient, claimsService *claims.Service, suggestionHash, acceptedList string) *Service {
	return &Service{
		rdb:            rdb,
		claims:         claimsService,
		suggestionHash: suggestionHash,
		acceptedList:   acceptedList,
		now:            time.Now,
	}
}

// Register persists the solutions as the knapsack's suggested solution,
// assigning a fresh collision-resistant id to each one. Any prior record
// is overwritten; the consumer's suggestion-already-exists guard
// guarantees none exists on the solve path.
func (s *Service) Register(ctx context.Context, knapsackID string, solutions []datatypes.AlgorithmSolution) (datatypes.SuggestedSolution, error) {
	record := datatypes.SuggestedSolution{
		CreatedAt: s.now().UTC(),
		Solutions: make(map[string]datatypes.AlgorithmSolution, len(solutions)),
	}
	for _, sol := range solutions {
		record.Solutions[uuid.NewString()] = sol
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return datatypes.SuggestedSolution{}, fmt.Errorf("encode suggested solution: %w", err)
	}
	if err := s.rdb.HSet(ctx, s.suggestionHash, knapsackID, string(encoded)).Err(); err != nil {
		return datatypes.SuggestedSolution{}, fmt.Errorf("store suggested solution for %s: %w", knapsackID, err)
	}
	return record, nil
}

// Get returns the live suggested solution for knapsackID, or nil when
// none exists.
func (s *Service) Get(ctx context.Context, knapsackID string) (*datatypes.SuggestedSolution, error) {
	encoded, err := s.rdb.HGet(ctx, s.suggestionHash, knapsackID).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load suggested solution for %s: %w", knapsackID, err)
	}
	var record datatypes.SuggestedSolution
	if err := json.Unmarshal([]byte(encoded), &record); err != nil {
		return nil, fmt.Errorf("decode suggested solution for %s: %w", knapsackID, err)
	}
	return &record, nil
}

// ExistsSolution reports whether the knapsack has a live suggestion
// containing solutionID.
func (s *Service) ExistsSolution(ctx context.Context, knapsackID, solutionID string) (bool, error) {
	record, err := s.Get(ctx, knapsackID)
	if err != nil || record == nil {
		return false, err
	}
	_, ok := record.Solutions[solutionID]
	return ok, nil
}

// Accept accepts one of the suggested alternatives. Item claims held for
// the rejected alternatives are released, except for items the accepted
// solution shares with them; the accepted record is appended to the
// accepted list and the suggestion record deleted. The whole transaction
// is exclusive via the suggestion claim, which is released on every
// exit path.
func (s *Service) Accept(ctx context.Context, knapsackID, solutionID string) (datatypes.AcceptResult, error) {
	ok, err := s.claims.ClaimSuggestion(ctx, knapsackID)
	if err != nil {
		return "", err
	}
	if !ok {
		return datatypes.AcceptClaimFailed, nil
	}
	defer s.claims.ReleaseSuggestion(ctx, knapsackID)

	record, err := s.Get(ctx, knapsackID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return datatypes.AcceptNotExists, nil
	}
	accepted, ok := record.Solutions[solutionID]
	if !ok {
		return datatypes.AcceptNotExists, nil
	}

	if err := s.releaseNonAcceptedClaims(ctx, accepted, record); err != nil {
		return "", err
	}
	if err := s.appendAccepted(ctx, knapsackID, accepted.Items); err != nil {
		return "", err
	}
	if err := s.removeSuggestion(ctx, knapsackID); err != nil {
		return "", err
	}
	return datatypes.AcceptSuccess, nil
}

// Reject discards all suggested alternatives for knapsackID, releasing
// every item claim they hold, then deletes the suggestion record. Same
// exclusivity pattern as Accept.
func (s *Service) Reject(ctx context.Context, knapsackID string) (datatypes.RejectResult, error) {
	ok, err := s.claims.ClaimSuggestion(ctx, knapsackID)
	if err != nil {
		return "", err
	}
	if !ok {
		return datatypes.RejectClaimFailed, nil
	}
	defer s.claims.ReleaseSuggestion(ctx, knapsackID)

	record, err := s.Get(ctx, knapsackID)
	if err != nil {
		return "", err
	}
	if record == nil {
		return datatypes.RejectNotExists, nil
	}

	nothingKept := datatypes.AlgorithmSolution{}
	if err := s.releaseNonAcceptedClaims(ctx, nothingKept, record); err != nil {
		return "", err
	}
	if err := s.removeSuggestion(ctx, knapsackID); err != nil {
		return "", err
	}
	return datatypes.RejectSuccess, nil
}

// SuggestionKnapsackIDs scans the suggestion hash and returns every
// knapsack id with a live record. Used by the maintainer's expiry loop.
func (s *Service) SuggestionKnapsackIDs(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		fields, next, err := s.rdb.HScan(ctx, s.suggestionHash, cursor, "", 0).Result()
		if err != nil {
			return nil, fmt.Errorf("scan suggested solutions: %w", err)
		}
		// HSCAN yields alternating field and value entries.
		for i := 0; i+1 < len(fields); i += 2 {
			ids = append(ids, fields[i])
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

// AcceptedRange reads accepted solutions by list position, head first.
func (s *Service) AcceptedRange(ctx context.Context, start, stop int64) ([]datatypes.AcceptedSolution, error) {
	encoded, err := s.rdb.LRange(ctx, s.acceptedList, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("read accepted solutions: %w", err)
	}
	solutions := make([]datatypes.AcceptedSolution, 0, len(encoded))
	for _, e := range encoded {
		var sol datatypes.AcceptedSolution
		if err := json.Unmarshal([]byte(e), &sol); err != nil {
			return nil, fmt.Errorf("decode accepted solution: %w", err)
		}
		solutions = append(solutions, sol)
	}
	return solutions, nil
}

// PopOldestAccepted removes and returns the head of the accepted list.
// Returns nil when the list is empty.
func (s *Service) PopOldestAccepted(ctx context.Context) (*datatypes.AcceptedSolution, error) {
	encoded, err := s.rdb.LPop(ctx, s.acceptedList).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop accepted solution: %w", err)
	}
	var sol datatypes.AcceptedSolution
	if err := json.Unmarshal([]byte(encoded), &sol); err != nil {
		return nil, fmt.Errorf("decode accepted solution: %w", err)
	}
	return &sol, nil
}

// releaseNonAcceptedClaims releases item claims across all suggested
// solutions except items that appear in the accepted solution's set.
// With an empty accepted solution everything is released.
func (s *Service) releaseNonAcceptedClaims(ctx context.Context, accepted datatypes.AlgorithmSolution, record *datatypes.SuggestedSolution) error {
	keep := datatypes.ItemIDSet(accepted.Items)
	var release []datatypes.KnapsackItem
	for _, sol := range record.Solutions {
		for _, item := range sol.Items {
			if _, kept := keep[item.ID]; !kept {
				release = append(release, item)
			}
		}
	}
	return s.claims.ReleaseItems(ctx, release)
}

func (s *Service) appendAccepted(ctx context.Context, knapsackID string, items []datatypes.KnapsackItem) error {
	record := datatypes.AcceptedSolution{
		AcceptedAt: s.now().UTC(),
		Items:      items,
		KnapsackID: knapsackID,
	}
	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode accepted solution: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.acceptedList, string(encoded)).Err(); err != nil {
		return fmt.Errorf("append accepted solution for %s: %w", knapsackID, err)
	}
	return nil
}

func (s *Service) removeSuggestion(ctx context.Context, knapsackID string) error {
	if err := s.rdb.HDel(ctx, s.suggestionHash, knapsackID).Err(); err != nil {
		return fmt.Errorf("remove suggested solution for %s: %w", knapsackID, err)
	}
	return nil
}
