// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package claims implements the exclusivity tokens that coordinate the
// solver fleet.
//
// A claim is an entry in one of three Redis hashes: item claims
// (item id -> knapsack id), running-knapsack claims (knapsack id ->
// knapsack id) and suggestion claims (knapsack id -> knapsack id). A
// claim exists iff the resource is currently held. Creation is HSETNX,
// so at most one holder ever succeeds; release is an unconditional
// HDEL. Claims carry no expiry — owners release them explicitly, on
// every exit path. The atomic conditional set is the sole mutual
// exclusion mechanism across workers; there are no in-process locks.
package claims

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// HashClient is the subset of the Redis API the claim store needs.
// *redis.Client satisfies it; tests substitute a fake.
type HashClient interface {
	HSetNX(ctx context.Context, key, field string, value interface{}) *redis.BoolCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
}

// Service mediates all claim operations. One instance is shared by the
// router handlers, the solver pipeline and the maintainer.
type Service struct {
	rdb            HashClient
	itemsHash      string
	suggestionHash string
	runningHash    string
}

// NewService creates a claim store over the three configured hash
// namespaces.
func NewService(rdb HashClient, itemsHash, suggestionHash, runningHash string) *Service {
	return &Service{
		rdb:            rdb,
		itemsHash:      itemsHash,
		suggestionHash: suggestionHash,
		runningHash:    runningHash,
	}
}

// ClaimItems attempts to claim every item whose volume fits the
// knapsack. Each item is claimed independently; partial success across
// the batch is normal when a concurrent knapsack already holds some of
// the items. Returns the items actually claimed for knapsackID.
func (s *Service) ClaimItems(ctx context.Context, items []datatypes.KnapsackItem, volume int, knapsackID string) ([]datatypes.KnapsackItem, error) {
	var claimed []datatypes.KnapsackItem
	for _, item := range items {
		if item.Volume > volume {
			continue
		}
		ok, err := s.rdb.HSetNX(ctx, s.itemsHash, item.ID, knapsackID).Result()
		if err != nil {
			return claimed, fmt.Errorf("claim item %s: %w", item.ID, err)
		}
		if ok {
			claimed = append(claimed, item)
		}
	}
	return claimed, nil
}

// ReleaseItems releases the claims of the given items. Releasing an
// empty set is a no-op and issues no Redis command at all; releasing an
// unclaimed item is equally harmless.
func (s *Service) ReleaseItems(ctx context.Context, items []datatypes.KnapsackItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		ids = append(ids, item.ID)
	}
	if err := s.rdb.HDel(ctx, s.itemsHash, ids...).Err(); err != nil {
		return fmt.Errorf("release item claims: %w", err)
	}
	return nil
}

// IsItemClaimed reports whether any knapsack currently holds the item.
func (s *Service) IsItemClaimed(ctx context.Context, itemID string) (bool, error) {
	_, err := s.rdb.HGet(ctx, s.itemsHash, itemID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check item claim %s: %w", itemID, err)
	}
	return true, nil
}

// ClaimRunningKnapsack claims the exclusive right to execute knapsackID.
// Returns false when another solver instance already runs it.
func (s *Service) ClaimRunningKnapsack(ctx context.Context, knapsackID string) (bool, error) {
	ok, err := s.rdb.HSetNX(ctx, s.runningHash, knapsackID, knapsackID).Result()
	if err != nil {
		return false, fmt.Errorf("claim running knapsack %s: %w", knapsackID, err)
	}
	return ok, nil
}

// ReleaseRunningKnapsack releases the running-knapsack claim. Idempotent.
func (s *Service) ReleaseRunningKnapsack(ctx context.Context, knapsackID string) error {
	if err := s.rdb.HDel(ctx, s.runningHash, knapsackID).Err(); err != nil {
		return fmt.Errorf("release running knapsack %s: %w", knapsackID, err)
	}
	return nil
}

// ClaimSuggestion claims the exclusive right to run an accept/reject
// transaction on knapsackID's suggested solutions.
func (s *Service) ClaimSuggestion(ctx context.Context, knapsackID string) (bool, error) {
	ok, err := s.rdb.HSetNX(ctx, s.suggestionHash, knapsackID, knapsackID).Result()
	if err != nil {
		return false, fmt.Errorf("claim suggestion %s: %w", knapsackID, err)
	}
	return ok, nil
}

// ReleaseSuggestion releases the suggestion claim. Idempotent.
func (s *Service) ReleaseSuggestion(ctx context.Context, knapsackID string) error {
	if err := s.rdb.HDel(ctx, s.suggestionHash, knapsackID).Err(); err != nil {
		return fmt.Errorf("release suggestion %s: %w", knapsackID, err)
	}
	return nil
}
