// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package router

import (
	"context"

	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
)

// AvailabilitySource yields the current cluster availability score.
// *AvailabilityProbe is the production implementation.
type AvailabilitySource interface {
	Availability() (datatypes.ClusterAvailability, error)
}

// TierSource resolves the caller tier for a knapsack id. *TierResolver
// is the production implementation.
type TierSource interface {
	Tier(ctx context.Context, knapsackID string) (datatypes.SubscriptionScore, error)
}

// StrategySelector picks the ordered strategy list for a job: a lookup
// on (availability, tier) followed by per-element downgrades protecting
// the exact solvers from pathological input sizes.
type StrategySelector struct {
	availability AvailabilitySource
	tiers        TierSource
	cfg          *config.Config
	log          *logging.Logger
	table        map[datatypes.ClusterAvailability]map[datatypes.SubscriptionScore][]datatypes.Algorithm
}

// NewStrategySelector builds the selector and its strategy table. The
// most favorable cell gets the most expensive strategies; the least
// favorable the cheapest.
func NewStrategySelector(availability AvailabilitySource, tiers TierSource, cfg *config.Config, log *logging.Logger) *StrategySelector {
	return &StrategySelector{
		availability: availability,
		tiers:        tiers,
		cfg:          cfg,
		log:          log,
		table: map[datatypes.ClusterAvailability]map[datatypes.SubscriptionScore][]datatypes.Algorithm{
			datatypes.ClusterAvailable: {
				datatypes.SubscriptionPremium:  {datatypes.AlgorithmBranchAndBound, datatypes.AlgorithmGreedy},
				datatypes.SubscriptionStandard: {datatypes.AlgorithmGeneticHeavy, datatypes.AlgorithmGreedy},
			},
			datatypes.ClusterModerate: {
				datatypes.SubscriptionPremium:  {datatypes.AlgorithmDynamicProgramming, datatypes.AlgorithmGreedy},
				datatypes.SubscriptionStandard: {datatypes.AlgorithmGeneticLight},
			},
			datatypes.ClusterBusy: {
				datatypes.SubscriptionPremium:  {datatypes.AlgorithmGeneticHeavy},
				datatypes.SubscriptionStandard: {datatypes.AlgorithmGreedy},
			},
			datatypes.ClusterVeryBusy: {
				datatypes.SubscriptionPremium:  {datatypes.AlgorithmGeneticLight},
				datatypes.SubscriptionStandard: {datatypes.AlgorithmGreedy},
			},
		},
	}
}

// Select resolves availability and tier, looks up the strategy list and
// applies the size downgrades. Duplicates in the resulting list are
// intentional and preserved.
func (s *StrategySelector) Select(ctx context.Context, knapsackID string, itemCount, capacity int) ([]datatypes.Algorithm, error) {
	availability, err := s.availability.Availability()
	if err != nil {
		return nil, err
	}
	tier, err := s.tiers.Tier(ctx, knapsackID)
	if err != nil {
		return nil, err
	}

	base, ok := s.table[availability][tier]
	if !ok {
		s.log.Warn("no strategy configured for cluster state, falling back to first-fit",
			"availability", availability, "tier", tier)
		base = []datatypes.Algorithm{datatypes.AlgorithmFirstFit}
	}
	s.log.Info("selected strategies",
		"knapsack_id", knapsackID, "availability", availability, "tier", tier, "strategies", base)

	selected := make([]datatypes.Algorithm, len(base))
	for i, algorithm := range base {
		selected[i] = s.downgrade(algorithm, itemCount, capacity)
	}
	return selected, nil
}

// downgrade swaps an exact strategy for a cheaper one when the input
// would blow up its running time. Branch-and-bound degrades to dynamic
// programming past the item cap; dynamic programming degrades to the
// heavy genetic preset past the iteration budget. Applied in that order
// so an oversized branch-and-bound job can degrade twice.
func (s *StrategySelector) downgrade(algorithm datatypes.Algorithm, itemCount, capacity int) datatypes.Algorithm {
	if algorithm == datatypes.AlgorithmBranchAndBound && itemCount > s.cfg.BranchAndBoundMaxItems {
		s.log.Info("downgrading branch-and-bound, too many items",
			"items", itemCount, "max", s.cfg.BranchAndBoundMaxItems)
		algorithm = datatypes.AlgorithmDynamicProgramming
	}
	if algorithm == datatypes.AlgorithmDynamicProgramming && capacity*itemCount > s.cfg.DynamicProgrammingMaxIterations {
		s.log.Info("downgrading dynamic programming, iteration budget exceeded",
			"iterations", capacity*itemCount, "max", s.cfg.DynamicProgrammingMaxIterations)
		algorithm = datatypes.AlgorithmGeneticHeavy
	}
	return algorithm
}
