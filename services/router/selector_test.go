// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package router

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
)

type fixedAvailability struct {
	availability datatypes.ClusterAvailability
}

func (f fixedAvailability) Availability() (datatypes.ClusterAvailability, error) {
	return f.availability, nil
}

type fixedTier struct {
	tier datatypes.SubscriptionScore
}

func (f fixedTier) Tier(ctx context.Context, knapsackID string) (datatypes.SubscriptionScore, error) {
	return f.tier, nil
}

func testLogger() *logging.Logger {
	return logging.New(logging.Config{Level: logging.LevelError, Writer: io.Discard})
}

func newSelector(availability datatypes.ClusterAvailability, tier datatypes.SubscriptionScore, cfg *config.Config) *StrategySelector {
	return NewStrategySelector(fixedAvailability{availability}, fixedTier{tier}, cfg, testLogger())
}

func TestSelectTable(t *testing.T) {
	cfg := config.Default()
	tests := []struct {
		name         string
		availability datatypes.ClusterAvailability
		tier         datatypes.SubscriptionScore
		want         []datatypes.Algorithm
	}{
		{
			name:         "available premium gets the exact solver",
			availability: datatypes.ClusterAvailable,
			tier:         datatypes.SubscriptionPremium,
			want:         []datatypes.Algorithm{datatypes.AlgorithmBranchAndBound, datatypes.AlgorithmGreedy},
		},
		{
			name:         "available standard gets heavy genetic",
			availability: datatypes.ClusterAvailable,
			tier:         datatypes.SubscriptionStandard,
			want:         []datatypes.Algorithm{datatypes.AlgorithmGeneticHeavy, datatypes.AlgorithmGreedy},
		},
		{
			name:         "moderate premium gets dynamic programming",
			availability: datatypes.ClusterModerate,
			tier:         datatypes.SubscriptionPremium,
			want:         []datatypes.Algorithm{datatypes.AlgorithmDynamicProgramming, datatypes.AlgorithmGreedy},
		},
		{
			name:         "moderate standard gets light genetic",
			availability: datatypes.ClusterModerate,
			tier:         datatypes.SubscriptionStandard,
			want:         []datatypes.Algorithm{datatypes.AlgorithmGeneticLight},
		},
		{
			name:         "busy premium gets heavy genetic",
			availability: datatypes.ClusterBusy,
			tier:         datatypes.SubscriptionPremium,
			want:         []datatypes.Algorithm{datatypes.AlgorithmGeneticHeavy},
		},
		{
			name:         "very busy standard gets greedy",
			availability: datatypes.ClusterVeryBusy,
			tier:         datatypes.SubscriptionStandard,
			want:         []datatypes.Algorithm{datatypes.AlgorithmGreedy},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selector := newSelector(tt.availability, tt.tier, &cfg)
			got, err := selector.Select(context.Background(), "k1", 10, 100)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectUnknownCellFallsBackToFirstFit(t *testing.T) {
	cfg := config.Default()
	selector := newSelector(datatypes.ClusterAvailability(0), datatypes.SubscriptionPremium, &cfg)

	got, err := selector.Select(context.Background(), "k1", 10, 100)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.Algorithm{datatypes.AlgorithmFirstFit}, got)
}

func TestSelectDowngradesBranchAndBoundOnItemCount(t *testing.T) {
	cfg := config.Default()
	cfg.BranchAndBoundMaxItems = 5
	selector := newSelector(datatypes.ClusterAvailable, datatypes.SubscriptionPremium, &cfg)

	got, err := selector.Select(context.Background(), "k1", 6, 100)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.Algorithm{datatypes.AlgorithmDynamicProgramming, datatypes.AlgorithmGreedy}, got)
}

func TestSelectDowngradesTwiceOnHugeInput(t *testing.T) {
	cfg := config.Default()
	cfg.BranchAndBoundMaxItems = 5
	cfg.DynamicProgrammingMaxIterations = 100
	selector := newSelector(datatypes.ClusterAvailable, datatypes.SubscriptionPremium, &cfg)

	// Item count trips the branch-and-bound cap, then capacity*items
	// trips the iteration budget of the dynamic-programming replacement.
	got, err := selector.Select(context.Background(), "k1", 6, 1000)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.Algorithm{datatypes.AlgorithmGeneticHeavy, datatypes.AlgorithmGreedy}, got)
}

func TestSelectDowngradesDynamicProgrammingOnIterationBudget(t *testing.T) {
	cfg := config.Default()
	cfg.DynamicProgrammingMaxIterations = 100
	selector := newSelector(datatypes.ClusterModerate, datatypes.SubscriptionPremium, &cfg)

	got, err := selector.Select(context.Background(), "k1", 50, 1000)
	require.NoError(t, err)
	assert.Equal(t, []datatypes.Algorithm{datatypes.AlgorithmGeneticHeavy, datatypes.AlgorithmGreedy}, got)
}

func TestAvailabilityForDepth(t *testing.T) {
	cfg := config.Default()
	cfg.SolversModerateBusyThreshold = 5
	cfg.SolversBusyThreshold = 10
	cfg.SolversVeryBusyThreshold = 20

	tests := []struct {
		messages int
		want     datatypes.ClusterAvailability
	}{
		{0, datatypes.ClusterAvailable},
		{4, datatypes.ClusterAvailable},
		{5, datatypes.ClusterModerate},
		{9, datatypes.ClusterModerate},
		{10, datatypes.ClusterBusy},
		{19, datatypes.ClusterBusy},
		{20, datatypes.ClusterVeryBusy},
		{500, datatypes.ClusterVeryBusy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, availabilityForDepth(tt.messages, &cfg), "depth %d", tt.messages)
	}
}
