// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package maintainer

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// fakeRedis implements the claim and store client subsets in memory.
type fakeRedis struct {
	hashes map[string]map[string]string
	lists  map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes: make(map[string]map[string]string),
		lists:  make(map[string][]string),
	}
}

func (f *fakeRedis) hash(key string) map[string]string {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	return f.hashes[key]
}

func (f *fakeRedis) HSetNX(ctx context.Context, key, field string, value interface{}) *redis.BoolCmd {
	h := f.hash(key)
	if _, exists := h[field]; exists {
		return redis.NewBoolResult(false, nil)
	}
	h[field] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	h := f.hash(key)
	for i := 0; i+1 < len(values); i += 2 {
		h[values[i].(string)] = values[i+1].(string)
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (f *fakeRedis) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	if v, exists := f.hash(key)[field]; exists {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (f *fakeRedis) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	h := f.hash(key)
	var removed int64
	for _, field := range fields {
		if _, exists := h[field]; exists {
			delete(h, field)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func (f *fakeRedis) HScan(ctx context.Context, key string, cursor uint64, match string, count int64) *redis.ScanCmd {
	var fields []string
	for k, v := range f.hash(key) {
		fields = append(fields, k, v)
	}
	return redis.NewScanCmdResult(fields, 0, nil)
}

func (f *fakeRedis) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	for _, v := range values {
		f.lists[key] = append(f.lists[key], v.(string))
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) LPop(ctx context.Context, key string) *redis.StringCmd {
	list := f.lists[key]
	if len(list) == 0 {
		return redis.NewStringResult("", redis.Nil)
	}
	head := list[0]
	f.lists[key] = list[1:]
	return redis.NewStringResult(head, nil)
}

func (f *fakeRedis) LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	list := f.lists[key]
	n := int64(len(list))
	if start >= n {
		return redis.NewStringSliceResult(nil, nil)
	}
	if stop >= n || stop < 0 {
		stop = n - 1
	}
	return redis.NewStringSliceResult(list[start:stop+1], nil)
}

type fixture struct {
	maintainer *Maintainer
	claims     *claims.Service
	store      *suggestions.Service
	fake       *fakeRedis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	fake := newFakeRedis()
	log := logging.New(logging.Config{Level: logging.LevelError, Writer: io.Discard})
	claimsSvc := claims.NewService(fake, cfg.ItemsClaimHash, cfg.SuggestedSolutionsClaimHash, cfg.RunningKnapsackClaimHash)
	store := suggestions.NewService(fake, claimsSvc, cfg.SuggestedSolutionsHash, cfg.AcceptedSolutionsList)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	return &fixture{
		maintainer: New(store, claimsSvc, &cfg, metrics, log),
		claims:     claimsSvc,
		store:      store,
		fake:       fake,
	}
}

// seedAccepted appends an accepted solution with a controlled timestamp,
// claiming its items first the way a real accept would have.
func seedAccepted(t *testing.T, fx *fixture, knapsackID string, acceptedAt time.Time, items ...datatypes.KnapsackItem) {
	t.Helper()
	ctx := context.Background()
	claimed, err := fx.claims.ClaimItems(ctx, items, 100, knapsackID)
	require.NoError(t, err)
	require.Len(t, claimed, len(items))

	encoded, err := json.Marshal(datatypes.AcceptedSolution{
		AcceptedAt: acceptedAt,
		Items:      items,
		KnapsackID: knapsackID,
	})
	require.NoError(t, err)
	require.NoError(t, fx.fake.RPush(ctx, fx.maintainer.cfg.AcceptedSolutionsList, string(encoded)).Err())
}

func item(id string) datatypes.KnapsackItem {
	return datatypes.KnapsackItem{ID: id, Value: 10, Volume: 5}
}

func registerWithClaims(t *testing.T, fx *fixture, knapsackID string, items ...datatypes.KnapsackItem) {
	t.Helper()
	ctx := context.Background()
	claimed, err := fx.claims.ClaimItems(ctx, items, 100, knapsackID)
	require.NoError(t, err)
	require.Len(t, claimed, len(items))
	_, err = fx.store.Register(ctx, knapsackID, []datatypes.AlgorithmSolution{
		{Algorithm: datatypes.AlgorithmGreedy, Items: items},
	})
	require.NoError(t, err)
}

func TestExpireSuggestionsReleasesOldRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	registerWithClaims(t, fx, "k1", item("a"), item("b"))

	// Beyond the suggestion TTL everything is rejected and released.
	fx.maintainer.now = func() time.Time {
		return time.Now().Add(time.Duration(fx.maintainer.cfg.SuggestionTTLSeconds+1) * time.Second)
	}
	require.NoError(t, fx.maintainer.ExpireSuggestions(ctx))

	record, err := fx.store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Nil(t, record)
	for _, id := range []string{"a", "b"} {
		claimed, err := fx.claims.IsItemClaimed(ctx, id)
		require.NoError(t, err)
		assert.False(t, claimed)
	}
}

func TestExpireSuggestionsKeepsFreshRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	registerWithClaims(t, fx, "k1", item("a"))

	require.NoError(t, fx.maintainer.ExpireSuggestions(ctx))

	record, err := fx.store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.NotNil(t, record)
	claimed, err := fx.claims.IsItemClaimed(ctx, "a")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestExpireSuggestionsSkipsContendedRecords(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	registerWithClaims(t, fx, "k1", item("a"))

	// A caller is mid-accept and holds the suggestion claim.
	ok, err := fx.claims.ClaimSuggestion(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	fx.maintainer.now = func() time.Time {
		return time.Now().Add(time.Duration(fx.maintainer.cfg.SuggestionTTLSeconds+1) * time.Second)
	}
	require.NoError(t, fx.maintainer.ExpireSuggestions(ctx))

	// The record survives; the next pass retries.
	record, err := fx.store.Get(ctx, "k1")
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestExpireAcceptedSolutionsStopsAtFirstFreshRecord(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	ttl := time.Duration(fx.maintainer.cfg.AcceptedSolutionTTLSeconds) * time.Second
	now := time.Now()
	fx.maintainer.now = func() time.Time { return now }

	// Head of the list is past the TTL, the next record is not; the scan
	// must stop at the fresh one.
	seedAccepted(t, fx, "k1", now.Add(-ttl-time.Minute), item("a"))
	seedAccepted(t, fx, "k2", now, item("b"))

	require.NoError(t, fx.maintainer.ExpireAcceptedSolutions(ctx))

	remaining, err := fx.store.AcceptedRange(ctx, 0, -1)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "k2", remaining[0].KnapsackID)

	claimed, err := fx.claims.IsItemClaimed(ctx, "a")
	require.NoError(t, err)
	assert.False(t, claimed)
	claimed, err = fx.claims.IsItemClaimed(ctx, "b")
	require.NoError(t, err)
	assert.True(t, claimed)
}

func TestExpireAcceptedSolutionsDrainsMultipleBatches(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	fx.maintainer.cfg.AcceptedSolutionsPrefetchCount = 2
	ttl := time.Duration(fx.maintainer.cfg.AcceptedSolutionTTLSeconds) * time.Second
	now := time.Now()
	fx.maintainer.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		seedAccepted(t, fx, "knapsack-"+id, now.Add(-ttl-time.Hour), item(id))
	}

	require.NoError(t, fx.maintainer.ExpireAcceptedSolutions(ctx))

	remaining, err := fx.store.AcceptedRange(ctx, 0, -1)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		claimed, err := fx.claims.IsItemClaimed(ctx, id)
		require.NoError(t, err)
		assert.False(t, claimed, "item %s should be released", id)
	}
}

func TestExpireAcceptedSolutionsEmptyListIsNoop(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.maintainer.ExpireAcceptedSolutions(context.Background()))
}

func TestRunStopsOnContextCancel(t *testing.T) {
	fx := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := fx.maintainer.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
