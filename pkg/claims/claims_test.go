// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package claims

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// fakeHashClient is an in-memory stand-in for the three claim hashes.
// It counts HDel calls so tests can assert the empty-release invariant.
type fakeHashClient struct {
	hashes    map[string]map[string]string
	hdelCalls int
}

func newFakeHashClient() *fakeHashClient {
	return &fakeHashClient{hashes: make(map[string]map[string]string)}
}

func (f *fakeHashClient) hash(key string) map[string]string {
	if f.hashes[key] == nil {
		f.hashes[key] = make(map[string]string)
	}
	return f.hashes[key]
}

func (f *fakeHashClient) HSetNX(ctx context.Context, key, field string, value interface{}) *redis.BoolCmd {
	h := f.hash(key)
	if _, exists := h[field]; exists {
		return redis.NewBoolResult(false, nil)
	}
	h[field] = value.(string)
	return redis.NewBoolResult(true, nil)
}

func (f *fakeHashClient) HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd {
	f.hdelCalls++
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

func (f *fakeHashClient) HGet(ctx context.Context, key, field string) *redis.StringCmd {
	if v, exists := f.hash(key)[field]; exists {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func newTestService(rdb HashClient) *Service {
	return NewService(rdb, "items", "suggestions", "running")
}

func item(id string, value, volume int) datatypes.KnapsackItem {
	return datatypes.KnapsackItem{ID: id, Value: value, Volume: volume}
}

// =============================================================================
// Item Claims
// =============================================================================

func TestClaimItems_FiltersItemsOverCapacity(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)

	claimed, err := svc.ClaimItems(context.Background(),
		[]datatypes.KnapsackItem{item("fits", 10, 5), item("too-big", 99, 11)}, 10, "k1")
	require.NoError(t, err)

	require.Len(t, claimed, 1)
	assert.Equal(t, "fits", claimed[0].ID)

	// The oversized item must never reach the store.
	_, exists := fake.hash("items")["too-big"]
	assert.False(t, exists)
}

func TestClaimItems_PartialSuccessWhenContested(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)

	// Another knapsack already holds item "b".
	fake.hash("items")["b"] = "other-knapsack"

	claimed, err := svc.ClaimItems(context.Background(),
		[]datatypes.KnapsackItem{item("a", 1, 1), item("b", 2, 1), item("c", 3, 1)}, 10, "k1")
	require.NoError(t, err)

	require.Len(t, claimed, 2)
	assert.Equal(t, "a", claimed[0].ID)
	assert.Equal(t, "c", claimed[1].ID)
	assert.Equal(t, "other-knapsack", fake.hash("items")["b"])
}

func TestClaimItems_ExclusiveAcrossKnapsacks(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)
	contested := []datatypes.KnapsackItem{item("x", 5, 5)}

	first, err := svc.ClaimItems(context.Background(), contested, 10, "k1")
	require.NoError(t, err)
	second, err := svc.ClaimItems(context.Background(), contested, 10, "k2")
	require.NoError(t, err)

	assert.Len(t, first, 1)
	assert.Empty(t, second)
	assert.Equal(t, "k1", fake.hash("items")["x"])
}

func TestReleaseItems_EmptySetIssuesNoDeletes(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)

	require.NoError(t, svc.ReleaseItems(context.Background(), nil))
	require.NoError(t, svc.ReleaseItems(context.Background(), []datatypes.KnapsackItem{}))

	assert.Zero(t, fake.hdelCalls)
}

func TestReleaseItems_ReleasedItemCanBeReclaimed(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)
	ctx := context.Background()
	contested := []datatypes.KnapsackItem{item("x", 5, 5)}

	_, err := svc.ClaimItems(ctx, contested, 10, "k1")
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseItems(ctx, contested))

	reclaimed, err := svc.ClaimItems(ctx, contested, 10, "k2")
	require.NoError(t, err)
	assert.Len(t, reclaimed, 1)
	assert.Equal(t, "k2", fake.hash("items")["x"])
}

func TestIsItemClaimed(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)
	ctx := context.Background()

	claimed, err := svc.IsItemClaimed(ctx, "x")
	require.NoError(t, err)
	assert.False(t, claimed)

	_, err = svc.ClaimItems(ctx, []datatypes.KnapsackItem{item("x", 5, 5)}, 10, "k1")
	require.NoError(t, err)

	claimed, err = svc.IsItemClaimed(ctx, "x")
	require.NoError(t, err)
	assert.True(t, claimed)
}

// =============================================================================
// Running-Knapsack and Suggestion Claims
// =============================================================================

func TestClaimRunningKnapsack_SecondClaimantLoses(t *testing.T) {
	svc := newTestService(newFakeHashClient())
	ctx := context.Background()

	first, err := svc.ClaimRunningKnapsack(ctx, "k1")
	require.NoError(t, err)
	second, err := svc.ClaimRunningKnapsack(ctx, "k1")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestClaimRunningKnapsack_ReleaseAllowsReclaim(t *testing.T) {
	svc := newTestService(newFakeHashClient())
	ctx := context.Background()

	ok, err := svc.ClaimRunningKnapsack(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, svc.ReleaseRunningKnapsack(ctx, "k1"))

	ok, err = svc.ClaimRunningKnapsack(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClaimSuggestion_ExclusivePerKnapsack(t *testing.T) {
	svc := newTestService(newFakeHashClient())
	ctx := context.Background()

	first, err := svc.ClaimSuggestion(ctx, "k1")
	require.NoError(t, err)
	second, err := svc.ClaimSuggestion(ctx, "k1")
	require.NoError(t, err)
	other, err := svc.ClaimSuggestion(ctx, "k2")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
	assert.True(t, other, "claims from different knapsacks are independent")
}

func TestClaimNamespaces_DoNotCollide(t *testing.T) {
	fake := newFakeHashClient()
	svc := newTestService(fake)
	ctx := context.Background()

	ok, err := svc.ClaimRunningKnapsack(ctx, "k1")
	require.NoError(t, err)
	require.True(t, ok)

	// A running claim on k1 must not block the suggestion claim on k1.
	ok, err = svc.ClaimSuggestion(ctx, "k1")
	require.NoError(t, err)
	assert.True(t, ok)
}
