// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

func subscriptionsStub(t *testing.T, status int, name string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/user_subscription_maps/k1", r.URL.Path)
		w.WriteHeader(status)
		if status == http.StatusOK {
			fmt.Fprintf(w, `{"result": {"subscription_name": %q}}`, name)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTierPremium(t *testing.T) {
	server := subscriptionsStub(t, http.StatusOK, "Premium")
	resolver := NewTierResolver(server.URL, testLogger())

	tier, err := resolver.Tier(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, datatypes.SubscriptionPremium, tier)
}

func TestTierBasic(t *testing.T) {
	server := subscriptionsStub(t, http.StatusOK, "Basic")
	resolver := NewTierResolver(server.URL, testLogger())

	tier, err := resolver.Tier(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, datatypes.SubscriptionStandard, tier)
}

func TestTierUnrecognizedNameDefaultsToStandard(t *testing.T) {
	server := subscriptionsStub(t, http.StatusOK, "Platinum")
	resolver := NewTierResolver(server.URL, testLogger())

	tier, err := resolver.Tier(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, datatypes.SubscriptionStandard, tier)
}

func TestTierNotFoundDefaultsToStandard(t *testing.T) {
	server := subscriptionsStub(t, http.StatusNotFound, "")
	resolver := NewTierResolver(server.URL, testLogger())

	tier, err := resolver.Tier(context.Background(), "k1")
	require.NoError(t, err)
	assert.Equal(t, datatypes.SubscriptionStandard, tier)
}

func TestTierServerErrorPropagates(t *testing.T) {
	server := subscriptionsStub(t, http.StatusInternalServerError, "")
	resolver := NewTierResolver(server.URL, testLogger())

	_, err := resolver.Tier(context.Background(), "k1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 500")
}
