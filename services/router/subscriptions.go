// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
)

// TierResolver resolves the caller tier for a knapsack id via the
// external subscriptions service.
type TierResolver struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// NewTierResolver creates a resolver against baseURL.
func NewTierResolver(baseURL string, log *logging.Logger) *TierResolver {
	return &TierResolver{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log,
	}
}

type subscriptionMapResponse struct {
	Result struct {
		SubscriptionName string `json:"subscription_name"`
	} `json:"result"`
}

// Tier looks up the subscription mapped to knapsackID. Unknown callers
// get the standard tier; any other non-success response is an error
// because there is no safe tier to guess under a failing dependency.
func (r *TierResolver) Tier(ctx context.Context, knapsackID string) (datatypes.SubscriptionScore, error) {
	url := fmt.Sprintf("%s/user_subscription_maps/%s", r.baseURL, knapsackID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build subscription lookup request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("subscription lookup for %s: %w", knapsackID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		r.log.Debug("no subscription mapped, defaulting to standard", "knapsack_id", knapsackID)
		return datatypes.SubscriptionStandard, nil
	default:
		return 0, fmt.Errorf("subscription lookup for %s: unexpected status %d", knapsackID, resp.StatusCode)
	}

	var payload subscriptionMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode subscription lookup for %s: %w", knapsackID, err)
	}
	return datatypes.ScoreForSubscriptionName(payload.Result.SubscriptionName), nil
}
