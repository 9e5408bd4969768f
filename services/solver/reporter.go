// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package solver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// PublishClient is the subset of the Redis API the reporter needs.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Reporter persists solve results and notifies the caller waiting on the
// knapsack's report channel.
type Reporter struct {
	rdb           PublishClient
	store         *suggestions.Service
	channelPrefix string
	metrics       *observability.Metrics
	log           *logging.Logger
}

// NewReporter creates a Reporter publishing on channelPrefix.
func NewReporter(rdb PublishClient, store *suggestions.Service, channelPrefix string, metrics *observability.Metrics, log *logging.Logger) *Reporter {
	return &Reporter{
		rdb:           rdb,
		store:         store,
		channelPrefix: channelPrefix,
		metrics:       metrics,
		log:           log,
	}
}

// ReportSolutions registers the solutions as the knapsack's suggestion
// and publishes a solution-found report. Registration happens before the
// publish so the caller observes the stored record the moment the report
// arrives.
func (r *Reporter) ReportSolutions(ctx context.Context, knapsackID string, solutions []datatypes.AlgorithmSolution) error {
	if _, err := r.store.Register(ctx, knapsackID, solutions); err != nil {
		return err
	}
	return r.publish(ctx, knapsackID, datatypes.ReportSolutionFound)
}

// ReportError publishes a failure report with the given cause.
func (r *Reporter) ReportError(ctx context.Context, knapsackID string, cause datatypes.ReportCause) error {
	return r.publish(ctx, knapsackID, cause)
}

func (r *Reporter) publish(ctx context.Context, knapsackID string, cause datatypes.ReportCause) error {
	encoded, err := json.Marshal(datatypes.SolutionReport{Cause: cause})
	if err != nil {
		return fmt.Errorf("encode solution report: %w", err)
	}
	channel := ReportChannel(r.channelPrefix, knapsackID)
	if err := r.rdb.Publish(ctx, channel, string(encoded)).Err(); err != nil {
		return fmt.Errorf("publish solution report on %s: %w", channel, err)
	}
	r.metrics.ReportsPublished.WithLabelValues(string(cause)).Inc()
	r.log.Info("published solution report", "knapsack_id", knapsackID, "cause", cause)
	return nil
}

// ReportChannel names the pub/sub channel carrying reports for one
// knapsack. The router subscribes to it before dispatching the job.
func ReportChannel(prefix, knapsackID string) string {
	return prefix + ":" + knapsackID
}
