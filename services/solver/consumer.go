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

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// Consumer drains the solve queue and runs each job through the
// execution pipeline.
type Consumer struct {
	claims    *claims.Service
	store     *suggestions.Service
	runner    *Runner
	reporter  *Reporter
	metrics   *observability.Metrics
	log       *logging.Logger
	queueName string
}

// NewConsumer wires the consumer over its collaborators.
func NewConsumer(claimsService *claims.Service, store *suggestions.Service, runner *Runner, reporter *Reporter, metrics *observability.Metrics, log *logging.Logger, queueName string) *Consumer {
	return &Consumer{
		claims:    claimsService,
		store:     store,
		runner:    runner,
		reporter:  reporter,
		metrics:   metrics,
		log:       log,
		queueName: queueName,
	}
}

// Run declares the solve queue and consumes it until the context is
// cancelled or the broker connection fails. Message handling errors are
// infrastructure failures (Redis or pub/sub down); they terminate the
// loop so the process restarts with a clean connection.
func (c *Consumer) Run(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open broker channel: %w", err)
	}
	defer ch.Close()

	queue, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queueName, err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx, queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume queue %s: %w", c.queueName, err)
	}
	c.log.Info("consuming solve requests", "queue", queue.Name)

	for delivery := range deliveries {
		if err := c.Handle(ctx, delivery.Body); err != nil {
			_ = delivery.Nack(false, true)
			return err
		}
		if err := delivery.Ack(false); err != nil {
			return fmt.Errorf("ack delivery: %w", err)
		}
	}
	return ctx.Err()
}

// Handle processes one queue message. Malformed payloads are logged and
// skipped; everything else runs the pipeline.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	var req datatypes.SolverInstanceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.log.Warn("skipping malformed solve request", "error", err)
		c.metrics.JobsConsumed.WithLabelValues("parse_error").Inc()
		return nil
	}
	for _, algorithm := range req.Algorithms {
		if !algorithm.Valid() {
			c.log.Warn("solve request names unknown algorithm",
				"knapsack_id", req.KnapsackID, "algorithm", algorithm)
		}
	}
	return c.solve(ctx, req)
}

// solve is the execution pipeline: admission, duplicate-suggestion
// guard, item claiming, strategy runs, claim reconciliation, dedup and
// reporting. The running-knapsack claim is released on every exit path.
func (c *Consumer) solve(ctx context.Context, req datatypes.SolverInstanceRequest) error {
	admitted, err := c.claims.ClaimRunningKnapsack(ctx, req.KnapsackID)
	if err != nil {
		return err
	}
	if !admitted {
		// Another instance is already running this knapsack; that run
		// owns the report channel, so this copy is dropped silently.
		c.log.Info("dropping duplicate solve request", "knapsack_id", req.KnapsackID)
		c.metrics.JobsConsumed.WithLabelValues("dropped_duplicate").Inc()
		c.metrics.ClaimContention.WithLabelValues("running_knapsack").Inc()
		return nil
	}
	defer func() {
		if err := c.claims.ReleaseRunningKnapsack(ctx, req.KnapsackID); err != nil {
			c.log.Error("failed releasing running-knapsack claim", "knapsack_id", req.KnapsackID, "error", err)
		}
	}()

	existing, err := c.store.Get(ctx, req.KnapsackID)
	if err != nil {
		return err
	}
	if existing != nil {
		c.log.Info("suggestion already exists, refusing to overwrite", "knapsack_id", req.KnapsackID)
		c.metrics.JobsConsumed.WithLabelValues("error").Inc()
		return c.reporter.ReportError(ctx, req.KnapsackID, datatypes.ReportSuggestionAlreadyExists)
	}

	claimed, err := c.claims.ClaimItems(ctx, req.Items, req.Volume, req.KnapsackID)
	if err != nil {
		return err
	}
	if len(claimed) == 0 {
		c.log.Info("no item could be claimed", "knapsack_id", req.KnapsackID, "requested", len(req.Items))
		c.metrics.JobsConsumed.WithLabelValues("error").Inc()
		return c.reporter.ReportError(ctx, req.KnapsackID, datatypes.ReportNoItemClaimed)
	}

	results, err := c.runner.RunAlgorithms(claimed, req.Volume, req.Algorithms)
	if err != nil {
		c.log.Error("strategy run failed", "knapsack_id", req.KnapsackID, "error", err)
		c.metrics.JobsConsumed.WithLabelValues("error").Inc()
		// Release every requested item, not just the claimed subset;
		// the superset is harmless since release is idempotent.
		if relErr := c.claims.ReleaseItems(ctx, req.Items); relErr != nil {
			return relErr
		}
		return c.reporter.ReportError(ctx, req.KnapsackID, datatypes.ReportGotException)
	}

	if err := c.releaseUnusedClaims(ctx, claimed, results); err != nil {
		return err
	}

	if err := c.reporter.ReportSolutions(ctx, req.KnapsackID, dedupSolutions(results)); err != nil {
		return err
	}
	c.metrics.JobsConsumed.WithLabelValues("solved").Inc()
	return nil
}

// releaseUnusedClaims releases claimed items that no strategy placed in
// its solution, so other knapsacks can pick them up immediately.
func (c *Consumer) releaseUnusedClaims(ctx context.Context, claimed []datatypes.KnapsackItem, results []datatypes.AlgorithmSolution) error {
	used := make(map[string]struct{})
	for _, result := range results {
		for _, item := range result.Items {
			used[item.ID] = struct{}{}
		}
	}
	var unused []datatypes.KnapsackItem
	for _, item := range claimed {
		if _, ok := used[item.ID]; !ok {
			unused = append(unused, item)
		}
	}
	return c.claims.ReleaseItems(ctx, unused)
}

// dedupSolutions drops strategies that picked the exact same item set as
// an earlier strategy, keeping the first occurrence.
func dedupSolutions(results []datatypes.AlgorithmSolution) []datatypes.AlgorithmSolution {
	deduped := make([]datatypes.AlgorithmSolution, 0, len(results))
	for _, candidate := range results {
		duplicate := false
		for _, kept := range deduped {
			if datatypes.SameItemSet(kept.Items, candidate.Items) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			deduped = append(deduped, candidate)
		}
	}
	return deduped
}
