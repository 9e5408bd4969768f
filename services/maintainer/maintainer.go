// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package maintainer expires stale records so abandoned knapsacks never
// hold item claims forever.
//
// Two independent loops: one rejects suggested solutions whose caller
// never accepted within the TTL, one drops old accepted solutions and
// releases their item claims. Both run until the context is cancelled;
// a store failure terminates the process since the maintainer cannot do
// its job without the store.
package maintainer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// Maintainer owns the two expiry loops.
type Maintainer struct {
	store   *suggestions.Service
	claims  *claims.Service
	cfg     *config.Config
	metrics *observability.Metrics
	log     *logging.Logger
	now     func() time.Time
}

// New creates a Maintainer.
func New(store *suggestions.Service, claimsService *claims.Service, cfg *config.Config, metrics *observability.Metrics, log *logging.Logger) *Maintainer {
	return &Maintainer{
		store:   store,
		claims:  claimsService,
		cfg:     cfg,
		metrics: metrics,
		log:     log,
		now:     time.Now,
	}
}

// Run starts both expiry loops and blocks until the context is
// cancelled or one loop fails.
func (m *Maintainer) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		interval := time.Duration(m.cfg.CleanOldSuggestionIntervalSeconds) * time.Second
		return m.loop(ctx, interval, m.ExpireSuggestions)
	})
	g.Go(func() error {
		interval := time.Duration(m.cfg.CleanOldAcceptedSolutionsIntervalSeconds) * time.Second
		return m.loop(ctx, interval, m.ExpireAcceptedSolutions)
	})
	return g.Wait()
}

func (m *Maintainer) loop(ctx context.Context, interval time.Duration, pass func(context.Context) error) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := pass(ctx); err != nil {
				return err
			}
		}
	}
}

// ExpireSuggestions rejects every suggested solution older than the
// suggestion TTL, releasing the item claims it holds. A reject lost to
// a concurrent accept is logged and skipped; the caller won the race.
func (m *Maintainer) ExpireSuggestions(ctx context.Context) error {
	ids, err := m.store.SuggestionKnapsackIDs(ctx)
	if err != nil {
		return err
	}
	ttl := time.Duration(m.cfg.SuggestionTTLSeconds) * time.Second
	for _, knapsackID := range ids {
		record, err := m.store.Get(ctx, knapsackID)
		if err != nil {
			return err
		}
		if record == nil || m.now().Sub(record.CreatedAt) < ttl {
			continue
		}

		result, err := m.store.Reject(ctx, knapsackID)
		if err != nil {
			return err
		}
		if result != datatypes.RejectSuccess {
			m.log.Warn("could not expire suggestion", "knapsack_id", knapsackID, "result", result)
			continue
		}
		m.metrics.MaintainerExpirations.WithLabelValues("suggestion").Inc()
		m.log.Info("expired suggested solution", "knapsack_id", knapsackID, "age", m.now().Sub(record.CreatedAt))
	}
	return nil
}

// ExpireAcceptedSolutions pops accepted solutions past the accepted TTL
// off the head of the list and releases their item claims. The list is
// in acceptance order, so the scan stops at the first record still
// within its TTL.
func (m *Maintainer) ExpireAcceptedSolutions(ctx context.Context) error {
	ttl := time.Duration(m.cfg.AcceptedSolutionTTLSeconds) * time.Second
	batchSize := int64(m.cfg.AcceptedSolutionsPrefetchCount)
	for {
		batch, err := m.store.AcceptedRange(ctx, 0, batchSize-1)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		for _, accepted := range batch {
			if m.now().Sub(accepted.AcceptedAt) < ttl {
				return nil
			}
			popped, err := m.store.PopOldestAccepted(ctx)
			if err != nil {
				return err
			}
			if popped == nil {
				return nil
			}
			if err := m.claims.ReleaseItems(ctx, popped.Items); err != nil {
				return err
			}
			m.metrics.MaintainerExpirations.WithLabelValues("accepted_solution").Inc()
			m.log.Info("expired accepted solution",
				"knapsack_id", popped.KnapsackID, "items", len(popped.Items))
		}
	}
}
