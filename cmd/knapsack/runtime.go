// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// runtime holds the shared infrastructure every deployment needs: the
// configuration, logger, store connections and the claim/result
// services built on them.
type runtime struct {
	cfg     config.Config
	log     *logging.Logger
	rdb     *redis.Client
	conn    *amqp.Connection
	metrics *observability.Metrics
	claims  *claims.Service
	store   *suggestions.Service
}

// newRuntime connects to Redis and the broker and builds the services.
func newRuntime(ctx context.Context, service string) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logging.New(logging.Config{Service: service, JSON: true})

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr()})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Redis.Addr(), err)
	}

	conn, err := amqp.Dial(cfg.Rabbit.URL())
	if err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to broker at %s:%d: %w", cfg.Rabbit.Host, cfg.Rabbit.Port, err)
	}

	claimsService := claims.NewService(rdb, cfg.ItemsClaimHash, cfg.SuggestedSolutionsClaimHash, cfg.RunningKnapsackClaimHash)
	store := suggestions.NewService(rdb, claimsService, cfg.SuggestedSolutionsHash, cfg.AcceptedSolutionsList)

	return &runtime{
		cfg:     cfg,
		log:     log,
		rdb:     rdb,
		conn:    conn,
		metrics: observability.NewMetrics(prometheus.DefaultRegisterer),
		claims:  claimsService,
		store:   store,
	}, nil
}

// Close releases the store and broker connections.
func (r *runtime) Close() {
	if err := r.conn.Close(); err != nil {
		r.log.Warn("closing broker connection", "error", err)
	}
	if err := r.rdb.Close(); err != nil {
		r.log.Warn("closing redis connection", "error", err)
	}
}
