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
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/services/solver"
)

// Subscriber is the pub/sub slice of the Redis API the waiter needs.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// reportSubscription is one scoped subscription to a report channel.
// The Redis-backed implementation wraps *redis.PubSub; tests substitute
// a fake to observe the confirm/dispatch/receive ordering.
type reportSubscription interface {
	// Confirm blocks until the store acknowledges the subscription.
	Confirm(ctx context.Context) error
	Messages() <-chan *redis.Message
	Close() error
}

type redisSubscription struct {
	pubsub *redis.PubSub
}

func (s redisSubscription) Confirm(ctx context.Context) error {
	_, err := s.pubsub.Receive(ctx)
	return err
}

func (s redisSubscription) Messages() <-chan *redis.Message { return s.pubsub.Channel() }

func (s redisSubscription) Close() error { return s.pubsub.Close() }

// ReportWaiter blocks a caller until the solver publishes a report for
// its knapsack, or a timeout elapses.
type ReportWaiter struct {
	subscribe     func(ctx context.Context, channel string) reportSubscription
	channelPrefix string
	timeout       time.Duration
	log           *logging.Logger
}

// NewReportWaiter creates a waiter with the configured report timeout.
func NewReportWaiter(rdb Subscriber, channelPrefix string, timeout time.Duration, log *logging.Logger) *ReportWaiter {
	return &ReportWaiter{
		subscribe: func(ctx context.Context, channel string) reportSubscription {
			return redisSubscription{pubsub: rdb.Subscribe(ctx, channel)}
		},
		channelPrefix: channelPrefix,
		timeout:       timeout,
		log:           log,
	}
}

// AwaitReport subscribes to the knapsack's report channel, runs dispatch
// and waits for the report. The subscription is confirmed before
// dispatch runs; otherwise a fast solver could publish into nothing and
// the caller would wait out the full timeout for a finished job. The
// subscription is closed on every exit path.
func (w *ReportWaiter) AwaitReport(ctx context.Context, knapsackID string, dispatch func() error) (datatypes.SolutionReport, error) {
	channel := solver.ReportChannel(w.channelPrefix, knapsackID)
	sub := w.subscribe(ctx, channel)
	defer sub.Close()
	if err := sub.Confirm(ctx); err != nil {
		return datatypes.SolutionReport{}, fmt.Errorf("subscribe to %s: %w", channel, err)
	}

	if err := dispatch(); err != nil {
		return datatypes.SolutionReport{}, err
	}
	return w.await(ctx, knapsackID, sub.Messages())
}

func (w *ReportWaiter) await(ctx context.Context, knapsackID string, messages <-chan *redis.Message) (datatypes.SolutionReport, error) {
	timer := time.NewTimer(w.timeout)
	defer timer.Stop()

	select {
	case msg := <-messages:
		var report datatypes.SolutionReport
		if err := json.Unmarshal([]byte(msg.Payload), &report); err != nil {
			return datatypes.SolutionReport{}, fmt.Errorf("decode solution report for %s: %w", knapsackID, err)
		}
		return report, nil
	case <-timer.C:
		w.log.Warn("timed out waiting for solution report", "knapsack_id", knapsackID, "timeout", w.timeout)
		return datatypes.SolutionReport{Cause: datatypes.ReportTimeout}, nil
	case <-ctx.Done():
		return datatypes.SolutionReport{}, ctx.Err()
	}
}
