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

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/observability"
)

// Producer dispatches solve jobs onto the durable solve queue.
type Producer struct {
	conn      *amqp.Connection
	queueName string
	metrics   *observability.Metrics
	log       *logging.Logger
}

// NewProducer declares the solve queue so the availability probe can
// inspect it before the first dispatch.
func NewProducer(conn *amqp.Connection, queueName string, metrics *observability.Metrics, log *logging.Logger) (*Producer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open broker channel: %w", err)
	}
	defer ch.Close()
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue %s: %w", queueName, err)
	}
	return &Producer{conn: conn, queueName: queueName, metrics: metrics, log: log}, nil
}

// Dispatch publishes one job message. A channel per publish keeps the
// producer safe under concurrent handler goroutines.
func (p *Producer) Dispatch(ctx context.Context, req datatypes.SolverInstanceRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encode solve request: %w", err)
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open broker channel: %w", err)
	}
	defer ch.Close()

	err = ch.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish solve request for %s: %w", req.KnapsackID, err)
	}
	p.metrics.JobsDispatched.Inc()
	p.log.Info("dispatched solve request",
		"knapsack_id", req.KnapsackID, "items", len(req.Items), "strategies", req.Algorithms)
	return nil
}
