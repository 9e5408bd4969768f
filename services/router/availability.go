// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package router accepts solve requests, selects strategies per cluster
// load and caller tier, dispatches jobs to the solve queue and waits for
// the solver's report.
package router

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
)

// AvailabilityProbe derives the cluster availability score from the
// solve queue's backlog.
type AvailabilityProbe struct {
	conn      *amqp.Connection
	queueName string
	cfg       *config.Config
}

// NewAvailabilityProbe creates a probe over the broker connection.
func NewAvailabilityProbe(conn *amqp.Connection, queueName string, cfg *config.Config) *AvailabilityProbe {
	return &AvailabilityProbe{conn: conn, queueName: queueName, cfg: cfg}
}

// Availability inspects the solve queue depth without consuming from it.
// A fresh channel per probe: a failed passive declare poisons the
// channel it runs on.
func (p *AvailabilityProbe) Availability() (datatypes.ClusterAvailability, error) {
	ch, err := p.conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("open broker channel: %w", err)
	}
	defer ch.Close()

	queue, err := ch.QueueDeclarePassive(p.queueName, true, false, false, false, nil)
	if err != nil {
		return 0, fmt.Errorf("inspect queue %s: %w", p.queueName, err)
	}
	return availabilityForDepth(queue.Messages, p.cfg), nil
}

// availabilityForDepth maps a backlog size onto the availability scale
// using the three configured ascending thresholds.
func availabilityForDepth(messages int, cfg *config.Config) datatypes.ClusterAvailability {
	switch {
	case messages < cfg.SolversModerateBusyThreshold:
		return datatypes.ClusterAvailable
	case messages < cfg.SolversBusyThreshold:
		return datatypes.ClusterModerate
	case messages < cfg.SolversVeryBusyThreshold:
		return datatypes.ClusterBusy
	default:
		return datatypes.ClusterVeryBusy
	}
}
