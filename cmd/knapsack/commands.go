// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/talaloni2/knapsack-solver/services/maintainer"
	"github.com/talaloni2/knapsack-solver/services/router"
	"github.com/talaloni2/knapsack-solver/services/solver"
	"github.com/talaloni2/knapsack-solver/services/solver/solvers"
)

var (
	rootCmd = &cobra.Command{
		Use:   "knapsack",
		Short: "Distributed knapsack solving over a solver fleet",
		Long: `knapsack runs one of the three deployments of the distributed
knapsack solver: the HTTP router, a solver instance consuming the solve
queue, or the lifecycle maintainer expiring stale solutions.`,
		SilenceUsage: true,
	}

	routerCmd = &cobra.Command{
		Use:   "router",
		Short: "Serve the HTTP API and dispatch solve jobs",
		RunE:  runRouter,
	}

	solverCmd = &cobra.Command{
		Use:   "solver",
		Short: "Consume the solve queue and run knapsack strategies",
		RunE:  runSolver,
	}

	maintainerCmd = &cobra.Command{
		Use:   "maintainer",
		Short: "Expire stale suggested and accepted solutions",
		RunE:  runMaintainer,
	}
)

func init() {
	rootCmd.AddCommand(routerCmd, solverCmd, maintainerCmd)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func runRouter(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, "router")
	if err != nil {
		return err
	}
	defer rt.Close()

	producer, err := router.NewProducer(rt.conn, rt.cfg.SolverQueue, rt.metrics, rt.log)
	if err != nil {
		return err
	}
	probe := router.NewAvailabilityProbe(rt.conn, rt.cfg.SolverQueue, &rt.cfg)
	tiers := router.NewTierResolver(rt.cfg.SubscriptionsServiceURL, rt.log)
	selector := router.NewStrategySelector(probe, tiers, &rt.cfg, rt.log)
	waiter := router.NewReportWaiter(rt.rdb, rt.cfg.SolutionsChannelPrefix,
		time.Duration(rt.cfg.WaitForReportTimeoutSeconds*float64(time.Second)), rt.log)

	engine := router.NewEngine(router.Deps{
		Selector:   selector,
		Dispatcher: producer,
		Waiter:     waiter,
		Claims:     rt.claims,
		Store:      rt.store,
		Config:     &rt.cfg,
		Log:        rt.log,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", rt.cfg.ServerPort),
		Handler: engine,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rt.log.Info("router listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runSolver(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, "solver")
	if err != nil {
		return err
	}
	defer rt.Close()

	registry := solvers.NewRegistry(&rt.cfg)
	runner := solver.NewRunner(registry, rt.metrics, rt.log)
	reporter := solver.NewReporter(rt.rdb, rt.store, rt.cfg.SolutionsChannelPrefix, rt.metrics, rt.log)
	consumer := solver.NewConsumer(rt.claims, rt.store, runner, reporter, rt.metrics, rt.log, rt.cfg.SolverQueue)

	err = consumer.Run(ctx, rt.conn)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runMaintainer(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	rt, err := newRuntime(ctx, "maintainer")
	if err != nil {
		return err
	}
	defer rt.Close()

	err = maintainer.New(rt.store, rt.claims, &rt.cfg, rt.metrics, rt.log).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
