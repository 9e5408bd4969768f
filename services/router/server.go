// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/config"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// Deps are the collaborators the HTTP surface is built from.
type Deps struct {
	Selector   StrategySource
	Dispatcher Dispatcher
	Waiter     ReportAwaiter
	Claims     *claims.Service
	Store      *suggestions.Service
	Config     *config.Config
	Log        *logging.Logger
}

// SetupRoutes registers every route on the engine.
func SetupRoutes(engine *gin.Engine, deps Deps) {
	engine.GET("/health", HealthCheck)
	if deps.Config.MetricsEnabled {
		engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	api := engine.Group("/knapsack-router")
	{
		api.POST("/solve", Solve(deps.Selector, deps.Dispatcher, deps.Waiter, deps.Store, deps.Log))
		api.POST("/accept-solution", AcceptSolution(deps.Store, deps.Log))
		api.POST("/reject-solutions", RejectSolutions(deps.Store, deps.Log))
		api.GET("/check-claimed/:itemId", CheckItemClaimed(deps.Claims, deps.Log))
	}
}

// NewEngine builds the gin engine with routes registered.
func NewEngine(deps Deps) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	SetupRoutes(engine, deps)
	return engine
}
