// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/talaloni2/knapsack-solver/pkg/claims"
	"github.com/talaloni2/knapsack-solver/pkg/datatypes"
	"github.com/talaloni2/knapsack-solver/pkg/logging"
	"github.com/talaloni2/knapsack-solver/pkg/suggestions"
)

// Dispatcher publishes a solve job. *Producer is the production
// implementation.
type Dispatcher interface {
	Dispatch(ctx context.Context, req datatypes.SolverInstanceRequest) error
}

// ReportAwaiter blocks until the solver reports. *ReportWaiter is the
// production implementation.
type ReportAwaiter interface {
	AwaitReport(ctx context.Context, knapsackID string, dispatch func() error) (datatypes.SolutionReport, error)
}

// StrategySource selects the strategies for a job. *StrategySelector is
// the production implementation.
type StrategySource interface {
	Select(ctx context.Context, knapsackID string, itemCount, capacity int) ([]datatypes.Algorithm, error)
}

// Solve accepts a solve request, dispatches it and waits for the report,
// translating the report cause into an HTTP status.
func Solve(selector StrategySource, dispatcher Dispatcher, waiter ReportAwaiter, store *suggestions.Service, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RouterSolveRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()

		algorithms, err := selector.Select(ctx, req.KnapsackID, len(req.Items), req.Volume)
		if err != nil {
			log.Error("strategy selection failed", "knapsack_id", req.KnapsackID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "strategy selection failed"})
			return
		}

		job := datatypes.SolverInstanceRequest{
			Items:      req.Items,
			Volume:     req.Volume,
			KnapsackID: req.KnapsackID,
			Algorithms: algorithms,
		}
		report, err := waiter.AwaitReport(ctx, req.KnapsackID, func() error {
			return dispatcher.Dispatch(ctx, job)
		})
		if err != nil {
			log.Error("solve dispatch failed", "knapsack_id", req.KnapsackID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "solve dispatch failed"})
			return
		}

		switch report.Cause {
		case datatypes.ReportSolutionFound:
			record, err := store.Get(ctx, req.KnapsackID)
			if err != nil || record == nil {
				log.Error("reported suggestion missing from store", "knapsack_id", req.KnapsackID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed loading suggested solution"})
				return
			}
			c.JSON(http.StatusOK, gin.H{
				"knapsackId": req.KnapsackID,
				"createdAt":  record.CreatedAt,
				"solutions":  record.Solutions,
			})
		case datatypes.ReportNoItemClaimed:
			c.Status(http.StatusNoContent)
		case datatypes.ReportTimeout:
			c.JSON(http.StatusGatewayTimeout, gin.H{"cause": report.Cause})
		case datatypes.ReportSuggestionAlreadyExists:
			c.JSON(http.StatusBadRequest, gin.H{"cause": report.Cause})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"cause": datatypes.ReportGotException})
		}
	}
}

// AcceptSolution accepts one suggested alternative and releases the
// claims the rejected alternatives held.
func AcceptSolution(store *suggestions.Service, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.AcceptSolutionRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := store.Accept(c.Request.Context(), req.KnapsackID, req.SolutionID)
		if err != nil {
			log.Error("accept failed", "knapsack_id", req.KnapsackID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "accept failed"})
			return
		}
		switch result {
		case datatypes.AcceptSuccess:
			c.JSON(http.StatusOK, gin.H{"result": result})
		case datatypes.AcceptClaimFailed:
			c.JSON(http.StatusConflict, gin.H{"result": result})
		default:
			c.JSON(http.StatusNotFound, gin.H{"result": result})
		}
	}
}

// RejectSolutions discards every suggested alternative for a knapsack.
func RejectSolutions(store *suggestions.Service, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req datatypes.RejectSolutionsRequest
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result, err := store.Reject(c.Request.Context(), req.KnapsackID)
		if err != nil {
			log.Error("reject failed", "knapsack_id", req.KnapsackID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "reject failed"})
			return
		}
		switch result {
		case datatypes.RejectSuccess:
			c.JSON(http.StatusOK, gin.H{"result": result})
		case datatypes.RejectClaimFailed:
			c.JSON(http.StatusConflict, gin.H{"result": result})
		default:
			c.JSON(http.StatusNotFound, gin.H{"result": result})
		}
	}
}

// CheckItemClaimed reports whether an item is currently claimed by any
// knapsack.
func CheckItemClaimed(claimsService *claims.Service, log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID := c.Param("itemId")
		claimed, err := claimsService.IsItemClaimed(c.Request.Context(), itemID)
		if err != nil {
			log.Error("claim check failed", "item_id", itemID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "claim check failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"itemId": itemID, "isClaimed": claimed})
	}
}

// HealthCheck is the liveness endpoint.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
