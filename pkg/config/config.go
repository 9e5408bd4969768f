// Copyright (C) 2025 The knapsack-solver authors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config builds the process-wide configuration.
//
// Precedence, lowest to highest: built-in defaults, an optional YAML
// file (path in KNAPSACK_CONFIG), then individual environment
// variables. The resulting Config is constructed exactly once at
// startup and passed by reference into every component constructor;
// component logic never reads the environment directly.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// RabbitConnectionParams are the broker connection settings.
type RabbitConnectionParams struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// URL renders the amqp:// connection string.
func (p RabbitConnectionParams) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", p.User, p.Password, p.Host, p.Port)
}

// RedisConnectionParams are the key-value store connection settings.
type RedisConnectionParams struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr renders the host:port form go-redis expects.
func (p RedisConnectionParams) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// GeneticParams tune one genetic-solver preset.
type GeneticParams struct {
	Generations         int     `yaml:"generations"`
	MutationProbability float64 `yaml:"mutationProbability"`
	Population          int     `yaml:"population"`
}

// Config is the full configuration surface shared by all deployments.
type Config struct {
	ServerPort int `yaml:"serverPort"`

	Rabbit RabbitConnectionParams `yaml:"rabbit"`
	Redis  RedisConnectionParams  `yaml:"redis"`

	SolverQueue string `yaml:"solverQueue"`

	// The three claim namespaces. Independent hash names so item claims,
	// running-knapsack claims and suggestion claims never collide.
	ItemsClaimHash              string `yaml:"itemsClaimHash"`
	SuggestedSolutionsClaimHash string `yaml:"suggestedSolutionsClaimHash"`
	RunningKnapsackClaimHash    string `yaml:"runningKnapsackClaimHash"`

	SolutionsChannelPrefix      string  `yaml:"solutionsChannelPrefix"`
	WaitForReportTimeoutSeconds float64 `yaml:"waitForReportTimeoutSeconds"`
	SuggestedSolutionsHash      string  `yaml:"suggestedSolutionsHash"`
	AcceptedSolutionsList       string  `yaml:"acceptedSolutionsList"`

	CleanOldSuggestionIntervalSeconds        int `yaml:"cleanOldSuggestionIntervalSeconds"`
	CleanOldAcceptedSolutionsIntervalSeconds int `yaml:"cleanOldAcceptedSolutionsIntervalSeconds"`
	SuggestionTTLSeconds                     int `yaml:"suggestionTtlSeconds"`
	AcceptedSolutionTTLSeconds               int `yaml:"acceptedSolutionTtlSeconds"`
	AcceptedSolutionsPrefetchCount           int `yaml:"acceptedSolutionsPrefetchCount"`

	SolversModerateBusyThreshold int `yaml:"solversModerateBusyThreshold"`
	SolversBusyThreshold         int `yaml:"solversBusyThreshold"`
	SolversVeryBusyThreshold     int `yaml:"solversVeryBusyThreshold"`

	GeneticLight GeneticParams `yaml:"geneticLight"`
	GeneticHeavy GeneticParams `yaml:"geneticHeavy"`

	BranchAndBoundMaxItems          int `yaml:"branchAndBoundMaxItems"`
	DynamicProgrammingMaxIterations int `yaml:"dynamicProgrammingMaxIterations"`

	SubscriptionsServiceURL string `yaml:"subscriptionsServiceUrl"`

	MetricsEnabled bool `yaml:"metricsEnabled"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		ServerPort: 8000,
		Rabbit: RabbitConnectionParams{
			Host: "localhost", Port: 5672, User: "guest", Password: "guest",
		},
		Redis:       RedisConnectionParams{Host: "localhost", Port: 6379},
		SolverQueue: "solver",

		ItemsClaimHash:              "items_claims",
		SuggestedSolutionsClaimHash: "suggested_solutions_claims",
		RunningKnapsackClaimHash:    "running_knapsack_claims",

		SolutionsChannelPrefix:      "solutions",
		WaitForReportTimeoutSeconds: 60,
		SuggestedSolutionsHash:      "suggested_solutions",
		AcceptedSolutionsList:       "accepted_solutions",

		CleanOldSuggestionIntervalSeconds:        60,
		CleanOldAcceptedSolutionsIntervalSeconds: 60,
		SuggestionTTLSeconds:                     900,
		AcceptedSolutionTTLSeconds:               3600,
		AcceptedSolutionsPrefetchCount:           10,

		SolversModerateBusyThreshold: 5,
		SolversBusyThreshold:         10,
		SolversVeryBusyThreshold:     20,

		GeneticLight: GeneticParams{Generations: 20, MutationProbability: 0.3, Population: 20},
		GeneticHeavy: GeneticParams{Generations: 60, MutationProbability: 0.2, Population: 50},

		BranchAndBoundMaxItems:          1000,
		DynamicProgrammingMaxIterations: 100_000_000,

		SubscriptionsServiceURL: "http://localhost:9000",

		MetricsEnabled: true,
	}
}

// Load builds the Config: defaults, then the optional YAML file named by
// KNAPSACK_CONFIG, then environment overrides.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("KNAPSACK_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var err error

	setString("RABBITMQ_HOST", &c.Rabbit.Host)
	setString("RABBITMQ_USER", &c.Rabbit.User)
	setString("RABBITMQ_PASSWORD", &c.Rabbit.Password)
	setString("REDIS_HOST", &c.Redis.Host)
	setString("SOLVER_QUEUE", &c.SolverQueue)
	setString("ITEMS_CLAIM_HASH", &c.ItemsClaimHash)
	setString("SUGGESTED_SOLUTIONS_CLAIMS_HASH", &c.SuggestedSolutionsClaimHash)
	setString("RUNNING_KNAPSACK_CLAIMS_HASH", &c.RunningKnapsackClaimHash)
	setString("SOLUTIONS_CHANNEL_PREFIX", &c.SolutionsChannelPrefix)
	setString("SUGGESTED_SOLUTIONS_HASH", &c.SuggestedSolutionsHash)
	setString("ACCEPTED_SOLUTIONS_LIST", &c.AcceptedSolutionsList)
	setString("SUBSCRIPTIONS_SERVICE_URL", &c.SubscriptionsServiceURL)

	for _, v := range []struct {
		key string
		dst *int
	}{
		{"SERVER_PORT", &c.ServerPort},
		{"RABBITMQ_PORT", &c.Rabbit.Port},
		{"REDIS_PORT", &c.Redis.Port},
		{"CLEAN_OLD_SUGGESTION_INTERVAL_SECONDS", &c.CleanOldSuggestionIntervalSeconds},
		{"CLEAN_OLD_ACCEPTED_SOLUTIONS_INTERVAL_SECONDS", &c.CleanOldAcceptedSolutionsIntervalSeconds},
		{"SUGGESTION_TTL_SECONDS", &c.SuggestionTTLSeconds},
		{"ACCEPTED_SOLUTION_TTL_SECONDS", &c.AcceptedSolutionTTLSeconds},
		{"ACCEPTED_SOLUTIONS_PREFETCH_COUNT", &c.AcceptedSolutionsPrefetchCount},
		{"SOLVERS_MODERATE_BUSY_THRESHOLD", &c.SolversModerateBusyThreshold},
		{"SOLVERS_BUSY_THRESHOLD", &c.SolversBusyThreshold},
		{"SOLVERS_VERY_BUSY_THRESHOLD", &c.SolversVeryBusyThreshold},
		{"GENETIC_LIGHT_GENERATIONS", &c.GeneticLight.Generations},
		{"GENETIC_LIGHT_POPULATION", &c.GeneticLight.Population},
		{"GENETIC_HEAVY_GENERATIONS", &c.GeneticHeavy.Generations},
		{"GENETIC_HEAVY_POPULATION", &c.GeneticHeavy.Population},
		{"BRANCH_AND_BOUND_MAX_ITEMS", &c.BranchAndBoundMaxItems},
		{"DYNAMIC_PROGRAMMING_MAX_ITERATIONS", &c.DynamicProgrammingMaxIterations},
	} {
		if err = setInt(v.key, v.dst); err != nil {
			return err
		}
	}

	for _, v := range []struct {
		key string
		dst *float64
	}{
		{"WAIT_FOR_REPORT_TIMEOUT_SECONDS", &c.WaitForReportTimeoutSeconds},
		{"GENETIC_LIGHT_MUTATION_PROBABILITY", &c.GeneticLight.MutationProbability},
		{"GENETIC_HEAVY_MUTATION_PROBABILITY", &c.GeneticHeavy.MutationProbability},
	} {
		if err = setFloat(v.key, v.dst); err != nil {
			return err
		}
	}

	return setBool("METRICS_ENABLED", &c.MetricsEnabled)
}

func setString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setInt(key string, dst *int) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: invalid integer %q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func setFloat(key string, dst *float64) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: invalid number %q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}

func setBool(key string, dst *bool) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: invalid boolean %q: %w", key, v, err)
	}
	*dst = parsed
	return nil
}
