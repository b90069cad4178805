package main

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Veraticus/pigeonhole/internal/cache"
	"github.com/Veraticus/pigeonhole/internal/config"
	"github.com/Veraticus/pigeonhole/internal/engine"
	"github.com/Veraticus/pigeonhole/internal/learned"
	"github.com/Veraticus/pigeonhole/internal/oracle"
	"github.com/Veraticus/pigeonhole/internal/rules"
)

// services bundles the process-wide components built once per invocation.
type services struct {
	cfg    config.Config
	engine *engine.Engine
	cache  *cache.Store
	memory *learned.Memory
	log    *learned.FeedbackLog
}

// buildServices wires the engine from configuration. The oracle gateway is
// only constructed when a credential is present; without one the AI stage
// is disabled and the pipeline falls through to the direction default.
func buildServices() (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	store, err := cache.NewStore(cfg.CacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open result cache: %w", err)
	}

	feedbackLog, err := learned.NewFeedbackLog(cfg.FeedbackPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open feedback log: %w", err)
	}
	memory := learned.NewMemory(feedbackLog)

	ruleEngine, err := rules.NewPatternEngine(rules.DefaultPatterns())
	if err != nil {
		return nil, fmt.Errorf("failed to build rule engine: %w", err)
	}

	var gateway engine.OracleGateway
	if cfg.HasOracle() {
		client, err := oracle.NewOpenAIClient(cfg.OracleAPIKey, cfg.OracleModel)
		if err != nil {
			return nil, fmt.Errorf("failed to build oracle client: %w", err)
		}
		gateway = oracle.NewGateway(client, oracle.DefaultTimeout)
	} else {
		slog.Debug("No oracle credential configured, AI stage disabled")
	}

	eng := engine.New(store, memory, ruleEngine, gateway, engine.Config{
		Registerer:       prometheus.DefaultRegisterer,
		Categories:       cfg.Categories,
		MinAIConfidence:  cfg.MinAIConfidence,
		BatchConcurrency: cfg.BatchConcurrency,
		BatchWindowDelay: cfg.BatchWindowDelay,
	})

	return &services{
		cfg:    cfg,
		engine: eng,
		cache:  store,
		memory: memory,
		log:    feedbackLog,
	}, nil
}
