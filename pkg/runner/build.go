package runner

import (
	"context"
	"fmt"

	"yqhp/loadaudit/internal/config"
	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/internal/loadtest"
	"yqhp/loadaudit/internal/reporter"
)

// NewFromConfig wires the fasthttp client, orchestrator, history store and
// reporters described by cfg.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Runner, error) {
	client := loadtest.NewClient(loadtest.ClientConfig{
		MaxConnsPerHost:    cfg.Engine.MaxConnsPerHost,
		InsecureSkipVerify: cfg.Engine.InsecureSkipVerify,
		RequestTimeout:     cfg.Engine.RequestTimeout,
	})

	orchestrator := loadtest.NewOrchestrator(client, loadtest.Options{
		RequestTimeout: cfg.Engine.RequestTimeout,
		Chaos: loadtest.ChaosConfig{
			Probability: cfg.Engine.ChaosProbability,
			MinDelay:    cfg.Engine.ChaosMinDelay,
			MaxDelay:    cfg.Engine.ChaosMaxDelay,
		},
		Seed: cfg.Engine.Seed,
	})

	store, err := history.Open(ctx, &cfg.History)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}

	reporters, err := reporter.NewManagerFromConfig(&cfg.Reporters)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("create reporters: %w", err)
	}

	return New(Options{
		Engine:        orchestrator,
		History:       store,
		Reporters:     reporters,
		OutcomeLogDir: cfg.Engine.OutcomeLogDir,
	})
}
