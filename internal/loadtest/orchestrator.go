package loadtest

import (
	"context"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// Options configures an Orchestrator.
type Options struct {
	// RequestTimeout bounds each request. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration

	// Chaos holds the fault-injection settings; Enabled is taken from the request.
	Chaos ChaosConfig

	// Seed seeds the per-user random sources. Zero picks a time-based seed.
	Seed uint64

	// OnVUStart is called when a virtual user starts.
	OnVUStart func(vuID int)

	// OnVUStop is called when a virtual user returns, with the number of outcomes it produced.
	OnVUStop func(vuID int, requests int)
}

// DefaultOptions returns the engine defaults.
func DefaultOptions() Options {
	return Options{
		RequestTimeout: DefaultRequestTimeout,
		Chaos:          DefaultChaosConfig(),
	}
}

// Orchestrator runs N virtual users concurrently against one target.
type Orchestrator struct {
	client Client
	opts   Options

	activeVUs atomic.Int32
	sleep     SleepFunc
}

// NewOrchestrator creates an orchestrator sharing client across all virtual users.
func NewOrchestrator(client Client, opts Options) *Orchestrator {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	return &Orchestrator{
		client: client,
		opts:   opts,
		sleep:  sleepContext,
	}
}

// Execute validates req, spawns exactly req.NumUsers virtual users with the
// same deadline, waits for all of them and returns the concatenated outcomes.
//
// Configuration errors are returned before anything is spawned. If ctx is
// cancelled, the partial outcomes collected so far are returned with ctx.Err().
func (o *Orchestrator) Execute(ctx context.Context, req *types.LoadTestRequest, sink OutcomeSink) ([]types.RequestOutcome, error) {
	if o.client == nil {
		return nil, ErrNilClient
	}
	if err := Validate(req); err != nil {
		return nil, err
	}
	tmpl, err := NewRequestTemplate(req)
	if err != nil {
		return nil, err
	}

	chaos := o.opts.Chaos
	chaos.Enabled = req.ChaosMode

	seed := o.opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	users := req.NumUsers
	deadline := time.Now().Add(req.DurationValue())
	results := make([][]types.RequestOutcome, users)

	logger.Info("starting load test",
		zap.String("target", req.TargetURL),
		zap.String("method", tmpl.Method),
		zap.Int("users", users),
		zap.Int("duration_s", req.Duration),
		zap.Bool("chaos", chaos.Enabled),
	)

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		vu := NewVirtualUser(i, o.client, tmpl, o.opts.RequestTimeout, chaos,
			rand.New(rand.NewPCG(seed, uint64(i))), sink)
		vu.sleep = o.sleep

		wg.Add(1)
		o.activeVUs.Add(1)
		if o.opts.OnVUStart != nil {
			o.opts.OnVUStart(i)
		}

		go func(slot int) {
			defer func() {
				o.activeVUs.Add(-1)
				if o.opts.OnVUStop != nil {
					o.opts.OnVUStop(slot, len(results[slot]))
				}
				wg.Done()
			}()
			results[slot] = vu.Run(ctx, deadline)
		}(i)
	}
	wg.Wait()

	total := 0
	for _, r := range results {
		total += len(r)
	}
	outcomes := make([]types.RequestOutcome, 0, total)
	for _, r := range results {
		outcomes = append(outcomes, r...)
	}

	logger.Info("load test complete", zap.Int("requests", len(outcomes)))

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// GetActiveVUs returns the number of virtual users currently running.
func (o *Orchestrator) GetActiveVUs() int {
	return int(o.activeVUs.Load())
}
