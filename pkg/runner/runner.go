// Package runner is the single entry point for a LoadAudit run. The CLI and
// the REST server both converge here.
//
// A run is validated, orchestrated with a per-run outcome log, summarized,
// diagnosed and compared with the previous run before it is appended to the
// history store and handed to the reporters.
package runner

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"yqhp/loadaudit/internal/diagnosis"
	"yqhp/loadaudit/internal/history"
	"yqhp/loadaudit/internal/loadtest"
	"yqhp/loadaudit/internal/metrics"
	"yqhp/loadaudit/internal/outcomelog"
	"yqhp/loadaudit/internal/regression"
	"yqhp/loadaudit/internal/reporter"
	"yqhp/loadaudit/pkg/logger"
	"yqhp/loadaudit/pkg/types"
)

// ErrRunCancelled is returned when the caller cancels a run before it completes.
var ErrRunCancelled = errors.New("run cancelled")

// Engine generates load and returns every outcome. *loadtest.Orchestrator satisfies it.
type Engine interface {
	Execute(ctx context.Context, req *types.LoadTestRequest, sink loadtest.OutcomeSink) ([]types.RequestOutcome, error)
}

// Options configures a Runner.
type Options struct {
	// Engine is required.
	Engine Engine

	// History stores run summaries. Nil disables regression checks and persistence.
	History history.Store

	// Reporters receives the final report. Nil disables reporting.
	Reporters *reporter.Manager

	// OutcomeLogDir is where run_<id>.jsonl files go. Defaults to outcomelog.DefaultDir.
	OutcomeLogDir string

	// DisableOutcomeLog skips the per-run outcome log.
	DisableOutcomeLog bool

	// NewRunID overrides run id generation.
	NewRunID func() string
}

// Runner executes load test runs end to end.
type Runner struct {
	opts       Options
	comparator *regression.Comparator
}

// New creates a Runner.
func New(opts Options) (*Runner, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("engine is required")
	}
	if opts.OutcomeLogDir == "" {
		opts.OutcomeLogDir = outcomelog.DefaultDir
	}
	if opts.NewRunID == nil {
		opts.NewRunID = NewRunID
	}

	var last regression.LastRecorder
	if opts.History != nil {
		last = opts.History
	}
	return &Runner{
		opts:       opts,
		comparator: regression.NewComparator(last),
	}, nil
}

// NewRunID returns an 8 character hex run identifier.
func NewRunID() string {
	return uuid.NewString()[:8]
}

// Run executes req and returns the analysed report.
//
// Only configuration violations and cancellation fail a run. History and
// reporter failures are logged and the report is still returned.
func (r *Runner) Run(ctx context.Context, req types.LoadTestRequest) (*types.RunReport, error) {
	req.Normalize()
	if err := loadtest.Validate(&req); err != nil {
		return nil, err
	}

	runID := r.opts.NewRunID()
	log := logger.L().With(zap.String("run_id", runID))

	sink, closeLog := r.openOutcomeLog(runID, log)
	outcomes, err := r.opts.Engine.Execute(ctx, &req, sink)
	closeLog()

	if err != nil {
		if ctx.Err() != nil {
			log.Warn("run cancelled", zap.Int("partial_outcomes", len(outcomes)))
			return nil, fmt.Errorf("%w: %w", ErrRunCancelled, err)
		}
		return nil, err
	}

	m := diagnosis.Apply(metrics.Summarize(outcomes))
	regressions := r.comparator.Compare(ctx, m)
	m.Diagnosis = append(m.Diagnosis, regressions...)

	summary := types.NewRunSummary(runID, &req, m)
	if r.opts.History != nil {
		if err := r.opts.History.Append(ctx, summary); err != nil {
			log.Warn("failed to persist run summary", zap.Error(err))
		}
	}

	report := types.NewRunReport(summary, regressions)
	report.Latencies = latencies(outcomes)

	if r.opts.Reporters != nil {
		if err := r.opts.Reporters.Report(ctx, report); err != nil {
			log.Warn("reporter failed", zap.Error(err))
		}
	}

	log.Info("run finished",
		zap.Int("requests", m.TotalRequests),
		zap.Float64("error_rate", m.ErrorRate),
		zap.Int("health_score", m.HealthScore),
		zap.Int("regressions", len(regressions)),
	)
	return report, nil
}

// History returns the configured history store, which may be nil.
func (r *Runner) History() history.Store {
	return r.opts.History
}

// Reporters returns the reporter manager, which may be nil.
func (r *Runner) Reporters() *reporter.Manager {
	return r.opts.Reporters
}

// Close releases the history store and reporters.
func (r *Runner) Close(ctx context.Context) error {
	var errs []error
	if r.opts.Reporters != nil {
		errs = append(errs, r.opts.Reporters.Close(ctx))
	}
	if r.opts.History != nil {
		errs = append(errs, r.opts.History.Close())
	}
	return errors.Join(errs...)
}

// openOutcomeLog opens the per-run log. A failure degrades to discarding outcomes.
func (r *Runner) openOutcomeLog(runID string, log *zap.Logger) (loadtest.OutcomeSink, func()) {
	if r.opts.DisableOutcomeLog {
		return loadtest.Discard, func() {}
	}

	w, err := outcomelog.Open(r.opts.OutcomeLogDir, runID)
	if err != nil {
		log.Warn("outcome log unavailable", zap.Error(err))
		return loadtest.Discard, func() {}
	}
	return w, func() {
		if err := w.Close(); err != nil {
			log.Warn("failed to close outcome log", zap.String("path", w.Path()), zap.Error(err))
		}
	}
}

func latencies(outcomes []types.RequestOutcome) []float64 {
	out := make([]float64, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Latency
	}
	return out
}
