package engine

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher enqueues one unit of work and returns its opaque identifier.
type Dispatcher interface {
	Dispatch(ctx context.Context, u Unit) (string, error)
}

// Backend is the full collaborator contract a benchmark target must
// implement: dispatch, aggregate progress, and best-effort cleanup.
type Backend interface {
	Dispatcher
	ProgressSource

	// Clear removes leftover state from previous runs. Failures are
	// treated as non-fatal by the orchestrator.
	Clear(ctx context.Context) error
}

// Runner sequences a benchmark repetition: cleanup, optional warmup, timed
// dispatch, concurrent resource monitoring and completion detection, then
// timing estimation and result assembly.
type Runner struct {
	backend Backend
	sampler ResourceSampler // nil disables resource monitoring
	cfg     RunConfig
	tracer  trace.Tracer
}

// NewRunner creates a Runner. Zero-valued config fields are defaulted.
func NewRunner(backend Backend, sampler ResourceSampler, cfg RunConfig) *Runner {
	return &Runner{
		backend: backend,
		sampler: sampler,
		cfg:     cfg.withDefaults(),
		tracer:  otel.Tracer("taskbench/engine"),
	}
}

// Config returns the effective run configuration.
func (r *Runner) Config() RunConfig {
	return r.cfg
}

// Run executes one repetition over the given dispatch plan. Only dispatch
// failures return an error; every other failure mode degrades into a
// less-certain but still valid RunResult.
func (r *Runner) Run(ctx context.Context, plan []Unit) (*RunResult, error) {
	ctx, span := r.tracer.Start(ctx, "bench.run", trace.WithAttributes(
		attribute.String("backend", r.cfg.Backend),
		attribute.String("scenario", r.cfg.Scenario),
		attribute.Int("units", len(plan)),
	))
	defer span.End()

	// Cleanup and warmup happen outside the timed window.
	if err := r.backend.Clear(ctx); err != nil {
		slog.Warn("clear before dispatch failed, proceeding", "error", err)
	}
	if err := r.warmup(ctx, plan); err != nil {
		return nil, err
	}

	records, dispatchDur, err := r.dispatch(ctx, plan)
	if err != nil {
		return nil, err
	}

	var monitor *ResourceMonitor
	if r.sampler != nil {
		monitor = NewResourceMonitor(r.sampler, r.cfg.SampleInterval)
		monitor.Start(ctx)
	}

	detector := NewCompletionDetector(r.backend, DetectorConfig{
		PollInterval:    r.cfg.PollInterval,
		StagnationPolls: r.cfg.StagnationPolls,
		Timeout:         r.cfg.Timeout,
	})
	settle := detector.Wait(ctx, len(plan))

	var avgCPU, avgMem float64
	if monitor != nil {
		avgCPU, avgMem = monitor.Stop()
	}

	estimator := NewTimingEstimator(r.cfg.ExecutionGuess)
	timings := estimator.Estimate(records, settle.Samples, settle.Start, settle.End)
	markFailed(timings, settle.UnitsFailed)

	monitoringDur := settle.End.Sub(settle.Start)
	result := &RunResult{
		Outcome:            settle.Outcome,
		TotalTime:          dispatchDur + monitoringDur,
		DispatchDuration:   dispatchDur,
		MonitoringDuration: monitoringDur,
		UnitsCompleted:     settle.UnitsCompleted,
		UnitsFailed:        settle.UnitsFailed,
		Timings:            timings,
		AvgCPUPercent:      avgCPU,
		AvgMemoryMB:        avgMem,
		Samples:            settle.Samples,
	}

	slog.Info("run settled",
		"outcome", settle.Outcome,
		"completed", settle.UnitsCompleted,
		"failed", settle.UnitsFailed,
		"total_time", result.TotalTime.Round(time.Millisecond),
		"throughput", result.Throughput(),
	)
	return result, nil
}

// RunAll executes the configured number of repetitions and collects a
// summary. A dispatch failure aborts the remaining repetitions.
func (r *Runner) RunAll(ctx context.Context, plan []Unit) (*RunSummary, error) {
	summary := &RunSummary{Config: r.cfg}
	for i := 1; i <= r.cfg.Runs; i++ {
		slog.Info("starting run", "run", i, "of", r.cfg.Runs)
		result, err := r.Run(ctx, plan)
		if err != nil {
			return nil, err
		}
		summary.Results = append(summary.Results, result)
	}
	return summary, nil
}

// dispatch enqueues the whole plan in a tight sequential loop so enqueue
// timestamps stay accurate.
func (r *Runner) dispatch(ctx context.Context, plan []Unit) ([]EnqueueRecord, time.Duration, error) {
	ctx, span := r.tracer.Start(ctx, "bench.dispatch")
	defer span.End()

	records := make([]EnqueueRecord, 0, len(plan))
	start := time.Now()
	for i, u := range plan {
		enqueuedAt := time.Now()
		id, err := r.backend.Dispatch(ctx, u)
		if err != nil {
			return nil, 0, &DispatchError{Unit: i, Err: err}
		}
		records = append(records, EnqueueRecord{UnitID: id, EnqueuedAt: enqueuedAt})
	}
	return records, time.Since(start), nil
}

// warmup either pauses for a fixed duration or dispatches and drains a
// small separate batch, depending on configuration.
func (r *Runner) warmup(ctx context.Context, plan []Unit) error {
	if r.cfg.WarmupUnits > 0 && len(plan) > 0 {
		n := r.cfg.WarmupUnits
		if n > len(plan) {
			n = len(plan)
		}
		for i := 0; i < n; i++ {
			if _, err := r.backend.Dispatch(ctx, plan[i]); err != nil {
				return &DispatchError{Unit: i, Err: err}
			}
		}
		detector := NewCompletionDetector(r.backend, DetectorConfig{
			PollInterval:    r.cfg.PollInterval,
			StagnationPolls: r.cfg.StagnationPolls,
			Timeout:         warmupTimeout(r.cfg.Timeout),
		})
		settle := detector.Wait(ctx, n)
		if settle.Outcome != OutcomeComplete {
			slog.Warn("warmup batch did not drain", "outcome", settle.Outcome, "failed", settle.UnitsFailed)
		}
		if err := r.backend.Clear(ctx); err != nil {
			slog.Warn("clear after warmup failed, proceeding", "error", err)
		}
		return nil
	}

	if r.cfg.Warmup > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.Warmup):
		}
	}
	return nil
}

func warmupTimeout(runTimeout time.Duration) time.Duration {
	const bound = 30 * time.Second
	if runTimeout > 0 && runTimeout < bound {
		return runTimeout
	}
	return bound
}

// markFailed flags the trailing failed units. Attribution is optimistic
// FIFO: the first completed units are the earliest enqueued ones.
func markFailed(timings []UnitTiming, failed int) {
	if failed <= 0 {
		return
	}
	start := len(timings) - failed
	if start < 0 {
		start = 0
	}
	for i := start; i < len(timings); i++ {
		timings[i].Failed = true
	}
}
