package engine

import (
	"context"
	"log/slog"
	"time"
)

// ProgressSource reports the aggregate number of units still in flight
// (pending plus running, or raw queue depth, depending on the backend).
// It must tolerate sub-second call rates; transient failures are expected.
type ProgressSource interface {
	Depth(ctx context.Context) (int, error)
}

// Outcome classifies how a monitored run settled.
type Outcome string

const (
	// OutcomeComplete means aggregate depth reached zero.
	OutcomeComplete Outcome = "complete"
	// OutcomeStagnant means depth stopped changing for too many polls.
	OutcomeStagnant Outcome = "stagnant"
	// OutcomeTimeout means the wall-clock bound expired first.
	OutcomeTimeout Outcome = "timeout"
)

// Settlement is the terminal state of one monitored batch.
type Settlement struct {
	Outcome        Outcome
	UnitsCompleted int
	UnitsFailed    int
	Samples        []ProgressSample
	Start          time.Time
	End            time.Time
}

// DetectorConfig tunes the polling state machine.
type DetectorConfig struct {
	PollInterval    time.Duration // default 500ms
	StagnationPolls int           // consecutive unchanged polls before settling, default 60
	Timeout         time.Duration // hard wall-clock bound, default 5m
	Grace           time.Duration // bound on the final post-timeout query, default 2s
}

func (c DetectorConfig) withDefaults() DetectorConfig {
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	if c.StagnationPolls <= 0 {
		c.StagnationPolls = 60
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.Grace <= 0 {
		c.Grace = 2 * time.Second
	}
	return c
}

// CompletionDetector decides when a dispatched batch has finished using
// only an aggregate progress query. Because the backends expose no per-unit
// completion events, classification is a conservative inference: unresolved
// units are attributed as failed, never as completed.
type CompletionDetector struct {
	src ProgressSource
	cfg DetectorConfig
}

// NewCompletionDetector creates a detector over the given progress source.
func NewCompletionDetector(src ProgressSource, cfg DetectorConfig) *CompletionDetector {
	return &CompletionDetector{src: src, cfg: cfg.withDefaults()}
}

// Wait polls until the batch of total units settles as complete, stagnant,
// or timed out. It blocks for at most the configured timeout plus one grace
// query. Query failures during polling are swallowed; polling resumes on
// the next tick with the last known depth.
func (d *CompletionDetector) Wait(ctx context.Context, total int) Settlement {
	start := time.Now()
	deadline := start.Add(d.cfg.Timeout)

	var samples []ProgressSample
	lastDepth := -1 // -1 = no successful query yet
	stagnant := 0

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return d.settleTimeout(total, samples, start)
		case <-ticker.C:
		}

		depth, err := d.src.Depth(ctx)
		if err != nil {
			// Transient by contract: keep polling, the stagnation counter
			// and hard timeout bound the wait either way.
			slog.Debug("progress query failed", "error", err)
			continue
		}
		samples = append(samples, ProgressSample{At: time.Now(), Depth: depth})

		if depth == 0 {
			return Settlement{
				Outcome:        OutcomeComplete,
				UnitsCompleted: total,
				Samples:        samples,
				Start:          start,
				End:            time.Now(),
			}
		}

		if depth == lastDepth {
			stagnant++
			if stagnant > d.cfg.StagnationPolls {
				return Settlement{
					Outcome:        OutcomeStagnant,
					UnitsCompleted: total - depth,
					UnitsFailed:    depth,
					Samples:        samples,
					Start:          start,
					End:            time.Now(),
				}
			}
		} else {
			stagnant = 0
			lastDepth = depth
		}
	}

	return d.settleTimeout(total, samples, start)
}

// settleTimeout performs one final depth query, bounded by the grace
// timeout, to attribute partial completion. A failed final query writes the
// whole batch off as failed.
func (d *CompletionDetector) settleTimeout(total int, samples []ProgressSample, start time.Time) Settlement {
	s := Settlement{
		Outcome: OutcomeTimeout,
		Samples: samples,
		Start:   start,
		End:     time.Now(),
	}

	graceCtx, cancel := context.WithTimeout(context.Background(), d.cfg.Grace)
	defer cancel()

	depth, err := d.src.Depth(graceCtx)
	if err != nil {
		slog.Warn("final progress query failed, counting batch as failed", "error", err)
		s.UnitsFailed = total
		return s
	}
	s.UnitsCompleted = total - depth
	s.UnitsFailed = depth
	return s
}
