package engine

import "time"

// TimingEstimator reconstructs per-unit start and completion timestamps
// from the aggregate depth samples collected during monitoring.
//
// The estimate assumes units complete in enqueue (FIFO) order: the i-th
// unit is considered done at the first sample whose depth dropped to
// total-i-1. Start times are back-dated by a fixed execution guess. This is
// a best-effort approximation; the backends expose no per-unit completion
// signal, and whether they genuinely process FIFO is a property of the
// system under test.
type TimingEstimator struct {
	guess time.Duration
}

// NewTimingEstimator creates an estimator with the given assumed per-unit
// execution time. A non-positive guess falls back to 100ms.
func NewTimingEstimator(guess time.Duration) *TimingEstimator {
	if guess <= 0 {
		guess = 100 * time.Millisecond
	}
	return &TimingEstimator{guess: guess}
}

// Estimate assigns start and completion timestamps to every enqueue record.
// Records must be in dispatch order. monitorStart/monitorEnd delimit the
// monitoring window; when the window is empty every unit collapses to a
// zero-latency degenerate timing rather than an error.
func (e *TimingEstimator) Estimate(records []EnqueueRecord, samples []ProgressSample, monitorStart, monitorEnd time.Time) []UnitTiming {
	timings := make([]UnitTiming, len(records))
	for i, rec := range records {
		timings[i] = UnitTiming{UnitID: rec.UnitID, EnqueuedAt: rec.EnqueuedAt}
	}
	if len(timings) == 0 {
		return timings
	}

	duration := monitorEnd.Sub(monitorStart)

	switch {
	case duration > 0 && len(samples) >= 3:
		e.estimateFromDepth(timings, samples, monitorStart)
	case duration > 0:
		// Too few samples to match against: spread completions uniformly
		// across the monitoring window.
		perUnit := duration / time.Duration(len(timings))
		for i := range timings {
			timings[i].StartedAt = monitorStart.Add(time.Duration(float64(perUnit) * float64(i) * 0.9))
			timings[i].CompletedAt = monitorStart.Add(perUnit * time.Duration(i+1))
		}
	default:
		// Monitoring never ran. Zero latency is the intended degenerate
		// signal here, not an error.
		at := monitorStart
		if at.IsZero() {
			at = monitorEnd
		}
		for i := range timings {
			timings[i].StartedAt = at
			timings[i].CompletedAt = at
		}
	}
	return timings
}

func (e *TimingEstimator) estimateFromDepth(timings []UnitTiming, samples []ProgressSample, monitorStart time.Time) {
	total := len(timings)
	for i := range timings {
		// Depth expected once exactly i+1 units have finished.
		targetDepth := total - i - 1
		// When depth never dropped that low the last sample is the best
		// bound; it also keeps completion times monotonic in enqueue order.
		match := samples[len(samples)-1]
		for _, s := range samples {
			if s.Depth <= targetDepth {
				match = s
				break
			}
		}
		timings[i].CompletedAt = match.At
		startedAt := match.At.Add(-e.guess)
		if startedAt.Before(monitorStart) {
			startedAt = monitorStart
		}
		timings[i].StartedAt = startedAt
	}
}
