package engine

import (
	"fmt"
	"testing"
	"time"
)

func enqueueRecords(n int, base time.Time) []EnqueueRecord {
	records := make([]EnqueueRecord, n)
	for i := range records {
		records[i] = EnqueueRecord{
			UnitID:     fmt.Sprintf("unit-%d", i),
			EnqueuedAt: base.Add(time.Duration(i) * time.Millisecond),
		}
	}
	return records
}

func TestEstimatorDepthMatching(t *testing.T) {
	base := time.Now()
	records := enqueueRecords(4, base)
	monitorStart := base.Add(10 * time.Millisecond)
	samples := []ProgressSample{
		{At: monitorStart.Add(1 * time.Second), Depth: 3},
		{At: monitorStart.Add(2 * time.Second), Depth: 2},
		{At: monitorStart.Add(3 * time.Second), Depth: 1},
		{At: monitorStart.Add(4 * time.Second), Depth: 0},
	}
	est := NewTimingEstimator(100 * time.Millisecond)

	timings := est.Estimate(records, samples, monitorStart, monitorStart.Add(5*time.Second))

	for i, want := range []time.Time{samples[0].At, samples[1].At, samples[2].At, samples[3].At} {
		if !timings[i].CompletedAt.Equal(want) {
			t.Errorf("unit %d completed at %v, want %v", i, timings[i].CompletedAt, want)
		}
		wantStart := want.Add(-100 * time.Millisecond)
		if !timings[i].StartedAt.Equal(wantStart) {
			t.Errorf("unit %d started at %v, want %v", i, timings[i].StartedAt, wantStart)
		}
	}
}

func TestEstimatorStartClampedToMonitorStart(t *testing.T) {
	base := time.Now()
	records := enqueueRecords(1, base)
	monitorStart := base.Add(10 * time.Millisecond)
	samples := []ProgressSample{
		{At: monitorStart.Add(20 * time.Millisecond), Depth: 1},
		{At: monitorStart.Add(40 * time.Millisecond), Depth: 1},
		{At: monitorStart.Add(50 * time.Millisecond), Depth: 0},
	}
	est := NewTimingEstimator(100 * time.Millisecond)

	timings := est.Estimate(records, samples, monitorStart, monitorStart.Add(time.Second))

	if !timings[0].StartedAt.Equal(monitorStart) {
		t.Errorf("start = %v, want clamped to monitor start %v", timings[0].StartedAt, monitorStart)
	}
}

func TestEstimatorCompletionMonotonicInEnqueueOrder(t *testing.T) {
	base := time.Now()
	records := enqueueRecords(10, base)
	monitorStart := base
	// Depth never reaches zero: the tail of the batch has no matching
	// sample and must still be assigned non-decreasing completion times.
	samples := []ProgressSample{
		{At: monitorStart.Add(1 * time.Second), Depth: 8},
		{At: monitorStart.Add(2 * time.Second), Depth: 6},
		{At: monitorStart.Add(3 * time.Second), Depth: 4},
	}
	est := NewTimingEstimator(0)

	timings := est.Estimate(records, samples, monitorStart, monitorStart.Add(4*time.Second))

	for i := 1; i < len(timings); i++ {
		if timings[i].CompletedAt.Before(timings[i-1].CompletedAt) {
			t.Fatalf("unit %d completion %v precedes unit %d completion %v",
				i, timings[i].CompletedAt, i-1, timings[i-1].CompletedAt)
		}
	}
}

func TestEstimatorUniformFallback(t *testing.T) {
	base := time.Now()
	records := enqueueRecords(4, base)
	monitorStart := base
	monitorEnd := base.Add(4 * time.Second)
	samples := []ProgressSample{{At: base.Add(time.Second), Depth: 2}} // fewer than 3

	est := NewTimingEstimator(100 * time.Millisecond)
	timings := est.Estimate(records, samples, monitorStart, monitorEnd)

	for i := range timings {
		wantComplete := monitorStart.Add(time.Duration(i+1) * time.Second)
		if !timings[i].CompletedAt.Equal(wantComplete) {
			t.Errorf("unit %d completed at %v, want %v", i, timings[i].CompletedAt, wantComplete)
		}
		if timings[i].StartedAt.After(timings[i].CompletedAt) {
			t.Errorf("unit %d starts after it completes", i)
		}
	}
}

func TestEstimatorDegenerateWindow(t *testing.T) {
	base := time.Now()
	records := enqueueRecords(3, base)
	edge := base.Add(10 * time.Millisecond)

	est := NewTimingEstimator(100 * time.Millisecond)
	timings := est.Estimate(records, nil, edge, edge)

	for i, timing := range timings {
		if !timing.StartedAt.Equal(edge) || !timing.CompletedAt.Equal(edge) {
			t.Errorf("unit %d = (%v, %v), want both pinned to the window edge", i, timing.StartedAt, timing.CompletedAt)
		}
		if lat, ok := timing.TotalLatency(); !ok || lat < 0 {
			t.Errorf("unit %d latency = (%v, %v), want a defined non-negative value", i, lat, ok)
		}
	}
}

func TestEstimatorNoUnits(t *testing.T) {
	est := NewTimingEstimator(0)
	timings := est.Estimate(nil, nil, time.Time{}, time.Time{})
	if len(timings) != 0 {
		t.Errorf("got %d timings for empty input, want 0", len(timings))
	}
}
