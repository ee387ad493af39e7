package engine

import (
	"encoding/json"
	"time"
)

// Unit is one dispatchable item of work. The engine treats the payload as
// opaque; workload packages decide what Kind and Payload mean.
type Unit struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// EnqueueRecord captures the identity and enqueue timestamp of a dispatched
// unit. Records are created in dispatch order and never mutated.
type EnqueueRecord struct {
	UnitID     string    `json:"unit_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// ProgressSample is one aggregate-depth observation taken during monitoring.
type ProgressSample struct {
	At    time.Time `json:"at"`
	Depth int       `json:"depth"`
}

// UnitTiming holds the reconstructed lifecycle timestamps for one unit.
// StartedAt and CompletedAt are estimates derived from the progress sample
// log after the run settles; a zero time means the phase was never assigned.
type UnitTiming struct {
	UnitID      string    `json:"unit_id"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
	StartedAt   time.Time `json:"started_at,omitzero"`
	CompletedAt time.Time `json:"completed_at,omitzero"`
	Failed      bool      `json:"failed,omitempty"`
}

// TotalLatency returns enqueue-to-completion time. The second return is false
// when no completion time was assigned.
func (t UnitTiming) TotalLatency() (time.Duration, bool) {
	if t.CompletedAt.IsZero() {
		return 0, false
	}
	return t.CompletedAt.Sub(t.EnqueuedAt), true
}

// WaitTime returns time spent queued before processing started.
func (t UnitTiming) WaitTime() (time.Duration, bool) {
	if t.StartedAt.IsZero() {
		return 0, false
	}
	return t.StartedAt.Sub(t.EnqueuedAt), true
}

// ExecutionTime returns time spent processing.
func (t UnitTiming) ExecutionTime() (time.Duration, bool) {
	if t.StartedAt.IsZero() || t.CompletedAt.IsZero() {
		return 0, false
	}
	return t.CompletedAt.Sub(t.StartedAt), true
}

// RunResult is the immutable outcome of a single benchmark repetition.
type RunResult struct {
	Outcome            Outcome          `json:"outcome"`
	TotalTime          time.Duration    `json:"total_time"`
	DispatchDuration   time.Duration    `json:"dispatch_duration"`
	MonitoringDuration time.Duration    `json:"monitoring_duration"`
	UnitsCompleted     int              `json:"units_completed"`
	UnitsFailed        int              `json:"units_failed"`
	Timings            []UnitTiming     `json:"unit_timings"`
	AvgCPUPercent      float64          `json:"avg_cpu_percent"`
	AvgMemoryMB        float64          `json:"avg_memory_mb"`
	Samples            []ProgressSample `json:"progress_samples"`
}

// Throughput returns completed units per second of total wall time.
// Zero completions or zero time yield 0, never a division error.
func (r *RunResult) Throughput() float64 {
	if r.TotalTime <= 0 {
		return 0
	}
	return float64(r.UnitsCompleted) / r.TotalTime.Seconds()
}

// EnqueueRate returns dispatched units per second of dispatch time.
func (r *RunResult) EnqueueRate() float64 {
	if r.DispatchDuration <= 0 {
		return 0
	}
	return float64(len(r.Timings)) / r.DispatchDuration.Seconds()
}

// ProcessingRate returns completed units per second of monitoring time.
func (r *RunResult) ProcessingRate() float64 {
	if r.MonitoringDuration <= 0 {
		return 0
	}
	return float64(r.UnitsCompleted) / r.MonitoringDuration.Seconds()
}

// Latencies returns enqueue-to-completion latencies in milliseconds for
// every unit that received a completion estimate and was not written off as
// failed, in enqueue order.
func (r *RunResult) Latencies() []float64 {
	out := make([]float64, 0, len(r.Timings))
	for _, t := range r.Timings {
		if t.Failed {
			continue
		}
		if lat, ok := t.TotalLatency(); ok {
			out = append(out, float64(lat) / float64(time.Millisecond))
		}
	}
	return out
}

// RunConfig describes one benchmark configuration.
type RunConfig struct {
	Backend  string `json:"backend"`
	Engine   string `json:"engine,omitempty"`
	Scenario string `json:"scenario"`
	Units    int    `json:"task_count"`
	Workers  int    `json:"worker_count"`
	Runs     int    `json:"runs"`

	Warmup         time.Duration `json:"warmup,omitempty"`
	WarmupUnits    int           `json:"warmup_units,omitempty"`
	Timeout        time.Duration `json:"timeout"`
	PollInterval   time.Duration `json:"poll_interval"`
	SampleInterval time.Duration `json:"sample_interval"`

	// StagnationPolls is the number of consecutive unchanged depth polls
	// tolerated before the run is written off as stalled.
	StagnationPolls int `json:"stagnation_polls"`

	// ExecutionGuess is the assumed per-unit execution time used when
	// reconstructing start timestamps. An approximation, not a measurement.
	ExecutionGuess time.Duration `json:"execution_guess"`
}

// DefaultRunConfig returns a RunConfig with sensible defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		Units:           20000,
		Workers:         10,
		Runs:            10,
		Timeout:         5 * time.Minute,
		PollInterval:    500 * time.Millisecond,
		SampleInterval:  500 * time.Millisecond,
		StagnationPolls: 60,
		ExecutionGuess:  100 * time.Millisecond,
	}
}

// withDefaults fills zero-valued fields from DefaultRunConfig.
func (c RunConfig) withDefaults() RunConfig {
	def := DefaultRunConfig()
	if c.Units == 0 {
		c.Units = def.Units
	}
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.Runs == 0 {
		c.Runs = def.Runs
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = def.PollInterval
	}
	if c.SampleInterval == 0 {
		c.SampleInterval = def.SampleInterval
	}
	if c.StagnationPolls == 0 {
		c.StagnationPolls = def.StagnationPolls
	}
	if c.ExecutionGuess == 0 {
		c.ExecutionGuess = def.ExecutionGuess
	}
	return c
}
