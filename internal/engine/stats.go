package engine

import (
	"math"
	"slices"
)

// Stats is the distributional summary of one metric across runs.
type Stats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Stdev  float64 `json:"stdev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// computeStats summarizes values. A single value has stdev 0; an empty
// slice yields the zero Stats.
func computeStats(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	var stdev float64
	if len(sorted) > 1 {
		var ss float64
		for _, v := range sorted {
			d := v - mean
			ss += d * d
		}
		stdev = math.Sqrt(ss / float64(len(sorted)-1))
	}

	return Stats{
		Mean:   mean,
		Median: median(sorted),
		Stdev:  stdev,
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
	}
}

// median of an already-sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// percentile returns the nearest-rank percentile of an already-sorted
// slice: index = floor(n*p), clamped to the last element.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// RunSummary collects the results of repeated runs of one configuration.
type RunSummary struct {
	Config  RunConfig    `json:"config"`
	Results []*RunResult `json:"results"`
}

// SummaryMetrics is the serializable statistical summary. Field names and
// nesting are a stable contract consumed by reporting tooling.
type SummaryMetrics struct {
	Backend  string `json:"backend"`
	Engine   string `json:"engine,omitempty"`
	Scenario string `json:"scenario"`
	Workers  int    `json:"worker_count"`
	Units    int    `json:"task_count"`
	Runs     int    `json:"runs"`

	Throughput    Stats `json:"throughput"`
	MeanLatencyMs Stats `json:"mean_latency_ms"`
	P95LatencyMs  Stats `json:"p95_latency_ms"`
	P99LatencyMs  Stats `json:"p99_latency_ms"`
	MemoryMB      Stats `json:"memory_mb"`
	CPUPercent    Stats `json:"cpu_percent"`

	// ThroughputCV is stdev/mean of per-run throughput. Interpretation
	// (stable vs. unreliable) is left to the reporting layer.
	ThroughputCV float64 `json:"throughput_cv"`
}

// Metrics computes the cross-run summary. Latency percentiles are computed
// per run first (nearest rank over that run's unit latencies), then the
// per-run values are aggregated; they are never recomputed from the pooled
// unit data.
func (s *RunSummary) Metrics() SummaryMetrics {
	n := len(s.Results)
	throughput := make([]float64, 0, n)
	meanLat := make([]float64, 0, n)
	p95Lat := make([]float64, 0, n)
	p99Lat := make([]float64, 0, n)
	memory := make([]float64, 0, n)
	cpu := make([]float64, 0, n)

	for _, r := range s.Results {
		throughput = append(throughput, r.Throughput())
		lats := r.Latencies()
		slices.Sort(lats)
		meanLat = append(meanLat, mean(lats))
		p95Lat = append(p95Lat, percentile(lats, 0.95))
		p99Lat = append(p99Lat, percentile(lats, 0.99))
		memory = append(memory, r.AvgMemoryMB)
		cpu = append(cpu, r.AvgCPUPercent)
	}

	tpStats := computeStats(throughput)
	cv := 0.0
	if tpStats.Mean > 0 {
		cv = tpStats.Stdev / tpStats.Mean
	}

	return SummaryMetrics{
		Backend:       s.Config.Backend,
		Engine:        s.Config.Engine,
		Scenario:      s.Config.Scenario,
		Workers:       s.Config.Workers,
		Units:         s.Config.Units,
		Runs:          n,
		Throughput:    tpStats,
		MeanLatencyMs: computeStats(meanLat),
		P95LatencyMs:  computeStats(p95Lat),
		P99LatencyMs:  computeStats(p99Lat),
		MemoryMB:      computeStats(memory),
		CPUPercent:    computeStats(cpu),
		ThroughputCV:  cv,
	}
}
