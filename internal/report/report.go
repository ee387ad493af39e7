// Package report turns benchmark results into artifacts: JSON files with
// a stable field contract, a sqlite history archive, statistical
// comparisons between two result sets, and terminal tables.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/user/taskbench/internal/engine"
)

// Artifact is the serialized result of one benchmark configuration. The
// embedded summary keeps its field names at the top level; downstream
// tooling depends on them.
type Artifact struct {
	GeneratedAt time.Time `json:"generated_at"`
	engine.SummaryMetrics
	PerRun []RunDetail `json:"per_run,omitempty"`
}

// RunDetail is the per-run breakdown kept alongside the aggregate, so
// comparisons can re-test the raw distributions.
type RunDetail struct {
	Run             int     `json:"run"`
	Throughput      float64 `json:"throughput"`
	MeanLatencyMs   float64 `json:"mean_latency_ms"`
	P95LatencyMs    float64 `json:"p95_latency_ms"`
	DurationSeconds float64 `json:"duration_seconds"`
	Completed       int     `json:"completed"`
	Failed          int     `json:"failed"`
	Outcome         string  `json:"outcome"`
}

// Build assembles the artifact for a summary.
func Build(summary *engine.RunSummary) Artifact {
	art := Artifact{
		GeneratedAt:    time.Now().UTC(),
		SummaryMetrics: summary.Metrics(),
	}
	for i, r := range summary.Results {
		lats := r.Latencies()
		var meanLat, p95 float64
		if len(lats) > 0 {
			var sum float64
			for _, v := range lats {
				sum += v
			}
			meanLat = sum / float64(len(lats))
			p95 = percentileOf(lats, 0.95)
		}
		art.PerRun = append(art.PerRun, RunDetail{
			Run:             i + 1,
			Throughput:      r.Throughput(),
			MeanLatencyMs:   meanLat,
			P95LatencyMs:    p95,
			DurationSeconds: r.TotalTime.Seconds(),
			Completed:       r.UnitsCompleted,
			Failed:          r.UnitsFailed,
			Outcome:         string(r.Outcome),
		})
	}
	return art
}

// WriteFile writes the artifact as indented JSON.
func WriteFile(path string, art Artifact) error {
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	return nil
}

// ReadFile loads an artifact written by WriteFile.
func ReadFile(path string) (Artifact, error) {
	var art Artifact
	data, err := os.ReadFile(path)
	if err != nil {
		return art, fmt.Errorf("read artifact: %w", err)
	}
	if err := json.Unmarshal(data, &art); err != nil {
		return art, fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return art, nil
}
