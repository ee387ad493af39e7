package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/user/taskbench/internal/engine"
)

func sampleSummary() *engine.RunSummary {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mkResult := func(completed int, total time.Duration) *engine.RunResult {
		r := &engine.RunResult{
			Outcome:        engine.OutcomeComplete,
			TotalTime:      total,
			UnitsCompleted: completed,
		}
		for i := 0; i < completed; i++ {
			enq := base.Add(time.Duration(i) * time.Millisecond)
			r.Timings = append(r.Timings, engine.UnitTiming{
				UnitID:      "u",
				EnqueuedAt:  enq,
				StartedAt:   enq.Add(5 * time.Millisecond),
				CompletedAt: enq.Add(20 * time.Millisecond),
			})
		}
		return r
	}
	return &engine.RunSummary{
		Config: engine.RunConfig{
			Backend:  "local",
			Engine:   "badger",
			Scenario: "throughput",
			Units:    10,
			Workers:  4,
		},
		Results: []*engine.RunResult{
			mkResult(10, time.Second),
			mkResult(10, 2*time.Second),
		},
	}
}

func TestBuildArtifact(t *testing.T) {
	art := Build(sampleSummary())
	if art.Backend != "local" || art.Scenario != "throughput" {
		t.Fatalf("artifact = %+v", art.SummaryMetrics)
	}
	if len(art.PerRun) != 2 {
		t.Fatalf("PerRun len = %d, want 2", len(art.PerRun))
	}
	if art.PerRun[0].Throughput != 10 {
		t.Errorf("run 1 throughput = %v, want 10", art.PerRun[0].Throughput)
	}
	if art.PerRun[1].Throughput != 5 {
		t.Errorf("run 2 throughput = %v, want 5", art.PerRun[1].Throughput)
	}
	if art.PerRun[0].MeanLatencyMs != 20 {
		t.Errorf("run 1 mean latency = %v, want 20", art.PerRun[0].MeanLatencyMs)
	}
	if art.GeneratedAt.IsZero() {
		t.Error("GeneratedAt not set")
	}
}

func TestArtifactRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	art := Build(sampleSummary())
	if err := WriteFile(path, art); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if got.Backend != art.Backend || got.Throughput.Mean != art.Throughput.Mean {
		t.Errorf("round trip mismatch: %+v vs %+v", got.SummaryMetrics, art.SummaryMetrics)
	}
	if len(got.PerRun) != len(art.PerRun) {
		t.Errorf("PerRun len = %d, want %d", len(got.PerRun), len(art.PerRun))
	}
}

func TestArtifactFieldContract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	if err := WriteFile(path, Build(sampleSummary())); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	raw := string(data)
	for _, field := range []string{
		`"throughput"`, `"mean_latency_ms"`, `"p95_latency_ms"`, `"p99_latency_ms"`,
		`"memory_mb"`, `"cpu_percent"`, `"throughput_cv"`,
		`"worker_count"`, `"task_count"`, `"runs"`,
	} {
		if !strings.Contains(raw, field) {
			t.Errorf("artifact JSON missing field %s", field)
		}
	}
}

func TestCompareSpeedup(t *testing.T) {
	candidate := artifactWithThroughputs("local", []float64{100, 110, 120})
	baseline := artifactWithThroughputs("redis", []float64{50, 55, 60})

	cmp := Compare(candidate, baseline)
	if got := cmp.Throughput.Speedup; got < 1.9 || got > 2.1 {
		t.Errorf("Speedup = %v, want ~2.0", got)
	}
	if cmp.Throughput.PercentImprovement < 90 {
		t.Errorf("PercentImprovement = %v, want ~100", cmp.Throughput.PercentImprovement)
	}
	if !cmp.TTest.Significant {
		t.Error("clearly separated groups should be significant")
	}
	if cmp.TTest.Interpretation != "large" {
		t.Errorf("Interpretation = %q, want large", cmp.TTest.Interpretation)
	}
}

func TestCompareIdenticalGroups(t *testing.T) {
	a := artifactWithThroughputs("local", []float64{100, 100, 100})
	b := artifactWithThroughputs("redis", []float64{100, 100, 100})
	cmp := Compare(a, b)
	if cmp.Throughput.Speedup != 1 {
		t.Errorf("Speedup = %v, want 1", cmp.Throughput.Speedup)
	}
	if cmp.TTest.Significant {
		t.Error("identical groups flagged significant")
	}
	if cmp.TTest.EffectSize != 0 {
		t.Errorf("EffectSize = %v, want 0", cmp.TTest.EffectSize)
	}
}

func TestCompareZeroBaseline(t *testing.T) {
	a := artifactWithThroughputs("local", []float64{100})
	b := artifactWithThroughputs("redis", nil)
	cmp := Compare(a, b)
	if cmp.Throughput.Speedup != 0 {
		t.Errorf("Speedup = %v, want 0 when baseline is empty", cmp.Throughput.Speedup)
	}
}

func TestHistoryArchive(t *testing.T) {
	h, err := OpenHistory(filepath.Join(t.TempDir(), "runs.db"))
	if err != nil {
		t.Fatalf("OpenHistory() error: %v", err)
	}
	defer h.Close()

	art := Build(sampleSummary())
	id, err := h.Save(art)
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if id == 0 {
		t.Fatal("Save() returned id 0")
	}

	got, err := h.Get(id)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Backend != "local" || got.Scenario != "throughput" {
		t.Errorf("Get() = %+v", got.SummaryMetrics)
	}

	entries, err := h.List(10)
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Errorf("List() = %+v", entries)
	}

	latest, err := h.Latest("local", "throughput")
	if err != nil {
		t.Fatalf("Latest() error: %v", err)
	}
	if latest.Throughput.Mean != art.Throughput.Mean {
		t.Errorf("Latest() throughput = %v, want %v", latest.Throughput.Mean, art.Throughput.Mean)
	}

	if _, err := h.Latest("local", "absent"); err == nil {
		t.Error("Latest() for unknown scenario expected error")
	}
	if _, err := h.Get(id + 99); err == nil {
		t.Error("Get() for unknown id expected error")
	}
}

func TestRenderTables(t *testing.T) {
	art := Build(sampleSummary())
	var buf bytes.Buffer
	RenderSummary(&buf, art)
	if !strings.Contains(buf.String(), "throughput") {
		t.Errorf("summary table missing scenario: %s", buf.String())
	}

	buf.Reset()
	cmp := Compare(art, art)
	RenderComparison(&buf, cmp)
	if !strings.Contains(buf.String(), "Cohen's d") {
		t.Errorf("comparison output missing t-test line: %s", buf.String())
	}
}

func artifactWithThroughputs(backend string, values []float64) Artifact {
	art := Artifact{GeneratedAt: time.Now()}
	art.Backend = backend
	var sum float64
	for i, v := range values {
		sum += v
		art.PerRun = append(art.PerRun, RunDetail{Run: i + 1, Throughput: v})
	}
	if len(values) > 0 {
		art.Throughput.Mean = sum / float64(len(values))
	}
	// Fill latency and memory means so reductions are well-defined.
	art.MeanLatencyMs.Mean = 10
	art.MemoryMB.Mean = 100
	return art
}
