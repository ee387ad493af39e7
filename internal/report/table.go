package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// RenderSummary writes a metrics table for one or more artifacts.
func RenderSummary(w io.Writer, artifacts ...Artifact) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Backend", "Scenario", "Runs",
		"Throughput (t/s)", "Mean Lat (ms)", "P95 Lat (ms)",
		"Mem (MB)", "CPU %", "CV",
	})
	for _, a := range artifacts {
		table.Append([]string{
			label(a),
			a.Scenario,
			fmt.Sprintf("%d", a.Runs),
			fmt.Sprintf("%.1f ± %.1f", a.Throughput.Mean, a.Throughput.Stdev),
			fmt.Sprintf("%.2f", a.MeanLatencyMs.Mean),
			fmt.Sprintf("%.2f", a.P95LatencyMs.Mean),
			fmt.Sprintf("%.1f", a.MemoryMB.Mean),
			fmt.Sprintf("%.1f", a.CPUPercent.Mean),
			fmt.Sprintf("%.3f", a.ThroughputCV),
		})
	}
	table.Render()
}

// RenderComparison writes the candidate-vs-baseline table.
func RenderComparison(w io.Writer, cmp Comparison) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Metric", cmp.Candidate, cmp.Baseline, "Delta"})
	table.Append([]string{
		"Throughput (t/s)",
		fmt.Sprintf("%.1f", cmp.Throughput.Candidate),
		fmt.Sprintf("%.1f", cmp.Throughput.Baseline),
		fmt.Sprintf("%.2fx (%+.1f%%)", cmp.Throughput.Speedup, cmp.Throughput.PercentImprovement),
	})
	table.Append([]string{
		"Mean latency (ms)",
		fmt.Sprintf("%.2f", cmp.Latency.Candidate),
		fmt.Sprintf("%.2f", cmp.Latency.Baseline),
		fmt.Sprintf("%+.1f%% reduction", cmp.Latency.ReductionPercent),
	})
	table.Append([]string{
		"Memory (MB)",
		fmt.Sprintf("%.1f", cmp.Memory.Candidate),
		fmt.Sprintf("%.1f", cmp.Memory.Baseline),
		fmt.Sprintf("%+.1f%% reduction", cmp.Memory.ReductionPercent),
	})
	table.Render()

	fmt.Fprintf(w, "Welch t = %.2f (significant: %v), Cohen's d = %.2f (%s)\n",
		cmp.TTest.TStatistic, cmp.TTest.Significant,
		cmp.TTest.EffectSize, cmp.TTest.Interpretation)
}

// RenderHistory writes the archive listing.
func RenderHistory(w io.Writer, entries []Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "When", "Backend", "Engine", "Scenario"})
	for _, e := range entries {
		table.Append([]string{
			fmt.Sprintf("%d", e.ID),
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Backend,
			e.Engine,
			e.Scenario,
		})
	}
	table.Render()
}
