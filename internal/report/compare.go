package report

import (
	"math"
	"slices"
)

// Comparison contrasts a candidate result set against a baseline.
type Comparison struct {
	Candidate string `json:"candidate"`
	Baseline  string `json:"baseline"`

	Throughput ThroughputComparison `json:"throughput"`
	Latency    ReductionComparison  `json:"latency"`
	Memory     ReductionComparison  `json:"memory"`

	TTest TTestResult `json:"t_test"`
}

// ThroughputComparison reports the headline speedup.
type ThroughputComparison struct {
	Candidate          float64 `json:"candidate"`
	Baseline           float64 `json:"baseline"`
	Speedup            float64 `json:"speedup"`
	PercentImprovement float64 `json:"percent_improvement"`
}

// ReductionComparison reports how much lower the candidate's value is.
type ReductionComparison struct {
	Candidate        float64 `json:"candidate"`
	Baseline         float64 `json:"baseline"`
	ReductionPercent float64 `json:"reduction_percent"`
}

// TTestResult is Welch's t over the per-run throughput distributions. With
// no p-value machinery available, |t| > 2.0 is treated as significant and
// Cohen's d carries the interpretation.
type TTestResult struct {
	TStatistic     float64 `json:"t_statistic"`
	Significant    bool    `json:"significant"`
	EffectSize     float64 `json:"effect_size"`
	Interpretation string  `json:"interpretation"`
}

const significanceThreshold = 2.0

// Compare contrasts two artifacts. The candidate is the system under
// study; the baseline is what it is measured against.
func Compare(candidate, baseline Artifact) Comparison {
	cmp := Comparison{
		Candidate: label(candidate),
		Baseline:  label(baseline),
	}

	ct := candidate.Throughput.Mean
	bt := baseline.Throughput.Mean
	speedup := 0.0
	if bt > 0 {
		speedup = ct / bt
	}
	cmp.Throughput = ThroughputComparison{
		Candidate:          ct,
		Baseline:           bt,
		Speedup:            speedup,
		PercentImprovement: (speedup - 1) * 100,
	}

	cmp.Latency = reduction(candidate.MeanLatencyMs.Mean, baseline.MeanLatencyMs.Mean)
	cmp.Memory = reduction(candidate.MemoryMB.Mean, baseline.MemoryMB.Mean)
	cmp.TTest = welchT(throughputs(candidate), throughputs(baseline))
	return cmp
}

func label(a Artifact) string {
	if a.Engine != "" {
		return a.Backend + "/" + a.Engine
	}
	return a.Backend
}

func reduction(candidate, baseline float64) ReductionComparison {
	r := ReductionComparison{Candidate: candidate, Baseline: baseline}
	if baseline > 0 {
		r.ReductionPercent = (1 - candidate/baseline) * 100
	}
	return r
}

func throughputs(a Artifact) []float64 {
	vals := make([]float64, 0, len(a.PerRun))
	for _, r := range a.PerRun {
		vals = append(vals, r.Throughput)
	}
	return vals
}

// welchT computes Welch's unequal-variance t statistic and Cohen's d.
func welchT(group1, group2 []float64) TTestResult {
	m1, v1 := meanVariance(group1)
	m2, v2 := meanVariance(group2)
	n1, n2 := float64(len(group1)), float64(len(group2))

	d := cohensD(m1, v1, m2, v2)
	res := TTestResult{
		EffectSize:     d,
		Interpretation: interpretEffectSize(d),
	}
	if n1 < 2 || n2 < 2 {
		return res
	}
	se := math.Sqrt(v1/n1 + v2/n2)
	if se == 0 {
		return res
	}
	res.TStatistic = (m1 - m2) / se
	res.Significant = math.Abs(res.TStatistic) > significanceThreshold
	return res
}

// meanVariance returns the mean and sample variance.
func meanVariance(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, 0
	}
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return mean, ss / float64(len(values)-1)
}

// cohensD uses the pooled standard deviation of the two groups.
func cohensD(m1, v1, m2, v2 float64) float64 {
	pooled := math.Sqrt((v1 + v2) / 2)
	if pooled == 0 {
		return 0
	}
	return (m1 - m2) / pooled
}

func interpretEffectSize(d float64) string {
	switch abs := math.Abs(d); {
	case abs < 0.2:
		return "negligible"
	case abs < 0.5:
		return "small"
	case abs < 0.8:
		return "medium"
	default:
		return "large"
	}
}

// percentileOf returns the nearest-rank percentile of values, sorting a
// copy first.
func percentileOf(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
