package engine

import (
	"context"
	"log/slog"
	"time"
)

// ResourceSampler reads resource usage of the process under observation.
// The first CPUPercent call after process attach is defined to return an
// unreliable warm-up value and must be discarded by callers.
type ResourceSampler interface {
	CPUPercent() (float64, error)
	MemoryMB() (float64, error)
}

// ResourceMonitor samples CPU and memory on a background goroutine at a
// fixed interval. One monitor handles exactly one Start/Stop cycle.
type ResourceMonitor struct {
	sampler  ResourceSampler
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}

	// Written only by the sampling goroutine; read after done is closed.
	cpu []float64
	mem []float64
}

// NewResourceMonitor creates a monitor sampling at the given interval.
// A non-positive interval falls back to 500ms.
func NewResourceMonitor(sampler ResourceSampler, interval time.Duration) *ResourceMonitor {
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	return &ResourceMonitor{sampler: sampler, interval: interval}
}

// Start begins background sampling. The sampler is warmed up once before
// the loop so the cold-start CPU reading is never recorded.
func (m *ResourceMonitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	m.sampler.CPUPercent() // discard cold-start value

	go m.run(ctx)
}

func (m *ResourceMonitor) run(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cpu, err := m.sampler.CPUPercent()
			if err != nil {
				// Process gone or access denied: stop sampling quietly and
				// let Stop average whatever was gathered.
				slog.Debug("resource sampling stopped", "error", err)
				return
			}
			mem, err := m.sampler.MemoryMB()
			if err != nil {
				slog.Debug("resource sampling stopped", "error", err)
				return
			}
			m.cpu = append(m.cpu, cpu)
			m.mem = append(m.mem, mem)
		}
	}
}

// Stop cancels sampling, waits for the background goroutine to exit, and
// returns the mean CPU percent and memory MB over all collected samples.
// No samples yields 0 for both. Stop without a prior Start returns zeros.
func (m *ResourceMonitor) Stop() (avgCPU, avgMemMB float64) {
	if m.done == nil {
		return 0, 0
	}
	m.cancel()
	<-m.done
	return mean(m.cpu), mean(m.mem)
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
