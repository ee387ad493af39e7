// Package worker runs a pool of goroutines draining a broker queue and
// executing workload task bodies.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/user/taskbench/internal/broker"
	"github.com/user/taskbench/internal/workload"
)

// Pool consumes one queue with a fixed number of workers. Each worker runs
// its own fetch loop; the broker serializes the dequeue, the bodies run
// concurrently.
type Pool struct {
	broker *broker.Broker
	exec   *workload.Executor
	queue  string
	size   int
	idle   time.Duration

	processed atomic.Int64
	failed    atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a pool of size workers over the given broker queue.
func NewPool(b *broker.Broker, exec *workload.Executor, queue string, size int) *Pool {
	if size <= 0 {
		size = 1
	}
	return &Pool{
		broker: b,
		exec:   exec,
		queue:  queue,
		size:   size,
		idle:   5 * time.Millisecond,
	}
}

// Start launches the workers. They run until ctx is cancelled or Stop is
// called.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	slog.Debug("worker pool started", "queue", p.queue, "workers", p.size)
}

// Stop cancels the workers and waits for them to exit.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	slog.Debug("worker pool stopped",
		"queue", p.queue,
		"processed", p.processed.Load(),
		"failed", p.failed.Load(),
	)
}

// Processed reports successfully completed jobs.
func (p *Pool) Processed() int64 { return p.processed.Load() }

// Failed reports jobs whose body returned an error.
func (p *Pool) Failed() int64 { return p.failed.Load() }

func (p *Pool) run(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.broker.Fetch(p.queue)
		if err != nil {
			slog.Warn("worker fetch failed", "worker", id, "error", err)
			p.sleep(ctx)
			continue
		}
		if job == nil {
			p.sleep(ctx)
			continue
		}

		if err := p.exec.Run(ctx, job.Kind, job.Payload); err != nil {
			p.failed.Add(1)
			slog.Debug("job failed", "worker", id, "job", job.ID, "kind", job.Kind, "error", err)
			if err := p.broker.Fail(p.queue, job.ID); err != nil {
				slog.Warn("worker fail-ack failed", "worker", id, "job", job.ID, "error", err)
			}
			continue
		}
		p.processed.Add(1)
		if err := p.broker.Ack(p.queue, job.ID); err != nil {
			slog.Warn("worker ack failed", "worker", id, "job", job.ID, "error", err)
		}
	}
}

func (p *Pool) sleep(ctx context.Context) {
	select {
	case <-time.After(p.idle):
	case <-ctx.Done():
	}
}
