package backend

import (
	"context"
	"fmt"

	"github.com/user/taskbench/internal/broker"
	"github.com/user/taskbench/internal/engine"
	"github.com/user/taskbench/internal/worker"
	"github.com/user/taskbench/internal/workload"
)

// Local runs the whole pipeline in-process: an embedded KV broker plus a
// worker pool draining it. This is the zero-dependency default backend.
type Local struct {
	broker *broker.Broker
	pool   *worker.Pool
	queue  string
}

func openLocal(cfg Config) (*Local, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("local backend requires a data dir")
	}
	b, err := broker.Open(cfg.Dir, cfg.KVEngine)
	if err != nil {
		return nil, fmt.Errorf("open broker: %w", err)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 10
	}
	exec := workload.NewExecutor(cfg.APIBase)
	return &Local{
		broker: b,
		pool:   worker.NewPool(b, exec, cfg.Queue, workers),
		queue:  cfg.Queue,
	}, nil
}

// Start launches the worker pool.
func (l *Local) Start(ctx context.Context) error {
	l.pool.Start(ctx)
	return nil
}

// Dispatch enqueues one unit.
func (l *Local) Dispatch(ctx context.Context, unit engine.Unit) (string, error) {
	return l.broker.Enqueue(l.queue, unit.Kind, unit.Payload)
}

// Depth reports pending plus running units.
func (l *Local) Depth(ctx context.Context) (int, error) {
	pending, running := l.broker.Depth(l.queue)
	return pending + running, nil
}

// Clear drops everything in the queue.
func (l *Local) Clear(ctx context.Context) error {
	return l.broker.Clear(l.queue)
}

// Close stops the workers and the broker.
func (l *Local) Close() error {
	l.pool.Stop()
	return l.broker.Close()
}
