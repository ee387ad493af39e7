package backend

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/user/taskbench/internal/workload"
)

// RedisWorker consumes the Redis list queue the Redis backend dispatches
// to. It runs in a separate process (`taskbench worker`) so the benchmark
// measures real cross-process queueing.
type RedisWorker struct {
	client *redis.Client
	exec   *workload.Executor
	queue  string
	size   int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRedisWorker creates a consumer with size goroutines.
func NewRedisWorker(cfg Config, size int) *RedisWorker {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "bench"
	}
	if size <= 0 {
		size = 1
	}
	return &RedisWorker{
		client: redis.NewClient(&redis.Options{Addr: addr, DB: cfg.RedisDB}),
		exec:   workload.NewExecutor(cfg.APIBase),
		queue:  queue,
		size:   size,
	}
}

// Start launches the consumer goroutines.
func (w *RedisWorker) Start(ctx context.Context) error {
	if err := w.client.Ping(ctx).Err(); err != nil {
		return err
	}
	ctx, w.cancel = context.WithCancel(ctx)
	for i := 0; i < w.size; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	slog.Info("redis worker started", "queue", w.queue, "concurrency", w.size)
	return nil
}

// Stop cancels the consumers and closes the connection.
func (w *RedisWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.client.Close()
}

func (w *RedisWorker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	pending := redisPendingKey(w.queue)
	processing := redisProcessingKey(w.queue)

	for {
		if ctx.Err() != nil {
			return
		}
		// Move atomically so in-flight jobs still count toward depth.
		data, err := w.client.BLMove(ctx, pending, processing, "right", "left", time.Second).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			slog.Warn("redis pop failed", "worker", id, "error", err)
			select {
			case <-time.After(100 * time.Millisecond):
			case <-ctx.Done():
			}
			continue
		}

		var job redisJob
		if err := json.Unmarshal([]byte(data), &job); err != nil {
			slog.Warn("bad job payload", "worker", id, "error", err)
			w.client.LRem(context.Background(), processing, 1, data)
			continue
		}
		if err := w.exec.Run(ctx, job.Kind, job.Payload); err != nil {
			slog.Debug("job failed", "worker", id, "job", job.ID, "error", err)
		}
		// Remove from processing either way; the benchmark counts
		// settlement by depth, not by success.
		w.client.LRem(context.Background(), processing, 1, data)
	}
}
