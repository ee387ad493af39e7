package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/user/taskbench/internal/broker"
	"github.com/user/taskbench/internal/engine"
)

// Redis dispatches units onto a Redis list consumed by external worker
// processes. Depth counts the pending list plus the processing list the
// workers maintain, so units in flight still register as queued.
type Redis struct {
	client *redis.Client
	queue  string
}

func openRedis(cfg Config) (*Redis, error) {
	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   cfg.RedisDB,
	})
	return &Redis{client: client, queue: cfg.Queue}, nil
}

// Start verifies the connection.
func (r *Redis) Start(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// redisJob is the wire format workers pop off the list.
type redisJob struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func redisPendingKey(queue string) string    { return "taskbench:q:" + queue }
func redisProcessingKey(queue string) string { return "taskbench:run:" + queue }

func (r *Redis) pendingKey() string    { return redisPendingKey(r.queue) }
func (r *Redis) processingKey() string { return redisProcessingKey(r.queue) }

// Dispatch pushes one unit onto the pending list.
func (r *Redis) Dispatch(ctx context.Context, unit engine.Unit) (string, error) {
	job := redisJob{ID: broker.NewID(), Kind: unit.Kind, Payload: unit.Payload}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}
	if err := r.client.LPush(ctx, r.pendingKey(), data).Err(); err != nil {
		return "", fmt.Errorf("lpush: %w", err)
	}
	return job.ID, nil
}

// Depth reports pending plus in-flight units.
func (r *Redis) Depth(ctx context.Context) (int, error) {
	pipe := r.client.Pipeline()
	pending := pipe.LLen(ctx, r.pendingKey())
	processing := pipe.LLen(ctx, r.processingKey())
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("llen: %w", err)
	}
	return int(pending.Val() + processing.Val()), nil
}

// Clear deletes both lists.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.pendingKey(), r.processingKey()).Err(); err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
