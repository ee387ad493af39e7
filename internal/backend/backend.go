// Package backend provides the queue backends a benchmark run can target:
// an embedded broker with an in-process worker pool, a Redis list queue,
// and a remote HTTP queue server.
package backend

import (
	"context"
	"fmt"

	"github.com/user/taskbench/internal/engine"
)

// Config selects and parameterizes a backend.
type Config struct {
	// Kind is "local", "redis", or "http".
	Kind string `json:"kind"`
	// Queue is the queue name units are dispatched to.
	Queue string `json:"queue"`

	// Local backend.
	Dir      string `json:"dir,omitempty"`
	KVEngine string `json:"kv_engine,omitempty"`
	Workers  int    `json:"workers,omitempty"`
	APIBase  string `json:"api_base,omitempty"`

	// Redis backend.
	RedisAddr string `json:"redis_addr,omitempty"`
	RedisDB   int    `json:"redis_db,omitempty"`

	// HTTP backend.
	ServerURL string `json:"server_url,omitempty"`
}

// Backend extends the engine's view with a lifecycle. Start brings workers
// or connections up before the run; Close tears them down after.
type Backend interface {
	engine.Backend
	Start(ctx context.Context) error
	Close() error
}

// Open builds the configured backend.
func Open(cfg Config) (Backend, error) {
	if cfg.Queue == "" {
		cfg.Queue = "bench"
	}
	switch cfg.Kind {
	case "", "local":
		return openLocal(cfg)
	case "redis":
		return openRedis(cfg)
	case "http":
		return openHTTP(cfg)
	default:
		return nil, fmt.Errorf("unknown backend %q (expected local, redis, or http)", cfg.Kind)
	}
}
