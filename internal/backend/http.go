package backend

import (
	"context"
	"fmt"

	"github.com/user/taskbench/internal/engine"
	"github.com/user/taskbench/pkg/queueclient"
)

// HTTP targets a remote corvo-style queue server through its REST API.
type HTTP struct {
	client *queueclient.Client
	queue  string
}

func openHTTP(cfg Config) (*HTTP, error) {
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("http backend requires a server url")
	}
	return &HTTP{
		client: queueclient.New(cfg.ServerURL),
		queue:  cfg.Queue,
	}, nil
}

// Start probes the server with a stats call.
func (h *HTTP) Start(ctx context.Context) error {
	if _, err := h.client.Stats(ctx, h.queue); err != nil {
		return fmt.Errorf("queue server unreachable: %w", err)
	}
	return nil
}

// Dispatch enqueues one unit remotely.
func (h *HTTP) Dispatch(ctx context.Context, unit engine.Unit) (string, error) {
	payload := map[string]any{"kind": unit.Kind}
	if len(unit.Payload) > 0 {
		payload["payload"] = unit.Payload
	}
	res, err := h.client.Enqueue(ctx, h.queue, payload)
	if err != nil {
		return "", err
	}
	return res.JobID, nil
}

// Depth reports pending plus active units from queue stats.
func (h *HTTP) Depth(ctx context.Context) (int, error) {
	stats, err := h.client.Stats(ctx, h.queue)
	if err != nil {
		return 0, err
	}
	return stats.Pending + stats.Active, nil
}

// Clear empties the remote queue.
func (h *HTTP) Clear(ctx context.Context) error {
	return h.client.ClearQueue(ctx, h.queue)
}

// Close is a no-op; the HTTP client holds no resources.
func (h *HTTP) Close() error { return nil }
