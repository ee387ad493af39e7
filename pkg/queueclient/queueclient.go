// Package queueclient is a thin HTTP wrapper for corvo-style queue
// servers. The benchmark's HTTP backend uses it to dispatch units and
// poll queue depth remotely.
package queueclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to one queue server.
type Client struct {
	URL        string
	HTTPClient *http.Client
}

// New creates a client for the server at url.
func New(url string) *Client {
	return &Client{
		URL: url,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// EnqueueResult is the response from enqueuing a job.
type EnqueueResult struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// Enqueue enqueues one job and returns its server-assigned ID.
func (c *Client) Enqueue(ctx context.Context, queue string, payload interface{}) (*EnqueueResult, error) {
	body := map[string]interface{}{
		"queue":   queue,
		"payload": payload,
	}
	var result EnqueueResult
	if err := c.doRequest(ctx, "POST", "/api/v1/enqueue", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// QueueStats is the depth snapshot for one queue.
type QueueStats struct {
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// Stats fetches the depth snapshot for a queue.
func (c *Client) Stats(ctx context.Context, queue string) (*QueueStats, error) {
	var result QueueStats
	if err := c.doRequest(ctx, "GET", "/api/v1/queues/"+queue+"/stats", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ClearQueue removes every job from a queue.
func (c *Client) ClearQueue(ctx context.Context, queue string) error {
	return c.doRequest(ctx, "POST", "/api/v1/queues/"+queue+"/clear", nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
			Code  string `json:"code"`
		}
		json.Unmarshal(data, &apiErr)
		if apiErr.Error == "" {
			return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
		}
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Error)
	}

	if result != nil {
		return json.Unmarshal(data, result)
	}
	return nil
}
