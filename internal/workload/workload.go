// Package workload defines the task bodies executed during benchmark runs
// and builds the unit plans that dispatch them. Bodies are deliberately
// small and deterministic so two queue backends can be compared on the
// same work.
package workload

import (
	"context"
	"crypto/pbkdf2"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Task kinds understood by the executor.
const (
	KindNoop       = "noop"
	KindSleep      = "sleep"
	KindFetchUser  = "fetch_user"
	KindFetchOrder = "fetch_order"
	KindWebhook    = "webhook"
	KindParseJSON  = "parse_json"
	KindPBKDF2     = "pbkdf2"
	KindHashData   = "hash_data"
)

// Payload shapes per kind. Unknown fields are ignored so plans can carry
// extra metadata.
type (
	SleepPayload struct {
		DurationMS int `json:"duration_ms"`
	}
	FetchPayload struct {
		ID        int `json:"id"`
		LatencyMS int `json:"latency_ms"`
	}
	WebhookPayload struct {
		LatencyMS int `json:"latency_ms"`
	}
	ParseJSONPayload struct {
		Doc json.RawMessage `json:"doc"`
	}
	PBKDF2Payload struct {
		Iterations int `json:"iterations"`
	}
	HashDataPayload struct {
		SizeKB int `json:"size_kb"`
	}
)

// Executor runs task bodies. I/O-bound kinds call the mock API at APIBase;
// CPU-bound kinds run inline.
type Executor struct {
	apiBase string
	client  *http.Client
}

// NewExecutor returns an executor pointed at the given mock API base URL.
// An empty base disables the HTTP kinds.
func NewExecutor(apiBase string) *Executor {
	return &Executor{
		apiBase: apiBase,
		client: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 128,
			},
		},
	}
}

// Run executes one task body.
func (e *Executor) Run(ctx context.Context, kind string, payload json.RawMessage) error {
	switch kind {
	case KindNoop, "":
		return nil
	case KindSleep:
		return e.runSleep(ctx, payload)
	case KindFetchUser:
		return e.runFetch(ctx, payload, "/users/%d", 100)
	case KindFetchOrder:
		return e.runFetch(ctx, payload, "/orders/%d", 150)
	case KindWebhook:
		return e.runWebhook(ctx, payload)
	case KindParseJSON:
		return runParseJSON(payload)
	case KindPBKDF2:
		return runPBKDF2(payload)
	case KindHashData:
		return runHashData(payload)
	default:
		return fmt.Errorf("unknown task kind %q", kind)
	}
}

func (e *Executor) runSleep(ctx context.Context, payload json.RawMessage) error {
	var p SleepPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("sleep payload: %w", err)
		}
	}
	select {
	case <-time.After(time.Duration(p.DurationMS) * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Executor) runFetch(ctx context.Context, payload json.RawMessage, pathFmt string, defaultLatency int) error {
	if e.apiBase == "" {
		return fmt.Errorf("http task without api base")
	}
	p := FetchPayload{LatencyMS: defaultLatency}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("fetch payload: %w", err)
		}
	}
	url := fmt.Sprintf(e.apiBase+pathFmt+"?latency=%d", p.ID, p.LatencyMS)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("fetch %s: decode: %w", url, err)
	}
	return nil
}

func (e *Executor) runWebhook(ctx context.Context, payload json.RawMessage) error {
	if e.apiBase == "" {
		return fmt.Errorf("http task without api base")
	}
	p := WebhookPayload{LatencyMS: 200}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("webhook payload: %w", err)
		}
	}
	url := fmt.Sprintf("%s/webhooks/process?latency=%d", e.apiBase, p.LatencyMS)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook: status %d", resp.StatusCode)
	}
	return nil
}

func runParseJSON(payload json.RawMessage) error {
	var p ParseJSONPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("parse_json payload: %w", err)
		}
	}
	doc := p.Doc
	if len(doc) == 0 {
		doc = defaultDocument
	}
	var out map[string]any
	if err := json.Unmarshal(doc, &out); err != nil {
		return fmt.Errorf("parse_json: %w", err)
	}
	return nil
}

func runPBKDF2(payload json.RawMessage) error {
	p := PBKDF2Payload{Iterations: 100000}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("pbkdf2 payload: %w", err)
		}
	}
	_, err := pbkdf2.Key(sha256.New, "benchmark-data", []byte("salt"), p.Iterations, 32)
	return err
}

func runHashData(payload json.RawMessage) error {
	p := HashDataPayload{SizeKB: 64}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("hash_data payload: %w", err)
		}
	}
	data := make([]byte, p.SizeKB*1024)
	for i := range data {
		data[i] = byte(i)
	}
	sum := sha256.Sum256(data)
	_ = sum
	return nil
}

// defaultDocument is the fixture parsed by parse_json units when the plan
// carries no document of its own.
var defaultDocument = json.RawMessage(`{
	"order": {
		"id": 4211,
		"user_id": 42110,
		"status": "pending",
		"total": 99.99,
		"items": [
			{"product_id": 1, "quantity": 2, "price": 29.99},
			{"product_id": 2, "quantity": 1, "price": 39.99}
		]
	}
}`)
