// Package broker is an embedded FIFO job queue over a pluggable ordered
// KV engine. It exists so the benchmark harness has a self-contained
// backend that needs no external services, while still exercising a real
// enqueue/fetch/ack lifecycle.
package broker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Key prefixes. IDs are sortable, so iteration order within a prefix is
// enqueue order.
const (
	pendingPrefix = "p|"
	runningPrefix = "r|"
	deadPrefix    = "d|"
)

const maxAttempts = 3

// Job is one queued unit of work.
type Job struct {
	ID         string          `json:"id"`
	Queue      string          `json:"queue"`
	Kind       string          `json:"kind"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Attempt    int             `json:"attempt"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Broker wraps a KV engine with queue semantics and in-memory depth
// counters. All mutating operations are serialized; the benchmark's
// dispatch loop is sequential by design and workers contend only on Fetch.
type Broker struct {
	mu      sync.Mutex
	kv      Engine
	pending map[string]int
	running map[string]int
}

// Open opens a broker rooted at dir using the named engine ("badger" or
// "pebble"). Depth counters start at zero; callers that reopen a dirty
// directory should Recover or Clear each queue first.
func Open(dir, engine string) (*Broker, error) {
	kv, err := OpenEngine(engine, dir)
	if err != nil {
		return nil, err
	}
	return &Broker{
		kv:      kv,
		pending: make(map[string]int),
		running: make(map[string]int),
	}, nil
}

// Recover rebuilds the depth counters for a queue from the store.
func (b *Broker) Recover(queue string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, err := b.kv.CountPrefix([]byte(pendingPrefix + queue + "|"))
	if err != nil {
		return fmt.Errorf("recover %s: %w", queue, err)
	}
	r, err := b.kv.CountPrefix([]byte(runningPrefix + queue + "|"))
	if err != nil {
		return fmt.Errorf("recover %s: %w", queue, err)
	}
	b.pending[queue] = p
	b.running[queue] = r
	return nil
}

// Close closes the underlying engine.
func (b *Broker) Close() error {
	return b.kv.Close()
}

// Enqueue appends a job to the queue and returns its ID.
func (b *Broker) Enqueue(queue, kind string, payload json.RawMessage) (string, error) {
	job := Job{
		ID:         NewID(),
		Queue:      queue,
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now(),
	}
	data, err := json.Marshal(job)
	if err != nil {
		return "", fmt.Errorf("marshal job: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.kv.Put(jobKey(pendingPrefix, queue, job.ID), data); err != nil {
		return "", fmt.Errorf("enqueue: %w", err)
	}
	b.pending[queue]++
	return job.ID, nil
}

// Fetch pops the oldest pending job and marks it running. Returns nil when
// the queue is empty.
func (b *Broker) Fetch(queue string) (*Job, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	key, data, err := b.kv.First([]byte(pendingPrefix + queue + "|"))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	if err := b.kv.Put(jobKey(runningPrefix, queue, job.ID), data); err != nil {
		return nil, fmt.Errorf("mark running: %w", err)
	}
	if err := b.kv.Delete(key); err != nil {
		return nil, fmt.Errorf("remove pending: %w", err)
	}
	b.pending[queue]--
	b.running[queue]++
	return &job, nil
}

// Ack removes a running job for good.
func (b *Broker) Ack(queue, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.kv.Delete(jobKey(runningPrefix, queue, id)); err != nil {
		return fmt.Errorf("ack: %w", err)
	}
	if b.running[queue] > 0 {
		b.running[queue]--
	}
	return nil
}

// Fail requeues a running job, or buries it after maxAttempts.
func (b *Broker) Fail(queue, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	runKey := jobKey(runningPrefix, queue, id)
	data, err := b.kv.Get(runKey)
	if err != nil {
		return fmt.Errorf("fail: %w", err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return fmt.Errorf("decode job: %w", err)
	}
	job.Attempt++

	updated, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if job.Attempt >= maxAttempts {
		if err := b.kv.Put(jobKey(deadPrefix, queue, id), updated); err != nil {
			return fmt.Errorf("bury: %w", err)
		}
	} else {
		if err := b.kv.Put(jobKey(pendingPrefix, queue, id), updated); err != nil {
			return fmt.Errorf("requeue: %w", err)
		}
		b.pending[queue]++
	}
	if err := b.kv.Delete(runKey); err != nil {
		return fmt.Errorf("remove running: %w", err)
	}
	if b.running[queue] > 0 {
		b.running[queue]--
	}
	return nil
}

// Depth returns the pending and running counts for a queue.
func (b *Broker) Depth(queue string) (pending, running int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending[queue], b.running[queue]
}

// Clear drops every job in the queue, whatever its state.
func (b *Broker) Clear(queue string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, prefix := range []string{pendingPrefix, runningPrefix, deadPrefix} {
		if err := b.kv.DeletePrefix([]byte(prefix + queue + "|")); err != nil {
			return fmt.Errorf("clear %s: %w", queue, err)
		}
	}
	b.pending[queue] = 0
	b.running[queue] = 0
	return nil
}

// DeadCount reports buried jobs, mostly for tests and diagnostics.
func (b *Broker) DeadCount(queue string) (int, error) {
	return b.kv.CountPrefix([]byte(deadPrefix + queue + "|"))
}

func jobKey(prefix, queue, id string) []byte {
	return []byte(prefix + queue + "|" + id)
}
