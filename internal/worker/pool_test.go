package worker

import (
	"context"
	"testing"
	"time"

	"github.com/user/taskbench/internal/broker"
	"github.com/user/taskbench/internal/workload"
)

func openTestBroker(t *testing.T) *broker.Broker {
	t.Helper()
	b, err := broker.Open(t.TempDir(), "badger")
	if err != nil {
		t.Fatalf("broker.Open() error: %v", err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func waitForDrain(t *testing.T, b *broker.Broker, queue string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if p, r := b.Depth(queue); p == 0 && r == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	p, r := b.Depth(queue)
	t.Fatalf("queue did not drain: %d pending, %d running", p, r)
}

func TestPoolDrainsQueue(t *testing.T) {
	b := openTestBroker(t)
	for i := 0; i < 50; i++ {
		if _, err := b.Enqueue("bench", workload.KindNoop, nil); err != nil {
			t.Fatalf("Enqueue() error: %v", err)
		}
	}

	p := NewPool(b, workload.NewExecutor(""), "bench", 4)
	p.Start(context.Background())
	defer p.Stop()

	waitForDrain(t, b, "bench", 5*time.Second)
	p.Stop()

	if got := p.Processed(); got != 50 {
		t.Errorf("Processed() = %d, want 50", got)
	}
	if got := p.Failed(); got != 0 {
		t.Errorf("Failed() = %d, want 0", got)
	}
}

func TestPoolBuriesFailingJobs(t *testing.T) {
	b := openTestBroker(t)
	if _, err := b.Enqueue("bench", "does-not-exist", nil); err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}

	p := NewPool(b, workload.NewExecutor(""), "bench", 1)
	p.Start(context.Background())
	defer p.Stop()

	waitForDrain(t, b, "bench", 5*time.Second)
	p.Stop()

	if got := p.Failed(); got == 0 {
		t.Error("Failed() = 0, want failures for unknown kind")
	}
	dead, err := b.DeadCount("bench")
	if err != nil {
		t.Fatalf("DeadCount() error: %v", err)
	}
	if dead != 1 {
		t.Errorf("DeadCount() = %d, want 1", dead)
	}
}

func TestPoolStopBeforeStart(t *testing.T) {
	b := openTestBroker(t)
	p := NewPool(b, workload.NewExecutor(""), "bench", 2)
	p.Stop()
}

func TestPoolContextCancellation(t *testing.T) {
	b := openTestBroker(t)
	p := NewPool(b, workload.NewExecutor(""), "bench", 2)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		p.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop after context cancellation")
	}
}
