package procman

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStartAndStopWorkers(t *testing.T) {
	logDir := t.TempDir()
	m := New(logDir)

	err := m.Start(WorkerSpec{
		Name:    "sleeper",
		Command: "sleep",
		Args:    []string{"60"},
		Count:   2,
	})
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if got := m.Running(); got != 2 {
		t.Fatalf("Running() = %d, want 2", got)
	}

	for i := 0; i < 2; i++ {
		logPath := filepath.Join(logDir, "sleeper_worker_"+string(rune('0'+i))+".log")
		if _, err := os.Stat(logPath); err != nil {
			t.Errorf("log file %s missing: %v", logPath, err)
		}
	}

	start := time.Now()
	m.Stop()
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("Stop() took %v, SIGTERM should be quick", elapsed)
	}
	if got := m.Running(); got != 0 {
		t.Errorf("Running() after stop = %d, want 0", got)
	}
}

func TestStartReplacesPrevious(t *testing.T) {
	m := New(t.TempDir())
	if err := m.Start(WorkerSpec{Name: "a", Command: "sleep", Args: []string{"60"}}); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if err := m.Start(WorkerSpec{Name: "b", Command: "sleep", Args: []string{"60"}}); err != nil {
		t.Fatalf("second Start() error: %v", err)
	}
	defer m.Stop()
	if got := m.Running(); got != 1 {
		t.Errorf("Running() = %d, want 1 after restart", got)
	}
}

func TestStartBadCommand(t *testing.T) {
	m := New(t.TempDir())
	if err := m.Start(WorkerSpec{Name: "bad", Command: "/nonexistent/binary"}); err == nil {
		m.Stop()
		t.Fatal("Start() expected error for missing binary")
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := New(t.TempDir())
	m.Stop()
}
