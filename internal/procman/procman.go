// Package procman launches and stops external worker processes for
// benchmark runs that measure out-of-process workers, such as Redis
// consumers started as separate taskbench commands.
package procman

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// WorkerSpec describes one group of identical worker processes.
type WorkerSpec struct {
	// Name labels the group in log file names.
	Name string
	// Command and Args form the process command line.
	Command string
	Args    []string
	// Count is how many copies to launch.
	Count int
	// Env entries are appended to the parent environment.
	Env []string
}

// Manager owns a set of launched worker processes. Stop is best-effort:
// SIGTERM first, SIGKILL after the grace period.
type Manager struct {
	logDir string
	grace  time.Duration

	mu    sync.Mutex
	procs []*exec.Cmd
	logs  []*os.File
}

// New creates a manager writing per-process logs under logDir.
func New(logDir string) *Manager {
	return &Manager{
		logDir: logDir,
		grace:  5 * time.Second,
	}
}

// Start launches every process in the spec. Already-running processes
// from a previous Start are stopped first.
func (m *Manager) Start(specs ...WorkerSpec) error {
	m.Stop()

	if err := os.MkdirAll(m.logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, spec := range specs {
		count := spec.Count
		if count <= 0 {
			count = 1
		}
		for i := 0; i < count; i++ {
			logPath := filepath.Join(m.logDir, fmt.Sprintf("%s_worker_%d.log", spec.Name, i))
			logFile, err := os.Create(logPath)
			if err != nil {
				return fmt.Errorf("create worker log: %w", err)
			}

			cmd := exec.Command(spec.Command, spec.Args...)
			cmd.Stdout = logFile
			cmd.Stderr = logFile
			cmd.Env = append(os.Environ(), spec.Env...)
			// Own process group so Stop can signal workers without
			// hitting the benchmark process itself.
			cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

			if err := cmd.Start(); err != nil {
				logFile.Close()
				return fmt.Errorf("start %s worker %d: %w", spec.Name, i, err)
			}
			slog.Info("worker started", "group", spec.Name, "pid", cmd.Process.Pid, "log", logPath)
			m.procs = append(m.procs, cmd)
			m.logs = append(m.logs, logFile)
		}
	}
	return nil
}

// Running reports how many processes are currently managed.
func (m *Manager) Running() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.procs)
}

// Stop terminates all managed processes. Workers ignoring SIGTERM are
// killed after the grace period.
func (m *Manager) Stop() {
	m.mu.Lock()
	procs := m.procs
	logs := m.logs
	m.procs = nil
	m.logs = nil
	m.mu.Unlock()

	if len(procs) == 0 {
		return
	}
	slog.Info("stopping workers", "count", len(procs))

	for _, cmd := range procs {
		if cmd.Process == nil {
			continue
		}
		// Negative pid signals the whole process group.
		_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}

	for _, cmd := range procs {
		if cmd.Process == nil {
			continue
		}
		done := make(chan error, 1)
		go func() { done <- cmd.Wait() }()
		select {
		case <-done:
		case <-time.After(m.grace):
			slog.Warn("worker ignored SIGTERM, killing", "pid", cmd.Process.Pid)
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
			<-done
		}
	}

	for _, f := range logs {
		f.Close()
	}
}
