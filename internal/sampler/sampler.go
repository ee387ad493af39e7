// Package sampler reads CPU and resident-memory usage for a single OS
// process, backed by gopsutil. It satisfies the engine's ResourceSampler
// contract: the first CPUPercent call primes the accounting window and
// returns an unreliable value that callers must discard.
package sampler

import (
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v4/process"
)

// Process samples one attached OS process.
type Process struct {
	proc *process.Process
}

// Self attaches to the current process.
func Self() (*Process, error) {
	return ForPID(os.Getpid())
}

// ForPID attaches to an arbitrary process, e.g. an external worker.
func ForPID(pid int) (*Process, error) {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return nil, fmt.Errorf("attach process %d: %w", pid, err)
	}
	return &Process{proc: p}, nil
}

// CPUPercent returns CPU utilization since the previous call.
func (p *Process) CPUPercent() (float64, error) {
	return p.proc.Percent(0)
}

// MemoryMB returns resident set size in megabytes.
func (p *Process) MemoryMB() (float64, error) {
	info, err := p.proc.MemoryInfo()
	if err != nil {
		return 0, err
	}
	return float64(info.RSS) / 1024 / 1024, nil
}
