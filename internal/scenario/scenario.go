// Package scenario is the declarative catalog of benchmark scenarios.
// The CLI uses this metadata to build unit plans, apply warm-ups, and
// document what each scenario needs, so adding a workload never touches
// the orchestration code.
package scenario

import (
	"fmt"
	"sort"

	"github.com/user/taskbench/internal/engine"
	"github.com/user/taskbench/internal/workload"
)

// Definition describes one benchmark scenario.
type Definition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Workload    string   `json:"workload"`
	TaskCount   int      `json:"task_count"`
	WorkerCount int      `json:"worker_count"`
	WarmupUnits int      `json:"warmup_units"`
	Tags        []string `json:"tags,omitempty"`
	// Requirements names external services the scenario depends on, for
	// preflight messages ("redis", "mock-api").
	Requirements []string `json:"requirements,omitempty"`
	Implemented  bool     `json:"implemented"`
	Notes        string   `json:"notes,omitempty"`
}

// Plan builds the unit plan for this scenario. Seed pins the mixed
// workload's interleaving.
func (d Definition) Plan(seed int64) ([]engine.Unit, error) {
	if !d.Implemented {
		return nil, fmt.Errorf("scenario %s (%s) is not implemented yet", d.ID, d.Name)
	}
	return workload.Plan(d.Workload, d.TaskCount, seed)
}

var registry = map[string]Definition{
	"throughput": {
		ID:          "throughput",
		Name:        "Basic Throughput",
		Description: "20k no-op tasks to establish pure broker throughput.",
		Workload:    workload.KindNoop,
		TaskCount:   20000,
		WorkerCount: 10,
		WarmupUnits: 1000,
		Tags:        []string{"baseline"},
		Implemented: true,
		Notes:       "Workers kept at 10 so dispatch, not execution, is the bottleneck.",
	},
	"io-bound": {
		ID:           "io-bound",
		Name:         "I/O-Bound",
		Description:  "HTTP heavy workload hitting the mock API with concurrent fan-out.",
		Workload:     "io",
		TaskCount:    5000,
		WorkerCount:  10,
		WarmupUnits:  500,
		Tags:         []string{"io", "mock-api"},
		Requirements: []string{"mock-api"},
		Implemented:  true,
	},
	"cpu-bound": {
		ID:          "cpu-bound",
		Name:        "CPU-Bound",
		Description: "PBKDF2 hashing to stress worker parallelism.",
		Workload:    "cpu",
		TaskCount:   1000,
		WorkerCount: 10,
		WarmupUnits: 100,
		Tags:        []string{"cpu"},
		Implemented: true,
	},
	"mixed": {
		ID:           "mixed",
		Name:         "Mixed Workload",
		Description:  "Blend of 60% light I/O, 30% light CPU, and 10% heavy CPU to mimic real services.",
		Workload:     "mixed",
		TaskCount:    10000,
		WorkerCount:  10,
		WarmupUnits:  500,
		Tags:         []string{"mixed", "mock-api"},
		Requirements: []string{"mock-api"},
		Implemented:  true,
	},
	"serialization": {
		ID:          "serialization",
		Name:        "Serialization",
		Description: "Payload encoding efficiency across small, large, and binary bodies.",
		Workload:    workload.KindParseJSON,
		TaskCount:   5000,
		WorkerCount: 10,
		Tags:        []string{"serialization"},
	},
	"scalability": {
		ID:          "scalability",
		Name:        "Scalability Sweep",
		Description: "Ramp from 1k to 100k tasks to study saturation and queue depth.",
		Workload:    workload.KindNoop,
		TaskCount:   100000,
		WorkerCount: 10,
		Tags:        []string{"scale"},
	},
	"pipeline": {
		ID:          "pipeline",
		Name:        "Real-World Pipeline",
		Description: "E-commerce style orchestrations with retries.",
		Workload:    "mixed",
		TaskCount:   2000,
		WorkerCount: 10,
		Tags:        []string{"pipeline"},
	},
	"cold-start": {
		ID:          "cold-start",
		Name:        "Cold Start",
		Description: "Measure worker spin-up and first task latency.",
		Workload:    workload.KindNoop,
		TaskCount:   200,
		WorkerCount: 10,
		Tags:        []string{"startup"},
	},
}

// Get returns the named scenario definition.
func Get(id string) (Definition, error) {
	def, ok := registry[id]
	if !ok {
		return Definition{}, fmt.Errorf("unknown scenario %q (run `taskbench scenarios` for the list)", id)
	}
	return def, nil
}

// List returns all definitions sorted by ID, implemented first.
func List() []Definition {
	defs := make([]Definition, 0, len(registry))
	for _, d := range registry {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Implemented != defs[j].Implemented {
			return defs[i].Implemented
		}
		return defs[i].ID < defs[j].ID
	})
	return defs
}

// Implemented returns only the runnable definitions, sorted by ID.
func Implemented() []Definition {
	var defs []Definition
	for _, d := range registry {
		if d.Implemented {
			defs = append(defs, d)
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].ID < defs[j].ID })
	return defs
}
