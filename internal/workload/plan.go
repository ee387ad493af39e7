package workload

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/user/taskbench/internal/engine"
)

// Mixed workload split, as percentages of the total plan.
const (
	mixedIOShare       = 60
	mixedLightCPUShare = 30
)

// Uniform builds a plan of n identical units.
func Uniform(n int, kind string, payload json.RawMessage) []engine.Unit {
	units := make([]engine.Unit, n)
	for i := range units {
		units[i] = engine.Unit{Kind: kind, Payload: payload}
	}
	return units
}

// FetchUsers builds a plan of n fetch_user units with distinct IDs and the
// given simulated latency.
func FetchUsers(n, latencyMS int) []engine.Unit {
	units := make([]engine.Unit, n)
	for i := range units {
		payload, _ := json.Marshal(FetchPayload{ID: i, LatencyMS: latencyMS})
		units[i] = engine.Unit{Kind: KindFetchUser, Payload: payload}
	}
	return units
}

// Mixed builds the mixed-workload plan: 60% light I/O, 30% light CPU, 10%
// heavy CPU, shuffled deterministically by seed so repeated runs dispatch
// the same interleaving.
func Mixed(n int, seed int64) []engine.Unit {
	units := make([]engine.Unit, 0, n)
	ioCount := n * mixedIOShare / 100
	lightCount := n * mixedLightCPUShare / 100

	for i := 0; i < ioCount; i++ {
		payload, _ := json.Marshal(FetchPayload{ID: i, LatencyMS: 50})
		units = append(units, engine.Unit{Kind: KindFetchUser, Payload: payload})
	}
	for i := 0; i < lightCount; i++ {
		units = append(units, engine.Unit{Kind: KindParseJSON})
	}
	for len(units) < n {
		units = append(units, engine.Unit{Kind: KindHashData})
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(units), func(i, j int) {
		units[i], units[j] = units[j], units[i]
	})
	return units
}

// Plan builds the unit plan for a named workload.
func Plan(name string, n int, seed int64) ([]engine.Unit, error) {
	switch name {
	case "", KindNoop:
		return Uniform(n, KindNoop, nil), nil
	case KindSleep:
		payload, _ := json.Marshal(SleepPayload{DurationMS: 10})
		return Uniform(n, KindSleep, payload), nil
	case KindFetchUser, "io":
		return FetchUsers(n, 100), nil
	case KindParseJSON:
		return Uniform(n, KindParseJSON, nil), nil
	case KindPBKDF2, "cpu":
		payload, _ := json.Marshal(PBKDF2Payload{Iterations: 100000})
		return Uniform(n, KindPBKDF2, payload), nil
	case KindHashData:
		return Uniform(n, KindHashData, nil), nil
	case "mixed":
		return Mixed(n, seed), nil
	default:
		return nil, fmt.Errorf("unknown workload %q", name)
	}
}
