package workload

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExecutorNoop(t *testing.T) {
	e := NewExecutor("")
	if err := e.Run(context.Background(), KindNoop, nil); err != nil {
		t.Fatalf("Run(noop) error: %v", err)
	}
	if err := e.Run(context.Background(), "", nil); err != nil {
		t.Fatalf("Run(empty kind) error: %v", err)
	}
}

func TestExecutorUnknownKind(t *testing.T) {
	e := NewExecutor("")
	if err := e.Run(context.Background(), "bogus", nil); err == nil {
		t.Fatal("Run(bogus) expected error")
	}
}

func TestExecutorSleepHonorsContext(t *testing.T) {
	e := NewExecutor("")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	payload, _ := json.Marshal(SleepPayload{DurationMS: 5000})
	start := time.Now()
	err := e.Run(ctx, KindSleep, payload)
	if err == nil {
		t.Fatal("Run(sleep) expected context error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("sleep ignored cancellation, took %v", elapsed)
	}
}

func TestExecutorFetchUser(t *testing.T) {
	var gotPath, gotLatency string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLatency = r.URL.Query().Get("latency")
		json.NewEncoder(w).Encode(map[string]any{"id": 7, "name": "User 7"})
	}))
	defer srv.Close()

	e := NewExecutor(srv.URL)
	payload, _ := json.Marshal(FetchPayload{ID: 7, LatencyMS: 25})
	if err := e.Run(context.Background(), KindFetchUser, payload); err != nil {
		t.Fatalf("Run(fetch_user) error: %v", err)
	}
	if gotPath != "/users/7" {
		t.Errorf("path = %q, want /users/7", gotPath)
	}
	if gotLatency != "25" {
		t.Errorf("latency = %q, want 25", gotLatency)
	}
}

func TestExecutorFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	e := NewExecutor(srv.URL)
	if err := e.Run(context.Background(), KindFetchUser, nil); err == nil {
		t.Fatal("Run(fetch_user) expected error on 500")
	}
}

func TestExecutorFetchWithoutBase(t *testing.T) {
	e := NewExecutor("")
	if err := e.Run(context.Background(), KindFetchUser, nil); err == nil {
		t.Fatal("Run(fetch_user) without api base expected error")
	}
}

func TestExecutorCPUKinds(t *testing.T) {
	e := NewExecutor("")
	payload, _ := json.Marshal(PBKDF2Payload{Iterations: 10})
	if err := e.Run(context.Background(), KindPBKDF2, payload); err != nil {
		t.Fatalf("Run(pbkdf2) error: %v", err)
	}
	if err := e.Run(context.Background(), KindParseJSON, nil); err != nil {
		t.Fatalf("Run(parse_json) error: %v", err)
	}
	hashPayload, _ := json.Marshal(HashDataPayload{SizeKB: 1})
	if err := e.Run(context.Background(), KindHashData, hashPayload); err != nil {
		t.Fatalf("Run(hash_data) error: %v", err)
	}
}

func TestMixedPlanSplit(t *testing.T) {
	units := Mixed(100, 1)
	if len(units) != 100 {
		t.Fatalf("len(units) = %d, want 100", len(units))
	}
	counts := map[string]int{}
	for _, u := range units {
		counts[u.Kind]++
	}
	if counts[KindFetchUser] != 60 {
		t.Errorf("fetch_user count = %d, want 60", counts[KindFetchUser])
	}
	if counts[KindParseJSON] != 30 {
		t.Errorf("parse_json count = %d, want 30", counts[KindParseJSON])
	}
	if counts[KindHashData] != 10 {
		t.Errorf("hash_data count = %d, want 10", counts[KindHashData])
	}
}

func TestMixedPlanDeterministic(t *testing.T) {
	a := Mixed(50, 7)
	b := Mixed(50, 7)
	for i := range a {
		if a[i].Kind != b[i].Kind {
			t.Fatalf("plan diverges at %d: %s vs %s", i, a[i].Kind, b[i].Kind)
		}
	}
	c := Mixed(50, 8)
	same := true
	for i := range a {
		if a[i].Kind != c[i].Kind {
			same = false
			break
		}
	}
	if same {
		t.Error("different seeds produced identical interleaving")
	}
}

func TestPlanNames(t *testing.T) {
	for _, name := range []string{"", "noop", "sleep", "io", "cpu", "parse_json", "hash_data", "mixed"} {
		units, err := Plan(name, 10, 1)
		if err != nil {
			t.Fatalf("Plan(%q) error: %v", name, err)
		}
		if len(units) != 10 {
			t.Fatalf("Plan(%q) len = %d, want 10", name, len(units))
		}
	}
	if _, err := Plan("nope", 10, 1); err == nil {
		t.Fatal("Plan(nope) expected error")
	}
}
