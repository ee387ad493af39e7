package queueclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnqueue(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/enqueue" {
			t.Errorf("path = %q, want /api/v1/enqueue", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if body["queue"] != "bench" {
			t.Errorf("queue = %v, want bench", body["queue"])
		}
		json.NewEncoder(w).Encode(EnqueueResult{JobID: "job_1", Status: "pending"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	res, err := c.Enqueue(context.Background(), "bench", map[string]string{"kind": "noop"})
	if err != nil {
		t.Fatalf("Enqueue() error: %v", err)
	}
	if res.JobID != "job_1" {
		t.Errorf("JobID = %q, want job_1", res.JobID)
	}
}

func TestStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/queues/bench/stats" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode(QueueStats{Name: "bench", Pending: 7, Active: 3})
	}))
	defer srv.Close()

	c := New(srv.URL)
	stats, err := c.Stats(context.Background(), "bench")
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Pending != 7 || stats.Active != 3 {
		t.Errorf("Stats() = %+v, want pending 7 active 3", stats)
	}
}

func TestClearQueue(t *testing.T) {
	var cleared bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/queues/bench/clear" {
			cleared = true
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.ClearQueue(context.Background(), "bench"); err != nil {
		t.Fatalf("ClearQueue() error: %v", err)
	}
	if !cleared {
		t.Error("clear endpoint not hit")
	}
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad queue", "code": "invalid"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Stats(context.Background(), "bench"); err == nil {
		t.Fatal("Stats() expected error on 400")
	}
}
