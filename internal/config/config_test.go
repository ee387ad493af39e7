package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `{
		"backend": {"kind": "redis", "queue": "q1", "redis_addr": "localhost:6380"},
		"scenario": "mixed",
		"units": 500,
		"runs": 3,
		"log_level": "debug"
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.Kind != "redis" || cfg.Backend.RedisAddr != "localhost:6380" {
		t.Errorf("backend = %+v", cfg.Backend)
	}
	if cfg.Scenario != "mixed" || cfg.Units != 500 || cfg.Runs != 3 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, `{"scenario": "cpu-bound"}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend.Kind != "local" {
		t.Errorf("Backend.Kind = %q, want local", cfg.Backend.Kind)
	}
	if cfg.Runs != 10 {
		t.Errorf("Runs = %d, want default 10", cfg.Runs)
	}
}

func TestLoadRejectsUnknownField(t *testing.T) {
	path := writeConfig(t, `{"scenaro": "typo"}`)
	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for unknown field")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []string{
		`{"backend": {"kind": "kafka"}}`,
		`{"runs": 0}`,
		`{"log_level": "loud"}`,
		`{"backend": {"kv_engine": "rocksdb"}}`,
	}
	for _, body := range cases {
		path := writeConfig(t, body)
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s) expected error", body)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("Load() expected error for missing file")
	}
}
