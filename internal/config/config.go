// Package config loads and validates the benchmark configuration file.
// The file is JSON, checked against an embedded schema before decoding so
// typos fail loudly instead of silently falling back to defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/user/taskbench/internal/backend"
)

// Config is the full benchmark configuration.
type Config struct {
	Backend  backend.Config `json:"backend"`
	Scenario string         `json:"scenario,omitempty"`

	// Overrides for the scenario's defaults. Zero means "use the
	// scenario's value".
	Units   int `json:"units,omitempty"`
	Workers int `json:"workers,omitempty"`
	Runs    int `json:"runs,omitempty"`

	Seed           int64  `json:"seed,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	Output         string `json:"output,omitempty"`
	HistoryDB      string `json:"history_db,omitempty"`
	LogLevel       string `json:"log_level,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Backend:  backend.Config{Kind: "local", Queue: "bench"},
		Scenario: "throughput",
		Runs:     10,
		Seed:     1,
	}
}

const schemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"additionalProperties": false,
	"properties": {
		"backend": {
			"type": "object",
			"additionalProperties": false,
			"properties": {
				"kind": {"type": "string", "enum": ["local", "redis", "http"]},
				"queue": {"type": "string"},
				"dir": {"type": "string"},
				"kv_engine": {"type": "string", "enum": ["badger", "pebble"]},
				"workers": {"type": "integer", "minimum": 1},
				"api_base": {"type": "string"},
				"redis_addr": {"type": "string"},
				"redis_db": {"type": "integer", "minimum": 0},
				"server_url": {"type": "string"}
			}
		},
		"scenario": {"type": "string"},
		"units": {"type": "integer", "minimum": 1},
		"workers": {"type": "integer", "minimum": 1},
		"runs": {"type": "integer", "minimum": 1},
		"seed": {"type": "integer"},
		"timeout_seconds": {"type": "integer", "minimum": 1},
		"output": {"type": "string"},
		"history_db": {"type": "string"},
		"log_level": {"type": "string", "enum": ["debug", "info", "warn", "error"]}
	}
}`

// Load reads and validates a configuration file. Fields the file omits
// keep the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := Validate(data); err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks raw config JSON against the schema.
func Validate(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	docLoader := gojsonschema.NewStringLoader(string(data))
	res, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if res.Valid() {
		return nil
	}
	var msgs []string
	for _, item := range res.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", item.Field(), item.Description()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
