package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/user/taskbench/internal/backend"
	"github.com/user/taskbench/internal/config"
	"github.com/user/taskbench/internal/engine"
	"github.com/user/taskbench/internal/observability"
	"github.com/user/taskbench/internal/procman"
	"github.com/user/taskbench/internal/report"
	"github.com/user/taskbench/internal/sampler"
	"github.com/user/taskbench/internal/scenario"
)

var (
	runConfigPath string
	runBackend    string
	runScenario   string
	runUnits      int
	runWorkers    int
	runRepeats    int
	runSeed       int64
	runTimeout    time.Duration

	runDataDir   string
	runKVEngine  string
	runAPIBase   string
	runRedisAddr string
	runRedisDB   int
	runServerURL string
	runQueue     string

	runOutput    string
	runHistoryDB string

	runOtelEnabled  bool
	runOtelEndpoint string

	runSpawnWorkers int
	runWorkerLogDir string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark scenario against a backend",
	RunE:  runBenchmark,
}

func init() {
	runCmd.Flags().StringVar(&runConfigPath, "config", "", "Benchmark config file (JSON); flags override it")
	runCmd.Flags().StringVar(&runBackend, "backend", "", "Backend: local, redis, or http")
	runCmd.Flags().StringVar(&runScenario, "scenario", "", "Scenario ID (see `taskbench scenarios`)")
	runCmd.Flags().IntVar(&runUnits, "units", 0, "Override the scenario's task count")
	runCmd.Flags().IntVar(&runWorkers, "workers", 0, "Override the scenario's worker count")
	runCmd.Flags().IntVar(&runRepeats, "runs", 0, "Number of benchmark repetitions")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "Seed for mixed workload interleaving")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Per-run completion timeout")

	runCmd.Flags().StringVar(&runDataDir, "data-dir", "data", "Local backend data directory")
	runCmd.Flags().StringVar(&runKVEngine, "engine", "badger", "Local backend KV engine: badger or pebble")
	runCmd.Flags().StringVar(&runAPIBase, "api-base", "", "Mock API base URL for I/O workloads")
	runCmd.Flags().StringVar(&runRedisAddr, "redis-addr", "localhost:6379", "Redis backend address")
	runCmd.Flags().IntVar(&runRedisDB, "redis-db", 0, "Redis backend database number")
	runCmd.Flags().StringVar(&runServerURL, "server", "", "HTTP backend queue server URL")
	runCmd.Flags().StringVar(&runQueue, "queue", "bench", "Queue name")

	runCmd.Flags().StringVar(&runOutput, "output", "", "Write the result artifact to this JSON file")
	runCmd.Flags().StringVar(&runHistoryDB, "history-db", "", "Archive the result in this sqlite database")

	runCmd.Flags().BoolVar(&runOtelEnabled, "otel-enabled", false, "Enable OpenTelemetry tracing")
	runCmd.Flags().StringVar(&runOtelEndpoint, "otel-endpoint", "", "OTLP HTTP endpoint for traces; empty means stdout exporter")

	runCmd.Flags().IntVar(&runSpawnWorkers, "spawn-workers", 0, "Spawn this many `taskbench worker` processes for the redis backend")
	runCmd.Flags().StringVar(&runWorkerLogDir, "worker-logs", "logs", "Directory for spawned worker logs")
}

// buildRunConfig merges file config and flags, flags winning.
func buildRunConfig() (config.Config, error) {
	cfg := config.Default()
	if runConfigPath != "" {
		loaded, err := config.Load(runConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if runBackend != "" {
		cfg.Backend.Kind = runBackend
	}
	if runScenario != "" {
		cfg.Scenario = runScenario
	}
	if runUnits > 0 {
		cfg.Units = runUnits
	}
	if runWorkers > 0 {
		cfg.Workers = runWorkers
	}
	if runRepeats > 0 {
		cfg.Runs = runRepeats
	}
	if runSeed != 0 {
		cfg.Seed = runSeed
	}
	if runTimeout > 0 {
		cfg.TimeoutSeconds = int(runTimeout.Seconds())
	}
	if runOutput != "" {
		cfg.Output = runOutput
	}
	if runHistoryDB != "" {
		cfg.HistoryDB = runHistoryDB
	}
	if cfg.Backend.Queue == "" || runQueue != "bench" {
		cfg.Backend.Queue = runQueue
	}
	if cfg.Backend.Dir == "" {
		cfg.Backend.Dir = runDataDir
	}
	if cfg.Backend.KVEngine == "" {
		cfg.Backend.KVEngine = runKVEngine
	}
	if runAPIBase != "" {
		cfg.Backend.APIBase = runAPIBase
	}
	if cfg.Backend.RedisAddr == "" {
		cfg.Backend.RedisAddr = runRedisAddr
	}
	if runRedisDB != 0 {
		cfg.Backend.RedisDB = runRedisDB
	}
	if runServerURL != "" {
		cfg.Backend.ServerURL = runServerURL
	}
	return cfg, nil
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	cfg, err := buildRunConfig()
	if err != nil {
		return err
	}

	def, err := scenario.Get(cfg.Scenario)
	if err != nil {
		return err
	}
	units := cfg.Units
	if units <= 0 {
		units = def.TaskCount
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = def.WorkerCount
	}
	def.TaskCount = units
	plan, err := def.Plan(cfg.Seed)
	if err != nil {
		return err
	}
	for _, req := range def.Requirements {
		if req == "mock-api" && cfg.Backend.APIBase == "" {
			return fmt.Errorf("scenario %s needs --api-base pointing at `taskbench mockapi`", def.ID)
		}
	}

	shutdownTracer, err := observability.InitTracer(runOtelEnabled, runOtelEndpoint)
	if err != nil {
		return err
	}
	defer shutdownTracer(context.Background())

	cfg.Backend.Workers = workers
	be, err := backend.Open(cfg.Backend)
	if err != nil {
		return err
	}
	defer be.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := be.Start(ctx); err != nil {
		return fmt.Errorf("start backend: %w", err)
	}

	if runSpawnWorkers > 0 {
		if cfg.Backend.Kind != "redis" {
			return fmt.Errorf("--spawn-workers only applies to the redis backend")
		}
		self, err := os.Executable()
		if err != nil {
			return fmt.Errorf("locate own binary: %w", err)
		}
		pm := procman.New(runWorkerLogDir)
		if err := pm.Start(procman.WorkerSpec{
			Name:    "redis",
			Command: self,
			Args: []string{
				"worker",
				"--redis-addr", cfg.Backend.RedisAddr,
				"--queue", cfg.Backend.Queue,
				"--concurrency", fmt.Sprintf("%d", workers),
				"--api-base", cfg.Backend.APIBase,
			},
			Count: runSpawnWorkers,
		}); err != nil {
			return fmt.Errorf("spawn workers: %w", err)
		}
		defer pm.Stop()
		// Give the workers a moment to connect before dispatch starts.
		time.Sleep(2 * time.Second)
	}

	runCfg := engine.DefaultRunConfig()
	runCfg.Backend = cfg.Backend.Kind
	if cfg.Backend.Kind == "" || cfg.Backend.Kind == "local" {
		runCfg.Backend = "local"
		runCfg.Engine = cfg.Backend.KVEngine
	}
	runCfg.Scenario = def.ID
	runCfg.Units = units
	runCfg.Workers = workers
	runCfg.Runs = cfg.Runs
	runCfg.WarmupUnits = def.WarmupUnits
	if cfg.TimeoutSeconds > 0 {
		runCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}

	proc, err := sampler.Self()
	if err != nil {
		return fmt.Errorf("attach resource sampler: %w", err)
	}
	runner := engine.NewRunner(be, proc, runCfg)

	slog.Info("benchmark starting",
		"backend", runCfg.Backend,
		"scenario", def.ID,
		"units", units,
		"workers", workers,
		"runs", runCfg.Runs,
	)

	bar := progressbar.NewOptions(runCfg.Runs,
		progressbar.OptionSetDescription(fmt.Sprintf("%s/%s", runCfg.Backend, def.ID)),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	summary := &engine.RunSummary{Config: runner.Config()}
	for i := 0; i < runCfg.Runs; i++ {
		result, err := runner.Run(ctx, plan)
		if err != nil {
			return fmt.Errorf("run %d: %w", i+1, err)
		}
		summary.Results = append(summary.Results, result)
		bar.Add(1)
	}
	bar.Finish()

	art := report.Build(summary)
	report.RenderSummary(os.Stdout, art)

	if cfg.Output != "" {
		if err := report.WriteFile(cfg.Output, art); err != nil {
			return err
		}
		slog.Info("artifact written", "path", cfg.Output)
	}
	if cfg.HistoryDB != "" {
		h, err := report.OpenHistory(cfg.HistoryDB)
		if err != nil {
			return err
		}
		defer h.Close()
		id, err := h.Save(art)
		if err != nil {
			return err
		}
		slog.Info("artifact archived", "db", cfg.HistoryDB, "id", id)
	}
	return nil
}
