package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/user/taskbench/internal/backend"
)

var (
	workerRedisAddr   string
	workerRedisDB     int
	workerQueue       string
	workerConcurrency int
	workerAPIBase     string
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run a Redis queue worker process",
	Long:  "Consumes the Redis list queue dispatched to by `taskbench run --backend redis`. Meant to run as one or more separate processes so the benchmark exercises real cross-process queueing.",
	RunE:  runWorker,
}

func init() {
	workerCmd.Flags().StringVar(&workerRedisAddr, "redis-addr", "localhost:6379", "Redis address")
	workerCmd.Flags().IntVar(&workerRedisDB, "redis-db", 0, "Redis database number")
	workerCmd.Flags().StringVar(&workerQueue, "queue", "bench", "Queue name")
	workerCmd.Flags().IntVar(&workerConcurrency, "concurrency", 10, "Concurrent task executions")
	workerCmd.Flags().StringVar(&workerAPIBase, "api-base", "", "Mock API base URL for I/O workloads")
}

func runWorker(cmd *cobra.Command, args []string) error {
	w := backend.NewRedisWorker(backend.Config{
		Kind:      "redis",
		Queue:     workerQueue,
		RedisAddr: workerRedisAddr,
		RedisDB:   workerRedisDB,
		APIBase:   workerAPIBase,
	}, workerConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	slog.Info("worker shutting down")
	w.Stop()
	return nil
}
