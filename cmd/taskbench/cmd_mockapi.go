package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/taskbench/internal/mockapi"
)

var mockapiBind string

var mockapiCmd = &cobra.Command{
	Use:   "mockapi",
	Short: "Run the mock external API for I/O-bound scenarios",
	RunE:  runMockAPI,
}

func init() {
	mockapiCmd.Flags().StringVar(&mockapiBind, "bind", ":8080", "Bind address")
}

func runMockAPI(cmd *cobra.Command, args []string) error {
	srv := mockapi.New(mockapiBind)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
