package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/flagz/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the trainer over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:8420)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	e, err := setup(cmd, false)
	if err != nil {
		return err
	}
	defer e.close()

	if err := e.awaitRoster(ctx); err != nil {
		return err
	}

	trainer := e.trainer(nil)
	srv := &http.Server{
		Addr:              e.cfg.Server.Addr,
		Handler:           api.New(trainer, e.loc, e.catalog.CategoryOf, e.log.Named("api")).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.log.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	e.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return e.tracker.Flush(shutdownCtx)
}
