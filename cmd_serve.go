package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-listings/pkg/audit"
	"github.com/ekaya-inc/ekaya-listings/pkg/handlers"
	"github.com/ekaya-inc/ekaya-listings/pkg/middleware"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting ekaya-listings",
			zap.String("addr", srv.Addr),
			zap.String("version", a.cfg.Version),
			zap.String("env", a.cfg.Env),
			zap.Strings("stores", a.stores.Names()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// routes builds the HTTP handler tree.
func (a *app) routes() http.Handler {
	mux := http.NewServeMux()

	handlers.NewHealthHandler(a.cfg, a.storeSet, a.logger).RegisterRoutes(mux)
	handlers.NewListingsHandler(a.search, audit.NewSecurityAuditor(a.logger), a.logger).RegisterRoutes(mux)
	handlers.NewDiagnosticsHandler(a.diagnostics, a.logger).RegisterRoutes(mux)
	handlers.NewAgencyHandler(a.agencies, a.logger).RegisterRoutes(mux)

	return middleware.Chain(mux,
		middleware.RequestID(),
		middleware.RequestLogger(a.logger),
		middleware.Recover(a.logger),
	)
}
