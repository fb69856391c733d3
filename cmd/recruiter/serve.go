package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/analytics"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/config"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/logger"
	"github.com/leiDanielAguila/recruiter-first/internal/platform/middleware"
	"github.com/leiDanielAguila/recruiter-first/internal/resume"
	"github.com/leiDanielAguila/recruiter-first/internal/session"
	"github.com/leiDanielAguila/recruiter-first/internal/web"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel)
	endpoints := cfg.Endpoints()

	tracker := analytics.NewTracker(endpoints, openStore(cfg.StateFile, log), log)
	client := resume.NewClient(endpoints.Analyze, cfg.AnalyzeTimeout, log)
	registry := session.NewRegistry(func() *session.Machine {
		return session.NewMachine(client, log)
	}, cfg.SessionTTL)

	mux := http.NewServeMux()
	web.NewHandler(registry, tracker, cfg.MaxUploadBytes, log).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              net.JoinHostPort("", cfg.Port),
		Handler:           middleware.RequestID(middleware.Logging(log)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go registry.Run(ctx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		log.Info("recruiter UI listening", "addr", srv.Addr, "api", cfg.APIBaseURL)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}

// openStore opens the device-local state file, falling back to memory so a
// broken file never keeps the UI from starting.
func openStore(path string, log *slog.Logger) analytics.Store {
	store, err := analytics.OpenFileStore(path)
	if err != nil {
		log.Warn("state file unavailable, visit data will not persist", "path", path, "error", err)
		return analytics.NewMemoryStore()
	}
	return store
}
