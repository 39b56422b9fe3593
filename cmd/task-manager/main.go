package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"task-manager/internal/config"
	"task-manager/internal/httpapi"
	"task-manager/internal/observability/logging"
	"task-manager/internal/store"
	"task-manager/internal/store/deferred"
	"task-manager/internal/task"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "task-manager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	open, err := store.Opener(cfg.Store, logger)
	if err != nil {
		return err
	}

	repo := deferred.New()
	svc := task.NewService(repo, task.WithStoreTimeout(cfg.Store.Timeout))

	// Root context cancelled on SIGINT/SIGTERM
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect before accepting traffic. If the loop gives up, repo stays
	// unavailable and the server runs degraded until a background
	// reconnect succeeds.
	connected := connectStore(rootCtx, repo, svc, open, cfg, logger)
	if rootCtx.Err() != nil {
		_ = repo.Close()
		logger.Info("interrupted during startup")
		return nil
	}

	var wg sync.WaitGroup
	if !connected && cfg.Connect.RetryInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reconnectStore(rootCtx, repo, svc, open, cfg, logger)
		}()
	}

	srv := &http.Server{
		Addr: cfg.HTTP.Addr(),
		Handler: httpapi.NewServer(svc, repo, httpapi.Config{
			Logger:         logger,
			StaticDir:      cfg.HTTP.StaticDir,
			CORSOrigins:    cfg.HTTP.CORSOrigins,
			RequestTimeout: cfg.HTTP.RequestTimeout,
		}),
		ReadHeaderTimeout: 5 * time.Second,
		ErrorLog:          logging.NewStdLogger(logger, slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "backend", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-serveErr:
		stop()
		wg.Wait()
		_ = repo.Close()
		return fmt.Errorf("server: %w", err)
	}

	// Stop accepting new requests; wait for in-flight with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "err", err)
	}

	wg.Wait()
	if err := repo.Close(); err != nil {
		logger.Error("store close error", "err", err)
	}
	logger.Info("bye")
	return nil
}

// connectStore runs the startup connect loop and installs the backend into
// repo. It reports whether a backend was installed; when the loop gives up
// the process keeps serving in degraded mode.
func connectStore(ctx context.Context, repo *deferred.Store, svc *task.Service, open task.OpenFunc, cfg config.Config, logger *slog.Logger) bool {
	backend, err := task.Connect(ctx, open, task.ConnectConfig{
		Attempts:       cfg.Connect.Attempts,
		AttemptTimeout: cfg.Store.Timeout,
		Backoff: task.BackoffConfig{
			BaseDelay: cfg.Connect.BaseDelay,
			MaxDelay:  cfg.Connect.MaxDelay,
		},
	}, logger)
	if err != nil {
		logger.Error("store unreachable, serving in degraded mode",
			"backend", cfg.Store.Backend,
			"err", err)
		return false
	}
	installStore(ctx, repo, svc, backend, cfg, logger)
	return true
}

// reconnectStore tries one connect every RetryInterval until a backend is
// installed or ctx is canceled.
func reconnectStore(ctx context.Context, repo *deferred.Store, svc *task.Service, open task.OpenFunc, cfg config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.Connect.RetryInterval)
	defer ticker.Stop()

	connect := task.ConnectConfig{Attempts: 1, AttemptTimeout: cfg.Store.Timeout}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		backend, err := task.Connect(ctx, open, connect, logger)
		if err != nil {
			logger.Warn("store still unreachable",
				"backend", cfg.Store.Backend,
				"retry_in", cfg.Connect.RetryInterval.String(),
				"err", err)
			continue
		}
		installStore(ctx, repo, svc, backend, cfg, logger)
		return
	}
}

func installStore(ctx context.Context, repo *deferred.Store, svc *task.Service, backend task.TaskRepository, cfg config.Config, logger *slog.Logger) {
	repo.Set(backend)

	if !cfg.Store.Seed {
		return
	}
	n, err := svc.Seed(ctx)
	if err != nil {
		logger.Error("seeding sample tasks failed", "inserted", n, "err", err)
		return
	}
	if n > 0 {
		logger.Info("seeded sample tasks", "count", n)
	}
}
