package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"sekata-go/internal/config"
	"sekata-go/internal/database"
	"sekata-go/internal/devserver"
	"sekata-go/internal/logging"
	"sekata-go/internal/tracing"
	"sekata-go/pkg/websocket"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "env: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(cfg.AppEnv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("devserver", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx := context.Background()

	shutdownTracing, err := tracing.InitTracer(ctx, tracing.Config{ServiceName: "sekata-devserver", Environment: cfg.AppEnv})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown", zap.Error(err))
		}
	}()

	db, err := database.OpenAndMigrate(ctx, cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("db open/migrate: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Warn("db close", zap.Error(err))
		}
	}()

	hubRef := websocket.NewHubRef(websocket.NewHub(log))
	go websocket.Supervise(hubRef, log)

	manager := devserver.NewManager(
		devserver.Rules{HandSize: cfg.HandSize, MinPlayers: cfg.MinPlayers, HelperCards: cfg.HelperCards},
		devserver.WithArchive(devserver.SQLArchive{DB: db}),
		devserver.WithHubProvider(hubRef.Get),
		devserver.WithLogger(log),
	)
	r := devserver.NewRouter(devserver.Deps{
		Config:  cfg,
		Manager: manager,
		DB:      db,
		Hubs:    hubRef.Get,
		Log:     log,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case serveErr = <-errCh:
		log.Error("server error", zap.Error(serveErr))
	}

	if h, ok := hubRef.Get(); ok {
		h.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server shutdown", zap.Error(err))
	}
	return serveErr
}
