package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/autopages/internal/api"
	"github.com/dgallion1/autopages/internal/config"
	"github.com/dgallion1/autopages/internal/convert"
	"github.com/dgallion1/autopages/internal/pipeline"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.ValidateServer(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.WorkDir, 0o700); err != nil {
		log.Error("work dir unavailable", "dir", cfg.WorkDir, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Docker is checked on the first conversion.
	rt, err := convert.NewDockerCLI(cfg.DockerCommand, log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	conv := convert.New(rt, convert.Options{
		Image:    cfg.ConverterImage,
		Timeout:  cfg.ConvertTimeout,
		Attempts: cfg.ConvertAttempts,
	}, log)

	runner := pipeline.NewRunner(conv, pipeline.RunnerOptions{
		LegacySubstitution: cfg.LegacyPathSubstitution,
	}, log)
	orch := pipeline.NewOrchestrator(cfg, runner, log)
	orch.Start(ctx)

	srv := api.NewServer(orch, conv, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()
	}()

	log.Info("starting autopages", "port", cfg.Port, "workers", cfg.WorkerCount, "image", cfg.ConverterImage)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
