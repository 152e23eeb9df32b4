package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/angeloszaimis/linkpulse/config"
	"github.com/angeloszaimis/linkpulse/internal/httpserver"
	"github.com/angeloszaimis/linkpulse/internal/metrics"
	"github.com/angeloszaimis/linkpulse/internal/report"
)

// serve previews the output directory until interrupted.
func serve(ctx context.Context, cfg *config.Config, log *slog.Logger) int {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)
	seedFromReport(filepath.Join(cfg.Output.Dir, cfg.Output.StatusFile), collector, log)

	router := httpserver.NewRouter(httpserver.RouterOptions{
		OutputDir:  cfg.Output.Dir,
		StatusFile: cfg.Output.StatusFile,
		Collector:  collector,
		Logger:     log,
	})

	srv, err := httpserver.New(cfg.Serve.Address, router, log)
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		return 1
	}

	addr, err := srv.Listen()
	if err != nil {
		log.Error("Error starting server", slog.Any("err", err))
		return 1
	}
	log.Info("Serving output directory",
		slog.String("addr", addr.String()),
		slog.String("dir", cfg.Output.Dir))

	if err := srv.Serve(ctx); err != nil {
		log.Error("Server stopped", slog.Any("err", err))
		return 1
	}
	log.Info("Server stopped")
	return 0
}

// seedFromReport publishes the counts of an existing report as gauges.
func seedFromReport(path string, collector *metrics.Collector, log *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Info("No report to preview yet", slog.String("path", path))
		return
	}

	var status report.Status
	if err := json.Unmarshal(data, &status); err != nil {
		log.Warn("Existing report is not valid JSON", slog.String("path", path), slog.Any("err", err))
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	collector.EventChannel() <- metrics.MetricEvent{
		Type:         metrics.EventRunCompleted,
		Timestamp:    info.ModTime(),
		Accessible:   status.AccessibleCount,
		Inaccessible: status.InaccessibleCount,
	}
}
