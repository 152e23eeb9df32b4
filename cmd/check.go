package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/angeloszaimis/linkpulse/config"
	"github.com/angeloszaimis/linkpulse/internal/checker"
	"github.com/angeloszaimis/linkpulse/internal/circuitbreaker"
	"github.com/angeloszaimis/linkpulse/internal/errcount"
	"github.com/angeloszaimis/linkpulse/internal/manifest"
	"github.com/angeloszaimis/linkpulse/internal/metrics"
	"github.com/angeloszaimis/linkpulse/internal/probe"
	"github.com/angeloszaimis/linkpulse/internal/report"
	"github.com/angeloszaimis/linkpulse/internal/scheduler"
)

// check performs one run: fetch, probe, write the report, persist counters.
func check(ctx context.Context, cfg *config.Config, log *slog.Logger, stdout io.Writer) int {
	collector := metrics.NewCollector(1024, log)
	collector.Start(ctx)
	defer collector.Flush()

	source := manifest.NewClient(cfg.Source.URL, cfg.Source.Headers, cfg.Source.TimeoutDuration(), log)
	entries, err := source.Fetch(ctx)
	if err != nil {
		log.Error("Failed to fetch manifest", slog.String("url", cfg.Source.URL), slog.Any("err", err))
		return 1
	}

	store, closeStore := openStore(ctx, cfg, log)
	defer closeStore()

	counter := errcount.NewCounter(errcount.LoadOrEmpty(ctx, store, log))
	direct, delegated := buildStrategies(cfg, log)

	chk := checker.New(checker.Options{
		Mode:      cfg.Probe.Mode,
		Direct:    direct,
		Delegated: delegated,
		Scheduler: scheduler.New(cfg.Batch.Size, cfg.Batch.DelayDuration()),
		Counter:   counter,
		Metrics:   collector,
		Location:  cfg.App.Location(),
		Logger:    log,
	})
	result := chk.Check(ctx, entries)

	exitCode := 0
	statusPath := filepath.Join(cfg.Output.Dir, cfg.Output.StatusFile)
	if err := report.WriteJSON(statusPath, result.Report); err != nil {
		log.Error("Failed to write status report", slog.String("path", statusPath), slog.Any("err", err))
		exitCode = 1
	} else {
		log.Info("Status report written", slog.String("path", statusPath))
	}

	if cfg.Output.Diagnostics {
		writeDiagnostics(filepath.Join(cfg.Output.Dir, cfg.Output.DirectFile), result.Direct, log)
		if chk.Mode() == checker.ModeTwoTier {
			writeDiagnostics(filepath.Join(cfg.Output.Dir, cfg.Output.DelegatedFile), result.Delegated, log)
		}
	}

	var pending *errcount.Pending
	if cfg.ErrorCounter.Enabled {
		pending = errcount.Persist(ctx, store, counter.Snapshot(), log)
	}

	fmt.Fprint(stdout, report.RenderSummary(result.Report))

	if cfg.Metrics.PushgatewayURL != "" {
		collector.Flush()
		if err := metrics.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job, collector.Metrics()); err != nil {
			log.Warn("Failed to push metrics", slog.Any("err", err))
		}
	}

	if pending != nil {
		_ = pending.Wait()
	}
	return exitCode
}

func writeDiagnostics(path string, diags report.Diagnostics, log *slog.Logger) {
	if err := report.WriteJSON(path, diags); err != nil {
		log.Warn("Failed to write diagnostics", slog.String("path", path), slog.Any("err", err))
	}
}

// buildStrategies returns a nil delegated strategy in direct mode.
func buildStrategies(cfg *config.Config, log *slog.Logger) (probe.Strategy, probe.Strategy) {
	var limiter *rate.Limiter
	if cfg.Probe.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Probe.RateLimit), 1)
	}
	attempts, delay := cfg.Retry.Attempts(), cfg.Retry.DelayDuration()

	direct := probe.NewRetrying(probe.NewDirect(probe.DirectOptions{
		Headers:   cfg.Probe.Headers,
		Timeout:   cfg.Probe.TimeoutDuration(),
		MinStatus: cfg.Probe.SuccessStatus.Min,
		MaxStatus: cfg.Probe.SuccessStatus.Max,
		Limiter:   limiter,
		Logger:    log.With(slog.String("tier", probe.TierDirect)),
	}), attempts, delay, log)

	if cfg.Probe.Mode != config.ModeTwoTier {
		return direct, nil
	}

	delegated := probe.NewRetrying(probe.NewDelegated(probe.DelegatedOptions{
		Endpoint: cfg.Delegated.Endpoint,
		Headers:  cfg.Delegated.Headers,
		Timeout:  cfg.Probe.TimeoutDuration(),
		Breaker:  circuitbreaker.New(cfg.Delegated.Breaker.Threshold, cfg.Delegated.Breaker.ResetTimeoutDuration()),
		Limiter:  limiter,
		Logger:   log.With(slog.String("tier", probe.TierDelegated)),
	}), attempts, delay, log)

	return direct, delegated
}

// openStore never fails the run: a backend that cannot be opened degrades to
// counting for this run only.
func openStore(ctx context.Context, cfg *config.Config, log *slog.Logger) (errcount.Store, func()) {
	noop := func() {}
	ec := cfg.ErrorCounter
	if !ec.Enabled {
		return errcount.Nop{}, noop
	}

	switch ec.Backend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     ec.Redis.Addr,
			Password: ec.Redis.Password,
			DB:       ec.Redis.DB,
		})
		return errcount.NewRedisStore(client, ec.Redis.Key), func() { client.Close() }

	case config.BackendPostgres:
		store, err := errcount.NewPostgresStore(ctx, ec.Postgres.URL)
		if err != nil {
			log.Warn("Error counter database unavailable, counts will not persist", slog.Any("err", err))
			return errcount.Nop{}, noop
		}
		return store, store.Close

	default:
		return errcount.NewFileStore(counterFilePath(cfg)), noop
	}
}

// counterFilePath resolves a relative counter file against the output dir.
func counterFilePath(cfg *config.Config) string {
	if filepath.IsAbs(cfg.ErrorCounter.File) {
		return cfg.ErrorCounter.File
	}
	return filepath.Join(cfg.Output.Dir, cfg.ErrorCounter.File)
}
