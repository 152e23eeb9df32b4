package checker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/angeloszaimis/linkpulse/internal/errcount"
	"github.com/angeloszaimis/linkpulse/internal/manifest"
	"github.com/angeloszaimis/linkpulse/internal/metrics"
	"github.com/angeloszaimis/linkpulse/internal/probe"
	"github.com/angeloszaimis/linkpulse/internal/report"
	"github.com/angeloszaimis/linkpulse/internal/scheduler"
)

const (
	ModeDirect  = "direct"
	ModeTwoTier = "two-tier"
)

// Options wires a Checker. Direct and Delegated are expected to already
// carry their retry policy.
type Options struct {
	Mode      string
	Direct    probe.Strategy
	Delegated probe.Strategy
	Scheduler *scheduler.Batch
	Counter   *errcount.Counter
	// Metrics may be nil.
	Metrics  *metrics.Collector
	Now      func() time.Time
	Location *time.Location
	NewID    func() string
	Logger   *slog.Logger
}

// Run is everything one check produced.
type Run struct {
	Report    report.Status
	Direct    report.Diagnostics
	Delegated report.Diagnostics
}

type Checker struct {
	mode      string
	direct    probe.Strategy
	first     probe.Escalating
	scheduler *scheduler.Batch
	counter   *errcount.Counter
	metrics   *metrics.Collector
	now       func() time.Time
	location  *time.Location
	newID     func() string
	logger    *slog.Logger
}

func New(opts Options) *Checker {
	c := &Checker{
		mode:      opts.Mode,
		direct:    opts.Direct,
		scheduler: opts.Scheduler,
		counter:   opts.Counter,
		metrics:   opts.Metrics,
		now:       opts.Now,
		location:  opts.Location,
		newID:     opts.NewID,
		logger:    opts.Logger,
	}

	if c.mode == "" {
		c.mode = ModeTwoTier
	}
	if opts.Delegated == nil {
		c.mode = ModeDirect
	} else {
		c.first = probe.Escalating{Strategy: opts.Delegated}
	}
	if c.scheduler == nil {
		c.scheduler = scheduler.New(1, 0)
	}
	if c.counter == nil {
		c.counter = errcount.NewCounter(nil)
	}
	if c.now == nil {
		c.now = time.Now
	}
	if c.location == nil {
		c.location = time.UTC
	}
	if c.newID == nil {
		c.newID = uuid.NewString
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	return c
}

func (c *Checker) Mode() string { return c.mode }

// Check probes every entry and never fails: per-link problems are data in
// the returned report.
func (c *Checker) Check(ctx context.Context, entries []manifest.Entry) Run {
	runID := c.newID()
	logger := c.logger.With(slog.String("run_id", runID), slog.String("mode", c.mode))
	logger.Info("Starting link check", slog.Int("links", len(entries)))
	started := c.now()

	run := Run{
		Direct:    report.Diagnostics{},
		Delegated: report.Diagnostics{},
	}

	finals := make([]probe.Result, len(entries))
	var dispatch []int
	for i, e := range entries {
		if e.Link == "" {
			logger.Warn("Skipping entry without link", slog.String("name", e.Name))
			finals[i] = probe.Rejected(c.now())
			continue
		}
		dispatch = append(dispatch, i)
	}

	directIdx := dispatch
	if c.mode == ModeTwoTier {
		directIdx = c.firstTier(ctx, entries, dispatch, finals, run.Delegated)
		if len(directIdx) > 0 {
			logger.Info("Falling back to direct probes", slog.Int("links", len(directIdx)))
		}
	}
	c.directTier(ctx, entries, directIdx, finals, run.Direct)

	items := make([]report.Item, len(entries))
	for i, e := range entries {
		r := finals[i]
		items[i] = report.Item{
			Name:       e.Name,
			Link:       e.Link,
			Favicon:    e.Favicon,
			Success:    r.Success,
			Latency:    r.LatencySeconds,
			Status:     r.Status,
			Attempts:   r.Attempts,
			ErrorCount: c.counter.Record(errcount.DomainOf(e.Link), r.Success),
		}
	}

	finished := c.now()
	run.Report = report.NewStatus(runID, c.mode, report.FormatTimestamp(finished, c.location), items)

	c.emit(metrics.MetricEvent{
		Type:         metrics.EventRunCompleted,
		Timestamp:    finished,
		Accessible:   run.Report.AccessibleCount,
		Inaccessible: run.Report.InaccessibleCount,
	})

	logger.Info("Link check finished",
		slog.Int("accessible", run.Report.AccessibleCount),
		slog.Int("inaccessible", run.Report.InaccessibleCount),
		slog.Duration("elapsed", finished.Sub(started)))

	return run
}

// firstTier asks the delegated API about every dispatched entry, stores the
// confirmed results in finals and returns the indexes that need a direct
// probe, in manifest order.
func (c *Checker) firstTier(ctx context.Context, entries []manifest.Entry, dispatch []int, finals []probe.Result, diags report.Diagnostics) []int {
	outcomes := scheduler.Run(ctx, c.scheduler, dispatch, func(ctx context.Context, _ int, idx int) probe.Outcome {
		e := entries[idx]
		return c.first.Check(ctx, e.Link, e.Name)
	})

	var fallback []int
	for k, outcome := range outcomes {
		idx := dispatch[k]
		link := entries[idx].Link

		switch o := outcome.(type) {
		case probe.Resolved:
			finals[idx] = o.Result
			diags[link] = c.diagnostic(o.Result)
			c.emitProbe(probe.TierDelegated, o.Result)
		case probe.NeedsFallback:
			diags[link] = c.diagnostic(o.Partial)
			c.emitProbe(probe.TierDelegated, o.Partial)
			c.emit(metrics.MetricEvent{Type: metrics.EventFallback, Tier: probe.TierDelegated})
			fallback = append(fallback, idx)
		}
	}
	return fallback
}

func (c *Checker) directTier(ctx context.Context, entries []manifest.Entry, idxs []int, finals []probe.Result, diags report.Diagnostics) {
	results := scheduler.Run(ctx, c.scheduler, idxs, func(ctx context.Context, _ int, idx int) probe.Result {
		e := entries[idx]
		return c.direct.Probe(ctx, e.Link, e.Name)
	})

	for k, r := range results {
		idx := idxs[k]
		finals[idx] = r
		diags[entries[idx].Link] = c.diagnostic(r)
		c.emitProbe(probe.TierDirect, r)
	}
}

func (c *Checker) diagnostic(r probe.Result) report.Diagnostic {
	at := r.CheckedAt
	if at.IsZero() {
		at = c.now()
	}
	return report.Diagnostic{
		Success:   r.Success,
		Status:    r.Status,
		APIStatus: r.APIStatus,
		Latency:   r.LatencySeconds,
		Attempts:  r.Attempts,
		Error:     r.Error,
		Timestamp: report.FormatTimestamp(at, c.location),
	}
}

func (c *Checker) emitProbe(tier string, r probe.Result) {
	c.emit(metrics.MetricEvent{
		Type:    metrics.EventProbeCompleted,
		Tier:    tier,
		Success: r.Success,
		Latency: r.LatencySeconds,
	})
}

func (c *Checker) emit(event metrics.MetricEvent) {
	if c.metrics == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = c.now()
	}
	c.metrics.EventChannel() <- event
}
