package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxDrain caps how much of a response body is read before closing it.
const maxDrain = 64 << 10

type DirectOptions struct {
	// Client defaults to a client with Timeout.
	Client    *http.Client
	Headers   map[string]string
	Timeout   time.Duration
	MinStatus int
	MaxStatus int
	// Limiter, when set, is shared by every dispatch.
	Limiter *rate.Limiter
	Logger  *slog.Logger
	Now     func() time.Time
}

// Direct fetches the link itself and classifies it by status code.
type Direct struct {
	client    *http.Client
	headers   map[string]string
	timeout   time.Duration
	minStatus int
	maxStatus int
	limiter   *rate.Limiter
	logger    *slog.Logger
	now       func() time.Time
}

func NewDirect(opts DirectOptions) *Direct {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.MinStatus == 0 && opts.MaxStatus == 0 {
		opts.MinStatus, opts.MaxStatus = http.StatusOK, http.StatusOK
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}

	return &Direct{
		client:    opts.Client,
		headers:   opts.Headers,
		timeout:   opts.Timeout,
		minStatus: opts.MinStatus,
		maxStatus: opts.MaxStatus,
		limiter:   opts.Limiter,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

func (d *Direct) Probe(ctx context.Context, link, name string) Result {
	if link == "" {
		d.logger.Warn("Empty link", slog.String("name", name))
		return Rejected(d.now())
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return Failed(0, fmt.Sprintf("rate limiter: %v", err), d.now())
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, link, nil)
	if err != nil {
		d.logger.Warn("Invalid link", slog.String("name", name), slog.String("link", link), slog.Any("err", err))
		return Failed(0, fmt.Sprintf("build request: %v", err), d.now())
	}
	for k, v := range d.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		d.logger.Warn("Direct probe failed",
			slog.String("name", name),
			slog.String("link", link),
			slog.Any("err", err))
		return Failed(0, err.Error(), d.now())
	}
	defer resp.Body.Close()
	_, _ = io.CopyN(io.Discard, resp.Body, maxDrain)

	if resp.StatusCode < d.minStatus || resp.StatusCode > d.maxStatus {
		d.logger.Warn("Direct probe got unexpected status",
			slog.String("name", name),
			slog.String("link", link),
			slog.Int("status", resp.StatusCode))
		return Failed(resp.StatusCode, fmt.Sprintf("unexpected status %d", resp.StatusCode), d.now())
	}

	latency := RoundLatency(elapsed)
	d.logger.Info("Direct probe succeeded",
		slog.String("name", name),
		slog.Int("status", resp.StatusCode),
		slog.Float64("latency", latency))

	return Result{
		Success:        true,
		Status:         resp.StatusCode,
		LatencySeconds: latency,
		Attempts:       1,
		CheckedAt:      d.now(),
	}
}
