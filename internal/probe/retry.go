package probe

import (
	"context"
	"log/slog"
	"time"
)

// Retrying re-runs a Strategy until it succeeds, returns a Final result or
// runs out of attempts, waiting a fixed delay between attempts. Exhaustion
// is not an error: the last Result is returned with Attempts set to the
// number actually made.
type Retrying struct {
	inner       Strategy
	maxAttempts int
	delay       time.Duration
	logger      *slog.Logger
}

func NewRetrying(inner Strategy, maxAttempts int, delay time.Duration, logger *slog.Logger) *Retrying {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if delay < 0 {
		delay = 0
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Retrying{
		inner:       inner,
		maxAttempts: maxAttempts,
		delay:       delay,
		logger:      logger,
	}
}

func (r *Retrying) Probe(ctx context.Context, link, name string) Result {
	var res Result

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			r.logger.Debug("Retrying probe",
				slog.String("name", name),
				slog.Int("attempt", attempt),
				slog.String("last_error", res.Error))

			select {
			case <-ctx.Done():
				return res
			case <-time.After(r.delay):
			}
		}

		res = r.inner.Probe(ctx, link, name)
		res.Attempts = attempt
		if res.Success || res.Final {
			return res
		}
	}

	if r.maxAttempts > 1 {
		r.logger.Info("Probe failed after retries",
			slog.String("name", name),
			slog.Int("attempts", r.maxAttempts),
			slog.String("error", res.Error))
	}

	return res
}
