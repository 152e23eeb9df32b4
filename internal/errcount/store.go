package errcount

import (
	"context"
	"log/slog"
)

// Store persists the counter between runs.
type Store interface {
	Load(ctx context.Context) (map[string]int, error)
	Save(ctx context.Context, counts map[string]int) error
}

// LoadOrEmpty never fails: a Store error is logged and an empty map returned.
func LoadOrEmpty(ctx context.Context, store Store, logger *slog.Logger) map[string]int {
	counts, err := store.Load(ctx)
	if err != nil {
		logger.Warn("Could not load error counters, starting empty", slog.Any("err", err))
		return map[string]int{}
	}
	if counts == nil {
		return map[string]int{}
	}
	return counts
}

// Pending is an in-flight Save.
type Pending struct {
	done chan struct{}
	err  error
}

// Wait blocks until the save finished and returns its error. Callers may
// ignore the error; it has already been logged.
func (p *Pending) Wait() error {
	<-p.done
	return p.err
}

// Persist saves counts in the background. A failure is logged as a warning
// and never reaches the run's primary output.
func Persist(ctx context.Context, store Store, counts map[string]int, logger *slog.Logger) *Pending {
	p := &Pending{done: make(chan struct{})}

	go func() {
		defer close(p.done)
		if err := store.Save(ctx, counts); err != nil {
			logger.Warn("Persisting error counters failed", slog.Any("err", err))
			p.err = err
			return
		}
		logger.Debug("Error counters persisted", slog.Int("domains", len(counts)))
	}()

	return p
}

// Nop keeps counters for the current run only.
type Nop struct{}

func (Nop) Load(context.Context) (map[string]int, error) { return map[string]int{}, nil }

func (Nop) Save(context.Context, map[string]int) error { return nil }
