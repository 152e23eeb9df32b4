package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type Batch struct {
	size    int
	pause   time.Duration
	sleep   func(time.Duration)
	onBatch func(index, size int)
}

type Option func(*Batch)

// WithSleep replaces time.Sleep for the pause between batches.
func WithSleep(sleep func(time.Duration)) Option {
	return func(b *Batch) { b.sleep = sleep }
}

// WithBatchHook is called before each batch starts.
func WithBatchHook(hook func(index, size int)) Option {
	return func(b *Batch) { b.onBatch = hook }
}

// New creates a scheduler. A size below 1 runs one task at a time.
func New(size int, pause time.Duration, opts ...Option) *Batch {
	if size < 1 {
		size = 1
	}
	if pause < 0 {
		pause = 0
	}

	b := &Batch{
		size:  size,
		pause: pause,
		sleep: time.Sleep,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Batch) Size() int { return b.size }

// Run applies fn to every item and returns the results in input order.
// fn must report failures through its result; a failing item never stops
// its siblings or the batches after it.
func Run[T, R any](ctx context.Context, b *Batch, items []T, fn func(ctx context.Context, index int, item T) R) []R {
	out := make([]R, len(items))

	for start := 0; start < len(items); start += b.size {
		if start > 0 && b.pause > 0 {
			b.sleep(b.pause)
		}

		end := min(start+b.size, len(items))
		if b.onBatch != nil {
			b.onBatch(start/b.size, end-start)
		}

		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				out[i] = fn(ctx, i, items[i])
				return nil
			})
		}
		_ = g.Wait()
	}

	return out
}
