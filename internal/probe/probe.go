package probe

import (
	"context"
	"math"
	"time"
)

const (
	TierDirect    = "direct"
	TierDelegated = "delegated"
)

// NoLatency is reported for every unsuccessful probe.
const NoLatency = -1.0

// Result is the outcome of one probe attempt sequence.
type Result struct {
	Success        bool
	Status         int
	LatencySeconds float64
	Attempts       int
	Error          string
	// APIStatus is the delegated API's own status; zero for direct probes.
	APIStatus int
	CheckedAt time.Time
	// Final marks a failure another attempt cannot change.
	Final bool
}

// Strategy performs a single attempt. Implementations must not panic and
// must report every failure through the returned Result.
type Strategy interface {
	Probe(ctx context.Context, link, name string) Result
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(ctx context.Context, link, name string) Result

func (f StrategyFunc) Probe(ctx context.Context, link, name string) Result {
	return f(ctx, link, name)
}

// Rejected is the result for an entry without a link. Nothing is sent over
// the network for it.
func Rejected(at time.Time) Result {
	return Failed(0, "empty link", at)
}

// Failed builds an unsuccessful single-attempt result.
func Failed(status int, msg string, at time.Time) Result {
	return Result{
		Success:        false,
		Status:         status,
		LatencySeconds: NoLatency,
		Attempts:       1,
		Error:          msg,
		CheckedAt:      at,
	}
}

// RoundLatency converts a duration to seconds with two decimals.
func RoundLatency(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}
