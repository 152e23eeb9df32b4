package probe

import "context"

// Outcome is what the first tier of a two-tier check yields: either a final
// Resolved result or a NeedsFallback carrying the discarded partial result.
type Outcome interface {
	outcome()
}

type Resolved struct {
	Result Result
}

type NeedsFallback struct {
	Partial Result
}

func (Resolved) outcome()      {}
func (NeedsFallback) outcome() {}

// Escalate keeps successes and sends every failure to the fallback tier.
func Escalate(r Result) Outcome {
	if r.Success {
		return Resolved{Result: r}
	}
	return NeedsFallback{Partial: r}
}

// Escalating turns any Strategy into a first tier.
type Escalating struct {
	Strategy Strategy
}

func (e Escalating) Check(ctx context.Context, link, name string) Outcome {
	return Escalate(e.Strategy.Probe(ctx, link, name))
}
