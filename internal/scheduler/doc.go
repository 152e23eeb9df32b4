// Package scheduler runs probe tasks in fixed-size concurrent batches.
//
// Every task of a batch runs at the same time and the scheduler waits for
// the whole batch before pausing and starting the next one. This bounds peak
// parallelism and gives remote hosts a breather between waves; it is not a
// rate limiter.
package scheduler
