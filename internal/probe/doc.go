// Package probe decides whether a single link is reachable.
//
// Two strategies implement the same Strategy interface: Direct issues the
// HTTP request itself, Delegated asks a third-party status API. Retrying
// wraps either one with bounded attempts. A probe never returns an error;
// every failure mode is folded into a Result with Success set to false.
//
// In the two-tier setup the delegated result is turned into an Outcome:
// Resolved when it is final, NeedsFallback when Direct has to check again.
package probe
