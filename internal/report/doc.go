// Package report holds the documents a run produces: the public status
// report, the per-tier diagnostic maps, and the terminal summary.
package report
