// Package checker runs one liveness check over a manifest and folds the
// per-link results into the status report.
//
// In two-tier mode every link is first sent to the delegated status API.
// Links it cannot confirm are probed again directly, and the direct result
// replaces the delegated one. Direct mode skips the first tier. After all
// final results are known the error counter is updated once per link, in
// manifest order.
package checker
