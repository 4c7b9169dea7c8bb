// Package metrics aggregates per-request outcomes into load test statistics.
//
// # Aggregator
//
// The [Aggregator] is an append-only, mutex-guarded list of [Outcome] values
// recorded in completion order:
//
//	agg := metrics.NewAggregator()
//	agg.Start()
//
//	agg.RecordOutcome(metrics.Success(200, 12*time.Millisecond, 512))
//	agg.RecordOutcome(metrics.Failure(metrics.ErrorNetwork, "connection refused", 3*time.Millisecond))
//
//	agg.Complete()
//	report := agg.AggregateMetrics()
//
// # Report
//
// [Aggregator.AggregateMetrics] is a pure derivation and may be called any
// number of times. Response time statistics cover successful outcomes only:
//   - Min, Max and Avg
//   - Median (P50) using the odd/even midpoint rule
//   - P95 and P99 using linear interpolation, see [Percentile]
//
// Status codes are bucketed by class (2xx..5xx). Anything outside 200..599 is
// counted under "other". Errors are counted by their literal message, with a
// per-kind breakdown alongside.
//
// # Live view
//
// Progress reporters and the dashboard use [Aggregator.Live], which reads
// running counters and an HDR histogram instead of sorting every outcome.
package metrics
