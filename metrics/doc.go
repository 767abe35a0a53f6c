// Package metrics aggregates completed-session outcomes into time-bucketed
// records at three granularities.
//
// The Aggregator consumes session events off the pipeline's critical path
// through a bounded buffer and writes per-minute realtime buckets. The
// Rollup job periodically folds completed hours of realtime data into
// hourly buckets and completed days of hourly data into daily buckets; the
// pipeline never writes the coarser granularities directly.
package metrics
