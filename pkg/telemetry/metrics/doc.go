// Package metrics provides Prometheus metrics for the racing proxy: race
// results and durations, per-endpoint attempt and win counts, relayed bytes,
// and keep-alive pool occupancy.
package metrics
