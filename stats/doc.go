// Package stats receives the counters a guardian emits: state changes,
// per-slot issues, resource churn, draws and protocol violations.
//
// Nop discards everything. Prometheus exports the same events as
// client_golang collectors registered on a caller-supplied registerer.
package stats
