// Package metrics defines the sinks that record per-tick fleet statistics.
// Concrete sinks (Prometheus, InfluxDB) live in infra/metrics and register
// themselves with the factory so configuration can pick them by name.
// Several configured sinks are combined into a MultiSink.
package metrics
