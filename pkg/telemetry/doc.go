// Package telemetry wires the agent services into OpenTelemetry tracing and
// Prometheus metrics. Tracing is optional and enabled by configuring an OTLP
// endpoint; metrics are always available on /metrics.
package telemetry
