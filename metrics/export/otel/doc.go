// Package otel provides OpenTelemetry metric exporter bindings for authkit
// counters.
//
// [NewOTelExporter] registers an Int64ObservableCounter per engine metric
// plus dispatcher drop counters. A single callback reads
// [authkit.Engine.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate engine state.
package otel
