// Package metrics provides lock-free counters for engine observability.
//
// # Design
//
// Counters live in cache-line-padded uint64 slots incremented atomically;
// the write path is allocation-free. Snapshot produces a consistent-enough
// point-in-time copy for export.
//
// # Architecture boundaries
//
// This package owns metric storage and snapshot creation. Export (OTel)
// lives in metrics/export/ and reads Snapshot values.
//
// # What this package must NOT do
//
//   - Perform I/O or network calls.
//   - Import authkit or any sibling package.
//   - Expose global metric registries.
package metrics
