// Package rate provides the per-client token-bucket request gate.
//
// # Refill semantics
//
// Buckets refill lazily on access: elapsed * refillPerSecond tokens, capped
// at capacity. This is a steady drip equivalent to a per-minute budget
// without the burst-at-boundary artifact of calendar-window counters. A
// denied request consumes nothing beyond the refill already applied.
//
// # What this package must NOT do
//
//   - Emit audit events on denial; the gate returns a boolean and callers
//     decide what to log.
//   - Share state across limiters: the bucket map is owned by the Limiter,
//     created by its constructor, with no package-level globals.
package rate
