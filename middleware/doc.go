// Package middleware exposes HTTP adapters for the engine's per-client rate
// gate and token validation.
//
// # Guards
//
//   - [RateLimit] — per-client token-bucket gate, keyed by client IP.
//   - [RequireToken] — access token verification via Engine.ParseToken.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does NOT make
// rate or authorization decisions itself — those are delegated to the Engine.
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Maintain its own rate-limit state (Engine owns the buckets).
package middleware
