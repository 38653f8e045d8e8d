// Package authkit provides the account-security core for a multi-tenant
// content platform: credential login with sliding-window failure tracking and
// timed account lockout, email one-time-passcode (OTP) multi-factor
// completion, per-client request rate limiting, and signed access token
// issuance.
//
// The package is designed for concurrent server workloads: Engine methods are
// safe to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// authkit is the public surface. It exposes [Engine], [Builder], [Config],
// collaborator interfaces ([UserStore], [Mailer], [CredentialVerifier],
// [AuditSink]) and value types. Flow coordination — OTP persistence, token
// buckets, audit and mail dispatch, metric counters — lives under internal/
// and is never exported. The lock-state machine and OTP flow are public
// sub-packages (lockout, otp) because host user stores carry their types.
//
// # What this package must NOT do
//
//   - Expose Redis clients, internal stores, or encoding details in its
//     public API.
//   - Own user-record durability: the host's [UserStore] is the durability
//     and atomicity boundary for per-user security state.
//   - Block the login path on email delivery or audit persistence; both are
//     dispatched asynchronously and fail open.
package authkit
