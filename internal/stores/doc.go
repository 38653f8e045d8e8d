// Package stores provides the Redis-backed OTP challenge store.
//
// # Design
//
// One versioned, binary-encoded record per user, keyed by user id with a
// TTL, so issuing a new challenge atomically replaces the prior one and
// expiry is enforced by the backend as well as on read. Consume uses a
// WATCH/MULTI optimistic transaction with retry on contention so a code is
// marked used exactly once under concurrent submissions. Code comparison is
// constant-time.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling internal package (it implements the
//     public otp.Store contract).
//   - Log or expose plaintext codes.
package stores
