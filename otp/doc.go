// Package otp implements email one-time-passcode multi-factor login: code
// generation, the challenge store contract, and the issue/verify flow.
//
// # Design
//
// At most one authoritative challenge exists per user: Save replaces any
// prior challenge, so a stale code can never verify after a newer one is
// issued. Consume is the store's atomic compare-and-mark-used step; expiry,
// prior use, and the per-challenge attempt cap all fail closed. Verification
// failures carry no reason outward — wrong, reused, and expired codes are
// indistinguishable to callers.
//
// # What this package must NOT do
//
//   - Feed the account lock policy: only password failures count toward
//     lockout. OTP guessing is bounded by the per-challenge attempt cap.
//   - Block on email delivery; the flow hands codes to an async sender.
package otp
