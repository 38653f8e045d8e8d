// Package jwt issues and parses the signed access tokens returned by the
// engine after registration and OTP verification.
//
// # Design
//
// Claims are a fixed, typed structure — user id, email, role — rather than
// an open-ended claim bag, so token contents are auditable at the type
// level. HS256 and Ed25519 signing are supported; validation pins the
// configured algorithm and optionally issuer, audience, and leeway.
//
// # What this package must NOT do
//
//   - Accept tokens signed with an algorithm other than the configured one.
//   - Embed secrets or password material in claims.
package jwt
