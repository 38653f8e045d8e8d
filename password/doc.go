// Package password implements password hashing and verification with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification re-derives the key with the parameters embedded in the stored
// hash, so parameter changes never invalidate existing credentials.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy beyond
// byte-length bounds (complexity, reuse history) belongs to the caller.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords — callers supply plaintext and receive hashes.
//   - Import any other authkit package.
//   - Log plaintext passwords or hash parameters at runtime.
package password
