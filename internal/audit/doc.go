// Package audit provides the append-only audit event model and its
// asynchronous dispatcher.
//
// # Design
//
// Events flow through a buffered channel to a single worker goroutine that
// forwards them to the configured sink. Emission never blocks the caller
// beyond the channel handoff, and with DropIfFull set it never blocks at
// all: overflow is counted, not propagated. Audit loss must never fail the
// primary authentication outcome.
//
// # What this package must NOT do
//
//   - Import authkit or any sibling internal package.
//   - Mutate or delete events once emitted.
package audit
