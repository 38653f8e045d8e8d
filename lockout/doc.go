// Package lockout implements the failed-login lock-state machine as pure
// functions over a small value type, so the authoritative lock status is
// always derived from (state, now) rather than from a stored flag alone.
//
// # Design
//
// [Policy.Evaluate] is a pure predicate and never mutates. State changes are
// explicit: [Policy.Reconcile] performs the timed auto-unlock,
// [Policy.RecordFailure] advances the sliding failure window and trips the
// lock, and Reset clears counters after a successful login. Callers persist
// the returned state through their store's atomic per-user update.
//
// # What this package must NOT do
//
//   - Perform I/O or touch a store; persistence belongs to the caller.
//   - Hide a write inside a read: predicates here have no side effects.
package lockout
