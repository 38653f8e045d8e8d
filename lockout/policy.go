package lockout

import "time"

// State is the per-user lock-relevant subset of an account record. The zero
// value is an open account with no recorded failures.
type State struct {
	FailedAttempts int
	LastFailedAt   *time.Time
	Locked         bool
	LockedUntil    *time.Time
}

// Status is the derived lock status of an account at an instant.
type Status uint8

const (
	// Open means the account is usable; FailedAttempts may still be >0.
	Open Status = iota
	// Locked means the account rejects logins until LockedUntil elapses
	// or the state is explicitly reset.
	Locked
)

// Policy holds the lockout thresholds. All transitions are pure: they
// return the successor state and never mutate their input.
type Policy struct {
	// MaxAttempts is the failure count at which the account locks.
	MaxAttempts int
	// Window is the sliding span within which failures accumulate; a
	// failure after the window restarts the count at one.
	Window time.Duration
	// LockDuration is how long a tripped lock holds. Zero means the lock
	// only clears through an explicit reset.
	LockDuration time.Duration
}

// Evaluate derives the authoritative status from (state, now). A stored
// Locked flag whose LockedUntil has elapsed evaluates as Open even before
// Reconcile rewrites the state.
func (p Policy) Evaluate(s State, now time.Time) Status {
	if !s.Locked {
		return Open
	}
	if s.LockedUntil != nil && now.After(*s.LockedUntil) {
		return Open
	}
	return Locked
}

// Reconcile applies the timed auto-unlock: when a lock has expired it clears
// the lock fields and the failure counter. It reports whether the state
// changed so callers can skip a needless write.
func (p Policy) Reconcile(s State, now time.Time) (State, bool) {
	if !s.Locked {
		return s, false
	}
	if s.LockedUntil == nil || !now.After(*s.LockedUntil) {
		return s, false
	}
	return State{}, true
}

// RecordFailure registers one failed attempt at now. A failure landing after
// the window since LastFailedAt restarts the counter before incrementing.
// Reaching MaxAttempts trips the lock with LockedUntil = now + LockDuration;
// lockedNow reports that this call performed the transition.
func (p Policy) RecordFailure(s State, now time.Time) (next State, lockedNow bool) {
	attempts := s.FailedAttempts
	if s.LastFailedAt != nil && s.LastFailedAt.Add(p.Window).Before(now) {
		attempts = 0
	}
	attempts++

	failedAt := now
	next = State{
		FailedAttempts: attempts,
		LastFailedAt:   &failedAt,
		Locked:         s.Locked,
		LockedUntil:    s.LockedUntil,
	}

	if !next.Locked && attempts >= p.MaxAttempts {
		next.Locked = true
		if p.LockDuration > 0 {
			until := now.Add(p.LockDuration)
			next.LockedUntil = &until
		}
		lockedNow = true
	}
	return next, lockedNow
}

// Reset clears counters and lock fields after a successful authentication.
// It reports false when the state is already clear, so callers avoid a
// write on the common path.
func (p Policy) Reset(s State) (State, bool) {
	if s.FailedAttempts == 0 && !s.Locked && s.LastFailedAt == nil && s.LockedUntil == nil {
		return s, false
	}
	return State{}, true
}
