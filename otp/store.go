package otp

import (
	"context"
	"errors"
	"time"
)

// ErrStoreUnavailable indicates the challenge backend is unreachable.
var ErrStoreUnavailable = errors.New("otp store unavailable")

// Challenge is one issued code for one user. A challenge is mutated exactly
// once — marked used on successful consumption — and is otherwise replaced
// or garbage-collected whole.
type Challenge struct {
	UserID    string
	Code      string
	ExpiresAt time.Time
	Used      bool
	Attempts  int
	CreatedAt time.Time
}

// Expired reports whether the challenge is past its expiry at now.
func (c Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Store persists challenges. Implementations must make Consume atomic per
// user: concurrent submissions of the same code must yield exactly one
// successful consumption.
type Store interface {
	// Save persists a new challenge for ch.UserID, replacing any prior
	// challenge for that user. ttl bounds backend retention and is always
	// >= time until ch.ExpiresAt.
	Save(ctx context.Context, ch Challenge, ttl time.Duration) error

	// FindValid returns the current unused, unexpired challenge for the
	// user, or nil when none exists.
	FindValid(ctx context.Context, userID string, now time.Time) (*Challenge, error)

	// FindByUserAndCode returns the user's current challenge when its code
	// matches exactly, regardless of used/expired flags, or nil.
	FindByUserAndCode(ctx context.Context, userID, code string) (*Challenge, error)

	// Consume atomically marks the user's challenge used when code matches
	// and the challenge is unused and unexpired at now. A mismatch counts
	// one attempt against the challenge; maxAttempts > 0 deletes the
	// challenge once reached. Returns whether consumption succeeded.
	Consume(ctx context.Context, userID, code string, now time.Time, maxAttempts int) (bool, error)

	// DeleteAllForUser removes any challenge held for the user.
	DeleteAllForUser(ctx context.Context, userID string) error

	// DeleteExpired removes challenges expired before now and returns the
	// number removed. Backends with native TTL expiry may return 0.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}
