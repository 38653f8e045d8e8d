package otp

import (
	"context"
	"fmt"
	"time"
)

// FlowConfig tunes challenge issuance and verification.
type FlowConfig struct {
	// Digits is the code length; <= 0 uses [DefaultDigits].
	Digits int
	// TTL is the challenge lifetime from issuance.
	TTL time.Duration
	// MaxAttempts caps wrong submissions per challenge before it is
	// discarded; 0 disables the cap.
	MaxAttempts int
}

// Sender receives the issued code for asynchronous email delivery. It must
// not block: the engine passes its mail dispatcher's enqueue here.
type Sender func(userID, email, username, code string)

// Flow issues and verifies one-time codes against a [Store].
type Flow struct {
	store Store
	cfg   FlowConfig
	send  Sender
	now   func() time.Time
}

// NewFlow creates a Flow. send may be nil when no delivery is wired (tests).
// now may be nil and defaults to time.Now.
func NewFlow(store Store, cfg FlowConfig, send Sender, now func() time.Time) *Flow {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if send == nil {
		send = func(string, string, string, string) {}
	}
	if now == nil {
		now = time.Now
	}
	return &Flow{store: store, cfg: cfg, send: send, now: now}
}

// Issue invalidates any prior challenge for the user, persists a fresh one,
// and hands the code to the sender. The code is returned for auditing and
// tests; issuance succeeds regardless of eventual delivery.
func (f *Flow) Issue(ctx context.Context, userID, email, username string) (string, error) {
	if err := f.store.DeleteAllForUser(ctx, userID); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	code, err := GenerateCode(f.cfg.Digits)
	if err != nil {
		return "", err
	}

	now := f.now()
	ch := Challenge{
		UserID:    userID,
		Code:      code,
		ExpiresAt: now.Add(f.cfg.TTL),
		CreatedAt: now,
	}
	if err := f.store.Save(ctx, ch, f.cfg.TTL); err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	f.send(userID, email, username, code)
	return code, nil
}

// Verify consumes the user's challenge when code matches and the challenge
// is unused and unexpired. All failure modes return false with no further
// detail; none of them advance any account failure counter.
func (f *Flow) Verify(ctx context.Context, userID, code string) (bool, error) {
	if code == "" {
		return false, nil
	}
	ok, err := f.store.Consume(ctx, userID, code, f.now(), f.cfg.MaxAttempts)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return ok, nil
}

// Sweep deletes expired challenges. It runs outside the login path and has
// no correctness dependency; expiry is enforced on every Verify regardless.
func (f *Flow) Sweep(ctx context.Context) (int, error) {
	return f.store.DeleteExpired(ctx, f.now())
}
