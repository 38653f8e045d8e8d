package authkit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failLogins(t *testing.T, engine *Engine, identifier string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := engine.Login(context.Background(), identifier, "wrong-password")
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("failure %d: err = %v, want ErrInvalidCredentials", i+1, err)
		}
	}
}

func TestLockoutAfterMaxFailures(t *testing.T) {
	engine, _, _, _ := newTestEngine(t, nil)
	registerAlice(t, engine)

	failLogins(t, engine, "alice", 5)

	// Even the correct password is refused while locked.
	_, err := engine.Login(context.Background(), "alice", "s3cret-password")
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("err = %v, want AccountLockedError", err)
	}
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatal("AccountLockedError must unwrap to ErrAccountLocked")
	}
	if locked.Until.IsZero() {
		t.Fatal("timed lock must carry an expiry")
	}
}

func TestLockoutExpiresAfterLockDuration(t *testing.T) {
	engine, _, _, clock := newTestEngine(t, nil)
	registerAlice(t, engine)

	failLogins(t, engine, "alice", 5)

	clock.Advance(30*time.Minute + time.Second)

	res, err := engine.Login(context.Background(), "alice", "s3cret-password")
	if err != nil {
		t.Fatalf("Login after lock expiry failed: %v", err)
	}
	if !res.MFARequired {
		t.Fatal("expected MFARequired after successful password stage")
	}
}

func TestLockoutWindowRestart(t *testing.T) {
	engine, _, _, clock := newTestEngine(t, nil)
	registerAlice(t, engine)

	failLogins(t, engine, "alice", 4)

	// A stale window must not contribute toward the lock threshold.
	clock.Advance(10*time.Minute + time.Second)
	failLogins(t, engine, "alice", 1)

	res, err := engine.Login(context.Background(), "alice", "s3cret-password")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if !res.MFARequired {
		t.Fatal("expected MFARequired")
	}
}

func TestLockoutSuccessResetsCounter(t *testing.T) {
	engine, _, mailer, _ := newTestEngine(t, nil)
	ctx := context.Background()
	registerAlice(t, engine)

	failLogins(t, engine, "alice", 4)

	if _, err := engine.Login(ctx, "alice", "s3cret-password"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	waitFor(t, mailer.otpCodes, "otp mail")

	// The reset counter means four more failures stay below the threshold.
	failLogins(t, engine, "alice", 4)
	if _, err := engine.Login(ctx, "alice", "s3cret-password"); err != nil {
		t.Fatalf("Login after reset failed: %v", err)
	}
}

func TestLockoutManualUnlockMode(t *testing.T) {
	engine, users, _, clock := newTestEngine(t, func(cfg *Config) {
		cfg.Security.LockDuration = 0
	})
	registerAlice(t, engine)

	failLogins(t, engine, "alice", 5)

	_, err := engine.Login(context.Background(), "alice", "s3cret-password")
	var locked *AccountLockedError
	if !errors.As(err, &locked) {
		t.Fatalf("err = %v, want AccountLockedError", err)
	}
	if !locked.Until.IsZero() {
		t.Fatalf("manual lock must carry no expiry, got %v", locked.Until)
	}

	// Time alone never clears a manual lock.
	clock.Advance(365 * 24 * time.Hour)
	if _, err := engine.Login(context.Background(), "alice", "s3cret-password"); !errors.As(err, &locked) {
		t.Fatalf("err = %v, want AccountLockedError after a year", err)
	}

	// An operator clearing the state unlocks the account.
	user, err := users.FindByUsernameOrEmail(context.Background(), "alice")
	if err != nil || user == nil {
		t.Fatalf("lookup failed: %v", err)
	}
	users.mu.Lock()
	stored := users.byID[user.UserID]
	stored.Security.Locked = false
	stored.Security.FailedAttempts = 0
	users.mu.Unlock()

	res, err := engine.Login(context.Background(), "alice", "s3cret-password")
	if err != nil {
		t.Fatalf("Login after manual unlock failed: %v", err)
	}
	if !res.MFARequired {
		t.Fatal("expected MFARequired")
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	engine, users, _, _ := newTestEngine(t, nil)
	res := registerAlice(t, engine)

	users.mu.Lock()
	users.byID[res.UserID].Enabled = false
	users.mu.Unlock()

	_, err := engine.Login(context.Background(), "alice", "s3cret-password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials for disabled account", err)
	}
}
