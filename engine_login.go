package authkit

import (
	"context"
	"fmt"
	"time"

	"github.com/halcyonsec/authkit/lockout"
)

// Login runs the password stage of authentication. On success it issues an
// email OTP challenge and returns a result with MFARequired set and no
// token; the token is only produced by [Engine.VerifyOTP].
//
// While an account lockout is in effect, Login returns *AccountLockedError
// without touching the failure counter or checking the password. A wrong
// password records one failure; reaching the configured attempt threshold
// inside the sliding window trips a timed lock.
func (e *Engine) Login(ctx context.Context, identifier, plaintext string) (*AuthResult, error) {
	if e.isClosed() {
		return nil, ErrEngineClosed
	}

	user, err := e.users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}
	if user == nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, ActionLoginFailed, false, nil, "unknown identifier", ErrUserNotFound)
		return nil, ErrUserNotFound
	}

	if !user.Enabled {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, ActionLoginFailed, false, user, "account disabled", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	now := e.now()

	// Expired locks are cleared in the store before the status check, so a
	// returning user starts with a clean counter.
	state, err := e.users.UpdateSecurity(ctx, user.UserID, func(s lockout.State) (lockout.State, error) {
		next, _ := e.policy.Reconcile(s, now)
		return next, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}

	if e.policy.Evaluate(state, now) == lockout.Locked {
		var until time.Time
		if state.LockedUntil != nil {
			until = *state.LockedUntil
		}
		e.metricInc(MetricLoginLocked)
		e.emitAudit(ctx, ActionLoginFailed, false, user, lockDetail(until), ErrAccountLocked)
		return nil, &AccountLockedError{Until: until}
	}

	ok, err := e.verifier.Verify(ctx, user, plaintext)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, e.recordLoginFailure(ctx, user, now)
	}

	if _, err := e.users.UpdateSecurity(ctx, user.UserID, func(s lockout.State) (lockout.State, error) {
		next, _ := e.policy.Reset(s)
		return next, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}

	if _, err := e.otpFlow.Issue(ctx, user.UserID, user.Email, user.Username); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
	}

	e.metricInc(MetricOTPIssued)
	e.emitAudit(ctx, ActionOTPSent, true, user, "", nil)

	return &AuthResult{
		UserID:      user.UserID,
		Username:    user.Username,
		Email:       user.Email,
		Role:        user.Role,
		MFARequired: true,
		Message:     "OTP sent to your registered email. Please verify to complete login.",
	}, nil
}

func (e *Engine) recordLoginFailure(ctx context.Context, user *UserRecord, now time.Time) error {
	var lockedNow bool
	state, err := e.users.UpdateSecurity(ctx, user.UserID, func(s lockout.State) (lockout.State, error) {
		next, locked := e.policy.RecordFailure(s, now)
		lockedNow = locked
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}

	e.metricInc(MetricLoginFailure)
	detail := fmt.Sprintf("attempt %d/%d", state.FailedAttempts, e.policy.MaxAttempts)
	e.emitAudit(ctx, ActionLoginFailed, false, user, detail, ErrInvalidCredentials)

	if lockedNow {
		var until time.Time
		if state.LockedUntil != nil {
			until = *state.LockedUntil
		}
		e.metricInc(MetricAccountLocked)
		e.emitAudit(ctx, ActionAccountLocked, false, user, lockDetail(until), ErrAccountLocked)
	}

	return ErrInvalidCredentials
}

func lockDetail(until time.Time) string {
	if until.IsZero() {
		return "account locked until manual unlock"
	}
	return "account locked until " + until.Format(time.RFC3339)
}
