package authkit

import (
	"context"
	"errors"
	"fmt"

	"github.com/halcyonsec/authkit/otp"
)

// VerifyOTP completes the MFA stage. A matching, unused, unexpired code
// consumes the challenge and yields the access token. Wrong, expired, and
// already-used codes are deliberately indistinguishable: all return
// ErrOTPInvalid. OTP failures never advance the account lockout counter.
func (e *Engine) VerifyOTP(ctx context.Context, identifier, code string) (*AuthResult, error) {
	if e.isClosed() {
		return nil, ErrEngineClosed
	}

	user, err := e.users.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserStoreUnavailable, err)
	}
	if user == nil {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, ActionOTPVerified, false, nil, "unknown identifier", ErrUserNotFound)
		return nil, ErrUserNotFound
	}

	ok, err := e.otpFlow.Verify(ctx, user.UserID, code)
	if err != nil {
		if errors.Is(err, otp.ErrStoreUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrOTPUnavailable, err)
		}
		return nil, err
	}
	if !ok {
		e.metricInc(MetricOTPFailure)
		e.emitAudit(ctx, ActionOTPVerified, false, user, "", ErrOTPInvalid)
		return nil, ErrOTPInvalid
	}

	token, err := e.tokens.Issue(user.Username, user.UserID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricOTPVerified)
	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, ActionOTPVerified, true, user, "", nil)
	e.emitAudit(ctx, ActionLogin, true, user, "", nil)

	return &AuthResult{
		Token:    token,
		UserID:   user.UserID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		Message:  "Login successful.",
	}, nil
}
