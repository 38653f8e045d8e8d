package authkit

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUserNotFound is returned when no user matches the supplied
	// username or email. Login callers should present it to end users as a
	// generic credential failure; see ErrInvalidCredentials.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidCredentials is the generic password-failure error. It never
	// distinguishes a wrong password from a wrong username.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUsernameExists is returned by Register for a duplicate username.
	ErrUsernameExists = errors.New("username already exists")
	// ErrEmailExists is returned by Register for a duplicate email.
	ErrEmailExists = errors.New("email already exists")
	// ErrAccountLocked indicates the account is locked out. Errors carrying
	// it are of type *AccountLockedError and include the unlock time.
	ErrAccountLocked = errors.New("account locked")
	// ErrOTPInvalid is the single error for a wrong, expired, or already
	// used OTP code. The cases are intentionally indistinguishable.
	ErrOTPInvalid = errors.New("invalid or expired otp")
	// ErrOTPUnavailable indicates the OTP challenge backend is unreachable.
	ErrOTPUnavailable = errors.New("otp backend unavailable")
	// ErrRateLimited indicates the request was rejected by the per-client
	// rate gate before reaching any business logic.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrUserStoreUnavailable indicates the host user store failed.
	ErrUserStoreUnavailable = errors.New("user store unavailable")
	// ErrTokenInvalid is an exported constant or variable used by the engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrEngineClosed is returned by operations invoked after Close.
	ErrEngineClosed = errors.New("engine closed")
)

// AccountLockedError is returned by Login while an account lockout is in
// effect. Until is the instant after which the account auto-unlocks.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

func (e *AccountLockedError) Unwrap() error {
	return ErrAccountLocked
}
