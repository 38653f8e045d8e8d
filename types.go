package authkit

import (
	"context"
	"io"
	"time"

	internalaudit "github.com/halcyonsec/authkit/internal/audit"
	internalmetrics "github.com/halcyonsec/authkit/internal/metrics"
	"github.com/halcyonsec/authkit/lockout"
)

// UserRecord is the account record exchanged with the host [UserStore].
// PasswordHash is opaque to the engine: it is only ever passed to the
// configured [CredentialVerifier], never compared directly.
type UserRecord struct {
	UserID       string
	Fullname     string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Enabled      bool
	Security     lockout.State
	CreatedAt    time.Time
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Fullname string
	Username string
	Email    string
	Password string
}

// AuthResult is returned by [Engine.Register], [Engine.Login], and
// [Engine.VerifyOTP]. After Login, MFARequired is true and Token is empty;
// the token is only issued once VerifyOTP succeeds.
type AuthResult struct {
	Token       string
	UserID      string
	Username    string
	Email       string
	Role        string
	MFARequired bool
	Message     string
}

// UserStore is the host-implemented durable store for user records.
//
// UpdateSecurity is the atomicity boundary for lock-state transitions: the
// store must run apply against the current row and persist the returned state
// as one atomic per-user read-modify-write (row lock or optimistic retry).
// Two concurrent failed logins must observe distinct counter values. A store
// may skip the write when apply returns the state unchanged.
type UserStore interface {
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*UserRecord, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Save(ctx context.Context, user *UserRecord) (*UserRecord, error)
	Delete(ctx context.Context, userID string) error
	UpdateSecurity(ctx context.Context, userID string, apply func(lockout.State) (lockout.State, error)) (lockout.State, error)
}

// CredentialVerifier checks a plaintext password against a user record.
// The default implementation verifies the argon2id PasswordHash; hosts that
// delegate to an external identity provider replace it via
// [Builder.WithCredentialVerifier].
type CredentialVerifier interface {
	Verify(ctx context.Context, user *UserRecord, password string) (bool, error)
}

// Mailer delivers OTP and welcome email. Both sends are fire-and-forget from
// the engine's perspective: they run on a background dispatcher with a
// bounded timeout, and a returned error is counted and logged, never
// surfaced to Register/Login callers.
type Mailer interface {
	SendOTP(ctx context.Context, toEmail, code, username string) error
	SendWelcome(ctx context.Context, toEmail, username string) error
}

// AuditEvent is a structured, append-only audit record emitted by the engine.
type AuditEvent = internalaudit.Event

// AuditSink receives [AuditEvent] values from the engine's audit dispatcher.
type AuditSink = internalaudit.Sink

// NoOpSink is an [AuditSink] that silently discards all events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink is a buffered channel-based [AuditSink].
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink is an [AuditSink] that writes JSON-encoded events, one per
// line, to an [io.Writer].
type JSONWriterSink = internalaudit.JSONWriterSink

// NewChannelSink creates a [ChannelSink] with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a [JSONWriterSink] that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// Audit action names, modeled on the platform's audit log taxonomy.
const (
	// ActionRegister is an exported constant or variable used by the engine.
	ActionRegister = "user.register"
	// ActionLogin is an exported constant or variable used by the engine.
	ActionLogin = "user.login"
	// ActionLoginFailed is an exported constant or variable used by the engine.
	ActionLoginFailed = "user.login.failed"
	// ActionAccountLocked is an exported constant or variable used by the engine.
	ActionAccountLocked = "user.account.locked"
	// ActionOTPSent is an exported constant or variable used by the engine.
	ActionOTPSent = "user.otp.sent"
	// ActionOTPVerified is an exported constant or variable used by the engine.
	ActionOTPVerified = "user.otp.verified"
)

// MetricID identifies a specific counter in the in-process metrics system.
type MetricID = internalmetrics.ID

const (
	// MetricLoginSuccess is an exported constant or variable used by the engine.
	MetricLoginSuccess = internalmetrics.LoginSuccess
	// MetricLoginFailure is an exported constant or variable used by the engine.
	MetricLoginFailure = internalmetrics.LoginFailure
	// MetricLoginLocked is an exported constant or variable used by the engine.
	MetricLoginLocked = internalmetrics.LoginLocked
	// MetricAccountLocked is an exported constant or variable used by the engine.
	MetricAccountLocked = internalmetrics.AccountLocked
	// MetricRegisterSuccess is an exported constant or variable used by the engine.
	MetricRegisterSuccess = internalmetrics.RegisterSuccess
	// MetricRegisterConflict is an exported constant or variable used by the engine.
	MetricRegisterConflict = internalmetrics.RegisterConflict
	// MetricOTPIssued is an exported constant or variable used by the engine.
	MetricOTPIssued = internalmetrics.OTPIssued
	// MetricOTPVerified is an exported constant or variable used by the engine.
	MetricOTPVerified = internalmetrics.OTPVerified
	// MetricOTPFailure is an exported constant or variable used by the engine.
	MetricOTPFailure = internalmetrics.OTPFailure
	// MetricRateLimitDenied is an exported constant or variable used by the engine.
	MetricRateLimitDenied = internalmetrics.RateLimitDenied
	// MetricMailFailed is an exported constant or variable used by the engine.
	MetricMailFailed = internalmetrics.MailFailed
)

// Metrics holds atomic counters for engine operations.
type Metrics = internalmetrics.Metrics

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot = internalmetrics.Snapshot
