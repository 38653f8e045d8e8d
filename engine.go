package authkit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/halcyonsec/authkit/internal/audit"
	"github.com/halcyonsec/authkit/internal/mail"
	"github.com/halcyonsec/authkit/internal/metrics"
	"github.com/halcyonsec/authkit/internal/rate"
	"github.com/halcyonsec/authkit/jwt"
	"github.com/halcyonsec/authkit/lockout"
	"github.com/halcyonsec/authkit/otp"
	"github.com/halcyonsec/authkit/password"
)

// Engine is the account-security core: registration, lockout-aware login,
// email OTP verification, and the per-client rate gate. Build one with
// [Builder] and share it; all methods are safe for concurrent use.
type Engine struct {
	config   Config
	users    UserStore
	otpStore otp.Store
	otpFlow  *otp.Flow
	mailer   Mailer
	verifier CredentialVerifier
	hasher   *password.Argon2
	tokens   *jwt.Manager
	limiter  *rate.Limiter
	audit    *audit.Dispatcher
	mail     *mail.Dispatcher
	metrics  *metrics.Metrics
	policy   lockout.Policy
	logger   *slog.Logger
	now      func() time.Time

	sweepStop chan struct{}
	sweepWG   sync.WaitGroup
	closeOnce sync.Once
	closed    bool
	closedMu  sync.RWMutex
}

// Allow reports whether one request for clientKey may proceed under the
// configured rate limit. With rate limiting disabled it always returns true.
// Denials increment a metric but are not audited; the caller has not been
// authenticated yet.
func (e *Engine) Allow(clientKey string) bool {
	if e == nil || e.limiter == nil {
		return true
	}
	if e.limiter.Allow(clientKey) {
		return true
	}
	e.metricInc(MetricRateLimitDenied)
	return false
}

// ParseToken validates an access token issued by this engine and returns its
// claims.
func (e *Engine) ParseToken(tokenStr string) (*jwt.AccessClaims, error) {
	claims, err := e.tokens.Parse(tokenStr)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// Close stops the sweeper and drains the audit and mail dispatchers. It is
// idempotent; operations invoked afterwards return ErrEngineClosed.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.closeOnce.Do(func() {
		e.closedMu.Lock()
		e.closed = true
		e.closedMu.Unlock()

		if e.sweepStop != nil {
			close(e.sweepStop)
			e.sweepWG.Wait()
		}
		if e.mail != nil {
			e.mail.Close()
		}
		if e.audit != nil {
			e.audit.Close()
		}
	})
}

func (e *Engine) isClosed() bool {
	e.closedMu.RLock()
	defer e.closedMu.RUnlock()
	return e.closed
}

// AuditDropped returns how many audit events were discarded because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MailDropped returns how many mail jobs were discarded because the
// dispatcher buffer was full.
func (e *Engine) MailDropped() uint64 {
	if e == nil || e.mail == nil {
		return 0
	}
	return e.mail.Dropped()
}

// MetricsSnapshot returns a point-in-time copy of all engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) emitAudit(ctx context.Context, action string, success bool, user *UserRecord, detail string, err error) {
	if e == nil || e.audit == nil {
		return
	}

	event := AuditEvent{
		ID:        uuid.NewString(),
		Timestamp: e.now().UTC(),
		Action:    action,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Detail:    detail,
	}
	if user != nil {
		event.UserID = user.UserID
		event.Username = user.Username
	}
	if err != nil {
		event.Error = err.Error()
	}

	e.audit.Emit(ctx, event)
}

/*
====================================
MAIL
====================================
*/

func (e *Engine) enqueueOTPMail(_, email, username, code string) {
	e.mail.Enqueue(mail.Job{
		Kind:     mail.KindOTP,
		Email:    email,
		Username: username,
		Code:     code,
	})
}

func (e *Engine) enqueueWelcomeMail(email, username string) {
	e.mail.Enqueue(mail.Job{
		Kind:     mail.KindWelcome,
		Email:    email,
		Username: username,
	})
}

func (e *Engine) sendMail(ctx context.Context, job mail.Job) error {
	switch job.Kind {
	case mail.KindOTP:
		return e.mailer.SendOTP(ctx, job.Email, job.Code, job.Username)
	case mail.KindWelcome:
		return e.mailer.SendWelcome(ctx, job.Email, job.Username)
	default:
		return fmt.Errorf("unknown mail kind %d", job.Kind)
	}
}

func (e *Engine) onMailError(job mail.Job, err error) {
	e.metricInc(MetricMailFailed)
	e.logger.Warn("authkit: mail delivery failed",
		slog.Int("kind", int(job.Kind)),
		slog.String("username", job.Username),
		slog.String("error", err.Error()),
	)
}

/*
====================================
SWEEPER
====================================
*/

// startSweeper launches the background loop that deletes expired OTP
// challenges. Expiry is enforced on every verification regardless; the sweep
// only reclaims storage for stores without native TTLs.
func (e *Engine) startSweeper(interval time.Duration) {
	e.sweepStop = make(chan struct{})
	e.sweepWG.Add(1)

	go func() {
		defer e.sweepWG.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := e.otpFlow.Sweep(context.Background()); err != nil {
					e.logger.Warn("authkit: otp sweep failed", slog.String("error", err.Error()))
				}
			case <-e.sweepStop:
				return
			}
		}
	}()
}

/*
====================================
DEFAULT CREDENTIAL VERIFIER
====================================
*/

// argon2Verifier is the default CredentialVerifier: it checks the plaintext
// against the record's argon2id PasswordHash.
type argon2Verifier struct {
	hasher *password.Argon2
}

func (v *argon2Verifier) Verify(_ context.Context, user *UserRecord, plaintext string) (bool, error) {
	if user == nil || user.PasswordHash == "" {
		return false, nil
	}
	ok, err := v.hasher.Verify(plaintext, user.PasswordHash)
	if err != nil {
		// A malformed stored hash is a credential failure, not an outage.
		return false, nil
	}
	return ok, nil
}
