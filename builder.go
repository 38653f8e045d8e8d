package authkit

import (
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonsec/authkit/internal/audit"
	"github.com/halcyonsec/authkit/internal/mail"
	"github.com/halcyonsec/authkit/internal/metrics"
	"github.com/halcyonsec/authkit/internal/rate"
	"github.com/halcyonsec/authkit/internal/stores"
	"github.com/halcyonsec/authkit/jwt"
	"github.com/halcyonsec/authkit/lockout"
	"github.com/halcyonsec/authkit/otp"
	"github.com/halcyonsec/authkit/password"
)

// Builder assembles an [Engine]. Configure it with the With* methods and call
// Build exactly once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	users    UserStore
	otpStore otp.Store
	mailer   Mailer
	verifier CredentialVerifier
	sink     AuditSink
	logger   *slog.Logger
	clock    func() time.Time

	built bool
}

// New returns a Builder preloaded with [Config] defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the full configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing the default OTP challenge
// store.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore supplies the host's durable user store. Required.
func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithOtpStore overrides the OTP challenge store. When unset, Build wires a
// Redis-backed store from the client given to WithRedis.
func (b *Builder) WithOtpStore(store otp.Store) *Builder {
	b.otpStore = store
	return b
}

// WithMailer supplies the email delivery implementation. Required.
func (b *Builder) WithMailer(mailer Mailer) *Builder {
	b.mailer = mailer
	return b
}

// WithCredentialVerifier overrides password verification. When unset, the
// engine verifies the record's argon2id PasswordHash.
func (b *Builder) WithCredentialVerifier(verifier CredentialVerifier) *Builder {
	b.verifier = verifier
	return b
}

// WithAuditSink supplies the destination for audit events. Events are only
// emitted when Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger overrides the logger used for best-effort failures (mail
// delivery, sweeper errors). Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the engine clock. Intended for tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires every subsystem, and returns the
// ready Engine. The builder cannot be reused.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.users == nil {
		return nil, errors.New("user store required")
	}
	if b.mailer == nil {
		return nil, errors.New("mailer required")
	}

	otpStore := b.otpStore
	if otpStore == nil {
		if b.redis == nil {
			return nil, errors.New("redis client or otp store required")
		}
		otpStore = stores.NewRedisOtpStore(b.redis, cfg.OTP.RedisPrefix)
	}

	now := b.clock
	if now == nil {
		now = time.Now
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := &Engine{
		config:   cfg,
		users:    b.users,
		otpStore: otpStore,
		mailer:   b.mailer,
		logger:   logger,
		now:      now,
		policy: lockout.Policy{
			MaxAttempts:  cfg.Security.MaxLoginAttempts,
			Window:       cfg.Security.AttemptWindow,
			LockDuration: cfg.Security.LockDuration,
		},
	}

	engine.audit = audit.NewDispatcher(audit.Config{
		Enabled:    cfg.Audit.Enabled,
		BufferSize: cfg.Audit.BufferSize,
		DropIfFull: cfg.Audit.DropIfFull,
	}, b.sink)

	engine.metrics = metrics.New(cfg.Metrics.Enabled)

	engine.mail = mail.NewDispatcher(mail.Config{
		BufferSize:  cfg.Mail.BufferSize,
		SendTimeout: cfg.Mail.SendTimeout,
	}, engine.sendMail, engine.onMailError)

	if cfg.RateLimit.Enabled {
		perMinute := float64(cfg.RateLimit.RequestsPerMinute)
		engine.limiter = rate.New(rate.Config{
			Capacity:        perMinute,
			RefillPerSecond: perMinute / 60,
			MaxKeys:         cfg.RateLimit.MaxKeys,
			Now:             now,
		})
	}

	hasher, err := password.NewArgon2(password.Config{
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}
	engine.hasher = hasher

	if b.verifier != nil {
		engine.verifier = b.verifier
	} else {
		engine.verifier = &argon2Verifier{hasher: hasher}
	}

	tokens, err := jwt.NewManager(jwt.Config{
		TTL:           cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}
	engine.tokens = tokens

	engine.otpFlow = otp.NewFlow(otpStore, otp.FlowConfig{
		Digits:      cfg.OTP.Digits,
		TTL:         cfg.OTP.TTL,
		MaxAttempts: cfg.OTP.MaxAttempts,
	}, engine.enqueueOTPMail, now)

	if cfg.OTP.SweepInterval > 0 {
		engine.startSweeper(cfg.OTP.SweepInterval)
	}

	b.built = true

	return engine, nil
}
