package authkit

import (
	"errors"
	"time"
)

// Config holds every tunable for the engine, grouped by concern. Instances
// are set once before Build and treated as immutable afterwards.
type Config struct {
	Security  SecurityConfig
	OTP       OTPConfig
	RateLimit RateLimitConfig
	JWT       JWTConfig
	Password  PasswordConfig
	Audit     AuditConfig
	Mail      MailConfig
	Metrics   MetricsConfig
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig controls the failed-login window and account lockout.
type SecurityConfig struct {
	MaxLoginAttempts int
	AttemptWindow    time.Duration
	LockDuration     time.Duration // 0 = manual unlock only
	DefaultRole      string
}

/*
====================================
OTP CONFIG
====================================
*/

// OTPConfig controls the email OTP challenge issued after a successful
// password check.
type OTPConfig struct {
	Digits        int
	TTL           time.Duration
	MaxAttempts   int
	SweepInterval time.Duration // 0 = no background sweep
	RedisPrefix   string
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig controls the per-client token bucket.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	MaxKeys           int
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig controls access token issuance.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
MAIL CONFIG
====================================
*/

// MailConfig controls the async mail dispatcher. Delivery failures are
// counted and logged, never surfaced to the operation that queued the send.
type MailConfig struct {
	BufferSize  int
	SendTimeout time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		Security: SecurityConfig{
			MaxLoginAttempts: 5,
			AttemptWindow:    10 * time.Minute,
			LockDuration:     30 * time.Minute,
			DefaultRole:      "viewer",
		},
		OTP: OTPConfig{
			Digits:        6,
			TTL:           5 * time.Minute,
			MaxAttempts:   5,
			SweepInterval: 0,
			RedisPrefix:   "aotp",
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 60,
			MaxKeys:           10000,
		},
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "hs256",
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Mail: MailConfig{
			BufferSize:  16,
			SendTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate checks cross-field consistency and rejects insecure settings.
func (c *Config) Validate() error {
	// Security
	if c.Security.MaxLoginAttempts <= 0 {
		return errors.New("Security MaxLoginAttempts must be > 0")
	}
	if c.Security.AttemptWindow <= 0 {
		return errors.New("Security AttemptWindow must be > 0")
	}
	if c.Security.LockDuration < 0 {
		return errors.New("Security LockDuration must be >= 0")
	}
	if c.Security.DefaultRole == "" {
		return errors.New("Security DefaultRole is required")
	}

	// OTP
	if c.OTP.Digits < 4 || c.OTP.Digits > 10 {
		return errors.New("OTP Digits must be between 4 and 10")
	}
	if c.OTP.TTL <= 0 {
		return errors.New("OTP TTL must be > 0")
	}
	if c.OTP.TTL > 15*time.Minute {
		return errors.New("OTP TTL must be <= 15m")
	}
	if c.OTP.MaxAttempts <= 0 {
		return errors.New("OTP MaxAttempts must be > 0")
	}
	if c.OTP.MaxAttempts > 10 {
		return errors.New("OTP MaxAttempts must be <= 10")
	}
	if c.OTP.SweepInterval < 0 {
		return errors.New("OTP SweepInterval must be >= 0")
	}

	// Rate limit
	if c.RateLimit.Enabled {
		if c.RateLimit.RequestsPerMinute <= 0 {
			return errors.New("RateLimit RequestsPerMinute must be > 0 when rate limiting is enabled")
		}
		if c.RateLimit.MaxKeys <= 0 {
			return errors.New("RateLimit MaxKeys must be > 0 when rate limiting is enabled")
		}
	}

	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.SigningMethod != "hs256" && c.JWT.SigningMethod != "ed25519" {
		return errors.New("unsupported JWT signing method")
	}
	if len(c.JWT.PrivateKey) == 0 {
		return errors.New("JWT PrivateKey is required")
	}
	if c.JWT.SigningMethod == "hs256" && len(c.JWT.PrivateKey) < 32 {
		return errors.New("hs256 requires key length >= 256 bits")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return errors.New("JWT Leeway must be between 0 and 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}
	if c.Password.MaxPasswordBytes < 0 {
		return errors.New("Password MaxPasswordBytes must be >= 0")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	// Mail
	if c.Mail.BufferSize <= 0 {
		return errors.New("Mail BufferSize must be > 0")
	}
	if c.Mail.SendTimeout <= 0 {
		return errors.New("Mail SendTimeout must be > 0")
	}

	return nil
}
