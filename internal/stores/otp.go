package stores

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/halcyonsec/authkit/otp"
)

const otpRecordVersion1 = 1

// RedisOtpStore implements otp.Store on a Redis backend. The record for a
// user lives under a single key, so Save naturally invalidates any prior
// challenge and the key TTL garbage-collects expired rows without a sweep.
type RedisOtpStore struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisOtpStore creates a store using the given key prefix; an empty
// prefix defaults to "aotp".
func NewRedisOtpStore(redisClient redis.UniversalClient, prefix string) *RedisOtpStore {
	if prefix == "" {
		prefix = "aotp"
	}
	return &RedisOtpStore{redis: redisClient, prefix: prefix}
}

func (s *RedisOtpStore) key(userID string) string {
	return s.prefix + ":" + userID
}

func (s *RedisOtpStore) Save(ctx context.Context, ch otp.Challenge, ttl time.Duration) error {
	encoded, err := encodeChallenge(&ch)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = time.Until(ch.ExpiresAt)
		if ttl <= 0 {
			ttl = time.Second
		}
	}
	if err := s.redis.Set(ctx, s.key(ch.UserID), encoded, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", otp.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *RedisOtpStore) FindValid(ctx context.Context, userID string, now time.Time) (*otp.Challenge, error) {
	ch, err := s.load(ctx, userID)
	if err != nil || ch == nil {
		return nil, err
	}
	if ch.Used || ch.Expired(now) {
		return nil, nil
	}
	return ch, nil
}

func (s *RedisOtpStore) FindByUserAndCode(ctx context.Context, userID, code string) (*otp.Challenge, error) {
	ch, err := s.load(ctx, userID)
	if err != nil || ch == nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(ch.Code), []byte(code)) != 1 {
		return nil, nil
	}
	return ch, nil
}

func (s *RedisOtpStore) Consume(ctx context.Context, userID, code string, now time.Time, maxAttempts int) (bool, error) {
	const maxRetries = 4
	key := s.key(userID)

	for i := 0; i < maxRetries; i++ {
		var consumed bool
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			record, err := decodeChallenge(data)
			if err != nil {
				return err
			}

			if record.Used || record.Expired(now) {
				return nil
			}

			if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
				record.Attempts++
				if maxAttempts > 0 && record.Attempts >= maxAttempts {
					_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
						pipe.Del(ctx, key)
						return nil
					})
					return err
				}
				ttl := record.ExpiresAt.Sub(now)
				if ttl <= 0 {
					return nil
				}
				updated, err := encodeChallenge(record)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, updated, ttl)
					return nil
				})
				return err
			}

			record.Used = true
			updated, err := encodeChallenge(record)
			if err != nil {
				return err
			}
			ttl := record.ExpiresAt.Sub(now)
			if ttl <= 0 {
				ttl = time.Second
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			if err == nil {
				consumed = true
			}
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return false, nil
			}
			return false, fmt.Errorf("%w: %v", otp.ErrStoreUnavailable, err)
		}
		return consumed, nil
	}

	return false, nil
}

func (s *RedisOtpStore) DeleteAllForUser(ctx context.Context, userID string) error {
	if err := s.redis.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", otp.ErrStoreUnavailable, err)
	}
	return nil
}

// DeleteExpired is a no-op for the Redis store: key TTLs expire records
// natively.
func (s *RedisOtpStore) DeleteExpired(context.Context, time.Time) (int, error) {
	return 0, nil
}

func (s *RedisOtpStore) load(ctx context.Context, userID string) (*otp.Challenge, error) {
	data, err := s.redis.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", otp.ErrStoreUnavailable, err)
	}
	ch, err := decodeChallenge(data)
	if err != nil {
		return nil, err
	}
	ch.UserID = userID
	return ch, nil
}

func encodeChallenge(ch *otp.Challenge) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(otpRecordVersion1)

	var flags byte
	if ch.Used {
		flags |= 1
	}
	buf.WriteByte(flags)

	if ch.Attempts < 0 || ch.Attempts > 65535 {
		return nil, errors.New("otp attempts out of range")
	}
	if err := binary.Write(&buf, binary.BigEndian, uint16(ch.Attempts)); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, ch.ExpiresAt.Unix()); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, ch.CreatedAt.Unix()); err != nil {
		return nil, err
	}

	if len(ch.Code) > 255 {
		return nil, errors.New("otp code length exceeded")
	}
	buf.WriteByte(byte(len(ch.Code)))
	buf.WriteString(ch.Code)

	return buf.Bytes(), nil
}

func decodeChallenge(data []byte) (*otp.Challenge, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != otpRecordVersion1 {
		return nil, errors.New("invalid otp record version")
	}

	flags, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	var attempts uint16
	if err := binary.Read(reader, binary.BigEndian, &attempts); err != nil {
		return nil, err
	}
	var expiresAt, createdAt int64
	if err := binary.Read(reader, binary.BigEndian, &expiresAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &createdAt); err != nil {
		return nil, err
	}

	codeLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	code := make([]byte, codeLen)
	if _, err := io.ReadFull(reader, code); err != nil {
		return nil, err
	}

	return &otp.Challenge{
		Code:      string(code),
		ExpiresAt: time.Unix(expiresAt, 0),
		Used:      flags&1 != 0,
		Attempts:  int(attempts),
		CreatedAt: time.Unix(createdAt, 0),
	}, nil
}
