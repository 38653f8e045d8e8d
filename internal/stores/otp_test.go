package stores

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/halcyonsec/authkit/otp"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis.Run failed: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})
	return mr, client
}

func testChallenge(userID, code string, now time.Time) otp.Challenge {
	return otp.Challenge{
		UserID:    userID,
		Code:      code,
		ExpiresAt: now.Add(5 * time.Minute),
		CreatedAt: now,
	}
}

func TestRedisOtpStoreSaveAndFindValid(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "123456", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	ch, err := store.FindValid(ctx, "u1", now)
	if err != nil {
		t.Fatalf("FindValid error: %v", err)
	}
	if ch == nil {
		t.Fatal("expected a challenge")
	}
	if ch.Code != "123456" || ch.UserID != "u1" || ch.Used || ch.Attempts != 0 {
		t.Fatalf("unexpected challenge: %+v", ch)
	}
}

func TestRedisOtpStoreConsumeOnce(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "123456", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	ok, err := store.Consume(ctx, "u1", "123456", now, 5)
	if err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if !ok {
		t.Fatal("expected first consume to succeed")
	}

	ok, err = store.Consume(ctx, "u1", "123456", now, 5)
	if err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if ok {
		t.Fatal("expected second consume to fail")
	}
}

func TestRedisOtpStoreConsumeMissingUser(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()

	store := NewRedisOtpStore(client, "")
	ok, err := store.Consume(ctx, "ghost", "123456", time.Now(), 5)
	if err != nil {
		t.Fatalf("Consume error: %v", err)
	}
	if ok {
		t.Fatal("expected consume without a challenge to fail")
	}
}

func TestRedisOtpStoreAttemptCapDeletes(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "123456", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if ok, err := store.Consume(ctx, "u1", "000000", now, 3); ok || err != nil {
			t.Fatalf("wrong-code consume: ok=%v err=%v", ok, err)
		}
	}

	if ok, err := store.Consume(ctx, "u1", "123456", now, 3); ok || err != nil {
		t.Fatalf("expected challenge discarded after attempt cap: ok=%v err=%v", ok, err)
	}
}

func TestRedisOtpStoreSaveReplacesPrior(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "111111", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.Save(ctx, testChallenge("u1", "222222", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	if ok, _ := store.Consume(ctx, "u1", "111111", now, 5); ok {
		t.Fatal("replaced code must not verify")
	}
	if ok, _ := store.Consume(ctx, "u1", "222222", now, 5); !ok {
		t.Fatal("current code must verify")
	}
}

func TestRedisOtpStoreExpiryByBackendTTL(t *testing.T) {
	mr, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "123456", now), time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	ch, err := store.FindValid(ctx, "u1", now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("FindValid error: %v", err)
	}
	if ch != nil {
		t.Fatalf("expected expired key gone, got %+v", ch)
	}
}

func TestRedisOtpStoreDeleteAllForUser(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "123456", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if err := store.DeleteAllForUser(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAllForUser error: %v", err)
	}

	ch, err := store.FindValid(ctx, "u1", now)
	if err != nil {
		t.Fatalf("FindValid error: %v", err)
	}
	if ch != nil {
		t.Fatal("expected no challenge after delete")
	}
}

func TestRedisOtpStoreConcurrentConsumeSingleWinner(t *testing.T) {
	_, client := newTestRedis(t)
	ctx := context.Background()
	now := time.Now()

	store := NewRedisOtpStore(client, "")
	if err := store.Save(ctx, testChallenge("u1", "123456", now), 5*time.Minute); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		consumed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Consume(ctx, "u1", "123456", now, 5)
			if err != nil {
				t.Errorf("Consume error: %v", err)
				return
			}
			if ok {
				mu.Lock()
				consumed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if consumed != 1 {
		t.Fatalf("consumed %d times, want exactly 1", consumed)
	}
}
