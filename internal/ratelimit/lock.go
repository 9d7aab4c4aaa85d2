package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrLockUnavailable = errors.New("submission lock unavailable")
	ErrLockKeyEmpty    = errors.New("submission key is empty")
)

// compare-and-delete so a request whose hold already expired cannot free a
// hold taken later by a retry
var releaseIfHolder = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

// SubmissionLock marks a checkout key as in flight. The stored token is a
// ULID, so the value in redis also records when the hold started.
type SubmissionLock struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewSubmissionLock(client redis.Cmdable, ttl time.Duration) *SubmissionLock {
	if client == nil || ttl <= 0 {
		return nil
	}
	return &SubmissionLock{client: client, ttl: ttl}
}

// Acquire returns ok=false when another request holds key.
func (l *SubmissionLock) Acquire(ctx context.Context, key string) (token string, ok bool, err error) {
	if l == nil {
		return "", false, ErrLockUnavailable
	}
	if key == "" {
		return "", false, ErrLockKeyEmpty
	}

	token = ulid.Make().String()
	ok, err = l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

func (l *SubmissionLock) Release(ctx context.Context, key, token string) error {
	if l == nil || key == "" || token == "" {
		return nil
	}
	return releaseIfHolder.Run(ctx, l.client, []string{key}, token).Err()
}

// HeldSince decodes the hold start from a token returned by Acquire.
func HeldSince(token string) (time.Time, bool) {
	id, err := ulid.ParseStrict(token)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(id.Time()), true
}
