package redisad

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"hotel_booking/internal/domain"
)

const pendingMarker = "pending"

// IdempotencyStore keeps (user, key) -> "<reservation id|pending>:<fingerprint>" with a TTL.
type IdempotencyStore struct {
	c   *redis.Client
	ttl time.Duration
}

func NewIdempotencyStore(c *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &IdempotencyStore{c: c, ttl: ttl}
}

func (s *IdempotencyStore) Begin(ctx context.Context, userID int64, key, fingerprint string) (int64, bool, error) {
	k := idemKey(userID, key)
	pending := pendingMarker + ":" + fingerprint
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.c.SetNX(ctx, k, pending, s.ttl).Result()
		if err != nil {
			return 0, false, fmt.Errorf("claim idempotency key: %w", err)
		}
		if ok {
			return 0, true, nil
		}
		v, err := s.c.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			// expired between SETNX and GET
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("read idempotency key: %w", err)
		}
		return parseEntry(v, fingerprint)
	}
	return 0, false, domain.ErrRequestInProgress
}

func parseEntry(v, fingerprint string) (int64, bool, error) {
	state, stored, ok := strings.Cut(v, ":")
	if !ok {
		return 0, false, fmt.Errorf("corrupt idempotency entry %q", v)
	}
	if stored != fingerprint {
		return 0, false, domain.ErrIdempotencyKeyReused
	}
	if state == pendingMarker {
		return 0, false, domain.ErrRequestInProgress
	}
	id, err := strconv.ParseInt(state, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency entry %q: %w", v, err)
	}
	return id, false, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, userID int64, key, fingerprint string, reservationID int64) error {
	v := strconv.FormatInt(reservationID, 10) + ":" + fingerprint
	return s.c.Set(ctx, idemKey(userID, key), v, s.ttl).Err()
}

func (s *IdempotencyStore) Release(ctx context.Context, userID int64, key string) error {
	return s.c.Del(ctx, idemKey(userID, key)).Err()
}

func idemKey(userID int64, key string) string {
	return fmt.Sprintf("hotel_booking:idem:%d:%s", userID, key)
}
