package memory

import (
	"context"
	"fmt"
	"sync"

	"hotel_booking/internal/domain"
)

type idemEntry struct {
	reservationID int64 // 0 while in progress
	fingerprint   string
}

type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]idemEntry
}

func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: map[string]idemEntry{}}
}

func (s *IdempotencyStore) Begin(_ context.Context, userID int64, key, fingerprint string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := idemKey(userID, key)
	e, ok := s.keys[k]
	switch {
	case !ok:
		s.keys[k] = idemEntry{fingerprint: fingerprint}
		return 0, true, nil
	case e.fingerprint != fingerprint:
		return 0, false, domain.ErrIdempotencyKeyReused
	case e.reservationID == 0:
		return 0, false, domain.ErrRequestInProgress
	default:
		return e.reservationID, false, nil
	}
}

func (s *IdempotencyStore) Complete(_ context.Context, userID int64, key, fingerprint string, reservationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[idemKey(userID, key)] = idemEntry{reservationID: reservationID, fingerprint: fingerprint}
	return nil
}

func (s *IdempotencyStore) Release(_ context.Context, userID int64, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, idemKey(userID, key))
	return nil
}

func idemKey(userID int64, key string) string { return fmt.Sprintf("%d:%s", userID, key) }
