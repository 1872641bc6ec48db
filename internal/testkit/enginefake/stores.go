package enginefake

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/services/client/storage"
)

// ExchangeStore is an in-memory ExchangeStore fake.
type ExchangeStore struct {
	mu        sync.Mutex
	Exchanges []storage.Exchange
	Err       error
}

func (s *ExchangeStore) RecordExchange(_ context.Context, exchange storage.Exchange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Exchanges = append(s.Exchanges, exchange)
	return nil
}

func (s *ExchangeStore) ListExchanges(_ context.Context, limit int) ([]storage.Exchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.Exchange, 0, limit)
	for i := len(s.Exchanges) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.Exchanges[i])
	}
	return out, nil
}

// IdentityStore is an in-memory IdentityStore fake.
type IdentityStore struct {
	UserID uuid.UUID
}

func (s *IdentityStore) LoadUserID(context.Context) (uuid.UUID, error) {
	if s.UserID == uuid.Nil {
		return uuid.Nil, storage.ErrNotFound
	}
	return s.UserID, nil
}

func (s *IdentityStore) SaveUserID(_ context.Context, userID uuid.UUID) error {
	s.UserID = userID
	return nil
}
