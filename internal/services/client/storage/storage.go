// Package storage defines the client's local persistence contracts.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates a missing record.
var ErrNotFound = errors.New("record not found")

// Exchange outcomes.
const (
	OutcomeOK             = "ok"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeError          = "error"
)

// Exchange is one engine RPC as seen by the client.
type Exchange struct {
	ID            int64
	Kind          string
	Transport     string
	RequestID     string
	Outcome       string
	LatencyMillis int64
	LastError     string
	CreatedAt     time.Time
}

// ExchangeStore persists RPC exchange records for diagnostics.
type ExchangeStore interface {
	RecordExchange(ctx context.Context, exchange Exchange) error
	ListExchanges(ctx context.Context, limit int) ([]Exchange, error)
}

// IdentityStore persists the local user id between runs.
type IdentityStore interface {
	// LoadUserID returns ErrNotFound before the first SaveUserID.
	LoadUserID(ctx context.Context) (uuid.UUID, error)
	SaveUserID(ctx context.Context, userID uuid.UUID) error
}
