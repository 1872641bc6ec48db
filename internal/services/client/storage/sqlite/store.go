// Package sqlite implements client storage on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/louisbranch/dreamtides/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/dreamtides/internal/services/client/storage"
	"github.com/louisbranch/dreamtides/internal/services/client/storage/sqlite/migrations"
)

// Store provides SQLite-backed identity and exchange persistence.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a client SQLite store and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// LoadUserID returns the persisted user id.
func (s *Store) LoadUserID(ctx context.Context) (uuid.UUID, error) {
	if err := ctx.Err(); err != nil {
		return uuid.Nil, err
	}
	if s == nil || s.sqlDB == nil {
		return uuid.Nil, fmt.Errorf("storage is not configured")
	}

	var raw string
	err := s.sqlDB.QueryRowContext(ctx, `SELECT user_id FROM client_identity WHERE singleton = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, storage.ErrNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("load user id: %w", err)
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse stored user id: %w", err)
	}
	return userID, nil
}

// SaveUserID persists userID, replacing any previous value.
func (s *Store) SaveUserID(ctx context.Context, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if userID == uuid.Nil {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO client_identity (singleton, user_id, updated_at)
VALUES (1, ?, ?)
ON CONFLICT(singleton) DO UPDATE SET
	user_id = excluded.user_id,
	updated_at = excluded.updated_at
`, userID.String(), s.now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("save user id: %w", err)
	}
	return nil
}

// RecordExchange persists one engine exchange.
func (s *Store) RecordExchange(ctx context.Context, exchange storage.Exchange) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	exchange.Kind = strings.TrimSpace(exchange.Kind)
	exchange.Transport = strings.TrimSpace(exchange.Transport)
	exchange.RequestID = strings.TrimSpace(exchange.RequestID)
	exchange.Outcome = strings.TrimSpace(exchange.Outcome)
	exchange.LastError = strings.TrimSpace(exchange.LastError)
	if exchange.Kind == "" {
		return fmt.Errorf("exchange kind is required")
	}
	if exchange.Transport == "" {
		return fmt.Errorf("transport is required")
	}
	if exchange.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if exchange.LatencyMillis < 0 {
		exchange.LatencyMillis = 0
	}
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = s.now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO engine_exchanges (
	kind,
	transport,
	request_id,
	outcome,
	latency_ms,
	last_error,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?)
`,
		exchange.Kind,
		exchange.Transport,
		exchange.RequestID,
		exchange.Outcome,
		exchange.LatencyMillis,
		exchange.LastError,
		exchange.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record exchange: %w", err)
	}
	return nil
}

// ListExchanges lists newest-first exchange records.
func (s *Store) ListExchanges(ctx context.Context, limit int) ([]storage.Exchange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	id,
	kind,
	transport,
	request_id,
	outcome,
	latency_ms,
	last_error,
	created_at
FROM engine_exchanges
ORDER BY created_at DESC, id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list exchanges: %w", err)
	}
	defer rows.Close()

	records := make([]storage.Exchange, 0, limit)
	for rows.Next() {
		var record storage.Exchange
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.Kind,
			&record.Transport,
			&record.RequestID,
			&record.Outcome,
			&record.LatencyMillis,
			&record.LastError,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan exchange: %w", err)
		}
		record.CreatedAt = time.UnixMilli(createdAt).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchanges: %w", err)
	}
	return records, nil
}

var (
	_ storage.ExchangeStore = (*Store)(nil)
	_ storage.IdentityStore = (*Store)(nil)
)
