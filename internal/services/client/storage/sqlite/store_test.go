package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/louisbranch/dreamtides/internal/services/client/storage"
)

func TestRecordAndListExchanges(t *testing.T) {
	store := openTempStore(t)
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	if err := store.RecordExchange(context.Background(), storage.Exchange{
		Kind:          "connect",
		Transport:     "loopback",
		Outcome:       storage.OutcomeTransportError,
		LatencyMillis: 12,
		LastError:     "connection refused",
		CreatedAt:     now,
	}); err != nil {
		t.Fatalf("record exchange: %v", err)
	}
	if err := store.RecordExchange(context.Background(), storage.Exchange{
		Kind:          "perform_action",
		Transport:     "loopback",
		RequestID:     " 00000000-0000-0000-0000-000000000009 ",
		Outcome:       storage.OutcomeOK,
		LatencyMillis: 30,
		CreatedAt:     now.Add(time.Second),
	}); err != nil {
		t.Fatalf("record exchange second: %v", err)
	}

	exchanges, err := store.ListExchanges(context.Background(), 10)
	if err != nil {
		t.Fatalf("list exchanges: %v", err)
	}
	if len(exchanges) != 2 {
		t.Fatalf("exchanges len = %d, want 2", len(exchanges))
	}
	if exchanges[0].Kind != "perform_action" {
		t.Fatalf("exchanges[0].kind = %q, want %q", exchanges[0].Kind, "perform_action")
	}
	if exchanges[0].RequestID != "00000000-0000-0000-0000-000000000009" {
		t.Fatalf("exchanges[0].request_id = %q, want trimmed id", exchanges[0].RequestID)
	}
	if exchanges[1].LastError != "connection refused" {
		t.Fatalf("exchanges[1].last_error = %q, want %q", exchanges[1].LastError, "connection refused")
	}
	if !exchanges[1].CreatedAt.Equal(now) {
		t.Fatalf("exchanges[1].created_at = %v, want %v", exchanges[1].CreatedAt, now)
	}
}

func TestRecordExchangeValidation(t *testing.T) {
	store := openTempStore(t)

	if err := store.RecordExchange(context.Background(), storage.Exchange{}); err == nil {
		t.Fatal("expected validation error for empty exchange")
	}
	if _, err := store.ListExchanges(context.Background(), 0); err == nil {
		t.Fatal("expected validation error for zero limit")
	}
}

func TestUserIDRoundTrip(t *testing.T) {
	store := openTempStore(t)
	ctx := context.Background()

	if _, err := store.LoadUserID(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("load before save err = %v, want ErrNotFound", err)
	}

	first := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	if err := store.SaveUserID(ctx, first); err != nil {
		t.Fatalf("save user id: %v", err)
	}
	second := uuid.MustParse("66666666-7777-8888-9999-000000000000")
	if err := store.SaveUserID(ctx, second); err != nil {
		t.Fatalf("save user id again: %v", err)
	}

	got, err := store.LoadUserID(ctx)
	if err != nil {
		t.Fatalf("load user id: %v", err)
	}
	if got != second {
		t.Fatalf("user id = %v, want %v", got, second)
	}
	if err := store.SaveUserID(ctx, uuid.Nil); err == nil {
		t.Fatal("expected error for nil user id")
	}
}

func TestUserIDSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "client.db")
	ctx := context.Background()
	userID := uuid.MustParse("abcdefab-cdef-abcd-efab-cdefabcdefab")

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := store.SaveUserID(ctx, userID); err != nil {
		t.Fatalf("save user id: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()
	got, err := reopened.LoadUserID(ctx)
	if err != nil {
		t.Fatalf("load user id: %v", err)
	}
	if got != userID {
		t.Fatalf("user id = %v, want %v", got, userID)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), "  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestNilStore(t *testing.T) {
	var store *Store
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
	if err := store.RecordExchange(context.Background(), storage.Exchange{}); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "client.db")
	store, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
