package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"speechable/internal/domain"
	"speechable/internal/sqlinline"
)

func TestRefillAndGet(t *testing.T) {
	next := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	db := &stubDB{row: func(dest ...any) error {
		return assign([]any{12.5, 100.0, next}, dest)
	}}
	repo := NewCreditRepository(db)

	b, err := repo.RefillAndGet(context.Background(), "u1")
	if err != nil {
		t.Fatalf("RefillAndGet error: %v", err)
	}
	if b.UserID != "u1" || b.Credits != 12.5 || b.MonthlyAllowance != 100 || !b.NextRefillDate.Equal(next) {
		t.Fatalf("unexpected balance: %+v", b)
	}
	if call := db.lastCall(); call.query != sqlinline.QRefillAndGetCredits {
		t.Fatalf("unexpected query %q", call.query)
	}
}

func TestRefillAndGet_UnknownUser(t *testing.T) {
	repo := NewCreditRepository(&stubDB{err: pgx.ErrNoRows})
	if _, err := repo.RefillAndGet(context.Background(), "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefillAndGet_DatabaseError(t *testing.T) {
	repo := NewCreditRepository(&stubDB{err: errors.New("conn reset")})
	_, err := repo.RefillAndGet(context.Background(), "u1")
	if err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected wrapped database error, got %v", err)
	}
}

func TestDeduct(t *testing.T) {
	db := &stubDB{row: func(dest ...any) error {
		return assign([]any{7.5, 2.5, false}, dest)
	}}
	repo := NewCreditRepository(db)

	reqID := "0b8f3b1e-8d5c-4d53-9a43-1f5b2c7d9e10"
	s, err := repo.Deduct(context.Background(), "u1", reqID, 2.5)
	if err != nil {
		t.Fatalf("Deduct error: %v", err)
	}
	if s.NewBalance != 7.5 || s.Charged != 2.5 || s.Replayed {
		t.Fatalf("unexpected settlement: %+v", s)
	}
	call := db.lastCall()
	if call.query != sqlinline.QDeductCredits {
		t.Fatalf("unexpected query %q", call.query)
	}
	if len(call.args) != 3 || call.args[0] != "u1" || call.args[1] != 2.5 || call.args[2] != SettlementID("u1", reqID) {
		t.Fatalf("unexpected args: %v", call.args)
	}
}

func TestDeduct_MissingAccount(t *testing.T) {
	repo := NewCreditRepository(&stubDB{err: &pgconn.PgError{Code: "P0002", Message: "no credit account"}})
	if _, err := repo.Deduct(context.Background(), "u1", "r1", 1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRefillAndGet_NonUUIDUser(t *testing.T) {
	repo := NewCreditRepository(&stubDB{err: &pgconn.PgError{Code: "22P02", Message: "invalid input syntax for type uuid"}})
	if _, err := repo.RefillAndGet(context.Background(), "not-a-uuid"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSettlementID(t *testing.T) {
	a := SettlementID("u1", "client-retry-42")
	b := SettlementID("u1", "client-retry-42")
	if a != b {
		t.Fatalf("retried settlement ids differ: %q vs %q", a, b)
	}
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("settlement id %q is not a uuid: %v", a, err)
	}
	if a == SettlementID("u1", "client-retry-43") {
		t.Fatal("different request ids must map to different settlements")
	}
	if a == SettlementID("u2", "client-retry-42") {
		t.Fatal("the same request id from another user must map to a different settlement")
	}

	if SettlementID("u1", "") == SettlementID("u1", "") {
		t.Fatal("empty request ids must not share a settlement")
	}
}
