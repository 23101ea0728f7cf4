package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"speechable/internal/domain"
	"speechable/internal/infra"
	"speechable/internal/sqlinline"
)

const (
	// pgNoDataFound is raised by deduct_credits for unknown accounts.
	pgNoDataFound = "P0002"
	// pgInvalidText is raised when a user id is not a uuid.
	pgInvalidText = "22P02"
)

// settlementNamespace derives settlement ids from user and request ids.
var settlementNamespace = uuid.MustParse("6b1f0d7e-3c52-4a9e-8f14-2d7c90e5b3a1")

// CreditRepositoryPG implements domain.CreditRepository on top of the
// check_and_refill_credits and deduct_credits procedures. Each call is a
// single round trip; the row lock lives inside the procedure.
type CreditRepositoryPG struct {
	db infra.SQLExecutor
}

// NewCreditRepository creates a CreditRepositoryPG.
func NewCreditRepository(db infra.SQLExecutor) *CreditRepositoryPG {
	return &CreditRepositoryPG{db: db}
}

// RefillAndGet returns the user's balance after applying any due refill.
func (r *CreditRepositoryPG) RefillAndGet(ctx context.Context, userID string) (*domain.CreditBalance, error) {
	row := r.db.QueryRow(ctx, sqlinline.QRefillAndGetCredits, userID)
	b := domain.CreditBalance{UserID: userID}
	if err := row.Scan(&b.Credits, &b.MonthlyAllowance, &b.NextRefillDate); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isPgCode(err, pgInvalidText) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("refill credits: %w", err)
	}
	return &b, nil
}

// Deduct charges amount to the user. Repeating a request id is a no-op that
// reports the original outcome.
func (r *CreditRepositoryPG) Deduct(ctx context.Context, userID, requestID string, amount float64) (*domain.CreditSettlement, error) {
	settlementID := SettlementID(userID, requestID)
	row := r.db.QueryRow(ctx, sqlinline.QDeductCredits, userID, amount, settlementID)
	s := domain.CreditSettlement{UserID: userID, RequestID: settlementID}
	if err := row.Scan(&s.NewBalance, &s.Charged, &s.Replayed); err != nil {
		if isPgCode(err, pgNoDataFound) || isPgCode(err, pgInvalidText) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("deduct credits: %w", err)
	}
	return &s, nil
}

// SettlementID maps a request id onto the uuid key of credit_settlements.
// The id is scoped to the user, so two accounts never share a settlement.
// An empty request id gets a fresh uuid.
func SettlementID(userID, requestID string) string {
	if requestID == "" {
		return uuid.NewString()
	}
	return uuid.NewSHA1(settlementNamespace, []byte(userID+"\x00"+requestID)).String()
}

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

var _ domain.CreditRepository = (*CreditRepositoryPG)(nil)
