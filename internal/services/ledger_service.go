package services

import (
	"database/sql"
	"log"

	"github.com/finbook/backend/internal/models"
	"github.com/google/uuid"
)

// LedgerService maintains per-account daily balance snapshots. Every
// transaction, transfer, edit or deletion funnels its balance effect through
// here, inside the caller's database transaction, so that the snapshot with
// the latest date always reflects the cumulative effect of all recorded
// transactions.
//
// Snapshots are written at day granularity: all mutations on the same
// calendar day collapse into one row via upsert on (account_id, date).
// Historical snapshots are never rewritten; a backdated transaction adjusts
// today's snapshot only.
type LedgerService struct {
	db *sql.DB
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{db: db}
}

// signedImpact converts a (type, positive amount) pair into the signed effect
// the transaction has on its account's balance.
func signedImpact(txType string, amount int64) int64 {
	if txType == models.TransactionTypeInflow {
		return amount
	}
	return -amount
}

// LatestBalanceTx returns the account's most recent snapshot balance in
// cents. ErrNoBalanceSnapshot is returned when no snapshot exists; callers
// must treat that as fatal for their unit of work.
func (s *LedgerService) LatestBalanceTx(tx *sql.Tx, accountID string) (int64, error) {
	var balance int64
	err := tx.QueryRow(`
		SELECT balance FROM account_balances
		WHERE account_id = $1
		ORDER BY date DESC
		LIMIT 1`, accountID).Scan(&balance)

	if err == sql.ErrNoRows {
		return 0, ErrNoBalanceSnapshot
	}
	if err != nil {
		return 0, err
	}

	return balance, nil
}

// UpsertTodayBalanceTx writes the account's snapshot for the current date,
// overwriting a snapshot already recorded today.
func (s *LedgerService) UpsertTodayBalanceTx(tx *sql.Tx, accountID string, balance int64) error {
	_, err := tx.Exec(`
		INSERT INTO account_balances (id, account_id, date, balance)
		VALUES ($1, $2, CURRENT_DATE, $3)
		ON CONFLICT (account_id, date) DO UPDATE SET balance = EXCLUDED.balance`,
		uuid.New().String(), accountID, balance)
	return err
}

// ApplyDeltaTx adjusts the account's latest balance by delta cents and
// persists the result as today's snapshot.
func (s *LedgerService) ApplyDeltaTx(tx *sql.Tx, accountID string, delta int64) error {
	lastBalance, err := s.LatestBalanceTx(tx, accountID)
	if err != nil {
		return err
	}

	newBalance := lastBalance + delta
	if err := s.UpsertTodayBalanceTx(tx, accountID, newBalance); err != nil {
		return err
	}

	log.Printf("[LEDGER] Account %s balance %d -> %d (delta %d)", accountID, lastBalance, newBalance, delta)
	return nil
}

// ApplyTransactionTx applies a newly recorded transaction to its account's
// balance.
func (s *LedgerService) ApplyTransactionTx(tx *sql.Tx, accountID, txType string, amount int64) error {
	return s.ApplyDeltaTx(tx, accountID, signedImpact(txType, amount))
}

// ReverseTransactionTx removes a transaction's effect from its account's
// balance, used when a transaction is deleted or moved to another account.
func (s *LedgerService) ReverseTransactionTx(tx *sql.Tx, accountID, txType string, amount int64) error {
	return s.ApplyDeltaTx(tx, accountID, -signedImpact(txType, amount))
}

// SeedBalanceTx records an absolute balance for the account at today's date.
// Used when an account is created or its balance is edited directly.
func (s *LedgerService) SeedBalanceTx(tx *sql.Tx, accountID string, balance int64) error {
	return s.UpsertTodayBalanceTx(tx, accountID, balance)
}
