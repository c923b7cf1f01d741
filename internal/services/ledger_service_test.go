package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestSignedImpact(t *testing.T) {
	assert.Equal(t, int64(2500), signedImpact("inflow", 2500))
	assert.Equal(t, int64(-2500), signedImpact("outflow", 2500))
}

func TestLedgerService_ApplyTransactionTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	t.Run("inflow adds to latest balance", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM account_balances WHERE account_id = \\$1 ORDER BY date DESC LIMIT 1").
			WithArgs("acc1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10000))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(12500)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = service.ApplyTransactionTx(tx, "acc1", "inflow", 2500)
		assert.NoError(t, err)
		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("outflow subtracts from latest balance", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM account_balances WHERE account_id = \\$1 ORDER BY date DESC LIMIT 1").
			WithArgs("acc1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(12500))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(7500)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = service.ApplyTransactionTx(tx, "acc1", "outflow", 5000)
		assert.NoError(t, err)
		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing snapshot is fatal", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM account_balances WHERE account_id = \\$1 ORDER BY date DESC LIMIT 1").
			WithArgs("acc1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}))
		mock.ExpectRollback()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = service.ApplyTransactionTx(tx, "acc1", "inflow", 2500)
		assert.ErrorIs(t, err, ErrNoBalanceSnapshot)
		assert.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_ReverseTransactionTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	t.Run("reversing an inflow removes it", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM account_balances WHERE account_id = \\$1 ORDER BY date DESC LIMIT 1").
			WithArgs("acc1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(12500))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(10000)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = service.ReverseTransactionTx(tx, "acc1", "inflow", 2500)
		assert.NoError(t, err)
		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reversing an outflow restores it", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT balance FROM account_balances WHERE account_id = \\$1 ORDER BY date DESC LIMIT 1").
			WithArgs("acc1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(7500))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(12500)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		tx, err := db.Begin()
		assert.NoError(t, err)

		err = service.ReverseTransactionTx(tx, "acc1", "outflow", 5000)
		assert.NoError(t, err)
		assert.NoError(t, tx.Commit())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_SeedBalanceTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewLedgerService(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO account_balances").
		WithArgs(sqlmock.AnyArg(), "acc1", int64(10000)).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	assert.NoError(t, err)

	err = service.SeedBalanceTx(tx, "acc1", 10000)
	assert.NoError(t, err)
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
