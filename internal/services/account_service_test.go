package services

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestAccountService_CreateAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	t.Run("creation seeds the first snapshot", func(t *testing.T) {
		req := NewAccountRequest{
			Name:    "Checking",
			Type:    "cash",
			Balance: 100.00,
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WithArgs(sqlmock.AnyArg(), 1, "Checking", "cash", "", "EUR").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(10000)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/accounts", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero starting balance is allowed", func(t *testing.T) {
		req := NewAccountRequest{
			Name: "Empty",
			Type: "cash",
		}

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO accounts").
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(0)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/accounts", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid type rejected", func(t *testing.T) {
		req := NewAccountRequest{
			Name: "Weird",
			Type: "crypto",
		}

		body, _ := json.Marshal(req)
		r := authedRequest("POST", "/accounts", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.CreateAccount(w, r)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAccountService_UpdateAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	router := chi.NewRouter()
	router.Put("/accounts/{accountId}", service.UpdateAccount)

	t.Run("update overwrites today's snapshot", func(t *testing.T) {
		req := UpdateAccountRequest{
			Name:     "Checking",
			Type:     "cash",
			Currency: "EUR",
			Balance:  250.00,
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE accounts SET name = \\$1, type = \\$2, currency = \\$3").
			WithArgs("Checking", "cash", "EUR", "acc1", 1).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec("INSERT INTO account_balances").
			WithArgs(sqlmock.AnyArg(), "acc1", int64(25000)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		body, _ := json.Marshal(req)
		r := authedRequest("PUT", "/accounts/acc1", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account not found", func(t *testing.T) {
		req := UpdateAccountRequest{
			Name:    "Ghost",
			Type:    "cash",
			Balance: 10.00,
		}

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE accounts SET name = \\$1, type = \\$2, currency = \\$3").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		body, _ := json.Marshal(req)
		r := authedRequest("PUT", "/accounts/ghost", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_ListAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	cols := []string{"id", "user_id", "name", "type", "subtype", "currency", "is_active", "created_at", "current", "previous"}

	t.Run("balances converted to major units", func(t *testing.T) {
		mock.ExpectQuery("SELECT a.id, a.user_id, a.name, a.type").
			WithArgs(1, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow("acc1", 1, "Checking", "cash", "", "EUR", true, time.Now(), 12500, 10000).
				AddRow("acc2", 1, "Broker", "investment", "stocks", "EUR", true, time.Now(), 500000, 480000))

		r := authedRequest("GET", "/accounts", nil)
		w := httptest.NewRecorder()

		service.ListAccounts(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var accounts []map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &accounts)
		assert.Len(t, accounts, 2)
		assert.Equal(t, 125.0, accounts[0]["currentBalance"])
		assert.Equal(t, 100.0, accounts[0]["previousBalance"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("type filter applied", func(t *testing.T) {
		mock.ExpectQuery("SELECT a.id, a.user_id, a.name, a.type").
			WithArgs(1, sqlmock.AnyArg(), "cash").
			WillReturnRows(sqlmock.NewRows(cols))

		r := authedRequest("GET", "/accounts?type=cash", nil)
		w := httptest.NewRecorder()

		service.ListAccounts(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_GetAccountBalance(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	router := chi.NewRouter()
	router.Get("/accounts/{accountId}/balance", service.GetAccountBalance)

	t.Run("latest snapshot returned", func(t *testing.T) {
		mock.ExpectQuery("SELECT b.balance, b.date FROM account_balances b").
			WithArgs("acc1", 1).
			WillReturnRows(sqlmock.NewRows([]string{"balance", "date"}).AddRow(12500, "2026-08-30"))

		r := authedRequest("GET", "/accounts/acc1/balance", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		assert.Equal(t, 125.0, response["balance"])
		assert.Equal(t, "2026-08-30", response["date"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT b.balance, b.date FROM account_balances b").
			WithArgs("ghost", 1).
			WillReturnError(sql.ErrNoRows)

		r := authedRequest("GET", "/accounts/ghost/balance", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAccountService_DeleteAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewAccountService(db)

	router := chi.NewRouter()
	router.Delete("/accounts/{accountId}", service.DeleteAccount)

	t.Run("successful delete", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM accounts WHERE id = \\$1 AND user_id = \\$2").
			WithArgs("acc1", 1).
			WillReturnResult(sqlmock.NewResult(1, 1))

		r := authedRequest("DELETE", "/accounts/acc1", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("account not found", func(t *testing.T) {
		mock.ExpectExec("DELETE FROM accounts WHERE id = \\$1 AND user_id = \\$2").
			WithArgs("ghost", 1).
			WillReturnResult(sqlmock.NewResult(0, 0))

		r := authedRequest("DELETE", "/accounts/ghost", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
