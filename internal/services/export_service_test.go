package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestExportService_ExportUserData(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewExportService(db)

	t.Run("full export", func(t *testing.T) {
		created := time.Date(2026, 1, 15, 9, 30, 0, 0, time.UTC)

		mock.ExpectQuery("SELECT id, email, first_name, last_name, created_at FROM users").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "created_at"}).
				AddRow(1, "jane@example.com", "Jane", "Doe", created))

		mock.ExpectQuery("SELECT currency, date_format, timezone, budget_alerts, transaction_reminders FROM user_preferences").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"currency", "date_format", "timezone", "budget_alerts", "transaction_reminders"}).
				AddRow("EUR", "dd.MM.yyyy", "Europe/Berlin", true, false))

		mock.ExpectQuery("SELECT id, user_id, name, type, COALESCE\\(subtype, ''\\), currency, is_active, created_at FROM accounts").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "type", "subtype", "currency", "is_active", "created_at"}).
				AddRow("accX", 1, "Checking", "cash", "", "EUR", true, created).
				AddRow("accY", 1, "Broker", "investment", "stocks", "EUR", true, created))

		mock.ExpectQuery("SELECT id, user_id, name, type, COALESCE\\(color, ''\\), parent_id FROM categories").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "type", "color", "parent_id"}).
				AddRow("cat1", 1, "Groceries", "outflow", "#ff0000", nil))

		mock.ExpectQuery("SELECT t.id, t.account_id, t.category_id, t.date, t.amount, t.type").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "account_id", "category_id", "date", "amount", "type",
				"title", "description", "is_pending", "transfer_id", "created_at"}).
				AddRow("tx1", "accX", "cat1", "2026-08-10", int64(4200), "outflow", "Weekly shop", "", false, nil, created).
				AddRow("tx2", "accY", nil, "2026-08-12", int64(250000), "inflow", "Dividend", "", false, nil, created))

		mock.ExpectQuery("SELECT b.id, b.category_id, b.amount, b.created_at, b.updated_at FROM budgets").
			WithArgs(1).
			WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "amount", "created_at", "updated_at"}).
				AddRow("bud1", "cat1", int64(30000), created, created))

		r := authedRequest("GET", "/export", nil)
		w := httptest.NewRecorder()

		service.ExportUserData(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

		var export UserExport
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &export))
		assert.Equal(t, "1.0", export.Version)
		assert.Equal(t, "jane@example.com", export.User.Email)
		assert.Equal(t, "EUR", export.Preferences.Currency)
		assert.Len(t, export.Accounts, 2)
		assert.Len(t, export.Categories, 1)
		assert.Len(t, export.Transactions, 2)
		assert.Len(t, export.Budgets, 1)
		assert.Equal(t, int64(4200), export.Transactions[0].Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("user lookup failure", func(t *testing.T) {
		mock.ExpectQuery("SELECT id, email, first_name, last_name, created_at FROM users").
			WithArgs(1).
			WillReturnError(assert.AnError)

		r := authedRequest("GET", "/export", nil)
		w := httptest.NewRecorder()

		service.ExportUserData(w, r)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
