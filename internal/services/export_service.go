package services

import (
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/finbook/backend/internal/models"
)

type ExportService struct {
	db *sql.DB
}

func NewExportService(db *sql.DB) *ExportService {
	return &ExportService{db: db}
}

// UserExport is a complete JSON snapshot of one user's data, suitable for
// backup or migration.
type UserExport struct {
	ExportDate   string               `json:"exportDate"`
	Version      string               `json:"version"`
	User         models.User          `json:"user"`
	Preferences  models.Preferences   `json:"preferences"`
	Accounts     []models.Account     `json:"accounts"`
	Categories   []models.Category    `json:"categories"`
	Transactions []models.Transaction `json:"transactions"`
	Budgets      []models.Budget      `json:"budgets"`
}

// ExportUserData returns everything the user owns as one JSON document
// @Summary Export all user data
// @Tags export
// @Produce json
// @Success 200 {object} UserExport
// @Failure 500 {object} ErrorResponse
// @Router /export [get]
func (es *ExportService) ExportUserData(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	export := UserExport{
		ExportDate: time.Now().Format("2006-01-02"),
		Version:    "1.0",
	}

	err := es.db.QueryRow(`
		SELECT id, email, first_name, last_name, created_at FROM users WHERE id = $1`,
		userID).Scan(&export.User.ID, &export.User.Email, &export.User.FirstName,
		&export.User.LastName, &export.User.CreatedAt)
	if err != nil {
		log.Printf("[EXPORT] Failed to fetch user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to export data", http.StatusInternalServerError, nil)
		return
	}

	err = es.db.QueryRow(`
		SELECT currency, date_format, timezone, budget_alerts, transaction_reminders
		FROM user_preferences WHERE user_id = $1`,
		userID).Scan(&export.Preferences.Currency, &export.Preferences.DateFormat,
		&export.Preferences.Timezone, &export.Preferences.BudgetAlerts,
		&export.Preferences.TransactionReminders)
	if err != nil {
		log.Printf("[EXPORT] Failed to fetch preferences for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to export data", http.StatusInternalServerError, nil)
		return
	}

	export.Accounts, err = es.exportAccounts(userID)
	if err == nil {
		export.Categories, err = es.exportCategories(userID)
	}
	if err == nil {
		export.Transactions, err = es.exportTransactions(userID)
	}
	if err == nil {
		export.Budgets, err = es.exportBudgets(userID)
	}
	if err != nil {
		log.Printf("[EXPORT] Failed to collect data for user %d: %v", userID, err)
		SendErrorResponse(w, "Failed to export data", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[EXPORT] User %d exported %d accounts, %d categories, %d transactions, %d budgets",
		userID, len(export.Accounts), len(export.Categories), len(export.Transactions), len(export.Budgets))

	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=finbook-export-%s.json", export.ExportDate))
	SendJSON(w, http.StatusOK, export)
}

func (es *ExportService) exportAccounts(userID int) ([]models.Account, error) {
	rows, err := es.db.Query(`
		SELECT id, user_id, name, type, COALESCE(subtype, ''), currency, is_active, created_at
		FROM accounts
		WHERE user_id = $1
		ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.Name, &a.Type, &a.Subtype,
			&a.Currency, &a.IsActive, &a.CreatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (es *ExportService) exportCategories(userID int) ([]models.Category, error) {
	rows, err := es.db.Query(`
		SELECT id, user_id, name, type, COALESCE(color, ''), parent_id
		FROM categories
		WHERE user_id = $1
		ORDER BY type ASC, name ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Type, &c.Color, &c.ParentID); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// exportTransactions covers every account the user owns, not just the first.
func (es *ExportService) exportTransactions(userID int) ([]models.Transaction, error) {
	rows, err := es.db.Query(`
		SELECT t.id, t.account_id, t.category_id, t.date, t.amount, t.type,
		       t.title, t.description, t.is_pending, t.transfer_id, t.created_at
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		WHERE a.user_id = $1
		ORDER BY t.date ASC, t.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var tx models.Transaction
		if err := rows.Scan(&tx.ID, &tx.AccountID, &tx.CategoryID, &tx.Date, &tx.Amount,
			&tx.Type, &tx.Title, &tx.Description, &tx.IsPending, &tx.TransferID,
			&tx.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

func (es *ExportService) exportBudgets(userID int) ([]models.Budget, error) {
	rows, err := es.db.Query(`
		SELECT b.id, b.category_id, b.amount, b.created_at, b.updated_at
		FROM budgets b
		INNER JOIN categories c ON b.category_id = c.id
		WHERE c.user_id = $1
		ORDER BY b.created_at ASC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.CategoryID, &b.Amount, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}
