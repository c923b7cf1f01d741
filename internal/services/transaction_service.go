package services

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/finbook/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TransactionService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{
		db:        db,
		ledger:    NewLedgerService(db),
		validator: NewValidationHelper(),
	}
}

type NewTransactionRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	AccountID   string  `json:"accountId" validate:"required"`
	CategoryID  string  `json:"categoryId"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Type        string  `json:"type" validate:"required,oneof=inflow outflow"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Description string  `json:"description" validate:"max=500"`
}

type UpdateTransactionRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	AccountID   string  `json:"accountId" validate:"required"`
	CategoryID  string  `json:"categoryId"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Type        string  `json:"type" validate:"required,oneof=inflow outflow"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
	Description string  `json:"description" validate:"max=500"`
}

type TransferRequest struct {
	FromAccountID string  `json:"fromAccountId" validate:"required"`
	ToAccountID   string  `json:"toAccountId" validate:"required"`
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	Date          string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// CreateTransaction records a new transaction and updates the account's
// balance snapshot in one unit of work
// @Summary Create a transaction
// @Description Record an inflow or outflow and update the account balance
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body NewTransactionRequest true "Transaction data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions [post]
func (ts *TransactionService) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req NewTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := ts.checkAccountOwnership(req.AccountID, userID); err != nil {
		log.Printf("[TRANSACTION] Account check failed for %s: %v", req.AccountID, err)
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	txID := uuid.New().String()
	amount := toCents(req.Amount)

	dbTx, err := ts.db.Begin()
	if err != nil {
		log.Printf("[TRANSACTION] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(`
		INSERT INTO transactions (id, account_id, category_id, date, amount, type, title, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`,
		txID, req.AccountID, nullString(req.CategoryID), req.Date, amount, req.Type, req.Title, req.Description)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to insert transaction: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	if err := ts.ledger.ApplyTransactionTx(dbTx, req.AccountID, req.Type, amount); err != nil {
		log.Printf("[TRANSACTION] Failed to update balance for %s: %v", req.AccountID, err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSACTION] Failed to commit transaction: %v", err)
		SendErrorResponse(w, "Failed to create transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      txID,
	})
}

// CreateTransfer records a transfer as two linked transactions and updates
// both account balances
// @Summary Create a transfer
// @Description Move money between two accounts as a linked outflow/inflow pair
// @Tags transactions
// @Accept json
// @Produce json
// @Param transfer body TransferRequest true "Transfer data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transfers [post]
func (ts *TransactionService) CreateTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req TransferRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.FromAccountID == req.ToAccountID {
		log.Printf("[TRANSFER] Same account transfer attempt: %s", req.FromAccountID)
		SendErrorResponse(w, ErrSameAccountTransfer.Error(), http.StatusBadRequest, nil)
		return
	}

	var owned int
	err := ts.db.QueryRow(`
		SELECT COUNT(*) FROM accounts
		WHERE id IN ($1, $2) AND user_id = $3`,
		req.FromAccountID, req.ToAccountID, userID).Scan(&owned)
	if err != nil || owned != 2 {
		log.Printf("[TRANSFER] Account check failed (owned=%d): %v", owned, err)
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	amount := toCents(req.Amount)
	outflowID := uuid.New().String()
	inflowID := uuid.New().String()

	dbTx, err := ts.db.Begin()
	if err != nil {
		log.Printf("[TRANSFER] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(`
		INSERT INTO transactions (id, account_id, date, amount, type, title, description, created_at)
		VALUES ($1, $2, $3, $4, 'outflow', 'Transfer', '', NOW())`,
		outflowID, req.FromAccountID, req.Date, amount)
	if err != nil {
		log.Printf("[TRANSFER] Failed to insert outflow leg: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}

	_, err = dbTx.Exec(`
		INSERT INTO transactions (id, account_id, date, amount, type, title, description, transfer_id, created_at)
		VALUES ($1, $2, $3, $4, 'inflow', 'Transfer', '', $5, NOW())`,
		inflowID, req.ToAccountID, req.Date, amount, outflowID)
	if err != nil {
		log.Printf("[TRANSFER] Failed to insert inflow leg: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}

	// Cross-link the outflow leg back to its pair
	_, err = dbTx.Exec(`UPDATE transactions SET transfer_id = $1 WHERE id = $2`, inflowID, outflowID)
	if err != nil {
		log.Printf("[TRANSFER] Failed to link legs: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}

	if err := ts.ledger.ApplyTransactionTx(dbTx, req.FromAccountID, models.TransactionTypeOutflow, amount); err != nil {
		log.Printf("[TRANSFER] Failed to update source balance: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}

	if err := ts.ledger.ApplyTransactionTx(dbTx, req.ToAccountID, models.TransactionTypeInflow, amount); err != nil {
		log.Printf("[TRANSFER] Failed to update destination balance: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSFER] Failed to commit transfer: %v", err)
		SendErrorResponse(w, "Failed to create transfer", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"success":   true,
		"outflowId": outflowID,
		"inflowId":  inflowID,
	})
}

// UpdateTransaction edits a transaction and reconciles the affected account
// balances
// @Summary Update a transaction
// @Description Edit a transaction; balance snapshots on every touched account are reconciled
// @Tags transactions
// @Accept json
// @Produce json
// @Param txId path string true "Transaction ID"
// @Param transaction body UpdateTransactionRequest true "Transaction data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/{txId} [put]
func (ts *TransactionService) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	txID := chi.URLParam(r, "txId")

	var req UpdateTransactionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if err := ts.checkAccountOwnership(req.AccountID, userID); err != nil {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	dbTx, err := ts.db.Begin()
	if err != nil {
		log.Printf("[TRANSACTION] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	var oldAccountID, oldType string
	var oldAmount int64
	err = dbTx.QueryRow(`
		SELECT t.account_id, t.amount, t.type
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		WHERE t.id = $1 AND a.user_id = $2`, txID, userID).Scan(&oldAccountID, &oldAmount, &oldType)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[TRANSACTION] Failed to fetch transaction %s: %v", txID, err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	newAmount := toCents(req.Amount)

	_, err = dbTx.Exec(`
		UPDATE transactions
		SET title = $1, account_id = $2, category_id = $3, amount = $4, type = $5, date = $6, description = $7
		WHERE id = $8`,
		req.Title, req.AccountID, nullString(req.CategoryID), newAmount, req.Type, req.Date, req.Description, txID)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to update transaction %s: %v", txID, err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}

	if oldAccountID == req.AccountID {
		delta := signedImpact(req.Type, newAmount) - signedImpact(oldType, oldAmount)
		if err := ts.ledger.ApplyDeltaTx(dbTx, req.AccountID, delta); err != nil {
			log.Printf("[TRANSACTION] Failed to reconcile balance for %s: %v", req.AccountID, err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
			return
		}
	} else {
		if err := ts.ledger.ReverseTransactionTx(dbTx, oldAccountID, oldType, oldAmount); err != nil {
			log.Printf("[TRANSACTION] Failed to reverse balance on %s: %v", oldAccountID, err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
			return
		}

		if err := ts.ledger.ApplyTransactionTx(dbTx, req.AccountID, req.Type, newAmount); err != nil {
			log.Printf("[TRANSACTION] Failed to apply balance on %s: %v", req.AccountID, err)
			SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
			return
		}
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSACTION] Failed to commit update: %v", err)
		SendErrorResponse(w, "Failed to update transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteTransaction removes a transaction, its transfer pair if any, and
// reverses both balance effects
// @Summary Delete a transaction
// @Description Delete a transaction; a linked transfer leg is deleted too and both balances reversed
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /transactions/{txId} [delete]
func (ts *TransactionService) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	txID := chi.URLParam(r, "txId")

	dbTx, err := ts.db.Begin()
	if err != nil {
		log.Printf("[TRANSACTION] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	var accountID, txType string
	var amount int64
	var transferID sql.NullString
	err = dbTx.QueryRow(`
		SELECT t.account_id, t.amount, t.type, t.transfer_id
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		WHERE t.id = $1 AND a.user_id = $2`, txID, userID).Scan(&accountID, &amount, &txType, &transferID)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[TRANSACTION] Failed to fetch transaction %s: %v", txID, err)
			SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		}
		return
	}

	// A transfer pair is linked in either direction: this leg points at its
	// pair, or the pair points back at this leg.
	var pairedID, pairedAccountID, pairedType string
	var pairedAmount int64
	hasPaired := false
	if transferID.Valid {
		err = dbTx.QueryRow(`
			SELECT id, account_id, amount, type FROM transactions WHERE id = $1`,
			transferID.String).Scan(&pairedID, &pairedAccountID, &pairedAmount, &pairedType)
	} else {
		err = dbTx.QueryRow(`
			SELECT id, account_id, amount, type FROM transactions WHERE transfer_id = $1 LIMIT 1`,
			txID).Scan(&pairedID, &pairedAccountID, &pairedAmount, &pairedType)
	}
	if err == nil {
		hasPaired = true
	} else if err != sql.ErrNoRows {
		log.Printf("[TRANSACTION] Failed to look up transfer pair of %s: %v", txID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if _, err := dbTx.Exec(`DELETE FROM transactions WHERE id = $1`, txID); err != nil {
		log.Printf("[TRANSACTION] Failed to delete transaction %s: %v", txID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if hasPaired {
		if _, err := dbTx.Exec(`DELETE FROM transactions WHERE id = $1`, pairedID); err != nil {
			log.Printf("[TRANSACTION] Failed to delete transfer pair %s: %v", pairedID, err)
			SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
			return
		}

		if err := ts.ledger.ReverseTransactionTx(dbTx, pairedAccountID, pairedType, pairedAmount); err != nil {
			log.Printf("[TRANSACTION] Failed to reverse pair balance on %s: %v", pairedAccountID, err)
			SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
			return
		}
	}

	if err := ts.ledger.ReverseTransactionTx(dbTx, accountID, txType, amount); err != nil {
		log.Printf("[TRANSACTION] Failed to reverse balance on %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[TRANSACTION] Failed to commit delete: %v", err)
		SendErrorResponse(w, "Failed to delete transaction", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListTransactions retrieves the user's transactions with filters and paging
// @Summary List transactions
// @Description Get transactions with optional search, category, account and date filters
// @Tags transactions
// @Produce json
// @Param search query string false "Match against title or description"
// @Param categoryId query string false "Filter by category"
// @Param accountId query string false "Filter by account"
// @Param dateRange query string false "all, today, week, month or year"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} ErrorResponse
// @Router /transactions [get]
func (ts *TransactionService) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		DateRange string `validate:"omitempty,oneof=all today week month year"`
		Page      int    `validate:"min=1"`
		PageSize  int    `validate:"min=1,max=100"`
	}
	req.DateRange = "all"
	req.Page = 1
	req.PageSize = 10

	if v := r.URL.Query().Get("dateRange"); v != "" {
		req.DateRange = v
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.Page = n
		}
	}
	if v := r.URL.Query().Get("pageSize"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.PageSize = n
		}
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	conditions := []string{"a.user_id = $1"}
	args := []interface{}{userID}
	argIndex := 2

	if search := r.URL.Query().Get("search"); search != "" {
		conditions = append(conditions,
			fmt.Sprintf("(LOWER(t.title) LIKE $%d OR LOWER(t.description) LIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+strings.ToLower(search)+"%")
		argIndex++
	}

	if categoryID := r.URL.Query().Get("categoryId"); categoryID != "" {
		conditions = append(conditions, fmt.Sprintf("t.category_id = $%d", argIndex))
		args = append(args, categoryID)
		argIndex++
	}

	if accountID := r.URL.Query().Get("accountId"); accountID != "" {
		conditions = append(conditions, fmt.Sprintf("t.account_id = $%d", argIndex))
		args = append(args, accountID)
		argIndex++
	}

	if start := dateRangeStart(req.DateRange); start != "" {
		conditions = append(conditions, fmt.Sprintf("t.date >= $%d", argIndex))
		args = append(args, start)
		argIndex++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := `
		SELECT COUNT(*)
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		WHERE ` + where
	if err := ts.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		log.Printf("[TRANSACTION] Failed to count transactions: %v", err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	query := `
		SELECT t.id, t.title, t.amount, t.type, t.date, t.description,
		       a.id, a.name, a.type, a.currency,
		       c.id, c.name, c.color, t.transfer_id
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE ` + where + `
		ORDER BY t.date DESC, t.created_at DESC` +
		fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, req.PageSize, (req.Page-1)*req.PageSize)

	rows, err := ts.db.Query(query, args...)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch transactions: %v", err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	transactions := []models.TransactionListItem{}
	for rows.Next() {
		var item models.TransactionListItem
		var amount int64
		err := rows.Scan(
			&item.ID, &item.Title, &amount, &item.Type, &item.Date, &item.Description,
			&item.AccountID, &item.AccountName, &item.AccountType, &item.AccountCurrency,
			&item.CategoryID, &item.CategoryName, &item.CategoryColor, &item.TransferID,
		)
		if err != nil {
			log.Printf("[TRANSACTION] Failed to scan transaction row: %v", err)
			SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
			return
		}
		item.Amount = fromCents(amount)
		transactions = append(transactions, item)
	}

	totalPages := (total + req.PageSize - 1) / req.PageSize
	SendJSON(w, http.StatusOK, map[string]any{
		"transactions": transactions,
		"pagination": map[string]int{
			"page":       req.Page,
			"pageSize":   req.PageSize,
			"total":      total,
			"totalPages": totalPages,
		},
	})
}

// GetTransaction retrieves a single transaction
// @Summary Get transaction by ID
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.TransactionListItem
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (ts *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	txID := chi.URLParam(r, "txId")

	var item models.TransactionListItem
	var amount int64
	err := ts.db.QueryRow(`
		SELECT t.id, t.title, t.amount, t.type, t.date, t.description,
		       a.id, a.name, a.type, a.currency,
		       c.id, c.name, c.color, t.transfer_id
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.id = $1 AND a.user_id = $2`, txID, userID).Scan(
		&item.ID, &item.Title, &amount, &item.Type, &item.Date, &item.Description,
		&item.AccountID, &item.AccountName, &item.AccountType, &item.AccountCurrency,
		&item.CategoryID, &item.CategoryName, &item.CategoryColor, &item.TransferID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Transaction not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[TRANSACTION] Failed to fetch transaction %s: %v", txID, err)
			SendErrorResponse(w, "Failed to fetch transaction", http.StatusInternalServerError, nil)
		}
		return
	}
	item.Amount = fromCents(amount)

	SendJSON(w, http.StatusOK, item)
}

// GetTransactionSummary returns the last 30 days of income and expenses
// @Summary Get transaction summary
// @Tags transactions
// @Produce json
// @Success 200 {object} models.TransactionSummary
// @Failure 500 {object} ErrorResponse
// @Router /transactions/summary [get]
func (ts *TransactionService) GetTransactionSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	startDate := time.Now().AddDate(0, 0, -30).Format("2006-01-02")

	var income, expenses int64
	err := ts.db.QueryRow(`
		SELECT COALESCE(SUM(CASE WHEN t.type = 'inflow' THEN t.amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN t.type = 'outflow' THEN t.amount ELSE 0 END), 0)
		FROM transactions t
		INNER JOIN accounts a ON t.account_id = a.id
		WHERE a.user_id = $1 AND a.is_active = TRUE AND t.date >= $2`,
		userID, startDate).Scan(&income, &expenses)
	if err != nil {
		log.Printf("[TRANSACTION] Failed to fetch summary: %v", err)
		SendErrorResponse(w, "Failed to fetch transaction summary", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, models.TransactionSummary{
		Income:   fromCents(income),
		Expenses: fromCents(expenses),
		Net:      fromCents(income - expenses),
	})
}

var transactionCSVHeaders = []string{
	"id", "account_id", "category_id", "date", "amount", "type", "title", "description", "created_at",
}

// ImportTransactions bulk-loads transactions from a previously exported CSV.
// Rows are validated individually; existing IDs are skipped. Balance
// snapshots are not recomputed by imports.
// @Summary Import transactions from CSV
// @Tags transactions
// @Accept json
// @Produce json
// @Param request body object{csv=string} true "CSV content"
// @Success 200 {object} models.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /transactions/import [post]
func (ts *TransactionService) ImportTransactions(w http.ResponseWriter, r *http.Request) {
	if _, ok := userIDFromRequest(r); !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		CSV string `json:"csv" validate:"required"`
	}
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	reader := csv.NewReader(strings.NewReader(req.CSV))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil || len(records) < 2 {
		SendErrorResponse(w, "CSV file is empty or has no data rows", http.StatusBadRequest, nil)
		return
	}

	headerMap := map[string]int{}
	for i, h := range records[0] {
		headerMap[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, h := range transactionCSVHeaders {
		if _, ok := headerMap[h]; !ok {
			SendErrorResponse(w,
				"Invalid CSV headers. Required: "+strings.Join(transactionCSVHeaders, ", "),
				http.StatusBadRequest, nil)
			return
		}
	}

	result := models.ImportResult{Errors: []string{}}

	for i, row := range records[1:] {
		rowNum := i + 2
		if len(row) < len(transactionCSVHeaders)-1 {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Invalid number of columns", rowNum))
			continue
		}

		id := row[headerMap["id"]]
		accountID := row[headerMap["account_id"]]
		categoryID := row[headerMap["category_id"]]
		date := row[headerMap["date"]]
		amountStr := row[headerMap["amount"]]
		txType := row[headerMap["type"]]
		title := row[headerMap["title"]]
		description := row[headerMap["description"]]

		amount, err := strconv.ParseFloat(amountStr, 64)
		if err != nil || amount <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Invalid amount %q", rowNum, amountStr))
			continue
		}

		if txType != models.TransactionTypeInflow && txType != models.TransactionTypeOutflow {
			result.Errors = append(result.Errors,
				fmt.Sprintf("Row %d: Invalid type %q (must be 'inflow' or 'outflow')", rowNum, txType))
			continue
		}

		res, err := ts.db.Exec(`
			INSERT INTO transactions (id, account_id, category_id, date, amount, type, title, description, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
			ON CONFLICT (id) DO NOTHING`,
			id, accountID, nullString(categoryID), date, toCents(amount), txType, title, description)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: Database error - %v", rowNum, err))
			continue
		}

		if affected, _ := res.RowsAffected(); affected > 0 {
			result.Success++
		} else {
			result.Skipped++
		}
	}

	SendJSON(w, http.StatusOK, result)
}

func (ts *TransactionService) checkAccountOwnership(accountID string, userID int) error {
	var exists bool
	err := ts.db.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1 AND user_id = $2)`,
		accountID, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return ErrAccountNotFound
	}
	return nil
}

func dateRangeStart(dateRange string) string {
	now := time.Now()
	switch dateRange {
	case "today":
		return now.Format("2006-01-02")
	case "week":
		return now.AddDate(0, 0, -7).Format("2006-01-02")
	case "month":
		return now.AddDate(0, -1, 0).Format("2006-01-02")
	case "year":
		return now.AddDate(-1, 0, 0).Format("2006-01-02")
	default:
		return ""
	}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
