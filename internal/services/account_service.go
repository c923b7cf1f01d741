package services

import (
	"database/sql"
	"log"
	"net/http"
	"time"

	"github.com/finbook/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type AccountService struct {
	db        *sql.DB
	ledger    *LedgerService
	validator *ValidationHelper
}

func NewAccountService(db *sql.DB) *AccountService {
	return &AccountService{
		db:        db,
		ledger:    NewLedgerService(db),
		validator: NewValidationHelper(),
	}
}

type NewAccountRequest struct {
	Name     string  `json:"name" validate:"required,max=80"`
	Type     string  `json:"type" validate:"required,oneof=cash investment liability other_asset"`
	Subtype  string  `json:"subtype" validate:"max=40"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Balance  float64 `json:"balance"`
}

type UpdateAccountRequest struct {
	Name     string  `json:"name" validate:"required,max=80"`
	Type     string  `json:"type" validate:"required,oneof=cash investment liability other_asset"`
	Currency string  `json:"currency" validate:"omitempty,len=3"`
	Balance  float64 `json:"balance"`
}

// CreateAccount creates an account and seeds its first balance snapshot.
// Both writes happen in one unit of work so an account can never exist
// without a snapshot.
// @Summary Create an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body NewAccountRequest true "Account data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [post]
func (as *AccountService) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req NewAccountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if req.Currency == "" {
		req.Currency = "EUR"
	}

	accountID := uuid.New().String()

	dbTx, err := as.db.Begin()
	if err != nil {
		log.Printf("[ACCOUNT] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	_, err = dbTx.Exec(`
		INSERT INTO accounts (id, user_id, name, type, subtype, currency, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, TRUE, NOW())`,
		accountID, userID, req.Name, req.Type, req.Subtype, req.Currency)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to insert account: %v", err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	if err := as.ledger.SeedBalanceTx(dbTx, accountID, toCents(req.Balance)); err != nil {
		log.Printf("[ACCOUNT] Failed to seed balance for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[ACCOUNT] Failed to commit account creation: %v", err)
		SendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      accountID,
	})
}

// UpdateAccount edits account fields and overwrites today's balance snapshot
// with the provided absolute balance
// @Summary Update an account
// @Tags accounts
// @Accept json
// @Produce json
// @Param accountId path string true "Account ID"
// @Param account body UpdateAccountRequest true "Account data"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts/{accountId} [put]
func (as *AccountService) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	var req UpdateAccountRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	dbTx, err := as.db.Begin()
	if err != nil {
		log.Printf("[ACCOUNT] Failed to begin transaction: %v", err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}
	defer dbTx.Rollback()

	result, err := dbTx.Exec(`
		UPDATE accounts SET name = $1, type = $2, currency = $3
		WHERE id = $4 AND user_id = $5`,
		req.Name, req.Type, req.Currency, accountID, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to update account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	if err := as.ledger.SeedBalanceTx(dbTx, accountID, toCents(req.Balance)); err != nil {
		log.Printf("[ACCOUNT] Failed to upsert balance for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	if err := dbTx.Commit(); err != nil {
		log.Printf("[ACCOUNT] Failed to commit account update: %v", err)
		SendErrorResponse(w, "Failed to update account", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteAccount deletes an account; balances and transactions cascade
// @Summary Delete an account
// @Tags accounts
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId} [delete]
func (as *AccountService) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	result, err := as.db.Exec(`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to delete account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to delete account", http.StatusInternalServerError, nil)
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ListAccounts retrieves the user's accounts with current and month-start
// balances
// @Summary List accounts
// @Tags accounts
// @Produce json
// @Param type query string false "Filter by account type"
// @Success 200 {array} models.AccountWithBalance
// @Failure 500 {object} ErrorResponse
// @Router /accounts [get]
func (as *AccountService) ListAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).Format("2006-01-02")

	query := `
		SELECT a.id, a.user_id, a.name, a.type, COALESCE(a.subtype, ''), a.currency, a.is_active, a.created_at,
		       COALESCE((SELECT b.balance FROM account_balances b
		                 WHERE b.account_id = a.id
		                 ORDER BY b.date DESC LIMIT 1), 0),
		       COALESCE((SELECT b.balance FROM account_balances b
		                 WHERE b.account_id = a.id AND b.date <= $2
		                 ORDER BY b.date DESC LIMIT 1), 0)
		FROM accounts a
		WHERE a.user_id = $1`
	args := []interface{}{userID, monthStart}

	if accountType := r.URL.Query().Get("type"); accountType != "" {
		query += ` AND a.type = $3`
		args = append(args, accountType)
	}
	query += ` ORDER BY a.type ASC, a.name ASC, a.created_at DESC`

	rows, err := as.db.Query(query, args...)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to fetch accounts: %v", err)
		SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	accounts := []models.AccountWithBalance{}
	for rows.Next() {
		var acc models.AccountWithBalance
		var current, previous int64
		err := rows.Scan(
			&acc.ID, &acc.UserID, &acc.Name, &acc.Type, &acc.Subtype, &acc.Currency,
			&acc.IsActive, &acc.CreatedAt, &current, &previous,
		)
		if err != nil {
			log.Printf("[ACCOUNT] Failed to scan account row: %v", err)
			SendErrorResponse(w, "Failed to fetch accounts", http.StatusInternalServerError, nil)
			return
		}
		acc.CurrentBalance = fromCents(current)
		acc.PreviousBalance = fromCents(previous)
		accounts = append(accounts, acc)
	}

	SendJSON(w, http.StatusOK, accounts)
}

// GetAccountBalance retrieves the latest balance snapshot for an account
// @Summary Get account balance
// @Tags accounts
// @Produce json
// @Param accountId path string true "Account ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /accounts/{accountId}/balance [get]
func (as *AccountService) GetAccountBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	accountID := chi.URLParam(r, "accountId")

	var balance int64
	var date string
	err := as.db.QueryRow(`
		SELECT b.balance, b.date
		FROM account_balances b
		INNER JOIN accounts a ON b.account_id = a.id
		WHERE b.account_id = $1 AND a.user_id = $2
		ORDER BY b.date DESC
		LIMIT 1`, accountID, userID).Scan(&balance, &date)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		} else {
			log.Printf("[ACCOUNT] Failed to fetch balance for %s: %v", accountID, err)
			SendErrorResponse(w, "Failed to fetch balance", http.StatusInternalServerError, nil)
		}
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{
		"accountId": accountID,
		"balance":   fromCents(balance),
		"date":      date,
	})
}
