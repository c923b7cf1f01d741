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

type BudgetService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewBudgetService(db *sql.DB) *BudgetService {
	return &BudgetService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

type NewBudgetRequest struct {
	CategoryID string  `json:"categoryId" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
}

type UpdateBudgetRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

// monthBounds returns the first day of the current month and the first day of
// the next month as date strings.
func monthBounds(now time.Time) (string, string) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start.Format("2006-01-02"), start.AddDate(0, 1, 0).Format("2006-01-02")
}

// ListBudgets retrieves the user's budgets with the current month's spending
// @Summary List budgets
// @Tags budgets
// @Produce json
// @Success 200 {array} models.BudgetWithSpending
// @Failure 500 {object} ErrorResponse
// @Router /budgets [get]
func (bs *BudgetService) ListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	monthStart, nextMonthStart := monthBounds(time.Now())

	rows, err := bs.db.Query(`
		SELECT bg.id, bg.amount, bg.category_id, c.name, COALESCE(c.color, ''),
		       COALESCE((SELECT SUM(t.amount) FROM transactions t
		                 WHERE t.category_id = bg.category_id
		                   AND t.type = 'outflow'
		                   AND t.date >= $2 AND t.date < $3), 0),
		       bg.created_at, bg.updated_at
		FROM budgets bg
		INNER JOIN categories c ON bg.category_id = c.id
		WHERE c.user_id = $1
		ORDER BY c.name ASC`, userID, monthStart, nextMonthStart)
	if err != nil {
		log.Printf("[BUDGET] Failed to fetch budgets: %v", err)
		SendErrorResponse(w, "Failed to fetch budgets", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	budgets := []models.BudgetWithSpending{}
	for rows.Next() {
		var b models.BudgetWithSpending
		var amount, spent int64
		err := rows.Scan(&b.ID, &amount, &b.CategoryID, &b.CategoryName, &b.CategoryColor,
			&spent, &b.CreatedAt, &b.UpdatedAt)
		if err != nil {
			log.Printf("[BUDGET] Failed to scan budget row: %v", err)
			SendErrorResponse(w, "Failed to fetch budgets", http.StatusInternalServerError, nil)
			return
		}

		b.Amount = fromCents(amount)
		b.Spent = fromCents(spent)
		b.Remaining = fromCents(amount - spent)
		if amount > 0 {
			b.PercentageUsed = float64(spent) / float64(amount) * 100
		}
		budgets = append(budgets, b)
	}

	SendJSON(w, http.StatusOK, budgets)
}

// CreateBudget sets a monthly cap on a category. A category can carry at most
// one budget.
// @Summary Create a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Param budget body NewBudgetRequest true "Budget data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /budgets [post]
func (bs *BudgetService) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req NewBudgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := bs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var categoryExists bool
	err := bs.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1 AND user_id = $2)`,
		req.CategoryID, userID).Scan(&categoryExists)
	if err != nil {
		log.Printf("[BUDGET] Failed to check category ownership: %v", err)
		SendErrorResponse(w, "Failed to create budget", http.StatusInternalServerError, nil)
		return
	}
	if !categoryExists {
		SendErrorResponse(w, "Category not found", http.StatusNotFound, nil)
		return
	}

	var budgetExists bool
	err = bs.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM budgets WHERE category_id = $1)`,
		req.CategoryID).Scan(&budgetExists)
	if err != nil {
		log.Printf("[BUDGET] Failed to check existing budget: %v", err)
		SendErrorResponse(w, "Failed to create budget", http.StatusInternalServerError, nil)
		return
	}
	if budgetExists {
		SendErrorResponse(w, "Category already has a budget", http.StatusConflict, nil)
		return
	}

	budgetID := uuid.New().String()
	_, err = bs.db.Exec(`
		INSERT INTO budgets (id, category_id, amount, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())`,
		budgetID, req.CategoryID, toCents(req.Amount))
	if err != nil {
		log.Printf("[BUDGET] Failed to insert budget: %v", err)
		SendErrorResponse(w, "Failed to create budget", http.StatusInternalServerError, nil)
		return
	}

	SendJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      budgetID,
	})
}

// UpdateBudget changes the budget amount
// @Summary Update a budget
// @Tags budgets
// @Accept json
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Param budget body UpdateBudgetRequest true "Budget data"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{budgetId} [put]
func (bs *BudgetService) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	budgetID := chi.URLParam(r, "budgetId")

	var req UpdateBudgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := bs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	result, err := bs.db.Exec(`
		UPDATE budgets SET amount = $1, updated_at = NOW()
		WHERE id = $2
		  AND category_id IN (SELECT id FROM categories WHERE user_id = $3)`,
		toCents(req.Amount), budgetID, userID)
	if err != nil {
		log.Printf("[BUDGET] Failed to update budget %s: %v", budgetID, err)
		SendErrorResponse(w, "Failed to update budget", http.StatusInternalServerError, nil)
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Budget not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}

// DeleteBudget removes a budget
// @Summary Delete a budget
// @Tags budgets
// @Produce json
// @Param budgetId path string true "Budget ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} ErrorResponse
// @Router /budgets/{budgetId} [delete]
func (bs *BudgetService) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromRequest(r)
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	budgetID := chi.URLParam(r, "budgetId")

	result, err := bs.db.Exec(`
		DELETE FROM budgets
		WHERE id = $1
		  AND category_id IN (SELECT id FROM categories WHERE user_id = $2)`,
		budgetID, userID)
	if err != nil {
		log.Printf("[BUDGET] Failed to delete budget %s: %v", budgetID, err)
		SendErrorResponse(w, "Failed to delete budget", http.StatusInternalServerError, nil)
		return
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		SendErrorResponse(w, "Budget not found", http.StatusNotFound, nil)
		return
	}

	SendJSON(w, http.StatusOK, map[string]any{"success": true})
}
