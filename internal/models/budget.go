package models

import (
	"time"
)

// Budget is a monthly spending cap for a category. One budget per category.
type Budget struct {
	ID         string    `json:"id" db:"id"`
	CategoryID string    `json:"categoryId" db:"category_id"`
	Amount     int64     `json:"amount" db:"amount"` // in cents
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
}

// BudgetWithSpending is a budget joined with its category and the current
// month's spending, in major units.
type BudgetWithSpending struct {
	ID             string    `json:"id"`
	Amount         float64   `json:"amount"`
	CategoryID     string    `json:"categoryId"`
	CategoryName   string    `json:"categoryName"`
	CategoryColor  string    `json:"categoryColor"`
	Spent          float64   `json:"spent"`
	Remaining      float64   `json:"remaining"`
	PercentageUsed float64   `json:"percentageUsed"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
