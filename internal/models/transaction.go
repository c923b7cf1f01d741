package models

import (
	"time"
)

const (
	TransactionTypeInflow  = "inflow"
	TransactionTypeOutflow = "outflow"
)

// Transaction represents a single inflow or outflow against an account.
// Amount is always positive; Type carries the direction. Transfers are two
// rows whose TransferID fields point at each other.
type Transaction struct {
	ID          string    `json:"id" db:"id"`
	AccountID   string    `json:"accountId" db:"account_id"`
	CategoryID  *string   `json:"categoryId" db:"category_id"`
	Date        string    `json:"date" db:"date"`
	Amount      int64     `json:"amount" db:"amount"` // in cents, always positive
	Type        string    `json:"type" db:"type"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	IsPending   bool      `json:"isPending" db:"is_pending"`
	TransferID  *string   `json:"transferId" db:"transfer_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// TransactionListItem is a transaction joined with its account and category
// for list views. Amount is in major units.
type TransactionListItem struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Amount          float64 `json:"amount"`
	Type            string  `json:"type"`
	Date            string  `json:"date"`
	Description     string  `json:"description"`
	AccountID       string  `json:"accountId"`
	AccountName     string  `json:"accountName"`
	AccountType     string  `json:"accountType"`
	AccountCurrency string  `json:"accountCurrency"`
	CategoryID      *string `json:"categoryId"`
	CategoryName    *string `json:"categoryName"`
	CategoryColor   *string `json:"categoryColor"`
	TransferID      *string `json:"transferId"`
}

// TransactionSummary aggregates the last 30 days of activity.
type TransactionSummary struct {
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// ImportResult reports the outcome of a CSV import, row by row.
type ImportResult struct {
	Success int      `json:"success"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors"`
}
