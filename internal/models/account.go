package models

import (
	"time"
)

const (
	AccountTypeCash       = "cash"
	AccountTypeInvestment = "investment"
	AccountTypeLiability  = "liability"
	AccountTypeOtherAsset = "other_asset"
)

// Account represents a user-owned money account
type Account struct {
	ID        string    `json:"id" db:"id"`
	UserID    int       `json:"userId" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	Subtype   string    `json:"subtype,omitempty" db:"subtype"`
	Currency  string    `json:"currency" db:"currency"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// AccountWithBalance is an account plus its latest and month-start balances,
// converted to major units for the client.
type AccountWithBalance struct {
	Account
	CurrentBalance  float64 `json:"currentBalance"`
	PreviousBalance float64 `json:"previousBalance"`
}

// AccountBalance is an end-of-day balance snapshot. One row per
// (account_id, date); the row with the latest date is the account's
// current balance.
type AccountBalance struct {
	ID        string `json:"id" db:"id"`
	AccountID string `json:"accountId" db:"account_id"`
	Date      string `json:"date" db:"date"`
	Balance   int64  `json:"balance" db:"balance"` // in cents
}
