package models

import "time"

type User struct {
	ID        int       `json:"id" example:"1"`                   // User ID
	Email     string    `json:"email" example:"user@example.com"` // User email
	FirstName string    `json:"firstName" example:"John"`         // User first name
	LastName  string    `json:"lastName" example:"Doe"`           // User last name
	CreatedAt time.Time `json:"createdAt"`
}

// Preferences holds per-user display and notification settings.
type Preferences struct {
	Currency             string `json:"currency" db:"currency"`
	DateFormat           string `json:"dateFormat" db:"date_format"`
	Timezone             string `json:"timezone" db:"timezone"`
	BudgetAlerts         bool   `json:"budgetAlerts" db:"budget_alerts"`
	TransactionReminders bool   `json:"transactionReminders" db:"transaction_reminders"`
}
