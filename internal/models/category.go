package models

// Category labels transactions for budgeting and analytics. Type follows the
// transaction direction it is meant for.
type Category struct {
	ID       string  `json:"id" db:"id"`
	UserID   int     `json:"userId" db:"user_id"`
	Name     string  `json:"name" db:"name"`
	Type     string  `json:"type" db:"type"`
	Color    string  `json:"color" db:"color"`
	ParentID *string `json:"parentId" db:"parent_id"`
}
