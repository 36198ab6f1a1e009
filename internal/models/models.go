package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type User struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

type Category struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Expense is a single spending record. UpdatedAt doubles as the version
// token for optimistic updates.
type Expense struct {
	ID         int64           `db:"id" json:"id"`
	CategoryID int64           `db:"category_id" json:"category_id"`
	Amount     decimal.Decimal `db:"amount" json:"amount"`
	Currency   string          `db:"currency" json:"currency"`
	Name       *string         `db:"name" json:"name,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

type NewExpense struct {
	CategoryID int64
	Amount     decimal.Decimal
	Currency   string
	Name       *string
}

// ExpensePatch holds the mutable fields of an expense. Nil fields are left
// untouched; ClearName sets the name to NULL.
type ExpensePatch struct {
	Amount    *decimal.Decimal
	Currency  *string
	Name      *string
	ClearName bool
}

type ExpenseFilter struct {
	CategoryID *int64
	MinAmount  *decimal.Decimal
	MaxAmount  *decimal.Decimal
	From       *time.Time
	To         *time.Time
}

type ExpensePage struct {
	Items []Expense
	Total int
	Page  int
	Size  int
}

type SummaryRow struct {
	Key         string          `db:"key" json:"key"`
	Currency    string          `db:"currency" json:"currency"`
	TotalAmount decimal.Decimal `db:"total_amount" json:"total_amount"`
}
