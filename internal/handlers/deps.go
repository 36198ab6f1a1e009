package handlers

import (
	"context"
	"time"

	"expenses/internal/models"
	"expenses/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Getter, username, passwordHash string) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
	GetByID(ctx context.Context, id int64) (models.User, error)
}

type ExpenseService interface {
	CreateCategory(ctx context.Context, name string) (models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	CreateExpense(ctx context.Context, input models.NewExpense) (models.Expense, error)
	GetExpense(ctx context.Context, id int64) (models.Expense, error)
	UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch, expected *time.Time) (models.Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	ListExpenses(ctx context.Context, page, size int, filter models.ExpenseFilter) (models.ExpensePage, error)
	SummaryByCategory(ctx context.Context) ([]models.SummaryRow, error)
	SummaryByMonth(ctx context.Context) ([]models.SummaryRow, error)
}
