package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"expenses/internal/db"
	"expenses/internal/models"
	"expenses/internal/money"
	"expenses/internal/store"

	"github.com/jmoiron/sqlx"
)

type CategoryStore interface {
	Create(ctx context.Context, tx store.Getter, name string) (models.Category, error)
	List(ctx context.Context) ([]models.Category, error)
	Delete(ctx context.Context, tx store.Execer, id int64) (int64, error)
}

type ExpenseStore interface {
	Create(ctx context.Context, tx store.Getter, input models.NewExpense) (models.Expense, error)
	GetByID(ctx context.Context, q store.Getter, id int64) (models.Expense, error)
	GetForUpdate(ctx context.Context, tx store.Getter, id int64) (models.Expense, error)
	Update(ctx context.Context, tx store.Getter, id int64, patch models.ExpensePatch) (models.Expense, error)
	Delete(ctx context.Context, tx store.Execer, id int64) (int64, error)
	List(ctx context.Context, q store.Selecter, filter models.ExpenseFilter, limit, offset int) ([]models.Expense, error)
	Count(ctx context.Context, q store.Getter, filter models.ExpenseFilter) (int, error)
	SummaryByCategory(ctx context.Context, q store.Selecter) ([]models.SummaryRow, error)
	SummaryByMonth(ctx context.Context, q store.Selecter) ([]models.SummaryRow, error)
}

// ExpenseService runs every bookkeeping operation as one transaction against
// the shared store. Callers are expected to validate input first.
type ExpenseService struct {
	txRunner   db.TxRunner
	categories CategoryStore
	expenses   ExpenseStore
}

func NewExpenseService(txRunner db.TxRunner, categories CategoryStore, expenses ExpenseStore) *ExpenseService {
	return &ExpenseService{
		txRunner:   txRunner,
		categories: categories,
		expenses:   expenses,
	}
}

func (s *ExpenseService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	var category models.Category
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		created, err := s.categories.Create(ctx, tx, name)
		if err != nil {
			return err
		}
		category = created
		return nil
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return models.Category{}, fmt.Errorf("%w: %q", ErrNameConflict, name)
		}
		return models.Category{}, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

func (s *ExpenseService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// DeleteCategory succeeds when the category does not exist. A category that
// still has expenses is left untouched and ErrReferentialConflict is returned
// wrapping the storage error.
func (s *ExpenseService) DeleteCategory(ctx context.Context, id int64) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.categories.Delete(ctx, tx, id)
		return err
	})
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: %w", ErrReferentialConflict, err)
		}
		return fmt.Errorf("delete category %d: %w", id, err)
	}
	return nil
}

func (s *ExpenseService) CreateExpense(ctx context.Context, input models.NewExpense) (models.Expense, error) {
	input.Currency = money.NormalizeCurrency(input.Currency)
	var expense models.Expense
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		created, err := s.expenses.Create(ctx, tx, input)
		if err != nil {
			return err
		}
		expense = created
		return nil
	})
	if err != nil {
		if store.IsForeignKeyViolation(err) {
			return models.Expense{}, fmt.Errorf("%w: %d", ErrCategoryNotFound, input.CategoryID)
		}
		return models.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return expense, nil
}

func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (models.Expense, error) {
	var expense models.Expense
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		found, err := s.expenses.GetByID(ctx, tx, id)
		if err != nil {
			return err
		}
		expense = found
		return nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Expense{}, ErrNotFound
		}
		return models.Expense{}, fmt.Errorf("get expense %d: %w", id, err)
	}
	return expense, nil
}

// UpdateExpense applies patch when expected is nil or equals the stored
// updated_at. The row is locked for the duration of the check so that two
// callers holding the same version cannot both succeed.
func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch, expected *time.Time) (models.Expense, error) {
	if patch.Currency != nil {
		currency := money.NormalizeCurrency(*patch.Currency)
		patch.Currency = &currency
	}
	var expense models.Expense
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		current, err := s.expenses.GetForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if expected != nil && !SameVersion(current.UpdatedAt, *expected) {
			return ErrConflict
		}
		updated, err := s.expenses.Update(ctx, tx, id, patch)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		expense = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrConflict) {
			return models.Expense{}, err
		}
		return models.Expense{}, fmt.Errorf("update expense %d: %w", id, err)
	}
	return expense, nil
}

// DeleteExpense succeeds whether or not the expense existed.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := s.expenses.Delete(ctx, tx, id)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

// ListExpenses returns the page-th window of size expenses matching filter,
// ordered by id, together with the total number of matches.
func (s *ExpenseService) ListExpenses(ctx context.Context, page, size int, filter models.ExpenseFilter) (models.ExpensePage, error) {
	if page < 1 || size < 1 {
		return models.ExpensePage{}, fmt.Errorf("%w: page and size must be positive", ErrValidation)
	}
	result := models.ExpensePage{Page: page, Size: size}
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		total, err := s.expenses.Count(ctx, tx, filter)
		if err != nil {
			return err
		}
		result.Total = total
		items, err := s.expenses.List(ctx, tx, filter, size, (page-1)*size)
		if err != nil {
			return err
		}
		result.Items = items
		return nil
	})
	if err != nil {
		return models.ExpensePage{}, fmt.Errorf("list expenses: %w", err)
	}
	if result.Items == nil {
		result.Items = []models.Expense{}
	}
	return result, nil
}

func (s *ExpenseService) SummaryByCategory(ctx context.Context) ([]models.SummaryRow, error) {
	return s.summary(ctx, "summary by category", s.expenses.SummaryByCategory)
}

func (s *ExpenseService) SummaryByMonth(ctx context.Context) ([]models.SummaryRow, error) {
	return s.summary(ctx, "summary by month", s.expenses.SummaryByMonth)
}

func (s *ExpenseService) summary(ctx context.Context, name string, query func(context.Context, store.Selecter) ([]models.SummaryRow, error)) ([]models.SummaryRow, error) {
	var rows []models.SummaryRow
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		found, err := query(ctx, tx)
		if err != nil {
			return err
		}
		rows = found
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if rows == nil {
		rows = []models.SummaryRow{}
	}
	return rows, nil
}

// SameVersion compares two version tokens at the precision Postgres stores
// timestamps with, ignoring time zones.
func SameVersion(stored, expected time.Time) bool {
	return stored.UTC().Truncate(time.Microsecond).Equal(expected.UTC().Truncate(time.Microsecond))
}
