package store

import (
	"context"
	"strings"

	"expenses/internal/models"
)

const expenseColumns = `id, category_id, amount, currency, name, created_at, updated_at`

// bumpVersion moves updated_at forward even when the clock has not advanced
// past the stored value at microsecond precision.
const bumpVersion = `updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')`

// ExpenseStore runs every statement through the caller's transaction so
// reads and writes of one operation share a snapshot.
type ExpenseStore struct{}

func NewExpenseStore() *ExpenseStore {
	return &ExpenseStore{}
}

func (s *ExpenseStore) Create(ctx context.Context, tx Getter, input models.NewExpense) (models.Expense, error) {
	var expense models.Expense
	err := tx.GetContext(ctx, &expense, `
		INSERT INTO expenses (category_id, amount, currency, name)
		VALUES ($1, $2, $3, $4)
		RETURNING `+expenseColumns, input.CategoryID, input.Amount, input.Currency, input.Name)
	return expense, err
}

func (s *ExpenseStore) GetByID(ctx context.Context, q Getter, id int64) (models.Expense, error) {
	var expense models.Expense
	err := q.GetContext(ctx, &expense, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id)
	return expense, err
}

// GetForUpdate reads the expense and locks its row until the surrounding
// transaction ends.
func (s *ExpenseStore) GetForUpdate(ctx context.Context, tx Getter, id int64) (models.Expense, error) {
	var expense models.Expense
	err := tx.GetContext(ctx, &expense, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1 FOR UPDATE`, id)
	return expense, err
}

// Update applies every field of the patch in one statement and bumps
// updated_at. It returns sql.ErrNoRows when the expense does not exist.
func (s *ExpenseStore) Update(ctx context.Context, tx Getter, id int64, patch models.ExpensePatch) (models.Expense, error) {
	sets, args := patchAssignments(patch)
	sets = append(sets, bumpVersion)
	args = append(args, id)
	query := `UPDATE expenses SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + itoa(len(args)) +
		` RETURNING ` + expenseColumns
	var expense models.Expense
	err := tx.GetContext(ctx, &expense, query, args...)
	return expense, err
}

func (s *ExpenseStore) Delete(ctx context.Context, tx Execer, id int64) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// List returns one window of the expenses matching filter, oldest id first.
func (s *ExpenseStore) List(ctx context.Context, q Selecter, filter models.ExpenseFilter, limit, offset int) ([]models.Expense, error) {
	where, args := filterClause(filter)
	param := len(args) + 1
	query := `SELECT ` + expenseColumns + ` FROM expenses` + where +
		` ORDER BY id ASC LIMIT $` + itoa(param) + ` OFFSET $` + itoa(param+1)
	args = append(args, limit, offset)
	expenses := []models.Expense{}
	if err := q.SelectContext(ctx, &expenses, query, args...); err != nil {
		return nil, err
	}
	return expenses, nil
}

// Count returns the number of expenses matching filter, regardless of any
// page window.
func (s *ExpenseStore) Count(ctx context.Context, q Getter, filter models.ExpenseFilter) (int, error) {
	where, args := filterClause(filter)
	var total int
	err := q.GetContext(ctx, &total, `SELECT COUNT(*) FROM expenses`+where, args...)
	return total, err
}

func (s *ExpenseStore) SummaryByCategory(ctx context.Context, q Selecter) ([]models.SummaryRow, error) {
	rows := []models.SummaryRow{}
	err := q.SelectContext(ctx, &rows, `
		SELECT c.name AS key,
		       e.currency,
		       SUM(e.amount) AS total_amount
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		GROUP BY c.name, e.currency
		ORDER BY c.name ASC, e.currency ASC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *ExpenseStore) SummaryByMonth(ctx context.Context, q Selecter) ([]models.SummaryRow, error) {
	rows := []models.SummaryRow{}
	err := q.SelectContext(ctx, &rows, `
		SELECT to_char(e.created_at AT TIME ZONE 'UTC', 'YYYY-MM') AS key,
		       e.currency,
		       SUM(e.amount) AS total_amount
		FROM expenses e
		GROUP BY key, e.currency
		ORDER BY key DESC, e.currency ASC
	`)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func patchAssignments(patch models.ExpensePatch) ([]string, []any) {
	var sets []string
	var args []any
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, column+" = $"+itoa(len(args)))
	}
	if patch.Amount != nil {
		add("amount", *patch.Amount)
	}
	if patch.Currency != nil {
		add("currency", *patch.Currency)
	}
	if patch.ClearName {
		sets = append(sets, "name = NULL")
	} else if patch.Name != nil {
		add("name", *patch.Name)
	}
	return sets, args
}

func filterClause(filter models.ExpenseFilter) (string, []any) {
	var conditions []string
	var args []any
	add := func(condition string, value any) {
		args = append(args, value)
		conditions = append(conditions, strings.Replace(condition, "?", "$"+itoa(len(args)), 1))
	}
	if filter.CategoryID != nil {
		add("category_id = ?", *filter.CategoryID)
	}
	if filter.MinAmount != nil {
		add("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		add("amount <= ?", *filter.MaxAmount)
	}
	if filter.From != nil {
		add("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		add("created_at <= ?", *filter.To)
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}
