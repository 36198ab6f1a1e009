package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"expenses/internal/models"
	"expenses/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// memStore mimics the Postgres schema closely enough to exercise the
// service: unique lower(name), RESTRICT foreign key, id ordering and
// monotonic updated_at.
type memStore struct {
	mu         sync.Mutex
	now        func() time.Time
	nextCatID  int64
	nextExpID  int64
	categories map[int64]models.Category
	expenses   map[int64]models.Expense
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:        now,
		categories: map[int64]models.Category{},
		expenses:   map[int64]models.Expense{},
	}
}

type memSnapshot struct {
	nextCatID  int64
	nextExpID  int64
	categories map[int64]models.Category
	expenses   map[int64]models.Expense
}

func (m *memStore) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := memSnapshot{
		nextCatID:  m.nextCatID,
		nextExpID:  m.nextExpID,
		categories: make(map[int64]models.Category, len(m.categories)),
		expenses:   make(map[int64]models.Expense, len(m.expenses)),
	}
	for id, c := range m.categories {
		snap.categories[id] = c
	}
	for id, e := range m.expenses {
		snap.expenses[id] = e
	}
	return snap
}

func (m *memStore) restore(snap memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextCatID = snap.nextCatID
	m.nextExpID = snap.nextExpID
	m.categories = snap.categories
	m.expenses = snap.expenses
}

// memTxRunner rolls the store back to its state before fn when fn fails.
type memTxRunner struct {
	store *memStore
	calls int
}

func (r *memTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	r.calls++
	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

type memCategories struct{ *memStore }

func (m memCategories) Create(_ context.Context, _ store.Getter, name string) (models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.categories {
		if strings.EqualFold(existing.Name, name) {
			return models.Category{}, &pq.Error{Code: "23505"}
		}
	}
	m.nextCatID++
	category := models.Category{ID: m.nextCatID, Name: name, CreatedAt: m.now()}
	m.categories[category.ID] = category
	return category, nil
}

func (m memCategories) List(context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	categories := make([]models.Category, 0, len(m.categories))
	for _, c := range m.categories {
		categories = append(categories, c)
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m memCategories) Delete(_ context.Context, _ store.Execer, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[id]; !ok {
		return 0, nil
	}
	for _, e := range m.expenses {
		if e.CategoryID == id {
			return 0, &pq.Error{Code: "23503"}
		}
	}
	delete(m.categories, id)
	return 1, nil
}

type memExpenses struct{ *memStore }

func (m memExpenses) Create(_ context.Context, _ store.Getter, input models.NewExpense) (models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.categories[input.CategoryID]; !ok {
		return models.Expense{}, &pq.Error{Code: "23503"}
	}
	m.nextExpID++
	now := m.now()
	expense := models.Expense{
		ID:         m.nextExpID,
		CategoryID: input.CategoryID,
		Amount:     input.Amount,
		Currency:   input.Currency,
		Name:       input.Name,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	m.expenses[expense.ID] = expense
	return expense, nil
}

func (m memExpenses) GetByID(_ context.Context, _ store.Getter, id int64) (models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense, ok := m.expenses[id]
	if !ok {
		return models.Expense{}, sql.ErrNoRows
	}
	return expense, nil
}

func (m memExpenses) GetForUpdate(ctx context.Context, tx store.Getter, id int64) (models.Expense, error) {
	return m.GetByID(ctx, tx, id)
}

func (m memExpenses) Update(_ context.Context, _ store.Getter, id int64, patch models.ExpensePatch) (models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	expense, ok := m.expenses[id]
	if !ok {
		return models.Expense{}, sql.ErrNoRows
	}
	if patch.Amount != nil {
		expense.Amount = *patch.Amount
	}
	if patch.Currency != nil {
		expense.Currency = *patch.Currency
	}
	if patch.ClearName {
		expense.Name = nil
	} else if patch.Name != nil {
		name := *patch.Name
		expense.Name = &name
	}
	next := m.now()
	if floor := expense.UpdatedAt.Add(time.Microsecond); next.Before(floor) {
		next = floor
	}
	expense.UpdatedAt = next
	m.expenses[id] = expense
	return expense, nil
}

func (m memExpenses) Delete(_ context.Context, _ store.Execer, id int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.expenses[id]; !ok {
		return 0, nil
	}
	delete(m.expenses, id)
	return 1, nil
}

func (m memExpenses) matching(filter models.ExpenseFilter) []models.Expense {
	var matched []models.Expense
	for _, e := range m.expenses {
		if matchesFilter(e, filter) {
			matched = append(matched, e)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}

func (m memExpenses) List(_ context.Context, _ store.Selecter, filter models.ExpenseFilter, limit, offset int) ([]models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matched := m.matching(filter)
	if offset >= len(matched) {
		return []models.Expense{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (m memExpenses) Count(_ context.Context, _ store.Getter, filter models.ExpenseFilter) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.matching(filter)), nil
}

func (m memExpenses) SummaryByCategory(context.Context, store.Selecter) ([]models.SummaryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group(func(e models.Expense) string { return m.categories[e.CategoryID].Name }, false), nil
}

func (m memExpenses) SummaryByMonth(context.Context, store.Selecter) ([]models.SummaryRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.group(func(e models.Expense) string { return e.CreatedAt.UTC().Format("2006-01") }, true), nil
}

func (m memExpenses) group(key func(models.Expense) string, keyDesc bool) []models.SummaryRow {
	sums := map[[2]string]decimal.Decimal{}
	for _, e := range m.expenses {
		k := [2]string{key(e), e.Currency}
		sums[k] = sums[k].Add(e.Amount)
	}
	rows := make([]models.SummaryRow, 0, len(sums))
	for k, total := range sums {
		rows = append(rows, models.SummaryRow{Key: k[0], Currency: k[1], TotalAmount: total})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Key != rows[j].Key {
			if keyDesc {
				return rows[i].Key > rows[j].Key
			}
			return rows[i].Key < rows[j].Key
		}
		return rows[i].Currency < rows[j].Currency
	})
	return rows
}

func matchesFilter(e models.Expense, filter models.ExpenseFilter) bool {
	if filter.CategoryID != nil && e.CategoryID != *filter.CategoryID {
		return false
	}
	if filter.MinAmount != nil && e.Amount.LessThan(*filter.MinAmount) {
		return false
	}
	if filter.MaxAmount != nil && e.Amount.GreaterThan(*filter.MaxAmount) {
		return false
	}
	if filter.From != nil && e.CreatedAt.Before(*filter.From) {
		return false
	}
	if filter.To != nil && e.CreatedAt.After(*filter.To) {
		return false
	}
	return true
}
