package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"expenses/internal/auth"
	"expenses/internal/config"
	"expenses/internal/db"
	"expenses/internal/models"
	"expenses/internal/store"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn        func(ctx context.Context, tx store.Getter, username, passwordHash string) (models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (models.User, error)
	getByIDFn       func(ctx context.Context, id int64) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Getter, username, passwordHash string) (models.User, error) {
	if s.createFn == nil {
		return models.User{}, nil
	}
	return s.createFn(ctx, tx, username, passwordHash)
}

func (s stubUserStore) GetByUsername(ctx context.Context, username string) (models.User, error) {
	if s.getByUsernameFn == nil {
		return models.User{}, nil
	}
	return s.getByUsernameFn(ctx, username)
}

func (s stubUserStore) GetByID(ctx context.Context, id int64) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, nil
	}
	return s.getByIDFn(ctx, id)
}

type stubService struct {
	createCategoryFn    func(ctx context.Context, name string) (models.Category, error)
	listCategoriesFn    func(ctx context.Context) ([]models.Category, error)
	deleteCategoryFn    func(ctx context.Context, id int64) error
	createExpenseFn     func(ctx context.Context, input models.NewExpense) (models.Expense, error)
	getExpenseFn        func(ctx context.Context, id int64) (models.Expense, error)
	updateExpenseFn     func(ctx context.Context, id int64, patch models.ExpensePatch, expected *time.Time) (models.Expense, error)
	deleteExpenseFn     func(ctx context.Context, id int64) error
	listExpensesFn      func(ctx context.Context, page, size int, filter models.ExpenseFilter) (models.ExpensePage, error)
	summaryByCategoryFn func(ctx context.Context) ([]models.SummaryRow, error)
	summaryByMonthFn    func(ctx context.Context) ([]models.SummaryRow, error)
}

func (s stubService) CreateCategory(ctx context.Context, name string) (models.Category, error) {
	if s.createCategoryFn == nil {
		return models.Category{}, nil
	}
	return s.createCategoryFn(ctx, name)
}

func (s stubService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if s.listCategoriesFn == nil {
		return nil, nil
	}
	return s.listCategoriesFn(ctx)
}

func (s stubService) DeleteCategory(ctx context.Context, id int64) error {
	if s.deleteCategoryFn == nil {
		return nil
	}
	return s.deleteCategoryFn(ctx, id)
}

func (s stubService) CreateExpense(ctx context.Context, input models.NewExpense) (models.Expense, error) {
	if s.createExpenseFn == nil {
		return models.Expense{}, nil
	}
	return s.createExpenseFn(ctx, input)
}

func (s stubService) GetExpense(ctx context.Context, id int64) (models.Expense, error) {
	if s.getExpenseFn == nil {
		return models.Expense{}, nil
	}
	return s.getExpenseFn(ctx, id)
}

func (s stubService) UpdateExpense(ctx context.Context, id int64, patch models.ExpensePatch, expected *time.Time) (models.Expense, error) {
	if s.updateExpenseFn == nil {
		return models.Expense{}, nil
	}
	return s.updateExpenseFn(ctx, id, patch, expected)
}

func (s stubService) DeleteExpense(ctx context.Context, id int64) error {
	if s.deleteExpenseFn == nil {
		return nil
	}
	return s.deleteExpenseFn(ctx, id)
}

func (s stubService) ListExpenses(ctx context.Context, page, size int, filter models.ExpenseFilter) (models.ExpensePage, error) {
	if s.listExpensesFn == nil {
		return models.ExpensePage{Page: page, Size: size}, nil
	}
	return s.listExpensesFn(ctx, page, size, filter)
}

func (s stubService) SummaryByCategory(ctx context.Context) ([]models.SummaryRow, error) {
	if s.summaryByCategoryFn == nil {
		return nil, nil
	}
	return s.summaryByCategoryFn(ctx)
}

func (s stubService) SummaryByMonth(ctx context.Context) ([]models.SummaryRow, error) {
	if s.summaryByMonthFn == nil {
		return nil, nil
	}
	return s.summaryByMonthFn(ctx)
}

func newTestHandler(txRunner db.TxRunner, users UserStore, service ExpenseService) *Handler {
	cfg := config.Config{
		AppEnv:         "test",
		Port:           "0",
		JWTSecret:      "secret",
		TokenTTL:       time.Minute,
		AllowedOrigins: "*",
		Currencies:     []string{"USD", "EUR"},
	}
	return New(txRunner, cfg, zap.NewNop(), users, service)
}

func bearerToken(t *testing.T) string {
	t.Helper()
	token, err := auth.GenerateToken("secret", 1, "alice", time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return "Bearer " + token
}

// serve sends an authenticated request through the full router.
func serve(t *testing.T, handler *Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("failed to encode body: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearerToken(t))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, dest any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dest); err != nil {
		t.Fatalf("failed to decode response %q: %v", rr.Body.String(), err)
	}
}

func stringPtr(value string) *string {
	return &value
}
