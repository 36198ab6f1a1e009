package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"expenses/internal/models"
	"expenses/internal/money"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// internalError logs err with the request id and hides it from the client.
func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, message string, err error) {
	h.logger.Error(message,
		zap.Error(err),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.String("path", r.URL.Path),
	)
	respondError(w, http.StatusInternalServerError, message)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

type userResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at"`
}

func newUserResponse(user models.User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		IsActive:  user.IsActive,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

type categoryResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at"`
}

func newCategoryResponse(category models.Category) categoryResponse {
	return categoryResponse{
		ID:        category.ID,
		Name:      category.Name,
		CreatedAt: formatTime(category.CreatedAt),
	}
}

type expenseResponse struct {
	ID         int64   `json:"id"`
	CategoryID int64   `json:"category_id"`
	Amount     string  `json:"amount"`
	Currency   string  `json:"currency"`
	Name       *string `json:"name"`
	CreatedAt  string  `json:"created_at"`
	UpdatedAt  string  `json:"updated_at"`
}

func newExpenseResponse(expense models.Expense) expenseResponse {
	return expenseResponse{
		ID:         expense.ID,
		CategoryID: expense.CategoryID,
		Amount:     money.Format(expense.Amount),
		Currency:   expense.Currency,
		Name:       expense.Name,
		CreatedAt:  formatTime(expense.CreatedAt),
		UpdatedAt:  formatTime(expense.UpdatedAt),
	}
}

type expensePageResponse struct {
	Items []expenseResponse `json:"items"`
	Total int               `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

type summaryResponse struct {
	Key         string `json:"key"`
	Currency    string `json:"currency"`
	TotalAmount string `json:"total_amount"`
}

func newSummaryResponse(rows []models.SummaryRow) []summaryResponse {
	response := make([]summaryResponse, 0, len(rows))
	for _, row := range rows {
		response = append(response, summaryResponse{
			Key:         row.Key,
			Currency:    row.Currency,
			TotalAmount: money.Format(row.TotalAmount),
		})
	}
	return response
}
