package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expenses/internal/models"
	"expenses/internal/money"
	"expenses/internal/services"
	"expenses/internal/validator"

	"github.com/go-chi/chi/v5"
)

type createExpenseRequest struct {
	CategoryID int64       `json:"category_id"`
	Amount     json.Number `json:"amount"`
	Currency   string      `json:"currency"`
	Name       *string     `json:"name"`
}

func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if req.CategoryID <= 0 {
		respondError(w, http.StatusBadRequest, "category_id is required")
		return
	}
	amount, err := money.ParsePositive(req.Amount.String())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	currency := strings.TrimSpace(req.Currency)
	if err := validator.ValidateCurrency(currency, h.cfg.Currencies); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name != nil {
		if err := validator.ValidateExpenseName(*req.Name); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	expense, err := h.service.CreateExpense(r.Context(), models.NewExpense{
		CategoryID: req.CategoryID,
		Amount:     amount,
		Currency:   currency,
		Name:       req.Name,
	})
	if err != nil {
		if errors.Is(err, services.ErrCategoryNotFound) {
			respondError(w, http.StatusNotFound, "category not found")
			return
		}
		h.internalError(w, r, "unable to create expense", err)
		return
	}
	respondJSON(w, http.StatusCreated, newExpenseResponse(expense))
}

func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	page, size, filter, err := parseExpenseQuery(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.service.ListExpenses(r.Context(), page, size, filter)
	if err != nil {
		if errors.Is(err, services.ErrValidation) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.internalError(w, r, "unable to load expenses", err)
		return
	}
	items := make([]expenseResponse, 0, len(result.Items))
	for _, expense := range result.Items {
		items = append(items, newExpenseResponse(expense))
	}
	respondJSON(w, http.StatusOK, expensePageResponse{
		Items: items,
		Total: result.Total,
		Page:  result.Page,
		Size:  result.Size,
	})
}

func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := h.service.GetExpense(r.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		h.internalError(w, r, "unable to load expense", err)
		return
	}
	respondJSON(w, http.StatusOK, newExpenseResponse(expense))
}

// decodeExpensePatch keeps absent fields apart from explicit nulls so that
// {"name": null} clears the name while {} leaves it alone.
func (h *Handler) decodeExpensePatch(r *http.Request) (models.ExpensePatch, *time.Time, error) {
	var patch models.ExpensePatch
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return patch, nil, errors.New("invalid payload")
	}
	var expected *time.Time
	for key, raw := range fields {
		null := bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
		switch key {
		case "amount":
			var number json.Number
			if null || json.Unmarshal(raw, &number) != nil {
				return patch, nil, money.ErrInvalidAmount
			}
			amount, err := money.ParsePositive(number.String())
			if err != nil {
				return patch, nil, err
			}
			patch.Amount = &amount
		case "currency":
			var currency string
			if null || json.Unmarshal(raw, &currency) != nil {
				return patch, nil, validator.ErrInvalidCurrency
			}
			currency = strings.TrimSpace(currency)
			if err := validator.ValidateCurrency(currency, h.cfg.Currencies); err != nil {
				return patch, nil, err
			}
			patch.Currency = &currency
		case "name":
			if null {
				patch.ClearName = true
				continue
			}
			var name string
			if err := json.Unmarshal(raw, &name); err != nil {
				return patch, nil, errors.New("name must be a string")
			}
			if err := validator.ValidateExpenseName(name); err != nil {
				return patch, nil, err
			}
			patch.Name = &name
		case "expected_updated_at":
			if null {
				continue
			}
			var rawTime string
			if err := json.Unmarshal(raw, &rawTime); err != nil {
				return patch, nil, errInvalidTime
			}
			version, err := time.Parse(time.RFC3339Nano, rawTime)
			if err != nil {
				return patch, nil, fmt.Errorf("expected_updated_at: %w", errInvalidTime)
			}
			expected = &version
		default:
			return patch, nil, fmt.Errorf("unknown field %q", key)
		}
	}
	return patch, expected, nil
}

func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, expected, err := h.decodeExpensePatch(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	expense, err := h.service.UpdateExpense(r.Context(), id, patch, expected)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotFound):
			respondError(w, http.StatusNotFound, "expense not found")
		case errors.Is(err, services.ErrConflict):
			respondError(w, http.StatusConflict, "expense was modified by another request")
		default:
			h.internalError(w, r, "unable to update expense", err)
		}
		return
	}
	respondJSON(w, http.StatusOK, newExpenseResponse(expense))
}

func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		h.internalError(w, r, "unable to delete expense", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
