package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"expenses/internal/services"
	"expenses/internal/validator"

	"github.com/go-chi/chi/v5"
)

type createCategoryRequest struct {
	Name string `json:"name"`
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		h.internalError(w, r, "unable to load categories", err)
		return
	}
	response := make([]categoryResponse, 0, len(categories))
	for _, category := range categories {
		response = append(response, newCategoryResponse(category))
	}
	respondJSON(w, http.StatusOK, response)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	name, err := validator.NormalizeCategoryName(req.Name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	category, err := h.service.CreateCategory(r.Context(), name)
	if err != nil {
		if errors.Is(err, services.ErrNameConflict) {
			respondError(w, http.StatusConflict, "category already exists")
			return
		}
		h.internalError(w, r, "unable to create category", err)
		return
	}
	respondJSON(w, http.StatusCreated, newCategoryResponse(category))
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.service.DeleteCategory(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrReferentialConflict) {
			respondError(w, http.StatusConflict, "category is still used by expenses")
			return
		}
		h.internalError(w, r, "unable to delete category", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
