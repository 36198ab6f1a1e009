package handlers

import (
	"net/http"
)

func (h *Handler) SummaryByCategory(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SummaryByCategory(r.Context())
	if err != nil {
		h.internalError(w, r, "unable to build summary", err)
		return
	}
	respondJSON(w, http.StatusOK, newSummaryResponse(rows))
}

func (h *Handler) SummaryByMonth(w http.ResponseWriter, r *http.Request) {
	rows, err := h.service.SummaryByMonth(r.Context())
	if err != nil {
		h.internalError(w, r, "unable to build summary", err)
		return
	}
	respondJSON(w, http.StatusOK, newSummaryResponse(rows))
}
