package http

import (
	"net/http"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	if s.budgets == nil {
		respondError(w, r, "get_budget", sources.ErrNotConfigured)
		return
	}
	budgets, defaults, err := s.budgets.Get(r.Context())
	if err != nil {
		respondError(w, r, "get_budget", err)
		return
	}
	if defaults {
		log.FromContext(r.Context()).DebugContext(r.Context(), "No budgets stored, serving defaults")
	}
	writeJSON(w, http.StatusOK, budgets)
}

type saveBudgetResponse struct {
	Message string         `json:"message"`
	Budgets core.BudgetMap `json:"budgets"`
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	if s.budgets == nil {
		respondError(w, r, "save_budget", sources.ErrNotConfigured)
		return
	}
	var body any
	if err := decodeJSONBody(w, r, &body); err != nil {
		respondError(w, r, "save_budget", err)
		return
	}

	saved, err := s.budgets.Save(r.Context(), body)
	if err != nil {
		respondError(w, r, "save_budget", err)
		return
	}

	writeJSON(w, http.StatusOK, saveBudgetResponse{
		Message: "Budget saved successfully",
		Budgets: saved,
	})
}
