package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	mw "github.com/evenup-dev/evenup/internal/middleware"
	"github.com/evenup-dev/evenup/internal/models"
	"github.com/evenup-dev/evenup/internal/service"
)

type splitRequest struct {
	TargetKind      string           `json:"target_kind"`
	TargetID        string           `json:"target_id"`
	ShareAmount     *decimal.Decimal `json:"share_amount"`
	SharePercentage *decimal.Decimal `json:"share_percentage"`
}

type expenseRequest struct {
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	PayerID     string          `json:"payer_id"`
	SplitType   string          `json:"split_type"`
	Splits      []splitRequest  `json:"splits"`
}

func (req *expenseRequest) toInput() service.ExpenseInput {
	splits := make([]service.SplitInput, 0, len(req.Splits))
	for _, sp := range req.Splits {
		splits = append(splits, service.SplitInput{
			Target: models.SplitTarget{
				Kind: models.TargetKind(sp.TargetKind),
				ID:   sp.TargetID,
			},
			ShareAmount:     sp.ShareAmount,
			SharePercentage: sp.SharePercentage,
		})
	}
	return service.ExpenseInput{
		Description: req.Description,
		Category:    req.Category,
		Amount:      req.Amount,
		PayerID:     req.PayerID,
		SplitType:   models.SplitType(req.SplitType),
		Splits:      splits,
	}
}

// POST /v1/events/{eventID}/expenses
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.expenses.Create(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"), req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toExpenseResponse(expense))
}

// GET /v1/events/{eventID}/expenses
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.List(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponses(expenses))
}

// GET /v1/events/{eventID}/expenses/summary
func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.expenses.Summary(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(summary))
}

// GET /v1/expenses/{expenseID}
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	expense, err := s.expenses.Get(r.Context(), chi.URLParam(r, "expenseID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

// PUT /v1/expenses/{expenseID}
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	expense, err := s.expenses.Update(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "expenseID"), req.toInput())
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpenseResponse(expense))
}

// DELETE /v1/expenses/{expenseID}
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := s.expenses.SoftDelete(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "expenseID")); err != nil {
		respondError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
