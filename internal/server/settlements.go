package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/evenup-dev/evenup/internal/middleware"
)

// GET /v1/events/{eventID}/balances
//
// Runs the settlement engine without persisting anything, so clients can
// preview who owes whom between computes.
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	view, err := s.settlements.Balances(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBalancesResponse(view))
}

// POST /v1/events/{eventID}/settlements/compute
func (s *Server) handleComputeSettlements(w http.ResponseWriter, r *http.Request) {
	result, err := s.settlements.Compute(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toComputeResponse(result))
}

// GET /v1/events/{eventID}/settlements
func (s *Server) handleListSettlements(w http.ResponseWriter, r *http.Request) {
	settlements, err := s.settlements.List(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettlementResponses(settlements))
}

// POST /v1/settlements/{settlementID}/settle
func (s *Server) handleMarkSettled(w http.ResponseWriter, r *http.Request) {
	settlement, err := s.settlements.MarkSettled(r.Context(), mw.GetUserID(r.Context()), chi.URLParam(r, "settlementID"))
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSettlementResponse(settlement))
}

// GET /v1/users/{userID}/debts
//
// Users may only read their own standing; admins may read anyone's.
func (s *Server) handleUserDebts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	actorID := mw.GetUserID(r.Context())
	if userID != actorID && !s.cfg.IsAdmin(actorID) {
		writeError(w, http.StatusForbidden, "cannot read another user's debts")
		return
	}

	debts, err := s.settlements.UserDebts(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDebtsResponses(debts))
}
